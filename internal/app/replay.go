package app

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"sort"
	"sync"

	"github.com/relabs-tech/inertial_decoder/internal/config"
	"github.com/relabs-tech/inertial_decoder/internal/sensors"
)

// linePublisher writes each reading as "<topic> <json>" on its own line.
type linePublisher struct {
	mu sync.Mutex
	w  io.Writer
}

func (l *linePublisher) Publish(topic string, v any) error {
	payload, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("json marshal: %w", err)
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	_, err = fmt.Fprintf(l.w, "%s %s\n", topic, payload)
	return err
}

// ReplayTopics names readings by kind only.
var ReplayTopics = Topics{
	Accel:  "accel",
	Gyro:   "gyro",
	GPS:    "gps",
	ESFRaw: "esf_raw",
	IMU:    "imu",
	Temp:   "temp",
	Pose:   "pose",
	Vector: "dr",
}

// RunReplay decodes a capture file (or "-" for stdin) byte by byte and
// prints every reading to out, followed by the decoder counters. cfg
// supplies the decoder settings; config.Default() is fine.
func RunReplay(cfg *config.Config, path string, out io.Writer, verbose bool) error {
	src, err := sensors.OpenCapture(path)
	if err != nil {
		return err
	}
	defer src.Close()

	pump := newStreamPump(cfg, stream{name: "replay", nmea: true, ubx: true}, &linePublisher{w: out}, nil)
	pump.opts.Topics = ReplayTopics
	pump.opts.StatsInterval = 0
	pump.opts.Verbose = verbose

	if err := pump.Run(context.Background(), src); err != nil {
		return err
	}

	stats := pump.Stats()
	names := make([]string, 0, len(stats))
	for name := range stats {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		s := stats[name]
		log.Printf("replay: %s frames=%d checksum_errors=%d overflows=%d field_errors=%d unrecognized=%d resyncs=%d garbage=%d",
			name, s.Frames, s.ChecksumErrors, s.Overflows, s.FieldErrors, s.Unrecognized, s.Resyncs, s.Garbage)
	}
	return nil
}
