// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"time"

	"github.com/relabs-tech/inertial_decoder/internal/config"
	"github.com/relabs-tech/inertial_decoder/internal/env"
	"github.com/relabs-tech/inertial_decoder/internal/framing"
	"github.com/relabs-tech/inertial_decoder/internal/gps"
	"github.com/relabs-tech/inertial_decoder/internal/imu"
	"github.com/relabs-tech/inertial_decoder/internal/metrics"
	"github.com/relabs-tech/inertial_decoder/internal/nmea"
	"github.com/relabs-tech/inertial_decoder/internal/orientation"
	"github.com/relabs-tech/inertial_decoder/internal/ubx"
)

// Publisher delivers one reading. Implementations must be safe for use
// from several pumps at once.
type Publisher interface {
	Publish(topic string, v any) error
}

// Topics maps every reading kind to the topic it is published on.
type Topics struct {
	Accel  string
	Gyro   string
	GPS    string
	ESFRaw string
	IMU    string
	Temp   string
	Pose   string
	Vector string // prefix
	Stats  string
}

func TopicsFromConfig(cfg *config.Config) Topics {
	return Topics{
		Accel:  cfg.TopicAccel,
		Gyro:   cfg.TopicGyro,
		GPS:    cfg.TopicGPS,
		ESFRaw: cfg.TopicESFRaw,
		IMU:    cfg.TopicIMU,
		Temp:   cfg.TopicTemp,
		Pose:   cfg.TopicPose,
		Vector: cfg.TopicVector,
		Stats:  cfg.TopicStats,
	}
}

// VectorTopic is the topic of DR kind k.
func (t Topics) VectorTopic(k nmea.Kind) string {
	return t.Vector + "/" + k.String()
}

// StatsReport is the periodic decoder health message.
type StatsReport struct {
	Time          string                   `json:"time"`
	Source        string                   `json:"source"`
	Decoders      map[string]framing.Stats `json:"decoders"`
	PublishErrors uint64                   `json:"publish_errors"`
}

// PumpOptions configures a Pump.
type PumpOptions struct {
	Name          string // stream name used in logs and stats
	Topics        Topics
	StatsInterval time.Duration // 0 disables periodic stats
	Metrics       *metrics.Metrics
	Verbose       bool // log every dropped frame
}

// Pump drives one byte stream through its decoders and hands every ready
// reading to a Publisher. Either decoder may be nil when the stream only
// carries the other protocol. A Pump is used from one goroutine.
type Pump struct {
	opts PumpOptions
	pub  Publisher

	nmea *nmea.Decoder
	ubx  *ubx.Decoder

	nmeaTracker *metrics.Tracker
	ubxTracker  *metrics.Tracker

	// accelerometer and gyro sentences arrive separately; an IMU sample is
	// published once both are fresh.
	acc     nmea.Accelerometer
	gyro    nmea.Gyro
	haveAcc bool
	haveGyr bool

	publishErrors uint64
}

func NewPump(nd *nmea.Decoder, ud *ubx.Decoder, pub Publisher, opts PumpOptions) *Pump {
	if opts.Name == "" {
		opts.Name = "stream"
	}
	p := &Pump{opts: opts, pub: pub, nmea: nd, ubx: ud}
	if opts.Metrics != nil {
		if nd != nil {
			p.nmeaTracker = opts.Metrics.Tracker("nmea")
		}
		if ud != nil {
			p.ubxTracker = opts.Metrics.Tracker("ubx")
		}
	}
	return p
}

// Feed runs b through both decoders and publishes whatever became ready.
func (p *Pump) Feed(b byte) {
	if p.nmea != nil {
		if err := p.nmea.Parse(b); err != nil && p.opts.Verbose {
			log.Printf("pump %s: %v", p.opts.Name, err)
		}
	}
	if p.ubx != nil {
		if err := p.ubx.Parse(b); err != nil && p.opts.Verbose {
			log.Printf("pump %s: %v", p.opts.Name, err)
		}
	}
	p.drain()
}

// FeedBytes feeds every byte of buf.
func (p *Pump) FeedBytes(buf []byte) {
	for _, b := range buf {
		p.Feed(b)
	}
}

func (p *Pump) publish(kind, topic string, v any) {
	if topic == "" {
		return
	}
	if err := p.pub.Publish(topic, v); err != nil {
		p.publishErrors++
		log.Printf("pump %s: publish error (%s): %v", p.opts.Name, kind, err)
		return
	}
	if p.opts.Metrics != nil {
		p.opts.Metrics.Reading(kind)
	}
}

func (p *Pump) publishIMU(s imu.Sample) {
	p.publish("imu", p.opts.Topics.IMU, s)
	p.publish("pose", p.opts.Topics.Pose, orientation.FromSample(s))
}

// drain polls every slot once.
func (p *Pump) drain() {
	t := p.opts.Topics

	if d := p.nmea; d != nil {
		if d.IsAccelerometerReady() {
			p.acc = d.Accelerometer()
			p.haveAcc = true
			d.ConsumeAccelerometer()
			p.publish("accel", t.Accel, p.acc)
		}
		if d.IsGyroReady() {
			p.gyro = d.Gyro()
			p.haveGyr = true
			d.ConsumeGyro()
			p.publish("gyro", t.Gyro, p.gyro)
		}
		if p.haveAcc && p.haveGyr {
			p.haveAcc, p.haveGyr = false, false
			p.publishIMU(imu.FromNMEA(p.acc, p.gyro))
		}
		if d.IsRMCReady() {
			r := d.RMC()
			d.ConsumeRMC()
			p.publish("gps", t.GPS, gps.FromRMC(r))
		}
		for _, k := range nmea.VectorKinds() {
			if d.IsVectorReady(k) {
				v := d.Vector(k)
				d.ConsumeVector(k)
				p.publish(k.String(), t.VectorTopic(k), v)
			}
		}
	}

	if d := p.ubx; d != nil && d.IsESFRawReady() {
		r := d.ESFRaw()
		d.ConsumeESFRaw()
		p.publish("esf_raw", t.ESFRaw, r)
		if s, ok := imu.FromESFRaw(r); ok {
			p.publishIMU(s)
		}
		if s, ok := env.FromESFRaw(r); ok {
			p.publish("temp", t.Temp, s)
		}
	}
}

// Stats returns the counters of the pump's decoders keyed by protocol.
func (p *Pump) Stats() map[string]framing.Stats {
	out := make(map[string]framing.Stats, 2)
	if p.nmea != nil {
		out["nmea"] = p.nmea.Stats()
	}
	if p.ubx != nil {
		out["ubx"] = p.ubx.Stats()
	}
	return out
}

// ReportStats publishes the decoder counters and updates the metrics.
func (p *Pump) ReportStats(now time.Time) {
	if p.nmeaTracker != nil {
		p.nmeaTracker.Observe(p.nmea.Stats(), p.nmea.State())
	}
	if p.ubxTracker != nil {
		p.ubxTracker.Observe(p.ubx.Stats(), p.ubx.State())
	}
	p.publish("stats", p.opts.Topics.Stats, StatsReport{
		Time:          now.UTC().Format(time.RFC3339),
		Source:        p.opts.Name,
		Decoders:      p.Stats(),
		PublishErrors: p.publishErrors,
	})
}

// Run reads r until EOF, a read error or ctx is done. EOF ends the run
// without error. Reads happen on a separate goroutine so stats keep going
// out while the port is quiet; decoding stays on the caller's goroutine.
func (p *Pump) Run(ctx context.Context, r io.Reader) error {
	chunks := make(chan []byte)
	readErr := make(chan error, 1)

	go func() {
		buf := make([]byte, 512)
		for {
			n, err := r.Read(buf)
			if n > 0 {
				chunk := make([]byte, n)
				copy(chunk, buf[:n])
				select {
				case chunks <- chunk:
				case <-ctx.Done():
					return
				}
			}
			if err != nil {
				readErr <- err
				return
			}
		}
	}()

	var tick <-chan time.Time
	if p.opts.StatsInterval > 0 {
		ticker := time.NewTicker(p.opts.StatsInterval)
		defer ticker.Stop()
		tick = ticker.C
	}

	for {
		select {
		case <-ctx.Done():
			p.ReportStats(time.Now())
			return ctx.Err()
		case chunk := <-chunks:
			p.FeedBytes(chunk)
		case now := <-tick:
			p.ReportStats(now)
		case err := <-readErr:
			p.ReportStats(time.Now())
			if errors.Is(err, io.EOF) {
				return nil
			}
			return fmt.Errorf("pump %s: read: %w", p.opts.Name, err)
		}
	}
}
