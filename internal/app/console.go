package app

import (
	"encoding/json"
	"fmt"
	"log"
	"sort"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/relabs-tech/inertial_decoder/internal/config"
	"github.com/relabs-tech/inertial_decoder/internal/env"
	"github.com/relabs-tech/inertial_decoder/internal/gps"
	"github.com/relabs-tech/inertial_decoder/internal/imu"
	"github.com/relabs-tech/inertial_decoder/internal/nmea"
	"github.com/relabs-tech/inertial_decoder/internal/orientation"
	"github.com/relabs-tech/inertial_decoder/internal/ubx"
)

// readingMsg carries one MQTT message into the bubbletea loop.
type readingMsg struct {
	topic   string
	payload []byte
	at      time.Time
}

type consoleRow struct {
	line    string
	count   int
	updated time.Time
}

type consoleModel struct {
	topics Topics
	broker string
	rows   map[string]*consoleRow
}

func newConsoleModel(topics Topics, broker string) consoleModel {
	return consoleModel{topics: topics, broker: broker, rows: make(map[string]*consoleRow)}
}

func (m consoleModel) Init() tea.Cmd { return nil }

func (m consoleModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return m, tea.Quit
		}
	case readingMsg:
		row, ok := m.rows[msg.topic]
		if !ok {
			row = &consoleRow{}
			m.rows[msg.topic] = row
		}
		row.line = formatReading(m.topics, msg.topic, msg.payload)
		row.count++
		row.updated = msg.at
	}
	return m, nil
}

func (m consoleModel) View() string {
	var b strings.Builder
	fmt.Fprintf(&b, "inertial decoder console  broker=%s  (q to quit)\n\n", m.broker)
	if len(m.rows) == 0 {
		b.WriteString("waiting for readings...\n")
		return b.String()
	}
	names := make([]string, 0, len(m.rows))
	for name := range m.rows {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		row := m.rows[name]
		fmt.Fprintf(&b, "%6d %s  %s\n", row.count, row.updated.Format("15:04:05"), row.line)
	}
	return b.String()
}

// formatReading renders one payload as a single console line.
func formatReading(t Topics, topic string, payload []byte) string {
	bad := func(err error) string { return fmt.Sprintf("[%s] bad payload: %v", topic, err) }

	switch {
	case topic == t.Accel:
		var a nmea.Accelerometer
		if err := json.Unmarshal(payload, &a); err != nil {
			return bad(err)
		}
		return fmt.Sprintf("[ACC ]  t=%.0f ax=%8.1f ay=%8.1f az=%8.1f", a.Time, a.X, a.Y, a.Z)
	case topic == t.Gyro:
		var g nmea.Gyro
		if err := json.Unmarshal(payload, &g); err != nil {
			return bad(err)
		}
		return fmt.Sprintf("[GYR ]  t=%.0f gx=%8.1f gy=%8.1f gz=%8.1f", g.Time, g.X, g.Y, g.Z)
	case topic == t.IMU:
		var s imu.Sample
		if err := json.Unmarshal(payload, &s); err != nil {
			return bad(err)
		}
		return fmt.Sprintf("[IMU ]  %-4s ax=%8.3f ay=%8.3f az=%8.3f  gx=%8.3f gy=%8.3f gz=%8.3f",
			s.Source, s.Ax, s.Ay, s.Az, s.Gx, s.Gy, s.Gz)
	case topic == t.Pose:
		var p orientation.Pose
		if err := json.Unmarshal(payload, &p); err != nil {
			return bad(err)
		}
		return fmt.Sprintf("[POSE]  ROLL=%6.2f  PITCH=%6.2f", p.Roll, p.Pitch)
	case topic == t.GPS:
		var f gps.Fix
		if err := json.Unmarshal(payload, &f); err != nil {
			return bad(err)
		}
		return fmt.Sprintf("[GPS ]  time=%s date=%s lat=%.6f lon=%.6f speed=%.1fkn course=%.1f° validity=%s",
			f.Time, f.Date, f.Latitude, f.Longitude, f.SpeedKnots, f.CourseDeg, f.Validity)
	case topic == t.ESFRaw:
		var r ubx.ESFRaw
		if err := json.Unmarshal(payload, &r); err != nil {
			return bad(err)
		}
		return fmt.Sprintf("[ESF ]  tag=%d gyro=(%.3f %.3f %.3f) acc=(%.3f %.3f %.3f)",
			r.AccelX.Time, r.GyroX.Value, r.GyroY.Value, r.GyroZ.Value, r.AccelX.Value, r.AccelY.Value, r.AccelZ.Value)
	case topic == t.Temp:
		var s env.Sample
		if err := json.Unmarshal(payload, &s); err != nil {
			return bad(err)
		}
		return fmt.Sprintf("[TEMP]  %.2f °C", s.Temperature)
	case topic == t.Stats:
		var r StatsReport
		if err := json.Unmarshal(payload, &r); err != nil {
			return bad(err)
		}
		parts := make([]string, 0, len(r.Decoders))
		for name, s := range r.Decoders {
			parts = append(parts, fmt.Sprintf("%s frames=%d cksum=%d ovf=%d", name, s.Frames, s.ChecksumErrors, s.Overflows))
		}
		sort.Strings(parts)
		return fmt.Sprintf("[STAT]  %s %s", r.Source, strings.Join(parts, "  "))
	case strings.HasPrefix(topic, t.Vector+"/"):
		var v nmea.Vector
		if err := json.Unmarshal(payload, &v); err != nil {
			return bad(err)
		}
		kind := strings.TrimPrefix(topic, t.Vector+"/")
		vals := make([]string, min(max(v.Axes, 0), len(v.Values)))
		for i := range vals {
			vals[i] = fmt.Sprintf("%8.3f", v.Values[i])
		}
		return fmt.Sprintf("[DR  ]  %-17s t=%.0f %s", kind, v.Time, strings.Join(vals, " "))
	}
	return fmt.Sprintf("[%s] %s", topic, payload)
}

// RunConsole shows the latest reading of every topic in a terminal
// dashboard.
func RunConsole() error {
	cfg := config.Get()
	if err := cfg.ValidateMQTT(); err != nil {
		return err
	}
	topics := TopicsFromConfig(cfg)

	client, err := connectMQTT(cfg.MQTTBroker, cfg.MQTTClientIDConsole, "console")
	if err != nil {
		return err
	}
	defer client.Disconnect(250)

	p := tea.NewProgram(newConsoleModel(topics, cfg.MQTTBroker), tea.WithAltScreen())

	forward := func(topic string, payload []byte) {
		p.Send(readingMsg{topic: topic, payload: payload, at: time.Now()})
	}
	for _, topic := range []string{topics.Accel, topics.Gyro, topics.IMU, topics.Pose, topics.GPS, topics.ESFRaw, topics.Temp, topics.Stats, topics.Vector + "/#"} {
		if err := subscribeJSON(client, "console", topic, forward); err != nil {
			return err
		}
	}

	if _, err := p.Run(); err != nil {
		return fmt.Errorf("console: %w", err)
	}
	log.Println("console: shutting down")
	return nil
}
