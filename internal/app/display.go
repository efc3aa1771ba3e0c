package app

import (
	"encoding/json"
	"fmt"
	"image"
	"log"
	"sort"
	"sync"
	"time"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
	"periph.io/x/conn/v3/i2c/i2creg"
	"periph.io/x/devices/v3/ssd1306"
	"periph.io/x/devices/v3/ssd1306/image1bit"
	"periph.io/x/host/v3"

	"github.com/relabs-tech/inertial_decoder/internal/config"
	"github.com/relabs-tech/inertial_decoder/internal/env"
	"github.com/relabs-tech/inertial_decoder/internal/gps"
	"github.com/relabs-tech/inertial_decoder/internal/imu"
	"github.com/relabs-tech/inertial_decoder/internal/orientation"
)

const (
	displayWidth  = 128
	displayHeight = 64
	lineHeight    = 13
)

// DisplayData holds the latest data for display
type DisplayData struct {
	mu     sync.RWMutex
	topics Topics

	sample     imu.Sample
	haveSample bool
	pose       orientation.Pose
	havePose   bool
	fix        gps.Fix
	haveFix    bool
	temp       env.Sample
	haveTemp   bool
	stats      StatsReport
	haveStats  bool
}

func newDisplayData(topics Topics) *DisplayData {
	return &DisplayData{topics: topics}
}

// apply stores one MQTT message.
func (d *DisplayData) apply(topic string, payload []byte) {
	var err error
	d.mu.Lock()
	defer d.mu.Unlock()
	switch topic {
	case d.topics.IMU:
		if err = json.Unmarshal(payload, &d.sample); err == nil {
			d.haveSample = true
		}
	case d.topics.Pose:
		if err = json.Unmarshal(payload, &d.pose); err == nil {
			d.havePose = true
		}
	case d.topics.GPS:
		if err = json.Unmarshal(payload, &d.fix); err == nil {
			d.haveFix = true
		}
	case d.topics.Temp:
		if err = json.Unmarshal(payload, &d.temp); err == nil {
			d.haveTemp = true
		}
	case d.topics.Stats:
		if err = json.Unmarshal(payload, &d.stats); err == nil {
			d.haveStats = true
		}
	}
	if err != nil {
		log.Printf("display: %s unmarshal error: %v", topic, err)
	}
}

// contentTopics lists what a content mode needs from the broker.
func contentTopics(content string, topics Topics) ([]string, error) {
	switch content {
	case "imu":
		return []string{topics.IMU, topics.Pose}, nil
	case "gps":
		return []string{topics.GPS}, nil
	case "temp":
		return []string{topics.Temp}, nil
	case "stats":
		return []string{topics.Stats}, nil
	default:
		return nil, fmt.Errorf("unknown display content type: %s", content)
	}
}

// lines returns the text rows for content, at most four.
func (d *DisplayData) lines(content string) []string {
	d.mu.RLock()
	defer d.mu.RUnlock()

	switch content {
	case "imu":
		if !d.haveSample {
			return []string{"", "IMU", "Waiting..."}
		}
		s := d.sample
		out := []string{
			fmt.Sprintf("A%5.2f %5.2f %5.2f", s.Ax, s.Ay, s.Az),
			fmt.Sprintf("G%5.0f %5.0f %5.0f", s.Gx, s.Gy, s.Gz),
		}
		if d.havePose {
			out = append(out,
				fmt.Sprintf("R: %6.1f", d.pose.Roll),
				fmt.Sprintf("P: %6.1f", d.pose.Pitch))
		}
		return out

	case "gps":
		if !d.haveFix {
			return []string{"", "GPS Fix", "Waiting..."}
		}
		latDir, lat := "N", d.fix.Latitude
		if lat < 0 {
			latDir, lat = "S", -lat
		}
		lonDir, lon := "E", d.fix.Longitude
		if lon < 0 {
			lonDir, lon = "W", -lon
		}
		return []string{
			fmt.Sprintf("%.4f%s", lat, latDir),
			fmt.Sprintf("%.4f%s", lon, lonDir),
			fmt.Sprintf("%.1fkn %.0fdeg", d.fix.SpeedKnots, d.fix.CourseDeg),
			fmt.Sprintf("%s %s", d.fix.Time, d.fix.Validity),
		}

	case "temp":
		if !d.haveTemp {
			return []string{"", "Temperature", "Waiting..."}
		}
		return []string{"Gyro temp", fmt.Sprintf("%.2f C", d.temp.Temperature)}

	case "stats":
		if !d.haveStats {
			return []string{"", "Decoder stats", "Waiting..."}
		}
		names := make([]string, 0, len(d.stats.Decoders))
		for name := range d.stats.Decoders {
			names = append(names, name)
		}
		sort.Strings(names)
		out := make([]string, 0, 4)
		for _, name := range names {
			s := d.stats.Decoders[name]
			out = append(out,
				fmt.Sprintf("%s ok:%d", name, s.Frames),
				fmt.Sprintf(" ck:%d ov:%d", s.ChecksumErrors, s.Overflows))
		}
		if len(out) > 4 {
			out = out[:4]
		}
		return out
	}
	return nil
}

// renderLines draws up to four rows of text into a blank display image.
func renderLines(lines []string) *image1bit.VerticalLSB {
	img := image1bit.NewVerticalLSB(image.Rect(0, 0, displayWidth, displayHeight))

	drawer := &font.Drawer{
		Dst:  img,
		Src:  &image.Uniform{image1bit.On},
		Face: basicfont.Face7x13,
	}
	for i, line := range lines {
		y := (i + 1) * lineHeight
		if y > displayHeight {
			break
		}
		drawer.Dot = fixed.P(0, y)
		drawer.DrawBytes([]byte(line))
	}
	return img
}

func RunDisplay() error {
	cfg := config.Get()
	if err := cfg.ValidateMQTT(); err != nil {
		return err
	}
	topics := TopicsFromConfig(cfg)

	subscriptions, err := contentTopics(cfg.DisplayContent, topics)
	if err != nil {
		return err
	}

	// Initialize periph
	if _, err := host.Init(); err != nil {
		return fmt.Errorf("failed to initialize periph: %w", err)
	}

	bus, err := i2creg.Open(cfg.DisplayI2CBus)
	if err != nil {
		return fmt.Errorf("failed to open I2C bus: %w", err)
	}
	defer bus.Close()

	dev, err := ssd1306.NewI2C(bus, &ssd1306.DefaultOpts)
	if err != nil {
		return fmt.Errorf("failed to initialize display: %w", err)
	}
	log.Printf("display: initialized, showing %s", cfg.DisplayContent)

	// splash
	splash := renderLines([]string{"", " Inertial Decoder", " Waiting for data"})
	if err := dev.Draw(dev.Bounds(), splash, image.Point{}); err != nil {
		log.Printf("display: error showing splash: %v", err)
	}

	data := newDisplayData(topics)

	client, err := connectMQTT(cfg.MQTTBroker, cfg.MQTTClientIDDisplay, "display")
	if err != nil {
		return err
	}
	defer client.Disconnect(250)

	for _, topic := range subscriptions {
		if err := subscribeJSON(client, "display", topic, data.apply); err != nil {
			return err
		}
	}

	ticker := time.NewTicker(time.Duration(cfg.DisplayUpdateInterval) * time.Millisecond)
	defer ticker.Stop()

	log.Println("display: starting update loop")
	for range ticker.C {
		img := renderLines(data.lines(cfg.DisplayContent))
		if err := dev.Draw(dev.Bounds(), img, image.Point{}); err != nil {
			log.Printf("display: error updating display: %v", err)
		}
	}
	return nil
}
