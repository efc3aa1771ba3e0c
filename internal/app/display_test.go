package app

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"periph.io/x/devices/v3/ssd1306/image1bit"

	"github.com/relabs-tech/inertial_decoder/internal/framing"
	"github.com/relabs-tech/inertial_decoder/internal/gps"
	"github.com/relabs-tech/inertial_decoder/internal/imu"
)

func testTopics() Topics {
	return Topics{
		Accel: "t/accel", Gyro: "t/gyro", IMU: "t/imu", Pose: "t/pose", GPS: "t/gps",
		ESFRaw: "t/esf", Temp: "t/temp", Vector: "t/vector", Stats: "t/stats",
	}
}

func TestDisplayLines(t *testing.T) {
	topics := testTopics()
	d := newDisplayData(topics)

	assert.Equal(t, []string{"", "GPS Fix", "Waiting..."}, d.lines("gps"))

	d.apply(topics.GPS, mustJSON(t, gps.Fix{Time: "12:35:19.0000", Latitude: 48.1173, Longitude: -11.5167, SpeedKnots: 22.4, CourseDeg: 84.4, Validity: "A"}))
	lines := d.lines("gps")
	require.Len(t, lines, 4)
	assert.Equal(t, "48.1173N", lines[0])
	assert.Equal(t, "11.5167W", lines[1])

	d.apply(topics.IMU, mustJSON(t, imu.Sample{Source: "ubx", Az: 1}))
	d.apply(topics.Pose, []byte(`{"roll":1.5,"pitch":-2,"yaw":0}`))
	lines = d.lines("imu")
	require.Len(t, lines, 4)
	assert.Equal(t, "R:    1.5", lines[2])

	d.apply(topics.Temp, []byte(`{"source":"ubx","temp_c":31.25,"time":7}`))
	assert.Equal(t, []string{"Gyro temp", "31.25 C"}, d.lines("temp"))

	d.apply(topics.Stats, mustJSON(t, StatsReport{Decoders: map[string]framing.Stats{"ubx": {Frames: 9, ChecksumErrors: 1}, "nmea": {Frames: 4}}}))
	assert.Equal(t, []string{"nmea ok:4", " ck:0 ov:0", "ubx ok:9", " ck:1 ov:0"}, d.lines("stats"))
}

func TestDisplayIgnoresBadPayload(t *testing.T) {
	topics := testTopics()
	d := newDisplayData(topics)
	d.apply(topics.Temp, []byte(`{"temp_c":`))
	assert.Equal(t, "Waiting...", d.lines("temp")[2])
}

func TestContentTopics(t *testing.T) {
	topics := testTopics()
	got, err := contentTopics("imu", topics)
	require.NoError(t, err)
	assert.Equal(t, []string{"t/imu", "t/pose"}, got)

	_, err = contentTopics("orientation_left", topics)
	assert.Error(t, err)
}

func TestRenderLines(t *testing.T) {
	blank := renderLines(nil)
	for _, b := range blank.Pix {
		require.Zero(t, b)
	}

	img := renderLines([]string{"Hello"})
	assert.Equal(t, 128, img.Bounds().Dx())
	assert.Equal(t, 64, img.Bounds().Dy())
	lit := 0
	for y := 0; y < 64; y++ {
		for x := 0; x < 128; x++ {
			if img.BitAt(x, y) == image1bit.On {
				lit++
			}
		}
	}
	assert.Positive(t, lit)
}
