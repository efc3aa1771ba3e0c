package nmea

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/relabs-tech/inertial_decoder/internal/framing"
)

// Accelerometer is the $PSTM3DACC sentence: time, then raw x, y, z counts.
type Accelerometer struct {
	Time  float64  `json:"time"`
	X     float64  `json:"x"`
	Y     float64  `json:"y"`
	Z     float64  `json:"z"`
	Valid Validity `json:"valid"`
}

// Gyro is the $PSTM3DGYRO sentence: time, then raw x, y, z counts.
type Gyro struct {
	Time  float64  `json:"time"`
	X     float64  `json:"x"`
	Y     float64  `json:"y"`
	Z     float64  `json:"z"`
	Valid Validity `json:"valid"`
}

// Validity flags for the time field and up to three axes.
type Validity struct {
	Time bool    `json:"time"`
	Axes [3]bool `json:"axes"`
}

// RMC is the recommended minimum GPS fix ($GPRMC / $GNRMC). Latitude and
// longitude are kept in the wire ddmm.mmmm / dddmm.mmmm form.
type RMC struct {
	Raw string `json:"raw"`

	UTCTime           float64 `json:"utc_time"`
	Status            string  `json:"status"`
	Latitude          float64 `json:"latitude"`
	NS                string  `json:"ns"`
	Longitude         float64 `json:"longitude"`
	EW                string  `json:"ew"`
	SpeedKnots        float64 `json:"speed_knots"`
	CourseDegrees     float64 `json:"course_degrees"`
	Date              int     `json:"date"` // ddmmyy
	MagneticVariation float64 `json:"magnetic_variation"`
	MagneticEW        string  `json:"magnetic_ew"`

	ValidUTCTime           bool `json:"valid_utc_time"`
	ValidStatus            bool `json:"valid_status"`
	ValidLatitude          bool `json:"valid_latitude"`
	ValidNS                bool `json:"valid_ns"`
	ValidLongitude         bool `json:"valid_longitude"`
	ValidEW                bool `json:"valid_ew"`
	ValidSpeedKnots        bool `json:"valid_speed_knots"`
	ValidCourseDegrees     bool `json:"valid_course_degrees"`
	ValidDate              bool `json:"valid_date"`
	ValidMagneticVariation bool `json:"valid_magnetic_variation"`
	ValidMagneticEW        bool `json:"valid_magnetic_ew"`
}

// Vector is one of the DR telemetry sentences: a time and Axes values.
type Vector struct {
	Kind   Kind       `json:"-"`
	Time   float64    `json:"time"`
	Values [3]float64 `json:"values"`
	Axes   int        `json:"axes"`
	Valid  Validity   `json:"valid"`
}

// fieldReader converts closed fields with strict conversions: the whole
// field has to be consumed or the field counts as invalid.
type fieldReader struct {
	fb   *fieldBuffer
	kind Kind
}

func (r fieldReader) fail(i int, s string) error {
	return fmt.Errorf("nmea: %s field %d %q: %w", r.kind, i, s, framing.ErrFieldParse)
}

func (r fieldReader) float(i int) (float64, error) {
	s, ok := r.fb.field(i)
	if !ok {
		return 0, r.fail(i, s)
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, r.fail(i, s)
	}
	return v, nil
}

func (r fieldReader) char(i int) (string, error) {
	s, ok := r.fb.field(i)
	if !ok || len(s) != 1 {
		return "", r.fail(i, s)
	}
	return s, nil
}

// date accepts exactly six decimal digits (ddmmyy).
func (r fieldReader) date(i int) (int, error) {
	s, ok := r.fb.field(i)
	if !ok || len(s) != 6 {
		return 0, r.fail(i, s)
	}
	v, err := strconv.ParseUint(s, 10, 32)
	if err != nil {
		return 0, r.fail(i, s)
	}
	return int(v), nil
}

// timeAxes reads the time field and n axes after it.
func (r fieldReader) timeAxes(n int) (t float64, axes [3]float64, err error) {
	if t, err = r.float(1); err != nil {
		return 0, axes, err
	}
	for i := 0; i < n; i++ {
		if axes[i], err = r.float(2 + i); err != nil {
			return 0, [3]float64{}, err
		}
	}
	return t, axes, nil
}

func allValid(n int) Validity {
	v := Validity{Time: true}
	for i := 0; i < n; i++ {
		v.Axes[i] = true
	}
	return v
}

// Accelerometer and gyro sentences are all-or-nothing: one bad field
// discards the reading.
func structureAccelerometer(r fieldReader) (Accelerometer, error) {
	t, a, err := r.timeAxes(3)
	if err != nil {
		return Accelerometer{}, err
	}
	return Accelerometer{Time: t, X: a[0], Y: a[1], Z: a[2], Valid: allValid(3)}, nil
}

func structureGyro(r fieldReader) (Gyro, error) {
	t, a, err := r.timeAxes(3)
	if err != nil {
		return Gyro{}, err
	}
	return Gyro{Time: t, X: a[0], Y: a[1], Z: a[2], Valid: allValid(3)}, nil
}

func structureVector(r fieldReader) (Vector, error) {
	n := vectorAxes[r.kind]
	t, a, err := r.timeAxes(n)
	if err != nil {
		return Vector{}, err
	}
	return Vector{Kind: r.kind, Time: t, Values: a, Axes: n, Valid: allValid(n)}, nil
}

// structureRMC requires fields 1..9. The magnetic variation and its
// hemisphere (fields 10 and 11) are optional: receivers often leave them
// empty or drop them, and the fix is still usable without them.
func structureRMC(r fieldReader) (RMC, error) {
	var m RMC
	var err error

	if m.UTCTime, err = r.float(1); err != nil {
		return RMC{}, err
	}
	m.ValidUTCTime = true
	if m.Status, err = r.char(2); err != nil {
		return RMC{}, err
	}
	m.ValidStatus = true
	if m.Latitude, err = r.float(3); err != nil {
		return RMC{}, err
	}
	m.ValidLatitude = true
	if m.NS, err = r.char(4); err != nil {
		return RMC{}, err
	}
	m.ValidNS = true
	if m.Longitude, err = r.float(5); err != nil {
		return RMC{}, err
	}
	m.ValidLongitude = true
	if m.EW, err = r.char(6); err != nil {
		return RMC{}, err
	}
	m.ValidEW = true
	if m.SpeedKnots, err = r.float(7); err != nil {
		return RMC{}, err
	}
	m.ValidSpeedKnots = true
	if m.CourseDegrees, err = r.float(8); err != nil {
		return RMC{}, err
	}
	m.ValidCourseDegrees = true
	if m.Date, err = r.date(9); err != nil {
		return RMC{}, err
	}
	m.ValidDate = true

	if v, err := r.float(10); err == nil {
		m.MagneticVariation = v
		m.ValidMagneticVariation = true
	}
	if c, err := r.char(11); err == nil {
		m.MagneticEW = c
		m.ValidMagneticEW = true
	}
	return m, nil
}

// rawSentence rebuilds the frame text from the closed fields.
func rawSentence(fields []string, digits [2]byte) string {
	var b strings.Builder
	b.WriteByte('$')
	b.WriteString(strings.Join(fields, ","))
	b.WriteByte('*')
	b.WriteByte(digits[0])
	b.WriteByte(digits[1])
	return b.String()
}
