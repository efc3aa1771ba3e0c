package gps

import (
	"math"
	"strings"

	gonmea "github.com/adrianmo/go-nmea"

	"github.com/relabs-tech/inertial_decoder/internal/nmea"
)

// Fix represents a single combined GPS fix suitable for JSON and MQTT.
type Fix struct {
	Time       string  `json:"time"`        // e.g. "12:34:56"
	Date       string  `json:"date"`        // library format, dd/mm/yy
	Latitude   float64 `json:"lat"`         // decimal degrees
	Longitude  float64 `json:"lon"`         // decimal degrees
	SpeedKnots float64 `json:"speed_knots"` // speed over ground
	CourseDeg  float64 `json:"course_deg"`  // course over ground
	MagVarDeg  float64 `json:"mag_var_deg"` // negative west, 0 when absent
	Validity   string  `json:"validity"`    // "A" (valid) / "V" (void), etc.
}

// FromRMC converts a decoded RMC sentence to a Fix. The raw sentence goes
// through go-nmea first; sentences it refuses (receivers that drop the
// magnetic variation tail altogether) are converted from the decoded fields.
func FromRMC(r nmea.RMC) Fix {
	if s, err := gonmea.Parse(r.Raw); err == nil {
		if m, ok := s.(gonmea.RMC); ok {
			return Fix{
				Time:       m.Time.String(),
				Date:       m.Date.String(),
				Latitude:   m.Latitude,
				Longitude:  m.Longitude,
				SpeedKnots: m.Speed,
				CourseDeg:  m.Course,
				MagVarDeg:  m.Variation,
				Validity:   m.Validity,
			}
		}
	}

	fix := Fix{
		Latitude:   Degrees(r.Latitude, r.NS),
		Longitude:  Degrees(r.Longitude, r.EW),
		SpeedKnots: r.SpeedKnots,
		CourseDeg:  r.CourseDegrees,
		Validity:   r.Status,
	}
	if r.ValidMagneticVariation {
		fix.MagVarDeg = r.MagneticVariation
		if r.MagneticEW == "W" {
			fix.MagVarDeg = -fix.MagVarDeg
		}
	}

	fields := rawFields(r.Raw)
	if len(fields) > 9 {
		if t, err := gonmea.ParseTime(fields[1]); err == nil {
			fix.Time = t.String()
		}
		if d, err := gonmea.ParseDate(fields[9]); err == nil {
			fix.Date = d.String()
		}
	}
	return fix
}

// Degrees converts a (d)ddmm.mmmm value and its hemisphere letter to
// signed decimal degrees.
func Degrees(ddmm float64, hemisphere string) float64 {
	deg := math.Floor(ddmm / 100)
	v := deg + (ddmm-deg*100)/60
	if hemisphere == "S" || hemisphere == "W" {
		v = -v
	}
	return v
}

// rawFields splits "$a,b,c*CC" into its fields.
func rawFields(raw string) []string {
	raw = strings.TrimPrefix(raw, "$")
	if i := strings.LastIndexByte(raw, '*'); i >= 0 {
		raw = raw[:i]
	}
	return strings.Split(raw, ",")
}
