package env

import "github.com/relabs-tech/inertial_decoder/internal/ubx"

// Sample represents a single environmental measurement (gyro die temperature).
type Sample struct {
	Source string `json:"source"` // "ubx"

	Temperature float64 `json:"temp_c"` // °C
	Time        uint32  `json:"time"`   // sensor time tag
}

// FromESFRaw extracts the temperature channel. ok is false when the
// reading carried none.
func FromESFRaw(r ubx.ESFRaw) (s Sample, ok bool) {
	if !r.GyroTemp.Valid {
		return Sample{}, false
	}
	return Sample{Source: "ubx", Temperature: r.GyroTemp.Value, Time: r.GyroTemp.Time}, true
}
