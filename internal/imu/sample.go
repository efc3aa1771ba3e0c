package imu

import (
	"github.com/relabs-tech/inertial_decoder/internal/nmea"
	"github.com/relabs-tech/inertial_decoder/internal/ubx"
)

// Sample is one accelerometer + gyro reading regardless of which stream it
// came from. Units are those of the source: raw counts for the ASCII
// sentences, scaled values for ESF-RAW.
type Sample struct {
	Source string  `json:"source"` // "nmea" or "ubx"
	Time   float64 `json:"time"`   // sensor time tag of the accelerometer

	Ax float64 `json:"ax"` // accel
	Ay float64 `json:"ay"`
	Az float64 `json:"az"`

	Gx float64 `json:"gx"` // gyro
	Gy float64 `json:"gy"`
	Gz float64 `json:"gz"`
}

// FromNMEA pairs an accelerometer and a gyro sentence.
func FromNMEA(acc nmea.Accelerometer, gyro nmea.Gyro) Sample {
	return Sample{
		Source: "nmea",
		Time:   acc.Time,
		Ax:     acc.X,
		Ay:     acc.Y,
		Az:     acc.Z,
		Gx:     gyro.X,
		Gy:     gyro.Y,
		Gz:     gyro.Z,
	}
}

// FromESFRaw takes the six motion channels of an ESF-RAW reading. ok is
// false unless all six are valid.
func FromESFRaw(r ubx.ESFRaw) (s Sample, ok bool) {
	for ch := ubx.GyroX; ch <= ubx.AccelZ; ch++ {
		if !r.Channel(ch).Valid {
			return Sample{}, false
		}
	}
	return Sample{
		Source: "ubx",
		Time:   float64(r.AccelX.Time),
		Ax:     r.AccelX.Value,
		Ay:     r.AccelY.Value,
		Az:     r.AccelZ.Value,
		Gx:     r.GyroX.Value,
		Gy:     r.GyroY.Value,
		Gz:     r.GyroZ.Value,
	}, true
}
