package nmea

// Kind identifies how the fields of a checksum-valid sentence are
// structured. It is resolved from field 0 through kindByID.
type Kind int

const (
	KindUnknown Kind = iota
	KindAccelerometer
	KindGyro
	KindRMC

	// Dead-reckoning telemetry: time followed by two or three axes.
	KindRawGyro
	KindRawAcc
	KindRotatedGyro
	KindRotatedAcc
	KindFilteredGyro
	KindFilteredAcc
	KindAlignedGyro
	KindAlignedAcc
	KindEulerGyro
	KindEulerAcc
	KindEulerFused
	KindGravityBody
	KindLinearAcc
	KindInertialAcc
	KindVelocityBody
	KindVelocityInertial
	KindPositionBody
	KindPositionInertial

	kindCount
)

var kindByID = map[string]Kind{
	"PSTM3DACC":  KindAccelerometer,
	"PSTM3DGYRO": KindGyro,
	"GPRMC":      KindRMC,
	"GNRMC":      KindRMC,
	"DRRAWG":     KindRawGyro,
	"DRRAWA":     KindRawAcc,
	"DRROG":      KindRotatedGyro,
	"DRROA":      KindRotatedAcc,
	"DRFIG":      KindFilteredGyro,
	"DRFIA":      KindFilteredAcc,
	"DRALG":      KindAlignedGyro,
	"DRALA":      KindAlignedAcc,
	"DREAG":      KindEulerGyro,
	"DREAA":      KindEulerAcc,
	"DREAF":      KindEulerFused,
	"DRGBF":      KindGravityBody,
	"DRLAC":      KindLinearAcc,
	"DRIAC":      KindInertialAcc,
	"DRVBF":      KindVelocityBody,
	"DRVIF":      KindVelocityInertial,
	"DRPBF":      KindPositionBody,
	"DRPIF":      KindPositionInertial,
}

var kindNames = [kindCount]string{
	KindUnknown:          "unknown",
	KindAccelerometer:    "accelerometer",
	KindGyro:             "gyro",
	KindRMC:              "rmc",
	KindRawGyro:          "raw_gyro",
	KindRawAcc:           "raw_acc",
	KindRotatedGyro:      "rotated_gyro",
	KindRotatedAcc:       "rotated_acc",
	KindFilteredGyro:     "filtered_gyro",
	KindFilteredAcc:      "filtered_acc",
	KindAlignedGyro:      "aligned_gyro",
	KindAlignedAcc:       "aligned_acc",
	KindEulerGyro:        "euler_gyro",
	KindEulerAcc:         "euler_acc",
	KindEulerFused:       "euler_fused",
	KindGravityBody:      "gravity_body",
	KindLinearAcc:        "linear_acc",
	KindInertialAcc:      "inertial_acc",
	KindVelocityBody:     "velocity_body",
	KindVelocityInertial: "velocity_inertial",
	KindPositionBody:     "position_body",
	KindPositionInertial: "position_inertial",
}

// vectorAxes is the number of axes after the time field for each DR kind.
// Kinds not listed here are not vector kinds.
var vectorAxes = map[Kind]int{
	KindRawGyro:          3,
	KindRawAcc:           3,
	KindRotatedGyro:      3,
	KindRotatedAcc:       3,
	KindFilteredGyro:     3,
	KindFilteredAcc:      3,
	KindAlignedGyro:      3,
	KindAlignedAcc:       3,
	KindEulerGyro:        3,
	KindEulerAcc:         2,
	KindEulerFused:       3,
	KindGravityBody:      3,
	KindLinearAcc:        3,
	KindInertialAcc:      3,
	KindVelocityBody:     2,
	KindVelocityInertial: 2,
	KindPositionBody:     2,
	KindPositionInertial: 2,
}

// KindOf resolves a sentence identifier such as "GPRMC".
func KindOf(id string) Kind {
	return kindByID[id]
}

func (k Kind) String() string {
	if k < 0 || k >= kindCount {
		return "unknown"
	}
	return kindNames[k]
}

// IsVector reports whether k is one of the DR time+axes kinds.
func (k Kind) IsVector() bool {
	_, ok := vectorAxes[k]
	return ok
}

// VectorKinds lists the DR kinds in declaration order.
func VectorKinds() []Kind {
	out := make([]Kind, 0, len(vectorAxes))
	for k := KindRawGyro; k < kindCount; k++ {
		out = append(out, k)
	}
	return out
}
