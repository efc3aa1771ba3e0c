package ubx

import "encoding/binary"

const (
	Sync1 = 0xB5
	Sync2 = 0x62
)

// Checksum runs the 8-bit Fletcher sums over data (class through payload).
func Checksum(data []byte) (ckA, ckB uint8) {
	for _, b := range data {
		ckA += b
		ckB += ckA
	}
	return ckA, ckB
}

// Encode builds a complete frame: sync bytes, header, payload and checksum.
func Encode(class, id uint8, payload []byte) []byte {
	buf := make([]byte, 0, 8+len(payload))
	buf = append(buf, Sync1, Sync2, class, id)
	buf = binary.LittleEndian.AppendUint16(buf, uint16(len(payload)))
	buf = append(buf, payload...)
	ckA, ckB := Checksum(buf[2:])
	return append(buf, ckA, ckB)
}
