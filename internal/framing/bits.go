// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package framing

// DecodeLE decodes len(b) little-endian bytes (1..8) into an integer.
//
// With signed set, the value is read as two's complement with the sign bit
// at bit 8*len(b)-1 and sign-extended to 64 bits. With signed unset the
// bytes are taken as an unsigned magnitude.
func DecodeLE(b []byte, signed bool) int64 {
	n := len(b)
	if n == 0 {
		return 0
	}
	if n > 8 {
		n = 8
	}

	var v uint64
	for i := 0; i < n; i++ {
		v |= uint64(b[i]) << (8 * uint(i))
	}

	if !signed || n == 8 {
		return int64(v)
	}

	bits := uint(8 * n)
	if v&(1<<(bits-1)) != 0 {
		v |= ^uint64(0) << bits
	}
	return int64(v)
}
