// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

// Package framing holds the pieces shared by the byte-stream decoders:
// the soft error kinds, per-decoder counters, the ready/consume slot and
// little-endian integer decoding.
package framing

import "errors"

// Soft failures reported by the decoders. A frame that fails with one of
// these is dropped and the decoder waits for the next frame start.
var (
	ErrFrameOverflow    = errors.New("frame overflow")
	ErrChecksumMismatch = errors.New("checksum mismatch")
	ErrFieldParse       = errors.New("field parse failure")
)

// Stats counts what a decoder did with the bytes it was fed.
type Stats struct {
	Frames         uint64 `json:"frames"`          // checksum-valid frames
	ChecksumErrors uint64 `json:"checksum_errors"` // frames dropped on checksum
	Overflows      uint64 `json:"overflows"`       // frames dropped on a bound
	FieldErrors    uint64 `json:"field_errors"`    // valid frames whose fields did not parse
	Unrecognized   uint64 `json:"unrecognized"`    // valid frames of an unknown kind
	Resyncs        uint64 `json:"resyncs"`         // frames cut short by a new frame start
	Garbage        uint64 `json:"garbage"`         // bytes discarded outside a frame
}

// Sub returns the per-counter difference s - prev.
func (s Stats) Sub(prev Stats) Stats {
	return Stats{
		Frames:         s.Frames - prev.Frames,
		ChecksumErrors: s.ChecksumErrors - prev.ChecksumErrors,
		Overflows:      s.Overflows - prev.Overflows,
		FieldErrors:    s.FieldErrors - prev.FieldErrors,
		Unrecognized:   s.Unrecognized - prev.Unrecognized,
		Resyncs:        s.Resyncs - prev.Resyncs,
		Garbage:        s.Garbage - prev.Garbage,
	}
}
