// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

// Package ubx decodes binary frames
//
//	0xB5 0x62 class id lenLo lenHi payload[len] CK_A CK_B
//
// one byte at a time. The checksum is the 8-bit Fletcher pair over class,
// id, length and payload. ESF-RAW frames (class 0x10, id 0x03) are decoded
// into per-channel measurements while the payload streams in; every other
// frame is validated and counted but not interpreted.
package ubx

import (
	"fmt"

	"github.com/relabs-tech/inertial_decoder/internal/framing"
)

// States of the frame automaton, named after the byte last consumed.
const (
	StateGarbage = iota
	StateSync1
	StateSync2
	StateClass
	StateID
	StateLenLo
	StateLenHi
	StatePayload
	StateCKA
	StateCKB
)

const (
	DefaultMaxPayload    = 1024
	DefaultCycleChannels = int(NumChannels)
)

// Frame is a checksum-valid frame without sync bytes and trailer.
type Frame struct {
	Class   uint8
	ID      uint8
	Payload []byte
}

type Option func(*Decoder)

// WithMaxPayload bounds the accepted payload length.
func WithMaxPayload(n int) Option {
	return func(d *Decoder) {
		if n > 0 {
			d.maxPayload = n
		}
	}
}

// WithCycleChannels sets how many distinct channels an ESF-RAW frame must
// carry before its reading is committed. n is clamped to NumChannels.
func WithCycleChannels(n int) Option {
	return func(d *Decoder) {
		if n > 0 {
			d.cycleChannels = min(n, int(NumChannels))
		}
	}
}

// WithScale overrides the scale applied to the raw counts of ch.
func WithScale(ch ChannelID, s float64) Option {
	return func(d *Decoder) {
		if ch >= 0 && ch < NumChannels {
			d.scales[ch] = s
		}
	}
}

// WithPayloadResync controls whether a 0xB5 byte restarts the frame in
// every state. When disabled, 0xB5 is only a sync byte outside a frame, so
// payloads and checksums containing 0xB5 decode normally.
func WithPayloadResync(on bool) Option {
	return func(d *Decoder) {
		d.payloadResync = on
	}
}

// Decoder is the frame automaton plus its ESF-RAW slot. Not safe for
// concurrent use.
type Decoder struct {
	maxPayload    int
	cycleChannels int
	payloadResync bool
	scales        [NumChannels]float64

	state      int
	lastState  int
	class      uint8
	id         uint8
	lenLo      uint8
	length     int
	payloadN   int
	ckA, ckB   uint8
	rxA        uint8
	scratch    []byte
	last       Frame
	esf        esfRawDecoder
	esfEngaged bool

	stats framing.Stats

	esfRaw framing.Slot[ESFRaw]
}

func NewDecoder(opts ...Option) *Decoder {
	d := &Decoder{
		maxPayload:    DefaultMaxPayload,
		cycleChannels: DefaultCycleChannels,
		payloadResync: true,
		scales:        defaultScales(),
	}
	for _, opt := range opts {
		opt(d)
	}
	d.scratch = make([]byte, 0, d.maxPayload)
	d.esf.reset()
	return d
}

func (d *Decoder) resetFrame() {
	d.length = 0
	d.payloadN = 0
	d.ckA, d.ckB = 0, 0
	d.scratch = d.scratch[:0]
	d.esfEngaged = false
	d.esf.reset()
}

func (d *Decoder) setState(s int) {
	d.lastState = d.state
	d.state = s
}

func (d *Decoder) add(b byte) {
	d.ckA += b
	d.ckB += d.ckA
}

// Parse feeds one byte to the automaton. A dropped frame is reported as an
// error wrapping framing.ErrFrameOverflow or framing.ErrChecksumMismatch;
// the decoder keeps going either way.
func (d *Decoder) Parse(b byte) error {
	if b == Sync1 && (d.payloadResync || d.state <= StateSync1) {
		if d.state > StateSync1 {
			d.stats.Resyncs++
		}
		d.resetFrame()
		d.setState(StateSync1)
		return nil
	}

	switch d.state {
	case StateGarbage:
		d.stats.Garbage++

	case StateSync1:
		if b != Sync2 {
			d.stats.Garbage++
			d.setState(StateGarbage)
			break
		}
		d.setState(StateSync2)

	case StateSync2:
		d.class = b
		d.setState(StateClass)

	case StateClass:
		d.id = b
		d.setState(StateID)

	case StateID:
		d.lenLo = b
		d.setState(StateLenLo)

	case StateLenLo:
		d.length = int(d.lenLo) | int(b)<<8
		if d.length > d.maxPayload {
			d.stats.Overflows++
			n := d.length
			d.resetFrame()
			d.setState(StateGarbage)
			return fmt.Errorf("ubx: class 0x%02X id 0x%02X length %d above %d: %w",
				d.class, d.id, n, d.maxPayload, framing.ErrFrameOverflow)
		}
		d.add(d.class)
		d.add(d.id)
		d.add(d.lenLo)
		d.add(b)
		d.esfEngaged = d.class == ClassESF && d.id == IDESFRaw
		d.setState(StateLenHi)

	case StateLenHi, StatePayload:
		if d.payloadN < d.length {
			d.add(b)
			d.scratch = append(d.scratch, b)
			d.payloadN++
			if d.esfEngaged {
				d.esf.feed(b, &d.scales)
			}
			d.setState(StatePayload)
			break
		}
		d.rxA = b
		d.setState(StateCKA)

	case StateCKA:
		d.setState(StateCKB)
		return d.finish(b)
	}
	return nil
}

// finish runs on CK_B.
func (d *Decoder) finish(rxB uint8) error {
	defer func() {
		d.resetFrame()
		d.setState(StateGarbage)
	}()

	if d.rxA != d.ckA || rxB != d.ckB {
		d.stats.ChecksumErrors++
		return fmt.Errorf("ubx: class 0x%02X id 0x%02X: %w: computed %02X %02X, received %02X %02X",
			d.class, d.id, framing.ErrChecksumMismatch, d.ckA, d.ckB, d.rxA, rxB)
	}
	d.stats.Frames++

	d.last.Class = d.class
	d.last.ID = d.id
	d.last.Payload = append(d.last.Payload[:0], d.scratch...)

	if !d.esfEngaged {
		d.stats.Unrecognized++
		return nil
	}
	if n := d.esf.channels(); n < d.cycleChannels {
		d.stats.FieldErrors++
		return fmt.Errorf("ubx: esf-raw carried %d of %d channels: %w",
			n, d.cycleChannels, framing.ErrFieldParse)
	}
	d.esfRaw.Put(d.esf.pending)
	return nil
}

// Stats returns a copy of the decoder counters.
func (d *Decoder) Stats() framing.Stats { return d.stats }

func (d *Decoder) State() int { return d.state }

// LastFrame returns a copy of the last checksum-valid frame.
func (d *Decoder) LastFrame() Frame {
	f := d.last
	f.Payload = append([]byte(nil), d.last.Payload...)
	return f
}

// Scale returns the scale currently applied to ch.
func (d *Decoder) Scale(ch ChannelID) float64 {
	if ch < 0 || ch >= NumChannels {
		return 0
	}
	return d.scales[ch]
}

func (d *Decoder) IsESFRawReady() bool { return d.esfRaw.Ready() }
func (d *Decoder) ConsumeESFRaw()      { d.esfRaw.Consume() }
func (d *Decoder) ESFRaw() ESFRaw      { return d.esfRaw.Get() }
