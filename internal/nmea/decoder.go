// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

// Package nmea decodes checksummed, comma-delimited ASCII sentences
// ("$ID,f1,f2,...*CC") one byte at a time. A trailing CR/LF is not
// required. The checksum is the 8-bit XOR of every byte between '$' and
// '*', delimiters included, written as two hex digits.
//
// Decoded readings are handed over through one ready/consume slot per
// sentence kind: the consumer polls IsXxxReady, reads Xxx and calls
// ConsumeXxx. A slot that is not consumed before the next sentence of the
// same kind is overwritten.
package nmea

import (
	"fmt"

	"github.com/relabs-tech/inertial_decoder/internal/framing"
)

const (
	DefaultMaxFields    = 10
	DefaultMaxFieldSize = 30
)

// States of the sentence automaton.
const (
	StateIdle       = 0
	StateCollecting = 1
	stateUnused     = 2 // never entered; keeps the table aligned with the state numbering
	StateChecksum1  = 3
	StateChecksum2  = 4
	numStates       = 5
)

// Byte groups used as the transition table columns.
const (
	groupStart     = iota // '$'
	groupStar             // '*'
	groupHex              // 0-9 A-F a-f
	groupPrintable        // any other printable ASCII, ',' included
	groupControl          // below 0x20 and 0x7F upwards
	numGroups
)

var transitions = [numStates][numGroups]int{
	StateIdle:       {StateCollecting, StateIdle, StateIdle, StateIdle, StateIdle},
	StateCollecting: {StateCollecting, StateChecksum1, StateCollecting, StateCollecting, StateIdle},
	stateUnused:     {StateCollecting, StateIdle, StateIdle, StateIdle, StateIdle},
	StateChecksum1:  {StateCollecting, StateIdle, StateChecksum2, StateIdle, StateIdle},
	StateChecksum2:  {StateCollecting, StateIdle, StateChecksum2, StateIdle, StateIdle},
}

func classify(c byte) int {
	switch {
	case c == '$':
		return groupStart
	case c == '*':
		return groupStar
	case c >= '0' && c <= '9', c >= 'A' && c <= 'F', c >= 'a' && c <= 'f':
		return groupHex
	case c >= 0x20 && c < 0x7F:
		return groupPrintable
	default:
		return groupControl
	}
}

const hexDigits = "0123456789ABCDEF"

func upper(c byte) byte {
	if c >= 'a' && c <= 'f' {
		return c - 'a' + 'A'
	}
	return c
}

// Decoder is the sentence automaton plus its output slots. It is not safe
// for concurrent use; feed it from a single goroutine.
type Decoder struct {
	maxFrameSize int

	state     int
	lastState int
	bytesRead int // bytes consumed since the last '$'
	checksum  byte
	received  [2]byte
	fields    *fieldBuffer
	lastKind  Kind

	stats framing.Stats

	accelerometer framing.Slot[Accelerometer]
	gyro          framing.Slot[Gyro]
	rmc           framing.Slot[RMC]
	vectors       [kindCount]framing.Slot[Vector]
}

// NewDecoder creates a decoder holding at most maxFields fields of at most
// maxFieldSize bytes each. Non-positive values select the defaults. A
// frame longer than maxFields*maxFieldSize bytes is dropped.
func NewDecoder(maxFields, maxFieldSize int) *Decoder {
	if maxFields <= 0 {
		maxFields = DefaultMaxFields
	}
	if maxFieldSize <= 0 {
		maxFieldSize = DefaultMaxFieldSize
	}
	return &Decoder{
		maxFrameSize: maxFields * maxFieldSize,
		fields:       newFieldBuffer(maxFields, maxFieldSize),
	}
}

// resetFrame discards everything collected for the current frame. The
// automaton state is left to the caller.
func (d *Decoder) resetFrame() {
	d.bytesRead = 0
	d.checksum = 0
	d.received = [2]byte{}
	d.fields.reset()
}

func (d *Decoder) abort(err error) error {
	d.resetFrame()
	d.state = StateIdle
	return err
}

func (d *Decoder) overflow(what string) error {
	d.stats.Overflows++
	return d.abort(fmt.Errorf("nmea: %s: %w", what, framing.ErrFrameOverflow))
}

// Parse feeds one byte to the automaton. It returns nil unless the byte
// made the decoder drop a frame, in which case the error wraps one of
// framing.ErrFrameOverflow, framing.ErrChecksumMismatch or
// framing.ErrFieldParse. The decoder is always ready for the next byte.
func (d *Decoder) Parse(c byte) error {
	group := classify(c)

	if group == groupStart {
		if d.state != StateIdle {
			d.stats.Resyncs++
		}
		d.resetFrame()
		d.lastState = d.state
		d.state = transitions[d.state][group]
		return nil
	}

	if d.state == StateIdle {
		d.stats.Garbage++
		return nil
	}

	d.bytesRead++
	if d.bytesRead > d.maxFrameSize {
		return d.overflow(fmt.Sprintf("more than %d bytes since '$'", d.maxFrameSize))
	}

	d.lastState = d.state
	d.state = transitions[d.state][group]

	switch d.state {
	case StateIdle:
		d.stats.Garbage++
		d.resetFrame()

	case StateCollecting:
		d.checksum ^= c
		if c == ',' {
			if !d.fields.closeField() {
				return d.overflow(fmt.Sprintf("more than %d fields", d.fields.maxFields))
			}
			break
		}
		if !d.fields.appendByte(c) {
			if d.fields.full() {
				return d.overflow(fmt.Sprintf("more than %d fields", d.fields.maxFields))
			}
			return d.overflow(fmt.Sprintf("field %d longer than %d bytes", d.fields.count(), d.fields.maxFieldSize))
		}

	case StateChecksum1:
		if !d.fields.closeField() {
			return d.overflow(fmt.Sprintf("more than %d fields", d.fields.maxFields))
		}

	case StateChecksum2:
		if d.lastState == StateChecksum1 {
			d.received[0] = upper(c)
			break
		}
		d.received[1] = upper(c)
		return d.finish()
	}

	return nil
}

// finish runs on the second checksum digit.
func (d *Decoder) finish() error {
	computed := [2]byte{hexDigits[d.checksum>>4], hexDigits[d.checksum&0x0F]}
	if computed != d.received {
		d.stats.ChecksumErrors++
		return d.abort(fmt.Errorf("nmea: %w: computed %s, received %s",
			framing.ErrChecksumMismatch, computed[:], d.received[:]))
	}
	d.stats.Frames++

	err := d.dispatch()
	d.resetFrame()
	d.state = StateIdle
	return err
}

func (d *Decoder) dispatch() error {
	id, _ := d.fields.field(0)
	kind := KindOf(id)
	d.lastKind = kind
	r := fieldReader{fb: d.fields, kind: kind}

	var err error
	switch {
	case kind == KindAccelerometer:
		var v Accelerometer
		if v, err = structureAccelerometer(r); err == nil {
			d.accelerometer.Put(v)
		}
	case kind == KindGyro:
		var v Gyro
		if v, err = structureGyro(r); err == nil {
			d.gyro.Put(v)
		}
	case kind == KindRMC:
		var v RMC
		if v, err = structureRMC(r); err == nil {
			v.Raw = rawSentence(d.fields.fields(), d.received)
			d.rmc.Put(v)
		}
	case kind.IsVector():
		var v Vector
		if v, err = structureVector(r); err == nil {
			d.vectors[kind].Put(v)
		}
	default:
		d.stats.Unrecognized++
		return nil
	}

	if err != nil {
		d.stats.FieldErrors++
	}
	return err
}

// Stats returns a copy of the decoder counters.
func (d *Decoder) Stats() framing.Stats { return d.stats }

// State returns the current automaton state.
func (d *Decoder) State() int { return d.state }

// LastKind returns the kind of the last checksum-valid sentence.
func (d *Decoder) LastKind() Kind { return d.lastKind }

func (d *Decoder) IsAccelerometerReady() bool   { return d.accelerometer.Ready() }
func (d *Decoder) ConsumeAccelerometer()        { d.accelerometer.Consume() }
func (d *Decoder) Accelerometer() Accelerometer { return d.accelerometer.Get() }

func (d *Decoder) IsGyroReady() bool { return d.gyro.Ready() }
func (d *Decoder) ConsumeGyro()      { d.gyro.Consume() }
func (d *Decoder) Gyro() Gyro        { return d.gyro.Get() }

func (d *Decoder) IsRMCReady() bool { return d.rmc.Ready() }
func (d *Decoder) ConsumeRMC()      { d.rmc.Consume() }
func (d *Decoder) RMC() RMC         { return d.rmc.Get() }

// IsVectorReady reports whether a DR sentence of kind k is waiting.
func (d *Decoder) IsVectorReady(k Kind) bool {
	return k.IsVector() && d.vectors[k].Ready()
}

func (d *Decoder) ConsumeVector(k Kind) {
	if k.IsVector() {
		d.vectors[k].Consume()
	}
}

func (d *Decoder) Vector(k Kind) Vector {
	if !k.IsVector() {
		return Vector{}
	}
	return d.vectors[k].Get()
}
