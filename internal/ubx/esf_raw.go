// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package ubx

import (
	"encoding/binary"
	"math/bits"

	"github.com/relabs-tech/inertial_decoder/internal/framing"
)

const (
	ClassESF = 0x10
	IDESFRaw = 0x03

	esfReserved = 4 // payload bytes before the first data group
)

// DefaultGyroScale converts raw gyro counts to deg/s. The value is kept as
// delivered by the sensor integration even though 1/4096 would match the
// accelerometer's power-of-two scale; override it with WithScale.
const DefaultGyroScale = 1.0 / 4026

const (
	DefaultAccelScale = 1.0 / 1024
	DefaultTempScale  = 1e-2
)

// ChannelID names one physical sensor channel of an ESF-RAW reading.
type ChannelID int

const (
	GyroX ChannelID = iota
	GyroY
	GyroZ
	AccelX
	AccelY
	AccelZ
	GyroTemp
	NumChannels
)

var channelNames = [NumChannels]string{"gyro_x", "gyro_y", "gyro_z", "accel_x", "accel_y", "accel_z", "gyro_temp"}

func (c ChannelID) String() string {
	if c < 0 || c >= NumChannels {
		return "unknown"
	}
	return channelNames[c]
}

// channelByTag maps the data-type byte of a sample group to its channel.
var channelByTag = map[byte]ChannelID{
	5:  GyroZ,
	12: GyroTemp,
	13: GyroY,
	14: GyroX,
	16: AccelX,
	17: AccelY,
	18: AccelZ,
}

func defaultScales() [NumChannels]float64 {
	return [NumChannels]float64{
		GyroX:    DefaultGyroScale,
		GyroY:    DefaultGyroScale,
		GyroZ:    DefaultGyroScale,
		AccelX:   DefaultAccelScale,
		AccelY:   DefaultAccelScale,
		AccelZ:   DefaultAccelScale,
		GyroTemp: DefaultTempScale,
	}
}

// Channel is one scaled measurement and its sensor time tag.
type Channel struct {
	Value float64 `json:"value"`
	Time  uint32  `json:"time"`
	Valid bool    `json:"valid"`
}

// ESFRaw is the latest sample of every channel carried by an ESF-RAW frame.
type ESFRaw struct {
	GyroX    Channel `json:"gyro_x"`
	GyroY    Channel `json:"gyro_y"`
	GyroZ    Channel `json:"gyro_z"`
	AccelX   Channel `json:"accel_x"`
	AccelY   Channel `json:"accel_y"`
	AccelZ   Channel `json:"accel_z"`
	GyroTemp Channel `json:"gyro_temp"`
}

// Channel returns the measurement for id.
func (r ESFRaw) Channel(id ChannelID) Channel {
	if p := r.channel(id); p != nil {
		return *p
	}
	return Channel{}
}

func (r *ESFRaw) channel(id ChannelID) *Channel {
	switch id {
	case GyroX:
		return &r.GyroX
	case GyroY:
		return &r.GyroY
	case GyroZ:
		return &r.GyroZ
	case AccelX:
		return &r.AccelX
	case AccelY:
		return &r.AccelY
	case AccelZ:
		return &r.AccelZ
	case GyroTemp:
		return &r.GyroTemp
	}
	return nil
}

// esfRawDecoder walks an ESF-RAW payload as it streams in. After the
// reserved bytes, 4-byte groups alternate between a sample (24-bit signed
// value, channel tag) and the 24-bit unsigned time tag of that sample.
type esfRawDecoder struct {
	skipped int
	group   [4]byte
	n       int  // bytes in group
	sample  bool // next complete group is a sample
	known   bool // last sample's tag is a known channel
	current ChannelID

	pending ESFRaw
	seen    uint8 // bit per channel with a completed pair
}

func (e *esfRawDecoder) reset() {
	e.skipped = 0
	e.n = 0
	e.sample = true
	e.known = false
	e.pending = ESFRaw{}
	e.seen = 0
}

// channels returns how many distinct channels completed a pair.
func (e *esfRawDecoder) channels() int { return bits.OnesCount8(e.seen) }

func (e *esfRawDecoder) feed(b byte, scales *[NumChannels]float64) {
	if e.skipped < esfReserved {
		e.skipped++
		return
	}
	e.group[e.n] = b
	e.n++
	if e.n < len(e.group) {
		return
	}
	e.n = 0

	if e.sample {
		e.sample = false
		id, ok := channelByTag[e.group[3]]
		e.known = ok
		if !ok {
			return
		}
		e.current = id
		raw := framing.DecodeLE(e.group[:3], true)
		e.pending.channel(id).Value = float64(raw) * scales[id]
		return
	}

	e.sample = true
	if !e.known {
		return
	}
	ch := e.pending.channel(e.current)
	ch.Time = uint32(framing.DecodeLE(e.group[:3], false))
	ch.Valid = true
	e.seen |= 1 << e.current
}

// AppendESFRawGroup appends one sample/time pair for tag to payload, the
// inverse of what the sub-decoder reads.
func AppendESFRawGroup(payload []byte, tag byte, raw int32, time uint32) []byte {
	v := uint32(raw) & 0x00FFFFFF
	payload = binary.LittleEndian.AppendUint32(payload, v|uint32(tag)<<24)
	return binary.LittleEndian.AppendUint32(payload, time&0x00FFFFFF)
}

// ESFRawPayload returns the reserved prefix of an ESF-RAW payload.
func ESFRawPayload() []byte {
	return make([]byte, esfReserved)
}
