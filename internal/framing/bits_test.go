package framing

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDecodeLE(t *testing.T) {
	cases := []struct {
		name   string
		in     []byte
		signed bool
		want   int64
	}{
		{"24bit minus one", []byte{0xFF, 0xFF, 0xFF}, true, -1},
		{"24bit all ones unsigned", []byte{0xFF, 0xFF, 0xFF}, false, 0xFFFFFF},
		{"24bit one unsigned", []byte{0x01, 0x00, 0x00}, false, 1},
		{"24bit most negative", []byte{0x00, 0x00, 0x80}, true, -8388608},
		{"24bit most positive", []byte{0xFF, 0xFF, 0x7F}, true, 8388607},
		{"24bit little endian order", []byte{0x34, 0x12, 0x00}, true, 0x1234},
		{"16bit negative", []byte{0x00, 0x80}, true, -32768},
		{"8bit negative", []byte{0xFE}, true, -2},
		{"32bit unsigned high bit", []byte{0x00, 0x00, 0x00, 0x80}, false, 0x80000000},
		{"64bit signed", []byte{0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF}, true, -1},
		{"empty", nil, true, 0},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, DecodeLE(tc.in, tc.signed))
		})
	}
}

func TestSlotConsumeIsIdempotent(t *testing.T) {
	var s Slot[int]
	assert.False(t, s.Ready())

	s.Put(1)
	s.Put(2)
	assert.True(t, s.Ready())
	assert.Equal(t, 2, s.Get())

	s.Consume()
	s.Consume()
	assert.False(t, s.Ready())
	assert.Equal(t, 2, s.Get())
}

func TestStatsSub(t *testing.T) {
	a := Stats{Frames: 10, ChecksumErrors: 3, Garbage: 7}
	b := Stats{Frames: 4, ChecksumErrors: 1, Garbage: 7}
	assert.Equal(t, Stats{Frames: 6, ChecksumErrors: 2}, a.Sub(b))
}
