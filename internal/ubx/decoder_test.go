package ubx

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/relabs-tech/inertial_decoder/internal/framing"
)

func feed(d *Decoder, frames ...[]byte) []error {
	var errs []error
	for _, f := range frames {
		for _, b := range f {
			if err := d.Parse(b); err != nil {
				errs = append(errs, err)
			}
		}
	}
	return errs
}

// fullCycle is one ESF-RAW payload with every channel present once.
func fullCycle(time uint32) []byte {
	p := ESFRawPayload()
	p = AppendESFRawGroup(p, 14, 4026, time)   // gyro x
	p = AppendESFRawGroup(p, 13, -4026, time)  // gyro y
	p = AppendESFRawGroup(p, 5, 2013, time)    // gyro z
	p = AppendESFRawGroup(p, 16, 1024, time)   // accel x
	p = AppendESFRawGroup(p, 17, -512, time)   // accel y
	p = AppendESFRawGroup(p, 18, 10035, time)  // accel z
	p = AppendESFRawGroup(p, 12, 2550, time+1) // temperature
	return p
}

func TestEncode(t *testing.T) {
	assert.Equal(t,
		[]byte{0xB5, 0x62, 0x01, 0x02, 0x01, 0x00, 0x03, 0x07, 0x13},
		Encode(0x01, 0x02, []byte{0x03}))

	ckA, ckB := Checksum([]byte{0x01, 0x02, 0x01, 0x00, 0x03})
	assert.Equal(t, uint8(0x07), ckA)
	assert.Equal(t, uint8(0x13), ckB)
}

func TestUnrecognizedFrameIsValidated(t *testing.T) {
	d := NewDecoder()
	assert.Empty(t, feed(d, Encode(0x01, 0x02, []byte{0x03})))

	st := d.Stats()
	assert.Equal(t, uint64(1), st.Frames)
	assert.Equal(t, uint64(1), st.Unrecognized)
	assert.Equal(t, StateGarbage, d.State())
	assert.False(t, d.IsESFRawReady())
	assert.Equal(t, Frame{Class: 0x01, ID: 0x02, Payload: []byte{0x03}}, d.LastFrame())
}

func TestEmptyPayload(t *testing.T) {
	d := NewDecoder()
	assert.Empty(t, feed(d, Encode(0x0A, 0x04, nil)))
	assert.Equal(t, uint64(1), d.Stats().Frames)
	assert.Empty(t, d.LastFrame().Payload)
}

func TestChecksumMismatch(t *testing.T) {
	d := NewDecoder()
	f := Encode(0x01, 0x02, []byte{0x03})
	f[len(f)-1] ^= 0x01

	errs := feed(d, f)
	require.Len(t, errs, 1)
	assert.ErrorIs(t, errs[0], framing.ErrChecksumMismatch)
	assert.Equal(t, uint64(0), d.Stats().Frames)
	assert.Equal(t, uint64(1), d.Stats().ChecksumErrors)
	assert.Equal(t, StateGarbage, d.State())

	assert.Empty(t, feed(d, Encode(0x01, 0x02, []byte{0x03})))
	assert.Equal(t, uint64(1), d.Stats().Frames)
}

func TestPayloadOverflow(t *testing.T) {
	d := NewDecoder(WithMaxPayload(4))
	errs := feed(d, Encode(0x01, 0x02, []byte{1, 2, 3, 4, 5}))
	require.Len(t, errs, 1)
	assert.ErrorIs(t, errs[0], framing.ErrFrameOverflow)
	assert.Equal(t, uint64(1), d.Stats().Overflows)

	assert.Empty(t, feed(d, Encode(0x01, 0x02, []byte{1, 2, 3, 4})))
	assert.Equal(t, uint64(1), d.Stats().Frames)
}

func TestGarbageAndFalseSync(t *testing.T) {
	d := NewDecoder()
	assert.Empty(t, feed(d, []byte{0x00, 0x62, 0xB5, 0x00}, Encode(0x01, 0x02, []byte{0x03})))
	assert.Equal(t, uint64(3), d.Stats().Garbage)
	assert.Equal(t, uint64(1), d.Stats().Frames)
}

func TestSyncByteResyncsByDefault(t *testing.T) {
	d := NewDecoder()
	partial := []byte{0xB5, 0x62, 0x01, 0x02, 0x05, 0x00, 0xAA}
	assert.Empty(t, feed(d, partial, Encode(0x01, 0x02, []byte{0x03})))

	assert.Equal(t, uint64(1), d.Stats().Resyncs)
	assert.Equal(t, uint64(1), d.Stats().Frames)
	assert.Equal(t, []byte{0x03}, d.LastFrame().Payload)
}

func TestSyncByteInsidePayload(t *testing.T) {
	f := Encode(0x01, 0x02, []byte{0x11, 0xB5, 0x22})

	d := NewDecoder()
	feed(d, f)
	assert.Equal(t, uint64(0), d.Stats().Frames)
	assert.Equal(t, uint64(1), d.Stats().Resyncs)

	d = NewDecoder(WithPayloadResync(false))
	assert.Empty(t, feed(d, f))
	assert.Equal(t, uint64(1), d.Stats().Frames)
	assert.Equal(t, []byte{0x11, 0xB5, 0x22}, d.LastFrame().Payload)
}

func TestSigned24BitSample(t *testing.T) {
	d := NewDecoder(WithCycleChannels(1), WithPayloadResync(false))
	payload := []byte{
		0x00, 0x00, 0x00, 0x00, // reserved
		0xFF, 0xFF, 0xFF, 16, // accel x, -1
		0x01, 0x00, 0x00, 0x00, // time tag 1
	}
	assert.Empty(t, feed(d, Encode(ClassESF, IDESFRaw, payload)))

	require.True(t, d.IsESFRawReady())
	r := d.ESFRaw()
	assert.InDelta(t, -0.0009765625, r.AccelX.Value, 1e-12)
	assert.Equal(t, uint32(1), r.AccelX.Time)
	assert.True(t, r.AccelX.Valid)
	assert.False(t, r.GyroX.Valid)
}

func TestTimeTagIsUnsigned(t *testing.T) {
	d := NewDecoder(WithCycleChannels(1), WithPayloadResync(false))
	payload := AppendESFRawGroup(ESFRawPayload(), 5, 1, 0xFFFFFF)
	assert.Empty(t, feed(d, Encode(ClassESF, IDESFRaw, payload)))
	require.True(t, d.IsESFRawReady())
	assert.Equal(t, uint32(0xFFFFFF), d.ESFRaw().GyroZ.Time)
}

func TestFullCycle(t *testing.T) {
	d := NewDecoder(WithPayloadResync(false))
	assert.Empty(t, feed(d, Encode(ClassESF, IDESFRaw, fullCycle(1000))))
	require.True(t, d.IsESFRawReady())

	r := d.ESFRaw()
	assert.InDelta(t, 1.0, r.GyroX.Value, 1e-9)
	assert.InDelta(t, -1.0, r.GyroY.Value, 1e-9)
	assert.InDelta(t, 0.5, r.GyroZ.Value, 1e-9)
	assert.InDelta(t, 1.0, r.AccelX.Value, 1e-9)
	assert.InDelta(t, -0.5, r.AccelY.Value, 1e-9)
	assert.InDelta(t, 10035.0/1024, r.AccelZ.Value, 1e-9)
	assert.InDelta(t, 25.5, r.GyroTemp.Value, 1e-9)
	assert.Equal(t, uint32(1001), r.GyroTemp.Time)
	for ch := GyroX; ch < NumChannels; ch++ {
		assert.True(t, r.Channel(ch).Valid, ch.String())
	}
	assert.Equal(t, uint64(0), d.Stats().Unrecognized)
}

func TestIncompleteCycleIsNotCommitted(t *testing.T) {
	d := NewDecoder(WithPayloadResync(false))
	full := fullCycle(1)
	short := full[:len(full)-8]

	errs := feed(d, Encode(ClassESF, IDESFRaw, short))
	require.Len(t, errs, 1)
	assert.ErrorIs(t, errs[0], framing.ErrFieldParse)
	assert.False(t, d.IsESFRawReady())
	assert.Equal(t, uint64(1), d.Stats().Frames)
}

func TestUnknownTagIsSkipped(t *testing.T) {
	d := NewDecoder(WithPayloadResync(false))
	full := fullCycle(1)
	short := full[:len(full)-8]
	padded := AppendESFRawGroup(short, 99, 7, 1)

	errs := feed(d, Encode(ClassESF, IDESFRaw, padded))
	require.Len(t, errs, 1)
	assert.False(t, d.IsESFRawReady())

	assert.Empty(t, feed(d, Encode(ClassESF, IDESFRaw, AppendESFRawGroup(fullCycle(2), 99, 7, 1))))
	require.True(t, d.IsESFRawReady())
	assert.Equal(t, uint32(2), d.ESFRaw().GyroX.Time)
}

func TestCorruptFrameKeepsEmittedReading(t *testing.T) {
	d := NewDecoder(WithPayloadResync(false))
	feed(d, Encode(ClassESF, IDESFRaw, fullCycle(1)))
	require.True(t, d.IsESFRawReady())
	d.ConsumeESFRaw()

	bad := Encode(ClassESF, IDESFRaw, fullCycle(2))
	bad[len(bad)-2] ^= 0xFF
	errs := feed(d, bad)
	require.Len(t, errs, 1)
	assert.ErrorIs(t, errs[0], framing.ErrChecksumMismatch)

	assert.False(t, d.IsESFRawReady())
	assert.Equal(t, uint32(1), d.ESFRaw().GyroX.Time)
}

func TestUnconsumedReadingIsOverwritten(t *testing.T) {
	d := NewDecoder(WithPayloadResync(false))
	feed(d, Encode(ClassESF, IDESFRaw, fullCycle(1)), Encode(ClassESF, IDESFRaw, fullCycle(2)))
	require.True(t, d.IsESFRawReady())
	assert.Equal(t, uint32(2), d.ESFRaw().AccelX.Time)
	assert.Equal(t, uint64(2), d.Stats().Frames)
}

func TestConsumeIsIdempotent(t *testing.T) {
	d := NewDecoder(WithPayloadResync(false))
	feed(d, Encode(ClassESF, IDESFRaw, fullCycle(1)))
	d.ConsumeESFRaw()
	d.ConsumeESFRaw()
	assert.False(t, d.IsESFRawReady())
	assert.Equal(t, uint32(1), d.ESFRaw().AccelX.Time)
}

func TestScaleOverride(t *testing.T) {
	assert.Equal(t, 1.0/4026, DefaultGyroScale)

	d := NewDecoder(WithScale(GyroX, 1.0/4096), WithCycleChannels(1), WithPayloadResync(false))
	assert.Equal(t, 1.0/4096, d.Scale(GyroX))
	assert.Equal(t, DefaultGyroScale, d.Scale(GyroY))

	feed(d, Encode(ClassESF, IDESFRaw, AppendESFRawGroup(ESFRawPayload(), 14, 4096, 3)))
	require.True(t, d.IsESFRawReady())
	assert.InDelta(t, 1.0, d.ESFRaw().GyroX.Value, 1e-12)
}

func TestLastFrameIsACopy(t *testing.T) {
	d := NewDecoder()
	feed(d, Encode(0x01, 0x02, []byte{0x03}))
	f := d.LastFrame()
	f.Payload[0] = 0x7F
	assert.Equal(t, []byte{0x03}, d.LastFrame().Payload)
}

func TestRepeatedChannelIsNotACycle(t *testing.T) {
	d := NewDecoder(WithPayloadResync(false))
	p := ESFRawPayload()
	for i := uint32(0); i < 7; i++ {
		p = AppendESFRawGroup(p, 16, 1024, i)
	}

	errs := feed(d, Encode(ClassESF, IDESFRaw, p))
	require.Len(t, errs, 1)
	assert.ErrorIs(t, errs[0], framing.ErrFieldParse)
	assert.False(t, d.IsESFRawReady())
	assert.Equal(t, uint64(1), d.Stats().FieldErrors)

	d = NewDecoder(WithCycleChannels(2), WithPayloadResync(false))
	p = AppendESFRawGroup(p, 14, 4026, 8)
	assert.Empty(t, feed(d, Encode(ClassESF, IDESFRaw, p)))
	require.True(t, d.IsESFRawReady())
	r := d.ESFRaw()
	assert.Equal(t, uint32(6), r.AccelX.Time)
	assert.True(t, r.GyroX.Valid)
	assert.False(t, r.GyroY.Valid)
}

func TestCycleChannelsIsClamped(t *testing.T) {
	d := NewDecoder(WithCycleChannels(12), WithPayloadResync(false))
	assert.Empty(t, feed(d, Encode(ClassESF, IDESFRaw, fullCycle(1))))
	assert.True(t, d.IsESFRawReady())
}

func TestCopiedDecoderKeepsItsOwnScales(t *testing.T) {
	d := NewDecoder(WithCycleChannels(1), WithPayloadResync(false))
	cp := *d
	cp.scales[GyroX] = 1.0 / 4096

	feed(&cp, Encode(ClassESF, IDESFRaw, AppendESFRawGroup(ESFRawPayload(), 14, 4096, 3)))
	require.True(t, cp.IsESFRawReady())
	assert.InDelta(t, 1.0, cp.ESFRaw().GyroX.Value, 1e-12)
	assert.Equal(t, DefaultGyroScale, d.Scale(GyroX))
}
