package app

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/relabs-tech/inertial_decoder/internal/ubx"
)

func TestAvoidSync(t *testing.T) {
	assert.Equal(t, uint32(0x0012B6), avoidSync(0x0012B5))
	assert.Equal(t, uint32(0xB6B6B6), avoidSync(0xB5B5B5))
	assert.Equal(t, uint32(0x123456), avoidSync(0x123456))
	assert.Equal(t, int32(-1), cleanRaw(-1))
	assert.Equal(t, int32(0xB6), cleanRaw(0xB5))
}

func TestSimulatedFramesHaveNoSyncBytes(t *testing.T) {
	// time tags of cycles 464 and 465 carry 0xB5 in their middle byte
	var buf bytes.Buffer
	sum, err := Simulate(&buf, SimulateOptions{Steps: 1000, Step: 100 * time.Millisecond})
	require.NoError(t, err)
	assert.Equal(t, 0, sum.Skipped)
	assert.Equal(t, 1000, sum.ESFRaw)

	d := ubx.NewDecoder()
	for _, b := range buf.Bytes() {
		_ = d.Parse(b)
	}
	st := d.Stats()
	assert.Equal(t, uint64(1000), st.Frames)
	assert.Equal(t, uint64(0), st.Resyncs)
	assert.Equal(t, uint64(0), st.ChecksumErrors)
	assert.Equal(t, uint64(0), st.FieldErrors)
}

func TestESFRawFrameCleansEverySample(t *testing.T) {
	// accel z of 0xB5 counts lands the sync byte in the low sample byte
	acc := [3]float64{0, 0, 0xB5 * ubx.DefaultAccelScale}
	frame, ok := esfRawFrame([3]float64{}, acc, 25, 0xB5B5)
	require.True(t, ok)
	assert.Equal(t, -1, bytes.IndexByte(frame[2:], ubx.Sync1))

	d := ubx.NewDecoder()
	for _, b := range frame {
		require.NoError(t, d.Parse(b))
	}
	require.True(t, d.IsESFRawReady())
	assert.InDelta(t, 0xB6*ubx.DefaultAccelScale, d.ESFRaw().AccelZ.Value, 1e-12)
}
