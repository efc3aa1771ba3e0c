package orientation

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/relabs-tech/inertial_decoder/internal/imu"
)

func TestLevelSensor(t *testing.T) {
	p := FromSample(imu.Sample{Az: 1})
	assert.InDelta(t, 0, p.Roll, 1e-9)
	assert.InDelta(t, 0, p.Pitch, 1e-9)
}

func TestGravityRoundTrip(t *testing.T) {
	src := NewSweepSource(100 * time.Millisecond)
	for i := 0; i < 50; i++ {
		want, err := src.Next()
		require.NoError(t, err)

		got := ComputePoseFromAccel(GravityFromPose(want))
		assert.InDelta(t, want.Roll, got.Roll, 1e-6)
		assert.InDelta(t, want.Pitch, got.Pitch, 1e-6)
	}
}

func TestSweepIsReproducible(t *testing.T) {
	a, b := NewSweepSource(time.Second), NewSweepSource(time.Second)
	for i := 0; i < 5; i++ {
		pa, _ := a.Next()
		pb, _ := b.Next()
		assert.Equal(t, pa, pb)
	}
}
