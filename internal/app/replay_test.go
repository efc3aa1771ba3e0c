package app

import (
	"bufio"
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/relabs-tech/inertial_decoder/internal/config"
)

func TestSimulateThenReplay(t *testing.T) {
	path := filepath.Join(t.TempDir(), "capture.bin")
	require.NoError(t, RunSimulate(path, SimulateOptions{Steps: 10, RMCEvery: 5}))

	var out bytes.Buffer
	require.NoError(t, RunReplay(config.Default(), path, &out, false))

	counts := map[string]int{}
	sc := bufio.NewScanner(&out)
	for sc.Scan() {
		topic, _, ok := strings.Cut(sc.Text(), " ")
		require.True(t, ok)
		counts[topic]++
	}
	assert.Equal(t, 10, counts["accel"])
	assert.Equal(t, 10, counts["esf_raw"])
	assert.Equal(t, 2, counts["gps"])
	assert.Equal(t, 10, counts["dr/euler_fused"])
	assert.Equal(t, 20, counts["imu"])
}

func TestReplayMissingFile(t *testing.T) {
	err := RunReplay(config.Default(), filepath.Join(t.TempDir(), "absent.bin"), &bytes.Buffer{}, false)
	assert.ErrorIs(t, err, os.ErrNotExist)
}
