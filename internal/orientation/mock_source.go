// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package orientation

import (
	"math"
	"time"
)

type sweepSource struct {
	step    time.Duration
	elapsed time.Duration
}

// NewSweepSource creates a source that generates smoothly changing poses,
// advancing a virtual clock by step on every call so the output is
// reproducible.
func NewSweepSource(step time.Duration) Source {
	return &sweepSource{step: step}
}

func (m *sweepSource) Next() (Pose, error) {
	elapsed := m.elapsed.Seconds()
	m.elapsed += m.step

	return Pose{
		Roll:  20 * math.Sin(elapsed),
		Pitch: 15 * math.Cos(elapsed*0.7),
		Yaw:   math.Mod(elapsed*30, 360),
	}, nil
}
