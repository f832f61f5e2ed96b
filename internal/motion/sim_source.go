// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package motion

import (
	"math"
	"time"
)

type simSource struct {
	sensor string
	axes   int
	start  time.Time
}

// NewSimSource creates a simulated source for one sensor. Each axis gets
// a slow oscillation with its own frequency and phase plus a small fast
// ripple, so the monitor sees plausible motion with real peaks to count
// without any hardware attached.
func NewSimSource(sensor string, axes int) Source {
	return &simSource{sensor: sensor, axes: axes, start: time.Now()}
}

func (s *simSource) Next() (Sample, error) {
	elapsed := time.Since(s.start).Seconds()
	values := make([]float64, s.axes)
	for i := range values {
		phase := 0.9 * float64(i)
		base := 20 * math.Sin(elapsed*(1.1+0.3*float64(i))+phase)
		ripple := 0.8 * math.Sin(elapsed*17*(1+0.2*float64(i)))
		values[i] = base + ripple
	}
	return Sample{
		Sensor: s.sensor,
		Values: values,
		Time:   time.Now().UTC().Format(time.RFC3339),
	}, nil
}
