package stream

import (
	"errors"
	"fmt"
)

// Supported filter parameter ranges. Smoothing below 0.75 lets too much
// jitter through to be useful for peak counting, quantization outside
// [1, 600] either flattens the window entirely or amplifies noise.
const (
	MinSmoothingFactor = 0.75
	MaxSmoothingFactor = 1.0

	MinQuantizationFactor = 1.0
	MaxQuantizationFactor = 600.0
)

var (
	// ErrShapeMismatch is returned when a sample carries a different
	// number of components than the track has axes.
	ErrShapeMismatch = errors.New("sample shape does not match axis count")

	// ErrInvalidFilterParameter is returned when a filter update carries
	// a parameter outside its supported range.
	ErrInvalidFilterParameter = errors.New("filter parameter out of range")
)

// FilterConfig holds the per-sensor smoothing and peak-detection
// settings.
type FilterConfig struct {
	Enabled            bool    `json:"enabled"`
	SmoothingFactor    float64 `json:"smoothing_factor"`
	QuantizationFactor float64 `json:"quantization_factor"`
}

// Track groups the axes of one named sensor and applies the sensor's
// filter configuration while ingesting samples. A 3-axis accelerometer is
// one track with axes x, y, z; all axes share capacity, cadence and
// filter settings but keep independent windows and peak counts.
type Track struct {
	sensor string
	axes   []*Axis
	filter FilterConfig
}

// NewTrack builds a track with one axis per name. capacity bounds each
// axis window, cadence is the number of ingested samples between peak
// recounts; both are clamped to at least 1.
func NewTrack(sensor string, axisNames []string, capacity, cadence int, filter FilterConfig) *Track {
	if capacity < 1 {
		capacity = 1
	}
	if cadence < 1 {
		cadence = 1
	}
	axes := make([]*Axis, 0, len(axisNames))
	for _, name := range axisNames {
		axes = append(axes, newAxis(name, capacity, cadence))
	}
	return &Track{sensor: sensor, axes: axes, filter: filter}
}

// Ingest stores one vector sample, component i going to axis i. With the
// filter enabled each component is smoothed against the last stored value
// of its axis before being pushed, and every cadence-many samples the
// axis peak count is recomputed from the quantized window. With the
// filter disabled values are stored raw and peak counts are left alone:
// peak detection only runs on the smoothed series. That coupling is
// deliberate; counting peaks on raw jitter produces numbers nobody can
// use.
//
// A sample whose length differs from the axis count is rejected with
// ErrShapeMismatch before any axis is touched.
func (t *Track) Ingest(values []float64) error {
	if len(values) != len(t.axes) {
		return fmt.Errorf("%w: sensor %s got %d values for %d axes",
			ErrShapeMismatch, t.sensor, len(values), len(t.axes))
	}
	for i, raw := range values {
		ax := t.axes[i]
		v := raw
		if t.filter.Enabled {
			prev, ok := ax.last()
			v = Smooth(prev, ok, raw, t.filter.SmoothingFactor)
		}
		ax.push(v)
		if t.filter.Enabled && ax.tickPeakCadence() {
			ax.recomputePeaks(t.filter.QuantizationFactor)
		}
	}
	return nil
}

// SetFilterConfig validates and replaces the filter settings in one step.
// Out-of-range parameters are rejected with ErrInvalidFilterParameter and
// the previous configuration stays in force. Accepted settings apply from
// the next Ingest on; stored windows and already published peak counts
// are never recomputed retroactively.
func (t *Track) SetFilterConfig(enabled bool, smoothing, quantization float64) error {
	if smoothing < MinSmoothingFactor || smoothing > MaxSmoothingFactor {
		return fmt.Errorf("%w: smoothing factor %g not within [%g, %g]",
			ErrInvalidFilterParameter, smoothing, MinSmoothingFactor, MaxSmoothingFactor)
	}
	if quantization < MinQuantizationFactor || quantization > MaxQuantizationFactor {
		return fmt.Errorf("%w: quantization factor %g not within [%g, %g]",
			ErrInvalidFilterParameter, quantization, MinQuantizationFactor, MaxQuantizationFactor)
	}
	t.filter = FilterConfig{
		Enabled:            enabled,
		SmoothingFactor:    smoothing,
		QuantizationFactor: quantization,
	}
	return nil
}

// Sensor returns the sensor name this track was registered under.
func (t *Track) Sensor() string { return t.sensor }

// Filter returns the currently active filter configuration.
func (t *Track) Filter() FilterConfig { return t.filter }

func (t *Track) snapshot() TrackSnapshot {
	axes := make([]AxisSnapshot, 0, len(t.axes))
	for _, ax := range t.axes {
		axes = append(axes, ax.snapshot())
	}
	return TrackSnapshot{Sensor: t.sensor, Axes: axes, Filter: t.filter}
}

// TrackSnapshot is a point-in-time deep copy of one track.
type TrackSnapshot struct {
	Sensor string         `json:"sensor"`
	Axes   []AxisSnapshot `json:"axes"`
	Filter FilterConfig   `json:"filter"`
}
