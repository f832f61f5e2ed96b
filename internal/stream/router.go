package stream

import (
	"errors"
	"fmt"
	"math"
	"sync"
)

// ErrUnknownSensor is returned for samples or configuration updates
// addressed to a sensor that was not registered at startup. It points at
// a wiring error on the acquisition side and never mutates any state.
var ErrUnknownSensor = errors.New("unknown sensor")

// SensorDef declares one sensor and its ordered axis names. The defs
// passed to NewRouter are the single place the sensor layout lives; the
// ingestion path indexes sample components by the same axis order.
type SensorDef struct {
	Sensor string
	Axes   []string
}

// Params fixes the window geometry shared by every track. The per-axis
// capacity is round(SampleRateHz*WindowSeconds) and the peak recount
// cadence is one recount per second's worth of samples.
type Params struct {
	SampleRateHz  int
	WindowSeconds float64
	Filter        FilterConfig
}

// Router owns every sensor track and is the single entry point for both
// sample ingestion and configuration updates. One mutex serializes all
// writers (the MQTT client delivers samples on its own goroutines, filter
// updates arrive from HTTP and websocket handlers), which keeps the
// append-evict and tick-recount sequences atomic per axis. Readers never
// see live buffers: Snapshot and TrackSnapshot hand out deep copies.
type Router struct {
	mu     sync.Mutex
	order  []string
	tracks map[string]*Track
}

// NewRouter builds one track per definition. The track set is fixed for
// the router's lifetime; nothing is added or removed afterwards.
func NewRouter(defs []SensorDef, p Params) *Router {
	capacity := int(math.Round(float64(p.SampleRateHz) * p.WindowSeconds))
	cadence := p.SampleRateHz
	r := &Router{tracks: make(map[string]*Track, len(defs))}
	for _, d := range defs {
		r.order = append(r.order, d.Sensor)
		r.tracks[d.Sensor] = NewTrack(d.Sensor, d.Axes, capacity, cadence, p.Filter)
	}
	return r
}

// Route forwards one vector sample to the track registered for sensor.
// Unknown sensors and shape mismatches are reported without touching any
// track.
func (r *Router) Route(sensor string, values []float64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.tracks[sensor]
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownSensor, sensor)
	}
	return t.Ingest(values)
}

// SetFilterConfig updates the filter settings of one track.
func (r *Router) SetFilterConfig(sensor string, enabled bool, smoothing, quantization float64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.tracks[sensor]
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownSensor, sensor)
	}
	return t.SetFilterConfig(enabled, smoothing, quantization)
}

// Snapshot deep-copies every track in registration order.
func (r *Router) Snapshot() []TrackSnapshot {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]TrackSnapshot, 0, len(r.order))
	for _, sensor := range r.order {
		out = append(out, r.tracks[sensor].snapshot())
	}
	return out
}

// TrackSnapshot deep-copies the single named track.
func (r *Router) TrackSnapshot(sensor string) (TrackSnapshot, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.tracks[sensor]
	if !ok {
		return TrackSnapshot{}, fmt.Errorf("%w: %q", ErrUnknownSensor, sensor)
	}
	return t.snapshot(), nil
}

// Sensors returns the registered sensor names in registration order.
func (r *Router) Sensors() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, len(r.order))
	copy(out, r.order)
	return out
}
