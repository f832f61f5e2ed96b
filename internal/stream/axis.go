package stream

// Axis holds the bounded recent-history window of one physical axis of a
// sensor plus the peak-count state derived from it. Methods are not safe
// for concurrent use; the Router serializes all access.
type Axis struct {
	name     string
	capacity int
	cadence  int

	window        []float64
	peakCount     int
	sincePeakScan int
}

func newAxis(name string, capacity, cadence int) *Axis {
	return &Axis{
		name:     name,
		capacity: capacity,
		cadence:  cadence,
		window:   make([]float64, 0, capacity),
	}
}

// push appends v to the window, evicting the single oldest reading once
// the capacity is reached. The order of the remaining readings is
// preserved; evicted readings are gone, there is no archive.
func (a *Axis) push(v float64) {
	if len(a.window) >= a.capacity {
		a.window = a.window[:copy(a.window, a.window[1:])]
	}
	a.window = append(a.window, v)
}

// last returns the most recent reading, if any.
func (a *Axis) last() (float64, bool) {
	if len(a.window) == 0 {
		return 0, false
	}
	return a.window[len(a.window)-1], true
}

// tickPeakCadence advances the sample counter and reports whether a peak
// recount is due. It returns true exactly once every cadence calls and
// resets the counter, so the window scan runs at a fixed fraction of the
// sample rate instead of on every sample.
func (a *Axis) tickPeakCadence() bool {
	a.sincePeakScan++
	if a.sincePeakScan >= a.cadence {
		a.sincePeakScan = 0
		return true
	}
	return false
}

// recomputePeaks replaces the published peak count with a fresh scan of
// the current window contents.
func (a *Axis) recomputePeaks(quantization float64) {
	a.peakCount = CountPeaks(a.window, quantization)
}

func (a *Axis) snapshot() AxisSnapshot {
	w := make([]float64, len(a.window))
	copy(w, a.window)
	return AxisSnapshot{Name: a.name, Window: w, PeakCount: a.peakCount}
}

// AxisSnapshot is a point-in-time copy of one axis, safe to hold and read
// outside the router lock. Window is ordered oldest first.
type AxisSnapshot struct {
	Name      string    `json:"name"`
	Window    []float64 `json:"window"`
	PeakCount int       `json:"peak_count"`
}
