// Package motion defines the sample payload exchanged between producers
// and the monitor, and the sources that generate it.
package motion

// Sample is one tagged vector reading from a sensor source. Values are
// ordered by the sensor's configured axis layout; a 3-axis accelerometer
// publishes [x, y, z] on every sample.
type Sample struct {
	Sensor string    `json:"sensor"`         // e.g. "accelerometer"
	Values []float64 `json:"values"`         // one component per axis
	Time   string    `json:"time,omitempty"` // RFC3339, producer clock
}

// Source is anything that can produce samples over time: the simulated
// generator, or a serial attitude unit.
type Source interface {
	Next() (Sample, error)
}
