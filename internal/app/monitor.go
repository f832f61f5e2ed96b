package app

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/google/uuid"
	"gonum.org/v1/gonum/stat"

	"github.com/relabs-tech/motion_monitor/internal/config"
	"github.com/relabs-tech/motion_monitor/internal/motion"
	"github.com/relabs-tech/motion_monitor/internal/stream"
)

// Monitor owns the stream router and the surfaces that expose it: the
// JSON API, the chart page, the websocket push and the MQTT snapshot
// republisher. All reads go through router snapshots.
type Monitor struct {
	router       *stream.Router
	pushInterval time.Duration
}

func NewMonitor(router *stream.Router, pushInterval time.Duration) *Monitor {
	if pushInterval <= 0 {
		pushInterval = 500 * time.Millisecond
	}
	return &Monitor{router: router, pushInterval: pushInterval}
}

// ingestPayload feeds one raw MQTT payload into the router. Malformed
// payloads and samples for unregistered sensors are logged and dropped;
// the stream carries on.
func (m *Monitor) ingestPayload(topic string, payload []byte) {
	var s motion.Sample
	if err := json.Unmarshal(payload, &s); err != nil {
		log.Printf("monitor: sample unmarshal error on %s: %v", topic, err)
		return
	}
	if err := m.router.Route(s.Sensor, s.Values); err != nil {
		log.Printf("monitor: dropped sample from %s: %v", topic, err)
	}
}

func (m *Monitor) handleSample(_ mqtt.Client, msg mqtt.Message) {
	m.ingestPayload(msg.Topic(), msg.Payload())
}

// handleTracks returns snapshots of every track.
func (m *Monitor) handleTracks(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(m.router.Snapshot()); err != nil {
		log.Printf("monitor: json encode error: %v", err)
	}
}

// handleTrack returns the snapshot of a single sensor.
func (m *Monitor) handleTrack(w http.ResponseWriter, r *http.Request) {
	snap, err := m.router.TrackSnapshot(r.PathValue("sensor"))
	if err != nil {
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(snap); err != nil {
		log.Printf("monitor: json encode error: %v", err)
	}
}

// filterUpdate is the body of POST /api/tracks/{sensor}/filter.
type filterUpdate struct {
	Enabled            bool    `json:"enabled"`
	SmoothingFactor    float64 `json:"smoothing_factor"`
	QuantizationFactor float64 `json:"quantization_factor"`
}

// handleSetFilter applies a filter update to one track and returns the
// refreshed snapshot. Rejected updates leave the track untouched.
func (m *Monitor) handleSetFilter(w http.ResponseWriter, r *http.Request) {
	var upd filterUpdate
	if err := json.NewDecoder(r.Body).Decode(&upd); err != nil {
		http.Error(w, fmt.Sprintf("invalid filter update: %v", err), http.StatusBadRequest)
		return
	}

	sensor := r.PathValue("sensor")
	err := m.router.SetFilterConfig(sensor, upd.Enabled, upd.SmoothingFactor, upd.QuantizationFactor)
	switch {
	case errors.Is(err, stream.ErrUnknownSensor):
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	case errors.Is(err, stream.ErrInvalidFilterParameter):
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	case err != nil:
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	snap, err := m.router.TrackSnapshot(sensor)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(snap); err != nil {
		log.Printf("monitor: json encode error: %v", err)
	}
}

// axisStats summarizes one axis window.
type axisStats struct {
	Name      string  `json:"name"`
	Samples   int     `json:"samples"`
	Mean      float64 `json:"mean"`
	StdDev    float64 `json:"stddev"`
	PeakCount int     `json:"peak_count"`
}

type trackStats struct {
	Sensor string      `json:"sensor"`
	Axes   []axisStats `json:"axes"`
}

// handleStats reports mean and standard deviation per axis window next
// to the published peak counts.
func (m *Monitor) handleStats(w http.ResponseWriter, r *http.Request) {
	snaps := m.router.Snapshot()
	out := make([]trackStats, 0, len(snaps))
	for _, ts := range snaps {
		t := trackStats{Sensor: ts.Sensor}
		for _, ax := range ts.Axes {
			s := axisStats{Name: ax.Name, Samples: len(ax.Window), PeakCount: ax.PeakCount}
			if len(ax.Window) > 0 {
				s.Mean = stat.Mean(ax.Window, nil)
			}
			if len(ax.Window) > 1 {
				s.StdDev = stat.StdDev(ax.Window, nil)
			}
			t.Axes = append(t.Axes, s)
		}
		out = append(out, t)
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(out); err != nil {
		log.Printf("monitor: json encode error: %v", err)
	}
}

// routes builds the HTTP surface. Split out of RunMonitor so tests can
// drive the handlers without a broker.
func (m *Monitor) routes() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/tracks", m.handleTracks)
	mux.HandleFunc("GET /api/tracks/{sensor}", m.handleTrack)
	mux.HandleFunc("POST /api/tracks/{sensor}/filter", m.handleSetFilter)
	mux.HandleFunc("GET /api/stats", m.handleStats)
	mux.HandleFunc("GET /chart", m.handleChart)
	mux.HandleFunc("GET /ws", m.handleWS)
	mux.Handle("/", http.FileServer(http.Dir("web")))
	return mux
}

// RunMonitor wires the whole read side: builds the router from the
// configured sensor layout, routes every published sample into it, and
// serves the API, chart and websocket on the web port. Processed track
// snapshots are republished over MQTT for thin consumers like the
// display.
func RunMonitor() error {
	cfg := config.Get()

	defs := make([]stream.SensorDef, 0, len(cfg.Sensors))
	for _, s := range cfg.Sensors {
		defs = append(defs, stream.SensorDef{Sensor: s.Name, Axes: s.Axes})
	}
	router := stream.NewRouter(defs, stream.Params{
		SampleRateHz:  cfg.SampleRateHz,
		WindowSeconds: cfg.WindowSeconds,
		Filter: stream.FilterConfig{
			Enabled:            cfg.FilterEnabled,
			SmoothingFactor:    cfg.SmoothingFactor,
			QuantizationFactor: cfg.QuantizationFactor,
		},
	})
	m := NewMonitor(router, time.Duration(cfg.SnapshotPushInterval)*time.Millisecond)

	// --- connect to MQTT ---
	clientID := cfg.MQTTClientIDMonitor
	if clientID == "" {
		clientID = "motion-monitor"
	}
	// A random suffix lets a restarted monitor reconnect while the
	// broker still holds the old session.
	clientID = fmt.Sprintf("%s-%s", clientID, uuid.NewString()[:8])

	opts := mqtt.NewClientOptions().
		AddBroker(cfg.MQTTBroker).
		SetClientID(clientID)

	client := mqtt.NewClient(opts)
	if token := client.Connect(); token.Wait() && token.Error() != nil {
		return token.Error()
	}
	log.Printf("monitor: connected to MQTT broker at %s as %s", cfg.MQTTBroker, clientID)

	topicSamples := cfg.TopicSamples
	if topicSamples == "" {
		topicSamples = "motion/samples"
	}
	if token := client.Subscribe(topicSamples+"/#", 0, m.handleSample); token.Wait() && token.Error() != nil {
		return token.Error()
	}
	log.Printf("monitor: subscribed to %s/#", topicSamples)

	// --- republish processed snapshots ---
	topicTracks := cfg.TopicTracks
	if topicTracks == "" {
		topicTracks = "motion/tracks"
	}
	go func() {
		ticker := time.NewTicker(m.pushInterval)
		defer ticker.Stop()
		for range ticker.C {
			payload, err := json.Marshal(m.router.Snapshot())
			if err != nil {
				log.Printf("monitor: snapshot marshal error: %v", err)
				continue
			}
			// Retained so a late subscriber gets the current state at once.
			if token := client.Publish(topicTracks, 0, true, payload); token.Wait() && token.Error() != nil {
				log.Printf("monitor: snapshot publish error: %v", token.Error())
			}
		}
	}()

	// --- web server ---
	port := cfg.WebServerPort
	if port == 0 {
		port = 8080
	}
	addr := fmt.Sprintf(":%d", port)
	log.Printf("monitor: web server listening on %s", addr)
	return http.ListenAndServe(addr, m.routes())
}
