package app

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/relabs-tech/motion_monitor/internal/motion"
	"github.com/relabs-tech/motion_monitor/internal/stream"
)

func newTestMonitor(t *testing.T) *Monitor {
	t.Helper()
	router := stream.NewRouter(
		[]stream.SensorDef{
			{Sensor: "attitude", Axes: []string{"pitch", "roll"}},
			{Sensor: "accelerometer", Axes: []string{"x", "y", "z"}},
		},
		stream.Params{
			SampleRateHz:  10,
			WindowSeconds: 1,
			Filter:        stream.FilterConfig{Enabled: false, SmoothingFactor: 0.9, QuantizationFactor: 1},
		},
	)
	return NewMonitor(router, 100*time.Millisecond)
}

func ingestSample(t *testing.T, m *Monitor, sensor string, values []float64) {
	t.Helper()
	payload, err := json.Marshal(motion.Sample{Sensor: sensor, Values: values})
	require.NoError(t, err)
	m.ingestPayload("motion/samples/"+sensor, payload)
}

func TestMonitorTracksEndpoint(t *testing.T) {
	t.Parallel()

	m := newTestMonitor(t)
	ingestSample(t, m, "attitude", []float64{1.5, -2.5})
	ingestSample(t, m, "accelerometer", []float64{0.1, 0.2, 0.3})

	srv := httptest.NewServer(m.routes())
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/api/tracks")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "application/json", resp.Header.Get("Content-Type"))

	var tracks []stream.TrackSnapshot
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&tracks))
	require.Len(t, tracks, 2)

	assert.Equal(t, "attitude", tracks[0].Sensor)
	if diff := cmp.Diff([]float64{1.5}, tracks[0].Axes[0].Window); diff != "" {
		t.Errorf("pitch window mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]float64{0.3}, tracks[1].Axes[2].Window); diff != "" {
		t.Errorf("accelerometer z window mismatch (-want +got):\n%s", diff)
	}
}

func TestMonitorSingleTrackEndpoint(t *testing.T) {
	t.Parallel()

	m := newTestMonitor(t)
	ingestSample(t, m, "attitude", []float64{3, 4})

	srv := httptest.NewServer(m.routes())
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/api/tracks/attitude")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var snap stream.TrackSnapshot
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&snap))
	assert.Equal(t, "attitude", snap.Sensor)
	require.Len(t, snap.Axes, 2)
	assert.Equal(t, "roll", snap.Axes[1].Name)

	missing, err := http.Get(srv.URL + "/api/tracks/thermometer")
	require.NoError(t, err)
	defer missing.Body.Close()
	assert.Equal(t, http.StatusNotFound, missing.StatusCode)
}

func postFilter(t *testing.T, url string, body string) *http.Response {
	t.Helper()
	resp, err := http.Post(url, "application/json", bytes.NewReader([]byte(body)))
	require.NoError(t, err)
	return resp
}

func TestMonitorFilterEndpoint(t *testing.T) {
	t.Parallel()

	m := newTestMonitor(t)
	srv := httptest.NewServer(m.routes())
	defer srv.Close()

	url := srv.URL + "/api/tracks/attitude/filter"

	// Out-of-range smoothing is rejected and the old config survives.
	resp := postFilter(t, url, `{"enabled":true,"smoothing_factor":0.5,"quantization_factor":10}`)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	check, err := http.Get(srv.URL + "/api/tracks/attitude")
	require.NoError(t, err)
	defer check.Body.Close()
	var snap stream.TrackSnapshot
	require.NoError(t, json.NewDecoder(check.Body).Decode(&snap))
	assert.Equal(t, stream.FilterConfig{Enabled: false, SmoothingFactor: 0.9, QuantizationFactor: 1}, snap.Filter)

	// A valid update is applied and echoed back.
	resp = postFilter(t, url, `{"enabled":true,"smoothing_factor":0.8,"quantization_factor":25}`)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var updated stream.TrackSnapshot
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&updated))
	assert.Equal(t, stream.FilterConfig{Enabled: true, SmoothingFactor: 0.8, QuantizationFactor: 25}, updated.Filter)

	// Unknown sensors 404, malformed bodies 400.
	resp = postFilter(t, srv.URL+"/api/tracks/thermometer/filter", `{"enabled":true,"smoothing_factor":0.8,"quantization_factor":25}`)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp = postFilter(t, url, `{"enabled":`)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestMonitorStatsEndpoint(t *testing.T) {
	t.Parallel()

	m := newTestMonitor(t)
	for _, v := range []float64{1, 2, 3, 4} {
		ingestSample(t, m, "attitude", []float64{v, 0})
	}

	srv := httptest.NewServer(m.routes())
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/api/stats")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var stats []struct {
		Sensor string `json:"sensor"`
		Axes   []struct {
			Name      string  `json:"name"`
			Samples   int     `json:"samples"`
			Mean      float64 `json:"mean"`
			StdDev    float64 `json:"stddev"`
			PeakCount int     `json:"peak_count"`
		} `json:"axes"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&stats))
	require.Len(t, stats, 2)

	pitch := stats[0].Axes[0]
	assert.Equal(t, "pitch", pitch.Name)
	assert.Equal(t, 4, pitch.Samples)
	assert.InDelta(t, 2.5, pitch.Mean, 1e-9)
	// Sample standard deviation of 1..4.
	assert.InDelta(t, 1.2909944487, pitch.StdDev, 1e-6)
}

func TestMonitorChartEndpoint(t *testing.T) {
	t.Parallel()

	m := newTestMonitor(t)
	ingestSample(t, m, "accelerometer", []float64{1, 2, 3})

	srv := httptest.NewServer(m.routes())
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/chart")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, resp.Header.Get("Content-Type"), "text/html")

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.True(t, strings.Contains(string(body), "accelerometer"), "chart page names the sensor")
}

func TestMonitorIngestPayloadDropsBadData(t *testing.T) {
	t.Parallel()

	m := newTestMonitor(t)

	m.ingestPayload("motion/samples/attitude", []byte("{not json"))
	m.ingestPayload("motion/samples/attitude", nil)

	// Unknown sensor and wrong shape are dropped without mutation.
	payload, err := json.Marshal(motion.Sample{Sensor: "thermometer", Values: []float64{20}})
	require.NoError(t, err)
	m.ingestPayload("motion/samples/thermometer", payload)

	payload, err = json.Marshal(motion.Sample{Sensor: "attitude", Values: []float64{1, 2, 3}})
	require.NoError(t, err)
	m.ingestPayload("motion/samples/attitude", payload)

	for _, ts := range m.router.Snapshot() {
		for _, ax := range ts.Axes {
			assert.Empty(t, ax.Window, fmt.Sprintf("track %s axis %s", ts.Sensor, ax.Name))
		}
	}
}
