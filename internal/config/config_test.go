package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "motion_config.txt")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

const validConfig = `# Motion monitor test configuration
MQTT_BROKER=tcp://localhost:1883
MQTT_CLIENT_ID_MONITOR=motion-monitor
TOPIC_SAMPLES=motion/samples

SENSOR_TRACKS=attitude:pitch,roll; accelerometer:x,y,z

SAMPLE_RATE_HZ=10
WINDOW_SECONDS=2.5

FILTER_ENABLED=true
SMOOTHING_FACTOR=0.9
QUANTIZATION_FACTOR=5

WEB_SERVER_PORT=8080
`

func TestLoadValidConfig(t *testing.T) {
	t.Parallel()

	cfg, err := Load(writeConfig(t, validConfig))
	require.NoError(t, err)

	assert.Equal(t, "tcp://localhost:1883", cfg.MQTTBroker)
	assert.Equal(t, "motion-monitor", cfg.MQTTClientIDMonitor)
	assert.Equal(t, "motion/samples", cfg.TopicSamples)
	assert.Equal(t, 10, cfg.SampleRateHz)
	assert.Equal(t, 2.5, cfg.WindowSeconds)
	assert.True(t, cfg.FilterEnabled)
	assert.Equal(t, 0.9, cfg.SmoothingFactor)
	assert.Equal(t, 5.0, cfg.QuantizationFactor)
	assert.Equal(t, 8080, cfg.WebServerPort)

	want := []SensorTrack{
		{Name: "attitude", Axes: []string{"pitch", "roll"}},
		{Name: "accelerometer", Axes: []string{"x", "y", "z"}},
	}
	if diff := cmp.Diff(want, cfg.Sensors); diff != "" {
		t.Errorf("sensor layout mismatch (-want +got):\n%s", diff)
	}
}

func TestLoadRejectsBrokenConfigs(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name    string
		content string
		errLike string
	}{
		{
			"missing broker",
			"SENSOR_TRACKS=a:x\nSAMPLE_RATE_HZ=10\nWINDOW_SECONDS=2\nSMOOTHING_FACTOR=0.9\nQUANTIZATION_FACTOR=1\n",
			"MQTT_BROKER is required",
		},
		{
			"missing sensor layout",
			"MQTT_BROKER=tcp://localhost:1883\nSAMPLE_RATE_HZ=10\nWINDOW_SECONDS=2\nSMOOTHING_FACTOR=0.9\nQUANTIZATION_FACTOR=1\n",
			"SENSOR_TRACKS is required",
		},
		{
			"sensor entry without axes",
			"SENSOR_TRACKS=attitude\n",
			"must be name:axis,axis",
		},
		{
			"duplicate sensor",
			"SENSOR_TRACKS=gyro:x;gyro:y\n",
			"duplicate sensor",
		},
		{
			"zero sample rate",
			"SAMPLE_RATE_HZ=0\n",
			"must be at least 1",
		},
		{
			"smoothing out of range",
			"SMOOTHING_FACTOR=0.5\n",
			"must be within [0.75, 1.0]",
		},
		{
			"quantization out of range",
			"QUANTIZATION_FACTOR=700\n",
			"must be within [1, 600]",
		},
		{
			"unknown key",
			"PEAK_MODE=fast\n",
			"unknown config key",
		},
		{
			"garbage line",
			"MQTT_BROKER tcp://localhost:1883\n",
			"invalid config line",
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tc.content))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.errLike)
		})
	}
}

func TestLoadMissingFile(t *testing.T) {
	t.Parallel()

	_, err := Load(filepath.Join(t.TempDir(), "nope.txt"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to open config file")
}
