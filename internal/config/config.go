package config

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"
	"sync"
)

// SensorTrack describes one configured sensor and its ordered axes.
type SensorTrack struct {
	Name string
	Axes []string
}

// Config holds all application configuration values.
type Config struct {
	// MQTT
	MQTTBroker           string
	MQTTClientIDProducer string
	MQTTClientIDAHRS     string
	MQTTClientIDConsole  string
	MQTTClientIDMonitor  string
	MQTTClientIDDisplay  string

	// Topics
	// Samples are published under TopicSamples + "/" + sensor name. The
	// monitor republishes processed track snapshots on TopicTracks for
	// thin consumers like the display.
	TopicSamples string
	TopicTracks  string

	// Sensor layout, parsed from SENSOR_TRACKS. Format:
	//   name:axis,axis[;name:axis,axis]...
	// e.g. attitude:pitch,roll;accelerometer:x,y,z
	Sensors []SensorTrack

	// Sampling
	SampleRateHz  int     // shared nominal producer rate
	WindowSeconds float64 // span of the per-axis history window

	// Filter defaults applied to every track at startup. The monitor API
	// can change them per sensor at runtime.
	FilterEnabled      bool
	SmoothingFactor    float64 // [0.75, 1.0]
	QuantizationFactor float64 // [1, 600]

	// Web Server
	WebServerPort        int
	SnapshotPushInterval int // milliseconds, websocket and MQTT snapshot push period

	// Display
	DisplayI2CBus         string // empty selects the first available bus
	DisplayUpdateInterval int    // milliseconds

	// AHRS serial unit
	AHRSSensor     string // which configured track receives attitude samples
	AHRSSerialPort string
	AHRSBaudRate   int
}

// Package-level unexported variables for singleton pattern:
//   - globalConfig: unexported (lowercase) so other packages cannot access it directly.
//     This enforces encapsulation and prevents external code from modifying config without proper locking.
//   - configOnce: ensures InitGlobal() only runs once, even if called multiple times.
//   - configMu: RWMutex protects concurrent access. Write lock (Lock) for initialization,
//     read lock (RLock) for Get() allows multiple concurrent readers without blocking each other.
//
// External code must use InitGlobal() to set and Get() to read, ensuring thread safety.
var (
	globalConfig *Config
	configOnce   sync.Once
	configMu     sync.RWMutex
)

// Load reads the configuration file and returns a Config struct.
func Load(configPath string) (*Config, error) {
	file, err := os.Open(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open config file: %w", err)
	}
	defer file.Close()

	cfg := &Config{}
	scanner := bufio.NewScanner(file)
	lineNum := 0

	for scanner.Scan() {
		lineNum++
		line := strings.TrimSpace(scanner.Text())

		// Skip empty lines and comments
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		// Parse KEY=VALUE
		parts := strings.SplitN(line, "=", 2)
		if len(parts) != 2 {
			return nil, fmt.Errorf("invalid config line %d: %q", lineNum, line)
		}

		key := strings.TrimSpace(parts[0])
		value := strings.TrimSpace(parts[1])

		if err := cfg.setValue(key, value); err != nil {
			return nil, fmt.Errorf("config line %d: %w", lineNum, err)
		}
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("error reading config file: %w", err)
	}

	// Validate required fields
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// setValue sets a config value based on the key.
func (c *Config) setValue(key, value string) error {
	switch key {
	// MQTT
	case "MQTT_BROKER":
		c.MQTTBroker = value
	case "MQTT_CLIENT_ID_PRODUCER":
		c.MQTTClientIDProducer = value
	case "MQTT_CLIENT_ID_AHRS":
		c.MQTTClientIDAHRS = value
	case "MQTT_CLIENT_ID_CONSOLE":
		c.MQTTClientIDConsole = value
	case "MQTT_CLIENT_ID_MONITOR":
		c.MQTTClientIDMonitor = value
	case "MQTT_CLIENT_ID_DISPLAY":
		c.MQTTClientIDDisplay = value

	// Topics
	case "TOPIC_SAMPLES":
		c.TopicSamples = value
	case "TOPIC_TRACKS":
		c.TopicTracks = value

	// Sensor layout
	case "SENSOR_TRACKS":
		tracks, err := parseSensorTracks(value)
		if err != nil {
			return fmt.Errorf("invalid SENSOR_TRACKS: %w", err)
		}
		c.Sensors = tracks

	// Sampling
	case "SAMPLE_RATE_HZ":
		rate, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid SAMPLE_RATE_HZ %q: %w", value, err)
		}
		if rate < 1 {
			return fmt.Errorf("SAMPLE_RATE_HZ must be at least 1, got %d", rate)
		}
		c.SampleRateHz = rate
	case "WINDOW_SECONDS":
		seconds, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return fmt.Errorf("invalid WINDOW_SECONDS %q: %w", value, err)
		}
		if seconds <= 0 {
			return fmt.Errorf("WINDOW_SECONDS must be positive, got %g", seconds)
		}
		c.WindowSeconds = seconds

	// Filter defaults
	case "FILTER_ENABLED":
		enabled, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("invalid FILTER_ENABLED %q: %w", value, err)
		}
		c.FilterEnabled = enabled
	case "SMOOTHING_FACTOR":
		factor, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return fmt.Errorf("invalid SMOOTHING_FACTOR %q: %w", value, err)
		}
		if factor < 0.75 || factor > 1.0 {
			return fmt.Errorf("SMOOTHING_FACTOR must be within [0.75, 1.0], got %g", factor)
		}
		c.SmoothingFactor = factor
	case "QUANTIZATION_FACTOR":
		factor, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return fmt.Errorf("invalid QUANTIZATION_FACTOR %q: %w", value, err)
		}
		if factor < 1 || factor > 600 {
			return fmt.Errorf("QUANTIZATION_FACTOR must be within [1, 600], got %g", factor)
		}
		c.QuantizationFactor = factor

	// Web Server
	case "WEB_SERVER_PORT":
		port, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid WEB_SERVER_PORT %q: %w", value, err)
		}
		c.WebServerPort = port
	case "SNAPSHOT_PUSH_INTERVAL":
		interval, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid SNAPSHOT_PUSH_INTERVAL %q: %w", value, err)
		}
		c.SnapshotPushInterval = interval

	// Display
	case "DISPLAY_I2C_BUS":
		c.DisplayI2CBus = value
	case "DISPLAY_UPDATE_INTERVAL":
		interval, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid DISPLAY_UPDATE_INTERVAL %q: %w", value, err)
		}
		c.DisplayUpdateInterval = interval

	// AHRS
	case "AHRS_SENSOR":
		c.AHRSSensor = value
	case "AHRS_SERIAL_PORT":
		c.AHRSSerialPort = value
	case "AHRS_BAUD_RATE":
		rate, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid AHRS_BAUD_RATE %q: %w", value, err)
		}
		c.AHRSBaudRate = rate

	default:
		return fmt.Errorf("unknown config key: %q", key)
	}

	return nil
}

// parseSensorTracks parses the SENSOR_TRACKS value. Sensors are separated
// by ";", each one is "name:axis,axis". Names must be unique and every
// sensor needs at least one axis.
func parseSensorTracks(value string) ([]SensorTrack, error) {
	var tracks []SensorTrack
	seen := make(map[string]bool)

	for _, entry := range strings.Split(value, ";") {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}

		parts := strings.SplitN(entry, ":", 2)
		if len(parts) != 2 {
			return nil, fmt.Errorf("sensor entry %q must be name:axis,axis", entry)
		}
		name := strings.TrimSpace(parts[0])
		if name == "" {
			return nil, fmt.Errorf("sensor entry %q has an empty name", entry)
		}
		if seen[name] {
			return nil, fmt.Errorf("duplicate sensor %q", name)
		}
		seen[name] = true

		var axes []string
		for _, axis := range strings.Split(parts[1], ",") {
			axis = strings.TrimSpace(axis)
			if axis == "" {
				return nil, fmt.Errorf("sensor %q has an empty axis name", name)
			}
			axes = append(axes, axis)
		}

		tracks = append(tracks, SensorTrack{Name: name, Axes: axes})
	}

	if len(tracks) == 0 {
		return nil, fmt.Errorf("no sensors defined")
	}
	return tracks, nil
}

// validate checks that all required fields are set.
func (c *Config) validate() error {
	if c.MQTTBroker == "" {
		return fmt.Errorf("MQTT_BROKER is required")
	}
	if len(c.Sensors) == 0 {
		return fmt.Errorf("SENSOR_TRACKS is required")
	}
	if c.SampleRateHz == 0 {
		return fmt.Errorf("SAMPLE_RATE_HZ is required")
	}
	if c.WindowSeconds == 0 {
		return fmt.Errorf("WINDOW_SECONDS is required")
	}
	if c.SmoothingFactor == 0 {
		return fmt.Errorf("SMOOTHING_FACTOR is required")
	}
	if c.QuantizationFactor == 0 {
		return fmt.Errorf("QUANTIZATION_FACTOR is required")
	}
	return nil
}

// InitGlobal initializes the global configuration from file.
// Uses sync.Once to ensure this only runs once, even if called multiple times.
// Acquires write lock (configMu.Lock) during initialization to prevent concurrent access.
// This is the only function that can set globalConfig.
func InitGlobal(configPath string) error {
	var err error
	configOnce.Do(func() {
		configMu.Lock()
		defer configMu.Unlock()
		globalConfig, err = Load(configPath)
	})
	return err
}

// Get returns the global configuration instance.
// InitGlobal must be called first, or this will return nil.
// Uses read lock (configMu.RLock) to allow multiple concurrent readers without blocking.
// This is thread-safe and efficient for concurrent access across goroutines.
func Get() *Config {
	configMu.RLock()
	defer configMu.RUnlock()
	return globalConfig
}
