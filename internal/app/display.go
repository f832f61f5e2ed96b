package app

import (
	"encoding/json"
	"fmt"
	"image"
	"log"
	"sync"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
	"periph.io/x/conn/v3/i2c/i2creg"
	"periph.io/x/devices/v3/ssd1306"
	"periph.io/x/devices/v3/ssd1306/image1bit"
	"periph.io/x/host/v3"

	"github.com/relabs-tech/motion_monitor/internal/config"
	"github.com/relabs-tech/motion_monitor/internal/stream"
)

// displayData holds the latest processed snapshots for rendering
type displayData struct {
	mu         sync.RWMutex
	tracks     []stream.TrackSnapshot
	haveTracks bool
}

// RunDisplay renders peak counts and latest readings on a 128x64 SSD1306
// panel, cycling through the configured sensors one page per update
// interval. It feeds off the monitor's processed snapshot topic, so it
// never computes anything itself.
func RunDisplay() error {
	cfg := config.Get()

	// Initialize periph
	if _, err := host.Init(); err != nil {
		return fmt.Errorf("failed to initialize periph: %w", err)
	}

	// Open I2C bus
	bus, err := i2creg.Open(cfg.DisplayI2CBus)
	if err != nil {
		return fmt.Errorf("failed to open I2C bus: %w", err)
	}
	defer bus.Close()

	dev, err := ssd1306.NewI2C(bus, &ssd1306.DefaultOpts)
	if err != nil {
		return fmt.Errorf("failed to initialize display: %w", err)
	}
	log.Println("display: panel initialized")

	if err := showSplash(dev); err != nil {
		log.Printf("display: error showing splash: %v", err)
	}

	// Data storage
	data := &displayData{}

	// Connect to MQTT
	clientID := cfg.MQTTClientIDDisplay
	if clientID == "" {
		clientID = "motion-display"
	}

	opts := mqtt.NewClientOptions().
		AddBroker(cfg.MQTTBroker).
		SetClientID(clientID)

	client := mqtt.NewClient(opts)
	if token := client.Connect(); token.Wait() && token.Error() != nil {
		return token.Error()
	}
	log.Printf("display: connected to MQTT broker at %s", cfg.MQTTBroker)

	topicTracks := cfg.TopicTracks
	if topicTracks == "" {
		topicTracks = "motion/tracks"
	}

	token := client.Subscribe(topicTracks, 0, func(_ mqtt.Client, msg mqtt.Message) {
		var tracks []stream.TrackSnapshot
		if err := json.Unmarshal(msg.Payload(), &tracks); err != nil {
			log.Printf("display: tracks unmarshal error: %v", err)
			return
		}
		data.mu.Lock()
		data.tracks = tracks
		data.haveTracks = true
		data.mu.Unlock()
	})
	token.Wait()
	if token.Error() != nil {
		return token.Error()
	}
	log.Printf("display: subscribed to %s", topicTracks)

	// Display update loop
	interval := cfg.DisplayUpdateInterval
	if interval <= 0 {
		interval = 1000
	}
	ticker := time.NewTicker(time.Duration(interval) * time.Millisecond)
	defer ticker.Stop()

	log.Println("display: starting update loop")

	page := 0
	for range ticker.C {
		data.mu.RLock()
		tracks := data.tracks
		haveTracks := data.haveTracks
		data.mu.RUnlock()

		if !haveTracks || len(tracks) == 0 {
			if err := showWaiting(dev); err != nil {
				log.Printf("display: error updating display: %v", err)
			}
			continue
		}

		page = (page + 1) % len(tracks)
		if err := updateTrackDisplay(dev, tracks[page]); err != nil {
			log.Printf("display: error updating display: %v", err)
		}
	}

	return nil
}

func updateTrackDisplay(dev *ssd1306.Dev, ts stream.TrackSnapshot) error {
	img := image1bit.NewVerticalLSB(image.Rect(0, 0, 128, 64))

	// Blank image
	for i := 0; i < 1024; i++ {
		img.Pix[i] = 0
	}

	drawer := &font.Drawer{
		Dst:  img,
		Src:  &image.Uniform{image1bit.On},
		Face: basicfont.Face7x13,
	}

	drawer.Dot = fixed.P(0, 13)
	drawer.DrawBytes([]byte(ts.Sensor))

	// Three text rows below the title; further axes do not fit.
	rows := []int{26, 39, 52}
	for i, ax := range ts.Axes {
		if i >= len(rows) {
			break
		}
		last := 0.0
		if n := len(ax.Window); n > 0 {
			last = ax.Window[n-1]
		}
		drawer.Dot = fixed.P(0, rows[i])
		drawer.DrawBytes([]byte(fmt.Sprintf("%-5.5s %6.1f p%3d", ax.Name, last, ax.PeakCount)))
	}

	return dev.Draw(dev.Bounds(), img, image.Point{})
}

func showWaiting(dev *ssd1306.Dev) error {
	img := image1bit.NewVerticalLSB(image.Rect(0, 0, 128, 64))

	// Blank image
	for i := 0; i < 1024; i++ {
		img.Pix[i] = 0
	}

	drawer := &font.Drawer{
		Dst:  img,
		Src:  &image.Uniform{image1bit.On},
		Face: basicfont.Face7x13,
	}

	drawer.Dot = fixed.P(0, 26)
	drawer.DrawBytes([]byte("Tracks"))
	drawer.Dot = fixed.P(0, 39)
	drawer.DrawBytes([]byte("Waiting..."))

	return dev.Draw(dev.Bounds(), img, image.Point{})
}

func showSplash(dev *ssd1306.Dev) error {
	img := image1bit.NewVerticalLSB(image.Rect(0, 0, 128, 64))

	// Blank image
	for i := 0; i < 1024; i++ {
		img.Pix[i] = 0
	}

	drawer := &font.Drawer{
		Dst:  img,
		Src:  &image.Uniform{image1bit.On},
		Face: basicfont.Face7x13,
	}

	drawer.Dot = fixed.P(10, 26)
	drawer.DrawBytes([]byte("Motion"))

	drawer.Dot = fixed.P(10, 43)
	drawer.DrawBytes([]byte("Monitor"))

	return dev.Draw(dev.Bounds(), img, image.Point{})
}
