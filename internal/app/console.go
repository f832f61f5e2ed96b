package app

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/relabs-tech/motion_monitor/internal/config"
	"github.com/relabs-tech/motion_monitor/internal/motion"
	"github.com/relabs-tech/motion_monitor/internal/stream"
)

func formatValues(values []float64) string {
	parts := make([]string, 0, len(values))
	for _, v := range values {
		parts = append(parts, fmt.Sprintf("%8.3f", v))
	}
	return strings.Join(parts, " ")
}

// RunConsole subscribes to the raw sample topics and the processed track
// snapshots and prints both, one line per message. Useful for checking
// what actually travels over the broker.
func RunConsole() error {
	cfg := config.Get()

	clientID := cfg.MQTTClientIDConsole
	if clientID == "" {
		clientID = "motion-console"
	}

	opts := mqtt.NewClientOptions().
		AddBroker(cfg.MQTTBroker).
		SetClientID(clientID)

	client := mqtt.NewClient(opts)
	if token := client.Connect(); token.Wait() && token.Error() != nil {
		return token.Error()
	}
	log.Printf("console: connected to MQTT broker at %s", cfg.MQTTBroker)

	topicSamples := cfg.TopicSamples
	if topicSamples == "" {
		topicSamples = "motion/samples"
	}

	// Subscribe to raw samples
	sampleToken := client.Subscribe(topicSamples+"/#", 0, func(_ mqtt.Client, msg mqtt.Message) {
		var s motion.Sample
		if err := json.Unmarshal(msg.Payload(), &s); err != nil {
			log.Printf("console: sample unmarshal error: %v", err)
			return
		}

		fmt.Printf("[SAMP] %-14s %s\n", s.Sensor, formatValues(s.Values))
	})
	sampleToken.Wait()
	if sampleToken.Error() != nil {
		return sampleToken.Error()
	}
	log.Printf("console: subscribed to %s/#", topicSamples)

	topicTracks := cfg.TopicTracks
	if topicTracks == "" {
		topicTracks = "motion/tracks"
	}

	// Subscribe to processed track snapshots
	trackToken := client.Subscribe(topicTracks, 0, func(_ mqtt.Client, msg mqtt.Message) {
		var tracks []stream.TrackSnapshot
		if err := json.Unmarshal(msg.Payload(), &tracks); err != nil {
			log.Printf("console: tracks unmarshal error: %v", err)
			return
		}

		for _, ts := range tracks {
			for _, ax := range ts.Axes {
				last := "      --"
				if n := len(ax.Window); n > 0 {
					last = fmt.Sprintf("%8.3f", ax.Window[n-1])
				}
				fmt.Printf("[TRCK] %-14s %-8s last=%s peaks=%d window=%d\n",
					ts.Sensor, ax.Name, last, ax.PeakCount, len(ax.Window))
			}
		}
	})
	trackToken.Wait()
	if trackToken.Error() != nil {
		return trackToken.Error()
	}
	log.Printf("console: subscribed to %s", topicTracks)

	// Wait for Ctrl+C
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	log.Println("console: shutting down")
	client.Disconnect(250)
	return nil
}
