package app

import (
	"encoding/json"
	"log"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/relabs-tech/motion_monitor/internal/config"
	"github.com/relabs-tech/motion_monitor/internal/motion"
)

// RunMotionProducer publishes simulated vector samples for every
// configured sensor at the shared sample rate, one topic per sensor. It
// stands in for real acquisition hardware; the monitor cannot tell the
// difference.
func RunMotionProducer() error {
	log.Println("starting motion sample producer")

	cfg := config.Get()

	clientID := cfg.MQTTClientIDProducer
	if clientID == "" {
		clientID = "motion-producer"
	}

	// --- connect to MQTT ---
	opts := mqtt.NewClientOptions().
		AddBroker(cfg.MQTTBroker).
		SetClientID(clientID)

	client := mqtt.NewClient(opts)
	if token := client.Connect(); token.Wait() && token.Error() != nil {
		return token.Error()
	}
	defer client.Disconnect(250)
	log.Printf("producer: connected to MQTT broker at %s", cfg.MQTTBroker)

	topicBase := cfg.TopicSamples
	if topicBase == "" {
		topicBase = "motion/samples"
	}

	// One simulated source per configured sensor, published under the
	// sensor's own subtopic.
	sources := make([]motion.Source, 0, len(cfg.Sensors))
	topics := make([]string, 0, len(cfg.Sensors))
	for _, s := range cfg.Sensors {
		sources = append(sources, motion.NewSimSource(s.Name, len(s.Axes)))
		topics = append(topics, topicBase+"/"+s.Name)
		log.Printf("producer: %s (%d axes) -> %s", s.Name, len(s.Axes), topicBase+"/"+s.Name)
	}

	interval := time.Second / time.Duration(cfg.SampleRateHz)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	log.Printf("producer: publishing %d sensors every %v", len(sources), interval)

	published := 0
	for range ticker.C {
		for i, src := range sources {
			sample, err := src.Next()
			if err != nil {
				log.Printf("producer: %s source error: %v", cfg.Sensors[i].Name, err)
				continue
			}

			payload, err := json.Marshal(sample)
			if err != nil {
				log.Printf("producer: %s marshal error: %v", cfg.Sensors[i].Name, err)
				continue
			}

			if token := client.Publish(topics[i], 0, false, payload); token.Wait() && token.Error() != nil {
				log.Printf("producer: %s publish error: %v", cfg.Sensors[i].Name, token.Error())
				continue
			}
		}

		published++
		if published%(cfg.SampleRateHz*10) == 0 {
			log.Printf("producer: %d ticks published", published)
		}
	}
	return nil
}
