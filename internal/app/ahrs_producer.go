package app

import (
	"bufio"
	"encoding/json"
	"fmt"
	"log"
	"strings"
	"time"

	nmea "github.com/adrianmo/go-nmea"
	mqtt "github.com/eclipse/paho.mqtt.golang"
	serial "github.com/jacobsa/go-serial/serial"

	"github.com/relabs-tech/motion_monitor/internal/config"
	"github.com/relabs-tech/motion_monitor/internal/motion"
)

// attitudeFromSentence converts one parsed NMEA sentence into an
// attitude sample. Only $PRDID (pitch, roll, heading) carries attitude;
// everything else is skipped. The vector is trimmed to the track's axis
// count so a 2-axis attitude track simply drops heading.
func attitudeFromSentence(s nmea.Sentence, sensor string, axes int) (motion.Sample, bool) {
	if s.DataType() != nmea.TypePRDID {
		return motion.Sample{}, false
	}
	m, ok := s.(nmea.PRDID)
	if !ok {
		return motion.Sample{}, false
	}

	values := []float64{m.Pitch, m.Roll, m.Heading}
	if axes > 0 && axes < len(values) {
		values = values[:axes]
	}
	return motion.Sample{
		Sensor: sensor,
		Values: values,
		Time:   time.Now().UTC().Format(time.RFC3339),
	}, true
}

// RunAHRSProducer reads NMEA attitude sentences from a serial AHRS unit
// and publishes them as vector samples for the configured attitude
// track. It is the hardware-backed counterpart of the simulated
// producer.
func RunAHRSProducer() error {
	cfg := config.Get()

	sensor := cfg.AHRSSensor
	if sensor == "" {
		sensor = "attitude"
	}

	axisCount := 0
	for _, s := range cfg.Sensors {
		if s.Name == sensor {
			axisCount = len(s.Axes)
		}
	}
	if axisCount == 0 {
		return fmt.Errorf("AHRS sensor %q is not part of SENSOR_TRACKS", sensor)
	}

	// ---- 1) Connect to MQTT broker ----
	clientID := cfg.MQTTClientIDAHRS
	if clientID == "" {
		clientID = "motion-ahrs-producer"
	}

	opts := mqtt.NewClientOptions().
		AddBroker(cfg.MQTTBroker).
		SetClientID(clientID)

	client := mqtt.NewClient(opts)
	if token := client.Connect(); token.Wait() && token.Error() != nil {
		return token.Error()
	}
	defer client.Disconnect(250)
	log.Printf("ahrs: connected to MQTT broker at %s", cfg.MQTTBroker)

	// ---- 2) Open AHRS serial port ----
	baud := cfg.AHRSBaudRate
	if baud == 0 {
		baud = 115200
	}
	serialOpts := serial.OpenOptions{
		PortName:              cfg.AHRSSerialPort,
		BaudRate:              uint(baud),
		DataBits:              8,
		StopBits:              1,
		MinimumReadSize:       1,
		ParityMode:            serial.PARITY_NONE,
		InterCharacterTimeout: 0,
	}

	port, err := serial.Open(serialOpts)
	if err != nil {
		return err
	}
	defer port.Close()
	log.Printf("ahrs: serial port opened on %s at %d baud", serialOpts.PortName, serialOpts.BaudRate)

	topicBase := cfg.TopicSamples
	if topicBase == "" {
		topicBase = "motion/samples"
	}
	topic := topicBase + "/" + sensor

	reader := bufio.NewReader(port)

	for {
		line, err := reader.ReadString('\n')
		if err != nil {
			log.Printf("ahrs: serial read error: %v", err)
			return err
		}

		line = strings.TrimSpace(line)
		if line == "" || !strings.HasPrefix(line, "$") {
			continue
		}

		sentence, err := nmea.Parse(line)
		if err != nil {
			// partial or garbled sentences are normal on a live feed
			continue
		}

		sample, ok := attitudeFromSentence(sentence, sensor, axisCount)
		if !ok {
			continue
		}

		payload, err := json.Marshal(sample)
		if err != nil {
			log.Printf("ahrs: marshal error: %v", err)
			continue
		}

		if token := client.Publish(topic, 0, false, payload); token.Wait() && token.Error() != nil {
			log.Printf("ahrs: publish error: %v", token.Error())
			continue
		}
	}
}
