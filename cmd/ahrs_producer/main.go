package main

import (
	"log"

	"github.com/relabs-tech/motion_monitor/internal/app"
	"github.com/relabs-tech/motion_monitor/internal/config"
)

func main() {
	log.Println("starting motion-monitor AHRS producer (NMEA → MQTT)")

	// Load configuration
	if err := config.InitGlobal("motion_config.txt"); err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	if err := app.RunAHRSProducer(); err != nil {
		log.Fatalf("fatal: %v", err)
	}
}
