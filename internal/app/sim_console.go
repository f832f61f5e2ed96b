// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package app

import (
	"fmt"
	"time"

	"github.com/relabs-tech/motion_monitor/internal/config"
	"github.com/relabs-tech/motion_monitor/internal/motion"
)

// RunSimConsole prints simulated samples for every configured sensor
// without touching the broker. Quick smoke check for the generator and
// the sensor layout.
func RunSimConsole() error {
	cfg := config.Get()

	sources := make([]motion.Source, 0, len(cfg.Sensors))
	for _, s := range cfg.Sensors {
		sources = append(sources, motion.NewSimSource(s.Name, len(s.Axes)))
	}

	ticker := time.NewTicker(time.Second / time.Duration(cfg.SampleRateHz))
	defer ticker.Stop()

	for range ticker.C {
		for _, src := range sources {
			sample, err := src.Next()
			if err != nil {
				return err
			}

			fmt.Printf("%-14s %s\n", sample.Sensor, formatValues(sample.Values))
		}
	}
	return nil
}
