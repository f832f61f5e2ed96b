// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package app

import (
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/relabs-tech/motion_monitor/internal/stream"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow all origins for local development
	},
}

// WSCommand is what the dashboard sends over the socket. The only action
// today is a per-sensor filter update; clients that never send anything
// just watch the snapshot stream.
type WSCommand struct {
	Action             string  `json:"action"` // set_filter
	Sensor             string  `json:"sensor"`
	Enabled            bool    `json:"enabled"`
	SmoothingFactor    float64 `json:"smoothing_factor"`
	QuantizationFactor float64 `json:"quantization_factor"`
}

// WSUpdate is what the monitor pushes: periodic track snapshots, or an
// error when a command was rejected.
type WSUpdate struct {
	Type    string                 `json:"type"` // snapshot, error
	Tracks  []stream.TrackSnapshot `json:"tracks,omitempty"`
	Message string                 `json:"message,omitempty"`
}

// wsClient serializes writes: snapshots and command errors come from
// different goroutines and gorilla allows only one concurrent writer.
type wsClient struct {
	conn *websocket.Conn
	mu   sync.Mutex
}

func (c *wsClient) send(v interface{}) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.conn.WriteJSON(v)
}

// handleWS upgrades the connection, pushes a snapshot every push
// interval and applies filter commands sent by the client.
func (m *Monitor) handleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("monitor: websocket upgrade error: %v", err)
		return
	}
	defer conn.Close()

	id := uuid.NewString()[:8]
	client := &wsClient{conn: conn}
	log.Printf("monitor: websocket client %s connected from %s", id, r.RemoteAddr)

	// Command loop. Exits when the peer closes the connection, which
	// also ends the push loop below via the closed channel.
	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			var cmd WSCommand
			if err := conn.ReadJSON(&cmd); err != nil {
				return
			}
			if cmd.Action != "set_filter" {
				continue
			}
			err := m.router.SetFilterConfig(cmd.Sensor, cmd.Enabled, cmd.SmoothingFactor, cmd.QuantizationFactor)
			if err != nil {
				log.Printf("monitor: websocket client %s: %v", id, err)
				if sendErr := client.send(WSUpdate{Type: "error", Message: err.Error()}); sendErr != nil {
					return
				}
			}
		}
	}()

	ticker := time.NewTicker(m.pushInterval)
	defer ticker.Stop()

	for {
		select {
		case <-done:
			log.Printf("monitor: websocket client %s disconnected", id)
			return
		case <-ticker.C:
			if err := client.send(WSUpdate{Type: "snapshot", Tracks: m.router.Snapshot()}); err != nil {
				log.Printf("monitor: websocket client %s write error: %v", id, err)
				return
			}
		}
	}
}
