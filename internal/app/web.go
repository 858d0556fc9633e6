// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package app

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/gorilla/websocket"

	"github.com/relabs-tech/haptic_beacon/internal/config"
	"github.com/relabs-tech/haptic_beacon/internal/log"
)

// eventHistory is how many events /api/events keeps.
const eventHistory = 50

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow all origins for local development
	},
}

// WSMessage is pushed to websocket clients.
type WSMessage struct {
	Type string          `json:"type"` // status, event, error
	Data json.RawMessage `json:"data,omitempty"`
	Err  string          `json:"error,omitempty"`
}

// monitor caches the latest status and recent events from MQTT and fans
// them out to websocket clients.
type monitor struct {
	pub          Publisher
	controlTopic string
	log          *slog.Logger

	mu      sync.RWMutex
	status  json.RawMessage
	events  []json.RawMessage
	clients map[chan WSMessage]struct{}
}

func newMonitor(pub Publisher, controlTopic string) *monitor {
	return &monitor{
		pub:          pub,
		controlTopic: controlTopic,
		log:          log.With("component", "web"),
		clients:      make(map[chan WSMessage]struct{}),
	}
}

func (m *monitor) setStatus(payload []byte) {
	raw := json.RawMessage(append([]byte(nil), payload...))
	m.mu.Lock()
	m.status = raw
	m.mu.Unlock()
	m.broadcast(WSMessage{Type: "status", Data: raw})
}

func (m *monitor) addEvent(payload []byte) {
	raw := json.RawMessage(append([]byte(nil), payload...))
	m.mu.Lock()
	m.events = append(m.events, raw)
	if len(m.events) > eventHistory {
		m.events = m.events[len(m.events)-eventHistory:]
	}
	m.mu.Unlock()
	m.broadcast(WSMessage{Type: "event", Data: raw})
}

// broadcast drops messages for clients that are not keeping up.
func (m *monitor) broadcast(msg WSMessage) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for ch := range m.clients {
		select {
		case ch <- msg:
		default:
		}
	}
}

func (m *monitor) attach() chan WSMessage {
	ch := make(chan WSMessage, 32)
	m.mu.Lock()
	m.clients[ch] = struct{}{}
	m.mu.Unlock()
	return ch
}

func (m *monitor) detach(ch chan WSMessage) {
	m.mu.Lock()
	delete(m.clients, ch)
	m.mu.Unlock()
}

func (m *monitor) sendCommand(c Command) error {
	if c.Action != "start" && c.Action != "stop" {
		return fmt.Errorf("unknown action %q", c.Action)
	}
	if c.User != nil {
		if err := c.User.Validate(); err != nil {
			return err
		}
	}
	publishJSON(m.pub, m.controlTopic, false, c, m.log)
	return nil
}

func (m *monitor) handler() http.Handler {
	mux := http.NewServeMux()

	// JSON API endpoint: latest status
	mux.HandleFunc("/api/status", func(w http.ResponseWriter, r *http.Request) {
		m.mu.RLock()
		status := m.status
		m.mu.RUnlock()
		if status == nil {
			http.Error(w, "no data yet", http.StatusServiceUnavailable)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write(status)
	})

	mux.HandleFunc("/api/events", func(w http.ResponseWriter, r *http.Request) {
		m.mu.RLock()
		events := append([]json.RawMessage{}, m.events...)
		m.mu.RUnlock()
		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(events); err != nil {
			m.log.Warn("json encode error", "error", err)
		}
	})

	mux.HandleFunc("/api/session", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		var c Command
		if err := json.NewDecoder(r.Body).Decode(&c); err != nil {
			http.Error(w, "bad request: "+err.Error(), http.StatusBadRequest)
			return
		}
		if err := m.sendCommand(c); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		w.WriteHeader(http.StatusAccepted)
	})

	mux.HandleFunc("/ws", m.handleWS)

	// Static files from ./web as the root
	mux.Handle("/", http.FileServer(http.Dir("web")))
	return mux
}

// handleWS streams status and events. Clients may send commands as
// {"action": "start"} or {"action": "stop"}.
func (m *monitor) handleWS(w http.ResponseWriter, r *http.Request) {
	// attach before the handshake completes so nothing published after
	// the client connects is missed
	ch := m.attach()
	defer m.detach(ch)

	m.mu.RLock()
	status := m.status
	m.mu.RUnlock()
	if status != nil {
		ch <- WSMessage{Type: "status", Data: status}
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		m.log.Warn("websocket upgrade error", "error", err)
		return
	}
	defer conn.Close()

	// reader: commands from the client
	closed := make(chan struct{})
	go func() {
		defer close(closed)
		for {
			var c Command
			if err := conn.ReadJSON(&c); err != nil {
				return
			}
			if err := m.sendCommand(c); err != nil {
				select {
				case ch <- WSMessage{Type: "error", Err: err.Error()}:
				default:
				}
			}
		}
	}()

	for {
		select {
		case <-closed:
			return
		case msg := <-ch:
			conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
			if err := conn.WriteJSON(msg); err != nil {
				m.log.Debug("websocket write error", "error", err)
				return
			}
		}
	}
}

// RunWeb serves the monitor API on WEB_SERVER_PORT until ctx is cancelled.
func RunWeb(ctx context.Context, cfg *config.Config) error {
	l := log.With("component", "web")

	client, err := connectMQTT(cfg.MQTTBroker, cfg.MQTTClientIDWeb)
	if err != nil {
		return err
	}
	defer client.Disconnect(250)
	l.Info("connected to MQTT", "broker", cfg.MQTTBroker)

	m := newMonitor(client, cfg.TopicControl)
	if err := subscribe(client, cfg.TopicStatus, func(_ mqtt.Client, msg mqtt.Message) {
		m.setStatus(msg.Payload())
	}); err != nil {
		return err
	}
	if err := subscribe(client, cfg.TopicEvents, func(_ mqtt.Client, msg mqtt.Message) {
		m.addEvent(msg.Payload())
	}); err != nil {
		return err
	}

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.WebServerPort),
		Handler:           m.handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		srv.Shutdown(shutdownCtx)
	}()

	l.Info("web server listening", "addr", srv.Addr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
