// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package haptics

import (
	"encoding/json"
	"log/slog"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/relabs-tech/haptic_beacon/internal/cue"
	"github.com/relabs-tech/haptic_beacon/internal/log"
)

// Publisher is the part of mqtt.Client the sinks need.
type Publisher interface {
	Publish(topic string, qos byte, retained bool, payload interface{}) mqtt.Token
}

// Remote publishes each trigger as a JSON cue.Request, for wearables that
// render haptics themselves.
type Remote struct {
	pub   Publisher
	topic string
	now   func() time.Time
	log   *slog.Logger
}

// NewRemote publishes to topic through pub.
func NewRemote(pub Publisher, topic string) *Remote {
	return &Remote{
		pub:   pub,
		topic: topic,
		now:   time.Now,
		log:   log.With("component", "haptics", "topic", topic),
	}
}

func (r *Remote) Trigger(k cue.Kind) {
	payload, err := json.Marshal(cue.Request{Kind: k, Time: r.now()})
	if err != nil {
		r.log.Error("json marshal error (haptic)", "error", err)
		return
	}
	token := r.pub.Publish(r.topic, 0, false, payload)
	go func() {
		if token.Wait() && token.Error() != nil {
			r.log.Warn("MQTT publish error (haptic)", "error", token.Error())
		}
	}()
}

func (r *Remote) Prepare(cue.Kind) {}
