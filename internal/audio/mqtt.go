// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package audio

import (
	"encoding/json"
	"log/slog"
	"math"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/relabs-tech/haptic_beacon/internal/cue"
	"github.com/relabs-tech/haptic_beacon/internal/heading"
	"github.com/relabs-tech/haptic_beacon/internal/log"
)

// Publisher is the part of mqtt.Client the sink needs.
type Publisher interface {
	Publish(topic string, qos byte, retained bool, payload interface{}) mqtt.Token
}

// Control is published on the control topic when a sound starts or stops.
type Control struct {
	Player cue.PlayerID `json:"player"`
	Action string       `json:"action"` // "play" or "stop"
	Sound  *cue.Sound   `json:"sound,omitempty"`
}

// Remote drives an audio player on another host over MQTT. Volume
// updates are rounded to 0.01 and only sent when they change.
type Remote struct {
	*mixer
	pub          Publisher
	controlTopic string
	levelTopic   string
	log          *slog.Logger
}

// NewRemote publishes play/stop on controlTopic and levels on levelTopic.
func NewRemote(pub Publisher, controlTopic, levelTopic string) *Remote {
	r := &Remote{
		pub:          pub,
		controlTopic: controlTopic,
		levelTopic:   levelTopic,
		log:          log.With("component", "audio", "topic", controlTopic),
	}
	r.mixer = newMixer(r.publishLevel)
	return r
}

func (r *Remote) Play(s cue.Sound, src heading.Provider, level cue.LevelFunc) cue.PlayerID {
	id := newPlayerID()
	r.send(r.controlTopic, Control{Player: id, Action: "play", Sound: &s})
	return r.play(id, s, src, func(h heading.Heading) float64 {
		return math.Round(level(h)*100) / 100
	})
}

func (r *Remote) Stop(id cue.PlayerID) {
	if _, ok := r.stop(id); !ok {
		return
	}
	r.send(r.controlTopic, Control{Player: id, Action: "stop"})
}

// Playing returns the number of live players.
func (r *Remote) Playing() int { return r.playing() }

func (r *Remote) publishLevel(lv Level) {
	r.send(r.levelTopic, lv)
}

func (r *Remote) send(topic string, v any) {
	payload, err := json.Marshal(v)
	if err != nil {
		r.log.Error("json marshal error (audio)", "error", err)
		return
	}
	token := r.pub.Publish(topic, 0, false, payload)
	go func() {
		if token.Wait() && token.Error() != nil {
			r.log.Warn("MQTT publish error (audio)", "topic", topic, "error", token.Error())
		}
	}()
}
