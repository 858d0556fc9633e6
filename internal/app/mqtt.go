// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package app

import (
	"encoding/json"
	"fmt"
	"log/slog"

	mqtt "github.com/eclipse/paho.mqtt.golang"
)

// Publisher is the part of mqtt.Client used for outgoing messages.
type Publisher interface {
	Publish(topic string, qos byte, retained bool, payload interface{}) mqtt.Token
}

func connectMQTT(broker, clientID string) (mqtt.Client, error) {
	opts := mqtt.NewClientOptions().
		AddBroker(broker).
		SetClientID(clientID).
		SetAutoReconnect(true)

	client := mqtt.NewClient(opts)
	if token := client.Connect(); token.Wait() && token.Error() != nil {
		return nil, fmt.Errorf("MQTT connect %s: %w", broker, token.Error())
	}
	return client, nil
}

func subscribe(client mqtt.Client, topic string, fn mqtt.MessageHandler) error {
	token := client.Subscribe(topic, 0, fn)
	token.Wait()
	if token.Error() != nil {
		return fmt.Errorf("MQTT subscribe %s: %w", topic, token.Error())
	}
	return nil
}

// publishJSON marshals v and publishes it without waiting for the broker.
func publishJSON(pub Publisher, topic string, retained bool, v any, l *slog.Logger) {
	payload, err := json.Marshal(v)
	if err != nil {
		l.Error("json marshal error", "topic", topic, "error", err)
		return
	}
	token := pub.Publish(topic, 0, retained, payload)
	go func() {
		if token.Wait() && token.Error() != nil {
			l.Warn("MQTT publish error", "topic", topic, "error", token.Error())
		}
	}()
}
