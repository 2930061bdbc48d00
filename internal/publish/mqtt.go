// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

// Package publish forwards snapshots to an MQTT broker.
package publish

import (
	"context"
	"fmt"
	"log"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
)

// PublishTimeout bounds how long one publish may wait for the broker.
const PublishTimeout = 2 * time.Second

// Connect opens an MQTT session that reconnects on its own after a drop.
func Connect(broker, clientID string) (mqtt.Client, error) {
	opts := mqtt.NewClientOptions().
		AddBroker(broker).
		SetClientID(clientID).
		SetAutoReconnect(true).
		SetConnectRetry(true).
		SetConnectRetryInterval(5 * time.Second).
		SetConnectionLostHandler(func(_ mqtt.Client, err error) {
			log.Printf("mqtt: connection lost: %v", err)
		})

	client := mqtt.NewClient(opts)
	token := client.Connect()
	if !token.WaitTimeout(10 * time.Second) {
		log.Printf("mqtt: broker %s not reachable yet, retrying in background", broker)
		return client, nil
	}
	if err := token.Error(); err != nil {
		return nil, fmt.Errorf("mqtt connect %s: %w", broker, err)
	}
	log.Printf("mqtt: connected to %s", broker)
	return client, nil
}

// Client is the part of mqtt.Client the publisher needs.
type Client interface {
	Publish(topic string, qos byte, retained bool, payload interface{}) mqtt.Token
}

// Publisher sends each payload as a retained message on one topic. Publish
// hands the payload to a background goroutine and never blocks; when the
// broker falls behind, older pending payloads are dropped.
type Publisher struct {
	client Client
	topic  string
	queue  chan []byte
}

// NewPublisher creates a publisher; call Run to start delivery.
func NewPublisher(client Client, topic string) *Publisher {
	return &Publisher{
		client: client,
		topic:  topic,
		queue:  make(chan []byte, 1),
	}
}

// Publish queues payload, replacing one that has not been sent yet.
func (p *Publisher) Publish(payload []byte) {
	for {
		select {
		case p.queue <- payload:
			return
		default:
		}
		select {
		case <-p.queue:
		default:
		}
	}
}

// Run delivers queued payloads until ctx is cancelled.
func (p *Publisher) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case payload := <-p.queue:
			token := p.client.Publish(p.topic, 0, true, payload)
			if !token.WaitTimeout(PublishTimeout) {
				log.Printf("mqtt: publish to %s timed out", p.topic)
				continue
			}
			if err := token.Error(); err != nil {
				log.Printf("mqtt: publish error (%s): %v", p.topic, err)
			}
		}
	}
}
