package mqtt

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/Ridwan414/shobdotori/internal/events"
)

// Publisher is an events.Consumer that forwards progress events as JSON
// to <topic>/<dialect>.
type Publisher struct {
	client  Client
	topic   string
	timeout time.Duration
}

// NewPublisher creates a publisher over client. topic defaults to "shobdotori".
func NewPublisher(client Client, topic string) *Publisher {
	topic = strings.TrimSuffix(topic, "/")
	if topic == "" {
		topic = "shobdotori"
	}
	return &Publisher{client: client, topic: topic, timeout: defaultPublishTimeout}
}

// Name implements events.Consumer.
func (p *Publisher) Name() string { return "mqtt" }

// Topic returns the topic event is published to.
func (p *Publisher) Topic(event events.ProgressEvent) string {
	if event.Dialect == "" {
		return p.topic
	}
	return p.topic + "/" + event.Dialect
}

// ProcessEvent implements events.Consumer.
func (p *Publisher) ProcessEvent(event events.ProgressEvent) error {
	if !p.client.IsConnected() {
		return fmt.Errorf("mqtt: not connected, dropping %s event", event.Type)
	}
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("mqtt: encode event: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), p.timeout)
	defer cancel()
	return p.client.Publish(ctx, p.Topic(event), payload)
}
