// Package mqtt publishes recording progress events to an MQTT broker.
package mqtt

import (
	"context"
	"time"

	"github.com/Ridwan414/shobdotori/internal/logger"
)

// Client defines the MQTT operations the publisher needs.
type Client interface {
	// Connect attempts to connect to the MQTT broker.
	Connect(ctx context.Context) error
	// Publish sends payload to topic.
	Publish(ctx context.Context, topic string, payload []byte) error
	// IsConnected returns true if the client is currently connected.
	IsConnected() bool
	// Disconnect closes the connection to the broker.
	Disconnect()
}

// Config holds the configuration for the MQTT client.
type Config struct {
	Broker            string
	ClientID          string
	Username          string
	Password          string
	Retain            bool
	ConnectTimeout    time.Duration
	PublishTimeout    time.Duration
	DisconnectTimeout time.Duration
}

const (
	defaultConnectTimeout    = 30 * time.Second
	defaultPublishTimeout    = 10 * time.Second
	defaultDisconnectTimeout = 250 * time.Millisecond
)

// GetLogger returns the mqtt module logger.
func GetLogger() logger.Logger {
	return logger.Global().Module("mqtt")
}
