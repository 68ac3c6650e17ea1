package mqtt

import (
	"context"
	"fmt"
	"net"
	"net/url"
	"sync"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"

	"github.com/Ridwan414/shobdotori/internal/conf"
	"github.com/Ridwan414/shobdotori/internal/errors"
	"github.com/Ridwan414/shobdotori/internal/logger"
)

// client implements Client with paho. Reconnects are left to paho's auto-reconnect.
type client struct {
	config Config
	mu     sync.Mutex
	paho   paho.Client
	log    logger.Logger
}

// NewClient creates a client from settings.
func NewClient(settings *conf.MQTTSettings) (Client, error) {
	if settings.Broker == "" {
		return nil, errors.Newf("mqtt broker is required").
			Component("mqtt").
			Category(errors.CategoryConfiguration).
			Build()
	}
	clientID := settings.ClientID
	if clientID == "" {
		clientID = "shobdotori"
	}
	return &client{
		config: Config{
			Broker:            settings.Broker,
			ClientID:          clientID,
			Username:          settings.Username,
			Password:          settings.Password,
			Retain:            settings.Retain,
			ConnectTimeout:    defaultConnectTimeout,
			PublishTimeout:    defaultPublishTimeout,
			DisconnectTimeout: defaultDisconnectTimeout,
		},
		log: GetLogger().With(logger.String("broker", settings.Broker)),
	}, nil
}

// Connect resolves the broker host and connects.
func (c *client) Connect(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	u, err := url.Parse(c.config.Broker)
	if err != nil {
		return fmt.Errorf("invalid broker URL: %w", err)
	}
	if host := u.Hostname(); net.ParseIP(host) == nil {
		if _, err := net.DefaultResolver.LookupHost(ctx, host); err != nil {
			return fmt.Errorf("failed to resolve hostname %s: %w", host, err)
		}
	}

	opts := paho.NewClientOptions()
	opts.AddBroker(c.config.Broker)
	opts.SetClientID(c.config.ClientID)
	opts.SetUsername(c.config.Username)
	opts.SetPassword(c.config.Password)
	opts.SetCleanSession(true)
	opts.SetAutoReconnect(true)
	opts.SetConnectRetry(true)
	opts.SetOnConnectHandler(func(paho.Client) {
		c.log.Info("connected to MQTT broker")
	})
	opts.SetConnectionLostHandler(func(_ paho.Client, err error) {
		c.log.Warn("connection to MQTT broker lost", logger.Error(err))
	})

	c.paho = paho.NewClient(opts)
	token := c.paho.Connect()
	if !token.WaitTimeout(c.config.ConnectTimeout) {
		return fmt.Errorf("connection timeout")
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("connection error: %w", err)
	}
	return nil
}

// Publish sends payload with QoS 0.
func (c *client) Publish(ctx context.Context, topic string, payload []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.paho == nil || !c.paho.IsConnected() {
		return fmt.Errorf("not connected to MQTT broker")
	}

	timeout := c.config.PublishTimeout
	if deadline, ok := ctx.Deadline(); ok {
		timeout = min(timeout, time.Until(deadline))
	}

	token := c.paho.Publish(topic, 0, c.config.Retain, payload)
	if !token.WaitTimeout(timeout) {
		return fmt.Errorf("publish timeout for topic %s", topic)
	}
	return token.Error()
}

// IsConnected returns true if the client is currently connected.
func (c *client) IsConnected() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.paho != nil && c.paho.IsConnected()
}

// Disconnect closes the connection.
func (c *client) Disconnect() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.paho != nil && c.paho.IsConnected() {
		c.paho.Disconnect(uint(c.config.DisconnectTimeout.Milliseconds())) //nolint:gosec // small positive constant
	}
}
