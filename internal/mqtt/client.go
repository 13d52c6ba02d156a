// Package mqtt connects the controller to a broker: telemetry out on the
// data topic, AT commands in on the command topic.
package mqtt

import (
	"fmt"
	"time"

	"coolerctl/internal/logger"

	paho "github.com/eclipse/paho.mqtt.golang"
)

// Config holds broker connection settings.
type Config struct {
	Broker   string // e.g. "tcp://broker.local:1883"
	ClientID string
	Username string
	Password string
}

// Client manages the broker connection. Publishing and command handling are
// layered on top via Publisher and CommandListener.
type Client struct {
	client paho.Client
	log    *logger.Logger
}

// NewClient connects to the broker and returns the wrapped client. The
// underlying paho client reconnects automatically after a connection loss.
func NewClient(cfg Config, log *logger.Logger) (*Client, error) {
	opts := paho.NewClientOptions()
	opts.AddBroker(cfg.Broker)
	opts.SetClientID(cfg.ClientID)
	opts.SetUsername(cfg.Username)
	opts.SetPassword(cfg.Password)
	opts.SetAutoReconnect(true)
	opts.SetKeepAlive(60 * time.Second)
	opts.SetPingTimeout(10 * time.Second)
	opts.SetOnConnectHandler(func(paho.Client) {
		log.Infow("mqtt connected", "broker", cfg.Broker)
	})
	opts.SetConnectionLostHandler(func(_ paho.Client, err error) {
		log.Warnw("mqtt connection lost", "err", err)
	})

	client := paho.NewClient(opts)
	if token := client.Connect(); token.Wait() && token.Error() != nil {
		return nil, fmt.Errorf("connect to mqtt broker %s: %w", cfg.Broker, token.Error())
	}
	return &Client{client: client, log: log}, nil
}

func (c *Client) IsConnected() bool {
	return c.client.IsConnected()
}

// Close flushes in-flight messages and disconnects.
func (c *Client) Close() {
	c.client.Disconnect(250)
	c.log.Infow("mqtt disconnected")
}
