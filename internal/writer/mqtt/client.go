// internal/writer/mqtt/client.go
package mqtt

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"

	"github.com/tamzrod/kneader-monitor/internal/archive"
	"github.com/tamzrod/kneader-monitor/internal/status"
)

// Config is minimal broker config.
type Config struct {
	Broker      string
	ClientID    string
	Username    string
	Password    string
	QoS         byte
	TopicPrefix string
	Timeout     time.Duration
}

// publisher is the part of paho.Client the sink uses.
type publisher interface {
	Publish(topic string, qos byte, retained bool, payload interface{}) paho.Token
	Disconnect(quiesce uint)
}

// Client publishes retained per-device state and a stream of dose events.
//
//	<prefix>/state/<address>  retained, latest DeviceState
//	<prefix>/events           one message per archived dose
type Client struct {
	pub publisher
	cfg Config
}

// New connects to the broker. Reconnects are left to paho.
func New(cfg Config) (*Client, error) {
	if cfg.Broker == "" {
		return nil, errors.New("writer mqtt: broker required")
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 5 * time.Second
	}

	opts := paho.NewClientOptions()
	opts.AddBroker(cfg.Broker)
	opts.SetClientID(cfg.ClientID)
	if cfg.Username != "" {
		opts.SetUsername(cfg.Username)
	}
	if cfg.Password != "" {
		opts.SetPassword(cfg.Password)
	}
	opts.SetAutoReconnect(true)
	opts.SetConnectRetry(true)
	opts.SetCleanSession(true)
	opts.SetConnectTimeout(cfg.Timeout)

	c := paho.NewClient(opts)
	token := c.Connect()
	if !token.WaitTimeout(cfg.Timeout) {
		// ConnectRetry keeps trying in the background; publishes queue until then.
		return &Client{pub: c, cfg: cfg}, nil
	}
	if err := token.Error(); err != nil {
		return nil, fmt.Errorf("writer mqtt: connect %s: %w", cfg.Broker, err)
	}

	return &Client{pub: c, cfg: cfg}, nil
}

func (c *Client) StateTopic(addr uint8) string {
	return fmt.Sprintf("%s/state/%d", c.cfg.TopicPrefix, addr)
}

func (c *Client) EventTopic() string {
	return c.cfg.TopicPrefix + "/events"
}

func (c *Client) WriteState(ctx context.Context, s status.DeviceState) error {
	payload, err := status.Encode(s)
	if err != nil {
		return err
	}
	return c.publish(ctx, c.StateTopic(s.Address), true, payload)
}

func (c *Client) WriteEvent(ctx context.Context, r archive.Record) error {
	payload, err := json.Marshal(r)
	if err != nil {
		return err
	}
	return c.publish(ctx, c.EventTopic(), false, payload)
}

// Close disconnects, allowing 250ms for in-flight messages.
func (c *Client) Close() error {
	c.pub.Disconnect(250)
	return nil
}

func (c *Client) publish(ctx context.Context, topic string, retained bool, payload []byte) error {
	token := c.pub.Publish(topic, c.cfg.QoS, retained, payload)

	select {
	case <-token.Done():
		if err := token.Error(); err != nil {
			return fmt.Errorf("writer mqtt: publish %s: %w", topic, err)
		}
		return nil
	case <-ctx.Done():
		return fmt.Errorf("writer mqtt: publish %s: %w", topic, ctx.Err())
	}
}
