// internal/writer/redis/client.go
package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"

	"github.com/go-redis/redis/v8"

	"github.com/tamzrod/kneader-monitor/internal/archive"
	"github.com/tamzrod/kneader-monitor/internal/status"
)

// Config is minimal redis config.
type Config struct {
	Addr        string
	Password    string
	DB          int
	StateKey    string
	EventStream string
	// StreamMaxLen trims the event stream; 0 keeps everything.
	StreamMaxLen int64
}

// Client keeps the latest state of every kneader in one hash (field =
// address) and appends each archived dose to a stream.
type Client struct {
	rdb *redis.Client
	cfg Config
}

// New connects and pings.
func New(ctx context.Context, cfg Config) (*Client, error) {
	if cfg.Addr == "" {
		return nil, errors.New("writer redis: addr required")
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		rdb.Close()
		return nil, fmt.Errorf("writer redis: ping %s: %w", cfg.Addr, err)
	}
	return NewWithClient(rdb, cfg), nil
}

// NewWithClient wraps an existing connection.
func NewWithClient(rdb *redis.Client, cfg Config) *Client {
	return &Client{rdb: rdb, cfg: cfg}
}

func (c *Client) WriteState(ctx context.Context, s status.DeviceState) error {
	payload, err := status.Encode(s)
	if err != nil {
		return err
	}
	field := strconv.Itoa(int(s.Address))
	if err := c.rdb.HSet(ctx, c.cfg.StateKey, field, payload).Err(); err != nil {
		return fmt.Errorf("writer redis: hset %s %s: %w", c.cfg.StateKey, field, err)
	}
	return nil
}

func (c *Client) WriteEvent(ctx context.Context, r archive.Record) error {
	payload, err := json.Marshal(r)
	if err != nil {
		return err
	}

	args := &redis.XAddArgs{
		Stream: c.cfg.EventStream,
		MaxLen: c.cfg.StreamMaxLen,
		Values: map[string]interface{}{
			"id":      r.ID,
			"kneader": r.Kneader,
			"data":    string(payload),
		},
	}
	if err := c.rdb.XAdd(ctx, args).Err(); err != nil {
		return fmt.Errorf("writer redis: xadd %s: %w", c.cfg.EventStream, err)
	}
	return nil
}

func (c *Client) Close() error {
	return c.rdb.Close()
}
