// internal/writer/builder.go
package writer

import (
	"context"
	"time"

	"go.uber.org/zap"

	cfg "github.com/tamzrod/kneader-monitor/internal/config"
	wmqtt "github.com/tamzrod/kneader-monitor/internal/writer/mqtt"
	wredis "github.com/tamzrod/kneader-monitor/internal/writer/redis"
)

const (
	queueSize     = 1024
	sendTimeout   = 5 * time.Second
	heartbeat     = 30 * time.Second
	redisMaxLen   = 10000
	dialTimeoutMs = 5000
)

// Build creates one sink per enabled target and chains them as
// Async -> Changes -> Multi. With no targets enabled it returns Nop.
// The closer drains pending deliveries and disconnects every sink.
func Build(ctx context.Context, s *cfg.Settings, log *zap.Logger) (Writer, func() error, error) {
	var (
		sinks   Multi
		closers []func() error
	)

	closeAll := func() error {
		var last error
		for i := len(closers) - 1; i >= 0; i-- {
			if err := closers[i](); err != nil {
				last = err
			}
		}
		return last
	}

	if s.MQTT.Enabled {
		c, err := wmqtt.New(wmqtt.Config{
			Broker:      s.MQTT.Broker,
			ClientID:    s.MQTT.ClientID,
			Username:    s.MQTT.Username,
			Password:    s.MQTT.Password,
			QoS:         s.MQTT.QoS,
			TopicPrefix: s.MQTT.TopicPrefix,
			Timeout:     dialTimeoutMs * time.Millisecond,
		})
		if err != nil {
			return nil, nil, err
		}
		sinks = append(sinks, Named{Name: "mqtt", Writer: c})
		closers = append(closers, c.Close)
	}

	if s.Redis.Enabled {
		c, err := wredis.New(ctx, wredis.Config{
			Addr:         s.Redis.Addr,
			Password:     s.Redis.Password,
			DB:           s.Redis.DB,
			StateKey:     s.Redis.StateKey,
			EventStream:  s.Redis.EventStream,
			StreamMaxLen: redisMaxLen,
		})
		if err != nil {
			_ = closeAll()
			return nil, nil, err
		}
		sinks = append(sinks, Named{Name: "redis", Writer: c})
		closers = append(closers, c.Close)
	}

	if len(sinks) == 0 {
		return Nop{}, func() error { return nil }, nil
	}

	async := NewAsync(NewChanges(sinks, heartbeat), queueSize, sendTimeout, log)

	// Drain first, then disconnect.
	closers = append(closers, async.Close)

	return async, closeAll, nil
}
