// internal/writer/status_writer.go
package writer

import (
	"context"
	"sync"
	"time"

	"github.com/tamzrod/kneader-monitor/internal/archive"
	"github.com/tamzrod/kneader-monitor/internal/status"
)

// Changes forwards a device state only when its reading differs from the
// last one delivered, or when heartbeat has passed since that delivery.
// Events always pass through.
type Changes struct {
	next      Writer
	heartbeat time.Duration
	now       func() time.Time

	mu   sync.Mutex
	last map[uint8]delivered
}

type delivered struct {
	state status.DeviceState
	at    time.Time
}

// NewChanges wraps next. heartbeat <= 0 disables re-delivery of unchanged states.
func NewChanges(next Writer, heartbeat time.Duration) *Changes {
	return &Changes{
		next:      next,
		heartbeat: heartbeat,
		now:       time.Now,
		last:      make(map[uint8]delivered),
	}
}

func (c *Changes) WriteState(ctx context.Context, s status.DeviceState) error {
	now := c.now()

	c.mu.Lock()
	prev, seen := c.last[s.Address]
	c.mu.Unlock()

	if seen && status.SameReading(prev.state, s) {
		if c.heartbeat <= 0 || now.Sub(prev.at) < c.heartbeat {
			return nil
		}
	}

	// On failure nothing is recorded, so the next call re-delivers.
	if err := c.next.WriteState(ctx, s); err != nil {
		return err
	}

	c.mu.Lock()
	c.last[s.Address] = delivered{state: s, at: now}
	c.mu.Unlock()
	return nil
}

func (c *Changes) WriteEvent(ctx context.Context, r archive.Record) error {
	return c.next.WriteEvent(ctx, r)
}
