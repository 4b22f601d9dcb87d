// internal/poller/context.go
package poller

import (
	"time"

	cfg "github.com/tamzrod/kneader-monitor/internal/config"
	"github.com/tamzrod/kneader-monitor/internal/dosing"
	"github.com/tamzrod/kneader-monitor/internal/stats"
)

// DeviceContext is the per-address memory carried across cycles.
type DeviceContext struct {
	Dosing dosing.State
	Last   *dosing.Observation
}

// SchedulerContext is everything the scheduler loop remembers between
// cycles. Only the loop goroutine touches it.
type SchedulerContext struct {
	Stats    *stats.Tracker
	Adaptive *Adaptive
	Devices  []cfg.Device

	perDevice map[uint8]*DeviceContext
}

func NewSchedulerContext(base time.Duration) *SchedulerContext {
	return &SchedulerContext{
		Stats:     stats.NewTracker(),
		Adaptive:  &Adaptive{Base: base},
		perDevice: make(map[uint8]*DeviceContext),
	}
}

// Device returns the context for addr, creating it on first use.
// Entries outlive configuration changes.
func (c *SchedulerContext) Device(addr uint8) *DeviceContext {
	dc := c.perDevice[addr]
	if dc == nil {
		dc = &DeviceContext{}
		c.perDevice[addr] = dc
	}
	return dc
}
