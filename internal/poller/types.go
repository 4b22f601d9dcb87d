// internal/poller/types.go
package poller

import (
	"errors"
	"fmt"
	"time"

	cfg "github.com/tamzrod/kneader-monitor/internal/config"
	pmodbus "github.com/tamzrod/kneader-monitor/internal/poller/modbus"
)

// SignalResult is the outcome of one isolated register read.
type SignalResult struct {
	Value float64
	Err   error
}

// PollResult is one device's three reads.
// A failed read leaves the other two intact.
type PollResult struct {
	Device  cfg.Device
	At      time.Time
	Elapsed time.Duration

	Current SignalResult
	Recipe  SignalResult
	Ready   SignalResult
}

// OK reports whether all three reads succeeded.
func (r PollResult) OK() bool {
	return r.Current.Err == nil && r.Recipe.Err == nil && r.Ready.Err == nil
}

// Err joins the failed reads, labelled by signal.
func (r PollResult) Err() error {
	var errs []error
	if r.Current.Err != nil {
		errs = append(errs, fmt.Errorf("current_weight: %w", r.Current.Err))
	}
	if r.Recipe.Err != nil {
		errs = append(errs, fmt.Errorf("recipe_weight: %w", r.Recipe.Err))
	}
	if r.Ready.Err != nil {
		errs = append(errs, fmt.Errorf("ready: %w", r.Ready.Err))
	}
	return errors.Join(errs...)
}

// ConnectionLost reports whether any read failed because the link is gone.
func (r PollResult) ConnectionLost() bool {
	return pmodbus.IsConnectionLost(r.Current.Err) ||
		pmodbus.IsConnectionLost(r.Recipe.Err) ||
		pmodbus.IsConnectionLost(r.Ready.Err)
}

// IsReady interprets the ready signal: a value of exactly 1.
func (r PollResult) IsReady() bool {
	return r.Ready.Err == nil && r.Ready.Value == 1
}
