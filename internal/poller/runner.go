// internal/poller/runner.go
package poller

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/tamzrod/kneader-monitor/internal/archive"
	cfg "github.com/tamzrod/kneader-monitor/internal/config"
	"github.com/tamzrod/kneader-monitor/internal/dosing"
	"github.com/tamzrod/kneader-monitor/internal/logger"
	"github.com/tamzrod/kneader-monitor/internal/stats"
	"github.com/tamzrod/kneader-monitor/internal/status"
	"github.com/tamzrod/kneader-monitor/internal/writer"
)

// Link is the shared bus connection as seen by the scheduler.
type Link interface {
	Reader
	EnsureConnected() bool
	Connected() bool
	MarkDisconnected()
}

// DeviceSource yields the current device list. It is consulted every cycle.
type DeviceSource interface {
	Load() ([]cfg.Device, error)
}

// RecipeLookup names the recipe for a recipe weight.
type RecipeLookup interface {
	Lookup(weight float64) string
}

// Archiver persists a detected dose.
type Archiver interface {
	Append(ev archive.Event) (archive.Record, error)
}

// Config is the scheduler's timing.
type Config struct {
	// BaseDelay is the nominal pause between cycles.
	BaseDelay time.Duration
	// SettleDelay separates the connection check from the first request.
	SettleDelay time.Duration
	// SlowCycle is the cycle duration above which a warning is logged.
	SlowCycle time.Duration
	// MaxConsecutiveErrors caps repeated device error logs.
	MaxConsecutiveErrors int
}

// Deps are the collaborators of a Scheduler.
type Deps struct {
	Link    Link
	Devices DeviceSource
	Recipes RecipeLookup
	Archive Archiver
	State   *status.Store
	Out     writer.Writer
	Log     *zap.Logger
}

// CycleReport summarises one pass over the devices.
type CycleReport struct {
	Polled   int
	Failed   int
	LinkDown bool
	Aborted  bool
	Events   []archive.Record
}

// Scheduler is the single polling loop. It owns its SchedulerContext.
type Scheduler struct {
	cfg  Config
	deps Deps
	sc   *SchedulerContext
	log  *zap.Logger

	deviceErrs *logger.Limiter
	reloadErrs *logger.Limiter

	sleep func(ctx context.Context, d time.Duration) bool
}

// New validates dependencies and applies timing defaults.
func New(c Config, d Deps) (*Scheduler, error) {
	if c.BaseDelay <= 0 {
		return nil, errors.New("poller: base delay must be > 0")
	}
	if d.Link == nil || d.Devices == nil || d.Recipes == nil || d.Archive == nil || d.State == nil {
		return nil, errors.New("poller: link, devices, recipes, archive and state are required")
	}
	if c.SettleDelay <= 0 {
		c.SettleDelay = 20 * time.Millisecond
	}
	if c.SlowCycle <= 0 {
		c.SlowCycle = 10 * time.Second
	}
	if d.Out == nil {
		d.Out = writer.Nop{}
	}
	if d.Log == nil {
		d.Log = zap.NewNop()
	}

	return &Scheduler{
		cfg:        c,
		deps:       d,
		sc:         NewSchedulerContext(c.BaseDelay),
		log:        d.Log.With(zap.String("component", "poller")),
		deviceErrs: logger.NewLimiter(c.MaxConsecutiveErrors),
		reloadErrs: logger.NewLimiter(c.MaxConsecutiveErrors),
		sleep:      sleepCtx,
	}, nil
}

// Context exposes the loop state for inspection. Not safe while Run is active.
func (s *Scheduler) Context() *SchedulerContext { return s.sc }

// Run loops until ctx is done. Nothing that happens inside a cycle stops it.
func (s *Scheduler) Run(ctx context.Context) error {
	s.log.Info("poller started", zap.Duration("base_delay", s.cfg.BaseDelay))

	for {
		delay := s.step(ctx)
		if !s.sleep(ctx, delay) {
			s.log.Info("poller stopped")
			return ctx.Err()
		}
	}
}

// step runs one cycle and returns the pause before the next.
func (s *Scheduler) step(ctx context.Context) (delay time.Duration) {
	start := time.Now()

	defer func() {
		if r := recover(); r != nil {
			s.log.Error("poll cycle panicked", zap.Any("panic", r), zap.Stack("stack"))
			delay = s.sc.Adaptive.Failed()
		}
	}()

	rep := s.Cycle(ctx)
	elapsed := time.Since(start)

	if elapsed > s.cfg.SlowCycle {
		s.log.Warn("slow poll cycle",
			zap.Duration("elapsed", elapsed),
			zap.Int("devices", len(s.sc.Devices)),
			zap.Int("failed", rep.Failed),
		)
	}

	if rep.LinkDown {
		return s.sc.Adaptive.Failed()
	}

	rate, ok := s.sc.Stats.SuccessRate()
	return s.sc.Adaptive.Next(rate, ok, elapsed)
}

// Cycle performs one pass: reload devices, make sure the link is up,
// then poll every device in priority order.
func (s *Scheduler) Cycle(ctx context.Context) CycleReport {
	var rep CycleReport

	s.reloadDevices()

	connected := s.deps.Link.Connected() || s.deps.Link.EnsureConnected()
	if !s.sleep(ctx, s.cfg.SettleDelay) {
		return rep
	}
	if !connected {
		rep.LinkDown = true
		s.markOffline(ctx, s.sc.Devices)
		return rep
	}

	ordered := stats.PriorityOrder(s.sc.Stats, s.sc.Devices, func(d cfg.Device) uint8 { return d.Address })

	for i, d := range ordered {
		if !s.sleep(ctx, s.sc.Stats.InterDeviceDelay(d.Address)) {
			return rep
		}

		res := PollDevice(s.deps.Link, d)
		s.sc.Stats.Record(d.Address, res.Elapsed, res.OK())
		rep.Polled++

		if !res.OK() {
			rep.Failed++
			s.publish(ctx, failedState(res))
			s.reportDeviceError(res)

			if res.ConnectionLost() {
				s.deps.Link.MarkDisconnected()
				s.markOffline(ctx, ordered[i+1:])
				rep.Aborted = true
				break
			}
			continue
		}

		if n := s.deviceErrs.Reset(); n > 0 {
			s.log.Info("device errors suppressed", zap.Int("count", n))
		}

		s.publish(ctx, okState(res))
		rep.Events = append(rep.Events, s.detect(ctx, res)...)
	}

	return rep
}

func (s *Scheduler) reloadDevices() {
	devices, err := s.deps.Devices.Load()
	if err != nil {
		if s.reloadErrs.Allow() {
			s.log.Warn("device list reload failed, keeping previous list",
				zap.Int("devices", len(s.sc.Devices)),
				zap.Error(err),
			)
		}
		return
	}
	s.reloadErrs.Reset()

	s.sc.Devices = devices

	keep := make(map[uint8]struct{}, len(devices))
	for _, d := range devices {
		keep[d.Address] = struct{}{}
	}
	s.deps.State.Retain(keep)
}

// detect runs the dosing rules on a successful poll and archives the
// resulting events. Archive failures are logged and do not stop the cycle.
func (s *Scheduler) detect(ctx context.Context, res PollResult) []archive.Record {
	d := res.Device
	dc := s.sc.Device(d.Address)

	sample := dosing.Sample{
		CurrentWeight: res.Current.Value,
		RecipeWeight:  res.Recipe.Value,
		Ready:         res.IsReady(),
	}
	events := dosing.Evaluate(&dc.Dosing, dc.Last, sample)
	dc.Last = &dosing.Observation{CurrentWeight: sample.CurrentWeight, Ready: sample.Ready}

	var out []archive.Record
	for _, ev := range events {
		rec, err := s.deps.Archive.Append(archive.Event{
			Kneader:      d.Name,
			Address:      d.Address,
			Weight:       ev.Weight,
			RecipeWeight: ev.RecipeWeight,
			RecipeName:   s.deps.Recipes.Lookup(ev.RecipeWeight),
			Trigger:      string(ev.Trigger),
			At:           res.At,
		})
		if err != nil {
			s.log.Error("archive write failed",
				zap.String("kneader", d.Name),
				zap.Float64("weight", ev.Weight),
				zap.Error(err),
			)
			continue
		}

		out = append(out, rec)
		if err := s.deps.Out.WriteEvent(ctx, rec); err != nil {
			s.log.Debug("event delivery failed", zap.Error(err))
		}
	}
	return out
}

func (s *Scheduler) publish(ctx context.Context, st status.DeviceState) {
	s.deps.State.Put(st)
	if err := s.deps.Out.WriteState(ctx, st); err != nil {
		s.log.Debug("state delivery failed", zap.Uint8("unit", st.Address), zap.Error(err))
	}
}

func (s *Scheduler) markOffline(ctx context.Context, devices []cfg.Device) {
	now := time.Now()
	for _, d := range devices {
		s.publish(ctx, status.DeviceState{
			Name:      d.Name,
			Address:   d.Address,
			Health:    status.HealthOffline,
			Timestamp: now,
		})
	}
}

func (s *Scheduler) reportDeviceError(res PollResult) {
	if !s.deviceErrs.Allow() {
		return
	}
	s.log.Warn("device poll failed",
		zap.String("kneader", res.Device.Name),
		zap.Uint8("unit", res.Device.Address),
		zap.Bool("connection_lost", res.ConnectionLost()),
		zap.Error(res.Err()),
	)
}

// ---- snapshot helpers ----

func okState(res PollResult) status.DeviceState {
	return status.DeviceState{
		Name:           res.Device.Name,
		Address:        res.Device.Address,
		CurrentWeight:  status.SafeFloat(res.Current.Value),
		RecipeWeight:   status.SafeFloat(res.Recipe.Value),
		Ready:          res.IsReady(),
		Connected:      true,
		Health:         status.HealthOK,
		ResponseTimeMs: res.Elapsed.Milliseconds(),
		Timestamp:      res.At,
	}
}

// failedState keeps the reads that succeeded and zeroes the rest.
func failedState(res PollResult) status.DeviceState {
	h := status.HealthError
	if res.ConnectionLost() {
		h = status.HealthOffline
	}

	st := status.DeviceState{
		Name:      res.Device.Name,
		Address:   res.Device.Address,
		Connected: false,
		Health:    h,
		Timestamp: res.At,
	}
	if res.Current.Err == nil {
		st.CurrentWeight = status.SafeFloat(res.Current.Value)
	}
	if res.Recipe.Err == nil {
		st.RecipeWeight = status.SafeFloat(res.Recipe.Value)
	}
	st.Ready = res.IsReady()
	return st
}

func sleepCtx(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return ctx.Err() == nil
	}

	t := time.NewTimer(d)
	defer t.Stop()

	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
