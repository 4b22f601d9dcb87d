// internal/stats/tracker.go
package stats

import (
	"sort"
	"time"
)

const (
	// BaselineDelay is the pause before polling a device with no history.
	BaselineDelay = 50 * time.Millisecond

	minDelay = 20 * time.Millisecond
	maxDelay = 100 * time.Millisecond
)

// DeviceStats is the running poll history of one unit address.
type DeviceStats struct {
	Count         int
	TotalResponse time.Duration
	AvgResponse   time.Duration
	SuccessCount  int
	ErrorCount    int
}

// SuccessRatio is successes over polls. Zero polls yields 0.
func (s DeviceStats) SuccessRatio() float64 {
	if s.Count == 0 {
		return 0
	}
	return float64(s.SuccessCount) / float64(s.Count)
}

// Tracker keeps poll statistics per unit address for the lifetime of the
// process. Entries are never removed, even when a device leaves the
// configuration.
//
// Tracker is not safe for concurrent use; the scheduler loop owns it.
type Tracker struct {
	m map[uint8]*DeviceStats
}

func NewTracker() *Tracker {
	return &Tracker{m: make(map[uint8]*DeviceStats)}
}

// Record adds one poll observation for addr.
func (t *Tracker) Record(addr uint8, elapsed time.Duration, success bool) {
	s := t.m[addr]
	if s == nil {
		s = &DeviceStats{}
		t.m[addr] = s
	}

	s.Count++
	s.TotalResponse += elapsed
	s.AvgResponse = s.TotalResponse / time.Duration(s.Count)
	if success {
		s.SuccessCount++
	} else {
		s.ErrorCount++
	}
}

// Get returns a copy of the stats for addr.
func (t *Tracker) Get(addr uint8) (DeviceStats, bool) {
	s, ok := t.m[addr]
	if !ok {
		return DeviceStats{}, false
	}
	return *s, true
}

// Len is the number of devices with history.
func (t *Tracker) Len() int { return len(t.m) }

// Totals sums polls and successes across every device.
func (t *Tracker) Totals() (count, success int) {
	for _, s := range t.m {
		count += s.Count
		success += s.SuccessCount
	}
	return count, success
}

// SuccessRate is the overall success ratio across every device.
// ok is false when nothing has been recorded yet.
func (t *Tracker) SuccessRate() (rate float64, ok bool) {
	count, success := t.Totals()
	if count == 0 {
		return 0, false
	}
	return float64(success) / float64(count), true
}

// PriorityOrder returns a reordered copy of items: devices with history by
// descending success ratio, then devices without history. Ties keep their
// input order.
func PriorityOrder[T any](t *Tracker, items []T, addr func(T) uint8) []T {
	out := make([]T, len(items))
	copy(out, items)

	sort.SliceStable(out, func(i, j int) bool {
		si, iok := t.m[addr(out[i])]
		sj, jok := t.m[addr(out[j])]
		switch {
		case iok && !jok:
			return true
		case !iok:
			return false
		}
		return si.SuccessRatio() > sj.SuccessRatio()
	})

	return out
}

// InterDeviceDelay is the pause before polling addr: a tenth of its mean
// response time clamped to [20ms, 100ms], or BaselineDelay without history.
func (t *Tracker) InterDeviceDelay(addr uint8) time.Duration {
	s, ok := t.m[addr]
	if !ok || s.AvgResponse == 0 {
		return BaselineDelay
	}

	d := s.AvgResponse / 10
	if d < minDelay {
		return minDelay
	}
	if d > maxDelay {
		return maxDelay
	}
	return d
}
