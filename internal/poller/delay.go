// internal/poller/delay.go
package poller

import (
	"math"
	"time"
)

const (
	// healthyRate is the overall success rate above which a cycle counts as healthy.
	healthyRate = 0.9

	successRamp = 5 // healthy cycles until the delay bottoms out
	errorRamp   = 3 // unhealthy cycles until the delay tops out
)

// Adaptive computes the pause between cycles from the base poll interval.
// Every result lies in [Base/2, 2*Base].
type Adaptive struct {
	Base time.Duration

	okStreak  int
	errStreak int
}

// Next classifies the finished cycle and returns the delay before the
// next one. rate is the overall success rate; haveStats is false until
// anything has been recorded. lastCycle is the wall time of the cycle.
func (a *Adaptive) Next(rate float64, haveStats bool, lastCycle time.Duration) time.Duration {
	base := float64(a.Base)
	spent := float64(lastCycle)
	if spent < 0 {
		spent = 0
	}

	if !haveStats {
		return time.Duration(math.Min(base+spent, 1.5*base))
	}

	var d float64
	if rate > healthyRate {
		a.okStreak++
		a.errStreak = 0
		f := math.Min(float64(a.okStreak)/successRamp, 1)
		d = math.Max(base*(1-0.5*f), 0.5*base)
	} else {
		a.errStreak++
		a.okStreak = 0
		f := math.Min(float64(a.errStreak)/errorRamp, 1)
		d = math.Min(base*(1+f), 2*base)
	}

	return time.Duration(math.Min(d+0.5*spent, 2*base))
}

// Failed records a cycle that could not run and returns the base delay.
func (a *Adaptive) Failed() time.Duration {
	a.errStreak++
	a.okStreak = 0
	return a.Base
}

// Streaks exposes the current consecutive healthy and unhealthy counts.
func (a *Adaptive) Streaks() (ok, failed int) {
	return a.okStreak, a.errStreak
}
