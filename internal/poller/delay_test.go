// internal/poller/delay_test.go
package poller

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

const testBase = 5 * time.Second

func assertNear(t *testing.T, want, got time.Duration) {
	t.Helper()
	assert.InDelta(t, float64(want), float64(got), float64(time.Microsecond), "want %s got %s", want, got)
}

func TestAdaptive_NoStats(t *testing.T) {
	a := &Adaptive{Base: testBase}
	assertNear(t, testBase, a.Next(0, false, 0))
	assertNear(t, testBase+time.Second, a.Next(0, false, time.Second))
	assertNear(t, 7500*time.Millisecond, a.Next(0, false, time.Minute))

	ok, failed := a.Streaks()
	assert.Zero(t, ok)
	assert.Zero(t, failed)
}

func TestAdaptive_HealthyRampsDown(t *testing.T) {
	a := &Adaptive{Base: testBase}

	assertNear(t, 4500*time.Millisecond, a.Next(1, true, 0))
	assertNear(t, 4000*time.Millisecond, a.Next(1, true, 0))
	a.Next(1, true, 0)
	a.Next(1, true, 0)
	assertNear(t, 2500*time.Millisecond, a.Next(0.95, true, 0))
	assertNear(t, 2500*time.Millisecond, a.Next(0.95, true, 0))
}

func TestAdaptive_UnhealthyRampsUp(t *testing.T) {
	a := &Adaptive{Base: testBase}

	assertNear(t, testBase+testBase/3, a.Next(0.5, true, 0))
	a.Next(0.9, true, 0) // 0.9 is not healthy
	assertNear(t, 2*testBase, a.Next(0, true, 0))
	assertNear(t, 2*testBase, a.Next(0, true, 0))

	// One healthy cycle resets the error streak.
	a.Next(1, true, 0)
	assertNear(t, testBase+testBase/3, a.Next(0.5, true, 0))
}

func TestAdaptive_AddsHalfTheCycle(t *testing.T) {
	a := &Adaptive{Base: testBase}
	assertNear(t, 4500*time.Millisecond+time.Second, a.Next(1, true, 2*time.Second))

	b := &Adaptive{Base: testBase}
	assertNear(t, 2*testBase, b.Next(0, true, time.Hour))
}

func TestAdaptive_Bounds(t *testing.T) {
	a := &Adaptive{Base: testBase}
	rates := []float64{0, 0.3, 0.89, 0.9, 0.91, 1}
	cycles := []time.Duration{0, 10 * time.Millisecond, time.Second, testBase, 10 * testBase}

	for i := 0; i < 50; i++ {
		for _, r := range rates {
			for _, c := range cycles {
				for _, have := range []bool{true, false} {
					d := a.Next(r, have, c)
					assert.GreaterOrEqual(t, d, testBase/2-time.Nanosecond)
					assert.LessOrEqual(t, d, 2*testBase)
				}
			}
		}
	}
}

func TestAdaptive_Failed(t *testing.T) {
	a := &Adaptive{Base: testBase}
	a.Next(1, true, 0)

	assert.Equal(t, testBase, a.Failed())
	ok, failed := a.Streaks()
	assert.Equal(t, 0, ok)
	assert.Equal(t, 1, failed)
}
