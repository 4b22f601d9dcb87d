// internal/stats/tracker_test.go
package stats

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecord_AverageIsMean(t *testing.T) {
	tr := NewTracker()
	samples := []time.Duration{10 * time.Millisecond, 30 * time.Millisecond, 80 * time.Millisecond}
	for i, d := range samples {
		tr.Record(7, d, i != 1)
	}

	s, ok := tr.Get(7)
	require.True(t, ok)
	assert.Equal(t, 3, s.Count)
	assert.Equal(t, 120*time.Millisecond, s.TotalResponse)
	assert.Equal(t, 40*time.Millisecond, s.AvgResponse)
	assert.Equal(t, 2, s.SuccessCount)
	assert.Equal(t, 1, s.ErrorCount)
	assert.Equal(t, s.Count, s.SuccessCount+s.ErrorCount)
}

func TestGet_Unknown(t *testing.T) {
	_, ok := NewTracker().Get(1)
	assert.False(t, ok)
}

type dev struct {
	name string
	addr uint8
}

func devAddr(d dev) uint8 { return d.addr }

func TestPriorityOrder(t *testing.T) {
	tr := NewTracker()
	// a: 1/2, b: 2/2, c: none, d: 0/1
	tr.Record(1, time.Millisecond, true)
	tr.Record(1, time.Millisecond, false)
	tr.Record(2, time.Millisecond, true)
	tr.Record(2, time.Millisecond, true)
	tr.Record(4, time.Millisecond, false)

	in := []dev{{"a", 1}, {"b", 2}, {"c", 3}, {"d", 4}}
	out := PriorityOrder(tr, in, devAddr)

	var names []string
	for _, d := range out {
		names = append(names, d.name)
	}
	assert.Equal(t, []string{"b", "a", "d", "c"}, names)
	assert.Equal(t, "a", in[0].name, "input must not be reordered")
}

func TestPriorityOrder_NoHistoryKeepsConfigOrder(t *testing.T) {
	in := []dev{{"x", 9}, {"y", 3}, {"z", 5}}
	out := PriorityOrder(NewTracker(), in, devAddr)
	assert.Equal(t, in, out)
}

func TestInterDeviceDelay(t *testing.T) {
	tr := NewTracker()
	assert.Equal(t, BaselineDelay, tr.InterDeviceDelay(1))

	tr.Record(1, 50*time.Millisecond, true) // 5ms -> clamped up
	assert.Equal(t, 20*time.Millisecond, tr.InterDeviceDelay(1))

	tr.Record(2, 500*time.Millisecond, true)
	assert.Equal(t, 50*time.Millisecond, tr.InterDeviceDelay(2))

	tr.Record(3, 3*time.Second, true) // 300ms -> clamped down
	assert.Equal(t, 100*time.Millisecond, tr.InterDeviceDelay(3))
}

func TestSuccessRate(t *testing.T) {
	tr := NewTracker()
	_, ok := tr.SuccessRate()
	assert.False(t, ok)

	tr.Record(1, time.Millisecond, true)
	tr.Record(2, time.Millisecond, true)
	tr.Record(2, time.Millisecond, true)
	tr.Record(3, time.Millisecond, false)

	rate, ok := tr.SuccessRate()
	require.True(t, ok)
	assert.InDelta(t, 0.75, rate, 1e-9)
	assert.Equal(t, 3, tr.Len())
}
