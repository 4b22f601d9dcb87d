// internal/status/store_test.go
package status

import (
	"encoding/json"
	"math"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStore_PutGetList(t *testing.T) {
	st := NewStore()
	st.Put(DeviceState{Name: "b", Address: 2})
	st.Put(DeviceState{Name: "a", Address: 1})
	st.Put(DeviceState{Name: "b2", Address: 2})

	s, ok := st.Get(2)
	require.True(t, ok)
	assert.Equal(t, "b2", s.Name)

	list := st.List()
	require.Len(t, list, 2)
	assert.Equal(t, uint8(1), list[0].Address)
	assert.Equal(t, uint8(2), list[1].Address)
}

func TestStore_ReadersGetCopies(t *testing.T) {
	st := NewStore()
	st.Put(DeviceState{Address: 1, CurrentWeight: 10})

	list := st.List()
	list[0].CurrentWeight = 99

	s, _ := st.Get(1)
	assert.Equal(t, 10.0, s.CurrentWeight)
}

func TestStore_Retain(t *testing.T) {
	st := NewStore()
	for a := uint8(1); a <= 3; a++ {
		st.Put(DeviceState{Address: a})
	}
	st.Retain(map[uint8]struct{}{2: {}})

	list := st.List()
	require.Len(t, list, 1)
	assert.Equal(t, uint8(2), list[0].Address)
}

func TestStore_ConcurrentReaders(t *testing.T) {
	st := NewStore()
	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				_ = st.List()
			}
		}()
	}
	for j := 0; j < 100; j++ {
		st.Put(DeviceState{Address: uint8(j%5 + 1), CurrentWeight: float64(j)})
	}
	wg.Wait()
	assert.Len(t, st.List(), 5)
}

func TestEncode_NaNSafe(t *testing.T) {
	raw, err := Encode(DeviceState{
		Name:          "k",
		Address:       1,
		CurrentWeight: math.NaN(),
		RecipeWeight:  math.Inf(1),
		Connected:     true,
		Health:        HealthOK,
		Timestamp:     time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)

	var m map[string]any
	require.NoError(t, json.Unmarshal(raw, &m))
	assert.Equal(t, 0.0, m["currentWeight"])
	assert.Equal(t, 0.0, m["recipeWeight"])
	assert.Equal(t, "ok", m["health"])
}

func TestSameReading(t *testing.T) {
	a := DeviceState{Address: 1, CurrentWeight: 5, Timestamp: time.Now(), ResponseTimeMs: 3}
	b := a
	b.Timestamp = a.Timestamp.Add(time.Second)
	b.ResponseTimeMs = 9
	assert.True(t, SameReading(a, b))

	b.Ready = true
	assert.False(t, SameReading(a, b))
}
