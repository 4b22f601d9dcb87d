// internal/status/store.go
package status

import (
	"sort"
	"sync"
)

// Store holds the latest DeviceState per address. The scheduler is the
// only writer; HTTP handlers and sinks read copies.
type Store struct {
	mu sync.RWMutex
	m  map[uint8]DeviceState
}

func NewStore() *Store {
	return &Store{m: make(map[uint8]DeviceState)}
}

// Put replaces the entry for s.Address.
func (st *Store) Put(s DeviceState) {
	st.mu.Lock()
	st.m[s.Address] = s
	st.mu.Unlock()
}

// Get returns a copy of one entry.
func (st *Store) Get(addr uint8) (DeviceState, bool) {
	st.mu.RLock()
	defer st.mu.RUnlock()
	s, ok := st.m[addr]
	return s, ok
}

// List returns copies of every entry ordered by address.
func (st *Store) List() []DeviceState {
	st.mu.RLock()
	out := make([]DeviceState, 0, len(st.m))
	for _, s := range st.m {
		out = append(out, s)
	}
	st.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool { return out[i].Address < out[j].Address })
	return out
}

// Retain drops entries whose address is not in keep.
func (st *Store) Retain(keep map[uint8]struct{}) {
	st.mu.Lock()
	defer st.mu.Unlock()
	for addr := range st.m {
		if _, ok := keep[addr]; !ok {
			delete(st.m, addr)
		}
	}
}
