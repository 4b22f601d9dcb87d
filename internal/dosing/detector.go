// internal/dosing/detector.go
package dosing

import "math"

// ToleranceRatio is the fraction of the recipe weight counted as "reached".
const ToleranceRatio = 0.001

// Trigger names the rule that produced an event.
type Trigger string

const (
	// TriggerDischarge fires when the scale empties after a fill that reached the recipe.
	TriggerDischarge Trigger = "discharge"
	// TriggerReady fires on the rising edge of weight == recipe with the ready flag set.
	TriggerReady Trigger = "ready"
)

// State is the per-device detector memory.
type State struct {
	ReachedThreshold bool
	MaxWeight        float64
	RecipeWeight     float64
}

// Observation is the last successfully polled reading of a device.
type Observation struct {
	CurrentWeight float64
	Ready         bool
}

// Sample is one successful poll.
type Sample struct {
	CurrentWeight float64
	RecipeWeight  float64
	Ready         bool
}

// Event is a completed dose.
type Event struct {
	Trigger      Trigger
	Weight       float64
	RecipeWeight float64
}

// Evaluate advances st with s and returns the events completed by it.
// last is the previous observation of the device; nil means {0, not ready}.
//
// Both rules are evaluated on every call; neither suppresses the other.
func Evaluate(st *State, last *Observation, s Sample) []Event {
	prev := Observation{}
	if last != nil {
		prev = *last
	}

	if st.RecipeWeight != s.RecipeWeight {
		*st = State{RecipeWeight: s.RecipeWeight}
	}

	tolerance := s.RecipeWeight * ToleranceRatio
	if s.CurrentWeight > st.MaxWeight {
		st.MaxWeight = s.CurrentWeight
	}
	if math.Abs(s.CurrentWeight-s.RecipeWeight) <= tolerance {
		st.ReachedThreshold = true
	}

	var events []Event

	if st.ReachedThreshold &&
		s.CurrentWeight < s.RecipeWeight/2 &&
		prev.CurrentWeight > s.CurrentWeight &&
		st.MaxWeight >= s.RecipeWeight-tolerance {
		events = append(events, Event{
			Trigger:      TriggerDischarge,
			Weight:       st.MaxWeight,
			RecipeWeight: s.RecipeWeight,
		})
		*st = State{RecipeWeight: s.RecipeWeight}
	}

	if s.CurrentWeight == s.RecipeWeight && s.Ready &&
		(prev.CurrentWeight != s.CurrentWeight || !prev.Ready) {
		events = append(events, Event{
			Trigger:      TriggerReady,
			Weight:       s.CurrentWeight,
			RecipeWeight: s.RecipeWeight,
		})
	}

	return events
}
