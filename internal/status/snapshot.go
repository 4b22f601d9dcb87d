// internal/status/snapshot.go
package status

import (
	"math"
	"time"
)

// DeviceState is the externally visible state of one kneader.
// It is replaced whole on every poll; readers only ever get copies.
type DeviceState struct {
	Name           string    `json:"name"`
	Address        uint8     `json:"address"`
	CurrentWeight  float64   `json:"currentWeight"`
	RecipeWeight   float64   `json:"recipeWeight"`
	Ready          bool      `json:"ready"`
	Connected      bool      `json:"connected"`
	Health         Health    `json:"health"`
	ResponseTimeMs int64     `json:"responseTime"`
	Timestamp      time.Time `json:"timestamp"`
}

// SafeFloat maps NaN and infinities to 0 so a state always encodes.
func SafeFloat(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v
}

// SameReading reports whether a and b carry the same process values and
// health, ignoring timing fields.
func SameReading(a, b DeviceState) bool {
	return a.Name == b.Name &&
		a.Address == b.Address &&
		a.CurrentWeight == b.CurrentWeight &&
		a.RecipeWeight == b.RecipeWeight &&
		a.Ready == b.Ready &&
		a.Connected == b.Connected &&
		a.Health == b.Health
}
