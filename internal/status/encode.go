// internal/status/encode.go
package status

import "encoding/json"

// Encode renders a state in its wire form.
// No IO. No side effects.
func Encode(s DeviceState) ([]byte, error) {
	s.CurrentWeight = SafeFloat(s.CurrentWeight)
	s.RecipeWeight = SafeFloat(s.RecipeWeight)
	return json.Marshal(s)
}

// EncodeList renders a list of states as a JSON array.
// Non-finite weights in list are zeroed in place.
func EncodeList(list []DeviceState) ([]byte, error) {
	if list == nil {
		list = []DeviceState{}
	}
	for i := range list {
		list[i].CurrentWeight = SafeFloat(list[i].CurrentWeight)
		list[i].RecipeWeight = SafeFloat(list[i].RecipeWeight)
	}
	return json.Marshal(list)
}
