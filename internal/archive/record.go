// internal/archive/record.go
package archive

import "time"

// Shift labels.
const (
	ShiftDay   = "day"
	ShiftNight = "night"
)

// DefaultShiftOffset is the plant clock relative to UTC.
const DefaultShiftOffset = 3 * time.Hour

const (
	dayShiftStart = 8
	dayShiftEnd   = 20

	timestampLayout = "2006-01-02T15:04:05.000Z"
	dateLayout      = "2006-01-02"
)

// Event is a detected dose, before archiving.
type Event struct {
	Kneader      string
	Address      uint8
	Weight       float64
	RecipeWeight float64
	RecipeName   string
	Trigger      string
	At           time.Time
}

// Record is one archived dose.
type Record struct {
	ID           string  `json:"id,omitempty"`
	Kneader      string  `json:"kneader"`
	Address      uint8   `json:"address"`
	Weight       float64 `json:"weight"`
	RecipeWeight float64 `json:"recipeWeight"`
	RecipeName   string  `json:"recipeName"`
	Trigger      string  `json:"trigger,omitempty"`
	Timestamp    string  `json:"timestamp"`
	Date         string  `json:"date"`
	Shift        string  `json:"shift"`
	Hour         int     `json:"hour"`
}

// Time parses Timestamp. The zero time is returned for malformed values.
func (r Record) Time() time.Time {
	t, err := time.Parse(timestampLayout, r.Timestamp)
	if err != nil {
		t, err = time.Parse(time.RFC3339Nano, r.Timestamp)
		if err != nil {
			return time.Time{}
		}
	}
	return t
}

// ShiftOf labels t using a plant clock offset from UTC.
func ShiftOf(t time.Time, offset time.Duration) string {
	h := t.UTC().Add(offset).Hour()
	if h >= dayShiftStart && h < dayShiftEnd {
		return ShiftDay
	}
	return ShiftNight
}

// DateOf is the UTC calendar date of t, the archive partition key.
func DateOf(t time.Time) string {
	return t.UTC().Format(dateLayout)
}
