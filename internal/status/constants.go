// internal/status/constants.go
package status

// Health summarises a device's last poll.
type Health uint8

// ---- HEALTH CODES ----

// HealthUnknown represents a device not yet polled this run.
const HealthUnknown Health = 0

// HealthOK represents a device whose three reads all succeeded.
const HealthOK Health = 1

// HealthError represents a device that answered but at least one read failed.
const HealthError Health = 2

// HealthOffline represents a device skipped or unreachable because the link is down.
const HealthOffline Health = 3

func (h Health) String() string {
	switch h {
	case HealthOK:
		return "ok"
	case HealthError:
		return "error"
	case HealthOffline:
		return "offline"
	}
	return "unknown"
}

// MarshalText renders the health as its name.
func (h Health) MarshalText() ([]byte, error) {
	return []byte(h.String()), nil
}

// UnmarshalText parses a health name; unknown names map to HealthUnknown.
func (h *Health) UnmarshalText(b []byte) error {
	switch string(b) {
	case "ok":
		*h = HealthOK
	case "error":
		*h = HealthError
	case "offline":
		*h = HealthOffline
	default:
		*h = HealthUnknown
	}
	return nil
}
