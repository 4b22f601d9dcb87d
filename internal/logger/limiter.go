// internal/logger/limiter.go
package logger

import "sync"

// DefaultMaxConsecutive is how many consecutive errors are reported before
// the rest are suppressed.
const DefaultMaxConsecutive = 5

// Limiter caps repeated error reports. It only decides whether to log;
// callers must not branch on it otherwise.
type Limiter struct {
	max int

	mu         sync.Mutex
	count      int
	suppressed int
}

func NewLimiter(max int) *Limiter {
	if max <= 0 {
		max = DefaultMaxConsecutive
	}
	return &Limiter{max: max}
}

// Allow counts one error and reports whether it should be logged.
func (l *Limiter) Allow() bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.count++
	if l.count <= l.max {
		return true
	}
	l.suppressed++
	return false
}

// Reset clears the streak and returns how many reports were suppressed.
func (l *Limiter) Reset() int {
	l.mu.Lock()
	defer l.mu.Unlock()

	n := l.suppressed
	l.count = 0
	l.suppressed = 0
	return n
}
