// internal/poller/poller.go
package poller

import (
	"errors"
	"fmt"
	"math"
	"time"

	cfg "github.com/tamzrod/kneader-monitor/internal/config"
	"github.com/tamzrod/kneader-monitor/internal/decode"
)

// Reader abstracts the bus operation the poller needs.
type Reader interface {
	ReadHoldingRegisters(unit uint8, addr, qty uint16) ([]uint16, error)
}

// ErrNonFinite marks a read that decoded or scaled to NaN or ±Inf.
var ErrNonFinite = errors.New("poller: non-finite value")

// PollDevice performs the three reads of d. Each read is isolated: a
// failure is recorded on its signal and the next read still runs.
func PollDevice(r Reader, d cfg.Device) PollResult {
	start := time.Now()

	res := PollResult{
		Device: d,
		At:     start,
	}

	res.Current = readSignal(r, d.Address, d.CurrentWeight)
	res.Recipe = readSignal(r, d.Address, d.RecipeWeight)
	res.Ready = readSignal(r, d.Address, d.Ready)

	res.Elapsed = time.Since(start)
	return res
}

func readSignal(r Reader, unit uint8, s cfg.SignalSpec) SignalResult {
	words, err := r.ReadHoldingRegisters(unit, s.Register, s.Count)
	if err != nil {
		return SignalResult{Err: err}
	}

	v, err := decode.Decode(words, s.Type, s.Order)
	if err != nil {
		return SignalResult{Err: err}
	}

	if s.Equation != "" && s.Type != decode.Bool {
		v, err = decode.Scale(s.Equation, v)
		if err != nil {
			return SignalResult{Err: err}
		}
	}

	if math.IsNaN(v) || math.IsInf(v, 0) {
		return SignalResult{Err: fmt.Errorf("%w: register %d: %v", ErrNonFinite, s.Register, v)}
	}

	return SignalResult{Value: v}
}
