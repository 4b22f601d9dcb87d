// internal/poller/poller_test.go
package poller

import (
	"errors"
	"io"
	"math"
	"testing"

	"github.com/goburrow/modbus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	cfg "github.com/tamzrod/kneader-monitor/internal/config"
	"github.com/tamzrod/kneader-monitor/internal/decode"
	pmodbus "github.com/tamzrod/kneader-monitor/internal/poller/modbus"
)

// ---- fake link ----

type fakeLink struct {
	regs        map[uint8]map[uint16]uint16
	fail        map[uint8]map[uint16]error
	connected   bool
	dialOK      bool
	dials       int
	disconnects int
	reads       []uint8
}

func newFakeLink() *fakeLink {
	return &fakeLink{
		regs:      make(map[uint8]map[uint16]uint16),
		fail:      make(map[uint8]map[uint16]error),
		connected: true,
		dialOK:    true,
	}
}

func (f *fakeLink) set(unit uint8, reg uint16, v uint16) {
	if f.regs[unit] == nil {
		f.regs[unit] = make(map[uint16]uint16)
	}
	f.regs[unit][reg] = v
}

func (f *fakeLink) setFloat(unit uint8, reg uint16, v float32) {
	bits := math.Float32bits(v)
	f.set(unit, reg, uint16(bits>>16))
	f.set(unit, reg+1, uint16(bits))
}

func (f *fakeLink) failAt(unit uint8, reg uint16, err error) {
	if f.fail[unit] == nil {
		f.fail[unit] = make(map[uint16]error)
	}
	f.fail[unit][reg] = err
}

func (f *fakeLink) ReadHoldingRegisters(unit uint8, addr, qty uint16) ([]uint16, error) {
	f.reads = append(f.reads, unit)
	if !f.connected {
		return nil, &pmodbus.ConnectionLostError{Err: pmodbus.ErrNotConnected}
	}
	if err := f.fail[unit][addr]; err != nil {
		if pmodbus.IsConnectionLost(err) {
			f.connected = false
		}
		return nil, err
	}
	out := make([]uint16, qty)
	for i := range out {
		out[i] = f.regs[unit][addr+uint16(i)]
	}
	return out, nil
}

func (f *fakeLink) EnsureConnected() bool {
	f.dials++
	f.connected = f.dialOK
	return f.connected
}

func (f *fakeLink) Connected() bool { return f.connected }

func (f *fakeLink) MarkDisconnected() {
	f.connected = false
	f.disconnects++
}

func testDevice(name string, addr uint8) cfg.Device {
	return cfg.Device{
		Name:          name,
		Address:       addr,
		CurrentWeight: cfg.SignalSpec{Register: 100, Count: 2, Type: decode.Float32, Order: decode.Normal},
		RecipeWeight:  cfg.SignalSpec{Register: 102, Count: 2, Type: decode.Float32, Order: decode.Normal},
		Ready:         cfg.SignalSpec{Register: 104, Count: 1, Type: decode.Bool, Order: decode.Normal},
	}
}

// ---- tests ----

func TestPollDevice_Success(t *testing.T) {
	link := newFakeLink()
	link.setFloat(1, 100, 42.5)
	link.setFloat(1, 102, 50)
	link.set(1, 104, 1)

	res := PollDevice(link, testDevice("k", 1))

	require.True(t, res.OK())
	assert.NoError(t, res.Err())
	assert.Equal(t, 42.5, res.Current.Value)
	assert.Equal(t, 50.0, res.Recipe.Value)
	assert.True(t, res.IsReady())
	assert.False(t, res.ConnectionLost())
	assert.Equal(t, []uint8{1, 1, 1}, link.reads)
}

func TestPollDevice_ReadsAreIsolated(t *testing.T) {
	link := newFakeLink()
	link.setFloat(1, 100, 10)
	link.set(1, 104, 1)
	link.failAt(1, 102, &modbus.ModbusError{FunctionCode: 0x83, ExceptionCode: 2})

	res := PollDevice(link, testDevice("k", 1))

	assert.False(t, res.OK())
	assert.NoError(t, res.Current.Err)
	assert.Equal(t, 10.0, res.Current.Value)
	assert.Error(t, res.Recipe.Err)
	assert.NoError(t, res.Ready.Err)
	assert.True(t, res.IsReady())
	assert.False(t, res.ConnectionLost())
	assert.ErrorContains(t, res.Err(), "recipe_weight")
	assert.Len(t, link.reads, 3, "a failed read does not skip the rest")
}

func TestPollDevice_ConnectionLost(t *testing.T) {
	link := newFakeLink()
	link.failAt(1, 100, io.EOF)

	res := PollDevice(link, testDevice("k", 1))

	assert.False(t, res.OK())
	assert.True(t, res.ConnectionLost())
	assert.True(t, errors.Is(res.Recipe.Err, pmodbus.ErrNotConnected))
}

func TestPollDevice_Equation(t *testing.T) {
	link := newFakeLink()
	d := testDevice("k", 1)
	d.CurrentWeight = cfg.SignalSpec{Register: 100, Count: 1, Type: decode.Uint16, Order: decode.Normal, Equation: "x / 10"}
	link.set(1, 100, 505)

	res := PollDevice(link, d)
	require.NoError(t, res.Current.Err)
	assert.Equal(t, 50.5, res.Current.Value)
}

func TestPollDevice_ReadyIsExactlyOne(t *testing.T) {
	link := newFakeLink()
	d := testDevice("k", 1)
	d.Ready = cfg.SignalSpec{Register: 104, Count: 1, Type: decode.Uint16, Order: decode.Normal}
	link.set(1, 104, 2)

	res := PollDevice(link, d)
	require.True(t, res.OK())
	assert.False(t, res.IsReady())
}

func TestPollDevice_NonFiniteIsFailedRead(t *testing.T) {
	link := newFakeLink()
	link.setFloat(1, 100, float32(math.Inf(1)))
	link.setFloat(1, 102, float32(math.NaN()))
	link.set(1, 104, 1)

	res := PollDevice(link, testDevice("k", 1))

	assert.False(t, res.OK())
	assert.ErrorIs(t, res.Current.Err, ErrNonFinite)
	assert.ErrorIs(t, res.Recipe.Err, ErrNonFinite)
	assert.NoError(t, res.Ready.Err)
	assert.False(t, res.ConnectionLost())
}
