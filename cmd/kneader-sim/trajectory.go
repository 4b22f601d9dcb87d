// cmd/kneader-sim/trajectory.go
package main

import "math"

type phase uint8

const (
	phaseIdle phase = iota
	phaseFill
	phaseHold
	phaseDischarge
)

// kneader is one simulated weighing station. Each Tick advances the
// dosing cycle: idle, fill to the recipe weight, hold with the ready
// flag raised, then discharge back to zero.
type kneader struct {
	recipe float64
	step   float64 // kg added per tick while filling
	hold   int     // ticks spent at the recipe weight

	phase   phase
	current float64
	ready   bool
	ticks   int
}

func newKneader(recipe float64, fillTicks, hold int) *kneader {
	if fillTicks < 1 {
		fillTicks = 1
	}
	return &kneader{
		recipe: recipe,
		step:   recipe / float64(fillTicks),
		hold:   hold,
	}
}

func (k *kneader) Tick() {
	k.ticks++

	switch k.phase {
	case phaseIdle:
		if k.ticks >= 2 {
			k.enter(phaseFill)
		}

	case phaseFill:
		k.current = math.Min(k.current+k.step, k.recipe)
		if k.current >= k.recipe {
			k.enter(phaseHold)
		}

	case phaseHold:
		k.ready = true
		if k.ticks >= k.hold {
			k.enter(phaseDischarge)
		}

	case phaseDischarge:
		k.ready = false
		k.current = math.Max(k.current-k.recipe/2, 0)
		if k.current == 0 {
			k.enter(phaseIdle)
		}
	}
}

func (k *kneader) enter(p phase) {
	k.phase = p
	k.ticks = 0
}

// Registers renders the station as its three signals: current weight
// and recipe weight as big-endian float32 pairs, then the ready word.
func (k *kneader) Registers() [5]uint16 {
	var regs [5]uint16
	cur := math.Float32bits(float32(k.current))
	rec := math.Float32bits(float32(k.recipe))

	regs[0], regs[1] = uint16(cur>>16), uint16(cur)
	regs[2], regs[3] = uint16(rec>>16), uint16(rec)
	if k.ready {
		regs[4] = 1
	}
	return regs
}
