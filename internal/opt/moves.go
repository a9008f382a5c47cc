package opt

import (
	"math/rand"

	"fleetopt/internal/fleet"
)

const (
	moveRebind = iota
	moveSwap
)

// move records one in-place mutation with enough state to undo it.
type move struct {
	kind  int
	a, b  int
	prevA fleet.VehicleRef
	prevB fleet.VehicleRef
}

// proposeMove mutates s and returns the undo record. Rebinds dominate;
// the occasional binding swap shifts load between two vehicles in one
// step, which single rebinds only reach through an uphill intermediate.
func proposeMove(s *fleet.Solution, rng *rand.Rand) move {
	n := len(s.Assignments)
	if n > 1 && rng.Intn(4) == 0 {
		a := rng.Intn(n)
		b := rng.Intn(n)
		for b == a {
			b = rng.Intn(n)
		}
		mv := move{kind: moveSwap, a: a, b: b, prevA: s.Assignments[a].Vehicle, prevB: s.Assignments[b].Vehicle}
		s.Assignments[a].Vehicle, s.Assignments[b].Vehicle = mv.prevB, mv.prevA
		return mv
	}
	a := rng.Intn(n)
	mv := move{kind: moveRebind, a: a, prevA: s.Assignments[a].Vehicle}
	s.Assignments[a].Vehicle = randomRef(s, rng)
	return mv
}

func (mv move) undo(s *fleet.Solution) {
	s.Assignments[mv.a].Vehicle = mv.prevA
	if mv.kind == moveSwap {
		s.Assignments[mv.b].Vehicle = mv.prevB
	}
}
