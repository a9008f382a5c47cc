package opt

import (
	"context"
	"math"
	"math/rand"
	"time"

	"fleetopt/internal/fleet"
	"fleetopt/internal/score"
)

// LocalSearch is a greedy-seeded simulated-annealing search over the
// assignment→vehicle relations. Moves rebind one assignment (to another
// vehicle or to unassigned) or swap two bindings; acceptance follows the usual
// annealing schedule on a scalarized score, while the tracked best is
// compared strictly lexicographically.
type LocalSearch struct {
	Seed     int64
	InitTemp float64
	Cooling  float64
}

func NewLocalSearch(seed int64) *LocalSearch {
	return &LocalSearch{Seed: seed, InitTemp: 1000, Cooling: 0.997}
}

func (ls *LocalSearch) Solve(ctx context.Context, problem *fleet.Solution, obj Objective, budget time.Duration) (Result, error) {
	seed := ls.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	rng := rand.New(rand.NewSource(seed))

	started := time.Now()
	deadline := started.Add(budget)

	curr := problem.Clone()
	greedySeed(curr, obj)
	currScore := obj(curr)

	best := curr.Clone()
	bestScore := currScore

	temp := ls.InitTemp
	if temp <= 0 {
		temp = 1000
	}
	cool := ls.Cooling
	if cool <= 0 || cool >= 1 {
		cool = 0.997
	}

	m := Metrics{BestScore: bestScore}
	for len(curr.Assignments) > 0 && len(curr.Vehicles) > 0 && time.Now().Before(deadline) {
		select {
		case <-ctx.Done():
			return Result{}, ErrInterrupted
		default:
		}
		m.Iterations++

		mv := proposeMove(curr, rng)
		cand := obj(curr)

		delta := scalar(cand) - scalar(currScore)
		if delta < 0 || rng.Float64() < math.Exp(-delta/(temp+1e-9)) {
			currScore = cand
			if cand.Better(bestScore) {
				best = curr.Clone()
				bestScore = cand
				m.Improvements++
			} else if delta > 0 {
				m.AcceptedWorse++
			}
		} else {
			mv.undo(curr)
		}
		temp *= cool
	}

	select {
	case <-ctx.Done():
		return Result{}, ErrInterrupted
	default:
	}

	m.BestScore = bestScore
	m.Elapsed = time.Since(started)
	return Result{Solution: best, Score: bestScore, Metrics: m}, nil
}

// greedySeed assigns each route to the vehicle that scores best right
// now, routes in chronological order so earlier departures claim slack
// first. Leaving a route unassigned is always a candidate; the unassigned
// penalty makes it the choice of last resort.
func greedySeed(s *fleet.Solution, obj Objective) {
	order := make([]int, len(s.Assignments))
	for i := range order {
		order[i] = i
	}
	for i := 0; i < len(order); i++ {
		for j := i + 1; j < len(order); j++ {
			a, b := &s.Assignments[order[i]], &s.Assignments[order[j]]
			if b.StartTime.Before(a.StartTime) {
				order[i], order[j] = order[j], order[i]
			}
		}
	}

	for _, idx := range order {
		bestRef := fleet.Unassigned()
		s.Assignments[idx].Vehicle = bestRef
		bestScore := obj(s)
		for vi := range s.Vehicles {
			s.Assignments[idx].Vehicle = fleet.AssignedTo(s.Vehicles[vi].ID)
			if sc := obj(s); sc.Better(bestScore) {
				bestScore = sc
				bestRef = s.Assignments[idx].Vehicle
			}
		}
		s.Assignments[idx].Vehicle = bestRef
	}
}

// randomRef draws a move target: one of the vehicles, or unassigned with
// small probability so the search can escape overfull vehicles.
func randomRef(s *fleet.Solution, rng *rand.Rand) fleet.VehicleRef {
	if rng.Intn(20) == 0 {
		return fleet.Unassigned()
	}
	return fleet.AssignedTo(s.Vehicles[rng.Intn(len(s.Vehicles))].ID)
}

// scalar collapses the lexicographic score for the annealing acceptance
// test. Tier spreads stay far apart so a hard unit always outweighs any
// realistic medium/soft mass.
func scalar(sc score.Score) float64 {
	return float64(sc.Hard)*1e9 + float64(sc.Medium)*1e3 + float64(sc.Soft)
}
