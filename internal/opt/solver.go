// Package opt defines the contract the orchestrator holds against the
// combinatorial search engine, plus a local-search implementation of it.
// The orchestrator never depends on how the search works, only on Solve
// returning the best snapshot found within the time budget and reporting
// interruption as a distinguishable outcome.
package opt

import (
	"context"
	"errors"
	"time"

	"fleetopt/internal/fleet"
	"fleetopt/internal/score"
)

// ErrInterrupted is returned when the caller's context ends before the
// solver finishes its time budget. The partial solution is discarded; an
// interrupted solve must never be mistaken for a completed one.
var ErrInterrupted = errors.New("solve interrupted")

// Objective scores a candidate snapshot. Implementations must be pure so
// the solver can call it after every move.
type Objective func(*fleet.Solution) score.Score

// Metrics describes one solve run.
type Metrics struct {
	Iterations    int
	Improvements  int
	AcceptedWorse int
	BestScore     score.Score
	Elapsed       time.Duration
}

// Result is a completed solve: the best snapshot found, its score and the
// run metrics. The snapshot is owned by the caller; the solver keeps no
// reference to it.
type Result struct {
	Solution *fleet.Solution
	Score    score.Score
	Metrics  Metrics
}

// Solver is the external-optimizer contract: best-effort lexicographic
// minimization of (hard, medium, soft) within the budget.
type Solver interface {
	Solve(ctx context.Context, problem *fleet.Solution, obj Objective, budget time.Duration) (Result, error)
}
