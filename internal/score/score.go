// Package score implements the three-tier lexicographic objective consumed
// by the solver. Scores are penalty units: zero is perfect, higher is
// worse, and the hard tier dominates the medium and soft tiers entirely.
package score

import "fmt"

// Score is a (hard, medium, soft) penalty triple. Any nonzero hard value
// marks the solution infeasible regardless of the other tiers.
type Score struct {
	Hard   int64
	Medium int64
	Soft   int64
}

// Feasible reports whether no hard constraint is violated.
func (s Score) Feasible() bool { return s.Hard == 0 }

// Add returns the component-wise sum.
func (s Score) Add(o Score) Score {
	return Score{Hard: s.Hard + o.Hard, Medium: s.Medium + o.Medium, Soft: s.Soft + o.Soft}
}

// Compare orders scores lexicographically: -1 when s is better (lower
// penalty), +1 when worse, 0 when equal.
func (s Score) Compare(o Score) int {
	cmp := func(a, b int64) int {
		switch {
		case a < b:
			return -1
		case a > b:
			return 1
		default:
			return 0
		}
	}
	if c := cmp(s.Hard, o.Hard); c != 0 {
		return c
	}
	if c := cmp(s.Medium, o.Medium); c != 0 {
		return c
	}
	return cmp(s.Soft, o.Soft)
}

// Better reports whether s strictly beats o.
func (s Score) Better(o Score) bool { return s.Compare(o) < 0 }

func (s Score) String() string {
	return fmt.Sprintf("%dhard/%dmedium/%dsoft", s.Hard, s.Medium, s.Soft)
}
