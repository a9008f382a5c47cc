package score

import (
	"time"

	"fleetopt/internal/fleet"
)

// Penalty weights. Hard-tier values only need to be nonzero on violation;
// medium-tier overmileage is the real cost scaled ×100 so the solver
// optimizes actual money; soft-tier values are symbolic search biases.
const (
	// Hard tier.
	UnassignedRoutePenalty = 1_000_000
	OverlapPenalty         = 10_000
	ServiceBlockPenalty    = 10_000
	SwapCooldownPenalty    = 10_000
	hardOveragePerKm       = 100
	hardOverageCap         = 100_000

	// Medium tier.
	mediumOveragePerKm     = 92 // 0.92 PLN/km scaled for integer scoring
	criticalServicePenalty = 5_000
	nearServicePenalty     = 1_000

	// Soft tier.
	RepositionPenalty = 500
	overUtilSlope     = 100 // per percent above the comfortable band
	underUtilSlope    = 20  // per percent below it
	utilUpperPct      = 98
	utilLowerPct      = 70
	availRewardCap    = 200
)

// Evaluate scores a solution snapshot at the reference instant now. It is
// pure: one pass over the assignments plus a per-vehicle aggregation, no
// state kept between calls, so the solver may invoke it after every move.
func Evaluate(now time.Time, s *fleet.Solution) Score {
	var sc Score

	kmByVehicle := map[int]float64{}
	for i := range s.Assignments {
		a := &s.Assignments[i]
		id, ok := a.Vehicle.ID()
		if !ok {
			sc.Hard += UnassignedRoutePenalty
			continue
		}
		v := s.VehicleByID(id)
		if v == nil {
			// Dangling reference; score it like an unassigned route so
			// the solver never keeps it.
			sc.Hard += UnassignedRoutePenalty
			continue
		}
		kmByVehicle[id] += a.DistanceKm

		if !v.ServiceBlockedTill.IsZero() && a.StartTime.Before(v.ServiceBlockedTill) {
			sc.Hard += ServiceBlockPenalty
		}
		if !v.CanSwap(now) {
			sc.Hard += SwapCooldownPenalty
		}
		if v.CriticalService() {
			sc.Medium += criticalServicePenalty
		} else if v.NeedsService() {
			sc.Medium += nearServicePenalty
		}
		if v.CurrentLocationID != fleet.LocationUnknown && v.CurrentLocationID != a.StartLocationID {
			sc.Soft += RepositionPenalty
		}
	}

	for _, group := range s.AssignmentsByVehicle() {
		for i := 0; i < len(group); i++ {
			for j := i + 1; j < len(group); j++ {
				if group[i].Overlaps(group[j]) {
					sc.Hard += OverlapPenalty
				}
			}
		}
	}

	for i := range s.Vehicles {
		v := &s.Vehicles[i]
		routeKm := kmByVehicle[v.ID]
		projected := v.CurrentYearKm + int(routeKm)
		limit := v.ProportionalLimit(now)
		maxAllowed := limit + fleet.MaxOvermileageKm

		if projected > maxAllowed {
			over := int64(projected-maxAllowed) * hardOveragePerKm
			if over > hardOverageCap {
				over = hardOverageCap
			}
			sc.Hard += over
		}
		if projected > limit {
			over := projected - limit
			if over > fleet.MaxOvermileageKm {
				over = fleet.MaxOvermileageKm
			}
			sc.Medium += int64(over) * mediumOveragePerKm
		}

		if routeKm > 0 && limit > 0 {
			utilPct := projected * 100 / limit
			if utilPct > utilUpperPct {
				sc.Soft += int64(utilPct-utilUpperPct) * overUtilSlope
			} else if utilPct < utilLowerPct {
				sc.Soft += int64(utilLowerPct-utilPct) * underUtilSlope
			}
		}

		remaining := maxAllowed - projected
		if remaining < 0 {
			remaining = 0
		}
		reward := int64(remaining / 10)
		if reward > availRewardCap {
			reward = availRewardCap
		}
		sc.Soft -= reward
	}

	return sc
}
