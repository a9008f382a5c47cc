// Package validate re-derives feasibility from a finalized solution,
// independently of the solver's score bookkeeping. It is the acceptance
// gate in front of persistence: a scorer or search bug must never let an
// infeasible plan become the system of record.
package validate

import (
	"fmt"
	"sort"
	"time"

	"fleetopt/internal/fleet"
	"fleetopt/internal/score"
)

// Result carries the gate's verdict. Errors block acceptance; warnings
// are informational and never block.
type Result struct {
	Valid    bool     `json:"valid"`
	Errors   []string `json:"errors"`
	Warnings []string `json:"warnings"`
}

// Check validates a solved snapshot against the reported score. All
// checks recompute from raw state; the score is only consulted for the
// final hard-component cross-check.
func Check(now time.Time, s *fleet.Solution, reported score.Score) Result {
	r := Result{Errors: []string{}, Warnings: []string{}}

	if unassigned := s.UnassignedCount(); unassigned > 0 {
		r.Errors = append(r.Errors, fmt.Sprintf("CRITICAL: %d routes NOT assigned", unassigned))
	}

	kmByVehicle := s.AssignedKmByVehicle()
	ids := make([]int, 0, len(s.Vehicles))
	for i := range s.Vehicles {
		ids = append(ids, s.Vehicles[i].ID)
	}
	sort.Ints(ids)

	for _, id := range ids {
		v := s.VehicleByID(id)
		routeKm := int(kmByVehicle[id])
		total := v.CurrentYearKm + routeKm
		limit := v.ProportionalLimit(now)
		maxAllowed := limit + fleet.MaxOvermileageKm

		if total > maxAllowed {
			r.Errors = append(r.Errors, fmt.Sprintf(
				"CRITICAL: vehicle %s EXCEEDS limit by %dkm (total: %dkm, max: %dkm)",
				v.Registration, total-maxAllowed, total, maxAllowed))
		} else if total > limit {
			r.Warnings = append(r.Warnings, fmt.Sprintf(
				"vehicle %s in overmileage: +%dkm (total: %dkm, limit: %dkm)",
				v.Registration, total-limit, total, limit))
		}

		newOdometer := v.CurrentOdometerKm + routeKm
		sinceService := newOdometer - v.LastServiceKm
		interval := v.ServiceIntervalKm()
		if sinceService > interval+fleet.ServiceToleranceKm {
			r.Errors = append(r.Errors, fmt.Sprintf(
				"CRITICAL: vehicle %s EXCEEDS service interval by %dkm (since last: %dkm, interval: %dkm)",
				v.Registration, sinceService-interval, sinceService, interval))
		} else if sinceService > interval-fleet.ServiceToleranceKm && sinceService <= interval {
			r.Warnings = append(r.Warnings, fmt.Sprintf(
				"vehicle %s approaching service in %dkm",
				v.Registration, interval-sinceService))
		}
	}

	if reported.Hard != 0 {
		r.Errors = append(r.Errors, fmt.Sprintf("hard constraints violated, score: %s", reported))
	}

	r.Valid = len(r.Errors) == 0
	return r
}
