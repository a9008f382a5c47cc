// Package cost computes the real monetary cost of a finalized solution:
// repositioning legs between consecutive assignments and per-vehicle
// overmileage. It runs once after the solver returns, never during search;
// the score package only carries a symbolic repositioning bias.
package cost

import (
	"sort"
	"time"

	"fleetopt/internal/fleet"
)

// Severity tags on overmileage line items.
const (
	SeverityWarning  = "WARNING"
	SeverityCritical = "CRITICAL"
)

// RepositioningDetail is one charged relocation leg.
type RepositioningDetail struct {
	RouteID             int     `json:"route_id"`
	VehicleID           int     `json:"vehicle_id"`
	VehicleRegistration string  `json:"vehicle_registration"`
	FromLocationID      int     `json:"from_location"`
	ToLocationID        int     `json:"to_location"`
	Cost                float64 `json:"cost_PLN"`
}

// OvermileageDetail is one vehicle's overmileage charge for the period.
type OvermileageDetail struct {
	VehicleID           int     `json:"vehicle_id"`
	VehicleRegistration string  `json:"vehicle_registration"`
	TotalKm             int     `json:"total_km"`
	LimitKm             int     `json:"limit_km"`
	MaxAllowedKm        int     `json:"max_allowed_km"`
	OverageKm           int     `json:"overage_km"`
	Cost                float64 `json:"cost_PLN"`
	Severity            string  `json:"severity"`
}

// Breakdown is the full monetary picture of one period's solution. Totals
// always equal the sum of their detail lists.
type Breakdown struct {
	TotalCost              float64               `json:"total_cost_PLN"`
	TotalRepositioningCost float64               `json:"repositioning_cost_PLN"`
	TotalOvermileageCost   float64               `json:"overmileage_cost_PLN"`
	Repositionings         []RepositioningDetail `json:"repositioning_details"`
	Overmileages           []OvermileageDetail   `json:"overmileage_details"`
}

// RepositioningCost prices relocating an empty truck between two
// locations: flat fee + per-km rate + driver hours at the empty-truck
// reference speed. Missing pairs use the table's fallback entry.
func RepositioningCost(distances fleet.DistanceTable, from, to int) float64 {
	d := distances.Between(from, to)
	hours := d.DistanceKm / fleet.EmptySpeedKmh
	return fleet.RepositionBaseCost +
		d.DistanceKm*fleet.RepositionCostPerKm +
		hours*fleet.RepositionCostPerHour
}

// Compute walks each vehicle's assignments chronologically and prices the
// period. No repositioning is charged for a vehicle's first assignment;
// afterwards a leg is charged whenever
// the previous end location differs from the next start location. Waiting
// at the same location is free regardless of the gap.
func Compute(now time.Time, s *fleet.Solution) Breakdown {
	b := Breakdown{
		Repositionings: []RepositioningDetail{},
		Overmileages:   []OvermileageDetail{},
	}

	groups := s.AssignmentsByVehicle()
	vehicleIDs := make([]int, 0, len(groups))
	for id := range groups {
		vehicleIDs = append(vehicleIDs, id)
	}
	sort.Ints(vehicleIDs)

	kmByVehicle := map[int]float64{}
	for _, id := range vehicleIDs {
		v := s.VehicleByID(id)
		if v == nil {
			continue
		}
		assignments := groups[id]
		for i, a := range assignments {
			kmByVehicle[id] += a.DistanceKm
			if i == 0 {
				continue
			}
			prevEnd := assignments[i-1].EndLocationID
			if prevEnd == a.StartLocationID {
				continue
			}
			c := RepositioningCost(s.Distances, prevEnd, a.StartLocationID)
			b.TotalRepositioningCost += c
			b.Repositionings = append(b.Repositionings, RepositioningDetail{
				RouteID:             a.RouteID,
				VehicleID:           v.ID,
				VehicleRegistration: v.Registration,
				FromLocationID:      prevEnd,
				ToLocationID:        a.StartLocationID,
				Cost:                c,
			})
		}
	}

	for i := range s.Vehicles {
		v := &s.Vehicles[i]
		total := v.CurrentYearKm + int(kmByVehicle[v.ID])
		limit := v.ProportionalLimit(now)
		maxAllowed := limit + fleet.MaxOvermileageKm
		if total <= limit {
			continue
		}
		overage := total - limit
		if overage > fleet.MaxOvermileageKm {
			overage = fleet.MaxOvermileageKm
		}
		c := float64(overage) * fleet.OvermileageCostPerKm
		severity := SeverityWarning
		if total > maxAllowed {
			severity = SeverityCritical
		}
		b.TotalOvermileageCost += c
		b.Overmileages = append(b.Overmileages, OvermileageDetail{
			VehicleID:           v.ID,
			VehicleRegistration: v.Registration,
			TotalKm:             total,
			LimitKm:             limit,
			MaxAllowedKm:        maxAllowed,
			OverageKm:           overage,
			Cost:                c,
			Severity:            severity,
		})
	}

	b.TotalCost = b.TotalRepositioningCost + b.TotalOvermileageCost
	return b
}
