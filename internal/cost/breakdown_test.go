package cost

import (
	"math"
	"testing"
	"time"

	"fleetopt/internal/fleet"
)

var now = time.Date(2025, time.June, 15, 12, 0, 0, 0, time.UTC)

func almostEqual(a, b float64) bool { return math.Abs(a-b) < 1e-9 }

func TestRepositioningCostFallback(t *testing.T) {
	// No 3-7 entry: fallback 300 km -> 1000 + 300 + (300/80)*150 = 1862.5.
	got := RepositioningCost(fleet.NewDistanceTable(), 3, 7)
	if !almostEqual(got, 1862.5) {
		t.Fatalf("fallback repositioning cost: got %v, want 1862.5", got)
	}
}

func TestRepositioningCostFromTable(t *testing.T) {
	tbl := fleet.NewDistanceTable()
	tbl.Add(1, 2, fleet.LocationDistance{DistanceKm: 160, TimeHours: 2})
	// 1000 + 160 + (160/80)*150 = 1460.
	if got := RepositioningCost(tbl, 2, 1); !almostEqual(got, 1460) {
		t.Fatalf("table repositioning cost: got %v, want 1460", got)
	}
}

func TestNoRepositioningForFirstOrMatchingLegs(t *testing.T) {
	t0 := now
	sol := fleet.NewSolution(
		[]fleet.Vehicle{{ID: 1, Registration: "WX 1001", AnnualLimitKm: 300000, CurrentLocationID: 5}},
		[]fleet.RouteAssignment{
			// First assignment: no charge even though the vehicle sits elsewhere.
			{RouteID: 1, StartLocationID: 9, EndLocationID: 4, DistanceKm: 100, StartTime: t0, EndTime: t0.Add(8 * time.Hour), Vehicle: fleet.AssignedTo(1)},
			// Continues from location 4: waiting is free.
			{RouteID: 2, StartLocationID: 4, EndLocationID: 2, DistanceKm: 50, StartTime: t0.Add(72 * time.Hour), EndTime: t0.Add(80 * time.Hour), Vehicle: fleet.AssignedTo(1)},
		},
		fleet.NewDistanceTable(),
	)
	b := Compute(now, sol)
	if b.TotalRepositioningCost != 0 || len(b.Repositionings) != 0 {
		t.Fatalf("expected no repositioning, got %+v", b.Repositionings)
	}
}

func TestRepositioningChargedBetweenMismatchedLegs(t *testing.T) {
	t0 := now
	tbl := fleet.NewDistanceTable()
	tbl.Add(4, 8, fleet.LocationDistance{DistanceKm: 80, TimeHours: 1})
	sol := fleet.NewSolution(
		[]fleet.Vehicle{{ID: 1, Registration: "WX 1001", AnnualLimitKm: 300000, CurrentLocationID: fleet.LocationUnknown}},
		[]fleet.RouteAssignment{
			{RouteID: 1, StartLocationID: 9, EndLocationID: 4, DistanceKm: 100, StartTime: t0, EndTime: t0.Add(8 * time.Hour), Vehicle: fleet.AssignedTo(1)},
			{RouteID: 2, StartLocationID: 8, EndLocationID: 2, DistanceKm: 50, StartTime: t0.Add(24 * time.Hour), EndTime: t0.Add(30 * time.Hour), Vehicle: fleet.AssignedTo(1)},
		},
		tbl,
	)
	b := Compute(now, sol)
	if len(b.Repositionings) != 1 {
		t.Fatalf("expected one repositioning leg, got %d", len(b.Repositionings))
	}
	d := b.Repositionings[0]
	if d.RouteID != 2 || d.FromLocationID != 4 || d.ToLocationID != 8 {
		t.Fatalf("wrong leg: %+v", d)
	}
	// 1000 + 80 + (80/80)*150 = 1230.
	if !almostEqual(d.Cost, 1230) || !almostEqual(b.TotalRepositioningCost, 1230) {
		t.Fatalf("leg cost: got %v", d.Cost)
	}
}

func TestOvermileageSeverity(t *testing.T) {
	sol := fleet.NewSolution(
		[]fleet.Vehicle{
			{ID: 1, Registration: "WX 1", AnnualLimitKm: 1000, CurrentYearKm: 950},
			{ID: 2, Registration: "WX 2", AnnualLimitKm: 1000, CurrentYearKm: 1400},
			{ID: 3, Registration: "WX 3", AnnualLimitKm: 1000, CurrentYearKm: 100},
		},
		[]fleet.RouteAssignment{
			{RouteID: 1, DistanceKm: 100, StartTime: now, EndTime: now.Add(time.Hour), Vehicle: fleet.AssignedTo(1)},
		},
		fleet.NewDistanceTable(),
	)
	b := Compute(now, sol)
	if len(b.Overmileages) != 2 {
		t.Fatalf("expected 2 overmileage items, got %d", len(b.Overmileages))
	}
	warn := b.Overmileages[0]
	if warn.VehicleID != 1 || warn.Severity != SeverityWarning {
		t.Fatalf("vehicle 1: %+v", warn)
	}
	// min(1050-1000, 300) * 0.92 = 46.
	if warn.OverageKm != 50 || !almostEqual(warn.Cost, 46.0) {
		t.Fatalf("vehicle 1 charge: %+v", warn)
	}
	crit := b.Overmileages[1]
	if crit.VehicleID != 2 || crit.Severity != SeverityCritical {
		t.Fatalf("vehicle 2: %+v", crit)
	}
	// Overage capped at the 300 km allowance.
	if crit.OverageKm != 300 || !almostEqual(crit.Cost, 276.0) {
		t.Fatalf("vehicle 2 charge: %+v", crit)
	}
}

func TestTotalsReconcile(t *testing.T) {
	t0 := now
	sol := fleet.NewSolution(
		[]fleet.Vehicle{{ID: 1, Registration: "WX 1", AnnualLimitKm: 1000, CurrentYearKm: 980, CurrentLocationID: fleet.LocationUnknown}},
		[]fleet.RouteAssignment{
			{RouteID: 1, StartLocationID: 1, EndLocationID: 2, DistanceKm: 30, StartTime: t0, EndTime: t0.Add(4 * time.Hour), Vehicle: fleet.AssignedTo(1)},
			{RouteID: 2, StartLocationID: 5, EndLocationID: 1, DistanceKm: 40, StartTime: t0.Add(24 * time.Hour), EndTime: t0.Add(28 * time.Hour), Vehicle: fleet.AssignedTo(1)},
		},
		fleet.NewDistanceTable(),
	)
	b := Compute(now, sol)

	var repo, over float64
	for _, d := range b.Repositionings {
		repo += d.Cost
	}
	for _, d := range b.Overmileages {
		over += d.Cost
	}
	if !almostEqual(b.TotalRepositioningCost, repo) || !almostEqual(b.TotalOvermileageCost, over) {
		t.Fatalf("subtotals do not match line items: %+v", b)
	}
	if !almostEqual(b.TotalCost, repo+over) {
		t.Fatalf("total %v != %v + %v", b.TotalCost, repo, over)
	}
}
