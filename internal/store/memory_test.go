package store

import (
	"context"
	"errors"
	"testing"
	"time"

	"fleetopt/internal/fleet"
	"fleetopt/internal/model"
)

func seededMemory() *Memory {
	m := NewMemory()
	day := func(d int) time.Time { return time.Date(2026, 3, d, 6, 0, 0, 0, time.UTC) }
	table := fleet.NewDistanceTable()
	table.Add(4, 7, fleet.LocationDistance{DistanceKm: 420, TimeHours: 5.5})
	m.Seed(
		[]fleet.Vehicle{{ID: 1, Registration: "WX 10001", AnnualLimitKm: 150000}},
		[]fleet.RouteAssignment{
			{RouteID: 101, StartLocationID: 4, EndLocationID: 7, DistanceKm: 420, StartTime: day(2), EndTime: day(2).Add(8 * time.Hour)},
			{RouteID: 102, StartLocationID: 7, EndLocationID: 4, DistanceKm: 420, StartTime: day(20), EndTime: day(20).Add(8 * time.Hour)},
			{RouteID: 103, StartLocationID: 4, EndLocationID: 7, DistanceKm: 420, StartTime: time.Date(2026, 4, 2, 6, 0, 0, 0, time.UTC), EndTime: time.Date(2026, 4, 2, 14, 0, 0, 0, time.UTC)},
		},
		table,
	)
	return m
}

func TestMemoryLoadRoutesWindow(t *testing.T) {
	m := seededMemory()
	routes, err := m.LoadRoutes(context.Background(), time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC), 31)
	if err != nil {
		t.Fatalf("LoadRoutes: %v", err)
	}
	if len(routes) != 2 {
		t.Fatalf("expected 2 routes in March, got %d", len(routes))
	}
	if routes[0].RouteID != 101 || routes[1].RouteID != 102 {
		t.Fatalf("bad order: %d, %d", routes[0].RouteID, routes[1].RouteID)
	}
	for _, r := range routes {
		if r.Vehicle.Assigned() {
			t.Fatalf("route %d loaded with a binding", r.RouteID)
		}
	}
}

func TestMemoryVehicleCopies(t *testing.T) {
	m := seededMemory()
	a, _ := m.LoadVehicles(context.Background())
	a[0].CurrentYearKm = 99999
	b, _ := m.LoadVehicles(context.Background())
	if b[0].CurrentYearKm != 0 {
		t.Fatal("mutation leaked into the store")
	}
}

func TestMemoryResultUpsert(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()

	if _, err := m.GetPeriodResult(ctx, "2026-03"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	first := model.PeriodResult{Month: "2026-03", Status: model.StatusInfeasible}
	if err := m.SavePeriodResult(ctx, first); err != nil {
		t.Fatalf("save: %v", err)
	}
	second := model.PeriodResult{Month: "2026-03", Status: model.StatusOptimal}
	if err := m.SavePeriodResult(ctx, second); err != nil {
		t.Fatalf("save: %v", err)
	}

	got, err := m.GetPeriodResult(ctx, "2026-03")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Status != model.StatusOptimal {
		t.Fatalf("upsert did not replace, status %s", got.Status)
	}
}

func TestMemoryListResultsByYear(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()
	for _, month := range []string{"2026-02", "2026-01", "2025-12"} {
		if err := m.SavePeriodResult(ctx, model.PeriodResult{Month: month, Status: model.StatusOptimal}); err != nil {
			t.Fatalf("save %s: %v", month, err)
		}
	}
	out, err := m.ListPeriodResults(ctx, 2026)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(out) != 2 || out[0].Month != "2026-01" || out[1].Month != "2026-02" {
		t.Fatalf("bad listing: %+v", out)
	}
	all, err := m.ListPeriodResults(ctx, 0)
	if err != nil {
		t.Fatalf("list all: %v", err)
	}
	if len(all) != 3 || all[0].Month != "2025-12" {
		t.Fatalf("bad full listing: %+v", all)
	}
}
