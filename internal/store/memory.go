package store

import (
	"context"
	"sort"
	"strconv"
	"sync"
	"time"

	"fleetopt/internal/fleet"
	"fleetopt/internal/model"
)

// Memory is the in-memory store used when no DATABASE_URL is set and in
// tests. Seed it with fleet data, then hand it to the planner; loaders
// return copies so callers can mutate freely.
type Memory struct {
	mu        sync.Mutex
	vehicles  []fleet.Vehicle
	routes    []fleet.RouteAssignment
	distances fleet.DistanceTable
	results   map[string]model.PeriodResult
}

func NewMemory() *Memory {
	return &Memory{
		distances: fleet.NewDistanceTable(),
		results:   map[string]model.PeriodResult{},
	}
}

// Seed replaces the fleet data wholesale.
func (m *Memory) Seed(vehicles []fleet.Vehicle, routes []fleet.RouteAssignment, distances fleet.DistanceTable) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.vehicles = vehicles
	m.routes = routes
	m.distances = distances
}

func (m *Memory) LoadVehicles(ctx context.Context) ([]fleet.Vehicle, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]fleet.Vehicle, len(m.vehicles))
	copy(out, m.vehicles)
	return out, nil
}

func (m *Memory) LoadRoutes(ctx context.Context, start time.Time, days int) ([]fleet.RouteAssignment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	end := start.AddDate(0, 0, days)
	out := []fleet.RouteAssignment{}
	for _, r := range m.routes {
		if !r.StartTime.Before(start) && r.StartTime.Before(end) {
			r.Vehicle = fleet.Unassigned()
			out = append(out, r)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].StartTime.Equal(out[j].StartTime) {
			return out[i].RouteID < out[j].RouteID
		}
		return out[i].StartTime.Before(out[j].StartTime)
	})
	return out, nil
}

func (m *Memory) LoadDistances(ctx context.Context) (fleet.DistanceTable, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.distances, nil
}

func (m *Memory) SavePeriodResult(ctx context.Context, res model.PeriodResult) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.results[res.Month] = res
	return nil
}

func (m *Memory) GetPeriodResult(ctx context.Context, month string) (model.PeriodResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	res, ok := m.results[month]
	if !ok {
		return model.PeriodResult{}, ErrNotFound
	}
	return res, nil
}

func (m *Memory) ListPeriodResults(ctx context.Context, year int) ([]model.PeriodResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	prefix := strconv.Itoa(year) + "-"
	months := make([]string, 0, len(m.results))
	for month := range m.results {
		if year == 0 || len(month) >= len(prefix) && month[:len(prefix)] == prefix {
			months = append(months, month)
		}
	}
	sort.Strings(months)
	out := make([]model.PeriodResult, 0, len(months))
	for _, month := range months {
		out = append(out, m.results[month])
	}
	return out, nil
}

func (m *Memory) Ping(ctx context.Context) error { return nil }
