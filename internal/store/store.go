// Package store is the persistence boundary: fleet data in, period result
// documents out. Two implementations exist, an in-memory store for tests
// and storeless operation and a Postgres store over the pgx stdlib driver.
package store

import (
	"context"
	"errors"
	"time"

	"fleetopt/internal/fleet"
	"fleetopt/internal/model"
)

// Store is the persistence interface used by the planner and the API
// server. Loaders return fresh copies; callers may mutate what they get.
type Store interface {
	// Fleet data
	LoadVehicles(ctx context.Context) ([]fleet.Vehicle, error)
	LoadRoutes(ctx context.Context, start time.Time, days int) ([]fleet.RouteAssignment, error)
	LoadDistances(ctx context.Context) (fleet.DistanceTable, error)

	// Result documents, keyed by month ("2026-03"). Save replaces any
	// previous document for the same month.
	SavePeriodResult(ctx context.Context, res model.PeriodResult) error
	GetPeriodResult(ctx context.Context, month string) (model.PeriodResult, error)
	ListPeriodResults(ctx context.Context, year int) ([]model.PeriodResult, error)

	Ping(ctx context.Context) error
}

var ErrNotFound = errors.New("not found")

// MonthKey renders the canonical result-document key for a period start.
func MonthKey(t time.Time) string {
	return t.Format("2006-01")
}
