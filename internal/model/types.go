// Package model holds the wire and persistence document types: the
// per-period result document, the year report, API request bodies and the
// lifecycle events published on the broker.
package model

import (
	"time"

	"fleetopt/internal/cost"
	"fleetopt/internal/validate"
)

// Result document statuses.
const (
	StatusOptimal    = "OPTIMAL"
	StatusInfeasible = "INFEASIBLE"
	StatusError      = "ERROR"
)

// Year-run statuses.
const (
	RunRunning   = "RUNNING"
	RunCompleted = "COMPLETED"
	RunFailed    = "FAILED"
)

// PeriodWindow is the date range a result covers.
type PeriodWindow struct {
	StartDate string `json:"start_date"`
	EndDate   string `json:"end_date"`
	Days      int    `json:"days"`
}

// CostTotals is the monetary summary of a period.
type CostTotals struct {
	TotalPLN         float64 `json:"total_cost_PLN"`
	RepositioningPLN float64 `json:"repositioning_cost_PLN"`
	OvermileagePLN   float64 `json:"overmileage_cost_PLN"`
}

// Statistics summarizes the solved assignment.
type Statistics struct {
	TotalRoutes        int     `json:"total_routes"`
	AssignedRoutes     int     `json:"assigned_routes"`
	UnassignedRoutes   int     `json:"unassigned_routes"`
	VehiclesUsed       int     `json:"vehicles_used"`
	TotalKm            float64 `json:"total_km"`
	RepositioningCount int     `json:"repositioning_count"`
}

// AssignmentRecord is one flattened route→vehicle binding in the result
// document. VehicleID is nil when the route stayed unassigned.
type AssignmentRecord struct {
	RouteID             int     `json:"route_id"`
	VehicleID           *int    `json:"vehicle_id"`
	VehicleRegistration string  `json:"vehicle_registration,omitempty"`
	StartLocationID     int     `json:"start_location"`
	EndLocationID       int     `json:"end_location"`
	DistanceKm          float64 `json:"distance_km"`
	StartTime           string  `json:"start_time"`
	EndTime             string  `json:"end_time"`
}

// PeriodResult is the persisted outcome of one optimization period, keyed
// by month ("2026-03"). Upserts replace the previous document for the
// same key.
type PeriodResult struct {
	Month              string                     `json:"month"`
	Period             PeriodWindow               `json:"period"`
	Status             string                     `json:"status"`
	Score              string                     `json:"score,omitempty"`
	ComputationTimeSec float64                    `json:"computation_time_sec"`
	Validation         *validate.Result           `json:"validation,omitempty"`
	Costs              *CostTotals                `json:"costs,omitempty"`
	Repositionings     []cost.RepositioningDetail `json:"repositioning_details,omitempty"`
	Overmileages       []cost.OvermileageDetail   `json:"overmileage_details,omitempty"`
	Statistics         *Statistics                `json:"statistics,omitempty"`
	Assignments        []AssignmentRecord         `json:"assignments,omitempty"`
	Error              string                     `json:"error,omitempty"`
	CreatedAt          time.Time                  `json:"created_at"`
}

// PeriodSummary is one line of a year report.
type PeriodSummary struct {
	Month              string  `json:"month"`
	Status             string  `json:"status"`
	Score              string  `json:"score,omitempty"`
	Accepted           bool    `json:"accepted"`
	TotalCostPLN       float64 `json:"total_cost_PLN"`
	ComputationTimeSec float64 `json:"computation_time_sec"`
	Error              string  `json:"error,omitempty"`
}

// YearReport aggregates a sequential year run.
type YearReport struct {
	Year                    int             `json:"year"`
	Periods                 []PeriodSummary `json:"periods"`
	Accepted                int             `json:"accepted"`
	Rejected                int             `json:"rejected"`
	Errors                  int             `json:"errors"`
	TotalComputationTimeSec float64         `json:"total_computation_time_sec"`
}

// Run is the poll state of a background year run.
type Run struct {
	ID         string      `json:"id"`
	Status     string      `json:"status"`
	Year       int         `json:"year"`
	StartedAt  time.Time   `json:"started_at"`
	FinishedAt *time.Time  `json:"finished_at,omitempty"`
	Report     *YearReport `json:"report,omitempty"`
	Error      string      `json:"error,omitempty"`
}

// OptimizeRequest is the body of POST /v1/optimize.
type OptimizeRequest struct {
	StartDate string `json:"start_date"`
	Days      int    `json:"days,omitempty"`
	BudgetSec int    `json:"budget_sec,omitempty"`
	Seed      int64  `json:"seed,omitempty"`
}

// YearRequest is the body of POST /v1/optimize/year.
type YearRequest struct {
	Year      int   `json:"year"`
	BudgetSec int   `json:"budget_sec,omitempty"`
	Seed      int64 `json:"seed,omitempty"`
}

// Event is a period lifecycle notification published on the broker.
type Event struct {
	Type   string `json:"type"` // period.solved, period.accepted, period.rejected, run.completed
	RunID  string `json:"run_id,omitempty"`
	Month  string `json:"month,omitempty"`
	Status string `json:"status,omitempty"`
	Score  string `json:"score,omitempty"`
	TS     string `json:"ts"`
}

// ConfigSnapshot is the constants view served by GET /v1/config.
type ConfigSnapshot struct {
	OvermileageAllowanceKm  int     `json:"overmileage_allowance_km"`
	OvermileageCostPerKmPLN float64 `json:"overmileage_cost_per_km_PLN"`
	RepositionBasePLN       float64 `json:"reposition_base_PLN"`
	RepositionPerKmPLN      float64 `json:"reposition_per_km_PLN"`
	RepositionPerHourPLN    float64 `json:"reposition_per_hour_PLN"`
	EmptySpeedKmh           float64 `json:"empty_speed_kmh"`
	SwapCooldownDays        int     `json:"swap_cooldown_days"`
	ServiceToleranceKm      int     `json:"service_tolerance_km"`
	DefaultDistanceKm       float64 `json:"default_distance_km"`
	DefaultTimeHours        float64 `json:"default_time_hours"`
	DefaultBudgetSec        int     `json:"default_budget_sec"`
}
