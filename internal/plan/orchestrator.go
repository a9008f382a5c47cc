// Package plan drives the monthly rollover: load a period's data, hand it
// to the solver, price and validate the outcome, and fold accepted state
// into the fleet before the next period. A rejected period leaves the
// fleet exactly as the last accepted one did; the run continues.
package plan

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/rs/zerolog"

	"fleetopt/internal/cost"
	"fleetopt/internal/fleet"
	"fleetopt/internal/metrics"
	"fleetopt/internal/model"
	"fleetopt/internal/opt"
	"fleetopt/internal/score"
	"fleetopt/internal/store"
	"fleetopt/internal/validate"
)

// DefaultBudget is the per-period solver budget when none is requested.
const DefaultBudget = 300 * time.Second

// EventSink receives period lifecycle events. Publish must not block.
type EventSink interface {
	Publish(evt model.Event)
}

// Planner owns the rollover loop. Now is injectable so tests control the
// clock; Events may be nil.
type Planner struct {
	Store  store.Store
	Solver opt.Solver
	Events EventSink
	Now    func() time.Time
	Budget time.Duration
	Log    zerolog.Logger
}

func New(st store.Store, solver opt.Solver) *Planner {
	return &Planner{
		Store:  st,
		Solver: solver,
		Now:    time.Now,
		Budget: DefaultBudget,
		Log:    zerolog.Nop(),
	}
}

// Optimize solves a single period on freshly loaded fleet state, persists
// the result when the gate passes, and returns the result document either
// way. Interruption propagates as opt.ErrInterrupted.
func (p *Planner) Optimize(ctx context.Context, start time.Time, days int, budget time.Duration) (model.PeriodResult, error) {
	vehicles, err := p.Store.LoadVehicles(ctx)
	if err != nil {
		return p.errorResult(start, days, fmt.Errorf("load vehicles: %w", err)), nil
	}
	distances, err := p.Store.LoadDistances(ctx)
	if err != nil {
		return p.errorResult(start, days, fmt.Errorf("load distances: %w", err)), nil
	}

	doc, sol, err := p.solvePeriod(ctx, vehicles, distances, start, days, budget)
	if err != nil {
		return model.PeriodResult{}, err
	}
	p.finishPeriod(ctx, &doc, sol, vehicles, "")
	return doc, nil
}

// OptimizeYear runs twelve sequential monthly periods for a calendar
// year. Fleet state is loaded once; accepted periods fold their accrual
// forward, rejected and errored ones do not. The report covers every
// period reached before interruption.
func (p *Planner) OptimizeYear(ctx context.Context, year int, budget time.Duration, runID string) (model.YearReport, error) {
	report := model.YearReport{Year: year, Periods: []model.PeriodSummary{}}

	vehicles, err := p.Store.LoadVehicles(ctx)
	if err != nil {
		return report, fmt.Errorf("load vehicles: %w", err)
	}
	distances, err := p.Store.LoadDistances(ctx)
	if err != nil {
		return report, fmt.Errorf("load distances: %w", err)
	}

	for month := 1; month <= 12; month++ {
		start := time.Date(year, time.Month(month), 1, 0, 0, 0, 0, time.UTC)
		days := daysInMonth(start)

		doc, sol, err := p.solvePeriod(ctx, vehicles, distances, start, days, budget)
		if err != nil {
			return report, err
		}
		accepted := p.finishPeriod(ctx, &doc, sol, vehicles, runID)

		line := model.PeriodSummary{
			Month:              doc.Month,
			Status:             doc.Status,
			Score:              doc.Score,
			Accepted:           accepted,
			ComputationTimeSec: doc.ComputationTimeSec,
			Error:              doc.Error,
		}
		if doc.Costs != nil {
			line.TotalCostPLN = doc.Costs.TotalPLN
		}
		report.Periods = append(report.Periods, line)
		report.TotalComputationTimeSec += doc.ComputationTimeSec
		switch {
		case accepted:
			report.Accepted++
		case doc.Status == model.StatusError:
			report.Errors++
		default:
			report.Rejected++
		}
	}

	p.publish(model.Event{Type: "run.completed", RunID: runID, Status: model.RunCompleted})
	return report, nil
}

// solvePeriod runs the solver on one period without touching vehicle
// state. Data problems produce an ERROR document rather than a Go error;
// only interruption aborts.
func (p *Planner) solvePeriod(ctx context.Context, vehicles []fleet.Vehicle, distances fleet.DistanceTable, start time.Time, days int, budget time.Duration) (model.PeriodResult, *fleet.Solution, error) {
	month := store.MonthKey(start)
	if budget <= 0 {
		budget = p.Budget
	}

	if len(vehicles) == 0 {
		return p.errorResult(start, days, fmt.Errorf("no vehicles available for period %s", month)), nil, nil
	}
	routes, err := p.Store.LoadRoutes(ctx, start, days)
	if err != nil {
		return p.errorResult(start, days, fmt.Errorf("load routes: %w", err)), nil, nil
	}
	if len(routes) == 0 {
		return p.errorResult(start, days, fmt.Errorf("no routes in period %s", month)), nil, nil
	}

	evalAt := start.AddDate(0, 0, days)
	obj := func(s *fleet.Solution) score.Score { return score.Evaluate(evalAt, s) }

	snapshot := make([]fleet.Vehicle, len(vehicles))
	copy(snapshot, vehicles)
	problem := fleet.NewSolution(snapshot, routes, distances)

	p.Log.Info().Str("month", month).Int("routes", len(routes)).Int("vehicles", len(snapshot)).Msg("solving period")
	res, err := p.Solver.Solve(ctx, problem, obj, budget)
	if err != nil {
		if errors.Is(err, opt.ErrInterrupted) {
			return model.PeriodResult{}, nil, err
		}
		return p.errorResult(start, days, fmt.Errorf("solve: %w", err)), nil, nil
	}
	metrics.SolveDuration.Observe(res.Metrics.Elapsed.Seconds())
	metrics.SolverIterations.Add(float64(res.Metrics.Iterations))

	breakdown := cost.Compute(evalAt, res.Solution)
	gate := validate.Check(evalAt, res.Solution, res.Score)

	doc := buildResult(month, start, days, res, breakdown, gate)
	doc.CreatedAt = p.Now().UTC()
	return doc, res.Solution, nil
}

// finishPeriod applies the accept/reject decision: persist and fold on a
// valid gate, leave state untouched otherwise. Reports acceptance.
func (p *Planner) finishPeriod(ctx context.Context, doc *model.PeriodResult, sol *fleet.Solution, vehicles []fleet.Vehicle, runID string) bool {
	if doc.Status == model.StatusError {
		metrics.PeriodOutcomes.WithLabelValues(doc.Status).Inc()
		p.Log.Warn().Str("month", doc.Month).Str("error", doc.Error).Msg("period errored")
		return false
	}

	p.publish(model.Event{Type: "period.solved", RunID: runID, Month: doc.Month, Status: doc.Status, Score: doc.Score})

	if doc.Status != model.StatusOptimal {
		metrics.PeriodOutcomes.WithLabelValues(doc.Status).Inc()
		p.publish(model.Event{Type: "period.rejected", RunID: runID, Month: doc.Month, Status: doc.Status, Score: doc.Score})
		p.Log.Warn().Str("month", doc.Month).Str("score", doc.Score).Msg("period rejected")
		return false
	}

	if err := p.Store.SavePeriodResult(ctx, *doc); err != nil {
		doc.Status = model.StatusError
		doc.Error = fmt.Sprintf("save result: %v", err)
		metrics.PeriodOutcomes.WithLabelValues(doc.Status).Inc()
		p.Log.Error().Err(err).Str("month", doc.Month).Msg("persist failed")
		return false
	}

	fold(vehicles, sol)
	metrics.PeriodOutcomes.WithLabelValues(doc.Status).Inc()
	p.publish(model.Event{Type: "period.accepted", RunID: runID, Month: doc.Month, Status: doc.Status, Score: doc.Score})
	p.Log.Info().Str("month", doc.Month).Str("score", doc.Score).Msg("period accepted")
	return true
}

// fold carries an accepted period's accrual into the fleet: driven km
// onto the year counter and odometer, and each used vehicle ends up at
// its chronologically last end location.
func fold(vehicles []fleet.Vehicle, sol *fleet.Solution) {
	km := sol.AssignedKmByVehicle()
	groups := sol.AssignmentsByVehicle()
	for i := range vehicles {
		v := &vehicles[i]
		g := groups[v.ID]
		if len(g) == 0 {
			continue
		}
		driven := int(km[v.ID])
		v.CurrentYearKm += driven
		v.CurrentOdometerKm += driven
		v.CurrentLocationID = g[len(g)-1].EndLocationID
	}
}

func buildResult(month string, start time.Time, days int, res opt.Result, breakdown cost.Breakdown, gate validate.Result) model.PeriodResult {
	sol := res.Solution
	status := model.StatusOptimal
	if !gate.Valid {
		status = model.StatusInfeasible
	}

	stats := model.Statistics{
		TotalRoutes:        len(sol.Assignments),
		UnassignedRoutes:   sol.UnassignedCount(),
		VehiclesUsed:       len(sol.AssignmentsByVehicle()),
		RepositioningCount: len(breakdown.Repositionings),
	}
	stats.AssignedRoutes = stats.TotalRoutes - stats.UnassignedRoutes
	for _, driven := range sol.AssignedKmByVehicle() {
		stats.TotalKm += driven
	}

	records := make([]model.AssignmentRecord, 0, len(sol.Assignments))
	for i := range sol.Assignments {
		a := &sol.Assignments[i]
		rec := model.AssignmentRecord{
			RouteID:         a.RouteID,
			StartLocationID: a.StartLocationID,
			EndLocationID:   a.EndLocationID,
			DistanceKm:      a.DistanceKm,
			StartTime:       a.StartTime.UTC().Format(time.RFC3339),
			EndTime:         a.EndTime.UTC().Format(time.RFC3339),
		}
		if id, ok := a.Vehicle.ID(); ok {
			vid := id
			rec.VehicleID = &vid
			if v := sol.VehicleByID(id); v != nil {
				rec.VehicleRegistration = v.Registration
			}
		}
		records = append(records, rec)
	}
	sort.Slice(records, func(i, j int) bool { return records[i].RouteID < records[j].RouteID })

	return model.PeriodResult{
		Month: month,
		Period: model.PeriodWindow{
			StartDate: start.Format("2006-01-02"),
			EndDate:   start.AddDate(0, 0, days-1).Format("2006-01-02"),
			Days:      days,
		},
		Status:             status,
		Score:              res.Score.String(),
		ComputationTimeSec: res.Metrics.Elapsed.Seconds(),
		Validation:         &gate,
		Costs: &model.CostTotals{
			TotalPLN:         breakdown.TotalCost,
			RepositioningPLN: breakdown.TotalRepositioningCost,
			OvermileagePLN:   breakdown.TotalOvermileageCost,
		},
		Repositionings: breakdown.Repositionings,
		Overmileages:   breakdown.Overmileages,
		Statistics:     &stats,
		Assignments:    records,
	}
}

func (p *Planner) errorResult(start time.Time, days int, err error) model.PeriodResult {
	return model.PeriodResult{
		Month: store.MonthKey(start),
		Period: model.PeriodWindow{
			StartDate: start.Format("2006-01-02"),
			EndDate:   start.AddDate(0, 0, days-1).Format("2006-01-02"),
			Days:      days,
		},
		Status:    model.StatusError,
		Error:     err.Error(),
		CreatedAt: p.Now().UTC(),
	}
}

func (p *Planner) publish(evt model.Event) {
	if p.Events == nil {
		return
	}
	evt.TS = p.Now().UTC().Format(time.RFC3339)
	p.Events.Publish(evt)
}

func daysInMonth(start time.Time) int {
	return int(start.AddDate(0, 1, 0).Sub(start).Hours() / 24)
}
