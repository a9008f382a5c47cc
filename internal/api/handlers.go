package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"fleetopt/internal/buildinfo"
	"fleetopt/internal/fleet"
	"fleetopt/internal/model"
	"fleetopt/internal/opt"
	"fleetopt/internal/store"
)

// HealthHandler handles GET /healthz
func (s *Server) HealthHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

// ReadyHandler handles GET /readyz: ready once the store answers.
func (s *Server) ReadyHandler(w http.ResponseWriter, r *http.Request) {
	if err := s.Store.Ping(r.Context()); err != nil {
		writeProblem(w, http.StatusServiceUnavailable, "Not ready", err.Error(), r.URL.Path)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"ready": true})
}

// VersionHandler handles GET /version
func (s *Server) VersionHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, buildinfo.Info())
}

// ConfigHandler handles GET /v1/config: the constants the optimizer and
// cost engine run with, for operator inspection.
func (s *Server) ConfigHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	writeJSON(w, http.StatusOK, model.ConfigSnapshot{
		OvermileageAllowanceKm:  fleet.MaxOvermileageKm,
		OvermileageCostPerKmPLN: fleet.OvermileageCostPerKm,
		RepositionBasePLN:       fleet.RepositionBaseCost,
		RepositionPerKmPLN:      fleet.RepositionCostPerKm,
		RepositionPerHourPLN:    fleet.RepositionCostPerHour,
		EmptySpeedKmh:           fleet.EmptySpeedKmh,
		SwapCooldownDays:        fleet.SwapCooldownDays,
		ServiceToleranceKm:      fleet.ServiceToleranceKm,
		DefaultDistanceKm:       fleet.DefaultDistanceKm,
		DefaultTimeHours:        fleet.DefaultTimeHours,
		DefaultBudgetSec:        int(s.Budget.Seconds()),
	})
}

// OptimizeHandler handles POST /v1/optimize: solve one period
// synchronously and return its result document.
func (s *Server) OptimizeHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	if !s.limiter.Allow() {
		writeProblem(w, http.StatusTooManyRequests, "Rate limited", "too many optimize requests", r.URL.Path)
		return
	}
	if p := s.getPrincipal(r); !p.CanOptimize() {
		writeProblem(w, http.StatusForbidden, "Forbidden", "planner or admin required", r.URL.Path)
		return
	}

	var req model.OptimizeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeProblem(w, http.StatusBadRequest, "Invalid JSON", err.Error(), r.URL.Path)
		return
	}
	start, err := time.ParseInLocation("2006-01-02", req.StartDate, time.UTC)
	if err != nil {
		writeProblem(w, http.StatusBadRequest, "Invalid start_date", "expected YYYY-MM-DD", r.URL.Path)
		return
	}
	days := req.Days
	if days <= 0 {
		days = int(start.AddDate(0, 1, 0).Sub(start).Hours() / 24)
	}
	budget := s.Budget
	if req.BudgetSec > 0 {
		budget = time.Duration(req.BudgetSec) * time.Second
	}

	planner := s.Planner
	if req.Seed != 0 {
		p := *s.Planner
		p.Solver = opt.NewLocalSearch(req.Seed)
		planner = &p
	}

	doc, err := planner.Optimize(r.Context(), start, days, budget)
	if err != nil {
		if errors.Is(err, opt.ErrInterrupted) {
			writeProblem(w, http.StatusServiceUnavailable, "Solve interrupted", err.Error(), r.URL.Path)
			return
		}
		writeProblem(w, http.StatusInternalServerError, "Optimize failed", err.Error(), r.URL.Path)
		return
	}
	writeJSON(w, http.StatusOK, doc)
}

// OptimizeYearHandler handles POST /v1/optimize/year: start a background
// sequential run over twelve periods and return its id for polling.
func (s *Server) OptimizeYearHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	if !s.limiter.Allow() {
		writeProblem(w, http.StatusTooManyRequests, "Rate limited", "too many optimize requests", r.URL.Path)
		return
	}
	if p := s.getPrincipal(r); !p.CanOptimize() {
		writeProblem(w, http.StatusForbidden, "Forbidden", "planner or admin required", r.URL.Path)
		return
	}

	var req model.YearRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeProblem(w, http.StatusBadRequest, "Invalid JSON", err.Error(), r.URL.Path)
		return
	}
	if req.Year < 2000 || req.Year > 2100 {
		writeProblem(w, http.StatusBadRequest, "Invalid year", "year out of range", r.URL.Path)
		return
	}
	budget := s.Budget
	if req.BudgetSec > 0 {
		budget = time.Duration(req.BudgetSec) * time.Second
	}
	planner := s.Planner
	if req.Seed != 0 {
		p := *s.Planner
		p.Solver = opt.NewLocalSearch(req.Seed)
		planner = &p
	}

	runID := uuid.New().String()
	s.Runs.Start(runID, req.Year, time.Now().UTC())
	go func() {
		report, err := planner.OptimizeYear(context.Background(), req.Year, budget, runID)
		if err != nil {
			s.Log.Error().Err(err).Str("run", runID).Msg("year run failed")
			s.Runs.Fail(runID, err.Error(), time.Now().UTC())
			return
		}
		s.Runs.Complete(runID, report, time.Now().UTC())
	}()

	writeJSON(w, http.StatusAccepted, map[string]string{"run_id": runID, "status": model.RunRunning})
}

// RunHandler handles GET /v1/runs/{id}
func (s *Server) RunHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	id := strings.TrimPrefix(r.URL.Path, "/v1/runs/")
	if id == "" || strings.Contains(id, "/") {
		writeProblem(w, http.StatusNotFound, "Not Found", "missing run id", r.URL.Path)
		return
	}
	run, ok := s.Runs.Get(id)
	if !ok {
		writeProblem(w, http.StatusNotFound, "Run not found", "", r.URL.Path)
		return
	}
	writeJSON(w, http.StatusOK, run)
}

// ResultsHandler handles GET /v1/results?year=
func (s *Server) ResultsHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	year := 0
	if v := r.URL.Query().Get("year"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			writeProblem(w, http.StatusBadRequest, "Invalid year", "", r.URL.Path)
			return
		}
		year = n
	}
	items, err := s.Store.ListPeriodResults(r.Context(), year)
	if err != nil {
		writeProblem(w, http.StatusInternalServerError, "List results failed", err.Error(), r.URL.Path)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": items})
}

// ResultByPeriodHandler handles GET /v1/results/{period}, period keyed
// as YYYY-MM.
func (s *Server) ResultByPeriodHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	period := strings.TrimPrefix(r.URL.Path, "/v1/results/")
	if period == "" || strings.Contains(period, "/") {
		writeProblem(w, http.StatusNotFound, "Not Found", "missing period", r.URL.Path)
		return
	}
	doc, err := s.Store.GetPeriodResult(r.Context(), period)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeProblem(w, http.StatusNotFound, "Result not found", period, r.URL.Path)
			return
		}
		writeProblem(w, http.StatusInternalServerError, "Get result failed", err.Error(), r.URL.Path)
		return
	}
	writeJSON(w, http.StatusOK, doc)
}
