package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"fleetopt/internal/auth"
	"fleetopt/internal/fleet"
	"fleetopt/internal/model"
	"fleetopt/internal/opt"
	"fleetopt/internal/plan"
	"fleetopt/internal/store"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()
	m := store.NewMemory()
	day := func(d int) time.Time { return time.Date(2026, 3, d, 6, 0, 0, 0, time.UTC) }
	table := fleet.NewDistanceTable()
	table.Add(4, 7, fleet.LocationDistance{DistanceKm: 420, TimeHours: 5.5})
	m.Seed(
		[]fleet.Vehicle{
			{ID: 1, Registration: "WX 10001", Brand: "DAF", AnnualLimitKm: 150000, CurrentLocationID: 4},
			{ID: 2, Registration: "WX 10002", Brand: "Scania", AnnualLimitKm: 150000, CurrentLocationID: 7},
		},
		[]fleet.RouteAssignment{
			{RouteID: 101, StartLocationID: 4, EndLocationID: 7, DistanceKm: 420, StartTime: day(2), EndTime: day(2).Add(8 * time.Hour)},
			{RouteID: 102, StartLocationID: 7, EndLocationID: 4, DistanceKm: 420, StartTime: day(5), EndTime: day(5).Add(8 * time.Hour)},
		},
		table,
	)

	broker := NewBroker()
	budget := 200 * time.Millisecond
	planner := plan.New(m, opt.NewLocalSearch(7))
	planner.Budget = budget
	planner.Events = brokerSink{broker}

	return &Server{
		Store:   m,
		Planner: planner,
		Auth:    auth.NewVerifier("dev", ""),
		Broker:  broker,
		Runs:    NewRunRegistry(),
		Budget:  budget,
		Log:     zerolog.Nop(),
		limiter: rate.NewLimiter(rate.Inf, 1),
	}
}

func TestHealthReadyConfig(t *testing.T) {
	s := newTestServer(t)

	rr := httptest.NewRecorder()
	s.HealthHandler(rr, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	if rr.Code != 200 {
		t.Fatalf("health: got %d", rr.Code)
	}

	rr = httptest.NewRecorder()
	s.ReadyHandler(rr, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	if rr.Code != 200 {
		t.Fatalf("ready: got %d", rr.Code)
	}

	rr = httptest.NewRecorder()
	s.ConfigHandler(rr, httptest.NewRequest(http.MethodGet, "/v1/config", nil))
	if rr.Code != 200 {
		t.Fatalf("config: got %d", rr.Code)
	}
	var snap model.ConfigSnapshot
	if err := json.Unmarshal(rr.Body.Bytes(), &snap); err != nil {
		t.Fatalf("decode config: %v", err)
	}
	if snap.OvermileageAllowanceKm != 300 || snap.OvermileageCostPerKmPLN != 0.92 {
		t.Fatalf("bad constants: %+v", snap)
	}
}

func TestOptimizeEndpoint(t *testing.T) {
	s := newTestServer(t)

	body := []byte(`{"start_date":"2026-03-01"}`)
	rr := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/v1/optimize", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	s.OptimizeHandler(rr, req)
	if rr.Code != 200 {
		t.Fatalf("optimize: %d, body %s", rr.Code, rr.Body.String())
	}
	var doc model.PeriodResult
	if err := json.Unmarshal(rr.Body.Bytes(), &doc); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if doc.Month != "2026-03" || doc.Status != model.StatusOptimal {
		t.Fatalf("bad document: month %s status %s", doc.Month, doc.Status)
	}
	if doc.Statistics == nil || doc.Statistics.AssignedRoutes != 2 {
		t.Fatalf("bad statistics: %+v", doc.Statistics)
	}

	// persisted and retrievable
	rr = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodGet, "/v1/results/2026-03", nil)
	s.ResultByPeriodHandler(rr, req)
	if rr.Code != 200 {
		t.Fatalf("result fetch: %d", rr.Code)
	}

	rr = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodGet, "/v1/results?year=2026", nil)
	s.ResultsHandler(rr, req)
	if rr.Code != 200 {
		t.Fatalf("results list: %d", rr.Code)
	}
	var list struct {
		Items []model.PeriodResult `json:"items"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &list); err != nil || len(list.Items) != 1 {
		t.Fatalf("bad listing: %v %+v", err, list)
	}
}

func TestOptimizeRejectsViewer(t *testing.T) {
	s := newTestServer(t)
	rr := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/v1/optimize", bytes.NewReader([]byte(`{"start_date":"2026-03-01"}`)))
	req.Header.Set("X-Role", "viewer")
	s.OptimizeHandler(rr, req)
	if rr.Code != http.StatusForbidden {
		t.Fatalf("viewer got %d, want 403", rr.Code)
	}
}

func TestOptimizeBadDate(t *testing.T) {
	s := newTestServer(t)
	rr := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/v1/optimize", bytes.NewReader([]byte(`{"start_date":"03/01/2026"}`)))
	s.OptimizeHandler(rr, req)
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("got %d, want 400", rr.Code)
	}
}

func TestResultNotFound(t *testing.T) {
	s := newTestServer(t)
	rr := httptest.NewRecorder()
	s.ResultByPeriodHandler(rr, httptest.NewRequest(http.MethodGet, "/v1/results/1999-01", nil))
	if rr.Code != http.StatusNotFound {
		t.Fatalf("got %d, want 404", rr.Code)
	}
}

func TestYearRunLifecycle(t *testing.T) {
	s := newTestServer(t)

	rr := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/v1/optimize/year", bytes.NewReader([]byte(`{"year":2026}`)))
	req.Header.Set("Content-Type", "application/json")
	s.OptimizeYearHandler(rr, req)
	if rr.Code != http.StatusAccepted {
		t.Fatalf("year start: %d, body %s", rr.Code, rr.Body.String())
	}
	var started map[string]string
	if err := json.Unmarshal(rr.Body.Bytes(), &started); err != nil {
		t.Fatalf("decode: %v", err)
	}
	runID := started["run_id"]
	if runID == "" {
		t.Fatal("missing run_id")
	}

	deadline := time.Now().Add(10 * time.Second)
	var run model.Run
	for time.Now().Before(deadline) {
		rr = httptest.NewRecorder()
		s.RunHandler(rr, httptest.NewRequest(http.MethodGet, "/v1/runs/"+runID, nil))
		if rr.Code != 200 {
			t.Fatalf("run poll: %d", rr.Code)
		}
		if err := json.Unmarshal(rr.Body.Bytes(), &run); err != nil {
			t.Fatalf("decode run: %v", err)
		}
		if run.Status != model.RunRunning {
			break
		}
		time.Sleep(50 * time.Millisecond)
	}
	if run.Status != model.RunCompleted {
		t.Fatalf("run status %s, want COMPLETED", run.Status)
	}
	if run.Report == nil || len(run.Report.Periods) != 12 {
		t.Fatalf("bad report: %+v", run.Report)
	}
	if run.Report.Accepted != 1 {
		t.Fatalf("accepted %d, want 1 (routes only in March)", run.Report.Accepted)
	}
}

func TestRunNotFound(t *testing.T) {
	s := newTestServer(t)
	rr := httptest.NewRecorder()
	s.RunHandler(rr, httptest.NewRequest(http.MethodGet, "/v1/runs/nope", nil))
	if rr.Code != http.StatusNotFound {
		t.Fatalf("got %d, want 404", rr.Code)
	}
}

func TestOptimizeRateLimited(t *testing.T) {
	s := newTestServer(t)
	s.limiter = rate.NewLimiter(0, 1)

	body := func() *bytes.Reader { return bytes.NewReader([]byte(`{"start_date":"2026-03-01"}`)) }
	rr := httptest.NewRecorder()
	s.OptimizeHandler(rr, httptest.NewRequest(http.MethodPost, "/v1/optimize", body()))
	if rr.Code != 200 {
		t.Fatalf("first call: %d", rr.Code)
	}
	rr = httptest.NewRecorder()
	s.OptimizeHandler(rr, httptest.NewRequest(http.MethodPost, "/v1/optimize", body()))
	if rr.Code != http.StatusTooManyRequests {
		t.Fatalf("second call: %d, want 429", rr.Code)
	}
}
