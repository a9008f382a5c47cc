package api

import (
	"sync"
	"time"

	"fleetopt/internal/model"
)

// RunRegistry tracks background year runs for polling. Runs live for the
// process lifetime; the result documents themselves are in the store.
type RunRegistry struct {
	mu   sync.Mutex
	runs map[string]model.Run
}

func NewRunRegistry() *RunRegistry {
	return &RunRegistry{runs: map[string]model.Run{}}
}

func (r *RunRegistry) Start(id string, year int, now time.Time) {
	r.mu.Lock()
	r.runs[id] = model.Run{ID: id, Status: model.RunRunning, Year: year, StartedAt: now}
	r.mu.Unlock()
}

func (r *RunRegistry) Complete(id string, report model.YearReport, now time.Time) {
	r.mu.Lock()
	if run, ok := r.runs[id]; ok {
		run.Status = model.RunCompleted
		run.Report = &report
		run.FinishedAt = &now
		r.runs[id] = run
	}
	r.mu.Unlock()
}

func (r *RunRegistry) Fail(id string, errMsg string, now time.Time) {
	r.mu.Lock()
	if run, ok := r.runs[id]; ok {
		run.Status = model.RunFailed
		run.Error = errMsg
		run.FinishedAt = &now
		r.runs[id] = run
	}
	r.mu.Unlock()
}

func (r *RunRegistry) Get(id string) (model.Run, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	run, ok := r.runs[id]
	return run, ok
}
