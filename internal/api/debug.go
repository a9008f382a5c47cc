package api

import (
	"net/http"
	"os"
	"time"

	"fleetopt/internal/buildinfo"
)

// DebugHandler exposes build info and the effective environment shape.
// Secrets are reported as presence flags only.
func (s *Server) DebugHandler(w http.ResponseWriter, r *http.Request) {
	p := s.getPrincipal(r)
	if p.Role != "admin" {
		writeProblem(w, http.StatusForbidden, "Forbidden", "admin role required", r.URL.Path)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"build": buildinfo.Info(),
		"time":  time.Now().UTC().Format(time.RFC3339),
		"config": map[string]any{
			"PORT":              os.Getenv("PORT"),
			"AUTH_MODE":         os.Getenv("AUTH_MODE"),
			"LOG_LEVEL":         os.Getenv("LOG_LEVEL"),
			"SOLVER_BUDGET_SEC": os.Getenv("SOLVER_BUDGET_SEC"),
			"HAS_DATABASE_URL":  os.Getenv("DATABASE_URL") != "",
			"HAS_REDIS_URL":     os.Getenv("REDIS_URL") != "",
			"HAS_WEBHOOK_URL":   os.Getenv("WEBHOOK_URL") != "",
		},
	})
}
