package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Port != 8080 || cfg.Solver.BudgetSec != 300 || cfg.Auth.Mode != "dev" {
		t.Fatalf("bad defaults: %+v", cfg)
	}
}

func TestLoadFileAndEnvOverride(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	raw := "port: 9000\nsolver:\n  budget_sec: 60\nauth:\n  mode: hmac\n  hmac_secret: file-secret\n"
	if err := os.WriteFile(path, []byte(raw), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv("SOLVER_BUDGET_SEC", "120")
	t.Setenv("AUTH_HMAC_SECRET", "env-secret")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Port != 9000 {
		t.Fatalf("port %d, want 9000 from file", cfg.Port)
	}
	if cfg.Solver.BudgetSec != 120 {
		t.Fatalf("budget %d, env must win over file", cfg.Solver.BudgetSec)
	}
	if cfg.Auth.HMACSecret != "env-secret" {
		t.Fatalf("secret %q, env must win over file", cfg.Auth.HMACSecret)
	}
}

func TestLoadMissingFileIsFine(t *testing.T) {
	if _, err := Load("/nonexistent/config.yaml"); err != nil {
		t.Fatalf("missing file should not error: %v", err)
	}
}
