// Package config loads service configuration from an optional YAML file
// with environment variable overrides. Environment always wins so
// container deployments can steer a checked-in file.
package config

import (
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Port        int    `yaml:"port"`
	DatabaseURL string `yaml:"database_url"`
	RedisURL    string `yaml:"redis_url"`
	LogLevel    string `yaml:"log_level"`

	Auth struct {
		Mode       string `yaml:"mode"` // dev or hmac
		HMACSecret string `yaml:"hmac_secret"`
	} `yaml:"auth"`

	Solver struct {
		BudgetSec int   `yaml:"budget_sec"`
		Seed      int64 `yaml:"seed"`
	} `yaml:"solver"`

	RateLimit struct {
		PerSecond float64 `yaml:"per_second"`
		Burst     int     `yaml:"burst"`
	} `yaml:"rate_limit"`

	Webhook struct {
		URL    string `yaml:"url"`
		Secret string `yaml:"secret"`
	} `yaml:"webhook"`
}

// Load reads CONFIG_PATH (or path when given) and applies env overrides.
// A missing file is not an error; defaults plus environment suffice.
func Load(path string) (Config, error) {
	cfg := Config{Port: 8080, LogLevel: "info"}
	cfg.Auth.Mode = "dev"
	cfg.Solver.BudgetSec = 300
	cfg.RateLimit.PerSecond = 1
	cfg.RateLimit.Burst = 3

	if path == "" {
		path = os.Getenv("CONFIG_PATH")
	}
	if path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			if !os.IsNotExist(err) {
				return cfg, fmt.Errorf("read config: %w", err)
			}
		} else if err := yaml.Unmarshal(raw, &cfg); err != nil {
			return cfg, fmt.Errorf("parse config: %w", err)
		}
	}

	if v := os.Getenv("PORT"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Port = n
		}
	}
	if v := os.Getenv("DATABASE_URL"); v != "" {
		cfg.DatabaseURL = v
	}
	if v := os.Getenv("REDIS_URL"); v != "" {
		cfg.RedisURL = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.LogLevel = v
	}
	if v := os.Getenv("AUTH_MODE"); v != "" {
		cfg.Auth.Mode = v
	}
	if v := os.Getenv("AUTH_HMAC_SECRET"); v != "" {
		cfg.Auth.HMACSecret = v
	}
	if v := os.Getenv("WEBHOOK_URL"); v != "" {
		cfg.Webhook.URL = v
	}
	if v := os.Getenv("WEBHOOK_SECRET"); v != "" {
		cfg.Webhook.Secret = v
	}
	if v := os.Getenv("SOLVER_BUDGET_SEC"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.Solver.BudgetSec = n
		}
	}
	return cfg, nil
}
