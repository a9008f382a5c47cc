package main

import (
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"fleetopt/internal/api"
	"fleetopt/internal/config"
	"fleetopt/internal/metrics"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load("")
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}

	log := newLogger(cfg.LogLevel)

	srv, err := api.NewServer(cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to init server")
	}

	metrics.RegisterDefault()

	mux := http.NewServeMux()

	// Optimization
	mux.HandleFunc("/v1/optimize", srv.OptimizeHandler)
	mux.HandleFunc("/v1/optimize/year", srv.OptimizeYearHandler)
	mux.HandleFunc("/v1/optimize/year/stream", srv.YearStreamHandler)
	mux.HandleFunc("/v1/runs/", srv.RunHandler)

	// Stored results and constants
	mux.HandleFunc("/v1/results", srv.ResultsHandler)
	mux.HandleFunc("/v1/results/", srv.ResultByPeriodHandler)
	mux.HandleFunc("/v1/config", srv.ConfigHandler)

	// Operational
	mux.HandleFunc("/healthz", srv.HealthHandler)
	mux.HandleFunc("/readyz", srv.ReadyHandler)
	mux.HandleFunc("/version", srv.VersionHandler)
	mux.Handle("/metrics", promhttp.HandlerFor(metrics.Registry, promhttp.HandlerOpts{}))
	mux.HandleFunc("/debug/info", srv.DebugHandler)

	addr := fmt.Sprintf(":%d", cfg.Port)
	httpSrv := &http.Server{
		Addr:              addr,
		Handler:           srv.Instrument(mux),
		ReadHeaderTimeout: 5 * time.Second,
	}

	log.Info().Str("addr", addr).Msg("API listening")
	if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatal().Err(err).Msg("server error")
	}
}

func newLogger(level string) zerolog.Logger {
	lvl, err := zerolog.ParseLevel(strings.ToLower(level))
	if err != nil || lvl == zerolog.NoLevel {
		lvl = zerolog.InfoLevel
	}
	log := zerolog.New(os.Stdout).Level(lvl).With().Timestamp().Logger()
	if os.Getenv("LOG_PRETTY") == "true" {
		log = log.Output(zerolog.ConsoleWriter{Out: os.Stdout})
	}
	return log
}
