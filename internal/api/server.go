// Package api implements the HTTP surface: optimize endpoints, stored
// results, the year-run stream and the operational endpoints.
package api

import (
	"context"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"fleetopt/internal/auth"
	"fleetopt/internal/config"
	"fleetopt/internal/model"
	"fleetopt/internal/opt"
	"fleetopt/internal/plan"
	"fleetopt/internal/store"
	"fleetopt/internal/webhooks"
)

type Server struct {
	Store   store.Store
	Planner *plan.Planner
	Auth    *auth.Verifier
	Broker  EventBroker
	Runs    *RunRegistry
	Budget  time.Duration
	Log     zerolog.Logger

	limiter *rate.Limiter
}

// NewServer wires the service from config: in-memory store unless a
// DATABASE_URL is configured, in-memory broker unless a REDIS_URL is.
func NewServer(cfg config.Config, log zerolog.Logger) (*Server, error) {
	var st store.Store
	if strings.TrimSpace(cfg.DatabaseURL) == "" {
		st = store.NewMemory()
	} else {
		pg, err := store.NewPostgres(cfg.DatabaseURL)
		if err != nil {
			return nil, err
		}
		if err := pg.Migrate(context.Background()); err != nil {
			return nil, err
		}
		st = pg
	}

	var broker EventBroker
	if cfg.RedisURL != "" {
		rb, err := NewRedisBroker(cfg.RedisURL)
		if err != nil {
			return nil, err
		}
		broker = rb
	} else {
		broker = NewBroker()
	}

	budget := time.Duration(cfg.Solver.BudgetSec) * time.Second
	planner := plan.New(st, opt.NewLocalSearch(cfg.Solver.Seed))
	planner.Budget = budget
	planner.Log = log.With().Str("component", "plan").Logger()

	sinks := []plan.EventSink{brokerSink{broker}}
	if cfg.Webhook.URL != "" {
		n := webhooks.NewNotifier(cfg.Webhook.URL, cfg.Webhook.Secret)
		n.Log = log
		n.Start()
		sinks = append(sinks, n)
	}
	planner.Events = fanoutSink(sinks)

	return &Server{
		Store:   st,
		Planner: planner,
		Auth:    auth.NewVerifier(cfg.Auth.Mode, cfg.Auth.HMACSecret),
		Broker:  broker,
		Runs:    NewRunRegistry(),
		Budget:  budget,
		Log:     log.With().Str("component", "api").Logger(),
		limiter: rate.NewLimiter(rate.Limit(cfg.RateLimit.PerSecond), cfg.RateLimit.Burst),
	}, nil
}

// brokerSink adapts the broker to the planner's event sink: run events go
// to the run's topic, ad hoc period events to a shared one.
type brokerSink struct{ b EventBroker }

func (s brokerSink) Publish(evt model.Event) {
	topic := evt.RunID
	if topic == "" {
		topic = "periods"
	}
	s.b.Publish(topic, evt)
}

type fanoutSink []plan.EventSink

func (f fanoutSink) Publish(evt model.Event) {
	for _, s := range f {
		s.Publish(evt)
	}
}
