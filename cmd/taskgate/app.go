package main

import (
	"errors"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/rs/zerolog"

	"github.com/zen-systems/taskgate/pkg/backend"
	"github.com/zen-systems/taskgate/pkg/config"
	"github.com/zen-systems/taskgate/pkg/delegate"
	"github.com/zen-systems/taskgate/pkg/dispatch"
	"github.com/zen-systems/taskgate/pkg/executor"
	"github.com/zen-systems/taskgate/pkg/observability"
	"github.com/zen-systems/taskgate/pkg/router"
	"github.com/zen-systems/taskgate/pkg/scorer"
	"github.com/zen-systems/taskgate/pkg/task"
)

// app holds what every command builds from configuration.
type app struct {
	cfg     *config.Config
	log     zerolog.Logger
	metrics *observability.Metrics
	scorer  *scorer.Scorer
}

func newApp() (*app, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if logLevelFlag != "" {
		cfg.Log.Level = logLevelFlag
	}
	if logFormat != "" {
		cfg.Log.Format = logFormat
	}

	return &app{
		cfg: cfg,
		log: observability.NewLogger(observability.LogConfig{
			Level:  cfg.Log.Level,
			Format: cfg.Log.Format,
			Output: os.Stderr,
		}),
		metrics: observability.NewMetrics(),
		scorer:  buildScorer(cfg.Scorer),
	}, nil
}

func loadConfig() (*config.Config, error) {
	if configFile != "" {
		return config.LoadFile(configFile)
	}
	return config.Load()
}

// buildScorer overlays configured weights on the default table.
func buildScorer(sc config.ScorerConfig) *scorer.Scorer {
	if len(sc.TypeWeights) == 0 && sc.DefaultType == nil && len(sc.Keywords) == 0 {
		return scorer.Default
	}
	w := scorer.DefaultWeights()
	for kind, weight := range sc.TypeWeights {
		w.Types[task.Kind(kind)] = weight
	}
	if sc.DefaultType != nil {
		w.DefaultType = *sc.DefaultType
	}
	if len(sc.Keywords) > 0 {
		w.Keywords = sc.Keywords
	}
	return scorer.New(w)
}

func (a *app) router() *router.Router {
	return router.New(
		router.WithThresholds(*a.cfg.Router.LowBoundary, *a.cfg.Router.HighBoundary),
		router.WithScorer(a.scorer),
		router.WithLogger(a.log),
	)
}

func (a *app) policy() delegate.Policy {
	return delegate.Policy{
		Timeout:    time.Duration(a.cfg.Delegate.TimeoutMs) * time.Millisecond,
		MaxRetries: *a.cfg.Delegate.MaxRetries,
		Backoff:    time.Duration(a.cfg.Delegate.BackoffMs) * time.Millisecond,
		OnAttempt:  a.metrics.ObserveAttempt,
	}
}

// clientDelegator builds the production delegator from the configured
// backend. Without a backend the client fails every attempt with
// delegate.ErrNoBackend, which lets fallback lanes run locally.
func (a *app) clientDelegator() (*delegate.Client, error) {
	name := a.cfg.Delegate.Backend
	b, err := backend.New(name, backend.Keys{
		Anthropic: a.cfg.AnthropicAPIKey,
		OpenAI:    a.cfg.OpenAIAPIKey,
		Google:    a.cfg.GoogleAPIKey,
		DeepSeek:  a.cfg.DeepSeekAPIKey,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create %s backend: %w", name, err)
	}

	opts := []delegate.ClientOption{
		delegate.WithPolicy(a.policy()),
		delegate.WithLogger(a.log),
	}
	if b != nil {
		model := a.cfg.Model()
		if err := a.cfg.Models.ValidateModel(b.Name(), model); err != nil {
			return nil, err
		}
		opts = append(opts, delegate.WithBackend(b, model))
	} else {
		a.log.Warn().Msg("no delegate backend configured; remote lanes will fail")
	}
	return delegate.NewClient(opts...), nil
}

func (a *app) mockDelegator(seed uint64) *delegate.Mock {
	opts := []delegate.MockOption{delegate.WithMockPolicy(a.policy())}
	if seed != 0 {
		opts = append(opts, delegate.WithSeed(seed))
	}
	return delegate.NewMock(opts...)
}

func (a *app) dispatcher(r *router.Router, del delegate.Delegator) *dispatch.Dispatcher {
	exec := executor.New(
		executor.WithLogger(observability.NewExecutionLogger(a.log)),
		executor.WithRecorder(a.metrics),
	)
	return dispatch.New(
		dispatch.WithRouter(r),
		dispatch.WithDelegator(del),
		dispatch.WithExecutor(exec),
		dispatch.WithRecorder(a.metrics),
		dispatch.WithLogger(a.log),
	)
}

func (a *app) tracing() (observability.ShutdownFunc, error) {
	return observability.InitTracing("taskgate", a.cfg.Tracing.Exporter, os.Stderr)
}

// serveMetrics starts the Prometheus endpoint in the background.
func (a *app) serveMetrics(addr string) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", a.metrics.Handler())
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.log.Error().Err(err).Str("addr", addr).Msg("metrics server stopped")
		}
	}()
	a.log.Info().Str("addr", addr).Msg("metrics endpoint listening")
	return srv
}
