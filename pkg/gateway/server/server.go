// Package server assembles the agent API: routes, middleware, and the
// shared dependencies behind them.
package server

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/clykins90/agent-dashboard/pkg/gateway/config"
	"github.com/clykins90/agent-dashboard/pkg/gateway/handlers"
	"github.com/clykins90/agent-dashboard/pkg/gateway/lifecycle"
	"github.com/clykins90/agent-dashboard/pkg/gateway/metrics"
	"github.com/clykins90/agent-dashboard/pkg/gateway/mw"
	"github.com/clykins90/agent-dashboard/pkg/gateway/ratelimit"
	"github.com/clykins90/agent-dashboard/pkg/realtime"
	"github.com/clykins90/agent-dashboard/pkg/store"
)

type Server struct {
	cfg       config.Config
	logger    *slog.Logger
	metrics   *metrics.Metrics
	store     *store.Store
	limiter   *ratelimit.Limiter
	minter    *realtime.Minter
	lifecycle *lifecycle.Lifecycle
	mux       *http.ServeMux
}

func New(cfg config.Config, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{
		cfg:     cfg,
		logger:  logger,
		metrics: metrics.New(""),
		store:   store.New(cfg.DataDir),
		limiter: ratelimit.New(ratelimit.Config{
			Max:    cfg.TokenRateLimitMax,
			Window: cfg.TokenRateLimitWindow,
		}),
		minter: &realtime.Minter{
			APIKey:  cfg.OpenAIAPIKey,
			Model:   cfg.RealtimeModel,
			Voice:   cfg.DefaultVoice,
			BaseURL: cfg.ClientSecretsURL,
			Timeout: cfg.MintTimeout,
		},
		lifecycle: &lifecycle.Lifecycle{},
		mux:       http.NewServeMux(),
	}
	s.routes()
	return s
}

func (s *Server) routes() {
	s.mux.Handle("/healthz", handlers.Health{})
	s.mux.Handle("/readyz", handlers.Ready{Lifecycle: s.lifecycle})
	s.mux.Handle("/metrics", s.metrics.Handler())

	s.mux.Handle("/voice", &handlers.Voice{
		PublicURL: s.cfg.PublicWSURL,
		Logger:    s.logger,
	})
	s.mux.Handle("/stream", &handlers.Stream{
		Config:    s.cfg,
		Store:     s.store,
		Metrics:   s.metrics,
		Lifecycle: s.lifecycle,
		Logger:    s.logger,
	})
	s.mux.Handle("/realtime/token", &handlers.Token{
		Minter:            s.minter,
		AuthToken:         s.cfg.AuthToken,
		TrustProxyHeaders: s.cfg.TrustProxyHeaders,
		Limiter:           s.limiter,
		Metrics:           s.metrics,
		Logger:            s.logger,
	})
	s.mux.Handle("/agent", &handlers.Agent{Store: s.store, Logger: s.logger})
	s.mux.Handle("/transcripts", &handlers.Transcripts{Store: s.store})
}

// Handler returns the full middleware chain around the route mux.
func (s *Server) Handler() http.Handler {
	var h http.Handler = s.mux
	h = mw.AccessLog(s.logger, h)
	h = mw.Recover(s.logger, h)
	h = mw.CORS(s.cfg, h)
	h = mw.RequestID(h)
	return h
}

// SetDraining flips readiness and refuses new calls ahead of shutdown.
func (s *Server) SetDraining() {
	s.lifecycle.SetDraining(true)
	if n := s.lifecycle.ActiveCalls(); n > 0 {
		s.logger.Warn("draining with active calls", "calls", n)
	}
}

// WaitActiveCalls blocks until bridged calls finish or ctx ends, reporting
// whether the server went idle.
func (s *Server) WaitActiveCalls(ctx context.Context) bool {
	return s.lifecycle.WaitIdle(ctx)
}
