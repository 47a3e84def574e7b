// Package server exposes the engine over HTTP.
//
// Routes:
//
//	POST /v1/parse          longest tactic match at the start of text
//	POST /v1/chain          tactics matched back to back along a line
//	POST /v1/predict        continuations of partial input
//	POST /v1/check          check an indented document
//	GET  /v1/tactics        registered tactics in registration order
//	GET  /v1/documents      stored document history
//	GET  /v1/documents/:id  one stored report
//	GET  /v1/ws             websocket: one prediction per text frame
//	GET  /metrics           prometheus metrics
//	GET  /healthz           liveness
//
// The active engine is swapped atomically on catalog reload; requests in
// flight finish against the engine they started with.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"sync/atomic"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/gorilla/websocket"

	"github.com/roach88/cnl/internal/catalog"
	"github.com/roach88/cnl/internal/document"
	"github.com/roach88/cnl/internal/engine"
	"github.com/roach88/cnl/internal/store"
)

// Server serves one engine at a time.
type Server struct {
	active atomic.Pointer[active]

	store      *store.Store
	clock      document.Clock
	ids        document.IDGenerator
	engineOpts []engine.Option

	validate *validator.Validate
	upgrader websocket.Upgrader
	metrics  *metrics
	router   *gin.Engine
}

// active pairs an engine with the checker built on it.
type active struct {
	engine  *engine.Engine
	checker *document.Checker
}

// Option configures a Server.
type Option func(*Server)

// WithStore persists every checked document.
func WithStore(st *store.Store) Option {
	return func(s *Server) { s.store = st }
}

// WithClock sets the clock that stamps reports. It survives reloads.
func WithClock(c document.Clock) Option {
	return func(s *Server) { s.clock = c }
}

// WithIDGenerator sets the report ID generator.
func WithIDGenerator(g document.IDGenerator) Option {
	return func(s *Server) { s.ids = g }
}

// WithEngineOptions sets the options used for engines built by Reload.
func WithEngineOptions(opts ...engine.Option) Option {
	return func(s *Server) { s.engineOpts = opts }
}

// New returns a server for e.
func New(e *engine.Engine, opts ...Option) *Server {
	s := &Server{
		clock:    document.NewClock(),
		ids:      document.UUIDv7Generator{},
		validate: validator.New(validator.WithRequiredStructEnabled()),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
		metrics: newMetrics(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.Swap(e)
	s.router = s.routes()
	return s
}

// Handler returns the HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Engine returns the active engine.
func (s *Server) Engine() *engine.Engine {
	return s.active.Load().engine
}

func (s *Server) checker() *document.Checker {
	return s.active.Load().checker
}

// Swap makes e the active engine.
func (s *Server) Swap(e *engine.Engine) {
	s.active.Store(&active{
		engine:  e,
		checker: document.NewChecker(e, document.WithClock(s.clock), document.WithIDGenerator(s.ids)),
	})
	s.metrics.tactics.Set(float64(len(e.Registry().All())))
}

// Reload builds a fresh registry and engine from entries and swaps it in.
// On error the active engine is kept.
func (s *Server) Reload(ctx context.Context, entries []catalog.Entry) error {
	reg, err := catalog.NewRegistry(entries)
	if err != nil {
		s.metrics.reloads.WithLabelValues("error").Inc()
		return fmt.Errorf("reload: %w", err)
	}
	if s.store != nil {
		if err := s.store.WriteTactics(ctx, reg.All()); err != nil {
			s.metrics.reloads.WithLabelValues("error").Inc()
			return fmt.Errorf("reload: %w", err)
		}
	}
	s.Swap(engine.New(reg, s.engineOpts...))
	s.metrics.reloads.WithLabelValues("ok").Inc()
	slog.InfoContext(ctx, "engine swapped", "tactics", len(reg.All()))
	return nil
}

// ListenAndServe serves on addr until ctx is done.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{Addr: addr, Handler: s.router}

	errc := make(chan error, 1)
	go func() {
		slog.Info("listening", "addr", addr)
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
		if err := srv.Shutdown(context.Background()); err != nil {
			return err
		}
		return nil
	}
}
