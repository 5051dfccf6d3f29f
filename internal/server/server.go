// Package server exposes the gateway facade over HTTP for browser and
// remote dashboards.
//
// Query routes always answer 200: a gateway failure yields an empty
// collection marked with a "degraded" field. Only malformed requests and
// unknown routes produce non-2xx responses.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/musher-dev/clawdash/internal/model"
	"github.com/musher-dev/clawdash/internal/observability"
)

// DefaultShutdownTimeout bounds graceful shutdown.
const DefaultShutdownTimeout = 5 * time.Second

// Backend is the gateway facade the server relays to.
type Backend interface {
	ListSessions(ctx context.Context) ([]model.Session, error)
	ListJobs(ctx context.Context) ([]model.ScheduledJob, error)
	UpdateJob(ctx context.Context, id string, patch model.JobPatch) bool
	RunJob(ctx context.Context, id string) bool
	AgentsOverview(ctx context.Context) (model.AgentsOverview, error)
	Status(ctx context.Context) model.GatewayStatus
}

// Options configures a Server.
type Options struct {
	// AllowedOrigins lists origins allowed by CORS. "*" allows any.
	AllowedOrigins []string
	Logger         *slog.Logger
	Now            func() time.Time
}

// Server serves the clawdash HTTP API.
type Server struct {
	backend Backend
	opts    Options
}

// New returns a Server relaying to backend.
func New(backend Backend, opts Options) *Server {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}

	if opts.Now == nil {
		opts.Now = time.Now
	}

	return &Server{backend: backend, opts: opts}
}

// Handler returns the API with middleware and tracing applied.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", s.handleHealth)
	mux.HandleFunc("GET /api/sessions/list", s.handleListSessions)
	mux.HandleFunc("GET /api/cron/list", s.handleListJobs)
	mux.HandleFunc("POST /api/cron/update/{jobId}", s.handleUpdateJob)
	mux.HandleFunc("POST /api/cron/run/{jobId}", s.handleRunJob)
	mux.HandleFunc("GET /api/agents/overview", s.handleAgentsOverview)
	mux.HandleFunc("GET /api/system/status", s.handleStatus)
	mux.HandleFunc("/", s.handleNotFound)

	var h http.Handler = mux
	h = corsMiddleware(s.opts.AllowedOrigins, h)
	h = requestLogMiddleware(s.opts.Logger, h)

	return observability.InstrumentHandler(h, "clawdash.api")
}

// ListenAndServe serves on addr until ctx is canceled, then shuts down
// gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", addr, err)
	}

	return s.Serve(ctx, ln)
}

// Serve is ListenAndServe on an existing listener.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	httpServer := &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext: func(net.Listener) context.Context {
			return observability.WithLogger(context.WithoutCancel(ctx), s.opts.Logger)
		},
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		s.opts.Logger.Info("api server listening", slog.String("addr", ln.Addr().String()))

		if err := httpServer.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("serve: %w", err)
		}

		return nil
	})

	g.Go(func() error {
		<-gctx.Done()

		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), DefaultShutdownTimeout)
		defer cancel()

		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown: %w", err)
		}

		s.opts.Logger.Info("api server stopped")

		return nil
	})

	return g.Wait()
}

// ParseOrigins splits a comma-separated origin list.
func ParseOrigins(raw string) []string {
	var origins []string

	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			origins = append(origins, part)
		}
	}

	return origins
}
