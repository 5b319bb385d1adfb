// Package server assembles the contracts app from configuration: the sqlite
// store, the login mode, feature flags and the HTTP handler.
package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"

	sqladapter "github.com/preslavrachev/e2eharness/adapters/sql"
	"github.com/preslavrachev/e2eharness/config"
	"github.com/preslavrachev/e2eharness/core"
	"github.com/preslavrachev/e2eharness/middleware/auth"
	"github.com/preslavrachev/e2eharness/ui"
)

const (
	sessionCleanupInterval = 10 * time.Minute
	shutdownTimeout        = 5 * time.Second
)

// Server is a configured contracts app.
type Server struct {
	App *core.App

	cfg      *config.Config
	store    *sqladapter.Store
	sessions *auth.MemorySessionStore
	handler  http.Handler
	log      logrus.FieldLogger
}

// New opens the database named by cfg and builds the app over it.
func New(ctx context.Context, cfg *config.Config, log logrus.FieldLogger) (*Server, error) {
	if log == nil {
		log = logrus.StandardLogger()
	}
	store, err := sqladapter.Open(ctx, cfg.App.Database, log, cfg.App.DebugSQL)
	if err != nil {
		return nil, err
	}

	s := &Server{cfg: cfg, store: store, log: log}
	authConfig := auth.WithNoAuth()
	if cfg.Auth.Mode == config.AuthBasic {
		authConfig = auth.WithBasicAuthFromConfig(cfg.Auth, log)
		s.sessions, _ = authConfig.SessionStore.(*auth.MemorySessionStore)
	}
	log.WithFields(logrus.Fields{
		"auth":     cfg.Auth.Mode,
		"features": cfg.App.Features,
	}).Info("contracts app configured")

	s.App = core.New(store, authConfig,
		core.WithTitle(cfg.App.Title),
		core.WithFeatures(cfg.App.Features...),
		core.WithLogger(log),
		core.WithMiddleware(logRequests(log)),
	)
	s.handler = ui.Handler(s.App)
	return s, nil
}

// Handler returns the app's HTTP handler.
func (s *Server) Handler() http.Handler { return s.handler }

// demoContracts are added by Seed.
var demoContracts = []core.ContractInput{
	{Number: "C-2024-001", Conditions: "Net 30, monthly invoicing"},
	{Number: "C-2024-002", Conditions: "Prepaid, annual renewal"},
	{Number: "C-2024-003", Conditions: "Net 60"},
}

// Seed adds a few demo contracts to an empty database.
func (s *Server) Seed(ctx context.Context) error {
	existing, err := s.App.ListContracts(ctx, core.NewQuery().WithPagination(1, 0))
	if err != nil {
		return err
	}
	if existing.TotalCount > 0 {
		s.log.WithField("contracts", existing.TotalCount).Debug("database not empty, skipping seed")
		return nil
	}
	for _, in := range demoContracts {
		if _, err := s.App.CreateContract(ctx, in); err != nil {
			return fmt.Errorf("seeding contract %s: %w", in.Number, err)
		}
	}
	s.log.WithField("contracts", len(demoContracts)).Info("seeded demo contracts")
	return nil
}

// Serve accepts connections on l until ctx is done, then shuts down
// gracefully. Expired sessions are cleaned up while serving.
func (s *Server) Serve(ctx context.Context, l net.Listener) error {
	if s.sessions != nil {
		s.sessions.StartCleanup(ctx, sessionCleanupInterval)
	}
	srv := &http.Server{
		Handler:           s.handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errc := make(chan error, 1)
	go func() { errc <- srv.Serve(l) }()
	s.log.WithField("addr", l.Addr().String()).Info("contracts app listening")

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutting down: %w", err)
	}
	if err := <-errc; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	s.log.Info("contracts app stopped")
	return nil
}

// ListenAndServe listens on the configured address and calls Serve.
func (s *Server) ListenAndServe(ctx context.Context) error {
	l, err := net.Listen("tcp", s.cfg.App.Addr)
	if err != nil {
		return err
	}
	return s.Serve(ctx, l)
}

// Close closes the database.
func (s *Server) Close() error {
	return s.store.Close()
}

// statusRecorder keeps the status code a handler wrote.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func logRequests(log logrus.FieldLogger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(rec, r)
			log.WithFields(logrus.Fields{
				"method": r.Method,
				"path":   r.URL.Path,
				"status": rec.status,
				"ms":     fmt.Sprintf("%.2f", float64(time.Since(start).Microseconds())/1000),
			}).Debug("request")
		})
	}
}
