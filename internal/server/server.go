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

	"interlude/internal/config"
	"interlude/internal/logging"
	"interlude/internal/media"
	"interlude/internal/notify"
	"interlude/internal/store"
)

// Server is the HTTP front of the daemon.
type Server struct {
	cfg    *config.Config
	logger *slog.Logger
	hub    *notify.Hub

	users    *media.UserService
	catalog  *media.CatalogService
	progress *media.ProgressService
	settings *media.SettingsService

	listener net.Listener
	server   *http.Server
	started  time.Time
}

// New assembles the server around an open store and notification hub.
func New(cfg *config.Config, st *store.Store, hub *notify.Hub, logger *slog.Logger) (*Server, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is required")
	}
	if st == nil {
		return nil, fmt.Errorf("store is required")
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	logger = logging.WithComponent(logger, "api-server")

	srv := &Server{
		cfg:      cfg,
		logger:   logger,
		hub:      hub,
		users:    media.NewUserService(st, logger),
		catalog:  media.NewCatalogService(st, logger),
		progress: media.NewProgressService(st, hub, logger),
		settings: media.NewSettingsService(st, logger),
	}
	srv.server = &http.Server{
		Handler:           srv.routes(),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	return srv, nil
}

// Start binds the listener and serves until ctx is canceled.
func (s *Server) Start(ctx context.Context) error {
	bind := strings.TrimSpace(s.cfg.Paths.APIBind)
	if bind == "" {
		return fmt.Errorf("api bind address is required")
	}
	listener, err := net.Listen("tcp", bind)
	if err != nil {
		return fmt.Errorf("api listen: %w", err)
	}
	s.listener = listener
	s.started = time.Now()

	go func() {
		if err := s.server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("api server error", logging.Error(err))
		}
	}()

	go func() {
		<-ctx.Done()
		s.Stop()
	}()

	s.logger.Info("api server listening", "address", listener.Addr().String())
	return nil
}

// Stop drains in-flight requests and releases the listener.
func (s *Server) Stop() {
	timeout := time.Duration(s.cfg.Server.ShutdownSeconds) * time.Second
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	if s.server != nil {
		_ = s.server.Shutdown(shutdownCtx)
	}
	if s.listener != nil {
		_ = s.listener.Close()
		s.listener = nil
	}
}

// Addr returns the bound address, useful when the config asked for port 0.
func (s *Server) Addr() string {
	if s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}
