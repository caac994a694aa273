package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/HatimBenzahra/rework-sub001/pkg/config"
	"github.com/HatimBenzahra/rework-sub001/pkg/logger"
)

const (
	readTimeout = 15 * time.Second
	// Admin recompute and catalog seed answer only once the store is updated.
	writeTimeout = 60 * time.Second
	idleTimeout  = 60 * time.Second
)

// Server exposes leaderboards, the badge catalog and the admin operations
// over HTTP.
type Server struct {
	http *http.Server
	log  *logger.Logger
	env  string
	tz   string
}

// New binds router to cfg.Port. Nothing listens until Start.
func New(cfg *config.Config, log *logger.Logger, router http.Handler) *Server {
	return &Server{
		http: &http.Server{
			Addr:         ":" + cfg.Port,
			Handler:      router,
			ReadTimeout:  readTimeout,
			WriteTimeout: writeTimeout,
			IdleTimeout:  idleTimeout,
		},
		log: log,
		env: cfg.Env,
		tz:  cfg.Timezone,
	}
}

// Addr is the listen address, ":<port>".
func (s *Server) Addr() string {
	return s.http.Addr
}

// Start blocks until the listener fails or Shutdown completes; the latter
// returns nil.
func (s *Server) Start() error {
	s.log.WithFields(map[string]interface{}{
		"addr":     s.http.Addr,
		"env":      s.env,
		"timezone": s.tz,
	}).Info("Gamification API listening")

	err := s.http.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return fmt.Errorf("listen on %s: %w", s.http.Addr, err)
}

// Shutdown drains in-flight requests until ctx expires.
func (s *Server) Shutdown(ctx context.Context) error {
	s.log.Info("Draining API requests")
	if err := s.http.Shutdown(ctx); err != nil {
		return fmt.Errorf("drain api server: %w", err)
	}
	return nil
}
