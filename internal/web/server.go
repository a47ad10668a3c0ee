// Package web provides the JSON API behind the usage dashboard.
package web

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/user/xrayboard/internal/storage"
	"github.com/user/xrayboard/internal/usage"
	"github.com/user/xrayboard/internal/util"
	"github.com/user/xrayboard/internal/xray"
)

// Server is the web server.
type Server struct {
	config *util.Config
	srv    *http.Server
	h      *Handlers
}

// NewServer creates a new web server over the usage aggregator, the proxy
// manager and the event log. manager and events may be nil on hosts that
// only serve reports.
func NewServer(cfg *util.Config, cache *usage.ReportCache, agg *usage.Aggregator, manager *xray.Manager, events *storage.EventStorage) *Server {
	return &Server{
		config: cfg,
		h:      NewHandlers(cfg, cache, agg, manager, events),
	}
}

// Routes builds the request mux. Exposed so tests drive the full routing
// table through httptest.
func (s *Server) Routes() http.Handler {
	mux := http.NewServeMux()
	h := s.h

	mux.HandleFunc("/health", h.Health)
	mux.HandleFunc("/api/dashboard", h.APIDashboard)
	mux.HandleFunc("/api/days", h.APIDays)
	mux.HandleFunc("/api/summary", h.APISummary)
	mux.HandleFunc("/api/summary_conns", h.APISummaryConns)
	mux.HandleFunc("/api/user_day", h.APIUserDay)
	mux.HandleFunc("/api/user_day_conns", h.APIUserDayConns)

	mux.HandleFunc("/api/users", h.APIGetUsers)
	mux.HandleFunc("/api/users/add", h.APIAddUser)
	mux.HandleFunc("/api/users/delete", h.APIDeleteUser)
	mux.HandleFunc("/api/users/kick", h.APIKickUser)
	mux.HandleFunc("/api/users/link", h.APIUserLink)

	mux.HandleFunc("/api/service/status", h.APIServiceStatus)
	mux.HandleFunc("/api/service/restart", h.APIServiceRestart)
	mux.HandleFunc("/api/events", h.APIGetEvents)

	return mux
}

// Start starts the web server.
func (s *Server) Start() error {
	s.srv = &http.Server{
		Addr:         fmt.Sprintf("%s:%d", s.config.WebHost, s.config.WebPort),
		Handler:      s.Routes(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		s.srv.Shutdown(ctx)
	}()

	util.Info("Web server starting on %s:%d", s.config.WebHost, s.config.WebPort)

	if err := s.srv.ListenAndServe(); err != http.ErrServerClosed {
		return err
	}

	return nil
}

// Stop stops the web server.
func (s *Server) Stop() error {
	if s.srv == nil {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	return s.srv.Shutdown(ctx)
}
