// Package server exposes the ledger over a thin HTTP JSON surface. Handlers
// translate requests into service calls and domain errors into status codes;
// no financial rules live here.
package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/dmaitland/tally/internal/app"
	"github.com/dmaitland/tally/internal/common"
)

// Server wraps the HTTP server and application reference.
type Server struct {
	app    *app.App
	server *http.Server
	logger *common.Logger
}

// NewServer creates a new HTTP REST API server.
func NewServer(a *app.App) *Server {
	s := &Server{
		app:    a,
		logger: a.Logger,
	}

	mux := http.NewServeMux()
	s.registerRoutes(mux)

	s.server = &http.Server{
		Addr:         fmt.Sprintf("%s:%d", a.Config.Server.Host, a.Config.Server.Port),
		Handler:      applyMiddleware(mux, a.Logger),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return s
}

// Handler returns the HTTP handler for testing.
func (s *Server) Handler() http.Handler {
	return s.server.Handler
}

// Start starts the HTTP server (blocking).
func (s *Server) Start() error {
	s.logger.Info().
		Str("addr", s.server.Addr).
		Msg("Starting REST API server")
	return s.server.ListenAndServe()
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}

// registerRoutes sets up all REST API routes on the mux.
func (s *Server) registerRoutes(mux *http.ServeMux) {
	// System
	mux.HandleFunc("/api/health", s.handleHealth)
	mux.HandleFunc("/api/version", s.handleVersion)

	// Accounts and their sub-resources
	mux.HandleFunc("/api/accounts", s.handleAccountOpen)
	mux.HandleFunc("/api/accounts/", s.routeAccounts)

	// Transfers
	mux.HandleFunc("/api/transfers", s.handleTransfer)
	mux.HandleFunc("/api/transfers/", s.routeTransfers)

	// Market data
	mux.HandleFunc("/api/market/quote/", s.handleMarketQuote)
}
