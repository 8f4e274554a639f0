// Package server exposes the caller-facing HTTP API consumed by the
// dashboard: stake account refresh, aggregated rewards and metrics.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"github.com/wnt/stakewatch/internal/solscan"
	"github.com/wnt/stakewatch/internal/syncer"
)

// Server is the HTTP API server
type Server struct {
	syncer  *syncer.Syncer
	httpSvr *http.Server
	logger  zerolog.Logger
}

// New creates a new API server listening on listenAddr
func New(sy *syncer.Syncer, listenAddr string, logger zerolog.Logger) *Server {
	s := &Server{
		syncer: sy,
		logger: logger.With().Str("component", "server").Logger(),
	}

	router := mux.NewRouter()
	router.HandleFunc("/api/health", s.handleHealth).Methods(http.MethodGet)
	router.HandleFunc("/api/wallet/{address}/stake-accounts", s.handleStakeAccounts).Methods(http.MethodGet)
	router.HandleFunc("/api/wallet/{address}/rewards", s.handleRewards).Methods(http.MethodGet)
	router.Handle("/metrics", promhttp.Handler())

	handler := handlers.RecoveryHandler()(
		handlers.CORS(
			handlers.AllowedOrigins([]string{"*"}),
			handlers.AllowedMethods([]string{http.MethodGet}),
			handlers.AllowedHeaders([]string{"Content-Type"}),
		)(router),
	)

	s.httpSvr = &http.Server{
		Addr:         listenAddr,
		Handler:      handler,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 15 * time.Minute, // cold-cache refreshes are slow
	}

	return s
}

// Start runs the HTTP server until it is shut down
func (s *Server) Start() error {
	s.logger.Info().Str("addr", s.httpSvr.Addr).Msg("Starting HTTP server")
	if err := s.httpSvr.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown gracefully stops the HTTP server
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info().Msg("Shutting down HTTP server")
	return s.httpSvr.Shutdown(ctx)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

// handleStakeAccounts serves the wallet's stake accounts: cached data
// immediately when present (a background refresh is triggered), a full
// synchronous refresh otherwise.
func (s *Server) handleStakeAccounts(w http.ResponseWriter, r *http.Request) {
	address := mux.Vars(r)["address"]

	result, err := s.syncer.RefreshWallet(r.Context(), address)
	if err != nil {
		s.writeError(w, address, err)
		return
	}

	s.writeJSON(w, http.StatusOK, result)
}

// handleRewards serves the aggregated reward time series built from the
// wallet's cached account list
func (s *Server) handleRewards(w http.ResponseWriter, r *http.Request) {
	address := mux.Vars(r)["address"]

	result, err := s.syncer.AggregatedRewards(r.Context(), address)
	if err != nil {
		s.writeError(w, address, err)
		return
	}

	s.writeJSON(w, http.StatusOK, map[string]interface{}{
		"rewards":         result.Points,
		"record_count":    result.RecordCount,
		"failed_accounts": result.FailedAccounts,
	})
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		s.logger.Error().Err(err).Msg("Failed to encode response")
	}
}

func (s *Server) writeError(w http.ResponseWriter, wallet string, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, syncer.ErrInvalidAddress):
		status = http.StatusBadRequest
	case errors.Is(err, solscan.ErrUpstreamUnavailable):
		status = http.StatusBadGateway
	}

	s.logger.Error().Err(err).Str("wallet", wallet).Int("status", status).Msg("Request failed")
	s.writeJSON(w, status, map[string]string{"error": err.Error()})
}
