// Copyright (C) 2025 clearbook-project
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as
// published by the Free Software Foundation, either version 3 of the
// License, or (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with this program. If not, see <https://www.gnu.org/licenses/>.

// SPDX-License-Identifier: LGPL-3.0-or-later

package health

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/clearbook-project/clearbook/internal/logger"
	"github.com/clearbook-project/clearbook/internal/metrics"
)

// Server represents the health check HTTP server
type Server struct {
	checker *Checker
	logger  logger.Logger
	port    int
	server  *http.Server
}

// NewServer creates a new health check server
func NewServer(checker *Checker, log logger.Logger, port int) *Server {
	return &Server{
		checker: checker,
		logger:  log,
		port:    port,
	}
}

// Start starts the health check server
func (s *Server) Start() error {
	mux := http.NewServeMux()

	mux.HandleFunc("/health", s.handleHealth)
	mux.HandleFunc("/health/live", s.handleLiveness)
	mux.HandleFunc("/health/ready", s.handleReadiness)
	mux.HandleFunc("/metrics", s.handleMetrics)

	s.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", s.port),
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	s.logger.Info("starting health check server")

	go func() {
		if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			s.logger.Error("health check server error: " + err.Error())
		}
	}()

	return nil
}

// Stop stops the health check server
func (s *Server) Stop(ctx context.Context) error {
	if s.server != nil {
		return s.server.Shutdown(ctx)
	}
	return nil
}

// handleHealth handles the main health check endpoint
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	status := s.checker.CheckAll()

	if status.Status == StatusUnhealthy {
		w.WriteHeader(http.StatusServiceUnavailable)
	} else {
		w.WriteHeader(http.StatusOK) // degraded still reports 200, with status in the body
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(status)
}

// handleLiveness handles the liveness probe endpoint
func (s *Server) handleLiveness(w http.ResponseWriter, r *http.Request) {
	response := map[string]interface{}{
		"status":    "alive",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(response)
}

// handleReadiness handles the readiness probe endpoint. Ready means the
// user-stream session has completed its handshake; market-stream
// connectivity is reported but does not gate readiness, since a trader can
// still place and cancel orders while only the market feed is down.
func (s *Server) handleReadiness(w http.ResponseWriter, r *http.Request) {
	status := s.checker.CheckAll()

	ready := status.SessionStatus != nil && status.SessionStatus.UserStreamState == ReadyState

	response := map[string]interface{}{
		"ready":     ready,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"session": map[string]interface{}{
			"market_connected":  status.SessionStatus != nil && status.SessionStatus.MarketConnected,
			"user_stream_state": status.SessionStatus.UserStreamState,
		},
	}

	if !ready {
		response["errors"] = status.Errors
		w.WriteHeader(http.StatusServiceUnavailable)
	} else {
		w.WriteHeader(http.StatusOK)
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(response)
}

// handleMetrics handles the metrics endpoint
func (s *Server) handleMetrics(w http.ResponseWriter, r *http.Request) {
	collector := metrics.GetGlobalCollector()
	snapshot := collector.GetSnapshot()

	response := map[string]interface{}{
		"timestamp": snapshot.Timestamp.UTC().Format(time.RFC3339),
		"uptime":    snapshot.Uptime.String(),
		"counters": map[string]int64{
			"signatures":          snapshot.SignatureCount,
			"verifications":       snapshot.VerificationCount,
			"successful_verifies": snapshot.SuccessfulVerifies,
			"failed_verifies":     snapshot.FailedVerifies,
			"nonce_reseeds":       snapshot.NonceReseeds,
			"handshake_attempts":  snapshot.HandshakeAttempts,
			"handshake_failures":  snapshot.HandshakeFailures,
		},
		"timings": map[string]interface{}{
			"avg_signature_time_us":    snapshot.AvgSignatureTime,
			"avg_verification_time_us": snapshot.AvgVerificationTime,
			"avg_handshake_time_us":    snapshot.AvgHandshakeTime,
			"p95_signature_time_us":    snapshot.P95SignatureTime,
			"p95_verification_time_us": snapshot.P95VerificationTime,
			"p95_handshake_time_us":    snapshot.P95HandshakeTime,
		},
		"rates": map[string]float64{
			"verification_success_rate": snapshot.GetVerificationSuccessRate(),
			"handshake_failure_rate":    snapshot.GetHandshakeFailureRate(),
		},
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(response)
}

// StartHealthServer is a convenience function to start a health server for
// a running engine.
func StartHealthServer(port int, marketState MarketStateFunc, userStreamState UserStreamStateFunc) (*Server, error) {
	checker := NewChecker(marketState, userStreamState)
	log := logger.NewLogger(os.Stdout, logger.InfoLevel)

	server := NewServer(checker, log, port)
	if err := server.Start(); err != nil {
		return nil, err
	}

	return server, nil
}
