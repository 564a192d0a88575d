// Package server exposes the read-only state snapshot and the start/stop
// commands to the presentation layer over HTTP. It renders nothing itself:
// whoever consumes it decides how the numbers look.
package server

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"spikewatch/internal/market"
	"spikewatch/internal/supervisor"

	"go.uber.org/zap"
)

type Server struct {
	mux    *http.ServeMux
	store  *market.Store
	sup    *supervisor.Supervisor
	logger *zap.Logger
}

func New(store *market.Store, sup *supervisor.Supervisor, logger *zap.Logger) *Server {
	s := &Server{
		mux:    http.NewServeMux(),
		store:  store,
		sup:    sup,
		logger: logger,
	}
	s.routes()
	return s
}

func (s *Server) routes() {
	s.mux.HandleFunc("GET /api/state", s.handleState)
	s.mux.HandleFunc("GET /api/watch", s.handleWatchList)
	s.mux.HandleFunc("PUT /api/watch/{symbol}", s.handleWatchStart)
	s.mux.HandleFunc("DELETE /api/watch/{symbol}", s.handleWatchStop)
	s.mux.HandleFunc("GET /healthz", s.handleHealth)
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

func (s *Server) handleState(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"symbols": s.store.Snapshot(),
		"active":  s.sup.Active(),
	})
}

func (s *Server) handleWatchList(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"active": s.sup.Active()})
}

func (s *Server) handleWatchStart(w http.ResponseWriter, r *http.Request) {
	symbol := strings.ToUpper(r.PathValue("symbol"))
	if err := s.sup.Start(symbol); err != nil {
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"symbol": symbol, "active": true})
}

func (s *Server) handleWatchStop(w http.ResponseWriter, r *http.Request) {
	symbol := strings.ToUpper(r.PathValue("symbol"))
	s.sup.Stop(symbol)
	writeJSON(w, http.StatusOK, map[string]any{"symbol": symbol, "active": false})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"symbols": len(s.store.Symbols()),
		"active":  s.sup.Active(),
		"time":    time.Now().UTC(),
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
