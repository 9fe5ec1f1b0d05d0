package server

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"aquamind/internal/analyzer"
	"aquamind/internal/models"
	"aquamind/internal/transport"
)

// HistoryStore reads back persisted analyses. Nil disables /history.
type HistoryStore interface {
	GetRecentAnalyses(limit int) ([]models.AnalysisResult, error)
}

// Server is the device's HTTP surface: the manual analysis trigger plus
// read-only inspection endpoints.
type Server struct {
	analyzer  *analyzer.Analyzer
	publisher *transport.Publisher
	sink      transport.ResultSink
	history   HistoryStore
	mux       *http.ServeMux
}

// NewServer creates a new HTTP server. Publisher, sink and history may be
// nil on offline devices.
func NewServer(a *analyzer.Analyzer, publisher *transport.Publisher, sink transport.ResultSink, history HistoryStore) *Server {
	s := &Server{
		analyzer:  a,
		publisher: publisher,
		sink:      sink,
		history:   history,
		mux:       http.NewServeMux(),
	}

	// Register routes
	s.mux.HandleFunc("/health", s.handleHealth)
	s.mux.HandleFunc("/analyze", s.handleAnalyze)
	s.mux.HandleFunc("/last-result", s.handleLastResult)
	s.mux.HandleFunc("/history", s.handleHistory)
	s.mux.HandleFunc("/profiles", s.handleProfiles)
	s.mux.Handle("/metrics", promhttp.Handler())

	return s
}

// Handler exposes the mux for tests.
func (s *Server) Handler() http.Handler {
	return s.mux
}

// Start starts the HTTP server
func (s *Server) Start(addr string) error {
	return http.ListenAndServe(addr, s.mux)
}

// handleHealth returns the server health status
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	status := s.analyzer.Status()

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"status":         "healthy",
		"busy":           status.Busy,
		"analysis_count": status.AnalysisCount,
		"time":           time.Now().UTC().String(),
	})
}

// handleAnalyze triggers one analysis cycle. Triggers while an analysis
// is running or cooling down are rejected, mirroring the physical
// button's debounce behavior.
func (s *Server) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	result, err := s.analyzer.Analyze()
	if err != nil {
		switch {
		case errors.Is(err, analyzer.ErrBusy):
			http.Error(w, err.Error(), http.StatusConflict)
		case errors.Is(err, analyzer.ErrCoolingDown):
			http.Error(w, err.Error(), http.StatusTooManyRequests)
		default:
			http.Error(w, err.Error(), http.StatusInternalServerError)
		}
		return
	}

	// Best-effort fan-out; the HTTP caller gets the result either way.
	if s.publisher != nil {
		if err := s.publisher.PublishResult(context.Background(), result); err != nil {
			log.Printf("failed to publish result: %v", err)
		}
	}
	if s.sink != nil {
		if err := s.sink.StoreAnalysis(result); err != nil {
			log.Printf("failed to store analysis history: %v", err)
		}
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(result)
}

// handleLastResult returns the cached most recent analysis
func (s *Server) handleLastResult(w http.ResponseWriter, r *http.Request) {
	result := s.analyzer.LastResult()
	if result == nil {
		http.Error(w, "no analysis has run yet", http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(result)
}

// handleHistory returns persisted analyses
func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	if s.history == nil {
		http.Error(w, "history store not configured", http.StatusNotFound)
		return
	}

	limitStr := r.URL.Query().Get("limit")
	limit := 50
	if limitStr != "" {
		if l, err := strconv.Atoi(limitStr); err == nil {
			limit = l
		}
	}

	analyses, err := s.history.GetRecentAnalyses(limit)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"count":    len(analyses),
		"analyses": analyses,
	})
}

// handleProfiles lists the registered geo profiles
func (s *Server) handleProfiles(w http.ResponseWriter, r *http.Request) {
	registry := s.analyzer.Registry()

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"default":  registry.Default().Name,
		"profiles": registry.Names(),
	})
}
