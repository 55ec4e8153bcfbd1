package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/Divas-Gupta30/weather-pdf-agent/internal/graph"
	"github.com/Divas-Gupta30/weather-pdf-agent/internal/metrics"
	"github.com/Divas-Gupta30/weather-pdf-agent/internal/storage"
)

const shutdownTimeout = 30 * time.Second

// Asker runs the question pipeline.
type Asker interface {
	Run(ctx context.Context, question string) (*graph.State, error)
}

// CityWeather looks up a summary for an explicit city.
type CityWeather interface {
	FetchForCity(ctx context.Context, city string) (string, error)
}

// HealthCheck reports whether a dependency is reachable.
type HealthCheck func(ctx context.Context) error

type Config struct {
	Addr    string
	Logger  *slog.Logger
	Asker   Asker
	Weather CityWeather
	Index   storage.VectorIndex
	TopK    int
	// History is optional; without it the history endpoints answer 404.
	History storage.HistoryLog
	Checks  map[string]HealthCheck
}

type Server struct {
	log     *slog.Logger
	addr    string
	asker   Asker
	weather CityWeather
	index   storage.VectorIndex
	topK    int
	history storage.HistoryLog
	checks  map[string]HealthCheck
	router  *mux.Router
}

func New(cfg Config) (*Server, error) {
	if cfg.Asker == nil {
		return nil, errors.New("asker is required")
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if cfg.TopK <= 0 {
		cfg.TopK = graph.DefaultTopK
	}
	if cfg.Addr == "" {
		cfg.Addr = ":8080"
	}

	s := &Server{
		log:     cfg.Logger,
		addr:    cfg.Addr,
		asker:   cfg.Asker,
		weather: cfg.Weather,
		index:   cfg.Index,
		topK:    cfg.TopK,
		history: cfg.History,
		checks:  cfg.Checks,
	}
	s.router = s.routes()
	return s, nil
}

func (s *Server) routes() *mux.Router {
	router := mux.NewRouter()

	router.HandleFunc("/ask", s.instrument("/ask", s.handleAsk)).Methods(http.MethodPost)
	router.HandleFunc("/mcp", s.instrument("/mcp", s.handleMCP)).Methods(http.MethodPost)
	router.HandleFunc("/tools/list", s.instrument("/tools/list", s.handleToolsList)).Methods(http.MethodGet)
	router.HandleFunc("/history", s.instrument("/history", s.handleListHistory)).Methods(http.MethodGet)
	router.HandleFunc("/history", s.instrument("/history", s.handleClearHistory)).Methods(http.MethodDelete)
	router.HandleFunc("/health", s.handleHealth).Methods(http.MethodGet)

	router.Handle("/metrics", promhttp.Handler())
	return router
}

func (s *Server) Handler() http.Handler { return s.router }

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	server := &http.Server{
		Addr:              s.addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.Info("Agent server starting", "addr", s.addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server failed to start: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	s.log.Info("Shutting down gracefully...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}
	s.log.Info("Server exited")
	return nil
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func (s *Server) instrument(endpoint string, h http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		h(rec, r)
		metrics.HTTPRequestsTotal.WithLabelValues(r.Method, endpoint, strconv.Itoa(rec.status)).Inc()
		metrics.HTTPRequestDuration.WithLabelValues(r.Method, endpoint).Observe(time.Since(start).Seconds())
	}
}

type askRequest struct {
	Question string `json:"question"`
}

func (s *Server) handleAsk(w http.ResponseWriter, r *http.Request) {
	var req askRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid JSON", http.StatusBadRequest)
		return
	}
	if req.Question == "" {
		http.Error(w, "Question is required", http.StatusBadRequest)
		return
	}

	state, err := s.asker.Run(r.Context(), req.Question)
	if err != nil {
		s.log.Error("pipeline failed", "error", err)
		http.Error(w, fmt.Sprintf("Failed to answer question: %v", err), http.StatusInternalServerError)
		return
	}
	writeJSONResponse(w, http.StatusOK, state)
}

func (s *Server) handleListHistory(w http.ResponseWriter, r *http.Request) {
	if s.history == nil {
		http.Error(w, "History not enabled", http.StatusNotFound)
		return
	}

	limit := 0
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			http.Error(w, "Invalid limit", http.StatusBadRequest)
			return
		}
		limit = n
	}

	entries, err := s.history.List(r.Context(), limit)
	if err != nil {
		http.Error(w, "Failed to fetch history", http.StatusInternalServerError)
		return
	}
	if entries == nil {
		entries = []storage.HistoryEntry{}
	}
	writeJSONResponse(w, http.StatusOK, map[string]any{"entries": entries, "count": len(entries)})
}

func (s *Server) handleClearHistory(w http.ResponseWriter, r *http.Request) {
	if s.history == nil {
		http.Error(w, "History not enabled", http.StatusNotFound)
		return
	}
	if err := s.history.Clear(r.Context()); err != nil {
		http.Error(w, "Failed to clear history", http.StatusInternalServerError)
		return
	}
	metrics.HistoryEntries.Set(0)
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	health := map[string]any{"status": "healthy"}
	status := http.StatusOK
	for name, check := range s.checks {
		if err := check(ctx); err != nil {
			health[name] = "disconnected"
			health["status"] = "degraded"
			status = http.StatusServiceUnavailable
			continue
		}
		health[name] = "connected"
	}
	writeJSONResponse(w, status, health)
}

func writeJSONResponse(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}
