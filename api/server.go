// Package api provides the HTTP REST API server for edgarlens.
//
// It exposes endpoints for raw bundle collection, agent analysis and
// rendered research notes.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"github.com/seenimoa/edgarlens/internal/agent"
	"github.com/seenimoa/edgarlens/internal/config"
	"github.com/seenimoa/edgarlens/internal/datasource"
	"github.com/seenimoa/edgarlens/internal/llm"
	"github.com/seenimoa/edgarlens/internal/report"
	"github.com/seenimoa/edgarlens/pkg/models"
	"github.com/seenimoa/edgarlens/pkg/utils"
)

// Version is reported by the health endpoint.
var Version = "dev"

// Collector assembles the raw bundle for a ticker.
type Collector interface {
	Collect(ctx context.Context, ticker string) *models.RawBundle
}

// Analyzer runs analyst agents over a bundle.
type Analyzer interface {
	Names() []string
	Agent(name string) (agent.Agent, bool)
	Run(ctx context.Context, ticker string, bundle *models.RawBundle, names ...string) (map[string]*agent.AgentResult, error)
}

// Server is the HTTP API server.
type Server struct {
	router    chi.Router
	cfg       *config.Config
	collector Collector
	analyzer  Analyzer // nil when no LLM provider is configured
	logger    *zap.Logger
}

// NewServer creates an API server over the given collector and analyzer.
// analyzer may be nil, in which case the analysis endpoints answer 503.
func NewServer(cfg *config.Config, collector Collector, analyzer Analyzer, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	srv := &Server{
		cfg:       cfg,
		collector: collector,
		analyzer:  analyzer,
		logger:    logger,
	}
	srv.router = srv.buildRouter()
	return srv
}

// NewServerFromConfig wires the aggregator and, when an LLM key is present,
// the agent orchestrator.
func NewServerFromConfig(cfg *config.Config, logger *zap.Logger) (*Server, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	agg := datasource.NewAggregatorFromConfig(cfg, logger)

	var analyzer Analyzer
	provider, err := llm.NewFromConfig(cfg)
	switch {
	case errors.Is(err, llm.ErrNoAPIKey):
		logger.Warn("no LLM API key configured; analysis endpoints disabled",
			zap.String("provider", cfg.LLM.Primary))
	case err != nil:
		return nil, fmt.Errorf("LLM setup failed: %w", err)
	default:
		analyzer = agent.NewOrchestrator(agent.OrchestratorConfig{
			Provider:   provider,
			WindowDays: cfg.Prices.WindowDays,
			Logger:     logger.Named("agents"),
		})
	}

	return NewServer(cfg, agg, analyzer, logger), nil
}

// Router returns the chi router for testing.
func (s *Server) Router() chi.Router {
	return s.router
}

// ListenAndServe starts the HTTP server with graceful shutdown.
func (s *Server) ListenAndServe(addr string) error {
	httpSrv := &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 5 * time.Minute,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("listening", zap.String("addr", addr))
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	// Graceful shutdown
	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(done)

	select {
	case err := <-errCh:
		return fmt.Errorf("HTTP server error: %w", err)
	case <-done:
	}
	s.logger.Info("shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	return httpSrv.Shutdown(ctx)
}

// buildRouter configures all routes and middleware.
func (s *Server) buildRouter() chi.Router {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.requestLogger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(5 * time.Minute))

	// CORS
	origins := []string{"*"}
	if s.cfg != nil && len(s.cfg.API.CORSOrigins) > 0 {
		origins = s.cfg.API.CORSOrigins
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type", "X-Request-ID"},
		ExposedHeaders: []string{"X-Request-ID"},
		MaxAge:         300,
	}))

	r.Get("/health", s.handleHealth)

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/health", s.handleHealth)

		// Raw bundle
		r.Get("/raw/{ticker}", s.handleRaw)

		// Agents
		r.Get("/agents", s.handleAgents)
		r.Post("/analyze/{ticker}", s.handleAnalyze)

		// Rendered note
		r.Get("/report/{ticker}", s.handleReport)

		// Configuration
		r.Get("/config/keys", s.handleGetConfigKeys)
	})

	return r
}

// requestLogger logs each request through zap.
func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		defer func() {
			s.logger.Info("http request",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", ww.Status()),
				zap.Int("bytes", ww.BytesWritten()),
				zap.Duration("latency", time.Since(start)),
				zap.String("request_id", middleware.GetReqID(r.Context())),
			)
		}()
		next.ServeHTTP(ww, r)
	})
}

// ════════════════════════════════════════════════════════════════════
// Request / Response types
// ════════════════════════════════════════════════════════════════════

// APIResponse is the standard JSON envelope.
type APIResponse struct {
	Success bool   `json:"success"`
	Data    any    `json:"data,omitempty"`
	Error   string `json:"error,omitempty"`
}

// AnalyzeResponse is the data returned by POST /api/v1/analyze/{ticker}.
type AnalyzeResponse struct {
	Ticker  string                        `json:"ticker"`
	Bundle  *models.RawBundle             `json:"bundle"`
	Results map[string]*agent.AgentResult `json:"results"`
}

// ════════════════════════════════════════════════════════════════════
// Handlers
// ════════════════════════════════════════════════════════════════════

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, APIResponse{
		Success: true,
		Data: map[string]any{
			"status":   "ok",
			"version":  Version,
			"analysis": s.analyzer != nil,
			"time_utc": time.Now().UTC().Format(time.RFC3339),
		},
	})
}

func (s *Server) handleRaw(w http.ResponseWriter, r *http.Request) {
	ticker, ok := tickerParam(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, APIResponse{
		Success: true,
		Data:    s.collector.Collect(r.Context(), ticker),
	})
}

func (s *Server) handleAgents(w http.ResponseWriter, r *http.Request) {
	if s.analyzer == nil {
		writeError(w, http.StatusServiceUnavailable, "analysis disabled: no LLM API key configured")
		return
	}
	writeJSON(w, http.StatusOK, APIResponse{Success: true, Data: s.analyzer.Names()})
}

// handleAnalyze collects the bundle and runs the requested agents
// (?agent=sec&agent=news, default all). A single requested agent that
// fails maps its error onto the response status.
func (s *Server) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	if s.analyzer == nil {
		writeError(w, http.StatusServiceUnavailable, "analysis disabled: no LLM API key configured")
		return
	}
	ticker, ok := tickerParam(w, r)
	if !ok {
		return
	}
	names := agentParams(r)
	for _, name := range names {
		if _, ok := s.analyzer.Agent(name); !ok {
			writeError(w, http.StatusBadRequest, fmt.Sprintf("unknown agent %q (available: %s)",
				name, strings.Join(s.analyzer.Names(), ", ")))
			return
		}
	}

	bundle := s.collector.Collect(r.Context(), ticker)

	if len(names) == 1 {
		a, _ := s.analyzer.Agent(names[0])
		res, err := a.Process(r.Context(), ticker, bundle)
		if err != nil {
			writeError(w, statusForAgentError(err), err.Error())
			return
		}
		writeJSON(w, http.StatusOK, APIResponse{Success: true, Data: AnalyzeResponse{
			Ticker:  ticker,
			Bundle:  bundle,
			Results: map[string]*agent.AgentResult{a.Name(): res},
		}})
		return
	}

	results, err := s.analyzer.Run(r.Context(), ticker, bundle, names...)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, APIResponse{Success: true, Data: AnalyzeResponse{
		Ticker:  ticker,
		Bundle:  bundle,
		Results: results,
	}})
}

// handleReport renders the research note (?format=text|html). Agents run
// only when requested with ?agent=.
func (s *Server) handleReport(w http.ResponseWriter, r *http.Request) {
	ticker, ok := tickerParam(w, r)
	if !ok {
		return
	}

	format := report.ReportFormat(strings.ToLower(r.URL.Query().Get("format")))
	if format == "" {
		format = report.FormatHTML
	}
	if format != report.FormatHTML && format != report.FormatText {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("unsupported format %q", format))
		return
	}

	names := agentParams(r)
	if len(names) > 0 && s.analyzer == nil {
		writeError(w, http.StatusServiceUnavailable, "analysis disabled: no LLM API key configured")
		return
	}

	bundle := s.collector.Collect(r.Context(), ticker)

	var results map[string]*agent.AgentResult
	if len(names) > 0 {
		var err error
		results, err = s.analyzer.Run(r.Context(), ticker, bundle, names...)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
	}

	cfg := report.DefaultReportConfig()
	cfg.Format = format
	out, err := report.Generate(bundle, results, cfg)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	contentType := "text/plain; charset=utf-8"
	if format == report.FormatHTML {
		contentType = "text/html; charset=utf-8"
	}
	w.Header().Set("Content-Type", contentType)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(out))
}

// ════════════════════════════════════════════════════════════════════
// Helpers
// ════════════════════════════════════════════════════════════════════

func tickerParam(w http.ResponseWriter, r *http.Request) (string, bool) {
	ticker := utils.NormalizeTicker(chi.URLParam(r, "ticker"))
	if ticker == "" {
		writeError(w, http.StatusBadRequest, "ticker is required")
		return "", false
	}
	return ticker, true
}

// agentParams reads ?agent= values, accepting repeats and comma lists.
func agentParams(r *http.Request) []string {
	var names []string
	for _, v := range r.URL.Query()["agent"] {
		for _, name := range strings.Split(v, ",") {
			if name = strings.ToLower(strings.TrimSpace(name)); name != "" {
				names = append(names, name)
			}
		}
	}
	return names
}

func statusForAgentError(err error) int {
	switch {
	case errors.Is(err, agent.ErrInsufficientData):
		return http.StatusUnprocessableEntity
	case errors.Is(err, llm.ErrRateLimit):
		return http.StatusTooManyRequests
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	default:
		return http.StatusBadGateway
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, APIResponse{
		Success: false,
		Error:   msg,
	})
}
