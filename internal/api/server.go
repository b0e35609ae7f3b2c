// Package api exposes the interview engine over HTTP.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/spigell/hh-interviewer/internal/interview"
	"github.com/spigell/hh-interviewer/internal/phases"
	"go.uber.org/zap"
)

const shutdownTimeout = 30 * time.Second

// Interviews is the engine surface served over HTTP.
type Interviews interface {
	Create(ctx context.Context, profile interview.Profile, budget time.Duration) (*interview.Session, error)
	Session(ctx context.Context, id string) (*interview.Session, error)
	NextQuestion(ctx context.Context, id string) (*interview.Question, error)
	SubmitResponse(ctx context.Context, id, questionID, answer string, timeTaken float64) (*interview.Evaluation, error)
	Finalize(ctx context.Context, id string) (*interview.Report, error)
	Report(ctx context.Context, id string) (*interview.Report, error)
	Sequencer() *phases.Sequencer
}

// Server serves the interview API.
type Server struct {
	httpServer *http.Server
	interviews Interviews
	logger     *zap.Logger
	version    string
}

// Config holds server configuration.
type Config struct {
	Addr    string
	Version string
}

// New builds a server around the engine.
func New(cfg Config, interviews Interviews, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}

	s := &Server{
		interviews: interviews,
		logger:     logger,
		version:    cfg.Version,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", s.handleHealth)
	mux.HandleFunc("POST /api/v1/interviews", s.handleCreate)
	mux.HandleFunc("GET /api/v1/interviews/{id}", s.handleSession)
	mux.HandleFunc("POST /api/v1/interviews/{id}/next-question", s.handleNextQuestion)
	mux.HandleFunc("POST /api/v1/interviews/{id}/responses", s.handleSubmitResponse)
	mux.HandleFunc("POST /api/v1/interviews/{id}/finalize", s.handleFinalize)
	mux.HandleFunc("GET /api/v1/interviews/{id}/report", s.handleReport)

	s.httpServer = &http.Server{
		Addr:              cfg.Addr,
		Handler:           s.withLogging(mux),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		// Oracle retries may take several timeouts.
		WriteTimeout: 3 * time.Minute,
		IdleTimeout:  60 * time.Second,
	}

	return s
}

// Handler returns the routed handler.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

// Run serves until ctx is cancelled and then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("http server starting", zap.String("addr", s.httpServer.Addr))
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err, ok := <-errCh:
		if ok {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	s.logger.Info("shutting down http server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	s.logger.Info("http server stopped")
	return nil
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

// withLogging logs every request with its status and latency.
func (s *Server) withLogging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

		next.ServeHTTP(rec, r)

		s.logger.Info("http request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", rec.status),
			zap.Duration("latency", time.Since(start)),
			zap.String("remote_addr", r.RemoteAddr),
		)
	})
}

func (s *Server) jsonResponse(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.logger.Warn("encoding json response", zap.Error(err))
	}
}

type errorBody struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

func (s *Server) errorResponse(w http.ResponseWriter, status int, kind, message string) {
	s.jsonResponse(w, status, errorBody{Error: kind, Message: message})
}

// engineError maps err to its status and writes it.
func (s *Server) engineError(w http.ResponseWriter, r *http.Request, err error) {
	status, kind := HTTPStatus(err)
	if status >= http.StatusInternalServerError {
		s.logger.Error("request failed",
			zap.String("path", r.URL.Path),
			zap.String("kind", kind),
			zap.Error(err),
		)
	}
	s.errorResponse(w, status, kind, err.Error())
}
