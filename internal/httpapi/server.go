package httpapi

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"github.com/hamed0406/connectcheck/internal/probe"
)

// Prober runs one full connectivity check.
type Prober interface {
	Check(ctx context.Context) probe.CheckResult
}

type Server struct {
	Logger *zap.Logger
	Prober Prober
}

func NewServer(l *zap.Logger, p Prober) *Server {
	return &Server{Logger: l, Prober: p}
}

func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{http.MethodGet, http.MethodOptions},
		MaxAge:         300,
	}))

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	r.Get("/api/check", s.handleCheck)

	return r
}

type checkResponse struct {
	Success   bool    `json:"success"`
	Message   string  `json:"message"`
	LatencyMS float64 `json:"latency_ms"`
	URL       string  `json:"url"`
	Attempts  int     `json:"attempts,omitempty"`
	CheckedAt string  `json:"checked_at"`
}

func (s *Server) handleCheck(w http.ResponseWriter, r *http.Request) {
	res := s.Prober.Check(r.Context())

	status := http.StatusOK
	if !res.Success {
		status = http.StatusServiceUnavailable
	}
	s.Logger.Info("api_check",
		zap.String("remote", r.RemoteAddr),
		zap.Bool("success", res.Success),
		zap.Float64("latency_ms", res.LatencyMS),
	)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(checkResponse{
		Success:   res.Success,
		Message:   res.Message,
		LatencyMS: res.LatencyMS,
		URL:       res.Target,
		Attempts:  res.Attempts,
		CheckedAt: time.Now().UTC().Format(time.RFC3339),
	})
}
