// Package api is the thin HTTP adapter over the forecaster: request
// decoding, bearer auth, error mapping, and metrics. All forecasting
// decisions live in the core packages.
package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/storefront-labs/storecast"
	"github.com/storefront-labs/storecast/cache"
	"github.com/storefront-labs/storecast/forecast"
	"github.com/storefront-labs/storecast/history"
	"github.com/storefront-labs/storecast/internal/metrics"
	"github.com/storefront-labs/storecast/weather"
)

// ForecastService is the slice of the core the adapter needs.
type ForecastService interface {
	Predict(ctx context.Context, userID string, loc weather.Location, target time.Time) (*storecast.Result, error)
	PredictNextDay(ctx context.Context, userID string, loc weather.Location) (*storecast.Result, error)
	InvalidateUser(userID string) int
	CacheStats() cache.Stats
}

// Options configures the HTTP server.
type Options struct {
	// APIKey is the bearer token required on mutating endpoints. Empty
	// means auth is unconfigured and those endpoints refuse to serve.
	APIKey string

	Logger  zerolog.Logger
	Metrics *metrics.Manager

	// Reported by the health endpoint.
	WeatherConfigured  bool
	DatabaseConfigured bool
}

// Server serves the forecast HTTP API.
type Server struct {
	svc ForecastService
	opt *Options
}

func NewServer(svc ForecastService, opt *Options) *Server {
	if opt == nil {
		opt = &Options{Logger: zerolog.Nop()}
	}
	return &Server{svc: svc, opt: opt}
}

// Handler builds the route table.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /", s.handleHealth)
	mux.HandleFunc("GET /health", s.handleHealth)
	mux.HandleFunc("POST /predict/next-day", s.withAuth(s.handlePredict))
	mux.HandleFunc("POST /retrain", s.withAuth(s.handleRetrain))
	if s.opt.Metrics != nil {
		mux.Handle("GET /metrics", s.opt.Metrics.Handler())
	}
	return s.observe(mux)
}

// observe tags each request with an id and records log and metric entries.
func (s *Server) observe(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		requestID := uuid.NewString()
		w.Header().Set("X-Request-ID", requestID)

		sw := &statusWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(sw, r)

		elapsed := time.Since(start)
		if s.opt.Metrics != nil {
			s.opt.Metrics.HTTPRequest(r.URL.Path, http.StatusText(sw.status), elapsed)
		}
		s.opt.Logger.Info().
			Str("request_id", requestID).
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", sw.status).
			Dur("elapsed", elapsed).
			Msg("request served")
	})
}

type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(status int) {
	w.status = status
	w.ResponseWriter.WriteHeader(status)
}

func (s *Server) withAuth(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if s.opt.APIKey == "" {
			s.writeError(w, http.StatusInternalServerError, "api key not configured on server")
			return
		}
		if r.Header.Get("Authorization") != "Bearer "+s.opt.APIKey {
			s.writeError(w, http.StatusUnauthorized, "invalid api key")
			return
		}
		next(w, r)
	}
}

type predictRequest struct {
	UserID     string  `json:"user_id"`
	Lat        float64 `json:"lat"`
	Lon        float64 `json:"lon"`
	TargetDate string  `json:"target_date"`
}

func (s *Server) handlePredict(w http.ResponseWriter, r *http.Request) {
	var req predictRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "malformed request body")
		return
	}
	if req.UserID == "" {
		s.writeError(w, http.StatusBadRequest, "user_id is required")
		return
	}

	loc := weather.Location{Lat: req.Lat, Lon: req.Lon}
	var res *storecast.Result
	var err error
	if req.TargetDate == "" {
		res, err = s.svc.PredictNextDay(r.Context(), req.UserID, loc)
	} else {
		var target time.Time
		target, err = time.Parse("2006-01-02", req.TargetDate)
		if err != nil {
			s.recordPrediction("invalid_date")
			s.writeError(w, http.StatusBadRequest, "target_date must be YYYY-MM-DD")
			return
		}
		res, err = s.svc.Predict(r.Context(), req.UserID, loc, target)
	}
	if err != nil {
		s.predictError(w, err)
		return
	}

	s.recordPrediction("ok")
	s.writeJSON(w, http.StatusOK, res)
}

// predictError maps core sentinels onto HTTP statuses.
func (s *Server) predictError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, storecast.ErrInvalidDate):
		s.recordPrediction("invalid_date")
		s.writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, forecast.ErrInsufficientData):
		s.recordPrediction("insufficient_data")
		s.writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, history.ErrNoHistory):
		s.recordPrediction("no_history")
		s.writeError(w, http.StatusBadRequest, err.Error())
	default:
		s.recordPrediction("error")
		s.opt.Logger.Error().Err(err).Msg("prediction failed")
		s.writeError(w, http.StatusInternalServerError, "internal error")
	}
}

type retrainRequest struct {
	UserID string `json:"user_id"`
}

func (s *Server) handleRetrain(w http.ResponseWriter, r *http.Request) {
	var req retrainRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.UserID == "" {
		s.writeError(w, http.StatusBadRequest, "user_id is required")
		return
	}
	removed := s.svc.InvalidateUser(req.UserID)
	s.writeJSON(w, http.StatusOK, map[string]any{
		"user_id":     req.UserID,
		"invalidated": removed,
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]any{
		"status":             "ok",
		"cache":              s.svc.CacheStats(),
		"weather_configured": s.opt.WeatherConfigured,
		"db_configured":      s.opt.DatabaseConfigured,
	})
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.opt.Logger.Error().Err(err).Msg("failed to encode response")
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, msg string) {
	s.writeJSON(w, status, map[string]string{"error": msg})
}

func (s *Server) recordPrediction(outcome string) {
	if s.opt.Metrics != nil {
		s.opt.Metrics.Prediction(outcome)
	}
}
