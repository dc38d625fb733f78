package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/jonathan/agency-ats/internal/config"
	"github.com/jonathan/agency-ats/internal/feedbacksync"
	"github.com/jonathan/agency-ats/internal/server/middleware"
	"github.com/jonathan/agency-ats/internal/server/ratelimit"
	"github.com/jonathan/agency-ats/internal/shortlist"
	"github.com/jonathan/agency-ats/internal/types"
)

// Store is everything the HTTP layer needs from storage. db.DB and memstore.Store implement it.
type Store interface {
	shortlist.Repository
	feedbacksync.Store
	CreateApplication(ctx context.Context, agencyID uuid.UUID, req *types.CreateApplicationRequest) (*types.Application, error)
	ListAuditEvents(ctx context.Context, applicationID uuid.UUID) ([]types.AuditEvent, error)
}

// Server represents the HTTP server
type Server struct {
	httpServer *http.Server
	handler    http.Handler
	store      Store
	shortlists *shortlist.Service
	engine     *feedbacksync.Engine
	app        *config.Config
	limiter    ratelimit.RequestLimiter
	jwtService *JWTService
	validator  *validator.Validate
	logger     *slog.Logger
}

// Config holds the server's dependencies. Store and JWT are required.
type Config struct {
	App     *config.Config
	Store   Store
	Limiter ratelimit.RequestLimiter // defaults to an in-process limiter from RATE_LIMIT_* env
	JWT     *JWTService
	Logger  *slog.Logger
}

// New creates a new server instance
func New(cfg Config) (*Server, error) {
	if cfg.Store == nil {
		return nil, fmt.Errorf("server requires a store")
	}
	if cfg.JWT == nil {
		return nil, fmt.Errorf("server requires a JWT service")
	}
	if cfg.App == nil {
		defaults := (&config.Config{}).MergeWithDefaults(config.Config{})
		cfg.App = &defaults
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.New(slog.DiscardHandler)
	}
	if cfg.Limiter == nil {
		cfg.Limiter = ratelimit.NewLimiter(ratelimit.LoadConfig())
	}

	s := &Server{
		store:      cfg.Store,
		shortlists: shortlist.NewService(cfg.Store),
		engine: feedbacksync.NewEngine(cfg.Store, feedbacksync.Config{
			Enabled: cfg.App.FeedbackSyncEnabled,
		}, cfg.Logger),
		app:        cfg.App,
		limiter:    cfg.Limiter,
		jwtService: cfg.JWT,
		validator:  validator.New(),
		logger:     cfg.Logger,
	}

	auth := middleware.AuthMiddleware(cfg.JWT.AsTokenValidator())
	agency := func(h http.HandlerFunc) http.Handler { return auth(h) }

	// Setup router
	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", s.handleHealth)

	// Public share links, the token is the only credential
	mux.HandleFunc("GET /share/{token}", s.handleGetSharedShortlist)
	mux.HandleFunc("GET /share/{token}/feedback", s.handleGetSharedFeedback)
	mux.HandleFunc("POST /share/{token}/feedback", s.handleSubmitFeedback)

	// Application endpoints
	mux.Handle("POST /applications", agency(s.handleCreateApplication))
	mux.Handle("GET /applications/{id}", agency(s.handleGetApplication))
	mux.Handle("GET /applications/{id}/events", agency(s.handleListApplicationEvents))

	// Shortlist endpoints
	mux.Handle("POST /shortlists", agency(s.handleCreateShortlist))
	mux.Handle("GET /shortlists/{id}", agency(s.handleGetShortlist))
	mux.Handle("GET /shortlists/{id}/stats", agency(s.handleGetShortlistStats))
	mux.Handle("GET /shortlists/{id}/feedback", agency(s.handleListShortlistFeedback))

	s.handler = s.withRateLimit(s.withLogging(s.withCORS(mux)))
	s.httpServer = &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.App.Port),
		Handler:      s.handler,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return s, nil
}

// Handler returns the fully wrapped request handler.
func (s *Server) Handler() http.Handler {
	return s.handler
}

// Start serves requests until ctx is cancelled, then shuts down gracefully.
func (s *Server) Start(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("server starting", "addr", s.httpServer.Addr, "feedback_sync_enabled", s.engine.Enabled())
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	case <-ctx.Done():
	}
	s.logger.Info("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	// Stop rate limiter cleanup goroutine
	s.limiter.Stop()

	s.logger.Info("server stopped")
	return nil
}

// withCORS adds CORS headers
func (s *Server) withCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// withRateLimit adds rate limiting middleware
func (s *Server) withRateLimit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		clientID := s.extractClientID(r)

		allowed, info := s.limiter.Allow(clientID, r.URL.Path, r.Method)
		s.setRateLimitHeaders(w, info)
		if !allowed {
			s.rateLimitResponse(w, r, info)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// statusRecorder captures the response status for request logs.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

// withLogging adds request logging
func (s *Server) withLogging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		// Share tokens are credentials, log the route pattern instead of the raw path
		path := r.Pattern
		if path == "" {
			path = r.URL.Path
		}
		s.logger.Info("request completed",
			"method", r.Method,
			"path", path,
			"status", rec.status,
			"duration_ms", time.Since(start).Milliseconds(),
		)
	})
}

// handleHealth returns server health status
func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	s.jsonResponse(w, http.StatusOK, map[string]string{"status": "ok"})
}

// jsonResponse writes a JSON response
func (s *Server) jsonResponse(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.logger.Error("failed to encode JSON response", "error", err)
	}
}

// errorResponse writes an error JSON response
func (s *Server) errorResponse(w http.ResponseWriter, status int, message string) {
	s.jsonResponse(w, status, map[string]string{"error": message})
}

// errorFromErr writes err with the status HTTPStatus assigns it. Internal errors
// are logged and hidden from the caller.
func (s *Server) errorFromErr(w http.ResponseWriter, r *http.Request, err error) {
	status := HTTPStatus(err)
	if status == http.StatusInternalServerError {
		s.logger.Error("request failed", "method", r.Method, "path", r.Pattern, "error", err)
		s.errorResponse(w, status, "internal error")
		return
	}
	s.errorResponse(w, status, err.Error())
}

// decodeAndValidate decodes a JSON body into dst and runs struct validation.
func (s *Server) decodeAndValidate(r *http.Request, dst any) error {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return &ErrValidation{Field: "body", Message: "invalid JSON"}
	}
	if err := s.validator.Struct(dst); err != nil {
		return extractValidationError(err)
	}
	return nil
}

// extractValidationError converts validator errors into an ErrValidation.
func extractValidationError(err error) *ErrValidation {
	var validationErrors validator.ValidationErrors
	if errors.As(err, &validationErrors) && len(validationErrors) > 0 {
		// Report the first failure only
		ve := validationErrors[0]
		return &ErrValidation{Field: ve.Field(), Message: ve.Tag()}
	}
	return &ErrValidation{Field: "body", Message: "invalid request"}
}

// agencyFromRequest returns the authenticated agency or writes a 401.
func (s *Server) agencyFromRequest(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	agencyID, err := middleware.GetAgencyID(r)
	if err != nil {
		s.errorResponse(w, http.StatusUnauthorized, "unauthorized")
		return uuid.Nil, false
	}
	return agencyID, true
}

// pathUUID parses the named path value or writes a 400.
func (s *Server) pathUUID(w http.ResponseWriter, r *http.Request, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(r.PathValue(name))
	if err != nil {
		s.errorResponse(w, http.StatusBadRequest, "Invalid "+name)
		return uuid.Nil, false
	}
	return id, true
}

// extractClientID extracts the client identifier from the request.
// This uses the IP address from RemoteAddr; X-Forwarded-For is not trusted.
func (s *Server) extractClientID(r *http.Request) string {
	ip, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return ip
}

// setRateLimitHeaders sets standard rate limit headers on the response.
func (s *Server) setRateLimitHeaders(w http.ResponseWriter, info ratelimit.Info) {
	if info.Limit > 0 {
		w.Header().Set("X-RateLimit-Limit", fmt.Sprintf("%d", info.Limit))
		w.Header().Set("X-RateLimit-Remaining", fmt.Sprintf("%d", info.Remaining))
		w.Header().Set("X-RateLimit-Reset", fmt.Sprintf("%d", info.ResetTime.Unix()))
	}
}

// rateLimitResponse writes a 429 Too Many Requests response with rate limit information.
func (s *Server) rateLimitResponse(w http.ResponseWriter, r *http.Request, info ratelimit.Info) {
	response := map[string]any{
		"error":     "rate_limit_exceeded",
		"message":   "Rate limit exceeded. Please try again later.",
		"limit":     info.Limit,
		"remaining": info.Remaining,
		"reset_at":  info.ResetTime.Format(time.RFC3339),
	}

	if info.RetryAfter > 0 {
		seconds := max(int(info.RetryAfter.Seconds()), 1)
		response["retry_after"] = seconds
		w.Header().Set("Retry-After", fmt.Sprintf("%d", seconds))
	}

	s.logger.Warn("rate limit exceeded",
		"method", r.Method,
		"limit", info.Limit,
		"reset_at", info.ResetTime.Format(time.RFC3339),
	)

	s.jsonResponse(w, http.StatusTooManyRequests, response)
}
