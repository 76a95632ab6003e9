package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"slices"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/jonathan/interview-screener/internal/db"
	"github.com/jonathan/interview-screener/internal/interview"
	"github.com/jonathan/interview-screener/internal/notify"
	"github.com/jonathan/interview-screener/internal/server/middleware"
	"github.com/jonathan/interview-screener/internal/server/ratelimit"
)

// Interviews runs candidate sessions.
type Interviews interface {
	Start(ctx context.Context, in interview.StartInput) (*interview.Started, error)
	NextQuestion(ctx context.Context, candidateID string) (*interview.Question, error)
	SubmitAnswer(ctx context.Context, candidateID string, r io.Reader, filename string) (*interview.Outcome, error)
	Summary(ctx context.Context, candidateID string) (*interview.Summary, error)
}

// ResumeReader turns an upload or a URL into resume text.
type ResumeReader interface {
	Extract(ctx context.Context, filename string, data []byte) (string, error)
	ExtractURL(ctx context.Context, url string) (string, error)
}

// CandidateDirectory is the read side used by the organization dashboard.
type CandidateDirectory interface {
	GetCandidate(ctx context.Context, id string) (*db.Candidate, error)
	GetAnswers(ctx context.Context, id string) ([]db.Answer, error)
	GetLeaderboard(ctx context.Context) ([]db.LeaderboardEntry, error)
}

// Shortlister notifies shortlisted candidates.
type Shortlister interface {
	Shortlist(recipients []notify.Recipient) notify.Report
}

// OrgAuthenticator checks organization credentials.
type OrgAuthenticator interface {
	Verify(email, password string) bool
}

// Server represents the HTTP server
type Server struct {
	httpServer     *http.Server
	interviews     Interviews
	resumes        ResumeReader
	directory      CandidateDirectory
	shortlister    Shortlister
	jwtService     *JWTService
	authHandler    *AuthHandler
	rateLimiter    *ratelimit.Limiter
	validator      *validator.Validate
	allowedOrigins []string
	maxUploadBytes int64
	logger         *zap.Logger
}

// Config holds server configuration and collaborators. Interviews, Resumes,
// Directory and JWT are required.
type Config struct {
	Port           int
	AllowedOrigins []string
	MaxUploadMB    int64
	RateLimit      *ratelimit.Config

	Interviews  Interviews
	Resumes     ResumeReader
	Directory   CandidateDirectory
	Shortlister Shortlister
	JWT         *JWTService
	Org         OrgAuthenticator
	Logger      *zap.Logger
}

// New creates a new server instance
func New(cfg Config) (*Server, error) {
	if cfg.Interviews == nil || cfg.Resumes == nil || cfg.Directory == nil || cfg.JWT == nil {
		return nil, fmt.Errorf("server requires interviews, resumes, directory and jwt service")
	}
	if cfg.MaxUploadMB <= 0 {
		cfg.MaxUploadMB = 25
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}

	s := &Server{
		interviews:     cfg.Interviews,
		resumes:        cfg.Resumes,
		directory:      cfg.Directory,
		shortlister:    cfg.Shortlister,
		jwtService:     cfg.JWT,
		rateLimiter:    ratelimit.NewLimiter(cfg.RateLimit),
		validator:      validator.New(),
		allowedOrigins: cfg.AllowedOrigins,
		maxUploadBytes: cfg.MaxUploadMB << 20,
		logger:         cfg.Logger,
	}
	s.authHandler = NewAuthHandler(cfg.Org, cfg.JWT)

	s.httpServer = &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      s.Handler(),
		ReadTimeout:  60 * time.Second,
		WriteTimeout: 300 * time.Second, // Transcription and scoring run inside the request
		IdleTimeout:  60 * time.Second,
	}

	return s, nil
}

// Handler returns the routed handler with middleware applied.
func (s *Server) Handler() http.Handler {
	candidateAuth := middleware.AuthMiddleware(s.jwtService.AsTokenValidator(), RoleCandidate)
	orgAuth := middleware.AuthMiddleware(s.jwtService.AsTokenValidator(), RoleOrg)

	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", s.handleHealth)

	// Candidate flow
	mux.HandleFunc("POST /candidates", s.handleCreateCandidate)
	mux.Handle("GET /candidate/next_question", candidateAuth(http.HandlerFunc(s.handleNextQuestion)))
	mux.Handle("POST /candidate/answer", candidateAuth(http.HandlerFunc(s.handleSubmitAnswer)))
	mux.Handle("GET /candidate/summary", candidateAuth(http.HandlerFunc(s.handleSummary)))

	// Organization dashboard
	mux.HandleFunc("POST /org/login", s.authHandler.Login)
	mux.Handle("GET /org/leaderboard", orgAuth(http.HandlerFunc(s.handleLeaderboard)))
	mux.Handle("GET /org/candidates/{id}", orgAuth(http.HandlerFunc(s.handleGetCandidate)))
	mux.Handle("POST /org/shortlist", orgAuth(http.HandlerFunc(s.handleShortlist)))

	return s.withRateLimit(s.withLogging(s.withCORS(mux)))
}

// Start listens until ctx is cancelled, then shuts down gracefully.
func (s *Server) Start(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("server starting", zap.String("addr", s.httpServer.Addr))
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err, ok := <-errCh:
		s.rateLimiter.Stop()
		if ok {
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

	s.rateLimiter.Stop()
	s.logger.Info("server stopped")
	return nil
}

// withCORS adds CORS headers for allowed origins
func (s *Server) withCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if origin := r.Header.Get("Origin"); origin != "" {
			switch {
			case slices.Contains(s.allowedOrigins, "*"):
				w.Header().Set("Access-Control-Allow-Origin", "*")
			case slices.Contains(s.allowedOrigins, origin):
				w.Header().Set("Access-Control-Allow-Origin", origin)
				w.Header().Add("Vary", "Origin")
			}
		}
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
		allowed, info := s.rateLimiter.Allow(extractClientID(r), r.URL.Path, r.Method)
		setRateLimitHeaders(w, info)
		if !allowed {
			s.rateLimitResponse(w, info)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// statusRecorder captures the response status for logging.
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

		fields := []zap.Field{
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", rec.status),
			zap.Duration("duration", time.Since(start)),
			zap.String("remote", r.RemoteAddr),
		}
		if rec.status >= http.StatusInternalServerError {
			s.logger.Warn("request failed", fields...)
			return
		}
		s.logger.Info("request completed", fields...)
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
		s.logger.Warn("error encoding JSON response", zap.Error(err))
	}
}

// errorResponse writes an error JSON response
func (s *Server) errorResponse(w http.ResponseWriter, status int, message string) {
	s.jsonResponse(w, status, map[string]string{"error": message})
}

// fail maps err to its status and writes it, logging internal failures.
func (s *Server) fail(w http.ResponseWriter, r *http.Request, err error) {
	status := HTTPStatus(err)
	if status >= http.StatusInternalServerError {
		s.logger.Error("request error", zap.String("path", r.URL.Path), zap.Error(err))
	}
	s.errorResponse(w, status, publicMessage(err))
}

// extractClientID extracts the client identifier from the request.
// X-Forwarded-For is not trusted; the remote IP is used.
func extractClientID(r *http.Request) string {
	ip, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return ip
}

// setRateLimitHeaders sets standard rate limit headers on the response.
func setRateLimitHeaders(w http.ResponseWriter, info ratelimit.Info) {
	if info.Limit > 0 {
		w.Header().Set("X-RateLimit-Limit", fmt.Sprintf("%d", info.Limit))
		w.Header().Set("X-RateLimit-Remaining", fmt.Sprintf("%d", info.Remaining))
		w.Header().Set("X-RateLimit-Reset", fmt.Sprintf("%d", info.ResetTime.Unix()))
	}
}

// rateLimitResponse writes a 429 Too Many Requests response with rate limit information.
func (s *Server) rateLimitResponse(w http.ResponseWriter, info ratelimit.Info) {
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

	s.logger.Info("rate limit exceeded",
		zap.Int("limit", info.Limit),
		zap.Time("reset", info.ResetTime),
	)

	s.jsonResponse(w, http.StatusTooManyRequests, response)
}

// subject returns the authenticated principal id, writing 401 when absent.
func (s *Server) subject(w http.ResponseWriter, r *http.Request) (string, bool) {
	id, err := middleware.GetSubject(r)
	if err != nil || strings.TrimSpace(id) == "" {
		s.errorResponse(w, http.StatusUnauthorized, "Unauthorized")
		return "", false
	}
	return id, true
}
