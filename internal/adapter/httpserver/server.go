// Package httpserver exposes the feed and vote operations over HTTP.
package httpserver

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/sessions"
	"github.com/labstack/echo/v4"
	"github.com/pscheid92/audiopulse/internal/adapter/metrics"
	"github.com/pscheid92/audiopulse/internal/domain"
	"github.com/pscheid92/audiopulse/internal/platform/config"
)

type feedService interface {
	GetFeed(ctx context.Context, filter domain.FeedFilter) ([]domain.RankedClip, error)
	GetPopular(ctx context.Context) ([]domain.RankedClip, error)
	CastVote(ctx context.Context, clipID, voterID uuid.UUID, value domain.VoteValue) (domain.Tally, error)
}

type Server struct {
	echo   *echo.Echo
	config *config.Config

	feed feedService

	httpMetrics    *metrics.HTTPMetrics
	metricsHandler http.Handler

	sessionStore *sessions.CookieStore
	healthChecks []HealthCheck
	startTime    time.Time
}

func NewServer(cfg *config.Config, feed feedService, httpMetrics *metrics.HTTPMetrics, metricsHandler http.Handler, healthChecks []HealthCheck) *Server {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	srv := &Server{
		echo:           e,
		config:         cfg,
		feed:           feed,
		httpMetrics:    httpMetrics,
		metricsHandler: metricsHandler,
		sessionStore:   setupSessionStore(cfg),
		healthChecks:   healthChecks,
		startTime:      time.Now(),
	}

	srv.registerRoutes()

	return srv
}

func (s *Server) Start() error {
	slog.Info("Starting server", "port", s.config.Port)
	if err := s.echo.Start(":" + s.config.Port); err != nil {
		return fmt.Errorf("failed to start server: %w", err)
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	if err := s.echo.Shutdown(ctx); err != nil {
		return fmt.Errorf("failed to shutdown server: %w", err)
	}
	return nil
}

// Session keys
const (
	sessionName       = "audiopulse-session"
	sessionKeyVoterID = "voter_id"
)

func setupSessionStore(cfg *config.Config) *sessions.CookieStore {
	sessionStore := sessions.NewCookieStore([]byte(cfg.SessionSecret))
	sessionStore.Options = &sessions.Options{
		Path:     "/",
		MaxAge:   int(cfg.SessionMaxAge.Seconds()),
		HttpOnly: true,
		Secure:   cfg.AppEnv == "production",
		SameSite: http.SameSiteLaxMode,
	}
	return sessionStore
}
