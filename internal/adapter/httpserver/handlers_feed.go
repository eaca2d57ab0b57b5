package httpserver

import (
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pscheid92/audiopulse/internal/domain"
	apperrors "github.com/pscheid92/audiopulse/internal/platform/errors"
)

func (s *Server) registerFeedRoutes() {
	s.echo.GET("/api/feed", s.handleGetFeed)
	s.echo.GET("/api/popular", s.handleGetPopular)
}

func (s *Server) handleGetFeed(c echo.Context) error {
	filter := domain.ParseFeedFilter(c.QueryParam("filter"))

	clips, err := s.feed.GetFeed(c.Request().Context(), filter)
	if err != nil {
		return apperrors.ExternalError("failed to assemble feed", err).WithField("filter", string(filter))
	}

	if err := c.JSON(http.StatusOK, feedResponse{Filter: filter, Clips: clips}); err != nil {
		return fmt.Errorf("failed to send JSON response: %w", err)
	}
	return nil
}

func (s *Server) handleGetPopular(c echo.Context) error {
	clips, err := s.feed.GetPopular(c.Request().Context())
	if err != nil {
		return apperrors.ExternalError("failed to assemble popular list", err)
	}

	if err := c.JSON(http.StatusOK, popularResponse{Clips: clips}); err != nil {
		return fmt.Errorf("failed to send JSON response: %w", err)
	}
	return nil
}

type feedResponse struct {
	Filter domain.FeedFilter   `json:"filter"`
	Clips  []domain.RankedClip `json:"clips"`
}

type popularResponse struct {
	Clips []domain.RankedClip `json:"clips"`
}
