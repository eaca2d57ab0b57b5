package httpserver

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/pscheid92/audiopulse/internal/domain"
	apperrors "github.com/pscheid92/audiopulse/internal/platform/errors"
)

func (s *Server) registerVoteRoutes(rateLimiter echo.MiddlewareFunc) {
	s.echo.POST("/api/vote", s.handleCastVote, rateLimiter, s.requireVoter)
}

type voteRequest struct {
	ClipID string `json:"clip_id"`
	Value  int16  `json:"value"`
}

type voteResponse struct {
	Ups   int `json:"ups"`
	Downs int `json:"downs"`
	Score int `json:"score"`
}

func (s *Server) handleCastVote(c echo.Context) error {
	voterID, ok := c.Get(contextKeyVoterID).(uuid.UUID)
	if !ok {
		return apperrors.InternalError("invalid voter ID in context", nil)
	}

	var req voteRequest
	if err := c.Bind(&req); err != nil {
		return apperrors.ValidationError("invalid request body")
	}

	clipID, err := uuid.Parse(req.ClipID)
	if err != nil {
		return apperrors.ValidationError("invalid clip ID format").WithField("clip_id", req.ClipID)
	}

	tally, err := s.feed.CastVote(c.Request().Context(), clipID, voterID, domain.VoteValue(req.Value))
	if errors.Is(err, domain.ErrInvalidVote) {
		return apperrors.ValidationError("vote value must be 1 or -1").WithField("value", req.Value)
	}
	if errors.Is(err, domain.ErrClipNotFound) {
		return apperrors.NotFoundError("clip not found").WithField("clip_id", clipID.String())
	}
	if err != nil {
		return apperrors.ExternalError("failed to apply vote", err).WithField("clip_id", clipID.String())
	}

	response := voteResponse{
		Ups:   tally.Ups,
		Downs: tally.Downs,
		Score: tally.Score(),
	}
	if err := c.JSON(http.StatusOK, response); err != nil {
		return fmt.Errorf("failed to send JSON response: %w", err)
	}
	return nil
}
