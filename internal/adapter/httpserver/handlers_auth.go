package httpserver

import (
	"fmt"
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	apperrors "github.com/pscheid92/audiopulse/internal/platform/errors"
)

const contextKeyVoterID = "voterID"

func (s *Server) registerAuthRoutes(rateLimiter echo.MiddlewareFunc) {
	s.echo.POST("/auth/session", s.handleCreateSession, rateLimiter)
}

// handleCreateSession hands out an anonymous voter identity in a signed
// cookie. Calling it again with a live session is a no-op, so clients can
// call it unconditionally on startup.
func (s *Server) handleCreateSession(c echo.Context) error {
	session, err := s.sessionStore.Get(c.Request(), sessionName)
	if err != nil {
		// Undecodable cookie (rotated secret, tampering); issue a fresh one.
		session, err = s.sessionStore.New(c.Request(), sessionName)
		if err != nil {
			return apperrors.InternalError("failed to create session", err)
		}
	}

	voterID, ok := voterIDFromSession(session.Values[sessionKeyVoterID])
	if !ok {
		voterID = uuid.New()
		session.Values[sessionKeyVoterID] = voterID.String()
		if err := session.Save(c.Request(), c.Response().Writer); err != nil {
			return apperrors.InternalError("failed to save session", err)
		}
	}

	if err := c.JSON(http.StatusOK, map[string]string{"voter_id": voterID.String()}); err != nil {
		return fmt.Errorf("failed to send JSON response: %w", err)
	}
	return nil
}

// requireVoter resolves the voter identity from the session cookie and puts
// it into the request context. Requests without a session get a 401 instead
// of a silently minted identity, so a vote is never attributed to a voter
// the client cannot present again.
func (s *Server) requireVoter(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		session, err := s.sessionStore.Get(c.Request(), sessionName)
		if err != nil {
			return apperrors.UnauthorizedError("invalid session")
		}

		voterID, ok := voterIDFromSession(session.Values[sessionKeyVoterID])
		if !ok {
			return apperrors.UnauthorizedError("no voter session, call POST /auth/session first")
		}

		c.Set(contextKeyVoterID, voterID)
		return next(c)
	}
}

func voterIDFromSession(value any) (uuid.UUID, bool) {
	str, ok := value.(string)
	if !ok {
		return uuid.Nil, false
	}
	id, err := uuid.Parse(str)
	if err != nil {
		return uuid.Nil, false
	}
	return id, true
}
