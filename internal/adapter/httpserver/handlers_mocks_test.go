package httpserver

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/gorilla/sessions"
	"github.com/labstack/echo/v4"
	"github.com/pscheid92/audiopulse/internal/domain"
	"github.com/pscheid92/audiopulse/internal/platform/config"
	"github.com/stretchr/testify/require"
)

// --- Mock implementations ---

type mockFeedService struct {
	getFeedFn    func(ctx context.Context, filter domain.FeedFilter) ([]domain.RankedClip, error)
	getPopularFn func(ctx context.Context) ([]domain.RankedClip, error)
	castVoteFn   func(ctx context.Context, clipID, voterID uuid.UUID, value domain.VoteValue) (domain.Tally, error)
}

func (m *mockFeedService) GetFeed(ctx context.Context, filter domain.FeedFilter) ([]domain.RankedClip, error) {
	if m.getFeedFn != nil {
		return m.getFeedFn(ctx, filter)
	}
	return []domain.RankedClip{}, nil
}

func (m *mockFeedService) GetPopular(ctx context.Context) ([]domain.RankedClip, error) {
	if m.getPopularFn != nil {
		return m.getPopularFn(ctx)
	}
	return []domain.RankedClip{}, nil
}

func (m *mockFeedService) CastVote(ctx context.Context, clipID, voterID uuid.UUID, value domain.VoteValue) (domain.Tally, error) {
	if m.castVoteFn != nil {
		return m.castVoteFn(ctx, clipID, voterID, value)
	}
	return domain.Tally{}, errors.New("not implemented")
}

// --- Test helpers ---

func newTestServer(t *testing.T, feed feedService, opts ...func(*Server)) *Server {
	t.Helper()

	store := sessions.NewCookieStore([]byte("test-secret-key-32-bytes-long!!!"))
	store.Options = &sessions.Options{
		Path:   "/",
		MaxAge: 3600,
	}

	e := echo.New()

	srv := &Server{
		echo: e,
		config: &config.Config{
			Port:              "8080",
			VoteRatePerSecond: 100,
			VoteRateBurst:     100,
		},
		feed:         feed,
		sessionStore: store,
	}

	for _, opt := range opts {
		opt(srv)
	}

	// Register routes so endpoints are available for testing
	srv.registerRoutes()

	return srv
}

func withHealthChecks(checks ...HealthCheck) func(*Server) {
	return func(s *Server) {
		s.healthChecks = checks
	}
}

// callHandler wraps a handler with error middleware, matching production behavior
func callHandler(handler echo.HandlerFunc, c echo.Context) error {
	return ErrorHandlingMiddleware()(handler)(c)
}

func setSessionVoterID(t *testing.T, srv *Server, req *http.Request, rec *httptest.ResponseRecorder, voterID uuid.UUID) {
	t.Helper()
	session, err := srv.sessionStore.Get(req, sessionName)
	require.NoError(t, err)
	session.Values[sessionKeyVoterID] = voterID.String()
	require.NoError(t, session.Save(req, rec))
}
