package feed

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/pscheid92/audiopulse/internal/adapter/metrics"
	"github.com/pscheid92/audiopulse/internal/domain"
	"github.com/pscheid92/audiopulse/internal/platform/retry"
	"golang.org/x/sync/singleflight"
)

// popularSize caps the popular list (all-time top clips by net score).
const popularSize = 10

var listRetryPolicy = retry.Policy{
	MaxAttempts:      3,
	InitialBackoff:   100 * time.Millisecond,
	RateLimitBackoff: time.Second,
	OnRetry: func(attempt int, err error, backoff time.Duration) {
		slog.Warn("Retrying clip listing", "attempt", attempt, "backoff", backoff, "error", err)
	},
}

// classifyListError stops on caller cancellation, retries everything else.
func classifyListError(err error) retry.Action {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return retry.Stop
	}
	return retry.Retry
}

// Service orchestrates feed assembly, the popular-list cache, and vote
// toggles. It holds no mutable state of its own - tallies and ranks are
// recomputed per request, and the only write path is the vote toggle.
type Service struct {
	clips domain.ClipRepository
	votes domain.VoteRepository
	cache domain.PopularCache
	clock clockwork.Clock

	voteMetrics  *metrics.VoteMetrics
	popularGroup singleflight.Group
}

// NewService creates the feed service. cache may be nil, in which case the
// popular list is assembled from Postgres on every call.
func NewService(clips domain.ClipRepository, votes domain.VoteRepository, cache domain.PopularCache, clock clockwork.Clock, voteMetrics *metrics.VoteMetrics) *Service {
	return &Service{
		clips:       clips,
		votes:       votes,
		cache:       cache,
		clock:       clock,
		voteMetrics: voteMetrics,
	}
}

// GetFeed returns the ranked feed for a filter window, capped at 50 entries.
// The window bound is pushed into the query and re-applied in Assemble, so
// the pure function stays authoritative over inclusion.
func (s *Service) GetFeed(ctx context.Context, filter domain.FeedFilter) ([]domain.RankedClip, error) {
	now := s.clock.Now()

	var since *time.Time
	if bound, ok := WindowStart(filter, now); ok {
		since = &bound
	}

	clips, err := retry.Do(ctx, listRetryPolicy, classifyListError, func() ([]domain.ClipWithVotes, error) {
		return s.clips.ListPublicWithVotes(ctx, since)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list public clips: %w", err)
	}

	return Assemble(clips, filter, now)
}

// GetPopular returns the all-time top clips by net score, served from the
// cache when fresh. Concurrent cache misses collapse into a single rebuild.
func (s *Service) GetPopular(ctx context.Context) ([]domain.RankedClip, error) {
	if s.cache != nil {
		cached, ok, err := s.cache.Get(ctx)
		if err != nil {
			slog.Warn("Popular cache read failed, falling back to database", "error", err)
		}
		if ok {
			return cached, nil
		}
	}

	// The rebuild is shared by every concurrent caller, so it must not die
	// with whichever request happened to trigger it.
	rebuildCtx := context.WithoutCancel(ctx)
	result, err, _ := s.popularGroup.Do("popular", func() (any, error) {
		return s.rebuildPopular(rebuildCtx)
	})
	if err != nil {
		return nil, err
	}
	return result.([]domain.RankedClip), nil
}

func (s *Service) rebuildPopular(ctx context.Context) ([]domain.RankedClip, error) {
	clips, err := retry.Do(ctx, listRetryPolicy, classifyListError, func() ([]domain.ClipWithVotes, error) {
		return s.clips.ListPublicWithVotes(ctx, nil)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list public clips: %w", err)
	}

	ranked, err := Assemble(clips, domain.FilterAllTime, s.clock.Now())
	if err != nil {
		return nil, err
	}
	if len(ranked) > popularSize {
		ranked = ranked[:popularSize]
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, ranked); err != nil {
			slog.Warn("Popular cache write failed", "error", err)
		}
	}
	return ranked, nil
}

// CastVote applies one voter's vote toggle on a clip and returns the fresh
// tally. The tri-state transition: no vote inserts, a repeated identical vote
// removes, an opposite vote updates in place. Uniqueness on (clip, voter) and
// referential integrity are enforced by the store.
func (s *Service) CastVote(ctx context.Context, clipID, voterID uuid.UUID, value domain.VoteValue) (domain.Tally, error) {
	start := s.clock.Now()
	defer func() {
		if s.voteMetrics != nil {
			s.voteMetrics.ProcessingDuration.Observe(s.clock.Since(start).Seconds())
		}
	}()

	if !value.Valid() {
		s.countVote("rejected", value)
		return domain.Tally{}, domain.ErrInvalidVote
	}

	existing, err := s.votes.Get(ctx, clipID, voterID)
	switch {
	case errors.Is(err, domain.ErrVoteNotFound):
		if err := s.votes.Insert(ctx, clipID, voterID, value); err != nil {
			return domain.Tally{}, fmt.Errorf("failed to insert vote: %w", err)
		}
		s.countVote("applied", value)

	case err != nil:
		return domain.Tally{}, fmt.Errorf("failed to look up existing vote: %w", err)

	case existing.Value == value:
		if err := s.votes.Delete(ctx, clipID, voterID); err != nil {
			return domain.Tally{}, fmt.Errorf("failed to remove vote: %w", err)
		}
		s.countVote("toggled_off", value)

	default:
		if err := s.votes.Update(ctx, clipID, voterID, value); err != nil {
			return domain.Tally{}, fmt.Errorf("failed to update vote: %w", err)
		}
		s.countVote("changed", value)
	}

	votes, err := s.votes.ListByClip(ctx, clipID)
	if err != nil {
		return domain.Tally{}, fmt.Errorf("failed to recount votes: %w", err)
	}
	return TallyVotes(votes), nil
}

func (s *Service) countVote(result string, value domain.VoteValue) {
	if s.voteMetrics == nil {
		return
	}
	s.voteMetrics.VotesProcessed.WithLabelValues(result).Inc()
	if result == "applied" || result == "changed" {
		target := "up"
		if value == domain.VoteDown {
			target = "down"
		}
		s.voteMetrics.VotesByTarget.WithLabelValues(target).Inc()
	}
}
