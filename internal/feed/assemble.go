package feed

import (
	"fmt"
	"slices"
	"time"

	"github.com/pscheid92/audiopulse/internal/domain"
	"github.com/pscheid92/audiopulse/internal/ranking"
)

// maxFeedSize caps every assembled feed page.
const maxFeedSize = 50

// TallyVotes derives the up/down counts from raw vote rows. Row order is
// irrelevant; values outside {+1, -1} cannot exist past the store boundary.
func TallyVotes(votes []domain.Vote) domain.Tally {
	var t domain.Tally
	for _, v := range votes {
		switch v.Value {
		case domain.VoteUp:
			t.Ups++
		case domain.VoteDown:
			t.Downs++
		}
	}
	return t
}

// WindowStart returns the creation-time lower bound for a filter, and whether
// the filter has one at all. Trending and all-time (and anything unknown,
// which ParseFeedFilter already folds into all-time) are unbounded.
// The month window uses calendar arithmetic, so subtracting a month from e.g.
// March 31 rolls over to March 3 rather than approximating 30 days.
func WindowStart(filter domain.FeedFilter, now time.Time) (time.Time, bool) {
	switch filter {
	case domain.FilterDay:
		return now.AddDate(0, 0, -1), true
	case domain.FilterWeek:
		return now.AddDate(0, 0, -7), true
	case domain.FilterMonth:
		return now.AddDate(0, -1, 0), true
	default:
		return time.Time{}, false
	}
}

// Assemble turns raw clips-with-votes into the filtered, ranked, capped feed.
//
// Tallies and ranks are recomputed from the raw vote rows on every call.
// Items created exactly at the window boundary are included. Trending sorts
// descending by rank, everything else descending by net score; ties keep
// their input order.
func Assemble(clips []domain.ClipWithVotes, filter domain.FeedFilter, now time.Time) ([]domain.RankedClip, error) {
	since, bounded := WindowStart(filter, now)

	ranked := make([]domain.RankedClip, 0, len(clips))
	for _, c := range clips {
		if bounded && c.CreatedAt.Before(since) {
			continue
		}

		tally := TallyVotes(c.Votes)
		rank, err := ranking.HotRank(tally.Ups, tally.Downs, c.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to rank clip %s: %w", c.ID, err)
		}

		ranked = append(ranked, domain.RankedClip{
			Clip:     c.Clip,
			Ups:      tally.Ups,
			Downs:    tally.Downs,
			Score:    tally.Score(),
			Trending: rank,
		})
	}

	if filter == domain.FilterTrending {
		slices.SortStableFunc(ranked, func(a, b domain.RankedClip) int {
			switch {
			case a.Trending > b.Trending:
				return -1
			case a.Trending < b.Trending:
				return 1
			default:
				return 0
			}
		})
	} else {
		slices.SortStableFunc(ranked, func(a, b domain.RankedClip) int {
			return b.Score - a.Score
		})
	}

	if len(ranked) > maxFeedSize {
		ranked = ranked[:maxFeedSize]
	}
	return ranked, nil
}
