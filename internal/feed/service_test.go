package feed

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/pscheid92/audiopulse/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// --- Fakes ---

type fakeClipRepo struct {
	clips     []domain.ClipWithVotes
	lastSince *time.Time
	calls     int
	failures  int
	err       error
}

func (f *fakeClipRepo) ListPublicWithVotes(_ context.Context, since *time.Time) ([]domain.ClipWithVotes, error) {
	f.calls++
	f.lastSince = since
	if f.err != nil {
		return nil, f.err
	}
	if f.failures > 0 {
		f.failures--
		return nil, errors.New("transient connection error")
	}
	return f.clips, nil
}

type voteKey struct {
	clipID  uuid.UUID
	voterID uuid.UUID
}

type fakeVoteRepo struct {
	votes map[voteKey]domain.Vote
}

func newFakeVoteRepo() *fakeVoteRepo {
	return &fakeVoteRepo{votes: make(map[voteKey]domain.Vote)}
}

func (f *fakeVoteRepo) Get(_ context.Context, clipID, voterID uuid.UUID) (*domain.Vote, error) {
	v, ok := f.votes[voteKey{clipID, voterID}]
	if !ok {
		return nil, domain.ErrVoteNotFound
	}
	return &v, nil
}

func (f *fakeVoteRepo) Insert(_ context.Context, clipID, voterID uuid.UUID, value domain.VoteValue) error {
	f.votes[voteKey{clipID, voterID}] = domain.Vote{ClipID: clipID, VoterID: voterID, Value: value}
	return nil
}

func (f *fakeVoteRepo) Update(_ context.Context, clipID, voterID uuid.UUID, value domain.VoteValue) error {
	key := voteKey{clipID, voterID}
	v, ok := f.votes[key]
	if !ok {
		return domain.ErrVoteNotFound
	}
	v.Value = value
	f.votes[key] = v
	return nil
}

func (f *fakeVoteRepo) Delete(_ context.Context, clipID, voterID uuid.UUID) error {
	delete(f.votes, voteKey{clipID, voterID})
	return nil
}

func (f *fakeVoteRepo) ListByClip(_ context.Context, clipID uuid.UUID) ([]domain.Vote, error) {
	var votes []domain.Vote
	for _, v := range f.votes {
		if v.ClipID == clipID {
			votes = append(votes, v)
		}
	}
	return votes, nil
}

type fakePopularCache struct {
	cached []domain.RankedClip
	hit    bool
	sets   int
}

func (f *fakePopularCache) Get(_ context.Context) ([]domain.RankedClip, bool, error) {
	return f.cached, f.hit, nil
}

func (f *fakePopularCache) Set(_ context.Context, clips []domain.RankedClip) error {
	f.cached = clips
	f.hit = true
	f.sets++
	return nil
}

func newTestService(clips *fakeClipRepo, votes *fakeVoteRepo, cache domain.PopularCache) *Service {
	return NewService(clips, votes, cache, clockwork.NewFakeClockAt(testNow), nil)
}

// --- GetFeed ---

func TestGetFeed_PushesWindowBoundIntoQuery(t *testing.T) {
	clips := &fakeClipRepo{}
	svc := newTestService(clips, newFakeVoteRepo(), nil)

	_, err := svc.GetFeed(context.Background(), domain.FilterDay)
	require.NoError(t, err)
	require.NotNil(t, clips.lastSince)
	assert.Equal(t, testNow.AddDate(0, 0, -1), *clips.lastSince)
}

func TestGetFeed_AllTimeIsUnbounded(t *testing.T) {
	clips := &fakeClipRepo{}
	svc := newTestService(clips, newFakeVoteRepo(), nil)

	_, err := svc.GetFeed(context.Background(), domain.FilterAllTime)
	require.NoError(t, err)
	assert.Nil(t, clips.lastSince)
}

func TestGetFeed_RetriesTransientErrors(t *testing.T) {
	clips := &fakeClipRepo{
		failures: 1,
		clips:    []domain.ClipWithVotes{clipWithVotes(testNow.Add(-time.Hour), 2, 0)},
	}
	svc := newTestService(clips, newFakeVoteRepo(), nil)

	ranked, err := svc.GetFeed(context.Background(), domain.FilterDay)
	require.NoError(t, err)
	assert.Len(t, ranked, 1)
	assert.Equal(t, 2, clips.calls)
}

func TestGetFeed_GivesUpAfterMaxAttempts(t *testing.T) {
	clips := &fakeClipRepo{err: errors.New("connection refused")}
	svc := newTestService(clips, newFakeVoteRepo(), nil)

	_, err := svc.GetFeed(context.Background(), domain.FilterDay)
	require.Error(t, err)
	assert.Equal(t, 3, clips.calls)
}

// --- GetPopular ---

func TestGetPopular_ServedFromCache(t *testing.T) {
	cached := []domain.RankedClip{{Score: 99}}
	clips := &fakeClipRepo{}
	svc := newTestService(clips, newFakeVoteRepo(), &fakePopularCache{cached: cached, hit: true})

	got, err := svc.GetPopular(context.Background())
	require.NoError(t, err)
	assert.Equal(t, cached, got)
	assert.Zero(t, clips.calls)
}

func TestGetPopular_RebuildsOnMissAndStores(t *testing.T) {
	clips := &fakeClipRepo{
		clips: []domain.ClipWithVotes{clipWithVotes(testNow.Add(-time.Hour), 5, 1)},
	}
	cache := &fakePopularCache{}
	svc := newTestService(clips, newFakeVoteRepo(), cache)

	got, err := svc.GetPopular(context.Background())
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, 4, got[0].Score)
	assert.Equal(t, 1, cache.sets)

	// Second call hits the cache.
	_, err = svc.GetPopular(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, clips.calls)
}

func TestGetPopular_CapsAtTen(t *testing.T) {
	var all []domain.ClipWithVotes
	for i := 0; i < 15; i++ {
		all = append(all, clipWithVotes(testNow.Add(-time.Hour), i, 0))
	}
	svc := newTestService(&fakeClipRepo{clips: all}, newFakeVoteRepo(), nil)

	got, err := svc.GetPopular(context.Background())
	require.NoError(t, err)
	assert.Len(t, got, popularSize)
	assert.Equal(t, 14, got[0].Score)
}

// ctxAwareClipRepo fails when the caller's context is already done.
type ctxAwareClipRepo struct {
	clips []domain.ClipWithVotes
}

func (f *ctxAwareClipRepo) ListPublicWithVotes(ctx context.Context, _ *time.Time) ([]domain.ClipWithVotes, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return f.clips, nil
}

func TestGetPopular_RebuildSurvivesCallerCancellation(t *testing.T) {
	clips := &ctxAwareClipRepo{
		clips: []domain.ClipWithVotes{clipWithVotes(testNow.Add(-time.Hour), 5, 1)},
	}
	cache := &fakePopularCache{}
	svc := NewService(clips, newFakeVoteRepo(), cache, clockwork.NewFakeClockAt(testNow), nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	got, err := svc.GetPopular(ctx)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, 1, cache.sets)
}

// --- CastVote ---

func TestCastVote_InvalidValue(t *testing.T) {
	svc := newTestService(&fakeClipRepo{}, newFakeVoteRepo(), nil)

	_, err := svc.CastVote(context.Background(), uuid.New(), uuid.New(), 0)
	assert.ErrorIs(t, err, domain.ErrInvalidVote)

	_, err = svc.CastVote(context.Background(), uuid.New(), uuid.New(), 2)
	assert.ErrorIs(t, err, domain.ErrInvalidVote)
}

func TestCastVote_FirstVoteInserts(t *testing.T) {
	votes := newFakeVoteRepo()
	svc := newTestService(&fakeClipRepo{}, votes, nil)
	clipID := uuid.New()

	tally, err := svc.CastVote(context.Background(), clipID, uuid.New(), domain.VoteUp)
	require.NoError(t, err)
	assert.Equal(t, domain.Tally{Ups: 1, Downs: 0}, tally)
	assert.Len(t, votes.votes, 1)
}

func TestCastVote_SameValueTogglesOff(t *testing.T) {
	votes := newFakeVoteRepo()
	svc := newTestService(&fakeClipRepo{}, votes, nil)
	clipID := uuid.New()
	voterID := uuid.New()

	_, err := svc.CastVote(context.Background(), clipID, voterID, domain.VoteUp)
	require.NoError(t, err)

	tally, err := svc.CastVote(context.Background(), clipID, voterID, domain.VoteUp)
	require.NoError(t, err)
	assert.Equal(t, domain.Tally{}, tally)
	assert.Empty(t, votes.votes)
}

func TestCastVote_OppositeValueSwitchesInPlace(t *testing.T) {
	votes := newFakeVoteRepo()
	svc := newTestService(&fakeClipRepo{}, votes, nil)
	clipID := uuid.New()
	voterID := uuid.New()

	_, err := svc.CastVote(context.Background(), clipID, voterID, domain.VoteUp)
	require.NoError(t, err)

	tally, err := svc.CastVote(context.Background(), clipID, voterID, domain.VoteDown)
	require.NoError(t, err)
	assert.Equal(t, domain.Tally{Ups: 0, Downs: 1}, tally)
	assert.Len(t, votes.votes, 1)
}

func TestCastVote_TallyCountsOtherVoters(t *testing.T) {
	votes := newFakeVoteRepo()
	svc := newTestService(&fakeClipRepo{}, votes, nil)
	clipID := uuid.New()

	_, err := svc.CastVote(context.Background(), clipID, uuid.New(), domain.VoteUp)
	require.NoError(t, err)
	_, err = svc.CastVote(context.Background(), clipID, uuid.New(), domain.VoteUp)
	require.NoError(t, err)

	tally, err := svc.CastVote(context.Background(), clipID, uuid.New(), domain.VoteDown)
	require.NoError(t, err)
	assert.Equal(t, domain.Tally{Ups: 2, Downs: 1}, tally)
}
