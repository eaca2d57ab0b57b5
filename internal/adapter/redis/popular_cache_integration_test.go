package redis

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/pscheid92/audiopulse/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewClient_Connects(t *testing.T) {
	client := setupTestClient(t)

	err := client.Ping(context.Background()).Err()
	require.NoError(t, err)
}

func TestNewClient_BadURL(t *testing.T) {
	_, err := NewClient(context.Background(), "not-a-url", nil)
	assert.Error(t, err)
}

func TestPopularCache_MissOnEmpty(t *testing.T) {
	client := setupTestClient(t)
	cache := NewPopularCacheRepo(client, time.Minute, nil)

	clips, ok, err := cache.Get(context.Background())
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Nil(t, clips)
}

func TestPopularCache_RoundTrip(t *testing.T) {
	client := setupTestClient(t)
	cache := NewPopularCacheRepo(client, time.Minute, nil)
	ctx := context.Background()

	want := []domain.RankedClip{
		{
			Clip: domain.Clip{
				ID:        uuid.New(),
				URL:       "https://cdn.example.com/a.mp3",
				VoiceName: "aria",
				IsPublic:  true,
				CreatedAt: time.Now().UTC().Truncate(time.Second),
			},
			Ups:      4,
			Downs:    1,
			Score:    3,
			Trending: 12636.334832,
		},
	}

	require.NoError(t, cache.Set(ctx, want))

	got, ok, err := cache.Get(ctx)
	require.NoError(t, err)
	require.True(t, ok)
	require.Len(t, got, 1)
	assert.Equal(t, want[0].ID, got[0].ID)
	assert.Equal(t, want[0].Score, got[0].Score)
	assert.InDelta(t, want[0].Trending, got[0].Trending, 1e-9)
}

func TestPopularCache_EntryExpires(t *testing.T) {
	client := setupTestClient(t)
	cache := NewPopularCacheRepo(client, 100*time.Millisecond, nil)
	ctx := context.Background()

	require.NoError(t, cache.Set(ctx, []domain.RankedClip{{}}))

	time.Sleep(200 * time.Millisecond)

	_, ok, err := cache.Get(ctx)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestPopularCache_CorruptEntryIsAMiss(t *testing.T) {
	client := setupTestClient(t)
	cache := NewPopularCacheRepo(client, time.Minute, nil)
	ctx := context.Background()

	require.NoError(t, client.Set(ctx, popularCacheKey, "{not json", time.Minute).Err())

	_, ok, err := cache.Get(ctx)
	require.NoError(t, err)
	assert.False(t, ok)
}
