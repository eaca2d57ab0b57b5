package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// --- Model types ---

// VoteValue is a single voter's stance on a clip: +1 or -1.
type VoteValue int16

const (
	VoteUp   VoteValue = 1
	VoteDown VoteValue = -1
)

// Valid reports whether v is one of the two legal vote values.
func (v VoteValue) Valid() bool {
	return v == VoteUp || v == VoteDown
}

// Vote is one voter's current vote on one clip. The storage layer guarantees
// at most one row per (clip, voter) pair, so a repeated vote mutates or
// removes this row instead of accumulating.
type Vote struct {
	ClipID    uuid.UUID `db:"clip_id"`
	VoterID   uuid.UUID `db:"voter_id"`
	Value     VoteValue `db:"vote"`
	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`
}

// Clip is a publicly listed audio clip.
type Clip struct {
	ID          uuid.UUID `db:"id" json:"id"`
	URL         string    `db:"url" json:"url"`
	TextContent string    `db:"text_content" json:"text_content"`
	VoiceName   string    `db:"voice_name" json:"voice_name"`
	IsPublic    bool      `db:"is_public" json:"is_public"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
}

// ClipWithVotes bundles a clip with its raw vote rows. Tallies are always
// derived from Votes on the fly; there is no stored counter to drift.
type ClipWithVotes struct {
	Clip
	Votes []Vote
}

// Tally is the derived up/down count for one clip.
type Tally struct {
	Ups   int `json:"ups"`
	Downs int `json:"downs"`
}

// Score returns ups minus downs.
func (t Tally) Score() int {
	return t.Ups - t.Downs
}

// RankedClip is a clip annotated with its tally, net score, and hot rank.
// Field names on the wire match the public feed contract.
type RankedClip struct {
	Clip
	Ups      int     `json:"ups"`
	Downs    int     `json:"downs"`
	Score    int     `json:"score"`
	Trending float64 `json:"trending"`
}

// --- Interfaces ---

// ClipRepository lists public clips together with their raw vote rows.
// since == nil means no lower bound on creation time.
type ClipRepository interface {
	ListPublicWithVotes(ctx context.Context, since *time.Time) ([]ClipWithVotes, error)
}

// VoteRepository persists votes, keyed uniquely by (clip, voter).
type VoteRepository interface {
	Get(ctx context.Context, clipID, voterID uuid.UUID) (*Vote, error)
	Insert(ctx context.Context, clipID, voterID uuid.UUID, value VoteValue) error
	Update(ctx context.Context, clipID, voterID uuid.UUID, value VoteValue) error
	Delete(ctx context.Context, clipID, voterID uuid.UUID) error
	ListByClip(ctx context.Context, clipID uuid.UUID) ([]Vote, error)
}

// PopularCache caches the assembled popular list for a short TTL.
type PopularCache interface {
	Get(ctx context.Context) ([]RankedClip, bool, error)
	Set(ctx context.Context, clips []RankedClip) error
}
