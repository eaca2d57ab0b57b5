package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pscheid92/audiopulse/internal/domain"
)

// ClipRepo implements domain.ClipRepository backed by PostgreSQL.
type ClipRepo struct {
	pool *pgxpool.Pool
}

// NewClipRepo creates a ClipRepo from the shared connection pool.
func NewClipRepo(pool *pgxpool.Pool) *ClipRepo {
	return &ClipRepo{pool: pool}
}

// ListPublicWithVotes returns all public clips with their raw vote rows in a
// single round trip. Votes come back as rows of the LEFT JOIN, grouped here
// by clip; clips without votes yield NULL vote columns. Aggregated counters
// are deliberately not selected - tallies are derived downstream.
func (r *ClipRepo) ListPublicWithVotes(ctx context.Context, since *time.Time) ([]domain.ClipWithVotes, error) {
	query := `
		SELECT c.id, c.url, c.text_content, c.voice_name, c.is_public, c.created_at,
		       v.voter_id, v.vote, v.created_at, v.updated_at
		FROM audio_clips c
		LEFT JOIN audio_votes v ON v.clip_id = c.id
		WHERE c.is_public`
	args := []any{}
	if since != nil {
		query += ` AND c.created_at >= $1`
		args = append(args, *since)
	}
	query += ` ORDER BY c.id`

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query public clips: %w", err)
	}
	defer rows.Close()

	var (
		result  []domain.ClipWithVotes
		current *domain.ClipWithVotes
	)
	for rows.Next() {
		var (
			clip      domain.Clip
			voterID   *uuid.UUID
			voteValue *int16
			voteCreated,
			voteUpdated *time.Time
		)
		err := rows.Scan(
			&clip.ID, &clip.URL, &clip.TextContent, &clip.VoiceName, &clip.IsPublic, &clip.CreatedAt,
			&voterID, &voteValue, &voteCreated, &voteUpdated,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan clip row: %w", err)
		}

		if current == nil || current.ID != clip.ID {
			result = append(result, domain.ClipWithVotes{Clip: clip})
			current = &result[len(result)-1]
		}

		if voterID == nil {
			continue
		}
		vote, err := parseVoteRow(clip.ID, *voterID, *voteValue, *voteCreated, *voteUpdated)
		if err != nil {
			return nil, err
		}
		current.Votes = append(current.Votes, vote)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read clip rows: %w", err)
	}

	return result, nil
}

// parseVoteRow validates a raw vote row at the store boundary. The CHECK
// constraint makes out-of-range values impossible under normal operation, so
// a violation here means corrupted storage, not bad input.
func parseVoteRow(clipID, voterID uuid.UUID, value int16, createdAt, updatedAt time.Time) (domain.Vote, error) {
	v := domain.VoteValue(value)
	if !v.Valid() {
		return domain.Vote{}, fmt.Errorf("store returned malformed vote value %d for clip %s: %w", value, clipID, domain.ErrInvalidVote)
	}
	return domain.Vote{
		ClipID:    clipID,
		VoterID:   voterID,
		Value:     v,
		CreatedAt: createdAt,
		UpdatedAt: updatedAt,
	}, nil
}
