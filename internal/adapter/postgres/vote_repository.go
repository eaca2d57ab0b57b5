package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pscheid92/audiopulse/internal/domain"
)

// PostgreSQL error codes relevant to the vote table.
const (
	pgForeignKeyViolation = "23503"
	pgUniqueViolation     = "23505"
)

// VoteRepo implements domain.VoteRepository backed by PostgreSQL.
// The primary key on (clip_id, voter_id) guarantees at most one vote row per
// pair, which is what makes the toggle transition safe under concurrency.
type VoteRepo struct {
	pool *pgxpool.Pool
}

// NewVoteRepo creates a VoteRepo from the shared connection pool.
func NewVoteRepo(pool *pgxpool.Pool) *VoteRepo {
	return &VoteRepo{pool: pool}
}

func (r *VoteRepo) Get(ctx context.Context, clipID, voterID uuid.UUID) (*domain.Vote, error) {
	var vote domain.Vote
	var value int16
	err := r.pool.QueryRow(ctx, `
		SELECT clip_id, voter_id, vote, created_at, updated_at
		FROM audio_votes
		WHERE clip_id = $1 AND voter_id = $2
	`, clipID, voterID).Scan(&vote.ClipID, &vote.VoterID, &value, &vote.CreatedAt, &vote.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrVoteNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get vote: %w", err)
	}

	parsed, err := parseVoteRow(vote.ClipID, vote.VoterID, value, vote.CreatedAt, vote.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &parsed, nil
}

func (r *VoteRepo) Insert(ctx context.Context, clipID, voterID uuid.UUID, value domain.VoteValue) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO audio_votes (clip_id, voter_id, vote, created_at, updated_at)
		VALUES ($1, $2, $3, NOW(), NOW())
	`, clipID, voterID, int16(value))
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) {
			switch pgErr.Code {
			case pgForeignKeyViolation:
				return domain.ErrClipNotFound
			case pgUniqueViolation:
				// Lost a race against the same voter's concurrent request.
				// Last write wins: overwrite instead of failing.
				return r.Update(ctx, clipID, voterID, value)
			}
		}
		return fmt.Errorf("failed to insert vote: %w", err)
	}
	return nil
}

func (r *VoteRepo) Update(ctx context.Context, clipID, voterID uuid.UUID, value domain.VoteValue) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE audio_votes
		SET vote = $3, updated_at = NOW()
		WHERE clip_id = $1 AND voter_id = $2
	`, clipID, voterID, int16(value))
	if err != nil {
		return fmt.Errorf("failed to update vote: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrVoteNotFound
	}
	return nil
}

func (r *VoteRepo) Delete(ctx context.Context, clipID, voterID uuid.UUID) error {
	_, err := r.pool.Exec(ctx, `
		DELETE FROM audio_votes
		WHERE clip_id = $1 AND voter_id = $2
	`, clipID, voterID)
	if err != nil {
		return fmt.Errorf("failed to delete vote: %w", err)
	}
	return nil
}

func (r *VoteRepo) ListByClip(ctx context.Context, clipID uuid.UUID) ([]domain.Vote, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT clip_id, voter_id, vote, created_at, updated_at
		FROM audio_votes
		WHERE clip_id = $1
	`, clipID)
	if err != nil {
		return nil, fmt.Errorf("failed to list votes: %w", err)
	}
	defer rows.Close()

	var votes []domain.Vote
	for rows.Next() {
		var vote domain.Vote
		var value int16
		if err := rows.Scan(&vote.ClipID, &vote.VoterID, &value, &vote.CreatedAt, &vote.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan vote row: %w", err)
		}
		parsed, err := parseVoteRow(vote.ClipID, vote.VoterID, value, vote.CreatedAt, vote.UpdatedAt)
		if err != nil {
			return nil, err
		}
		votes = append(votes, parsed)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read vote rows: %w", err)
	}
	return votes, nil
}
