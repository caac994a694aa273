package repos

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/HatimBenzahra/rework-sub001/internal/contracts"
	"github.com/HatimBenzahra/rework-sub001/pkg/database"
)

// AwardRepository implements contracts.AwardRepository
type AwardRepository struct {
	pool *pgxpool.Pool
}

// NewAwardRepository creates a new award repository
func NewAwardRepository(pool *pgxpool.Pool) *AwardRepository {
	return &AwardRepository{pool: pool}
}

// CreateAward inserts a unless the (participant, badge, period key) row
// already exists.
func (r *AwardRepository) CreateAward(ctx context.Context, a *contracts.Award) (contracts.AwardStatus, error) {
	query := `
		INSERT INTO gamification.awards (
			id, participant_kind, participant_id, badge_id, badge_code, period_key, awarded_at, metadata
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (participant_kind, participant_id, badge_id, period_key) DO NOTHING
		RETURNING id::text
	`

	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	if a.AwardedAt.IsZero() {
		a.AwardedAt = time.Now().UTC()
	}
	metadata, err := json.Marshal(orEmpty(a.Metadata))
	if err != nil {
		return "", fmt.Errorf("failed to encode award metadata: %w", err)
	}

	var id string
	err = r.pool.QueryRow(ctx, query,
		a.ID, string(a.Participant.Kind), a.Participant.ID, a.BadgeID, a.BadgeCode, a.PeriodKey, a.AwardedAt, metadata,
	).Scan(&id)

	switch {
	case errors.Is(err, pgx.ErrNoRows), database.IsUniqueViolation(err):
		return contracts.AwardStatusAlreadyAwarded, nil
	case err != nil:
		return "", fmt.Errorf("failed to insert award: %w", err)
	}

	a.ID = id
	return contracts.AwardStatusAwarded, nil
}

// DeleteAward removes one award. It reports false when nothing matched.
func (r *AwardRepository) DeleteAward(ctx context.Context, id string) (bool, error) {
	if _, err := uuid.Parse(id); err != nil {
		return false, nil
	}

	tag, err := r.pool.Exec(ctx, `DELETE FROM gamification.awards WHERE id = $1`, id)
	if err != nil {
		return false, fmt.Errorf("failed to delete award: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

// ListAwards returns the awards of p, oldest first.
func (r *AwardRepository) ListAwards(ctx context.Context, p contracts.Participant) ([]contracts.Award, error) {
	query := `
		SELECT id::text, badge_id::text, badge_code, period_key, awarded_at, metadata
		FROM gamification.awards
		WHERE participant_kind = $1 AND participant_id = $2
		ORDER BY awarded_at, badge_code
	`

	rows, err := r.pool.Query(ctx, query, string(p.Kind), p.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to query awards: %w", err)
	}
	defer rows.Close()

	var out []contracts.Award
	for rows.Next() {
		a := contracts.Award{Participant: p}
		var metadata []byte
		if err := rows.Scan(&a.ID, &a.BadgeID, &a.BadgeCode, &a.PeriodKey, &a.AwardedAt, &metadata); err != nil {
			return nil, fmt.Errorf("failed to scan award: %w", err)
		}
		if len(metadata) > 0 {
			if err := json.Unmarshal(metadata, &a.Metadata); err != nil {
				return nil, fmt.Errorf("failed to decode award metadata: %w", err)
			}
		}
		out = append(out, a)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}
	return out, nil
}

// CountDistinctBadges counts the different badges p holds.
func (r *AwardRepository) CountDistinctBadges(ctx context.Context, p contracts.Participant) (int, error) {
	query := `
		SELECT COUNT(DISTINCT badge_id)
		FROM gamification.awards
		WHERE participant_kind = $1 AND participant_id = $2
	`

	var n int
	if err := r.pool.QueryRow(ctx, query, string(p.Kind), p.ID).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count badges: %w", err)
	}
	return n, nil
}
