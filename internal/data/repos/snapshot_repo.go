package repos

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/HatimBenzahra/rework-sub001/internal/contracts"
	"github.com/HatimBenzahra/rework-sub001/internal/period"
)

// SnapshotRepository implements contracts.SnapshotRepository
type SnapshotRepository struct {
	pool *pgxpool.Pool
}

// NewSnapshotRepository creates a new snapshot repository
func NewSnapshotRepository(pool *pgxpool.Pool) *SnapshotRepository {
	return &SnapshotRepository{pool: pool}
}

// GetSnapshot returns nil, nil when p has no row for the period.
func (r *SnapshotRepository) GetSnapshot(ctx context.Context, p contracts.Participant, pt period.Type, key string) (*contracts.RankSnapshot, error) {
	query := `
		SELECT rank, points, contract_count, computed_at, metadata
		FROM gamification.rank_snapshots
		WHERE participant_kind = $1 AND participant_id = $2 AND period_type = $3 AND period_key = $4
	`

	snap := contracts.RankSnapshot{Participant: p, PeriodType: pt, PeriodKey: key}
	var metadata []byte
	err := r.pool.QueryRow(ctx, query, string(p.Kind), p.ID, string(pt), key).
		Scan(&snap.Rank, &snap.Points, &snap.ContractCount, &snap.ComputedAt, &metadata)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get snapshot: %w", err)
	}

	if err := decodeSnapshotMetadata(metadata, &snap); err != nil {
		return nil, err
	}
	return &snap, nil
}

// UpsertSnapshot writes one leaderboard row in place.
func (r *SnapshotRepository) UpsertSnapshot(ctx context.Context, s *contracts.RankSnapshot) error {
	query := `
		INSERT INTO gamification.rank_snapshots (
			participant_kind, participant_id, period_type, period_key,
			rank, points, contract_count, computed_at, metadata
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (participant_kind, participant_id, period_type, period_key) DO UPDATE SET
			rank = EXCLUDED.rank,
			points = EXCLUDED.points,
			contract_count = EXCLUDED.contract_count,
			computed_at = EXCLUDED.computed_at,
			metadata = EXCLUDED.metadata
	`

	metadata, err := json.Marshal(s.Metadata)
	if err != nil {
		return fmt.Errorf("failed to encode snapshot metadata: %w", err)
	}

	_, err = r.pool.Exec(ctx, query,
		string(s.Participant.Kind), s.Participant.ID, string(s.PeriodType), s.PeriodKey,
		s.Rank, s.Points, s.ContractCount, s.ComputedAt, metadata,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert snapshot: %w", err)
	}
	return nil
}

// ListSnapshots returns one period's leaderboard in rank order.
func (r *SnapshotRepository) ListSnapshots(ctx context.Context, pt period.Type, key string) ([]contracts.RankSnapshot, error) {
	query := `
		SELECT participant_kind, participant_id, rank, points, contract_count, computed_at, metadata
		FROM gamification.rank_snapshots
		WHERE period_type = $1 AND period_key = $2
		ORDER BY rank, participant_kind = 'manager', participant_id
	`

	rows, err := r.pool.Query(ctx, query, string(pt), key)
	if err != nil {
		return nil, fmt.Errorf("failed to query snapshots: %w", err)
	}
	defer rows.Close()

	var out []contracts.RankSnapshot
	for rows.Next() {
		snap := contracts.RankSnapshot{PeriodType: pt, PeriodKey: key}
		var kind string
		var metadata []byte
		err := rows.Scan(&kind, &snap.Participant.ID, &snap.Rank, &snap.Points, &snap.ContractCount, &snap.ComputedAt, &metadata)
		if err != nil {
			return nil, fmt.Errorf("failed to scan snapshot: %w", err)
		}
		snap.Participant.Kind = contracts.ParticipantKind(kind)
		if err := decodeSnapshotMetadata(metadata, &snap); err != nil {
			return nil, err
		}
		out = append(out, snap)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}
	return out, nil
}

func decodeSnapshotMetadata(data []byte, snap *contracts.RankSnapshot) error {
	if len(data) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, &snap.Metadata); err != nil {
		return fmt.Errorf("failed to decode snapshot metadata: %w", err)
	}
	return nil
}
