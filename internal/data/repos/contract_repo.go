package repos

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/HatimBenzahra/rework-sub001/internal/contracts"
	"github.com/HatimBenzahra/rework-sub001/internal/period"
)

// ContractRepository implements contracts.ContractRepository
type ContractRepository struct {
	pool *pgxpool.Pool
}

// NewContractRepository creates a new contract repository
func NewContractRepository(pool *pgxpool.Pool) *ContractRepository {
	return &ContractRepository{pool: pool}
}

const contractColumns = `
	external_id, external_prospect_id, external_participant_id, external_product_id,
	participant_kind, participant_id, product_id,
	validated_at, signed_at,
	day_key, week_key, month_key, quarter_key, year_key,
	snapshot, synced_at
`

// UpsertContract inserts or refreshes a contract by external id.
func (r *ContractRepository) UpsertContract(ctx context.Context, c *contracts.ValidatedContract) (bool, error) {
	query := `
		INSERT INTO gamification.contracts (` + contractColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
		ON CONFLICT (external_id) DO UPDATE SET
			external_prospect_id = EXCLUDED.external_prospect_id,
			external_participant_id = EXCLUDED.external_participant_id,
			external_product_id = EXCLUDED.external_product_id,
			participant_kind = EXCLUDED.participant_kind,
			participant_id = EXCLUDED.participant_id,
			product_id = EXCLUDED.product_id,
			validated_at = EXCLUDED.validated_at,
			signed_at = EXCLUDED.signed_at,
			day_key = EXCLUDED.day_key,
			week_key = EXCLUDED.week_key,
			month_key = EXCLUDED.month_key,
			quarter_key = EXCLUDED.quarter_key,
			year_key = EXCLUDED.year_key,
			snapshot = EXCLUDED.snapshot,
			synced_at = EXCLUDED.synced_at
		RETURNING (xmax = 0) AS created
	`

	snapshot, err := json.Marshal(orEmpty(c.Snapshot))
	if err != nil {
		return false, fmt.Errorf("failed to encode snapshot: %w", err)
	}
	kind, id := participantColumns(c.Participant)

	var created bool
	err = r.pool.QueryRow(ctx, query,
		c.ExternalID, c.ExternalProspectID, c.ExternalParticipantID, c.ExternalProductID,
		kind, id, c.ProductID,
		c.ValidatedAt, c.SignedAt,
		c.Periods.Day, c.Periods.Week, c.Periods.Month, c.Periods.Quarter, c.Periods.Year,
		snapshot, c.SyncedAt,
	).Scan(&created)
	if err != nil {
		return false, fmt.Errorf("failed to upsert contract %s: %w", c.ExternalID, err)
	}

	return created, nil
}

// ListByParticipant retrieves every contract of p
func (r *ContractRepository) ListByParticipant(ctx context.Context, p contracts.Participant) ([]contracts.ValidatedContract, error) {
	query := `
		SELECT ` + contractColumns + `
		FROM gamification.contracts
		WHERE participant_kind = $1 AND participant_id = $2
		ORDER BY validated_at, external_id
	`

	rows, err := r.pool.Query(ctx, query, string(p.Kind), p.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to query contracts: %w", err)
	}
	return collectContracts(rows)
}

var periodColumn = map[period.Type]string{
	period.Daily:     "day_key",
	period.Weekly:    "week_key",
	period.Monthly:   "month_key",
	period.Quarterly: "quarter_key",
	period.Yearly:    "year_key",
}

// ListByPeriod retrieves the resolved contracts of one period bucket
func (r *ContractRepository) ListByPeriod(ctx context.Context, pt period.Type, key string) ([]contracts.ValidatedContract, error) {
	column, ok := periodColumn[pt]
	if !ok {
		return nil, fmt.Errorf("%w: unknown period type %q", period.ErrInvalidPeriodKey, pt)
	}

	query := `
		SELECT ` + contractColumns + `
		FROM gamification.contracts
		WHERE ` + column + ` = $1 AND participant_id IS NOT NULL
		ORDER BY validated_at, external_id
	`

	rows, err := r.pool.Query(ctx, query, key)
	if err != nil {
		return nil, fmt.Errorf("failed to query contracts: %w", err)
	}
	return collectContracts(rows)
}

func collectContracts(rows pgx.Rows) ([]contracts.ValidatedContract, error) {
	defer rows.Close()

	var out []contracts.ValidatedContract
	for rows.Next() {
		var (
			c        contracts.ValidatedContract
			kind, id *string
			signedAt *time.Time
			snapshot []byte
		)
		err := rows.Scan(
			&c.ExternalID, &c.ExternalProspectID, &c.ExternalParticipantID, &c.ExternalProductID,
			&kind, &id, &c.ProductID,
			&c.ValidatedAt, &signedAt,
			&c.Periods.Day, &c.Periods.Week, &c.Periods.Month, &c.Periods.Quarter, &c.Periods.Year,
			&snapshot, &c.SyncedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan contract: %w", err)
		}

		c.Participant = participantFrom(kind, id)
		c.SignedAt = signedAt
		if len(snapshot) > 0 {
			if err := json.Unmarshal(snapshot, &c.Snapshot); err != nil {
				return nil, fmt.Errorf("failed to decode snapshot of %s: %w", c.ExternalID, err)
			}
		}
		out = append(out, c)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}
	return out, nil
}

func orEmpty(m map[string]interface{}) map[string]interface{} {
	if m == nil {
		return map[string]interface{}{}
	}
	return m
}
