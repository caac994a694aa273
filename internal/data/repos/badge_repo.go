package repos

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/HatimBenzahra/rework-sub001/internal/contracts"
)

// BadgeRepository implements contracts.BadgeRepository
type BadgeRepository struct {
	pool *pgxpool.Pool
}

// NewBadgeRepository creates a new badge repository
func NewBadgeRepository(pool *pgxpool.Pool) *BadgeRepository {
	return &BadgeRepository{pool: pool}
}

// UpsertBadge inserts or updates a badge by code. The active flag of an
// existing row is left alone so deactivated badges stay deactivated.
func (r *BadgeRepository) UpsertBadge(ctx context.Context, b *contracts.BadgeDefinition) (bool, error) {
	query := `
		INSERT INTO gamification.badge_definitions (
			id, code, name, description, category, condition, tier, active, catalog_version
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (code) DO UPDATE SET
			name = EXCLUDED.name,
			description = EXCLUDED.description,
			category = EXCLUDED.category,
			condition = EXCLUDED.condition,
			tier = EXCLUDED.tier,
			catalog_version = EXCLUDED.catalog_version,
			updated_at = NOW()
		RETURNING id::text, active, (xmax = 0) AS inserted
	`

	condition, err := contracts.EncodeCondition(b.Condition)
	if err != nil {
		return false, fmt.Errorf("failed to encode condition of %s: %w", b.Code, err)
	}

	id := b.ID
	if id == "" {
		id = uuid.NewString()
	}

	var inserted bool
	err = r.pool.QueryRow(ctx, query,
		id, b.Code, b.Name, b.Description, string(b.Category), condition, b.Tier, b.Active, b.CatalogVersion,
	).Scan(&b.ID, &b.Active, &inserted)
	if err != nil {
		return false, fmt.Errorf("failed to upsert badge %s: %w", b.Code, err)
	}

	return inserted, nil
}

const badgeColumns = `id::text, code, name, description, category, condition, tier, active, catalog_version`

// ListActiveBadges returns active badges ordered by code.
func (r *BadgeRepository) ListActiveBadges(ctx context.Context) ([]contracts.BadgeDefinition, error) {
	query := `SELECT ` + badgeColumns + ` FROM gamification.badge_definitions WHERE active ORDER BY code`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query badges: %w", err)
	}
	defer rows.Close()

	var out []contracts.BadgeDefinition
	for rows.Next() {
		b, err := scanBadge(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *b)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}
	return out, nil
}

// GetBadgeByCode returns contracts.ErrBadgeNotFound for unknown codes.
func (r *BadgeRepository) GetBadgeByCode(ctx context.Context, code string) (*contracts.BadgeDefinition, error) {
	query := `SELECT ` + badgeColumns + ` FROM gamification.badge_definitions WHERE code = $1`

	b, err := scanBadge(r.pool.QueryRow(ctx, query, code))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, contracts.ErrBadgeNotFound
	}
	return b, err
}

func scanBadge(row pgx.Row) (*contracts.BadgeDefinition, error) {
	var (
		b         contracts.BadgeDefinition
		category  string
		condition []byte
	)
	err := row.Scan(&b.ID, &b.Code, &b.Name, &b.Description, &category, &condition, &b.Tier, &b.Active, &b.CatalogVersion)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan badge: %w", err)
	}

	b.Category = contracts.BadgeCategory(category)
	cond, err := contracts.DecodeCondition(condition)
	if err != nil {
		return nil, fmt.Errorf("badge %s: %w", b.Code, err)
	}
	b.Condition = cond
	return &b, nil
}
