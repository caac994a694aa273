package repos

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/HatimBenzahra/rework-sub001/internal/contracts"
)

// ParticipantRepository reads participants, mapping tables and prospecting
// history. It implements contracts.MappingRepository,
// contracts.ParticipantRepository and contracts.ActivityRepository.
type ParticipantRepository struct {
	pool *pgxpool.Pool
}

// NewParticipantRepository creates a new participant repository
func NewParticipantRepository(pool *pgxpool.Pool) *ParticipantRepository {
	return &ParticipantRepository{pool: pool}
}

// ParticipantMappings loads the external participant id table.
func (r *ParticipantRepository) ParticipantMappings(ctx context.Context) (map[string]contracts.Participant, error) {
	query := `
		SELECT external_id, participant_kind, participant_id
		FROM gamification.participant_mappings
	`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query participant mappings: %w", err)
	}
	defer rows.Close()

	out := make(map[string]contracts.Participant)
	for rows.Next() {
		var externalID, kind, id string
		if err := rows.Scan(&externalID, &kind, &id); err != nil {
			return nil, fmt.Errorf("failed to scan mapping: %w", err)
		}
		out[externalID] = contracts.Participant{Kind: contracts.ParticipantKind(kind), ID: id}
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}
	return out, nil
}

// Products loads the product catalog.
func (r *ParticipantRepository) Products(ctx context.Context) ([]contracts.Product, error) {
	query := `
		SELECT id, COALESCE(external_id, ''), product_key, name, reference_price::float8
		FROM gamification.products
		ORDER BY id
	`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query products: %w", err)
	}
	defer rows.Close()

	var out []contracts.Product
	for rows.Next() {
		var p contracts.Product
		if err := rows.Scan(&p.ID, &p.ExternalID, &p.Key, &p.Name, &p.ReferencePrice); err != nil {
			return nil, fmt.Errorf("failed to scan product: %w", err)
		}
		out = append(out, p)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}
	return out, nil
}

// ListActiveParticipants returns active participants that have an external
// id mapping, commercials first.
func (r *ParticipantRepository) ListActiveParticipants(ctx context.Context) ([]contracts.ParticipantRecord, error) {
	query := `
		SELECT p.kind, p.id, p.name, p.active
		FROM gamification.participants p
		WHERE p.active
		  AND EXISTS (
			SELECT 1 FROM gamification.participant_mappings m
			WHERE m.participant_kind = p.kind AND m.participant_id = p.id
		  )
		ORDER BY p.kind = 'manager', p.id
	`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query participants: %w", err)
	}
	defer rows.Close()

	var out []contracts.ParticipantRecord
	for rows.Next() {
		var rec contracts.ParticipantRecord
		var kind string
		if err := rows.Scan(&kind, &rec.Participant.ID, &rec.Name, &rec.Active); err != nil {
			return nil, fmt.Errorf("failed to scan participant: %w", err)
		}
		rec.Participant.Kind = contracts.ParticipantKind(kind)
		out = append(out, rec)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}
	return out, nil
}

// GetParticipant returns contracts.ErrParticipantNotFound for unknown participants.
func (r *ParticipantRepository) GetParticipant(ctx context.Context, p contracts.Participant) (*contracts.ParticipantRecord, error) {
	query := `
		SELECT name, active
		FROM gamification.participants
		WHERE kind = $1 AND id = $2
	`

	rec := contracts.ParticipantRecord{Participant: p}
	err := r.pool.QueryRow(ctx, query, string(p.Kind), p.ID).Scan(&rec.Name, &rec.Active)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, contracts.ErrParticipantNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get participant %s: %w", p, err)
	}
	return &rec, nil
}

// ListEvents returns the full prospecting history of one commercial.
func (r *ParticipantRepository) ListEvents(ctx context.Context, commercialID string) ([]contracts.ProspectingEvent, error) {
	query := `
		SELECT commercial_id, door_id, status, occurred_at
		FROM gamification.prospecting_events
		WHERE commercial_id = $1
		ORDER BY occurred_at, id
	`

	rows, err := r.pool.Query(ctx, query, commercialID)
	if err != nil {
		return nil, fmt.Errorf("failed to query events: %w", err)
	}
	return collectEvents(rows)
}

// ListEventsBetween returns every event in [from, to].
func (r *ParticipantRepository) ListEventsBetween(ctx context.Context, from, to time.Time) ([]contracts.ProspectingEvent, error) {
	query := `
		SELECT commercial_id, door_id, status, occurred_at
		FROM gamification.prospecting_events
		WHERE occurred_at BETWEEN $1 AND $2
		ORDER BY occurred_at, id
	`

	rows, err := r.pool.Query(ctx, query, from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to query events: %w", err)
	}
	return collectEvents(rows)
}

func collectEvents(rows pgx.Rows) ([]contracts.ProspectingEvent, error) {
	defer rows.Close()

	var out []contracts.ProspectingEvent
	for rows.Next() {
		var e contracts.ProspectingEvent
		if err := rows.Scan(&e.CommercialID, &e.DoorID, &e.Status, &e.OccurredAt); err != nil {
			return nil, fmt.Errorf("failed to scan event: %w", err)
		}
		out = append(out, e)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}
	return out, nil
}
