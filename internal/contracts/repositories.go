package contracts

import (
	"context"
	"time"

	"github.com/HatimBenzahra/rework-sub001/internal/period"
)

// ContractRepository stores validated contracts keyed by external id.
type ContractRepository interface {
	// UpsertContract inserts or refreshes c. created is false on update.
	UpsertContract(ctx context.Context, c *ValidatedContract) (created bool, err error)
	ListByParticipant(ctx context.Context, p Participant) ([]ValidatedContract, error)
	// ListByPeriod returns the resolved contracts of one period bucket.
	ListByPeriod(ctx context.Context, pt period.Type, key string) ([]ValidatedContract, error)
}

// MappingRepository exposes the external-to-internal lookup tables.
type MappingRepository interface {
	ParticipantMappings(ctx context.Context) (map[string]Participant, error)
	Products(ctx context.Context) ([]Product, error)
}

// ParticipantRepository lists who takes part in evaluation and ranking.
type ParticipantRepository interface {
	ListActiveParticipants(ctx context.Context) ([]ParticipantRecord, error)
	GetParticipant(ctx context.Context, p Participant) (*ParticipantRecord, error)
}

// ActivityRepository reads the door prospecting history of field-sales agents.
type ActivityRepository interface {
	ListEvents(ctx context.Context, commercialID string) ([]ProspectingEvent, error)
	ListEventsBetween(ctx context.Context, from, to time.Time) ([]ProspectingEvent, error)
}

// BadgeRepository stores the catalog.
type BadgeRepository interface {
	// UpsertBadge inserts or updates by code, never touching the active flag
	// of an existing row.
	UpsertBadge(ctx context.Context, b *BadgeDefinition) (inserted bool, err error)
	ListActiveBadges(ctx context.Context) ([]BadgeDefinition, error)
	GetBadgeByCode(ctx context.Context, code string) (*BadgeDefinition, error)
}

// AwardRepository stores earned badges.
type AwardRepository interface {
	// CreateAward inserts a unless (participant, badge, period key) exists.
	CreateAward(ctx context.Context, a *Award) (AwardStatus, error)
	DeleteAward(ctx context.Context, id string) (bool, error)
	ListAwards(ctx context.Context, p Participant) ([]Award, error)
	CountDistinctBadges(ctx context.Context, p Participant) (int, error)
}

// SnapshotRepository stores leaderboard rows.
type SnapshotRepository interface {
	// GetSnapshot returns nil, nil when no row exists.
	GetSnapshot(ctx context.Context, p Participant, pt period.Type, key string) (*RankSnapshot, error)
	UpsertSnapshot(ctx context.Context, s *RankSnapshot) error
	ListSnapshots(ctx context.Context, pt period.Type, key string) ([]RankSnapshot, error)
}

// Store bundles every port; both the PostgreSQL and in-memory stores satisfy it.
type Store interface {
	ContractRepository
	MappingRepository
	ParticipantRepository
	ActivityRepository
	BadgeRepository
	AwardRepository
	SnapshotRepository
}
