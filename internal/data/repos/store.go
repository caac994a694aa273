// Package repos holds the PostgreSQL implementations of the repository ports.
package repos

import (
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/HatimBenzahra/rework-sub001/internal/contracts"
)

// Store bundles every repository over one pool.
type Store struct {
	*ContractRepository
	*ParticipantRepository
	*BadgeRepository
	*AwardRepository
	*SnapshotRepository
}

var _ contracts.Store = (*Store)(nil)

// NewStore creates every repository on pool.
func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{
		ContractRepository:    NewContractRepository(pool),
		ParticipantRepository: NewParticipantRepository(pool),
		BadgeRepository:       NewBadgeRepository(pool),
		AwardRepository:       NewAwardRepository(pool),
		SnapshotRepository:    NewSnapshotRepository(pool),
	}
}

// participantColumns splits p for the (kind, id) column pair.
func participantColumns(p *contracts.Participant) (*string, *string) {
	if p == nil {
		return nil, nil
	}
	kind, id := string(p.Kind), p.ID
	return &kind, &id
}

func participantFrom(kind, id *string) *contracts.Participant {
	if kind == nil || id == nil {
		return nil
	}
	return &contracts.Participant{Kind: contracts.ParticipantKind(*kind), ID: *id}
}
