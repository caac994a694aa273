// Package memory is an in-process implementation of every repository port.
// It backs the unit tests and the --dry-run mode of the CLI.
package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/HatimBenzahra/rework-sub001/internal/contracts"
	"github.com/HatimBenzahra/rework-sub001/internal/period"
)

type awardKey struct {
	participant contracts.Participant
	badgeID     string
	periodKey   string
}

type snapshotKey struct {
	participant contracts.Participant
	periodType  period.Type
	periodKey   string
}

// Store keeps everything in maps guarded by one RWMutex.
type Store struct {
	mu sync.RWMutex

	contractsByID map[string]contracts.ValidatedContract
	mappings      map[string]contracts.Participant
	products      map[string]contracts.Product
	participants  map[contracts.Participant]contracts.ParticipantRecord
	events        []contracts.ProspectingEvent
	badges        map[string]contracts.BadgeDefinition
	awards        map[string]contracts.Award
	awardIndex    map[awardKey]string
	snapshots     map[snapshotKey]contracts.RankSnapshot
}

var _ contracts.Store = (*Store)(nil)

// NewStore creates an empty store.
func NewStore() *Store {
	return &Store{
		contractsByID: make(map[string]contracts.ValidatedContract),
		mappings:      make(map[string]contracts.Participant),
		products:      make(map[string]contracts.Product),
		participants:  make(map[contracts.Participant]contracts.ParticipantRecord),
		badges:        make(map[string]contracts.BadgeDefinition),
		awards:        make(map[string]contracts.Award),
		awardIndex:    make(map[awardKey]string),
		snapshots:     make(map[snapshotKey]contracts.RankSnapshot),
	}
}

// AddParticipant registers an active participant and maps externalID to it.
// An empty externalID registers the participant without a mapping.
func (s *Store) AddParticipant(p contracts.Participant, name, externalID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.participants[p] = contracts.ParticipantRecord{Participant: p, Name: name, Active: true}
	if externalID != "" {
		s.mappings[strings.TrimSpace(externalID)] = p
	}
}

// SetActive toggles a participant.
func (s *Store) SetActive(p contracts.Participant, active bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if rec, ok := s.participants[p]; ok {
		rec.Active = active
		s.participants[p] = rec
	}
}

// AddProduct registers a catalog product.
func (s *Store) AddProduct(p contracts.Product) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.products[p.ID] = p
}

// AddEvents appends prospecting history.
func (s *Store) AddEvents(events ...contracts.ProspectingEvent) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, events...)
}

// SetBadgeActive toggles a catalog entry.
func (s *Store) SetBadgeActive(code string, active bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if b, ok := s.badges[code]; ok {
		b.Active = active
		s.badges[code] = b
	}
}

// Contract returns a stored contract by external id.
func (s *Store) Contract(externalID string) (contracts.ValidatedContract, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.contractsByID[externalID]
	return c, ok
}

// ContractCount returns how many contracts are stored.
func (s *Store) ContractCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.contractsByID)
}

// AllAwards returns every award sorted by badge code then participant.
func (s *Store) AllAwards() []contracts.Award {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]contracts.Award, 0, len(s.awards))
	for _, a := range s.awards {
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].BadgeCode != out[j].BadgeCode {
			return out[i].BadgeCode < out[j].BadgeCode
		}
		return out[i].Participant.Less(out[j].Participant)
	})
	return out
}

// ContractRepository

func (s *Store) UpsertContract(_ context.Context, c *contracts.ValidatedContract) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, exists := s.contractsByID[c.ExternalID]
	s.contractsByID[c.ExternalID] = *c
	return !exists, nil
}

func (s *Store) ListByParticipant(_ context.Context, p contracts.Participant) ([]contracts.ValidatedContract, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []contracts.ValidatedContract
	for _, c := range s.contractsByID {
		if c.Resolved() && *c.Participant == p {
			out = append(out, c)
		}
	}
	sortContracts(out)
	return out, nil
}

func (s *Store) ListByPeriod(_ context.Context, pt period.Type, key string) ([]contracts.ValidatedContract, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []contracts.ValidatedContract
	for _, c := range s.contractsByID {
		if c.Resolved() && c.Periods.Of(pt) == key {
			out = append(out, c)
		}
	}
	sortContracts(out)
	return out, nil
}

func sortContracts(cs []contracts.ValidatedContract) {
	sort.Slice(cs, func(i, j int) bool {
		if !cs[i].ValidatedAt.Equal(cs[j].ValidatedAt) {
			return cs[i].ValidatedAt.Before(cs[j].ValidatedAt)
		}
		return cs[i].ExternalID < cs[j].ExternalID
	})
}

// MappingRepository

func (s *Store) ParticipantMappings(_ context.Context) (map[string]contracts.Participant, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[string]contracts.Participant, len(s.mappings))
	for k, v := range s.mappings {
		out[k] = v
	}
	return out, nil
}

func (s *Store) Products(_ context.Context) ([]contracts.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]contracts.Product, 0, len(s.products))
	for _, p := range s.products {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// ParticipantRepository

// ListActiveParticipants returns active participants that at least one
// external id maps to.
func (s *Store) ListActiveParticipants(_ context.Context) ([]contracts.ParticipantRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	mapped := make(map[contracts.Participant]bool, len(s.mappings))
	for _, p := range s.mappings {
		mapped[p] = true
	}
	var out []contracts.ParticipantRecord
	for _, rec := range s.participants {
		if rec.Active && mapped[rec.Participant] {
			out = append(out, rec)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Participant.Less(out[j].Participant) })
	return out, nil
}

func (s *Store) GetParticipant(_ context.Context, p contracts.Participant) (*contracts.ParticipantRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.participants[p]
	if !ok {
		return nil, contracts.ErrParticipantNotFound
	}
	return &rec, nil
}

// ActivityRepository

func (s *Store) ListEvents(_ context.Context, commercialID string) ([]contracts.ProspectingEvent, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []contracts.ProspectingEvent
	for _, e := range s.events {
		if e.CommercialID == commercialID {
			out = append(out, e)
		}
	}
	sortEvents(out)
	return out, nil
}

func (s *Store) ListEventsBetween(_ context.Context, from, to time.Time) ([]contracts.ProspectingEvent, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []contracts.ProspectingEvent
	for _, e := range s.events {
		if !e.OccurredAt.Before(from) && !e.OccurredAt.After(to) {
			out = append(out, e)
		}
	}
	sortEvents(out)
	return out, nil
}

func sortEvents(es []contracts.ProspectingEvent) {
	sort.SliceStable(es, func(i, j int) bool { return es[i].OccurredAt.Before(es[j].OccurredAt) })
}

// BadgeRepository

func (s *Store) UpsertBadge(_ context.Context, b *contracts.BadgeDefinition) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	existing, ok := s.badges[b.Code]
	if !ok {
		nb := *b
		if nb.ID == "" {
			nb.ID = uuid.NewString()
		}
		s.badges[b.Code] = nb
		b.ID = nb.ID
		return true, nil
	}

	updated := *b
	updated.ID = existing.ID
	updated.Active = existing.Active
	s.badges[b.Code] = updated
	b.ID = existing.ID
	return false, nil
}

func (s *Store) ListActiveBadges(_ context.Context) ([]contracts.BadgeDefinition, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []contracts.BadgeDefinition
	for _, b := range s.badges {
		if b.Active {
			out = append(out, b)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Code < out[j].Code })
	return out, nil
}

func (s *Store) GetBadgeByCode(_ context.Context, code string) (*contracts.BadgeDefinition, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	b, ok := s.badges[code]
	if !ok {
		return nil, contracts.ErrBadgeNotFound
	}
	return &b, nil
}

// AwardRepository

func (s *Store) CreateAward(_ context.Context, a *contracts.Award) (contracts.AwardStatus, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := awardKey{participant: a.Participant, badgeID: a.BadgeID, periodKey: a.PeriodKey}
	if _, exists := s.awardIndex[key]; exists {
		return contracts.AwardStatusAlreadyAwarded, nil
	}

	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	if a.AwardedAt.IsZero() {
		a.AwardedAt = time.Now().UTC()
	}
	s.awards[a.ID] = *a
	s.awardIndex[key] = a.ID
	return contracts.AwardStatusAwarded, nil
}

func (s *Store) DeleteAward(_ context.Context, id string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.awards[id]
	if !ok {
		return false, nil
	}
	delete(s.awards, id)
	delete(s.awardIndex, awardKey{participant: a.Participant, badgeID: a.BadgeID, periodKey: a.PeriodKey})
	return true, nil
}

func (s *Store) ListAwards(_ context.Context, p contracts.Participant) ([]contracts.Award, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []contracts.Award
	for _, a := range s.awards {
		if a.Participant == p {
			out = append(out, a)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].AwardedAt.Before(out[j].AwardedAt) })
	return out, nil
}

func (s *Store) CountDistinctBadges(_ context.Context, p contracts.Participant) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	seen := make(map[string]struct{})
	for _, a := range s.awards {
		if a.Participant == p {
			seen[a.BadgeID] = struct{}{}
		}
	}
	return len(seen), nil
}

// SnapshotRepository

func (s *Store) GetSnapshot(_ context.Context, p contracts.Participant, pt period.Type, key string) (*contracts.RankSnapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	snap, ok := s.snapshots[snapshotKey{participant: p, periodType: pt, periodKey: key}]
	if !ok {
		return nil, nil
	}
	return &snap, nil
}

func (s *Store) UpsertSnapshot(_ context.Context, snap *contracts.RankSnapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snapshots[snapshotKey{participant: snap.Participant, periodType: snap.PeriodType, periodKey: snap.PeriodKey}] = *snap
	return nil
}

func (s *Store) ListSnapshots(_ context.Context, pt period.Type, key string) ([]contracts.RankSnapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []contracts.RankSnapshot
	for k, snap := range s.snapshots {
		if k.periodType == pt && k.periodKey == key {
			out = append(out, snap)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Rank != out[j].Rank {
			return out[i].Rank < out[j].Rank
		}
		return out[i].Participant.Less(out[j].Participant)
	})
	return out, nil
}
