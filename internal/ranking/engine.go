// Package ranking builds the points leaderboards and their snapshots.
package ranking

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/HatimBenzahra/rework-sub001/internal/contracts"
	"github.com/HatimBenzahra/rework-sub001/internal/period"
	"github.com/HatimBenzahra/rework-sub001/pkg/logger"
	"github.com/HatimBenzahra/rework-sub001/pkg/redis"
)

// Store is the persistence the ranking engine reads and writes.
type Store interface {
	contracts.ContractRepository
	contracts.MappingRepository
	contracts.ParticipantRepository
	contracts.SnapshotRepository
}

// Invalidator drops cached leaderboards.
type Invalidator interface {
	Delete(ctx context.Context, keys ...string) error
}

// Engine ranks every active participant of both populations on points.
type Engine struct {
	store  Store
	cache  Invalidator
	loc    *time.Location
	logger *logger.Logger
}

// NewEngine creates a ranking engine. cache may be nil.
func NewEngine(store Store, cache Invalidator, loc *time.Location, log *logger.Logger) *Engine {
	if loc == nil {
		loc = time.UTC
	}
	return &Engine{
		store:  store,
		cache:  cache,
		loc:    loc,
		logger: log.WithField("module", "ranking"),
	}
}

// Leaderboard is one recomputed period.
type Leaderboard struct {
	PeriodType period.Type              `json:"period_type"`
	PeriodKey  string                   `json:"period_key"`
	ComputedAt time.Time                `json:"computed_at"`
	Entries    []contracts.RankSnapshot `json:"entries"`
}

type entry struct {
	participant contracts.Participant
	points      float64
	count       int
}

// Recompute ranks (pt, key), upserts one snapshot per participant and
// invalidates the cached leaderboard.
func (e *Engine) Recompute(ctx context.Context, pt period.Type, key string, now time.Time) (*Leaderboard, error) {
	if _, err := period.RangeOf(pt, key, e.loc); err != nil {
		return nil, err
	}

	participants, err := e.store.ListActiveParticipants(ctx)
	if err != nil {
		return nil, fmt.Errorf("list participants: %w", err)
	}
	products, err := e.store.Products(ctx)
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	periodContracts, err := e.store.ListByPeriod(ctx, pt, key)
	if err != nil {
		return nil, fmt.Errorf("list contracts of %s %s: %w", pt, key, err)
	}

	prices := make(map[string]float64, len(products))
	for _, p := range products {
		prices[p.ID] = p.Price()
	}

	byParticipant := make(map[contracts.Participant]*entry, len(participants))
	entries := make([]*entry, 0, len(participants))
	for _, rec := range participants {
		en := &entry{participant: rec.Participant}
		byParticipant[rec.Participant] = en
		entries = append(entries, en)
	}

	for _, c := range periodContracts {
		en, ok := byParticipant[*c.Participant]
		if !ok {
			continue
		}
		en.count++
		if c.ProductID != nil {
			en.points += prices[*c.ProductID]
		}
	}

	board := rankEntries(entries)
	computedAt := now.UTC()

	for i := range board {
		snap := &board[i]
		snap.PeriodType = pt
		snap.PeriodKey = key
		snap.ComputedAt = computedAt

		prev, err := e.store.GetSnapshot(ctx, snap.Participant, pt, key)
		if err != nil {
			return nil, fmt.Errorf("previous snapshot of %s: %w", snap.Participant, err)
		}
		if prev != nil {
			prevRank := prev.Rank
			delta := prevRank - snap.Rank
			snap.Metadata.PreviousRank = &prevRank
			snap.Metadata.Delta = &delta
		}

		if err := e.store.UpsertSnapshot(ctx, snap); err != nil {
			return nil, fmt.Errorf("upsert snapshot of %s: %w", snap.Participant, err)
		}
	}

	if e.cache != nil {
		if err := e.cache.Delete(ctx, redis.LeaderboardKey(string(pt), key)); err != nil {
			e.logger.WithError(err).WithField("period_key", key).Warn("Failed to invalidate cached leaderboard")
		}
	}

	fields := map[string]interface{}{
		"period_type":  string(pt),
		"period_key":   key,
		"participants": len(board),
		"contracts":    len(periodContracts),
	}
	if len(board) > 0 {
		fields["top_points"] = board[0].Points
		fields["top_participant"] = board[0].Participant.String()
	}
	e.logger.WithFields(fields).Info("Ranking completed")

	return &Leaderboard{PeriodType: pt, PeriodKey: key, ComputedAt: computedAt, Entries: board}, nil
}

// rankEntries orders entries by points, then count, then participant, and assigns
// competition ranks on points alone: equal points share a rank and the next
// distinct score skips ahead (500, 500, 300 rank 1, 1, 3).
func rankEntries(entries []*entry) []contracts.RankSnapshot {
	type scored struct {
		participant contracts.Participant
		points      int64
		count       int
	}

	list := make([]scored, len(entries))
	for i, en := range entries {
		list[i] = scored{participant: en.participant, points: int64(math.Round(en.points)), count: en.count}
	}

	sort.Slice(list, func(i, j int) bool {
		if list[i].points != list[j].points {
			return list[i].points > list[j].points
		}
		if list[i].count != list[j].count {
			return list[i].count > list[j].count
		}
		return list[i].participant.Less(list[j].participant)
	})

	out := make([]contracts.RankSnapshot, len(list))
	for i, s := range list {
		rank := i + 1
		if i > 0 && s.points == list[i-1].points {
			rank = out[i-1].Rank
		}
		out[i] = contracts.RankSnapshot{
			Participant:   s.participant,
			Rank:          rank,
			Points:        s.points,
			ContractCount: s.count,
			Metadata:      contracts.SnapshotMetadata{Tier: TierFor(s.points).Name},
		}
	}
	return out
}

// RecomputeCurrent ranks the day, week, month, quarter and year holding now.
// Every period is attempted; failures are joined.
func (e *Engine) RecomputeCurrent(ctx context.Context, now time.Time) ([]*Leaderboard, error) {
	keys := period.KeysFor(now.In(e.loc))

	var (
		boards []*Leaderboard
		errs   []error
	)
	for _, pt := range period.Types {
		board, err := e.Recompute(ctx, pt, keys.Of(pt), now)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", pt, err))
			continue
		}
		boards = append(boards, board)
	}
	return boards, errors.Join(errs...)
}

// Leaderboard returns the stored snapshots of (pt, key) in rank order.
func (e *Engine) Leaderboard(ctx context.Context, pt period.Type, key string) ([]contracts.RankSnapshot, error) {
	if _, err := period.RangeOf(pt, key, e.loc); err != nil {
		return nil, err
	}
	return e.store.ListSnapshots(ctx, pt, key)
}
