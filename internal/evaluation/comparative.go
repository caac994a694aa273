package evaluation

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/HatimBenzahra/rework-sub001/internal/badges"
	"github.com/HatimBenzahra/rework-sub001/internal/contracts"
	"github.com/HatimBenzahra/rework-sub001/internal/period"
	"github.com/HatimBenzahra/rework-sub001/pkg/logger"
	"github.com/HatimBenzahra/rework-sub001/pkg/textnorm"
)

// Comparative awards the badges that depend on the whole population:
// quarterly trophies and the monthly and weekly rankings.
type Comparative struct {
	store  Store
	engine *Engine
	logger *logger.Logger
}

// NewComparative creates a comparative evaluator sharing the engine's award path.
func NewComparative(store Store, engine *Engine, log *logger.Logger) *Comparative {
	return &Comparative{
		store:  store,
		engine: engine,
		logger: log.WithField("module", "comparative"),
	}
}

// Placement is one awarded leaderboard position.
type Placement struct {
	Participant contracts.Participant `json:"participant"`
	BadgeCode   string                `json:"badge_code"`
	Rank        int                   `json:"rank"`
	Value       float64               `json:"value"`
	Status      contracts.AwardStatus `json:"status"`
}

// ComparativeResult summarizes one comparative evaluation.
type ComparativeResult struct {
	Evaluation     string      `json:"evaluation"`
	PeriodKey      string      `json:"period_key"`
	Badges         int         `json:"badges"`
	Awarded        int         `json:"awarded"`
	AlreadyAwarded int         `json:"already_awarded"`
	Skipped        int         `json:"skipped"`
	Placements     []Placement `json:"placements"`
}

func (r *ComparativeResult) record(p Placement) {
	r.Placements = append(r.Placements, p)
	if p.Status == contracts.AwardStatusAwarded {
		r.Awarded++
	} else {
		r.AlreadyAwarded++
	}
}

// standing is one participant's score in a population ranking.
type standing struct {
	participant contracts.Participant
	count       int
	rate        float64
}

type loaded struct {
	badges   []contracts.BadgeDefinition
	active   map[contracts.Participant]bool
	products map[string]contracts.Product
}

func (c *Comparative) load(ctx context.Context, keep func(contracts.BadgeDefinition) bool) (*loaded, error) {
	all, err := c.store.ListActiveBadges(ctx)
	if err != nil {
		return nil, fmt.Errorf("list active badges: %w", err)
	}
	participants, err := c.store.ListActiveParticipants(ctx)
	if err != nil {
		return nil, fmt.Errorf("list participants: %w", err)
	}
	products, err := c.store.Products(ctx)
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}

	l := &loaded{
		active:   make(map[contracts.Participant]bool, len(participants)),
		products: make(map[string]contracts.Product, len(products)),
	}
	for _, b := range all {
		if b.Condition != nil && keep(b) {
			l.badges = append(l.badges, b)
		}
	}
	for _, p := range participants {
		l.active[p.Participant] = true
	}
	for _, p := range products {
		l.products[p.ID] = p
	}
	return l, nil
}

func (l *loaded) productKey(c contracts.ValidatedContract) string {
	if c.ProductID == nil {
		return ""
	}
	return l.products[*c.ProductID].Key
}

// EvaluateTrophies awards each quarterly trophy to the single best seller.
// The best commercial and the best manager are found separately; the higher
// count wins and an exact tie goes to the commercial. Nobody wins with zero.
func (c *Comparative) EvaluateTrophies(ctx context.Context, quarterKey string, now time.Time) (*ComparativeResult, error) {
	if _, err := period.QuarterRange(quarterKey, c.engine.Location()); err != nil {
		return nil, err
	}

	l, err := c.load(ctx, func(b contracts.BadgeDefinition) bool {
		if b.Category != contracts.CategoryTrophy {
			return false
		}
		switch b.Condition.(type) {
		case contracts.ContractsRanking, contracts.ProductRanking:
			return true
		}
		return false
	})
	if err != nil {
		return nil, err
	}

	quarterContracts, err := c.store.ListByPeriod(ctx, period.Quarterly, quarterKey)
	if err != nil {
		return nil, fmt.Errorf("list contracts of %s: %w", quarterKey, err)
	}

	result := &ComparativeResult{Evaluation: "trophies", PeriodKey: quarterKey, Badges: len(l.badges)}

	for _, b := range l.badges {
		var productKeys map[string]bool
		group := ""
		if pr, ok := b.Condition.(contracts.ProductRanking); ok {
			group = pr.Category
			keys, known := badges.ProductKeys(pr.Category)
			if !known {
				c.logger.WithField("badge", b.Code).Warn("Trophy references an unknown product group")
				result.Skipped++
				continue
			}
			productKeys = make(map[string]bool, len(keys))
			for _, k := range keys {
				productKeys[k] = true
			}
		}

		counts := make(map[contracts.Participant]int)
		for _, vc := range quarterContracts {
			p := *vc.Participant
			if !l.active[p] {
				continue
			}
			if productKeys != nil && !productKeys[l.productKey(vc)] {
				continue
			}
			counts[p]++
		}

		winner, ok := trophyWinner(counts)
		if !ok {
			result.Skipped++
			continue
		}

		meta := map[string]interface{}{"count": winner.count, "quarter": quarterKey}
		if group != "" {
			meta["group"] = group
		}
		status, err := c.engine.Award(ctx, winner.participant, b, quarterKey, meta, now)
		if err != nil {
			return result, err
		}
		result.record(Placement{Participant: winner.participant, BadgeCode: b.Code, Rank: 1, Value: float64(winner.count), Status: status})
	}

	c.logResult(result)
	return result, nil
}

// trophyWinner compares the leader of each population.
func trophyWinner(counts map[contracts.Participant]int) (standing, bool) {
	var bestCommercial, bestManager standing
	for p, n := range counts {
		s := standing{participant: p, count: n}
		if p.IsFieldSales() {
			if better(s, bestCommercial) {
				bestCommercial = s
			}
		} else if better(s, bestManager) {
			bestManager = s
		}
	}

	if bestCommercial.count == 0 && bestManager.count == 0 {
		return standing{}, false
	}
	if bestCommercial.count >= bestManager.count {
		return bestCommercial, true
	}
	return bestManager, true
}

// better orders by count, then id, so population leaders are deterministic.
func better(s, current standing) bool {
	if s.count != current.count {
		return s.count > current.count
	}
	return current.participant.ID == "" || s.participant.ID < current.participant.ID
}

// EvaluatePerformanceRanking awards the monthly top-N badges from the merged
// contract-count leaderboard of both populations.
func (c *Comparative) EvaluatePerformanceRanking(ctx context.Context, monthKey string, now time.Time) (*ComparativeResult, error) {
	if _, err := period.MonthRange(monthKey, c.engine.Location()); err != nil {
		return nil, err
	}

	l, err := c.load(ctx, func(b contracts.BadgeDefinition) bool {
		cr, ok := b.Condition.(contracts.ContractsRanking)
		return ok && b.Category == contracts.CategoryPerformance && cr.Scope == contracts.ScopeMonth
	})
	if err != nil {
		return nil, err
	}

	monthContracts, err := c.store.ListByPeriod(ctx, period.Monthly, monthKey)
	if err != nil {
		return nil, fmt.Errorf("list contracts of %s: %w", monthKey, err)
	}

	counts := make(map[contracts.Participant]int)
	for _, vc := range monthContracts {
		if l.active[*vc.Participant] {
			counts[*vc.Participant]++
		}
	}

	board := make([]standing, 0, len(counts))
	for p, n := range counts {
		board = append(board, standing{participant: p, count: n, rate: float64(n)})
	}
	sortStandings(board)

	result := &ComparativeResult{Evaluation: "performance", PeriodKey: monthKey, Badges: len(l.badges)}
	if err := c.awardPositions(ctx, result, l.badges, board, monthKey, now); err != nil {
		return result, err
	}

	c.logResult(result)
	return result, nil
}

// EvaluateConversionRanking ranks field-sales agents by validated contracts
// per argued door over one ISO week.
func (c *Comparative) EvaluateConversionRanking(ctx context.Context, weekKey string, now time.Time) (*ComparativeResult, error) {
	rng, err := period.WeekRange(weekKey, c.engine.Location())
	if err != nil {
		return nil, err
	}

	l, err := c.load(ctx, func(b contracts.BadgeDefinition) bool {
		_, ok := b.Condition.(contracts.ConversionRanking)
		return ok
	})
	if err != nil {
		return nil, err
	}

	weekContracts, err := c.store.ListByPeriod(ctx, period.Weekly, weekKey)
	if err != nil {
		return nil, fmt.Errorf("list contracts of %s: %w", weekKey, err)
	}
	events, err := c.store.ListEventsBetween(ctx, rng.Start, rng.End)
	if err != nil {
		return nil, fmt.Errorf("list events of %s: %w", weekKey, err)
	}

	argued := textnorm.Key(c.engine.cfg.Statuses.Argued)
	denominators := make(map[string]int)
	for _, e := range events {
		if textnorm.Key(e.Status) == argued {
			denominators[e.CommercialID]++
		}
	}

	board := rateBoard(weekContracts, denominators, l.active)

	result := &ComparativeResult{Evaluation: "conversion", PeriodKey: weekKey, Badges: len(l.badges)}
	if err := c.awardPositions(ctx, result, l.badges, board, weekKey, now); err != nil {
		return result, err
	}

	c.logResult(result)
	return result, nil
}

// EvaluateTransformationRanking ranks field-sales agents by validated
// contracts per distinct door prospected over one month.
func (c *Comparative) EvaluateTransformationRanking(ctx context.Context, monthKey string, now time.Time) (*ComparativeResult, error) {
	rng, err := period.MonthRange(monthKey, c.engine.Location())
	if err != nil {
		return nil, err
	}

	l, err := c.load(ctx, func(b contracts.BadgeDefinition) bool {
		_, ok := b.Condition.(contracts.TransformationRanking)
		return ok
	})
	if err != nil {
		return nil, err
	}

	monthContracts, err := c.store.ListByPeriod(ctx, period.Monthly, monthKey)
	if err != nil {
		return nil, fmt.Errorf("list contracts of %s: %w", monthKey, err)
	}
	events, err := c.store.ListEventsBetween(ctx, rng.Start, rng.End)
	if err != nil {
		return nil, fmt.Errorf("list events of %s: %w", monthKey, err)
	}

	doors := make(map[string]map[string]struct{})
	for _, e := range events {
		if e.DoorID == "" {
			continue
		}
		set := doors[e.CommercialID]
		if set == nil {
			set = make(map[string]struct{})
			doors[e.CommercialID] = set
		}
		set[e.DoorID] = struct{}{}
	}
	denominators := make(map[string]int, len(doors))
	for id, set := range doors {
		denominators[id] = len(set)
	}

	board := rateBoard(monthContracts, denominators, l.active)

	result := &ComparativeResult{Evaluation: "transformation", PeriodKey: monthKey, Badges: len(l.badges)}
	if err := c.awardPositions(ctx, result, l.badges, board, monthKey, now); err != nil {
		return result, err
	}

	c.logResult(result)
	return result, nil
}

// rateBoard builds a commercials-only ratio leaderboard. Every active agent
// with a positive denominator is on the board, at rate 0 without contracts;
// agents with a zero denominator are left out.
func rateBoard(list []contracts.ValidatedContract, denominators map[string]int, active map[contracts.Participant]bool) []standing {
	numerators := make(map[string]int)
	for _, vc := range list {
		p := *vc.Participant
		if p.IsFieldSales() {
			numerators[p.ID]++
		}
	}

	board := make([]standing, 0, len(denominators))
	for id, d := range denominators {
		p := contracts.Commercial(id)
		if d <= 0 || !active[p] {
			continue
		}
		n := numerators[id]
		board = append(board, standing{participant: p, count: n, rate: float64(n) / float64(d)})
	}
	sortStandings(board)
	return board
}

// sortStandings orders by rate, then count, then commercials before managers and id.
func sortStandings(board []standing) {
	sort.Slice(board, func(i, j int) bool {
		if board[i].rate != board[j].rate {
			return board[i].rate > board[j].rate
		}
		if board[i].count != board[j].count {
			return board[i].count > board[j].count
		}
		return board[i].participant.Less(board[j].participant)
	})
}

func rankOf(cond contracts.Condition) int {
	switch v := cond.(type) {
	case contracts.ContractsRanking:
		return v.Rank
	case contracts.ProductRanking:
		return v.Rank
	case contracts.ConversionRanking:
		return v.Rank
	case contracts.TransformationRanking:
		return v.Rank
	}
	return 0
}

// awardPositions gives each badge to whoever holds its requested position.
func (c *Comparative) awardPositions(ctx context.Context, result *ComparativeResult, list []contracts.BadgeDefinition, board []standing, periodKey string, now time.Time) error {
	for _, b := range list {
		rank := rankOf(b.Condition)
		if rank < 1 || rank > len(board) {
			result.Skipped++
			continue
		}

		s := board[rank-1]
		meta := map[string]interface{}{"rank": rank, "count": s.count, "value": s.rate, "period_key": periodKey}
		status, err := c.engine.Award(ctx, s.participant, b, periodKey, meta, now)
		if err != nil {
			return err
		}
		result.record(Placement{Participant: s.participant, BadgeCode: b.Code, Rank: rank, Value: s.rate, Status: status})
	}
	return nil
}

func (c *Comparative) logResult(r *ComparativeResult) {
	c.logger.WithFields(map[string]interface{}{
		"evaluation":      r.Evaluation,
		"period_key":      r.PeriodKey,
		"badges":          r.Badges,
		"awarded":         r.Awarded,
		"already_awarded": r.AlreadyAwarded,
		"skipped":         r.Skipped,
	}).Info("Comparative evaluation completed")
}
