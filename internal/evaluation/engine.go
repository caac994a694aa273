// Package evaluation decides which badges each participant has earned and
// records the awards.
package evaluation

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/HatimBenzahra/rework-sub001/internal/badges"
	"github.com/HatimBenzahra/rework-sub001/internal/contracts"
	"github.com/HatimBenzahra/rework-sub001/internal/period"
	"github.com/HatimBenzahra/rework-sub001/pkg/logger"
)

// Store is the subset of persistence the evaluators use.
type Store interface {
	contracts.ContractRepository
	contracts.MappingRepository
	contracts.ParticipantRepository
	contracts.ActivityRepository
	contracts.BadgeRepository
	contracts.AwardRepository
}

// Config holds engine settings.
type Config struct {
	Workers  int
	Statuses Statuses
	Location *time.Location
}

// Engine evaluates per-participant badge rules.
type Engine struct {
	store  Store
	cfg    Config
	logger *logger.Logger
}

// NewEngine creates a new evaluation engine
func NewEngine(store Store, cfg Config, log *logger.Logger) *Engine {
	if cfg.Workers <= 0 {
		cfg.Workers = 1
	}
	if cfg.Location == nil {
		cfg.Location = time.UTC
	}
	if cfg.Statuses == (Statuses{}) {
		cfg.Statuses = DefaultStatuses()
	}
	return &Engine{
		store:  store,
		cfg:    cfg,
		logger: log.WithField("module", "evaluation"),
	}
}

// Summary aggregates one evaluation run.
type Summary struct {
	Participants   int           `json:"participants"`
	Checks         int           `json:"checks"`
	Awarded        int           `json:"awarded"`
	AlreadyAwarded int           `json:"already_awarded"`
	Failed         int           `json:"failed"`
	Duration       time.Duration `json:"duration"`
}

// ParticipantResult is the outcome for one participant.
type ParticipantResult struct {
	Participant    contracts.Participant `json:"participant"`
	Checks         int                   `json:"checks"`
	Awarded        []string              `json:"awarded"`
	AlreadyAwarded int                   `json:"already_awarded"`
	Error          error                 `json:"-"`
}

// run caches what every participant job shares.
type run struct {
	now      time.Time
	badges   []contracts.BadgeDefinition
	products map[string]contracts.Product
}

func (e *Engine) prepare(ctx context.Context, now time.Time) (*run, error) {
	all, err := e.store.ListActiveBadges(ctx)
	if err != nil {
		return nil, fmt.Errorf("list active badges: %w", err)
	}

	products, err := e.store.Products(ctx)
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}

	r := &run{
		now:      now.In(e.cfg.Location),
		products: make(map[string]contracts.Product, len(products)),
	}
	for _, p := range products {
		r.products[p.ID] = p
	}

	for _, b := range all {
		if b.Condition == nil || contracts.IsComparative(b.Condition) {
			continue
		}
		r.badges = append(r.badges, b)
	}

	// Distinct-badge rules go last so they see awards made earlier in the pass.
	sort.SliceStable(r.badges, func(i, j int) bool {
		return !isDistinctBadges(r.badges[i]) && isDistinctBadges(r.badges[j])
	})

	return r, nil
}

func isDistinctBadges(b contracts.BadgeDefinition) bool {
	_, ok := b.Condition.(contracts.DistinctBadges)
	return ok
}

// EvaluateAll checks every active rule for every active participant using a
// bounded worker pool. Failures of one participant are counted, not fatal.
func (e *Engine) EvaluateAll(ctx context.Context, now time.Time) (*Summary, error) {
	start := time.Now()

	r, err := e.prepare(ctx, now)
	if err != nil {
		return nil, err
	}

	participants, err := e.store.ListActiveParticipants(ctx)
	if err != nil {
		return nil, fmt.Errorf("list participants: %w", err)
	}

	e.logger.WithFields(map[string]interface{}{
		"participants": len(participants),
		"badges":       len(r.badges),
		"workers":      e.cfg.Workers,
	}).Info("Starting badge evaluation")

	resultCh := make(chan ParticipantResult, len(participants))
	jobs := make(chan contracts.Participant, len(participants))

	var wg sync.WaitGroup
	for i := 0; i < e.cfg.Workers; i++ {
		wg.Add(1)
		go func(workerID int) {
			defer wg.Done()
			e.worker(ctx, workerID, r, jobs, resultCh)
		}(i)
	}

	for _, p := range participants {
		jobs <- p.Participant
	}
	close(jobs)

	go func() {
		wg.Wait()
		close(resultCh)
	}()

	summary := &Summary{Participants: len(participants)}
	for res := range resultCh {
		summary.Checks += res.Checks
		summary.Awarded += len(res.Awarded)
		summary.AlreadyAwarded += res.AlreadyAwarded
		if res.Error != nil {
			summary.Failed++
		}
	}
	summary.Duration = time.Since(start)

	e.logger.WithFields(map[string]interface{}{
		"participants":    summary.Participants,
		"checks":          summary.Checks,
		"awarded":         summary.Awarded,
		"already_awarded": summary.AlreadyAwarded,
		"failed":          summary.Failed,
		"duration":        summary.Duration.String(),
	}).Info("Badge evaluation completed")

	if err := ctx.Err(); err != nil {
		return summary, err
	}
	return summary, nil
}

func (e *Engine) worker(ctx context.Context, workerID int, r *run, jobs <-chan contracts.Participant, resultCh chan<- ParticipantResult) {
	for p := range jobs {
		if ctx.Err() != nil {
			resultCh <- ParticipantResult{Participant: p, Error: ctx.Err()}
			continue
		}

		res := e.evaluate(ctx, p, r)
		if res.Error != nil {
			e.logger.WithError(res.Error).WithFields(map[string]interface{}{
				"worker":      workerID,
				"participant": p.String(),
			}).Error("Participant evaluation failed")
		}
		resultCh <- res
	}
}

// EvaluateParticipant runs every per-participant rule for p alone.
func (e *Engine) EvaluateParticipant(ctx context.Context, p contracts.Participant, now time.Time) (*ParticipantResult, error) {
	r, err := e.prepare(ctx, now)
	if err != nil {
		return nil, err
	}
	res := e.evaluate(ctx, p, r)
	return &res, res.Error
}

func (e *Engine) build(ctx context.Context, p contracts.Participant, r *run) (*EvaluationContext, error) {
	contractList, err := e.store.ListByParticipant(ctx, p)
	if err != nil {
		return nil, fmt.Errorf("list contracts of %s: %w", p, err)
	}

	var events []contracts.ProspectingEvent
	if p.IsFieldSales() {
		events, err = e.store.ListEvents(ctx, p.ID)
		if err != nil {
			return nil, fmt.Errorf("list events of %s: %w", p, err)
		}
	}

	distinct, err := e.store.CountDistinctBadges(ctx, p)
	if err != nil {
		return nil, fmt.Errorf("count badges of %s: %w", p, err)
	}

	return BuildContext(BuildInput{
		Participant:    p,
		Contracts:      contractList,
		Events:         events,
		Products:       r.products,
		DistinctBadges: distinct,
		Now:            r.now,
		Statuses:       e.cfg.Statuses,
	}), nil
}

func (e *Engine) evaluate(ctx context.Context, p contracts.Participant, r *run) ParticipantResult {
	res := ParticipantResult{Participant: p}

	ec, err := e.build(ctx, p, r)
	if err != nil {
		res.Error = err
		return res
	}

	refreshed := false
	for _, b := range r.badges {
		if isDistinctBadges(b) && !refreshed && len(res.Awarded) > 0 {
			if n, err := e.store.CountDistinctBadges(ctx, p); err == nil {
				ec.DistinctBadges = n
			}
			refreshed = true
		}

		out, err := Check(b.Condition, ec)
		res.Checks++
		if err != nil {
			e.logger.WithError(err).WithField("badge", b.Code).Warn("Skipping badge with unsupported condition")
			continue
		}
		if !out.Met {
			continue
		}

		status, err := e.Award(ctx, p, b, badges.PeriodKeyFor(b, ec.Keys), out.Metadata, r.now)
		if err != nil {
			res.Error = err
			return res
		}
		if status == contracts.AwardStatusAwarded {
			res.Awarded = append(res.Awarded, b.Code)
		} else {
			res.AlreadyAwarded++
		}
	}

	return res
}

// Award records b for p under periodKey unless it already exists.
func (e *Engine) Award(ctx context.Context, p contracts.Participant, b contracts.BadgeDefinition, periodKey string, meta map[string]interface{}, now time.Time) (contracts.AwardStatus, error) {
	award := &contracts.Award{
		ID:          uuid.NewString(),
		Participant: p,
		BadgeID:     b.ID,
		BadgeCode:   b.Code,
		PeriodKey:   periodKey,
		AwardedAt:   now.UTC(),
		Metadata:    meta,
	}

	status, err := e.store.CreateAward(ctx, award)
	if err != nil {
		return "", fmt.Errorf("award %s to %s: %w", b.Code, p, err)
	}

	if status == contracts.AwardStatusAwarded {
		e.logger.WithFields(map[string]interface{}{
			"participant": p.String(),
			"badge":       b.Code,
			"period_key":  periodKey,
		}).Debug("Badge awarded")
	}
	return status, nil
}

// Keys returns the period keys of now in the engine timezone.
func (e *Engine) Keys(now time.Time) period.Keys {
	return period.KeysFor(now.In(e.cfg.Location))
}

// Location is the engine timezone.
func (e *Engine) Location() *time.Location {
	return e.cfg.Location
}
