package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/HatimBenzahra/rework-sub001/internal/evaluation"
	"github.com/HatimBenzahra/rework-sub001/internal/ingest"
	"github.com/HatimBenzahra/rework-sub001/internal/period"
	"github.com/HatimBenzahra/rework-sub001/internal/ranking"
	"github.com/HatimBenzahra/rework-sub001/pkg/logger"
)

// Stage names recorded in CompletedStages and StageErrors.
const (
	StageIngest         = "ingest"
	StageEvaluate       = "evaluate"
	StageRank           = "rank"
	StagePerformance    = "performance_ranking"
	StageTransformation = "transformation_ranking"
	StageConversion     = "conversion_ranking"
	StageTrophies       = "trophies"
)

// Ingester pulls the contract feed into the store.
type Ingester interface {
	Run(ctx context.Context, runID string, now time.Time) (*ingest.Result, error)
}

// Evaluator runs the per-participant badge rules.
type Evaluator interface {
	EvaluateAll(ctx context.Context, now time.Time) (*evaluation.Summary, error)
}

// ComparativeEvaluator awards the cross-participant badges.
type ComparativeEvaluator interface {
	EvaluateTrophies(ctx context.Context, quarterKey string, now time.Time) (*evaluation.ComparativeResult, error)
	EvaluatePerformanceRanking(ctx context.Context, monthKey string, now time.Time) (*evaluation.ComparativeResult, error)
	EvaluateConversionRanking(ctx context.Context, weekKey string, now time.Time) (*evaluation.ComparativeResult, error)
	EvaluateTransformationRanking(ctx context.Context, monthKey string, now time.Time) (*evaluation.ComparativeResult, error)
}

// Ranker rebuilds the leaderboards of the current periods.
type Ranker interface {
	RecomputeCurrent(ctx context.Context, now time.Time) ([]*ranking.Leaderboard, error)
}

// Options carries run-wide settings.
type Options struct {
	Location   *time.Location
	ConfigHash string
}

// Orchestrator coordinates the engine stages
// SSOT: every stage sequence is defined here
type Orchestrator struct {
	ingester    Ingester
	evaluator   Evaluator
	comparative ComparativeEvaluator
	ranker      Ranker

	loc        *time.Location
	configHash string
	logger     *logger.Logger
}

// NewOrchestrator creates a new orchestrator
func NewOrchestrator(
	ingester Ingester,
	evaluator Evaluator,
	comparative ComparativeEvaluator,
	ranker Ranker,
	opts Options,
	log *logger.Logger,
) *Orchestrator {
	loc := opts.Location
	if loc == nil {
		loc = time.UTC
	}
	return &Orchestrator{
		ingester:    ingester,
		evaluator:   evaluator,
		comparative: comparative,
		ranker:      ranker,
		loc:         loc,
		configHash:  opts.ConfigHash,
		logger:      log.WithField("module", "pipeline"),
	}
}

// DailyResult holds the results of one daily run
type DailyResult struct {
	RunID           string                 `json:"run_id"`
	StartedAt       time.Time              `json:"started_at"`
	Success         bool                   `json:"success"`
	CompletedStages []string               `json:"completed_stages"`
	StageErrors     map[string]string      `json:"stage_errors,omitempty"`
	Ingest          *ingest.Result         `json:"ingest,omitempty"`
	Evaluation      *evaluation.Summary    `json:"evaluation,omitempty"`
	Ranking         []*ranking.Leaderboard `json:"ranking,omitempty"`
	Duration        time.Duration          `json:"duration"`
}

// PeriodResult holds the results of one comparative job
type PeriodResult struct {
	RunID           string                          `json:"run_id"`
	Job             string                          `json:"job"`
	PeriodKey       string                          `json:"period_key"`
	Skipped         bool                            `json:"skipped"`
	Success         bool                            `json:"success"`
	CompletedStages []string                        `json:"completed_stages"`
	StageErrors     map[string]string               `json:"stage_errors,omitempty"`
	Results         []*evaluation.ComparativeResult `json:"results,omitempty"`
	Duration        time.Duration                   `json:"duration"`
}

// stages tracks completion and failures of one run.
type stages struct {
	completed []string
	failed    map[string]string
	errs      []error
}

func newStages() *stages {
	return &stages{completed: make([]string, 0), failed: make(map[string]string)}
}

func (s *stages) done(name string) { s.completed = append(s.completed, name) }

func (s *stages) fail(name string, err error) {
	s.failed[name] = err.Error()
	s.errs = append(s.errs, fmt.Errorf("%s stage: %w", name, err))
}

func (s *stages) err() error { return errors.Join(s.errs...) }

func (s *stages) failures() map[string]string {
	if len(s.failed) == 0 {
		return nil
	}
	return s.failed
}

// RunDaily executes ingest → evaluate → rank.
// A failed stage is recorded and the next stage still runs on whatever data
// the store holds. The returned error joins every stage failure.
func (o *Orchestrator) RunDaily(ctx context.Context, now time.Time) (*DailyResult, error) {
	start := time.Now()
	st := newStages()
	result := &DailyResult{
		RunID:     GenerateRunID(),
		StartedAt: now,
	}

	runLog := o.logger.WithFields(map[string]interface{}{
		"run_id":      result.RunID,
		"date":        now.In(o.loc).Format("2006-01-02"),
		"config_hash": o.configHash,
	})
	runLog.Info("Starting daily pipeline run")

	// Ingest
	ingested, err := o.ingester.Run(ctx, result.RunID, now)
	if err != nil {
		st.fail(StageIngest, err)
		runLog.WithError(err).Warn("Ingest failed, continuing on stored contracts")
	} else {
		result.Ingest = ingested
		st.done(StageIngest)
	}

	// Evaluate
	if ctx.Err() == nil {
		summary, err := o.evaluator.EvaluateAll(ctx, now)
		if err != nil {
			st.fail(StageEvaluate, err)
			runLog.WithError(err).Error("Evaluation failed")
		} else {
			result.Evaluation = summary
			st.done(StageEvaluate)
		}
	}

	// Rank
	if ctx.Err() == nil {
		boards, err := o.ranker.RecomputeCurrent(ctx, now)
		result.Ranking = boards
		if err != nil {
			st.fail(StageRank, err)
			runLog.WithError(err).Error("Ranking failed")
		} else {
			st.done(StageRank)
		}
	}

	if err := ctx.Err(); err != nil {
		st.errs = append(st.errs, err)
	}

	result.CompletedStages = st.completed
	result.StageErrors = st.failures()
	result.Success = len(st.errs) == 0
	result.Duration = time.Since(start)

	runLog.WithFields(map[string]interface{}{
		"duration": result.Duration.Seconds(),
		"stages":   len(result.CompletedStages),
		"success":  result.Success,
	}).Info("Daily pipeline run finished")

	return result, st.err()
}

// RunMonthlyPerformance awards the performance and transformation rankings
// of the month preceding now.
func (o *Orchestrator) RunMonthlyPerformance(ctx context.Context, now time.Time) (*PeriodResult, error) {
	monthKey := period.MonthKey(period.Previous(period.Monthly, now.In(o.loc)))

	return o.runComparative(ctx, "monthly_performance", monthKey, now, []comparativeStage{
		{StagePerformance, o.comparative.EvaluatePerformanceRanking},
		{StageTransformation, o.comparative.EvaluateTransformationRanking},
	})
}

// RunMonthlyTrophies awards the trophies of the quarter closed by the month
// preceding now. Runs in any other month are skipped so each quarter is
// decided exactly once.
func (o *Orchestrator) RunMonthlyTrophies(ctx context.Context, now time.Time) (*PeriodResult, error) {
	prev := period.Previous(period.Monthly, now.In(o.loc))
	quarterKey := period.QuarterKey(prev)

	if !period.IsQuarterEnd(prev.Month()) {
		o.logger.WithFields(map[string]interface{}{
			"month":   period.MonthKey(prev),
			"quarter": quarterKey,
		}).Info("Quarter still open, skipping trophies")
		return &PeriodResult{
			RunID:           GenerateRunID(),
			Job:             "monthly_trophies",
			PeriodKey:       quarterKey,
			Skipped:         true,
			Success:         true,
			CompletedStages: make([]string, 0),
		}, nil
	}

	return o.runComparative(ctx, "monthly_trophies", quarterKey, now, []comparativeStage{
		{StageTrophies, o.comparative.EvaluateTrophies},
	})
}

// RunWeeklyConversion awards the conversion ranking of the ISO week
// preceding now.
func (o *Orchestrator) RunWeeklyConversion(ctx context.Context, now time.Time) (*PeriodResult, error) {
	weekKey := period.WeekKey(period.Previous(period.Weekly, now.In(o.loc)))

	return o.runComparative(ctx, "weekly_conversion", weekKey, now, []comparativeStage{
		{StageConversion, o.comparative.EvaluateConversionRanking},
	})
}

type comparativeStage struct {
	name string
	run  func(ctx context.Context, key string, now time.Time) (*evaluation.ComparativeResult, error)
}

func (o *Orchestrator) runComparative(ctx context.Context, job, key string, now time.Time, list []comparativeStage) (*PeriodResult, error) {
	start := time.Now()
	st := newStages()
	result := &PeriodResult{
		RunID:     GenerateRunID(),
		Job:       job,
		PeriodKey: key,
	}

	runLog := o.logger.WithFields(map[string]interface{}{
		"run_id":      result.RunID,
		"job":         job,
		"period_key":  key,
		"config_hash": o.configHash,
	})
	runLog.Info("Starting comparative run")

	for _, stage := range list {
		if ctx.Err() != nil {
			break
		}
		res, err := stage.run(ctx, key, now)
		if err != nil {
			st.fail(stage.name, err)
			runLog.WithError(err).WithField("stage", stage.name).Error("Comparative stage failed")
			continue
		}
		result.Results = append(result.Results, res)
		st.done(stage.name)
	}

	if err := ctx.Err(); err != nil {
		st.errs = append(st.errs, err)
	}

	result.CompletedStages = st.completed
	result.StageErrors = st.failures()
	result.Success = len(st.errs) == 0
	result.Duration = time.Since(start)

	runLog.WithFields(map[string]interface{}{
		"duration": result.Duration.Seconds(),
		"stages":   len(result.CompletedStages),
		"success":  result.Success,
	}).Info("Comparative run finished")

	return result, st.err()
}

// GenerateRunID generates a unique run ID
func GenerateRunID() string {
	return uuid.NewString()
}
