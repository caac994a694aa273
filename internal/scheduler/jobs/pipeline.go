package jobs

import (
	"context"
	"fmt"
	"time"

	"github.com/HatimBenzahra/rework-sub001/internal/pipeline"
	"github.com/HatimBenzahra/rework-sub001/pkg/logger"
)

// Pipeline is the part of the orchestrator the jobs drive.
type Pipeline interface {
	RunDaily(ctx context.Context, now time.Time) (*pipeline.DailyResult, error)
	RunMonthlyPerformance(ctx context.Context, now time.Time) (*pipeline.PeriodResult, error)
	RunMonthlyTrophies(ctx context.Context, now time.Time) (*pipeline.PeriodResult, error)
	RunWeeklyConversion(ctx context.Context, now time.Time) (*pipeline.PeriodResult, error)
}

// Job names
const (
	DailyPipeline      = "daily_pipeline"
	MonthlyPerformance = "monthly_performance"
	MonthlyTrophies    = "monthly_trophies"
	WeeklyConversion   = "weekly_conversion"
)

// DailyPipelineJob syncs contracts, evaluates badges and rebuilds leaderboards
type DailyPipelineJob struct {
	pipeline Pipeline
	schedule string
	now      func() time.Time
	logger   *logger.Logger
}

// NewDailyPipelineJob creates a new daily pipeline job
func NewDailyPipelineJob(p Pipeline, schedule string, log *logger.Logger) *DailyPipelineJob {
	return &DailyPipelineJob{
		pipeline: p,
		schedule: schedule,
		now:      time.Now,
		logger:   log,
	}
}

// Name returns the job name
func (j *DailyPipelineJob) Name() string {
	return DailyPipeline
}

// Schedule returns the cron schedule (default 2 AM daily)
func (j *DailyPipelineJob) Schedule() string {
	return j.schedule
}

// Run executes the daily pipeline
func (j *DailyPipelineJob) Run(ctx context.Context) error {
	j.logger.Info("Starting scheduled daily pipeline")

	result, err := j.pipeline.RunDaily(ctx, j.now())
	if err != nil {
		return fmt.Errorf("daily pipeline: %w", err)
	}

	fields := map[string]interface{}{
		"run_id": result.RunID,
		"stages": len(result.CompletedStages),
	}
	if result.Ingest != nil {
		fields["contracts_created"] = result.Ingest.Created
		fields["contracts_skipped"] = result.Ingest.Skipped
	}
	if result.Evaluation != nil {
		fields["badges_awarded"] = result.Evaluation.Awarded
	}
	j.logger.WithFields(fields).Info("Daily pipeline completed")

	return nil
}

// PeriodJob runs one of the comparative evaluations for the period that just
// closed.
type PeriodJob struct {
	name     string
	schedule string
	run      func(ctx context.Context, now time.Time) (*pipeline.PeriodResult, error)
	now      func() time.Time
	logger   *logger.Logger
}

// NewMonthlyPerformanceJob awards last month's performance and transformation rankings
func NewMonthlyPerformanceJob(p Pipeline, schedule string, log *logger.Logger) *PeriodJob {
	return newPeriodJob(MonthlyPerformance, schedule, p.RunMonthlyPerformance, log)
}

// NewMonthlyTrophiesJob awards quarterly trophies once the quarter has closed
func NewMonthlyTrophiesJob(p Pipeline, schedule string, log *logger.Logger) *PeriodJob {
	return newPeriodJob(MonthlyTrophies, schedule, p.RunMonthlyTrophies, log)
}

// NewWeeklyConversionJob awards last week's conversion ranking
func NewWeeklyConversionJob(p Pipeline, schedule string, log *logger.Logger) *PeriodJob {
	return newPeriodJob(WeeklyConversion, schedule, p.RunWeeklyConversion, log)
}

func newPeriodJob(
	name, schedule string,
	run func(ctx context.Context, now time.Time) (*pipeline.PeriodResult, error),
	log *logger.Logger,
) *PeriodJob {
	return &PeriodJob{
		name:     name,
		schedule: schedule,
		run:      run,
		now:      time.Now,
		logger:   log,
	}
}

// Name returns the job name
func (j *PeriodJob) Name() string {
	return j.name
}

// Schedule returns the cron schedule
func (j *PeriodJob) Schedule() string {
	return j.schedule
}

// Run executes the comparative evaluation
func (j *PeriodJob) Run(ctx context.Context) error {
	j.logger.WithField("job", j.name).Info("Starting scheduled comparative evaluation")

	result, err := j.run(ctx, j.now())
	if err != nil {
		return fmt.Errorf("%s: %w", j.name, err)
	}

	if result.Skipped {
		j.logger.WithFields(map[string]interface{}{
			"job":        j.name,
			"period_key": result.PeriodKey,
		}).Info("Nothing to evaluate for this period")
		return nil
	}

	awarded := 0
	for _, r := range result.Results {
		awarded += r.Awarded
	}
	j.logger.WithFields(map[string]interface{}{
		"job":        j.name,
		"run_id":     result.RunID,
		"period_key": result.PeriodKey,
		"awarded":    awarded,
	}).Info("Comparative evaluation completed")

	return nil
}
