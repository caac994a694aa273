package jobs

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/HatimBenzahra/rework-sub001/internal/engineconfig"
	"github.com/HatimBenzahra/rework-sub001/internal/evaluation"
	"github.com/HatimBenzahra/rework-sub001/internal/pipeline"
	"github.com/HatimBenzahra/rework-sub001/internal/scheduler"
	"github.com/HatimBenzahra/rework-sub001/pkg/logger"
)

type fakePipeline struct {
	err   error
	calls map[string]time.Time
}

func newFakePipeline() *fakePipeline {
	return &fakePipeline{calls: map[string]time.Time{}}
}

func (f *fakePipeline) RunDaily(_ context.Context, now time.Time) (*pipeline.DailyResult, error) {
	f.calls[DailyPipeline] = now
	return &pipeline.DailyResult{RunID: "r1", Evaluation: &evaluation.Summary{Awarded: 2}}, f.err
}

func (f *fakePipeline) period(name string, now time.Time) (*pipeline.PeriodResult, error) {
	f.calls[name] = now
	if f.err != nil {
		return nil, f.err
	}
	return &pipeline.PeriodResult{
		Job:     name,
		Results: []*evaluation.ComparativeResult{{Awarded: 1}},
	}, nil
}

func (f *fakePipeline) RunMonthlyPerformance(_ context.Context, now time.Time) (*pipeline.PeriodResult, error) {
	return f.period(MonthlyPerformance, now)
}

func (f *fakePipeline) RunMonthlyTrophies(_ context.Context, now time.Time) (*pipeline.PeriodResult, error) {
	return f.period(MonthlyTrophies, now)
}

func (f *fakePipeline) RunWeeklyConversion(_ context.Context, now time.Time) (*pipeline.PeriodResult, error) {
	return f.period(WeeklyConversion, now)
}

func TestRegister(t *testing.T) {
	s := scheduler.New(time.UTC, logger.Nop(), scheduler.WithRetry(0, 0))
	require.NoError(t, Register(s, newFakePipeline(), engineconfig.Default().Schedules, logger.Nop()))

	assert.Equal(t, []string{DailyPipeline, MonthlyPerformance, MonthlyTrophies, WeeklyConversion}, s.GetAllJobs())

	stats := s.GetJobStats()
	assert.Equal(t, "0 30 2 * * MON", stats[WeeklyConversion].Schedule)
}

func TestJobsDriveThePipeline(t *testing.T) {
	fixed := time.Date(2026, 4, 1, 4, 0, 0, 0, time.UTC)
	p := newFakePipeline()

	daily := NewDailyPipelineJob(p, "@daily", logger.Nop())
	daily.now = func() time.Time { return fixed }

	list := []scheduler.Job{daily}
	for _, pj := range []*PeriodJob{
		NewMonthlyPerformanceJob(p, "@monthly", logger.Nop()),
		NewMonthlyTrophiesJob(p, "@monthly", logger.Nop()),
		NewWeeklyConversionJob(p, "@weekly", logger.Nop()),
	} {
		pj.now = func() time.Time { return fixed }
		list = append(list, pj)
	}

	for _, job := range list {
		require.NoError(t, job.Run(context.Background()), job.Name())
		assert.Equal(t, fixed, p.calls[job.Name()], job.Name())
	}
}

func TestJobFailurePropagates(t *testing.T) {
	p := newFakePipeline()
	p.err = errors.New("db down")

	err := NewDailyPipelineJob(p, "@daily", logger.Nop()).Run(context.Background())
	assert.ErrorContains(t, err, "daily pipeline: db down")

	err = NewMonthlyTrophiesJob(p, "@monthly", logger.Nop()).Run(context.Background())
	assert.ErrorContains(t, err, "monthly_trophies: db down")
}
