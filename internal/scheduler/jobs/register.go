package jobs

import (
	"github.com/HatimBenzahra/rework-sub001/internal/engineconfig"
	"github.com/HatimBenzahra/rework-sub001/internal/scheduler"
	"github.com/HatimBenzahra/rework-sub001/pkg/logger"
)

// Register adds every engine job to s using the configured schedules.
func Register(s *scheduler.Scheduler, p Pipeline, schedules engineconfig.Schedules, log *logger.Logger) error {
	list := []scheduler.Job{
		NewDailyPipelineJob(p, schedules.DailyPipeline, log),
		NewMonthlyPerformanceJob(p, schedules.MonthlyPerformance, log),
		NewMonthlyTrophiesJob(p, schedules.MonthlyTrophies, log),
		NewWeeklyConversionJob(p, schedules.WeeklyConversion, log),
	}
	for _, job := range list {
		if err := s.AddJob(job); err != nil {
			return err
		}
	}
	return nil
}
