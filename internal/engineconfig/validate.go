package engineconfig

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/HatimBenzahra/rework-sub001/pkg/textnorm"
)

// ValidationError points at the offending YAML field.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// cronParser mirrors the scheduler's parser (seconds field enabled).
var cronParser = cron.NewParser(
	cron.Second | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor,
)

// Validate checks every section and returns the first error found.
func Validate(cfg *Config) error {
	if cfg == nil {
		return errors.New("config is nil")
	}

	validators := []func(*Config) error{
		validateMeta,
		validateEvaluation,
		validateSchedules,
		validateRetry,
	}

	for _, validate := range validators {
		if err := validate(cfg); err != nil {
			return err
		}
	}
	return nil
}

func validateMeta(cfg *Config) error {
	if strings.TrimSpace(cfg.Meta.Version) == "" {
		return ValidationError{Field: "meta.version", Message: "required"}
	}
	if cfg.Meta.Timezone == "" {
		return ValidationError{Field: "meta.timezone", Message: "required"}
	}
	if _, err := time.LoadLocation(cfg.Meta.Timezone); err != nil {
		return ValidationError{Field: "meta.timezone", Message: err.Error()}
	}
	return nil
}

func validateEvaluation(cfg *Config) error {
	if cfg.Evaluation.Workers < 1 || cfg.Evaluation.Workers > 64 {
		return ValidationError{Field: "evaluation.workers", Message: "must be in [1, 64]"}
	}

	st := cfg.Evaluation.Statuses
	fields := []struct {
		field string
		value string
	}{
		{"evaluation.statuses.absent", st.Absent},
		{"evaluation.statuses.appointment", st.Appointment},
		{"evaluation.statuses.argued", st.Argued},
		{"evaluation.statuses.signed", st.Signed},
	}
	seen := make(map[string]string, len(fields))
	for _, f := range fields {
		key := textnorm.Key(f.value)
		if key == "" {
			return ValidationError{Field: f.field, Message: "required"}
		}
		if other, ok := seen[key]; ok {
			return ValidationError{Field: f.field, Message: fmt.Sprintf("duplicates %s", other)}
		}
		seen[key] = f.field
	}
	return nil
}

func validateSchedules(cfg *Config) error {
	schedules := []struct {
		field string
		expr  string
	}{
		{"schedules.daily_pipeline", cfg.Schedules.DailyPipeline},
		{"schedules.monthly_performance", cfg.Schedules.MonthlyPerformance},
		{"schedules.monthly_trophies", cfg.Schedules.MonthlyTrophies},
		{"schedules.weekly_conversion", cfg.Schedules.WeeklyConversion},
	}
	for _, s := range schedules {
		if s.expr == "" {
			return ValidationError{Field: s.field, Message: "required"}
		}
		if _, err := cronParser.Parse(s.expr); err != nil {
			return ValidationError{Field: s.field, Message: err.Error()}
		}
	}
	return nil
}

func validateRetry(cfg *Config) error {
	if cfg.Retry.MaxRetries < 0 || cfg.Retry.MaxRetries > 10 {
		return ValidationError{Field: "retry.max_retries", Message: "must be in [0, 10]"}
	}
	d, err := time.ParseDuration(cfg.Retry.Delay)
	if err != nil {
		return ValidationError{Field: "retry.delay", Message: "must be a duration"}
	}
	if d < 0 {
		return ValidationError{Field: "retry.delay", Message: "must not be negative"}
	}
	return nil
}
