package engineconfig

import (
	"time"

	"github.com/HatimBenzahra/rework-sub001/internal/evaluation"
)

// Config is the engine YAML (SSOT for schedules and evaluation tuning)
type Config struct {
	Meta       Meta       `yaml:"meta" json:"meta"`
	Evaluation Evaluation `yaml:"evaluation" json:"evaluation"`
	Schedules  Schedules  `yaml:"schedules" json:"schedules"`
	Retry      Retry      `yaml:"retry" json:"retry"`
}

// Meta identifies the configuration
type Meta struct {
	Version  string `yaml:"version" json:"version"`
	Timezone string `yaml:"timezone" json:"timezone"`
}

// Evaluation tunes the badge evaluation engine
type Evaluation struct {
	Workers  int                 `yaml:"workers" json:"workers"`
	Statuses evaluation.Statuses `yaml:"statuses" json:"statuses"`
}

// Schedules holds one cron expression (with seconds) per job
type Schedules struct {
	DailyPipeline      string `yaml:"daily_pipeline" json:"daily_pipeline"`
	MonthlyPerformance string `yaml:"monthly_performance" json:"monthly_performance"`
	MonthlyTrophies    string `yaml:"monthly_trophies" json:"monthly_trophies"`
	WeeklyConversion   string `yaml:"weekly_conversion" json:"weekly_conversion"`
}

// Retry configures scheduler retries
type Retry struct {
	MaxRetries int    `yaml:"max_retries" json:"max_retries"`
	Delay      string `yaml:"delay" json:"delay"`
}

// Default returns the configuration used when no YAML is configured.
func Default() *Config {
	return &Config{
		Meta: Meta{
			Version:  "2026.1",
			Timezone: "Europe/Paris",
		},
		Evaluation: Evaluation{
			Workers:  4,
			Statuses: evaluation.DefaultStatuses(),
		},
		Schedules: Schedules{
			DailyPipeline:      "0 0 2 * * *",
			MonthlyPerformance: "0 30 3 1 * *",
			MonthlyTrophies:    "0 0 4 1 * *",
			WeeklyConversion:   "0 30 2 * * MON",
		},
		Retry: Retry{
			MaxRetries: 3,
			Delay:      "1m",
		},
	}
}

// Location resolves Meta.Timezone. Validate guarantees it loads.
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Meta.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// RetryDelay parses Retry.Delay
func (c *Config) RetryDelay() time.Duration {
	d, err := time.ParseDuration(c.Retry.Delay)
	if err != nil {
		return time.Minute
	}
	return d
}

// EvaluationConfig converts the YAML section into the engine's runtime config.
// A positive workers override (EVAL_WORKERS) wins over the file.
func (c *Config) EvaluationConfig(workersOverride int) evaluation.Config {
	workers := c.Evaluation.Workers
	if workersOverride > 0 {
		workers = workersOverride
	}
	return evaluation.Config{
		Workers:  workers,
		Statuses: c.Evaluation.Statuses,
		Location: c.Location(),
	}
}
