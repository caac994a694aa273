package engineconfig

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeYAML(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "engine.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoad(t *testing.T) {
	path := "../../config/engine.yaml"
	if _, err := os.Stat(path); os.IsNotExist(err) {
		t.Skip("config file not found")
	}

	cfg, data, err := Load(path)
	require.NoError(t, err)
	assert.NotEmpty(t, data)

	assert.Equal(t, "Europe/Paris", cfg.Meta.Timezone)
	assert.Equal(t, 4, cfg.Evaluation.Workers)
	assert.Equal(t, "argumente", cfg.Evaluation.Statuses.Argued)
	assert.Equal(t, "0 0 2 * * *", cfg.Schedules.DailyPipeline)

	// the shipped file matches the built-in defaults
	fileHash, err := Hash(cfg)
	require.NoError(t, err)
	defHash, err := Hash(Default())
	require.NoError(t, err)
	assert.Equal(t, defHash, fileHash)
}

func TestLoad_PartialFileKeepsDefaults(t *testing.T) {
	path := writeYAML(t, `
evaluation:
  workers: 8
schedules:
  weekly_conversion: "0 0 6 * * MON"
`)

	cfg, _, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 8, cfg.Evaluation.Workers)
	assert.Equal(t, "0 0 6 * * MON", cfg.Schedules.WeeklyConversion)
	assert.Equal(t, Default().Schedules.DailyPipeline, cfg.Schedules.DailyPipeline)
	assert.Equal(t, Default().Evaluation.Statuses, cfg.Evaluation.Statuses)
}

func TestLoad_UnknownField(t *testing.T) {
	path := writeYAML(t, `
evaluation:
  workers: 4
  worker_count: 4
`)

	_, _, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "worker_count")
}

func TestLoad_MissingFile(t *testing.T) {
	_, _, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
}

func TestLoadOrDefault(t *testing.T) {
	cfg, err := LoadOrDefault("")
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		field  string
	}{
		{"defaults are valid", func(*Config) {}, ""},
		{"bad timezone", func(c *Config) { c.Meta.Timezone = "Mars/Olympus" }, "meta.timezone"},
		{"no version", func(c *Config) { c.Meta.Version = " " }, "meta.version"},
		{"zero workers", func(c *Config) { c.Evaluation.Workers = 0 }, "evaluation.workers"},
		{"empty status", func(c *Config) { c.Evaluation.Statuses.Signed = "" }, "evaluation.statuses.signed"},
		{"duplicate status", func(c *Config) { c.Evaluation.Statuses.Signed = "Argumenté" }, "evaluation.statuses.signed"},
		{"bad cron", func(c *Config) { c.Schedules.MonthlyTrophies = "0 4 1 * *" }, "schedules.monthly_trophies"},
		{"too many retries", func(c *Config) { c.Retry.MaxRetries = 11 }, "retry.max_retries"},
		{"bad delay", func(c *Config) { c.Retry.Delay = "soon" }, "retry.delay"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)

			err := Validate(cfg)
			if tt.field == "" {
				assert.NoError(t, err)
				return
			}

			var verr ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Equal(t, tt.field, verr.Field)
		})
	}
}

func TestHash(t *testing.T) {
	a, err := Hash(Default())
	require.NoError(t, err)
	assert.Len(t, a, 64)

	b, _ := Hash(Default())
	assert.Equal(t, a, b, "hash not deterministic")

	changed := Default()
	changed.Evaluation.Workers = 2
	c, _ := Hash(changed)
	assert.NotEqual(t, a, c)
}

func TestEvaluationConfig(t *testing.T) {
	cfg := Default()

	ec := cfg.EvaluationConfig(0)
	assert.Equal(t, 4, ec.Workers)
	assert.Equal(t, "Europe/Paris", ec.Location.String())

	assert.Equal(t, 12, cfg.EvaluationConfig(12).Workers)
	assert.Equal(t, time.Minute, cfg.RetryDelay())
}
