package logger_test

import (
	"errors"

	"github.com/HatimBenzahra/rework-sub001/pkg/config"
	"github.com/HatimBenzahra/rework-sub001/pkg/logger"
)

// Example_withFields shows the structured fields a pipeline stage logs.
func Example_withFields() {
	log := logger.New(&config.Config{
		Env:       "production",
		LogLevel:  "info",
		LogFormat: "json",
	})

	runLog := log.WithFields(map[string]interface{}{
		"run_id":     "4f1c2d7e-0000-4000-8000-000000000000",
		"period_key": "2026-03",
	})
	runLog.Info("Starting comparative run")

	runLog.WithError(errors.New("feed unavailable")).
		WithField("stage", "ingest").
		Warn("Ingest failed, continuing on stored contracts")
}
