package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/HatimBenzahra/rework-sub001/internal/admin"
	"github.com/HatimBenzahra/rework-sub001/internal/archive"
	"github.com/HatimBenzahra/rework-sub001/internal/badges"
	"github.com/HatimBenzahra/rework-sub001/internal/data/repos"
	"github.com/HatimBenzahra/rework-sub001/internal/engineconfig"
	"github.com/HatimBenzahra/rework-sub001/internal/evaluation"
	"github.com/HatimBenzahra/rework-sub001/internal/external/salestracker"
	"github.com/HatimBenzahra/rework-sub001/internal/ingest"
	"github.com/HatimBenzahra/rework-sub001/internal/pipeline"
	"github.com/HatimBenzahra/rework-sub001/internal/ranking"
	"github.com/HatimBenzahra/rework-sub001/pkg/config"
	"github.com/HatimBenzahra/rework-sub001/pkg/database"
	"github.com/HatimBenzahra/rework-sub001/pkg/logger"
	"github.com/HatimBenzahra/rework-sub001/pkg/redis"
)

const keyPrefix = "gamification"

// app holds every wired component. Commands build it once and close it on exit.
type app struct {
	cfg        *config.Config
	engineCfg  *engineconfig.Config
	configHash string
	log        *logger.Logger

	db    *database.DB
	redis *redis.Client
	cache *redis.Cache
	store *repos.Store

	evaluator    *evaluation.Engine
	comparative  *evaluation.Comparative
	ranker       *ranking.Engine
	seeder       *badges.Seeder
	admin        *admin.Service
	orchestrator *pipeline.Orchestrator
}

func newApp(ctx context.Context) (*app, error) {
	// 1. Load config
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if verbose {
		cfg.LogLevel = "debug"
	}
	if engineConfigPath != "" {
		cfg.Engine.ConfigPath = engineConfigPath
	}

	// 2. Initialize logger
	log := logger.New(cfg)

	// 3. Engine YAML
	engineCfg, err := engineconfig.LoadOrDefault(cfg.Engine.ConfigPath)
	if err != nil {
		return nil, fmt.Errorf("load engine config: %w", err)
	}
	if cfg.Engine.ConfigPath == "" {
		engineCfg.Meta.Timezone = cfg.Timezone
	}
	hash, err := engineconfig.Hash(engineCfg)
	if err != nil {
		return nil, fmt.Errorf("hash engine config: %w", err)
	}
	loc := engineCfg.Location()

	log.WithFields(map[string]interface{}{
		"engine_config": cfg.Engine.ConfigPath,
		"config_hash":   hash,
		"timezone":      loc.String(),
	}).Info("Engine configuration loaded")

	// 4. Connect to database
	db, err := database.New(cfg)
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}

	// 5. Redis (no-op when disabled)
	rc, err := redis.New(ctx, cfg.Redis)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("connect to redis: %w", err)
	}
	cache := redis.NewCache(rc, keyPrefix)

	// 6. Raw feed archive
	archiver := archive.Disabled(log)
	if cfg.Archive.Enabled {
		if archiver, err = archive.New(ctx, cfg.Archive, log); err != nil {
			rc.Close()
			db.Close()
			return nil, fmt.Errorf("init archive: %w", err)
		}
	}

	// 7. Contract feed client
	limiter := redis.NewRateLimiter(rc, keyPrefix)
	feed := salestracker.NewClient(cfg.Feed, salestracker.NewHTTPClient(cfg.Feed, limiter, log), log)

	// 8. Engines
	store := repos.NewStore(db.Pool)
	evaluator := evaluation.NewEngine(store, engineCfg.EvaluationConfig(cfg.Engine.Workers), log)
	comparative := evaluation.NewComparative(store, evaluator, log)
	ranker := ranking.NewEngine(store, cache, loc, log)
	seeder := badges.NewSeeder(store, log)
	ingestor := ingest.NewIngestor(feed, store, archiver, loc, log)

	return &app{
		cfg:         cfg,
		engineCfg:   engineCfg,
		configHash:  hash,
		log:         log,
		db:          db,
		redis:       rc,
		cache:       cache,
		store:       store,
		evaluator:   evaluator,
		comparative: comparative,
		ranker:      ranker,
		seeder:      seeder,
		admin:       admin.NewService(store, evaluator, ranker, seeder, log),
		orchestrator: pipeline.NewOrchestrator(
			ingestor, evaluator, comparative, ranker,
			pipeline.Options{Location: loc, ConfigHash: hash},
			log,
		),
	}, nil
}

func (a *app) close() {
	if err := a.redis.Close(); err != nil {
		a.log.WithError(err).Warn("Failed to close redis")
	}
	a.db.Close()
}

// now returns the --at override or the current time, in the engine timezone.
func (a *app) now(at string) (time.Time, error) {
	loc := a.engineCfg.Location()
	if at == "" {
		return time.Now().In(loc), nil
	}
	for _, layout := range []string{time.RFC3339, "2006-01-02T15:04:05", "2006-01-02"} {
		if t, err := time.ParseInLocation(layout, at, loc); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid --at %q (want YYYY-MM-DD or RFC3339)", at)
}
