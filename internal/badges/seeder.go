package badges

import (
	"context"
	"fmt"

	"github.com/HatimBenzahra/rework-sub001/internal/contracts"
	"github.com/HatimBenzahra/rework-sub001/pkg/logger"
)

// Seeder writes the generated catalog into the badge store.
type Seeder struct {
	repo   contracts.BadgeRepository
	logger *logger.Logger
}

// SeedResult counts what a seeding pass did.
type SeedResult struct {
	Inserted int    `json:"inserted"`
	Updated  int    `json:"updated"`
	Total    int    `json:"total"`
	Version  string `json:"version"`
}

// NewSeeder creates a new catalog seeder
func NewSeeder(repo contracts.BadgeRepository, log *logger.Logger) *Seeder {
	return &Seeder{repo: repo, logger: log}
}

// Seed upserts every catalog entry by code. Running it twice changes nothing;
// it never deletes badges and never touches awards.
func (s *Seeder) Seed(ctx context.Context) (*SeedResult, error) {
	catalog := Catalog()
	result := &SeedResult{Total: len(catalog), Version: CatalogVersion}

	for i := range catalog {
		inserted, err := s.repo.UpsertBadge(ctx, &catalog[i])
		if err != nil {
			return result, fmt.Errorf("upsert badge %s: %w", catalog[i].Code, err)
		}
		if inserted {
			result.Inserted++
		} else {
			result.Updated++
		}
	}

	s.logger.WithFields(map[string]interface{}{
		"version":  result.Version,
		"inserted": result.Inserted,
		"updated":  result.Updated,
		"total":    result.Total,
	}).Info("Badge catalog seeded")

	return result, nil
}
