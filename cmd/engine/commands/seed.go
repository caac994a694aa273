package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/HatimBenzahra/rework-sub001/internal/badges"
	"github.com/HatimBenzahra/rework-sub001/pkg/redis"
)

// seedCmd represents the seed command
var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Upsert the badge catalog",
	Long: `Writes the generated badge catalog into the database.

Badges are matched by code. Existing rows keep their id and active flag;
nothing is deleted and awards are never touched, so the command is safe
to run on every deploy.

Example:
  go run ./cmd/engine seed`,
	RunE: runSeed,
}

func init() {
	rootCmd.AddCommand(seedCmd)
}

func runSeed(cmd *cobra.Command, args []string) error {
	a, err := newApp(cmd.Context())
	if err != nil {
		return err
	}
	defer a.close()

	result, err := a.admin.Reseed(cmd.Context())
	if err != nil {
		return fmt.Errorf("seed badges: %w", err)
	}
	if err := a.cache.Delete(cmd.Context(), redis.CatalogKey(badges.CatalogVersion)); err != nil {
		a.log.WithError(err).Warn("Failed to invalidate catalog cache")
	}

	PrintHeader("Badge catalog "+result.Version, map[string]string{
		"Inserted": fmt.Sprintf("%d", result.Inserted),
		"Updated":  fmt.Sprintf("%d", result.Updated),
		"Total":    fmt.Sprintf("%d", result.Total),
	})
	fmt.Println("✅ Catalog seeded")
	return nil
}
