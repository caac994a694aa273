package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/HatimBenzahra/rework-sub001/internal/api"
	"github.com/HatimBenzahra/rework-sub001/internal/api/handlers"
)

// apiCmd represents the api command
var apiCmd = &cobra.Command{
	Use:   "api",
	Short: "Start the HTTP API",
	Long: `Starts the REST API server.

Endpoints:
  GET    /health                                - Health check
  GET    /api/rankings/{periodType}/{periodKey} - Leaderboard (cached)
  GET    /api/badges                            - Active badge catalog
  GET    /api/participants/{kind}/{id}/awards   - Awards of one participant
  POST   /api/admin/awards                      - Manual award
  DELETE /api/admin/awards/{id}                 - Revoke an award
  POST   /api/admin/rankings/recompute          - Rebuild one leaderboard
  POST   /api/admin/badges/seed                 - Upsert the badge catalog

Example:
  go run ./cmd/engine api
  go run ./cmd/engine api --port 8080`,
	RunE: runAPIServer,
}

var (
	apiPort string
)

func init() {
	rootCmd.AddCommand(apiCmd)

	apiCmd.Flags().StringVar(&apiPort, "port", "", "API server port (default: $PORT)")
}

func runAPIServer(cmd *cobra.Command, args []string) error {
	a, err := newApp(cmd.Context())
	if err != nil {
		return err
	}
	defer a.close()

	if apiPort != "" {
		a.cfg.Port = apiPort
	}

	router := api.NewRouter(api.Handlers{
		Admin:   handlers.NewAdminHandler(a.admin, a.cache, a.log),
		Ranking: handlers.NewRankingHandler(a.ranker, a.cache, a.log),
		Badges:  handlers.NewBadgeHandler(a.store, a.cache, a.log),
	}, a.log)
	server := api.New(a.cfg, a.log, router)

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Start()
	}()

	fmt.Printf("\n✅ Server running on http://localhost:%s\n", a.cfg.Port)
	fmt.Println("\nPress Ctrl+C to stop")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return err
	case <-quit:
	}

	a.log.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	a.log.Info("Server stopped")
	return nil
}
