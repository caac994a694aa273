package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/HatimBenzahra/rework-sub001/internal/pipeline"
)

// pipelineCmd represents the pipeline command
var pipelineCmd = &cobra.Command{
	Use:   "pipeline",
	Short: "Run an engine pipeline once",
	Long: `Runs one pipeline immediately, outside the scheduler.

Subcommands:
  daily               - ingest → evaluate → rank
  monthly-performance - performance and transformation rankings of last month
  monthly-trophies    - quarterly trophies (only after a quarter-closing month)
  weekly-conversion   - conversion ranking of last ISO week

Every run is idempotent and safe to repeat.

Example:
  go run ./cmd/engine pipeline daily
  go run ./cmd/engine pipeline monthly-trophies --at 2026-04-01`,
}

var (
	pipelineAt   string
	pipelineJSON bool
)

func init() {
	rootCmd.AddCommand(pipelineCmd)

	pipelineCmd.PersistentFlags().StringVar(&pipelineAt, "at", "", "pretend the run happens at this time (YYYY-MM-DD or RFC3339)")
	pipelineCmd.PersistentFlags().BoolVar(&pipelineJSON, "json", false, "print the full result as JSON")

	pipelineCmd.AddCommand(&cobra.Command{
		Use:   "daily",
		Short: "Ingest contracts, evaluate badges, rebuild leaderboards",
		RunE:  runDailyPipeline,
	})
	pipelineCmd.AddCommand(periodCommand("monthly-performance", "Award last month's performance rankings",
		func(o *pipeline.Orchestrator) periodRun { return o.RunMonthlyPerformance }))
	pipelineCmd.AddCommand(periodCommand("monthly-trophies", "Award the trophies of the quarter that just closed",
		func(o *pipeline.Orchestrator) periodRun { return o.RunMonthlyTrophies }))
	pipelineCmd.AddCommand(periodCommand("weekly-conversion", "Award last week's conversion ranking",
		func(o *pipeline.Orchestrator) periodRun { return o.RunWeeklyConversion }))
}

type periodRun func(ctx context.Context, now time.Time) (*pipeline.PeriodResult, error)

func runDailyPipeline(cmd *cobra.Command, args []string) error {
	a, err := newApp(cmd.Context())
	if err != nil {
		return err
	}
	defer a.close()

	now, err := a.now(pipelineAt)
	if err != nil {
		return err
	}

	result, runErr := a.orchestrator.RunDaily(cmd.Context(), now)

	if pipelineJSON {
		if err := PrintJSON(result); err != nil {
			return err
		}
		return runErr
	}

	PrintHeader("Daily pipeline", map[string]string{
		"Run ID":   result.RunID,
		"At":       now.Format(time.RFC3339),
		"Duration": result.Duration.Round(time.Millisecond).String(),
	})
	if r := result.Ingest; r != nil {
		fmt.Printf("[Ingest] total=%d created=%d updated=%d skipped=%d unmapped=%d/%d\n",
			r.Total, r.Created, r.Updated, r.Skipped, r.Unmapped.Participants, r.Unmapped.Products)
	}
	if s := result.Evaluation; s != nil {
		fmt.Printf("[Evaluate] participants=%d awarded=%d already=%d failed=%d\n",
			s.Participants, s.Awarded, s.AlreadyAwarded, s.Failed)
	}
	for _, board := range result.Ranking {
		fmt.Printf("[Rank] %s %s: %d entries\n", board.PeriodType, board.PeriodKey, len(board.Entries))
	}
	PrintStages(result.CompletedStages, result.StageErrors)

	return runErr
}

func periodCommand(use, short string, pick func(*pipeline.Orchestrator) periodRun) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd.Context())
			if err != nil {
				return err
			}
			defer a.close()

			now, err := a.now(pipelineAt)
			if err != nil {
				return err
			}

			result, runErr := pick(a.orchestrator)(cmd.Context(), now)

			if pipelineJSON {
				if err := PrintJSON(result); err != nil {
					return err
				}
				return runErr
			}

			PrintHeader(use, map[string]string{
				"Run ID": result.RunID,
				"Period": result.PeriodKey,
			})
			if result.Skipped {
				fmt.Println("Nothing to evaluate for this period")
				return nil
			}
			for _, r := range result.Results {
				fmt.Printf("[%s] badges=%d awarded=%d already=%d skipped=%d\n",
					r.Evaluation, r.Badges, r.Awarded, r.AlreadyAwarded, r.Skipped)
				for _, p := range r.Placements {
					fmt.Printf("    #%d %-28s %s (%s)\n", p.Rank, p.BadgeCode, p.Participant, p.Status)
				}
			}
			PrintStages(result.CompletedStages, result.StageErrors)

			return runErr
		},
	}
}
