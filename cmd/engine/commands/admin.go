package commands

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/HatimBenzahra/rework-sub001/internal/admin"
)

// adminCmd represents the admin command
var adminCmd = &cobra.Command{
	Use:   "admin",
	Short: "Manual award and ranking operations",
	Long: `Operator commands that mirror the /api/admin endpoints.

Subcommands:
  award      - Grant a badge by hand
  revoke     - Delete an award by id
  recompute  - Rebuild one leaderboard

Example:
  go run ./cmd/engine admin award --kind commercial --id 42 --badge PERF_CLOSER --period 2026-03
  go run ./cmd/engine admin revoke 1f0c...
  go run ./cmd/engine admin recompute MONTHLY 2026-03`,
}

var (
	awardKind   string
	awardID     string
	awardBadge  string
	awardPeriod string
	awardReason string
)

var (
	adminAwardCmd = &cobra.Command{
		Use:   "award",
		Short: "Grant a badge by hand",
		Long: `Grants one badge to one participant. Without --period the key is
derived from the badge category, exactly as automated awards are filed.
Granting an award the participant already holds is a no-op.`,
		RunE: runAdminAward,
	}

	adminRevokeCmd = &cobra.Command{
		Use:   "revoke [award_id]",
		Short: "Delete an award",
		Args:  cobra.ExactArgs(1),
		RunE:  runAdminRevoke,
	}

	adminRecomputeCmd = &cobra.Command{
		Use:   "recompute [period_type] [period_key]",
		Short: "Rebuild one leaderboard",
		Args:  cobra.ExactArgs(2),
		RunE:  runAdminRecompute,
	}
)

func init() {
	rootCmd.AddCommand(adminCmd)
	adminCmd.AddCommand(adminAwardCmd)
	adminCmd.AddCommand(adminRevokeCmd)
	adminCmd.AddCommand(adminRecomputeCmd)

	adminAwardCmd.Flags().StringVar(&awardKind, "kind", "commercial", "participant kind (commercial|manager)")
	adminAwardCmd.Flags().StringVar(&awardID, "id", "", "participant id")
	adminAwardCmd.Flags().StringVar(&awardBadge, "badge", "", "badge code")
	adminAwardCmd.Flags().StringVar(&awardPeriod, "period", "", "period key (default: derived from the badge)")
	adminAwardCmd.Flags().StringVar(&awardReason, "reason", "", "free-text reason stored with the award")
	_ = adminAwardCmd.MarkFlagRequired("id")
	_ = adminAwardCmd.MarkFlagRequired("badge")
}

func runAdminAward(cmd *cobra.Command, args []string) error {
	a, err := newApp(cmd.Context())
	if err != nil {
		return err
	}
	defer a.close()

	result, err := a.admin.AwardManually(cmd.Context(), admin.AwardRequest{
		ParticipantKind: awardKind,
		ParticipantID:   awardID,
		BadgeCode:       strings.ToUpper(awardBadge),
		PeriodKey:       awardPeriod,
		Reason:          awardReason,
	}, time.Now().In(a.engineCfg.Location()))
	if err != nil {
		return fmt.Errorf("award: %w", err)
	}

	fmt.Printf("✅ %s %s → %s (%s)\n", result.Participant, result.BadgeCode, result.PeriodKey, result.Status)
	return nil
}

func runAdminRevoke(cmd *cobra.Command, args []string) error {
	a, err := newApp(cmd.Context())
	if err != nil {
		return err
	}
	defer a.close()

	result, err := a.admin.Revoke(cmd.Context(), args[0])
	if err != nil {
		return fmt.Errorf("revoke: %w", err)
	}
	if !result.Revoked {
		return fmt.Errorf("revoke %s: %s", args[0], result.Reason)
	}

	fmt.Printf("✅ Award %s revoked\n", result.AwardID)
	return nil
}

func runAdminRecompute(cmd *cobra.Command, args []string) error {
	a, err := newApp(cmd.Context())
	if err != nil {
		return err
	}
	defer a.close()

	board, err := a.admin.RecomputeRanking(cmd.Context(), args[0], args[1], time.Now().In(a.engineCfg.Location()))
	if err != nil {
		return fmt.Errorf("recompute: %w", err)
	}

	PrintHeader("Leaderboard "+string(board.PeriodType)+" "+board.PeriodKey, map[string]string{
		"Entries":  fmt.Sprintf("%d", len(board.Entries)),
		"Computed": board.ComputedAt.Format(time.RFC3339),
	})
	for _, e := range board.Entries {
		fmt.Printf("  #%-3d %-24s %8d pts  %3d contracts  %s\n", e.Rank, e.Participant, e.Points, e.ContractCount, e.Metadata.Tier)
	}

	return nil
}
