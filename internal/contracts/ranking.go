package contracts

import (
	"time"

	"github.com/HatimBenzahra/rework-sub001/internal/period"
)

// RankSnapshot is one participant's leaderboard row for one period.
// (Participant, PeriodType, PeriodKey) is unique; recomputation overwrites.
type RankSnapshot struct {
	Participant   Participant      `json:"participant"`
	PeriodType    period.Type      `json:"period_type"`
	PeriodKey     string           `json:"period_key"`
	Rank          int              `json:"rank"`
	Points        int64            `json:"points"`
	ContractCount int              `json:"contract_count"`
	ComputedAt    time.Time        `json:"computed_at"`
	Metadata      SnapshotMetadata `json:"metadata"`
}

// SnapshotMetadata carries the movement since the previous computation and
// the point tier.
type SnapshotMetadata struct {
	PreviousRank *int   `json:"previous_rank,omitempty"`
	Delta        *int   `json:"delta,omitempty"`
	Tier         string `json:"tier"`
}
