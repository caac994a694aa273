package repos

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/HatimBenzahra/rework-sub001/internal/contracts"
	"github.com/HatimBenzahra/rework-sub001/internal/period"
)

// newTestStore connects to DATABASE_URL and applies the schema.
func newTestStore(t *testing.T) (*Store, *pgxpool.Pool) {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	url := os.Getenv("DATABASE_URL")
	if url == "" {
		t.Skip("DATABASE_URL not set")
	}

	ctx := context.Background()
	pool, err := pgxpool.New(ctx, url)
	require.NoError(t, err, "database connection failed")
	t.Cleanup(pool.Close)

	schema, err := os.ReadFile("../../../migrations/0001_gamification.sql")
	require.NoError(t, err)
	_, err = pool.Exec(ctx, string(schema))
	require.NoError(t, err)

	return NewStore(pool), pool
}

func TestContractUpsertRoundTrip(t *testing.T) {
	store, pool := newTestStore(t)
	ctx := context.Background()

	commercialID := "it-" + uuid.NewString()[:8]
	_, err := pool.Exec(ctx, `INSERT INTO gamification.participants (kind, id, name) VALUES ('commercial', $1, 'Test')`, commercialID)
	require.NoError(t, err)

	p := contracts.Commercial(commercialID)
	at := time.Date(2026, 3, 17, 9, 0, 0, 0, time.UTC)
	c := &contracts.ValidatedContract{
		ExternalID:            "it-" + uuid.NewString(),
		ExternalParticipantID: "ext-1",
		Participant:           &p,
		ValidatedAt:           at,
		Periods:               period.KeysFor(at),
		Snapshot:              map[string]interface{}{"campaign": "spring"},
		SyncedAt:              at,
	}

	created, err := store.UpsertContract(ctx, c)
	require.NoError(t, err)
	assert.True(t, created)

	created, err = store.UpsertContract(ctx, c)
	require.NoError(t, err)
	assert.False(t, created)

	list, err := store.ListByParticipant(ctx, p)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "2026-W12", list[0].Periods.Week)
	assert.Equal(t, "spring", list[0].Snapshot["campaign"])
	require.NotNil(t, list[0].Participant)
	assert.Equal(t, p, *list[0].Participant)
}

func TestBadgeAndAwardLifecycle(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()

	b := &contracts.BadgeDefinition{
		Code:           "IT_" + uuid.NewString()[:8],
		Name:           "Integration",
		Category:       contracts.CategoryProgression,
		Condition:      contracts.ContractsSigned{Threshold: 1},
		Tier:           1,
		Active:         true,
		CatalogVersion: "test",
	}
	inserted, err := store.UpsertBadge(ctx, b)
	require.NoError(t, err)
	assert.True(t, inserted)
	require.NotEmpty(t, b.ID)

	got, err := store.GetBadgeByCode(ctx, b.Code)
	require.NoError(t, err)
	assert.Equal(t, contracts.ContractsSigned{Threshold: 1}, got.Condition)

	_, err = store.GetBadgeByCode(ctx, "NO_SUCH_BADGE")
	assert.ErrorIs(t, err, contracts.ErrBadgeNotFound)

	p := contracts.Manager("it-" + uuid.NewString()[:8])
	award := &contracts.Award{Participant: p, BadgeID: b.ID, BadgeCode: b.Code, PeriodKey: period.Lifetime}
	status, err := store.CreateAward(ctx, award)
	require.NoError(t, err)
	assert.Equal(t, contracts.AwardStatusAwarded, status)

	status, err = store.CreateAward(ctx, &contracts.Award{Participant: p, BadgeID: b.ID, BadgeCode: b.Code, PeriodKey: period.Lifetime})
	require.NoError(t, err)
	assert.Equal(t, contracts.AwardStatusAlreadyAwarded, status)

	n, err := store.CountDistinctBadges(ctx, p)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	deleted, err := store.DeleteAward(ctx, award.ID)
	require.NoError(t, err)
	assert.True(t, deleted)

	deleted, err = store.DeleteAward(ctx, award.ID)
	require.NoError(t, err)
	assert.False(t, deleted)
}

func TestSnapshotUpsert(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()

	p := contracts.Commercial("it-" + uuid.NewString()[:8])
	key := "2026-W12"

	missing, err := store.GetSnapshot(ctx, p, period.Weekly, key)
	require.NoError(t, err)
	assert.Nil(t, missing)

	snap := &contracts.RankSnapshot{
		Participant: p, PeriodType: period.Weekly, PeriodKey: key,
		Rank: 3, Points: 750, ContractCount: 4, ComputedAt: time.Now().UTC(),
		Metadata: contracts.SnapshotMetadata{Tier: "Silver"},
	}
	require.NoError(t, store.UpsertSnapshot(ctx, snap))

	snap.Rank = 1
	require.NoError(t, store.UpsertSnapshot(ctx, snap))

	got, err := store.GetSnapshot(ctx, p, period.Weekly, key)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, 1, got.Rank)
	assert.Equal(t, "Silver", got.Metadata.Tier)
}
