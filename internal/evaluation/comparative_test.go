package evaluation

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/HatimBenzahra/rework-sub001/internal/contracts"
	"github.com/HatimBenzahra/rework-sub001/internal/period"
	"github.com/HatimBenzahra/rework-sub001/pkg/logger"
)

var quarterClose = time.Date(2026, 4, 1, 4, 0, 0, 0, time.UTC)

func TestTrophies_TieGoesToCommercial(t *testing.T) {
	s, e := newFixture(t)
	cmp := NewComparative(s, e, logger.Nop())
	c1 := contracts.Commercial("c1")
	m1 := contracts.Manager("m1")
	s.AddParticipant(c1, "Alice", "u-1")
	s.AddParticipant(m1, "Bruno", "u-2")

	addContract(t, s, "e1", c1, "p-elec", day(2, 10))
	addContract(t, s, "e2", c1, "p-elec", day(3, 10))
	addContract(t, s, "e3", m1, "p-elec", day(4, 10))
	addContract(t, s, "e4", m1, "p-elec", day(5, 10))
	addContract(t, s, "t1", m1, "p-mob", day(6, 10))
	addContract(t, s, "t2", m1, "p-fib", day(7, 10))
	addContract(t, s, "t3", m1, "p-mob", day(8, 10))

	res, err := cmp.EvaluateTrophies(context.Background(), "2026-Q1", quarterClose)
	require.NoError(t, err)

	assert.Equal(t, 5, res.Badges)
	assert.Equal(t, 3, res.Awarded)
	assert.Equal(t, 2, res.Skipped)

	assert.Contains(t, awardsByCode(s, c1), "TROPHEE_ENERGIE")
	assert.NotContains(t, awardsByCode(s, m1), "TROPHEE_ENERGIE")
	assert.Contains(t, awardsByCode(s, m1), "TROPHEE_TELECOM")
	assert.Contains(t, awardsByCode(s, m1), "TROPHEE_MEILLEUR_PRODUCTEUR")
	assert.Equal(t, "2026-Q1", awardsByCode(s, m1)["TROPHEE_TELECOM"].PeriodKey)

	again, err := cmp.EvaluateTrophies(context.Background(), "2026-Q1", quarterClose)
	require.NoError(t, err)
	assert.Equal(t, 0, again.Awarded)
	assert.Equal(t, 3, again.AlreadyAwarded)
}

func TestTrophies_RejectsMalformedKey(t *testing.T) {
	s, e := newFixture(t)
	cmp := NewComparative(s, e, logger.Nop())

	_, err := cmp.EvaluateTrophies(context.Background(), "2026-Q5", quarterClose)
	assert.ErrorIs(t, err, period.ErrInvalidPeriodKey)
	assert.Empty(t, s.AllAwards())
}

func TestPerformanceRanking_MergedLeaderboard(t *testing.T) {
	s, e := newFixture(t)
	cmp := NewComparative(s, e, logger.Nop())
	c1, c2, c3 := contracts.Commercial("c1"), contracts.Commercial("c2"), contracts.Commercial("c3")
	m1 := contracts.Manager("m1")
	for _, p := range []contracts.Participant{c1, c2, c3, m1} {
		s.AddParticipant(p, p.ID, "u-"+p.ID)
	}

	addContract(t, s, "a1", c2, "p-mob", day(2, 10))
	addContract(t, s, "a2", c2, "p-mob", day(3, 10))
	addContract(t, s, "a3", c2, "p-mob", day(4, 10))
	addContract(t, s, "b1", m1, "p-mob", day(2, 10))
	addContract(t, s, "b2", m1, "p-mob", day(3, 10))
	addContract(t, s, "b3", m1, "p-mob", day(4, 10))
	addContract(t, s, "c1", c1, "p-mob", day(5, 10))
	// February does not count toward March.
	addContract(t, s, "old", c3, "p-mob", time.Date(2026, 2, 27, 10, 0, 0, 0, time.UTC))

	res, err := cmp.EvaluatePerformanceRanking(context.Background(), "2026-03", testNow)
	require.NoError(t, err)
	assert.Equal(t, 3, res.Awarded)

	assert.Contains(t, awardsByCode(s, c2), "PERF_TOP1_MOIS")
	assert.Contains(t, awardsByCode(s, m1), "PERF_TOP2_MOIS")
	assert.Contains(t, awardsByCode(s, c1), "PERF_TOP3_MOIS")
	assert.Empty(t, awardsByCode(s, c3))
	assert.Equal(t, "2026-03", awardsByCode(s, c2)["PERF_TOP1_MOIS"].PeriodKey)
}

func TestPerformanceRanking_ShortBoard(t *testing.T) {
	s, e := newFixture(t)
	cmp := NewComparative(s, e, logger.Nop())
	c1 := contracts.Commercial("c1")
	s.AddParticipant(c1, "Alice", "u-1")
	addContract(t, s, "a1", c1, "p-mob", day(2, 10))

	res, err := cmp.EvaluatePerformanceRanking(context.Background(), "2026-03", testNow)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Awarded)
	assert.Equal(t, 2, res.Skipped)
}

func argued(commercial, door string, at time.Time) contracts.ProspectingEvent {
	return contracts.ProspectingEvent{CommercialID: commercial, DoorID: door, Status: contracts.DoorArgued, OccurredAt: at}
}

func TestConversionRanking(t *testing.T) {
	s, e := newFixture(t)
	cmp := NewComparative(s, e, logger.Nop())
	c1, c2, c3 := contracts.Commercial("c1"), contracts.Commercial("c2"), contracts.Commercial("c3")
	m1 := contracts.Manager("m1")
	for _, p := range []contracts.Participant{c1, c2, c3, m1} {
		s.AddParticipant(p, p.ID, "u-"+p.ID)
	}

	// c1: 2 contracts over 4 arguments.
	addContract(t, s, "a1", c1, "p-mob", day(16, 10))
	addContract(t, s, "a2", c1, "p-mob", day(17, 10))
	s.AddEvents(argued("c1", "d1", day(16, 9)), argued("c1", "d2", day(16, 9)), argued("c1", "d3", day(17, 9)), argued("c1", "d4", day(17, 9)))
	// c2: a contract but no argument this week.
	addContract(t, s, "b1", c2, "p-mob", day(18, 10))
	s.AddEvents(argued("c2", "d9", day(9, 9)))
	// c3: 1 contract over 1 argument.
	addContract(t, s, "c1", c3, "p-mob", day(18, 10))
	s.AddEvents(argued("c3", "d5", day(18, 9)))
	// managers are not ranked on conversion.
	addContract(t, s, "m1", m1, "p-mob", day(18, 10))

	res, err := cmp.EvaluateConversionRanking(context.Background(), "2026-W12", testNow)
	require.NoError(t, err)
	require.Len(t, res.Placements, 1)
	assert.Equal(t, c3, res.Placements[0].Participant)
	assert.InDelta(t, 1.0, res.Placements[0].Value, 0.0001)
	assert.Equal(t, "2026-W12", awardsByCode(s, c3)["PERF_MEILLEUR_TAUX_SEMAINE"].PeriodKey)

	// An inactive leader drops out of the board.
	s.SetActive(c3, false)
	res, err = cmp.EvaluateConversionRanking(context.Background(), "2026-W12", testNow)
	require.NoError(t, err)
	require.Len(t, res.Placements, 1)
	assert.Equal(t, c1, res.Placements[0].Participant)
}

func TestTransformationRanking(t *testing.T) {
	s, e := newFixture(t)
	cmp := NewComparative(s, e, logger.Nop())
	c1, c2 := contracts.Commercial("c1"), contracts.Commercial("c2")
	s.AddParticipant(c1, "Alice", "u-1")
	s.AddParticipant(c2, "Chloé", "u-3")

	addContract(t, s, "a1", c1, "p-mob", day(3, 10))
	addContract(t, s, "a2", c1, "p-mob", day(4, 10))
	s.AddEvents(argued("c1", "d1", day(3, 9)), argued("c1", "d2", day(3, 9)), argued("c1", "d3", day(4, 9)), argued("c1", "d4", day(4, 9)))

	addContract(t, s, "b1", c2, "p-fib", day(5, 10))
	// Two visits to one door count once.
	s.AddEvents(
		contracts.ProspectingEvent{CommercialID: "c2", DoorID: "d8", Status: contracts.DoorAbsent, OccurredAt: day(2, 9)},
		argued("c2", "d8", day(5, 9)),
	)

	res, err := cmp.EvaluateTransformationRanking(context.Background(), "2026-03", testNow)
	require.NoError(t, err)
	require.Len(t, res.Placements, 1)
	assert.Equal(t, c2, res.Placements[0].Participant)
	assert.Contains(t, awardsByCode(s, c2), "PERF_TRANSFORMATEUR_MOIS")
}

func TestConversionRanking_ZeroRateHoldsAPosition(t *testing.T) {
	s, e := newFixture(t)
	cmp := NewComparative(s, e, logger.Nop())
	c1, c2 := contracts.Commercial("c1"), contracts.Commercial("c2")
	s.AddParticipant(c1, "Alice", "u-1")
	s.AddParticipant(c2, "Chloé", "u-3")

	runnerUp := &contracts.BadgeDefinition{
		Code:      "PERF_DAUPHIN_TAUX_SEMAINE",
		Name:      "Dauphin du taux",
		Category:  contracts.CategoryPerformance,
		Condition: contracts.ConversionRanking{Rank: 2, Scope: contracts.ScopeWeek},
		Active:    true,
	}
	_, err := s.UpsertBadge(context.Background(), runnerUp)
	require.NoError(t, err)

	// c1: 1 contract over 1 argument; c2 argued once and signed nothing.
	addContract(t, s, "a1", c1, "p-mob", day(16, 10))
	s.AddEvents(argued("c1", "d1", day(16, 9)), argued("c2", "d2", day(17, 9)))

	res, err := cmp.EvaluateConversionRanking(context.Background(), "2026-W12", testNow)
	require.NoError(t, err)
	require.Len(t, res.Placements, 2)
	assert.Equal(t, 0, res.Skipped)

	byCode := make(map[string]Placement)
	for _, p := range res.Placements {
		byCode[p.BadgeCode] = p
	}
	assert.Equal(t, c1, byCode["PERF_MEILLEUR_TAUX_SEMAINE"].Participant)
	assert.Equal(t, c2, byCode["PERF_DAUPHIN_TAUX_SEMAINE"].Participant)
	assert.Equal(t, 2, byCode["PERF_DAUPHIN_TAUX_SEMAINE"].Rank)
	assert.InDelta(t, 0.0, byCode["PERF_DAUPHIN_TAUX_SEMAINE"].Value, 0.0001)
	assert.Equal(t, "2026-W12", awardsByCode(s, c2)["PERF_DAUPHIN_TAUX_SEMAINE"].PeriodKey)
}
