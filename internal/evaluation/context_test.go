package evaluation

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/HatimBenzahra/rework-sub001/internal/contracts"
	"github.com/HatimBenzahra/rework-sub001/internal/period"
)

func contractOn(id string, p contracts.Participant, productID string, at time.Time) contracts.ValidatedContract {
	owner, product := p, productID
	return contracts.ValidatedContract{
		ExternalID:  id,
		Participant: &owner,
		ProductID:   &product,
		ValidatedAt: at,
		Periods:     period.KeysFor(at),
	}
}

func TestBuildContext_Aggregates(t *testing.T) {
	p := contracts.Commercial("c1")
	products := map[string]contracts.Product{
		"p-mob": {ID: "p-mob", Key: contracts.ProductMobile},
		"p-fib": {ID: "p-fib", Key: contracts.ProductFibre},
	}

	ec := BuildContext(BuildInput{
		Participant: p,
		Contracts: []contracts.ValidatedContract{
			contractOn("a", p, "p-mob", time.Date(2026, 1, 14, 10, 0, 0, 0, time.UTC)),
			contractOn("b", p, "p-mob", day(17, 9)),
			contractOn("c", p, "p-fib", day(17, 11)),
			contractOn("d", p, "unknown", day(18, 15)),
		},
		Products: products,
		Now:      testNow,
		Statuses: DefaultStatuses(),
	})

	assert.Equal(t, 4, ec.Total)
	assert.Equal(t, map[string]int{contracts.ProductMobile: 2, contracts.ProductFibre: 1}, ec.ByProduct)
	assert.Equal(t, 2, ec.ByDay["2026-03-17"])
	assert.Equal(t, 3, ec.ByWeek["2026-W12"])
	assert.Equal(t, 3, ec.CurrentMonth)
	assert.Equal(t, 4, ec.CurrentQuarter)
	assert.Equal(t, map[string]int{"2026-W12": 3}, ec.CurrentMonthWeeks)
	assert.Equal(t, 1, ec.ByQuarterProduct["2026-Q1"][contracts.ProductFibre])
	require.NotNil(t, ec.Activity)
}

func TestBuildContext_ManagerHasNoActivity(t *testing.T) {
	ec := BuildContext(BuildInput{
		Participant: contracts.Manager("m1"),
		Events: []contracts.ProspectingEvent{
			{CommercialID: "m1", DoorID: "d1", Status: contracts.DoorArgued, OccurredAt: day(17, 9)},
		},
		Now:      testNow,
		Statuses: DefaultStatuses(),
	})

	assert.Nil(t, ec.Activity)
	assert.Equal(t, 0, ec.Total)
}

func TestBuildActivity(t *testing.T) {
	events := []contracts.ProspectingEvent{
		// d1: absent in February, signed this month.
		{DoorID: "d1", Status: contracts.DoorAbsent, OccurredAt: time.Date(2026, 2, 25, 10, 0, 0, 0, time.UTC)},
		{DoorID: "d1", Status: contracts.DoorSigned, OccurredAt: day(5, 10)},
		// d2: converted, but in February.
		{DoorID: "d2", Status: contracts.DoorAbsent, OccurredAt: time.Date(2026, 2, 20, 10, 0, 0, 0, time.UTC)},
		{DoorID: "d2", Status: "Signé", OccurredAt: time.Date(2026, 2, 26, 10, 0, 0, 0, time.UTC)},
		// d3: appointment then signature.
		{DoorID: "d3", Status: contracts.DoorAppointment, OccurredAt: day(9, 10)},
		{DoorID: "d3", Status: contracts.DoorSigned, OccurredAt: day(10, 10)},
		// d4: signed first, absent afterwards.
		{DoorID: "d4", Status: contracts.DoorSigned, OccurredAt: day(11, 10)},
		{DoorID: "d4", Status: contracts.DoorAbsent, OccurredAt: day(12, 10)},
		// one busy day.
		{DoorID: "d5", Status: "Argumenté", OccurredAt: day(16, 9)},
		{DoorID: "d6", Status: contracts.DoorArgued, OccurredAt: day(16, 10)},
		{DoorID: "d6", Status: contracts.DoorArgued, OccurredAt: day(16, 11)},
		{DoorID: "d7", Status: contracts.DoorRefused, OccurredAt: day(16, 12)},
	}

	stats := buildActivity(events, testNow, DefaultStatuses())

	assert.Equal(t, len(events), stats.Events)
	assert.Equal(t, 4, stats.MaxVisitsPerDay)
	assert.Equal(t, 3, stats.MaxArgumentsPerDay)
	assert.Equal(t, 3, stats.MaxDistinctDoorsPerDay)
	assert.Equal(t, 3, stats.MonthSigned)
	assert.Equal(t, 3, stats.MonthArgued)
	assert.Equal(t, 1, stats.MonthRevisitConversions)
	assert.Equal(t, 3, stats.RevisitSignatures)
}

func TestBuildActivity_UsesEngineTimezone(t *testing.T) {
	paris, err := time.LoadLocation("Europe/Paris")
	require.NoError(t, err)

	// 22:30 UTC on March 31 is already April 1 in Paris.
	events := []contracts.ProspectingEvent{
		{DoorID: "d1", Status: contracts.DoorSigned, OccurredAt: time.Date(2026, 3, 31, 22, 30, 0, 0, time.UTC)},
	}
	now := time.Date(2026, 4, 2, 12, 0, 0, 0, paris)

	stats := buildActivity(events, now, DefaultStatuses())
	assert.Equal(t, 1, stats.MonthSigned)
}
