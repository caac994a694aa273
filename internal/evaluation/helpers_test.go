package evaluation

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/HatimBenzahra/rework-sub001/internal/badges"
	"github.com/HatimBenzahra/rework-sub001/internal/contracts"
	"github.com/HatimBenzahra/rework-sub001/internal/data/memory"
	"github.com/HatimBenzahra/rework-sub001/internal/period"
	"github.com/HatimBenzahra/rework-sub001/pkg/logger"
)

// Friday of ISO week 2026-W12.
var testNow = time.Date(2026, 3, 20, 12, 0, 0, 0, time.UTC)

func price(v float64) *float64 { return &v }

func newFixture(t *testing.T) (*memory.Store, *Engine) {
	t.Helper()

	s := memory.NewStore()
	s.AddProduct(contracts.Product{ID: "p-mob", Key: contracts.ProductMobile, Name: "Forfait mobile", ReferencePrice: price(20)})
	s.AddProduct(contracts.Product{ID: "p-fib", Key: contracts.ProductFibre, Name: "Box fibre", ReferencePrice: price(40)})
	s.AddProduct(contracts.Product{ID: "p-elec", Key: contracts.ProductElectricity, Name: "Offre électricité", ReferencePrice: price(90)})

	_, err := badges.NewSeeder(s, logger.Nop()).Seed(context.Background())
	require.NoError(t, err)

	e := NewEngine(s, Config{Workers: 2, Location: time.UTC}, logger.Nop())
	return s, e
}

func addContract(t *testing.T, s *memory.Store, id string, p contracts.Participant, productID string, at time.Time) {
	t.Helper()
	owner, product := p, productID
	_, err := s.UpsertContract(context.Background(), &contracts.ValidatedContract{
		ExternalID:  id,
		Participant: &owner,
		ProductID:   &product,
		ValidatedAt: at,
		Periods:     period.KeysFor(at),
		SyncedAt:    at,
	})
	require.NoError(t, err)
}

func day(d, hour int) time.Time {
	return time.Date(2026, 3, d, hour, 0, 0, 0, time.UTC)
}

func awardsByCode(s *memory.Store, p contracts.Participant) map[string]contracts.Award {
	out := make(map[string]contracts.Award)
	for _, a := range s.AllAwards() {
		if a.Participant == p {
			out[a.BadgeCode] = a
		}
	}
	return out
}
