package evaluation

import (
	"sort"
	"time"

	"github.com/HatimBenzahra/rework-sub001/internal/contracts"
	"github.com/HatimBenzahra/rework-sub001/internal/period"
)

// EvaluationContext holds every aggregate a badge rule can read for one
// participant at one instant. It is built in a single pass and then only read.
type EvaluationContext struct {
	Participant contracts.Participant
	Now         time.Time
	Keys        period.Keys

	Total            int
	ByProduct        map[string]int
	ByDay            map[string]int
	ByWeek           map[string]int
	ByMonth          map[string]int
	ByQuarterProduct map[string]map[string]int
	CurrentMonth     int
	CurrentQuarter   int

	// CurrentMonthWeeks counts this month's contracts per ISO week.
	CurrentMonthWeeks map[string]int

	DistinctBadges int

	// Activity is nil for managers.
	Activity *ActivityStats
}

// BuildInput is everything the builder needs from the stores.
type BuildInput struct {
	Participant    contracts.Participant
	Contracts      []contracts.ValidatedContract
	Events         []contracts.ProspectingEvent
	Products       map[string]contracts.Product
	DistinctBadges int
	Now            time.Time
	Statuses       Statuses
}

// BuildContext aggregates contracts by product and period, and for field-sales
// agents folds in the door activity. Now must already be in the engine timezone.
func BuildContext(in BuildInput) *EvaluationContext {
	keys := period.KeysFor(in.Now)
	ec := &EvaluationContext{
		Participant:       in.Participant,
		Now:               in.Now,
		Keys:              keys,
		ByProduct:         make(map[string]int),
		ByDay:             make(map[string]int),
		ByWeek:            make(map[string]int),
		ByMonth:           make(map[string]int),
		ByQuarterProduct:  make(map[string]map[string]int),
		CurrentMonthWeeks: make(map[string]int),
		DistinctBadges:    in.DistinctBadges,
	}

	for i := range in.Contracts {
		c := &in.Contracts[i]
		ec.Total++

		productKey := ""
		if c.ProductID != nil {
			if p, ok := in.Products[*c.ProductID]; ok {
				productKey = p.Key
			}
		}
		if productKey != "" {
			ec.ByProduct[productKey]++
		}

		ec.ByDay[c.Periods.Day]++
		ec.ByWeek[c.Periods.Week]++
		ec.ByMonth[c.Periods.Month]++

		if productKey != "" {
			q := ec.ByQuarterProduct[c.Periods.Quarter]
			if q == nil {
				q = make(map[string]int)
				ec.ByQuarterProduct[c.Periods.Quarter] = q
			}
			q[productKey]++
		}

		if c.Periods.Month == keys.Month {
			ec.CurrentMonth++
			ec.CurrentMonthWeeks[c.Periods.Week]++
		}
		if c.Periods.Quarter == keys.Quarter {
			ec.CurrentQuarter++
		}
	}

	if in.Participant.IsFieldSales() {
		ec.Activity = buildActivity(in.Events, in.Now, in.Statuses)
	}

	return ec
}

// maxBucket returns the largest count of any bucket.
func maxBucket(buckets map[string]int) int {
	best := 0
	for _, n := range buckets {
		if n > best {
			best = n
		}
	}
	return best
}

// sortedKeys returns the bucket keys in lexical order, which is chronological
// for every period key format.
func sortedKeys(buckets map[string]int) []string {
	keys := make([]string, 0, len(buckets))
	for k := range buckets {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
