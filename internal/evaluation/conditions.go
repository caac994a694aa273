package evaluation

import (
	"fmt"

	"github.com/HatimBenzahra/rework-sub001/internal/badges"
	"github.com/HatimBenzahra/rework-sub001/internal/contracts"
)

// Outcome is the verdict of one rule plus the values that justified it.
type Outcome struct {
	Met      bool
	Metadata map[string]interface{}
}

func met(ok bool, meta map[string]interface{}) Outcome {
	return Outcome{Met: ok, Metadata: meta}
}

var notMet = Outcome{}

// Check evaluates one per-participant condition against ec. Population
// rankings always answer not met here; the comparative evaluator owns them.
func Check(cond contracts.Condition, ec *EvaluationContext) (Outcome, error) {
	act := ec.Activity

	switch c := cond.(type) {
	case contracts.ContractsSigned:
		return met(ec.Total >= c.Threshold, map[string]interface{}{"total": ec.Total}), nil

	case contracts.ProductContracts:
		n := badges.CountInCategory(ec.ByProduct, c.Category)
		return met(n >= c.Threshold, map[string]interface{}{"category": c.Category, "count": n}), nil

	case contracts.ArgumentsPerDay:
		if act == nil {
			return notMet, nil
		}
		return met(act.MaxArgumentsPerDay >= c.Threshold, map[string]interface{}{"best_day": act.MaxArgumentsPerDay}), nil

	case contracts.VisitsPerDay:
		if act == nil {
			return notMet, nil
		}
		return met(act.MaxVisitsPerDay >= c.Threshold, map[string]interface{}{"best_day": act.MaxVisitsPerDay}), nil

	case contracts.DoorsPerDay:
		if act == nil {
			return notMet, nil
		}
		return met(act.MaxDistinctDoorsPerDay >= c.Threshold, map[string]interface{}{"best_day": act.MaxDistinctDoorsPerDay}), nil

	case contracts.ClosingRate:
		if c.Scope != contracts.ScopeMonth || act == nil || act.MonthArgued == 0 {
			return notMet, nil
		}
		rate := float64(act.MonthSigned) / float64(act.MonthArgued) * 100
		return met(rate >= c.Threshold, map[string]interface{}{
			"rate":   rate,
			"signed": act.MonthSigned,
			"argued": act.MonthArgued,
		}), nil

	case contracts.RevisitConversions:
		if c.Scope != contracts.ScopeMonth || act == nil {
			return notMet, nil
		}
		return met(act.MonthRevisitConversions >= c.Threshold, map[string]interface{}{"doors": act.MonthRevisitConversions}), nil

	case contracts.RevisitSignatures:
		if act == nil {
			return notMet, nil
		}
		return met(act.RevisitSignatures >= c.Threshold, map[string]interface{}{"doors": act.RevisitSignatures}), nil

	case contracts.SignaturesPerDay:
		best := maxBucket(ec.ByDay)
		return met(best >= c.Threshold, map[string]interface{}{"best_day": best}), nil

	case contracts.SignaturesPerWeek:
		best := maxBucket(ec.ByWeek)
		return met(best >= c.Threshold, map[string]interface{}{"best_week": best}), nil

	case contracts.WeeklyProgression:
		return weeklyProgression(c, ec), nil

	case contracts.MonthlyProgression:
		return monthlyProgression(c, ec), nil

	case contracts.DistinctBadges:
		return met(ec.DistinctBadges >= c.Threshold, map[string]interface{}{"badges": ec.DistinctBadges}), nil

	case contracts.ContractsRanking, contracts.ProductRanking,
		contracts.ConversionRanking, contracts.TransformationRanking:
		return notMet, nil
	}

	return notMet, fmt.Errorf("no evaluator for condition %T", cond)
}

// weeklyProgression needs at least two weeks this month with strictly
// increasing counts in chronological order. Only month scope is defined.
func weeklyProgression(c contracts.WeeklyProgression, ec *EvaluationContext) Outcome {
	if c.Scope != contracts.ScopeMonth || (c.Type != "" && c.Type != "constant") {
		return notMet
	}
	weeks := sortedKeys(ec.CurrentMonthWeeks)
	if len(weeks) < 2 {
		return notMet
	}

	counts := make([]int, len(weeks))
	for i, w := range weeks {
		counts[i] = ec.CurrentMonthWeeks[w]
		if i > 0 && counts[i] <= counts[i-1] {
			return notMet
		}
	}
	return met(true, map[string]interface{}{"weeks": weeks, "counts": counts})
}

// monthlyProgression compares the two most recent months with any contract.
func monthlyProgression(c contracts.MonthlyProgression, ec *EvaluationContext) Outcome {
	var active []string
	for _, m := range sortedKeys(ec.ByMonth) {
		if ec.ByMonth[m] > 0 {
			active = append(active, m)
		}
	}
	if len(active) < 2 {
		return notMet
	}

	prevKey, lastKey := active[len(active)-2], active[len(active)-1]
	prev, last := ec.ByMonth[prevKey], ec.ByMonth[lastKey]
	meta := map[string]interface{}{"previous_month": prevKey, "previous": prev, "month": lastKey, "count": last}

	if prev == 0 {
		return met(last > 0, meta)
	}
	growth := float64(last-prev) / float64(prev) * 100
	meta["growth"] = growth
	return met(growth >= c.Threshold, meta)
}
