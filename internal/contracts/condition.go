package contracts

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// Metric is the fixed vocabulary a badge condition can test.
type Metric string

const (
	MetricContracts          Metric = "contratsSignes"
	MetricProductContracts   Metric = "contratsProduit"
	MetricArgumentsPerDay    Metric = "argumentationsParJour"
	MetricVisitsPerDay       Metric = "portesProspectesParJour"
	MetricDoorsPerDay        Metric = "portesParJour"
	MetricClosingRate        Metric = "tauxClosing"
	MetricRevisitConversions Metric = "repassageConversion"
	MetricRevisitSignatures  Metric = "repassageSignatures"
	MetricSignaturesPerDay   Metric = "signaturesParJour"
	MetricSignaturesPerWeek  Metric = "signaturesParSemaine"
	MetricWeeklyProgression  Metric = "progressionHebdo"
	MetricMonthlyProgression Metric = "progressionMensuelle"
	MetricDistinctBadges     Metric = "badgesDistincts"
	MetricConversionRate     Metric = "tauxConversion"
	MetricTransformationRate Metric = "ratioPortesSignatures"
)

// Scope decides which period key an award is filed under.
type Scope string

const (
	ScopeNone    Scope = ""
	ScopeRecord  Scope = "record"
	ScopeDay     Scope = "jour"
	ScopeWeek    Scope = "semaine"
	ScopeMonth   Scope = "month"
	ScopeQuarter Scope = "quarter"
)

// Condition is the closed set of badge rules. Each variant carries only
// the parameters its metric reads.
type Condition interface {
	Metric() Metric
	Window() Scope
	condition()
}

// ContractsSigned: lifetime validated contracts >= Threshold.
type ContractsSigned struct {
	Threshold int
}

// ProductContracts: lifetime contracts over the category's products >= Threshold.
type ProductContracts struct {
	Category  string
	Threshold int
}

// ArgumentsPerDay: best day of argued door visits >= Threshold.
type ArgumentsPerDay struct {
	Threshold int
	Scope     Scope
}

// VisitsPerDay: best day of door visits >= Threshold.
type VisitsPerDay struct {
	Threshold int
	Scope     Scope
}

// DoorsPerDay: best day of distinct doors visited >= Threshold.
type DoorsPerDay struct {
	Threshold int
	Scope     Scope
}

// ClosingRate: month-to-date signed / argued * 100 >= Threshold.
type ClosingRate struct {
	Threshold float64
	Scope     Scope
}

// RevisitConversions: doors turned from absent to signed this month >= Threshold.
type RevisitConversions struct {
	Threshold int
	Scope     Scope
}

// RevisitSignatures: lifetime doors signed after an absent or appointment visit.
type RevisitSignatures struct {
	Threshold int
	Scope     Scope
}

// SignaturesPerDay: any single day with >= Threshold validated contracts.
type SignaturesPerDay struct {
	Threshold int
	Scope     Scope
}

// SignaturesPerWeek: any single ISO week with >= Threshold validated contracts.
type SignaturesPerWeek struct {
	Threshold int
	Scope     Scope
}

// WeeklyProgression: strictly increasing week counts inside the current month.
type WeeklyProgression struct {
	Scope Scope
	Type  string
}

// MonthlyProgression: growth between the two latest active months >= Threshold percent.
type MonthlyProgression struct {
	Threshold float64
	Scope     Scope
}

// DistinctBadges: number of different badges held >= Threshold.
type DistinctBadges struct {
	Threshold int
	Scope     Scope
}

// ContractsRanking: position in the merged contract-count leaderboard.
type ContractsRanking struct {
	Rank  int
	Scope Scope
}

// ProductRanking: position among sellers of one product group.
type ProductRanking struct {
	Category string
	Rank     int
	Scope    Scope
}

// ConversionRanking: position in the weekly contracts-per-argued-door ranking.
type ConversionRanking struct {
	Rank  int
	Scope Scope
}

// TransformationRanking: position in the monthly contracts-per-door ranking.
type TransformationRanking struct {
	Rank  int
	Scope Scope
}

func (ContractsSigned) Metric() Metric       { return MetricContracts }
func (ProductContracts) Metric() Metric      { return MetricProductContracts }
func (ArgumentsPerDay) Metric() Metric       { return MetricArgumentsPerDay }
func (VisitsPerDay) Metric() Metric          { return MetricVisitsPerDay }
func (DoorsPerDay) Metric() Metric           { return MetricDoorsPerDay }
func (ClosingRate) Metric() Metric           { return MetricClosingRate }
func (RevisitConversions) Metric() Metric    { return MetricRevisitConversions }
func (RevisitSignatures) Metric() Metric     { return MetricRevisitSignatures }
func (SignaturesPerDay) Metric() Metric      { return MetricSignaturesPerDay }
func (SignaturesPerWeek) Metric() Metric     { return MetricSignaturesPerWeek }
func (WeeklyProgression) Metric() Metric     { return MetricWeeklyProgression }
func (MonthlyProgression) Metric() Metric    { return MetricMonthlyProgression }
func (DistinctBadges) Metric() Metric        { return MetricDistinctBadges }
func (ContractsRanking) Metric() Metric      { return MetricContracts }
func (ProductRanking) Metric() Metric        { return MetricProductContracts }
func (ConversionRanking) Metric() Metric     { return MetricConversionRate }
func (TransformationRanking) Metric() Metric { return MetricTransformationRate }

func (ContractsSigned) Window() Scope         { return ScopeNone }
func (ProductContracts) Window() Scope        { return ScopeNone }
func (c ArgumentsPerDay) Window() Scope       { return c.Scope }
func (c VisitsPerDay) Window() Scope          { return c.Scope }
func (c DoorsPerDay) Window() Scope           { return c.Scope }
func (c ClosingRate) Window() Scope           { return c.Scope }
func (c RevisitConversions) Window() Scope    { return c.Scope }
func (c RevisitSignatures) Window() Scope     { return c.Scope }
func (c SignaturesPerDay) Window() Scope      { return c.Scope }
func (c SignaturesPerWeek) Window() Scope     { return c.Scope }
func (c WeeklyProgression) Window() Scope     { return c.Scope }
func (c MonthlyProgression) Window() Scope    { return c.Scope }
func (c DistinctBadges) Window() Scope        { return c.Scope }
func (c ContractsRanking) Window() Scope      { return c.Scope }
func (c ProductRanking) Window() Scope        { return c.Scope }
func (c ConversionRanking) Window() Scope     { return c.Scope }
func (c TransformationRanking) Window() Scope { return c.Scope }

func (ContractsSigned) condition()       {}
func (ProductContracts) condition()      {}
func (ArgumentsPerDay) condition()       {}
func (VisitsPerDay) condition()          {}
func (DoorsPerDay) condition()           {}
func (ClosingRate) condition()           {}
func (RevisitConversions) condition()    {}
func (RevisitSignatures) condition()     {}
func (SignaturesPerDay) condition()      {}
func (SignaturesPerWeek) condition()     {}
func (WeeklyProgression) condition()     {}
func (MonthlyProgression) condition()    {}
func (DistinctBadges) condition()        {}
func (ContractsRanking) condition()      {}
func (ProductRanking) condition()        {}
func (ConversionRanking) condition()     {}
func (TransformationRanking) condition() {}

// IsComparative reports whether c can only be decided against the whole population.
func IsComparative(c Condition) bool {
	switch c.(type) {
	case ContractsRanking, ProductRanking, ConversionRanking, TransformationRanking:
		return true
	}
	return false
}

// conditionDoc is the persisted JSON shape of a condition.
type conditionDoc struct {
	Metric          Metric   `json:"metric"`
	Threshold       *float64 `json:"threshold,omitempty"`
	Scope           Scope    `json:"scope,omitempty"`
	RankingPosition string   `json:"rankingPosition,omitempty"`
	Category        string   `json:"category,omitempty"`
	Type            string   `json:"type,omitempty"`
}

// Default thresholds applied when a stored condition omits one.
var defaultThresholds = map[Metric]float64{
	MetricContracts:          1,
	MetricProductContracts:   1,
	MetricArgumentsPerDay:    20,
	MetricVisitsPerDay:       100,
	MetricDoorsPerDay:        50,
	MetricClosingRate:        30,
	MetricRevisitConversions: 3,
	MetricRevisitSignatures:  10,
	MetricSignaturesPerDay:   3,
	MetricSignaturesPerWeek:  5,
	MetricMonthlyProgression: 50,
	MetricDistinctBadges:     5,
}

func thresholdDoc(v float64) *float64 { return &v }

// EncodeCondition renders c in its persisted JSON shape.
func EncodeCondition(c Condition) ([]byte, error) {
	doc := conditionDoc{Metric: c.Metric(), Scope: c.Window()}

	switch v := c.(type) {
	case ContractsSigned:
		doc.Threshold = thresholdDoc(float64(v.Threshold))
	case ProductContracts:
		doc.Threshold = thresholdDoc(float64(v.Threshold))
		doc.Category = v.Category
	case ArgumentsPerDay:
		doc.Threshold = thresholdDoc(float64(v.Threshold))
	case VisitsPerDay:
		doc.Threshold = thresholdDoc(float64(v.Threshold))
	case DoorsPerDay:
		doc.Threshold = thresholdDoc(float64(v.Threshold))
	case ClosingRate:
		doc.Threshold = thresholdDoc(v.Threshold)
	case RevisitConversions:
		doc.Threshold = thresholdDoc(float64(v.Threshold))
	case RevisitSignatures:
		doc.Threshold = thresholdDoc(float64(v.Threshold))
	case SignaturesPerDay:
		doc.Threshold = thresholdDoc(float64(v.Threshold))
	case SignaturesPerWeek:
		doc.Threshold = thresholdDoc(float64(v.Threshold))
	case WeeklyProgression:
		doc.Type = v.Type
	case MonthlyProgression:
		doc.Threshold = thresholdDoc(v.Threshold)
	case DistinctBadges:
		doc.Threshold = thresholdDoc(float64(v.Threshold))
	case ContractsRanking:
		doc.RankingPosition = rankLabel(v.Rank)
	case ProductRanking:
		doc.RankingPosition = rankLabel(v.Rank)
		doc.Category = v.Category
	case ConversionRanking:
		doc.RankingPosition = rankLabel(v.Rank)
	case TransformationRanking:
		doc.RankingPosition = rankLabel(v.Rank)
	default:
		return nil, fmt.Errorf("unsupported condition %T", c)
	}

	return json.Marshal(doc)
}

// DecodeCondition parses the persisted JSON shape. contratsSignes and
// contratsProduit become their ranked variants when rankingPosition is set.
func DecodeCondition(data []byte) (Condition, error) {
	var doc conditionDoc
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("decode condition: %w", err)
	}

	threshold := defaultThresholds[doc.Metric]
	if doc.Threshold != nil {
		threshold = *doc.Threshold
	}
	n := int(threshold)

	var rank int
	if doc.RankingPosition != "" {
		r, err := parseRank(doc.RankingPosition)
		if err != nil {
			return nil, err
		}
		rank = r
	}

	switch doc.Metric {
	case MetricContracts:
		if rank > 0 {
			return ContractsRanking{Rank: rank, Scope: doc.Scope}, nil
		}
		return ContractsSigned{Threshold: n}, nil
	case MetricProductContracts:
		if doc.Category == "" {
			return nil, fmt.Errorf("decode condition: %s needs a category", doc.Metric)
		}
		if rank > 0 {
			return ProductRanking{Category: doc.Category, Rank: rank, Scope: doc.Scope}, nil
		}
		return ProductContracts{Category: doc.Category, Threshold: n}, nil
	case MetricArgumentsPerDay:
		return ArgumentsPerDay{Threshold: n, Scope: doc.Scope}, nil
	case MetricVisitsPerDay:
		return VisitsPerDay{Threshold: n, Scope: doc.Scope}, nil
	case MetricDoorsPerDay:
		return DoorsPerDay{Threshold: n, Scope: doc.Scope}, nil
	case MetricClosingRate:
		return ClosingRate{Threshold: threshold, Scope: doc.Scope}, nil
	case MetricRevisitConversions:
		return RevisitConversions{Threshold: n, Scope: doc.Scope}, nil
	case MetricRevisitSignatures:
		return RevisitSignatures{Threshold: n, Scope: doc.Scope}, nil
	case MetricSignaturesPerDay:
		return SignaturesPerDay{Threshold: n, Scope: doc.Scope}, nil
	case MetricSignaturesPerWeek:
		return SignaturesPerWeek{Threshold: n, Scope: doc.Scope}, nil
	case MetricWeeklyProgression:
		return WeeklyProgression{Scope: doc.Scope, Type: doc.Type}, nil
	case MetricMonthlyProgression:
		return MonthlyProgression{Threshold: threshold, Scope: doc.Scope}, nil
	case MetricDistinctBadges:
		return DistinctBadges{Threshold: n, Scope: doc.Scope}, nil
	case MetricConversionRate:
		return ConversionRanking{Rank: orFirst(rank), Scope: doc.Scope}, nil
	case MetricTransformationRate:
		return TransformationRanking{Rank: orFirst(rank), Scope: doc.Scope}, nil
	}

	return nil, fmt.Errorf("decode condition: unknown metric %q", doc.Metric)
}

func rankLabel(rank int) string {
	return "top" + strconv.Itoa(rank)
}

// parseRank reads the integer suffix of labels such as "top3".
func parseRank(label string) (int, error) {
	digits := strings.TrimLeftFunc(label, func(r rune) bool { return r < '0' || r > '9' })
	rank, err := strconv.Atoi(digits)
	if err != nil || rank < 1 {
		return 0, fmt.Errorf("decode condition: invalid ranking position %q", label)
	}
	return rank, nil
}

func orFirst(rank int) int {
	if rank < 1 {
		return 1
	}
	return rank
}
