package contracts

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeConditionPicksRankedVariant(t *testing.T) {
	tests := []struct {
		name string
		json string
		want Condition
	}{
		{
			name: "plain contract count",
			json: `{"metric":"contratsSignes","threshold":10}`,
			want: ContractsSigned{Threshold: 10},
		},
		{
			name: "ranked contract count",
			json: `{"metric":"contratsSignes","rankingPosition":"top3","scope":"month"}`,
			want: ContractsRanking{Rank: 3, Scope: ScopeMonth},
		},
		{
			name: "ranked product group",
			json: `{"metric":"contratsProduit","category":"Énergie","rankingPosition":"top1","scope":"quarter"}`,
			want: ProductRanking{Category: "Énergie", Rank: 1, Scope: ScopeQuarter},
		},
		{
			name: "default threshold",
			json: `{"metric":"argumentationsParJour","scope":"record"}`,
			want: ArgumentsPerDay{Threshold: 20, Scope: ScopeRecord},
		},
		{
			name: "closing rate keeps decimals",
			json: `{"metric":"tauxClosing","threshold":32.5,"scope":"month"}`,
			want: ClosingRate{Threshold: 32.5, Scope: ScopeMonth},
		},
		{
			name: "conversion defaults to first place",
			json: `{"metric":"tauxConversion","scope":"semaine"}`,
			want: ConversionRanking{Rank: 1, Scope: ScopeWeek},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := DecodeCondition([]byte(tt.json))
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestDecodeConditionErrors(t *testing.T) {
	for _, raw := range []string{
		`{"metric":"inventedMetric"}`,
		`{"metric":"contratsProduit","threshold":3}`,
		`{"metric":"contratsSignes","rankingPosition":"top"}`,
		`{"metric":"contratsSignes","rankingPosition":"top0"}`,
		`not json`,
	} {
		_, err := DecodeCondition([]byte(raw))
		assert.Error(t, err, raw)
	}
}

func TestEncodeConditionRoundTrip(t *testing.T) {
	conds := []Condition{
		ProductContracts{Category: "Télécom", Threshold: 20},
		WeeklyProgression{Scope: ScopeMonth, Type: "constant"},
		TransformationRanking{Rank: 2, Scope: ScopeMonth},
		MonthlyProgression{Threshold: 50, Scope: ScopeMonth},
	}

	for _, c := range conds {
		raw, err := EncodeCondition(c)
		require.NoError(t, err)

		back, err := DecodeCondition(raw)
		require.NoError(t, err)
		assert.Equal(t, c, back)
	}
}

func TestIsComparative(t *testing.T) {
	assert.True(t, IsComparative(ContractsRanking{Rank: 1}))
	assert.True(t, IsComparative(ConversionRanking{Rank: 1}))
	assert.False(t, IsComparative(ContractsSigned{Threshold: 1}))
	assert.False(t, IsComparative(DistinctBadges{Threshold: 5}))
}

func TestBadgeDefinitionJSON(t *testing.T) {
	badge := BadgeDefinition{
		Code:      "PERF_TOP1_MOIS",
		Category:  CategoryPerformance,
		Condition: ContractsRanking{Rank: 1, Scope: ScopeMonth},
		Active:    true,
	}

	raw, err := json.Marshal(badge)
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"rankingPosition":"top1"`)

	var back BadgeDefinition
	require.NoError(t, json.Unmarshal(raw, &back))
	assert.Equal(t, badge, back)
}

func TestParticipantOrdering(t *testing.T) {
	assert.True(t, Commercial("z").Less(Manager("a")))
	assert.False(t, Manager("a").Less(Commercial("z")))
	assert.True(t, Manager("a").Less(Manager("b")))
	assert.Equal(t, "commercial:42", Commercial("42").String())

	kind, err := ParseParticipantKind(" Manager ")
	require.NoError(t, err)
	assert.Equal(t, KindManager, kind)
	_, err = ParseParticipantKind("director")
	assert.Error(t, err)
}
