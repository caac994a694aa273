// Package badges holds the declarative badge catalog and its seeder.
package badges

import (
	"fmt"
	"strings"

	"github.com/gosimple/slug"

	"github.com/HatimBenzahra/rework-sub001/internal/contracts"
	"github.com/HatimBenzahra/rework-sub001/internal/period"
)

// CatalogVersion is stamped on every seeded badge.
const CatalogVersion = "2026.1"

// TierThresholds are the contract counts of the eight PROGRESSION and PRODUIT tiers.
var TierThresholds = []int{1, 2, 3, 5, 10, 20, 50, 100}

var tierNames = []string{
	"Premier pas", "Duo", "Trio", "Main pleine",
	"Dizaine", "Vingtaine", "Demi-centurion", "Centurion",
}

// codeSegment turns a label into an upper-case code segment: "Télécom" -> "TELECOM".
func codeSegment(label string) string {
	return strings.ToUpper(strings.ReplaceAll(slug.Make(label), "-", "_"))
}

func plural(n int, word string) string {
	if n > 1 {
		return fmt.Sprintf("%d %ss", n, word)
	}
	return fmt.Sprintf("%d %s", n, word)
}

func progressionBadges() []contracts.BadgeDefinition {
	out := make([]contracts.BadgeDefinition, 0, len(TierThresholds))
	for i, n := range TierThresholds {
		out = append(out, contracts.BadgeDefinition{
			Code:        fmt.Sprintf("PROG_CONTRATS_%d", n),
			Name:        tierNames[i],
			Description: fmt.Sprintf("Atteindre %s validé(s)", plural(n, "contrat")),
			Category:    contracts.CategoryProgression,
			Condition:   contracts.ContractsSigned{Threshold: n},
			Tier:        i + 1,
		})
	}
	return out
}

func productBadges() []contracts.BadgeDefinition {
	out := make([]contracts.BadgeDefinition, 0, len(ProductCategories)*len(TierThresholds))
	for _, cat := range ProductCategories {
		for i, n := range TierThresholds {
			out = append(out, contracts.BadgeDefinition{
				Code:        fmt.Sprintf("PROD_%s_%d", codeSegment(cat.Label), n),
				Name:        fmt.Sprintf("%s %s", cat.Label, tierNames[i]),
				Description: fmt.Sprintf("Atteindre %s %s validé(s)", plural(n, "contrat"), cat.Label),
				Category:    contracts.CategoryProduct,
				Condition:   contracts.ProductContracts{Category: cat.Label, Threshold: n},
				Tier:        i + 1,
			})
		}
	}
	return out
}

type oneOff struct {
	code, name, desc string
	cond             contracts.Condition
}

var performanceTable = []oneOff{
	{"PERF_COUP_CHAPEAU", "Coup du chapeau", "3 contrats validés le même jour",
		contracts.SignaturesPerDay{Threshold: 3, Scope: contracts.ScopeRecord}},
	{"PERF_QUINTE", "Quinté", "5 contrats validés le même jour",
		contracts.SignaturesPerDay{Threshold: 5, Scope: contracts.ScopeRecord}},
	{"PERF_SERIAL_SIGNATAIRE", "Serial signataire", "5 contrats validés la même semaine",
		contracts.SignaturesPerWeek{Threshold: 5, Scope: contracts.ScopeRecord}},
	{"PERF_SEMAINE_DE_FEU", "Semaine de feu", "10 contrats validés la même semaine",
		contracts.SignaturesPerWeek{Threshold: 10, Scope: contracts.ScopeRecord}},
	{"PERF_ORATEUR", "Orateur", "20 argumentations en une journée",
		contracts.ArgumentsPerDay{Threshold: 20, Scope: contracts.ScopeRecord}},
	{"PERF_MARATHONIEN", "Marathonien", "100 portes prospectées en une journée",
		contracts.VisitsPerDay{Threshold: 100, Scope: contracts.ScopeRecord}},
	{"PERF_ARPENTEUR", "Arpenteur", "50 portes différentes en une journée",
		contracts.DoorsPerDay{Threshold: 50, Scope: contracts.ScopeRecord}},
	{"PERF_CLOSER", "Closer", "30% de closing sur le mois",
		contracts.ClosingRate{Threshold: 30, Scope: contracts.ScopeMonth}},
	{"PERF_CLOSER_ELITE", "Closer d'élite", "50% de closing sur le mois",
		contracts.ClosingRate{Threshold: 50, Scope: contracts.ScopeMonth}},
	{"PERF_RETOUR_GAGNANT", "Retour gagnant", "3 portes absentes converties ce mois",
		contracts.RevisitConversions{Threshold: 3, Scope: contracts.ScopeMonth}},
	{"PERF_REPASSEUR", "Repasseur", "10 signatures obtenues en repassage",
		contracts.RevisitSignatures{Threshold: 10, Scope: contracts.ScopeRecord}},
	{"PERF_PROGRESSION_CONSTANTE", "Progression constante", "Chaque semaine du mois meilleure que la précédente",
		contracts.WeeklyProgression{Scope: contracts.ScopeMonth, Type: "constant"}},
	{"PERF_ENVOL", "Envol", "+50% de contrats par rapport au mois actif précédent",
		contracts.MonthlyProgression{Threshold: 50, Scope: contracts.ScopeMonth}},
	{"PERF_COLLECTIONNEUR", "Collectionneur", "5 badges différents",
		contracts.DistinctBadges{Threshold: 5, Scope: contracts.ScopeRecord}},
	{"PERF_GRAND_COLLECTIONNEUR", "Grand collectionneur", "15 badges différents",
		contracts.DistinctBadges{Threshold: 15, Scope: contracts.ScopeRecord}},
	{"PERF_TOP1_MOIS", "Numéro un du mois", "1er du classement mensuel des contrats",
		contracts.ContractsRanking{Rank: 1, Scope: contracts.ScopeMonth}},
	{"PERF_TOP2_MOIS", "Dauphin du mois", "2e du classement mensuel des contrats",
		contracts.ContractsRanking{Rank: 2, Scope: contracts.ScopeMonth}},
	{"PERF_TOP3_MOIS", "Podium du mois", "3e du classement mensuel des contrats",
		contracts.ContractsRanking{Rank: 3, Scope: contracts.ScopeMonth}},
	{"PERF_MEILLEUR_TAUX_SEMAINE", "Meilleur taux de la semaine", "Meilleur ratio contrats / argumentations de la semaine",
		contracts.ConversionRanking{Rank: 1, Scope: contracts.ScopeWeek}},
	{"PERF_TRANSFORMATEUR_MOIS", "Transformateur du mois", "Meilleur ratio contrats / portes du mois",
		contracts.TransformationRanking{Rank: 1, Scope: contracts.ScopeMonth}},
}

func performanceBadges() []contracts.BadgeDefinition {
	out := make([]contracts.BadgeDefinition, 0, len(performanceTable))
	for _, p := range performanceTable {
		out = append(out, contracts.BadgeDefinition{
			Code:        p.code,
			Name:        p.name,
			Description: p.desc,
			Category:    contracts.CategoryPerformance,
			Condition:   p.cond,
		})
	}
	return out
}

func trophyBadges() []contracts.BadgeDefinition {
	out := []contracts.BadgeDefinition{{
		Code:        "TROPHEE_MEILLEUR_PRODUCTEUR",
		Name:        "Meilleur producteur du trimestre",
		Description: "Le plus de contrats validés sur le trimestre",
		Category:    contracts.CategoryTrophy,
		Condition:   contracts.ContractsRanking{Rank: 1, Scope: contracts.ScopeQuarter},
	}}
	for _, group := range TrophyGroups {
		out = append(out, contracts.BadgeDefinition{
			Code:        "TROPHEE_" + codeSegment(group),
			Name:        fmt.Sprintf("Trophée %s", group),
			Description: fmt.Sprintf("Le plus de contrats %s validés sur le trimestre", group),
			Category:    contracts.CategoryTrophy,
			Condition:   contracts.ProductRanking{Category: group, Rank: 1, Scope: contracts.ScopeQuarter},
		})
	}
	return out
}

// Catalog generates the full versioned catalog. Every entry is active.
func Catalog() []contracts.BadgeDefinition {
	var all []contracts.BadgeDefinition
	all = append(all, progressionBadges()...)
	all = append(all, productBadges()...)
	all = append(all, performanceBadges()...)
	all = append(all, trophyBadges()...)

	for i := range all {
		all[i].Active = true
		all[i].CatalogVersion = CatalogVersion
	}
	return all
}

// PeriodKeyFor picks the period key an award of b is filed under.
func PeriodKeyFor(b contracts.BadgeDefinition, keys period.Keys) string {
	switch b.Category {
	case contracts.CategoryProgression, contracts.CategoryProduct:
		return period.Lifetime
	case contracts.CategoryTrophy:
		return keys.Quarter
	}

	if b.Condition == nil {
		return keys.Day
	}
	switch b.Condition.Window() {
	case contracts.ScopeMonth:
		return keys.Month
	case contracts.ScopeWeek:
		return keys.Week
	case contracts.ScopeRecord:
		return period.Lifetime
	}
	return keys.Day
}
