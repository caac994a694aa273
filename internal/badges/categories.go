package badges

import (
	"github.com/HatimBenzahra/rework-sub001/internal/contracts"
	"github.com/HatimBenzahra/rework-sub001/pkg/textnorm"
)

// ProductCategory maps a catalog label to the internal product keys it counts.
type ProductCategory struct {
	Label       string
	ProductKeys []string
}

// ProductCategories is the fixed category table used by PRODUIT badges.
var ProductCategories = []ProductCategory{
	{Label: "Mobile", ProductKeys: []string{contracts.ProductMobile}},
	{Label: "Fibre", ProductKeys: []string{contracts.ProductFibre}},
	{Label: "Télécom", ProductKeys: []string{contracts.ProductMobile, contracts.ProductFibre}},
	{Label: "Énergie", ProductKeys: []string{contracts.ProductElectricity, contracts.ProductGas}},
	{Label: "Assurance", ProductKeys: []string{contracts.ProductInsurance}},
	{Label: "Sécurité", ProductKeys: []string{contracts.ProductAlarm}},
	{Label: "Divertissement", ProductKeys: []string{contracts.ProductTV}},
}

// TrophyGroups are the categories that carry a quarterly trophy.
var TrophyGroups = []string{"Télécom", "Énergie", "Assurance", "Sécurité"}

var categoryIndex = func() map[string][]string {
	idx := make(map[string][]string, len(ProductCategories))
	for _, c := range ProductCategories {
		idx[textnorm.Key(c.Label)] = c.ProductKeys
	}
	return idx
}()

// ProductKeys resolves a category label, ignoring case and accents.
func ProductKeys(label string) ([]string, bool) {
	keys, ok := categoryIndex[textnorm.Key(label)]
	return keys, ok
}

// CountInCategory sums per-product counts over the category's keys.
// Unknown categories count zero.
func CountInCategory(byProduct map[string]int, label string) int {
	keys, ok := ProductKeys(label)
	if !ok {
		return 0
	}
	total := 0
	for _, k := range keys {
		total += byProduct[k]
	}
	return total
}
