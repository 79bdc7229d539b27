// Package catalog derives the storefront's product views from the commerce
// API's data.
package catalog

import (
	"cmp"
	"slices"
	"strconv"
	"strings"

	"storefront/internal/models"
)

type SortMode int

const (
	SortNone SortMode = iota
	SortPriceAsc
	SortPriceDesc
	SortRating
	SortTopSales
)

var sortLabels = []string{
	SortNone:      "Default",
	SortPriceAsc:  "Price: Low to High",
	SortPriceDesc: "Price: High to Low",
	SortRating:    "Rating",
	SortTopSales:  "Top Sales",
}

// ParseSortMode reads the sort query value; anything unknown means no sorting.
func ParseSortMode(s string) SortMode {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || n < int(SortNone) || n > int(SortTopSales) {
		return SortNone
	}
	return SortMode(n)
}

func (m SortMode) String() string {
	if m < SortNone || m > SortTopSales {
		return sortLabels[SortNone]
	}
	return sortLabels[m]
}

// SortModes lists every mode in menu order.
func SortModes() []SortMode {
	return []SortMode{SortNone, SortPriceAsc, SortPriceDesc, SortRating, SortTopSales}
}

// Params are the listing controls: search text, sort mode and the in-stock
// toggle.
type Params struct {
	Search  string
	Sort    SortMode
	InStock bool
}

// Derive applies search, then sort, then the in-stock filter to source and
// returns a new slice. source is never modified.
func Derive(source []models.Product, p Params) []models.Product {
	out := make([]models.Product, 0, len(source))

	term := strings.ToLower(p.Search)
	for _, product := range source {
		if term != "" && !strings.Contains(strings.ToLower(product.Name), term) {
			continue
		}
		out = append(out, product)
	}

	if less := comparator(p.Sort); less != nil {
		slices.SortStableFunc(out, less)
	}

	if p.InStock {
		out = slices.DeleteFunc(out, func(product models.Product) bool {
			return !product.Status
		})
	}

	return out
}

func comparator(m SortMode) func(a, b models.Product) int {
	switch m {
	case SortPriceAsc:
		return func(a, b models.Product) int { return cmp.Compare(a.Price, b.Price) }
	case SortPriceDesc:
		return func(a, b models.Product) int { return cmp.Compare(b.Price, a.Price) }
	case SortRating:
		return func(a, b models.Product) int { return cmp.Compare(b.AverageRating, a.AverageRating) }
	case SortTopSales:
		return func(a, b models.Product) int { return cmp.Compare(b.IndividualRating, a.IndividualRating) }
	default:
		return nil
	}
}
