// Package listing derives the visible product list from a remote result
// set: sorting, pagination, debounced search and stale-response protection.
package listing

import (
	"cmp"
	"slices"

	"CatalogDash/internal/catalogapi"
)

type SortKey string

const (
	SortLatest    SortKey = "latest"
	SortNameAsc   SortKey = "name-asc"
	SortPriceAsc  SortKey = "price-asc"
	SortPriceDesc SortKey = "price-desc"
)

// ParseSortKey accepts both the kebab-case keys and the camelCase names the
// dashboard front end sends. Anything unrecognised sorts as latest.
func ParseSortKey(s string) SortKey {
	switch s {
	case "name-asc", "nameAsc":
		return SortNameAsc
	case "price-asc", "priceAsc":
		return SortPriceAsc
	case "price-desc", "priceDesc":
		return SortPriceDesc
	default:
		return SortLatest
	}
}

// Sort returns a sorted copy; the input is left untouched.
func Sort(products []catalogapi.Product, key SortKey) []catalogapi.Product {
	out := slices.Clone(products)
	if out == nil {
		out = []catalogapi.Product{}
	}

	switch key {
	case SortNameAsc:
		slices.SortStableFunc(out, func(a, b catalogapi.Product) int {
			return cmp.Or(cmp.Compare(a.Title, b.Title), cmp.Compare(a.ID, b.ID))
		})
	case SortPriceAsc:
		slices.SortStableFunc(out, func(a, b catalogapi.Product) int {
			return cmp.Compare(a.Price, b.Price)
		})
	case SortPriceDesc:
		slices.SortStableFunc(out, func(a, b catalogapi.Product) int {
			return cmp.Compare(b.Price, a.Price)
		})
	default:
		slices.SortStableFunc(out, func(a, b catalogapi.Product) int {
			return cmp.Compare(b.ID, a.ID)
		})
	}
	return out
}
