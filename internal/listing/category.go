package listing

import (
	"cmp"
	"slices"
	"strings"

	"CatalogDash/internal/catalogapi"
)

type CategoryStat struct {
	catalogapi.Category
	ProductCount int `json:"product_count"`
}

// Overview reports both the visible (search-filtered) category count and
// the overall one.
type Overview struct {
	Categories        []CategoryStat `json:"categories"`
	VisibleCategories int            `json:"visible_categories"`
	TotalCategories   int            `json:"total_categories"`
	TotalProducts     int            `json:"total_products"`
	Top               *CategoryStat  `json:"top,omitempty"`
}

// CategoryOverview counts products per category, keeps categories whose
// name contains search (case-insensitive) and orders them by count, most
// populated first. Equal counts keep the remote order.
func CategoryOverview(categories []catalogapi.Category, products []catalogapi.Product, search string) Overview {
	counts := make(map[int]int, len(categories))
	for _, p := range products {
		if p.Category.ID == 0 {
			continue
		}
		counts[p.Category.ID]++
	}

	needle := strings.ToLower(strings.TrimSpace(search))
	stats := make([]CategoryStat, 0, len(categories))
	for _, c := range categories {
		if needle != "" && !strings.Contains(strings.ToLower(c.Name), needle) {
			continue
		}
		stats = append(stats, CategoryStat{Category: c, ProductCount: counts[c.ID]})
	}
	slices.SortStableFunc(stats, func(a, b CategoryStat) int {
		return cmp.Compare(b.ProductCount, a.ProductCount)
	})

	ov := Overview{
		Categories:        stats,
		VisibleCategories: len(stats),
		TotalCategories:   len(categories),
		TotalProducts:     len(products),
	}
	if len(stats) > 0 {
		top := stats[0]
		ov.Top = &top
	}
	return ov
}
