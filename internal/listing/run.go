package listing

import (
	"context"
	"fmt"
	"strings"

	"CatalogDash/internal/catalogapi"
)

// View is the result of a single pipeline pass.
type View struct {
	Query      string                   `json:"query"`
	CategoryID int                      `json:"category_id"`
	Sort       SortKey                  `json:"sort"`
	Page       Page[catalogapi.Product] `json:"page"`
}

// Run fetches, sorts and slices once. It has no debounce and no UX delay;
// stale-response protection is the caller's concern.
func Run(ctx context.Context, f Fetcher, p Params) (View, error) {
	q := catalogapi.ProductQuery{
		Title:      strings.TrimSpace(p.Query),
		CategoryID: max(p.CategoryID, 0),
	}
	products, err := f.ListProducts(ctx, q)
	if err != nil {
		return View{}, fmt.Errorf("list products: %w", err)
	}

	key := ParseSortKey(string(p.Sort))
	return View{
		Query:      q.Title,
		CategoryID: q.CategoryID,
		Sort:       key,
		Page:       Paginate(Sort(products, key), p.Page, p.PageSize),
	}, nil
}
