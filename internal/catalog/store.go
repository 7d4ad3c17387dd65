// Package catalog serves the products and categories half of the store API.
package catalog

import "context"

type Category struct {
	ID    int    `json:"id"`
	Name  string `json:"name"`
	Image string `json:"image"`
}

type Product struct {
	ID          int      `json:"id"`
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Price       float64  `json:"price"`
	Images      []string `json:"images"`
	Category    Category `json:"category"`
}

// Filter narrows a product listing. Zero values match everything; Title
// matches as a case-insensitive substring.
type Filter struct {
	Title      string
	CategoryID int
}

type Store interface {
	Ping(ctx context.Context) error
	ListProducts(ctx context.Context, f Filter) ([]Product, error)
	GetProduct(ctx context.Context, id int) (Product, bool, error)
	ListCategories(ctx context.Context) ([]Category, error)
}
