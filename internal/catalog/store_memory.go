package catalog

import (
	"context"
	"slices"
	"strings"
	"sync"
)

type MemStore struct {
	mu         sync.RWMutex
	products   []Product
	categories []Category
}

// NewMemStore starts from the seed catalog.
func NewMemStore() *MemStore {
	return &MemStore{
		products:   slices.Clone(SeedProducts),
		categories: slices.Clone(SeedCategories),
	}
}

func (s *MemStore) Ping(context.Context) error { return nil }

func (s *MemStore) ListProducts(_ context.Context, f Filter) ([]Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	title := strings.ToLower(strings.TrimSpace(f.Title))
	out := make([]Product, 0, len(s.products))
	for _, p := range s.products {
		if title != "" && !strings.Contains(strings.ToLower(p.Title), title) {
			continue
		}
		if f.CategoryID > 0 && p.Category.ID != f.CategoryID {
			continue
		}
		out = append(out, p)
	}
	return out, nil
}

func (s *MemStore) GetProduct(_ context.Context, id int) (Product, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, p := range s.products {
		if p.ID == id {
			return p, true, nil
		}
	}
	return Product{}, false, nil
}

func (s *MemStore) ListCategories(context.Context) ([]Category, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.categories), nil
}
