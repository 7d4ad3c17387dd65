package dashboard

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"golang.org/x/sync/errgroup"

	"CatalogDash/internal/catalogapi"
	"CatalogDash/internal/listing"
	"CatalogDash/internal/selection"
	"CatalogDash/pkg/kit"
)

func (s *Server) handleProducts(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	category, ok := categoryParam(q.Get("categoryId"))
	if !ok {
		kit.WriteError(w, r, http.StatusBadRequest, "invalid categoryId", map[string]any{"categoryId": q.Get("categoryId")})
		return
	}

	view, err := listing.Run(r.Context(), s.Catalog, listing.Params{
		Query:      q.Get("search"),
		CategoryID: category,
		Sort:       listing.SortKey(q.Get("sort")),
		Page:       pageParam(q.Get("page")),
		PageSize:   s.PageSize,
	})
	if err != nil {
		s.writeUpstreamError(w, r, "list products", err)
		return
	}
	kit.WriteJSON(w, http.StatusOK, view)
}

type productResp struct {
	catalogapi.Product
	Liked  bool `json:"liked"`
	InCart bool `json:"in_cart"`
}

func (s *Server) handleProduct(w http.ResponseWriter, r *http.Request) {
	raw := chi.URLParam(r, "id")
	id, ok := positiveID(raw)
	if !ok {
		kit.WriteError(w, r, http.StatusNotFound, "not found", map[string]any{"id": raw})
		return
	}

	p, err := s.Catalog.GetProduct(r.Context(), id)
	if err != nil {
		s.writeUpstreamError(w, r, "get product", err)
		return
	}

	user := sessionFrom(r.Context()).User()
	kit.WriteJSON(w, http.StatusOK, productResp{
		Product: p,
		Liked:   s.Selections.IsMember(r.Context(), user, selection.Liked, p.ID),
		InCart:  s.Selections.IsMember(r.Context(), user, selection.Cart, p.ID),
	})
}

// handleCategories loads categories and the full product list side by side
// and reports per-category counts.
func (s *Server) handleCategories(w http.ResponseWriter, r *http.Request) {
	var (
		categories []catalogapi.Category
		products   []catalogapi.Product
	)

	g, ctx := errgroup.WithContext(r.Context())
	g.Go(func() error {
		var err error
		categories, err = s.Catalog.ListCategories(ctx)
		return err
	})
	g.Go(func() error {
		var err error
		products, err = s.Catalog.ListProducts(ctx, catalogapi.ProductQuery{})
		return err
	})
	if err := g.Wait(); err != nil {
		s.writeUpstreamError(w, r, "category overview", err)
		return
	}

	kit.WriteJSON(w, http.StatusOK, listing.CategoryOverview(categories, products, r.URL.Query().Get("search")))
}
