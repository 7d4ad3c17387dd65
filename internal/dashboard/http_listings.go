package dashboard

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"CatalogDash/internal/listing"
	"CatalogDash/pkg/kit"
)

type listingReq struct {
	Query      string `json:"query" validate:"max=200"`
	CategoryID int    `json:"category_id" validate:"gte=0"`
	Sort       string `json:"sort" validate:"omitempty,oneof=latest name-asc price-asc price-desc nameAsc priceAsc priceDesc"`
	Page       int    `json:"page" validate:"gte=0"`
}

// listingPatch only touches the fields present in the body.
type listingPatch struct {
	Query      *string `json:"query" validate:"omitnil,max=200"`
	CategoryID *int    `json:"category_id" validate:"omitnil,gte=0"`
	Sort       *string `json:"sort" validate:"omitnil,oneof=latest name-asc price-asc price-desc nameAsc priceAsc priceDesc"`
	Page       *int    `json:"page" validate:"omitnil,gte=1"`
}

type listingResp struct {
	ID string `json:"id"`
	listing.Snapshot
}

func (s *Server) handleListingCreate(w http.ResponseWriter, r *http.Request) {
	var req listingReq
	if r.ContentLength != 0 {
		if err := kit.DecodeJSON(w, r, &req); err != nil {
			kit.WriteError(w, r, http.StatusBadRequest, "bad json", map[string]any{"cause": err.Error()})
			return
		}
	}
	if err := validate.Struct(req); err != nil {
		kit.WriteError(w, r, http.StatusBadRequest, "invalid listing", map[string]any{"cause": err.Error()})
		return
	}

	owner := sessionFrom(r.Context()).ID()
	id, l := s.Listings.Open(owner, listing.Params{
		Query:      req.Query,
		CategoryID: req.CategoryID,
		Sort:       listing.SortKey(req.Sort),
		Page:       req.Page,
		PageSize:   s.PageSize,
	})

	w.Header().Set("Location", "/api/listings/"+id)
	kit.WriteJSON(w, http.StatusCreated, listingResp{ID: id, Snapshot: l.Snapshot()})
}

func (s *Server) handleListingGet(w http.ResponseWriter, r *http.Request) {
	id, l, ok := s.lookupListing(w, r)
	if !ok {
		return
	}
	kit.WriteJSON(w, http.StatusOK, listingResp{ID: id, Snapshot: l.Snapshot()})
}

func (s *Server) handleListingUpdate(w http.ResponseWriter, r *http.Request) {
	id, l, ok := s.lookupListing(w, r)
	if !ok {
		return
	}

	var req listingPatch
	if err := kit.DecodeJSON(w, r, &req); err != nil {
		kit.WriteError(w, r, http.StatusBadRequest, "bad json", map[string]any{"cause": err.Error()})
		return
	}
	if err := validate.Struct(req); err != nil {
		kit.WriteError(w, r, http.StatusBadRequest, "invalid listing", map[string]any{"cause": err.Error()})
		return
	}

	// query and category reset the page, so an explicit page goes last
	var errs []error
	if req.Query != nil {
		errs = append(errs, l.SetQuery(*req.Query))
	}
	if req.CategoryID != nil {
		errs = append(errs, l.SetCategory(*req.CategoryID))
	}
	if req.Sort != nil {
		errs = append(errs, l.SetSort(listing.SortKey(*req.Sort)))
	}
	if req.Page != nil {
		errs = append(errs, l.SetPage(*req.Page))
	}
	if err := errors.Join(errs...); err != nil {
		kit.WriteError(w, r, http.StatusNotFound, "listing not found", map[string]any{"id": id})
		return
	}

	kit.WriteJSON(w, http.StatusOK, listingResp{ID: id, Snapshot: l.Snapshot()})
}

func (s *Server) handleListingRetry(w http.ResponseWriter, r *http.Request) {
	id, l, ok := s.lookupListing(w, r)
	if !ok {
		return
	}
	if err := l.Retry(); err != nil {
		kit.WriteError(w, r, http.StatusNotFound, "listing not found", map[string]any{"id": id})
		return
	}
	kit.WriteJSON(w, http.StatusAccepted, listingResp{ID: id, Snapshot: l.Snapshot()})
}

func (s *Server) handleListingDelete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	owner := sessionFrom(r.Context()).ID()

	if err := s.Listings.Close(owner, id); err != nil {
		kit.WriteError(w, r, http.StatusNotFound, "listing not found", map[string]any{"id": id})
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) lookupListing(w http.ResponseWriter, r *http.Request) (string, *listing.Session, bool) {
	id := chi.URLParam(r, "id")
	owner := sessionFrom(r.Context()).ID()

	l, err := s.Listings.Get(owner, id)
	if err != nil {
		kit.WriteError(w, r, http.StatusNotFound, "listing not found", map[string]any{"id": id})
		return "", nil, false
	}
	return id, l, true
}
