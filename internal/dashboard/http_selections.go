package dashboard

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"CatalogDash/internal/selection"
	"CatalogDash/pkg/kit"
)

type memberResp struct {
	ID     int  `json:"id"`
	Member bool `json:"member"`
}

type toggleResp struct {
	ID     int   `json:"id"`
	Member bool  `json:"member"`
	IDs    []int `json:"ids"`
}

func (s *Server) handleSelectionCounts(w http.ResponseWriter, r *http.Request) {
	user := sessionFrom(r.Context()).User()
	kit.WriteJSON(w, http.StatusOK, s.Selections.Counts(r.Context(), user))
}

func (s *Server) handleSelectionList(w http.ResponseWriter, r *http.Request) {
	kind, ok := kindParam(w, r)
	if !ok {
		return
	}
	user := sessionFrom(r.Context()).User()

	kit.WriteJSON(w, http.StatusOK, map[string]any{
		"kind": kind,
		"ids":  s.Selections.Get(r.Context(), user, kind).IDs(),
	})
}

func (s *Server) handleSelectionMember(w http.ResponseWriter, r *http.Request) {
	kind, id, ok := kindAndID(w, r)
	if !ok {
		return
	}
	user := sessionFrom(r.Context()).User()

	kit.WriteJSON(w, http.StatusOK, memberResp{
		ID:     id,
		Member: s.Selections.IsMember(r.Context(), user, kind, id),
	})
}

func (s *Server) handleSelectionToggle(w http.ResponseWriter, r *http.Request) {
	kind, id, ok := kindAndID(w, r)
	if !ok {
		return
	}
	user := sessionFrom(r.Context()).User()

	set, err := s.Selections.Toggle(r.Context(), user, kind, id)
	if err != nil {
		s.log().Error("toggle selection failed",
			zap.String("kind", string(kind)), zap.Int("id", id), zap.Error(err))
		kit.WriteError(w, r, http.StatusInternalServerError, "could not save selection", nil)
		return
	}

	kit.WriteJSON(w, http.StatusOK, toggleResp{
		ID:     id,
		Member: set.Contains(id),
		IDs:    set.IDs(),
	})
}

func kindParam(w http.ResponseWriter, r *http.Request) (selection.Kind, bool) {
	kind, err := selection.ParseKind(chi.URLParam(r, "kind"))
	if err != nil {
		kit.WriteError(w, r, http.StatusNotFound, "unknown selection", map[string]any{"kind": chi.URLParam(r, "kind")})
		return "", false
	}
	return kind, true
}

func kindAndID(w http.ResponseWriter, r *http.Request) (selection.Kind, int, bool) {
	kind, ok := kindParam(w, r)
	if !ok {
		return "", 0, false
	}
	id, ok := positiveID(chi.URLParam(r, "id"))
	if !ok {
		kit.WriteError(w, r, http.StatusBadRequest, "invalid id", map[string]any{"id": chi.URLParam(r, "id")})
		return "", 0, false
	}
	return kind, id, true
}
