// Package dashboard is the JSON surface a dashboard front end talks to. It
// proxies catalog reads, runs the listing pipeline and keeps each user's
// liked and cart selections.
package dashboard

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"CatalogDash/internal/catalogapi"
	"CatalogDash/internal/listing"
	"CatalogDash/internal/selection"
	"CatalogDash/internal/session"
	"CatalogDash/pkg/kit"
)

// Catalog is the remote store API as the dashboard uses it.
type Catalog interface {
	listing.Fetcher
	GetProduct(ctx context.Context, id int) (catalogapi.Product, error)
	ListCategories(ctx context.Context) ([]catalogapi.Category, error)
	Login(ctx context.Context, email, password string) (catalogapi.Tokens, error)
	Register(ctx context.Context, u catalogapi.NewUser) (catalogapi.User, error)
}

type Server struct {
	Log        *zap.Logger
	Catalog    Catalog
	Selections *selection.Store
	Sessions   *session.Manager
	Listings   *listing.Manager
	PageSize   int
}

var validate = validator.New(validator.WithRequiredStructEnabled())

func (s *Server) log() *zap.Logger { return kit.OrNop(s.Log) }

func (s *Server) routes(r chi.Router) {
	loginLimiter := kit.NewIPRateLimiter(loginLimitPerMin, limitWindow)
	registerLimiter := kit.NewIPRateLimiter(registerLimitPerMin, limitWindow)

	r.Get("/healthz", healthz)
	r.Get("/readyz", s.handleReady)

	r.Route("/api", func(api chi.Router) {
		api.With(loginLimiter.Middleware).Post("/auth/login", s.handleLogin)
		api.With(registerLimiter.Middleware).Post("/auth/register", s.handleRegister)
		api.Get("/session", s.handleSession)

		api.Group(func(p chi.Router) {
			p.Use(s.requireSession)

			p.Post("/auth/logout", s.handleLogout)

			p.Get("/products", s.handleProducts)
			p.Get("/products/{id}", s.handleProduct)
			p.Get("/categories", s.handleCategories)

			p.Post("/listings", s.handleListingCreate)
			p.Get("/listings/{id}", s.handleListingGet)
			p.Patch("/listings/{id}", s.handleListingUpdate)
			p.Post("/listings/{id}/retry", s.handleListingRetry)
			p.Delete("/listings/{id}", s.handleListingDelete)

			p.Get("/selections", s.handleSelectionCounts)
			p.Get("/selections/{kind}", s.handleSelectionList)
			p.Get("/selections/{kind}/{id}", s.handleSelectionMember)
			p.Post("/selections/{kind}/{id}/toggle", s.handleSelectionToggle)
		})
	})
}

func healthz(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 1*time.Second)
	defer cancel()

	if err := s.Selections.Ping(ctx); err != nil {
		s.log().Warn("readyz failed", zap.Error(err))
		kit.WriteError(w, r, http.StatusServiceUnavailable, "not ready", nil)
		return
	}
	w.WriteHeader(http.StatusOK)
}

type ctxKey struct{}

// requireSession admits requests whose bearer token names a session that
// still holds an access token.
func (s *Server) requireSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, ok := kit.BearerToken(r)
		if !ok {
			kit.WriteError(w, r, http.StatusUnauthorized, "missing session", nil)
			return
		}

		sess, err := s.Sessions.Get(id)
		if err != nil || sess.Area() != session.AreaDashboard {
			kit.WriteError(w, r, http.StatusUnauthorized, "invalid session", nil)
			return
		}

		ctx := context.WithValue(r.Context(), ctxKey{}, sess)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func sessionFrom(ctx context.Context) *session.Session {
	sess, _ := ctx.Value(ctxKey{}).(*session.Session)
	return sess
}

// writeUpstreamError maps a catalog client failure onto a response.
func (s *Server) writeUpstreamError(w http.ResponseWriter, r *http.Request, op string, err error) {
	switch {
	case errors.Is(err, catalogapi.ErrNotFound):
		kit.WriteError(w, r, http.StatusNotFound, "not found", nil)
	case errors.Is(err, catalogapi.ErrUnavailable):
		s.log().Warn(op+" failed", zap.Error(err))
		kit.WriteError(w, r, http.StatusServiceUnavailable, "catalog unavailable", nil)
	case errors.Is(err, context.Canceled):
		// client went away
	default:
		s.log().Error(op+" failed", zap.Error(err))
		kit.WriteError(w, r, http.StatusBadGateway, "upstream error", nil)
	}
}

// positiveID parses a path id. Anything that is not a positive integer is
// rejected.
func positiveID(raw string) (int, bool) {
	id, err := strconv.Atoi(raw)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

// categoryParam accepts a category id or "all".
func categoryParam(raw string) (int, bool) {
	if raw == "" || raw == "all" {
		return 0, true
	}
	return positiveID(raw)
}

func pageParam(raw string) int {
	n, err := strconv.Atoi(raw)
	if err != nil || n < 1 {
		return 1
	}
	return n
}
