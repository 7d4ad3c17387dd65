package gateway_test

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"go.uber.org/zap"

	"CatalogDash/internal/auth"
	"CatalogDash/internal/catalog"
	"CatalogDash/internal/catalogapi"
	"CatalogDash/internal/dashboard"
	"CatalogDash/internal/gateway"
	"CatalogDash/internal/listing"
	"CatalogDash/internal/selection"
	"CatalogDash/internal/session"
)

func newAuthTS(t *testing.T, jwtSecret string) *httptest.Server {
	t.Helper()

	s := &auth.Server{
		Log:   zap.NewNop(),
		Store: auth.NewMemStore(),
		JWT:   auth.NewTokenMaker(jwtSecret),
	}

	h := auth.NewHandler(s, auth.HTTPDeps{
		Log:     zap.NewNop(),
		Service: "auth",
	})

	return httptest.NewServer(h)
}

func newCatalogTS(t *testing.T) *httptest.Server {
	t.Helper()

	s := &catalog.Server{Store: catalog.NewMemStore()}

	h := catalog.NewHandler(s, catalog.HTTPDeps{
		Log:     zap.NewNop(),
		Service: "catalog",
	})

	return httptest.NewServer(h)
}

func newGatewayTS(t *testing.T, authURL, catalogURL string) *httptest.Server {
	t.Helper()

	h, err := gateway.NewHandler(
		gateway.Deps{
			AuthURL:    authURL,
			CatalogURL: catalogURL,
		},
		gateway.HTTPDeps{
			Log:     zap.NewNop(),
			Service: "gateway",
		},
	)
	if err != nil {
		t.Fatalf("gateway.NewHandler: %v", err)
	}

	return httptest.NewServer(h)
}

// newStack starts auth, catalog and the gateway in front of them.
func newStack(t *testing.T) string {
	t.Helper()

	authTS := newAuthTS(t, "test-secret")
	t.Cleanup(authTS.Close)

	catalogTS := newCatalogTS(t)
	t.Cleanup(catalogTS.Close)

	gwTS := newGatewayTS(t, authTS.URL, catalogTS.URL)
	t.Cleanup(gwTS.Close)

	return gwTS.URL
}

func newDashboardTS(t *testing.T, storeURL string) *httptest.Server {
	t.Helper()

	cfg := catalogapi.DefaultConfig(storeURL)
	cfg.RetryWaitMin = time.Millisecond
	cfg.RetryWaitMax = 5 * time.Millisecond
	client := catalogapi.New(cfg, zap.NewNop(), nil)

	listings := listing.NewManager(client, listing.Options{Debounce: 5 * time.Millisecond}, time.Minute)
	t.Cleanup(listings.Stop)

	s := &dashboard.Server{
		Log:        zap.NewNop(),
		Catalog:    client,
		Selections: selection.NewStore(selection.NewMemStorage(), nil),
		Sessions:   session.NewManager(nil, listing.UXDelay{}, 0),
		Listings:   listings,
		PageSize:   listing.DefaultPageSize,
	}

	ts := httptest.NewServer(dashboard.NewHandler(s, dashboard.HTTPDeps{Service: "dashboard"}))
	t.Cleanup(ts.Close)
	return ts
}

func doJSON(t *testing.T, c *http.Client, method, url string, body any, headers map[string]string) (*http.Response, []byte) {
	t.Helper()

	var r io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal: %v", err)
		}
		r = bytes.NewReader(b)
	}

	req, err := http.NewRequest(method, url, r)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := c.Do(req)
	if err != nil {
		t.Fatalf("do: %v", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	return resp, raw
}

func bearer(tok string) map[string]string {
	return map[string]string{"Authorization": "Bearer " + tok}
}

func TestGateway_StoreAPI_HappyPath(t *testing.T) {
	gw := newStack(t)
	c := &http.Client{}

	{
		resp, raw := doJSON(t, c, http.MethodPost, gw+"/users/", map[string]any{
			"name":     "User",
			"email":    "user@example.com",
			"password": "password123",
			"avatar":   dashboard.DefaultAvatar,
		}, nil)
		if resp.StatusCode != http.StatusCreated {
			t.Fatalf("register status=%d body=%s", resp.StatusCode, string(raw))
		}
	}

	var accessToken string
	{
		resp, raw := doJSON(t, c, http.MethodPost, gw+"/auth/login", map[string]any{
			"email":    "user@example.com",
			"password": "password123",
		}, nil)
		if resp.StatusCode != http.StatusCreated {
			t.Fatalf("login status=%d body=%s", resp.StatusCode, string(raw))
		}

		var lr struct {
			AccessToken string `json:"access_token"`
		}
		if err := json.Unmarshal(raw, &lr); err != nil {
			t.Fatalf("decode login: %v body=%s", err, string(raw))
		}
		if lr.AccessToken == "" {
			t.Fatalf("empty access_token")
		}
		accessToken = lr.AccessToken
	}

	{
		resp, raw := doJSON(t, c, http.MethodGet, gw+"/auth/profile", nil, bearer(accessToken))
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("profile status=%d body=%s", resp.StatusCode, string(raw))
		}
	}

	{
		resp, raw := doJSON(t, c, http.MethodGet, gw+"/products?title=classic&categoryId=1", nil, nil)
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("products status=%d body=%s", resp.StatusCode, string(raw))
		}
		var ps []catalogapi.Product
		if err := json.Unmarshal(raw, &ps); err != nil {
			t.Fatalf("decode products: %v", err)
		}
		if len(ps) != 3 {
			t.Fatalf("products=%d want=3", len(ps))
		}
	}

	{
		resp, raw := doJSON(t, c, http.MethodGet, gw+"/categories", nil, nil)
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("categories status=%d body=%s", resp.StatusCode, string(raw))
		}
	}

	{
		resp, _ := doJSON(t, c, http.MethodGet, gw+"/readyz", nil, nil)
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("readyz status=%d", resp.StatusCode)
		}
	}
}

func TestGateway_UpstreamDown(t *testing.T) {
	authTS := newAuthTS(t, "test-secret")
	t.Cleanup(authTS.Close)

	catalogTS := newCatalogTS(t)
	catalogURL := catalogTS.URL
	catalogTS.Close()

	gwTS := newGatewayTS(t, authTS.URL, catalogURL)
	t.Cleanup(gwTS.Close)

	c := &http.Client{}

	resp, raw := doJSON(t, c, http.MethodGet, gwTS.URL+"/products", nil, nil)
	if resp.StatusCode != http.StatusBadGateway {
		t.Fatalf("products status=%d body=%s", resp.StatusCode, string(raw))
	}

	resp, raw = doJSON(t, c, http.MethodGet, gwTS.URL+"/readyz", nil, nil)
	if resp.StatusCode != http.StatusServiceUnavailable {
		t.Fatalf("readyz status=%d body=%s", resp.StatusCode, string(raw))
	}
}

func TestDashboard_EndToEnd(t *testing.T) {
	dash := newDashboardTS(t, newStack(t)).URL
	c := &http.Client{}

	{
		resp, raw := doJSON(t, c, http.MethodPost, dash+"/api/auth/register", map[string]any{
			"name": "Ann", "email": "ann@example.com", "password": "secret1",
		}, nil)
		if resp.StatusCode != http.StatusCreated {
			t.Fatalf("register status=%d body=%s", resp.StatusCode, string(raw))
		}
	}

	{
		resp, raw := doJSON(t, c, http.MethodPost, dash+"/api/auth/login", map[string]any{
			"email": "ann@example.com", "password": "bad",
		}, nil)
		if resp.StatusCode != http.StatusUnauthorized {
			t.Fatalf("bad login status=%d body=%s", resp.StatusCode, string(raw))
		}
	}

	var sid string
	{
		resp, raw := doJSON(t, c, http.MethodPost, dash+"/api/auth/login", map[string]any{
			"email": "ann@example.com", "password": "secret1",
		}, nil)
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("login status=%d body=%s", resp.StatusCode, string(raw))
		}
		var lr struct {
			SessionID string `json:"session_id"`
			Area      string `json:"area"`
		}
		if err := json.Unmarshal(raw, &lr); err != nil {
			t.Fatalf("decode login: %v", err)
		}
		if lr.Area != "dashboard" || lr.SessionID == "" {
			t.Fatalf("login=%+v", lr)
		}
		sid = lr.SessionID
	}

	{
		resp, raw := doJSON(t, c, http.MethodGet, dash+"/api/products?sort=price-desc&categoryId=4", nil, bearer(sid))
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("products status=%d body=%s", resp.StatusCode, string(raw))
		}
		var v listing.View
		if err := json.Unmarshal(raw, &v); err != nil {
			t.Fatalf("decode view: %v", err)
		}
		if v.Page.Total != 4 {
			t.Fatalf("total=%d want=4", v.Page.Total)
		}
		for i := 1; i < len(v.Page.Items); i++ {
			if v.Page.Items[i-1].Price < v.Page.Items[i].Price {
				t.Fatalf("not sorted by price desc: %+v", v.Page.Items)
			}
		}
	}

	{
		resp, raw := doJSON(t, c, http.MethodPost, dash+"/api/selections/liked/11/toggle", nil, bearer(sid))
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("toggle status=%d body=%s", resp.StatusCode, string(raw))
		}

		resp, raw = doJSON(t, c, http.MethodGet, dash+"/api/products/11", nil, bearer(sid))
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("product status=%d body=%s", resp.StatusCode, string(raw))
		}
		var p struct {
			ID    int  `json:"id"`
			Liked bool `json:"liked"`
		}
		if err := json.Unmarshal(raw, &p); err != nil {
			t.Fatalf("decode product: %v", err)
		}
		if p.ID != 11 || !p.Liked {
			t.Fatalf("product=%+v", p)
		}
	}

	{
		resp, raw := doJSON(t, c, http.MethodGet, dash+"/api/products/999", nil, bearer(sid))
		if resp.StatusCode != http.StatusNotFound {
			t.Fatalf("missing product status=%d body=%s", resp.StatusCode, string(raw))
		}
	}

	{
		resp, raw := doJSON(t, c, http.MethodGet, dash+"/api/categories", nil, bearer(sid))
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("categories status=%d body=%s", resp.StatusCode, string(raw))
		}
		var ov listing.Overview
		if err := json.Unmarshal(raw, &ov); err != nil {
			t.Fatalf("decode overview: %v", err)
		}
		if ov.Top == nil || ov.Top.Name != "Electronics" {
			t.Fatalf("top=%+v", ov.Top)
		}
	}

	{
		resp, raw := doJSON(t, c, http.MethodPost, dash+"/api/auth/logout", nil, bearer(sid))
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("logout status=%d body=%s", resp.StatusCode, string(raw))
		}
		resp, _ = doJSON(t, c, http.MethodGet, dash+"/api/selections", nil, bearer(sid))
		if resp.StatusCode != http.StatusUnauthorized {
			t.Fatalf("after logout status=%d", resp.StatusCode)
		}
	}
}
