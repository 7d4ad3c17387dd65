//go:build integration

package integration

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"math/rand/v2"
	"net/http"
	"os"
	"testing"
	"time"
)

var (
	storeURL     = getenv("E2E_BASE_URL", "http://localhost:8080")
	dashboardURL = getenv("E2E_DASHBOARD_URL", "http://localhost:8090")
)

func TestSystem_E2E_Dashboard(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithTimeout(context.Background(), 120*time.Second)
	defer cancel()

	waitReady(t, ctx, storeURL+"/readyz")
	waitReady(t, ctx, dashboardURL+"/readyz")

	email := fmt.Sprintf("user_%d_%d@example.com", time.Now().Unix(), rand.IntN(100000))
	pass := "password123"

	doJSON(t, http.MethodPost, dashboardURL+"/api/auth/register", map[string]any{
		"name":     "E2E User",
		"email":    email,
		"password": pass,
	}, nil, 201)

	sid := login(t, email, pass)

	var view struct {
		Page struct {
			Items []struct {
				ID int `json:"id"`
			} `json:"items"`
			Total int `json:"total"`
		} `json:"page"`
	}
	doJSONAuth(t, http.MethodGet, dashboardURL+"/api/products?sort=price-asc", sid, nil, &view, 200)
	if view.Page.Total == 0 || len(view.Page.Items) == 0 {
		t.Fatalf("expected non-empty products")
	}
	pid := view.Page.Items[0].ID

	var toggled struct {
		Member bool  `json:"member"`
		IDs    []int `json:"ids"`
	}
	doJSONAuth(t, http.MethodPost, fmt.Sprintf("%s/api/selections/liked/%d/toggle", dashboardURL, pid), sid, nil, &toggled, 200)
	if !toggled.Member {
		t.Fatalf("product %d not liked after toggle", pid)
	}

	var product struct {
		ID    int  `json:"id"`
		Liked bool `json:"liked"`
	}
	doJSONAuth(t, http.MethodGet, fmt.Sprintf("%s/api/products/%d", dashboardURL, pid), sid, nil, &product, 200)
	if !product.Liked {
		t.Fatalf("product detail does not report liked")
	}

	if os.Getenv("E2E_RESTART_DASHBOARD") == "1" {
		restartContainer(t, ctx, "dashboard")
		waitReady(t, ctx, dashboardURL+"/readyz")

		// sessions are memory only, selections are durable
		doJSONAuth(t, http.MethodGet, dashboardURL+"/api/selections", sid, nil, nil, 401)
		sid = login(t, email, pass)
	}

	var counts map[string]int
	doJSONAuth(t, http.MethodGet, dashboardURL+"/api/selections", sid, nil, &counts, 200)
	if counts["liked"] != 1 {
		t.Fatalf("liked=%d want=1", counts["liked"])
	}

	doJSONAuth(t, http.MethodPost, dashboardURL+"/api/auth/logout", sid, nil, nil, 200)
}

func login(t *testing.T, email, pass string) string {
	t.Helper()

	var resp struct {
		SessionID string `json:"session_id"`
	}
	doJSON(t, http.MethodPost, dashboardURL+"/api/auth/login", map[string]any{
		"email":    email,
		"password": pass,
	}, &resp, 200)
	if resp.SessionID == "" {
		t.Fatalf("empty session_id")
	}
	return resp.SessionID
}

func waitReady(t *testing.T, ctx context.Context, url string) {
	t.Helper()
	client := &http.Client{Timeout: 2 * time.Second}

	deadline := time.Now().Add(60 * time.Second)
	for time.Now().Before(deadline) {
		req, _ := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		resp, err := client.Do(req)
		if err == nil && resp != nil && resp.StatusCode == 200 {
			_ = resp.Body.Close()
			return
		}
		if resp != nil {
			_ = resp.Body.Close()
		}
		time.Sleep(500 * time.Millisecond)
	}
	t.Fatalf("service not ready: %s", url)
}

func doJSON(t *testing.T, method, url string, body any, out any, want int) {
	t.Helper()
	doJSONAuth(t, method, url, "", body, out, want)
}

func doJSONAuth(t *testing.T, method, url, token string, body any, out any, want int) {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}

	req, err := http.NewRequest(method, url, &buf)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	client := &http.Client{Timeout: 10 * time.Second}
	resp, err := client.Do(req)
	if err != nil {
		t.Fatalf("do request: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != want {
		t.Fatalf("%s %s: status=%d want=%d", method, url, resp.StatusCode, want)
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			t.Fatalf("decode response: %v", err)
		}
	}
}

func getenv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}
