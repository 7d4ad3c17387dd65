package auth

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

type testEnv struct {
	h   http.Handler
	jwt *TokenMaker
}

func newTestEnv(t *testing.T) testEnv {
	t.Helper()
	store := NewMemStore()
	store.cost = bcrypt.MinCost

	tm := NewTokenMaker("test-secret")
	return testEnv{
		h:   NewHandler(&Server{Store: store, JWT: tm}, HTTPDeps{Service: "auth"}),
		jwt: tm,
	}
}

func (e testEnv) send(t *testing.T, method, path, bearer string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}

	rec := httptest.NewRecorder()
	e.h.ServeHTTP(rec, req)
	return rec
}

var ann = map[string]string{
	"name":     "Ann",
	"email":    "Ann@Example.com",
	"password": "secret1",
	"avatar":   "https://example.com/a.png",
}

func TestRegister(t *testing.T) {
	e := newTestEnv(t)

	rec := e.send(t, http.MethodPost, "/users/", "", ann)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var u User
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &u))
	assert.Equal(t, 1, u.ID)
	assert.Equal(t, "ann@example.com", u.Email)
	assert.Equal(t, DefaultRole, u.Role)
	assert.NotContains(t, rec.Body.String(), "secret1")

	rec = e.send(t, http.MethodPost, "/users", "", ann)
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestRegisterValidationMessages(t *testing.T) {
	e := newTestEnv(t)

	rec := e.send(t, http.MethodPost, "/users", "", map[string]string{
		"name":     "",
		"email":    "not-an-email",
		"password": "a!",
		"avatar":   "nope",
	})
	require.Equal(t, http.StatusBadRequest, rec.Code)

	var body struct {
		StatusCode int      `json:"statusCode"`
		Message    []string `json:"message"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, http.StatusBadRequest, body.StatusCode)
	assert.Equal(t, []string{
		"name should not be empty",
		"email must be an email",
		"password must be longer than or equal to 4 characters",
		"avatar must be a URL address",
	}, body.Message)
}

func TestLoginAndProfile(t *testing.T) {
	e := newTestEnv(t)
	require.Equal(t, http.StatusCreated, e.send(t, http.MethodPost, "/users", "", ann).Code)

	rec := e.send(t, http.MethodPost, "/auth/login", "", map[string]string{
		"email": "ann@example.com", "password": "wrong",
	})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.JSONEq(t, `{"statusCode":401,"message":"Unauthorized","error":"Unauthorized"}`, rec.Body.String())

	rec = e.send(t, http.MethodPost, "/auth/login", "", map[string]string{
		"email": "ann@example.com", "password": "secret1",
	})
	require.Equal(t, http.StatusCreated, rec.Code)

	var pair Pair
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &pair))
	require.NotEmpty(t, pair.AccessToken)
	require.NotEmpty(t, pair.RefreshToken)

	rec = e.send(t, http.MethodGet, "/auth/profile", pair.AccessToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var u User
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &u))
	assert.Equal(t, "Ann", u.Name)

	rec = e.send(t, http.MethodGet, "/auth/profile", pair.RefreshToken, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code, "refresh token is not an access token")

	rec = e.send(t, http.MethodGet, "/auth/profile", "", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRefreshToken(t *testing.T) {
	e := newTestEnv(t)
	require.Equal(t, http.StatusCreated, e.send(t, http.MethodPost, "/users", "", ann).Code)

	rec := e.send(t, http.MethodPost, "/auth/login", "", map[string]string{
		"email": "ann@example.com", "password": "secret1",
	})
	var pair Pair
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &pair))

	rec = e.send(t, http.MethodPost, "/auth/refresh-token", "", map[string]string{"refreshToken": pair.RefreshToken})
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = e.send(t, http.MethodPost, "/auth/refresh-token", "", map[string]string{"refreshToken": pair.AccessToken})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestTokenMaker(t *testing.T) {
	tm := NewTokenMaker("s")
	u := User{ID: 7, Email: "a@b.c", Role: DefaultRole}

	tok, err := tm.New(u, kindAccess, time.Minute)
	require.NoError(t, err)

	c, err := tm.Parse(tok, kindAccess)
	require.NoError(t, err)
	id, err := c.UserID()
	require.NoError(t, err)
	assert.Equal(t, 7, id)
	assert.Equal(t, "a@b.c", c.Email)

	_, err = NewTokenMaker("other").Parse(tok, kindAccess)
	assert.ErrorIs(t, err, ErrInvalidToken)

	tm.now = func() time.Time { return time.Now().Add(2 * time.Minute) }
	_, err = tm.Parse(tok, kindAccess)
	assert.ErrorIs(t, err, ErrInvalidToken, "expired")
}

func TestLoginRateLimit(t *testing.T) {
	store := NewMemStore()
	h := NewHandler(&Server{Store: store, JWT: NewTokenMaker("s")}, HTTPDeps{LoginLimit: 2})
	e := testEnv{h: h}

	body := map[string]string{"email": "x@y.z", "password": "p"}
	assert.Equal(t, http.StatusUnauthorized, e.send(t, http.MethodPost, "/auth/login", "", body).Code)
	assert.Equal(t, http.StatusUnauthorized, e.send(t, http.MethodPost, "/auth/login", "", body).Code)
	assert.Equal(t, http.StatusTooManyRequests, e.send(t, http.MethodPost, "/auth/login", "", body).Code)
}
