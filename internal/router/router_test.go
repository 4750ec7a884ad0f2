package router

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"gamestore-api/internal/cache"
	"gamestore-api/internal/handler"
	"gamestore-api/internal/middleware"
	"gamestore-api/internal/model"
	"gamestore-api/internal/repository"
	"gamestore-api/internal/service"
	"gamestore-api/pkg/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

const loginKey = "test-login-key"

func newTestRouter(t *testing.T) http.Handler {
	t.Helper()

	store, err := repository.NewSQLiteStore(filepath.Join(t.TempDir(), "store.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	_, err = store.InsertGames(context.Background(), []model.Game{
		{Title: "Hades", Price: 24.99, Category: "Action"},
		{Title: "Hollow Knight", Price: 14.99, Category: "Metroidvania"},
		{Title: "Celeste", Price: 19.99, Category: "Platformer"},
	})
	require.NoError(t, err)

	c := cache.NewMemoryCache(time.Minute)
	t.Cleanup(func() { c.Close() })

	log := logger.Nop()
	sessions := service.NewSessionService(c, time.Hour, "")
	accounts := service.NewAccountService(store, bcrypt.MinCost, log)

	return New(Config{
		Handler:        handler.New(store, "gamestore-api", "test"),
		AuthHandler:    handler.NewAuthHandler(accounts, sessions, log),
		CatalogHandler: handler.NewCatalogHandler(service.NewCatalogService(store), log),
		CartHandler:    handler.NewCartHandler(service.NewCartService(store, log), log),
		AdminHandler:   handler.NewAdminHandler(store, sessions, "memory"),
		SessionMiddleware: middleware.NewSessionMiddleware(middleware.SessionConfig{
			Sessions:   sessions,
			CookieName: "sid",
			Log:        log,
		}),
		RequireIdentity: middleware.NewRequireIdentity(sessions),
		RequireLoginKey: middleware.NewRequireLoginKey(loginKey),
		Logger:          log,
	})
}

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// client carries the session token between requests like a browser cookie jar.
type client struct {
	t     *testing.T
	h     http.Handler
	token string
}

func newClient(t *testing.T, h http.Handler) *client {
	return &client{t: t, h: h}
}

func (c *client) do(method, path string, body interface{}) (int, envelope) {
	c.t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(c.t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if c.token != "" {
		req.Header.Set(middleware.SessionHeader, c.token)
	}

	rec := httptest.NewRecorder()
	c.h.ServeHTTP(rec, req)

	if token := rec.Header().Get(middleware.SessionHeader); token != "" {
		c.token = token
	}

	var env envelope
	if rec.Body.Len() > 0 && strings.HasPrefix(rec.Header().Get("Content-Type"), "application/json") {
		require.NoError(c.t, json.Unmarshal(rec.Body.Bytes(), &env))
	}
	return rec.Code, env
}

func (c *client) data(method, path string, body interface{}, wantStatus int, out interface{}) {
	c.t.Helper()
	status, env := c.do(method, path, body)
	require.Equal(c.t, wantStatus, status, "%s %s: %s %s", method, path, env.Error.Code, env.Error.Message)
	require.True(c.t, env.Success)
	if out != nil {
		require.NoError(c.t, json.Unmarshal(env.Data, out))
	}
}

func (c *client) fails(method, path string, body interface{}, wantStatus int, wantCode string) {
	c.t.Helper()
	status, env := c.do(method, path, body)
	assert.Equal(c.t, wantStatus, status, "%s %s", method, path)
	assert.False(c.t, env.Success)
	assert.Equal(c.t, wantCode, env.Error.Code, "%s %s: %s", method, path, env.Error.Message)
}

func (c *client) flash() string {
	c.t.Helper()
	var out struct {
		Message string `json:"message"`
	}
	c.data(http.MethodGet, "/api/v1/auth/flash", nil, http.StatusOK, &out)
	return out.Message
}

func register(c *client, username, role, studio string) {
	c.t.Helper()
	c.data(http.MethodPost, "/api/v1/auth/register", map[string]string{
		"username":    username,
		"password":    "hunter2",
		"email":       username + "@example.com",
		"role":        role,
		"studio_name": studio,
	}, http.StatusCreated, nil)
}

func login(c *client, username string) model.Identity {
	c.t.Helper()
	var id model.Identity
	c.data(http.MethodPost, "/api/v1/auth/login", map[string]string{
		"username": username,
		"password": "hunter2",
	}, http.StatusOK, &id)
	return id
}

func TestRegistrationFlow(t *testing.T) {
	c := newClient(t, newTestRouter(t))

	var id model.Identity
	c.data(http.MethodPost, "/api/v1/auth/register", map[string]string{
		"username": "alice",
		"password": "hunter2",
		"email":    "alice@example.com",
		"role":     "buyer",
	}, http.StatusCreated, &id)
	assert.Equal(t, "alice", id.Username)
	assert.Equal(t, model.RoleBuyer, id.Role)
	assert.Positive(t, id.ID)

	assert.Equal(t, handler.RegisteredMessage, c.flash())
	assert.Empty(t, c.flash())

	c.fails(http.MethodPost, "/api/v1/auth/register", map[string]string{
		"username": "alice", "password": "x", "email": "a@b.c", "role": "developer", "studio_name": "Studio",
	}, http.StatusConflict, "USERNAME_TAKEN")

	c.fails(http.MethodPost, "/api/v1/auth/register", map[string]string{
		"username": "bob", "password": "x", "email": "bob@example.com", "role": "developer",
	}, http.StatusBadRequest, "MISSING_STUDIO_NAME")

	c.fails(http.MethodPost, "/api/v1/auth/register", map[string]string{
		"username": "carol", "email": "carol@example.com", "role": "buyer",
	}, http.StatusBadRequest, "VALIDATION_ERROR")
}

func TestLoginLogout(t *testing.T) {
	c := newClient(t, newTestRouter(t))
	register(c, "alice", "buyer", "")
	c.flash()

	c.fails(http.MethodPost, "/api/v1/auth/login", map[string]string{
		"username": "alice", "password": "wrong",
	}, http.StatusUnauthorized, "INVALID_CREDENTIALS")

	before := c.token
	id := login(c, "alice")
	assert.Equal(t, "alice", id.Username)
	assert.NotEqual(t, before, c.token, "session token rotates on login")

	var me model.Identity
	c.data(http.MethodGet, "/api/v1/auth/me", nil, http.StatusOK, &me)
	assert.Equal(t, id, me)

	c.data(http.MethodPost, "/api/v1/auth/logout", nil, http.StatusOK, nil)
	assert.Equal(t, handler.LoggedOutMessage, c.flash())
	c.fails(http.MethodGet, "/api/v1/auth/me", nil, http.StatusUnauthorized, "UNAUTHORIZED")
}

func TestAnonymousIsBouncedWithFlash(t *testing.T) {
	c := newClient(t, newTestRouter(t))

	for _, path := range []string{"/api/v1/cart", "/api/v1/games", "/api/v1/library"} {
		c.fails(http.MethodGet, path, nil, http.StatusUnauthorized, "UNAUTHORIZED")
	}
	assert.Equal(t, middleware.LoginRequiredMessage, c.flash())
}

func TestCatalog(t *testing.T) {
	c := newClient(t, newTestRouter(t))
	register(c, "alice", "buyer", "")
	login(c, "alice")

	var list handler.GameListResponse
	c.data(http.MethodGet, "/api/v1/games", nil, http.StatusOK, &list)
	assert.Equal(t, 3, list.Count)

	c.data(http.MethodGet, "/api/v1/games?search=Ho", nil, http.StatusOK, &list)
	require.Len(t, list.Games, 1)
	assert.Equal(t, "Hollow Knight", list.Games[0].Title)
	assert.Equal(t, "Ho", list.Search)

	c.data(http.MethodGet, "/api/v1/games?category=Action", nil, http.StatusOK, &list)
	require.Len(t, list.Games, 1)
	assert.Equal(t, "Hades", list.Games[0].Title)
	assert.Equal(t, "Action", list.Category)

	c.data(http.MethodGet, "/api/v1/games?search=Ho&category=Action", nil, http.StatusOK, &list)
	assert.Empty(t, list.Games)

	var cats struct {
		Categories []string `json:"categories"`
	}
	c.data(http.MethodGet, "/api/v1/games/categories", nil, http.StatusOK, &cats)
	assert.Equal(t, []string{"Action", "Metroidvania", "Platformer"}, cats.Categories)

	var game model.Game
	c.data(http.MethodGet, "/api/v1/games/3", nil, http.StatusOK, &game)
	assert.Equal(t, "Celeste", game.Title)

	c.fails(http.MethodGet, "/api/v1/games/999", nil, http.StatusNotFound, "NOT_FOUND")
	c.fails(http.MethodGet, "/api/v1/games/abc", nil, http.StatusBadRequest, "BAD_REQUEST")
}

func TestCartCheckoutFlow(t *testing.T) {
	c := newClient(t, newTestRouter(t))
	register(c, "alice", "buyer", "")
	login(c, "alice")

	var cart handler.CartResponse
	c.data(http.MethodGet, "/api/v1/cart", nil, http.StatusOK, &cart)
	assert.Zero(t, cart.Count)

	c.data(http.MethodPost, "/api/v1/cart/items", map[string]int64{"game_id": 1}, http.StatusCreated, &cart)
	assert.Equal(t, 1, cart.Count)

	c.fails(http.MethodPost, "/api/v1/cart/items", map[string]int64{"game_id": 1}, http.StatusConflict, "ALREADY_IN_CART")
	c.fails(http.MethodPost, "/api/v1/cart/items", map[string]int64{"game_id": 999}, http.StatusNotFound, "NOT_FOUND")
	c.fails(http.MethodPost, "/api/v1/cart/items", map[string]int64{"game_id": 0}, http.StatusBadRequest, "VALIDATION_ERROR")

	c.data(http.MethodPost, "/api/v1/cart/items", map[string]int64{"game_id": 2}, http.StatusCreated, &cart)
	assert.Equal(t, 2, cart.Count)
	assert.InDelta(t, 39.98, cart.Total, 0.001)

	c.data(http.MethodDelete, "/api/v1/cart/items/2", nil, http.StatusOK, &cart)
	assert.Equal(t, 1, cart.Count)
	c.data(http.MethodDelete, "/api/v1/cart/items/2", nil, http.StatusOK, &cart)
	assert.Equal(t, 1, cart.Count)

	var result handler.CheckoutResponse
	c.data(http.MethodPost, "/api/v1/cart/checkout", nil, http.StatusOK, &result)
	assert.EqualValues(t, 1, result.Purchased)
	assert.EqualValues(t, 1, result.Cleared)

	c.data(http.MethodGet, "/api/v1/cart", nil, http.StatusOK, &cart)
	assert.Zero(t, cart.Count)

	var lib handler.LibraryResponse
	c.data(http.MethodGet, "/api/v1/library", nil, http.StatusOK, &lib)
	require.Equal(t, 1, lib.Count)
	assert.Equal(t, "Hades", lib.Games[0].Title)

	c.fails(http.MethodPost, "/api/v1/cart/items", map[string]int64{"game_id": 1}, http.StatusConflict, "ALREADY_OWNED")

	c.data(http.MethodPost, "/api/v1/cart/checkout", nil, http.StatusOK, &result)
	assert.Zero(t, result.Purchased)
	assert.Equal(t, "Your cart is empty", result.Message)

	c.data(http.MethodGet, "/api/v1/library", nil, http.StatusOK, &lib)
	assert.Equal(t, 1, lib.Count)
}

func TestDeveloperCannotUseCart(t *testing.T) {
	c := newClient(t, newTestRouter(t))
	register(c, "dev", "developer", "Supergiant")
	id := login(c, "dev")
	assert.Equal(t, model.RoleDeveloper, id.Role)

	c.data(http.MethodGet, "/api/v1/games", nil, http.StatusOK, nil)
	c.fails(http.MethodGet, "/api/v1/cart", nil, http.StatusForbidden, "FORBIDDEN")
	c.fails(http.MethodPost, "/api/v1/cart/items", map[string]int64{"game_id": 1}, http.StatusForbidden, "FORBIDDEN")
	c.fails(http.MethodPost, "/api/v1/cart/checkout", nil, http.StatusForbidden, "FORBIDDEN")
}

func TestAdminStats(t *testing.T) {
	h := newTestRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/admin/stats", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	req = httptest.NewRequest(http.MethodGet, "/api/v1/admin/stats", nil)
	req.Header.Set("X-Login-Key", loginKey)
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Data struct {
			Sessions map[string]interface{} `json:"sessions"`
			Store    map[string]interface{} `json:"store"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "memory", body.Data.Sessions["backend"])
	assert.Equal(t, "connected", body.Data.Store["status"])
	assert.EqualValues(t, 3, body.Data.Store["games"])
}

func TestHealthAndMetrics(t *testing.T) {
	h := newTestRouter(t)

	for _, path := range []string{"/api/status", "/api/v1/health", "/api/v1/ready"} {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
		assert.Equal(t, http.StatusOK, rec.Code, path)
	}

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "gamestore_http_requests_total")
}
