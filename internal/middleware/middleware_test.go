package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"gamestore-api/internal/cache"
	"gamestore-api/internal/model"
	"gamestore-api/internal/service"
	"gamestore-api/pkg/logger"
	"gamestore-api/pkg/uid"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newSessions(t *testing.T) *service.SessionService {
	t.Helper()
	c := cache.NewMemoryCache(time.Minute)
	t.Cleanup(func() { c.Close() })
	return service.NewSessionService(c, time.Hour, "")
}

func sessionStack(sessions *service.SessionService, next http.Handler) http.Handler {
	mw := NewSessionMiddleware(SessionConfig{
		Sessions:   sessions,
		CookieName: "sid",
		Log:        logger.Nop(),
	})
	return mw(next)
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) (string, string) {
	t.Helper()
	var body struct {
		Success bool `json:"success"`
		Error   struct {
			Code    string `json:"code"`
			Message string `json:"message"`
		} `json:"error"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.False(t, body.Success)
	return body.Error.Code, body.Error.Message
}

func TestSessionMiddlewareStartsAndReusesSessions(t *testing.T) {
	sessions := newSessions(t)

	var seen []string
	h := sessionStack(sessions, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sess := GetSession(r.Context())
		require.NotNil(t, sess)
		seen = append(seen, sess.Token)
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	require.Len(t, seen, 1)

	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, "sid", cookies[0].Name)
	assert.Equal(t, seen[0], cookies[0].Value)
	assert.True(t, cookies[0].HttpOnly)
	assert.Equal(t, seen[0], rec.Header().Get(SessionHeader))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(cookies[0])
	h.ServeHTTP(httptest.NewRecorder(), req)

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(SessionHeader, seen[0])
	h.ServeHTTP(httptest.NewRecorder(), req)

	require.Len(t, seen, 3)
	assert.Equal(t, seen[0], seen[1])
	assert.Equal(t, seen[0], seen[2])
}

func TestSessionMiddlewareReplacesUnknownToken(t *testing.T) {
	sessions := newSessions(t)

	var token string
	h := sessionStack(sessions, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token = GetSession(r.Context()).Token
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(SessionHeader, service.SessionTokenPrefix+"deadbeef")
	h.ServeHTTP(httptest.NewRecorder(), req)

	assert.NotEqual(t, service.SessionTokenPrefix+"deadbeef", token)
	assert.True(t, strings.HasPrefix(token, service.SessionTokenPrefix))
}

func TestReplaceSession(t *testing.T) {
	sessions := newSessions(t)

	var replaced *model.Session
	h := sessionStack(sessions, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		next, err := sessions.Start(r.Context())
		require.NoError(t, err)
		ReplaceSession(w, r, next)
		replaced = GetSession(r.Context())
		assert.Same(t, next, replaced)
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/", nil))

	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, replaced.Token, cookies[0].Value)
	assert.Equal(t, replaced.Token, rec.Header().Get(SessionHeader))
}

func TestRequireIdentity(t *testing.T) {
	sessions := newSessions(t)
	guard := NewRequireIdentity(sessions)

	var got model.Identity
	protected := sessionStack(sessions, guard(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var ok bool
		got, ok = IdentityFromContext(r.Context())
		require.True(t, ok)
		w.WriteHeader(http.StatusNoContent)
	})))

	t.Run("anonymous is rejected with a flash", func(t *testing.T) {
		rec := httptest.NewRecorder()
		protected.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/cart", nil))

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		code, msg := decodeError(t, rec)
		assert.Equal(t, "UNAUTHORIZED", code)
		assert.Equal(t, LoginRequiredMessage, msg)

		sess, err := sessions.Load(context.Background(), rec.Header().Get(SessionHeader))
		require.NoError(t, err)
		assert.Equal(t, LoginRequiredMessage, sess.Flash)
	})

	t.Run("logged in passes through", func(t *testing.T) {
		sess, err := sessions.Start(context.Background())
		require.NoError(t, err)
		alice := model.Identity{ID: 7, Username: "alice", Role: model.RoleBuyer}
		require.NoError(t, sessions.Login(context.Background(), sess, alice))

		req := httptest.NewRequest(http.MethodGet, "/cart", nil)
		req.Header.Set(SessionHeader, sess.Token)
		rec := httptest.NewRecorder()
		protected.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusNoContent, rec.Code)
		assert.Equal(t, alice, got)
	})
}

func TestIdentityFromContextWithoutSession(t *testing.T) {
	_, ok := IdentityFromContext(httptest.NewRequest(http.MethodGet, "/", nil).Context())
	assert.False(t, ok)
}

func TestRequireLoginKey(t *testing.T) {
	ok := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	tests := []struct {
		name       string
		key        string
		header     string
		wantStatus int
	}{
		{"not configured", "", "anything", http.StatusForbidden},
		{"missing header", "s3cret", "", http.StatusUnauthorized},
		{"wrong key", "s3cret", "guess", http.StatusUnauthorized},
		{"valid key", "s3cret", "s3cret", http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/v1/admin/stats", nil)
			if tt.header != "" {
				req.Header.Set("X-Login-Key", tt.header)
			}
			rec := httptest.NewRecorder()
			NewRequireLoginKey(tt.key)(ok).ServeHTTP(rec, req)
			assert.Equal(t, tt.wantStatus, rec.Code)
		})
	}
}

func TestRecovery(t *testing.T) {
	h := NewRecovery(logger.Nop())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	code, _ := decodeError(t, rec)
	assert.Equal(t, "INTERNAL_ERROR", code)
}

func TestRequestIDAndLogging(t *testing.T) {
	var id string
	h := RequestID(NewLogging(logger.Nop())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id = GetRequestID(r.Context())
		w.WriteHeader(http.StatusTeapot)
	})))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusTeapot, rec.Code)
	assert.NotEmpty(t, id)
	assert.Equal(t, id, rec.Header().Get("X-Request-ID"))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Request-ID", "0b6f5d8e-3c1a-4f7e-9a2b-5d4c3b2a1f00")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, "0b6f5d8e-3c1a-4f7e-9a2b-5d4c3b2a1f00", id)

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Request-ID", "not a uuid\ninjected")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.NotEqual(t, "not a uuid\ninjected", id)
	assert.True(t, uid.IsValid(id))
}
