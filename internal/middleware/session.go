package middleware

import (
	"context"
	"crypto/subtle"
	"errors"
	"net/http"

	"gamestore-api/internal/model"
	"gamestore-api/internal/service"
	"gamestore-api/pkg/apierror"
	"gamestore-api/pkg/logger"
)

// SessionKey is the key for storing the session in request context.
const SessionKey contextKey = "session"

// SessionHeader lets non-browser clients carry the session token without cookies.
const SessionHeader = "X-Session-Token"

// LoginRequiredMessage is flashed to a visitor bounced by RequireIdentity.
const LoginRequiredMessage = "Please log in"

// SessionConfig holds configuration for the session middleware.
type SessionConfig struct {
	Sessions   *service.SessionService
	CookieName string
	Secure     bool
	Log        *logger.Logger
}

// sessionHolder is stored in the context by pointer so a handler can swap
// the session (login, logout) and later middleware sees the change.
type sessionHolder struct {
	sess *model.Session
	cfg  *SessionConfig
}

// NewSessionMiddleware attaches a session to every request, starting a fresh
// one when the client presents no valid token.
func NewSessionMiddleware(cfg SessionConfig) func(http.Handler) http.Handler {
	if cfg.CookieName == "" {
		cfg.CookieName = "gamestore_sid"
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()

			sess, err := loadSession(ctx, cfg, tokenFromRequest(r, cfg.CookieName))
			if err != nil {
				cfg.Log.Error("session unavailable", "error", err, "request_id", GetRequestID(ctx))
				writeError(w, apierror.StorageError("session store unavailable"))
				return
			}

			holder := &sessionHolder{sess: sess, cfg: &cfg}
			writeSessionToken(w, holder)

			ctx = context.WithValue(ctx, SessionKey, holder)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func loadSession(ctx context.Context, cfg SessionConfig, token string) (*model.Session, error) {
	if token != "" {
		sess, err := cfg.Sessions.Load(ctx, token)
		if err == nil {
			return sess, nil
		}
		if !errors.Is(err, service.ErrSessionNotFound) {
			return nil, err
		}
	}
	return cfg.Sessions.Start(ctx)
}

func tokenFromRequest(r *http.Request, cookieName string) string {
	if token := r.Header.Get(SessionHeader); token != "" {
		return token
	}
	if c, err := r.Cookie(cookieName); err == nil {
		return c.Value
	}
	return ""
}

func writeSessionToken(w http.ResponseWriter, h *sessionHolder) {
	http.SetCookie(w, &http.Cookie{
		Name:     h.cfg.CookieName,
		Value:    h.sess.Token,
		Path:     "/",
		Expires:  h.sess.ExpiresAt,
		HttpOnly: true,
		Secure:   h.cfg.Secure,
		SameSite: http.SameSiteLaxMode,
	})
	w.Header().Set(SessionHeader, h.sess.Token)
}

// GetSession retrieves the session from request context.
func GetSession(ctx context.Context) *model.Session {
	if h, ok := ctx.Value(SessionKey).(*sessionHolder); ok {
		return h.sess
	}
	return nil
}

// ReplaceSession swaps the request's session for sess and re-issues the token.
// It must be called before the response body is written.
func ReplaceSession(w http.ResponseWriter, r *http.Request, sess *model.Session) {
	h, ok := r.Context().Value(SessionKey).(*sessionHolder)
	if !ok {
		return
	}
	h.sess = sess
	w.Header().Del("Set-Cookie")
	writeSessionToken(w, h)
}

// IdentityFromContext returns the logged-in identity, if any.
func IdentityFromContext(ctx context.Context) (model.Identity, bool) {
	sess := GetSession(ctx)
	if !sess.Authenticated() {
		return model.Identity{}, false
	}
	return *sess.Identity, true
}

// NewRequireIdentity rejects anonymous sessions with 401 and leaves a flash
// message for the login page.
func NewRequireIdentity(sessions *service.SessionService) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			sess := GetSession(r.Context())
			if sess.Authenticated() {
				next.ServeHTTP(w, r)
				return
			}

			if sess != nil {
				_ = sessions.SetFlash(r.Context(), sess, LoginRequiredMessage)
			}
			writeError(w, apierror.Unauthorized(LoginRequiredMessage))
		})
	}
}

// NewRequireLoginKey guards admin endpoints with the X-Login-Key header.
// An empty key disables the endpoints.
func NewRequireLoginKey(key string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if key == "" {
				writeError(w, apierror.Forbidden("admin access is not configured"))
				return
			}

			provided := r.Header.Get("X-Login-Key")
			if subtle.ConstantTimeCompare([]byte(provided), []byte(key)) != 1 {
				writeError(w, apierror.Unauthorized("invalid login key"))
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// writeError writes an API error response.
func writeError(w http.ResponseWriter, err *apierror.Error) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(err.StatusCode)
	w.Write(err.ToJSON())
}
