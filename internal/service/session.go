package service

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"gamestore-api/internal/cache"
	"gamestore-api/internal/model"
)

const (
	// SessionTokenPrefix is the prefix for all session tokens
	SessionTokenPrefix = "gs_"

	// DefaultSessionTTL is used when no TTL is configured
	DefaultSessionTTL = 24 * time.Hour

	// DefaultSessionKeyPrefix is the cache key prefix for sessions
	DefaultSessionKeyPrefix = "gamestore:session:"
)

// SessionService stores per-client sessions in a cache. Each session carries
// the logged-in identity, if any, and a one-shot flash message.
type SessionService struct {
	cache     cache.Cache
	ttl       time.Duration
	keyPrefix string
	now       func() time.Time
}

// NewSessionService creates a new session service.
func NewSessionService(c cache.Cache, ttl time.Duration, keyPrefix string) *SessionService {
	if ttl <= 0 {
		ttl = DefaultSessionTTL
	}
	if keyPrefix == "" {
		keyPrefix = DefaultSessionKeyPrefix
	}
	return &SessionService{
		cache:     c,
		ttl:       ttl,
		keyPrefix: keyPrefix,
		now:       time.Now,
	}
}

// TTL returns the configured session lifetime.
func (s *SessionService) TTL() time.Duration {
	return s.ttl
}

func (s *SessionService) key(token string) string {
	return s.keyPrefix + token
}

// Start creates and stores a fresh anonymous session.
func (s *SessionService) Start(ctx context.Context) (*model.Session, error) {
	tokenBytes := make([]byte, 32)
	if _, err := rand.Read(tokenBytes); err != nil {
		return nil, fmt.Errorf("failed to generate session token: %w", err)
	}

	now := s.now()
	sess := &model.Session{
		Token:     SessionTokenPrefix + hex.EncodeToString(tokenBytes),
		CreatedAt: now,
		ExpiresAt: now.Add(s.ttl),
	}
	if err := s.save(ctx, sess); err != nil {
		return nil, err
	}
	return sess, nil
}

// Load fetches a session by token. Sessions past half their lifetime have
// their expiry pushed forward.
func (s *SessionService) Load(ctx context.Context, token string) (*model.Session, error) {
	if !strings.HasPrefix(token, SessionTokenPrefix) || len(token) == len(SessionTokenPrefix) {
		return nil, ErrSessionNotFound
	}

	data, err := s.cache.Get(ctx, s.key(token))
	if errors.Is(err, cache.ErrCacheMiss) {
		return nil, ErrSessionNotFound
	}
	if err != nil {
		return nil, storageError("load session", err)
	}

	var sess model.Session
	if err := json.Unmarshal(data, &sess); err != nil {
		s.cache.Delete(ctx, s.key(token))
		return nil, ErrSessionNotFound
	}
	sess.Token = token

	now := s.now()
	if now.After(sess.ExpiresAt) {
		s.cache.Delete(ctx, s.key(token))
		return nil, ErrSessionNotFound
	}
	if sess.ExpiresAt.Sub(now) < s.ttl/2 {
		if err := s.Touch(ctx, &sess); err != nil {
			return nil, err
		}
	}
	return &sess, nil
}

// Touch pushes the session expiry a full TTL into the future.
func (s *SessionService) Touch(ctx context.Context, sess *model.Session) error {
	sess.ExpiresAt = s.now().Add(s.ttl)
	return s.save(ctx, sess)
}

// Login binds an identity to the session.
func (s *SessionService) Login(ctx context.Context, sess *model.Session, id model.Identity) error {
	sess.Identity = &id
	return s.save(ctx, sess)
}

// Destroy removes the session entirely.
func (s *SessionService) Destroy(ctx context.Context, token string) error {
	if err := s.cache.Delete(ctx, s.key(token)); err != nil {
		return storageError("destroy session", err)
	}
	return nil
}

// SetFlash stores a message to be shown once on the next read.
func (s *SessionService) SetFlash(ctx context.Context, sess *model.Session, msg string) error {
	sess.Flash = msg
	return s.save(ctx, sess)
}

// PopFlash returns the pending flash message and clears it.
func (s *SessionService) PopFlash(ctx context.Context, sess *model.Session) (string, error) {
	msg := sess.Flash
	if msg == "" {
		return "", nil
	}
	sess.Flash = ""
	if err := s.save(ctx, sess); err != nil {
		return "", err
	}
	return msg, nil
}

// Count returns the number of live sessions.
func (s *SessionService) Count(ctx context.Context) (int64, error) {
	return s.cache.Len(ctx, s.keyPrefix)
}

func (s *SessionService) save(ctx context.Context, sess *model.Session) error {
	data, err := json.Marshal(sess)
	if err != nil {
		return fmt.Errorf("failed to serialize session: %w", err)
	}

	ttl := sess.ExpiresAt.Sub(s.now())
	if ttl <= 0 {
		ttl = s.ttl
	}
	if err := s.cache.Set(ctx, s.key(sess.Token), data, ttl); err != nil {
		return storageError("save session", err)
	}
	return nil
}
