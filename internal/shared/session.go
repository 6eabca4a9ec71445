package shared

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// UserSnapshot is the identity stored with a session. It is a copy taken at
// login time, not a live join against the user store.
type UserSnapshot struct {
	UserID int64  `json:"user_id"`
	Login  string `json:"login"`
}

// SessionManager orchestrates cookie based sessions backed by Redis.
type SessionManager struct {
	client     *redis.Client
	cookieName string
	ttl        time.Duration
	secure     bool
}

// Session holds per-request session data.
type Session struct {
	ID        string
	user      *UserSnapshot
	manager   *SessionManager
	isNew     bool
	dirty     bool
	destroyed bool
}

type sessionPayload struct {
	User *UserSnapshot `json:"user,omitempty"`
}

// NewSessionManager constructs a SessionManager.
func NewSessionManager(client *redis.Client, cookieName string, ttl time.Duration, secure bool) *SessionManager {
	return &SessionManager{
		client:     client,
		cookieName: cookieName,
		ttl:        ttl,
		secure:     secure,
	}
}

// Load loads the session referenced by the request cookie, or creates a new
// one when no cookie or no stored record exists.
func (sm *SessionManager) Load(ctx context.Context, r *http.Request) (*Session, error) {
	cookie, err := r.Cookie(sm.cookieName)
	if err != nil {
		if errors.Is(err, http.ErrNoCookie) {
			return sm.newSession(), nil
		}
		return nil, err
	}

	snapshot, err := sm.Get(ctx, cookie.Value)
	if err != nil {
		return nil, err
	}
	if snapshot == nil {
		sess := sm.newSession()
		sess.ID = cookie.Value
		return sess, nil
	}

	return &Session{ID: cookie.Value, user: snapshot, manager: sm}, nil
}

// Commit persists the session and writes cookie headers as needed.
func (sm *SessionManager) Commit(ctx context.Context, w http.ResponseWriter, sess *Session) error {
	if sess == nil {
		return nil
	}

	if sess.destroyed {
		if err := sm.Destroy(ctx, sess.ID); err != nil {
			return err
		}
		http.SetCookie(w, &http.Cookie{
			Name:     sm.cookieName,
			Value:    "",
			Path:     "/",
			MaxAge:   -1,
			HttpOnly: true,
			Secure:   sm.secure,
			SameSite: http.SameSiteStrictMode,
		})
		return nil
	}

	if sess.isNew && sess.ID == "" {
		sess.ID = sm.generateSessionID()
	}

	if sess.dirty {
		if err := sm.Start(ctx, sess.ID, sess.user); err != nil {
			return err
		}
		sess.dirty = false
	}

	if sess.ID != "" {
		http.SetCookie(w, &http.Cookie{
			Name:     sm.cookieName,
			Value:    sess.ID,
			Path:     "/",
			HttpOnly: true,
			Secure:   sm.secure,
			SameSite: http.SameSiteStrictMode,
			Expires:  time.Now().Add(sm.ttl),
		})
	}

	return nil
}

// Start writes the session record. Starting an id that already exists
// overwrites the previous record.
func (sm *SessionManager) Start(ctx context.Context, id string, user *UserSnapshot) error {
	data, err := json.Marshal(sessionPayload{User: user})
	if err != nil {
		return err
	}
	return sm.client.Set(ctx, sm.redisKey(id), data, sm.ttl).Err()
}

// Get returns the stored snapshot for id, or nil when no session exists.
func (sm *SessionManager) Get(ctx context.Context, id string) (*UserSnapshot, error) {
	payload, err := sm.client.Get(ctx, sm.redisKey(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, err
	}
	var stored sessionPayload
	if err := json.Unmarshal(payload, &stored); err != nil {
		return nil, err
	}
	return stored.User, nil
}

// Destroy removes the session record. Once Destroy returns, Get on the same
// id reports no session.
func (sm *SessionManager) Destroy(ctx context.Context, id string) error {
	if id == "" {
		return nil
	}
	if err := sm.client.Del(ctx, sm.redisKey(id)).Err(); err != nil && !errors.Is(err, redis.Nil) {
		return err
	}
	return nil
}

// ClearAll removes every session record. It exists for test harness resets
// and must never be reachable from the production request path.
func (sm *SessionManager) ClearAll(ctx context.Context) error {
	iter := sm.client.Scan(ctx, 0, "session:*", 0).Iterator()
	for iter.Next(ctx) {
		if err := sm.client.Del(ctx, iter.Val()).Err(); err != nil {
			return err
		}
	}
	return iter.Err()
}

// TTL exposes the configured session lifetime.
func (sm *SessionManager) TTL() time.Duration {
	return sm.ttl
}

// CookieName returns the cookie identifier used for sessions.
func (sm *SessionManager) CookieName() string {
	return sm.cookieName
}

// Session helpers

// SetUser associates the session with an authenticated identity.
func (s *Session) SetUser(user UserSnapshot) {
	s.user = &user
	s.dirty = true
}

// User returns the authenticated identity, or nil for anonymous sessions.
func (s *Session) User() *UserSnapshot {
	return s.user
}

// Authenticated reports whether the session carries an identity.
func (s *Session) Authenticated() bool {
	return s != nil && s.user != nil && s.user.Login != ""
}

// MarkDestroyed flags the session for deletion at commit time.
func (s *Session) MarkDestroyed() {
	s.destroyed = true
}

func (sm *SessionManager) newSession() *Session {
	return &Session{
		ID:      sm.generateSessionID(),
		manager: sm,
		isNew:   true,
	}
}

func (sm *SessionManager) redisKey(id string) string {
	return "session:" + id
}

func (sm *SessionManager) generateSessionID() string {
	if id, err := uuid.NewRandom(); err == nil {
		return id.String()
	}
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return base64.RawURLEncoding.EncodeToString([]byte(time.Now().Format(time.RFC3339Nano)))
	}
	return base64.RawURLEncoding.EncodeToString(b)
}
