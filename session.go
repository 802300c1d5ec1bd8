package notefold

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/notefold/notefold.go/pkg/api"
	"github.com/notefold/notefold.go/pkg/errs"
	"github.com/notefold/notefold.go/pkg/logger"
	"github.com/notefold/notefold.go/pkg/models"
)

// TokenCache persists the session token between client lifetimes so a
// session can be resumed on startup.
type TokenCache interface {
	Load() (string, error)
	Save(token string) error
	Clear() error
}

// MemoryTokenCache is a TokenCache that lives and dies with the process.
type MemoryTokenCache struct {
	mu    sync.Mutex
	token string
}

func (m *MemoryTokenCache) Load() (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.token, nil
}

func (m *MemoryTokenCache) Save(token string) error {
	m.mu.Lock()
	m.token = token
	m.mu.Unlock()
	return nil
}

func (m *MemoryTokenCache) Clear() error {
	return m.Save("")
}

// SessionMonitor owns the current Session-or-none and tells dependents about
// every change. There is exactly one active session at a time, or none; all
// note access is gated on it.
//
// Data operations must not observe the monitor before the persisted session
// has been resolved; Resume closes that gate exactly once.
type SessionMonitor struct {
	api   *api.Client
	cache TokenCache
	log   logger.Logger

	// notifyMu serializes session changes end to end, so subscribers see
	// every change exactly once and in occurrence order.
	notifyMu sync.Mutex

	mu      sync.Mutex
	session *models.Session
	subs    map[int]func(*models.Session)
	nextSub int
	stream  *api.EventStream

	resolveOnce sync.Once
	resolved    chan struct{}
}

// NewSessionMonitor builds a monitor over the given API client and token
// cache. Resume must be called before dependents issue data operations.
func NewSessionMonitor(apiClient *api.Client, cache TokenCache, log logger.Logger) *SessionMonitor {
	if cache == nil {
		cache = &MemoryTokenCache{}
	}
	if log == nil {
		log = logger.Nop()
	}
	return &SessionMonitor{
		api:      apiClient,
		cache:    cache,
		log:      log,
		subs:     make(map[int]func(*models.Session)),
		resolved: make(chan struct{}),
	}
}

// Session returns a copy of the current session, or nil when anonymous.
func (m *SessionMonitor) Session() *models.Session {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.session == nil {
		return nil
	}
	s := *m.session
	return &s
}

// Subscribe registers fn to run on every subsequent session change, in
// registration order, exactly once per change. fn runs synchronously on the
// goroutine performing the change and must not call back into Establish or
// Clear. The returned function removes the subscription.
func (m *SessionMonitor) Subscribe(fn func(*models.Session)) (unsubscribe func()) {
	m.mu.Lock()
	id := m.nextSub
	m.nextSub++
	m.subs[id] = fn
	m.mu.Unlock()

	return func() {
		m.mu.Lock()
		delete(m.subs, id)
		m.mu.Unlock()
	}
}

// WaitResolved blocks until the startup session resolution has completed.
func (m *SessionMonitor) WaitResolved(ctx context.Context) error {
	select {
	case <-m.resolved:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (m *SessionMonitor) markResolved() {
	m.resolveOnce.Do(func() { close(m.resolved) })
}

// Resume resolves the persisted session, if any, before any dependent is
// allowed to proceed. A missing, expired, or rejected token resolves to the
// anonymous state; only a cache read failure is an error. Resume always
// marks the monitor resolved, even on error.
func (m *SessionMonitor) Resume(ctx context.Context) error {
	defer m.markResolved()

	token, err := m.cache.Load()
	if err != nil {
		return err
	}
	if token == "" {
		return nil
	}

	if expired, err := tokenExpired(token, time.Now()); err != nil || expired {
		m.log.Debug("cached token unusable, starting anonymous", "expired", expired)
		_ = m.cache.Clear()
		return nil
	}

	session, err := m.api.CurrentSession(ctx, token)
	if err != nil {
		var remote *errs.RemoteError
		if errors.As(err, &remote) {
			// The server no longer recognizes the token.
			m.log.Info("persisted session rejected", "status", remote.Status)
			_ = m.cache.Clear()
			return nil
		}
		m.log.Warn("session resume failed, starting anonymous", "error", err)
		return nil
	}

	m.Establish(session)
	return nil
}

// Establish installs session as the active one and notifies subscribers.
// It is the completion path for password sign-in, OAuth callbacks, and
// resume alike.
func (m *SessionMonitor) Establish(session *models.Session) {
	m.notifyMu.Lock()
	defer m.notifyMu.Unlock()

	m.mu.Lock()
	s := *session
	m.session = &s
	m.api.SetToken(s.Token)
	if err := m.cache.Save(s.Token); err != nil {
		m.log.Warn("could not persist session token", "error", err)
	}
	m.stopStreamLocked()
	subs := m.snapshotSubsLocked()
	m.mu.Unlock()

	m.markResolved()
	m.startWatch(s.Token)
	m.log.Info("session established", "user", s.User.Email)

	copied := s
	for _, fn := range subs {
		fn(&copied)
	}
}

// Clear drops the active session and notifies subscribers with nil. Local
// state resets regardless of whether the server session still exists.
func (m *SessionMonitor) Clear() {
	m.notifyMu.Lock()
	defer m.notifyMu.Unlock()

	m.mu.Lock()
	wasAnonymous := m.session == nil
	m.session = nil
	m.api.SetToken("")
	if err := m.cache.Clear(); err != nil {
		m.log.Warn("could not clear persisted token", "error", err)
	}
	m.stopStreamLocked()
	subs := m.snapshotSubsLocked()
	m.mu.Unlock()

	if wasAnonymous {
		return
	}
	m.log.Info("session cleared")
	for _, fn := range subs {
		fn(nil)
	}
}

// Close releases the auth event stream, leaving the session itself alone.
func (m *SessionMonitor) Close() {
	m.mu.Lock()
	m.stopStreamLocked()
	m.mu.Unlock()
}

func (m *SessionMonitor) snapshotSubsLocked() []func(*models.Session) {
	ids := make([]int, 0, len(m.subs))
	for id := range m.subs {
		ids = append(ids, id)
	}
	// map iteration order is random; subscribers expect registration order
	sort.Ints(ids)
	fns := make([]func(*models.Session), 0, len(ids))
	for _, id := range ids {
		fns = append(fns, m.subs[id])
	}
	return fns
}

func (m *SessionMonitor) stopStreamLocked() {
	if m.stream != nil {
		_ = m.stream.Close()
		m.stream = nil
	}
}

// startWatch opens the auth event stream so a server-side invalidation drops
// the local session promptly. Stream setup is best effort.
func (m *SessionMonitor) startWatch(token string) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	stream, err := m.api.Events(ctx, token)
	if err != nil {
		m.log.Debug("auth event stream unavailable", "error", err)
		return
	}

	m.mu.Lock()
	m.stream = stream
	m.mu.Unlock()

	go func() {
		for ev := range stream.C {
			switch ev.Type {
			case api.EventTokenInvalidated, api.EventSignedOut:
				m.log.Info("session ended by server", "event", string(ev.Type))
				m.Clear()
				return
			}
		}
	}()
}

// tokenExpired reads the token's exp claim without verifying the signature;
// the server remains the authority on token validity.
func tokenExpired(token string, now time.Time) (bool, error) {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return false, err
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return false, err
	}
	return now.After(exp.Time), nil
}
