// Package token owns the credential pair for an authenticated API session:
// the short-lived access token attached to requests and the longer-lived
// refresh token used to mint a new one. The pair is held in process memory as
// the primary source and mirrored into a fallback store that survives a
// restart. Nothing outside this package mutates the pair.
package token

import (
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const (
	accessKey  = "infybyte.auth.access"
	refreshKey = "infybyte.auth.refresh"
)

// Fallback TTLs mirror the credential lifetimes: the access mirror ages out
// in minutes, the refresh mirror survives for days.
const (
	DefaultAccessFallbackTTL  = 10 * time.Minute
	DefaultRefreshFallbackTTL = 7 * 24 * time.Hour
)

// Store is the fallback storage the manager mirrors credentials into.
// See the fallback package for implementations.
type Store interface {
	Set(key, value string, ttl time.Duration) error
	Get(key string) (string, bool)
	Delete(key string) error
}

// Manager is the sole owner of the credential pair. The pair is always set
// and cleared together, so at any observation point both credentials are
// present or both are absent.
type Manager struct {
	lock         sync.RWMutex
	accessToken  string
	refreshToken string

	store      Store
	accessTTL  time.Duration
	refreshTTL time.Duration
	nowFunc    func() time.Time
}

// ManagerOption defines a function type to modify the Manager instance.
type ManagerOption func(*Manager)

// WithFallbackStore mirrors the credential pair into store so it survives a
// process restart. Without it the manager is memory-only.
func WithFallbackStore(store Store) ManagerOption {
	return func(m *Manager) {
		m.store = store
	}
}

// WithFallbackTTLs overrides the fallback expiries for the access and
// refresh mirrors.
func WithFallbackTTLs(accessTTL, refreshTTL time.Duration) ManagerOption {
	return func(m *Manager) {
		m.accessTTL = accessTTL
		m.refreshTTL = refreshTTL
	}
}

// WithNowFunc sets the now time function (primarily for testing)
func WithNowFunc(now func() time.Time) ManagerOption {
	return func(m *Manager) {
		m.nowFunc = now
	}
}

func NewManager(options ...ManagerOption) *Manager {
	m := &Manager{
		accessTTL:  DefaultAccessFallbackTTL,
		refreshTTL: DefaultRefreshFallbackTTL,
		nowFunc:    time.Now,
	}
	for _, opt := range options {
		opt(m)
	}
	return m
}

// SetTokens stores both credentials in memory and mirrors them to the
// fallback store with their respective expiries.
func (m *Manager) SetTokens(accessToken, refreshToken string) {
	m.lock.Lock()
	defer m.lock.Unlock()

	m.accessToken = accessToken
	m.refreshToken = refreshToken

	if m.store != nil {
		_ = m.store.Set(accessKey, accessToken, m.accessTTL)
		_ = m.store.Set(refreshKey, refreshToken, m.refreshTTL)
	}
}

// AccessToken returns the current access token, preferring the in-memory
// value over the fallback store. An empty string means no token — absence,
// not an error.
func (m *Manager) AccessToken() string {
	m.lock.RLock()
	defer m.lock.RUnlock()

	if m.accessToken != "" {
		return m.accessToken
	}
	if m.store != nil {
		if v, ok := m.store.Get(accessKey); ok {
			return v
		}
	}
	return ""
}

// RefreshToken returns the current refresh token, preferring the in-memory
// value over the fallback store.
func (m *Manager) RefreshToken() string {
	m.lock.RLock()
	defer m.lock.RUnlock()

	if m.refreshToken != "" {
		return m.refreshToken
	}
	if m.store != nil {
		if v, ok := m.store.Get(refreshKey); ok {
			return v
		}
	}
	return ""
}

// ClearTokens wipes memory and the fallback store for both credentials.
// Clearing an already-clear manager is a no-op.
func (m *Manager) ClearTokens() {
	m.lock.Lock()
	defer m.lock.Unlock()

	m.accessToken = ""
	m.refreshToken = ""

	if m.store != nil {
		_ = m.store.Delete(accessKey)
		_ = m.store.Delete(refreshKey)
	}
}

// AccessTokenExpiry reports the exp claim of the current access token. The
// token is parsed unverified — signature verification is the backend's job,
// the client only needs to know when the credential goes stale. An absent or
// unparseable token reports false.
func (m *Manager) AccessTokenExpiry() (time.Time, bool) {
	rawToken := m.AccessToken()
	if rawToken == "" {
		return time.Time{}, false
	}

	unverifiedToken, _, err := jwt.NewParser().ParseUnverified(rawToken, jwt.MapClaims{})
	if err != nil {
		return time.Time{}, false
	}
	expiry, err := unverifiedToken.Claims.GetExpirationTime()
	if err != nil || expiry == nil {
		return time.Time{}, false
	}
	return expiry.Time, true
}

// AccessTokenExpired reports whether the current access token exists but has
// passed its exp claim. Tokens without a readable exp are never reported as
// expired.
func (m *Manager) AccessTokenExpired() bool {
	expiry, ok := m.AccessTokenExpiry()
	if !ok {
		return false
	}
	return m.nowFunc().After(expiry)
}
