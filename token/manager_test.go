package token_test

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"

	"github.com/MohdMusaiyab/infybyte-sub001/token"
	"github.com/MohdMusaiyab/infybyte-sub001/token/fallback"
)

const (
	testAccessToken  = "access-token-1"
	testRefreshToken = "refresh-token-1"
)

func TestSetAndGetTokens(t *testing.T) {
	m := token.NewManager()

	m.SetTokens(testAccessToken, testRefreshToken)

	require.Equal(t, testAccessToken, m.AccessToken())
	require.Equal(t, testRefreshToken, m.RefreshToken())
}

func TestPairingInvariant(t *testing.T) {
	m := token.NewManager(token.WithFallbackStore(fallback.NewInMemoryStore()))

	// Both absent initially.
	require.Empty(t, m.AccessToken())
	require.Empty(t, m.RefreshToken())

	// Both present after set.
	m.SetTokens(testAccessToken, testRefreshToken)
	require.NotEmpty(t, m.AccessToken())
	require.NotEmpty(t, m.RefreshToken())

	// Both absent after clear.
	m.ClearTokens()
	require.Empty(t, m.AccessToken())
	require.Empty(t, m.RefreshToken())
}

func TestClearTokensIsIdempotent(t *testing.T) {
	m := token.NewManager(token.WithFallbackStore(fallback.NewInMemoryStore()))
	m.SetTokens(testAccessToken, testRefreshToken)

	m.ClearTokens()
	m.ClearTokens()

	require.Empty(t, m.AccessToken())
	require.Empty(t, m.RefreshToken())
}

func TestFallbackSurvivesRestart(t *testing.T) {
	store := fallback.NewInMemoryStore()

	m := token.NewManager(token.WithFallbackStore(store))
	m.SetTokens(testAccessToken, testRefreshToken)

	// A fresh manager over the same store simulates a process restart:
	// memory is gone, the fallback is not.
	restarted := token.NewManager(token.WithFallbackStore(store))
	require.Equal(t, testAccessToken, restarted.AccessToken())
	require.Equal(t, testRefreshToken, restarted.RefreshToken())
}

func TestMemoryTakesPrecedenceOverFallback(t *testing.T) {
	store := fallback.NewInMemoryStore()
	require.NoError(t, store.Set("infybyte.auth.access", "stale-access", time.Hour))
	require.NoError(t, store.Set("infybyte.auth.refresh", "stale-refresh", time.Hour))

	m := token.NewManager(token.WithFallbackStore(store))
	m.SetTokens(testAccessToken, testRefreshToken)

	require.Equal(t, testAccessToken, m.AccessToken())
	require.Equal(t, testRefreshToken, m.RefreshToken())
}

func TestAccessMirrorExpiresBeforeRefreshMirror(t *testing.T) {
	now := time.Now()
	fallback.NowTimeFunc = func() time.Time { return now }
	defer func() { fallback.NowTimeFunc = time.Now }()

	store := fallback.NewInMemoryStore()
	m := token.NewManager(
		token.WithFallbackStore(store),
		token.WithFallbackTTLs(10*time.Minute, 7*24*time.Hour),
	)
	m.SetTokens(testAccessToken, testRefreshToken)

	// An hour later, after a restart: the access mirror has aged out, the
	// refresh mirror is still there to mint a new pair.
	now = now.Add(time.Hour)
	restarted := token.NewManager(token.WithFallbackStore(store))
	require.Empty(t, restarted.AccessToken())
	require.Equal(t, testRefreshToken, restarted.RefreshToken())
}

func TestAccessTokenExpiry(t *testing.T) {
	expiry := time.Now().Add(15 * time.Minute).Truncate(time.Second)
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": "user-1",
		"exp": expiry.Unix(),
	}).SignedString([]byte("test-signing-key"))
	require.NoError(t, err)

	m := token.NewManager()
	m.SetTokens(signed, testRefreshToken)

	got, ok := m.AccessTokenExpiry()
	require.True(t, ok)
	require.True(t, got.Equal(expiry))
	require.False(t, m.AccessTokenExpired())
}

func TestAccessTokenExpired(t *testing.T) {
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": "user-1",
		"exp": time.Now().Add(-time.Minute).Unix(),
	}).SignedString([]byte("test-signing-key"))
	require.NoError(t, err)

	m := token.NewManager()
	m.SetTokens(signed, testRefreshToken)

	require.True(t, m.AccessTokenExpired())
}

func TestAccessTokenExpiryOpaqueToken(t *testing.T) {
	m := token.NewManager()
	m.SetTokens("not-a-jwt", testRefreshToken)

	_, ok := m.AccessTokenExpiry()
	require.False(t, ok)
	require.False(t, m.AccessTokenExpired())
}

func TestAccessTokenExpiryAbsentToken(t *testing.T) {
	m := token.NewManager()

	_, ok := m.AccessTokenExpiry()
	require.False(t, ok)
}
