package sessions_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/MohdMusaiyab/infybyte-sub001/sessions"
	"github.com/MohdMusaiyab/infybyte-sub001/sessions/repofakes"
)

var testUser = sessions.User{
	ID:    "user-1",
	Name:  "John Doe",
	Email: "john.doe@example.com",
	Role:  "vendor",
}

// requireInvariant asserts isAuthenticated == (user != nil), which must hold
// after every settled operation.
func requireInvariant(t *testing.T, session sessions.Session) {
	t.Helper()
	require.Equal(t, session.User != nil, session.IsAuthenticated)
}

func TestNewStoreRequiresRepo(t *testing.T) {
	_, err := sessions.NewStore(nil)
	require.Error(t, err)
}

func TestStoreStartsUnauthenticated(t *testing.T) {
	store, err := sessions.NewStore(repofakes.NewFakeIdentityRepo())
	require.NoError(t, err)

	session := store.Current()
	requireInvariant(t, session)
	require.False(t, session.IsAuthenticated)
	require.False(t, session.IsLoading)
	require.Nil(t, session.User)
}

func TestSetAuthenticated(t *testing.T) {
	repo := repofakes.NewFakeIdentityRepo()
	store, err := sessions.NewStore(repo)
	require.NoError(t, err)

	require.NoError(t, store.SetAuthenticated(testUser))

	session := store.Current()
	requireInvariant(t, session)
	require.True(t, session.IsAuthenticated)
	require.Equal(t, testUser.Email, session.User.Email)

	// Identity was persisted.
	persisted, err := repo.Load()
	require.NoError(t, err)
	require.Equal(t, testUser, *persisted)
}

func TestClear(t *testing.T) {
	repo := repofakes.NewFakeIdentityRepo()
	store, err := sessions.NewStore(repo)
	require.NoError(t, err)
	require.NoError(t, store.SetAuthenticated(testUser))

	store.Clear()
	store.Clear() // idempotent

	session := store.Current()
	requireInvariant(t, session)
	require.False(t, session.IsAuthenticated)

	persisted, err := repo.Load()
	require.NoError(t, err)
	require.Nil(t, persisted)
}

func TestLoadingFlag(t *testing.T) {
	store, err := sessions.NewStore(repofakes.NewFakeIdentityRepo())
	require.NoError(t, err)

	store.SetLoading(true)
	session := store.Current()
	requireInvariant(t, session)
	require.True(t, session.IsLoading)

	store.SetLoading(false)
	require.False(t, store.Current().IsLoading)
}

func TestRestore(t *testing.T) {
	repo := repofakes.NewFakeIdentityRepo()
	require.NoError(t, repo.Save(&testUser))

	store, err := sessions.NewStore(repo)
	require.NoError(t, err)

	restored, err := store.Restore()
	require.NoError(t, err)
	require.True(t, restored)

	session := store.Current()
	requireInvariant(t, session)
	require.True(t, session.IsAuthenticated)
	require.Equal(t, testUser.ID, session.User.ID)
}

func TestRestoreWithNothingPersisted(t *testing.T) {
	store, err := sessions.NewStore(repofakes.NewFakeIdentityRepo())
	require.NoError(t, err)

	restored, err := store.Restore()
	require.NoError(t, err)
	require.False(t, restored)
	require.False(t, store.Current().IsAuthenticated)
}

func TestOnChangeObserver(t *testing.T) {
	var observed []sessions.Session
	store, err := sessions.NewStore(repofakes.NewFakeIdentityRepo(),
		sessions.WithOnChange(func(s sessions.Session) { observed = append(observed, s) }))
	require.NoError(t, err)

	require.NoError(t, store.SetAuthenticated(testUser))
	store.Clear()

	require.Len(t, observed, 2)
	require.True(t, observed[0].IsAuthenticated)
	require.False(t, observed[1].IsAuthenticated)
	for _, s := range observed {
		requireInvariant(t, s)
	}
}

func TestCurrentReturnsACopy(t *testing.T) {
	store, err := sessions.NewStore(repofakes.NewFakeIdentityRepo())
	require.NoError(t, err)
	require.NoError(t, store.SetAuthenticated(testUser))

	snapshot := store.Current()
	snapshot.User.Email = "tampered@example.com"

	require.Equal(t, testUser.Email, store.Current().User.Email)
}
