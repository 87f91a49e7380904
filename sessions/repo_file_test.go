package sessions_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/MohdMusaiyab/infybyte-sub001/sessions"
)

func TestFileIdentityRepoRoundTrip(t *testing.T) {
	repo := sessions.NewFileIdentityRepo(filepath.Join(t.TempDir(), "identity.json"))

	require.NoError(t, repo.Save(&testUser))

	loaded, err := repo.Load()
	require.NoError(t, err)
	require.Equal(t, testUser, *loaded)
}

func TestFileIdentityRepoLoadWithoutFile(t *testing.T) {
	repo := sessions.NewFileIdentityRepo(filepath.Join(t.TempDir(), "identity.json"))

	loaded, err := repo.Load()
	require.NoError(t, err)
	require.Nil(t, loaded)
}

func TestFileIdentityRepoClear(t *testing.T) {
	repo := sessions.NewFileIdentityRepo(filepath.Join(t.TempDir(), "identity.json"))
	require.NoError(t, repo.Save(&testUser))

	require.NoError(t, repo.Clear())
	require.NoError(t, repo.Clear()) // idempotent

	loaded, err := repo.Load()
	require.NoError(t, err)
	require.Nil(t, loaded)
}

func TestFileIdentityRepoPersistsIdentityOnly(t *testing.T) {
	path := filepath.Join(t.TempDir(), "identity.json")
	repo := sessions.NewFileIdentityRepo(path)
	require.NoError(t, repo.Save(&testUser))

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	require.True(t, strings.Contains(string(raw), "infybyte.auth.user"))
	require.False(t, strings.Contains(strings.ToLower(string(raw)), "token"))
}
