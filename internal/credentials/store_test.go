package credentials

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	return NewStore(filepath.Join(t.TempDir(), "nested", "credentials.json"), nil)
}

func TestStoreRoundTrip(t *testing.T) {
	store := newTestStore(t)

	_, err := store.Load()
	require.ErrorIs(t, err, ErrNoCredential)
	assert.Equal(t, "", store.Token())

	require.NoError(t, store.Save("  token-abc  "))
	token, err := store.Load()
	require.NoError(t, err)
	assert.Equal(t, "token-abc", token)
	assert.Equal(t, "token-abc", store.Token())

	info, err := os.Stat(store.Path())
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())
}

func TestStoreClearIsIdempotent(t *testing.T) {
	store := newTestStore(t)
	require.NoError(t, store.Save("token"))

	require.NoError(t, store.Clear())
	require.NoError(t, store.Clear())

	_, err := store.Load()
	assert.ErrorIs(t, err, ErrNoCredential)
}

func TestStoreRejectsEmptyToken(t *testing.T) {
	store := newTestStore(t)
	assert.ErrorIs(t, store.Save("   "), ErrNoCredential)
}

func TestStoreCorruptFile(t *testing.T) {
	store := newTestStore(t)
	require.NoError(t, os.MkdirAll(filepath.Dir(store.Path()), 0o700))
	require.NoError(t, os.WriteFile(store.Path(), []byte("{not json"), 0o600))

	_, err := store.Load()
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrNoCredential)
	assert.Equal(t, "", store.Token())
}
