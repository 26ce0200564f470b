package permission

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := NewStore(t.TempDir(), zap.NewNop())
	require.NoError(t, err)
	return store
}

func TestGetAbsentOrg(t *testing.T) {
	store := newTestStore(t)

	perms, err := store.Get("org-1")
	require.NoError(t, err)
	assert.Empty(t, perms)
	assert.NotNil(t, perms)
}

func TestSaveAndGet(t *testing.T) {
	store := newTestStore(t)

	in := map[string]any{"canIngest": true, "maxFiles": float64(10)}
	require.NoError(t, store.Save("org-1", in))

	out, err := store.Get("org-1")
	require.NoError(t, err)
	assert.Equal(t, in, out)
}

func TestOrgsAreIsolated(t *testing.T) {
	store := newTestStore(t)

	require.NoError(t, store.Save("org-a", map[string]any{"admin": true}))

	perms, err := store.Get("org-b")
	require.NoError(t, err)
	assert.Empty(t, perms)
}

func TestCorruptedFileIsAnError(t *testing.T) {
	dir := t.TempDir()
	store, err := NewStore(dir, zap.NewNop())
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "org-1.json"), []byte("{broken"), 0o644))

	_, err = store.Get("org-1")
	assert.Error(t, err)
}
