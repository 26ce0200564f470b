package files

import (
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

func TestSaveAndList(t *testing.T) {
	store := newTestStore(t)

	_, err := store.Save("acme", "notes.md", []byte("hello"))
	require.NoError(t, err)
	_, err = store.Save("acme", "guide.pdf", []byte("pdf-bytes"))
	require.NoError(t, err)

	infos, err := store.List("acme")
	require.NoError(t, err)
	require.Len(t, infos, 2)

	byName := map[string]int64{}
	for _, info := range infos {
		byName[info.Name] = info.Size
	}
	assert.Equal(t, int64(5), byName["notes.md"])
	assert.Equal(t, int64(9), byName["guide.pdf"])
}

func TestListAbsentTenant(t *testing.T) {
	store := newTestStore(t)

	infos, err := store.List("never-seen")
	require.NoError(t, err)
	assert.Empty(t, infos)
}

func TestTenantsDoNotShareFiles(t *testing.T) {
	store := newTestStore(t)

	_, err := store.Save("a", "secret.md", []byte("a only"))
	require.NoError(t, err)

	infos, err := store.List("b")
	require.NoError(t, err)
	assert.Empty(t, infos)
}

func TestSaveRejectsUnsafeNames(t *testing.T) {
	store := newTestStore(t)

	for _, name := range []string{"", "..", "../escape.md", "dir/file.md"} {
		_, err := store.Save("acme", name, []byte("x"))
		assert.ErrorIs(t, err, ErrInvalidName, "name %q", name)
	}
}

func TestRemove(t *testing.T) {
	store := newTestStore(t)

	_, err := store.Save("acme", "tmp.md", []byte("x"))
	require.NoError(t, err)

	require.NoError(t, store.Remove("acme", "tmp.md"))

	infos, err := store.List("acme")
	require.NoError(t, err)
	assert.Empty(t, infos)

	// Removing again is not an error.
	assert.NoError(t, store.Remove("acme", "tmp.md"))
}
