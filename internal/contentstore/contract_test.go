package contentstore

import (
	"context"
	"errors"
	"sort"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// runStoreContract exercises the behaviour every backend shares. Paths are
// placed under a random prefix so backends backed by shared state can run it
// more than once.
func runStoreContract(t *testing.T, store ContentStore) {
	t.Helper()
	root := "contract-" + uuid.NewString()[:8]

	t.Run("get missing", func(t *testing.T) {
		_, err := store.Get(context.Background(), root+"/missing.csv")
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("create then read", func(t *testing.T) {
		ctx := context.Background()
		p := root + "/create/plants.csv"

		res, err := store.Put(ctx, p, []byte("a,b\n1,2\n"), "")
		require.NoError(t, err)
		assert.NotEmpty(t, res.Version)

		obj, err := store.Get(ctx, p)
		require.NoError(t, err)
		assert.Equal(t, "a,b\n1,2\n", string(obj.Content))
		assert.Equal(t, res.Version, obj.Version)
	})

	t.Run("empty content", func(t *testing.T) {
		ctx := context.Background()
		p := root + "/empty/.gitkeep"

		res, err := store.Put(ctx, p, nil, "")
		require.NoError(t, err)
		assert.NotEmpty(t, res.Version)

		obj, err := store.Get(ctx, p)
		require.NoError(t, err)
		assert.Empty(t, obj.Content)
		assert.Equal(t, res.Version, obj.Version)

		entries, err := store.List(ctx, root+"/empty")
		require.NoError(t, err)
		require.Len(t, entries, 1)
		assert.Equal(t, ".gitkeep", entries[0].Name)
	})

	t.Run("create existing conflicts", func(t *testing.T) {
		ctx := context.Background()
		p := root + "/dup/file.txt"

		_, err := store.Put(ctx, p, []byte("one"), "")
		require.NoError(t, err)
		_, err = store.Put(ctx, p, []byte("two"), "")
		assert.ErrorIs(t, err, ErrConflict)
	})

	t.Run("update with stale version conflicts", func(t *testing.T) {
		ctx := context.Background()
		p := root + "/update/file.txt"

		first, err := store.Put(ctx, p, []byte("v1"), "")
		require.NoError(t, err)
		second, err := store.Put(ctx, p, []byte("v2"), first.Version)
		require.NoError(t, err)
		assert.NotEqual(t, first.Version, second.Version)

		_, err = store.Put(ctx, p, []byte("v3"), first.Version)
		assert.ErrorIs(t, err, ErrConflict)

		obj, err := store.Get(ctx, p)
		require.NoError(t, err)
		assert.Equal(t, "v2", string(obj.Content))
	})

	t.Run("delete", func(t *testing.T) {
		ctx := context.Background()
		p := root + "/delete/file.txt"

		first, err := store.Put(ctx, p, []byte("v1"), "")
		require.NoError(t, err)
		second, err := store.Put(ctx, p, []byte("v2"), first.Version)
		require.NoError(t, err)

		err = store.Delete(ctx, p, first.Version)
		assert.ErrorIs(t, err, ErrConflict)

		require.NoError(t, store.Delete(ctx, p, second.Version))
		_, err = store.Get(ctx, p)
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("list children", func(t *testing.T) {
		ctx := context.Background()
		folder := root + "/list"
		for _, p := range []string{"b.jpg", "a.jpg", "nested/c.jpg"} {
			_, err := store.Put(ctx, folder+"/"+p, []byte(p), "")
			require.NoError(t, err)
		}

		entries, err := store.List(ctx, folder)
		require.NoError(t, err)
		sort.Slice(entries, func(i, j int) bool { return entries[i].Name < entries[j].Name })

		var names []string
		for _, e := range entries {
			names = append(names, e.Name)
		}
		assert.Equal(t, []string{"a.jpg", "b.jpg", "nested"}, names)
		assert.False(t, entries[0].Dir)
		assert.NotEmpty(t, entries[0].Version)
		assert.Equal(t, folder+"/a.jpg", entries[0].Path)
		assert.True(t, entries[2].Dir)
	})

	t.Run("list missing folder", func(t *testing.T) {
		_, err := store.List(context.Background(), root+"/nowhere")
		assert.True(t, errors.Is(err, ErrNotFound), "got %v", err)
	})
}
