package storage

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/docsorter/backend/internal/models"
	"github.com/go-git/go-billy/v5/memfs"
	"github.com/go-git/go-billy/v5/util"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func createTestStore(t *testing.T) *BillyStore {
	t.Helper()
	store, err := NewBillyStore(memfs.New())
	require.NoError(t, err)
	return store
}

func TestBillyStore_SaveAndOpen(t *testing.T) {
	ctx := context.Background()
	store := createTestStore(t)

	data := []byte("PK\x03\x04 fake zip")
	info, err := store.Save(ctx, models.ArchiveInfo{Name: "P1.zip", ProjectCode: "P1", FileCount: 3}, data)
	require.NoError(t, err)
	assert.NotEmpty(t, info.ID)
	assert.Equal(t, int64(len(data)), info.Size)
	assert.Equal(t, 3, info.FileCount)
	assert.False(t, info.CreatedAt.IsZero())

	got, err := store.Get(ctx, info.ID)
	require.NoError(t, err)
	assert.Equal(t, "P1.zip", got.Name)

	rc, err := store.Open(ctx, info.ID)
	require.NoError(t, err)
	defer rc.Close()
	body, err := io.ReadAll(rc)
	require.NoError(t, err)
	assert.Equal(t, data, body)
}

func TestBillyStore_NotFound(t *testing.T) {
	ctx := context.Background()
	store := createTestStore(t)

	_, err := store.Get(ctx, "missing")
	assert.True(t, errors.Is(err, ErrNotFound))
	_, err = store.Open(ctx, "missing")
	assert.True(t, errors.Is(err, ErrNotFound))
	assert.True(t, errors.Is(store.Delete(ctx, "missing"), ErrNotFound))
}

func TestBillyStore_ListNewestFirst(t *testing.T) {
	ctx := context.Background()
	store := createTestStore(t)

	var ids []string
	for _, name := range []string{"a.zip", "b.zip", "c.zip"} {
		info, err := store.Save(ctx, models.ArchiveInfo{Name: name}, []byte(name))
		require.NoError(t, err)
		ids = append(ids, info.ID)
	}
	// Save stamps time.Now; spread the timestamps so ordering is stable.
	base := time.Now()
	for i, id := range ids {
		store.index[id].CreatedAt = base.Add(time.Duration(i) * time.Minute)
	}

	list, err := store.List(ctx, 0)
	require.NoError(t, err)
	require.Len(t, list, 3)
	assert.Equal(t, "c.zip", list[0].Name)
	assert.Equal(t, "a.zip", list[2].Name)

	list, err = store.List(ctx, 2)
	require.NoError(t, err)
	assert.Len(t, list, 2)
}

func TestBillyStore_Delete(t *testing.T) {
	ctx := context.Background()
	fs := memfs.New()
	store, err := NewBillyStore(fs)
	require.NoError(t, err)

	info, err := store.Save(ctx, models.ArchiveInfo{Name: "x.zip"}, []byte("x"))
	require.NoError(t, err)
	require.NoError(t, store.Delete(ctx, info.ID))

	_, err = store.Get(ctx, info.ID)
	assert.True(t, errors.Is(err, ErrNotFound))
	_, err = fs.Stat(archiveName(info.ID))
	assert.True(t, os.IsNotExist(err))
	_, err = fs.Stat(metaName(info.ID))
	assert.True(t, os.IsNotExist(err))
}

func TestBillyStore_ReloadsIndex(t *testing.T) {
	ctx := context.Background()
	fs := memfs.New()
	first, err := NewBillyStore(fs)
	require.NoError(t, err)
	info, err := first.Save(ctx, models.ArchiveInfo{Name: "kept.zip", ProjectCode: "P9"}, []byte("zip"))
	require.NoError(t, err)

	require.NoError(t, util.WriteFile(fs, "broken.json", []byte("{not json"), 0644))

	second, err := NewBillyStore(fs)
	require.NoError(t, err)
	got, err := second.Get(ctx, info.ID)
	require.NoError(t, err)
	assert.Equal(t, "P9", got.ProjectCode)

	list, err := second.List(ctx, 0)
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

func TestNewLocalStore(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "archives")
	store, err := NewLocalStore(dir)
	require.NoError(t, err)

	info, err := store.Save(context.Background(), models.ArchiveInfo{Name: "disk.zip"}, []byte("disk"))
	require.NoError(t, err)

	_, err = os.Stat(filepath.Join(dir, archiveName(info.ID)))
	assert.NoError(t, err)
}

func TestValidID(t *testing.T) {
	assert.True(t, validID("0b6a1c3e-1111-2222-3333-444455556666"))
	assert.False(t, validID(""))
	assert.False(t, validID("../etc"))
	assert.False(t, validID("a/b"))
}
