package save_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cory-johannsen/arpgcore/internal/save"
)

var _ save.Store = (*save.FileStore)(nil)

func TestFileStore_SaveLoad(t *testing.T) {
	ctx := context.Background()
	store, err := save.NewFileStore(filepath.Join(t.TempDir(), "saves"))
	require.NoError(t, err)

	rec := sampleRecord()
	require.NoError(t, store.Save(ctx, rec))

	got, err := store.Load(ctx, rec.CharacterID)
	require.NoError(t, err)
	assert.Equal(t, rec.Name, got.Name)
	assert.Equal(t, 0, rec.Progression.XP.Cmp(got.Progression.XP))

	rec.Progression.Level = 6
	require.NoError(t, store.Save(ctx, rec))
	got, err = store.Load(ctx, rec.CharacterID)
	require.NoError(t, err)
	assert.Equal(t, 6, got.Progression.Level)

	entries, err := os.ReadDir(store.Dir())
	require.NoError(t, err)
	assert.Len(t, entries, 1, "no temporary files are left behind")
}

func TestFileStore_LoadMissing(t *testing.T) {
	store, err := save.NewFileStore(t.TempDir())
	require.NoError(t, err)
	_, err = store.Load(context.Background(), uuid.New())
	assert.True(t, errors.Is(err, save.ErrSaveNotFound))
}

func TestFileStore_LoadLegacyFile(t *testing.T) {
	dir := t.TempDir()
	store, err := save.NewFileStore(dir)
	require.NoError(t, err)
	id := uuid.New()
	doc := "version: 2\ncharacter_id: " + id.String() + "\nname: ayla\nlevel: 1\nxp: 10\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, id.String()+".yaml"), []byte(doc), 0o644))

	got, err := store.Load(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, save.CurrentVersion, got.Version)
	assert.Equal(t, int64(10), got.Progression.XP.Int64())
}

func TestFileStore_SaveRejectsInvalid(t *testing.T) {
	store, err := save.NewFileStore(t.TempDir())
	require.NoError(t, err)
	rec := sampleRecord()
	rec.Name = ""
	assert.Error(t, store.Save(context.Background(), rec))
}

func TestFileStore_ListAndDelete(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	store, err := save.NewFileStore(dir)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0o644))

	a := sampleRecord()
	a.CharacterID = uuid.MustParse("00000000-0000-0000-0000-00000000000b")
	b := sampleRecord()
	b.CharacterID = uuid.MustParse("00000000-0000-0000-0000-00000000000a")
	require.NoError(t, store.Save(ctx, a))
	require.NoError(t, store.Save(ctx, b))

	ids, err := store.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, []uuid.UUID{b.CharacterID, a.CharacterID}, ids)

	require.NoError(t, store.Delete(ctx, a.CharacterID))
	assert.True(t, errors.Is(store.Delete(ctx, a.CharacterID), save.ErrSaveNotFound))
	ids, err = store.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, []uuid.UUID{b.CharacterID}, ids)
}

func TestFileStore_CanceledContext(t *testing.T) {
	store, err := save.NewFileStore(t.TempDir())
	require.NoError(t, err)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, store.Save(ctx, sampleRecord()), context.Canceled)
}

func TestNewFileStore_EmptyDir(t *testing.T) {
	_, err := save.NewFileStore("")
	assert.Error(t, err)
}
