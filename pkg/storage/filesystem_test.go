package storage

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalStorageSaveOpenDelete(t *testing.T) {
	store, err := NewLocalStorage(t.TempDir())
	require.NoError(t, err)

	rel, err := store.Save(filepath.Join("2024", "datos.xlsx"), []byte("payload"))
	require.NoError(t, err)

	file, err := store.Open(rel)
	require.NoError(t, err)
	content, err := os.ReadFile(file.Name())
	require.NoError(t, err)
	require.NoError(t, file.Close())
	assert.Equal(t, "payload", string(content))

	files, err := store.List()
	require.NoError(t, err)
	assert.Equal(t, []string{filepath.Join("2024", "datos.xlsx")}, files)

	require.NoError(t, store.Delete(rel))
	require.NoError(t, store.Delete(rel))
	_, err = store.Open(rel)
	assert.Error(t, err)
}

func TestLocalStorageRejectsEscapingPaths(t *testing.T) {
	store, err := NewLocalStorage(t.TempDir())
	require.NoError(t, err)

	_, err = store.Save("../outside.xlsx", []byte("x"))
	assert.Error(t, err)
	_, err = store.Save("/etc/outside.xlsx", []byte("x"))
	assert.Error(t, err)
}

func TestLocalStorageCleanupOlderThan(t *testing.T) {
	dir := t.TempDir()
	store, err := NewLocalStorage(dir)
	require.NoError(t, err)

	_, err = store.Save("old.xlsx", []byte("old"))
	require.NoError(t, err)
	_, err = store.Save("new.xlsx", []byte("new"))
	require.NoError(t, err)

	past := time.Now().Add(-48 * time.Hour)
	require.NoError(t, os.Chtimes(store.Path("old.xlsx"), past, past))

	deleted, err := store.CleanupOlderThan(24 * time.Hour)
	require.NoError(t, err)
	assert.Equal(t, []string{"old.xlsx"}, deleted)

	files, err := store.List()
	require.NoError(t, err)
	assert.Equal(t, []string{"new.xlsx"}, files)
}

func TestArchiveName(t *testing.T) {
	at := time.Date(2024, 6, 15, 10, 15, 0, 0, time.UTC)
	name := ArchiveName("mis datos.xlsx", "ab12cd34ef56", at)
	assert.Equal(t, filepath.Join("2024", "06", "15", "20240615T101500Z_ab12cd34_mis_datos.xlsx"), name)
}
