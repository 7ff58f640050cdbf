package storage

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalStorageSave(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "exports")
	store, err := NewLocalStorage(dir)
	require.NoError(t, err)
	assert.Equal(t, dir, store.Dir())

	path, err := store.Save("class_c1_term_1.csv", []byte("Rank,Code\n"))
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "class_c1_term_1.csv"), path)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "Rank,Code\n", string(data))

	path, err = store.Save("2025/class_c1_yearly.pdf", []byte("%PDF"))
	require.NoError(t, err)
	assert.FileExists(t, path)
}

func TestLocalStorageRejectsEscapingNames(t *testing.T) {
	store, err := NewLocalStorage(t.TempDir())
	require.NoError(t, err)

	for _, name := range []string{"", "..", "../outside.csv", "/etc/passwd"} {
		_, err := store.Save(name, []byte("x"))
		assert.Error(t, err, name)
	}
}

func TestLocalStoragePrune(t *testing.T) {
	store, err := NewLocalStorage(t.TempDir())
	require.NoError(t, err)

	oldPath, err := store.Save("old.csv", []byte("old"))
	require.NoError(t, err)
	_, err = store.Save("fresh.csv", []byte("fresh"))
	require.NoError(t, err)

	past := time.Now().Add(-48 * time.Hour)
	require.NoError(t, os.Chtimes(oldPath, past, past))

	deleted, err := store.Prune(24 * time.Hour)
	require.NoError(t, err)
	assert.Equal(t, []string{"old.csv"}, deleted)
	assert.NoFileExists(t, oldPath)
	assert.FileExists(t, filepath.Join(store.Dir(), "fresh.csv"))
}
