package credentials_test

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/jrsteele09/go-navigraph-efb/credentials"
	"github.com/jrsteele09/go-navigraph-efb/internal/errors"
)

func TestFileStoreRoundTrip(t *testing.T) {
	store := credentials.NewFileStore(t.TempDir())

	require.NoError(t, store.Save("rt-1"))

	token, err := store.Load()
	require.NoError(t, err)
	require.Equal(t, "rt-1", token)
}

func TestFileStoreRotationOverwrites(t *testing.T) {
	folder := t.TempDir()
	store := credentials.NewFileStore(folder)

	require.NoError(t, store.Save("rt-old"))
	require.NoError(t, store.Save("rt-new"))

	// A fresh store over the same folder simulates a process restart.
	restarted := credentials.NewFileStore(folder)
	token, err := restarted.Load()
	require.NoError(t, err)
	require.Equal(t, "rt-new", token)
}

func TestFileStoreLoadAbsent(t *testing.T) {
	store := credentials.NewFileStore(t.TempDir())

	_, err := store.Load()
	require.ErrorIs(t, err, errors.ErrNoStoredToken)
}

func TestFileStoreLoadCorrupt(t *testing.T) {
	folder := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(folder, "navigraph.json"), []byte("not json"), 0o600))

	store := credentials.NewFileStore(folder)
	_, err := store.Load()
	require.ErrorIs(t, err, errors.ErrNoStoredToken, "corrupt store fails open")
}

func TestFileStoreLoadEmptyToken(t *testing.T) {
	folder := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(folder, "navigraph.json"), []byte(`{"refresh_token":""}`), 0o600))

	store := credentials.NewFileStore(folder)
	_, err := store.Load()
	require.ErrorIs(t, err, errors.ErrNoStoredToken)
}

func TestFileStoreCreatesFolder(t *testing.T) {
	folder := filepath.Join(t.TempDir(), "nested", "data")
	store := credentials.NewFileStore(folder)

	require.NoError(t, store.Save("rt-1"))

	token, err := store.Load()
	require.NoError(t, err)
	require.Equal(t, "rt-1", token)
}

func TestFileStorePermissions(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("file modes are not meaningful on windows")
	}

	folder := t.TempDir()
	store := credentials.NewFileStore(folder)
	require.NoError(t, store.Save("rt-1"))

	info, err := os.Stat(filepath.Join(folder, "navigraph.json"))
	require.NoError(t, err)
	require.Equal(t, os.FileMode(0o600), info.Mode().Perm())
}
