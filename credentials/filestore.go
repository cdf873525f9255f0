package credentials

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/rs/zerolog/log"

	"github.com/jrsteele09/go-navigraph-efb/internal/errors"
)

const storeFileName = "navigraph.json"

// storedCredentials is the on-disk layout. A single key, no schema version.
type storedCredentials struct {
	RefreshToken string `json:"refresh_token"`
}

// FileStore persists the refresh token as a JSON file in the data folder.
type FileStore struct {
	folder string
}

var _ Repo = (*FileStore)(nil)

func NewFileStore(folder string) *FileStore {
	return &FileStore{folder: folder}
}

// Load reads the stored refresh token. A missing, unreadable, or corrupt
// file all report errors.ErrNoStoredToken: the store fails open so the
// caller re-authenticates instead of aborting.
func (fs *FileStore) Load() (string, error) {
	data, err := os.ReadFile(fs.path())
	if err != nil {
		if !os.IsNotExist(err) {
			log.Debug().Err(err).Str("path", fs.path()).Msg("credential store unreadable, treating as absent")
		}
		return "", errors.ErrNoStoredToken
	}

	var stored storedCredentials
	if err := json.Unmarshal(data, &stored); err != nil {
		log.Debug().Err(err).Str("path", fs.path()).Msg("credential store corrupt, treating as absent")
		return "", errors.ErrNoStoredToken
	}

	if stored.RefreshToken == "" {
		return "", errors.ErrNoStoredToken
	}
	return stored.RefreshToken, nil
}

// Save writes the refresh token atomically via a temp file rename.
func (fs *FileStore) Save(refreshToken string) error {
	if err := os.MkdirAll(fs.folder, 0o700); err != nil {
		return fmt.Errorf("[FileStore.Save] os.MkdirAll: %w", err)
	}

	data, err := json.Marshal(storedCredentials{RefreshToken: refreshToken})
	if err != nil {
		return fmt.Errorf("[FileStore.Save] json.Marshal: %w", err)
	}

	tmp, err := os.CreateTemp(fs.folder, storeFileName+".*")
	if err != nil {
		return fmt.Errorf("[FileStore.Save] os.CreateTemp: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("[FileStore.Save] write: %w", err)
	}
	if err := tmp.Chmod(0o600); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("[FileStore.Save] chmod: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("[FileStore.Save] close: %w", err)
	}

	if err := os.Rename(tmpName, fs.path()); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("[FileStore.Save] rename: %w", err)
	}
	return nil
}

func (fs *FileStore) path() string {
	return filepath.Join(fs.folder, storeFileName)
}
