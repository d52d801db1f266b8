package credentials

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/rs/zerolog/log"
)

// DefaultFileName is the name of the credential file inside the state directory.
const DefaultFileName = "credentials.json"

var _ Repo = (*FileRepo)(nil)

// FileRepo is the durable local tier: a single JSON document holding both
// members, replaced through a rename so the pair is written atomically.
//
// The directory is created 0700 and the file 0600. Token values are never logged.
type FileRepo struct {
	path string
	mu   sync.RWMutex
}

func NewFileRepo(path string) (*FileRepo, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, fmt.Errorf("credential file path is required")
	}
	return &FileRepo{path: path}, nil
}

// Path returns the file backing the repo.
func (r *FileRepo) Path() string {
	return r.path
}

func (r *FileRepo) Save(pair Pair) error {
	if err := validate(pair); err != nil {
		return err
	}

	b, err := json.MarshalIndent(pair, "", "  ")
	if err != nil {
		return fmt.Errorf("encode credential file: %w", err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	dir := filepath.Dir(r.path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("mkdir credential dir: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".credentials-*")
	if err != nil {
		return fmt.Errorf("create temp credential file: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if err := tmp.Chmod(0o600); err != nil {
		tmp.Close()
		return fmt.Errorf("chmod temp credential file: %w", err)
	}
	if _, err := tmp.Write(b); err != nil {
		tmp.Close()
		return fmt.Errorf("write temp credential file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp credential file: %w", err)
	}
	if err := os.Rename(tmpName, r.path); err != nil {
		return fmt.Errorf("replace credential file: %w", err)
	}

	log.Debug().Str("store", "file").Str("path", r.path).Msg("credentials saved")
	return nil
}

func (r *FileRepo) Load() (Pair, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	// #nosec G304 -- path comes from configuration, not request input
	b, err := os.ReadFile(r.path)
	if err != nil {
		if os.IsNotExist(err) {
			return Pair{}, ErrNoCredential
		}
		return Pair{}, fmt.Errorf("read credential file: %w", err)
	}
	if len(b) == 0 {
		return Pair{}, ErrNoCredential
	}

	var pair Pair
	if err := json.Unmarshal(b, &pair); err != nil {
		return Pair{}, fmt.Errorf("decode credential file: %w", err)
	}
	if pair.IsZero() {
		return Pair{}, ErrNoCredential
	}
	return pair, nil
}

func (r *FileRepo) Clear() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := os.Remove(r.path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove credential file: %w", err)
	}
	log.Debug().Str("store", "file").Str("path", r.path).Msg("credentials cleared")
	return nil
}
