package local

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"
)

// Store writes screenshots to a local directory. Used in dev/demo mode
// when no Google credentials are configured; the HTTP server exposes
// the directory under /screenshots/.
type Store struct {
	dir     string
	baseURL string
}

func New(dir, baseURL string) *Store {
	return &Store{dir: dir, baseURL: baseURL}
}

func (s *Store) Name() string { return "local" }

func (s *Store) Save(ctx context.Context, filename string, data []byte) (string, error) {
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return "", fmt.Errorf("create screenshot dir: %w", err)
	}

	path := filepath.Join(s.dir, filename)
	if _, err := os.Stat(path); err == nil {
		// same registrant, same second: suffix instead of overwrite
		ext := filepath.Ext(filename)
		filename = filename[:len(filename)-len(ext)] + "_" + uuid.NewString()[:8] + ext
		path = filepath.Join(s.dir, filename)
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("write screenshot: %w", err)
	}
	return s.baseURL + "/screenshots/" + filename, nil
}
