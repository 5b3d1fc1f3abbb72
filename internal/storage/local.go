package storage

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// LocalStore stores files on the local filesystem under a base directory.
// Keys are uuid-prefixed so caller-supplied filenames can never collide or
// escape the directory.
type LocalStore struct {
	baseDir string
	logger  *slog.Logger
}

// NewLocalStore creates the base directory if needed
func NewLocalStore(baseDir string, logger *slog.Logger) (*LocalStore, error) {
	if err := os.MkdirAll(baseDir, 0o755); err != nil {
		return nil, fmt.Errorf("create upload directory: %w", err)
	}

	return &LocalStore{baseDir: baseDir, logger: logger}, nil
}

// Save implements FileStore
func (s *LocalStore) Save(ctx context.Context, r io.Reader, filename, contentType string) (string, error) {
	key := uuid.New().String() + "_" + sanitizeFilename(filename)

	f, err := os.Create(filepath.Join(s.baseDir, key))
	if err != nil {
		return "", fmt.Errorf("create file: %w", err)
	}
	defer f.Close()

	written, err := io.Copy(f, r)
	if err != nil {
		// Best effort cleanup of the partial write
		os.Remove(f.Name())
		return "", fmt.Errorf("write file: %w", err)
	}

	s.logger.Debug("file stored",
		"key", key,
		"bytes", written,
		"content_type", contentType,
	)

	return key, nil
}

// Open implements FileStore
func (s *LocalStore) Open(ctx context.Context, key string) (io.ReadCloser, error) {
	f, err := os.Open(filepath.Join(s.baseDir, filepath.Base(key)))
	if err != nil {
		return nil, fmt.Errorf("open file %s: %w", key, err)
	}
	return f, nil
}

// Exists implements FileStore
func (s *LocalStore) Exists(ctx context.Context, key string) (bool, error) {
	_, err := os.Stat(filepath.Join(s.baseDir, filepath.Base(key)))
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, fmt.Errorf("stat file %s: %w", key, err)
	}
	return true, nil
}

// Delete implements FileStore
func (s *LocalStore) Delete(ctx context.Context, key string) error {
	err := os.Remove(filepath.Join(s.baseDir, filepath.Base(key)))
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("delete file %s: %w", key, err)
	}
	return nil
}

// sanitizeFilename strips path separators and control characters from a
// caller-supplied filename.
func sanitizeFilename(name string) string {
	name = filepath.Base(name)
	name = strings.Map(func(r rune) rune {
		if r < 32 || r == '/' || r == '\\' {
			return '_'
		}
		return r
	}, name)
	if name == "" || name == "." || name == ".." {
		name = "file"
	}
	return name
}
