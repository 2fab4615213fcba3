package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/smartbudget/smartbudget-server/internal/domain"
)

// FileStorage keeps the serialized session in a single JSON file on local disk.
type FileStorage struct {
	path string
	log  *slog.Logger
}

// NewFileStorage initializes a file-backed Storage implementation.
func NewFileStorage(path string, log *slog.Logger) Storage {
	if log == nil {
		log = slog.Default()
	}

	return &FileStorage{
		path: path,
		log:  log,
	}
}

// Load reads and decodes the session file.
func (s *FileStorage) Load(ctx context.Context) (*domain.Session, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, ErrNoSession
		}

		s.log.Error("failed to read session file", "path", s.path, "error", err)
		return nil, err
	}

	var sess domain.Session
	if err := json.Unmarshal(data, &sess); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformedRecord, err)
	}

	if sess.ID == "" {
		return nil, fmt.Errorf("%w: missing id", ErrMalformedRecord)
	}

	return &sess, nil
}

// Save writes the session atomically: temp file in the same directory, then rename.
func (s *FileStorage) Save(ctx context.Context, sess *domain.Session) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	data, err := json.Marshal(sess)
	if err != nil {
		return fmt.Errorf("encode session: %w", err)
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		s.log.Error("failed to create session dir", "path", dir, "error", err)
		return err
	}

	tmp, err := os.CreateTemp(dir, ".session-*")
	if err != nil {
		s.log.Error("failed to create temp session file", "error", err)
		return err
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return err
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return err
	}

	if err := os.Rename(tmpName, s.path); err != nil {
		_ = os.Remove(tmpName)
		s.log.Error("failed to replace session file", "path", s.path, "error", err)
		return err
	}

	return nil
}

// Clear removes the session file if present.
func (s *FileStorage) Clear(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	if err := os.Remove(s.path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		s.log.Error("failed to remove session file", "path", s.path, "error", err)
		return err
	}

	return nil
}
