// Package local provides a filesystem implementation of filestore.Store.
// Each key is one file in a directory. Writes go to a uniquely named
// temporary file that is synced and then renamed over the target, so readers
// never see a partial file.
package local

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/koustreak/schemacache/internal/errs"
	"github.com/koustreak/schemacache/internal/filestore"
)

// Store keeps values as files under dir.
type Store struct {
	dir string
}

var _ filestore.Store = (*Store)(nil)

// New creates dir if needed and returns a Store rooted at it.
func New(cfg filestore.LocalConfig) (*Store, error) {
	if err := os.MkdirAll(cfg.Dir, 0o755); err != nil {
		return nil, mapError(err, "failed to create directory "+cfg.Dir)
	}
	return &Store{dir: cfg.Dir}, nil
}

// Dir returns the root directory.
func (s *Store) Dir() string {
	return s.dir
}

// Ping checks that the root directory still exists.
func (s *Store) Ping(ctx context.Context) error {
	info, err := os.Stat(s.dir)
	if err != nil {
		return mapError(err, "ping failed")
	}
	if !info.IsDir() {
		return errs.New(errs.ErrKindStorage, s.dir+" is not a directory")
	}
	return nil
}

// Close is a no-op.
func (s *Store) Close() error {
	return nil
}

// Get reads the file for key.
func (s *Store) Get(ctx context.Context, key string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, errs.Wrap(errs.ErrKindTimeout, "get canceled", err)
	}
	p, err := s.path(key)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(p)
	if err != nil {
		return nil, mapError(err, "failed to read "+key)
	}
	return data, nil
}

// Put writes data to a temporary file next to the target and renames it
// into place.
func (s *Store) Put(ctx context.Context, key string, data []byte) error {
	if err := ctx.Err(); err != nil {
		return errs.Wrap(errs.ErrKindTimeout, "put canceled", err)
	}
	p, err := s.path(key)
	if err != nil {
		return err
	}

	tmp := filepath.Join(s.dir, "."+key+"."+uuid.NewString()+".tmp")
	f, err := os.OpenFile(tmp, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return mapError(err, "failed to create temp file for "+key)
	}

	if err := write(f, data); err != nil {
		_ = os.Remove(tmp)
		return mapError(err, "failed to write "+key)
	}
	if err := os.Rename(tmp, p); err != nil {
		_ = os.Remove(tmp)
		return mapError(err, "failed to replace "+key)
	}
	return nil
}

func write(f *os.File, data []byte) error {
	if _, err := f.Write(data); err != nil {
		f.Close()
		return err
	}
	if err := f.Sync(); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// path resolves key inside the root. Keys are plain file names.
func (s *Store) path(key string) (string, error) {
	if key == "" || key == "." || key == ".." || strings.ContainsAny(key, `/\`) {
		return "", errs.New(errs.ErrKindInvalidInput, "invalid key "+key)
	}
	return filepath.Join(s.dir, key), nil
}

func mapError(err error, msg string) *errs.Error {
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return errs.Wrap(errs.ErrKindNotFound, msg, err)
	case errors.Is(err, fs.ErrPermission):
		return errs.Wrap(errs.ErrKindPermissionDenied, msg, err)
	default:
		return errs.Wrap(errs.ErrKindStorage, msg, err)
	}
}
