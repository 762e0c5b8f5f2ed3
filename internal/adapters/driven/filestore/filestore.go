// Package filestore keeps generated image files on an afero filesystem.
package filestore

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path"
	"strings"

	"github.com/spf13/afero"

	"github.com/custodia-labs/metatext-core/internal/core/domain"
	"github.com/custodia-labs/metatext-core/internal/core/ports/driven"
)

// Ensure Store implements ImageFileStore
var _ driven.ImageFileStore = (*Store)(nil)

// Store implements driven.ImageFileStore. Paths are server-relative
// ("/images/chunk-1/x.png") and resolved under the store's root.
type Store struct {
	fs afero.Fs
}

// New creates a Store over fs
func New(fs afero.Fs) *Store {
	return &Store{fs: fs}
}

// NewOS creates a Store rooted at dir on the local disk
func NewOS(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create image dir: %w", err)
	}
	return New(afero.NewBasePathFs(afero.NewOsFs(), dir)), nil
}

// Write stores r at p. The file appears under its final name only once it
// is complete, so a reader never sees a partial image.
func (s *Store) Write(ctx context.Context, p string, r io.Reader) (int64, error) {
	clean, err := cleanPath(p)
	if err != nil {
		return 0, err
	}

	dir := path.Dir(clean)
	if err := s.fs.MkdirAll(dir, 0o755); err != nil {
		return 0, fmt.Errorf("create dir %s: %w", dir, err)
	}

	tmp, err := afero.TempFile(s.fs, dir, ".partial-*")
	if err != nil {
		return 0, fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()
	cleanup := func() {
		_ = tmp.Close()
		_ = s.fs.Remove(tmpName)
	}

	n, err := io.Copy(tmp, &ctxReader{ctx: ctx, r: r})
	if err != nil {
		cleanup()
		return n, fmt.Errorf("write %s: %w", clean, err)
	}
	if err := tmp.Close(); err != nil {
		_ = s.fs.Remove(tmpName)
		return n, fmt.Errorf("close %s: %w", clean, err)
	}
	if err := s.fs.Rename(tmpName, clean); err != nil {
		_ = s.fs.Remove(tmpName)
		return n, fmt.Errorf("rename %s: %w", clean, err)
	}
	return n, nil
}

// Exists reports whether a file is stored at p
func (s *Store) Exists(ctx context.Context, p string) (bool, error) {
	clean, err := cleanPath(p)
	if err != nil {
		return false, err
	}
	info, err := s.fs.Stat(clean)
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return !info.IsDir(), nil
}

// Open returns a reader for the file at p, or domain.ErrNotFound
func (s *Store) Open(ctx context.Context, p string) (io.ReadCloser, error) {
	clean, err := cleanPath(p)
	if err != nil {
		return nil, err
	}
	f, err := s.fs.Open(clean)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	info, err := f.Stat()
	if err != nil || info.IsDir() {
		f.Close()
		return nil, domain.ErrNotFound
	}
	return f, nil
}

// cleanPath rejects anything that is not an absolute path without
// traversal and without a hidden final element
func cleanPath(p string) (string, error) {
	if !strings.HasPrefix(p, "/") || path.Clean(p) != p || strings.Contains(p, "..") {
		return "", fmt.Errorf("%w: invalid image path %q", domain.ErrInvalidInput, p)
	}
	if strings.HasPrefix(path.Base(p), ".") {
		return "", fmt.Errorf("%w: invalid image path %q", domain.ErrInvalidInput, p)
	}
	return p, nil
}

// ctxReader stops a copy once ctx is done
type ctxReader struct {
	ctx context.Context
	r   io.Reader
}

func (c *ctxReader) Read(p []byte) (int, error) {
	if err := c.ctx.Err(); err != nil {
		return 0, err
	}
	return c.r.Read(p)
}
