package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
)

// Local stores files in a directory on disk.
type Local struct {
	baseDir string
	baseURL string
}

// NewLocal creates the base directory if needed. baseURL is the prefix of
// the URLs the files are served under, for example "/storage/".
func NewLocal(baseDir, baseURL string) (*Local, error) {
	if baseDir == "" {
		return nil, ErrInvalidConfig
	}

	abs, err := filepath.Abs(baseDir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve base directory: %w", err)
	}

	err = os.MkdirAll(abs, 0o755)
	if err != nil {
		return nil, fmt.Errorf("failed to create base directory: %w", err)
	}

	return &Local{
		baseDir: abs,
		baseURL: withTrailingSlash(baseURL),
	}, nil
}

// Save writes r to path. Partially written files are removed on failure.
func (l *Local) Save(ctx context.Context, path string, r io.Reader, _ int64, _ string) error {
	abs, err := l.resolve(path)
	if err != nil {
		return err
	}

	err = os.MkdirAll(filepath.Dir(abs), 0o755)
	if err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	f, err := os.OpenFile(abs, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}

	_, err = io.Copy(f, &ctxReader{ctx: ctx, r: r})
	if closeErr := f.Close(); err == nil {
		err = closeErr
	}

	if err != nil {
		return errors.Join(fmt.Errorf("failed to write file: %w", err), os.Remove(abs))
	}

	return nil
}

// Delete removes the file at path.
func (l *Local) Delete(_ context.Context, path string) error {
	abs, err := l.resolve(path)
	if err != nil {
		return err
	}

	err = os.Remove(abs)
	if errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("%w: %s", ErrFileNotFound, path)
	}

	return err
}

// URL returns the public URL of the file at path.
func (l *Local) URL(path string) string {
	key, err := cleanKey(path)
	if err != nil {
		return ""
	}
	return l.baseURL + key
}

// FS gives read access to the stored files.
func (l *Local) FS() fs.FS {
	return os.DirFS(l.baseDir)
}

func (l *Local) resolve(path string) (string, error) {
	key, err := cleanKey(path)
	if err != nil {
		return "", fmt.Errorf("%w: %s", err, path)
	}

	return filepath.Join(l.baseDir, filepath.FromSlash(key)), nil
}

// ctxReader stops reading once the context is done.
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
