// Package cache materializes expensive artifacts to files so that a reader
// sees either no file, the previous complete file, or the new complete file,
// never a partial one.
package cache

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/moby/sys/atomicwriter"

	"github.com/dai/shuttle"
)

// Produce computes an artifact's bytes. It runs only on a cache miss or a
// forced refresh, and nothing is written to disk until it returns.
type Produce func(ctx context.Context) ([]byte, error)

// Option configures a Writer.
type Option func(*Writer)

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(w *Writer) { w.logger = l }
}

// WithFileMode sets the permissions of written artifacts. Default 0o644.
func WithFileMode(mode os.FileMode) Option {
	return func(w *Writer) { w.fileMode = mode }
}

// WithDirMode sets the permissions of created parent directories.
// Default 0o755.
func WithDirMode(mode os.FileMode) Option {
	return func(w *Writer) { w.dirMode = mode }
}

// Writer materializes artifacts at caller-chosen paths. It holds no state
// between calls; exclusion between concurrent writers of one path is the
// job lock's concern, and the atomic rename keeps readers safe regardless.
type Writer struct {
	fileMode os.FileMode
	dirMode  os.FileMode
	logger   *slog.Logger
}

// NewWriter creates a Writer.
func NewWriter(opts ...Option) *Writer {
	w := &Writer{
		fileMode: 0o644,
		dirMode:  0o755,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Materialize ensures path holds the artifact and returns path.
//
// Without force an existing regular file is a cache hit and produce is not
// called. Otherwise produce runs and its bytes replace path atomically. If
// produce fails, its error is returned wrapped and path is left as it was.
func (w *Writer) Materialize(ctx context.Context, path string, force bool, produce Produce) (string, error) {
	exists, err := Exists(path)
	if err != nil {
		return "", err
	}
	if exists && !force {
		w.logger.Debug("artifact cache hit", slog.String("path", path))
		return path, nil
	}

	if err := os.MkdirAll(filepath.Dir(path), w.dirMode); err != nil {
		return "", fmt.Errorf("cache: create directory for %s: %w", path, err)
	}

	data, err := produce(ctx)
	if err != nil {
		return "", fmt.Errorf("cache: produce %s: %w", path, err)
	}
	if err := ctx.Err(); err != nil {
		return "", fmt.Errorf("cache: produce %s: %w", path, err)
	}

	if err := atomicwriter.WriteFile(path, data, w.fileMode); err != nil {
		return "", fmt.Errorf("cache: write %s: %w", path, err)
	}

	w.logger.Info("artifact materialized",
		slog.String("path", path),
		slog.Int("bytes", len(data)),
		slog.Bool("forced", force),
	)
	return path, nil
}

// Exists reports whether path is an existing regular file. A directory at
// path is an error wrapping shuttle.ErrNotRegularFile.
func Exists(path string) (bool, error) {
	info, err := os.Stat(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return false, nil
	case err != nil:
		return false, fmt.Errorf("cache: stat %s: %w", path, err)
	case !info.Mode().IsRegular():
		return false, fmt.Errorf("%w: %s", shuttle.ErrNotRegularFile, path)
	}
	return true, nil
}
