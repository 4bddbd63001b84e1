// Package storage abstracts where resource files live. Model weights, voice
// tables and tokenizer definitions are fetched through a FileStore so the
// same engine can load them from a local directory, an HTTP server, or an
// S3-compatible bucket.
//
// Use [Open] to pick a backend from a URL.
package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
)

// ErrReadOnly is returned by write operations on read-only backends.
var ErrReadOnly = errors.New("storage: read-only store")

// FileStore is a minimal interface for file-oriented storage.
//
// Paths are forward-slash separated and relative to the store root.
// Implementations must be safe for concurrent use.
type FileStore interface {
	// Read opens the named file for reading.
	// The caller must close the returned ReadCloser when done.
	// If the file does not exist, an error wrapping os.ErrNotExist is returned.
	Read(ctx context.Context, path string) (io.ReadCloser, error)

	// Write opens the named file for writing, truncating any existing file.
	// The caller must close the returned WriteCloser to flush data.
	// Read-only backends return ErrReadOnly.
	Write(ctx context.Context, path string) (io.WriteCloser, error)

	// Delete removes the named file. Missing files are not an error.
	Delete(ctx context.Context, path string) error

	// Exists reports whether the named file exists.
	Exists(ctx context.Context, path string) (bool, error)
}

// ReadAll reads the whole named file. A positive limit caps the size; larger
// files fail instead of being truncated.
func ReadAll(ctx context.Context, fs FileStore, path string, limit int64) ([]byte, error) {
	rc, err := fs.Read(ctx, path)
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	var r io.Reader = rc
	if limit > 0 {
		r = io.LimitReader(rc, limit+1)
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("storage: read %s: %w", path, err)
	}
	if limit > 0 && int64(len(data)) > limit {
		return nil, fmt.Errorf("storage: read %s: larger than %d bytes", path, limit)
	}
	return data, nil
}

// WriteAll writes data to the named file.
func WriteAll(ctx context.Context, fs FileStore, path string, data []byte) error {
	w, err := fs.Write(ctx, path)
	if err != nil {
		return err
	}
	if _, err := w.Write(data); err != nil {
		w.Close()
		return fmt.Errorf("storage: write %s: %w", path, err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("storage: write %s: %w", path, err)
	}
	return nil
}
