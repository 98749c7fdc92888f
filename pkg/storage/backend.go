package storage

import (
	"context"
	"io"
	"time"
)

// FileInfo represents metadata about a file directly inside a backend root
type FileInfo struct {
	Name        string // base name, relative to the root
	Path        string // absolute path
	Size        int64
	ModTime     time.Time
	AccessTime  time.Time
	Permissions uint32
}

// Backend defines the interface for storage operations on a single,
// non-recursive directory. Names passed to the methods are base names
// relative to the root.
type Backend interface {
	// Root returns the absolute directory path
	Root() string

	// List returns the regular files directly inside the root
	List(ctx context.Context) ([]FileInfo, error)

	// Read opens a file for reading
	Read(ctx context.Context, name string) (io.ReadCloser, error)

	// Write creates a new file with the given content; it fails if the file exists.
	// If metadata is provided, timestamps and permissions are preserved.
	Write(ctx context.Context, name string, reader io.Reader, size int64, metadata *FileInfo) error

	// Delete removes a file; a missing file is not an error
	Delete(ctx context.Context, name string) error

	// Exists checks if a file exists
	Exists(ctx context.Context, name string) (bool, error)

	// Stat returns file metadata
	Stat(ctx context.Context, name string) (*FileInfo, error)

	// Close releases any resources held by the backend
	Close() error
}
