package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/sdejongh/foldercheck/pkg/logging"
	"github.com/sdejongh/foldercheck/pkg/models"
)

// ErrExists is returned by Write when the destination file already exists
var ErrExists = fs.ErrExist

// Metadata setters, swapped out in tests
var (
	chmod   = os.Chmod
	chtimes = os.Chtimes
)

// Local is a filesystem-based storage backend
type Local struct {
	rootPath string
	logger   logging.Logger
}

// NewLocal creates a new local filesystem backend
func NewLocal(rootPath string) (*Local, error) {
	if rootPath == "" {
		return nil, models.NewError(models.KindConfig, "open folder", rootPath, errors.New("path is empty"))
	}

	absPath, err := filepath.Abs(rootPath)
	if err != nil {
		return nil, models.NewError(models.KindConfig, "resolve folder", rootPath, err)
	}

	info, err := os.Stat(absPath)
	if err != nil {
		return nil, models.NewError(models.KindConfig, "open folder", absPath, err)
	}

	if !info.IsDir() {
		return nil, models.NewError(models.KindConfig, "open folder", absPath, errors.New("not a directory"))
	}

	return &Local{rootPath: absPath, logger: logging.NewNullLogger()}, nil
}

// SetLogger sets the logger used for entries skipped while listing
func (l *Local) SetLogger(logger logging.Logger) {
	if logger == nil {
		logger = logging.NewNullLogger()
	}
	l.logger = logger
}

// Root returns the absolute root directory
func (l *Local) Root() string {
	return l.rootPath
}

// List returns the regular files directly inside the root, in os.ReadDir
// order (sorted by name). Subdirectories and special files are skipped.
func (l *Local) List(ctx context.Context) ([]FileInfo, error) {
	entries, err := os.ReadDir(l.rootPath)
	if err != nil {
		return nil, models.NewError(models.KindScan, "list", l.rootPath, err)
	}

	files := make([]FileInfo, 0, len(entries))
	for _, entry := range entries {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		// Stat follows symlinks so a link to a regular file counts as one
		info, err := os.Stat(filepath.Join(l.rootPath, entry.Name()))
		if err != nil {
			// Vanished or dangling entry, nothing to hash
			l.logger.Debug(ctx, "Skipping unreadable entry", logging.Fields{
				"dir":   l.rootPath,
				"file":  entry.Name(),
				"error": err.Error(),
			})
			continue
		}
		if !info.Mode().IsRegular() {
			continue
		}

		files = append(files, l.fileInfo(entry.Name(), info))
	}

	return files, nil
}

// Read opens a file for reading
func (l *Local) Read(ctx context.Context, name string) (io.ReadCloser, error) {
	fullPath, err := l.resolve(name)
	if err != nil {
		return nil, err
	}

	file, err := os.Open(fullPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}

	return file, nil
}

// Write creates a new file; it never overwrites an existing one
func (l *Local) Write(ctx context.Context, name string, reader io.Reader, size int64, metadata *FileInfo) error {
	fullPath, err := l.resolve(name)
	if err != nil {
		return err
	}

	file, err := os.OpenFile(fullPath, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0644)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}

	written, err := io.Copy(file, reader)
	if closeErr := file.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		os.Remove(fullPath)
		return fmt.Errorf("failed to write file: %w", err)
	}

	if size >= 0 && written != size {
		os.Remove(fullPath)
		return fmt.Errorf("incomplete write: expected %d bytes, wrote %d", size, written)
	}

	if metadata != nil {
		if err := applyMetadata(fullPath, metadata); err != nil {
			// A file without its metadata would pass as copied on the next listing
			os.Remove(fullPath)
			return err
		}
	}

	return nil
}

// applyMetadata copies permissions and timestamps onto path
func applyMetadata(path string, metadata *FileInfo) error {
	if metadata.Permissions != 0 {
		if err := chmod(path, os.FileMode(metadata.Permissions)); err != nil {
			return fmt.Errorf("failed to set permissions: %w", err)
		}
	}

	if !metadata.ModTime.IsZero() {
		atime := metadata.AccessTime
		if atime.IsZero() {
			atime = metadata.ModTime
		}
		if err := chtimes(path, atime, metadata.ModTime); err != nil {
			return fmt.Errorf("failed to set modification time: %w", err)
		}
	}
	return nil
}

// Delete removes a file
func (l *Local) Delete(ctx context.Context, name string) error {
	fullPath, err := l.resolve(name)
	if err != nil {
		return err
	}

	if err := os.Remove(fullPath); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete: %w", err)
	}

	return nil
}

// Exists checks if a file exists
func (l *Local) Exists(ctx context.Context, name string) (bool, error) {
	fullPath, err := l.resolve(name)
	if err != nil {
		return false, err
	}

	_, err = os.Lstat(fullPath)
	if err == nil {
		return true, nil
	}
	if os.IsNotExist(err) {
		return false, nil
	}
	return false, fmt.Errorf("failed to check existence: %w", err)
}

// Stat returns file metadata
func (l *Local) Stat(ctx context.Context, name string) (*FileInfo, error) {
	fullPath, err := l.resolve(name)
	if err != nil {
		return nil, err
	}

	info, err := os.Stat(fullPath)
	if err != nil {
		return nil, fmt.Errorf("failed to stat file: %w", err)
	}

	fi := l.fileInfo(name, info)
	return &fi, nil
}

// Close releases resources (no-op for local filesystem)
func (l *Local) Close() error {
	return nil
}

// resolve maps a base name to an absolute path, refusing anything that
// would leave the root
func (l *Local) resolve(name string) (string, error) {
	if !models.IsPlainFilename(name) {
		return "", fmt.Errorf("invalid file name %q: must be a plain name inside %s", name, l.rootPath)
	}
	return filepath.Join(l.rootPath, name), nil
}

func (l *Local) fileInfo(name string, info os.FileInfo) FileInfo {
	return FileInfo{
		Name:        name,
		Path:        filepath.Join(l.rootPath, name),
		Size:        info.Size(),
		ModTime:     info.ModTime(),
		AccessTime:  accessTime(info),
		Permissions: uint32(info.Mode().Perm()),
	}
}
