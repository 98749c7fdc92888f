package hashing

import (
	"context"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"

	"github.com/sdejongh/foldercheck/pkg/models"
)

// BlockSize is the read size used when hashing file contents
const BlockSize = 64 * 1024

// ReaderWrapper wraps the reader a file is hashed from (e.g., for rate limiting)
type ReaderWrapper func(ctx context.Context, r io.Reader) io.Reader

// Hasher computes a digest for a single file, either over its contents or
// over its base name
type Hasher struct {
	algorithm     *Algorithm
	mode          models.HashType
	blockSize     int
	bufferPool    *sync.Pool
	readerWrapper ReaderWrapper
}

// NewHasher creates a hasher for the given algorithm and mode.
// A zero blockSize selects BlockSize.
func NewHasher(algorithm *Algorithm, mode models.HashType, blockSize int) (*Hasher, error) {
	if algorithm == nil {
		return nil, fmt.Errorf("hash algorithm is required")
	}
	if !mode.Valid() {
		return nil, fmt.Errorf("unsupported hash type: %s", mode)
	}
	if blockSize <= 0 {
		blockSize = BlockSize
	}
	return &Hasher{
		algorithm: algorithm,
		mode:      mode,
		blockSize: blockSize,
		bufferPool: &sync.Pool{
			New: func() interface{} {
				buf := make([]byte, blockSize)
				return &buf
			},
		},
	}, nil
}

// SetReaderWrapper sets a function to wrap readers (e.g., for rate limiting)
func (h *Hasher) SetReaderWrapper(wrapper ReaderWrapper) {
	h.readerWrapper = wrapper
}

// Algorithm returns the configured algorithm
func (h *Hasher) Algorithm() *Algorithm {
	return h.algorithm
}

// Mode returns the configured hash type
func (h *Hasher) Mode() models.HashType {
	return h.mode
}

// Hash returns the digest of the file at path.
// Errors are *models.Error with KindHash; callers treat them as
// "hash unavailable" and skip the file.
func (h *Hasher) Hash(ctx context.Context, path string) (models.Digest, error) {
	if path == "" {
		return "", models.NewError(models.KindHash, "hash", path, fmt.Errorf("no path given"))
	}

	switch h.mode {
	case models.HashFilenames:
		if _, err := os.Stat(path); err != nil {
			return "", models.NewError(models.KindHash, "hash filename", path, err)
		}
		return h.HashName(filepath.Base(path)), nil
	default:
		digest, _, err := h.hashContents(ctx, path)
		return digest, err
	}
}

// HashName returns the digest of a raw file name
func (h *Hasher) HashName(name string) models.Digest {
	hasher := h.algorithm.New()
	hasher.Write([]byte(name))
	return models.Digest(hex.EncodeToString(hasher.Sum(nil)))
}

// HashContents returns the content digest and the number of bytes read
func (h *Hasher) HashContents(ctx context.Context, path string) (models.Digest, int64, error) {
	return h.hashContents(ctx, path)
}

func (h *Hasher) hashContents(ctx context.Context, path string) (models.Digest, int64, error) {
	file, err := os.Open(path)
	if err != nil {
		return "", 0, models.NewError(models.KindHash, "open", path, err)
	}
	defer file.Close()

	var reader io.Reader = file
	if h.readerWrapper != nil {
		reader = h.readerWrapper(ctx, reader)
	}

	hasher := h.algorithm.New()

	bufPtr := h.bufferPool.Get().(*[]byte)
	defer h.bufferPool.Put(bufPtr)
	buf := *bufPtr

	var total int64
	for {
		select {
		case <-ctx.Done():
			return "", total, ctx.Err()
		default:
		}

		n, err := reader.Read(buf)
		if n > 0 {
			hasher.Write(buf[:n])
			total += int64(n)
		}
		if err == io.EOF {
			break
		}
		if err != nil {
			return "", total, models.NewError(models.KindHash, "read", path, err)
		}
	}

	return models.Digest(hex.EncodeToString(hasher.Sum(nil))), total, nil
}
