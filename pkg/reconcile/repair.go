package reconcile

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"sync"

	"github.com/sdejongh/foldercheck/pkg/models"
	"github.com/sdejongh/foldercheck/pkg/ratelimit"
	"github.com/sdejongh/foldercheck/pkg/storage"
)

// CopyOutcome is the result of copying one missing file
type CopyOutcome string

const (
	CopyDone    CopyOutcome = "copied"
	CopyExists  CopyOutcome = "exists"
	CopyFailure CopyOutcome = "failed"
)

// CopyResult describes one repaired (or not) file
type CopyResult struct {
	Source  string
	Dest    string
	Outcome CopyOutcome
	Bytes   int64
	Err     error
}

// Repairer copies missing files from the left folder into the right one
type Repairer struct {
	left       storage.Backend
	right      storage.Backend
	maxWorkers int
	semaphore  chan struct{}
	limiter    *ratelimit.Limiter
}

// NewRepairer creates a repairer running at most maxWorkers copies at once
func NewRepairer(left, right storage.Backend, maxWorkers int, limiter *ratelimit.Limiter) *Repairer {
	if maxWorkers < 1 {
		maxWorkers = 1
	}
	return &Repairer{
		left:       left,
		right:      right,
		maxWorkers: maxWorkers,
		semaphore:  make(chan struct{}, maxWorkers),
		limiter:    limiter,
	}
}

// Repair copies every path of missing to <right>/<base name>.
// An existing destination is never overwritten. Per-file failures are
// returned in the results; only cancellation returns an error.
// onResult is called once per file, possibly from several goroutines.
func (r *Repairer) Repair(ctx context.Context, missing models.MissingSet, onResult func(CopyResult)) ([]CopyResult, error) {
	results := make([]CopyResult, len(missing))
	var wg sync.WaitGroup

	for i, src := range missing {
		// Acquire semaphore slot
		select {
		case r.semaphore <- struct{}{}:
		case <-ctx.Done():
			wg.Wait()
			return results[:i], ctx.Err()
		}
		wg.Add(1)

		go func(i int, src string) {
			defer wg.Done()
			defer func() { <-r.semaphore }()

			res := r.copyFile(ctx, src)
			results[i] = res
			if onResult != nil {
				onResult(res)
			}
		}(i, src)
	}

	wg.Wait()

	if err := ctx.Err(); err != nil {
		return results, err
	}
	return results, nil
}

// copyFile copies a single file with metadata preservation
func (r *Repairer) copyFile(ctx context.Context, src string) CopyResult {
	name := filepath.Base(src)
	res := CopyResult{Source: src, Dest: filepath.Join(r.right.Root(), name)}

	exists, err := r.right.Exists(ctx, name)
	if err != nil {
		res.Outcome = CopyFailure
		res.Err = models.NewError(models.KindWrite, "check destination", res.Dest, err)
		return res
	}
	if exists {
		res.Outcome = CopyExists
		return res
	}

	// Get source metadata to preserve timestamps and permissions
	info, err := r.left.Stat(ctx, name)
	if err != nil {
		res.Outcome = CopyFailure
		res.Err = models.NewError(models.KindWrite, "stat source", src, err)
		return res
	}

	source, err := r.left.Read(ctx, name)
	if err != nil {
		res.Outcome = CopyFailure
		res.Err = models.NewError(models.KindWrite, "read source", src, err)
		return res
	}
	reader := ratelimit.NewReadCloser(ctx, source, r.limiter)
	defer reader.Close()

	if err := r.right.Write(ctx, name, reader, info.Size, info); err != nil {
		// Lost a race with another writer; same as an existing destination
		if errors.Is(err, fs.ErrExist) {
			res.Outcome = CopyExists
			return res
		}
		res.Outcome = CopyFailure
		res.Err = models.NewError(models.KindWrite, "copy", res.Dest, fmt.Errorf("failed to write destination: %w", err))
		return res
	}

	res.Outcome = CopyDone
	res.Bytes = info.Size
	return res
}
