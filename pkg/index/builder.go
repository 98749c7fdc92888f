// Package index builds fingerprint indexes of single directories.
package index

import (
	"context"
	"runtime"

	"github.com/sourcegraph/conc/pool"

	"github.com/sdejongh/foldercheck/pkg/hashing"
	"github.com/sdejongh/foldercheck/pkg/logging"
	"github.com/sdejongh/foldercheck/pkg/models"
	"github.com/sdejongh/foldercheck/pkg/storage"
)

// EventType tells an Observer what happened to a listed file
type EventType string

const (
	EventListed    EventType = "listed" // once per build; Count holds the number of files to hash
	EventHashed    EventType = "hashed"
	EventReplaced  EventType = "replaced" // hashed, and displaced an earlier file with the same digest
	EventProtected EventType = "protected"
	EventExcluded  EventType = "excluded"
	EventFailed    EventType = "failed"
)

// Event describes the outcome for a single listed file
type Event struct {
	Type   EventType
	Dir    string
	Name   string
	Path   string
	Digest models.Digest
	Size   int64
	Count  int
	Err    error
}

// Observer receives protected and excluded events while the listing is
// filtered, one EventListed, then one event per eligible file in listing order
type Observer func(Event)

// Result is a built index plus what was left out of it
type Result struct {
	Index    *models.FingerprintIndex
	Failures []error  // per-file hash errors; those files are not indexed
	Ignored  []string // protected or excluded names
	Bytes    int64    // bytes fingerprinted (contents mode)
}

// Builder maps every eligible file of a directory to its digest
type Builder struct {
	hasher   *hashing.Hasher
	filter   *filter
	workers  int
	logger   logging.Logger
	observer Observer

	protected []string
	patterns  []string
}

// Option configures a Builder
type Option func(*Builder)

// WithProtected adds names that are never fingerprinted
func WithProtected(names ...string) Option {
	return func(b *Builder) { b.protected = append(b.protected, names...) }
}

// WithExclude adds glob patterns matched against file names
func WithExclude(patterns ...string) Option {
	return func(b *Builder) { b.patterns = append(b.patterns, patterns...) }
}

// WithWorkers bounds the number of files hashed concurrently
func WithWorkers(n int) Option {
	return func(b *Builder) { b.workers = n }
}

// WithLogger sets the logger
func WithLogger(l logging.Logger) Option {
	return func(b *Builder) { b.logger = l }
}

// WithObserver sets a per-file callback
func WithObserver(o Observer) Option {
	return func(b *Builder) { b.observer = o }
}

// NewBuilder creates an index builder
func NewBuilder(hasher *hashing.Hasher, opts ...Option) *Builder {
	b := &Builder{
		hasher:  hasher,
		workers: runtime.NumCPU(),
		logger:  logging.NewNullLogger(),
	}
	for _, opt := range opts {
		opt(b)
	}
	if b.workers < 1 {
		b.workers = 1
	}
	if b.logger == nil {
		b.logger = logging.NewNullLogger()
	}
	b.filter = newFilter(b.protected, b.patterns)
	return b
}

// IsProtected reports whether name is one of the protected report names
func (b *Builder) IsProtected(name string) bool {
	return b.filter.isProtected(name)
}

type hashResult struct {
	digest models.Digest
	err    error
}

// Build lists the backend root and fingerprints every eligible file.
//
// Files are hashed concurrently but inserted in listing order, so when two
// files share a digest the later one in the listing owns the entry.
// A file that cannot be hashed is skipped and reported in Result.Failures.
// Listing failures and cancellation abort the build.
func (b *Builder) Build(ctx context.Context, backend storage.Backend) (*Result, error) {
	dir := backend.Root()
	log := b.logger.WithFields(logging.Fields{"dir": dir})

	files, err := backend.List(ctx)
	if err != nil {
		return nil, err
	}

	res := &Result{Index: models.NewFingerprintIndex(dir)}

	eligible := make([]storage.FileInfo, 0, len(files))
	for _, f := range files {
		switch {
		case b.filter.isProtected(f.Name):
			res.Ignored = append(res.Ignored, f.Name)
			b.notify(Event{Type: EventProtected, Dir: dir, Name: f.Name, Path: f.Path, Size: f.Size})
		case b.filter.isExcluded(f.Name):
			res.Ignored = append(res.Ignored, f.Name)
			b.notify(Event{Type: EventExcluded, Dir: dir, Name: f.Name, Path: f.Path, Size: f.Size})
		default:
			eligible = append(eligible, f)
		}
	}

	b.notify(Event{Type: EventListed, Dir: dir, Count: len(eligible)})

	results := make([]hashResult, len(eligible))
	p := pool.New().WithMaxGoroutines(b.workers).WithContext(ctx)
	for i := range eligible {
		i := i
		p.Go(func(ctx context.Context) error {
			digest, err := b.hasher.Hash(ctx, eligible[i].Path)
			results[i] = hashResult{digest: digest, err: err}
			// Only cancellation stops the pool; per-file errors are kept in results
			return ctx.Err()
		})
	}
	if err := p.Wait(); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, err
	}

	for i, f := range eligible {
		r := results[i]
		if r.err != nil {
			res.Failures = append(res.Failures, r.err)
			log.Warn(ctx, "Skipping unhashable file", logging.Fields{"file": f.Name, "error": r.err.Error()})
			b.notify(Event{Type: EventFailed, Dir: dir, Name: f.Name, Path: f.Path, Size: f.Size, Err: r.err})
			continue
		}

		ev := EventHashed
		if replaced := res.Index.Set(r.digest, f.Path); replaced {
			ev = EventReplaced
			log.Debug(ctx, "Digest collision, later file replaces earlier entry", logging.Fields{
				"file":   f.Name,
				"digest": string(r.digest),
			})
		}
		if b.hasher.Mode() == models.HashContents {
			res.Bytes += f.Size
		}
		b.notify(Event{Type: ev, Dir: dir, Name: f.Name, Path: f.Path, Digest: r.digest, Size: f.Size})
	}

	log.Debug(ctx, "Index built", logging.Fields{
		"entries":  res.Index.Len(),
		"failures": len(res.Failures),
		"ignored":  len(res.Ignored),
	})

	return res, nil
}

func (b *Builder) notify(ev Event) {
	if b.observer != nil {
		b.observer(ev)
	}
}
