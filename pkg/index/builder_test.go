package index

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/sdejongh/foldercheck/pkg/hashing"
	"github.com/sdejongh/foldercheck/pkg/models"
	"github.com/sdejongh/foldercheck/pkg/storage"
)

type fixture struct {
	t       *testing.T
	dir     string
	backend *storage.Local
}

func newFixture(t *testing.T, files map[string]string) *fixture {
	t.Helper()
	dir := t.TempDir()
	for name, content := range files {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0644); err != nil {
			t.Fatalf("failed to create file: %v", err)
		}
	}
	backend, err := storage.NewLocal(dir)
	if err != nil {
		t.Fatalf("NewLocal() error = %v", err)
	}
	return &fixture{t: t, dir: backend.Root(), backend: backend}
}

func (f *fixture) path(name string) string {
	return filepath.Join(f.dir, name)
}

func newHasher(t *testing.T, mode models.HashType) *hashing.Hasher {
	t.Helper()
	alg, err := hashing.Lookup("md5")
	if err != nil {
		t.Fatalf("Lookup() error = %v", err)
	}
	h, err := hashing.NewHasher(alg, mode, 0)
	if err != nil {
		t.Fatalf("NewHasher() error = %v", err)
	}
	return h
}

func TestBuild(t *testing.T) {
	ctx := context.Background()

	t.Run("OneEntryPerFile", func(t *testing.T) {
		fx := newFixture(t, map[string]string{"a.txt": "a", "b.txt": "b", "c.txt": "c"})
		b := NewBuilder(newHasher(t, models.HashContents))

		res, err := b.Build(ctx, fx.backend)
		if err != nil {
			t.Fatalf("Build() error = %v", err)
		}
		if res.Index.Len() != 3 {
			t.Fatalf("Len() = %d, want 3", res.Index.Len())
		}

		var paths []string
		res.Index.Range(func(_ models.Digest, p string) bool {
			paths = append(paths, p)
			return true
		})
		want := []string{fx.path("a.txt"), fx.path("b.txt"), fx.path("c.txt")}
		if diff := cmp.Diff(want, paths); diff != "" {
			t.Errorf("index order mismatch (-want +got):\n%s", diff)
		}
		if res.Bytes != 3 {
			t.Errorf("Bytes = %d, want 3", res.Bytes)
		}
	})

	t.Run("DuplicateContentLastInListingWins", func(t *testing.T) {
		fx := newFixture(t, map[string]string{"a.txt": "x", "b.txt": "x"})
		h := newHasher(t, models.HashContents)

		var mu sync.Mutex
		var events []EventType
		b := NewBuilder(h, WithWorkers(4), WithObserver(func(ev Event) {
			mu.Lock()
			events = append(events, ev.Type)
			mu.Unlock()
		}))

		res, err := b.Build(ctx, fx.backend)
		if err != nil {
			t.Fatalf("Build() error = %v", err)
		}
		if res.Index.Len() != 1 {
			t.Fatalf("Len() = %d, want 1", res.Index.Len())
		}
		digest := res.Index.Keys()[0]
		if digest != "9dd4e461268c8034f5c8564e155c67a6" {
			t.Errorf("digest = %s, want md5 of \"x\"", digest)
		}
		if got, _ := res.Index.Get(digest); got != fx.path("b.txt") {
			t.Errorf("surviving path = %s, want b.txt", got)
		}
		if diff := cmp.Diff([]EventType{EventListed, EventHashed, EventReplaced}, events); diff != "" {
			t.Errorf("events mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("ProtectedNamesNeverHashed", func(t *testing.T) {
		fx := newFixture(t, map[string]string{
			"contents.csv":  "report",
			"contents.json": "{}",
			"missing.txt":   "list",
			"custom.out":    "custom report",
			"photo.jpg":     "img",
		})
		b := NewBuilder(newHasher(t, models.HashContents), WithProtected("custom.out"))

		res, err := b.Build(ctx, fx.backend)
		if err != nil {
			t.Fatalf("Build() error = %v", err)
		}
		if res.Index.Len() != 1 {
			t.Fatalf("Len() = %d, want 1", res.Index.Len())
		}
		res.Index.Range(func(_ models.Digest, p string) bool {
			if p != fx.path("photo.jpg") {
				t.Errorf("unexpected indexed path %s", p)
			}
			return true
		})
		if len(res.Ignored) != 4 {
			t.Errorf("Ignored = %v, want 4 names", res.Ignored)
		}
		for _, name := range []string{"contents.csv", "missing.txt", "custom.out"} {
			if !b.IsProtected(name) {
				t.Errorf("IsProtected(%q) = false", name)
			}
		}
	})

	t.Run("ExcludePatterns", func(t *testing.T) {
		fx := newFixture(t, map[string]string{"keep.txt": "k", "scratch.tmp": "t", "debug.log": "l"})
		b := NewBuilder(newHasher(t, models.HashContents), WithExclude("*.tmp", "**/*.log", ".git/"))

		res, err := b.Build(ctx, fx.backend)
		if err != nil {
			t.Fatalf("Build() error = %v", err)
		}
		if res.Index.Len() != 1 {
			t.Errorf("Len() = %d, want 1", res.Index.Len())
		}
	})

	t.Run("UnreadableFileSkipped", func(t *testing.T) {
		if os.Geteuid() == 0 {
			t.Skip("root can read any file")
		}
		fx := newFixture(t, map[string]string{"ok.txt": "ok", "locked.txt": "secret"})
		if err := os.Chmod(fx.path("locked.txt"), 0); err != nil {
			t.Fatalf("chmod: %v", err)
		}
		defer os.Chmod(fx.path("locked.txt"), 0644)

		res, err := NewBuilder(newHasher(t, models.HashContents)).Build(ctx, fx.backend)
		if err != nil {
			t.Fatalf("Build() error = %v, per-file errors must not abort", err)
		}
		if res.Index.Len() != 1 || len(res.Failures) != 1 {
			t.Errorf("Len() = %d, Failures = %d; want 1, 1", res.Index.Len(), len(res.Failures))
		}
		if !models.IsKind(res.Failures[0], models.KindHash) {
			t.Errorf("failure kind = %q, want hash", models.KindOf(res.Failures[0]))
		}
	})

	t.Run("FilenamesMode", func(t *testing.T) {
		fx := newFixture(t, map[string]string{"a.txt": "same", "b.txt": "same"})
		res, err := NewBuilder(newHasher(t, models.HashFilenames)).Build(ctx, fx.backend)
		if err != nil {
			t.Fatalf("Build() error = %v", err)
		}
		if res.Index.Len() != 2 {
			t.Errorf("Len() = %d, want 2 (names differ)", res.Index.Len())
		}
		if res.Bytes != 0 {
			t.Errorf("Bytes = %d, want 0 in filenames mode", res.Bytes)
		}
	})

	t.Run("Cancelled", func(t *testing.T) {
		fx := newFixture(t, map[string]string{"a.txt": "a"})
		cctx, cancel := context.WithCancel(ctx)
		cancel()
		if _, err := NewBuilder(newHasher(t, models.HashContents)).Build(cctx, fx.backend); err == nil {
			t.Error("Build() should fail when cancelled")
		}
	})
}
