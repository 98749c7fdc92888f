package index

import (
	"path/filepath"
	"strings"
)

// DefaultProtected are the report names the tool writes by default.
// They are never fingerprinted so a run cannot see its own output.
var DefaultProtected = []string{"contents.json", "contents.csv", "missing.txt"}

// filter decides which listed names take part in an index
type filter struct {
	protected map[string]struct{}
	patterns  []string
}

func newFilter(protected, patterns []string) *filter {
	f := &filter{protected: make(map[string]struct{})}
	for _, name := range DefaultProtected {
		f.protected[name] = struct{}{}
	}
	for _, name := range protected {
		if name != "" {
			f.protected[filepath.Base(name)] = struct{}{}
		}
	}
	for _, p := range patterns {
		if p = strings.TrimSpace(p); p != "" {
			f.patterns = append(f.patterns, p)
		}
	}
	return f
}

// isProtected reports an exact match against a protected report name
func (f *filter) isProtected(name string) bool {
	_, ok := f.protected[name]
	return ok
}

// isExcluded matches the base name against the glob patterns.
// Directory patterns ("build/") never match since listings hold only files.
func (f *filter) isExcluded(name string) bool {
	for _, pattern := range f.patterns {
		if strings.HasSuffix(pattern, "/") {
			continue
		}
		// Only the last element matters for a flat listing
		pattern = filepath.Base(filepath.FromSlash(strings.TrimPrefix(pattern, "**/")))
		if matched, _ := filepath.Match(pattern, name); matched {
			return true
		}
	}
	return false
}
