package models

// Digest is the hex-encoded fingerprint of a file's contents or name
type Digest string

// IndexHeaders are the column names emitted in front of every persisted index
var IndexHeaders = []string{"hash_value", "filepath"}

// FingerprintIndex maps digests to file paths for a single directory.
//
// Keys keep their first insertion position. Setting a digest that is already
// present replaces its path in place, so when several files share a digest the
// last one inserted wins and the earlier ones disappear from the index.
type FingerprintIndex struct {
	// Dir is the directory the index was built from
	Dir string

	keys  []Digest
	paths map[Digest]string
}

// IndexEntry is a single digest/path pair
type IndexEntry struct {
	Digest Digest `json:"hash_value"`
	Path   string `json:"filepath"`
}

// NewFingerprintIndex creates an empty index for dir
func NewFingerprintIndex(dir string) *FingerprintIndex {
	return &FingerprintIndex{
		Dir:   dir,
		paths: make(map[Digest]string),
	}
}

// Set records path under digest and reports whether an earlier path was replaced
func (idx *FingerprintIndex) Set(digest Digest, path string) (replaced bool) {
	if _, exists := idx.paths[digest]; exists {
		idx.paths[digest] = path
		return true
	}
	idx.keys = append(idx.keys, digest)
	idx.paths[digest] = path
	return false
}

// Get returns the path recorded for digest
func (idx *FingerprintIndex) Get(digest Digest) (string, bool) {
	path, ok := idx.paths[digest]
	return path, ok
}

// Has reports whether digest is a key of the index
func (idx *FingerprintIndex) Has(digest Digest) bool {
	_, ok := idx.paths[digest]
	return ok
}

// Len returns the number of distinct digests
func (idx *FingerprintIndex) Len() int {
	if idx == nil {
		return 0
	}
	return len(idx.keys)
}

// Keys returns the digests in insertion order
func (idx *FingerprintIndex) Keys() []Digest {
	keys := make([]Digest, len(idx.keys))
	copy(keys, idx.keys)
	return keys
}

// Entries returns all pairs in insertion order
func (idx *FingerprintIndex) Entries() []IndexEntry {
	entries := make([]IndexEntry, 0, len(idx.keys))
	for _, k := range idx.keys {
		entries = append(entries, IndexEntry{Digest: k, Path: idx.paths[k]})
	}
	return entries
}

// Range calls fn for every pair in insertion order until fn returns false
func (idx *FingerprintIndex) Range(fn func(digest Digest, path string) bool) {
	for _, k := range idx.keys {
		if !fn(k, idx.paths[k]) {
			return
		}
	}
}

// MissingSet lists left-side paths whose digest is absent on the right,
// in left index order
type MissingSet []string
