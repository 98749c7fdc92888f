package hashing

import (
	"crypto/md5"
	"crypto/sha1"
	"crypto/sha256"
	"crypto/sha512"
	"fmt"
	"hash"
	"sort"
	"strings"

	"golang.org/x/crypto/blake2b"
	"golang.org/x/crypto/blake2s"
	"golang.org/x/crypto/sha3"
)

// DefaultAlgorithm is used when no algorithm is configured.
// MD5 is picked for speed: fingerprints only need to tell accidental
// duplicates apart, not resist deliberate collisions.
const DefaultAlgorithm = "md5"

// Algorithm describes a digest function
type Algorithm struct {
	Name string
	Size int // digest size in bytes
	New  func() hash.Hash
}

var algorithms = map[string]*Algorithm{
	"md5":         {Name: "md5", Size: md5.Size, New: md5.New},
	"sha1":        {Name: "sha1", Size: sha1.Size, New: sha1.New},
	"sha224":      {Name: "sha224", Size: sha256.Size224, New: sha256.New224},
	"sha256":      {Name: "sha256", Size: sha256.Size, New: sha256.New},
	"sha384":      {Name: "sha384", Size: sha512.Size384, New: sha512.New384},
	"sha512":      {Name: "sha512", Size: sha512.Size, New: sha512.New},
	"sha512_224":  {Name: "sha512_224", Size: sha512.Size224, New: sha512.New512_224},
	"sha512_256":  {Name: "sha512_256", Size: sha512.Size256, New: sha512.New512_256},
	"sha3_224":    {Name: "sha3_224", Size: 28, New: sha3.New224},
	"sha3_256":    {Name: "sha3_256", Size: 32, New: sha3.New256},
	"sha3_384":    {Name: "sha3_384", Size: 48, New: sha3.New384},
	"sha3_512":    {Name: "sha3_512", Size: 64, New: sha3.New512},
	"blake2b":     {Name: "blake2b", Size: blake2b.Size, New: unkeyed(blake2b.New512)},
	"blake2b_256": {Name: "blake2b_256", Size: blake2b.Size256, New: unkeyed(blake2b.New256)},
	"blake2s":     {Name: "blake2s", Size: blake2s.Size, New: unkeyed(blake2s.New256)},
}

// unkeyed adapts the x/crypto constructors, which only fail for oversized keys
func unkeyed(fn func(key []byte) (hash.Hash, error)) func() hash.Hash {
	return func() hash.Hash {
		h, err := fn(nil)
		if err != nil {
			panic(err)
		}
		return h
	}
}

// Lookup returns the algorithm registered under name.
// Names are case-insensitive and accept '-' in place of '_'.
func Lookup(name string) (*Algorithm, error) {
	key := strings.ReplaceAll(strings.ToLower(strings.TrimSpace(name)), "-", "_")
	if key == "" {
		key = DefaultAlgorithm
	}
	alg, ok := algorithms[key]
	if !ok {
		return nil, fmt.Errorf("unsupported hash algorithm: %s (supported: %s)", name, strings.Join(Algorithms(), ", "))
	}
	return alg, nil
}

// Algorithms returns the supported algorithm names, sorted
func Algorithms() []string {
	names := make([]string, 0, len(algorithms))
	for name := range algorithms {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
