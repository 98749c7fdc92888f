// Package compare finds left-side files whose fingerprint is absent on the right.
package compare

import (
	"github.com/sdejongh/foldercheck/pkg/models"
)

// Diff returns the left paths whose digest is not a key of right, in left
// index order. It has no side effects.
func Diff(left, right *models.FingerprintIndex) models.MissingSet {
	missing := models.MissingSet{}
	if left == nil {
		return missing
	}
	left.Range(func(digest models.Digest, path string) bool {
		if right == nil || !right.Has(digest) {
			missing = append(missing, path)
		}
		return true
	})
	return missing
}

// Covered reports whether every left digest appears on the right
func Covered(left, right *models.FingerprintIndex) bool {
	return len(Diff(left, right)) == 0
}
