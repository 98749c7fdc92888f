package compare

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/sdejongh/foldercheck/pkg/models"
)

func buildIndex(dir string, pairs ...string) *models.FingerprintIndex {
	idx := models.NewFingerprintIndex(dir)
	for i := 0; i+1 < len(pairs); i += 2 {
		idx.Set(models.Digest(pairs[i]), pairs[i+1])
	}
	return idx
}

func TestDiff(t *testing.T) {
	tests := []struct {
		name  string
		left  *models.FingerprintIndex
		right *models.FingerprintIndex
		want  models.MissingSet
	}{
		{
			name:  "EmptyRight",
			left:  buildIndex("L", "d1", "L/a.txt", "d2", "L/b.txt"),
			right: buildIndex("R"),
			want:  models.MissingSet{"L/a.txt", "L/b.txt"},
		},
		{
			name:  "AllPresent",
			left:  buildIndex("L", "d1", "L/a.txt"),
			right: buildIndex("R", "d1", "R/renamed.txt", "d9", "R/extra.txt"),
			want:  models.MissingSet{},
		},
		{
			name:  "KeepsLeftOrder",
			left:  buildIndex("L", "d3", "L/z.txt", "d1", "L/a.txt", "d2", "L/m.txt"),
			right: buildIndex("R", "d1", "R/a.txt"),
			want:  models.MissingSet{"L/z.txt", "L/m.txt"},
		},
		{
			name:  "EmptyLeft",
			left:  buildIndex("L"),
			right: buildIndex("R", "d1", "R/a.txt"),
			want:  models.MissingSet{},
		},
		{
			name:  "NilRight",
			left:  buildIndex("L", "d1", "L/a.txt"),
			right: nil,
			want:  models.MissingSet{"L/a.txt"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Diff(tt.left, tt.right)
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("Diff() mismatch (-want +got):\n%s", diff)
			}
			if Covered(tt.left, tt.right) != (len(tt.want) == 0) {
				t.Errorf("Covered() disagrees with Diff()")
			}
		})
	}
}

func TestDiffIsPure(t *testing.T) {
	left := buildIndex("L", "d1", "L/a.txt", "d2", "L/b.txt")
	right := buildIndex("R", "d2", "R/b.txt")

	first := Diff(left, right)
	second := Diff(left, right)
	if diff := cmp.Diff(first, second); diff != "" {
		t.Errorf("repeated Diff() differs (-first +second):\n%s", diff)
	}
	if left.Len() != 2 || right.Len() != 1 {
		t.Errorf("Diff() modified its inputs")
	}
}
