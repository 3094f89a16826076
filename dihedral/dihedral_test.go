package dihedral

import (
	"strings"
	"testing"

	"pdqindex-go/pdqhash"
)

func mustHash(t *testing.T, s string) pdqhash.Hash {
	t.Helper()
	h, err := pdqhash.HexToHash(s)
	if err != nil {
		t.Fatalf("HexToHash(%q): %v", s, err)
	}
	return h
}

// originalHash is the spec.md S1/S2 fixture: top half all-1 rows, bottom
// half all-0 rows.
func originalHash(t *testing.T) pdqhash.Hash {
	return mustHash(t, strings.Repeat("f", 32)+strings.Repeat("0", 32))
}

func TestTransformsKnownVectors(t *testing.T) {
	h := originalHash(t)
	ts := Transforms(h)

	want := map[Transform]string{
		Identity:       strings.Repeat("f", 32) + strings.Repeat("0", 32),
		Rotate90:       strings.Repeat("00ff", 16),
		Rotate180:      strings.Repeat("0", 32) + strings.Repeat("f", 32),
		Rotate270:      strings.Repeat("ff00", 16),
		FlipHorizontal: strings.Repeat("f", 32) + strings.Repeat("0", 32),
		FlipVertical:   strings.Repeat("0", 32) + strings.Repeat("f", 32),
		FlipHRotate90:  strings.Repeat("00ff", 16),
		FlipHRotate270: strings.Repeat("ff00", 16),
	}
	for transform, hex := range want {
		if got := ts[transform].Hex(); got != hex {
			t.Errorf("transform %d: got %q, want %q", transform, got, hex)
		}
	}
}

func TestIdentityFirst(t *testing.T) {
	h := originalHash(t)
	ts := Transforms(h)
	if ts[0] != h {
		t.Errorf("Transforms(h)[0] must equal h")
	}
}

func TestCount(t *testing.T) {
	h := originalHash(t)
	ts := Transforms(h)
	if len(ts) != 8 {
		t.Errorf("expected 8 transforms, got %d", len(ts))
	}
}

func TestClosureUnderComposition(t *testing.T) {
	// Applying the transform set to any of the 8 outputs of h yields the
	// same set of 8 hashes (D4 closure).
	h := mustHash(t, "0123456789abcdef0123456789abcdef0123456789abcdef0123456789abcdef")
	base := Transforms(h)

	baseSet := map[pdqhash.Hash]bool{}
	for _, v := range base {
		baseSet[v] = true
	}

	for _, orientation := range base {
		again := Transforms(orientation)
		for _, v := range again {
			if !baseSet[v] {
				t.Errorf("transform of an orientation produced a hash outside the original closure: %x", v)
			}
		}
	}
}
