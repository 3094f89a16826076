// Package dihedral produces the eight canonical dihedral (rotation + flip)
// re-orientations of a PDQ hash, precomputed as bit-permutation tables so
// that applying a transform is a single 256-element gather rather than a
// pair of nested grid loops.
package dihedral

import "pdqindex-go/pdqhash"

// Count is the number of transforms produced by Transforms: the 8 elements
// of the dihedral group D4.
const Count = 8

// Transform identifies one of the eight fixed-order re-orientations.
type Transform int

const (
	Identity Transform = iota
	Rotate90
	Rotate180
	Rotate270
	FlipHorizontal
	FlipVertical
	FlipHRotate90
	FlipHRotate270
)

// permutations[t][out] = in: bit `out` of the transformed hash copies bit
// permutations[t][out] of the source hash.
var permutations [Count][pdqhash.BitLength]int

func init() {
	for row := 0; row < 16; row++ {
		for col := 0; col < 16; col++ {
			in := row*16 + col

			// Identity
			permutations[Identity][in] = in

			// R90: out[j][15-i] = in[i][j]  =>  at out-position (j,15-i), source is (i,j)
			permutations[Rotate90][col*16+(15-row)] = in

			// R180: out[15-i][15-j] = in[i][j]
			permutations[Rotate180][(15-row)*16+(15-col)] = in

			// R270: out[15-j][i] = in[i][j]
			permutations[Rotate270][(15-col)*16+row] = in

			// FlipH: out[i][15-j] = in[i][j]
			permutations[FlipHorizontal][row*16+(15-col)] = in

			// FlipV: out[15-i][j] = in[i][j]
			permutations[FlipVertical][(15-row)*16+col] = in
		}
	}

	// Compositions: flip-H then rotate. Build by composing the
	// already-computed permutations rather than re-deriving grid formulas:
	// out = rotate(flipH(in)), so permutations[flipH+rot][out] walks
	// through the flipH permutation first.
	for out := 0; out < pdqhash.BitLength; out++ {
		mid90 := permutations[Rotate90][out]
		permutations[FlipHRotate90][out] = permutations[FlipHorizontal][mid90]

		mid270 := permutations[Rotate270][out]
		permutations[FlipHRotate270][out] = permutations[FlipHorizontal][mid270]
	}
}

// Apply returns the single transformed hash for t.
func Apply(t Transform, h pdqhash.Hash) pdqhash.Hash {
	g := h.Grid()
	var og [16][16]byte
	perm := &permutations[t]
	for out := 0; out < pdqhash.BitLength; out++ {
		in := perm[out]
		og[out/16][out%16] = g[in/16][in%16]
	}
	return pdqhash.FromGrid(og)
}

// Transforms returns, in the fixed order documented on Transform's
// constants, the 8 re-orientations of h. Identity is always first.
// Duplicates (possible for symmetric hashes) are not removed.
func Transforms(h pdqhash.Hash) [Count]pdqhash.Hash {
	var out [Count]pdqhash.Hash
	for t := Transform(0); t < Count; t++ {
		out[t] = Apply(t, h)
	}
	return out
}
