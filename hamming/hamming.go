// Package hamming computes the Hamming distance between two 256-bit PDQ
// hashes.
package hamming

import (
	"math/bits"

	"pdqindex-go/pdqhash"
)

// Distance returns the number of differing bits between a and b, in
// [0, pdqhash.BitLength]. Branch-free, allocation-free: four uint64
// XOR-popcounts over the hash's byte layout.
func Distance(a, b pdqhash.Hash) int {
	var d int
	for w := 0; w < pdqhash.Size; w += 8 {
		xa := beUint64(a[w : w+8])
		xb := beUint64(b[w : w+8])
		d += bits.OnesCount64(xa ^ xb)
	}
	return d
}

func beUint64(b []byte) uint64 {
	_ = b[7]
	return uint64(b[0])<<56 | uint64(b[1])<<48 | uint64(b[2])<<40 | uint64(b[3])<<32 |
		uint64(b[4])<<24 | uint64(b[5])<<16 | uint64(b[6])<<8 | uint64(b[7])
}
