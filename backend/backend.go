// Package backend implements the range-search backends that store distinct
// PDQ hashes and answer all-within-distance-d queries: a linear scan
// (FlatBackend) and a multi-index Hamming backend (MultiIndexBackend).
package backend

import "pdqindex-go/pdqhash"

// Kind selects a backend implementation at index construction time. The
// threshold used against a Kind is a property of the caller, not of the
// Kind itself.
type Kind string

const (
	KindFlat       Kind = "flat"
	KindMultiIndex Kind = "multi_index"
)

// Match is one (id, distance) hit from a range search.
type Match struct {
	ID       uint32
	Distance int
}

// Backend is the contract a range-search structure must satisfy. Ids are
// dense and assigned in AddMany call order, starting from Len() at call
// time.
type Backend interface {
	// AddMany appends hashes and returns their newly assigned dense ids.
	AddMany(hashes []pdqhash.Hash) []uint32
	// RangeSearch returns, for each query (in the same order), every
	// stored id within threshold of it, paired with the true Hamming
	// distance. Order within a query's result slice is unspecified but
	// deterministic for a given backend state.
	RangeSearch(queries []pdqhash.Hash, threshold int) [][]Match
	// Len returns the number of distinct hashes stored.
	Len() int
	// MarshalBinary/UnmarshalBinary serialize and restore backend-internal
	// state for snapshot/restore (see package snapshot).
	MarshalBinary() ([]byte, error)
	UnmarshalBinary(data []byte) error
}

// New constructs an empty Backend of the given Kind.
func New(kind Kind) Backend {
	switch kind {
	case KindMultiIndex:
		return NewMultiIndexBackend()
	default:
		return NewFlatBackend()
	}
}
