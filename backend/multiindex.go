package backend

import (
	"encoding/binary"
	"fmt"

	"pdqindex-go/hamming"
	"pdqindex-go/pdqhash"
)

// subKeys is the number of disjoint sub-keys a 256-bit hash is split into.
// Each sub-key is exactly one byte (8 bits): 32 sub-keys * 8 bits =
// pdqhash.BitLength. By the pigeonhole principle, any two hashes at
// Hamming distance d share at least one identical sub-key whenever
// d < subKeys — which is why spec.md's recommended MultiIndexBackend
// threshold (31) is one less than subKeys.
const subKeys = pdqhash.Size // one byte per sub-key

// MultiIndexBackend is the multi-index Hamming Backend: it keeps subKeys
// independent tables, one per byte position, each mapping that byte's
// value to the ids of every stored hash sharing it. A query's candidate
// set is the union of the subKeys bucket lookups; every candidate is then
// checked against the true Hamming distance. Grounded on
// piinecone-go-simstore's Store (sub-key tables + bucket scan + id dedup),
// generalized from 64-bit/16-table/distance-3 to 256-bit/32-table, which
// supports exact range search up to distance 31 instead of 3.
type MultiIndexBackend struct {
	hashes []pdqhash.Hash
	tables [subKeys]map[byte][]uint32
}

// NewMultiIndexBackend constructs an empty MultiIndexBackend.
func NewMultiIndexBackend() *MultiIndexBackend {
	m := &MultiIndexBackend{}
	for i := range m.tables {
		m.tables[i] = make(map[byte][]uint32)
	}
	return m
}

func (m *MultiIndexBackend) AddMany(hashes []pdqhash.Hash) []uint32 {
	ids := make([]uint32, len(hashes))
	for i, h := range hashes {
		id := uint32(len(m.hashes))
		m.hashes = append(m.hashes, h)
		for si := 0; si < subKeys; si++ {
			b := h[si]
			m.tables[si][b] = append(m.tables[si][b], id)
		}
		ids[i] = id
	}
	return ids
}

func (m *MultiIndexBackend) Len() int { return len(m.hashes) }

func (m *MultiIndexBackend) RangeSearch(queries []pdqhash.Hash, threshold int) [][]Match {
	results := make([][]Match, len(queries))
	for qi, q := range queries {
		seen := make(map[uint32]struct{})
		var matches []Match
		for si := 0; si < subKeys; si++ {
			for _, id := range m.tables[si][q[si]] {
				if _, ok := seen[id]; ok {
					continue
				}
				seen[id] = struct{}{}
				if d := hamming.Distance(m.hashes[id], q); d <= threshold {
					matches = append(matches, Match{ID: id, Distance: d})
				}
			}
		}
		if matches == nil {
			matches = []Match{}
		}
		results[qi] = matches
	}
	return results
}

// MarshalBinary encodes the stored hash list; the subKeys tables are
// derived state and are rebuilt from it on UnmarshalBinary rather than
// serialized directly.
func (m *MultiIndexBackend) MarshalBinary() ([]byte, error) {
	out := make([]byte, 4+len(m.hashes)*pdqhash.Size)
	binary.BigEndian.PutUint32(out, uint32(len(m.hashes)))
	for i, h := range m.hashes {
		copy(out[4+i*pdqhash.Size:], h[:])
	}
	return out, nil
}

func (m *MultiIndexBackend) UnmarshalBinary(data []byte) error {
	if len(data) < 4 {
		return fmt.Errorf("backend: truncated multi-index snapshot")
	}
	count := binary.BigEndian.Uint32(data)
	want := 4 + int(count)*pdqhash.Size
	if len(data) != want {
		return fmt.Errorf("backend: multi-index snapshot length mismatch: got %d bytes, want %d", len(data), want)
	}
	hashes := make([]pdqhash.Hash, count)
	for i := range hashes {
		copy(hashes[i][:], data[4+i*pdqhash.Size:4+(i+1)*pdqhash.Size])
	}
	*m = *NewMultiIndexBackend()
	m.AddMany(hashes)
	return nil
}
