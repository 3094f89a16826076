package backend

import (
	"encoding/binary"
	"fmt"

	"golang.org/x/sync/errgroup"

	"pdqindex-go/hamming"
	"pdqindex-go/pdqhash"
)

// shardThreshold is the minimum number of stored hashes before
// RangeSearch bothers splitting work across shards; below it the
// goroutine/errgroup overhead isn't worth it.
const shardThreshold = 2048

// FlatBackend is the linear-scan Backend: a contiguous slice of distinct
// hashes, scanned in full for every query. Best for small N or large
// thresholds (spec.md recommends threshold 52 for this backend). For large
// N, RangeSearch partitions the stored ids across a small number of
// in-process shards (backend/shard.go) and scans them concurrently.
type FlatBackend struct {
	hashes []pdqhash.Hash
	shards int
}

// NewFlatBackend constructs an empty FlatBackend that fans out
// RangeSearch across defaultShardCount (4) shards once it holds at least
// shardThreshold entries.
func NewFlatBackend() *FlatBackend {
	return &FlatBackend{shards: defaultShardCount()}
}

// NewFlatBackendWithShards lets a caller pin the fan-out width explicitly
// (e.g. for deterministic tests or to match an operator's CPU budget).
func NewFlatBackendWithShards(shards int) *FlatBackend {
	return &FlatBackend{shards: shards}
}

func defaultShardCount() int {
	return 4
}

func (b *FlatBackend) AddMany(hashes []pdqhash.Hash) []uint32 {
	ids := make([]uint32, len(hashes))
	start := len(b.hashes)
	for i := range hashes {
		ids[i] = uint32(start + i)
	}
	b.hashes = append(b.hashes, hashes...)
	return ids
}

func (b *FlatBackend) Len() int { return len(b.hashes) }

func (b *FlatBackend) RangeSearch(queries []pdqhash.Hash, threshold int) [][]Match {
	results := make([][]Match, len(queries))
	for i := range results {
		results[i] = []Match{}
	}
	if len(b.hashes) == 0 {
		return results
	}

	if len(b.hashes) < shardThreshold || b.shards <= 1 {
		b.scanRange(0, len(b.hashes), queries, threshold, results)
		return results
	}

	router := newShardRouter(b.shards)
	shards := router.partition(len(b.hashes))

	perShard := make([][][]Match, len(shards))
	var g errgroup.Group
	for s := range shards {
		s := s
		perShard[s] = make([][]Match, len(queries))
		for i := range perShard[s] {
			perShard[s][i] = []Match{}
		}
		g.Go(func() error {
			for _, id := range shards[s] {
				h := b.hashes[id]
				for qi, q := range queries {
					if d := hamming.Distance(h, q); d <= threshold {
						perShard[s][qi] = append(perShard[s][qi], Match{ID: id, Distance: d})
					}
				}
			}
			return nil
		})
	}
	_ = g.Wait() // scanning never errors; errgroup here only buys structured fan-out

	for s := range perShard {
		for qi := range results {
			results[qi] = append(results[qi], perShard[s][qi]...)
		}
	}
	return results
}

func (b *FlatBackend) scanRange(lo, hi int, queries []pdqhash.Hash, threshold int, results [][]Match) {
	for id := lo; id < hi; id++ {
		h := b.hashes[id]
		for qi, q := range queries {
			if d := hamming.Distance(h, q); d <= threshold {
				results[qi] = append(results[qi], Match{ID: uint32(id), Distance: d})
			}
		}
	}
}

// MarshalBinary encodes the stored hashes as a length-prefixed flat byte
// array: 4-byte count, then count*32 bytes of hash data.
func (b *FlatBackend) MarshalBinary() ([]byte, error) {
	out := make([]byte, 4+len(b.hashes)*pdqhash.Size)
	binary.BigEndian.PutUint32(out, uint32(len(b.hashes)))
	for i, h := range b.hashes {
		copy(out[4+i*pdqhash.Size:], h[:])
	}
	return out, nil
}

func (b *FlatBackend) UnmarshalBinary(data []byte) error {
	if len(data) < 4 {
		return fmt.Errorf("backend: truncated flat snapshot")
	}
	count := binary.BigEndian.Uint32(data)
	want := 4 + int(count)*pdqhash.Size
	if len(data) != want {
		return fmt.Errorf("backend: flat snapshot length mismatch: got %d bytes, want %d", len(data), want)
	}
	hashes := make([]pdqhash.Hash, count)
	for i := range hashes {
		copy(hashes[i][:], data[4+i*pdqhash.Size:4+(i+1)*pdqhash.Size])
	}
	b.hashes = hashes
	if b.shards == 0 {
		b.shards = defaultShardCount()
	}
	return nil
}
