package backend

import (
	"encoding/binary"
	"hash/crc32"
)

// shardRouter assigns a stored id to one of a small, fixed number of
// in-process shards so FlatBackend.RangeSearch can scan them concurrently.
// It never crosses a process or network boundary and is rebuilt whenever
// the shard count changes — this is a partitioning scheme for goroutine
// fan-out within a single RangeSearch call, not the distributed sharding
// spec.md's non-goals exclude.
//
// The assignment table is built with the same permutation-based
// construction as a Maglev consistent-hash lookup table (offset/skip per
// shard, round-robin candidate claiming): it spreads ids evenly across
// shards independent of how many ids ultimately exist, so growing the
// index never needs to rebuild the table.
type shardRouter struct {
	numShards int
	lookup    []uint8 // table[h % len(table)] = shard index
}

// lookupTableSize is a prime deliberately small relative to chash's
// SmallSize/LargeSize (which are sized for routing millions of network
// connections); a shard router only ever needs to discriminate among a
// handful of goroutines.
const lookupTableSize = 1031

func newShardRouter(numShards int) *shardRouter {
	if numShards < 1 {
		numShards = 1
	}
	if numShards > 255 {
		numShards = 255
	}
	r := &shardRouter{numShards: numShards}
	r.build()
	return r
}

type shardPermutation struct {
	offset uint32
	skip   uint32
}

func (r *shardRouter) build() {
	perms := make([]shardPermutation, r.numShards)
	for s := 0; s < r.numShards; s++ {
		tag := shardTag(s)
		perms[s] = shardPermutation{
			offset: crc32.ChecksumIEEE(append(tag, "offset"...)) % lookupTableSize,
			skip:   crc32.ChecksumIEEE(append(tag, "skip"...))%(lookupTableSize-1) + 1,
		}
	}

	r.lookup = make([]uint8, lookupTableSize)
	entry := make([]int, lookupTableSize)
	for i := range entry {
		entry[i] = -1
	}

	next := make([]uint32, r.numShards)
	var filled uint32
	for filled < lookupTableSize {
		for s := 0; s < r.numShards; s++ {
			candidate := (perms[s].offset + next[s]*perms[s].skip) % lookupTableSize
			for entry[candidate] >= 0 {
				next[s]++
				candidate = (perms[s].offset + next[s]*perms[s].skip) % lookupTableSize
			}
			entry[candidate] = s
			r.lookup[candidate] = uint8(s)
			next[s]++
			filled++
			if filled == lookupTableSize {
				return
			}
		}
	}
}

func shardTag(shard int) []byte {
	var b [4]byte
	binary.BigEndian.PutUint32(b[:], uint32(shard))
	return b[:]
}

// ShardOf returns the shard index an id is routed to.
func (r *shardRouter) ShardOf(id uint32) int {
	h := crc32.ChecksumIEEE(idBytes(id))
	return int(r.lookup[h%lookupTableSize])
}

func idBytes(id uint32) []byte {
	var b [4]byte
	binary.BigEndian.PutUint32(b[:], id)
	return b[:]
}

// partition splits [0, n) into r.numShards index slices. Ids are appended
// in increasing order, so each shard's slice comes out already sorted.
func (r *shardRouter) partition(n int) [][]uint32 {
	shards := make([][]uint32, r.numShards)
	for id := 0; id < n; id++ {
		s := r.ShardOf(uint32(id))
		shards[s] = append(shards[s], uint32(id))
	}
	return shards
}
