// Package entrystore maintains the hash-to-id dedup table and the
// per-id ordered metadata lists of a pdqindex.Index.
package entrystore

import "pdqindex-go/pdqhash"

// Store holds the dedup table (hash -> id) and the ordered metadata lists
// (id -> []M) of an index. It never removes entries: ids are stable for
// the store's lifetime.
type Store[M any] struct {
	dedup   map[pdqhash.Hash]uint32
	entries [][]M
}

// New constructs an empty Store.
func New[M any]() *Store[M] {
	return &Store[M]{dedup: make(map[pdqhash.Hash]uint32)}
}

// Upsert records m against hash. If hash already has an id, m is appended
// to that id's metadata list and existed is true. Otherwise a new id is
// assigned (len(s.entries) before the insert) and existed is false.
func (s *Store[M]) Upsert(hash pdqhash.Hash, m M) (id uint32, existed bool) {
	if id, ok := s.dedup[hash]; ok {
		s.entries[id] = append(s.entries[id], m)
		return id, true
	}
	id = uint32(len(s.entries))
	s.dedup[hash] = id
	s.entries = append(s.entries, []M{m})
	return id, false
}

// MetadataFor returns the metadata slice for id. Every id ever returned by
// Upsert maps to a non-empty slice; out-of-range ids return nil.
func (s *Store[M]) MetadataFor(id uint32) []M {
	if int(id) >= len(s.entries) {
		return nil
	}
	return s.entries[id]
}

// Len returns the number of distinct hashes recorded.
func (s *Store[M]) Len() int { return len(s.entries) }

// IDOf reports the id assigned to hash, if any.
func (s *Store[M]) IDOf(hash pdqhash.Hash) (id uint32, ok bool) {
	id, ok = s.dedup[hash]
	return id, ok
}

// Snapshot returns the data needed to persist the store: the ordered hash
// list (index i is id i's hash) and the parallel entries slice. Callers
// must not mutate the returned slices.
func (s *Store[M]) Snapshot() (hashes []pdqhash.Hash, entries [][]M) {
	hashes = make([]pdqhash.Hash, len(s.entries))
	for h, id := range s.dedup {
		hashes[id] = h
	}
	return hashes, s.entries
}

// Restore rebuilds a Store from a hash list and parallel entries list
// produced by Snapshot. Returns false if the lengths disagree or any
// entries slice is empty, which would violate the store's invariants.
func Restore[M any](hashes []pdqhash.Hash, entries [][]M) (*Store[M], bool) {
	if len(hashes) != len(entries) {
		return nil, false
	}
	s := &Store[M]{
		dedup:   make(map[pdqhash.Hash]uint32, len(hashes)),
		entries: entries,
	}
	for id, h := range hashes {
		if len(entries[id]) == 0 {
			return nil, false
		}
		s.dedup[h] = uint32(id)
	}
	return s, true
}
