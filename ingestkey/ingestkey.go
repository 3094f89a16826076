// Package ingestkey computes a stable fingerprint for one ingestion
// request, so a retried or duplicate submission of the same
// (client, hash, nonce) tuple can be recognized before it reaches
// Index.Add. Adapted from the teacher's tuple_hash, which fingerprints a
// network 5-tuple; here the "tuple" is an ingestion request's identity
// instead of a packet's.
package ingestkey

import (
	"encoding/binary"
	"hash/crc32"

	"pdqindex-go/pdqhash"
)

// Fingerprint returns a crc32 checksum over clientID, hash, and nonce. Two
// calls with the same arguments always return the same value; the nonce
// lets a caller mint distinct fingerprints for legitimate repeat
// submissions (e.g. the same image re-hashed a day later) that should not
// be treated as duplicates.
func Fingerprint(clientID string, hash pdqhash.Hash, nonce uint32) uint32 {
	h := crc32.NewIEEE()
	h.Write([]byte(clientID))
	h.Write(hash[:])

	var nonceBytes [4]byte
	binary.BigEndian.PutUint32(nonceBytes[:], nonce)
	h.Write(nonceBytes[:])

	return h.Sum32()
}

// Seen de-duplicates fingerprints within a single process run. It is not
// persisted: a restart forgets everything it has seen, matching the
// teacher's in-memory-only approach to routing state.
type Seen struct {
	keys map[uint32]struct{}
}

// NewSeen returns an empty fingerprint set.
func NewSeen() *Seen {
	return &Seen{keys: make(map[uint32]struct{})}
}

// Check reports whether fingerprint has been recorded before, and records
// it if not. The first call for a given fingerprint always returns false.
func (s *Seen) Check(fingerprint uint32) (duplicate bool) {
	if _, ok := s.keys[fingerprint]; ok {
		return true
	}
	s.keys[fingerprint] = struct{}{}
	return false
}

// Len returns the number of distinct fingerprints recorded.
func (s *Seen) Len() int { return len(s.keys) }
