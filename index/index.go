// Package index implements the public facade (spec's Index Facade
// component): Add/AddAll/Query/Len over a Hash Codec, Dihedral
// Transformer, Range Search Backend, and Entry Store.
package index

import (
	"github.com/creasty/defaults"
	"github.com/dustin/go-humanize"
	"github.com/inhies/go-bytesize"

	"pdqindex-go/backend"
	"pdqindex-go/dihedral"
	"pdqindex-go/entrystore"
	"pdqindex-go/pdqhash"
)

// DefaultThresholdFlat is the recommended match threshold for the flat
// scan backend.
const DefaultThresholdFlat = 52

// DefaultThresholdMultiIndex is PDQ_CONFIDENT_MATCH_THRESHOLD: the
// recommended match threshold for the multi-index backend.
const DefaultThresholdMultiIndex = 31

// metadataHeaderBytes approximates the per-id bookkeeping overhead of one
// entry's metadata slice header, used only by EstimatedMemory.
const metadataHeaderBytes = 24

// Hasher is the external collaborator that turns image bytes into a PDQ
// hash string and a quality score. The index never calls it directly —
// it's named here so callers (and ingestkey) can depend on its shape
// without depending on a concrete decoder.
type Hasher interface {
	HashFile(path string) (hash string, quality int, err error)
}

// Match is one result of Query: metadata carried by a matched id, with the
// Hamming distance of the orientation that first hit it.
type Match[M any] struct {
	Distance int
	Metadata M
}

// Index is the similarity index: insert/query over 256-bit PDQ hashes with
// range search by Hamming distance, de-duplication of identical hashes,
// association of arbitrary metadata M to hashes, and query-time
// aggregation across the eight dihedral orientations.
//
// Index exposes no internal synchronization: concurrent Query calls are
// safe provided no Add/AddAll runs concurrently; Add/AddAll require
// exclusive access. Callers needing both must add their own
// sync.RWMutex around an Index. integritymonitor calls Query from its own
// goroutine and takes no lock, so its checks are not synchronized with
// Add/AddAll calls made while it runs.
type Index[M any] struct {
	cfg     Config
	backend backend.Backend
	entries *entrystore.Store[M]
}

// New constructs an empty Index with the given threshold and backend
// kind. Returns ErrInvalidThreshold if threshold is outside
// [0, pdqhash.BitLength].
func New[M any](threshold int, kind backend.Kind, opts ...Option) (*Index[M], error) {
	cfg := Config{
		Threshold: threshold,
		Backend:   kind,
		logger:    defaultLogger(),
	}
	for _, opt := range opts {
		if err := opt(&cfg); err != nil {
			return nil, err
		}
	}
	if err := defaults.Set(&cfg); err != nil {
		return nil, err
	}
	if cfg.Threshold < 0 || cfg.Threshold > pdqhash.BitLength {
		return nil, ErrInvalidThreshold
	}

	var be backend.Backend
	if cfg.Backend == backend.KindFlat {
		be = backend.NewFlatBackendWithShards(cfg.ShardCount)
	} else {
		be = backend.New(cfg.Backend)
	}

	if cfg.Backend == backend.KindMultiIndex && cfg.Threshold >= pdqhash.Size {
		cfg.logger.Warn().
			Int("threshold", cfg.Threshold).
			Msg("multi-index backend cannot guarantee exact recall at or above its sub-key count; consider the flat backend")
	}

	return &Index[M]{
		cfg:     cfg,
		backend: be,
		entries: entrystore.New[M](),
	}, nil
}

// Add validates hash and associates m with it. Duplicate hashes are not an
// error: m is appended to the existing id's metadata list.
func (ix *Index[M]) Add(hash string, m M) error {
	return ix.AddAll(func(yield func(string, M) bool) {
		yield(hash, m)
	})
}

// AddAll validates every (hash, m) pair before mutating any state: a
// malformed hash anywhere in items aborts the whole call with no effect.
func (ix *Index[M]) AddAll(items func(yield func(string, M) bool)) error {
	type pending struct {
		hash pdqhash.Hash
		m    M
	}
	var buffered []pending
	var parseErr error
	items(func(s string, m M) bool {
		h, err := pdqhash.HexToHash(s)
		if err != nil {
			parseErr = ErrMalformedHash
			return false
		}
		buffered = append(buffered, pending{hash: h, m: m})
		return true
	})
	if parseErr != nil {
		return parseErr
	}

	var newHashes []pdqhash.Hash
	for _, p := range buffered {
		_, existed := ix.entries.Upsert(p.hash, p.m)
		if !existed {
			newHashes = append(newHashes, p.hash)
		}
	}
	if len(newHashes) > 0 {
		ix.backend.AddMany(newHashes)
	}

	ix.cfg.logger.Debug().
		Int("submitted", len(buffered)).
		Int("new_hashes", len(newHashes)).
		Str("estimated_memory", humanize.Bytes(uint64(ix.EstimatedMemory()))).
		Msg("add_all complete")
	return nil
}

// Query computes the 8 dihedral orientations of hash, submits them to the
// backend in one batched range search, and returns one Match per (hit id,
// metadata entry), in the order the ids were first seen. The distance
// reported is from the orientation that hit the id first, not the
// minimum across all 8 (spec.md Open Question #1: first-hit, matching the
// reference PDQIndex/PDQIndex2 behavior — see DESIGN.md).
func (ix *Index[M]) Query(hash string) ([]Match[M], error) {
	h, err := pdqhash.HexToHash(hash)
	if err != nil {
		return nil, ErrMalformedHash
	}

	orientations := dihedral.Transforms(h)
	queries := make([]pdqhash.Hash, len(orientations))
	copy(queries, orientations[:])

	perOrientation := ix.backend.RangeSearch(queries, ix.cfg.Threshold)

	var matches []Match[M]
	seen := make(map[uint32]struct{})
	for _, hits := range perOrientation {
		for _, hit := range hits {
			if _, ok := seen[hit.ID]; ok {
				continue
			}
			seen[hit.ID] = struct{}{}
			for _, m := range ix.entries.MetadataFor(hit.ID) {
				matches = append(matches, Match[M]{Distance: hit.Distance, Metadata: m})
			}
		}
	}
	return matches, nil
}

// Len returns the number of distinct hashes stored.
func (ix *Index[M]) Len() int { return ix.entries.Len() }

// Threshold returns the index's configured match threshold.
func (ix *Index[M]) Threshold() int { return ix.cfg.Threshold }

// BackendKind returns the index's configured backend kind.
func (ix *Index[M]) BackendKind() backend.Kind { return ix.cfg.Backend }

// EstimatedMemory reports the spec.md §5 memory formula: N*32 bytes of
// hash storage plus N metadata-list headers. Payload bytes for M are not
// counted since the index core never inspects M.
func (ix *Index[M]) EstimatedMemory() bytesize.ByteSize {
	n := float64(ix.Len())
	return bytesize.ByteSize(n*float64(pdqhash.Size) + n*metadataHeaderBytes)
}

// Entries exposes the underlying entry store. Intended for package
// snapshot, which needs direct access to Snapshot/Restore; other callers
// should prefer Query/Add/Len.
func (ix *Index[M]) Entries() *entrystore.Store[M] { return ix.entries }

// Backend exposes the underlying range-search backend. Intended for
// package snapshot, which marshals/unmarshals its binary state as part
// of the envelope round trip.
func (ix *Index[M]) Backend() backend.Backend { return ix.backend }

// FromParts builds an Index around an already-populated backend and entry
// store, applying the same option/defaulting path as New. Used by package
// snapshot's Restore to reassemble an index from a decoded envelope.
func FromParts[M any](threshold int, kind backend.Kind, be backend.Backend, entries *entrystore.Store[M], opts ...Option) (*Index[M], error) {
	cfg := Config{
		Threshold: threshold,
		Backend:   kind,
		logger:    defaultLogger(),
	}
	for _, opt := range opts {
		if err := opt(&cfg); err != nil {
			return nil, err
		}
	}
	if err := defaults.Set(&cfg); err != nil {
		return nil, err
	}
	if cfg.Threshold < 0 || cfg.Threshold > pdqhash.BitLength {
		return nil, ErrInvalidThreshold
	}
	return &Index[M]{cfg: cfg, backend: be, entries: entries}, nil
}
