package index

import "errors"

// ErrMalformedHash is returned by Add/AddAll/Query when a hash string is
// not 64 valid hex characters. No state is mutated.
var ErrMalformedHash = errors.New("index: malformed hash")

// ErrInvalidThreshold is returned by New when threshold is outside
// [0, pdqhash.BitLength].
var ErrInvalidThreshold = errors.New("index: threshold out of range")

// ErrIndexCorrupt is a fatal error: a restored snapshot (or, in principle,
// an internal invariant) failed validation. Callers should discard the
// index rather than keep using it.
var ErrIndexCorrupt = errors.New("index: corrupt index state")
