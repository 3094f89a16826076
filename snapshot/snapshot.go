// Package snapshot implements the index's serialization contract: a
// versioned envelope wrapping a CBOR payload, with optional zstd
// compression, that can rebuild an index.Index byte-for-byte equivalent
// to the one it was taken from. Entry metadata is opaque to this
// package: callers supply a Codec[M] so the index core never dictates
// how M is encoded.
package snapshot

import (
	"bytes"
	"fmt"
	"io"

	"github.com/fxamacker/cbor/v2"
	"github.com/google/uuid"
	"github.com/klauspost/compress/zstd"

	"pdqindex-go/backend"
	"pdqindex-go/entrystore"
	"pdqindex-go/index"
	"pdqindex-go/pdqhash"
	ilog "pdqindex-go/x/log"
)

// Codec marshals and unmarshals one index entry's metadata. Callers
// supply their own: the index core is generic over M and never encodes
// it itself.
type Codec[M any] interface {
	Marshal(m M) ([]byte, error)
	Unmarshal(data []byte) (M, error)
}

// formatVersion is byte 0 of every envelope. Bumping it is a breaking
// change to the wire format; Restore rejects any other value.
const formatVersion = 1

const (
	flagUncompressed byte = 0
	flagZstd         byte = 1
)

// envelopeHeaderSize is formatVersion (1) + uuid (16) + compression flag (1).
const envelopeHeaderSize = 1 + 16 + 1

// payload is the CBOR-encoded body of an envelope. Entries are
// pre-marshaled by the caller's Codec, so payload itself only ever holds
// plain bytes/strings — it never needs M to be CBOR-serializable.
type payload struct {
	Threshold    int
	Backend      backend.Kind
	Hashes       []string
	Entries      [][][]byte
	BackendState []byte
}

// Snapshot writes a versioned, optionally zstd-compressed snapshot of ix
// to w, encoding each entry's metadata with codec.
func Snapshot[M any](w io.Writer, ix *index.Index[M], codec Codec[M], compress bool) error {
	hashes, entries := ix.Entries().Snapshot()
	hexHashes := make([]string, len(hashes))
	for i, h := range hashes {
		hexHashes[i] = h.Hex()
	}

	encodedEntries := make([][][]byte, len(entries))
	for id, ms := range entries {
		encoded := make([][]byte, len(ms))
		for i, m := range ms {
			data, err := codec.Marshal(m)
			if err != nil {
				return fmt.Errorf("snapshot: marshal metadata for id %d: %w", id, err)
			}
			encoded[i] = data
		}
		encodedEntries[id] = encoded
	}

	backendState, err := ix.Backend().MarshalBinary()
	if err != nil {
		return fmt.Errorf("snapshot: marshal backend state: %w", err)
	}

	p := payload{
		Threshold:    ix.Threshold(),
		Backend:      ix.BackendKind(),
		Hashes:       hexHashes,
		Entries:      encodedEntries,
		BackendState: backendState,
	}

	body, err := cbor.Marshal(p)
	if err != nil {
		return fmt.Errorf("snapshot: marshal payload: %w", err)
	}

	flag := flagUncompressed
	if compress {
		var buf bytes.Buffer
		enc, err := zstd.NewWriter(&buf)
		if err != nil {
			return fmt.Errorf("snapshot: new zstd writer: %w", err)
		}
		if _, err := enc.Write(body); err != nil {
			enc.Close()
			return fmt.Errorf("snapshot: zstd compress: %w", err)
		}
		if err := enc.Close(); err != nil {
			return fmt.Errorf("snapshot: zstd close: %w", err)
		}
		body = buf.Bytes()
		flag = flagZstd
	}

	id := uuid.New()
	header := make([]byte, 0, envelopeHeaderSize)
	header = append(header, formatVersion)
	idBytes, _ := id.MarshalBinary()
	header = append(header, idBytes...)
	header = append(header, flag)

	if _, err := w.Write(header); err != nil {
		return fmt.Errorf("snapshot: write header: %w", err)
	}
	if _, err := w.Write(body); err != nil {
		return fmt.Errorf("snapshot: write body: %w", err)
	}

	ilog.Logger.Debug().
		Str("snapshot_id", id.String()).
		Int("entries", len(hashes)).
		Msg("wrote index snapshot")
	return nil
}

// Restore reads an envelope written by Snapshot and rebuilds an
// index.Index from it, decoding each entry's metadata with codec.
// Returns index.ErrIndexCorrupt if the envelope's version is
// unrecognized, its body fails to decode, or its internal lists are
// inconsistent.
func Restore[M any](r io.Reader, codec Codec[M], opts ...index.Option) (*index.Index[M], error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("snapshot: read envelope: %w", err)
	}
	if len(raw) < envelopeHeaderSize {
		return nil, index.ErrIndexCorrupt
	}
	if raw[0] != formatVersion {
		return nil, index.ErrIndexCorrupt
	}

	var id uuid.UUID
	if err := id.UnmarshalBinary(raw[1:17]); err != nil {
		return nil, index.ErrIndexCorrupt
	}
	flag := raw[17]
	body := raw[envelopeHeaderSize:]

	switch flag {
	case flagUncompressed:
		// body is already plain CBOR.
	case flagZstd:
		dec, err := zstd.NewReader(bytes.NewReader(body))
		if err != nil {
			return nil, index.ErrIndexCorrupt
		}
		defer dec.Close()
		decoded, err := io.ReadAll(dec)
		if err != nil {
			return nil, index.ErrIndexCorrupt
		}
		body = decoded
	default:
		return nil, index.ErrIndexCorrupt
	}

	var p payload
	if err := cbor.Unmarshal(body, &p); err != nil {
		return nil, index.ErrIndexCorrupt
	}
	if len(p.Hashes) != len(p.Entries) {
		return nil, index.ErrIndexCorrupt
	}

	hashes := make([]pdqhash.Hash, len(p.Hashes))
	for i, hex := range p.Hashes {
		h, err := pdqhash.HexToHash(hex)
		if err != nil {
			return nil, index.ErrIndexCorrupt
		}
		hashes[i] = h
	}

	entries := make([][]M, len(p.Entries))
	for eid, encoded := range p.Entries {
		ms := make([]M, len(encoded))
		for i, data := range encoded {
			m, err := codec.Unmarshal(data)
			if err != nil {
				return nil, index.ErrIndexCorrupt
			}
			ms[i] = m
		}
		entries[eid] = ms
	}

	store, ok := entrystore.Restore[M](hashes, entries)
	if !ok {
		return nil, index.ErrIndexCorrupt
	}

	var be backend.Backend
	if p.Backend == backend.KindFlat {
		be = backend.NewFlatBackend()
	} else {
		be = backend.New(p.Backend)
	}
	if err := be.UnmarshalBinary(p.BackendState); err != nil {
		return nil, index.ErrIndexCorrupt
	}
	if be.Len() != len(hashes) {
		return nil, index.ErrIndexCorrupt
	}

	ix, err := index.FromParts(p.Threshold, p.Backend, be, store, opts...)
	if err != nil {
		return nil, err
	}

	ilog.Logger.Debug().
		Str("snapshot_id", id.String()).
		Int("entries", len(hashes)).
		Msg("restored index snapshot")
	return ix, nil
}
