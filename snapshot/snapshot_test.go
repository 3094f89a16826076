package snapshot

import (
	"bytes"
	"strings"
	"testing"

	"github.com/fxamacker/cbor/v2"

	"pdqindex-go/backend"
	"pdqindex-go/index"
)

// stringCodec is a trivial Codec[string] used only by these tests; real
// callers bring their own metadata encoding.
type stringCodec struct{}

func (stringCodec) Marshal(m string) ([]byte, error) { return []byte(m), nil }

func (stringCodec) Unmarshal(data []byte) (string, error) { return string(data), nil }

func buildIndex(t *testing.T) *index.Index[string] {
	t.Helper()
	ix, err := index.New[string](31, backend.KindFlat)
	if err != nil {
		t.Fatal(err)
	}
	if err := ix.Add(strings.Repeat("ab", 32), "first"); err != nil {
		t.Fatal(err)
	}
	if err := ix.Add(strings.Repeat("cd", 32), "second"); err != nil {
		t.Fatal(err)
	}
	if err := ix.Add(strings.Repeat("ab", 32), "duplicate"); err != nil {
		t.Fatal(err)
	}
	return ix
}

func TestSnapshotRestoreRoundTrip(t *testing.T) {
	ix := buildIndex(t)

	var buf bytes.Buffer
	if err := Snapshot(&buf, ix, stringCodec{}, false); err != nil {
		t.Fatal(err)
	}

	restored, err := Restore[string](&buf, stringCodec{})
	if err != nil {
		t.Fatal(err)
	}

	if restored.Len() != ix.Len() {
		t.Fatalf("Len() = %d, want %d", restored.Len(), ix.Len())
	}
	if restored.Threshold() != ix.Threshold() {
		t.Fatalf("Threshold() = %d, want %d", restored.Threshold(), ix.Threshold())
	}
	if restored.Backend().Len() != ix.Backend().Len() {
		t.Fatalf("Backend().Len() = %d, want %d", restored.Backend().Len(), ix.Backend().Len())
	}

	matches, err := restored.Query(strings.Repeat("ab", 32))
	if err != nil {
		t.Fatal(err)
	}
	if len(matches) != 2 {
		t.Fatalf("expected 2 matches after restore, got %+v", matches)
	}
}

func TestSnapshotRestoreRoundTripCompressed(t *testing.T) {
	ix := buildIndex(t)

	var buf bytes.Buffer
	if err := Snapshot(&buf, ix, stringCodec{}, true); err != nil {
		t.Fatal(err)
	}

	restored, err := Restore[string](&buf, stringCodec{})
	if err != nil {
		t.Fatal(err)
	}
	if restored.Len() != ix.Len() {
		t.Fatalf("Len() = %d, want %d", restored.Len(), ix.Len())
	}
}

func TestRestoreRejectsUnknownVersion(t *testing.T) {
	var buf bytes.Buffer
	if err := Snapshot(&buf, buildIndex(t), stringCodec{}, false); err != nil {
		t.Fatal(err)
	}
	raw := buf.Bytes()
	raw[0] = formatVersion + 1

	_, err := Restore[string](bytes.NewReader(raw), stringCodec{})
	if err != index.ErrIndexCorrupt {
		t.Fatalf("got %v, want ErrIndexCorrupt", err)
	}
}

func TestRestoreRejectsTruncatedEnvelope(t *testing.T) {
	_, err := Restore[string](bytes.NewReader([]byte{formatVersion, 0, 1}), stringCodec{})
	if err != index.ErrIndexCorrupt {
		t.Fatalf("got %v, want ErrIndexCorrupt", err)
	}
}

func TestSnapshotUsesBackendBinaryState(t *testing.T) {
	ix := buildIndex(t)

	var buf bytes.Buffer
	if err := Snapshot(&buf, ix, stringCodec{}, false); err != nil {
		t.Fatal(err)
	}

	wantState, err := ix.Backend().MarshalBinary()
	if err != nil {
		t.Fatal(err)
	}

	var p payload
	raw := buf.Bytes()
	body := raw[envelopeHeaderSize:]
	if err := cbor.Unmarshal(body, &p); err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(p.BackendState, wantState) {
		t.Fatalf("BackendState in envelope does not match Backend().MarshalBinary()")
	}
}
