package backend

import (
	"math/rand"
	"strings"
	"testing"

	"pdqindex-go/pdqhash"
)

func mustHash(t *testing.T, s string) pdqhash.Hash {
	t.Helper()
	h, err := pdqhash.HexToHash(s)
	if err != nil {
		t.Fatalf("HexToHash(%q): %v", s, err)
	}
	return h
}

func randomHash(r *rand.Rand) pdqhash.Hash {
	var h pdqhash.Hash
	r.Read(h[:])
	return h
}

func TestFlatBackendAddAndLen(t *testing.T) {
	b := NewFlatBackend()
	h1 := mustHash(t, strings.Repeat("a", 64))
	h2 := mustHash(t, strings.Repeat("b", 64))
	ids := b.AddMany([]pdqhash.Hash{h1, h2})
	if ids[0] != 0 || ids[1] != 1 {
		t.Fatalf("unexpected ids: %v", ids)
	}
	if b.Len() != 2 {
		t.Fatalf("Len() = %d, want 2", b.Len())
	}
}

func TestFlatBackendExactMatch(t *testing.T) {
	b := NewFlatBackend()
	h := mustHash(t, strings.Repeat("f", 32)+strings.Repeat("0", 32))
	b.AddMany([]pdqhash.Hash{h})

	results := b.RangeSearch([]pdqhash.Hash{h}, 0)
	if len(results) != 1 || len(results[0]) != 1 {
		t.Fatalf("expected one match, got %v", results)
	}
	if results[0][0].Distance != 0 {
		t.Errorf("distance = %d, want 0", results[0][0].Distance)
	}
}

func TestFlatBackendRangeSearchConcurrentShards(t *testing.T) {
	r := rand.New(rand.NewSource(1))
	b := NewFlatBackend()

	const n = shardThreshold + 500
	hashes := make([]pdqhash.Hash, n)
	for i := range hashes {
		hashes[i] = randomHash(r)
	}
	b.AddMany(hashes)

	// Query with a stored hash exactly: must find itself at distance 0
	// regardless of which shard it landed in.
	target := hashes[n/2]
	results := b.RangeSearch([]pdqhash.Hash{target}, 0)
	foundSelf := false
	for _, m := range results[0] {
		if m.Distance == 0 {
			foundSelf = true
		}
	}
	if !foundSelf {
		t.Fatalf("expected a distance-0 self match among %d entries", n)
	}
}

func TestFlatBackendMarshalRoundTrip(t *testing.T) {
	b := NewFlatBackend()
	h1 := mustHash(t, strings.Repeat("a", 64))
	h2 := mustHash(t, strings.Repeat("b", 64))
	b.AddMany([]pdqhash.Hash{h1, h2})

	data, err := b.MarshalBinary()
	if err != nil {
		t.Fatal(err)
	}

	restored := NewFlatBackend()
	if err := restored.UnmarshalBinary(data); err != nil {
		t.Fatal(err)
	}
	if restored.Len() != 2 {
		t.Fatalf("restored Len() = %d, want 2", restored.Len())
	}
	results := restored.RangeSearch([]pdqhash.Hash{h1}, 0)
	if len(results[0]) != 1 {
		t.Fatalf("expected self match after restore, got %v", results)
	}
}

func TestFlatBackendEmptyQuery(t *testing.T) {
	b := NewFlatBackend()
	results := b.RangeSearch([]pdqhash.Hash{mustHash(t, strings.Repeat("0", 64))}, 10)
	if len(results) != 1 || len(results[0]) != 0 {
		t.Fatalf("expected empty match set on empty backend, got %v", results)
	}
}
