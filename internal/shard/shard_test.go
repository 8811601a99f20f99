package shard

import (
	"strings"
	"testing"
)

func TestPartitionKey_SingleShard(t *testing.T) {
	// With numShards=1, all subdomains should go to shard "00"
	tests := []struct {
		kind      string
		subdomain string
		expected  string
	}{
		{"Person", "foo", "Person#00"},
		{"Person", "bar", "Person#00"},
		{"Note", "foo", "Note#00"},
		{"StaticContent", "", "StaticContent#00"},
	}

	for _, tt := range tests {
		result := PartitionKey(tt.kind, tt.subdomain, 1)
		if result != tt.expected {
			t.Errorf("PartitionKey(%q, %q, 1) = %q, want %q",
				tt.kind, tt.subdomain, result, tt.expected)
		}
	}
}

func TestPartitionKey_ZeroShards(t *testing.T) {
	// Zero or negative shards should be treated as 1
	if result := PartitionKey("Person", "foo", 0); result != "Person#00" {
		t.Errorf("expected 'Person#00', got %q", result)
	}
	if result := PartitionKey("Person", "foo", -1); result != "Person#00" {
		t.Errorf("expected 'Person#00', got %q", result)
	}
}

func TestPartitionKey_MultipleShards(t *testing.T) {
	numShards := 256
	shardCounts := make(map[string]int)
	for i := 0; i < 1000; i++ {
		subdomain := "sub" + string(rune('a'+i%26)) + string(rune('0'+i%10))
		pk := PartitionKey("Person", subdomain, numShards)

		if !strings.HasPrefix(pk, "Person#") {
			t.Errorf("expected prefix 'Person#', got %q", pk)
		}
		shardCounts[pk[len("Person#"):]]++
	}

	// Should have distribution across multiple shards (not all in one)
	if len(shardCounts) < 10 {
		t.Errorf("expected distribution across multiple shards, got only %d unique shards", len(shardCounts))
	}
}

func TestPartitionKey_Deterministic(t *testing.T) {
	first := PartitionKey("Note", "foo", 256)
	for i := 0; i < 100; i++ {
		if result := PartitionKey("Note", "foo", 256); result != first {
			t.Errorf("expected deterministic result %q, got %q on iteration %d", first, result, i)
		}
	}
}

func TestPartitionKey_SameShardAcrossKinds(t *testing.T) {
	// The shard depends only on the subdomain, never on the kind.
	p := PartitionKey("Person", "foo", 16)
	n := PartitionKey("Note", "foo", 16)
	if p[len("Person"):] != n[len("Note"):] {
		t.Errorf("expected same shard suffix, got %q and %q", p, n)
	}
}

func TestPartitionKey_HexFormat(t *testing.T) {
	result := PartitionKey("Person", "foo", 256)
	parts := strings.Split(result, "#")
	if len(parts) != 2 {
		t.Fatalf("expected 2 parts, got %d: %q", len(parts), result)
	}

	shard := parts[1]
	if len(shard) != 2 {
		t.Errorf("expected 2-character shard, got %q", shard)
	}
	for _, c := range shard {
		if !((c >= '0' && c <= '9') || (c >= 'a' && c <= 'f')) {
			t.Errorf("expected hex character, got %c", c)
		}
	}
}

func TestPartitionKeys(t *testing.T) {
	keys := PartitionKeys("Person", 4)
	expected := []string{"Person#00", "Person#01", "Person#02", "Person#03"}
	if len(keys) != len(expected) {
		t.Fatalf("expected %d keys, got %d", len(expected), len(keys))
	}
	for i := range expected {
		if keys[i] != expected[i] {
			t.Errorf("keys[%d] = %q, want %q", i, keys[i], expected[i])
		}
	}

	// Every subdomain's partition key must be one of the enumerated keys.
	set := make(map[string]bool)
	for _, k := range PartitionKeys("Person", 16) {
		set[k] = true
	}
	for _, sub := range []string{"foo", "bar", "baz", "qux"} {
		if pk := PartitionKey("Person", sub, 16); !set[pk] {
			t.Errorf("PartitionKey for %q = %q not in PartitionKeys", sub, pk)
		}
	}
}

func TestPartitionKeys_ZeroShards(t *testing.T) {
	keys := PartitionKeys("Note", 0)
	if len(keys) != 1 || keys[0] != "Note#00" {
		t.Errorf("expected [Note#00], got %v", keys)
	}
}

func TestKindOf(t *testing.T) {
	tests := []struct {
		pk   string
		kind string
		ok   bool
	}{
		{"Person#00", "Person", true},
		{"StaticContent#1f", "StaticContent", true},
		{"Subdomain", "", false},
		{"#00", "", false},
	}
	for _, tt := range tests {
		kind, ok := KindOf(tt.pk)
		if kind != tt.kind || ok != tt.ok {
			t.Errorf("KindOf(%q) = (%q, %v), want (%q, %v)", tt.pk, kind, ok, tt.kind, tt.ok)
		}
	}
}

func BenchmarkPartitionKey_SingleShard(b *testing.B) {
	for i := 0; i < b.N; i++ {
		PartitionKey("Person", "foo", 1)
	}
}

func BenchmarkPartitionKey_256Shards(b *testing.B) {
	for i := 0; i < b.N; i++ {
		PartitionKey("Person", "foo", 256)
	}
}
