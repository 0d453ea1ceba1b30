package apikey

import "testing"

func TestHashAPIKeyDeterministic(t *testing.T) {
	h1 := hashAPIKey("test-key-123")
	h2 := hashAPIKey("test-key-123")
	if h1 != h2 {
		t.Error("expected identical hashes for identical input")
	}

	h3 := hashAPIKey("different-key")
	if h1 == h3 {
		t.Error("expected different hashes for different input")
	}
}

func TestGenerateRawKeyFormat(t *testing.T) {
	raw, prefix, err := generateRawKey()
	if err != nil {
		t.Fatalf("generateRawKey: %v", err)
	}
	if len(raw) < 10 {
		t.Fatalf("raw key too short: %q", raw)
	}
	if raw[:3] != "ek_" {
		t.Errorf("raw key missing ek_ prefix: %q", raw)
	}
	if prefix != raw[:10] {
		t.Errorf("prefix = %q, want first 10 chars of raw key", prefix)
	}

	raw2, _, err := generateRawKey()
	if err != nil {
		t.Fatalf("generateRawKey: %v", err)
	}
	if raw == raw2 {
		t.Error("expected two generated keys to differ")
	}
}
