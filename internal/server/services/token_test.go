package services

import (
	"encoding/base64"
	"testing"
)

func TestRandomTokenIssuer_Issue(t *testing.T) {
	issuer := NewRandomTokenIssuer()

	tok, err := issuer.Issue()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	raw, err := base64.RawURLEncoding.DecodeString(tok)
	if err != nil {
		t.Fatalf("token is not URL-safe base64: %v", err)
	}
	if len(raw) != tokenByteLen {
		t.Fatalf("want %d random bytes, got %d", tokenByteLen, len(raw))
	}
}

func TestRandomTokenIssuer_Unique(t *testing.T) {
	issuer := NewRandomTokenIssuer()

	seen := make(map[string]struct{})
	for i := 0; i < 100; i++ {
		tok, err := issuer.Issue()
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if _, ok := seen[tok]; ok {
			t.Fatalf("duplicate token after %d draws", i)
		}
		seen[tok] = struct{}{}
	}
}
