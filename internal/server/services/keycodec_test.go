package services

import (
	"encoding/base64"
	"testing"
)

func TestEncodeForTransport_ValidBase64Unchanged(t *testing.T) {
	codec := NewKeyDeliveryCodec()

	stored := base64.StdEncoding.EncodeToString([]byte("already-encoded-key-material"))
	if got := codec.EncodeForTransport(stored); got != stored {
		t.Fatalf("valid base64 must pass through unchanged: got %q", got)
	}
}

func TestEncodeForTransport_IdempotentOnOwnOutput(t *testing.T) {
	codec := NewKeyDeliveryCodec()

	once := codec.EncodeForTransport("definitely not base64!!!")
	twice := codec.EncodeForTransport(once)
	if once != twice {
		t.Fatalf("encoding must be idempotent: %q != %q", once, twice)
	}
}

func TestEncodeForTransport_NonBase64RoundTrip(t *testing.T) {
	codec := NewKeyDeliveryCodec()

	original := "key with spaces & symbols €"
	encoded := codec.EncodeForTransport(original)

	decoded, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		t.Fatalf("transport value is not valid base64: %v", err)
	}
	if string(decoded) != original {
		t.Fatalf("round trip mismatch: %q != %q", decoded, original)
	}
}

func TestEncodeForTransport_EmptyString(t *testing.T) {
	codec := NewKeyDeliveryCodec()

	// "" decodes as valid (empty) base64 and passes through.
	if got := codec.EncodeForTransport(""); got != "" {
		t.Fatalf("want empty string, got %q", got)
	}
}
