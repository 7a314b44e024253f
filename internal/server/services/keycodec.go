package services

import "encoding/base64"

// KeyDeliveryCodec normalizes the stored encryption-key field into a
// transport-safe header value.
type KeyDeliveryCodec struct{}

func NewKeyDeliveryCodec() *KeyDeliveryCodec {
	return &KeyDeliveryCodec{}
}

// EncodeForTransport returns a canonical base64 payload for the stored key
// without double-encoding already-base64 data: if the stored value decodes
// as strict standard base64 it is delivered verbatim, otherwise it is
// base64-encoded first.
//
// The heuristic cannot distinguish already-encoded ciphertext from a
// plaintext key that happens to be valid base64; stored keys are written by
// clients that always base64-encode, so in practice the first branch wins.
func (c *KeyDeliveryCodec) EncodeForTransport(storedKey string) string {
	if _, err := base64.StdEncoding.DecodeString(storedKey); err == nil {
		return storedKey
	}
	return base64.StdEncoding.EncodeToString([]byte(storedKey))
}
