package services

import (
	"encoding/base64"

	"github.com/dmitrijs2005/sharekeeper/internal/common"
)

// tokenByteLen gives 256 bits of entropy per token; guessing is treated as
// infeasible and collisions as negligible (the link store still carries a
// unique constraint as defense in depth).
const tokenByteLen = 32

// TokenIssuer generates opaque bearer secrets for anonymous share links.
type TokenIssuer interface {
	Issue() (string, error)
}

// RandomTokenIssuer draws tokens from crypto/rand and encodes them with the
// unpadded URL-safe base64 alphabet, so they can be embedded in share URLs
// verbatim.
type RandomTokenIssuer struct{}

func NewRandomTokenIssuer() *RandomTokenIssuer {
	return &RandomTokenIssuer{}
}

func (i *RandomTokenIssuer) Issue() (string, error) {
	return base64.RawURLEncoding.EncodeToString(common.GenerateRandByteArray(tokenByteLen)), nil
}
