// Package common contains shared constants and sentinel errors used across
// Sharekeeper components.
package common

// EncryptionKeyHeaderName is the response header carrying the file's
// encrypted key on download. It must also be listed in
// Access-Control-Expose-Headers so cross-origin clients can read it.
const EncryptionKeyHeaderName = "x-encryption-key"

// ExposeHeadersHeaderName is the CORS header used to make
// EncryptionKeyHeaderName readable across origins.
const ExposeHeadersHeaderName = "Access-Control-Expose-Headers"
