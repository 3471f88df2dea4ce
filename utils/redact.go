package utils

import (
	"encoding/hex"
	"strings"

	"golang.org/x/crypto/blake2b"
)

// RedactEmail returns a stable fingerprint of email for logs: the domain in
// clear and a keyed BLAKE2b digest of the full address.
func RedactEmail(key []byte, email string) string {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return ""
	}
	if len(key) > blake2b.Size {
		key = key[:blake2b.Size]
	}
	h, err := blake2b.New(8, key)
	if err != nil {
		return "redacted"
	}
	h.Write([]byte(email))
	digest := hex.EncodeToString(h.Sum(nil))
	if _, domain, ok := strings.Cut(email, "@"); ok && domain != "" {
		return digest + "@" + domain
	}
	return digest
}
