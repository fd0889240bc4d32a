package services

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
)

// slugByteLen is the entropy per slug: 8 random bytes (64 bits), which
// base64url-encodes to 11 characters. Collisions are negligible at any
// realistic link volume; the store's uniqueness constraint is the
// authoritative backstop either way.
const slugByteLen = 8

// GenerateSlug returns a fixed-length, URL-safe random slug from
// crypto/rand. An unavailable entropy source is not recoverable: the
// system cannot safely mint links without it.
func GenerateSlug() (string, error) {
	b := make([]byte, slugByteLen)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("read entropy source: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}
