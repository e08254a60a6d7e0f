package cache

import (
	"crypto/sha256"
	"encoding/hex"
)

// DefaultKeyPrefix namespaces search entries in shared backends.
const DefaultKeyPrefix = "productsearch:search"

// Keyer maps queries to backend keys.
//
// Contract:
// - Determinism: the same query always maps to the same key.
// - Distinct queries map to distinct keys; no normalisation is applied.
type Keyer interface {
	// Key returns the backend key for query.
	Key(query string) string

	// Prefix returns the namespace shared by every key.
	Prefix() string
}

// HashKeyer produces "<prefix>:<hash>" where hash is the first 16 hex
// characters of SHA-256(query).
type HashKeyer struct {
	prefix string
}

// NewHashKeyer creates a keyer. An empty prefix uses DefaultKeyPrefix.
func NewHashKeyer(prefix string) *HashKeyer {
	if prefix == "" {
		prefix = DefaultKeyPrefix
	}
	return &HashKeyer{prefix: prefix}
}

// Key returns the backend key for query.
func (k *HashKeyer) Key(query string) string {
	sum := sha256.Sum256([]byte(query))
	return k.prefix + ":" + hex.EncodeToString(sum[:8])
}

// Prefix returns the key namespace.
func (k *HashKeyer) Prefix() string {
	return k.prefix
}

var _ Keyer = (*HashKeyer)(nil)
