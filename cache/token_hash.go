package cache

import (
	"crypto/sha256"
	"encoding/hex"
)

// HashToken hashes a token string. The cache keys on the hash so the raw
// bearer credential never lands in the cache backend's keyspace.
func HashToken(token string) string {
	hasher := sha256.New()
	hasher.Write([]byte(token))
	return hex.EncodeToString(hasher.Sum(nil))
}
