// Package cache provides the best-effort result cache used by the
// verification pipeline. Two backends are available: a process-local
// in-memory cache for single-instance deployments, and Redis for shared
// ones.
//
// The cache is never load-bearing: callers treat every failure as a miss and
// recompute. Backends therefore keep their error reporting simple.
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"time"
)

// Cache is the backend contract. Implementations must be safe for
// concurrent use.
type Cache interface {
	// Get returns the cached value and whether it was present.
	Get(ctx context.Context, key string) ([]byte, bool)
	// Set stores value under key for ttl.
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	// Delete removes key.
	Delete(ctx context.Context, key string) error
}

// VerificationKey returns the cache key for a claim's verification result.
// Keys are versioned so that a format change invalidates old entries.
func VerificationKey(claimID string) string {
	sum := sha256.Sum256([]byte(claimID))
	return "polygraph:v1:verification:" + hex.EncodeToString(sum[:])
}
