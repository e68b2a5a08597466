// Package cache keeps catalog query responses on disk so repeated report runs
// within the TTL do not hit the catalog again. It serves the catalog fetch
// layer only; the evaluation engine never caches.
package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"time"
)

// Stats contains cache statistics.
type Stats struct {
	// TotalEntries is the number of cached responses
	TotalEntries int `json:"totalEntries"`

	// HitRate is the cache hit rate (0-1)
	HitRate float64 `json:"hitRate"`

	TotalHits   int64 `json:"totalHits"`
	TotalMisses int64 `json:"totalMisses"`

	// TotalSize is the total size in bytes
	TotalSize int64 `json:"totalSize"`

	OldestEntry time.Duration `json:"oldestEntry"`
}

// Key derives a file-safe cache key from the parts that identify a query.
func Key(parts ...string) string {
	sum := sha256.Sum256([]byte(strings.Join(parts, "\x00")))
	return hex.EncodeToString(sum[:])
}

// Error represents a cache-specific error.
type Error struct {
	Err error
	Op  string
	Key string
}

func (e *Error) Error() string {
	return "cache " + e.Op + " failed for key " + e.Key + ": " + e.Err.Error()
}

func (e *Error) Unwrap() error {
	return e.Err
}
