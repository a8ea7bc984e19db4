// Package provider defines the storage abstraction used by binjson/store.
//
// Implementations MUST be byte-for-byte transparent: Get must return exactly the
// same []byte that was previously passed to Set for a key (no prepended/appended
// metadata, no re-encoding, no mutation). If a backend transforms values
// internally, the transform MUST be fully reversed on Get.
//
// Important: the keyspaces "val:<ns>:" and "batch:<ns>:" are owned by the store.
// External code MUST NOT write values under these prefixes. Foreign writes fail
// frame validation and are deleted as corrupt.
package provider

import (
	"context"
	"time"
)

// Provider is a minimal byte store with TTLs.
// Must be safe for concurrent use.
type Provider interface {
	// Get returns (value, true, nil) on hit; (nil, false, nil) on miss.
	// If an IO/remote error happens, return (nil, false, err).
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set stores value with the given TTL; ttl <= 0 means no expiry where
	// supported. May ignore cost if unsupported.
	// Returns ok=false when the store rejected the write under pressure.
	Set(ctx context.Context, key string, value []byte, cost int64, ttl time.Duration) (ok bool, err error)

	// Del removes a key (best-effort). Deleting a missing key is not an error.
	Del(ctx context.Context, key string) error

	// Close releases resources.
	Close(ctx context.Context) error
}

// MultiSetter is implemented by providers that can write several entries in
// one round-trip. The store uses it to seed single entries after a batch
// write; cost is not reported on this path.
type MultiSetter interface {
	SetMany(ctx context.Context, values map[string][]byte, ttl time.Duration) error
}
