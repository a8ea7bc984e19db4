package store

// Hooks lightweight callbacks for high-signal events.
// Implementations MUST be cheap and non-blocking.
// The store calls them on hot paths.
type Hooks interface {
	// A value entry was deleted by the store on read.
	// reason ∈ {"corrupt", "version_mismatch", "value_decode"}
	SelfHeal(storageKey, reason string)

	// A batch read was rejected and fell back to single values.
	// reason ∈ {"decode_error", "stale", "version_error"}
	BatchRejected(namespace string, requested int, reason string)

	// Provider returned ok=false on Set (backpressure/eviction).
	ProviderSetRejected(storageKey string, isBatch bool)

	// VersionStore snapshot or bump failed; count is the number of keys involved.
	VersionError(count int, err error)

	// Both version bump and delete failed during Delete (likely backend outage).
	DeleteOutage(key string, bumpErr, delErr error)
}

// NopHooks is the default no-op
type NopHooks struct{}

func (NopHooks) SelfHeal(string, string)           {}
func (NopHooks) BatchRejected(string, int, string) {}
func (NopHooks) ProviderSetRejected(string, bool)  {}
func (NopHooks) VersionError(int, error)           {}
func (NopHooks) DeleteOutage(string, error, error) {}
