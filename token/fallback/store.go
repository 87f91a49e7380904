// Package fallback provides the secondary credential store used by the token
// manager. The in-memory copy of the credential pair is always the primary
// source; a fallback store only matters when the process restarts and memory
// is gone. Every entry carries its own expiry, so short-lived credentials age
// out of the fallback quickly while long-lived ones survive for days.
package fallback

import "time"

// NowTimeFunc returns the current time. It can be overridden in tests.
var NowTimeFunc = time.Now

// Store is the interface for expiring credential storage. A missing or
// expired entry is reported as absence via the bool, never as an error —
// errors are reserved for storage failures.
type Store interface {
	// Set stores a value under key with the given time-to-live.
	Set(key, value string, ttl time.Duration) error

	// Get returns the value for key, or false if it is absent or expired.
	Get(key string) (string, bool)

	// Delete removes the entry for key. Deleting an absent key is a no-op.
	Delete(key string) error
}
