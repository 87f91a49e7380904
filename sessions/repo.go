package sessions

// IdentityRepo persists the user identity across restarts. Only the identity
// is ever persisted here — credentials live in the token manager's fallback
// store with their own expiries.
type IdentityRepo interface {
	// Save stores the identity, replacing any previous one
	Save(user *User) error

	// Load retrieves the persisted identity, or nil if none exists
	Load() (*User, error)

	// Clear removes the persisted identity
	Clear() error
}
