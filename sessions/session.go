// Package sessions holds the process-wide record of the current
// authenticated identity. The store is the single writer of session state:
// login success, refresh success, and logout all flow through it, and the
// flag invariant isAuthenticated == (user != nil) is enforced structurally
// by deriving the flag from user presence on every write.
package sessions

// User is the authenticated identity as returned by the platform.
type User struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Role  string `json:"role"` // "admin", "vendor" or "customer"
}

// Session is a point-in-time snapshot of the session state.
type Session struct {
	User            *User // Present iff authenticated
	IsAuthenticated bool  // True iff User is set
	IsLoading       bool  // True while an auth operation is in flight
}
