package sessions

import (
	"sync"

	"github.com/pkg/errors"
)

// Store owns the session state. It persists the user identity (never
// credentials) through an IdentityRepo so the identity survives a restart,
// and notifies an optional observer on every state change.
type Store struct {
	lock     sync.RWMutex
	user     *User
	loading  bool
	repo     IdentityRepo
	onChange func(Session)
}

// StoreOption defines a function type to modify the Store instance.
type StoreOption func(*Store)

// WithOnChange registers an observer invoked after every session state
// change. The top-level application uses it to re-render instead of polling.
func WithOnChange(fn func(Session)) StoreOption {
	return func(s *Store) {
		s.onChange = fn
	}
}

// NewStore initializes a session store. repo is required; the session starts
// unauthenticated until Restore or SetAuthenticated is called.
func NewStore(repo IdentityRepo, options ...StoreOption) (*Store, error) {
	if repo == nil {
		return nil, errors.New("[NewStore] identity repo is required")
	}

	store := &Store{repo: repo}
	for _, opt := range options {
		opt(store)
	}
	return store, nil
}

// Current returns a snapshot of the session state.
func (s *Store) Current() Session {
	s.lock.RLock()
	defer s.lock.RUnlock()
	return s.snapshot()
}

// SetAuthenticated marks the session authenticated as user and persists the
// identity.
func (s *Store) SetAuthenticated(user User) error {
	s.lock.Lock()
	s.user = &user
	snapshot := s.snapshot()
	s.lock.Unlock()

	s.notify(snapshot)

	if err := s.repo.Save(&user); err != nil {
		return errors.Wrap(err, "[Store.SetAuthenticated] repo.Save")
	}
	return nil
}

// SetLoading flags that an authentication operation is in flight.
func (s *Store) SetLoading(loading bool) {
	s.lock.Lock()
	s.loading = loading
	snapshot := s.snapshot()
	s.lock.Unlock()

	s.notify(snapshot)
}

// Clear resets the session to unauthenticated and removes the persisted
// identity. Clearing an already-clear store is a no-op.
func (s *Store) Clear() {
	s.lock.Lock()
	s.user = nil
	s.loading = false
	snapshot := s.snapshot()
	s.lock.Unlock()

	s.notify(snapshot)
	_ = s.repo.Clear()
}

// Restore loads a previously persisted identity, if any, and marks the
// session authenticated with it. The identity is only believed valid — the
// app bootstrap follows up with a refresh, and a failed refresh clears the
// session again. Reports whether an identity was restored.
func (s *Store) Restore() (bool, error) {
	user, err := s.repo.Load()
	if err != nil {
		return false, errors.Wrap(err, "[Store.Restore] repo.Load")
	}
	if user == nil {
		return false, nil
	}

	s.lock.Lock()
	s.user = user
	snapshot := s.snapshot()
	s.lock.Unlock()

	s.notify(snapshot)
	return true, nil
}

// snapshot must be called with the lock held.
func (s *Store) snapshot() Session {
	session := Session{
		IsAuthenticated: s.user != nil,
		IsLoading:       s.loading,
	}
	if s.user != nil {
		user := *s.user
		session.User = &user
	}
	return session
}

func (s *Store) notify(session Session) {
	if s.onChange != nil {
		s.onChange(session)
	}
}
