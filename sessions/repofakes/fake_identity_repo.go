package repofakes

import (
	"sync"

	"github.com/MohdMusaiyab/infybyte-sub001/sessions"
)

var _ sessions.IdentityRepo = (*FakeIdentityRepo)(nil)

type FakeIdentityRepo struct {
	user *sessions.User
	lock sync.RWMutex
}

func NewFakeIdentityRepo() *FakeIdentityRepo {
	return &FakeIdentityRepo{}
}

func (r *FakeIdentityRepo) Save(user *sessions.User) error {
	r.lock.Lock()
	defer r.lock.Unlock()
	if user != nil {
		u := *user
		r.user = &u
	} else {
		r.user = nil
	}
	return nil
}

func (r *FakeIdentityRepo) Load() (*sessions.User, error) {
	r.lock.RLock()
	defer r.lock.RUnlock()
	if r.user == nil {
		return nil, nil
	}
	u := *r.user
	return &u, nil
}

func (r *FakeIdentityRepo) Clear() error {
	r.lock.Lock()
	defer r.lock.Unlock()
	r.user = nil
	return nil
}
