package sessions

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sync"

	"github.com/pkg/errors"
)

// identityKey namespaces the persisted identity within the file.
const identityKey = "infybyte.auth.user"

var _ IdentityRepo = (*FileIdentityRepo)(nil)

// FileIdentityRepo persists the identity as JSON under a single namespaced
// key. The identity is not secret material, so the file is plain JSON.
type FileIdentityRepo struct {
	path string
	lock sync.Mutex
}

func NewFileIdentityRepo(path string) *FileIdentityRepo {
	return &FileIdentityRepo{path: path}
}

func (r *FileIdentityRepo) Save(user *User) error {
	r.lock.Lock()
	defer r.lock.Unlock()

	data, err := json.Marshal(map[string]*User{identityKey: user})
	if err != nil {
		return errors.Wrap(err, "[FileIdentityRepo.Save] json.Marshal")
	}
	if err := os.MkdirAll(filepath.Dir(r.path), 0o700); err != nil {
		return errors.Wrap(err, "[FileIdentityRepo.Save] os.MkdirAll")
	}
	return errors.Wrap(os.WriteFile(r.path, data, 0o600), "[FileIdentityRepo.Save] os.WriteFile")
}

func (r *FileIdentityRepo) Load() (*User, error) {
	r.lock.Lock()
	defer r.lock.Unlock()

	data, err := os.ReadFile(r.path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrap(err, "[FileIdentityRepo.Load] os.ReadFile")
	}

	stored := make(map[string]*User)
	if err := json.Unmarshal(data, &stored); err != nil {
		return nil, errors.Wrap(err, "[FileIdentityRepo.Load] json.Unmarshal")
	}
	return stored[identityKey], nil
}

func (r *FileIdentityRepo) Clear() error {
	r.lock.Lock()
	defer r.lock.Unlock()

	if err := os.Remove(r.path); err != nil && !os.IsNotExist(err) {
		return errors.Wrap(err, "[FileIdentityRepo.Clear] os.Remove")
	}
	return nil
}
