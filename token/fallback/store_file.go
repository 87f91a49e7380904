package fallback

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/pkg/errors"
	"golang.org/x/crypto/pbkdf2"
)

const (
	saltSize         = 16
	keySize          = 32 // AES-256
	pbkdf2Iterations = 600_000
)

var _ Store = (*FileStore)(nil)

// FileStore is a Store persisted to a single JSON file, surviving process
// restarts. Values are encrypted with AES-256-GCM under a key derived from
// the configured secret with PBKDF2-SHA-256, so credentials are never written
// to disk in the clear.
type FileStore struct {
	path string
	key  []byte
	salt []byte
	lock sync.Mutex
}

type fileEntry struct {
	Value     string    `json:"value"` // base64(nonce | ciphertext)
	ExpiresAt time.Time `json:"expires_at"`
}

type fileContents struct {
	Salt    string               `json:"salt"`
	Entries map[string]fileEntry `json:"entries"`
}

// NewFileStore opens (or creates) the store at path. The salt is persisted
// alongside the entries so the same secret derives the same key across runs.
func NewFileStore(path, secret string) (*FileStore, error) {
	if secret == "" {
		return nil, errors.New("[NewFileStore] secret is required")
	}

	s := &FileStore{path: path}
	contents, err := s.read()
	if err != nil {
		return nil, errors.Wrap(err, "[NewFileStore] read")
	}

	if contents.Salt == "" {
		s.salt = make([]byte, saltSize)
		if _, err := rand.Read(s.salt); err != nil {
			return nil, errors.Wrap(err, "[NewFileStore] rand.Read")
		}
		contents.Salt = base64.StdEncoding.EncodeToString(s.salt)
		if err := s.write(contents); err != nil {
			return nil, errors.Wrap(err, "[NewFileStore] write")
		}
	} else if s.salt, err = base64.StdEncoding.DecodeString(contents.Salt); err != nil {
		return nil, errors.Wrap(err, "[NewFileStore] decode salt")
	}

	s.key = pbkdf2.Key([]byte(secret), s.salt, pbkdf2Iterations, keySize, sha256.New)
	return s, nil
}

func (s *FileStore) Set(key, value string, ttl time.Duration) error {
	s.lock.Lock()
	defer s.lock.Unlock()

	contents, err := s.read()
	if err != nil {
		return errors.Wrap(err, "[FileStore.Set] read")
	}

	sealed, err := s.seal(value)
	if err != nil {
		return errors.Wrap(err, "[FileStore.Set] seal")
	}

	contents.Entries[key] = fileEntry{Value: sealed, ExpiresAt: NowTimeFunc().Add(ttl)}
	return errors.Wrap(s.write(contents), "[FileStore.Set] write")
}

func (s *FileStore) Get(key string) (string, bool) {
	s.lock.Lock()
	defer s.lock.Unlock()

	contents, err := s.read()
	if err != nil {
		return "", false
	}

	entry, ok := contents.Entries[key]
	if !ok {
		return "", false
	}
	if NowTimeFunc().After(entry.ExpiresAt) {
		delete(contents.Entries, key)
		_ = s.write(contents)
		return "", false
	}

	value, err := s.open(entry.Value)
	if err != nil {
		return "", false
	}
	return value, true
}

func (s *FileStore) Delete(key string) error {
	s.lock.Lock()
	defer s.lock.Unlock()

	contents, err := s.read()
	if err != nil {
		return errors.Wrap(err, "[FileStore.Delete] read")
	}
	if _, ok := contents.Entries[key]; !ok {
		return nil
	}
	delete(contents.Entries, key)
	return errors.Wrap(s.write(contents), "[FileStore.Delete] write")
}

func (s *FileStore) read() (*fileContents, error) {
	contents := &fileContents{Entries: make(map[string]fileEntry)}
	data, err := os.ReadFile(s.path)
	if os.IsNotExist(err) {
		return contents, nil
	}
	if err != nil {
		return nil, err
	}
	if len(data) == 0 {
		return contents, nil
	}
	if err := json.Unmarshal(data, contents); err != nil {
		return nil, err
	}
	if contents.Entries == nil {
		contents.Entries = make(map[string]fileEntry)
	}
	return contents, nil
}

func (s *FileStore) write(contents *fileContents) error {
	data, err := json.Marshal(contents)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0o700); err != nil {
		return err
	}
	return os.WriteFile(s.path, data, 0o600)
}

func (s *FileStore) seal(plaintext string) (string, error) {
	gcm, err := s.gcm()
	if err != nil {
		return "", err
	}
	nonce := make([]byte, gcm.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return "", err
	}
	sealed := gcm.Seal(nonce, nonce, []byte(plaintext), nil)
	return base64.StdEncoding.EncodeToString(sealed), nil
}

func (s *FileStore) open(encoded string) (string, error) {
	sealed, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return "", err
	}
	gcm, err := s.gcm()
	if err != nil {
		return "", err
	}
	if len(sealed) < gcm.NonceSize() {
		return "", errors.New("ciphertext too short")
	}
	plaintext, err := gcm.Open(nil, sealed[:gcm.NonceSize()], sealed[gcm.NonceSize():], nil)
	if err != nil {
		return "", err
	}
	return string(plaintext), nil
}

func (s *FileStore) gcm() (cipher.AEAD, error) {
	block, err := aes.NewCipher(s.key)
	if err != nil {
		return nil, err
	}
	return cipher.NewGCM(block)
}
