package quota

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	gocache "github.com/patrickmn/go-cache"
)

// Window is the persisted fixed-window counter for one session key
type Window struct {
	Count       int   `json:"count"`
	WindowStart int64 `json:"windowStart"` // epoch milliseconds
}

// Store persists rate-limit windows across invocations. Implementations
// may fail; the limiter treats any error as a signal to fail open.
type Store interface {
	Get(key string) (Window, bool, error)
	Put(key string, w Window) error
	Delete(key string) error
}

// MemoryStore keeps windows in memory with lazy expiry
type MemoryStore struct {
	cache *gocache.Cache
}

// NewMemoryStore creates a memory store. Entries self-expire after ttl so
// abandoned sessions do not accumulate.
func NewMemoryStore(ttl time.Duration) *MemoryStore {
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	return &MemoryStore{
		cache: gocache.New(ttl, ttl),
	}
}

// Get retrieves the window for a key
func (s *MemoryStore) Get(key string) (Window, bool, error) {
	if val, found := s.cache.Get(key); found {
		return val.(Window), true, nil
	}
	return Window{}, false, nil
}

// Put stores the window for a key
func (s *MemoryStore) Put(key string, w Window) error {
	s.cache.Set(key, w, gocache.DefaultExpiration)
	return nil
}

// Delete removes all state for a key
func (s *MemoryStore) Delete(key string) error {
	s.cache.Delete(key)
	return nil
}

// FileStore persists windows as one JSON file per key, surviving process
// restarts
type FileStore struct {
	dir string
}

// NewFileStore creates a file store rooted at dir
func NewFileStore(dir string) *FileStore {
	return &FileStore{dir: dir}
}

// Get retrieves the window for a key
func (s *FileStore) Get(key string) (Window, bool, error) {
	data, err := os.ReadFile(s.path(key))
	if err != nil {
		if os.IsNotExist(err) {
			return Window{}, false, nil
		}
		return Window{}, false, fmt.Errorf("read window: %w", err)
	}

	var w Window
	if err := json.Unmarshal(data, &w); err != nil {
		return Window{}, false, fmt.Errorf("decode window: %w", err)
	}
	return w, true, nil
}

// Put stores the window for a key
func (s *FileStore) Put(key string, w Window) error {
	data, err := json.Marshal(w)
	if err != nil {
		return fmt.Errorf("encode window: %w", err)
	}
	if err := os.MkdirAll(s.dir, 0755); err != nil {
		return fmt.Errorf("create store dir: %w", err)
	}
	if err := os.WriteFile(s.path(key), data, 0644); err != nil {
		return fmt.Errorf("write window: %w", err)
	}
	return nil
}

// Delete removes all state for a key
func (s *FileStore) Delete(key string) error {
	err := os.Remove(s.path(key))
	if err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

// path maps a key to a file name; keys are hashed so arbitrary session
// identifiers stay filesystem-safe
func (s *FileStore) path(key string) string {
	sum := sha256.Sum256([]byte(key))
	return filepath.Join(s.dir, hex.EncodeToString(sum[:16])+".json")
}
