// Package prefs persists user playback preferences (volume, loop, playback rate and dark-mask display)
// in a durable key-value store.
package prefs

import (
	"sync"

	"github.com/metafates/gache"
	"github.com/reelctl/reelctl/filesystem"
)

// Store is a durable string key-value store.
type Store interface {
	Get(key string) (value string, ok bool, err error)
	Set(key, value string) error
}

// FileStore keeps every entry in a single JSON document managed by gache on the
// application filesystem.
type FileStore struct {
	mu     sync.Mutex
	cacher *gache.Cache[map[string]string]
}

// NewFileStore opens (lazily) the store located at path.
func NewFileStore(path string) *FileStore {
	return &FileStore{
		cacher: gache.New[map[string]string](
			&gache.Options{
				Path:       path,
				FileSystem: &filesystem.GacheFs{},
			},
		),
	}
}

func (s *FileStore) load() (map[string]string, error) {
	cached, expired, err := s.cacher.Get()
	if err != nil {
		return nil, err
	}
	if expired || cached == nil {
		return make(map[string]string), nil
	}
	return cached, nil
}

func (s *FileStore) Get(key string) (string, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entries, err := s.load()
	if err != nil {
		return "", false, err
	}
	v, ok := entries[key]
	return v, ok, nil
}

func (s *FileStore) Set(key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	entries, err := s.load()
	if err != nil {
		return err
	}
	entries[key] = value
	return s.cacher.Set(entries)
}

// MemoryStore is a volatile Store.
type MemoryStore struct {
	mu      sync.Mutex
	entries map[string]string
}

// NewMemoryStore returns an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{entries: make(map[string]string)}
}

func (s *MemoryStore) Get(key string) (string, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.entries[key]
	return v, ok, nil
}

func (s *MemoryStore) Set(key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[key] = value
	return nil
}
