package storage

import (
	"context"
	"errors"
	"maps"
	"sync"
)

// MemoryObject is an object held by MemoryObjectStore
type MemoryObject struct {
	Body        []byte
	ContentType string
}

// MemoryObjectStore keeps objects in a map. It backs local runs with the
// archive disabled and tests that inspect what would have been uploaded.
type MemoryObjectStore struct {
	mu      sync.RWMutex
	objects map[string]MemoryObject
}

// NewMemoryObjectStore creates an empty store
func NewMemoryObjectStore() *MemoryObjectStore {
	return &MemoryObjectStore{objects: make(map[string]MemoryObject)}
}

// Put stores a copy of body under key
func (s *MemoryObjectStore) Put(_ context.Context, key string, body []byte, contentType string) error {
	if key == "" {
		return errors.New("object key is required")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.objects[key] = MemoryObject{Body: append([]byte(nil), body...), ContentType: contentType}
	return nil
}

// Get returns the object stored under key
func (s *MemoryObjectStore) Get(key string) (MemoryObject, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	obj, ok := s.objects[key]
	return obj, ok
}

// Objects returns a copy of every stored object keyed by object key
func (s *MemoryObjectStore) Objects() map[string]MemoryObject {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return maps.Clone(s.objects)
}
