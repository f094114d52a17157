// Copyright (C) 2026  Motion Minder Go Team
//
// This file may be distributed under the terms of the GNU GPLv3 license.

package store

import (
	"sort"
	"sync"
)

// MemoryStore is a map-backed Store. The zero value is ready to use.
type MemoryStore struct {
	mu     sync.RWMutex
	values map[string]float64
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{values: make(map[string]float64)}
}

// Get returns the value for key and whether it exists.
func (s *MemoryStore) Get(key string) (float64, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.values[key]
	return v, ok
}

// Set stores value under key.
func (s *MemoryStore) Set(key string, value float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.values == nil {
		s.values = make(map[string]float64)
	}
	s.values[key] = value
}

// Delete removes key.
func (s *MemoryStore) Delete(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.values, key)
}

// Keys returns all keys in sorted order.
func (s *MemoryStore) Keys() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	result := make([]string, 0, len(s.values))
	for k := range s.values {
		result = append(result, k)
	}
	sort.Strings(result)
	return result
}

var _ Store = (*MemoryStore)(nil)
