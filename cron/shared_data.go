package cron

import (
	"context"
	"sort"
	"sync"
)

type contextKey struct{}

// SharedData carries values from one task of a chain to the next. A fresh
// SharedData is created for every run of a chain.
type SharedData struct {
	mu   sync.RWMutex
	data map[string]any
}

func withSharedData(ctx context.Context) (context.Context, *SharedData) {
	shared := &SharedData{data: make(map[string]any)}
	return context.WithValue(ctx, contextKey{}, shared), shared
}

// GetSharedData returns the SharedData of the running chain, nil outside a
// chain
func GetSharedData(ctx context.Context) *SharedData {
	shared, _ := ctx.Value(contextKey{}).(*SharedData)
	return shared
}

// Set stores value under key
func (s *SharedData) Set(key string, value any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.data == nil {
		s.data = make(map[string]any)
	}
	s.data[key] = value
}

// Get returns the value stored under key
func (s *SharedData) Get(key string) (any, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.data[key]
	return v, ok
}

// Delete removes key
func (s *SharedData) Delete(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.data, key)
}

// Keys returns the stored keys in sorted order
func (s *SharedData) Keys() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	keys := make([]string, 0, len(s.data))
	for k := range s.data {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Value returns the value under key when it holds a T
func Value[T any](s *SharedData, key string) (T, bool) {
	var zero T
	if s == nil {
		return zero, false
	}
	v, ok := s.Get(key)
	if !ok {
		return zero, false
	}
	t, ok := v.(T)
	return t, ok
}
