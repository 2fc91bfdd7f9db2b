package cache

import (
	"sort"
	"sync"
	"time"

	"github.com/dailyyoga/seatsync/seat"
)

// Entry is the cached state of one key. Only the Coordinator and Backoff
// mutate it, always through Store.Update.
type Entry struct {
	Seats            []seat.Record
	Loading          bool
	Err              error
	UpdatedAt        time.Time
	RateLimitedUntil time.Time
	// RateLimitBackoff is the magnitude of the last cool-down window,
	// the base for the next doubling.
	RateLimitBackoff time.Duration

	// inFlight is the pending fetch; Loading is true iff it is set
	inFlight *call
	// version increases on every Update
	version uint64
}

func (e *Entry) snapshot(key string) Snapshot {
	return Snapshot{
		Key:              key,
		Seats:            e.Seats,
		Loading:          e.Loading,
		Err:              e.Err,
		UpdatedAt:        e.UpdatedAt,
		RateLimitedUntil: e.RateLimitedUntil,
		version:          e.version,
	}
}

// Store is the process-wide table of entries. It is constructed once by the
// composition root and shared by reference with every component.
type Store struct {
	mu      sync.Mutex
	entries map[string]*Entry
}

// NewStore creates an empty store
func NewStore() *Store {
	return &Store{entries: make(map[string]*Entry)}
}

// getLocked returns the entry for key, creating it on first access
func (s *Store) getLocked(key string) *Entry {
	e, ok := s.entries[key]
	if !ok {
		e = &Entry{}
		s.entries[key] = e
	}
	return e
}

// Get returns a copy of the entry for key, creating an empty one on first
// access. It never returns a zero value for a missing key.
func (s *Store) Get(key string) Entry {
	s.mu.Lock()
	defer s.mu.Unlock()
	return *s.getLocked(key)
}

// Snapshot returns the observable state of key
func (s *Store) Snapshot(key string) Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.getLocked(key).snapshot(key)
}

// Update applies mutate to the entry for key atomically. mutate must not
// block or call back into the store.
func (s *Store) Update(key string, mutate func(e *Entry)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e := s.getLocked(key)
	mutate(e)
	e.version++
}

// Has reports whether key has an entry, without creating one
func (s *Store) Has(key string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.entries[key]
	return ok
}

// Keys returns the keys of every entry, sorted
func (s *Store) Keys() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	keys := make([]string, 0, len(s.entries))
	for k := range s.entries {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Len returns the number of entries
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}
