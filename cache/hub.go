package cache

import (
	"runtime/debug"
	"sync"

	"github.com/dailyyoga/seatsync/logger"
	"go.uber.org/zap"
)

// Hub keeps the listener sets per key and fans out notifications
type Hub struct {
	logger logger.Logger
	store  *Store

	mu        sync.Mutex
	listeners map[string]map[uint64]Listener
	nextID    uint64
}

// NewHub creates a hub reading snapshots from store
func NewHub(log logger.Logger, store *Store) *Hub {
	return &Hub{
		logger:    log,
		store:     store,
		listeners: make(map[string]map[uint64]Listener),
	}
}

// Subscribe registers listener for key. The returned function removes it and
// is safe to call more than once. Removing the last listener of a key drops
// the key's set.
func (h *Hub) Subscribe(key string, listener Listener) (unsubscribe func()) {
	h.mu.Lock()
	h.nextID++
	id := h.nextID
	set, ok := h.listeners[key]
	if !ok {
		set = make(map[uint64]Listener)
		h.listeners[key] = set
	}
	set[id] = listener
	h.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			h.mu.Lock()
			defer h.mu.Unlock()
			set, ok := h.listeners[key]
			if !ok {
				return
			}
			delete(set, id)
			if len(set) == 0 {
				delete(h.listeners, key)
			}
		})
	}
}

// Notify delivers the current snapshot of key to every listener registered
// at call time, synchronously. Order is unspecified. A panicking listener is
// logged and does not stop delivery to the others.
func (h *Hub) Notify(key string) {
	h.mu.Lock()
	set := h.listeners[key]
	targets := make([]Listener, 0, len(set))
	for _, l := range set {
		targets = append(targets, l)
	}
	h.mu.Unlock()

	if len(targets) == 0 {
		return
	}
	snap := h.store.Snapshot(key)
	for _, l := range targets {
		h.deliver(key, l, snap)
	}
}

func (h *Hub) deliver(key string, l Listener, snap Snapshot) {
	defer func() {
		if rec := recover(); rec != nil {
			h.logger.Error("listener panicked",
				zap.String("event_id", key),
				zap.Any("panic", rec),
				zap.String("stack", string(debug.Stack())),
			)
		}
	}()
	l(snap)
}

// Count returns the number of listeners registered for key
func (h *Hub) Count(key string) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.listeners[key])
}

// Keys returns the number of keys with at least one listener
func (h *Hub) Keys() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.listeners)
}
