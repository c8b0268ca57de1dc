package quota

import (
	"sync"
	"time"
)

// Result is the outcome of one quota check
type Result struct {
	Allowed   bool
	Remaining int  // requests left in the current window after this one
	Degraded  bool // the store failed and the check was allowed fail-open
}

// Limiter enforces a durable fixed-window request quota per session key.
// The window starts at the first request for a key and resets wholesale
// once it expires. Storage failures never block a request: the limiter
// fails open and flags the result as degraded.
type Limiter struct {
	store  Store
	max    int
	window time.Duration

	mu   sync.RWMutex
	keys map[string]*sync.Mutex

	now func() time.Time
}

// NewLimiter creates a limiter over the given store
func NewLimiter(store Store, max int, window time.Duration) *Limiter {
	if max <= 0 {
		max = 10
	}
	if window <= 0 {
		window = time.Minute
	}

	return &Limiter{
		store:  store,
		max:    max,
		window: window,
		keys:   make(map[string]*sync.Mutex),
		now:    time.Now,
	}
}

// Check consumes one request from the key's window if the quota permits.
// The read-modify-write against the store is a critical section per key,
// so concurrent checks never under-count.
func (l *Limiter) Check(key string) Result {
	km := l.keyMutex(key)
	km.Lock()
	defer km.Unlock()

	nowMs := l.now().UnixMilli()

	w, found, err := l.store.Get(key)
	if err != nil {
		return Result{Allowed: true, Remaining: l.max - 1, Degraded: true}
	}

	if !found || nowMs-w.WindowStart > l.window.Milliseconds() {
		// First request for the key, or the window expired: reset
		w = Window{Count: 1, WindowStart: nowMs}
		if err := l.store.Put(key, w); err != nil {
			return Result{Allowed: true, Remaining: l.max - 1, Degraded: true}
		}
		return Result{Allowed: true, Remaining: l.max - 1}
	}

	if w.Count < l.max {
		w.Count++
		if err := l.store.Put(key, w); err != nil {
			return Result{Allowed: true, Remaining: l.max - w.Count, Degraded: true}
		}
		return Result{Allowed: true, Remaining: l.max - w.Count}
	}

	// Quota exhausted; denied requests do not increment the counter
	return Result{Allowed: false, Remaining: 0}
}

// Evict removes all quota state for a closed session
func (l *Limiter) Evict(key string) {
	km := l.keyMutex(key)
	km.Lock()
	_ = l.store.Delete(key)
	km.Unlock()

	l.mu.Lock()
	delete(l.keys, key)
	l.mu.Unlock()
}

// keyMutex returns the per-key critical-section lock
func (l *Limiter) keyMutex(key string) *sync.Mutex {
	l.mu.RLock()
	km, exists := l.keys[key]
	l.mu.RUnlock()

	if exists {
		return km
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	// Double-check after acquiring write lock
	if km, exists := l.keys[key]; exists {
		return km
	}

	km = &sync.Mutex{}
	l.keys[key] = km
	return km
}
