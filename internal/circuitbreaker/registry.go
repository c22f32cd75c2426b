package circuitbreaker

import (
	"sync"
)

// Registry holds one breaker per dependency name. It is constructed once at
// service startup and passed to whoever needs breakers; there is no ambient
// global state.
type Registry struct {
	mutex    sync.RWMutex
	breakers map[string]*CircuitBreaker
	opts     Options
	hooks    Hooks
}

func NewRegistry(opts Options, hooks Hooks) *Registry {
	return &Registry{
		breakers: make(map[string]*CircuitBreaker),
		opts:     opts,
		hooks:    hooks,
	}
}

// GetBreaker returns the breaker for the given dependency name, creating it
// with the registry's options and the supplied fallback on first use. The
// fallback is only attached at creation time.
func (r *Registry) GetBreaker(name string, fallback Fallback) *CircuitBreaker {
	r.mutex.RLock()
	cb, exists := r.breakers[name]
	r.mutex.RUnlock()

	if exists {
		return cb
	}

	r.mutex.Lock()
	defer r.mutex.Unlock()

	// Double-check: another goroutine may have created it
	if cb, exists = r.breakers[name]; exists {
		return cb
	}

	cb = New(name, r.opts, fallback, r.hooks)
	r.breakers[name] = cb

	return cb
}

// Lookup returns an existing breaker without creating one.
func (r *Registry) Lookup(name string) (*CircuitBreaker, bool) {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	cb, exists := r.breakers[name]

	return cb, exists
}

func (r *Registry) Reset() {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	r.breakers = make(map[string]*CircuitBreaker)
}

func (r *Registry) Stats() map[string]Stats {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	stats := make(map[string]Stats, len(r.breakers))
	for name, cb := range r.breakers {
		stats[name] = cb.Stats()
	}

	return stats
}
