package memory

import "sync"

// watchRegistry keeps per-scope callback sets, the same shape the websocket
// hub uses for per-user connection sets. Callbacks fire synchronously after
// the store lock is released, so a callback may re-enter the store.
type watchRegistry struct {
	mu       sync.RWMutex
	nextID   int
	watchers map[string]map[int]func()
}

func newWatchRegistry() *watchRegistry {
	return &watchRegistry{
		watchers: make(map[string]map[int]func()),
	}
}

func (r *watchRegistry) register(scope string, fn func()) func() {
	r.mu.Lock()
	id := r.nextID
	r.nextID++
	if _, ok := r.watchers[scope]; !ok {
		r.watchers[scope] = make(map[int]func())
	}
	r.watchers[scope][id] = fn
	r.mu.Unlock()

	return func() {
		r.mu.Lock()
		if scoped, ok := r.watchers[scope]; ok {
			delete(scoped, id)
			if len(scoped) == 0 {
				delete(r.watchers, scope)
			}
		}
		r.mu.Unlock()
	}
}

func (r *watchRegistry) notify(scopes ...string) {
	r.mu.RLock()
	var fns []func()
	for _, scope := range scopes {
		for _, fn := range r.watchers[scope] {
			fns = append(fns, fn)
		}
	}
	r.mu.RUnlock()

	for _, fn := range fns {
		fn()
	}
}
