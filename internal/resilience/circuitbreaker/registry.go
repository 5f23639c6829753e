package circuitbreaker

import "sync"

// Registry holds one circuit breaker per upstream source name for the
// lifetime of the process. All concurrent digest runs share the same
// instances, so a source-wide outage trips the breaker no matter which
// recipient's run observed the failures. Safe for concurrent use.
type Registry struct {
	mu       sync.Mutex
	breakers map[string]*CircuitBreaker
	configFn func(name string) Config
}

// NewRegistry creates a registry that builds breakers with the given config
// constructor. Pass DefaultConfig for worker-profile breakers.
func NewRegistry(configFn func(name string) Config) *Registry {
	if configFn == nil {
		configFn = DefaultConfig
	}
	return &Registry{
		breakers: make(map[string]*CircuitBreaker),
		configFn: configFn,
	}
}

// Get returns the breaker for the given source name, creating it on first use.
func (r *Registry) Get(name string) *CircuitBreaker {
	r.mu.Lock()
	defer r.mu.Unlock()

	if cb, ok := r.breakers[name]; ok {
		return cb
	}
	cb := New(r.configFn(name))
	r.breakers[name] = cb
	return cb
}

// States returns the current state of every registered breaker, keyed by
// source name. Used by health reporting.
func (r *Registry) States() map[string]string {
	r.mu.Lock()
	defer r.mu.Unlock()

	states := make(map[string]string, len(r.breakers))
	for name, cb := range r.breakers {
		states[name] = cb.State().String()
	}
	return states
}
