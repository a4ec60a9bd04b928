package codec

import (
	"fmt"
	"sort"
	"sync"
)

// Registry manages the available backends.
type Registry struct {
	mu       sync.RWMutex
	backends map[string]Backend
}

var defaultRegistry = NewRegistry()

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{backends: make(map[string]Backend)}
}

// Register registers a backend under its name in the default registry.
func Register(backend Backend) {
	defaultRegistry.Register(backend)
}

// Lookup retrieves a backend by name from the default registry.
func Lookup(name string) (Backend, error) {
	return defaultRegistry.Lookup(name)
}

// Names lists the backends of the default registry.
func Names() []string {
	return defaultRegistry.Names()
}

// Default returns the preferred backend for this build: OpenCV when cgo is
// available, the pure Go backend otherwise.
func Default() Backend {
	if b, err := Lookup(defaultBackendName); err == nil {
		return b
	}
	return Stdlib()
}

// Register registers a backend, replacing any backend with the same name.
func (r *Registry) Register(backend Backend) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.backends[backend.Name()] = backend
}

// Lookup retrieves a backend by name.
func (r *Registry) Lookup(name string) (Backend, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	backend, ok := r.backends[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrBackendNotFound, name)
	}
	return backend, nil
}

// Names returns the registered backend names in sorted order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.backends))
	for name := range r.backends {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
