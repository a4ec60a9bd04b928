package jpeg

import (
	"fmt"
	"sync"
)

// handle serializes access to a codec handle that is not reentrant.
//
// A panic inside a codec call leaves the native state undefined, so the
// handle is poisoned and refuses every later call.
type handle struct {
	mu       sync.Mutex
	poisoned bool
	cause    any
}

// do runs fn while holding the lock.
func (h *handle) do(op string, fn func() error) (err error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.poisoned {
		return newError(KindPoisoned, op, fmt.Errorf("earlier panic: %v", h.cause))
	}

	defer func() {
		if r := recover(); r != nil {
			h.poisoned = true
			h.cause = r
			err = newError(KindPoisoned, op, fmt.Errorf("panic: %v", r))
		}
	}()

	return fn()
}

// isPoisoned reports whether a previous call panicked.
func (h *handle) isPoisoned() bool {
	h.mu.Lock()
	defer h.mu.Unlock()

	return h.poisoned
}
