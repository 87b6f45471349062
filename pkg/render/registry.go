package render

import (
	"fmt"
	"sort"
	"sync"
)

// Helper is a function callable from template expressions. Positional params
// arrive in declaration order; hash holds key=value pairs.
type Helper func(params []any, hash map[string]any) (any, error)

// Simple adapts a positional-only function that cannot fail.
func Simple(fn func(params ...any) any) Helper {
	return func(params []any, _ map[string]any) (any, error) {
		return fn(params...), nil
	}
}

// HelperRegistry stores helpers by name, providing discovery and duplication
// safeguards.
type HelperRegistry struct {
	mu      sync.RWMutex
	helpers map[string]Helper
}

// NewHelperRegistry creates an empty registry instance.
func NewHelperRegistry() *HelperRegistry {
	return &HelperRegistry{
		helpers: make(map[string]Helper),
	}
}

// Register adds a helper. Duplicate names and reserved keywords return an
// error.
func (r *HelperRegistry) Register(name string, helper Helper) error {
	if helper == nil {
		return fmt.Errorf("render: helper %q is nil", name)
	}
	if name == "" {
		return fmt.Errorf("render: helper name is required")
	}
	if IsKeyword(name) {
		return fmt.Errorf("render: %q is a reserved keyword", name)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.helpers[name]; exists {
		return fmt.Errorf("render: helper %q already registered", name)
	}
	r.helpers[name] = helper
	return nil
}

// MustRegister panics on registration failure. Useful for init-time wiring.
func (r *HelperRegistry) MustRegister(name string, helper Helper) {
	if err := r.Register(name, helper); err != nil {
		panic(err)
	}
}

// Get retrieves a helper by name.
func (r *HelperRegistry) Get(name string) (Helper, bool) {
	if r == nil {
		return nil, false
	}
	r.mu.RLock()
	defer r.mu.RUnlock()

	helper, ok := r.helpers[name]
	return helper, ok
}

// List returns a sorted list of helper names.
func (r *HelperRegistry) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.helpers))
	for name := range r.helpers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Has reports whether a helper is registered.
func (r *HelperRegistry) Has(name string) bool {
	_, ok := r.Get(name)
	return ok
}
