package owner

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	"golang.org/x/sync/singleflight"
)

// Registry is a map-backed Owner. Factories are registered under fully
// qualified specifiers ("type:name"); Lookup instantiates each specifier once
// and caches the instance.
type Registry struct {
	mu        sync.RWMutex
	factories map[string]Factory
	instances map[string]any
	group     singleflight.Group
}

var _ Owner = (*Registry)(nil)

// NewRegistry creates an empty registry instance.
func NewRegistry() *Registry {
	return &Registry{
		factories: make(map[string]Factory),
		instances: make(map[string]any),
	}
}

// Register adds a factory. Duplicate specifiers return an error.
func (r *Registry) Register(specifier string, factory Factory) error {
	if factory == nil {
		return fmt.Errorf("owner: factory for %q is nil", specifier)
	}
	spec, err := normalizeSpecifier(specifier)
	if err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.factories[spec]; exists {
		return fmt.Errorf("owner: %q already registered", spec)
	}
	r.factories[spec] = factory
	return nil
}

// RegisterInstance registers a value that Lookup returns as-is.
func (r *Registry) RegisterInstance(specifier string, value any) error {
	if value == nil {
		return fmt.Errorf("owner: instance for %q is nil", specifier)
	}
	spec, err := normalizeSpecifier(specifier)
	if err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.factories[spec]; exists {
		return fmt.Errorf("owner: %q already registered", spec)
	}
	r.factories[spec] = FactoryFunc(func(map[string]any) (any, error) { return value, nil })
	r.instances[spec] = value
	return nil
}

// MustRegister panics on registration failure. Useful for init-time wiring.
func (r *Registry) MustRegister(specifier string, factory Factory) {
	if err := r.Register(specifier, factory); err != nil {
		panic(err)
	}
}

// Identify expands a bare name against the referrer's type and trims
// whitespace. "HelloWorld" referred from "component:Main" identifies as
// "component:HelloWorld".
func (r *Registry) Identify(specifier, referrer string) string {
	spec := strings.TrimSpace(specifier)
	if spec == "" {
		return ""
	}
	if strings.Contains(spec, ":") {
		return spec
	}
	kind, _, ok := strings.Cut(strings.TrimSpace(referrer), ":")
	if !ok || kind == "" {
		return spec
	}
	return kind + ":" + spec
}

// FactoryFor returns the registered factory or nil.
func (r *Registry) FactoryFor(specifier, referrer string) Factory {
	spec := r.Identify(specifier, referrer)

	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.factories[spec]
}

// Lookup returns the cached instance for specifier, creating it on first use.
// Concurrent first lookups share a single Create call. Factory failures
// return nil and are not cached.
func (r *Registry) Lookup(specifier, referrer string) any {
	spec := r.Identify(specifier, referrer)

	r.mu.RLock()
	instance, cached := r.instances[spec]
	factory := r.factories[spec]
	r.mu.RUnlock()

	if cached {
		return instance
	}
	if factory == nil {
		return nil
	}

	value, err, _ := r.group.Do(spec, func() (any, error) {
		r.mu.RLock()
		existing, ok := r.instances[spec]
		r.mu.RUnlock()
		if ok {
			return existing, nil
		}

		created, err := factory.Create(nil)
		if err != nil {
			return nil, err
		}

		r.mu.Lock()
		r.instances[spec] = created
		r.mu.Unlock()
		return created, nil
	})
	if err != nil {
		return nil
	}
	return value
}

// List returns a sorted list of registered specifiers.
func (r *Registry) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.factories))
	for name := range r.factories {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Has reports whether a specifier is registered.
func (r *Registry) Has(specifier string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	_, ok := r.factories[strings.TrimSpace(specifier)]
	return ok
}

func normalizeSpecifier(specifier string) (string, error) {
	spec := strings.TrimSpace(specifier)
	kind, name, ok := strings.Cut(spec, ":")
	if !ok || strings.TrimSpace(kind) == "" || strings.TrimSpace(name) == "" {
		return "", fmt.Errorf("owner: specifier %q must look like type:name", specifier)
	}
	return strings.TrimSpace(kind) + ":" + strings.TrimSpace(name), nil
}
