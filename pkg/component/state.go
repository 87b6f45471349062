package component

import (
	"maps"
	"sync"

	"github.com/goliatone/go-glimmer/pkg/owner"
)

// State is a map-backed component. Apps loaded from disk have no Go types, so
// their components are States seeded from configuration.
type State struct {
	Base

	mu     sync.RWMutex
	values map[string]any
}

var _ Getter = (*State)(nil)

// NewState returns a State holding a copy of values.
func NewState(o owner.Owner, args Args, values map[string]any) *State {
	s := &State{Base: NewBase(o, args), values: maps.Clone(values)}
	if s.values == nil {
		s.values = make(map[string]any)
	}
	return s
}

// FromMap returns a Factory producing a fresh State per instance.
func FromMap(values map[string]any) Factory {
	return func(o owner.Owner, args Args) any {
		return NewState(o, args, values)
	}
}

// Get implements Getter. Stored values win over the "args" pseudo-property.
func (s *State) Get(key string) (any, bool) {
	s.mu.RLock()
	v, ok := s.values[key]
	s.mu.RUnlock()
	if ok {
		return v, true
	}
	if key == "args" {
		return s.Args(), true
	}
	return nil, false
}

// Set stores a value; callers schedule a rerender to see it.
func (s *State) Set(key string, value any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.values[key] = value
}
