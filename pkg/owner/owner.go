// Package owner models the dependency-injection capability that components
// and environments are wired with. Any value implementing Owner qualifies;
// Registry is the bundled implementation.
package owner

// Owner resolves specifiers such as "component:Main" or "service:store".
// The referrer is the specifier of the requesting object and may be empty.
type Owner interface {
	Identify(specifier, referrer string) string
	FactoryFor(specifier, referrer string) Factory
	Lookup(specifier, referrer string) any
}

// Factory creates instances for a specifier.
type Factory interface {
	Create(props map[string]any) (any, error)
}

// FactoryFunc adapts a function to Factory.
type FactoryFunc func(props map[string]any) (any, error)

func (fn FactoryFunc) Create(props map[string]any) (any, error) {
	return fn(props)
}

// Holder is implemented by anything that can carry an owner. Embed Slot to
// satisfy it.
type Holder interface {
	ownerSlot() *Slot
}

// Slot stores a non-owning owner reference.
type Slot struct {
	owner Owner
}

func (s *Slot) ownerSlot() *Slot { return s }

// Set attaches o to target. The target does not manage the owner's lifetime.
func Set(target Holder, o Owner) {
	if target == nil {
		return
	}
	if slot := target.ownerSlot(); slot != nil {
		slot.owner = o
	}
}

// Get returns the owner attached to target, or nil.
func Get(target Holder) Owner {
	if target == nil {
		return nil
	}
	slot := target.ownerSlot()
	if slot == nil {
		return nil
	}
	return slot.owner
}
