// Package component defines how Go values act as template components: the
// factory signature, named arguments, lifecycle hooks and property lookup.
package component

import (
	"maps"

	"github.com/goliatone/go-glimmer/pkg/owner"
)

// Args is the read-only snapshot of named arguments (@name) passed to a
// component invocation. Data only flows from parent to child.
type Args map[string]any

// Get returns the argument value and whether it was passed.
func (a Args) Get(name string) (any, bool) {
	v, ok := a[name]
	return v, ok
}

// Clone returns a shallow copy.
func (a Args) Clone() Args {
	if a == nil {
		return Args{}
	}
	return maps.Clone(a)
}

// Factory creates a component instance. It plays the role of a component
// class: the owner is whatever the application was booted with and args are
// the named arguments of the first render.
type Factory func(o owner.Owner, args Args) any

// ArgsReceiver is implemented by components that want fresh args on every
// rerender.
type ArgsReceiver interface {
	SetArgs(args Args)
}

// Destroyer is implemented by components that release resources when they
// leave the rendered tree or the application is destroyed.
type Destroyer interface {
	WillDestroy()
}

// Base is an embeddable helper that stores the owner and current args.
type Base struct {
	owner.Slot
	args Args
}

// NewBase returns a Base wired with o and args.
func NewBase(o owner.Owner, args Args) Base {
	b := Base{args: args}
	owner.Set(&b, o)
	return b
}

// Args returns the current named arguments.
func (b *Base) Args() Args {
	return b.args
}

// SetArgs replaces the named arguments; the renderer calls it on rerender.
func (b *Base) SetArgs(args Args) {
	b.args = args
}

// Owner returns the owner the component was created with.
func (b *Base) Owner() owner.Owner {
	return owner.Get(b)
}
