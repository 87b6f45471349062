// Package environment bundles the document handle and tree-construction
// capability a render pass writes into.
package environment

import (
	"errors"

	"github.com/goliatone/go-glimmer/pkg/dom"
	"github.com/goliatone/go-glimmer/pkg/owner"
)

// ErrInvalidOptions is returned by New when a required option is missing.
var ErrInvalidOptions = errors.New("environment: invalid options")

// Options configures an Environment. Attach an owner with owner.Set(&opts, o)
// before calling Create and it carries over to the environment.
type Options struct {
	owner.Slot

	Document         *dom.Document
	AppendOperations dom.AppendOperations
}

// Environment is the execution context of a render.
type Environment struct {
	owner.Slot

	document  *dom.Document
	appendOps dom.AppendOperations
}

// New constructs an environment from explicit options. Both the document and
// the append operations are required.
func New(opts Options) (*Environment, error) {
	if opts.Document == nil {
		return nil, errors.Join(ErrInvalidOptions, errors.New("environment: document is required"))
	}
	if opts.AppendOperations == nil {
		return nil, errors.Join(ErrInvalidOptions, errors.New("environment: append operations are required"))
	}
	env := &Environment{
		document:  opts.Document,
		appendOps: opts.AppendOperations,
	}
	owner.Set(env, owner.Get(&opts))
	return env, nil
}

// Create applies defaults for anything opts leaves empty.
func Create(opts Options) *Environment {
	if opts.Document == nil {
		opts.Document = dom.NewDocument()
	}
	if opts.AppendOperations == nil {
		opts.AppendOperations = dom.TreeConstruction{}
	}
	env, _ := New(opts)
	return env
}

// Document returns the document handle.
func (e *Environment) Document() *dom.Document {
	return e.document
}

// AppendOperations returns the tree-construction capability.
func (e *Environment) AppendOperations() dom.AppendOperations {
	return e.appendOps
}

// Owner returns the attached owner, if any.
func (e *Environment) Owner() owner.Owner {
	return owner.Get(e)
}
