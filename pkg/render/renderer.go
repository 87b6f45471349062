package render

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"unicode"
	"unicode/utf8"

	"github.com/microcosm-cc/bluemonday"
	"go.uber.org/zap"
	"golang.org/x/net/html"

	"github.com/goliatone/go-glimmer/pkg/component"
	"github.com/goliatone/go-glimmer/pkg/dom"
	"github.com/goliatone/go-glimmer/pkg/owner"
	"github.com/goliatone/go-glimmer/pkg/syntax"
)

// MaxDepth bounds component nesting within one render pass.
const MaxDepth = 128

// Definition pairs a compiled template with an optional factory. Components
// without a factory are template-only: this is nil inside their template.
type Definition struct {
	Name     string
	Template *syntax.Template
	Factory  component.Factory
}

// Option configures the renderer before construction.
type Option func(*config)

type config struct {
	ops     dom.AppendOperations
	owner   owner.Owner
	helpers *HelperRegistry
	policy  *bluemonday.Policy
	logger  *zap.Logger
}

// WithOperations sets the tree-construction capability.
func WithOperations(ops dom.AppendOperations) Option {
	return func(cfg *config) {
		if ops != nil {
			cfg.ops = ops
		}
	}
}

// WithOwner passes o to every component factory.
func WithOwner(o owner.Owner) Option {
	return func(cfg *config) {
		cfg.owner = o
	}
}

// WithHelpers installs the registry custom helpers resolve from.
func WithHelpers(helpers *HelperRegistry) Option {
	return func(cfg *config) {
		if helpers != nil {
			cfg.helpers = helpers
		}
	}
}

// WithPolicy overrides the sanitizer applied to trusted markup.
func WithPolicy(policy *bluemonday.Policy) Option {
	return func(cfg *config) {
		if policy != nil {
			cfg.policy = policy
		}
	}
}

// WithLogger sets the logger used for component lifecycle events.
func WithLogger(logger *zap.Logger) Option {
	return func(cfg *config) {
		if logger != nil {
			cfg.logger = logger
		}
	}
}

// Renderer evaluates component templates into DOM nodes. It keeps component
// instances alive between passes so state set on them survives a rerender.
// Passes are serialized.
type Renderer struct {
	mu sync.Mutex

	ops     dom.AppendOperations
	owner   owner.Owner
	helpers *HelperRegistry
	policy  *bluemonday.Policy
	logger  *zap.Logger

	defs      map[string]Definition
	instances map[string]*instance
}

type instance struct {
	name string
	self any
}

// New constructs a renderer applying any provided options.
func New(options ...Option) *Renderer {
	cfg := config{
		ops:     dom.TreeConstruction{},
		helpers: NewHelperRegistry(),
		logger:  zap.NewNop(),
	}
	for _, opt := range options {
		if opt == nil {
			continue
		}
		opt(&cfg)
	}
	return &Renderer{
		ops:       cfg.ops,
		owner:     cfg.owner,
		helpers:   cfg.helpers,
		policy:    cfg.policy,
		logger:    cfg.logger,
		defs:      make(map[string]Definition),
		instances: make(map[string]*instance),
	}
}

// Define registers a component definition. Redefining a name replaces it.
func (r *Renderer) Define(def Definition) error {
	if def.Name == "" {
		return fmt.Errorf("render: definition name is required")
	}
	if def.Template == nil {
		return fmt.Errorf("render: definition %q has no template", def.Name)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.defs[def.Name] = def
	return nil
}

// Has reports whether a component definition exists.
func (r *Renderer) Has(name string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.defs[name]
	return ok
}

// Instance returns the live component instance rendered for name at the top
// of the tree, or nil. It is mostly useful to reach the root component.
func (r *Renderer) Instance(name string) any {
	r.mu.Lock()
	defer r.mu.Unlock()
	if inst, ok := r.instances[instanceKey("", name, "")]; ok {
		return inst.self
	}
	return nil
}

// Render evaluates the root component into target, replacing its children.
// The new content is built detached first so a failed pass leaves target
// untouched.
func (r *Renderer) Render(ctx context.Context, root string, target *html.Node) error {
	if target == nil {
		return fmt.Errorf("render: target node is nil")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	def, ok := r.defs[root]
	if !ok {
		return unknownComponent(root)
	}

	p := &pass{
		ctx:     ctx,
		r:       r,
		visited: make(map[string]struct{}),
	}
	scratch := r.ops.CreateElement(target.Data)
	if err := p.invoke(&frame{}, "", def, component.Args{}, nil, nil, scratch); err != nil {
		return err
	}

	r.ops.Clear(target)
	dom.MoveChildren(r.ops, target, scratch)
	r.sweep(p.visited)
	return nil
}

// Destroy tears down every live instance.
func (r *Renderer) Destroy() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sweep(nil)
}

// sweep destroys instances that were not rendered in the last pass, children
// before parents.
func (r *Renderer) sweep(visited map[string]struct{}) {
	var stale []string
	for key := range r.instances {
		if _, ok := visited[key]; !ok {
			stale = append(stale, key)
		}
	}
	sort.Sort(sort.Reverse(sort.StringSlice(stale)))
	for _, key := range stale {
		inst := r.instances[key]
		delete(r.instances, key)
		if d, ok := inst.self.(component.Destroyer); ok {
			d.WillDestroy()
		}
		r.logger.Debug("component destroyed", zap.String("component", inst.name), zap.String("key", key))
	}
}

// helper resolves registered helpers, then built-ins, then "helper:<name>"
// from the owner.
func (r *Renderer) helper(name string) (Helper, bool) {
	if h, ok := r.helpers.Get(name); ok {
		return h, true
	}
	if h, ok := builtins[name]; ok {
		return h, true
	}
	if r.owner == nil {
		return nil, false
	}
	switch h := r.owner.Lookup("helper:"+name, "").(type) {
	case Helper:
		return h, true
	case func(params []any, hash map[string]any) (any, error):
		return h, true
	}
	return nil, false
}

// instanceKey identifies a component instance by its parent, name and
// position in the parent's template.
func instanceKey(parent, name, site string) string {
	return fmt.Sprintf("%s/%s@%s", parent, name, site)
}

// IsComponentName reports whether name follows the capitalized component
// naming rule.
func IsComponentName(name string) bool {
	r, _ := utf8.DecodeRuneInString(name)
	return r != utf8.RuneError && unicode.IsUpper(r)
}
