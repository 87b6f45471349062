package app

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/net/html"

	"github.com/goliatone/go-glimmer/pkg/component"
	"github.com/goliatone/go-glimmer/pkg/environment"
	"github.com/goliatone/go-glimmer/pkg/owner"
	"github.com/goliatone/go-glimmer/pkg/render"
	"github.com/goliatone/go-glimmer/pkg/syntax"
)

// Builder collects components, templates and helpers and boots them into an
// Application. A builder boots at most once.
type Builder struct {
	mu sync.Mutex

	cfg        config
	components map[string]component.Factory
	templates  map[string]string
	helpers    *render.HelperRegistry
	booted     bool
}

// New returns a builder in the configuring state.
func New(opts ...Option) *Builder {
	cfg := config{
		rootName: DefaultRootName,
		rootTag:  DefaultRootTag,
		logger:   zap.NewNop(),
	}
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		opt(&cfg)
	}
	return &Builder{
		cfg:        cfg,
		components: make(map[string]component.Factory),
		templates:  make(map[string]string),
		helpers:    render.NewHelperRegistry(),
	}
}

// Component registers a component factory and returns the builder. It panics
// when the name is invalid.
func (b *Builder) Component(name string, factory component.Factory) *Builder {
	if err := b.AddComponent(name, factory); err != nil {
		panic(err)
	}
	return b
}

// Template registers template source for name and returns the builder. It
// panics when the name is invalid.
func (b *Builder) Template(name, source string) *Builder {
	if err := b.AddTemplate(name, source); err != nil {
		panic(err)
	}
	return b
}

// Helper registers a custom helper and returns the builder. It panics when
// the helper cannot be registered.
func (b *Builder) Helper(name string, fn render.Helper) *Builder {
	if err := b.AddHelper(name, fn); err != nil {
		panic(err)
	}
	return b
}

// AddComponent registers a component factory. A nil factory declares a
// template-only component.
func (b *Builder) AddComponent(name string, factory component.Factory) error {
	if !render.IsComponentName(name) {
		return &NameError{Kind: "component", Name: name}
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	if b.booted {
		return ErrAlreadyBooted
	}
	b.components[name] = factory
	return nil
}

// AddTemplate registers template source. Registering a name twice replaces
// the earlier source.
func (b *Builder) AddTemplate(name, source string) error {
	if !render.IsComponentName(name) {
		return &NameError{Kind: "template", Name: name}
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	if b.booted {
		return ErrAlreadyBooted
	}
	b.templates[name] = source
	return nil
}

// AddHelper registers a custom helper.
func (b *Builder) AddHelper(name string, fn render.Helper) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.booted {
		return ErrAlreadyBooted
	}
	if err := b.helpers.Register(name, fn); err != nil {
		return fmt.Errorf("app: %w", err)
	}
	return nil
}

// Boot validates the registrations, compiles every template and renders the
// root component into a new element appended to the document body. When Boot
// fails nothing stays in the document and the builder can be fixed and
// booted again.
func (b *Builder) Boot(ctx context.Context) (*Application, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.booted {
		return nil, ErrAlreadyBooted
	}

	for _, name := range sortedKeys(b.components) {
		if _, ok := b.templates[name]; !ok {
			return nil, &MissingTemplateError{Component: name}
		}
	}

	compiled := make(map[string]*syntax.Template, len(b.templates))
	for _, name := range sortedKeys(b.templates) {
		tpl, err := syntax.Parse(name, b.templates[name])
		if err != nil {
			return nil, fmt.Errorf("app: compile template %q: %w", name, err)
		}
		compiled[name] = tpl
	}

	root := b.cfg.rootName
	if _, ok := compiled[root]; !ok {
		return nil, fmt.Errorf("app: root component %q has no template: %w", root, ErrMissingTemplate)
	}

	env := b.cfg.env
	if env == nil {
		opts := environment.Options{Document: b.cfg.document}
		env = environment.Create(opts)
	}

	own := b.cfg.owner
	if own == nil {
		own = env.Owner()
	}
	if own == nil {
		registry, err := b.defaultOwner(compiled)
		if err != nil {
			return nil, err
		}
		own = registry
	}

	logger := b.cfg.logger
	renderer := render.New(
		render.WithOperations(env.AppendOperations()),
		render.WithOwner(own),
		render.WithHelpers(b.helpers),
		render.WithPolicy(b.cfg.policy),
		render.WithLogger(logger),
	)
	for _, name := range sortedKeys(compiled) {
		def := render.Definition{
			Name:     name,
			Template: compiled[name],
			Factory:  b.factory(own, name),
		}
		if err := renderer.Define(def); err != nil {
			return nil, fmt.Errorf("app: %w", err)
		}
	}

	ops := env.AppendOperations()
	body := env.Document().Body()
	if body == nil {
		return nil, fmt.Errorf("app: document has no body")
	}
	rootEl := ops.CreateElement(b.cfg.rootTag)
	ops.AppendChild(body, rootEl)

	id := uuid.NewString()
	logger = logger.With(zap.String("app", id))
	if err := renderer.Render(ctx, root, rootEl); err != nil {
		removeNode(rootEl)
		renderer.Destroy()
		logger.Debug("boot failed", zap.Error(err))
		return nil, fmt.Errorf("app: initial render: %w", err)
	}

	if env.Owner() == nil {
		owner.Set(env, own)
	}
	b.booted = true
	logger.Debug("application booted",
		zap.String("root", root),
		zap.Int("templates", len(compiled)),
	)
	return newApplication(id, env, own, renderer, root, rootEl, logger), nil
}

// factory returns the Go factory registered for name, falling back to a
// "component:<name>" factory known to the owner.
func (b *Builder) factory(own owner.Owner, name string) component.Factory {
	if f := b.components[name]; f != nil {
		return f
	}
	ownerFactory := own.FactoryFor("component:"+name, "")
	if ownerFactory == nil {
		return nil
	}
	logger := b.cfg.logger
	return func(_ owner.Owner, args component.Args) any {
		value, err := ownerFactory.Create(args)
		if err != nil {
			logger.Warn("owner factory failed", zap.String("component", name), zap.Error(err))
			return nil
		}
		return value
	}
}

// defaultOwner builds a registry exposing the registered components,
// templates and helpers under their specifiers.
func (b *Builder) defaultOwner(compiled map[string]*syntax.Template) (*owner.Registry, error) {
	registry := owner.NewRegistry()
	for name, tpl := range compiled {
		if err := registry.RegisterInstance("template:"+name, tpl); err != nil {
			return nil, fmt.Errorf("app: %w", err)
		}
	}
	for _, name := range b.helpers.List() {
		helper, _ := b.helpers.Get(name)
		if err := registry.RegisterInstance("helper:"+name, helper); err != nil {
			return nil, fmt.Errorf("app: %w", err)
		}
	}
	for name, factory := range b.components {
		if factory == nil {
			continue
		}
		create := factory
		err := registry.Register("component:"+name, owner.FactoryFunc(func(props map[string]any) (any, error) {
			return create(registry, component.Args(props)), nil
		}))
		if err != nil {
			return nil, fmt.Errorf("app: %w", err)
		}
	}
	return registry, nil
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// removeNode detaches n from its parent when it has one.
func removeNode(n *html.Node) {
	if n != nil && n.Parent != nil {
		n.Parent.RemoveChild(n)
	}
}
