package shell

import (
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"sync"

	"github.com/flosch/pongo2/v6"
)

// DefaultLayout is the embedded layout used when none is configured.
const DefaultLayout = "layouts/page.html"

//go:embed layouts/*.html
var defaultLayouts embed.FS

// LayoutsFS returns the embedded layouts rooted at the layouts directory.
func LayoutsFS() fs.FS {
	sub, err := fs.Sub(defaultLayouts, "layouts")
	if err != nil {
		return defaultLayouts
	}
	return sub
}

// Page is the data a layout renders.
type Page struct {
	Title       string
	Lang        string
	Stylesheets []string
	Scripts     []string
	// Body is trusted markup, typically an application's serialized root
	// element. It is inserted without escaping.
	Body string
	// Data is exposed to the layout as "data".
	Data map[string]any
}

// Option configures a Shell.
type Option func(*config)

type config struct {
	fsys    fs.FS
	layout  string
	globals map[string]any
}

// WithLayoutFS loads layouts from fsys instead of the embedded defaults.
func WithLayoutFS(fsys fs.FS) Option {
	return func(cfg *config) {
		if fsys != nil {
			cfg.fsys = fsys
		}
	}
}

// WithLayout selects the layout file within the layout filesystem.
func WithLayout(name string) Option {
	return func(cfg *config) {
		if trimmed := strings.TrimSpace(name); trimmed != "" {
			cfg.layout = trimmed
		}
	}
}

// WithGlobals seeds values available to every render.
func WithGlobals(data map[string]any) Option {
	return func(cfg *config) {
		if len(data) == 0 {
			return
		}
		if cfg.globals == nil {
			cfg.globals = make(map[string]any, len(data))
		}
		for key, value := range data {
			cfg.globals[strings.TrimSpace(key)] = value
		}
	}
}

// Shell wraps rendered markup in a full HTML page using a pongo2 layout.
type Shell struct {
	mu sync.RWMutex

	set    *pongo2.TemplateSet
	layout string
	tpl    *pongo2.Template
}

// New constructs a Shell. The layout is compiled on first use.
func New(options ...Option) (*Shell, error) {
	cfg := &config{
		fsys:   defaultLayouts,
		layout: DefaultLayout,
	}
	for _, opt := range options {
		if opt == nil {
			continue
		}
		opt(cfg)
	}

	set := pongo2.NewSet("glimmer-shell", pongo2.NewFSLoader(cfg.fsys))
	if len(cfg.globals) > 0 {
		if set.Globals == nil {
			set.Globals = make(pongo2.Context)
		}
		set.Globals.Update(pongo2.Context(cfg.globals))
	}
	return &Shell{set: set, layout: cfg.layout}, nil
}

// Render executes the layout for page.
func (s *Shell) Render(page Page) ([]byte, error) {
	if s == nil || s.set == nil {
		return nil, errors.New("shell: shell is nil")
	}
	tpl, err := s.template()
	if err != nil {
		return nil, err
	}

	ctx := pongo2.Context{
		"title":       page.Title,
		"lang":        page.Lang,
		"stylesheets": page.Stylesheets,
		"scripts":     page.Scripts,
		"body":        page.Body,
		"data":        page.Data,
	}

	s.mu.RLock()
	out, err := tpl.ExecuteBytes(ctx)
	s.mu.RUnlock()
	if err != nil {
		return nil, fmt.Errorf("shell: execute layout %q: %w", s.layout, err)
	}
	return out, nil
}

func (s *Shell) template() (*pongo2.Template, error) {
	s.mu.RLock()
	if s.tpl != nil {
		tpl := s.tpl
		s.mu.RUnlock()
		return tpl, nil
	}
	s.mu.RUnlock()

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.tpl != nil {
		return s.tpl, nil
	}
	tpl, err := s.set.FromFile(s.layout)
	if err != nil {
		return nil, fmt.Errorf("shell: load layout %q: %w", s.layout, err)
	}
	s.tpl = tpl
	return tpl, nil
}
