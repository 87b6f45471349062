package glimmer

import (
	"context"
	"io/fs"

	"github.com/goliatone/go-glimmer/pkg/app"
	"github.com/goliatone/go-glimmer/pkg/environment"
	"github.com/goliatone/go-glimmer/pkg/loader"
	"github.com/goliatone/go-glimmer/pkg/owner"
	"github.com/goliatone/go-glimmer/pkg/shell"
	"github.com/goliatone/go-glimmer/pkg/syntax"
)

// Builder aliases app.Builder for callers using the top-level package.
type Builder = app.Builder

// Application aliases app.Application.
type Application = app.Application

// Environment aliases environment.Environment.
type Environment = environment.Environment

// Owner aliases owner.Owner.
type Owner = owner.Owner

// New starts configuring an application.
func New(options ...app.Option) *app.Builder {
	return app.New(options...)
}

// CreateEnvironment builds an environment, filling in a fresh document and
// the default tree construction where opts leaves them empty.
func CreateEnvironment(opts environment.Options) *environment.Environment {
	return environment.Create(opts)
}

// Parse compiles template source without registering it.
func Parse(name, source string) (*syntax.Template, error) {
	return syntax.Parse(name, source)
}

// RenderFS loads an application directory, boots it once and returns the
// serialized root element. It is the simplest entry point for static output.
func RenderFS(ctx context.Context, fsys fs.FS, options ...app.Option) (string, error) {
	manifest, err := loader.LoadFS(fsys)
	if err != nil {
		return "", err
	}
	b := app.New(append(manifest.Options(), options...)...)
	if err := manifest.Apply(b); err != nil {
		return "", err
	}
	a, err := b.Boot(ctx)
	if err != nil {
		return "", err
	}
	defer a.Destroy()
	return a.HTML()
}

// EmbeddedLayouts exposes the built-in page layouts so callers can extend
// them without importing the shell package directly.
func EmbeddedLayouts() fs.FS {
	return shell.LayoutsFS()
}
