package app

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/net/html"

	"github.com/goliatone/go-glimmer/pkg/dom"
	"github.com/goliatone/go-glimmer/pkg/environment"
	"github.com/goliatone/go-glimmer/pkg/owner"
	"github.com/goliatone/go-glimmer/pkg/render"
)

// Application is a booted component tree attached to a document.
//
// Rerenders are requested with ScheduleRerender and run on a background
// goroutine. Requests made while a pass is pending collapse into one pass and
// passes never overlap.
type Application struct {
	id       string
	env      *environment.Environment
	owner    owner.Owner
	renderer *render.Renderer
	root     string
	rootEl   *html.Node
	logger   *zap.Logger

	ctx    context.Context
	cancel context.CancelFunc

	// renderMu serializes DOM mutation and serialization.
	renderMu sync.Mutex

	mu        sync.Mutex
	scheduled uint64
	flushed   uint64
	passes    int
	running   bool
	destroyed bool
	waiters   []waiter
	wg        sync.WaitGroup
}

type waiter struct {
	revision uint64
	done     chan error
}

func newApplication(id string, env *environment.Environment, own owner.Owner, renderer *render.Renderer, root string, rootEl *html.Node, logger *zap.Logger) *Application {
	ctx, cancel := context.WithCancel(context.Background())
	return &Application{
		id:       id,
		env:      env,
		owner:    own,
		renderer: renderer,
		root:     root,
		rootEl:   rootEl,
		logger:   logger,
		ctx:      ctx,
		cancel:   cancel,
		passes:   1,
	}
}

// ID returns the unique application identifier.
func (a *Application) ID() string { return a.id }

// Environment returns the environment the application renders into.
func (a *Application) Environment() *environment.Environment { return a.env }

// Owner returns the owner components were created with.
func (a *Application) Owner() owner.Owner { return a.owner }

// RootElement returns the element the root component renders into.
func (a *Application) RootElement() *html.Node { return a.rootEl }

// Root returns the root component instance, or nil for template-only roots.
func (a *Application) Root() any {
	return a.renderer.Instance(a.root)
}

// RenderCount reports how many render passes completed, including the
// initial one.
func (a *Application) RenderCount() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.passes
}

// HTML serializes the root element including its wrapper tag.
func (a *Application) HTML() (string, error) {
	a.renderMu.Lock()
	defer a.renderMu.Unlock()
	return dom.OuterHTML(a.rootEl)
}

// InnerHTML serializes the markup rendered by the root component.
func (a *Application) InnerHTML() (string, error) {
	a.renderMu.Lock()
	defer a.renderMu.Unlock()
	return dom.InnerHTML(a.rootEl)
}

// ScheduleRerender requests a render pass and returns immediately. It is a
// no-op once the application is destroyed.
func (a *Application) ScheduleRerender() {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.destroyed {
		return
	}
	a.scheduled++
	if a.running {
		return
	}
	a.running = true
	a.wg.Add(1)
	go a.flush()
}

// DidRender blocks until every pass scheduled before the call has completed
// and returns the error of the pass that covered it. It returns nil right away
// when nothing is pending or the application is destroyed.
func (a *Application) DidRender(ctx context.Context) error {
	a.mu.Lock()
	if a.destroyed || a.flushed >= a.scheduled {
		a.mu.Unlock()
		return nil
	}
	w := waiter{revision: a.scheduled, done: make(chan error, 1)}
	a.waiters = append(a.waiters, w)
	a.mu.Unlock()

	select {
	case err := <-w.done:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// DidRender waits for pending passes of a.
func DidRender(ctx context.Context, a *Application) error {
	return a.DidRender(ctx)
}

// Destroy stops scheduling, waits for an in-flight pass and tears down every
// live component. The rendered DOM is left in place.
func (a *Application) Destroy() {
	a.mu.Lock()
	if a.destroyed {
		a.mu.Unlock()
		return
	}
	a.destroyed = true
	a.mu.Unlock()

	a.cancel()
	a.wg.Wait()

	a.mu.Lock()
	a.release(nil)
	a.mu.Unlock()

	a.renderer.Destroy()
	a.logger.Debug("application destroyed")
}

func (a *Application) flush() {
	defer a.wg.Done()

	for {
		a.mu.Lock()
		if a.destroyed || a.flushed >= a.scheduled {
			a.running = false
			a.mu.Unlock()
			return
		}
		revision := a.scheduled
		a.mu.Unlock()

		start := time.Now()
		a.renderMu.Lock()
		err := a.renderer.Render(a.ctx, a.root, a.rootEl)
		a.renderMu.Unlock()

		if err != nil {
			a.logger.Warn("render pass failed", zap.Uint64("revision", revision), zap.Error(err))
		} else {
			a.logger.Debug("render pass",
				zap.Uint64("revision", revision),
				zap.Duration("elapsed", time.Since(start)),
			)
		}

		a.mu.Lock()
		a.flushed = revision
		if err == nil {
			a.passes++
		}
		a.notify(revision, err)
		a.mu.Unlock()
	}
}

// notify completes waiters covered by revision. Callers hold a.mu.
func (a *Application) notify(revision uint64, err error) {
	pending := a.waiters[:0]
	for _, w := range a.waiters {
		if w.revision <= revision {
			w.done <- err
			continue
		}
		pending = append(pending, w)
	}
	a.waiters = pending
}

// release completes every waiter. Callers hold a.mu.
func (a *Application) release(err error) {
	for _, w := range a.waiters {
		w.done <- err
	}
	a.waiters = nil
}
