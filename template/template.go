// Package template binds a compiled template to a mutable scope and keeps a
// render target in step with it.
//
// Mutations reported through Set, Update or Notify schedule a debounced
// recompute. The recompute materializes a fresh virtual tree and diffs it
// against what the target shows; the resulting patch set waits in a queue
// until the draw loop applies it on its next tick.
package template

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"github.com/canopyclimate/clay/compiler"
	"github.com/canopyclimate/clay/internal/godebug"
	"github.com/canopyclimate/clay/internal/validate"
	"github.com/canopyclimate/clay/observe"
	"github.com/canopyclimate/clay/scope"
	"github.com/canopyclimate/clay/vdom"
)

// DefaultFrameInterval is the draw loop period used when Config has no Ticks
// and no FrameInterval.
const DefaultFrameInterval = 16 * time.Millisecond

// ErrDestroyed is returned by operations on a destroyed Template.
var ErrDestroyed = errors.New("template: destroyed")

var timingSetting = godebug.New("timing")

// Config configures a Template. The zero Config is ready to use.
type Config struct {
	// Helpers are the hooks available to helper attributes.
	Helpers compiler.Helpers
	// RepeatAttr overrides the repeat attribute name (default "cl-repeat").
	RepeatAttr string `validate:"omitempty,lowercase,printascii"`
	// Debounce is the recompute delay (default 4ms).
	Debounce time.Duration `validate:"gte=0"`
	// FrameInterval is the draw loop period (default 16ms). Ignored if Ticks is set.
	FrameInterval time.Duration `validate:"gte=0"`
	// Ticks, if non-nil, drives the draw loop instead of a time.Ticker.
	Ticks <-chan time.Time
	// Scheduler replaces the recompute timer.
	Scheduler observe.Scheduler
	// Logger receives parse reports and timing logs. Defaults to log.Default().
	Logger *log.Logger
}

// A Template is a live template instance.
type Template struct {
	id        string
	cfg       Config
	logger    *log.Logger
	obs       *observe.Observer
	sometimes rate.Sometimes
	done      chan struct{}

	mu        sync.Mutex
	destroyed bool
	src       string
	scope     scope.Scope
	root      *compiler.Node
	tree      *vdom.Node     // latest materialized tree
	base      *vdom.Node     // tree the target shows while queue is set
	queue     *vdom.PatchSet // patches not yet drawn
}

// New compiles src and binds it to s.
// The template must have exactly one, non-repeating root element.
// If s is nil an empty scope is used.
func New(src string, s scope.Scope, c Config) (*Template, error) {
	if err := validate.Struct(&c); err != nil {
		return nil, fmt.Errorf("template: invalid config: %w", err)
	}
	if s == nil {
		s = scope.Scope{}
	}
	t := &Template{
		id:        uuid.NewString(),
		cfg:       c,
		logger:    c.Logger,
		sometimes: rate.Sometimes{First: 20, Interval: time.Second},
		done:      make(chan struct{}),
		src:       src,
		scope:     s,
	}
	if t.logger == nil {
		t.logger = log.Default()
	}

	start := time.Now()
	root, err := compiler.CompileHTML(src, compiler.Options{
		Helpers:    c.Helpers,
		RepeatAttr: c.RepeatAttr,
		Logger:     t.logger,
	})
	t.timing("parse html", start)
	if err != nil {
		return nil, fmt.Errorf("template: %w", err)
	}
	t.root = root
	t.obs = observe.New(observe.Symbols(src), t.recompute, observe.Config{
		Delay:     c.Debounce,
		Scheduler: c.Scheduler,
	})
	return t, nil
}

// ID returns the instance identifier.
func (t *Template) ID() string { return t.id }

// VTree returns the current virtual tree, materializing it if needed.
// It returns nil once the template is destroyed.
func (t *Template) VTree() *vdom.Node {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.destroyed {
		return nil
	}
	if t.tree == nil {
		t.tree = t.materialize()
	}
	return t.tree
}

// CreateElement materializes the current scope and builds a live element
// from it. The element becomes the baseline for later patch sets.
// It returns nil once the template is destroyed.
func (t *Template) CreateElement() *vdom.Element {
	t.mu.Lock()
	if t.destroyed {
		t.mu.Unlock()
		return nil
	}
	tree := t.materialize()
	t.tree = tree
	t.queue, t.base = nil, nil
	t.mu.Unlock()
	return vdom.Create(tree)
}

func (t *Template) materialize() *vdom.Node {
	start := time.Now()
	tree := compiler.Root(t.root, t.scope)
	t.timing("compute vtree", start)
	return tree
}

// Set stores value at path in the scope and reports the mutation.
// Intermediate maps are created as needed.
func (t *Template) Set(path string, value any) error {
	t.mu.Lock()
	if t.destroyed {
		t.mu.Unlock()
		return ErrDestroyed
	}
	err := scope.Set(t.scope, path, value)
	t.mu.Unlock()
	if err != nil {
		return fmt.Errorf("template: %w", err)
	}
	t.obs.Notify(path)
	return nil
}

// Update runs fn on the scope while no recompute can run, then reports
// mutations at paths.
func (t *Template) Update(fn func(scope.Scope), paths ...string) error {
	t.mu.Lock()
	if t.destroyed {
		t.mu.Unlock()
		return ErrDestroyed
	}
	fn(t.scope)
	t.mu.Unlock()
	t.obs.Notify(paths...)
	return nil
}

// Notify reports mutations made to the scope elsewhere.
// It reports whether any of the paths affects the template.
func (t *Template) Notify(paths ...string) bool {
	return t.obs.Notify(paths...)
}

// Invalidate schedules a recompute regardless of what changed.
func (t *Template) Invalidate() {
	t.obs.Invalidate()
}

// Pending returns the patch set waiting to be drawn, or nil.
func (t *Template) Pending() *vdom.PatchSet {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.queue
}

// recompute runs on the observer's timer.
func (t *Template) recompute() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.destroyed {
		return
	}
	updated := t.materialize()
	if t.tree == nil {
		// Nothing has been shown yet.
		t.tree = updated
		return
	}
	shown := t.tree
	if t.queue != nil {
		shown = t.base
	}
	start := time.Now()
	ps := vdom.Diff(shown, updated)
	t.timing("compute diff", start)
	t.tree = updated
	if ps.Len() == 0 {
		t.queue, t.base = nil, nil
		return
	}
	t.queue, t.base = ps, shown
}

// DrawLoop applies queued patch sets to target, at most one per tick.
// It draws once immediately and then on every tick until ctx is done or the
// template is destroyed. Only one draw loop may run per template.
func (t *Template) DrawLoop(ctx context.Context, target vdom.Target) error {
	ticks := t.cfg.Ticks
	if ticks == nil {
		interval := t.cfg.FrameInterval
		if interval == 0 {
			interval = DefaultFrameInterval
		}
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		ticks = ticker.C
	}
	for {
		if err := t.draw(target); err != nil {
			if errors.Is(err, ErrDestroyed) {
				return nil
			}
			return err
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-t.done:
			return nil
		case _, ok := <-ticks:
			if !ok {
				return nil
			}
		}
	}
}

func (t *Template) draw(target vdom.Target) error {
	t.mu.Lock()
	if t.destroyed {
		t.mu.Unlock()
		return ErrDestroyed
	}
	ps := t.queue
	t.queue, t.base = nil, nil
	t.mu.Unlock()
	if ps == nil {
		return nil
	}
	// Hooks run during Apply and may call back into t.
	start := time.Now()
	err := target.Apply(ps)
	t.timing("apply patch", start)
	if err != nil {
		return fmt.Errorf("template %s: apply patch: %w", t.id, err)
	}
	return nil
}

// Destroy stops the recompute timer and releases the scope, the source,
// the compiled structure and every tree. Calling it again does nothing.
func (t *Template) Destroy() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.destroyed {
		return
	}
	t.destroyed = true
	t.obs.Stop()
	t.src, t.scope, t.root = "", nil, nil
	t.tree, t.base, t.queue = nil, nil, nil
	close(t.done)
}

func (t *Template) timing(label string, start time.Time) {
	if !timingSetting.Enabled() {
		return
	}
	d := time.Since(start)
	t.sometimes.Do(func() {
		t.logger.Printf("template %s: %s: %v", t.id, label, d)
	})
}
