// Package observe decides which scope mutations affect a template and
// debounces the resulting recomputes.
package observe

import (
	"strings"
	"sync"
	"time"

	"github.com/canopyclimate/clay/expr"
)

// DefaultDelay is the debounce delay used when Config.Delay is zero.
const DefaultDelay = 4 * time.Millisecond

// A Scheduler runs f once after d. The returned function cancels the call
// if it has not started and reports whether it did so.
// A Scheduler must not call f before returning.
type Scheduler func(d time.Duration, f func()) (stop func() bool)

// TimerScheduler schedules f with time.AfterFunc.
func TimerScheduler(d time.Duration, f func()) (stop func() bool) {
	return time.AfterFunc(d, f).Stop
}

// Config configures an Observer.
type Config struct {
	Delay     time.Duration // defaults to DefaultDelay
	Scheduler Scheduler     // defaults to TimerScheduler
}

// Symbols returns the distinct "{{...}}" symbols in raw, trimmed, in the
// order they first appear. A repeat directive "{{item in list}}"
// contributes its collection path, list.
func Symbols(raw string) []string {
	in := expr.Compile(raw)
	if in == nil {
		return nil
	}
	var syms []string
	seen := make(map[string]bool)
	for _, p := range in.Paths() {
		if r, err := expr.CompileRepeat("{{" + p + "}}"); err == nil {
			p = r.Path()
		}
		if p == "" || seen[p] {
			continue
		}
		seen[p] = true
		syms = append(syms, p)
	}
	return syms
}

// An Observer watches the paths a template refers to and calls its
// recompute function, debounced, when a relevant path changes.
//
// A symbol with several segments watches its host, the path without the
// last segment: any change to a property of the host counts. A symbol with
// a single segment watches that property of the scope root.
type Observer struct {
	roots   map[string]bool
	hosts   map[string]bool
	symbols map[string]bool

	recompute func()
	delay     time.Duration
	schedule  Scheduler

	mu      sync.Mutex
	pending bool
	stopped bool
	cancel  func() bool
}

// New returns an Observer for symbols that calls recompute.
func New(symbols []string, recompute func(), cfg Config) *Observer {
	o := &Observer{
		roots:     make(map[string]bool),
		hosts:     make(map[string]bool),
		symbols:   make(map[string]bool),
		recompute: recompute,
		delay:     cfg.Delay,
		schedule:  cfg.Scheduler,
	}
	if o.delay <= 0 {
		o.delay = DefaultDelay
	}
	if o.schedule == nil {
		o.schedule = TimerScheduler
	}
	for _, sym := range symbols {
		sym = strings.TrimSpace(sym)
		if sym == "" {
			continue
		}
		o.symbols[sym] = true
		if i := strings.LastIndexByte(sym, '.'); i >= 0 {
			o.hosts[sym[:i]] = true
		} else {
			o.roots[sym] = true
		}
	}
	return o
}

// Watches reports whether a mutation at path can change the rendered tree.
// That is the case when path is a watched root property, a property of a
// watched host, a symbol itself, or an ancestor of a watched host or symbol.
func (o *Observer) Watches(path string) bool {
	path = strings.TrimSpace(path)
	if path == "" {
		return false
	}
	if o.roots[path] || o.symbols[path] || o.hosts[path] {
		return true
	}
	if i := strings.LastIndexByte(path, '.'); i >= 0 && o.hosts[path[:i]] {
		return true
	}
	prefix := path + "."
	for h := range o.hosts {
		if strings.HasPrefix(h, prefix) {
			return true
		}
	}
	for s := range o.symbols {
		if strings.HasPrefix(s, prefix) {
			return true
		}
	}
	return false
}

// Notify reports mutations at paths and invalidates if any is watched.
// It reports whether an invalidation was requested.
func (o *Observer) Notify(paths ...string) bool {
	for _, p := range paths {
		if o.Watches(p) {
			o.Invalidate()
			return true
		}
	}
	return false
}

// Invalidate schedules a recompute after the debounce delay.
// It does nothing if one is already pending or the observer is stopped.
func (o *Observer) Invalidate() {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.stopped || o.pending {
		return
	}
	o.pending = true
	o.cancel = o.schedule(o.delay, o.fire)
}

func (o *Observer) fire() {
	o.mu.Lock()
	if o.stopped || !o.pending {
		o.mu.Unlock()
		return
	}
	o.pending = false
	o.cancel = nil
	o.mu.Unlock()
	o.recompute()
}

// Pending reports whether a recompute is scheduled.
func (o *Observer) Pending() bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.pending
}

// Stop cancels any scheduled recompute. Later invalidations are ignored.
// Stop may be called more than once.
func (o *Observer) Stop() {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.stopped = true
	o.pending = false
	if o.cancel != nil {
		o.cancel()
		o.cancel = nil
	}
}
