package hook

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/hupe1980/agentloop/logging"
)

// ErrKindMismatch is returned when a hook handler returns an event of a
// different kind than it received, or no event at all.
var ErrKindMismatch = errors.New("hook returned event of different kind")

// RegisterOptions configure a single hook registration.
type RegisterOptions struct {
	// Priority orders hooks; lower values run earlier. Hooks sharing a
	// priority run in registration order.
	Priority int
}

// WithPriority sets the registration priority.
func WithPriority(p int) func(o *RegisterOptions) {
	return func(o *RegisterOptions) { o.Priority = p }
}

// entry is one registered hook with its ordering key.
type entry struct {
	hook     Hook
	priority int
	seq      uint64
}

// Options configure a Registry.
type Options struct {
	// Logger receives swallowed failures from the Notify path.
	Logger logging.Logger
}

// Registry owns the ordered set of hooks and executes events through them.
//
// Ordering is the total order (priority, registration sequence) and is
// stable across repeated dispatch: identical registrations produce identical
// dispatch order on every invocation.
//
// Registration uses copy-on-write: Register builds a fresh slice and swaps
// it in under the lock, so an in-flight dispatch always sees the consistent
// snapshot it started with. Register may therefore run concurrently with
// dispatch on other invocations.
type Registry struct {
	mu      sync.RWMutex
	entries []entry
	nextSeq uint64
	logger  logging.Logger
}

// NewRegistry constructs an empty Registry.
func NewRegistry(optFns ...func(o *Options)) *Registry {
	opts := Options{Logger: logging.NoOpLogger{}}
	for _, fn := range optFns {
		fn(&opts)
	}
	return &Registry{logger: opts.Logger}
}

// Register inserts a hook respecting (priority, registration order). Hooks
// of equal priority keep their relative registration order; registering
// another equal-priority hook later appends it after them.
func (r *Registry) Register(h Hook, optFns ...func(o *RegisterOptions)) {
	opts := RegisterOptions{Priority: DefaultPriority}
	for _, fn := range optFns {
		fn(&opts)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	e := entry{hook: h, priority: opts.Priority, seq: r.nextSeq}
	r.nextSeq++

	// Insert before the first entry with a strictly larger priority. The
	// existing backing array is never mutated so concurrent readers keep a
	// consistent snapshot.
	pos := len(r.entries)
	for i, cur := range r.entries {
		if cur.priority > e.priority {
			pos = i
			break
		}
	}
	next := make([]entry, 0, len(r.entries)+1)
	next = append(next, r.entries[:pos]...)
	next = append(next, e)
	next = append(next, r.entries[pos:]...)
	r.entries = next
}

// Len returns the number of registered hooks.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.entries)
}

// snapshot returns the current entry slice. Writers replace the slice
// wholesale, so the returned header stays valid without further locking.
func (r *Registry) snapshot() []entry {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.entries
}

// Dispatch invokes each hook's handler in order on the single-threaded flow
// of the current invocation. Each handler receives the event produced by the
// previous handler; the final output is returned to the caller.
//
// If a handler fails, dispatch aborts immediately; no subsequent hook runs
// and the error is surfaced to the caller.
func (r *Registry) Dispatch(ctx context.Context, ev Event) (Event, error) {
	kind := ev.Kind()
	for _, e := range r.snapshot() {
		next, err := e.hook.HandleEvent(ctx, ev)
		if err != nil {
			return nil, fmt.Errorf("hook dispatch (%s): %w", kind, err)
		}
		if next == nil || next.Kind() != kind {
			return nil, fmt.Errorf("hook dispatch (%s): %w", kind, ErrKindMismatch)
		}
		ev = next
	}
	return ev, nil
}

// Notify runs the chain in fire-and-forget mode: a failing handler is logged
// and skipped, subsequent hooks still run, and the underlying operation is
// never affected. Used for chunk streaming and Error events, whose dispatch
// failures must not abort the producing call or recurse into another Error
// event.
func (r *Registry) Notify(ctx context.Context, ev Event) {
	kind := ev.Kind()
	for _, e := range r.snapshot() {
		next, err := e.hook.HandleEvent(ctx, ev)
		if err != nil {
			r.logger.Warn("hook notify failed", "kind", string(kind), "error", err.Error())
			continue
		}
		if next != nil && next.Kind() == kind {
			ev = next
		}
	}
}
