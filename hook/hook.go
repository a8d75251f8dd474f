package hook

import "context"

// DefaultPriority is assigned to hooks registered without an explicit
// priority. Lower values run earlier.
const DefaultPriority = 100

// Hook is a registered observer capable of processing any event kind. The
// handler receives the event produced by the previous hook in the chain and
// returns an event of the same kind, which becomes the input to the next
// hook. Returning the received event unchanged is the common case.
//
// Returning an error aborts dispatch for the current phase; the state
// machine treats this as a fatal failure of the invocation (except on the
// fire-and-forget Notify path, where errors are logged and swallowed).
type Hook interface {
	HandleEvent(ctx context.Context, ev Event) (Event, error)
}

// HookFunc is an adapter that allows ordinary functions to act as Hooks.
type HookFunc func(ctx context.Context, ev Event) (Event, error)

// HandleEvent implements Hook by invoking the function.
func (fn HookFunc) HandleEvent(ctx context.Context, ev Event) (Event, error) {
	return fn(ctx, ev)
}
