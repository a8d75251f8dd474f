// Package hook implements the event model and dispatch pipeline that expose
// every phase boundary of an agent invocation to registered observers.
//
// The package focuses on three concerns:
//
//  1. A closed set of phase-tagged event variants (PreCallEvent through
//     ErrorEvent) whose mutability is fixed per variant by the presence or
//     absence of typed setters.
//  2. The Registry, which holds hooks ordered by (priority, registration
//     sequence) and threads one event sequentially through the chain.
//  3. The reentry consistency check guarding re-entry into reasoning while
//     tool calls are still pending.
//
// Dispatch semantics:
//   - Dispatch runs hooks one after another; each handler receives the event
//     produced by the previous handler and must return an event of the same
//     kind. A handler error aborts the chain and surfaces to the caller.
//   - Notify is the fire-and-forget counterpart used for chunk streaming and
//     Error events: handler failures are logged and swallowed, and the chain
//     continues. The two paths are deliberately separate so the differing
//     error-propagation policies never mix.
//
// The registry uses copy-on-write snapshots so registration may occur
// concurrently with dispatch on other invocations.
package hook
