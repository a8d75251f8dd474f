// Package core provides the foundational domain types and interfaces used by
// agentloop. It defines the core abstractions for:
//
//   - Messages (role-based content with a closed set of part variants)
//   - Tool calls and tool results (correlated by stable identifiers)
//   - Memory (append-only ordered message store per agent)
//   - InterruptContext (snapshot of an early-stopped invocation)
//
// The package intentionally keeps implementation concerns (hook dispatch,
// the execution state machine, model providers) out of scope, exposing small
// interfaces to enable custom backends and extensions.
package core
