// Package tool defines the tool abstraction invoked during the acting
// phase of an agent loop. A Tool exposes a name, a description, and a
// JSON Schema for its arguments; the agent passes these to the model as
// tool definitions and executes the tool when the model requests it.
//
// Tools that produce output incrementally implement StreamingTool in
// addition to Tool. FunctionTool wraps a plain Go function and validates
// incoming arguments against the declared schema before invoking it.
package tool
