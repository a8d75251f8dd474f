package tool

import (
	"context"
	"fmt"
)

// ErrorCode classifies tool failures.
type ErrorCode string

const (
	// ErrCodeValidation indicates the arguments did not satisfy the
	// tool's declared schema.
	ErrCodeValidation ErrorCode = "VALIDATION_ERROR"

	// ErrCodeExecution indicates the tool itself failed while running.
	ErrCodeExecution ErrorCode = "EXECUTION_ERROR"
)

// Error is returned by tools for failures that should be reported back
// to the model rather than abort the agent loop.
type Error struct {
	Code ErrorCode
	Tool string
	Err  error
}

func (e *Error) Error() string {
	return fmt.Sprintf("tool %s: %s: %v", e.Tool, e.Code, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// NewValidationError wraps err as a validation failure for the named tool.
func NewValidationError(tool string, err error) *Error {
	return &Error{Code: ErrCodeValidation, Tool: tool, Err: err}
}

// NewExecutionError wraps err as an execution failure for the named tool.
func NewExecutionError(tool string, err error) *Error {
	return &Error{Code: ErrCodeExecution, Tool: tool, Err: err}
}

// Tool is a capability an agent can invoke during its acting phase.
type Tool interface {
	// Name returns the identifier the model uses to request this tool.
	Name() string

	// Description explains when the tool should be used. It is passed
	// to the model verbatim.
	Description() string

	// Parameters returns the JSON Schema for the tool's arguments.
	Parameters() map[string]any

	// Call executes the tool with the given arguments and returns its
	// output. Implementations should honor ctx cancellation.
	Call(ctx context.Context, args map[string]any) (any, error)
}

// CallResult carries the terminal outcome of a streaming tool call.
type CallResult struct {
	Output any
	Err    error
}

// StreamingTool is implemented by tools that emit partial output while
// executing. Chunks arrive in order on the first channel; the final
// result arrives on the second channel after the chunk channel closes.
type StreamingTool interface {
	Tool

	// CallStream executes the tool, streaming output fragments as they
	// are produced. Both channels are closed when the call completes.
	CallStream(ctx context.Context, args map[string]any) (<-chan string, <-chan CallResult)
}
