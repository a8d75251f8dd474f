package core

import "context"

// Memory is an append-only ordered message store backing a single agent's
// conversation history. The state machine reads the full history to build
// reasoning input and appends new messages (tool results, reentry
// injections, final answers) as they are produced.
//
// Implementations must be safe for concurrent use; Messages must return a
// defensive copy so callers cannot mutate stored history.
type Memory interface {
	// Add appends messages to the history in the given order.
	Add(ctx context.Context, msgs ...Message) error

	// Messages returns a copy of the full ordered history.
	Messages(ctx context.Context) ([]Message, error)

	// Len returns the number of stored messages.
	Len(ctx context.Context) (int, error)
}
