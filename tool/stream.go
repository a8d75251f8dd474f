package tool

import (
	"context"
	"errors"
	"strings"
)

// StreamFunctionTool wraps a chunk-emitting function as a StreamingTool.
// The wrapped function receives an emit callback for partial output and
// returns the final result when done.
type StreamFunctionTool struct {
	base *FunctionTool
	fn   func(ctx context.Context, args map[string]any, emit func(delta string)) (any, error)
}

// NewStreamFunctionTool builds a StreamFunctionTool with the same schema
// validation behavior as NewFunctionTool.
func NewStreamFunctionTool(name, description string, parameters map[string]any, fn func(ctx context.Context, args map[string]any, emit func(delta string)) (any, error)) *StreamFunctionTool {
	t := &StreamFunctionTool{fn: fn}
	t.base = NewFunctionTool(name, description, parameters, func(ctx context.Context, args map[string]any) (any, error) {
		var sb strings.Builder
		out, err := fn(ctx, args, func(delta string) { sb.WriteString(delta) })
		if err != nil {
			return nil, err
		}
		if out == nil && sb.Len() > 0 {
			return sb.String(), nil
		}
		return out, nil
	})
	return t
}

// Name implements Tool.
func (t *StreamFunctionTool) Name() string { return t.base.Name() }

// Description implements Tool.
func (t *StreamFunctionTool) Description() string { return t.base.Description() }

// Parameters implements Tool.
func (t *StreamFunctionTool) Parameters() map[string]any { return t.base.Parameters() }

// Call runs the tool without streaming, concatenating emitted chunks
// into the result when the function itself returns none.
func (t *StreamFunctionTool) Call(ctx context.Context, args map[string]any) (any, error) {
	return t.base.Call(ctx, args)
}

// CallStream implements StreamingTool. Chunks are delivered in emit
// order; both channels close once the call finishes.
func (t *StreamFunctionTool) CallStream(ctx context.Context, args map[string]any) (<-chan string, <-chan CallResult) {
	chunks := make(chan string)
	result := make(chan CallResult, 1)

	go func() {
		defer close(chunks)
		defer close(result)

		if err := t.base.validate(args); err != nil {
			result <- CallResult{Err: err}
			return
		}

		out, err := t.fn(ctx, args, func(delta string) {
			select {
			case chunks <- delta:
			case <-ctx.Done():
			}
		})
		if err != nil {
			var te *Error
			if !errors.As(err, &te) {
				err = NewExecutionError(t.base.Name(), err)
			}
			result <- CallResult{Err: err}
			return
		}
		result <- CallResult{Output: out}
	}()

	return chunks, result
}
