package tool

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/santhosh-tekuri/jsonschema/v6"
)

// FunctionTool wraps a plain Go function as a Tool. Arguments are
// validated against the declared JSON Schema before the function runs;
// validation failures surface as Error with ErrCodeValidation and never
// reach fn.
type FunctionTool struct {
	name        string
	description string
	parameters  map[string]any
	compiled    *jsonschema.Schema
	compileErr  error
	fn          func(ctx context.Context, args map[string]any) (any, error)
}

// NewFunctionTool builds a FunctionTool. parameters is a JSON Schema as
// a raw map; pass nil to accept any arguments. A malformed schema is
// reported on the first Call rather than at construction.
func NewFunctionTool(name, description string, parameters map[string]any, fn func(ctx context.Context, args map[string]any) (any, error)) *FunctionTool {
	t := &FunctionTool{
		name:        name,
		description: description,
		parameters:  parameters,
		fn:          fn,
	}
	if parameters != nil {
		t.compiled, t.compileErr = compileSchema(parameters)
	}
	return t
}

// Name implements Tool.
func (t *FunctionTool) Name() string {
	return t.name
}

// Description implements Tool.
func (t *FunctionTool) Description() string {
	return t.description
}

// Parameters implements Tool.
func (t *FunctionTool) Parameters() map[string]any {
	return t.parameters
}

// Call validates args against the schema and invokes the wrapped
// function. Errors returned by the function are wrapped as execution
// errors unless they already are a tool Error.
func (t *FunctionTool) Call(ctx context.Context, args map[string]any) (any, error) {
	if err := t.validate(args); err != nil {
		return nil, err
	}

	out, err := t.fn(ctx, args)
	if err != nil {
		var te *Error
		if errors.As(err, &te) {
			return nil, te
		}
		return nil, NewExecutionError(t.name, err)
	}
	return out, nil
}

func (t *FunctionTool) validate(args map[string]any) error {
	if t.compileErr != nil {
		return NewValidationError(t.name, fmt.Errorf("invalid parameter schema: %w", t.compileErr))
	}
	if t.compiled == nil {
		return nil
	}
	// Round-trip through JSON so nested values use the types the
	// validator expects (json.Number, []any, map[string]any).
	inst, err := normalizeInstance(args)
	if err != nil {
		return NewValidationError(t.name, err)
	}
	if err := t.compiled.Validate(inst); err != nil {
		return NewValidationError(t.name, err)
	}
	return nil
}

func compileSchema(raw map[string]any) (*jsonschema.Schema, error) {
	data, err := json.Marshal(raw)
	if err != nil {
		return nil, fmt.Errorf("marshal schema: %w", err)
	}
	doc, err := jsonschema.UnmarshalJSON(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("parse schema: %w", err)
	}
	c := jsonschema.NewCompiler()
	if err := c.AddResource("schema.json", doc); err != nil {
		return nil, fmt.Errorf("add schema resource: %w", err)
	}
	return c.Compile("schema.json")
}

func normalizeInstance(args map[string]any) (any, error) {
	if args == nil {
		args = map[string]any{}
	}
	data, err := json.Marshal(args)
	if err != nil {
		return nil, fmt.Errorf("marshal arguments: %w", err)
	}
	return jsonschema.UnmarshalJSON(bytes.NewReader(data))
}
