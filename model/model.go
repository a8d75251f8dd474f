// Package model defines the provider-agnostic abstractions and concrete
// helpers for interacting with language / reasoning models inside agentloop.
//
// Core goals:
//   - Unify streaming + non-streaming generation behind a single interface
//   - Normalize tool / function call representation (ToolDefinition, core.ToolCall)
//   - Keep request/response shapes minimal and transport independent
//   - Facilitate lightweight mocking for tests (MockModel)
//
// Providers (e.g. OpenAI, Anthropic) implement the Model interface from this
// package so higher layers (the execution engine, hooks) remain decoupled
// from vendor SDKs.
package model

import (
	"context"
	"fmt"
	"sync"

	"github.com/hupe1980/agentloop/core"
)

// ToolDefinition declaratively exposes a callable function to the model.
type ToolDefinition struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	Parameters  map[string]any `json:"parameters"` // JSON Schema
}

// GenerateConfig carries per-call generation settings. A nil field or zero
// value defers to the provider's default. The summary phase may override the
// config for a single call.
type GenerateConfig struct {
	Model       string   `json:"model,omitempty"`
	Temperature *float64 `json:"temperature,omitempty"`
	MaxTokens   int64    `json:"max_tokens,omitempty"`
}

// Request captures the normalized model input produced by the engine.
type Request struct {
	Messages []core.Message   `json:"messages"` // Ordered conversation input
	Tools    []ToolDefinition `json:"tools,omitempty"`
	Stream   bool             `json:"stream,omitempty"`
	Config   *GenerateConfig  `json:"config,omitempty"` // Optional per-call override
}

// TokenUsage captures token usage statistics for a response.
type TokenUsage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// Response is a (partial or final) chunk emitted by a streaming model. For
// partial responses Message holds the incremental delta; the final response
// carries the complete assembled message.
type Response struct {
	ID           string       `json:"id"`
	Partial      bool         `json:"partial"`
	Message      core.Message `json:"message"`
	FinishReason string       `json:"finish_reason,omitempty"` // "stop", "length", "tool_calls", etc.
	Usage        *TokenUsage  `json:"usage,omitempty"`
}

// Info contains metadata about a model implementation.
type Info struct {
	Name          string `json:"name"`
	Provider      string `json:"provider"` // "openai", "anthropic", "mock", etc.
	SupportsTools bool   `json:"supports_tools"`
}

// Model is the reasoning collaborator contract: given an ordered message
// list (plus tool definitions and generation settings) it returns a single
// reasoning-result message, optionally after emitting an ordered sequence of
// partial messages whose concatenation yields it.
type Model interface {
	Generate(ctx context.Context, req Request) (<-chan Response, <-chan error)

	// Info returns information about the model implementation.
	Info() Info
}

// MockTurn scripts one model call made against a MockModel.
type MockTurn struct {
	// Chunks are optional streamed text deltas emitted before the final
	// response when the request asks for streaming.
	Chunks []string
	// Text is the final text content. If Chunks is set and Text is empty,
	// the final text is the concatenation of the chunks.
	Text string
	// ToolCalls are attached to the final assistant message.
	ToolCalls []core.ToolCall
	// Err aborts the call instead of producing a response.
	Err error
}

// MockModel is a lightweight in-memory Model useful for tests & examples.
// Calls consume scripted turns in order; when the script is exhausted the
// last turn repeats, which makes budget-exhaustion scenarios trivial to set
// up. All methods are safe for concurrent use.
type MockModel struct {
	mu       sync.Mutex
	turns    []MockTurn
	calls    int
	requests []Request
}

// NewMockModel constructs a MockModel with the given scripted turns.
func NewMockModel(turns ...MockTurn) *MockModel {
	return &MockModel{turns: turns}
}

// AddTurn appends a scripted turn.
func (m *MockModel) AddTurn(t MockTurn) { m.mu.Lock(); m.turns = append(m.turns, t); m.mu.Unlock() }

// Calls returns the number of Generate invocations so far.
func (m *MockModel) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

// Requests returns copies of all requests received so far, in call order.
func (m *MockModel) Requests() []Request {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Request, len(m.requests))
	copy(out, m.requests)
	return out
}

// Generate implements Model; emits optional streaming chunks then the final
// response of the next scripted turn.
func (m *MockModel) Generate(ctx context.Context, req Request) (<-chan Response, <-chan error) {
	respCh := make(chan Response, 16)
	errCh := make(chan error, 1)

	m.mu.Lock()
	if len(m.turns) == 0 {
		m.mu.Unlock()
		go func() {
			defer close(respCh)
			defer close(errCh)
			errCh <- fmt.Errorf("mock model: no turns scripted")
		}()
		return respCh, errCh
	}
	idx := m.calls
	if idx >= len(m.turns) {
		idx = len(m.turns) - 1
	}
	turn := m.turns[idx]
	m.calls++
	m.requests = append(m.requests, req)
	m.mu.Unlock()

	go func() {
		defer close(respCh)
		defer close(errCh)

		if turn.Err != nil {
			errCh <- turn.Err
			return
		}

		full := turn.Text
		if req.Stream {
			for _, chunk := range turn.Chunks {
				select {
				case <-ctx.Done():
					errCh <- ctx.Err()
					return
				case respCh <- Response{
					Partial: true,
					Message: core.NewTextMessage("assistant", chunk),
				}:
				}
			}
		}
		if full == "" {
			for _, chunk := range turn.Chunks {
				full += chunk
			}
		}

		final := core.NewTextMessage("assistant", full)
		finish := "stop"
		for _, tc := range turn.ToolCalls {
			final.Parts = append(final.Parts, core.ToolCallPart{ToolCall: tc})
			finish = "tool_calls"
		}
		select {
		case <-ctx.Done():
			errCh <- ctx.Err()
		case respCh <- Response{Partial: false, Message: final, FinishReason: finish}:
		}
	}()

	return respCh, errCh
}

// Info implements Model interface.
func (m *MockModel) Info() Info {
	return Info{Name: "mock", Provider: "mock", SupportsTools: true}
}
