package testutil

import (
	"github.com/hupe1980/agentloop/core"
)

// MessageBuilder provides a fluent helper for constructing messages in tests.
// Example:
//
//	msg := NewMessageBuilder().AssistantText("thinking...").ToolCall("c1", "search", `{"q":"go"}`).Build()
//
// Chain only the parts you need; sensible defaults are applied.
type MessageBuilder struct {
	id    string
	role  string
	parts []core.Part
}

// NewMessageBuilder creates a builder with default role "assistant".
func NewMessageBuilder() *MessageBuilder { return &MessageBuilder{role: "assistant"} }

// ID overrides the auto-generated message ID (chainable). Use mainly in
// tests where determinism matters.
func (b *MessageBuilder) ID(id string) *MessageBuilder { b.id = id; return b }

// Role sets the message role (chainable).
func (b *MessageBuilder) Role(r string) *MessageBuilder { b.role = r; return b }

// UserText appends a text part and sets role to user (chainable).
func (b *MessageBuilder) UserText(t string) *MessageBuilder {
	b.role = "user"
	b.parts = append(b.parts, core.TextPart{Text: t})
	return b
}

// AssistantText appends a text part and sets role to assistant (chainable).
func (b *MessageBuilder) AssistantText(t string) *MessageBuilder {
	b.role = "assistant"
	b.parts = append(b.parts, core.TextPart{Text: t})
	return b
}

// ToolCall adds a tool-call part with the provided id, name and JSON
// argument string (chainable).
func (b *MessageBuilder) ToolCall(id, name, args string) *MessageBuilder {
	b.parts = append(b.parts, core.ToolCallPart{ToolCall: core.ToolCall{ID: id, Name: name, Arguments: args}})
	return b
}

// ToolResult adds a tool-result part representing tool execution output and
// sets role to tool (chainable).
func (b *MessageBuilder) ToolResult(id, name string, output any, err error) *MessageBuilder {
	b.role = "tool"
	tr := core.ToolResult{ID: id, Name: name, Output: output}
	if err != nil {
		tr.Error = err.Error()
	}
	b.parts = append(b.parts, core.ToolResultPart{ToolResult: tr})
	return b
}

// AddPart appends a custom content part (chainable).
func (b *MessageBuilder) AddPart(p core.Part) *MessageBuilder {
	b.parts = append(b.parts, p)
	return b
}

// Build constructs the core.Message value.
func (b *MessageBuilder) Build() core.Message {
	m := core.NewMessage(b.role)
	if b.id != "" {
		m.ID = b.id
	}
	m.Parts = append(m.Parts, b.parts...)
	return m
}
