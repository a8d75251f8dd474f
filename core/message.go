package core

import (
	"time"

	"github.com/google/uuid"
)

// Part represents a polymorphic segment of role-based message content.
// Concrete part types implement the unexported isPart marker enabling a
// closed set.
type Part interface{ isPart() }

// TextPart is a plain text content segment.
type TextPart struct {
	Text     string         // Plain UTF-8 text
	Metadata map[string]any // Optional producer-provided metadata
}

// isPart implements the Part interface for TextPart.
func (TextPart) isPart() {}

// DataPart is a structured data segment (e.g., JSON object map).
type DataPart struct {
	Data     map[string]any // Structured key/value payload
	Metadata map[string]any
}

// isPart implements the Part interface for DataPart.
func (DataPart) isPart() {}

// ToolCall describes a single requested invocation of an external tool,
// identified uniquely within the reasoning result that produced it.
type ToolCall struct {
	ID        string `json:"id"`                  // Stable id correlating call and result
	Name      string `json:"name"`                // Tool name
	Arguments string `json:"arguments,omitempty"` // Serialized argument payload (JSON)
}

// ToolCallPart wraps a ToolCall as a message part.
type ToolCallPart struct {
	ToolCall ToolCall
	Metadata map[string]any
}

// isPart implements the Part interface for ToolCallPart.
func (ToolCallPart) isPart() {}

// ToolResult describes the outcome of a previously issued tool call.
type ToolResult struct {
	ID     string `json:"id"`               // Matches originating ToolCall ID
	Name   string `json:"name"`             // Tool name
	Output any    `json:"output,omitempty"` // Successful result (any JSON-serializable shape)
	Error  string `json:"error,omitempty"`  // Populated on failure
}

// ToolResultPart wraps a ToolResult as a message part.
type ToolResultPart struct {
	ToolResult ToolResult
	Metadata   map[string]any
}

// isPart implements the Part interface for ToolResultPart.
func (ToolResultPart) isPart() {}

// Message is the unit of conversation exchanged between the agent, the
// reasoning backend and tools. After being appended to memory it should be
// treated as immutable.
type Message struct {
	ID        string    `json:"id"`
	Role      string    `json:"role"` // user, assistant, tool, system
	Parts     []Part    `json:"parts"`
	Timestamp time.Time `json:"timestamp"`
}

// NewMessage creates a bare message with a fresh id and UTC timestamp.
func NewMessage(role string) Message {
	return Message{ID: NewID(), Role: role, Timestamp: time.Now().UTC()}
}

// NewTextMessage creates a message holding a single text part.
func NewTextMessage(role, text string) Message {
	m := NewMessage(role)
	m.Parts = []Part{TextPart{Text: text}}
	return m
}

// NewToolResultMessage creates a tool-role message carrying a single tool
// result. If err is non-nil its message is copied into the result's Error
// field.
func NewToolResultMessage(id, name string, output any, err error) Message {
	tr := ToolResult{ID: id, Name: name, Output: output}
	if err != nil {
		tr.Error = err.Error()
	}
	m := NewMessage("tool")
	m.Parts = []Part{ToolResultPart{ToolResult: tr}}
	return m
}

// NewID generates a new unique identifier for messages, tool calls and
// invocations.
func NewID() string { return uuid.NewString() }

// Text concatenates all text parts preserving order.
func (m Message) Text() string {
	var out string
	for _, p := range m.Parts {
		if tp, ok := p.(TextPart); ok {
			out += tp.Text
		}
	}
	return out
}

// ToolCalls returns any ToolCall parts contained within the message
// preserving their original order.
func (m Message) ToolCalls() []ToolCall {
	var calls []ToolCall
	for _, p := range m.Parts {
		if tc, ok := p.(ToolCallPart); ok {
			calls = append(calls, tc.ToolCall)
		}
	}
	return calls
}

// ToolResults returns any ToolResult parts contained within the message
// preserving their original order.
func (m Message) ToolResults() []ToolResult {
	var results []ToolResult
	for _, p := range m.Parts {
		if tr, ok := p.(ToolResultPart); ok {
			results = append(results, tr.ToolResult)
		}
	}
	return results
}

// Clone returns a copy with an independent parts slice. Part payloads are
// shared; parts themselves are treated as immutable values.
func (m Message) Clone() Message {
	c := m
	c.Parts = make([]Part, len(m.Parts))
	copy(c.Parts, m.Parts)
	return c
}

// CloneMessages returns an independent copy of the slice.
func CloneMessages(msgs []Message) []Message {
	out := make([]Message, len(msgs))
	for i, m := range msgs {
		out[i] = m.Clone()
	}
	return out
}
