package core

import "time"

// StopSource identifies who triggered an interruption.
type StopSource string

const (
	// StopSourceHook marks a stop requested by a registered hook.
	StopSourceHook StopSource = "hook"

	// StopSourceSystem marks a stop caused by the engine itself, e.g.
	// context cancellation of an in-flight invocation.
	StopSourceSystem StopSource = "system"
)

// InterruptContext is an immutable snapshot taken at the moment an
// invocation is stopped early. It is consumed by the next resume invocation
// and not retained once resumed.
type InterruptContext struct {
	// Source records who triggered the interruption.
	Source StopSource

	// Timestamp records when the interruption fired.
	Timestamp time.Time

	// Message optionally carries the external message that triggered the
	// interruption. Nil for hook- and cancellation-driven stops.
	Message *Message

	// PendingToolCalls lists the tool invocations still pending at the
	// moment of interruption, in their original order. In-flight calls
	// (issued but unresolved) are recorded as pending for resume.
	PendingToolCalls []ToolCall
}

// NewInterruptContext constructs a snapshot with the current UTC time and a
// defensive copy of the pending call list.
func NewInterruptContext(source StopSource, msg *Message, pending []ToolCall) *InterruptContext {
	cp := make([]ToolCall, len(pending))
	copy(cp, pending)
	return &InterruptContext{
		Source:           source,
		Timestamp:        time.Now().UTC(),
		Message:          msg,
		PendingToolCalls: cp,
	}
}
