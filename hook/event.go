package hook

import (
	"time"

	"github.com/hupe1980/agentloop/core"
	"github.com/hupe1980/agentloop/model"
)

// Kind tags the phase boundary an event represents. A kind is fixed at
// construction and determines which payload fields, if any, are mutable.
type Kind string

const (
	// KindPreCall brackets the start of a whole invocation.
	KindPreCall Kind = "pre_call"
	// KindPostCall brackets the end of a whole invocation and carries the
	// mutable final response.
	KindPostCall Kind = "post_call"

	// KindPreReasoning fires before a call to the reasoning backend.
	KindPreReasoning Kind = "pre_reasoning"
	// KindReasoningChunk streams partial reasoning output (notification-only).
	KindReasoningChunk Kind = "reasoning_chunk"
	// KindPostReasoning fires after the reasoning backend returns.
	KindPostReasoning Kind = "post_reasoning"

	// KindPreActing fires before a single tool invocation.
	KindPreActing Kind = "pre_acting"
	// KindActingChunk streams partial tool output (notification-only).
	KindActingChunk Kind = "acting_chunk"
	// KindPostActing fires after a single tool invocation completes.
	KindPostActing Kind = "post_acting"

	// KindPreSummary fires before the forced summary call when the
	// iteration budget is exhausted.
	KindPreSummary Kind = "pre_summary"
	// KindSummaryChunk streams partial summary output (notification-only).
	KindSummaryChunk Kind = "summary_chunk"
	// KindPostSummary fires after the summary call completes.
	KindPostSummary Kind = "post_summary"

	// KindError reports the failure that aborted an invocation
	// (notification-only).
	KindError Kind = "error"
)

// Agent is the back-reference to the owning agent instance carried by every
// event. Events never own the agent.
type Agent interface {
	Name() string
}

// Event is one phase occurrence handed through the hook chain. Concrete
// variants implement the unexported isEvent marker enabling a closed set, so
// dispatch and the state machine can handle all phase kinds exhaustively.
type Event interface {
	// Kind returns the phase tag, immutable once constructed.
	Kind() Kind

	// Agent returns the owning agent instance.
	Agent() Agent

	// Timestamp returns the event creation time.
	Timestamp() time.Time

	isEvent()
}

// base carries the identity fields shared by all event variants.
type base struct {
	kind      Kind
	agent     Agent
	timestamp time.Time
}

func newBase(kind Kind, agent Agent) base {
	return base{kind: kind, agent: agent, timestamp: time.Now().UTC()}
}

// Kind returns the phase tag.
func (b *base) Kind() Kind { return b.kind }

// Agent returns the owning agent instance.
func (b *base) Agent() Agent { return b.agent }

// Timestamp returns the event creation time.
func (b *base) Timestamp() time.Time { return b.timestamp }

func (b *base) isEvent() {}

// PreCallEvent brackets the start of a whole invocation. It is a read-only
// notification carrying the new input messages.
type PreCallEvent struct {
	base
	input []core.Message
}

// NewPreCallEvent constructs a PreCallEvent for the given input messages.
func NewPreCallEvent(agent Agent, input []core.Message) *PreCallEvent {
	return &PreCallEvent{base: newBase(KindPreCall, agent), input: core.CloneMessages(input)}
}

// Input returns a copy of the invocation's new input messages.
func (e *PreCallEvent) Input() []core.Message { return core.CloneMessages(e.input) }

// PostCallEvent brackets the end of a whole invocation and carries the
// mutable final response.
type PostCallEvent struct {
	base
	result core.Message
}

// NewPostCallEvent constructs a PostCallEvent carrying the final response.
func NewPostCallEvent(agent Agent, result core.Message) *PostCallEvent {
	return &PostCallEvent{base: newBase(KindPostCall, agent), result: result}
}

// Result returns the invocation's final response.
func (e *PostCallEvent) Result() core.Message { return e.result }

// SetResult replaces the final response returned to the caller.
func (e *PostCallEvent) SetResult(m core.Message) { e.result = m }

// PreReasoningEvent fires before a call to the reasoning backend and carries
// the mutable ordered list of input messages.
type PreReasoningEvent struct {
	base
	input []core.Message
}

// NewPreReasoningEvent constructs a PreReasoningEvent for the given input.
func NewPreReasoningEvent(agent Agent, input []core.Message) *PreReasoningEvent {
	return &PreReasoningEvent{base: newBase(KindPreReasoning, agent), input: input}
}

// Input returns the ordered message list that will be sent to the reasoning
// backend. Later hooks observe mutations applied by earlier hooks.
func (e *PreReasoningEvent) Input() []core.Message { return e.input }

// SetInput replaces the reasoning input. A nil list is normalized to empty.
func (e *PreReasoningEvent) SetInput(msgs []core.Message) {
	if msgs == nil {
		msgs = []core.Message{}
	}
	e.input = msgs
}

// ReasoningChunkEvent is a notification-only event carrying incremental and
// cumulative partial reasoning output. Chunks are never sent back to the
// reasoning backend.
type ReasoningChunkEvent struct {
	base
	delta      core.Message
	cumulative core.Message
}

// NewReasoningChunkEvent constructs a chunk notification.
func NewReasoningChunkEvent(agent Agent, delta, cumulative core.Message) *ReasoningChunkEvent {
	return &ReasoningChunkEvent{base: newBase(KindReasoningChunk, agent), delta: delta, cumulative: cumulative}
}

// Delta returns the incremental partial output.
func (e *ReasoningChunkEvent) Delta() core.Message { return e.delta }

// Cumulative returns the output accumulated so far.
func (e *ReasoningChunkEvent) Cumulative() core.Message { return e.cumulative }

// PostReasoningEvent fires after the reasoning backend returns. It carries
// the mutable reasoning result plus two control signals: stop and reasoning
// reentry with injected messages.
type PostReasoningEvent struct {
	base
	result      core.Message
	stop        bool
	reentry     bool
	reentryMsgs []core.Message
}

// NewPostReasoningEvent constructs a PostReasoningEvent for the given result.
func NewPostReasoningEvent(agent Agent, result core.Message) *PostReasoningEvent {
	return &PostReasoningEvent{base: newBase(KindPostReasoning, agent), result: result}
}

// Result returns the reasoning result message.
func (e *PostReasoningEvent) Result() core.Message { return e.result }

// SetResult replaces the reasoning result observed by later hooks and by the
// state machine.
func (e *PostReasoningEvent) SetResult(m core.Message) { e.result = m }

// RequestStop asks the state machine to terminate the invocation early.
// Idempotent: repeated calls have no additional effect.
func (e *PostReasoningEvent) RequestStop() { e.stop = true }

// StopRequested reports whether any hook requested an early stop.
func (e *PostReasoningEvent) StopRequested() bool { return e.stop }

// RequestReentry asks the state machine to append msgs to history and loop
// straight back to reasoning, bypassing the acting phase. If the current
// result has pending tool calls, msgs must carry exactly one matching tool
// result per pending call id (extra non-tool-result messages are allowed).
// A violation is rejected synchronously and the request is not recorded.
func (e *PostReasoningEvent) RequestReentry(msgs ...core.Message) error {
	if err := ValidateReentry(e.result, msgs); err != nil {
		return err
	}
	e.reentry = true
	e.reentryMsgs = core.CloneMessages(msgs)
	return nil
}

// ReentryRequested reports whether a validated reentry request was recorded.
// A later hook may overwrite an earlier hook's request; the state machine
// observes the final merged state at the end of the chain.
func (e *PostReasoningEvent) ReentryRequested() bool { return e.reentry }

// ReentryMessages returns the messages to inject before re-entering
// reasoning.
func (e *PostReasoningEvent) ReentryMessages() []core.Message {
	return core.CloneMessages(e.reentryMsgs)
}

// PreActingEvent fires before a single tool invocation and carries the
// mutable tool-call descriptor.
type PreActingEvent struct {
	base
	call core.ToolCall
}

// NewPreActingEvent constructs a PreActingEvent for the given tool call.
func NewPreActingEvent(agent Agent, call core.ToolCall) *PreActingEvent {
	return &PreActingEvent{base: newBase(KindPreActing, agent), call: call}
}

// ToolCall returns the tool invocation descriptor.
func (e *PreActingEvent) ToolCall() core.ToolCall { return e.call }

// SetToolCall replaces the tool invocation descriptor, allowing hooks to
// rewrite the invocation's parameters.
func (e *PreActingEvent) SetToolCall(tc core.ToolCall) { e.call = tc }

// ActingChunkEvent is a notification-only event carrying streamed tool
// output. Chunks are never sent to the reasoning backend.
type ActingChunkEvent struct {
	base
	call       core.ToolCall
	delta      string
	cumulative string
}

// NewActingChunkEvent constructs a tool output chunk notification.
func NewActingChunkEvent(agent Agent, call core.ToolCall, delta, cumulative string) *ActingChunkEvent {
	return &ActingChunkEvent{base: newBase(KindActingChunk, agent), call: call, delta: delta, cumulative: cumulative}
}

// ToolCall returns the tool invocation producing the output.
func (e *ActingChunkEvent) ToolCall() core.ToolCall { return e.call }

// Delta returns the incremental output fragment.
func (e *ActingChunkEvent) Delta() string { return e.delta }

// Cumulative returns the output accumulated so far.
func (e *ActingChunkEvent) Cumulative() string { return e.cumulative }

// PostActingEvent fires after a single tool invocation completes. It carries
// the mutable tool result plus a stop control signal.
type PostActingEvent struct {
	base
	result core.ToolResult
	stop   bool
}

// NewPostActingEvent constructs a PostActingEvent for the given result.
func NewPostActingEvent(agent Agent, result core.ToolResult) *PostActingEvent {
	return &PostActingEvent{base: newBase(KindPostActing, agent), result: result}
}

// Result returns the tool result descriptor.
func (e *PostActingEvent) Result() core.ToolResult { return e.result }

// SetResult replaces the tool result observed by later hooks and fed back to
// the reasoning loop.
func (e *PostActingEvent) SetResult(tr core.ToolResult) { e.result = tr }

// RequestStop asks the state machine to terminate the invocation early.
// Idempotent: repeated calls have no additional effect.
func (e *PostActingEvent) RequestStop() { e.stop = true }

// StopRequested reports whether any hook requested an early stop.
func (e *PostActingEvent) StopRequested() bool { return e.stop }

// PreSummaryEvent fires before the forced summary call when the iteration
// budget is exhausted. It carries the mutable summary input, the configured
// budget, the current iteration count, and an optional generation config
// override applied to this call only.
type PreSummaryEvent struct {
	base
	input         []core.Message
	maxIterations int
	iteration     int
	config        *model.GenerateConfig
}

// NewPreSummaryEvent constructs a PreSummaryEvent.
func NewPreSummaryEvent(agent Agent, input []core.Message, maxIterations, iteration int) *PreSummaryEvent {
	return &PreSummaryEvent{
		base:          newBase(KindPreSummary, agent),
		input:         input,
		maxIterations: maxIterations,
		iteration:     iteration,
	}
}

// Input returns the ordered message list that will be sent to the reasoning
// backend for the summary call.
func (e *PreSummaryEvent) Input() []core.Message { return e.input }

// SetInput replaces the summary input. A nil list is normalized to empty.
func (e *PreSummaryEvent) SetInput(msgs []core.Message) {
	if msgs == nil {
		msgs = []core.Message{}
	}
	e.input = msgs
}

// MaxIterations returns the configured reasoning iteration budget.
func (e *PreSummaryEvent) MaxIterations() int { return e.maxIterations }

// Iteration returns the number of reasoning entries performed so far.
func (e *PreSummaryEvent) Iteration() int { return e.iteration }

// Config returns the generation config override for this call, or nil when
// the provider defaults apply.
func (e *PreSummaryEvent) Config() *model.GenerateConfig { return e.config }

// SetConfig overrides the generation configuration for the summary call
// only.
func (e *PreSummaryEvent) SetConfig(cfg *model.GenerateConfig) { e.config = cfg }

// SummaryChunkEvent is a notification-only event carrying partial summary
// output.
type SummaryChunkEvent struct {
	base
	delta      core.Message
	cumulative core.Message
}

// NewSummaryChunkEvent constructs a summary chunk notification.
func NewSummaryChunkEvent(agent Agent, delta, cumulative core.Message) *SummaryChunkEvent {
	return &SummaryChunkEvent{base: newBase(KindSummaryChunk, agent), delta: delta, cumulative: cumulative}
}

// Delta returns the incremental partial output.
func (e *SummaryChunkEvent) Delta() core.Message { return e.delta }

// Cumulative returns the output accumulated so far.
func (e *SummaryChunkEvent) Cumulative() core.Message { return e.cumulative }

// PostSummaryEvent fires after the summary call completes and carries the
// mutable forced final answer.
type PostSummaryEvent struct {
	base
	result core.Message
}

// NewPostSummaryEvent constructs a PostSummaryEvent for the given result.
func NewPostSummaryEvent(agent Agent, result core.Message) *PostSummaryEvent {
	return &PostSummaryEvent{base: newBase(KindPostSummary, agent), result: result}
}

// Result returns the forced final answer.
func (e *PostSummaryEvent) Result() core.Message { return e.result }

// SetResult replaces the forced final answer.
func (e *PostSummaryEvent) SetResult(m core.Message) { e.result = m }

// ErrorEvent is a notification-only event carrying the failure that aborted
// an invocation.
type ErrorEvent struct {
	base
	err error
}

// NewErrorEvent constructs an ErrorEvent for the given failure.
func NewErrorEvent(agent Agent, err error) *ErrorEvent {
	return &ErrorEvent{base: newBase(KindError, agent), err: err}
}

// Err returns the failure that aborted the invocation.
func (e *ErrorEvent) Err() error { return e.err }
