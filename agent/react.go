package agent

import (
	"context"
	"sync"

	"github.com/hupe1980/agentloop/core"
	"github.com/hupe1980/agentloop/hook"
	"github.com/hupe1980/agentloop/logging"
	"github.com/hupe1980/agentloop/memory"
	"github.com/hupe1980/agentloop/model"
	"github.com/hupe1980/agentloop/tool"
)

const (
	// DefaultMaxIterations is the default reasoning iteration budget before
	// the loop is forced into the summary phase.
	DefaultMaxIterations = 10

	// DefaultSummaryPrompt is appended to the conversation when the
	// iteration budget is exhausted to force a final answer.
	DefaultSummaryPrompt = "You have reached the maximum number of reasoning steps. " +
		"Summarize your progress and give your best final answer to the original request. " +
		"Do not request any more tool calls."
)

// Result is the single outcome of an agent invocation: either a final answer
// (Interrupt nil) or an early-stop message with the interruption snapshot.
type Result struct {
	// Message is the final answer, or the in-flight message at the moment
	// of an early stop.
	Message core.Message

	// Interrupt is non-nil when the invocation stopped before completing
	// the loop. A subsequent Invoke with no new input resumes it.
	Interrupt *core.InterruptContext
}

// Options configures a ReActAgent instance.
//
// Use functional options with New to override defaults.
type Options struct {
	Memory        core.Memory
	Hooks         *hook.Registry
	Logger        logging.Logger
	Tools         []tool.Tool
	MaxIterations int
	SummaryPrompt string
	Config        *model.GenerateConfig
	Streaming     bool
}

// ReActAgent drives the reason/act loop against a reasoning model and a set
// of tools, broadcasting every phase boundary to its hook registry.
type ReActAgent struct {
	name          string
	model         model.Model
	tools         []tool.Tool
	toolIndex     map[string]tool.Tool
	memory        core.Memory
	hooks         *hook.Registry
	logger        logging.Logger
	maxIterations int
	summaryPrompt string
	config        *model.GenerateConfig
	streaming     bool

	mu     sync.Mutex
	resume *resumeState
}

// resumeState captures where an interrupted invocation left off. Completed
// tool results are already persisted in memory, so only the calls not yet
// executed carry over.
type resumeState struct {
	iteration int
	reasoning core.Message
	pending   []core.ToolCall
}

// New creates a ReAct agent with sensible defaults: an in-memory message
// store, a fresh hook registry, no-op logging, streaming enabled, and a
// reasoning budget of DefaultMaxIterations.
func New(name string, m model.Model, optFns ...func(o *Options)) *ReActAgent {
	opts := Options{
		Memory:        memory.NewInMemoryStore(),
		Logger:        logging.NoOpLogger{},
		MaxIterations: DefaultMaxIterations,
		SummaryPrompt: DefaultSummaryPrompt,
		Streaming:     true,
	}

	for _, fn := range optFns {
		fn(&opts)
	}

	if opts.Hooks == nil {
		opts.Hooks = hook.NewRegistry(func(o *hook.Options) { o.Logger = opts.Logger })
	}

	a := &ReActAgent{
		name:          name,
		model:         m,
		memory:        opts.Memory,
		hooks:         opts.Hooks,
		logger:        opts.Logger,
		maxIterations: opts.MaxIterations,
		summaryPrompt: opts.SummaryPrompt,
		config:        opts.Config,
		streaming:     opts.Streaming,
		toolIndex:     make(map[string]tool.Tool),
	}
	a.RegisterTools(opts.Tools...)

	return a
}

// Name returns the agent's display name.
func (a *ReActAgent) Name() string { return a.name }

// Hooks returns the agent's hook registry so callers can register observers.
func (a *ReActAgent) Hooks() *hook.Registry { return a.hooks }

// Memory returns the agent's conversation store.
func (a *ReActAgent) Memory() core.Memory { return a.memory }

// RegisterTool makes a tool available to the reasoning model. Registering a
// tool with an existing name replaces it.
func (a *ReActAgent) RegisterTool(t tool.Tool) {
	if _, exists := a.toolIndex[t.Name()]; !exists {
		a.tools = append(a.tools, t)
	} else {
		for i, existing := range a.tools {
			if existing.Name() == t.Name() {
				a.tools[i] = t
				break
			}
		}
	}
	a.toolIndex[t.Name()] = t
}

// RegisterTools adds multiple tools at once.
func (a *ReActAgent) RegisterTools(tools ...tool.Tool) {
	for _, t := range tools {
		a.RegisterTool(t)
	}
}

// Interrupted reports whether the agent holds an interrupted invocation
// waiting to be resumed.
func (a *ReActAgent) Interrupted() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.resume != nil
}

// Invoke runs one agent invocation. New input messages are appended to
// memory before the loop starts; an empty input resumes a previously
// interrupted invocation where it stopped. Exactly one outcome is surfaced:
// a final answer, an early-stop Result carrying an InterruptContext, or an
// error.
func (a *ReActAgent) Invoke(ctx context.Context, input ...core.Message) (*Result, error) {
	a.mu.Lock()
	resume := a.resume
	a.resume = nil
	a.mu.Unlock()

	in := &invocation{agent: a}

	if len(input) > 0 {
		// Fresh input supersedes a pending resume; the interrupted work is
		// discarded and the loop restarts from reasoning.
		resume = nil
		if err := a.memory.Add(ctx, input...); err != nil {
			return nil, in.fail(ctx, err)
		}
	}

	a.logger.Debug("agent.invoke.start",
		"agent", a.name,
		"input", len(input),
		"resuming", resume != nil,
	)

	res, err := in.run(ctx, input, resume)
	if err != nil {
		return nil, err
	}

	if res.Interrupt != nil {
		a.logger.Info("agent.invoke.interrupted",
			"agent", a.name,
			"source", string(res.Interrupt.Source),
			"pending", len(res.Interrupt.PendingToolCalls),
		)
	} else {
		a.logger.Debug("agent.invoke.complete", "agent", a.name)
	}

	return res, nil
}

// setResume records where an interrupted invocation stopped so the next
// empty-input Invoke can pick it up.
func (a *ReActAgent) setResume(s *resumeState) {
	a.mu.Lock()
	a.resume = s
	a.mu.Unlock()
}

// toolDefinitions builds the declarations passed to the model, in
// registration order.
func (a *ReActAgent) toolDefinitions() []model.ToolDefinition {
	if len(a.tools) == 0 {
		return nil
	}
	defs := make([]model.ToolDefinition, 0, len(a.tools))
	for _, t := range a.tools {
		defs = append(defs, model.ToolDefinition{
			Name:        t.Name(),
			Description: t.Description(),
			Parameters:  t.Parameters(),
		})
	}
	return defs
}
