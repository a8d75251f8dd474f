// Package agentloop provides a high-level façade over the ReAct execution
// engine (agent package) and its collaborator abstractions (models, tools,
// memory, hooks & logging). Most applications interact with this package by:
//  1. Creating an AgentLoop via New() with a model implementation
//  2. Registering tools and hooks
//  3. Invoking the agent with user input, resuming after interruptions
//
// The façade delegates orchestration to agent.ReActAgent while keeping setup
// and usage ergonomics concise. All defaults are safe for local development
// and testing; production deployments typically supply a durable memory
// implementation and a structured logger.
package agentloop

import (
	"context"

	"github.com/hupe1980/agentloop/agent"
	"github.com/hupe1980/agentloop/core"
	"github.com/hupe1980/agentloop/hook"
	"github.com/hupe1980/agentloop/logging"
	"github.com/hupe1980/agentloop/memory"
	"github.com/hupe1980/agentloop/model"
	"github.com/hupe1980/agentloop/tool"
)

// Options configures the AgentLoop instance.
type Options struct {
	// Memory holds the agent's conversation history (defaults to an
	// in-memory store if not provided).
	Memory core.Memory

	// Tools are made available to the reasoning model for function calling.
	Tools []tool.Tool

	// MaxIterations caps the number of reasoning rounds before the loop is
	// forced into a summary call producing a final answer.
	MaxIterations int

	// SummaryPrompt overrides the instruction used for the forced summary.
	SummaryPrompt string

	// Config carries default generation settings for every model call.
	Config *model.GenerateConfig

	// Streaming determines whether partial reasoning output is requested
	// and surfaced as chunk events.
	Streaming bool

	// Logger (defaults to NoOp logger if nil)
	Logger logging.Logger
}

// AgentLoop is the high-level façade aggregating the agent and its hook
// registry.
type AgentLoop struct {
	agent *agent.ReActAgent
}

// New creates a new AgentLoop driving the given model. Any unset collaborator
// is initialized with an in-memory implementation.
func New(name string, m model.Model, optFns ...func(o *Options)) *AgentLoop {
	opts := Options{
		Memory:        memory.NewInMemoryStore(),
		MaxIterations: agent.DefaultMaxIterations,
		SummaryPrompt: agent.DefaultSummaryPrompt,
		Streaming:     true,
		Logger:        logging.NoOpLogger{},
	}

	for _, fn := range optFns {
		fn(&opts)
	}

	a := agent.New(name, m, func(o *agent.Options) {
		o.Memory = opts.Memory
		o.Tools = opts.Tools
		o.MaxIterations = opts.MaxIterations
		o.SummaryPrompt = opts.SummaryPrompt
		o.Config = opts.Config
		o.Streaming = opts.Streaming
		o.Logger = opts.Logger
	})

	return &AgentLoop{agent: a}
}

// Agent exposes the underlying ReAct agent.
func (l *AgentLoop) Agent() *agent.ReActAgent { return l.agent }

// RegisterTool makes a tool available to the reasoning model.
func (l *AgentLoop) RegisterTool(t tool.Tool) { l.agent.RegisterTool(t) }

// RegisterHook adds an observer to the agent's hook registry.
func (l *AgentLoop) RegisterHook(h hook.Hook, optFns ...func(o *hook.RegisterOptions)) {
	l.agent.Hooks().Register(h, optFns...)
}

// Invoke runs one agent invocation with the given user input. An empty input
// resumes a previously interrupted invocation.
func (l *AgentLoop) Invoke(ctx context.Context, input ...core.Message) (*agent.Result, error) {
	return l.agent.Invoke(ctx, input...)
}

// Ask is a convenience helper that wraps text as a user message, runs a full
// invocation, and returns the final answer text. Interrupted invocations
// return the in-flight message text; resume with Invoke and no input.
func (l *AgentLoop) Ask(ctx context.Context, text string) (string, error) {
	res, err := l.agent.Invoke(ctx, core.NewTextMessage("user", text))
	if err != nil {
		return "", err
	}
	return res.Message.Text(), nil
}
