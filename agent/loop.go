package agent

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/hupe1980/agentloop/core"
	"github.com/hupe1980/agentloop/hook"
	"github.com/hupe1980/agentloop/model"
	"github.com/hupe1980/agentloop/tool"
)

// invocation holds the per-invocation mutable state of one run through the
// state machine. Invocations never share state with each other.
type invocation struct {
	agent     *ReActAgent
	iteration int
}

// run executes the phase sequence: PreCall, then reasoning/acting rounds
// until a final answer, an early stop, or budget exhaustion forcing the
// summary phase, then PostCall.
func (in *invocation) run(ctx context.Context, input []core.Message, resume *resumeState) (*Result, error) {
	a := in.agent

	if _, err := a.hooks.Dispatch(ctx, hook.NewPreCallEvent(a, input)); err != nil {
		return nil, in.fail(ctx, err)
	}

	var final core.Message
	var haveFinal bool

	if resume != nil {
		in.iteration = resume.iteration
		if len(resume.pending) == 0 && len(resume.reasoning.ToolCalls()) == 0 {
			// Stopped right after a reasoning round that produced a final
			// answer; the phase following the stop is the call epilogue.
			final = resume.reasoning
			haveFinal = true
		} else if stopped, err := in.acting(ctx, resume.reasoning, resume.pending); err != nil {
			return nil, err
		} else if stopped != nil {
			return stopped, nil
		}
	}

	for !haveFinal {
		if err := ctx.Err(); err != nil {
			return in.cancelled(ctx, core.Message{}, nil)
		}

		if in.iteration >= a.maxIterations {
			summary, err := in.summarize(ctx)
			if err != nil {
				return nil, err
			}
			final = summary
			break
		}

		in.iteration++

		result, stopped, err := in.reason(ctx)
		if err != nil {
			return nil, err
		}
		if stopped != nil {
			return stopped, nil
		}

		pending := result.ToolCalls()
		if len(pending) == 0 {
			final = result
			break
		}

		if stopped, err := in.acting(ctx, result, pending); err != nil {
			return nil, err
		} else if stopped != nil {
			return stopped, nil
		}
	}

	post, err := a.hooks.Dispatch(ctx, hook.NewPostCallEvent(a, final))
	if err != nil {
		return nil, in.fail(ctx, err)
	}

	return &Result{Message: post.(*hook.PostCallEvent).Result()}, nil
}

// reason performs one reasoning round: PreReasoning dispatch, the model
// call with chunk notifications, persisting the result, and PostReasoning
// dispatch including its stop and reentry control signals. A non-nil Result
// means the invocation stopped early.
func (in *invocation) reason(ctx context.Context) (core.Message, *Result, error) {
	a := in.agent

	history, err := a.memory.Messages(ctx)
	if err != nil {
		return core.Message{}, nil, in.fail(ctx, err)
	}

	ev, err := a.hooks.Dispatch(ctx, hook.NewPreReasoningEvent(a, history))
	if err != nil {
		return core.Message{}, nil, in.fail(ctx, err)
	}
	pre := ev.(*hook.PreReasoningEvent)

	result, err := in.generate(ctx, model.Request{
		Messages: pre.Input(),
		Tools:    a.toolDefinitions(),
		Stream:   a.streaming,
		Config:   a.config,
	}, func(delta, cumulative core.Message) {
		a.hooks.Notify(ctx, hook.NewReasoningChunkEvent(a, delta, cumulative))
	})
	if err != nil {
		if ctx.Err() != nil {
			res, cancelErr := in.cancelled(ctx, core.Message{}, nil)
			return core.Message{}, res, cancelErr
		}
		return core.Message{}, nil, in.fail(ctx, err)
	}

	ev, err = a.hooks.Dispatch(ctx, hook.NewPostReasoningEvent(a, result))
	if err != nil {
		return core.Message{}, nil, in.fail(ctx, err)
	}
	post := ev.(*hook.PostReasoningEvent)
	result = post.Result()

	// The possibly-mutated result becomes part of the durable history so a
	// later resume sees exactly what the hooks saw.
	if err := a.memory.Add(ctx, result); err != nil {
		return core.Message{}, nil, in.fail(ctx, err)
	}

	if post.StopRequested() {
		pending := result.ToolCalls()
		a.setResume(&resumeState{iteration: in.iteration, reasoning: result, pending: pending})
		ic := core.NewInterruptContext(core.StopSourceHook, nil, pending)
		return core.Message{}, &Result{Message: result, Interrupt: ic}, nil
	}

	if post.ReentryRequested() {
		injected := post.ReentryMessages()
		if err := a.memory.Add(ctx, injected...); err != nil {
			return core.Message{}, nil, in.fail(ctx, err)
		}
		// Loop straight back to reasoning without acting; the injected
		// messages satisfied any pending tool calls.
		return in.nextReason(ctx)
	}

	return result, nil, nil
}

// nextReason re-enters the reasoning phase after a validated reentry
// request, honoring the iteration budget.
func (in *invocation) nextReason(ctx context.Context) (core.Message, *Result, error) {
	if in.iteration >= in.agent.maxIterations {
		summary, err := in.summarize(ctx)
		if err != nil {
			return core.Message{}, nil, err
		}
		return summary, nil, nil
	}
	in.iteration++
	return in.reason(ctx)
}

// acting executes the pending tool calls of one reasoning result in order,
// persisting each result message as it is produced. A non-nil Result means a
// hook or cancellation stopped the invocation; calls not yet executed are
// recorded as pending for resume.
func (in *invocation) acting(ctx context.Context, reasoning core.Message, calls []core.ToolCall) (*Result, error) {
	a := in.agent

	for i, call := range calls {
		if err := ctx.Err(); err != nil {
			return in.cancelled(ctx, reasoning, &resumeState{
				iteration: in.iteration,
				reasoning: reasoning,
				pending:   calls[i:],
			})
		}

		ev, err := a.hooks.Dispatch(ctx, hook.NewPreActingEvent(a, call))
		if err != nil {
			return nil, in.fail(ctx, err)
		}
		call = ev.(*hook.PreActingEvent).ToolCall()

		result, execErr := in.executeTool(ctx, call)
		if execErr != nil {
			// Only cancellation aborts tool execution outright; tool
			// failures travel back to the model inside the result.
			return in.cancelled(ctx, reasoning, &resumeState{
				iteration: in.iteration,
				reasoning: reasoning,
				pending:   calls[i:],
			})
		}

		ev, err = a.hooks.Dispatch(ctx, hook.NewPostActingEvent(a, result))
		if err != nil {
			return nil, in.fail(ctx, err)
		}
		post := ev.(*hook.PostActingEvent)
		result = post.Result()

		msg := toolResultMessage(result)
		if err := a.memory.Add(ctx, msg); err != nil {
			return nil, in.fail(ctx, err)
		}

		if post.StopRequested() {
			remaining := calls[i+1:]
			a.setResume(&resumeState{iteration: in.iteration, reasoning: reasoning, pending: remaining})
			ic := core.NewInterruptContext(core.StopSourceHook, nil, remaining)
			return &Result{Message: msg, Interrupt: ic}, nil
		}
	}

	return nil, nil
}

// executeTool resolves and runs one tool call. Unknown tools, malformed
// arguments, and tool failures are embedded in the returned result so the
// model can react to them; the error return is reserved for cancellation.
func (in *invocation) executeTool(ctx context.Context, call core.ToolCall) (core.ToolResult, error) {
	a := in.agent

	t, ok := a.toolIndex[call.Name]
	if !ok {
		return core.ToolResult{ID: call.ID, Name: call.Name, Error: fmt.Sprintf("tool %q not registered", call.Name)}, nil
	}

	args := map[string]any{}
	if strings.TrimSpace(call.Arguments) != "" {
		if err := json.Unmarshal([]byte(call.Arguments), &args); err != nil {
			return core.ToolResult{ID: call.ID, Name: call.Name, Error: fmt.Sprintf("invalid arguments: %v", err)}, nil
		}
	}

	var (
		out any
		err error
	)
	if st, ok := t.(tool.StreamingTool); ok {
		chunks, resCh := st.CallStream(ctx, args)
		var cumulative strings.Builder
		for delta := range chunks {
			cumulative.WriteString(delta)
			a.hooks.Notify(ctx, hook.NewActingChunkEvent(a, call, delta, cumulative.String()))
		}
		res := <-resCh
		out, err = res.Output, res.Err
	} else {
		out, err = t.Call(ctx, args)
	}

	if err != nil {
		if ctx.Err() != nil {
			return core.ToolResult{}, ctx.Err()
		}
		a.logger.Warn("agent.tool.error", "agent", a.name, "tool", call.Name, "error", err.Error())
		return core.ToolResult{ID: call.ID, Name: call.Name, Error: err.Error()}, nil
	}

	return core.ToolResult{ID: call.ID, Name: call.Name, Output: out}, nil
}

// summarize forces a final answer when the iteration budget is exhausted:
// PreSummary dispatch (which may rewrite the input and override the
// generation config for this call only), the model call without tools, and
// PostSummary dispatch. The result is persisted as the final answer.
func (in *invocation) summarize(ctx context.Context) (core.Message, error) {
	a := in.agent

	history, err := a.memory.Messages(ctx)
	if err != nil {
		return core.Message{}, in.fail(ctx, err)
	}
	input := append(history, core.NewTextMessage("user", a.summaryPrompt))

	ev, err := a.hooks.Dispatch(ctx, hook.NewPreSummaryEvent(a, input, a.maxIterations, in.iteration))
	if err != nil {
		return core.Message{}, in.fail(ctx, err)
	}
	pre := ev.(*hook.PreSummaryEvent)

	cfg := pre.Config()
	if cfg == nil {
		cfg = a.config
	}

	result, err := in.generate(ctx, model.Request{
		Messages: pre.Input(),
		Stream:   a.streaming,
		Config:   cfg,
	}, func(delta, cumulative core.Message) {
		a.hooks.Notify(ctx, hook.NewSummaryChunkEvent(a, delta, cumulative))
	})
	if err != nil {
		return core.Message{}, in.fail(ctx, err)
	}

	ev, err = a.hooks.Dispatch(ctx, hook.NewPostSummaryEvent(a, result))
	if err != nil {
		return core.Message{}, in.fail(ctx, err)
	}
	result = ev.(*hook.PostSummaryEvent).Result()

	if err := a.memory.Add(ctx, result); err != nil {
		return core.Message{}, in.fail(ctx, err)
	}

	return result, nil
}

// generate runs one model call, forwarding partial responses to notify and
// returning the final assembled message.
func (in *invocation) generate(ctx context.Context, req model.Request, notify func(delta, cumulative core.Message)) (core.Message, error) {
	respCh, errCh := in.agent.model.Generate(ctx, req)

	var (
		cumulative strings.Builder
		final      core.Message
		gotFinal   bool
	)
	for resp := range respCh {
		if resp.Partial {
			cumulative.WriteString(resp.Message.Text())
			notify(resp.Message, core.NewTextMessage(resp.Message.Role, cumulative.String()))
			continue
		}
		final = resp.Message
		gotFinal = true
	}
	if err := <-errCh; err != nil {
		return core.Message{}, err
	}
	if !gotFinal {
		return core.Message{}, fmt.Errorf("model %q returned no final response", in.agent.model.Info().Name)
	}

	return final, nil
}

// cancelled handles context cancellation as a system-sourced stop: the
// remaining work (if any) is recorded for resume and the interrupt snapshot
// is surfaced to the caller.
func (in *invocation) cancelled(ctx context.Context, msg core.Message, resume *resumeState) (*Result, error) {
	a := in.agent

	var pending []core.ToolCall
	if resume != nil {
		pending = resume.pending
		a.setResume(resume)
	}

	a.hooks.Notify(ctx, hook.NewErrorEvent(a, ctx.Err()))
	a.logger.Info("agent.invoke.cancelled", "agent", a.name, "pending", len(pending))

	ic := core.NewInterruptContext(core.StopSourceSystem, nil, pending)
	return &Result{Message: msg, Interrupt: ic}, nil
}

// fail reports a terminal invocation failure: the Error event is notified
// best-effort and the original error is returned unchanged.
func (in *invocation) fail(ctx context.Context, err error) error {
	in.agent.hooks.Notify(ctx, hook.NewErrorEvent(in.agent, err))
	in.agent.logger.Error("agent.invoke.error", "agent", in.agent.name, "error", err.Error())
	return err
}

// toolResultMessage wraps a tool result descriptor in a tool-role message.
func toolResultMessage(tr core.ToolResult) core.Message {
	m := core.NewMessage("tool")
	m.Parts = []core.Part{core.ToolResultPart{ToolResult: tr}}
	return m
}
