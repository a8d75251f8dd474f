package agent

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/agentloop/core"
	"github.com/hupe1980/agentloop/hook"
	"github.com/hupe1980/agentloop/model"
	"github.com/hupe1980/agentloop/tool"
)

// countingTool records how often each call id was executed.
type countingTool struct {
	name string
	mu   sync.Mutex
	runs int
}

func (t *countingTool) Name() string               { return t.name }
func (t *countingTool) Description() string        { return "test tool" }
func (t *countingTool) Parameters() map[string]any { return nil }

func (t *countingTool) Call(_ context.Context, _ map[string]any) (any, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.runs++
	return fmt.Sprintf("run-%d", t.runs), nil
}

func (t *countingTool) Runs() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.runs
}

// kindRecorder captures the order of event kinds flowing through the chain.
type kindRecorder struct {
	mu    sync.Mutex
	kinds []hook.Kind
}

func (r *kindRecorder) HandleEvent(_ context.Context, ev hook.Event) (hook.Event, error) {
	r.mu.Lock()
	r.kinds = append(r.kinds, ev.Kind())
	r.mu.Unlock()
	return ev, nil
}

func (r *kindRecorder) count(k hook.Kind) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, got := range r.kinds {
		if got == k {
			n++
		}
	}
	return n
}

func toolCalls(ids ...string) []core.ToolCall {
	calls := make([]core.ToolCall, 0, len(ids))
	for _, id := range ids {
		calls = append(calls, core.ToolCall{ID: id, Name: "work", Arguments: "{}"})
	}
	return calls
}

func toolMessages(t *testing.T, msgs []core.Message) []core.Message {
	t.Helper()
	var out []core.Message
	for _, m := range msgs {
		if m.Role == "tool" {
			out = append(out, m)
		}
	}
	return out
}

func TestReActAgent_FinalAnswer(t *testing.T) {
	mock := model.NewMockModel(model.MockTurn{Text: "the answer is 42"})
	a := New("solver", mock)

	res, err := a.Invoke(context.Background(), core.NewTextMessage("user", "what is the answer?"))
	require.NoError(t, err)
	require.Nil(t, res.Interrupt)
	assert.Equal(t, "the answer is 42", res.Message.Text())
	assert.Equal(t, 1, mock.Calls())

	history, _ := a.Memory().Messages(context.Background())
	require.Len(t, history, 2)
	assert.Equal(t, "user", history[0].Role)
	assert.Equal(t, "assistant", history[1].Role)
}

func TestReActAgent_ToolRound(t *testing.T) {
	work := &countingTool{name: "work"}
	mock := model.NewMockModel(
		model.MockTurn{ToolCalls: toolCalls("c1")},
		model.MockTurn{Text: "done"},
	)
	a := New("solver", mock, func(o *Options) { o.Tools = []tool.Tool{work} })

	res, err := a.Invoke(context.Background(), core.NewTextMessage("user", "go"))
	require.NoError(t, err)
	assert.Equal(t, "done", res.Message.Text())
	assert.Equal(t, 1, work.Runs())
	assert.Equal(t, 2, mock.Calls())

	// The second model request must carry the tool result.
	reqs := mock.Requests()
	require.Len(t, reqs, 2)
	var results []core.ToolResult
	for _, m := range reqs[1].Messages {
		results = append(results, m.ToolResults()...)
	}
	require.Len(t, results, 1)
	assert.Equal(t, "c1", results[0].ID)

	// Tool definitions are passed to the model.
	require.Len(t, reqs[0].Tools, 1)
	assert.Equal(t, "work", reqs[0].Tools[0].Name)
}

func TestReActAgent_StopResumeRoundTrip(t *testing.T) {
	ctx := context.Background()
	work := &countingTool{name: "work"}
	mock := model.NewMockModel(
		model.MockTurn{ToolCalls: toolCalls("c1", "c2", "c3")},
		model.MockTurn{Text: "all done"},
	)
	a := New("solver", mock, func(o *Options) { o.Tools = []tool.Tool{work} })

	// Stop once the second tool result has been observed: 2 of 3 completed,
	// 1 still pending.
	a.Hooks().Register(hook.HookFunc(func(_ context.Context, ev hook.Event) (hook.Event, error) {
		if post, ok := ev.(*hook.PostActingEvent); ok && post.Result().ID == "c2" {
			post.RequestStop()
		}
		return ev, nil
	}))

	res, err := a.Invoke(ctx, core.NewTextMessage("user", "go"))
	require.NoError(t, err)
	require.NotNil(t, res.Interrupt)
	assert.Equal(t, core.StopSourceHook, res.Interrupt.Source)
	require.Len(t, res.Interrupt.PendingToolCalls, 1)
	assert.Equal(t, "c3", res.Interrupt.PendingToolCalls[0].ID)
	assert.Equal(t, 2, work.Runs())
	assert.True(t, a.Interrupted())

	// Resume with no new input: exactly the one remaining invocation runs.
	res, err = a.Invoke(ctx)
	require.NoError(t, err)
	require.Nil(t, res.Interrupt)
	assert.Equal(t, "all done", res.Message.Text())
	assert.Equal(t, 3, work.Runs())
	assert.False(t, a.Interrupted())

	// No duplication of the already-completed tool results in history.
	history, _ := a.Memory().Messages(ctx)
	trMsgs := toolMessages(t, history)
	require.Len(t, trMsgs, 3)
	seen := map[string]int{}
	for _, m := range trMsgs {
		for _, tr := range m.ToolResults() {
			seen[tr.ID]++
		}
	}
	assert.Equal(t, map[string]int{"c1": 1, "c2": 1, "c3": 1}, seen)
}

func TestReActAgent_NewInputSupersedesResume(t *testing.T) {
	ctx := context.Background()
	work := &countingTool{name: "work"}
	mock := model.NewMockModel(
		model.MockTurn{ToolCalls: toolCalls("c1", "c2")},
		model.MockTurn{Text: "fresh answer"},
	)
	a := New("solver", mock, func(o *Options) { o.Tools = []tool.Tool{work} })

	a.Hooks().Register(hook.HookFunc(func(_ context.Context, ev hook.Event) (hook.Event, error) {
		if post, ok := ev.(*hook.PostActingEvent); ok && post.Result().ID == "c1" {
			post.RequestStop()
		}
		return ev, nil
	}))

	res, err := a.Invoke(ctx, core.NewTextMessage("user", "go"))
	require.NoError(t, err)
	require.NotNil(t, res.Interrupt)
	require.True(t, a.Interrupted())

	// Fresh input discards the pending work; c2 never executes.
	res, err = a.Invoke(ctx, core.NewTextMessage("user", "never mind, new task"))
	require.NoError(t, err)
	require.Nil(t, res.Interrupt)
	assert.Equal(t, "fresh answer", res.Message.Text())
	assert.Equal(t, 1, work.Runs())
}

func TestReActAgent_ChunkHookFailureIsolated(t *testing.T) {
	mock := model.NewMockModel(model.MockTurn{Chunks: []string{"he", "llo"}})
	a := New("solver", mock)

	var postResult string
	a.Hooks().Register(hook.HookFunc(func(_ context.Context, ev hook.Event) (hook.Event, error) {
		switch e := ev.(type) {
		case *hook.ReasoningChunkEvent:
			return nil, errors.New("chunk hook always fails")
		case *hook.PostReasoningEvent:
			postResult = e.Result().Text()
		}
		return ev, nil
	}))

	res, err := a.Invoke(context.Background(), core.NewTextMessage("user", "hi"))
	require.NoError(t, err, "failing chunk hooks must not abort the reasoning call")
	assert.Equal(t, "hello", res.Message.Text())
	assert.Equal(t, "hello", postResult, "post reasoning sees the complete assembled result")
}

func TestReActAgent_IterationBudget(t *testing.T) {
	work := &countingTool{name: "work"}
	// The model always wants more tool calls; the last scripted turn repeats.
	mock := model.NewMockModel(model.MockTurn{ToolCalls: toolCalls("c1")})
	a := New("solver", mock, func(o *Options) {
		o.Tools = []tool.Tool{work}
		o.MaxIterations = 2
	})

	rec := &kindRecorder{}
	a.Hooks().Register(rec)

	var summaryIteration, summaryBudget int
	a.Hooks().Register(hook.HookFunc(func(_ context.Context, ev hook.Event) (hook.Event, error) {
		if pre, ok := ev.(*hook.PreSummaryEvent); ok {
			summaryIteration = pre.Iteration()
			summaryBudget = pre.MaxIterations()
		}
		return ev, nil
	}))

	res, err := a.Invoke(context.Background(), core.NewTextMessage("user", "go"))
	require.NoError(t, err)
	require.Nil(t, res.Interrupt)

	assert.Equal(t, 2, rec.count(hook.KindPostReasoning), "exactly N reasoning entries")
	assert.Equal(t, 1, rec.count(hook.KindPreSummary), "then one summary phase")
	assert.Equal(t, 2, summaryIteration)
	assert.Equal(t, 2, summaryBudget)
	assert.Equal(t, 3, mock.Calls(), "2 reasoning calls + 1 summary call")

	// The summary call carries no tool definitions.
	reqs := mock.Requests()
	assert.Empty(t, reqs[len(reqs)-1].Tools)
}

func TestReActAgent_ReentrySkipsActing(t *testing.T) {
	work := &countingTool{name: "work"}
	mock := model.NewMockModel(
		model.MockTurn{ToolCalls: toolCalls("A", "B")},
		model.MockTurn{Text: "used injected results"},
	)
	a := New("solver", mock, func(o *Options) { o.Tools = []tool.Tool{work} })

	a.Hooks().Register(hook.HookFunc(func(_ context.Context, ev hook.Event) (hook.Event, error) {
		if post, ok := ev.(*hook.PostReasoningEvent); ok && len(post.Result().ToolCalls()) > 0 {
			err := post.RequestReentry(
				core.NewToolResultMessage("A", "work", "cached-a", nil),
				core.NewToolResultMessage("B", "work", "cached-b", nil),
			)
			if err != nil {
				return nil, err
			}
		}
		return ev, nil
	}))

	res, err := a.Invoke(context.Background(), core.NewTextMessage("user", "go"))
	require.NoError(t, err)
	assert.Equal(t, "used injected results", res.Message.Text())
	assert.Equal(t, 0, work.Runs(), "acting phase bypassed entirely")

	history, _ := a.Memory().Messages(context.Background())
	trMsgs := toolMessages(t, history)
	require.Len(t, trMsgs, 2)
	assert.Equal(t, "A", trMsgs[0].ToolResults()[0].ID)
	assert.Equal(t, "B", trMsgs[1].ToolResults()[0].ID)
}

func TestReActAgent_InvalidReentryFallsBackToActing(t *testing.T) {
	work := &countingTool{name: "work"}
	mock := model.NewMockModel(
		model.MockTurn{ToolCalls: toolCalls("A", "B")},
		model.MockTurn{Text: "done"},
	)
	a := New("solver", mock, func(o *Options) { o.Tools = []tool.Tool{work} })

	var reentryErr error
	a.Hooks().Register(hook.HookFunc(func(_ context.Context, ev hook.Event) (hook.Event, error) {
		if post, ok := ev.(*hook.PostReasoningEvent); ok && len(post.Result().ToolCalls()) > 0 {
			// Only one of the two pending results: rejected, not recorded.
			reentryErr = post.RequestReentry(core.NewToolResultMessage("A", "work", "cached-a", nil))
		}
		return ev, nil
	}))

	res, err := a.Invoke(context.Background(), core.NewTextMessage("user", "go"))
	require.NoError(t, err)
	assert.Error(t, reentryErr)
	assert.Equal(t, "done", res.Message.Text())
	assert.Equal(t, 2, work.Runs(), "both tools executed normally after the rejected request")
}

func TestReActAgent_PreReasoningMutationReachesModel(t *testing.T) {
	mock := model.NewMockModel(model.MockTurn{Text: "ok"})
	a := New("solver", mock)

	a.Hooks().Register(hook.HookFunc(func(_ context.Context, ev hook.Event) (hook.Event, error) {
		if pre, ok := ev.(*hook.PreReasoningEvent); ok {
			pre.SetInput(append(pre.Input(), core.NewTextMessage("system", "answer in French")))
		}
		return ev, nil
	}))

	_, err := a.Invoke(context.Background(), core.NewTextMessage("user", "hi"))
	require.NoError(t, err)

	reqs := mock.Requests()
	require.Len(t, reqs, 1)
	require.Len(t, reqs[0].Messages, 2)
	assert.Equal(t, "answer in French", reqs[0].Messages[1].Text())

	// The rewrite applies to the model input only, not the durable history.
	history, _ := a.Memory().Messages(context.Background())
	require.Len(t, history, 2)
	assert.Equal(t, "user", history[0].Role)
	assert.Equal(t, "assistant", history[1].Role)
}

func TestReActAgent_PostCallMutation(t *testing.T) {
	mock := model.NewMockModel(model.MockTurn{Text: "raw"})
	a := New("solver", mock)

	a.Hooks().Register(hook.HookFunc(func(_ context.Context, ev hook.Event) (hook.Event, error) {
		if post, ok := ev.(*hook.PostCallEvent); ok {
			post.SetResult(core.NewTextMessage("assistant", "polished"))
		}
		return ev, nil
	}))

	res, err := a.Invoke(context.Background(), core.NewTextMessage("user", "hi"))
	require.NoError(t, err)
	assert.Equal(t, "polished", res.Message.Text())
}

func TestReActAgent_HookFailureAbortsInvocation(t *testing.T) {
	mock := model.NewMockModel(model.MockTurn{Text: "never returned"})
	a := New("solver", mock)

	boom := errors.New("policy violation")
	var errorEventSeen error
	a.Hooks().Register(hook.HookFunc(func(_ context.Context, ev hook.Event) (hook.Event, error) {
		switch e := ev.(type) {
		case *hook.PostReasoningEvent:
			return nil, boom
		case *hook.ErrorEvent:
			errorEventSeen = e.Err()
		}
		return ev, nil
	}))

	_, err := a.Invoke(context.Background(), core.NewTextMessage("user", "hi"))
	require.Error(t, err)
	assert.ErrorIs(t, err, boom)
	assert.ErrorIs(t, errorEventSeen, boom, "terminal failures are reported as Error events")
}

func TestReActAgent_UnknownToolFedBackToModel(t *testing.T) {
	mock := model.NewMockModel(
		model.MockTurn{ToolCalls: []core.ToolCall{{ID: "c1", Name: "missing", Arguments: "{}"}}},
		model.MockTurn{Text: "recovered"},
	)
	a := New("solver", mock)

	res, err := a.Invoke(context.Background(), core.NewTextMessage("user", "go"))
	require.NoError(t, err)
	assert.Equal(t, "recovered", res.Message.Text())

	reqs := mock.Requests()
	require.Len(t, reqs, 2)
	var results []core.ToolResult
	for _, m := range reqs[1].Messages {
		results = append(results, m.ToolResults()...)
	}
	require.Len(t, results, 1)
	assert.Contains(t, results[0].Error, "not registered")
}

func TestReActAgent_CancellationIsSystemStop(t *testing.T) {
	mock := model.NewMockModel(model.MockTurn{Text: "unused"})
	a := New("solver", mock)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	res, err := a.Invoke(ctx, core.NewTextMessage("user", "go"))
	require.NoError(t, err)
	require.NotNil(t, res.Interrupt)
	assert.Equal(t, core.StopSourceSystem, res.Interrupt.Source)
}

func TestReActAgent_StreamingToolChunks(t *testing.T) {
	st := tool.NewStreamFunctionTool("stream", "streams output", nil,
		func(_ context.Context, _ map[string]any, emit func(string)) (any, error) {
			emit("part1 ")
			emit("part2")
			return "part1 part2", nil
		})
	mock := model.NewMockModel(
		model.MockTurn{ToolCalls: []core.ToolCall{{ID: "c1", Name: "stream", Arguments: "{}"}}},
		model.MockTurn{Text: "done"},
	)
	a := New("solver", mock, func(o *Options) { o.Tools = []tool.Tool{st} })

	var deltas []string
	var cumulative string
	a.Hooks().Register(hook.HookFunc(func(_ context.Context, ev hook.Event) (hook.Event, error) {
		if chunk, ok := ev.(*hook.ActingChunkEvent); ok {
			deltas = append(deltas, chunk.Delta())
			cumulative = chunk.Cumulative()
		}
		return ev, nil
	}))

	res, err := a.Invoke(context.Background(), core.NewTextMessage("user", "go"))
	require.NoError(t, err)
	assert.Equal(t, "done", res.Message.Text())
	assert.Equal(t, []string{"part1 ", "part2"}, deltas)
	assert.Equal(t, "part1 part2", cumulative)
}

func TestReActAgent_PreActingRewrite(t *testing.T) {
	var gotArgs string
	ft := tool.NewFunctionTool("work", "", nil, func(_ context.Context, args map[string]any) (any, error) {
		if v, ok := args["q"].(string); ok {
			gotArgs = v
		}
		return "ok", nil
	})
	mock := model.NewMockModel(
		model.MockTurn{ToolCalls: []core.ToolCall{{ID: "c1", Name: "work", Arguments: `{"q":"original"}`}}},
		model.MockTurn{Text: "done"},
	)
	a := New("solver", mock, func(o *Options) { o.Tools = []tool.Tool{ft} })

	a.Hooks().Register(hook.HookFunc(func(_ context.Context, ev hook.Event) (hook.Event, error) {
		if pre, ok := ev.(*hook.PreActingEvent); ok {
			call := pre.ToolCall()
			call.Arguments = `{"q":"rewritten"}`
			pre.SetToolCall(call)
		}
		return ev, nil
	}))

	_, err := a.Invoke(context.Background(), core.NewTextMessage("user", "go"))
	require.NoError(t, err)
	assert.Equal(t, "rewritten", gotArgs)
}

func TestReActAgent_SummaryConfigOverride(t *testing.T) {
	mock := model.NewMockModel(model.MockTurn{ToolCalls: toolCalls("c1")})
	work := &countingTool{name: "work"}
	a := New("solver", mock, func(o *Options) {
		o.Tools = []tool.Tool{work}
		o.MaxIterations = 1
	})

	temp := 0.1
	a.Hooks().Register(hook.HookFunc(func(_ context.Context, ev hook.Event) (hook.Event, error) {
		if pre, ok := ev.(*hook.PreSummaryEvent); ok {
			pre.SetConfig(&model.GenerateConfig{Temperature: &temp, MaxTokens: 256})
		}
		return ev, nil
	}))

	_, err := a.Invoke(context.Background(), core.NewTextMessage("user", "go"))
	require.NoError(t, err)

	reqs := mock.Requests()
	last := reqs[len(reqs)-1]
	require.NotNil(t, last.Config)
	assert.Equal(t, int64(256), last.Config.MaxTokens)
}
