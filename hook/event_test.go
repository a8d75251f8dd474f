package hook

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/agentloop/core"
)

func TestPostReasoningEvent_IdempotentStop(t *testing.T) {
	agent := testAgent{name: "a"}
	ev := NewPostReasoningEvent(agent, core.NewTextMessage("assistant", "done"))

	assert.False(t, ev.StopRequested())
	ev.RequestStop()
	assert.True(t, ev.StopRequested())
	ev.RequestStop()
	assert.True(t, ev.StopRequested(), "second call has no additional effect")
}

func TestPostActingEvent_IdempotentStop(t *testing.T) {
	agent := testAgent{name: "a"}
	ev := NewPostActingEvent(agent, core.ToolResult{ID: "c1", Name: "search"})

	ev.RequestStop()
	ev.RequestStop()
	assert.True(t, ev.StopRequested())
}

func TestPostReasoningEvent_ReentryValidation(t *testing.T) {
	agent := testAgent{name: "a"}
	ev := NewPostReasoningEvent(agent, reasoningWithCalls("A", "B"))

	// Incomplete results are rejected and leave no request recorded.
	err := ev.RequestReentry(core.NewToolResultMessage("A", "search", "alpha", nil))
	require.Error(t, err)
	assert.False(t, ev.ReentryRequested())
	assert.Empty(t, ev.ReentryMessages())

	// Complete results are accepted.
	err = ev.RequestReentry(
		core.NewToolResultMessage("A", "search", "alpha", nil),
		core.NewToolResultMessage("B", "search", "beta", nil),
	)
	require.NoError(t, err)
	assert.True(t, ev.ReentryRequested())
	assert.Len(t, ev.ReentryMessages(), 2)
}

func TestPostReasoningEvent_ReentryFreeFormWithoutPending(t *testing.T) {
	agent := testAgent{name: "a"}
	ev := NewPostReasoningEvent(agent, core.NewTextMessage("assistant", "unsure"))

	err := ev.RequestReentry(core.NewTextMessage("user", "hint: check the docs"))
	require.NoError(t, err)
	assert.True(t, ev.ReentryRequested())
}

func TestEvent_KindAndAgentFixedAtConstruction(t *testing.T) {
	agent := testAgent{name: "worker"}
	ev := NewPreActingEvent(agent, core.ToolCall{ID: "c1", Name: "search"})

	assert.Equal(t, KindPreActing, ev.Kind())
	assert.Equal(t, "worker", ev.Agent().Name())
	assert.False(t, ev.Timestamp().IsZero())
}

func TestPreReasoningEvent_SetInputNormalizesNil(t *testing.T) {
	agent := testAgent{name: "a"}
	ev := NewPreReasoningEvent(agent, []core.Message{core.NewTextMessage("user", "hi")})

	ev.SetInput(nil)
	assert.NotNil(t, ev.Input())
	assert.Empty(t, ev.Input())
}

func TestPreSummaryEvent_CarriesBudget(t *testing.T) {
	agent := testAgent{name: "a"}
	ev := NewPreSummaryEvent(agent, nil, 5, 5)

	assert.Equal(t, 5, ev.MaxIterations())
	assert.Equal(t, 5, ev.Iteration())
	assert.Nil(t, ev.Config())
}
