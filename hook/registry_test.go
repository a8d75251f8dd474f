package hook

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/agentloop/core"
)

type testAgent struct{ name string }

func (a testAgent) Name() string { return a.name }

func recordingHook(order *[]string, label string) Hook {
	return HookFunc(func(_ context.Context, ev Event) (Event, error) {
		*order = append(*order, label)
		return ev, nil
	})
}

func TestRegistry_PriorityOrdering(t *testing.T) {
	agent := testAgent{name: "a"}
	reg := NewRegistry()

	var order []string
	reg.Register(recordingHook(&order, "p50"), WithPriority(50))
	reg.Register(recordingHook(&order, "p100-first"))
	reg.Register(recordingHook(&order, "p100-second"))
	reg.Register(recordingHook(&order, "p10"), WithPriority(10))

	_, err := reg.Dispatch(context.Background(), NewPreCallEvent(agent, nil))
	require.NoError(t, err)
	assert.Equal(t, []string{"p10", "p50", "p100-first", "p100-second"}, order)

	// A later equal-priority registration runs last among its peers.
	reg.Register(recordingHook(&order, "p100-third"))
	order = nil
	_, err = reg.Dispatch(context.Background(), NewPreCallEvent(agent, nil))
	require.NoError(t, err)
	assert.Equal(t, []string{"p10", "p50", "p100-first", "p100-second", "p100-third"}, order)
}

func TestRegistry_MutationChaining(t *testing.T) {
	agent := testAgent{name: "a"}
	reg := NewRegistry()

	reg.Register(HookFunc(func(_ context.Context, ev Event) (Event, error) {
		pre := ev.(*PreReasoningEvent)
		pre.SetInput(append(pre.Input(), core.NewTextMessage("system", "be brief")))
		return pre, nil
	}))

	var observed []core.Message
	reg.Register(HookFunc(func(_ context.Context, ev Event) (Event, error) {
		observed = ev.(*PreReasoningEvent).Input()
		return ev, nil
	}))

	in := []core.Message{core.NewTextMessage("user", "hi")}
	out, err := reg.Dispatch(context.Background(), NewPreReasoningEvent(agent, in))
	require.NoError(t, err)

	require.Len(t, observed, 2)
	assert.Equal(t, "be brief", observed[1].Text())
	assert.Len(t, out.(*PreReasoningEvent).Input(), 2)
}

func TestRegistry_DispatchAbortsOnError(t *testing.T) {
	agent := testAgent{name: "a"}
	reg := NewRegistry()

	boom := errors.New("boom")
	var laterRan bool
	reg.Register(HookFunc(func(_ context.Context, ev Event) (Event, error) {
		return nil, boom
	}), WithPriority(10))
	reg.Register(HookFunc(func(_ context.Context, ev Event) (Event, error) {
		laterRan = true
		return ev, nil
	}))

	_, err := reg.Dispatch(context.Background(), NewPreCallEvent(agent, nil))
	require.Error(t, err)
	assert.ErrorIs(t, err, boom)
	assert.False(t, laterRan, "hooks after a failing hook must not run")
}

func TestRegistry_DispatchRejectsKindChange(t *testing.T) {
	agent := testAgent{name: "a"}
	reg := NewRegistry()

	reg.Register(HookFunc(func(_ context.Context, ev Event) (Event, error) {
		return NewPostCallEvent(agent, core.NewTextMessage("assistant", "swap")), nil
	}))

	_, err := reg.Dispatch(context.Background(), NewPreCallEvent(agent, nil))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrKindMismatch)
}

func TestRegistry_NotifySwallowsFailures(t *testing.T) {
	agent := testAgent{name: "a"}
	reg := NewRegistry()

	var laterRan bool
	reg.Register(HookFunc(func(_ context.Context, ev Event) (Event, error) {
		return nil, errors.New("chunk hook failure")
	}), WithPriority(10))
	reg.Register(HookFunc(func(_ context.Context, ev Event) (Event, error) {
		laterRan = true
		return ev, nil
	}))

	delta := core.NewTextMessage("assistant", "partial")
	reg.Notify(context.Background(), NewReasoningChunkEvent(agent, delta, delta))
	assert.True(t, laterRan, "notify continues past failing hooks")
}

func TestRegistry_SnapshotIsolation(t *testing.T) {
	agent := testAgent{name: "a"}
	reg := NewRegistry()

	var order []string
	reg.Register(HookFunc(func(_ context.Context, ev Event) (Event, error) {
		order = append(order, "registrar")
		// Registration during dispatch must not affect the in-flight chain.
		reg.Register(recordingHook(&order, "late"), WithPriority(10))
		return ev, nil
	}))

	_, err := reg.Dispatch(context.Background(), NewPreCallEvent(agent, nil))
	require.NoError(t, err)
	assert.Equal(t, []string{"registrar"}, order)

	order = nil
	_, err = reg.Dispatch(context.Background(), NewPreCallEvent(agent, nil))
	require.NoError(t, err)
	assert.Equal(t, []string{"late", "registrar"}, order)
}

func TestRegistry_Len(t *testing.T) {
	reg := NewRegistry()
	assert.Equal(t, 0, reg.Len())
	reg.Register(HookFunc(func(_ context.Context, ev Event) (Event, error) { return ev, nil }))
	assert.Equal(t, 1, reg.Len())
}
