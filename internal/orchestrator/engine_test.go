package orchestrator

import (
	"context"
	"fmt"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dyluth/barista/pkg/blackboard"
)

func setupTestClient(t *testing.T) *blackboard.Client {
	t.Helper()
	mr := miniredis.RunT(t)
	bb, err := blackboard.NewClient(&redis.Options{Addr: mr.Addr()}, "test-session")
	require.NoError(t, err)
	t.Cleanup(func() { bb.Close() })
	return bb
}

type fakeAgent struct {
	name    string
	process func(ctx context.Context) error
}

func (f *fakeAgent) Name() string { return f.name }

func (f *fakeAgent) Process(ctx context.Context) error {
	if f.process == nil {
		return nil
	}
	return f.process(ctx)
}

func recording(name string, order *[]string) *fakeAgent {
	return &fakeAgent{name: name, process: func(ctx context.Context) error {
		*order = append(*order, name)
		return nil
	}}
}

func TestTurnRunsAgentsInFixedOrder(t *testing.T) {
	bb := setupTestClient(t)
	var order []string

	engine := NewEngine(bb,
		recording("intent", &order),
		recording("sommelier", &order),
		recording("brewer", &order),
		recording("doctor", &order),
	)

	_, err := engine.Turn(context.Background(), "hello")
	require.NoError(t, err)
	assert.Equal(t, []string{"intent", "sommelier", "brewer", "doctor"}, order)
}

func TestBusyDoctorSkipsIntentAgent(t *testing.T) {
	bb := setupTestClient(t)
	ctx := context.Background()
	require.NoError(t, bb.SetDoctorState(ctx, blackboard.DoctorWaitAnswer))

	var order []string
	engine := NewEngine(bb, recording("intent", &order), recording("doctor", &order))

	_, err := engine.Turn(ctx, "yes it was")
	require.NoError(t, err)
	assert.Equal(t, []string{"doctor"}, order)
}

func TestBusyBrewerSkipsIntentAgent(t *testing.T) {
	bb := setupTestClient(t)
	ctx := context.Background()
	require.NoError(t, bb.SetBrewerState(ctx, blackboard.BrewerWaitMethodSelection))

	var order []string
	engine := NewEngine(bb, recording("intent", &order), recording("brewer", &order))

	_, err := engine.Turn(ctx, "v60")
	require.NoError(t, err)
	assert.Equal(t, []string{"brewer"}, order)
}

func TestFallbackNoticeWhenNoAgentReplies(t *testing.T) {
	bb := setupTestClient(t)

	engine := NewEngine(bb, &fakeAgent{name: "intent"}, &fakeAgent{name: "doctor"})

	replies, err := engine.Turn(context.Background(), "mumble")
	require.NoError(t, err)
	require.Len(t, replies, 1)
	assert.Equal(t, FallbackNotice, replies[0].Content)
}

func TestTurnReturnsProducedReplies(t *testing.T) {
	bb := setupTestClient(t)

	replier := &fakeAgent{name: "doctor", process: func(ctx context.Context) error {
		if err := bb.AppendAssistantMessage(ctx, "first"); err != nil {
			return err
		}
		return bb.AppendAssistantMessage(ctx, "second")
	}}
	engine := NewEngine(bb, &fakeAgent{name: "intent"}, replier)

	replies, err := engine.Turn(context.Background(), "hello")
	require.NoError(t, err)
	require.Len(t, replies, 2)
	assert.Equal(t, "first", replies[0].Content)
	assert.Equal(t, "second", replies[1].Content)
}

func TestAgentErrorIsAbsorbed(t *testing.T) {
	bb := setupTestClient(t)

	failing := &fakeAgent{name: "sommelier", process: func(ctx context.Context) error {
		return fmt.Errorf("boom")
	}}
	replier := &fakeAgent{name: "brewer", process: func(ctx context.Context) error {
		return bb.AppendAssistantMessage(ctx, "still here")
	}}
	engine := NewEngine(bb, &fakeAgent{name: "intent"}, failing, replier)

	replies, err := engine.Turn(context.Background(), "hello")
	require.NoError(t, err)
	require.Len(t, replies, 1)
	assert.Equal(t, "still here", replies[0].Content)
}
