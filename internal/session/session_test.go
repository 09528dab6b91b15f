package session

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/reactiv/flowgraph/internal/hooks"
	"github.com/reactiv/flowgraph/internal/model"
)

type staticClient struct {
	resp model.Response
}

func (c *staticClient) Complete(ctx context.Context, req model.Request) (model.Response, error) {
	return c.resp, nil
}

func (c *staticClient) Stream(ctx context.Context, req model.Request) (model.Streamer, error) {
	return nil, model.ErrStreamingUnsupported
}

func endTurnClient(text string) *staticClient {
	return &staticClient{resp: model.Response{
		Message:    model.Message{Role: model.RoleAssistant, Parts: []model.Part{model.TextPart{Text: text}}},
		StopReason: model.StopEndTurn,
	}}
}

func TestSessionQueryEmitsSystemPromptOnlyOnFirstQuery(t *testing.T) {
	client := endTurnClient("hello")
	s := New("wf-1", t.TempDir(), Config{}, client, nil, nil)
	require.NoError(t, s.Initialize("", nil))

	sink := hooks.NewChannelSink(64)
	require.NoError(t, s.Query(context.Background(), "hi", sink))
	require.NoError(t, s.Query(context.Background(), "again", sink))
	sink.Close()

	var systemPromptCount, messageCompleteCount int
	for evt := range sink.Events() {
		switch evt.Type() {
		case hooks.SystemPromptSent:
			systemPromptCount++
		case hooks.MessageComplete:
			messageCompleteCount++
		}
	}
	assert.Equal(t, 1, systemPromptCount)
	assert.Equal(t, 2, messageCompleteCount)
	assert.Equal(t, 4, s.MessageCount())
}

func TestSessionQueryRejectsConcurrentCalls(t *testing.T) {
	client := endTurnClient("hi")
	s := New("wf-1", t.TempDir(), Config{}, client, nil, nil)
	require.NoError(t, s.Initialize("", nil))

	s.mu.Lock()
	s.isProcessing = true
	s.mu.Unlock()

	err := s.Query(context.Background(), "hi", nil)
	assert.ErrorIs(t, err, ErrAlreadyProcessing)
}

func TestSessionQueryBeforeInitializeFails(t *testing.T) {
	client := endTurnClient("hi")
	s := New("wf-1", t.TempDir(), Config{}, client, nil, nil)
	err := s.Query(context.Background(), "hi", nil)
	assert.ErrorIs(t, err, ErrNotInitialized)
}

func TestManagerCreateGetCloseSession(t *testing.T) {
	client := endTurnClient("hi")
	mgr := NewManager(client, 0, nil, nil, nil)

	s, err := mgr.CreateSession("wf-1", Config{}, "", nil)
	require.NoError(t, err)
	assert.Equal(t, 1, mgr.ActiveSessionCount())

	got := mgr.GetSession(s.ID)
	require.NotNil(t, got)
	assert.Same(t, s, got)

	assert.True(t, mgr.CloseSession(s.ID))
	assert.Equal(t, 0, mgr.ActiveSessionCount())
	assert.False(t, mgr.CloseSession(s.ID))
}

func TestManagerCleanupExpiredClosesIdleSession(t *testing.T) {
	client := endTurnClient("hi")
	mgr := NewManager(client, 10*time.Millisecond, nil, nil, nil)

	s, err := mgr.CreateSession("wf-1", Config{}, "", nil)
	require.NoError(t, err)

	time.Sleep(20 * time.Millisecond)
	closed := mgr.CleanupExpired()
	assert.Equal(t, 1, closed)
	assert.Nil(t, mgr.GetSession(s.ID))
}

func TestManagerStartStopCleanupTaskIsIdempotent(t *testing.T) {
	client := endTurnClient("hi")
	mgr := NewManager(client, time.Hour, nil, nil, nil)

	mgr.StartCleanupTask()
	mgr.StartCleanupTask() // second call is a no-op, must not deadlock or panic
	mgr.StopCleanupTask()
	mgr.StopCleanupTask() // idempotent
}

func TestSessionQueryExecutesToolCalls(t *testing.T) {
	input, _ := json.Marshal(map[string]string{"directory": "./"})
	client := &staticClient{resp: model.Response{
		Message: model.Message{
			Role:  model.RoleAssistant,
			Parts: []model.Part{model.ToolUsePart{ID: "c1", Name: "list_files", Input: input}},
		},
		StopReason: model.StopToolUse,
	}}

	// After the tool-use turn, the mock always re-returns the same
	// tool_use response; bound iterations via MaxTurns so the loop
	// terminates deterministically in this test.
	s := New("wf-1", t.TempDir(), Config{MaxTurns: 1}, client, nil, nil)
	require.NoError(t, s.Initialize("", nil))

	sink := hooks.NewChannelSink(64)
	err := s.Query(context.Background(), "list files", sink)
	require.NoError(t, err)
	sink.Close()

	var sawToolCall bool
	for evt := range sink.Events() {
		if evt.Type() == hooks.ToolCall {
			sawToolCall = true
		}
	}
	assert.True(t, sawToolCall)
}
