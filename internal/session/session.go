// Package session implements the Streaming Session Manager: long-lived,
// named conversational sessions that reuse the agent-tool loop of
// internal/transform, enforce single-flight query processing, and evict
// idle sessions. Grounded on chat/session.py's ChatSession and
// chat/manager.py's ChatSessionManager.
package session

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/reactiv/flowgraph/internal/hooks"
	"github.com/reactiv/flowgraph/internal/model"
	"github.com/reactiv/flowgraph/internal/sandbox"
	"github.com/reactiv/flowgraph/internal/telemetry"
	"github.com/reactiv/flowgraph/internal/tools"
)

// ErrAlreadyProcessing is returned by Query when a concurrent query is
// already in flight on the same session, per spec.md §4.3's fail-fast
// single-flight invariant.
var ErrAlreadyProcessing = errors.New("session: a query is already in flight")

// ErrNotInitialized is returned by Query when Initialize was never
// called (or Close already ran).
var ErrNotInitialized = errors.New("session: not initialized")

// Role discriminates a ChatMessage's speaker.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// ChatMessage is one entry in a session's bounded conversation history.
// Assistant entries never carry the verbatim response text (spec.md
// §4.3 invariant 4): only a compact summary, to bound memory.
type ChatMessage struct {
	Role    Role
	Content string
}

// Config configures one ChatSession (chat/models.py's ChatSessionConfig).
type Config struct {
	SystemPrompt string
	Tools        []string
	MaxTurns     int
	Model        string
}

// Session is a long-lived conversational container wrapping the same
// model.Client/tools.Registry loop the orchestrator uses.
type Session struct {
	ID         string
	WorkflowID string
	WorkDir    string
	Config     Config

	mu             sync.Mutex
	messages       []ChatMessage
	createdAt      time.Time
	lastActivity   time.Time
	isActive       bool
	isProcessing   bool
	systemPrompt   string
	contextEmitted bool

	client   model.Client
	registry *tools.Registry
	metrics  telemetry.Metrics
	tracer   telemetry.Tracer
}

// New constructs a Session. Call Initialize before the first Query. A
// nil metrics/tracer defaults to a no-op, matching transform.Orchestrator's
// own fallback.
func New(workflowID, workDir string, cfg Config, client model.Client, metrics telemetry.Metrics, tracer telemetry.Tracer) *Session {
	now := time.Now()
	if metrics == nil {
		metrics = telemetry.NewNoopMetrics()
	}
	if tracer == nil {
		tracer = telemetry.NewNoopTracer()
	}
	return &Session{
		ID:           uuid.NewString()[:12],
		WorkflowID:   workflowID,
		WorkDir:      workDir,
		Config:       cfg,
		createdAt:    now,
		lastActivity: now,
		client:       client,
		metrics:      metrics,
		tracer:       tracer,
	}
}

// IsActive reports whether the session's agent client is open.
func (s *Session) IsActive() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.isActive
}

// IsProcessing reports whether a Query is currently in flight.
func (s *Session) IsProcessing() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.isProcessing
}

// Initialize creates the work directory and marks the session active.
// graphAPIScript, when non-empty, is written alongside a small JSON
// config file pointing it at the workflow's storage, mirroring
// session.py's _setup_graph_api.
func (s *Session) Initialize(graphAPIScript string, graphConfigJSON []byte) error {
	if err := os.MkdirAll(s.WorkDir, 0o755); err != nil {
		return fmt.Errorf("session: creating work_dir: %w", err)
	}
	if graphAPIScript != "" {
		if err := os.WriteFile(s.WorkDir+"/graph_api.py", []byte(graphAPIScript), 0o644); err != nil {
			return fmt.Errorf("session: writing graph_api: %w", err)
		}
		if err := os.WriteFile(s.WorkDir+"/.graph_config.json", graphConfigJSON, 0o644); err != nil {
			return fmt.Errorf("session: writing graph config: %w", err)
		}
	}

	specs := tools.BuiltinSpecs("direct")
	s.registry = tools.NewRegistry(specs...)

	if s.Config.SystemPrompt != "" {
		s.systemPrompt = s.Config.SystemPrompt
	} else {
		s.systemPrompt = defaultSystemPrompt
	}

	s.mu.Lock()
	s.isActive = true
	s.mu.Unlock()
	return nil
}

const defaultSystemPrompt = `You are an expert assistant helping users interact with a workflow graph.

You have read-only access to the workflow's data through the graph query tools.
Be helpful and concise. When showing results, format them clearly.
`

// Query sends message to the agent and streams events onto sink as the
// agent responds, following the four-step protocol of spec.md §4.3:
// system_prompt (first query only), text/tool_call/tool_result as the
// loop runs, and a final message_complete. It fails fast with
// ErrAlreadyProcessing rather than queuing a second concurrent query.
func (s *Session) Query(ctx context.Context, message string, sink hooks.Sink) error {
	s.mu.Lock()
	if !s.isActive {
		s.mu.Unlock()
		return ErrNotInitialized
	}
	if s.isProcessing {
		s.mu.Unlock()
		return ErrAlreadyProcessing
	}
	s.isProcessing = true
	s.lastActivity = time.Now()
	firstQuery := !s.contextEmitted
	s.contextEmitted = true
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		s.isProcessing = false
		s.mu.Unlock()
	}()

	if sink == nil {
		sink = hooks.NopSink{}
	}

	if firstQuery {
		_ = sink.Emit(ctx, hooks.NewSystemPromptEvent(s.systemPrompt))
	}

	s.appendMessage(ChatMessage{Role: RoleUser, Content: message})

	toolCallCount, err := s.runQueryLoop(ctx, message, sink)
	if err != nil {
		_ = sink.Emit(ctx, hooks.NewErrorEvent(err.Error(), false))
		return err
	}

	s.appendMessage(ChatMessage{Role: RoleAssistant, Content: fmt.Sprintf("[response with %d tool calls]", toolCallCount)})
	_ = sink.Emit(ctx, hooks.NewMessageCompleteEvent(toolCallCount))
	return nil
}

func (s *Session) runQueryLoop(ctx context.Context, message string, sink hooks.Sink) (int, error) {
	sb, err := sandbox.New(s.WorkDir, nil, "jsonl")
	if err != nil {
		return 0, err
	}
	toolCtx := tools.NewContext(sb, nil, s.metrics, s.tracer)

	req := model.Request{
		SystemPrompt:   s.systemPrompt,
		Messages:       []model.Message{{Role: model.RoleUser, Parts: []model.Part{model.TextPart{Text: message}}}},
		Tools:          s.registry.Definitions(),
		ToolChoice:     model.ToolChoice{Mode: model.ToolChoiceAuto},
		PermissionMode: model.PermissionAcceptEdits,
		Model:          s.Config.Model,
	}
	if req.Model == "" {
		req.Model = "default"
	}

	maxTurns := s.Config.MaxTurns
	if maxTurns <= 0 {
		maxTurns = 20
	}

	toolCallCount := 0
	for turn := 0; turn < maxTurns; turn++ {
		select {
		case <-ctx.Done():
			return toolCallCount, ctx.Err()
		default:
		}

		resp, err := s.client.Complete(ctx, req)
		if err != nil {
			return toolCallCount, fmt.Errorf("session: model call failed: %w", err)
		}
		if text := resp.Message.Text(); text != "" {
			_ = sink.Emit(ctx, hooks.NewTextEvent(text))
		}
		req.Messages = append(req.Messages, resp.Message)

		calls := resp.Message.ToolCalls()
		if len(calls) == 0 {
			return toolCallCount, nil
		}

		resultParts := make([]model.Part, 0, len(calls))
		for _, call := range calls {
			toolCallCount++
			var decoded any
			_ = decodeJSONBestEffort(call.Input, &decoded)
			_ = sink.Emit(ctx, hooks.NewToolCallEvent(call.ID, call.Name, decoded))

			result, execErr := tools.Execute(ctx, s.registry, toolCtx, call.Name, call.Input)
			isErr := execErr != nil
			var content string
			if isErr {
				content = execErr.Error()
			} else {
				content = marshalBestEffort(result)
			}
			_ = sink.Emit(ctx, hooks.NewToolResultEvent(call.ID, call.Name, result, isErr))
			resultParts = append(resultParts, model.ToolResultPart{ToolUseID: call.ID, Content: content, IsError: isErr})
		}
		req.Messages = append(req.Messages, model.Message{Role: model.RoleUser, Parts: resultParts})
	}
	return toolCallCount, nil
}

func (s *Session) appendMessage(m ChatMessage) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.messages = append(s.messages, m)
}

// MessageCount returns the number of messages recorded in history.
func (s *Session) MessageCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.messages)
}

// LastActivity returns the timestamp of the most recent lookup or query.
func (s *Session) LastActivity() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastActivity
}

// touch refreshes last_activity, called by the manager on every lookup.
func (s *Session) touch() {
	s.mu.Lock()
	s.lastActivity = time.Now()
	s.mu.Unlock()
}

// Close releases the session's agent client. The work directory is left
// on disk for debugging, matching session.py's close().
func (s *Session) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.isActive = false
	return nil
}

// Info is a snapshot of session metadata, safe to return to callers
// without exposing mutable internal state.
type Info struct {
	SessionID    string
	WorkflowID   string
	CreatedAt    time.Time
	LastActivity time.Time
	MessageCount int
	IsActive     bool
}

func (s *Session) info() Info {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Info{
		SessionID:    s.ID,
		WorkflowID:   s.WorkflowID,
		CreatedAt:    s.createdAt,
		LastActivity: s.lastActivity,
		MessageCount: len(s.messages),
		IsActive:     s.isActive,
	}
}
