// Package hooks defines the discriminated-union event taxonomy streamed out
// of a transform run or chat session query, grounded on the teacher's
// runtime/agent/hooks event/bus pattern but simplified to the flat kind set
// spec.md describes for these two APIs.
package hooks

import "time"

// EventType discriminates an Event's concrete payload, mirroring the
// "kind" field the original Python implementation attaches to every
// yielded event.
type EventType string

const (
	Text             EventType = "text"
	ToolCall         EventType = "tool_call"
	ToolResult       EventType = "tool_result"
	Validation       EventType = "validation"
	IterationStart   EventType = "iteration_start"
	ChunkedStart     EventType = "chunked_start"
	ChunkStart       EventType = "chunk_start"
	ChunkComplete    EventType = "chunk_complete"
	ChunkError       EventType = "chunk_error"
	ChunkEmpty       EventType = "chunk_empty"
	ChunkUnderflow   EventType = "chunk_underflow"
	ChunkedComplete  EventType = "chunked_complete"
	Keepalive        EventType = "keepalive"
	MessageComplete  EventType = "message_complete"
	Complete         EventType = "complete"
	Error            EventType = "error"
	Phase            EventType = "phase"
	Progress         EventType = "progress"
	SystemPromptSent EventType = "system_prompt"
)

// Event is the interface every concrete event type implements. Consumers
// type-switch on the concrete type, or branch on Type() when only the
// discriminator is needed.
type Event interface {
	Type() EventType
	Timestamp() int64
}

type baseEvent struct {
	kind EventType
	ts   int64
}

func (e baseEvent) Type() EventType { return e.kind }
func (e baseEvent) Timestamp() int64 { return e.ts }

func newBase(kind EventType) baseEvent {
	return baseEvent{kind: kind, ts: time.Now().UnixMilli()}
}

// TextEvent carries a chunk of streamed assistant text.
type TextEvent struct {
	baseEvent
	Text string
}

// NewTextEvent constructs a TextEvent.
func NewTextEvent(text string) *TextEvent {
	return &TextEvent{baseEvent: newBase(Text), Text: text}
}

// ToolCallEvent fires when the orchestrator is about to execute a tool
// call the model requested.
type ToolCallEvent struct {
	baseEvent
	ToolCallID string
	ToolName   string
	Input      any
}

// NewToolCallEvent constructs a ToolCallEvent.
func NewToolCallEvent(toolCallID, toolName string, input any) *ToolCallEvent {
	return &ToolCallEvent{baseEvent: newBase(ToolCall), ToolCallID: toolCallID, ToolName: toolName, Input: input}
}

// ToolResultEvent fires once a tool call completes, successfully or not.
type ToolResultEvent struct {
	baseEvent
	ToolCallID string
	ToolName   string
	Result     any
	IsError    bool
}

// NewToolResultEvent constructs a ToolResultEvent.
func NewToolResultEvent(toolCallID, toolName string, result any, isError bool) *ToolResultEvent {
	return &ToolResultEvent{baseEvent: newBase(ToolResult), ToolCallID: toolCallID, ToolName: toolName, Result: result, IsError: isError}
}

// ValidationEvent reports the outcome of a validate_artifact tool call or
// final post-loop validation pass.
type ValidationEvent struct {
	baseEvent
	Valid     bool
	ItemCount int
	Errors    []string
}

// NewValidationEvent constructs a ValidationEvent.
func NewValidationEvent(valid bool, itemCount int, errs []string) *ValidationEvent {
	return &ValidationEvent{baseEvent: newBase(Validation), Valid: valid, ItemCount: itemCount, Errors: errs}
}

// IterationStartEvent fires at the start of each agent-loop iteration.
type IterationStartEvent struct {
	baseEvent
	Iteration int
	MaxIter   int
}

// NewIterationStartEvent constructs an IterationStartEvent.
func NewIterationStartEvent(iteration, maxIter int) *IterationStartEvent {
	return &IterationStartEvent{baseEvent: newBase(IterationStart), Iteration: iteration, MaxIter: maxIter}
}

// ChunkedStartEvent fires once, before the first chunk of a chunked
// transform begins.
type ChunkedStartEvent struct {
	baseEvent
	ChunkSize      int
	MaxChunks      int
	OverlapContext int
}

// NewChunkedStartEvent constructs a ChunkedStartEvent.
func NewChunkedStartEvent(chunkSize, maxChunks, overlapContext int) *ChunkedStartEvent {
	return &ChunkedStartEvent{baseEvent: newBase(ChunkedStart), ChunkSize: chunkSize, MaxChunks: maxChunks, OverlapContext: overlapContext}
}

// ChunkStartEvent fires when a chunked transform begins a new chunk.
type ChunkStartEvent struct {
	baseEvent
	ChunkNumber int
	ItemOffset  int
}

// NewChunkStartEvent constructs a ChunkStartEvent.
func NewChunkStartEvent(chunkNumber, itemOffset int) *ChunkStartEvent {
	return &ChunkStartEvent{baseEvent: newBase(ChunkStart), ChunkNumber: chunkNumber, ItemOffset: itemOffset}
}

// ChunkCompleteEvent fires when a chunk finishes successfully.
type ChunkCompleteEvent struct {
	baseEvent
	ChunkNumber int
	ItemCount   int
}

// NewChunkCompleteEvent constructs a ChunkCompleteEvent.
func NewChunkCompleteEvent(chunkNumber, itemCount int) *ChunkCompleteEvent {
	return &ChunkCompleteEvent{baseEvent: newBase(ChunkComplete), ChunkNumber: chunkNumber, ItemCount: itemCount}
}

// ChunkErrorEvent fires when a chunk's underlying transform run fails.
// A failure on the first chunk is fatal to the whole chunked run; a
// failure on a later chunk stops generation but keeps what was produced.
type ChunkErrorEvent struct {
	baseEvent
	ChunkNumber int
	Error       string
}

// NewChunkErrorEvent constructs a ChunkErrorEvent.
func NewChunkErrorEvent(chunkNumber int, errMsg string) *ChunkErrorEvent {
	return &ChunkErrorEvent{baseEvent: newBase(ChunkError), ChunkNumber: chunkNumber, Error: errMsg}
}

// ChunkEmptyEvent fires when a chunk produces zero items, the other
// signal (besides underflow) that stops the chunk loop.
type ChunkEmptyEvent struct {
	baseEvent
	ChunkNumber int
}

// NewChunkEmptyEvent constructs a ChunkEmptyEvent.
func NewChunkEmptyEvent(chunkNumber int) *ChunkEmptyEvent {
	return &ChunkEmptyEvent{baseEvent: newBase(ChunkEmpty), ChunkNumber: chunkNumber}
}

// ChunkUnderflowEvent fires when a chunk yields fewer items than the
// underflow threshold permits, the signal that stops the chunk loop.
type ChunkUnderflowEvent struct {
	baseEvent
	ChunkNumber int
	ItemCount   int
	Expected    int
}

// NewChunkUnderflowEvent constructs a ChunkUnderflowEvent.
func NewChunkUnderflowEvent(chunkNumber, itemCount, expected int) *ChunkUnderflowEvent {
	return &ChunkUnderflowEvent{baseEvent: newBase(ChunkUnderflow), ChunkNumber: chunkNumber, ItemCount: itemCount, Expected: expected}
}

// ChunkedCompleteEvent fires once the chunked transform loop terminates.
type ChunkedCompleteEvent struct {
	baseEvent
	ChunksGenerated int
	TotalItems      int
}

// NewChunkedCompleteEvent constructs a ChunkedCompleteEvent.
func NewChunkedCompleteEvent(chunksGenerated, totalItems int) *ChunkedCompleteEvent {
	return &ChunkedCompleteEvent{baseEvent: newBase(ChunkedComplete), ChunksGenerated: chunksGenerated, TotalItems: totalItems}
}

// KeepaliveEvent is emitted periodically on long-idle streams so
// intermediary proxies do not close the connection.
type KeepaliveEvent struct{ baseEvent }

// NewKeepaliveEvent constructs a KeepaliveEvent.
func NewKeepaliveEvent() *KeepaliveEvent { return &KeepaliveEvent{baseEvent: newBase(Keepalive)} }

// MessageCompleteEvent fires when a chat session finishes processing one
// query, carrying the number of tool calls the turn made.
type MessageCompleteEvent struct {
	baseEvent
	ToolCallCount int
}

// NewMessageCompleteEvent constructs a MessageCompleteEvent.
func NewMessageCompleteEvent(toolCallCount int) *MessageCompleteEvent {
	return &MessageCompleteEvent{baseEvent: newBase(MessageComplete), ToolCallCount: toolCallCount}
}

// CompleteEvent fires when a transform run finishes, successfully or not.
type CompleteEvent struct {
	baseEvent
	Success bool
}

// NewCompleteEvent constructs a CompleteEvent.
func NewCompleteEvent(success bool) *CompleteEvent {
	return &CompleteEvent{baseEvent: newBase(Complete), Success: success}
}

// ErrorEvent carries a terminal or recoverable error message.
type ErrorEvent struct {
	baseEvent
	Message string
	Fatal   bool
}

// NewErrorEvent constructs an ErrorEvent.
func NewErrorEvent(message string, fatal bool) *ErrorEvent {
	return &ErrorEvent{baseEvent: newBase(Error), Message: message, Fatal: fatal}
}

// PhaseEvent reports a coarse lifecycle transition (e.g. "validating",
// "writing_output").
type PhaseEvent struct {
	baseEvent
	Name string
}

// NewPhaseEvent constructs a PhaseEvent.
func NewPhaseEvent(name string) *PhaseEvent {
	return &PhaseEvent{baseEvent: newBase(Phase), Name: name}
}

// ProgressEvent reports a fine-grained numeric progress update.
type ProgressEvent struct {
	baseEvent
	Current int
	Total   int
	Label   string
}

// NewProgressEvent constructs a ProgressEvent.
func NewProgressEvent(current, total int, label string) *ProgressEvent {
	return &ProgressEvent{baseEvent: newBase(Progress), Current: current, Total: total, Label: label}
}

// SystemPromptEvent fires once per chat session, the first time a query
// is processed, carrying the composed system prompt for debugging/audit.
type SystemPromptEvent struct {
	baseEvent
	Prompt string
}

// NewSystemPromptEvent constructs a SystemPromptEvent.
func NewSystemPromptEvent(prompt string) *SystemPromptEvent {
	return &SystemPromptEvent{baseEvent: newBase(SystemPromptSent), Prompt: prompt}
}
