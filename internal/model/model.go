// Package model defines a provider-agnostic boundary for the external
// reasoning model ("coding agent" in spec.md §1) that drives the
// transformer's tool loop. It mirrors the shape the Anthropic Agent SDK
// exposes (messages, tool-use/tool-result parts, a streamed response)
// without committing any caller to a concrete provider. Tool execution
// itself is NOT performed by a Client — the orchestrator (internal/transform)
// owns the loop that turns a ToolUsePart into a ToolResultPart via
// internal/tools, exactly as spec.md §6 describes the agent capability's
// contract (pre-/post-tool hooks observed by the caller, not the model).
package model

import (
	"context"
	"encoding/json"
)

// ConversationRole identifies the speaker of a Message.
type ConversationRole string

const (
	RoleUser      ConversationRole = "user"
	RoleAssistant ConversationRole = "assistant"
	RoleSystem    ConversationRole = "system"
)

// Part is a tagged union of message content. Concrete types implement
// isPart to keep the union closed to this package.
type Part interface {
	isPart()
}

// TextPart is a plain text segment.
type TextPart struct {
	Text string
}

// ToolUsePart is an agent-issued tool invocation.
type ToolUsePart struct {
	ID    string
	Name  string
	Input json.RawMessage
}

// ToolResultPart carries the result of executing a ToolUsePart back to
// the model.
type ToolResultPart struct {
	ToolUseID string
	Content   string
	IsError   bool
}

func (TextPart) isPart()       {}
func (ToolUsePart) isPart()    {}
func (ToolResultPart) isPart() {}

// Message is one turn of the conversation.
type Message struct {
	Role  ConversationRole
	Parts []Part
}

// Text concatenates every TextPart in the message, the common case for
// extracting the agent's prose between tool calls.
func (m Message) Text() string {
	var out string
	for _, p := range m.Parts {
		if t, ok := p.(TextPart); ok {
			out += t.Text
		}
	}
	return out
}

// ToolCalls returns every ToolUsePart in the message, in emission order.
func (m Message) ToolCalls() []ToolUsePart {
	var calls []ToolUsePart
	for _, p := range m.Parts {
		if tc, ok := p.(ToolUsePart); ok {
			calls = append(calls, tc)
		}
	}
	return calls
}

// ToolDefinition describes one callable tool to the model.
type ToolDefinition struct {
	Name        string
	Description string
	InputSchema json.RawMessage
}

// ToolChoiceMode constrains how the model may use tools on a turn.
type ToolChoiceMode string

const (
	ToolChoiceAuto ToolChoiceMode = "auto"
	ToolChoiceNone ToolChoiceMode = "none"
	ToolChoiceAny  ToolChoiceMode = "any"
	ToolChoiceTool ToolChoiceMode = "tool"
)

// ToolChoice selects a tool-use policy for a request.
type ToolChoice struct {
	Mode ToolChoiceMode
	Name string // only meaningful when Mode == ToolChoiceTool
}

// PermissionMode controls whether the provider may apply tool edits
// without an additional confirmation round-trip. spec.md §6 requires
// the agent capability to accept acceptEdits.
type PermissionMode string

const (
	PermissionAcceptEdits PermissionMode = "acceptEdits"
	PermissionDefault     PermissionMode = "default"
)

// Request is one call into the model: the running conversation plus the
// tool set and sandbox it is scoped to.
type Request struct {
	RunID          string
	Model          string
	SystemPrompt   string
	Messages       []Message
	Tools          []ToolDefinition
	ToolChoice     ToolChoice
	PermissionMode PermissionMode
	MaxTokens      int
	Temperature    float64
}

// StopReason explains why the model stopped producing output for a turn.
type StopReason string

const (
	StopEndTurn   StopReason = "end_turn"
	StopToolUse   StopReason = "tool_use"
	StopMaxTokens StopReason = "max_tokens"
)

// Response is a complete, non-streamed model turn.
type Response struct {
	Message    Message
	StopReason StopReason
	Usage      TokenUsage
}

// TokenUsage reports token accounting for a turn.
type TokenUsage struct {
	InputTokens  int
	OutputTokens int
}

// ChunkType discriminates Chunk variants in a streamed response.
type ChunkType string

const (
	ChunkText ChunkType = "text"
	ChunkStop ChunkType = "stop"
)

// Chunk is one increment of a streamed model turn: either a slice of
// assistant text, or the terminal marker carrying the turn's final
// Response (so callers can stream text as it arrives yet still get the
// structured tool calls once the turn completes).
type Chunk struct {
	Type     ChunkType
	Text     string
	Response *Response // set only when Type == ChunkStop
}

// Streamer yields the chunks of one model turn.
type Streamer interface {
	Recv(ctx context.Context) (Chunk, error)
	Close() error
}

// Client is the agent capability boundary named in spec.md §6: given a
// request it returns either a complete Response or a Streamer of Chunks
// building up to one. It does not execute tools; the caller (the
// orchestrator) is responsible for dispatching each ToolUsePart and
// feeding a ToolResultPart back in as the next Request.Messages entry.
type Client interface {
	Complete(ctx context.Context, req Request) (Response, error)
	Stream(ctx context.Context, req Request) (Streamer, error)
}

// ErrRateLimited is returned (optionally wrapped) by Client
// implementations when the provider signals backpressure.
var ErrRateLimited = errString("model: rate limited")

// ErrStreamingUnsupported is returned by Client implementations that
// cannot stream (useful for test doubles).
var ErrStreamingUnsupported = errString("model: streaming unsupported by this client")

type errString string

func (e errString) Error() string { return string(e) }
