// Package anthropic implements model.Client against the real Anthropic
// Messages API, grounded on the teacher's
// features/model/anthropic/client.go: a narrow MessagesClient seam over
// the SDK, request/response encoding helpers, and rate-limit detection.
package anthropic

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	sdk "github.com/anthropics/anthropic-sdk-go"

	"github.com/reactiv/flowgraph/internal/model"
)

// MessagesClient is the narrow slice of the SDK this package depends on,
// satisfied by *sdk.MessageService. Narrowing the dependency to an
// interface keeps this package testable without a live API key.
type MessagesClient interface {
	New(ctx context.Context, params sdk.MessageNewParams) (*sdk.Message, error)
	NewStreaming(ctx context.Context, params sdk.MessageNewParams) *sdk.MessageStream
}

// Options configures default model selection and generation parameters.
type Options struct {
	DefaultModel string
	MaxTokens    int
	Temperature  float64
}

// Client adapts MessagesClient to model.Client.
type Client struct {
	msg          MessagesClient
	defaultModel string
	maxTokens    int
	temperature  float64
}

// New builds a Client around an existing MessagesClient.
func New(msg MessagesClient, opts Options) *Client {
	maxTokens := opts.MaxTokens
	if maxTokens <= 0 {
		maxTokens = 4096
	}
	return &Client{
		msg:          msg,
		defaultModel: opts.DefaultModel,
		maxTokens:    maxTokens,
		temperature:  opts.Temperature,
	}
}

// NewFromAPIKey builds a Client from a live *sdk.Client configured via
// the ANTHROPIC_API_KEY environment variable, the SDK's own default.
func NewFromAPIKey(defaultModel string) *Client {
	c := sdk.NewClient()
	return New(&c.Messages, Options{DefaultModel: defaultModel})
}

func (c *Client) prepareRequest(req model.Request) (sdk.MessageNewParams, error) {
	if len(req.Messages) == 0 {
		return sdk.MessageNewParams{}, errors.New("anthropic: at least one message is required")
	}

	conversation, system, err := encodeMessages(req.Messages)
	if err != nil {
		return sdk.MessageNewParams{}, err
	}

	modelID := req.Model
	if modelID == "" {
		modelID = c.defaultModel
	}
	if modelID == "" {
		return sdk.MessageNewParams{}, errors.New("anthropic: no model configured")
	}

	maxTokens := req.MaxTokens
	if maxTokens <= 0 {
		maxTokens = c.maxTokens
	}
	if maxTokens <= 0 {
		return sdk.MessageNewParams{}, errors.New("anthropic: max_tokens must be positive")
	}

	params := sdk.MessageNewParams{
		Model:     sdk.Model(modelID),
		MaxTokens: int64(maxTokens),
		Messages:  conversation,
	}
	if len(system) > 0 {
		params.System = system
	}
	if req.SystemPrompt != "" {
		params.System = append([]sdk.TextBlockParam{{Text: req.SystemPrompt}}, params.System...)
	}
	temp := req.Temperature
	if temp <= 0 {
		temp = c.temperature
	}
	if temp > 0 {
		params.Temperature = sdk.Float(temp)
	}

	tools, err := encodeTools(req.Tools)
	if err != nil {
		return sdk.MessageNewParams{}, err
	}
	if len(tools) > 0 {
		params.Tools = tools
		if tc := encodeToolChoice(req.ToolChoice); tc.OfAuto != nil || tc.OfAny != nil || tc.OfTool != nil || tc.OfNone != nil {
			params.ToolChoice = tc
		}
	}

	return params, nil
}

// Complete issues one non-streamed Anthropic Messages call.
func (c *Client) Complete(ctx context.Context, req model.Request) (model.Response, error) {
	params, err := c.prepareRequest(req)
	if err != nil {
		return model.Response{}, err
	}
	msg, err := c.msg.New(ctx, params)
	if err != nil {
		return model.Response{}, classifyErr(err)
	}
	return decodeMessage(msg), nil
}

// Stream issues one streamed Anthropic Messages call.
func (c *Client) Stream(ctx context.Context, req model.Request) (model.Streamer, error) {
	params, err := c.prepareRequest(req)
	if err != nil {
		return nil, err
	}
	stream := c.msg.NewStreaming(ctx, params)
	return &streamer{stream: stream}, nil
}

type streamer struct {
	stream *sdk.MessageStream
	text   string
	final  *sdk.Message
}

func (s *streamer) Recv(ctx context.Context) (model.Chunk, error) {
	if s.final == nil {
		s.final = &sdk.Message{}
	}
	for s.stream.Next() {
		event := s.stream.Current()
		if err := s.final.Accumulate(event); err != nil {
			return model.Chunk{}, err
		}
		switch variant := event.AsAny().(type) {
		case sdk.ContentBlockDeltaEvent:
			if delta, ok := variant.Delta.AsAny().(sdk.TextDelta); ok {
				return model.Chunk{Type: model.ChunkText, Text: delta.Text}, nil
			}
		case sdk.MessageStopEvent:
			resp := decodeMessage(s.final)
			return model.Chunk{Type: model.ChunkStop, Response: &resp}, nil
		}
	}
	if err := s.stream.Err(); err != nil {
		return model.Chunk{}, classifyErr(err)
	}
	return model.Chunk{}, errors.New("anthropic: stream closed without a stop event")
}

func (s *streamer) Close() error {
	return s.stream.Close()
}

func decodeMessage(msg *sdk.Message) model.Response {
	out := model.Message{Role: model.RoleAssistant}
	for _, block := range msg.Content {
		switch b := block.AsAny().(type) {
		case sdk.TextBlock:
			out.Parts = append(out.Parts, model.TextPart{Text: b.Text})
		case sdk.ToolUseBlock:
			input, _ := json.Marshal(b.Input)
			out.Parts = append(out.Parts, model.ToolUsePart{ID: b.ID, Name: b.Name, Input: input})
		}
	}
	stop := model.StopEndTurn
	switch msg.StopReason {
	case sdk.StopReasonToolUse:
		stop = model.StopToolUse
	case sdk.StopReasonMaxTokens:
		stop = model.StopMaxTokens
	}
	return model.Response{
		Message:    out,
		StopReason: stop,
		Usage: model.TokenUsage{
			InputTokens:  int(msg.Usage.InputTokens),
			OutputTokens: int(msg.Usage.OutputTokens),
		},
	}
}

func encodeMessages(msgs []model.Message) ([]sdk.MessageParam, []sdk.TextBlockParam, error) {
	conversation := make([]sdk.MessageParam, 0, len(msgs))
	var system []sdk.TextBlockParam

	for _, m := range msgs {
		if m.Role == model.RoleSystem {
			if text := m.Text(); text != "" {
				system = append(system, sdk.TextBlockParam{Text: text})
			}
			continue
		}

		blocks := make([]sdk.ContentBlockParamUnion, 0, len(m.Parts))
		for _, part := range m.Parts {
			switch v := part.(type) {
			case model.TextPart:
				if v.Text != "" {
					blocks = append(blocks, sdk.NewTextBlock(v.Text))
				}
			case model.ToolUsePart:
				var input any
				if len(v.Input) > 0 {
					if err := json.Unmarshal(v.Input, &input); err != nil {
						return nil, nil, fmt.Errorf("anthropic: decoding tool_use input: %w", err)
					}
				}
				blocks = append(blocks, sdk.NewToolUseBlock(v.ID, input, v.Name))
			case model.ToolResultPart:
				blocks = append(blocks, sdk.NewToolResultBlock(v.ToolUseID, v.Content, v.IsError))
			}
		}
		if len(blocks) == 0 {
			continue
		}
		switch m.Role {
		case model.RoleUser:
			conversation = append(conversation, sdk.NewUserMessage(blocks...))
		case model.RoleAssistant:
			conversation = append(conversation, sdk.NewAssistantMessage(blocks...))
		default:
			return nil, nil, fmt.Errorf("anthropic: unsupported message role %q", m.Role)
		}
	}
	if len(conversation) == 0 {
		return nil, nil, errors.New("anthropic: at least one user/assistant message is required")
	}
	return conversation, system, nil
}

func encodeTools(defs []model.ToolDefinition) ([]sdk.ToolUnionParam, error) {
	if len(defs) == 0 {
		return nil, nil
	}
	out := make([]sdk.ToolUnionParam, 0, len(defs))
	for _, def := range defs {
		if def.Name == "" {
			continue
		}
		var schema map[string]any
		if len(def.InputSchema) > 0 {
			if err := json.Unmarshal(def.InputSchema, &schema); err != nil {
				return nil, fmt.Errorf("anthropic: tool %q schema: %w", def.Name, err)
			}
		}
		u := sdk.ToolUnionParamOfTool(sdk.ToolInputSchemaParam{ExtraFields: schema}, def.Name)
		if u.OfTool != nil {
			u.OfTool.Description = sdk.String(def.Description)
		}
		out = append(out, u)
	}
	return out, nil
}

func encodeToolChoice(tc model.ToolChoice) sdk.ToolChoiceUnionParam {
	switch tc.Mode {
	case model.ToolChoiceNone:
		return sdk.ToolChoiceUnionParam{OfNone: &sdk.ToolChoiceNoneParam{}}
	case model.ToolChoiceAny:
		return sdk.ToolChoiceUnionParam{OfAny: &sdk.ToolChoiceAnyParam{}}
	case model.ToolChoiceTool:
		return sdk.ToolChoiceUnionParam{OfTool: &sdk.ToolChoiceToolParam{Name: tc.Name}}
	default:
		return sdk.ToolChoiceUnionParam{OfAuto: &sdk.ToolChoiceAutoParam{}}
	}
}

func classifyErr(err error) error {
	if err == nil {
		return nil
	}
	var apiErr *sdk.Error
	if errors.As(err, &apiErr) && apiErr.StatusCode == 429 {
		return fmt.Errorf("%w: %s", model.ErrRateLimited, apiErr.Error())
	}
	return err
}
