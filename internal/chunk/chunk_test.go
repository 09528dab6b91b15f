package chunk

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/reactiv/flowgraph/internal/model"
	"github.com/reactiv/flowgraph/internal/schema"
	"github.com/reactiv/flowgraph/internal/transform"
)

// Each orchestrator.Run performs two Complete calls (write, then a
// stop-turn follow-up), so alternatingClient serves each entry of
// chunkItems on a write turn followed by a stop turn.
type alternatingClient struct {
	chunkItems [][]string
	chunk      int
	writeTurn  bool
}

func (c *alternatingClient) Complete(ctx context.Context, req model.Request) (model.Response, error) {
	if c.writeTurn {
		names := c.chunkItems[c.chunk]
		var lines string
		for _, n := range names {
			b, _ := json.Marshal(map[string]string{"name": n})
			lines += string(b) + "\n"
		}
		input, _ := json.Marshal(map[string]string{"file_path": "./output.jsonl", "content": lines})
		c.writeTurn = false
		return model.Response{
			Message: model.Message{
				Role:  model.RoleAssistant,
				Parts: []model.Part{model.ToolUsePart{ID: "w", Name: "write_file", Input: input}},
			},
			StopReason: model.StopToolUse,
		}, nil
	}

	c.writeTurn = true
	c.chunk++
	return model.Response{
		Message:    model.Message{Role: model.RoleAssistant, Parts: []model.Part{model.TextPart{Text: "done"}}},
		StopReason: model.StopEndTurn,
	}, nil
}

func (c *alternatingClient) Stream(ctx context.Context, req model.Request) (model.Streamer, error) {
	return nil, model.ErrStreamingUnsupported
}

func testOutputModel(t *testing.T) *schema.Description {
	t.Helper()
	desc, err := schema.Compile("item", json.RawMessage(`{
		"type": "object",
		"properties": {"name": {"type": "string"}},
		"required": ["name"]
	}`))
	require.NoError(t, err)
	return desc
}

func TestTransformChunkedMergesItemsAcrossChunksAndStopsOnUnderflow(t *testing.T) {
	outputModel := testOutputModel(t)
	client := &alternatingClient{
		writeTurn: true,
		chunkItems: [][]string{
			{"a"}, // chunk 1: 1 item, well below the chunk_size=4/threshold=0.5 underflow bar
		},
	}

	orch := transform.NewOrchestrator(client, nil, nil, nil)
	tr := NewTransformer(orch)

	chunkCfg := NewConfig(WithChunkSize(4), WithMaxChunks(10), WithUnderflowThreshold(0.5))
	transformCfg := transform.NewConfig(transform.WithWorkDir(t.TempDir()))

	run, err := tr.TransformChunked(context.Background(), nil, "transform", outputModel, chunkCfg, transformCfg, nil)
	require.NoError(t, err)
	require.NotNil(t, run)

	assert.Equal(t, 1, run.Manifest.ItemCount)
	assert.Equal(t, 1, run.Debug["chunks_generated"])
	assert.Nil(t, run.Learned)
}

func TestTransformChunkedStopsOnEmptyChunk(t *testing.T) {
	outputModel := testOutputModel(t)
	client := &alternatingClient{
		writeTurn:  true,
		chunkItems: [][]string{{"a", "b", "c", "d"}, {}},
	}

	orch := transform.NewOrchestrator(client, nil, nil, nil)
	tr := NewTransformer(orch)

	chunkCfg := NewConfig(WithChunkSize(4), WithMaxChunks(10), WithUnderflowThreshold(0))
	transformCfg := transform.NewConfig(transform.WithWorkDir(t.TempDir()))

	run, err := tr.TransformChunked(context.Background(), nil, "transform", outputModel, chunkCfg, transformCfg, nil)
	require.NoError(t, err)
	assert.Equal(t, 4, run.Manifest.ItemCount)
	assert.Equal(t, 1, run.Debug["chunks_generated"])
}
