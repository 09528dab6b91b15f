// Package chunk implements unbounded output generation by driving the
// Transformer Orchestrator across repeated, validated chunks, grounded
// on chunked.py's ChunkedTransformer. It exists for outputs too large to
// produce in a single agent-loop run (10,000+ items): each chunk asks
// for a bounded batch, is validated like any other run, and the merged
// item list is handed back as one TransformRun.
package chunk

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/reactiv/flowgraph/internal/hooks"
	"github.com/reactiv/flowgraph/internal/schema"
	"github.com/reactiv/flowgraph/internal/transform"
)

// Config controls chunked-generation behavior (chunked.py's ChunkConfig).
type Config struct {
	ChunkSize          int
	MaxChunks          int
	OverlapContext     int
	StopOnUnderflow    bool
	UnderflowThreshold float64
}

// Option mutates a Config under construction.
type Option func(*Config)

// NewConfig builds a Config with chunked.py's exact defaults.
func NewConfig(opts ...Option) Config {
	c := Config{
		ChunkSize:          50,
		MaxChunks:          100,
		OverlapContext:     5,
		StopOnUnderflow:    true,
		UnderflowThreshold: 0.5,
	}
	for _, o := range opts {
		if o != nil {
			o(&c)
		}
	}
	return c
}

func WithChunkSize(n int) Option          { return func(c *Config) { c.ChunkSize = n } }
func WithMaxChunks(n int) Option          { return func(c *Config) { c.MaxChunks = n } }
func WithOverlapContext(n int) Option     { return func(c *Config) { c.OverlapContext = n } }
func WithStopOnUnderflow(b bool) Option   { return func(c *Config) { c.StopOnUnderflow = b } }
func WithUnderflowThreshold(f float64) Option {
	return func(c *Config) { c.UnderflowThreshold = f }
}

// Transformer wraps an *transform.Orchestrator to drive chunked runs.
type Transformer struct {
	Orchestrator *transform.Orchestrator
}

// NewTransformer builds a Transformer backed by orch.
func NewTransformer(orch *transform.Orchestrator) *Transformer {
	return &Transformer{Orchestrator: orch}
}

// TransformChunked repeatedly invokes the orchestrator, merging items
// across chunks, until max_chunks is hit, a chunk comes back empty, an
// underflow is detected, or a non-first chunk fails. Output format is
// forced to jsonl and learning is disabled regardless of transformCfg,
// mirroring chunked.py exactly.
func (t *Transformer) TransformChunked(ctx context.Context, inputPaths []string, instruction string, outputModel *schema.Description, chunkCfg Config, transformCfg transform.Config, sink hooks.Sink) (*transform.Run, error) {
	if sink == nil {
		sink = hooks.NopSink{}
	}
	transformCfg.OutputFormat = transform.FormatJSONL
	transformCfg.Learn = false

	_ = sink.Emit(ctx, hooks.NewChunkedStartEvent(chunkCfg.ChunkSize, chunkCfg.MaxChunks, chunkCfg.OverlapContext))

	var allItems []any
	var lastRun *transform.Run
	chunkNum := 0

	for chunkNum < chunkCfg.MaxChunks {
		_ = sink.Emit(ctx, hooks.NewChunkStartEvent(chunkNum+1, len(allItems)))

		var chunkInstruction string
		if chunkNum == 0 {
			chunkInstruction = buildFirstChunkInstruction(instruction, chunkCfg.ChunkSize)
		} else {
			start := len(allItems) - chunkCfg.OverlapContext
			if start < 0 {
				start = 0
			}
			chunkInstruction = buildContinuationInstruction(instruction, chunkCfg.ChunkSize, len(allItems), allItems[start:])
		}

		run, err := t.Orchestrator.Run(ctx, inputPaths, chunkInstruction, outputModel, transformCfg, sink)
		if err != nil {
			_ = sink.Emit(ctx, hooks.NewChunkErrorEvent(chunkNum+1, err.Error()))
			if chunkNum == 0 {
				return nil, err
			}
			break
		}
		lastRun = run

		chunkItems := run.Items
		if len(chunkItems) == 0 {
			_ = sink.Emit(ctx, hooks.NewChunkEmptyEvent(chunkNum+1))
			break
		}

		_ = sink.Emit(ctx, hooks.NewChunkCompleteEvent(chunkNum+1, len(chunkItems)))
		allItems = append(allItems, chunkItems...)
		chunkNum++

		if chunkCfg.StopOnUnderflow {
			threshold := float64(chunkCfg.ChunkSize) * chunkCfg.UnderflowThreshold
			if float64(len(chunkItems)) < threshold {
				_ = sink.Emit(ctx, hooks.NewChunkUnderflowEvent(chunkNum, len(chunkItems), chunkCfg.ChunkSize))
				break
			}
		}
	}

	_ = sink.Emit(ctx, hooks.NewChunkedCompleteEvent(chunkNum, len(allItems)))

	schemaHash := outputModel.Hash()
	if lastRun != nil {
		schemaHash = lastRun.Manifest.SchemaHash
	}

	var sample []any
	if len(allItems) > 0 {
		sample = []any{allItems[0]}
	}

	manifest := transform.Manifest{
		ArtifactPath:     "(chunked)",
		ArtifactFormat:   transform.FormatJSONL,
		ItemCount:        len(allItems),
		SchemaHash:       schemaHash,
		ValidationPassed: true,
		Sample:           sample,
		RunID:            fmt.Sprintf("chunked-%d", chunkNum),
	}

	return &transform.Run{
		Manifest: manifest,
		Items:    allItems,
		Learned:  nil,
		Debug: map[string]any{
			"mode":             "chunked",
			"chunks_generated": chunkNum,
			"chunk_size":       chunkCfg.ChunkSize,
			"total_items":      len(allItems),
		},
	}, nil
}

func buildFirstChunkInstruction(base string, chunkSize int) string {
	return fmt.Sprintf(`%s

## Chunked Generation Mode

This is chunk 1 of a multi-chunk generation. Generate the FIRST %d items.

Focus on:
1. Establishing consistent patterns and naming conventions
2. Creating a diverse, representative sample
3. Following the schema exactly

Generate up to %d items. If the input has fewer items, generate all of them.
`, base, chunkSize, chunkSize)
}

func buildContinuationInstruction(base string, chunkSize, itemsSoFar int, contextItems []any) string {
	contextJSON := ""
	if len(contextItems) > 0 {
		if b, err := json.MarshalIndent(contextItems, "", "  "); err == nil {
			contextJSON = string(b)
		} else {
			contextJSON = "(context serialization failed)"
		}
	}

	return fmt.Sprintf(`%s

## Chunked Generation Mode - Continuation

This is a CONTINUATION of a multi-chunk generation.

**Progress:** %d items already generated.

**Generate next:** Up to %d items (items %d+)

**Last %d items from previous chunk (maintain consistency):**
`+"```json\n%s\n```"+`

CRITICAL REQUIREMENTS:
1. Continue the established patterns and naming conventions
2. Do NOT repeat any items already generated
3. Maintain referential consistency if items reference each other
4. Generate up to %d NEW items
5. If you've processed all input data, generate fewer items or stop

Start generating from item %d.
`, base, itemsSoFar, chunkSize, itemsSoFar+1, len(contextItems), contextJSON, chunkSize, itemsSoFar+1)
}
