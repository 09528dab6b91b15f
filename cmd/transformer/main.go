// Command transformer is a thin CLI wiring the Transformer Orchestrator
// to the real Anthropic model client, grounded on cmd/demo's
// runtime-wiring style (a small main that constructs collaborators and
// makes one call) adapted to this module's agent loop instead of
// goa-ai's workflow engine.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"strings"

	"go.opentelemetry.io/otel"
	"go.uber.org/zap"

	"github.com/reactiv/flowgraph/internal/hooks"
	"github.com/reactiv/flowgraph/internal/manifest"
	"github.com/reactiv/flowgraph/internal/model/anthropic"
	"github.com/reactiv/flowgraph/internal/schema"
	"github.com/reactiv/flowgraph/internal/telemetry"
	"github.com/reactiv/flowgraph/internal/transform"
)

func main() {
	var (
		endpointID  = flag.String("endpoint", "", "opaque endpoint/connector id this run's manifest is persisted under")
		instruction = flag.String("instruction", "", "natural-language transform instruction")
		schemaPath  = flag.String("schema", "", "path to the output model's JSON Schema file")
		inputs      = flag.String("inputs", "", "comma-separated input file/dir paths copied into the sandbox")
		mode        = flag.String("mode", string(transform.ModeDirect), "direct or code")
		format      = flag.String("format", string(transform.FormatJSONL), "json or jsonl")
		model       = flag.String("model", "claude-sonnet-4-5", "model identifier")
		learn       = flag.Bool("learn", false, "force learned-skill derivation even if the endpoint already learned one")
		workDir     = flag.String("work-dir", "", "pin the sandbox to this directory instead of a scoped temp dir")
	)
	flag.Parse()

	if *instruction == "" || *schemaPath == "" || *endpointID == "" {
		fmt.Fprintln(os.Stderr, "usage: transformer -endpoint <id> -instruction <text> -schema <path> [-inputs a,b,c]")
		os.Exit(2)
	}

	ctx := context.Background()
	logger := telemetry.NewZapLogger(mustZapLogger())
	// A nil meter falls back to the global otel meter provider and the
	// tracer is taken from the global tracer provider; both are no-ops
	// until an SDK is registered by the embedding process;
	// wiring the real adapters here (rather than telemetry.NewNoop*)
	// means tool-call spans and counters (internal/tools/executor.go)
	// start flowing the moment a caller installs an otel SDK, with no
	// further change to this command.
	metrics := telemetry.NewOtelMetrics(nil)
	tracer := telemetry.NewOtelTracer(otel.Tracer("flowgraph"))

	rawSchema, err := os.ReadFile(*schemaPath)
	if err != nil {
		fatal(logger, ctx, "read schema", err)
	}
	outputModel, err := schema.Compile(*endpointID, json.RawMessage(rawSchema))
	if err != nil {
		fatal(logger, ctx, "compile schema", err)
	}

	client := anthropic.NewFromAPIKey(*model)
	orch := transform.NewOrchestrator(client, logger, metrics, tracer)

	cfg := transform.NewConfig(
		transform.WithMode(transform.Mode(*mode)),
		transform.WithOutputFormat(transform.OutputFormat(*format)),
		transform.WithLearn(*learn),
		transform.WithWorkDir(*workDir),
		transform.WithModel(*model),
	)

	store := manifest.NewMemStore()
	shouldLearn, err := manifest.ShouldLearn(ctx, store, *endpointID, *learn)
	if err != nil {
		fatal(logger, ctx, "check learned status", err)
	}
	cfg.Learn = shouldLearn

	sink := hooks.NewChannelSink(128)
	go printEvents(sink)

	var inputPaths []string
	if *inputs != "" {
		inputPaths = strings.Split(*inputs, ",")
	}

	run, err := orch.Run(ctx, inputPaths, *instruction, outputModel, cfg, sink)
	sink.Close()
	if err != nil {
		fatal(logger, ctx, "transform run failed", err)
	}

	if err := store.Save(ctx, *endpointID, run.Manifest, run.Learned); err != nil {
		logger.Warn(ctx, "failed to persist manifest", "endpoint", *endpointID, "err", err)
	}

	fmt.Printf("artifact: %s (%s, %d items)\n", run.Manifest.ArtifactPath, run.Manifest.ArtifactFormat, run.Manifest.ItemCount)
	if run.Learned != nil {
		fmt.Printf("learned skill: %s\n", run.Learned.Slug)
	}
}

func printEvents(sink *hooks.ChannelSink) {
	for evt := range sink.Events() {
		fmt.Fprintf(os.Stderr, "[%s] %+v\n", evt.Type(), evt)
	}
}

func mustZapLogger() *zap.Logger {
	l, err := zap.NewProduction()
	if err != nil {
		return zap.NewNop()
	}
	return l
}

func fatal(logger telemetry.Logger, ctx context.Context, msg string, err error) {
	logger.Error(ctx, msg, "err", err)
	os.Exit(1)
}
