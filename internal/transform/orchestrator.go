package transform

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/reactiv/flowgraph/internal/hooks"
	"github.com/reactiv/flowgraph/internal/model"
	"github.com/reactiv/flowgraph/internal/sandbox"
	"github.com/reactiv/flowgraph/internal/schema"
	"github.com/reactiv/flowgraph/internal/telemetry"
	"github.com/reactiv/flowgraph/internal/tools"
	"github.com/reactiv/flowgraph/internal/validate"
)

// maxParsedItems is the item_count threshold at or below which the
// orchestrator materialises parsed items in memory, per spec.md §4.1's
// Post-loop section.
const maxParsedItems = 100

// Orchestrator drives one end-to-end transformation run, grounded on
// orchestrator.py's DataTransformer.
type Orchestrator struct {
	Client  model.Client
	Logger  telemetry.Logger
	Metrics telemetry.Metrics
	Tracer  telemetry.Tracer
}

// NewOrchestrator constructs an Orchestrator backed by client. A nil
// logger/metrics/tracer default to no-ops.
func NewOrchestrator(client model.Client, logger telemetry.Logger, metrics telemetry.Metrics, tracer telemetry.Tracer) *Orchestrator {
	if logger == nil {
		logger = telemetry.NewNoopLogger()
	}
	if metrics == nil {
		metrics = telemetry.NewNoopMetrics()
	}
	if tracer == nil {
		tracer = telemetry.NewNoopTracer()
	}
	return &Orchestrator{Client: client, Logger: logger, Metrics: metrics, Tracer: tracer}
}

// Run executes one transformation: it materialises the sandbox, drives
// the agent loop, validates the artifact, and on success builds a Run.
// Every step is reported on sink; sink may be hooks.NopSink{} when the
// caller has no interest in progress.
func (o *Orchestrator) Run(ctx context.Context, inputPaths []string, instruction string, outputModel *schema.Description, cfg Config, sink hooks.Sink) (*Run, error) {
	if sink == nil {
		sink = hooks.NopSink{}
	}
	runID := uuid.NewString()[:8]
	start := time.Now()

	workDir := cfg.WorkDir
	cleanup := false
	if workDir == "" {
		dir, err := os.MkdirTemp("", "transform_")
		if err != nil {
			return nil, &FailureError{Kind: FailureSandbox, Message: fmt.Sprintf("create work_dir: %s", err)}
		}
		workDir = dir
		cleanup = true
	} else if err := os.MkdirAll(workDir, 0o755); err != nil {
		return nil, &FailureError{Kind: FailureSandbox, Message: fmt.Sprintf("create work_dir: %s", err)}
	}
	defer func() {
		if cleanup {
			if err := sandbox.Cleanup(workDir); err != nil {
				o.Logger.Warn(ctx, "failed to clean up work directory", "work_dir", workDir, "err", err)
			}
		}
	}()

	if err := copyInputs(workDir, inputPaths); err != nil {
		return nil, &FailureError{Kind: FailureSandbox, Message: err.Error()}
	}

	sb, err := sandbox.New(workDir, outputModel, string(cfg.OutputFormat))
	if err != nil {
		return nil, &FailureError{Kind: FailureSandbox, Message: err.Error()}
	}

	run, runErr := o.runAgent(ctx, sb, instruction, outputModel, cfg, runID, sink)
	if runErr != nil {
		if ctxErr := ctx.Err(); ctxErr != nil && errors.Is(runErr, ctxErr) {
			return nil, runErr
		}
		var fe *FailureError
		if as, ok := runErr.(*FailureError); ok {
			fe = as
		} else {
			fe = &FailureError{Kind: FailureAgentProtocol, Message: runErr.Error()}
		}
		_ = sink.Emit(ctx, hooks.NewErrorEvent(fe.Error(), true))
		return nil, fe
	}

	run.Debug["elapsed_seconds"] = time.Since(start).Seconds()
	_ = sink.Emit(ctx, hooks.NewCompleteEvent(true))
	return run, nil
}

func copyInputs(workDir string, inputPaths []string) error {
	for _, p := range inputPaths {
		info, err := os.Stat(p)
		if err != nil {
			return fmt.Errorf("input path not found: %s", p)
		}
		dest := filepath.Join(workDir, filepath.Base(p))
		if info.IsDir() {
			if err := copyDir(p, dest); err != nil {
				return fmt.Errorf("copying %s: %w", p, err)
			}
			continue
		}
		if err := copyFile(p, dest); err != nil {
			return fmt.Errorf("copying %s: %w", p, err)
		}
	}
	return nil
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()
	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	defer out.Close()
	_, err = io.Copy(out, in)
	return err
}

func copyDir(src, dst string) error {
	return filepath.Walk(src, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(src, path)
		if err != nil {
			return err
		}
		target := filepath.Join(dst, rel)
		if info.IsDir() {
			return os.MkdirAll(target, 0o755)
		}
		return copyFile(path, target)
	})
}

// runAgent drives the tool-calling loop until the agent stops issuing
// tool calls, max_iterations is reached, or the context is canceled.
func (o *Orchestrator) runAgent(ctx context.Context, sb *sandbox.Sandbox, instruction string, outputModel *schema.Description, cfg Config, runID string, sink hooks.Sink) (*Run, error) {
	outputFile := "./output." + string(cfg.OutputFormat)
	systemPrompt := buildSystemPrompt(cfg.Mode, outputFile, string(outputModel.Raw))

	specs := tools.BuiltinSpecs(string(cfg.Mode))
	registry := tools.NewRegistry(specs...)
	toolCtx := tools.NewContext(sb, o.Logger, o.Metrics, o.Tracer)
	if cfg.EnableRLM {
		toolCtx.RunTransformerTimeout = 4 * tools.DefaultRunTransformerTimeout
	}

	debug := map[string]any{
		"iterations":    0,
		"tool_calls":    []map[string]any{},
		"mode":          string(cfg.Mode),
		"output_format": string(cfg.OutputFormat),
	}

	req := model.Request{
		RunID:          runID,
		Model:          cfg.Model,
		SystemPrompt:   systemPrompt,
		Messages:       []model.Message{{Role: model.RoleUser, Parts: []model.Part{model.TextPart{Text: instruction}}}},
		Tools:          registry.Definitions(),
		ToolChoice:     model.ToolChoice{Mode: model.ToolChoiceAuto},
		PermissionMode: model.PermissionAcceptEdits,
	}

	var lastValidation *hooks.ValidationEvent
	toolCallCount := 0

	for iteration := 1; iteration <= cfg.MaxIterations; iteration++ {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}
		_ = sink.Emit(ctx, hooks.NewIterationStartEvent(iteration, cfg.MaxIterations))

		resp, err := o.Client.Complete(ctx, req)
		if err != nil {
			return nil, &FailureError{Kind: FailureAgentProtocol, Message: fmt.Sprintf("model call failed: %s", err)}
		}
		if text := resp.Message.Text(); text != "" {
			_ = sink.Emit(ctx, hooks.NewTextEvent(text))
		}

		req.Messages = append(req.Messages, resp.Message)

		calls := resp.Message.ToolCalls()
		if len(calls) == 0 {
			break
		}

		resultParts := make([]model.Part, 0, len(calls))
		for _, call := range calls {
			toolCallCount++
			var decodedInput any
			_ = json.Unmarshal(call.Input, &decodedInput)
			_ = sink.Emit(ctx, hooks.NewToolCallEvent(call.ID, call.Name, decodedInput))
			debug["tool_calls"] = append(debug["tool_calls"].([]map[string]any), map[string]any{
				"call_number": toolCallCount,
				"tool":        call.Name,
				"input":       decodedInput,
			})

			result, execErr := tools.Execute(ctx, registry, toolCtx, call.Name, call.Input)
			isErr := execErr != nil
			var resultStr string
			if isErr {
				resultStr = execErr.Error()
			} else {
				b, _ := json.Marshal(result)
				resultStr = string(b)
			}
			_ = sink.Emit(ctx, hooks.NewToolResultEvent(call.ID, call.Name, result, isErr))

			if call.Name == "validate_artifact" && !isErr {
				if ve := tryEmitValidationEvent(ctx, sink, resultStr); ve != nil {
					lastValidation = ve
				}
			}

			resultParts = append(resultParts, model.ToolResultPart{ToolUseID: call.ID, Content: resultStr, IsError: isErr})
		}
		req.Messages = append(req.Messages, model.Message{Role: model.RoleUser, Parts: resultParts})

		debug["iterations"] = iteration
	}

	outputPath := sb.OutputPath()
	if _, err := os.Stat(outputPath); err == nil && lastValidation == nil {
		result, err := validate.ValidateArtifact(outputPath, outputModel, string(cfg.OutputFormat), 0)
		if err != nil {
			return nil, &FailureError{Kind: FailureAgentProtocol, Message: err.Error()}
		}
		lastValidation = hooks.NewValidationEvent(result.Valid, result.ItemCount, result.Errors)
		_ = sink.Emit(ctx, lastValidation)
	}

	if lastValidation == nil {
		return nil, &FailureError{Kind: FailureAgentProtocol, Message: fmt.Sprintf("transformation failed: no output produced at %s", outputFile)}
	}
	if !lastValidation.Valid {
		return nil, &FailureError{Kind: FailureValidationFailed, Message: "transformation failed validation", Errors: lastValidation.Errors}
	}

	if cfg.DomainSchema != nil {
		if err := o.runDomainGate(ctx, outputPath, cfg, sink); err != nil {
			return nil, err
		}
	}

	var items []any
	if lastValidation.ItemCount <= maxParsedItems {
		parsed, err := parseOutput(outputPath, string(cfg.OutputFormat))
		if err != nil {
			o.Logger.Warn(ctx, "failed to parse output items", "err", err)
		} else {
			items = parsed
		}
	}

	var learned *LearnedSkill
	if cfg.Learn {
		learned = deriveLearnedSkill(sb, cfg, instruction, outputModel)
	}

	manifest := Manifest{
		ArtifactPath:     outputPath,
		ArtifactFormat:   cfg.OutputFormat,
		ItemCount:        lastValidation.ItemCount,
		SchemaHash:       outputModel.Hash(),
		ValidationPassed: true,
		RunID:            runID,
	}

	return &Run{Manifest: manifest, Items: items, Learned: learned, Debug: debug}, nil
}

// runDomainGate is the final-gate domain validator spec.md §4.1/§7
// names: it decodes the artifact as a (nodes, edges) seed-data document
// and runs every validator in validate.ValidateDomain's table. Any
// SeverityError issue fails the run with FailureDomain; warnings are
// emitted on the validation event (after the errors, each prefixed with
// "warning: ") but never block.
func (o *Orchestrator) runDomainGate(ctx context.Context, outputPath string, cfg Config, sink hooks.Sink) error {
	doc, err := readJSONDocument(outputPath)
	if err != nil {
		return &FailureError{Kind: FailureDomain, Message: fmt.Sprintf("domain validation: reading artifact: %s", err)}
	}
	seedData, err := validate.SeedDataFromJSON(doc)
	if err != nil {
		return &FailureError{Kind: FailureDomain, Message: fmt.Sprintf("domain validation: %s", err)}
	}

	issues := validate.ValidateDomain(seedData, *cfg.DomainSchema, cfg.DomainMaxErrors)
	var errMsgs, warnMsgs []string
	for _, issue := range issues {
		msg := fmt.Sprintf("%s: %s", issue.Path, issue.Message)
		if issue.Severity == validate.SeverityError {
			errMsgs = append(errMsgs, msg)
		} else {
			warnMsgs = append(warnMsgs, "warning: "+msg)
		}
	}

	itemCount := len(seedData.Nodes) + len(seedData.Edges)
	reported := append(append([]string{}, errMsgs...), warnMsgs...)
	_ = sink.Emit(ctx, hooks.NewValidationEvent(len(errMsgs) == 0, itemCount, reported))
	if len(errMsgs) > 0 {
		o.Logger.Warn(ctx, "domain validation failed", "errors", len(errMsgs))
		return &FailureError{Kind: FailureDomain, Message: "domain validation failed", Errors: errMsgs}
	}
	return nil
}

// readJSONDocument decodes the artifact at path as a single JSON value,
// the shape a seed-data document (a top-level object with nodes/edges
// arrays) takes regardless of the configured OutputFormat.
func readJSONDocument(path string) (any, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var doc any
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, err
	}
	return doc, nil
}

func tryEmitValidationEvent(ctx context.Context, sink hooks.Sink, resultJSON string) *hooks.ValidationEvent {
	var parsed struct {
		Valid     bool     `json:"valid"`
		ItemCount int      `json:"item_count"`
		Errors    []string `json:"errors"`
	}
	if err := json.Unmarshal([]byte(resultJSON), &parsed); err != nil {
		return nil
	}
	evt := hooks.NewValidationEvent(parsed.Valid, parsed.ItemCount, parsed.Errors)
	_ = sink.Emit(ctx, evt)
	return evt
}

func parseOutput(path, format string) ([]any, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if format == "json" {
		var v any
		if err := json.Unmarshal(data, &v); err != nil {
			return nil, err
		}
		if arr, ok := v.([]any); ok {
			return arr, nil
		}
		return []any{v}, nil
	}

	var items []any
	scanner := bufio.NewScanner(bytes.NewReader(data))
	scanner.Buffer(make([]byte, 0, 64*1024), 10*1024*1024)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		var item any
		if err := json.Unmarshal([]byte(line), &item); err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return items, nil
}
