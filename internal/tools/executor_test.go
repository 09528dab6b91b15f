package tools

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/reactiv/flowgraph/internal/sandbox"
	"github.com/reactiv/flowgraph/internal/telemetry"
)

// recordingTracer and recordingMetrics capture what Execute reports so
// tests can assert on instrumentation without a real otel backend.
type recordingTracer struct {
	started  []string
	statuses []codes.Code
	errs     []error
}

func (t *recordingTracer) Start(ctx context.Context, name string, _ ...trace.SpanStartOption) (context.Context, telemetry.Span) {
	t.started = append(t.started, name)
	return ctx, &recordingSpan{t: t}
}
func (t *recordingTracer) Span(ctx context.Context) telemetry.Span { return &recordingSpan{t: t} }

type recordingSpan struct{ t *recordingTracer }

func (s *recordingSpan) End(...trace.SpanEndOption)    {}
func (s *recordingSpan) AddEvent(string, ...any)       {}
func (s *recordingSpan) SetStatus(c codes.Code, _ string) {
	s.t.statuses = append(s.t.statuses, c)
}
func (s *recordingSpan) RecordError(err error, _ ...trace.EventOption) {
	s.t.errs = append(s.t.errs, err)
}

type recordingMetrics struct {
	counters []string
	timers   []string
}

func (m *recordingMetrics) IncCounter(name string, _ float64, _ ...string)        { m.counters = append(m.counters, name) }
func (m *recordingMetrics) RecordTimer(name string, _ time.Duration, _ ...string) { m.timers = append(m.timers, name) }
func (m *recordingMetrics) RecordGauge(string, float64, ...string)               {}

func TestExecuteInstrumentsSuccessfulCall(t *testing.T) {
	dir := t.TempDir()
	sb, err := sandbox.New(dir, nil, "jsonl")
	require.NoError(t, err)

	tracer := &recordingTracer{}
	metrics := &recordingMetrics{}
	toolCtx := NewContext(sb, nil, metrics, tracer)
	reg := NewRegistry(BuiltinSpecs("direct")...)

	input, _ := json.Marshal(listFilesInput{Directory: "./inputs"})
	_, err = Execute(context.Background(), reg, toolCtx, "list_files", input)
	require.NoError(t, err)

	assert.Equal(t, []string{"tool.list_files"}, tracer.started)
	assert.Equal(t, []codes.Code{codes.Ok}, tracer.statuses)
	assert.Empty(t, tracer.errs)
	assert.Contains(t, metrics.counters, "tool.execute.count")
	assert.Contains(t, metrics.timers, "tool.execute.duration")
}

func TestExecuteRecordsErrorOnUnknownTool(t *testing.T) {
	dir := t.TempDir()
	sb, err := sandbox.New(dir, nil, "jsonl")
	require.NoError(t, err)

	tracer := &recordingTracer{}
	metrics := &recordingMetrics{}
	toolCtx := NewContext(sb, nil, metrics, tracer)
	reg := NewRegistry(BuiltinSpecs("direct")...)

	_, err = Execute(context.Background(), reg, toolCtx, "nonexistent", json.RawMessage(`{}`))
	require.Error(t, err)

	assert.Equal(t, []codes.Code{codes.Error}, tracer.statuses)
	require.Len(t, tracer.errs, 1)
}
