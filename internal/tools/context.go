package tools

import (
	"time"

	"golang.org/x/time/rate"

	"github.com/reactiv/flowgraph/internal/sandbox"
	"github.com/reactiv/flowgraph/internal/telemetry"
)

// DefaultRunTransformerTimeout bounds a single run_transformer subprocess
// invocation, matching tools.py's execute_run_transformer default.
const DefaultRunTransformerTimeout = 60 * time.Second

// DefaultRunTransformerRatePerSecond caps how often run_transformer may
// spawn a subprocess, preventing a misbehaving loop (e.g. the model
// retrying a crashing script every turn) from exhausting host CPU.
const DefaultRunTransformerRatePerSecond = 2

// Context carries everything a tool executor needs: the sandbox for path
// resolution and output validation, a limiter bounding run_transformer's
// subprocess fan-out, and the telemetry collaborators Execute (see
// executor.go) instruments every call with.
type Context struct {
	Sandbox               *sandbox.Sandbox
	RunTransformerTimeout time.Duration
	Limiter               *rate.Limiter
	Logger                telemetry.Logger
	Metrics               telemetry.Metrics
	Tracer                telemetry.Tracer
}

// NewContext builds a Context with the default subprocess timeout and
// rate limit. A nil logger/metrics/tracer defaults to a no-op.
func NewContext(sb *sandbox.Sandbox, logger telemetry.Logger, metrics telemetry.Metrics, tracer telemetry.Tracer) *Context {
	if logger == nil {
		logger = telemetry.NewNoopLogger()
	}
	if metrics == nil {
		metrics = telemetry.NewNoopMetrics()
	}
	if tracer == nil {
		tracer = telemetry.NewNoopTracer()
	}
	return &Context{
		Sandbox:               sb,
		RunTransformerTimeout: DefaultRunTransformerTimeout,
		Limiter:               rate.NewLimiter(rate.Limit(DefaultRunTransformerRatePerSecond), 1),
		Logger:                logger,
		Metrics:               metrics,
		Tracer:                tracer,
	}
}
