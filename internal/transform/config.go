// Package transform implements the Transformer Orchestrator: it drives
// an external model through a bounded, tool-calling loop inside a
// sandbox to produce a schema-validated artifact, grounded on
// orchestrator.py's DataTransformer.transform/_run_agent.
package transform

import "github.com/reactiv/flowgraph/internal/validate"

// Mode selects how the agent produces the output artifact.
type Mode string

const (
	// ModeDirect has the agent write the output artifact itself.
	ModeDirect Mode = "direct"
	// ModeCode has the agent write a script and invoke run_transformer.
	ModeCode Mode = "code"
)

// OutputFormat selects the artifact's on-disk shape.
type OutputFormat string

const (
	FormatJSON  OutputFormat = "json"
	FormatJSONL OutputFormat = "jsonl"
)

const (
	// DefaultMaxIterations bounds agent turns absent an explicit override.
	DefaultMaxIterations = 20
)

// Config is one run's immutable configuration (spec.md §3's
// TransformConfig), built via functional options so callers only name
// the fields they want to override.
type Config struct {
	Mode          Mode
	OutputFormat  OutputFormat
	MaxIterations int
	Learn         bool
	WorkDir       string // empty: orchestrator creates and destroys a scoped directory
	EnableRLM     bool
	Model         string

	// DomainSchema, when non-nil, is the optional domain-validator
	// spec.md §4.1 names as an Orchestrator input: the final gate
	// decodes the parsed artifact as seed data and runs
	// validate.ValidateDomain against it (see §4.2, §7 Domain).
	DomainSchema    *validate.DomainSchema
	DomainMaxErrors int
}

// Option mutates a Config under construction.
type Option func(*Config)

// NewConfig builds a Config from the given options, defaulting Mode to
// direct, OutputFormat to jsonl, and MaxIterations to
// DefaultMaxIterations, mirroring TransformConfig's Pydantic field
// defaults.
func NewConfig(opts ...Option) Config {
	c := Config{
		Mode:          ModeDirect,
		OutputFormat:  FormatJSONL,
		MaxIterations: DefaultMaxIterations,
	}
	for _, o := range opts {
		if o != nil {
			o(&c)
		}
	}
	return c
}

// WithMode sets the transform mode.
func WithMode(m Mode) Option { return func(c *Config) { c.Mode = m } }

// WithOutputFormat sets the artifact's on-disk shape.
func WithOutputFormat(f OutputFormat) Option { return func(c *Config) { c.OutputFormat = f } }

// WithMaxIterations bounds the agent loop's turn count.
func WithMaxIterations(n int) Option {
	return func(c *Config) {
		if n >= 1 {
			c.MaxIterations = n
		}
	}
}

// WithLearn enables learned-skill derivation on a successful run.
func WithLearn(learn bool) Option { return func(c *Config) { c.Learn = learn } }

// WithWorkDir pins the sandbox to a caller-supplied directory instead of
// a scoped temporary one. The orchestrator never deletes a caller-owned
// work_dir.
func WithWorkDir(dir string) Option { return func(c *Config) { c.WorkDir = dir } }

// WithRLM widens the run_transformer timeout to four times
// tools.DefaultRunTransformerTimeout for large-input runs. That is its
// only effect: no persistent scripting kernel is started and no
// scratch-file handling is added.
func WithRLM(enable bool) Option { return func(c *Config) { c.EnableRLM = enable } }

// WithModel pins the model identifier passed to model.Request.
func WithModel(name string) Option { return func(c *Config) { c.Model = name } }

// WithDomainSchema enables the final-gate domain validator against the
// given seed-data type universe. maxErrors <= 0 falls back to
// validate.ValidateDomain's own default.
func WithDomainSchema(schema *validate.DomainSchema, maxErrors int) Option {
	return func(c *Config) {
		c.DomainSchema = schema
		c.DomainMaxErrors = maxErrors
	}
}
