package tools

import (
	"encoding/json"
	"fmt"

	"github.com/reactiv/flowgraph/internal/model"
)

// Registry maps tool names to their Spec, the set a single transform run
// exposes to the model.
type Registry struct {
	specs map[string]Spec
	order []string
}

// NewRegistry builds a Registry from the given specs, preserving their
// order for Definitions().
func NewRegistry(specs ...Spec) *Registry {
	r := &Registry{specs: make(map[string]Spec, len(specs)), order: make([]string, 0, len(specs))}
	for _, s := range specs {
		r.specs[s.Name] = s
		r.order = append(r.order, s.Name)
	}
	return r
}

// Definitions returns the provider-agnostic tool definitions for every
// registered spec, in registration order.
func (r *Registry) Definitions() []model.ToolDefinition {
	out := make([]model.ToolDefinition, 0, len(r.order))
	for _, name := range r.order {
		out = append(out, r.specs[name].Definition())
	}
	return out
}

// dispatch runs the named tool's executor with the given raw JSON input,
// mirroring tools.py's execute_tool dispatcher. Callers normally reach
// this through Execute (executor.go), which adds tracing and metrics;
// dispatch itself stays a plain lookup-and-call.
func (r *Registry) dispatch(ctx *Context, name string, input json.RawMessage) (any, error) {
	spec, ok := r.specs[name]
	if !ok {
		return nil, fmt.Errorf("unknown tool: %s", name)
	}
	return spec.Exec(ctx, input)
}
