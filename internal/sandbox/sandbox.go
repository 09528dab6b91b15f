// Package sandbox implements the per-run work directory contract named
// in spec.md §3/§4.1: every tool path is resolved relative to work_dir,
// and any resolved path that escapes it is rejected.
package sandbox

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/reactiv/flowgraph/internal/schema"
)

// Sandbox is the ToolContext of spec.md §3: a sandbox root, the output
// model each artifact item must match, and the expected output format.
// It is exclusively owned by one orchestrator run for its duration.
type Sandbox struct {
	WorkDir      string
	OutputModel  *schema.Description
	OutputFormat string // "json" or "jsonl"
}

// New creates a Sandbox rooted at an absolute, symlink-resolved work_dir.
func New(workDir string, outputModel *schema.Description, outputFormat string) (*Sandbox, error) {
	abs, err := filepath.Abs(workDir)
	if err != nil {
		return nil, fmt.Errorf("sandbox: resolving work_dir: %w", err)
	}
	real, err := filepath.EvalSymlinks(abs)
	if err != nil {
		// work_dir may not exist yet; fall back to the absolute path and
		// let Resolve still enforce the prefix check against it.
		real = abs
	}
	return &Sandbox{WorkDir: real, OutputModel: outputModel, OutputFormat: outputFormat}, nil
}

// Resolve resolves path relative to WorkDir, rejecting any path that
// escapes it. Mirrors tools.py's ToolContext.resolve_path exactly: a
// leading "./" is stripped, the result is made absolute, and the
// resolved path must be WorkDir itself or lie beneath it.
func (s *Sandbox) Resolve(path string) (string, error) {
	trimmed := strings.TrimPrefix(path, "./")

	candidate := trimmed
	if !filepath.IsAbs(candidate) {
		candidate = filepath.Join(s.WorkDir, candidate)
	}
	resolved := filepath.Clean(candidate)

	if !isWithin(s.WorkDir, resolved) {
		return "", fmt.Errorf("path escapes work directory: %s", path)
	}
	return resolved, nil
}

// isWithin reports whether candidate is root itself or lives strictly
// beneath it, using filepath.Rel to avoid naive string-prefix bugs
// (e.g. /work vs /work-evil both starting with "/work").
func isWithin(root, candidate string) bool {
	rel, err := filepath.Rel(root, candidate)
	if err != nil {
		return false
	}
	if rel == "." {
		return true
	}
	return !strings.HasPrefix(rel, "..") && rel != ".."
}

// OutputPath returns the stable artifact path named in spec.md §6:
// ./output.{format}.
func (s *Sandbox) OutputPath() string {
	return filepath.Join(s.WorkDir, "output."+s.OutputFormat)
}

// Cleanup removes the sandbox directory tree. Callers created with a
// caller-supplied work_dir (TransformConfig.work_dir) should not call
// this; it is only for sandboxes this package created via MkdirTemp.
func Cleanup(workDir string) error {
	return os.RemoveAll(workDir)
}
