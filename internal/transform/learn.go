package transform

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/reactiv/flowgraph/internal/sandbox"
	"github.com/reactiv/flowgraph/internal/schema"
)

// skillFrontmatter is the YAML header of a learned skill's SKILL.md
// memo, following the frontmatter convention SPEC_FULL.md's DOMAIN
// STACK table names (Claude Code skill authoring: a YAML block
// followed by markdown prose).
type skillFrontmatter struct {
	Name       string `yaml:"name"`
	SchemaHash string `yaml:"schema_hash"`
	Mode       string `yaml:"mode"`
}

// deriveLearnedSkill builds the memo (and, in code mode, the cached
// script body) for a successful run, grounded on spec.md §4.5: a
// markdown memo destined for ./.claude/skills/<slug>/SKILL.md, plus
// the transform.py contents when the agent produced one.
func deriveLearnedSkill(sb *sandbox.Sandbox, cfg Config, instruction string, outputModel *schema.Description) *LearnedSkill {
	slug := slugify(outputModel.Name)
	hash := outputModel.Hash()

	front := skillFrontmatter{Name: slug, SchemaHash: hash, Mode: string(cfg.Mode)}
	header, err := yaml.Marshal(front)
	if err != nil {
		header = []byte{}
	}

	var memo strings.Builder
	memo.WriteString("---\n")
	memo.Write(header)
	memo.WriteString("---\n\n")
	fmt.Fprintf(&memo, "# Transformation skill: %s\n\n", slug)
	memo.WriteString("This skill was learned from a prior successful run with the following instruction:\n\n")
	fmt.Fprintf(&memo, "> %s\n\n", strings.TrimSpace(instruction))
	memo.WriteString("When the output schema matches the recorded schema_hash above, apply the same " +
		"transformation approach directly. On a schema_hash mismatch, adapt the cached approach and " +
		"re-validate rather than discarding it.\n")

	skill := &LearnedSkill{Slug: slug, Memo: memo.String(), SchemaHash: hash}

	if cfg.Mode == ModeCode {
		scriptPath := filepath.Join(sb.WorkDir, "transform.py")
		if body, err := os.ReadFile(scriptPath); err == nil {
			skill.ScriptBody = string(body)
		}
	}
	return skill
}

func slugify(name string) string {
	if name == "" {
		return "unnamed-skill"
	}
	var b strings.Builder
	lastDash := false
	for _, r := range strings.ToLower(name) {
		switch {
		case r >= 'a' && r <= 'z' || r >= '0' && r <= '9':
			b.WriteRune(r)
			lastDash = false
		default:
			if !lastDash {
				b.WriteByte('-')
				lastDash = true
			}
		}
	}
	return strings.Trim(b.String(), "-")
}
