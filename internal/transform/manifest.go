package transform

// Manifest is the immutable summary of a successful run (spec.md §3's
// TransformManifest).
type Manifest struct {
	ArtifactPath     string
	ArtifactFormat   OutputFormat
	ItemCount        int
	SchemaHash       string
	ValidationPassed bool
	Sample           []any
	RunID            string
}

// LearnedSkill is the natural-language memo plus optional script body
// produced on a successful run when Config.Learn is set.
type LearnedSkill struct {
	Slug        string
	Memo        string
	ScriptBody  string // empty unless Mode == ModeCode
	SchemaHash  string
}

// Run is the orchestrator's result object (spec.md §3's TransformRun):
// the manifest, optionally-parsed items, an optional learned skill, and
// a free-form debug map mirroring DataTransformer's debug dict.
type Run struct {
	Manifest Manifest
	Items    []any // only populated when Manifest.ItemCount <= maxParsedItems
	Learned  *LearnedSkill
	Debug    map[string]any
}
