// Package tools implements the fixed tool surface exposed to the model
// during a transform run: file exploration, artifact writing, structural
// validation, and (code mode only) sandboxed script execution. Each tool
// is grounded on tools.py's TOOL_* definitions and execute_* functions.
package tools

import (
	"encoding/json"

	"github.com/reactiv/flowgraph/internal/model"
)

// Spec is one tool's static definition plus its executor.
type Spec struct {
	Name        string
	Description string
	InputSchema json.RawMessage
	Exec        ExecFunc
}

// ExecFunc runs a tool call's already-decoded input and returns a value
// that will be JSON-encoded into the ToolResultPart content.
type ExecFunc func(ctx *Context, input json.RawMessage) (any, error)

// Definition converts a Spec to the provider-agnostic tool definition the
// model package's Request.Tools expects.
func (s Spec) Definition() model.ToolDefinition {
	return model.ToolDefinition{
		Name:        s.Name,
		Description: s.Description,
		InputSchema: s.InputSchema,
	}
}

func rawSchema(schema string) json.RawMessage {
	return json.RawMessage(schema)
}

var (
	readFileSchema = rawSchema(`{
		"type": "object",
		"properties": {
			"file_path": {"type": "string", "description": "Path to the file to read (e.g., './inputs/data.csv')"},
			"max_lines": {"type": "integer", "description": "Maximum number of lines to read (default: 100)", "default": 100}
		},
		"required": ["file_path"]
	}`)

	writeFileSchema = rawSchema(`{
		"type": "object",
		"properties": {
			"file_path": {"type": "string", "description": "Path to the file to write (e.g., './output.jsonl')"},
			"content": {"type": "string", "description": "Content to write to the file"}
		},
		"required": ["file_path", "content"]
	}`)

	listFilesSchema = rawSchema(`{
		"type": "object",
		"properties": {
			"directory": {"type": "string", "description": "Directory path to list (default: './inputs')", "default": "./inputs"}
		},
		"required": []
	}`)

	validateArtifactSchema = rawSchema(`{
		"type": "object",
		"properties": {
			"file_path": {"type": "string", "description": "Path to the output file to validate (e.g., './output.jsonl')"}
		},
		"required": ["file_path"]
	}`)

	runTransformerSchema = rawSchema(`{
		"type": "object",
		"properties": {
			"script_path": {"type": "string", "description": "Path to the transformer script (default: './transform.py')", "default": "./transform.py"}
		},
		"required": []
	}`)
)

// BuiltinSpecs returns the ReadFile/WriteFile/ListFiles/ValidateArtifact
// specs common to both transform modes, and, when mode == "code", the
// additional RunTransformer spec. Mirrors tools.py's get_tools_for_mode.
func BuiltinSpecs(mode string) []Spec {
	specs := []Spec{
		{
			Name: "read_file",
			Description: "Read the contents of a file. Use this to explore input files and understand " +
				"their structure before transforming them.",
			InputSchema: readFileSchema,
			Exec:        execReadFile,
		},
		{
			Name: "write_file",
			Description: "Write content to a file. Use this to write your transformed output " +
				"or transformer code.",
			InputSchema: writeFileSchema,
			Exec:        execWriteFile,
		},
		{
			Name:        "list_files",
			Description: "List files in a directory. Use this to see what input files are available.",
			InputSchema: listFilesSchema,
			Exec:        execListFiles,
		},
		{
			Name: "validate_artifact",
			Description: "Validate the output file against the required schema. " +
				"Call this after writing output to check if it matches the expected structure. " +
				"Returns validation errors if any, which you should fix and retry.",
			InputSchema: validateArtifactSchema,
			Exec:        execValidateArtifact,
		},
	}
	if mode == "code" {
		specs = append(specs, Spec{
			Name: "run_transformer",
			Description: "Execute the transformer script you wrote to transform the input files. " +
				"The script should read from ./inputs/ and write to the output file. " +
				"Returns the script's stdout/stderr and exit code.",
			InputSchema: runTransformerSchema,
			Exec:        execRunTransformer,
		})
	}
	return specs
}
