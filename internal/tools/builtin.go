package tools

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/reactiv/flowgraph/internal/validate"
)

type readFileInput struct {
	FilePath string `json:"file_path"`
	MaxLines int    `json:"max_lines"`
}

type readFileResult struct {
	Success   bool   `json:"success"`
	Error     string `json:"error,omitempty"`
	Content   string `json:"content,omitempty"`
	LineCount int    `json:"line_count,omitempty"`
}

// execReadFile mirrors tools.py's execute_read_file: reads up to
// max_lines (default 100) lines, appending a truncation marker rather
// than an error when the file is longer.
func execReadFile(ctx *Context, raw json.RawMessage) (any, error) {
	var in readFileInput
	if err := json.Unmarshal(raw, &in); err != nil {
		return nil, err
	}
	if in.MaxLines <= 0 {
		in.MaxLines = 100
	}

	resolved, err := ctx.Sandbox.Resolve(in.FilePath)
	if err != nil {
		return readFileResult{Success: false, Error: err.Error()}, nil
	}
	if _, statErr := os.Stat(resolved); statErr != nil {
		return readFileResult{Success: false, Error: fmt.Sprintf("File not found: %s", in.FilePath)}, nil
	}

	f, err := os.Open(resolved)
	if err != nil {
		return readFileResult{Success: false, Error: fmt.Sprintf("Failed to read file: %s", err)}, nil
	}
	defer f.Close()

	var lines []string
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 10*1024*1024)
	count := 0
	for scanner.Scan() {
		if count >= in.MaxLines {
			lines = append(lines, fmt.Sprintf("... (truncated after %d lines)", in.MaxLines))
			break
		}
		lines = append(lines, scanner.Text())
		count++
	}
	if err := scanner.Err(); err != nil {
		return readFileResult{Success: false, Error: fmt.Sprintf("Failed to read file: %s", err)}, nil
	}

	content := ""
	for i, l := range lines {
		if i > 0 {
			content += "\n"
		}
		content += l
	}
	return readFileResult{Success: true, Content: content, LineCount: len(lines)}, nil
}

type writeFileInput struct {
	FilePath string `json:"file_path"`
	Content  string `json:"content"`
}

type writeFileResult struct {
	Success      bool   `json:"success"`
	Error        string `json:"error,omitempty"`
	BytesWritten int    `json:"bytes_written,omitempty"`
	Path         string `json:"path,omitempty"`
}

// execWriteFile mirrors tools.py's execute_write_file, creating parent
// directories as needed.
func execWriteFile(ctx *Context, raw json.RawMessage) (any, error) {
	var in writeFileInput
	if err := json.Unmarshal(raw, &in); err != nil {
		return nil, err
	}

	resolved, err := ctx.Sandbox.Resolve(in.FilePath)
	if err != nil {
		return writeFileResult{Success: false, Error: err.Error()}, nil
	}

	if err := os.MkdirAll(filepath.Dir(resolved), 0o755); err != nil {
		return writeFileResult{Success: false, Error: fmt.Sprintf("Failed to write file: %s", err)}, nil
	}
	if err := os.WriteFile(resolved, []byte(in.Content), 0o644); err != nil {
		return writeFileResult{Success: false, Error: fmt.Sprintf("Failed to write file: %s", err)}, nil
	}

	return writeFileResult{Success: true, BytesWritten: len(in.Content), Path: resolved}, nil
}

type listFilesInput struct {
	Directory string `json:"directory"`
}

type fileEntry struct {
	Name string `json:"name"`
	Type string `json:"type"`
	Size *int64 `json:"size"`
}

type listFilesResult struct {
	Success bool        `json:"success"`
	Error   string      `json:"error,omitempty"`
	Files   []fileEntry `json:"files,omitempty"`
}

// execListFiles mirrors tools.py's execute_list_files, sorting entries
// by (type, name): all directories come first, then all files, each
// group ordered by name.
func execListFiles(ctx *Context, raw json.RawMessage) (any, error) {
	var in listFilesInput
	if err := json.Unmarshal(raw, &in); err != nil {
		return nil, err
	}
	if in.Directory == "" {
		in.Directory = "./inputs"
	}

	resolved, err := ctx.Sandbox.Resolve(in.Directory)
	if err != nil {
		return listFilesResult{Success: false, Error: err.Error()}, nil
	}
	info, statErr := os.Stat(resolved)
	if statErr != nil {
		return listFilesResult{Success: false, Error: fmt.Sprintf("Directory not found: %s", in.Directory)}, nil
	}
	if !info.IsDir() {
		return listFilesResult{Success: false, Error: fmt.Sprintf("Not a directory: %s", in.Directory)}, nil
	}

	entries, err := os.ReadDir(resolved)
	if err != nil {
		return listFilesResult{Success: false, Error: fmt.Sprintf("Failed to list directory: %s", err)}, nil
	}

	files := make([]fileEntry, 0, len(entries))
	for _, e := range entries {
		typ := "file"
		var size *int64
		if e.IsDir() {
			typ = "directory"
		} else if fi, err := e.Info(); err == nil {
			s := fi.Size()
			size = &s
		}
		files = append(files, fileEntry{Name: e.Name(), Type: typ, Size: size})
	}
	sort.Slice(files, func(i, j int) bool {
		if files[i].Type != files[j].Type {
			return files[i].Type < files[j].Type
		}
		return files[i].Name < files[j].Name
	})

	return listFilesResult{Success: true, Files: files}, nil
}

type validateArtifactInput struct {
	FilePath string `json:"file_path"`
}

type validateArtifactResult struct {
	Valid     bool     `json:"valid"`
	Error     string   `json:"error,omitempty"`
	ItemCount int      `json:"item_count,omitempty"`
	Errors    []string `json:"errors,omitempty"`
	Sample    []any    `json:"sample,omitempty"`
}

// execValidateArtifact mirrors tools.py's execute_validate_artifact,
// delegating the actual structural check to internal/validate.
func execValidateArtifact(ctx *Context, raw json.RawMessage) (any, error) {
	var in validateArtifactInput
	if err := json.Unmarshal(raw, &in); err != nil {
		return nil, err
	}

	resolved, err := ctx.Sandbox.Resolve(in.FilePath)
	if err != nil {
		return validateArtifactResult{Valid: false, Error: err.Error()}, nil
	}

	result, err := validate.ValidateArtifact(resolved, ctx.Sandbox.OutputModel, ctx.Sandbox.OutputFormat, 0)
	if err != nil {
		return validateArtifactResult{Valid: false, Error: err.Error()}, nil
	}

	return validateArtifactResult{
		Valid:     result.Valid,
		ItemCount: result.ItemCount,
		Errors:    result.Errors,
		Sample:    result.Sample,
	}, nil
}
