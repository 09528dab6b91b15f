package tools

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/reactiv/flowgraph/internal/sandbox"
)

func newTestContext(t *testing.T) *Context {
	t.Helper()
	dir := t.TempDir()
	sb, err := sandbox.New(dir, nil, "jsonl")
	require.NoError(t, err)
	return NewContext(sb, nil, nil, nil)
}

func TestExecWriteFileThenReadFile(t *testing.T) {
	ctx := newTestContext(t)

	writeIn, _ := json.Marshal(writeFileInput{FilePath: "./output.jsonl", Content: "line1\nline2\n"})
	res, err := execWriteFile(ctx, writeIn)
	require.NoError(t, err)
	wr := res.(writeFileResult)
	assert.True(t, wr.Success)

	readIn, _ := json.Marshal(readFileInput{FilePath: "./output.jsonl", MaxLines: 10})
	res, err = execReadFile(ctx, readIn)
	require.NoError(t, err)
	rr := res.(readFileResult)
	assert.True(t, rr.Success)
	assert.Equal(t, "line1\nline2", rr.Content)
}

func TestExecReadFileMissing(t *testing.T) {
	ctx := newTestContext(t)
	in, _ := json.Marshal(readFileInput{FilePath: "./nope.txt"})
	res, err := execReadFile(ctx, in)
	require.NoError(t, err)
	rr := res.(readFileResult)
	assert.False(t, rr.Success)
}

func TestExecWriteFileRejectsPathEscape(t *testing.T) {
	ctx := newTestContext(t)
	in, _ := json.Marshal(writeFileInput{FilePath: "../../etc/passwd", Content: "x"})
	res, err := execWriteFile(ctx, in)
	require.NoError(t, err)
	wr := res.(writeFileResult)
	assert.False(t, wr.Success)
	assert.Contains(t, wr.Error, "escapes work directory")
}

func TestExecListFilesSortsDirectoriesBeforeFiles(t *testing.T) {
	ctx := newTestContext(t)
	require.NoError(t, os.Mkdir(filepath.Join(ctx.Sandbox.WorkDir, "inputs"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(ctx.Sandbox.WorkDir, "inputs", "a.csv"), []byte("x"), 0o644))
	require.NoError(t, os.Mkdir(filepath.Join(ctx.Sandbox.WorkDir, "inputs", "nested"), 0o755))

	in, _ := json.Marshal(listFilesInput{Directory: "./inputs"})
	res, err := execListFiles(ctx, in)
	require.NoError(t, err)
	lr := res.(listFilesResult)
	require.True(t, lr.Success)
	require.Len(t, lr.Files, 2)
	assert.Equal(t, "directory", lr.Files[0].Type)
	assert.Equal(t, "nested", lr.Files[0].Name)
	assert.Equal(t, "file", lr.Files[1].Type)
}

func TestBuiltinSpecsIncludesRunTransformerOnlyInCodeMode(t *testing.T) {
	direct := BuiltinSpecs("direct")
	code := BuiltinSpecs("code")
	assert.Len(t, direct, 4)
	assert.Len(t, code, 5)
	assert.Equal(t, "run_transformer", code[4].Name)
}
