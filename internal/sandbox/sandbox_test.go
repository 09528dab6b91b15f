package sandbox_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/reactiv/flowgraph/internal/sandbox"
)

func TestResolveAllowsPathsInsideWorkDir(t *testing.T) {
	sb, err := sandbox.New(t.TempDir(), nil, "jsonl")
	require.NoError(t, err)

	resolved, err := sb.Resolve("./inputs/data.csv")
	require.NoError(t, err)
	require.Equal(t, sb.WorkDir+"/inputs/data.csv", resolved)
}

func TestResolveRejectsEscapingPaths(t *testing.T) {
	sb, err := sandbox.New(t.TempDir(), nil, "jsonl")
	require.NoError(t, err)

	_, err = sb.Resolve("../../etc/passwd")
	require.Error(t, err)
}

func TestResolveRejectsSiblingDirectoryWithSharedPrefix(t *testing.T) {
	sb, err := sandbox.New(t.TempDir(), nil, "jsonl")
	require.NoError(t, err)

	_, err = sb.Resolve(sb.WorkDir + "-evil/data.csv")
	require.Error(t, err)
}

func TestOutputPathUsesConfiguredFormat(t *testing.T) {
	sb, err := sandbox.New(t.TempDir(), nil, "json")
	require.NoError(t, err)
	require.Equal(t, sb.WorkDir+"/output.json", sb.OutputPath())
}
