package toolerrors_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/reactiv/flowgraph/internal/toolerrors"
)

func TestChainAndUnwrap(t *testing.T) {
	root := toolerrors.New("file not found")
	wrapped := toolerrors.NewWithCause("read_file failed", root)

	require.ErrorIs(t, wrapped, root)
	require.Equal(t, "read_file failed: file not found", wrapped.Error())
}

func TestFromErrorPassesThroughToolError(t *testing.T) {
	te := toolerrors.New("escape")
	require.Same(t, te, toolerrors.FromError(te))
}

func TestFromErrorWrapsPlainError(t *testing.T) {
	plain := errors.New("boom")
	got := toolerrors.FromError(plain)
	require.Equal(t, "boom", got.Error())
}

func TestErrorfFormats(t *testing.T) {
	got := toolerrors.Errorf("path escapes work directory: %s", "../etc/passwd")
	require.Equal(t, "path escapes work directory: ../etc/passwd", got.Error())
}
