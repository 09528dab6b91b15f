package hooks

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChannelSinkDeliversInOrder(t *testing.T) {
	sink := NewChannelSink(4)
	ctx := context.Background()

	require.NoError(t, sink.Emit(ctx, NewTextEvent("a")))
	require.NoError(t, sink.Emit(ctx, NewTextEvent("b")))
	sink.Close()

	var got []string
	for evt := range sink.Events() {
		got = append(got, evt.(*TextEvent).Text)
	}
	assert.Equal(t, []string{"a", "b"}, got)
}

func TestChannelSinkEmitRespectsCanceledContext(t *testing.T) {
	sink := NewChannelSink(0)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := sink.Emit(ctx, NewTextEvent("never delivered"))
	assert.ErrorIs(t, err, context.Canceled)
}

func TestNopSinkNeverBlocks(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	assert.NoError(t, NopSink{}.Emit(ctx, NewTextEvent("x")))
}
