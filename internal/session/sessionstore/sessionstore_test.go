package sessionstore

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/reactiv/flowgraph/internal/session"
)

// fakeClient is an in-memory double for Client, avoiding a real Redis
// server in tests.
type fakeClient struct {
	data map[string]string
}

func newFakeClient() *fakeClient { return &fakeClient{data: make(map[string]string)} }

func (f *fakeClient) Set(_ context.Context, key, value string, _ time.Duration) error {
	f.data[key] = value
	return nil
}

func (f *fakeClient) Get(_ context.Context, key string) (string, error) {
	v, ok := f.data[key]
	if !ok {
		return "", errNotFoundLocal
	}
	return v, nil
}

func (f *fakeClient) Del(_ context.Context, key string) error {
	delete(f.data, key)
	return nil
}

func (f *fakeClient) Ping(context.Context) error { return nil }

var errNotFoundLocal = assertErr("redis: nil")

type assertErr string

func (e assertErr) Error() string { return string(e) }

func TestNewStoreRejectsNilClient(t *testing.T) {
	_, err := NewStore(nil, Options{})
	assert.Error(t, err)
}

func TestStoreSaveLoadDeleteRoundTrips(t *testing.T) {
	ctx := context.Background()
	store, err := NewStore(newFakeClient(), Options{Prefix: "test:"})
	require.NoError(t, err)

	info := session.Info{SessionID: "s1", WorkflowID: "wf-1", MessageCount: 2, IsActive: true}
	require.NoError(t, store.Save(ctx, info))

	got, err := store.Load(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, info.WorkflowID, got.WorkflowID)
	assert.Equal(t, info.MessageCount, got.MessageCount)

	require.NoError(t, store.Delete(ctx, "s1"))
	_, err = store.Load(ctx, "s1")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestStoreLoadMissingReturnsErrNotFound(t *testing.T) {
	store, err := NewStore(newFakeClient(), Options{})
	require.NoError(t, err)

	_, err = store.Load(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}
