package mongostore

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/reactiv/flowgraph/internal/manifest"
	"github.com/reactiv/flowgraph/internal/manifest/mongostore/mongoclient"
	"github.com/reactiv/flowgraph/internal/transform"
)

// fakeClient is a hand-rolled mongoclient.Client double: Store only
// delegates, so these tests exercise the delegation, not a real driver.
type fakeClient struct {
	saved     map[string]mongoclient.Document
	pingErr   error
	loadErr   error
	saveErr   error
}

func newFakeClient() *fakeClient {
	return &fakeClient{saved: make(map[string]mongoclient.Document)}
}

func (f *fakeClient) Ping(context.Context) error { return f.pingErr }

func (f *fakeClient) Save(_ context.Context, endpointID string, doc mongoclient.Document) error {
	if f.saveErr != nil {
		return f.saveErr
	}
	doc.EndpointID = endpointID
	f.saved[endpointID] = doc
	return nil
}

func (f *fakeClient) Load(_ context.Context, endpointID string) (mongoclient.Document, error) {
	if f.loadErr != nil {
		return mongoclient.Document{}, f.loadErr
	}
	doc, ok := f.saved[endpointID]
	if !ok {
		return mongoclient.Document{}, mongoclient.ErrNotFound
	}
	return doc, nil
}

func (f *fakeClient) IsLearned(ctx context.Context, endpointID string) (bool, error) {
	doc, err := f.Load(ctx, endpointID)
	if err != nil {
		if err == mongoclient.ErrNotFound {
			return false, nil
		}
		return false, err
	}
	return doc.HasLearned, nil
}

func TestNewStoreRejectsNilClient(t *testing.T) {
	_, err := NewStore(nil)
	assert.Error(t, err)
}

func TestStoreSaveLoadDelegatesToClient(t *testing.T) {
	ctx := context.Background()
	client := newFakeClient()
	store, err := NewStore(client)
	require.NoError(t, err)

	m := transform.Manifest{ItemCount: 5, SchemaHash: "h1", ArtifactFormat: transform.FormatJSONL}
	skill := &transform.LearnedSkill{Slug: "ep-1", Memo: "# memo", ScriptBody: "print()"}
	require.NoError(t, store.Save(ctx, "ep-1", m, skill))

	rec, err := store.Load(ctx, "ep-1")
	require.NoError(t, err)
	assert.Equal(t, "ep-1", rec.EndpointID)
	assert.Equal(t, 5, rec.Manifest.ItemCount)
	require.NotNil(t, rec.Learned)
	assert.Equal(t, "# memo", rec.Learned.Memo)

	learned, err := store.IsLearned(ctx, "ep-1")
	require.NoError(t, err)
	assert.True(t, learned)
}

func TestStoreLoadMissingReturnsManifestErrNotFound(t *testing.T) {
	store, err := NewStore(newFakeClient())
	require.NoError(t, err)

	_, err = store.Load(context.Background(), "missing")
	assert.ErrorIs(t, err, manifest.ErrNotFound)
}
