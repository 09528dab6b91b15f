package manifest

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/reactiv/flowgraph/internal/transform"
)

func TestMemStoreSaveLoadRoundTrips(t *testing.T) {
	ctx := context.Background()
	store := NewMemStore()

	_, err := store.Load(ctx, "ep-1")
	assert.ErrorIs(t, err, ErrNotFound)

	m := transform.Manifest{ItemCount: 3, SchemaHash: "abc", ValidationPassed: true}
	require.NoError(t, store.Save(ctx, "ep-1", m, nil))

	rec, err := store.Load(ctx, "ep-1")
	require.NoError(t, err)
	assert.Equal(t, "ep-1", rec.EndpointID)
	assert.Equal(t, 3, rec.Manifest.ItemCount)
	assert.Nil(t, rec.Learned)
}

func TestMemStoreSavePreservesLearnedSkillAcrossManifestOnlyUpdates(t *testing.T) {
	ctx := context.Background()
	store := NewMemStore()

	skill := &transform.LearnedSkill{Slug: "ep-1", Memo: "# memo"}
	require.NoError(t, store.Save(ctx, "ep-1", transform.Manifest{ItemCount: 1}, skill))

	// A later run that didn't learn must not clobber the prior skill.
	require.NoError(t, store.Save(ctx, "ep-1", transform.Manifest{ItemCount: 2}, nil))

	rec, err := store.Load(ctx, "ep-1")
	require.NoError(t, err)
	assert.Equal(t, 2, rec.Manifest.ItemCount)
	require.NotNil(t, rec.Learned)
	assert.Equal(t, "# memo", rec.Learned.Memo)
}

func TestMemStoreIsLearned(t *testing.T) {
	ctx := context.Background()
	store := NewMemStore()

	learned, err := store.IsLearned(ctx, "ep-1")
	require.NoError(t, err)
	assert.False(t, learned)

	require.NoError(t, store.Save(ctx, "ep-1", transform.Manifest{}, &transform.LearnedSkill{Slug: "ep-1"}))

	learned, err = store.IsLearned(ctx, "ep-1")
	require.NoError(t, err)
	assert.True(t, learned)
}

func TestShouldLearnForcesOrDefersToIsLearned(t *testing.T) {
	ctx := context.Background()
	store := NewMemStore()

	should, err := ShouldLearn(ctx, store, "ep-1", false)
	require.NoError(t, err)
	assert.True(t, should, "first run for an unlearned endpoint should learn")

	require.NoError(t, store.Save(ctx, "ep-1", transform.Manifest{}, &transform.LearnedSkill{Slug: "ep-1"}))

	should, err = ShouldLearn(ctx, store, "ep-1", false)
	require.NoError(t, err)
	assert.False(t, should, "an already-learned endpoint should not relearn unless forced")

	should, err = ShouldLearn(ctx, store, "ep-1", true)
	require.NoError(t, err)
	assert.True(t, should, "forceLearn always wins")
}
