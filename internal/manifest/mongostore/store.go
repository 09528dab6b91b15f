// Package mongostore is a MongoDB-backed implementation of
// manifest.Store, grounded on features/session/mongo/store.go's
// thin-wrapper-over-narrow-client-interface pattern: Store holds only
// a mongoclient.Client and delegates every method to it.
package mongostore

import (
	"context"
	"errors"

	"github.com/reactiv/flowgraph/internal/manifest"
	"github.com/reactiv/flowgraph/internal/manifest/mongostore/mongoclient"
	"github.com/reactiv/flowgraph/internal/transform"
)

// Store implements manifest.Store by delegating to a mongoclient.Client.
type Store struct {
	client mongoclient.Client
}

// NewStore builds a Store using the provided client.
func NewStore(client mongoclient.Client) (*Store, error) {
	if client == nil {
		return nil, errors.New("mongostore: client is required")
	}
	return &Store{client: client}, nil
}

// Save implements manifest.Store.
func (s *Store) Save(ctx context.Context, endpointID string, m transform.Manifest, learned *transform.LearnedSkill) error {
	doc := mongoclient.Document{
		ArtifactPath:     m.ArtifactPath,
		ArtifactFormat:   string(m.ArtifactFormat),
		ItemCount:        m.ItemCount,
		SchemaHash:       m.SchemaHash,
		ValidationPassed: m.ValidationPassed,
		RunID:            m.RunID,
	}
	if learned != nil {
		doc.HasLearned = true
		doc.LearnedSlug = learned.Slug
		doc.LearnedMemo = learned.Memo
		doc.LearnedScript = learned.ScriptBody
	}
	return s.client.Save(ctx, endpointID, doc)
}

// Load implements manifest.Store.
func (s *Store) Load(ctx context.Context, endpointID string) (manifest.Record, error) {
	doc, err := s.client.Load(ctx, endpointID)
	if err != nil {
		if errors.Is(err, mongoclient.ErrNotFound) {
			return manifest.Record{}, manifest.ErrNotFound
		}
		return manifest.Record{}, err
	}
	return manifest.Record{
		EndpointID: endpointID,
		Manifest:   doc.ToManifest(),
		Learned:    doc.ToLearnedSkill(),
		UpdatedAt:  doc.UpdatedAt,
	}, nil
}

// IsLearned implements manifest.Store.
func (s *Store) IsLearned(ctx context.Context, endpointID string) (bool, error) {
	return s.client.IsLearned(ctx, endpointID)
}
