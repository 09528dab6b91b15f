// Package mongoclient hosts the MongoDB client used by mongostore's
// manifest Store, grounded on features/session/mongo/clients/mongo's
// narrow-collection-interface pattern.
package mongoclient

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	mongodriver "go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
	"go.mongodb.org/mongo-driver/v2/mongo/readpref"

	"github.com/reactiv/flowgraph/internal/transform"
)

const (
	defaultCollection = "transform_manifests"
	defaultOpTimeout   = 5 * time.Second
)

// ErrNotFound mirrors manifest.ErrNotFound without importing the parent
// package, so mongoclient stays usable standalone.
var ErrNotFound = errors.New("mongoclient: not found")

// Client exposes Mongo-backed operations over manifest records, keyed
// by the caller-supplied opaque endpoint ID.
type Client interface {
	Ping(ctx context.Context) error
	Save(ctx context.Context, endpointID string, rec Document) error
	Load(ctx context.Context, endpointID string) (Document, error)
	IsLearned(ctx context.Context, endpointID string) (bool, error)
}

// Document is the Mongo-persisted shape of a manifest.Record, flattened
// so LearnedSkill's fields can be queried (e.g. "learned_slug" exists)
// without an extra round trip.
type Document struct {
	EndpointID       string    `bson:"endpoint_id"`
	ArtifactPath     string    `bson:"artifact_path"`
	ArtifactFormat   string    `bson:"artifact_format"`
	ItemCount        int       `bson:"item_count"`
	SchemaHash       string    `bson:"schema_hash"`
	ValidationPassed bool      `bson:"validation_passed"`
	RunID            string    `bson:"run_id"`
	LearnedSlug      string    `bson:"learned_slug,omitempty"`
	LearnedMemo      string    `bson:"learned_memo,omitempty"`
	LearnedScript    string    `bson:"learned_script,omitempty"`
	HasLearned       bool      `bson:"has_learned"`
	UpdatedAt        time.Time `bson:"updated_at"`
}

// ToManifest reconstructs the transform.Manifest half of the record.
func (d Document) ToManifest() transform.Manifest {
	return transform.Manifest{
		ArtifactPath:     d.ArtifactPath,
		ArtifactFormat:   transform.OutputFormat(d.ArtifactFormat),
		ItemCount:        d.ItemCount,
		SchemaHash:       d.SchemaHash,
		ValidationPassed: d.ValidationPassed,
		RunID:            d.RunID,
	}
}

// ToLearnedSkill reconstructs the learned skill, or nil if none was saved.
func (d Document) ToLearnedSkill() *transform.LearnedSkill {
	if !d.HasLearned {
		return nil
	}
	return &transform.LearnedSkill{
		Slug:       d.LearnedSlug,
		Memo:       d.LearnedMemo,
		ScriptBody: d.LearnedScript,
		SchemaHash: d.SchemaHash,
	}
}

// Options configures the Mongo manifest client.
type Options struct {
	Client     *mongodriver.Client
	Database   string
	Collection string
	Timeout    time.Duration
}

type client struct {
	mongo   *mongodriver.Client
	coll    collection
	timeout time.Duration
}

// New returns a Client backed by MongoDB.
func New(opts Options) (Client, error) {
	if opts.Client == nil {
		return nil, errors.New("mongo client is required")
	}
	if opts.Database == "" {
		return nil, errors.New("database name is required")
	}
	collName := opts.Collection
	if collName == "" {
		collName = defaultCollection
	}
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = defaultOpTimeout
	}
	coll := mongoCollection{coll: opts.Client.Database(opts.Database).Collection(collName)}

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	if err := ensureIndexes(ctx, coll); err != nil {
		return nil, err
	}
	return &client{mongo: opts.Client, coll: coll, timeout: timeout}, nil
}

func (c *client) Ping(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}
	return c.mongo.Ping(ctx, readpref.Primary())
}

func (c *client) Save(ctx context.Context, endpointID string, rec Document) error {
	if endpointID == "" {
		return errors.New("endpoint id is required")
	}
	rec.EndpointID = endpointID
	rec.UpdatedAt = time.Now().UTC()
	ctx, cancel := c.withTimeout(ctx)
	defer cancel()

	filter := bson.M{"endpoint_id": endpointID}
	set := bson.M{
		"endpoint_id":       rec.EndpointID,
		"artifact_path":     rec.ArtifactPath,
		"artifact_format":   rec.ArtifactFormat,
		"item_count":        rec.ItemCount,
		"schema_hash":       rec.SchemaHash,
		"validation_passed": rec.ValidationPassed,
		"run_id":            rec.RunID,
		"updated_at":        rec.UpdatedAt,
	}
	// A manifest-only save (rec.HasLearned == false) must not clobber a
	// learned skill persisted by a prior run, mirroring manifest.MemStore.Save.
	if rec.HasLearned {
		set["has_learned"] = true
		set["learned_slug"] = rec.LearnedSlug
		set["learned_memo"] = rec.LearnedMemo
		set["learned_script"] = rec.LearnedScript
	}
	update := bson.M{"$set": set}
	_, err := c.coll.UpdateOne(ctx, filter, update, options.UpdateOne().SetUpsert(true))
	return err
}

func (c *client) Load(ctx context.Context, endpointID string) (Document, error) {
	if endpointID == "" {
		return Document{}, errors.New("endpoint id is required")
	}
	ctx, cancel := c.withTimeout(ctx)
	defer cancel()
	var doc Document
	if err := c.coll.FindOne(ctx, bson.M{"endpoint_id": endpointID}).Decode(&doc); err != nil {
		if errors.Is(err, mongodriver.ErrNoDocuments) {
			return Document{}, ErrNotFound
		}
		return Document{}, err
	}
	return doc, nil
}

func (c *client) IsLearned(ctx context.Context, endpointID string) (bool, error) {
	doc, err := c.Load(ctx, endpointID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return false, nil
		}
		return false, err
	}
	return doc.HasLearned, nil
}

func (c *client) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if ctx == nil {
		ctx = context.Background()
	}
	if c.timeout <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, c.timeout)
}

func ensureIndexes(ctx context.Context, coll collection) error {
	idx := mongodriver.IndexModel{
		Keys:    bson.D{{Key: "endpoint_id", Value: 1}},
		Options: options.Index().SetUnique(true),
	}
	_, err := coll.Indexes().CreateOne(ctx, idx)
	return err
}

type collection interface {
	FindOne(ctx context.Context, filter any, opts ...options.Lister[options.FindOneOptions]) singleResult
	UpdateOne(ctx context.Context, filter, update any, opts ...options.Lister[options.UpdateOneOptions]) (*mongodriver.UpdateResult, error)
	Indexes() indexView
}

type indexView interface {
	CreateOne(ctx context.Context, model mongodriver.IndexModel, opts ...options.Lister[options.CreateIndexesOptions]) (string, error)
}

type singleResult interface {
	Decode(val any) error
}

type mongoCollection struct {
	coll *mongodriver.Collection
}

func (c mongoCollection) FindOne(ctx context.Context, filter any, opts ...options.Lister[options.FindOneOptions]) singleResult {
	return mongoSingleResult{res: c.coll.FindOne(ctx, filter, opts...)}
}

func (c mongoCollection) UpdateOne(ctx context.Context, filter, update any, opts ...options.Lister[options.UpdateOneOptions]) (*mongodriver.UpdateResult, error) {
	return c.coll.UpdateOne(ctx, filter, update, opts...)
}

func (c mongoCollection) Indexes() indexView {
	return mongoIndexView{view: c.coll.Indexes()}
}

type mongoSingleResult struct {
	res *mongodriver.SingleResult
}

func (r mongoSingleResult) Decode(val any) error {
	return r.res.Decode(val)
}

type mongoIndexView struct {
	view mongodriver.IndexView
}

func (v mongoIndexView) CreateOne(ctx context.Context, model mongodriver.IndexModel, opts ...options.Lister[options.CreateIndexesOptions]) (string, error) {
	return v.view.CreateOne(ctx, model, opts...)
}
