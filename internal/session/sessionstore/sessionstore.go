// Package sessionstore mirrors session.Info snapshots into Redis as an
// optional durable side-channel, grounded on the teacher's go.mod
// direct dependency on github.com/redis/go-redis/v9 (no teacher file
// in the retrieved pack exercises it directly, per SPEC_FULL.md's
// DOMAIN STACK table; this package is the home found for it).
//
// The in-memory map in session.Manager stays authoritative — per
// spec.md §5/§9's "Global mutable state" note, this package never
// participates in a read path the Manager depends on. It exists so an
// operator can inspect or survive-restart idle-timeout bookkeeping
// across process restarts without changing Manager's single-process
// concurrency model.
package sessionstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/reactiv/flowgraph/internal/session"
)

// ErrNotFound is returned by Load when no mirrored entry exists.
var ErrNotFound = errors.New("sessionstore: not found")

// Client is the narrow subset of *redis.Client this package calls,
// kept local so tests can fake it without a real server.
type Client interface {
	Set(ctx context.Context, key string, value string, ttl time.Duration) error
	Get(ctx context.Context, key string) (string, error)
	Del(ctx context.Context, key string) error
	Ping(ctx context.Context) error
}

// Store mirrors session.Info snapshots under a "flowgraph:session:<id>"
// key namespace.
type Store struct {
	client Client
	prefix string
	ttl    time.Duration
}

// Options configures a Store.
type Options struct {
	// Prefix namespaces keys, defaulting to "flowgraph:session:".
	Prefix string
	// TTL bounds how long a mirrored entry survives without a Touch,
	// defaulting to session.DefaultTimeout. A zero Client-side TTL
	// would mean the mirror never expires even after the in-memory
	// session is evicted, so this always has a positive default.
	TTL time.Duration
}

// NewStore builds a Store using the provided client.
func NewStore(client Client, opts Options) (*Store, error) {
	if client == nil {
		return nil, errors.New("sessionstore: client is required")
	}
	prefix := opts.Prefix
	if prefix == "" {
		prefix = "flowgraph:session:"
	}
	ttl := opts.TTL
	if ttl <= 0 {
		ttl = session.DefaultTimeout
	}
	return &Store{client: client, prefix: prefix, ttl: ttl}, nil
}

func (s *Store) key(id string) string {
	return s.prefix + id
}

// Save mirrors info, resetting its TTL. Callers typically invoke this
// after Manager.CreateSession and after every successful Query.
func (s *Store) Save(ctx context.Context, info session.Info) error {
	b, err := json.Marshal(info)
	if err != nil {
		return fmt.Errorf("sessionstore: marshal: %w", err)
	}
	return s.client.Set(ctx, s.key(info.SessionID), string(b), s.ttl)
}

// Load retrieves the mirrored Info for id, or ErrNotFound.
func (s *Store) Load(ctx context.Context, id string) (session.Info, error) {
	raw, err := s.client.Get(ctx, s.key(id))
	if err != nil {
		return session.Info{}, ErrNotFound
	}
	var info session.Info
	if err := json.Unmarshal([]byte(raw), &info); err != nil {
		return session.Info{}, fmt.Errorf("sessionstore: unmarshal: %w", err)
	}
	return info, nil
}

// Delete removes the mirrored entry for id, called when Manager closes
// or evicts a session.
func (s *Store) Delete(ctx context.Context, id string) error {
	return s.client.Del(ctx, s.key(id))
}

// Ping checks connectivity to the backing Redis instance.
func (s *Store) Ping(ctx context.Context) error {
	return s.client.Ping(ctx)
}
