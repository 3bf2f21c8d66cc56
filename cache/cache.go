// Package cache holds resolved morph targets in two tiers: an
// in-process LRU and an optional persistent store that survives
// restarts. Lookups check memory first, then the persistent tier, and
// promote persistent hits back into memory.
package cache

import (
	"context"
	"log/slog"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/voxfield/voxfield/shape"
)

// Tier identifies where a lookup was satisfied.
type Tier int

const (
	TierMiss Tier = iota
	TierMemory
	TierPersistent
)

func (t Tier) String() string {
	switch t {
	case TierMemory:
		return "memory"
	case TierPersistent:
		return "persistent"
	default:
		return "miss"
	}
}

// Persistent is the durable second tier. Implementations must be safe
// for concurrent use.
type Persistent interface {
	Get(ctx context.Context, concept string) (*shape.MorphTarget, error)
	Put(ctx context.Context, m *shape.MorphTarget) error
	Close() error
}

// ShapeCache is the two-tier cache. A nil persistent tier degrades it
// to memory-only; persistent tier failures never fail a lookup or a
// store, they only lose durability.
type ShapeCache struct {
	mem     *lru.Cache[string, *shape.MorphTarget]
	persist Persistent
}

// New builds a cache with the given memory capacity. persist may be
// nil for memory-only operation.
func New(capacity int, persist Persistent) (*ShapeCache, error) {
	mem, err := lru.New[string, *shape.MorphTarget](capacity)
	if err != nil {
		return nil, err
	}
	return &ShapeCache{mem: mem, persist: persist}, nil
}

// Get looks a concept up across both tiers. The concept is normalized
// before use so callers need not pre-normalize.
func (c *ShapeCache) Get(ctx context.Context, concept string) (*shape.MorphTarget, Tier) {
	key := shape.NormalizeConcept(concept)
	if key == "" {
		return nil, TierMiss
	}
	if m, ok := c.mem.Get(key); ok {
		return m, TierMemory
	}
	if c.persist == nil {
		return nil, TierMiss
	}
	m, err := c.persist.Get(ctx, key)
	if err != nil {
		slog.Warn("persistent cache lookup failed", "concept", key, "error", err)
		return nil, TierMiss
	}
	if m == nil {
		return nil, TierMiss
	}
	c.mem.Add(key, m)
	return m, TierPersistent
}

// Put stores a target in memory and writes it through to the
// persistent tier when one is attached.
func (c *ShapeCache) Put(ctx context.Context, m *shape.MorphTarget) {
	key := shape.NormalizeConcept(m.Concept)
	if key == "" || m.Len() == 0 {
		return
	}
	c.mem.Add(key, m)
	if c.persist == nil {
		return
	}
	if err := c.persist.Put(ctx, m); err != nil {
		slog.Warn("persistent cache write failed", "concept", key, "error", err)
	}
}

// Len returns the number of entries in the memory tier.
func (c *ShapeCache) Len() int {
	return c.mem.Len()
}

// Close releases the persistent tier.
func (c *ShapeCache) Close() error {
	if c.persist == nil {
		return nil
	}
	return c.persist.Close()
}
