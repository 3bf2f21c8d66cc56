package cache

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/voxfield/voxfield/shape"
)

// fakePersistent records calls and serves a canned map.
type fakePersistent struct {
	entries map[string]*shape.MorphTarget
	getErr  error
	putErr  error
	puts    int
}

func (f *fakePersistent) Get(_ context.Context, concept string) (*shape.MorphTarget, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	return f.entries[concept], nil
}

func (f *fakePersistent) Put(_ context.Context, m *shape.MorphTarget) error {
	f.puts++
	if f.putErr != nil {
		return f.putErr
	}
	f.entries[shape.NormalizeConcept(m.Concept)] = m
	return nil
}

func (f *fakePersistent) Close() error { return nil }

func newFake() *fakePersistent {
	return &fakePersistent{entries: map[string]*shape.MorphTarget{}}
}

func TestGetTiers(t *testing.T) {
	ctx := context.Background()
	persist := newFake()
	persist.entries["tree"] = shape.Builtins()["tree"](64)

	c, err := New(8, persist)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	// First lookup lands in the persistent tier and promotes.
	m, tier := c.Get(ctx, "Tree")
	if tier != TierPersistent {
		t.Fatalf("first lookup tier = %v, want persistent", tier)
	}
	if m.Concept != "tree" {
		t.Errorf("concept = %q, want tree", m.Concept)
	}

	// Second lookup must come from memory.
	if _, tier := c.Get(ctx, "tree"); tier != TierMemory {
		t.Errorf("second lookup tier = %v, want memory", tier)
	}

	if _, tier := c.Get(ctx, "unknown"); tier != TierMiss {
		t.Errorf("unknown concept tier = %v, want miss", tier)
	}
	if _, tier := c.Get(ctx, "   "); tier != TierMiss {
		t.Errorf("blank concept tier = %v, want miss", tier)
	}
}

func TestPutWritesThrough(t *testing.T) {
	ctx := context.Background()
	persist := newFake()
	c, err := New(8, persist)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	c.Put(ctx, shape.Builtins()["horse"](64))
	if persist.puts != 1 {
		t.Errorf("persistent puts = %d, want 1", persist.puts)
	}
	if _, tier := c.Get(ctx, "horse"); tier != TierMemory {
		t.Errorf("tier after put = %v, want memory", tier)
	}

	// Empty targets never enter the cache.
	c.Put(ctx, &shape.MorphTarget{Concept: "void"})
	if persist.puts != 1 {
		t.Errorf("empty target reached the persistent tier")
	}
}

func TestPersistentFailureDegrades(t *testing.T) {
	ctx := context.Background()
	persist := newFake()
	persist.getErr = errors.New("disk gone")
	persist.putErr = errors.New("disk gone")

	c, err := New(8, persist)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	// Put succeeds in memory despite the persistent failure.
	c.Put(ctx, shape.Builtins()["fish"](64))
	if _, tier := c.Get(ctx, "fish"); tier != TierMemory {
		t.Errorf("memory tier lost after persistent failure")
	}
	// Pure persistent lookups fail soft.
	if _, tier := c.Get(ctx, "tree"); tier != TierMiss {
		t.Errorf("failed persistent lookup should be a miss")
	}
}

func TestMemoryOnly(t *testing.T) {
	ctx := context.Background()
	c, err := New(2, nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	c.Put(ctx, shape.Builtins()["horse"](32))
	c.Put(ctx, shape.Builtins()["tree"](32))
	c.Put(ctx, shape.Builtins()["fish"](32))

	// Capacity 2: the oldest entry is evicted and gone for good.
	if _, tier := c.Get(ctx, "horse"); tier != TierMiss {
		t.Errorf("evicted entry tier = %v, want miss", tier)
	}
	if _, tier := c.Get(ctx, "fish"); tier != TierMemory {
		t.Errorf("fresh entry tier = %v, want memory", tier)
	}
	if err := c.Close(); err != nil {
		t.Errorf("Close: %v", err)
	}
}

func TestSQLiteRoundTrip(t *testing.T) {
	ctx := context.Background()
	store, err := OpenSQLite(filepath.Join(t.TempDir(), "shapes.db"))
	if err != nil {
		t.Fatalf("OpenSQLite: %v", err)
	}
	defer store.Close()

	src := shape.Builtins()["horse"](128)
	if err := store.Put(ctx, src); err != nil {
		t.Fatalf("Put: %v", err)
	}

	got, err := store.Get(ctx, "horse")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got == nil || len(got.Points) != 128 {
		t.Fatalf("round trip lost points: %+v", got)
	}

	// Overwrite replaces the payload.
	if err := store.Put(ctx, shape.Builtins()["horse"](64)); err != nil {
		t.Fatalf("Put overwrite: %v", err)
	}
	got, err = store.Get(ctx, "horse")
	if err != nil {
		t.Fatalf("Get after overwrite: %v", err)
	}
	if len(got.Points) != 64 {
		t.Errorf("overwrite kept stale payload: %d points", len(got.Points))
	}

	// Absent concepts are a nil result, not an error.
	got, err = store.Get(ctx, "unknown")
	if err != nil || got != nil {
		t.Errorf("absent concept: got %v, %v", got, err)
	}
}
