// Package resolver turns spoken concepts into committed morph targets.
// Resolution is asynchronous and tiered: cache, then the local shape
// table, then the generation pipeline. The simulation never waits on a
// resolution; it keeps its current target until a newer one commits.
package resolver

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/voxfield/voxfield/cache"
	"github.com/voxfield/voxfield/genpipe"
	"github.com/voxfield/voxfield/shape"
)

// Outcome classifies how a resolution ended.
type Outcome int

const (
	OutcomeResolved Outcome = iota
	OutcomeFailed
	OutcomeSuperseded
)

func (o Outcome) String() string {
	switch o {
	case OutcomeResolved:
		return "resolved"
	case OutcomeFailed:
		return "failed"
	default:
		return "superseded"
	}
}

// Event reports one finished resolution. Source names the tier that
// satisfied it: "cache:memory", "cache:persistent", "table",
// "pipeline:primary" or "pipeline:fallback".
type Event struct {
	Concept string
	Outcome Outcome
	Source  string
	Latency time.Duration
	Err     error
}

// Resolver owns the tier chain. Commit is called with every winning
// target; it must be cheap and safe to call from resolver goroutines
// (an atomic pointer swap in practice).
type Resolver struct {
	cache      *cache.ShapeCache
	table      *shape.Table
	pipe       *genpipe.Pipeline
	commit     func(*shape.MorphTarget)
	pointCount int

	group    singleflight.Group
	gen      atomic.Uint64
	commitMu sync.Mutex
	events   chan Event
	wg       sync.WaitGroup
}

// New builds a resolver. events are delivered best-effort: if the
// buffer is full the event is dropped rather than blocking resolution.
func New(c *cache.ShapeCache, t *shape.Table, p *genpipe.Pipeline, pointCount int, commit func(*shape.MorphTarget)) *Resolver {
	return &Resolver{
		cache:      c,
		table:      t,
		pipe:       p,
		commit:     commit,
		pointCount: pointCount,
		events:     make(chan Event, 64),
	}
}

// Events exposes the resolution event stream.
func (r *Resolver) Events() <-chan Event {
	return r.events
}

// Resolve starts an asynchronous resolution for a concept. Each call
// supersedes every resolution started before it: when an older
// resolution finishes late, its result is ignored. The latest call is
// the only one allowed to commit.
func (r *Resolver) Resolve(ctx context.Context, concept, emotion string) {
	norm := shape.NormalizeConcept(concept)
	if norm == "" {
		return
	}
	gen := r.gen.Add(1)
	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		r.resolve(ctx, norm, emotion, gen)
	}()
}

// Wait blocks until every in-flight resolution has finished. Used on
// shutdown and in tests.
func (r *Resolver) Wait() {
	r.wg.Wait()
}

func (r *Resolver) resolve(ctx context.Context, concept, emotion string, gen uint64) {
	start := time.Now()

	if m, tier := r.cache.Get(ctx, concept); tier != cache.TierMiss {
		r.finish(concept, m, "cache:"+tier.String(), gen, start, nil)
		return
	}

	// Concurrent misses for the same concept share one lookup. The
	// shared result is handed to every waiter; the generation check in
	// finish decides which of them commits.
	type resolved struct {
		target *shape.MorphTarget
		source string
	}
	v, err, _ := r.group.Do(concept, func() (any, error) {
		if m, ok := r.table.Lookup(ctx, concept); ok {
			r.cache.Put(ctx, m)
			return resolved{m, "table"}, nil
		}
		res, err := r.pipe.Run(ctx, concept, emotion)
		if err != nil {
			return nil, err
		}
		r.cache.Put(ctx, res.Target)
		return resolved{res.Target, "pipeline:" + res.Path.String()}, nil
	})
	if err != nil {
		r.finish(concept, nil, "pipeline", gen, start, err)
		return
	}
	res := v.(resolved)
	r.finish(concept, res.target, res.source, gen, start, nil)
}

// finish commits a winning target and emits the terminal event. A
// resolution that is no longer the latest is reported as superseded
// and its result dropped, even on failure.
func (r *Resolver) finish(concept string, m *shape.MorphTarget, source string, gen uint64, start time.Time, err error) {
	ev := Event{Concept: concept, Source: source, Latency: time.Since(start)}

	// The generation check and the commit must be one step, or a late
	// resolution could land after a newer one has already committed.
	r.commitMu.Lock()
	defer r.commitMu.Unlock()

	if r.gen.Load() != gen {
		ev.Outcome = OutcomeSuperseded
		r.emit(ev)
		return
	}
	if err != nil {
		ev.Outcome = OutcomeFailed
		ev.Err = err
		slog.Warn("resolution failed", "concept", concept, "error", err)
		r.emit(ev)
		return
	}

	r.commit(shape.Resample(m, r.pointCount))
	ev.Outcome = OutcomeResolved
	slog.Info("resolution committed", "concept", concept, "source", source,
		"latency_ms", ev.Latency.Milliseconds())
	r.emit(ev)
}

func (r *Resolver) emit(ev Event) {
	select {
	case r.events <- ev:
	default:
	}
}
