package resolver

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/voxfield/voxfield/cache"
	"github.com/voxfield/voxfield/components"
	"github.com/voxfield/voxfield/genpipe"
	"github.com/voxfield/voxfield/shape"
)

// gateGenerator blocks each Generate call until released, so tests can
// interleave resolutions deterministically.
type gateGenerator struct {
	gate  chan struct{}
	calls atomic.Int64
}

func (g *gateGenerator) Generate(ctx context.Context, req genpipe.Request) (*shape.MorphTarget, error) {
	g.calls.Add(1)
	if g.gate != nil {
		select {
		case <-g.gate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	m := &shape.MorphTarget{Concept: req.Concept}
	for p := 0; p < 5; p++ {
		for i := 0; i < 8; i++ {
			m.Points = append(m.Points, components.LabeledPoint{
				Position: components.Vec3{X: float32(p), Y: float32(i)},
				PartID:   int32(p),
				PartName: "part",
			})
		}
	}
	return m, nil
}

type failGenerator struct{}

func (failGenerator) Generate(context.Context, genpipe.Request) (*shape.MorphTarget, error) {
	return nil, errors.New("backend down")
}

// commitRecorder captures committed targets in order.
type commitRecorder struct {
	mu      sync.Mutex
	targets []*shape.MorphTarget
}

func (c *commitRecorder) commit(m *shape.MorphTarget) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.targets = append(c.targets, m)
}

func (c *commitRecorder) concepts() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]string, len(c.targets))
	for i, m := range c.targets {
		out[i] = m.Concept
	}
	return out
}

func newResolver(t *testing.T, primary genpipe.Generator, rec *commitRecorder) *Resolver {
	t.Helper()
	c, err := cache.New(16, nil)
	if err != nil {
		t.Fatal(err)
	}
	table, err := shape.NewTable(64, 0.78, "", nil)
	if err != nil {
		t.Fatal(err)
	}
	pipe := &genpipe.Pipeline{Primary: primary, MinParts: 4, PointCount: 64}
	return New(c, table, pipe, 64, rec.commit)
}

func drain(r *Resolver) []Event {
	r.Wait()
	var events []Event
	for {
		select {
		case ev := <-r.Events():
			events = append(events, ev)
		default:
			return events
		}
	}
}

func TestTableHitCommits(t *testing.T) {
	rec := &commitRecorder{}
	r := newResolver(t, &gateGenerator{}, rec)

	r.Resolve(context.Background(), "Horse", "")
	events := drain(r)

	if len(events) != 1 || events[0].Outcome != OutcomeResolved {
		t.Fatalf("events = %+v", events)
	}
	if events[0].Source != "table" {
		t.Errorf("source = %q, want table", events[0].Source)
	}
	got := rec.concepts()
	if len(got) != 1 || got[0] != "horse" {
		t.Fatalf("committed = %v", got)
	}
	if rec.targets[0].Len() != 64 {
		t.Errorf("committed %d points, want 64", rec.targets[0].Len())
	}
}

func TestSecondResolutionHitsCache(t *testing.T) {
	rec := &commitRecorder{}
	gen := &gateGenerator{}
	r := newResolver(t, gen, rec)

	r.Resolve(context.Background(), "starfish", "")
	first := drain(r)
	r.Resolve(context.Background(), "starfish", "")
	second := drain(r)

	if first[0].Source != "pipeline:primary" {
		t.Errorf("first source = %q, want pipeline:primary", first[0].Source)
	}
	if second[0].Source != "cache:memory" {
		t.Errorf("second source = %q, want cache:memory", second[0].Source)
	}
	if gen.calls.Load() != 1 {
		t.Errorf("generator called %d times, want 1", gen.calls.Load())
	}
}

func TestSupersededResolutionDropsResult(t *testing.T) {
	rec := &commitRecorder{}
	slow := &gateGenerator{gate: make(chan struct{})}
	r := newResolver(t, slow, rec)

	// Resolution A stalls in the generator; B (a table hit) lands
	// first and becomes authoritative.
	r.Resolve(context.Background(), "anglerfish", "")
	for slow.calls.Load() == 0 {
		time.Sleep(time.Millisecond)
	}
	r.Resolve(context.Background(), "horse", "")
	for len(rec.concepts()) == 0 {
		time.Sleep(time.Millisecond)
	}
	close(slow.gate)
	events := drain(r)

	got := rec.concepts()
	if len(got) != 1 || got[0] != "horse" {
		t.Fatalf("committed = %v, want only horse", got)
	}
	outcomes := map[string]Outcome{}
	for _, ev := range events {
		outcomes[ev.Concept] = ev.Outcome
	}
	if outcomes["anglerfish"] != OutcomeSuperseded {
		t.Errorf("anglerfish outcome = %v, want superseded", outcomes["anglerfish"])
	}
	if outcomes["horse"] != OutcomeResolved {
		t.Errorf("horse outcome = %v, want resolved", outcomes["horse"])
	}
}

func TestFailureIsEventNotCommit(t *testing.T) {
	rec := &commitRecorder{}
	r := newResolver(t, failGenerator{}, rec)

	r.Resolve(context.Background(), "chimera", "")
	events := drain(r)

	if len(events) != 1 || events[0].Outcome != OutcomeFailed {
		t.Fatalf("events = %+v", events)
	}
	if !errors.Is(events[0].Err, genpipe.ErrGenerationFailed) {
		t.Errorf("err = %v, want ErrGenerationFailed", events[0].Err)
	}
	if len(rec.concepts()) != 0 {
		t.Errorf("failed resolution committed a target: %v", rec.concepts())
	}
}

func TestBlankConceptIgnored(t *testing.T) {
	rec := &commitRecorder{}
	r := newResolver(t, &gateGenerator{}, rec)

	r.Resolve(context.Background(), "   ", "")
	if events := drain(r); len(events) != 0 {
		t.Errorf("blank concept produced events: %+v", events)
	}
}
