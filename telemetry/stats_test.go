package telemetry

import (
	"math"
	"testing"
	"time"

	"github.com/voxfield/voxfield/engine"
	"github.com/voxfield/voxfield/resolver"
)

func TestLatencyStats(t *testing.T) {
	mean, p50, p90 := LatencyStats([]float64{10, 20, 30, 40, 50, 60, 70, 80, 90, 100})

	if math.Abs(mean-55) > 0.001 {
		t.Errorf("mean = %v, want 55", mean)
	}
	if p50 < 40 || p50 > 60 {
		t.Errorf("p50 = %v, want around 50", p50)
	}
	if p90 < 80 || p90 > 100 {
		t.Errorf("p90 = %v, want around 90", p90)
	}
}

func TestLatencyStatsEmpty(t *testing.T) {
	mean, p50, p90 := LatencyStats(nil)
	if mean != 0 || p50 != 0 || p90 != 0 {
		t.Error("empty sample set should return all zeros")
	}
}

func TestLatencyStatsDoesNotMutateInput(t *testing.T) {
	in := []float64{30, 10, 20}
	LatencyStats(in)
	if in[0] != 30 || in[1] != 10 || in[2] != 20 {
		t.Errorf("input mutated: %v", in)
	}
}

func TestCollectorWindow(t *testing.T) {
	c := NewCollector(5)

	c.RecordResolution(resolver.Event{Outcome: resolver.OutcomeResolved, Source: "table", Latency: 2 * time.Millisecond})
	c.RecordResolution(resolver.Event{Outcome: resolver.OutcomeResolved, Source: "cache:memory", Latency: 1 * time.Millisecond})
	c.RecordResolution(resolver.Event{Outcome: resolver.OutcomeResolved, Source: "pipeline:fallback", Latency: 900 * time.Millisecond})
	c.RecordResolution(resolver.Event{Outcome: resolver.OutcomeFailed})
	c.RecordResolution(resolver.Event{Outcome: resolver.OutcomeSuperseded})

	if c.ShouldFlush(3) {
		t.Error("window flushed early")
	}
	if !c.ShouldFlush(5) {
		t.Error("window did not flush at its duration")
	}

	stats := c.Flush(5, engine.Counters{Ticks: 300, Skipped: 2, Healed: 7})
	if stats.Resolved != 3 || stats.Failed != 1 || stats.Superseded != 1 {
		t.Errorf("outcomes = %d/%d/%d, want 3/1/1", stats.Resolved, stats.Failed, stats.Superseded)
	}
	if stats.TableHits != 1 || stats.CacheMemoryHits != 1 || stats.PipelineFallback != 1 {
		t.Errorf("tier breakdown wrong: %+v", stats)
	}
	if stats.Ticks != 300 || stats.Skipped != 2 || stats.Healed != 7 {
		t.Errorf("tick deltas wrong: %+v", stats)
	}
	if stats.LatencyMeanMS < 300 {
		t.Errorf("latency mean = %v, want > 300", stats.LatencyMeanMS)
	}

	// Second window sees only its own activity, with counter deltas.
	stats = c.Flush(10, engine.Counters{Ticks: 600, Skipped: 2, Healed: 7})
	if stats.Resolved != 0 || stats.Ticks != 300 || stats.Skipped != 0 {
		t.Errorf("second window not reset: %+v", stats)
	}
}
