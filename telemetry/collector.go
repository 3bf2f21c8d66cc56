package telemetry

import (
	"github.com/voxfield/voxfield/engine"
	"github.com/voxfield/voxfield/resolver"
)

// Collector accumulates resolution events and tick accounting within
// time windows and produces WindowStats. It is driven from the frame
// loop, single goroutine.
type Collector struct {
	windowDurationSec float64
	windowStartTime   float64

	resolved   int
	failed     int
	superseded int

	bySource  map[string]int
	latencies []float64

	// Engine counters at the previous flush, for windowed deltas.
	lastCounters engine.Counters
}

// NewCollector creates a collector with the given window length in
// simulation seconds.
func NewCollector(windowDurationSec float64) *Collector {
	if windowDurationSec <= 0 {
		windowDurationSec = 5
	}
	return &Collector{
		windowDurationSec: windowDurationSec,
		bySource:          make(map[string]int),
		latencies:         make([]float64, 0, 64),
	}
}

// RecordResolution folds one terminal resolution event into the window.
func (c *Collector) RecordResolution(ev resolver.Event) {
	switch ev.Outcome {
	case resolver.OutcomeResolved:
		c.resolved++
		c.bySource[ev.Source]++
		c.latencies = append(c.latencies, float64(ev.Latency.Milliseconds()))
	case resolver.OutcomeFailed:
		c.failed++
	case resolver.OutcomeSuperseded:
		c.superseded++
	}
}

// ShouldFlush reports whether the window has elapsed.
func (c *Collector) ShouldFlush(simTime float64) bool {
	return simTime-c.windowStartTime >= c.windowDurationSec
}

// Flush produces a WindowStats and resets counters for the next window.
func (c *Collector) Flush(simTime float64, counters engine.Counters) WindowStats {
	mean, p50, p90 := LatencyStats(c.latencies)

	stats := WindowStats{
		WindowEndTick: counters.Ticks,
		SimTimeSec:    simTime,

		Ticks:   counters.Ticks - c.lastCounters.Ticks,
		Skipped: counters.Skipped - c.lastCounters.Skipped,
		Clamped: counters.Clamped - c.lastCounters.Clamped,
		Healed:  counters.Healed - c.lastCounters.Healed,

		Resolved:   c.resolved,
		Failed:     c.failed,
		Superseded: c.superseded,

		CacheMemoryHits:     c.bySource["cache:memory"],
		CachePersistentHits: c.bySource["cache:persistent"],
		TableHits:           c.bySource["table"],
		PipelinePrimary:     c.bySource["pipeline:primary"],
		PipelineFallback:    c.bySource["pipeline:fallback"],

		LatencyMeanMS: mean,
		LatencyP50MS:  p50,
		LatencyP90MS:  p90,
	}

	c.windowStartTime = simTime
	c.lastCounters = counters
	c.resolved, c.failed, c.superseded = 0, 0, 0
	clear(c.bySource)
	c.latencies = c.latencies[:0]

	return stats
}
