// Package telemetry aggregates per-window counters for the simulation
// loop and the resolution pipeline, and exports them as CSV.
package telemetry

import (
	"sort"

	"gonum.org/v1/gonum/stat"
)

// WindowStats holds aggregated statistics for one stats window.
type WindowStats struct {
	WindowEndTick uint64  `csv:"window_end"`
	SimTimeSec    float64 `csv:"sim_time"`

	// Simulation tick accounting (deltas within the window).
	Ticks   uint64 `csv:"ticks"`
	Skipped uint64 `csv:"ticks_skipped"`
	Clamped uint64 `csv:"ticks_clamped"`
	Healed  uint64 `csv:"particles_healed"`

	// Resolution outcomes during the window.
	Resolved   int `csv:"resolved"`
	Failed     int `csv:"failed"`
	Superseded int `csv:"superseded"`

	// Tier breakdown of successful resolutions.
	CacheMemoryHits     int `csv:"cache_memory_hits"`
	CachePersistentHits int `csv:"cache_persistent_hits"`
	TableHits           int `csv:"table_hits"`
	PipelinePrimary     int `csv:"pipeline_primary"`
	PipelineFallback    int `csv:"pipeline_fallback"`

	// Resolution latency over completed resolutions (milliseconds).
	LatencyMeanMS float64 `csv:"latency_mean_ms"`
	LatencyP50MS  float64 `csv:"latency_p50_ms"`
	LatencyP90MS  float64 `csv:"latency_p90_ms"`
}

// LatencyStats computes mean and percentiles of latency samples.
// Returns zeros for an empty sample set.
func LatencyStats(ms []float64) (mean, p50, p90 float64) {
	if len(ms) == 0 {
		return 0, 0, 0
	}
	sorted := make([]float64, len(ms))
	copy(sorted, ms)
	sort.Float64s(sorted)

	mean = stat.Mean(sorted, nil)
	p50 = stat.Quantile(0.50, stat.Empirical, sorted, nil)
	p90 = stat.Quantile(0.90, stat.Empirical, sorted, nil)
	return mean, p50, p90
}
