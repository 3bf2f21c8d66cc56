package game

import (
	"log/slog"

	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/voxfield/voxfield/resolver"
	"github.com/voxfield/voxfield/telemetry"
)

// Update advances one graphical frame: input, signal, resolution
// events, simulation, telemetry. Draw renders the result.
func (a *App) Update() {
	a.perf.StartTick()

	dt := rl.GetFrameTime()

	a.handleInput()

	a.perf.StartPhase(telemetry.PhaseSignal)
	if !a.paused {
		a.simTime += dt
	}
	a.emitScript()
	frame := a.aggregator.Frame(a.simTime, dt)

	a.perf.StartPhase(telemetry.PhaseResolve)
	a.drainEvents()

	a.perf.StartPhase(telemetry.PhaseSimulate)
	if !a.paused {
		a.engine.Step(frame)
	}

	a.perf.StartPhase(telemetry.PhaseTelemetry)
	a.flushTelemetry()
	// Draw ends the tick so the render and UI phases land in the same
	// sample as the simulation phases.
}

// UpdateHeadless advances StepsPerUpdate fixed-dt ticks without any
// windowing calls. Used for soak runs.
func (a *App) UpdateHeadless() {
	for i := 0; i < a.opts.StepsPerUpdate; i++ {
		a.perf.StartTick()

		a.perf.StartPhase(telemetry.PhaseSignal)
		a.simTime += headlessDT
		a.emitScript()
		frame := a.aggregator.Frame(a.simTime, headlessDT)

		a.perf.StartPhase(telemetry.PhaseResolve)
		a.drainEvents()

		a.perf.StartPhase(telemetry.PhaseSimulate)
		a.engine.Step(frame)

		a.perf.StartPhase(telemetry.PhaseTelemetry)
		a.flushTelemetry()

		a.perf.EndTick()
	}
}

// emitScript lets the scripted feature source push synthetic signal
// state and kick off a resolution when a concept emission is due.
func (a *App) emitScript() {
	concept := a.script.Tick(a.aggregator, a.simTime)
	if concept == "" {
		return
	}
	a.ResolveConcept(concept)
}

// ResolveConcept starts an asynchronous resolution. The current target
// stays committed until the new one wins.
func (a *App) ResolveConcept(concept string) {
	a.concept = concept
	frame := a.aggregator.Frame(a.simTime, 0)
	a.res.Resolve(a.ctx, concept, frame.Emotion)
}

// drainEvents consumes all pending resolution events without blocking.
func (a *App) drainEvents() {
	for {
		select {
		case ev := <-a.res.Events():
			a.lastEvent = ev
			a.hasEvent = true
			a.collector.RecordResolution(ev)
			if ev.Outcome == resolver.OutcomeResolved {
				slog.Debug("resolved", "concept", ev.Concept, "source", ev.Source, "latency_ms", ev.Latency.Milliseconds())
			} else {
				slog.Info("resolution ended", "concept", ev.Concept, "outcome", ev.Outcome.String(), "error", ev.Err)
			}
		default:
			return
		}
	}
}

// flushTelemetry closes the stats window when due and routes the stats
// to the log and CSV sinks.
func (a *App) flushTelemetry() {
	if !a.collector.ShouldFlush(float64(a.simTime)) {
		return
	}

	stats := a.collector.Flush(float64(a.simTime), a.engine.Counters())
	a.lastWindow = stats
	perfStats := a.perf.Stats()

	if a.opts.LogStats {
		slog.Info("window",
			"sim_time", stats.SimTimeSec,
			"ticks", stats.Ticks,
			"skipped", stats.Skipped,
			"healed", stats.Healed,
			"resolved", stats.Resolved,
			"failed", stats.Failed,
			"superseded", stats.Superseded,
			"latency_p90_ms", stats.LatencyP90MS,
		)
		perfStats.LogStats()
	}

	if a.output != nil {
		if err := a.output.WriteTelemetry(stats); err != nil {
			slog.Error("failed to write telemetry", "error", err)
		}
		if err := a.output.WritePerf(perfStats.ToCSV(stats.WindowEndTick)); err != nil {
			slog.Error("failed to write perf", "error", err)
		}
	}
}
