// Package game owns the frame loop: it pulls signal snapshots, starts
// resolutions, steps the engine, and drives rendering, UI, and
// telemetry. One App per process.
package game

import (
	"context"
	"log/slog"

	"github.com/voxfield/voxfield/camera"
	"github.com/voxfield/voxfield/config"
	"github.com/voxfield/voxfield/engine"
	"github.com/voxfield/voxfield/forces"
	"github.com/voxfield/voxfield/renderer"
	"github.com/voxfield/voxfield/resolver"
	"github.com/voxfield/voxfield/signal"
	"github.com/voxfield/voxfield/telemetry"
	"github.com/voxfield/voxfield/ui"
)

// Fixed headless timestep, seconds per tick.
const headlessDT = 1.0 / 60.0

// Options configures an App.
type Options struct {
	Seed           int64
	Headless       bool
	LogStats       bool
	StatsWindowSec float64
	OutputDir      string
	StepsPerUpdate int

	// Scripted concept rotation for soak runs and demos. Empty means
	// the script's default rotation.
	ScriptConcepts []string
	ScriptPeriod   float64
}

// App is the frame driver.
type App struct {
	cfg      *config.Config
	opts     Options
	composer *forces.Composer
	engine   *engine.Engine
	res      *resolver.Resolver

	aggregator *signal.Aggregator
	script     *signal.Script

	orbit     *camera.Orbit
	particles *renderer.ParticleRenderer
	tuning    *ui.TuningPanel
	hud       *ui.HUD

	collector *telemetry.Collector
	perf      *telemetry.PerfCollector
	output    *telemetry.OutputManager

	ctx    context.Context
	cancel context.CancelFunc

	simTime    float32
	paused     bool
	cpuBackend bool

	concept    string
	lastEvent  resolver.Event
	hasEvent   bool
	lastWindow telemetry.WindowStats
}

// New wires an App around an already-constructed engine and resolver.
// The caller owns backend selection; cpuBackend only labels the HUD.
func New(cfg *config.Config, opts Options, composer *forces.Composer, eng *engine.Engine, res *resolver.Resolver, cpuBackend bool) (*App, error) {
	if opts.StepsPerUpdate < 1 {
		opts.StepsPerUpdate = 1
	}
	statsWindow := opts.StatsWindowSec
	if statsWindow <= 0 {
		statsWindow = cfg.Telemetry.StatsWindow
	}

	output, err := telemetry.NewOutputManager(opts.OutputDir)
	if err != nil {
		return nil, err
	}
	if output != nil {
		if err := output.WriteConfig(cfg); err != nil {
			slog.Warn("failed to write config snapshot", "error", err)
		}
	}

	ctx, cancel := context.WithCancel(context.Background())

	a := &App{
		cfg:        cfg,
		opts:       opts,
		composer:   composer,
		engine:     eng,
		res:        res,
		aggregator: signal.NewAggregator(),
		script:     signal.NewScript(opts.Seed, opts.ScriptConcepts, float32(opts.ScriptPeriod)),
		orbit:      camera.New(float32(cfg.Simulation.WorldRadius)),
		collector:  telemetry.NewCollector(statsWindow),
		perf:       telemetry.NewPerfCollector(cfg.Telemetry.PerfCollectorWindow),
		output:     output,
		ctx:        ctx,
		cancel:     cancel,
		cpuBackend: cpuBackend,
	}

	if !opts.Headless {
		a.particles = renderer.NewParticleRenderer(float32(cfg.Simulation.WorldRadius) * 0.012)
		a.tuning = ui.NewTuningPanel(int32(cfg.Screen.Width)-280, 10, 270)
		a.hud = ui.NewHUD(10, 10, 260)
	}

	return a, nil
}

// Tick returns the number of simulation steps taken so far.
func (a *App) Tick() uint64 {
	return a.engine.Counters().Ticks
}

// Unload cancels in-flight resolutions and releases resources.
func (a *App) Unload() {
	a.cancel()
	a.res.Wait()
	a.drainEvents()
	a.engine.Close()
	if a.particles != nil {
		a.particles.Unload()
	}
	if a.output != nil {
		if err := a.output.Close(); err != nil {
			slog.Warn("failed to close output", "error", err)
		}
	}
}
