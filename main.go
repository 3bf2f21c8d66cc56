package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"strings"
	"time"

	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/voxfield/voxfield/cache"
	"github.com/voxfield/voxfield/config"
	"github.com/voxfield/voxfield/embed"
	"github.com/voxfield/voxfield/engine"
	"github.com/voxfield/voxfield/forces"
	"github.com/voxfield/voxfield/game"
	"github.com/voxfield/voxfield/genpipe"
	"github.com/voxfield/voxfield/resolver"
	"github.com/voxfield/voxfield/shape"
)

func main() {
	// CLI flags
	configPath := flag.String("config", "", "Path to config.yaml (empty = use defaults)")
	headless := flag.Bool("headless", false, "Run without graphics (CPU backend, scripted signal)")
	logStats := flag.Bool("log-stats", false, "Output window stats via slog")
	statsWindow := flag.Float64("stats-window", 0, "Stats window size in seconds (0 = use config)")
	outputDir := flag.String("output-dir", "", "Output directory for CSV logs and config snapshot")
	seed := flag.Int64("seed", 0, "RNG seed (0 = time-based)")
	maxTicks := flag.Int("max-ticks", 0, "Stop after N ticks (0 = unlimited)")
	stepsPerUpdate := flag.Int("steps-per-update", 1, "Simulation ticks per update call (higher = faster headless runs)")
	cpu := flag.Bool("cpu", false, "Force the CPU simulation backend even in graphical mode")
	shaderDir := flag.String("shader-dir", "shaders", "Directory holding the particle step shaders")
	script := flag.String("script", "", "Comma-separated concept rotation for the scripted signal source")
	scriptPeriod := flag.Float64("script-period", 6, "Seconds between scripted concept emissions")

	flag.Parse()

	// Initialize config before anything else
	if err := config.Init(*configPath); err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	cfg := config.Cfg()

	// Set up seed
	rngSeed := *seed
	if rngSeed == 0 {
		rngSeed = time.Now().UnixNano()
	}

	// Set up slog (JSON to stdout for structured logging)
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	// Use config stats window if not overridden by CLI
	statsWindowSec := cfg.Telemetry.StatsWindow
	if *statsWindow > 0 {
		statsWindowSec = *statsWindow
	}

	var concepts []string
	if *script != "" {
		concepts = strings.Split(*script, ",")
	}

	opts := game.Options{
		Seed:           rngSeed,
		Headless:       *headless,
		LogStats:       *logStats,
		StatsWindowSec: statsWindowSec,
		OutputDir:      *outputDir,
		StepsPerUpdate: *stepsPerUpdate,
		ScriptConcepts: concepts,
		ScriptPeriod:   *scriptPeriod,
	}

	composer := forces.NewComposer(rngSeed, cfg)

	if *headless {
		// Headless mode: CPU backend, no raylib needed.
		eng := engine.New(cfg, composer, engine.NewCPUBackend(composer))
		res := buildResolver(cfg, eng)
		a, err := game.New(cfg, opts, composer, eng, res, true)
		if err != nil {
			slog.Error("failed to build app", "error", err)
			os.Exit(1)
		}
		defer a.Unload()

		slog.Info("starting headless run",
			"seed", rngSeed,
			"particles", cfg.Simulation.ParticleCount,
			"max_ticks", *maxTicks,
			"steps_per_update", *stepsPerUpdate,
		)

		for {
			a.UpdateHeadless()

			if *maxTicks > 0 && int(a.Tick()) >= *maxTicks {
				slog.Info("max ticks reached", "tick", a.Tick())
				return
			}
		}
	}

	// Graphical mode
	rl.InitWindow(int32(cfg.Screen.Width), int32(cfg.Screen.Height), "Voxfield")
	defer rl.CloseWindow()
	rl.SetTargetFPS(int32(cfg.Screen.TargetFPS))

	backend, cpuBackend := buildBackend(cfg, composer, *cpu, *shaderDir)
	eng := engine.New(cfg, composer, backend)
	res := buildResolver(cfg, eng)

	a, err := game.New(cfg, opts, composer, eng, res, cpuBackend)
	if err != nil {
		slog.Error("failed to build app", "error", err)
		os.Exit(1)
	}
	defer a.Unload()

	for !rl.WindowShouldClose() {
		a.Update()
		a.Draw()

		if *maxTicks > 0 && int(a.Tick()) >= *maxTicks {
			break
		}
	}
}

// buildBackend selects the GPU backend when enabled and available,
// falling back to the CPU loop otherwise.
func buildBackend(cfg *config.Config, composer *forces.Composer, forceCPU bool, shaderDir string) (engine.Backend, bool) {
	if forceCPU || !cfg.GPU.Enabled {
		return engine.NewCPUBackend(composer), true
	}
	gpu, err := engine.NewGPUBackend(cfg.GPU.StateTextureSize, shaderDir)
	if err != nil {
		slog.Warn("gpu backend unavailable, using cpu", "error", err)
		return engine.NewCPUBackend(composer), true
	}
	return gpu, false
}

// buildResolver assembles the cache, local table, and generation
// pipeline. Every external dependency is optional: without an API key
// there is no embedder and no hinter, without a server URL there are
// no generation backends. Resolution then degrades to cache + table.
func buildResolver(cfg *config.Config, eng *engine.Engine) *resolver.Resolver {
	ctx := context.Background()

	var persist cache.Persistent
	if cfg.Cache.DBPath != "" {
		store, err := cache.OpenSQLite(cfg.Cache.DBPath)
		if err != nil {
			slog.Warn("persistent cache unavailable, memory only", "path", cfg.Cache.DBPath, "error", err)
		} else {
			persist = store
		}
	}
	sc, err := cache.New(cfg.Cache.MemoryCapacity, persist)
	if err != nil {
		slog.Error("failed to build shape cache", "error", err)
		os.Exit(1)
	}

	apiKey := ""
	if cfg.Generation.APIKeyEnv != "" {
		apiKey = os.Getenv(cfg.Generation.APIKeyEnv)
	}

	var embedder embed.Embedder
	if apiKey != "" {
		e, err := embed.NewGenAI(ctx, apiKey, cfg.Generation.EmbedModel)
		if err != nil {
			slog.Warn("embedder unavailable, exact and alias matches only", "error", err)
		} else {
			embedder = e
		}
	}

	table, err := shape.NewTable(cfg.Shapes.PointCount, cfg.Shapes.SimilarityThreshold, cfg.Shapes.ManifestPath, embedder)
	if err != nil {
		slog.Error("failed to build shape table", "error", err)
		os.Exit(1)
	}

	pipe := &genpipe.Pipeline{
		MinParts:   cfg.Generation.MinParts,
		PointCount: cfg.Shapes.PointCount,
	}
	if cfg.Generation.ServerURL != "" {
		timeout := time.Duration(cfg.Generation.TimeoutSec * float64(time.Second))
		pipe.Primary = genpipe.NewPrimaryHTTP(cfg.Generation.ServerURL, timeout)
		pipe.Fallback = genpipe.NewFallbackHTTP(cfg.Generation.ServerURL, timeout)
	}
	if apiKey != "" {
		hinter, err := genpipe.NewGenAIHinter(ctx, apiKey, cfg.Generation.Model, cfg.Generation.MaxHints)
		if err != nil {
			slog.Warn("hinter unavailable, segmentation runs unhinted", "error", err)
		} else {
			pipe.Hinter = hinter
		}
	}

	return resolver.New(sc, table, pipe, cfg.Simulation.ParticleCount, eng.SetTarget)
}
