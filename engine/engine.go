// Package engine owns the double-buffered particle state and advances
// it once per frame. The tick is defensively total: bad deltas skip the
// frame, non-finite particles are reset in place, and the morph target
// slot is swapped atomically so a tick never observes a partial write.
package engine

import (
	"sync/atomic"

	"github.com/voxfield/voxfield/components"
	"github.com/voxfield/voxfield/config"
	"github.com/voxfield/voxfield/forces"
	"github.com/voxfield/voxfield/shape"
	"github.com/voxfield/voxfield/signal"
)

// Buffers is one copy of particle state, struct-of-arrays.
type Buffers struct {
	PosX, PosY, PosZ []float32
	VelX, VelY, VelZ []float32
}

func newBuffers(n int) *Buffers {
	return &Buffers{
		PosX: make([]float32, n), PosY: make([]float32, n), PosZ: make([]float32, n),
		VelX: make([]float32, n), VelY: make([]float32, n), VelZ: make([]float32, n),
	}
}

// Targets is the committed morph target flattened for the backend.
// Instances are immutable after construction; the engine publishes them
// through an atomic pointer.
type Targets struct {
	Concept  string
	X, Y, Z  []float32
	PartIDs  []int32
	HasMorph bool
}

// Backend advances one tick from src into dst. It must not retain the
// arguments past the call and must not allocate per particle. The
// return value is the number of particles reset after producing a
// non-finite position or velocity.
type Backend interface {
	Step(src, dst *Buffers, t *Targets, fp *forces.FrameParams, dt float32) int
	Name() string
	Close()
}

// Counters is a snapshot of tick accounting for telemetry.
type Counters struct {
	Ticks   uint64 // completed ticks
	Skipped uint64 // ticks dropped for a non-positive or non-finite delta
	Clamped uint64 // ticks whose delta hit the clamp
	Healed  uint64 // particles reset after a numeric fault
}

// Engine is the simulation core. Step is single-threaded (one caller,
// the frame driver); SetTarget may be called from any goroutine.
type Engine struct {
	n        int
	deltaMax float32
	composer *forces.Composer
	backend  Backend

	buffers [2]*Buffers
	front   int

	idle   *Targets
	target atomic.Pointer[Targets]

	ticks   atomic.Uint64
	skipped atomic.Uint64
	clamped atomic.Uint64
	healed  atomic.Uint64
}

// New builds an engine with particles seeded on the idle ring. The
// idle ring is also the default spring target until a concept commits.
func New(cfg *config.Config, composer *forces.Composer, backend Backend) *Engine {
	n := cfg.Simulation.ParticleCount
	e := &Engine{
		n:        n,
		deltaMax: cfg.Derived.DeltaMax32,
		composer: composer,
		backend:  backend,
		buffers:  [2]*Buffers{newBuffers(n), newBuffers(n)},
	}

	idle := shape.IdleRing(n, cfg.Derived.IdleRadius32)
	e.idle = flatten(idle, false)
	e.target.Store(e.idle)
	seed := e.buffers[0]
	for i, p := range idle.Points {
		seed.PosX[i], seed.PosY[i], seed.PosZ[i] = p.Position.X, p.Position.Y, p.Position.Z
	}
	copyBuffers(e.buffers[1], seed)
	return e
}

// flatten converts a morph target into the backend layout.
func flatten(m *shape.MorphTarget, hasMorph bool) *Targets {
	t := &Targets{
		Concept:  m.Concept,
		X:        make([]float32, m.Len()),
		Y:        make([]float32, m.Len()),
		Z:        make([]float32, m.Len()),
		PartIDs:  make([]int32, m.Len()),
		HasMorph: hasMorph,
	}
	for i, p := range m.Points {
		t.X[i], t.Y[i], t.Z[i] = p.Position.X, p.Position.Y, p.Position.Z
		t.PartIDs[i] = p.PartID
	}
	return t
}

func copyBuffers(dst, src *Buffers) {
	copy(dst.PosX, src.PosX)
	copy(dst.PosY, src.PosY)
	copy(dst.PosZ, src.PosZ)
	copy(dst.VelX, src.VelX)
	copy(dst.VelY, src.VelY)
	copy(dst.VelZ, src.VelZ)
}

// SetTarget commits a morph target. The target must already be sized
// to the particle count; anything else is resampled here as a guard.
func (e *Engine) SetTarget(m *shape.MorphTarget) {
	if m == nil || m.Len() == 0 {
		e.ClearIdle()
		return
	}
	if m.Len() != e.n {
		m = shape.Resample(m, e.n)
	}
	e.target.Store(flatten(m, true))
}

// ClearIdle drops back to the idle ring target.
func (e *Engine) ClearIdle() {
	e.target.Store(e.idle)
}

// Step advances one tick. A non-positive or non-finite delta skips the
// tick and retains prior state; an oversized delta is clamped.
func (e *Engine) Step(u signal.UniformFrame) {
	dt := u.Delta
	if dt <= 0 || !components.IsFinite32(dt) {
		e.skipped.Add(1)
		return
	}
	if dt > e.deltaMax {
		dt = e.deltaMax
		e.clamped.Add(1)
	}

	t := e.target.Load()
	fp := e.composer.FrameParams(u, t.HasMorph)

	src := e.buffers[e.front]
	dst := e.buffers[1-e.front]
	healed := e.backend.Step(src, dst, t, &fp, dt)
	if healed > 0 {
		e.healed.Add(uint64(healed))
	}

	e.front = 1 - e.front
	e.ticks.Add(1)
}

// Front returns the buffer holding the latest completed tick. The
// renderer reads it while the next tick writes the other buffer.
func (e *Engine) Front() *Buffers {
	return e.buffers[e.front]
}

// Target returns the committed target set, never nil.
func (e *Engine) Target() *Targets {
	return e.target.Load()
}

// Len returns the particle count.
func (e *Engine) Len() int {
	return e.n
}

// Counters snapshots tick accounting.
func (e *Engine) Counters() Counters {
	return Counters{
		Ticks:   e.ticks.Load(),
		Skipped: e.skipped.Load(),
		Clamped: e.clamped.Load(),
		Healed:  e.healed.Load(),
	}
}

// Close releases the backend.
func (e *Engine) Close() {
	e.backend.Close()
}
