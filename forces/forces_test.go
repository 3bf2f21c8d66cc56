package forces

import (
	"math"
	"testing"

	"github.com/voxfield/voxfield/components"
	"github.com/voxfield/voxfield/config"
	"github.com/voxfield/voxfield/signal"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg, err := config.Load("")
	if err != nil {
		t.Fatalf("loading defaults: %v", err)
	}
	return cfg
}

func TestForceDeterministic(t *testing.T) {
	cfg := testConfig(t)
	c := NewComposer(42, cfg)

	u := signal.UniformFrame{
		Energy: 0.5, Urgency: 0.3, Pitch: 200,
		Emotion: "joy", EmotionalIntensity: 0.6,
		Time: 1.5, Delta: 1.0 / 60,
	}
	fp := c.FrameParams(u, true)

	p := components.Vec3{X: 0.4, Y: -0.2, Z: 1.1}
	v := components.Vec3{X: 0.1, Y: 0, Z: -0.3}
	target := components.Vec3{X: 1, Y: 1, Z: 1}

	f1 := c.Force(p, v, target, &fp)
	f2 := c.Force(p, v, target, &fp)
	if f1 != f2 {
		t.Errorf("Force not deterministic: %v vs %v", f1, f2)
	}
}

func TestSpringPullsTowardTarget(t *testing.T) {
	cfg := testConfig(t)
	// Isolate the spring by zeroing out the other terms.
	cfg.Forces.NoiseAmplitude = 0
	cfg.Forces.BreathAmplitude = 0
	cfg.Forces.DragCoefficient = 0
	c := NewComposer(1, cfg)

	u := signal.UniformFrame{Emotion: "neutral"}
	fp := c.FrameParams(u, true)

	p := components.Vec3{X: -1, Y: 0, Z: 0}
	target := components.Vec3{X: 1, Y: 0, Z: 0}
	f := c.Force(p, components.Vec3{}, target, &fp)

	if f.X <= 0 {
		t.Errorf("spring force X = %v, want > 0 (toward target)", f.X)
	}
	if math.Abs(float64(f.Y)) > 1e-5 || math.Abs(float64(f.Z)) > 1e-5 {
		t.Errorf("spring force off-axis: %v", f)
	}
}

func TestDragOpposesVelocity(t *testing.T) {
	cfg := testConfig(t)
	cfg.Forces.NoiseAmplitude = 0
	cfg.Forces.BreathAmplitude = 0
	cfg.Forces.SpringK = 0
	c := NewComposer(1, cfg)

	fp := c.FrameParams(signal.UniformFrame{Emotion: "neutral"}, true)
	v := components.Vec3{X: 2, Y: -1, Z: 0.5}
	f := c.Force(components.Vec3{}, v, components.Vec3{}, &fp)

	if f.Dot(v) >= 0 {
		t.Errorf("drag does not oppose velocity: f=%v v=%v", f, v)
	}
}

func TestRepulsionZeroOutsideRadius(t *testing.T) {
	cfg := testConfig(t)
	cfg.Forces.NoiseAmplitude = 0
	cfg.Forces.BreathAmplitude = 0
	cfg.Forces.SpringK = 0
	cfg.Forces.DragCoefficient = 0
	c := NewComposer(1, cfg)

	u := signal.UniformFrame{
		Emotion: "neutral",
		Pointer: signal.Pointer{WorldPos: components.Vec3{}, Active: true},
	}
	fp := c.FrameParams(u, true)

	inside := components.Vec3{X: fp.RepulsionRadius * 0.5}
	outside := components.Vec3{X: fp.RepulsionRadius * 2}

	fi := c.Force(inside, components.Vec3{}, inside, &fp)
	if fi.X <= 0 {
		t.Errorf("repulsion inside radius = %v, want push away (+X)", fi)
	}

	fo := c.Force(outside, components.Vec3{}, outside, &fp)
	if fo != (components.Vec3{}) {
		t.Errorf("repulsion outside radius = %v, want zero", fo)
	}
}

func TestBreathingFadesWithMorph(t *testing.T) {
	cfg := testConfig(t)
	c := NewComposer(1, cfg)

	// Pick a time with a non-trivial sin value.
	u := signal.UniformFrame{Emotion: "neutral", Time: 1.2}

	idle := c.FrameParams(u, false)
	morph := c.FrameParams(u, true)

	if idle.BreathTerm == 0 {
		t.Fatal("expected non-zero breath term at t=1.2")
	}
	want := idle.BreathTerm * float32(cfg.Forces.BreathMorphFactor)
	if math.Abs(float64(morph.BreathTerm-want)) > 1e-6 {
		t.Errorf("morph breath = %v, want %v", morph.BreathTerm, want)
	}
}

func TestOctave2GatedByTextureVariance(t *testing.T) {
	cfg := testConfig(t)
	c := NewComposer(1, cfg)

	low := c.FrameParams(signal.UniformFrame{Emotion: "neutral", TextureVariance: 0.1}, true)
	if low.Octave2 {
		t.Error("octave 2 active below threshold")
	}

	high := c.FrameParams(signal.UniformFrame{Emotion: "neutral", TextureVariance: 0.9}, true)
	if !high.Octave2 {
		t.Error("octave 2 inactive above threshold")
	}
	if high.Oct2Freq <= high.NoiseFreq {
		t.Errorf("octave 2 freq %v not above base %v", high.Oct2Freq, high.NoiseFreq)
	}
}

func TestPitchStiffensSpring(t *testing.T) {
	cfg := testConfig(t)
	c := NewComposer(1, cfg)

	lowPitch := c.FrameParams(signal.UniformFrame{Emotion: "neutral", Pitch: 0}, true)
	highPitch := c.FrameParams(signal.UniformFrame{Emotion: "neutral", Pitch: float32(cfg.Forces.PitchRef)}, true)

	if highPitch.SpringK <= lowPitch.SpringK {
		t.Errorf("spring k at high pitch %v not above low pitch %v", highPitch.SpringK, lowPitch.SpringK)
	}
}
