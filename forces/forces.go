// Package forces computes the per-particle acceleration from the
// per-frame parameter snapshot: spring toward the morph target, curl
// noise turbulence, viscous drag, pointer repulsion, and idle breathing,
// with emotion profiles modulating the coefficients.
package forces

import (
	"math"

	"github.com/voxfield/voxfield/components"
	"github.com/voxfield/voxfield/config"
	"github.com/voxfield/voxfield/signal"
)

// Composer evaluates force contributions. It is pure over its inputs:
// the same FrameParams and particle state always produce the same force.
type Composer struct {
	curl     *CurlField
	profiles *ProfileSet

	springK         float32
	springPitchGain float32
	pitchRef        float32

	noiseAmp         float32
	noiseFreq        float32
	noiseTimeRate    float32
	noiseUrgencyGain float32
	oct2Threshold    float32
	oct2FreqMult     float32
	oct2Amp          float32

	dragC           float32
	dragBreathiness float32

	repulsionStrength float32
	repulsionRadius   float32

	breathAmp         float32
	breathFreq        float32
	breathMorphFactor float32
}

// NewComposer creates a composer seeded deterministically for the curl
// field, with coefficients read once from cfg.
func NewComposer(seed int64, cfg *config.Config) *Composer {
	f := &cfg.Forces
	return &Composer{
		curl:     NewCurlField(seed),
		profiles: NewProfileSet(&cfg.Emotions),

		springK:         float32(f.SpringK),
		springPitchGain: float32(f.SpringPitchGain),
		pitchRef:        float32(f.PitchRef),

		noiseAmp:         float32(f.NoiseAmplitude),
		noiseFreq:        float32(f.NoiseFrequency),
		noiseTimeRate:    float32(f.NoiseTimeRate),
		noiseUrgencyGain: float32(f.NoiseUrgencyGain),
		oct2Threshold:    float32(f.Octave2Threshold),
		oct2FreqMult:     float32(f.Octave2FreqMult),
		oct2Amp:          float32(f.Octave2Amp),

		dragC:           float32(f.DragCoefficient),
		dragBreathiness: float32(f.DragBreathiness),

		repulsionStrength: float32(f.RepulsionStrength),
		repulsionRadius:   float32(f.RepulsionRadius),

		breathAmp:         float32(f.BreathAmplitude),
		breathFreq:        float32(f.BreathFrequency),
		breathMorphFactor: float32(f.BreathMorphFactor),
	}
}

// FrameParams holds the per-tick force coefficients, resolved once from
// the uniform frame so the per-particle loop only does arithmetic.
type FrameParams struct {
	SpringK float32

	NoiseAmp  float32
	NoiseFreq float32
	NoiseTime float32
	Octave2   bool
	Oct2Freq  float32
	Oct2Amp   float32

	DragC float32

	RepulsionActive   bool
	RepulsionCenter   components.Vec3
	RepulsionRadius   float32
	RepulsionStrength float32

	// BreathTerm is amplitude * sin(time * frequency), already faded by
	// the morph factor when a target is engaged. Frame-constant.
	BreathTerm float32
}

// FrameParams resolves the tick's coefficients from the snapshot.
// hasMorph reports whether a morph target (other than the idle ring) is
// currently committed.
func (c *Composer) FrameParams(u signal.UniformFrame, hasMorph bool) FrameParams {
	prof := c.profiles.For(u.Emotion, u.EmotionalIntensity)

	// Pitch stiffens the spring: normalized against the reference pitch.
	pitchNorm := float32(0)
	if c.pitchRef > 0 {
		pitchNorm = components.Clamp01(u.Pitch / c.pitchRef)
	}
	springK := c.springK * (1 + c.springPitchGain*pitchNorm) * prof.Spring

	// Urgency drives turbulence amplitude; texture variance layers in a
	// second octave once past the threshold.
	noiseAmp := c.noiseAmp * (1 + c.noiseUrgencyGain*u.Urgency) * prof.Noise
	octave2 := u.TextureVariance > c.oct2Threshold

	// Breathiness thins the air.
	dragC := c.dragC * (1 - c.dragBreathiness*u.Breathiness*0.5) * prof.Drag
	if dragC < 0 {
		dragC = 0
	}

	breath := c.breathAmp * float32(math.Sin(float64(u.Time)*float64(c.breathFreq)))
	if hasMorph {
		breath *= c.breathMorphFactor
	}

	return FrameParams{
		SpringK: springK,

		NoiseAmp:  noiseAmp,
		NoiseFreq: c.noiseFreq,
		NoiseTime: u.Time * c.noiseTimeRate,
		Octave2:   octave2,
		Oct2Freq:  c.noiseFreq * c.oct2FreqMult,
		Oct2Amp:   noiseAmp * c.oct2Amp * u.TextureVariance,

		DragC: dragC,

		RepulsionActive:   u.Pointer.Active,
		RepulsionCenter:   u.Pointer.WorldPos,
		RepulsionRadius:   c.repulsionRadius,
		RepulsionStrength: c.repulsionStrength,

		BreathTerm: breath,
	}
}

// Force returns the total acceleration on one particle at position p
// with velocity v being pulled toward target.
func (c *Composer) Force(p, v, target components.Vec3, fp *FrameParams) components.Vec3 {
	// Spring toward the assigned morph point.
	total := target.Sub(p).Scale(fp.SpringK)

	// Divergence-free turbulence.
	n := c.curl.Eval(p, fp.NoiseFreq, fp.NoiseTime).Scale(fp.NoiseAmp)
	total = total.Add(n)
	if fp.Octave2 {
		n2 := c.curl.Eval(p, fp.Oct2Freq, fp.NoiseTime).Scale(fp.Oct2Amp)
		total = total.Add(n2)
	}

	// Viscous drag.
	total = total.Add(v.Scale(-fp.DragC))

	// Pointer repulsion: inverse falloff inside the radius, zero outside.
	if fp.RepulsionActive {
		d := p.Sub(fp.RepulsionCenter)
		r := d.Length()
		if r < fp.RepulsionRadius {
			falloff := 1 - r/fp.RepulsionRadius
			// Floor keeps the push finite when the pointer sits on a particle.
			mag := fp.RepulsionStrength * falloff / (r + 0.05)
			total = total.Add(d.Normalized().Scale(mag))
		}
	}

	// Radial breathing.
	total = total.Add(p.Normalized().Scale(fp.BreathTerm))

	return total
}

// Tuning is the runtime-adjustable coefficient subset exposed to the
// tuning panel. Adjust only between ticks, from the frame goroutine.
type Tuning struct {
	SpringK           float32
	NoiseAmplitude    float32
	DragCoefficient   float32
	RepulsionStrength float32
	BreathAmplitude   float32
	EasedCurve        bool
}

// Tuning returns the current adjustable coefficients.
func (c *Composer) Tuning() Tuning {
	return Tuning{
		SpringK:           c.springK,
		NoiseAmplitude:    c.noiseAmp,
		DragCoefficient:   c.dragC,
		RepulsionStrength: c.repulsionStrength,
		BreathAmplitude:   c.breathAmp,
		EasedCurve:        c.profiles.Eased(),
	}
}

// SetTuning applies adjusted coefficients.
func (c *Composer) SetTuning(t Tuning) {
	c.springK = t.SpringK
	c.noiseAmp = t.NoiseAmplitude
	c.dragC = t.DragCoefficient
	c.repulsionStrength = t.RepulsionStrength
	c.breathAmp = t.BreathAmplitude
	c.profiles.SetEased(t.EasedCurve)
}
