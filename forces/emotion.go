package forces

import (
	"github.com/voxfield/voxfield/components"
	"github.com/voxfield/voxfield/config"
)

// Profile is the set of force-coefficient scalars selected by the
// dominant emotion. Profiles blend continuously with intensity so a
// classification flip never pops visually.
type Profile struct {
	Spring float32
	Drag   float32
	Noise  float32
}

var neutralProfile = Profile{Spring: 1, Drag: 1, Noise: 1}

// ProfileSet holds the configured emotion profiles and the blend curve.
type ProfileSet struct {
	profiles map[string]Profile
	eased    bool
}

// NewProfileSet builds the profile set from config. Unknown emotions
// resolve to neutral at lookup time.
func NewProfileSet(cfg *config.EmotionsConfig) *ProfileSet {
	ps := &ProfileSet{
		profiles: make(map[string]Profile, len(cfg.Profiles)),
		eased:    cfg.Curve != "linear",
	}
	for name, p := range cfg.Profiles {
		ps.profiles[name] = Profile{
			Spring: float32(p.SpringScale),
			Drag:   float32(p.DragScale),
			Noise:  float32(p.NoiseScale),
		}
	}
	if _, ok := ps.profiles["neutral"]; !ok {
		ps.profiles["neutral"] = neutralProfile
	}
	return ps
}

// For returns the blended profile for the given emotion and intensity.
// Intensity 0 is fully neutral, 1 is the full emotion profile.
func (ps *ProfileSet) For(emotion string, intensity float32) Profile {
	target, ok := ps.profiles[emotion]
	if !ok {
		target = ps.profiles["neutral"]
	}
	base := ps.profiles["neutral"]

	t := components.Clamp01(intensity)
	if ps.eased {
		t = components.Smoothstep(t)
	}

	return Profile{
		Spring: components.Lerp(base.Spring, target.Spring, t),
		Drag:   components.Lerp(base.Drag, target.Drag, t),
		Noise:  components.Lerp(base.Noise, target.Noise, t),
	}
}

// Eased reports whether intensity blending uses the smoothstep curve.
func (ps *ProfileSet) Eased() bool {
	return ps.eased
}

// SetEased switches between linear and smoothstep intensity blending.
func (ps *ProfileSet) SetEased(eased bool) {
	ps.eased = eased
}
