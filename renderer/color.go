package renderer

import (
	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/voxfield/voxfield/components"
	"github.com/voxfield/voxfield/signal"
)

// Palette is the per-frame color set. It is computed once per frame
// from the uniform snapshot; every particle in the frame shares it.
type Palette struct {
	Core       rl.Color
	Glow       rl.Color
	Background rl.Color
}

// FramePalette maps a uniform frame to a palette, dispatching on the
// active color mode.
func FramePalette(u signal.UniformFrame) Palette {
	switch u.ColorMode {
	case signal.SentimentMode:
		return sentimentPalette(u)
	default:
		return tonePalette(u)
	}
}

// toneHue maps pitch to a hue sweep from deep blue (low) through cyan
// to warm amber (high). pitchRef is the Hz value mapped to the top of
// the sweep; zero pitch (silence) sits at the cold end.
func toneHue(pitchHz float32) float32 {
	const pitchRef = 520.0
	t := components.Clamp01(pitchHz / pitchRef)
	// 225 (blue) down to 35 (amber)
	return 225 - 190*t
}

// toneSatVal derives saturation from tension and brightness from energy.
func toneSatVal(tension, energy float32) (sat, val float32) {
	sat = 0.45 + 0.45*components.Clamp01(tension)
	val = 0.55 + 0.45*components.Clamp01(energy)
	return sat, val
}

func tonePalette(u signal.UniformFrame) Palette {
	hue := toneHue(u.Pitch)
	sat, val := toneSatVal(u.Tension, u.Energy)

	core := rl.ColorFromHSV(hue, sat, val)
	glow := rl.ColorFromHSV(hue, sat*0.6, val)
	glow.A = 70
	bg := rl.ColorFromHSV(hue, 0.35, 0.05)

	return Palette{Core: core, Glow: glow, Background: bg}
}

// sentimentHue maps valence in [-1,1] to a cold/warm sweep: negative
// valence is cold blue-violet, positive is warm amber.
func sentimentHue(valence float32) float32 {
	v := components.Clamp32(valence, -1, 1)
	// -1 -> 250 (violet), 0 -> 150 (green), +1 -> 40 (amber)
	return 150 - 105*v - 5*v*v
}

func sentimentPalette(u signal.UniformFrame) Palette {
	hue := sentimentHue(u.Sentiment)
	intensity := components.Clamp01(u.EmotionalIntensity)
	sat := 0.35 + 0.55*intensity
	val := 0.55 + 0.40*intensity

	core := rl.ColorFromHSV(hue, sat, val)
	glow := rl.ColorFromHSV(hue, sat*0.6, val)
	glow.A = 70
	bg := rl.ColorFromHSV(hue, 0.30, 0.05)

	return Palette{Core: core, Glow: glow, Background: bg}
}
