// Package renderer draws the particle field as camera-facing point
// sprites. It reads the engine's front buffer and never mutates
// simulation state.
package renderer

import (
	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/voxfield/voxfield/components"
	"github.com/voxfield/voxfield/engine"
	"github.com/voxfield/voxfield/signal"
)

const spriteTexSize = 64

// ParticleRenderer draws particles as additive-blended billboards with
// a radial falloff sprite (bright core, soft glow).
type ParticleRenderer struct {
	sprite      rl.Texture2D
	src         rl.Rectangle
	coreSize    float32
	glowSize    float32
	initialized bool
}

// NewParticleRenderer creates a particle renderer. coreSize is the
// world-space billboard edge for the core sprite; the glow layer is
// drawn at a fixed multiple of it.
func NewParticleRenderer(coreSize float32) *ParticleRenderer {
	if coreSize <= 0 {
		coreSize = 0.12
	}
	return &ParticleRenderer{
		coreSize: coreSize,
		glowSize: coreSize * 3.2,
	}
}

// Init builds the sprite texture (must be called after the raylib
// window is created).
func (r *ParticleRenderer) Init() {
	if r.initialized {
		return
	}

	img := rl.GenImageGradientRadial(spriteTexSize, spriteTexSize, 0.1, rl.White, rl.Blank)
	r.sprite = rl.LoadTextureFromImage(img)
	rl.UnloadImage(img)
	rl.SetTextureFilter(r.sprite, rl.FilterBilinear)

	r.src = rl.NewRectangle(0, 0, spriteTexSize, spriteTexSize)
	r.initialized = true
}

// Draw renders the front buffer. Must be called inside BeginMode3D.
// Energy swells the sprites slightly so loud passages read brighter
// even at constant particle count.
func (r *ParticleRenderer) Draw(cam rl.Camera3D, buf *engine.Buffers, u signal.UniformFrame) {
	if !r.initialized {
		r.Init()
	}

	pal := FramePalette(u)
	swell := 0.85 + 0.35*components.Clamp01(u.Energy)
	core := rl.NewVector2(r.coreSize*swell, r.coreSize*swell)
	glow := rl.NewVector2(r.glowSize*swell, r.glowSize*swell)

	rl.BeginBlendMode(rl.BlendAdditive)

	for i := range buf.PosX {
		pos := rl.NewVector3(buf.PosX[i], buf.PosY[i], buf.PosZ[i])
		rl.DrawBillboardRec(cam, r.sprite, r.src, pos, glow, pal.Glow)
		rl.DrawBillboardRec(cam, r.sprite, r.src, pos, core, pal.Core)
	}

	rl.EndBlendMode()
}

// Unload frees the sprite texture.
func (r *ParticleRenderer) Unload() {
	if r.initialized {
		rl.UnloadTexture(r.sprite)
		r.initialized = false
	}
}
