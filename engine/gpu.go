package engine

import (
	"fmt"
	"image/color"
	"math"

	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/voxfield/voxfield/components"
	"github.com/voxfield/voxfield/forces"
)

// GPUBackend integrates particles in fragment shaders. State lives in
// ping-pong render textures; each float32 component is bit-packed into
// one RGBA8 texel so the round trip through the texture is exact.
//
// Layout: a side x side grid of particles, three texels per particle
// per texture (x, y, z columns interleaved), one texture for positions
// and one for velocities. Two passes per tick: velocity first, then
// position from the fresh velocities, matching the semi-implicit Euler
// order of the CPU backend.
type GPUBackend struct {
	side  int // particle grid side
	texW  int // side * 3 texels
	count int

	velShader rl.Shader
	posShader rl.Shader

	// Ping-pong state textures indexed by current.
	pos     [2]rl.RenderTexture2D
	vel     [2]rl.RenderTexture2D
	current int

	target     rl.Texture2D
	lastTarget *Targets // target set currently uploaded; compared by identity

	uniforms gpuUniforms
	scratch  []color.RGBA
	seeded   bool
}

// gpuUniforms caches shader locations resolved once at load.
type gpuUniforms struct {
	velDT, velSpringK               int32
	velNoiseAmp, velNoiseFreq       int32
	velNoiseTime, velOct2           int32
	velOct2Freq, velOct2Amp         int32
	velDragC, velRepulsion          int32
	velRepulsionCenter              int32
	velRepulsionRadius              int32
	velBreath, velSide              int32
	velPosTex, velVelTex, velTgtTex int32
	posDT, posSide, posPosTex       int32
	posVelTex                       int32
}

// NewGPUBackend loads the step shaders and allocates state textures.
// Requires an open window (raylib context).
func NewGPUBackend(side int, shaderDir string) (*GPUBackend, error) {
	b := &GPUBackend{
		side:    side,
		texW:    side * 3,
		count:   side * side,
		scratch: make([]color.RGBA, side*3*side),
	}

	b.velShader = rl.LoadShader("", shaderDir+"/particle_velocity.fs")
	b.posShader = rl.LoadShader("", shaderDir+"/particle_position.fs")
	if b.velShader.ID == 0 || b.posShader.ID == 0 {
		b.Close()
		return nil, fmt.Errorf("particle step shaders failed to load from %s", shaderDir)
	}

	u := &b.uniforms
	u.velDT = rl.GetShaderLocation(b.velShader, "dt")
	u.velSpringK = rl.GetShaderLocation(b.velShader, "springK")
	u.velNoiseAmp = rl.GetShaderLocation(b.velShader, "noiseAmp")
	u.velNoiseFreq = rl.GetShaderLocation(b.velShader, "noiseFreq")
	u.velNoiseTime = rl.GetShaderLocation(b.velShader, "noiseTime")
	u.velOct2 = rl.GetShaderLocation(b.velShader, "octave2")
	u.velOct2Freq = rl.GetShaderLocation(b.velShader, "oct2Freq")
	u.velOct2Amp = rl.GetShaderLocation(b.velShader, "oct2Amp")
	u.velDragC = rl.GetShaderLocation(b.velShader, "dragC")
	u.velRepulsion = rl.GetShaderLocation(b.velShader, "repulsionActive")
	u.velRepulsionCenter = rl.GetShaderLocation(b.velShader, "repulsionCenter")
	u.velRepulsionRadius = rl.GetShaderLocation(b.velShader, "repulsionRadius")
	u.velBreath = rl.GetShaderLocation(b.velShader, "breathTerm")
	u.velSide = rl.GetShaderLocation(b.velShader, "gridSide")
	u.velPosTex = rl.GetShaderLocation(b.velShader, "posTex")
	u.velVelTex = rl.GetShaderLocation(b.velShader, "velTex")
	u.velTgtTex = rl.GetShaderLocation(b.velShader, "targetTex")
	u.posDT = rl.GetShaderLocation(b.posShader, "dt")
	u.posSide = rl.GetShaderLocation(b.posShader, "gridSide")
	u.posPosTex = rl.GetShaderLocation(b.posShader, "posTex")
	u.posVelTex = rl.GetShaderLocation(b.posShader, "velTex")

	for i := 0; i < 2; i++ {
		b.pos[i] = rl.LoadRenderTexture(int32(b.texW), int32(side))
		b.vel[i] = rl.LoadRenderTexture(int32(b.texW), int32(side))
	}

	// The target texture is plain (not a render target); it is only
	// ever written from the CPU when a new morph target commits.
	img := rl.GenImageColor(b.texW, side, rl.Black)
	b.target = rl.LoadTextureFromImage(img)
	rl.UnloadImage(img)

	return b, nil
}

func (b *GPUBackend) Name() string { return "gpu" }

// targetChanged reports whether t must be uploaded to the target
// texture. Target sets are immutable and swapped by pointer, so
// identity is the key; the concept name is not, since the idle ring
// shares the empty concept with a fresh backend. The first tick always
// uploads, replacing the zeroed texture with the idle ring.
func (b *GPUBackend) targetChanged(t *Targets) bool {
	return t != b.lastTarget
}

// packInto encodes a float32 SoA triple into interleaved packed texels.
// Rows are mirrored because render targets are bottom-up in texture
// memory; mirroring uploads too keeps texelFetch on one convention.
// The grid may be larger than the particle buffers (the side is rounded
// up to a power of two), so the tail texels stay zeroed.
func (b *GPUBackend) packInto(dst []color.RGBA, x, y, z []float32) {
	for i := range dst {
		dst[i] = color.RGBA{}
	}
	n := min(b.count, len(x))
	for i := 0; i < n; i++ {
		row := b.side - 1 - i/b.side
		col := (i % b.side) * 3
		base := row*b.texW + col
		dst[base+0] = packFloat(x[i])
		dst[base+1] = packFloat(y[i])
		dst[base+2] = packFloat(z[i])
	}
}

func packFloat(v float32) color.RGBA {
	bits := math.Float32bits(v)
	return color.RGBA{
		R: uint8(bits),
		G: uint8(bits >> 8),
		B: uint8(bits >> 16),
		A: uint8(bits >> 24),
	}
}

func unpackFloat(c color.RGBA) float32 {
	bits := uint32(c.R) | uint32(c.G)<<8 | uint32(c.B)<<16 | uint32(c.A)<<24
	return math.Float32frombits(bits)
}

// upload writes packed CPU state into a state texture.
func (b *GPUBackend) upload(tex rl.Texture2D, x, y, z []float32) {
	b.packInto(b.scratch, x, y, z)
	rl.UpdateTexture(tex, b.scratch)
}

// Step runs the two shader passes and reads the result back into dst.
// src is uploaded on the first tick only; afterwards the textures are
// authoritative and src is assumed to mirror the previous readback.
func (b *GPUBackend) Step(src, dst *Buffers, t *Targets, fp *forces.FrameParams, dt float32) int {
	if !b.seeded {
		b.upload(b.pos[b.current].Texture, src.PosX, src.PosY, src.PosZ)
		b.upload(b.vel[b.current].Texture, src.VelX, src.VelY, src.VelZ)
		b.seeded = true
	}
	if b.targetChanged(t) {
		b.upload(b.target, t.X, t.Y, t.Z)
		b.lastTarget = t
	}

	cur, next := b.current, 1-b.current

	// Pass 1: velocities from the composed force.
	rl.BeginTextureMode(b.vel[next])
	rl.BeginShaderMode(b.velShader)
	u := &b.uniforms
	rl.SetShaderValue(b.velShader, u.velDT, []float32{dt}, rl.ShaderUniformFloat)
	rl.SetShaderValue(b.velShader, u.velSpringK, []float32{fp.SpringK}, rl.ShaderUniformFloat)
	rl.SetShaderValue(b.velShader, u.velNoiseAmp, []float32{fp.NoiseAmp}, rl.ShaderUniformFloat)
	rl.SetShaderValue(b.velShader, u.velNoiseFreq, []float32{fp.NoiseFreq}, rl.ShaderUniformFloat)
	rl.SetShaderValue(b.velShader, u.velNoiseTime, []float32{fp.NoiseTime}, rl.ShaderUniformFloat)
	oct2 := float32(0)
	if fp.Octave2 {
		oct2 = 1
	}
	rl.SetShaderValue(b.velShader, u.velOct2, []float32{oct2}, rl.ShaderUniformFloat)
	rl.SetShaderValue(b.velShader, u.velOct2Freq, []float32{fp.Oct2Freq}, rl.ShaderUniformFloat)
	rl.SetShaderValue(b.velShader, u.velOct2Amp, []float32{fp.Oct2Amp}, rl.ShaderUniformFloat)
	rl.SetShaderValue(b.velShader, u.velDragC, []float32{fp.DragC}, rl.ShaderUniformFloat)
	rep := float32(0)
	if fp.RepulsionActive {
		rep = 1
	}
	rl.SetShaderValue(b.velShader, u.velRepulsion, []float32{rep}, rl.ShaderUniformFloat)
	rl.SetShaderValue(b.velShader, u.velRepulsionCenter,
		[]float32{fp.RepulsionCenter.X, fp.RepulsionCenter.Y, fp.RepulsionCenter.Z}, rl.ShaderUniformVec3)
	rl.SetShaderValue(b.velShader, u.velRepulsionRadius,
		[]float32{fp.RepulsionRadius, fp.RepulsionStrength}, rl.ShaderUniformVec2)
	rl.SetShaderValue(b.velShader, u.velBreath, []float32{fp.BreathTerm}, rl.ShaderUniformFloat)
	rl.SetShaderValue(b.velShader, u.velSide, []float32{float32(b.side)}, rl.ShaderUniformFloat)
	rl.SetShaderValueTexture(b.velShader, u.velPosTex, b.pos[cur].Texture)
	rl.SetShaderValueTexture(b.velShader, u.velVelTex, b.vel[cur].Texture)
	rl.SetShaderValueTexture(b.velShader, u.velTgtTex, b.target)
	rl.DrawRectangle(0, 0, int32(b.texW), int32(b.side), rl.White)
	rl.EndShaderMode()
	rl.EndTextureMode()

	// Pass 2: positions from the fresh velocities.
	rl.BeginTextureMode(b.pos[next])
	rl.BeginShaderMode(b.posShader)
	rl.SetShaderValue(b.posShader, u.posDT, []float32{dt}, rl.ShaderUniformFloat)
	rl.SetShaderValue(b.posShader, u.posSide, []float32{float32(b.side)}, rl.ShaderUniformFloat)
	rl.SetShaderValueTexture(b.posShader, u.posPosTex, b.pos[cur].Texture)
	rl.SetShaderValueTexture(b.posShader, u.posVelTex, b.vel[next].Texture)
	rl.DrawRectangle(0, 0, int32(b.texW), int32(b.side), rl.White)
	rl.EndShaderMode()
	rl.EndTextureMode()

	b.current = next
	return b.readback(dst, t)
}

// readback copies both state textures to dst, healing non-finite
// particles both in dst and in the texture copy used next tick.
func (b *GPUBackend) readback(dst *Buffers, t *Targets) int {
	readTexture := func(tex rl.Texture2D, x, y, z []float32) {
		img := rl.LoadImageFromTexture(tex)
		defer rl.UnloadImage(img)
		colors := rl.LoadImageColors(img)
		defer rl.UnloadImageColors(colors)
		n := min(b.count, len(x))
		for i := 0; i < n; i++ {
			row := b.side - 1 - i/b.side
			base := row*b.texW + (i%b.side)*3
			x[i] = unpackFloat(colors[base+0])
			y[i] = unpackFloat(colors[base+1])
			z[i] = unpackFloat(colors[base+2])
		}
	}
	readTexture(b.pos[b.current].Texture, dst.PosX, dst.PosY, dst.PosZ)
	readTexture(b.vel[b.current].Texture, dst.VelX, dst.VelY, dst.VelZ)

	healed := 0
	for i := range dst.PosX {
		if components.IsFinite32(dst.PosX[i]) && components.IsFinite32(dst.PosY[i]) &&
			components.IsFinite32(dst.PosZ[i]) && components.IsFinite32(dst.VelX[i]) &&
			components.IsFinite32(dst.VelY[i]) && components.IsFinite32(dst.VelZ[i]) {
			continue
		}
		dst.PosX[i], dst.PosY[i], dst.PosZ[i] = t.X[i], t.Y[i], t.Z[i]
		dst.VelX[i], dst.VelY[i], dst.VelZ[i] = 0, 0, 0
		healed++
	}
	if healed > 0 {
		// Push the healed state back so the fault does not persist in
		// the texture copy.
		b.upload(b.pos[b.current].Texture, dst.PosX, dst.PosY, dst.PosZ)
		b.upload(b.vel[b.current].Texture, dst.VelX, dst.VelY, dst.VelZ)
	}
	return healed
}

// Close releases GPU resources.
func (b *GPUBackend) Close() {
	rl.UnloadShader(b.velShader)
	rl.UnloadShader(b.posShader)
	for i := 0; i < 2; i++ {
		rl.UnloadRenderTexture(b.pos[i])
		rl.UnloadRenderTexture(b.vel[i])
	}
	rl.UnloadTexture(b.target)
}
