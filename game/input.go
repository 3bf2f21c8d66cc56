package game

import (
	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/voxfield/voxfield/components"
	"github.com/voxfield/voxfield/signal"
)

const (
	orbitSensitivity = 0.005
	dollyStep        = 0.92
)

// handleInput processes camera, pointer, and panel toggles.
func (a *App) handleInput() {
	// Orbit with right-drag, dolly with the wheel.
	if rl.IsMouseButtonDown(rl.MouseRightButton) {
		d := rl.GetMouseDelta()
		a.orbit.Rotate(-d.X*orbitSensitivity, d.Y*orbitSensitivity)
	}
	if wheel := rl.GetMouseWheelMove(); wheel != 0 {
		factor := float32(1)
		for i := float32(0); i < wheel; i++ {
			factor *= dollyStep
		}
		for i := float32(0); i > wheel; i-- {
			factor /= dollyStep
		}
		a.orbit.Dolly(factor)
	}

	// Left button projects the pointer into the field for repulsion.
	if rl.IsMouseButtonDown(rl.MouseLeftButton) {
		if world, ok := a.pointerWorld(); ok {
			a.aggregator.SetPointer(signal.Pointer{WorldPos: world, Active: true})
		}
	} else {
		a.aggregator.SetPointer(signal.Pointer{})
	}

	switch {
	case rl.IsKeyPressed(rl.KeySpace):
		a.paused = !a.paused
	case rl.IsKeyPressed(rl.KeyTab):
		a.tuning.Toggle()
	case rl.IsKeyPressed(rl.KeyF1):
		a.hud.Toggle()
	case rl.IsKeyPressed(rl.KeyC):
		a.concept = ""
		a.engine.ClearIdle()
	case rl.IsKeyPressed(rl.KeyM):
		if a.aggregator.ColorMode() == signal.ToneMode {
			a.aggregator.SetColorMode(signal.SentimentMode)
		} else {
			a.aggregator.SetColorMode(signal.ToneMode)
		}
	case rl.IsKeyPressed(rl.KeyR):
		a.orbit.Reset(float32(a.cfg.Simulation.WorldRadius))
	}
}

// pointerWorld casts the mouse ray against the camera focus plane.
func (a *App) pointerWorld() (components.Vec3, bool) {
	ray := rl.GetMouseRay(rl.GetMousePosition(), a.camera3D())
	origin := components.Vec3{X: ray.Position.X, Y: ray.Position.Y, Z: ray.Position.Z}
	dir := components.Vec3{X: ray.Direction.X, Y: ray.Direction.Y, Z: ray.Direction.Z}
	return a.orbit.IntersectFocusPlane(origin, dir)
}

// camera3D builds the raylib camera from the orbit state.
func (a *App) camera3D() rl.Camera3D {
	eye := a.orbit.Position()
	return rl.Camera3D{
		Position:   rl.NewVector3(eye.X, eye.Y, eye.Z),
		Target:     rl.NewVector3(a.orbit.Target.X, a.orbit.Target.Y, a.orbit.Target.Z),
		Up:         rl.NewVector3(0, 1, 0),
		Fovy:       50,
		Projection: rl.CameraPerspective,
	}
}
