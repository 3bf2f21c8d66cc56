package game

import (
	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/voxfield/voxfield/renderer"
	"github.com/voxfield/voxfield/telemetry"
	"github.com/voxfield/voxfield/ui"
)

// Draw renders the field and the UI overlays.
func (a *App) Draw() {
	a.perf.RecordFrame()

	frame := a.aggregator.Frame(a.simTime, 0)
	pal := renderer.FramePalette(frame)
	cam := a.camera3D()

	a.perf.StartPhase(telemetry.PhaseRender)
	rl.BeginDrawing()
	rl.ClearBackground(pal.Background)

	rl.BeginMode3D(cam)
	a.particles.Draw(cam, a.engine.Front(), frame)
	rl.EndMode3D()

	a.perf.StartPhase(telemetry.PhaseUI)
	a.hud.Draw(ui.HUDInfo{
		Concept:    a.concept,
		LastEvent:  a.lastEvent,
		HasEvent:   a.hasEvent,
		Frame:      frame,
		Window:     a.lastWindow,
		Perf:       a.perf.Stats(),
		CPUBackend: a.cpuBackend,
	})
	a.tuning.Draw(a.composer)

	if a.paused {
		rl.DrawText("PAUSED", int32(a.cfg.Screen.Width)/2-40, 10, 20, rl.Yellow)
	}

	rl.EndDrawing()
	a.perf.EndTick()
}
