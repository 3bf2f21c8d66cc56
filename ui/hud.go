package ui

import (
	"fmt"

	"github.com/voxfield/voxfield/resolver"
	"github.com/voxfield/voxfield/signal"
	"github.com/voxfield/voxfield/telemetry"
)

// HUDInfo is the per-frame snapshot the HUD renders from.
type HUDInfo struct {
	Concept    string
	LastEvent  resolver.Event
	HasEvent   bool
	Frame      signal.UniformFrame
	Window     telemetry.WindowStats
	Perf       telemetry.PerfStats
	CPUBackend bool
}

// HUD draws the status readout in the top-left corner.
type HUD struct {
	renderer *Renderer
	x, y     int32
	width    int32
	visible  bool
}

// NewHUD creates a HUD anchored at (x, y). Visible by default.
func NewHUD(x, y, width int32) *HUD {
	return &HUD{
		renderer: NewRenderer(),
		x:        x,
		y:        y,
		width:    width,
		visible:  true,
	}
}

// Toggle switches HUD visibility.
func (h *HUD) Toggle() bool {
	h.visible = !h.visible
	return h.visible
}

// Draw renders the HUD.
func (h *HUD) Draw(info HUDInfo) {
	if !h.visible {
		return
	}

	r := h.renderer
	padding := r.Theme.Padding

	panelHeight := r.Theme.LineHeight*13 + padding*2
	r.DrawPanel(h.x, h.y, h.width, panelHeight)

	x := h.x + padding
	y := h.y + padding

	concept := info.Concept
	if concept == "" {
		concept = "(idle)"
	}
	y = r.DrawLabelValue(x, y, "concept", concept)

	if info.HasEvent {
		ev := info.LastEvent
		switch ev.Outcome {
		case resolver.OutcomeResolved:
			y = r.DrawLabelValue(x, y, "resolved",
				fmt.Sprintf("%s (%dms)", ev.Source, ev.Latency.Milliseconds()))
		case resolver.OutcomeFailed:
			y = r.DrawLabelValue(x, y, "resolve", "failed: "+ev.Concept)
		case resolver.OutcomeSuperseded:
			y = r.DrawLabelValue(x, y, "resolve", "superseded: "+ev.Concept)
		}
	} else {
		y = r.DrawLabelValue(x, y, "resolve", "-")
	}

	y = r.DrawSectionHeader(x, y+2, "Signal")
	y = r.DrawBar(x, y, "energy", info.Frame.Energy, h.width-padding*2)
	y = r.DrawBar(x, y, "intensity", info.Frame.EmotionalIntensity, h.width-padding*2)
	y = r.DrawLabelValue(x, y, "emotion", info.Frame.Emotion)

	y = r.DrawSectionHeader(x, y+2, "Cache")
	y = r.DrawLabelValue(x, y, "mem/disk",
		fmt.Sprintf("%d / %d", info.Window.CacheMemoryHits, info.Window.CachePersistentHits))
	y = r.DrawLabelValue(x, y, "table/gen",
		fmt.Sprintf("%d / %d+%d", info.Window.TableHits,
			info.Window.PipelinePrimary, info.Window.PipelineFallback))

	y = r.DrawSectionHeader(x, y+2, "Perf")
	backend := "gpu"
	if info.CPUBackend {
		backend = "cpu"
	}
	y = r.DrawLabelValue(x, y, "backend", backend)
	r.DrawLabelValue(x, y, "tick",
		fmt.Sprintf("%dus (%d fps)", info.Perf.AvgTickDuration.Microseconds(), int(info.Perf.FPS)))
}
