package ui

import (
	"fmt"

	gui "github.com/gen2brain/raylib-go/raygui"
	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/voxfield/voxfield/forces"
)

// sliderSpec describes one tunable coefficient row.
type sliderSpec struct {
	label    string
	min, max float32
	get      func(*forces.Tuning) *float32
}

var tuningSliders = []sliderSpec{
	{"Spring", 0, 20, func(t *forces.Tuning) *float32 { return &t.SpringK }},
	{"Noise", 0, 10, func(t *forces.Tuning) *float32 { return &t.NoiseAmplitude }},
	{"Drag", 0, 5, func(t *forces.Tuning) *float32 { return &t.DragCoefficient }},
	{"Repulsion", 0, 30, func(t *forces.Tuning) *float32 { return &t.RepulsionStrength }},
	{"Breath", 0, 2, func(t *forces.Tuning) *float32 { return &t.BreathAmplitude }},
}

// TuningPanel exposes the force coefficients and the emotion blend
// curve as live sliders. Hidden by default; toggled from the frame loop.
type TuningPanel struct {
	renderer *Renderer
	x, y     int32
	width    int32
	visible  bool
}

// NewTuningPanel creates a tuning panel anchored at (x, y).
func NewTuningPanel(x, y, width int32) *TuningPanel {
	return &TuningPanel{
		renderer: NewRenderer(),
		x:        x,
		y:        y,
		width:    width,
	}
}

// Toggle switches panel visibility.
func (p *TuningPanel) Toggle() bool {
	p.visible = !p.visible
	return p.visible
}

// IsVisible returns whether the panel is shown.
func (p *TuningPanel) IsVisible() bool {
	return p.visible
}

// Draw renders the sliders and applies any adjustment straight back to
// the composer. Call between ticks, on the frame goroutine.
func (p *TuningPanel) Draw(c *forces.Composer) {
	if !p.visible {
		return
	}

	r := p.renderer
	padding := r.Theme.Padding
	rowHeight := r.Theme.LineHeight + 22

	panelHeight := int32(len(tuningSliders))*rowHeight + r.Theme.LineHeight*3 + padding*2
	r.DrawPanel(p.x, p.y, p.width, panelHeight)

	x := p.x + padding
	y := r.DrawSectionHeader(x, p.y+padding, "Forces")

	t := c.Tuning()
	changed := false

	sliderW := float32(p.width - padding*2 - 56)
	for _, s := range tuningSliders {
		v := s.get(&t)
		rl.DrawText(s.label, x, y, r.Theme.FontSize, r.Theme.LabelColor)
		y += r.Theme.LineHeight

		bounds := rl.Rectangle{X: float32(x), Y: float32(y), Width: sliderW, Height: 16}
		next := gui.SliderBar(bounds, "", "", *v, s.min, s.max)
		rl.DrawText(fmt.Sprintf("%.2f", next), x+int32(sliderW)+8, y+2, r.Theme.FontSize, r.Theme.ValueColor)
		if next != *v {
			*v = next
			changed = true
		}
		y += 22
	}

	y += 4
	eased := gui.CheckBox(
		rl.Rectangle{X: float32(x), Y: float32(y), Width: 14, Height: 14},
		"smoothstep emotion curve", t.EasedCurve)
	if eased != t.EasedCurve {
		t.EasedCurve = eased
		changed = true
	}

	if changed {
		c.SetTuning(t)
	}
}
