package renderer

import (
	"testing"
)

func TestToneHueMonotonic(t *testing.T) {
	// Higher pitch should never cool the hue back down.
	prev := toneHue(0)
	for _, hz := range []float32{80, 160, 260, 400, 520, 900} {
		h := toneHue(hz)
		if h > prev {
			t.Errorf("hue rose from %v to %v at %vHz, want monotonic descent", prev, h, hz)
		}
		prev = h
	}
}

func TestToneHueClampsAboveReference(t *testing.T) {
	if toneHue(520) != toneHue(5000) {
		t.Error("pitch above the reference should saturate the hue sweep")
	}
}

func TestToneSatValRanges(t *testing.T) {
	cases := []struct {
		name            string
		tension, energy float32
	}{
		{"silence", 0, 0},
		{"midrange", 0.5, 0.5},
		{"peak", 1, 1},
		{"unclamped inputs", 7, -3},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			sat, val := toneSatVal(tc.tension, tc.energy)
			if sat < 0 || sat > 1 || val < 0 || val > 1 {
				t.Errorf("sat=%v val=%v out of [0,1]", sat, val)
			}
		})
	}
}

func TestSentimentHueEndpoints(t *testing.T) {
	neg := sentimentHue(-1)
	neu := sentimentHue(0)
	pos := sentimentHue(1)

	if !(neg > neu && neu > pos) {
		t.Errorf("hue not ordered cold>neutral>warm: %v %v %v", neg, neu, pos)
	}
	if sentimentHue(-5) != neg || sentimentHue(5) != pos {
		t.Error("valence outside [-1,1] should clamp")
	}
}
