package components

import (
	"math"
	"testing"
)

func TestVec3Ops(t *testing.T) {
	a := Vec3{1, 2, 3}
	b := Vec3{4, -2, 1}

	if got := a.Add(b); got != (Vec3{5, 0, 4}) {
		t.Errorf("Add = %v, want {5 0 4}", got)
	}
	if got := a.Sub(b); got != (Vec3{-3, 4, 2}) {
		t.Errorf("Sub = %v, want {-3 4 2}", got)
	}
	if got := a.Dot(b); got != 3 {
		t.Errorf("Dot = %v, want 3", got)
	}
	if got := a.Scale(2); got != (Vec3{2, 4, 6}) {
		t.Errorf("Scale = %v, want {2 4 6}", got)
	}
}

func TestNormalized(t *testing.T) {
	v := Vec3{3, 0, 4}
	n := v.Normalized()
	if math.Abs(float64(n.Length())-1) > 1e-6 {
		t.Errorf("Normalized length = %v, want 1", n.Length())
	}

	// Zero vector stays zero rather than producing NaN.
	z := Vec3{}.Normalized()
	if z != (Vec3{}) {
		t.Errorf("Normalized zero = %v, want zero", z)
	}
}

func TestIsFinite(t *testing.T) {
	nan := float32(math.NaN())
	inf := float32(math.Inf(1))

	tests := []struct {
		name string
		v    Vec3
		want bool
	}{
		{"finite", Vec3{1, 2, 3}, true},
		{"nan component", Vec3{nan, 0, 0}, false},
		{"inf component", Vec3{0, inf, 0}, false},
		{"neg inf", Vec3{0, 0, float32(math.Inf(-1))}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.v.IsFinite(); got != tt.want {
				t.Errorf("IsFinite(%v) = %v, want %v", tt.v, got, tt.want)
			}
		})
	}
}

func TestSmoothstep(t *testing.T) {
	if got := Smoothstep(0); got != 0 {
		t.Errorf("Smoothstep(0) = %v, want 0", got)
	}
	if got := Smoothstep(1); got != 1 {
		t.Errorf("Smoothstep(1) = %v, want 1", got)
	}
	if got := Smoothstep(0.5); math.Abs(float64(got)-0.5) > 1e-6 {
		t.Errorf("Smoothstep(0.5) = %v, want 0.5", got)
	}
	// Clamped outside [0,1].
	if got := Smoothstep(2); got != 1 {
		t.Errorf("Smoothstep(2) = %v, want 1", got)
	}
}
