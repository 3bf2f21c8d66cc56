package forces

import (
	"math"
	"math/rand"
	"testing"

	"github.com/voxfield/voxfield/components"
)

// divergence estimates div(curl) at p via central differences of Eval.
func divergence(c *CurlField, p components.Vec3, freq, t, h float32) float64 {
	dx := float64(c.Eval(components.Vec3{X: p.X + h, Y: p.Y, Z: p.Z}, freq, t).X-
		c.Eval(components.Vec3{X: p.X - h, Y: p.Y, Z: p.Z}, freq, t).X) / float64(2*h)
	dy := float64(c.Eval(components.Vec3{X: p.X, Y: p.Y + h, Z: p.Z}, freq, t).Y-
		c.Eval(components.Vec3{X: p.X, Y: p.Y - h, Z: p.Z}, freq, t).Y) / float64(2*h)
	dz := float64(c.Eval(components.Vec3{X: p.X, Y: p.Y, Z: p.Z + h}, freq, t).Z-
		c.Eval(components.Vec3{X: p.X, Y: p.Y, Z: p.Z - h}, freq, t).Z) / float64(2*h)
	return dx + dy + dz
}

func TestCurlFieldZeroDivergence(t *testing.T) {
	c := NewCurlField(7)
	rng := rand.New(rand.NewSource(7))

	const (
		samples = 200
		freq    = 1.0
		h       = 0.05
		tol     = 0.05
	)

	for i := 0; i < samples; i++ {
		p := components.Vec3{
			X: rng.Float32()*4 - 2,
			Y: rng.Float32()*4 - 2,
			Z: rng.Float32()*4 - 2,
		}
		tm := rng.Float32() * 10

		div := divergence(c, p, freq, tm, h)
		if math.Abs(div) > tol {
			t.Errorf("divergence at %v t=%v = %v, want |div| <= %v", p, tm, div, tol)
		}
	}
}

func TestCurlFieldDeterministic(t *testing.T) {
	a := NewCurlField(42)
	b := NewCurlField(42)

	p := components.Vec3{X: 0.3, Y: -1.2, Z: 0.8}
	va := a.Eval(p, 0.7, 3.5)
	vb := b.Eval(p, 0.7, 3.5)
	if va != vb {
		t.Errorf("same seed diverged: %v vs %v", va, vb)
	}

	c := NewCurlField(43)
	vc := c.Eval(p, 0.7, 3.5)
	if va == vc {
		t.Error("different seeds produced identical curl")
	}
}

func TestCurlFieldEvolvesWithTime(t *testing.T) {
	c := NewCurlField(1)
	p := components.Vec3{X: 0.5, Y: 0.5, Z: 0.5}

	v0 := c.Eval(p, 1, 0)
	v1 := c.Eval(p, 1, 5)
	if v0 == v1 {
		t.Error("curl field static over time")
	}
}
