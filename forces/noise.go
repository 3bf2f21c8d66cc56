package forces

import (
	opensimplex "github.com/ojrac/opensimplex-go"

	"github.com/voxfield/voxfield/components"
)

// curlEps is the step used for the finite-difference curl. Small enough
// to track the potential's features at the frequencies we run, large
// enough to stay out of float32 cancellation.
const curlEps = 0.01

// CurlField is a divergence-free turbulence field: the curl of a
// three-component opensimplex vector potential. Taking the curl (rather
// than sampling three independent noises) makes the flow solenoidal, so
// particles swirl in coherent eddies instead of diffusing apart.
type CurlField struct {
	px, py, pz opensimplex.Noise
}

// NewCurlField creates a curl field seeded deterministically from seed.
func NewCurlField(seed int64) *CurlField {
	return &CurlField{
		px: opensimplex.New(seed),
		py: opensimplex.New(seed + 1),
		pz: opensimplex.New(seed + 2),
	}
}

// potential evaluates the three-component vector potential at (x,y,z,t).
func (c *CurlField) potential(x, y, z, t float64) (px, py, pz float64) {
	return c.px.Eval4(x, y, z, t),
		c.py.Eval4(x, y, z, t),
		c.pz.Eval4(x, y, z, t)
}

// Eval returns the curl of the potential at position p, with the
// potential sampled at p*freq and evolved by time t. The result has
// zero divergence up to finite-difference error.
func (c *CurlField) Eval(p components.Vec3, freq, t float32) components.Vec3 {
	x := float64(p.X) * float64(freq)
	y := float64(p.Y) * float64(freq)
	z := float64(p.Z) * float64(freq)
	tt := float64(t)

	const e = curlEps
	inv2e := 1.0 / (2 * e)

	// Central differences of the potential along each axis. The
	// component differentiated along its own axis never appears in a
	// curl, so it is discarded.
	_, pyXp, pzXp := c.potential(x+e, y, z, tt)
	_, pyXm, pzXm := c.potential(x-e, y, z, tt)
	pxYp, _, pzYp := c.potential(x, y+e, z, tt)
	pxYm, _, pzYm := c.potential(x, y-e, z, tt)
	pxZp, pyZp, _ := c.potential(x, y, z+e, tt)
	pxZm, pyZm, _ := c.potential(x, y, z-e, tt)

	// curl = (dPz/dy - dPy/dz, dPx/dz - dPz/dx, dPy/dx - dPx/dy)
	cx := (pzYp-pzYm)*inv2e - (pyZp-pyZm)*inv2e
	cy := (pxZp-pxZm)*inv2e - (pzXp-pzXm)*inv2e
	cz := (pyXp-pyXm)*inv2e - (pxYp-pxYm)*inv2e

	return components.Vec3{X: float32(cx), Y: float32(cy), Z: float32(cz)}
}
