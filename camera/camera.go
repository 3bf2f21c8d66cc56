// Package camera provides an orbit camera for viewing the particle field.
package camera

import (
	"math"

	"github.com/voxfield/voxfield/components"
)

// Orbit is a camera orbiting a target point. Yaw and pitch are in
// radians; Distance is the eye distance from the target. The math is
// windowing-library free so it can be exercised headless.
type Orbit struct {
	Target   components.Vec3
	Yaw      float32 // around the Y axis, 0 looks down -Z
	Pitch    float32 // elevation, positive looks down from above
	Distance float32

	MinDistance, MaxDistance float32
	MaxPitch                 float32
}

// New creates an orbit camera centered on the origin at a distance
// sized to frame a world of the given radius.
func New(worldRadius float32) *Orbit {
	if worldRadius <= 0 {
		worldRadius = 10
	}
	return &Orbit{
		Distance:    worldRadius * 2.4,
		Pitch:       0.25,
		MinDistance: worldRadius * 0.4,
		MaxDistance: worldRadius * 8,
		MaxPitch:    float32(math.Pi/2) - 0.05,
	}
}

// Rotate applies a yaw/pitch delta, typically from mouse drag.
func (o *Orbit) Rotate(dYaw, dPitch float32) {
	o.Yaw += dYaw
	// Keep yaw in [-pi, pi) so it never accumulates precision loss.
	for o.Yaw >= math.Pi {
		o.Yaw -= 2 * math.Pi
	}
	for o.Yaw < -math.Pi {
		o.Yaw += 2 * math.Pi
	}
	o.Pitch = components.Clamp32(o.Pitch+dPitch, -o.MaxPitch, o.MaxPitch)
}

// Dolly scales the orbit distance. factor > 1 moves away.
func (o *Orbit) Dolly(factor float32) {
	if factor <= 0 {
		return
	}
	o.Distance = components.Clamp32(o.Distance*factor, o.MinDistance, o.MaxDistance)
}

// Position returns the eye position in world space.
func (o *Orbit) Position() components.Vec3 {
	cosP := float32(math.Cos(float64(o.Pitch)))
	return components.Vec3{
		X: o.Target.X + o.Distance*cosP*float32(math.Sin(float64(o.Yaw))),
		Y: o.Target.Y + o.Distance*float32(math.Sin(float64(o.Pitch))),
		Z: o.Target.Z + o.Distance*cosP*float32(math.Cos(float64(o.Yaw))),
	}
}

// Forward returns the unit vector from the eye toward the target.
func (o *Orbit) Forward() components.Vec3 {
	return o.Target.Sub(o.Position()).Normalized()
}

// IntersectFocusPlane intersects a ray (origin, unit dir) with the
// plane through the target facing the camera. This is how pointer
// input gets projected into the field. Returns false when the ray is
// parallel to or points away from the plane.
func (o *Orbit) IntersectFocusPlane(origin, dir components.Vec3) (components.Vec3, bool) {
	n := o.Forward()
	denom := n.Dot(dir)
	if absf(denom) < 1e-6 {
		return components.Vec3{}, false
	}
	t := o.Target.Sub(origin).Dot(n) / denom
	if t < 0 {
		return components.Vec3{}, false
	}
	return origin.Add(dir.Scale(t)), true
}

// Reset returns the camera to its framing defaults.
func (o *Orbit) Reset(worldRadius float32) {
	fresh := New(worldRadius)
	fresh.Target = o.Target
	*o = *fresh
}

func absf(v float32) float32 {
	if v < 0 {
		return -v
	}
	return v
}
