package shape

import (
	"hash/fnv"
	"math"
	"math/rand"

	"github.com/voxfield/voxfield/components"
)

// Builders produce the pre-authored labeled shapes of the local table.
// They are deterministic: the same concept and point count always yield
// the same cloud, so repeated resolutions are bit-identical.

// A partSpec is one labeled primitive of a built shape.
type partSpec struct {
	name   string
	weight float64 // share of the total point budget
	sample func(rng *rand.Rand) components.Vec3
}

// buildParts samples n points across the given parts, proportional to
// weight, labeled with sequential part ids.
func buildParts(concept string, n int, parts []partSpec) *MorphTarget {
	h := fnv.New64a()
	h.Write([]byte(concept))
	rng := rand.New(rand.NewSource(int64(h.Sum64())))

	var totalW float64
	for _, p := range parts {
		totalW += p.weight
	}

	m := &MorphTarget{Concept: concept, Points: make([]components.LabeledPoint, 0, n)}
	remaining := n
	for i, p := range parts {
		count := int(math.Round(float64(n) * p.weight / totalW))
		if i == len(parts)-1 {
			count = remaining // absorb rounding in the final part
		}
		if count > remaining {
			count = remaining
		}
		for j := 0; j < count; j++ {
			m.Points = append(m.Points, components.LabeledPoint{
				Position: p.sample(rng),
				PartID:   int32(i),
				PartName: p.name,
			})
		}
		remaining -= count
	}
	return m
}

// ellipsoid samples the surface of an axis-aligned ellipsoid.
func ellipsoid(center components.Vec3, rx, ry, rz float32) func(*rand.Rand) components.Vec3 {
	return func(rng *rand.Rand) components.Vec3 {
		// Uniform direction via normal deviates.
		d := components.Vec3{
			X: float32(rng.NormFloat64()),
			Y: float32(rng.NormFloat64()),
			Z: float32(rng.NormFloat64()),
		}.Normalized()
		return components.Vec3{
			X: center.X + d.X*rx,
			Y: center.Y + d.Y*ry,
			Z: center.Z + d.Z*rz,
		}
	}
}

// cylinder samples the lateral surface of a Y-aligned cylinder from
// base upward.
func cylinder(base components.Vec3, radius, height float32) func(*rand.Rand) components.Vec3 {
	return func(rng *rand.Rand) components.Vec3 {
		theta := rng.Float64() * 2 * math.Pi
		return components.Vec3{
			X: base.X + radius*float32(math.Cos(theta)),
			Y: base.Y + height*rng.Float32(),
			Z: base.Z + radius*float32(math.Sin(theta)),
		}
	}
}

// torusRing samples a torus in the XZ plane.
func torusRing(major, minor float32) func(*rand.Rand) components.Vec3 {
	return func(rng *rand.Rand) components.Vec3 {
		u := rng.Float64() * 2 * math.Pi
		v := rng.Float64() * 2 * math.Pi
		r := float64(major) + float64(minor)*math.Cos(v)
		return components.Vec3{
			X: float32(r * math.Cos(u)),
			Y: float32(float64(minor) * math.Sin(v)),
			Z: float32(r * math.Sin(u)),
		}
	}
}

// Builtins returns the local shape table's pre-authored generators,
// keyed by normalized concept.
func Builtins() map[string]func(n int) *MorphTarget {
	return map[string]func(n int) *MorphTarget{
		"sphere": func(n int) *MorphTarget {
			return buildParts("sphere", n, []partSpec{
				{"surface", 1, ellipsoid(components.Vec3{}, 1.2, 1.2, 1.2)},
			})
		},
		"torus": func(n int) *MorphTarget {
			return buildParts("torus", n, []partSpec{
				{"ring", 1, torusRing(1.1, 0.35)},
			})
		},
		"horse": func(n int) *MorphTarget {
			return buildParts("horse", n, []partSpec{
				{"body", 4, ellipsoid(components.Vec3{Y: 0.55}, 0.85, 0.42, 0.34)},
				{"head", 1.5, ellipsoid(components.Vec3{X: 1.0, Y: 1.15}, 0.3, 0.22, 0.18)},
				{"neck", 1, cylinder(components.Vec3{X: 0.75, Y: 0.7}, 0.16, 0.45)},
				{"leg_front_left", 0.7, cylinder(components.Vec3{X: 0.55, Y: -0.55, Z: 0.2}, 0.08, 0.9)},
				{"leg_front_right", 0.7, cylinder(components.Vec3{X: 0.55, Y: -0.55, Z: -0.2}, 0.08, 0.9)},
				{"leg_back_left", 0.7, cylinder(components.Vec3{X: -0.55, Y: -0.55, Z: 0.2}, 0.09, 0.9)},
				{"leg_back_right", 0.7, cylinder(components.Vec3{X: -0.55, Y: -0.55, Z: -0.2}, 0.09, 0.9)},
				{"tail", 0.6, cylinder(components.Vec3{X: -0.95, Y: 0.15}, 0.05, 0.55)},
			})
		},
		"tree": func(n int) *MorphTarget {
			return buildParts("tree", n, []partSpec{
				{"trunk", 1, cylinder(components.Vec3{Y: -1.2}, 0.18, 1.2)},
				{"crown", 3, ellipsoid(components.Vec3{Y: 0.7}, 0.9, 1.0, 0.9)},
				{"roots", 0.5, ellipsoid(components.Vec3{Y: -1.25}, 0.45, 0.12, 0.45)},
			})
		},
		"bird": func(n int) *MorphTarget {
			return buildParts("bird", n, []partSpec{
				{"body", 2.5, ellipsoid(components.Vec3{}, 0.5, 0.3, 0.28)},
				{"head", 1, ellipsoid(components.Vec3{X: 0.55, Y: 0.2}, 0.2, 0.18, 0.16)},
				{"wing_left", 1.5, ellipsoid(components.Vec3{Z: 0.65}, 0.45, 0.06, 0.5)},
				{"wing_right", 1.5, ellipsoid(components.Vec3{Z: -0.65}, 0.45, 0.06, 0.5)},
				{"tail", 0.7, ellipsoid(components.Vec3{X: -0.6}, 0.3, 0.05, 0.18)},
			})
		},
		"fish": func(n int) *MorphTarget {
			return buildParts("fish", n, []partSpec{
				{"body", 3, ellipsoid(components.Vec3{}, 0.7, 0.32, 0.2)},
				{"tail", 1, ellipsoid(components.Vec3{X: -0.85}, 0.25, 0.3, 0.04)},
				{"fin_dorsal", 0.5, ellipsoid(components.Vec3{Y: 0.4}, 0.3, 0.15, 0.03)},
			})
		},
		"flower": func(n int) *MorphTarget {
			petals := []partSpec{
				{"stem", 1, cylinder(components.Vec3{Y: -1.3}, 0.06, 1.2)},
				{"center", 0.8, ellipsoid(components.Vec3{Y: 0.1}, 0.22, 0.22, 0.22)},
			}
			for i := 0; i < 6; i++ {
				theta := 2 * math.Pi * float64(i) / 6
				c := components.Vec3{
					X: 0.5 * float32(math.Cos(theta)),
					Y: 0.1,
					Z: 0.5 * float32(math.Sin(theta)),
				}
				petals = append(petals, partSpec{
					name:   "petal",
					weight: 0.6,
					sample: ellipsoid(c, 0.3, 0.08, 0.3),
				})
			}
			return buildParts("flower", n, petals)
		},
		"heart": func(n int) *MorphTarget {
			return buildParts("heart", n, []partSpec{
				{"lobe_left", 1, ellipsoid(components.Vec3{X: -0.35, Y: 0.35}, 0.45, 0.45, 0.35)},
				{"lobe_right", 1, ellipsoid(components.Vec3{X: 0.35, Y: 0.35}, 0.45, 0.45, 0.35)},
				{"point", 1, ellipsoid(components.Vec3{Y: -0.45}, 0.5, 0.6, 0.3)},
			})
		},
	}
}
