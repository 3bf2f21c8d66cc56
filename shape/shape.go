// Package shape defines morph targets - labeled point clouds particles
// are pulled toward - and the local table, resampling, and wire codec
// around them.
package shape

import (
	"math"
	"sort"
	"strings"

	"github.com/voxfield/voxfield/components"
)

// MorphTarget is a fixed-size ordered sequence of labeled points. After
// Resample the length equals the particle count, so every particle has
// exactly one assigned target point.
type MorphTarget struct {
	Concept string
	Points  []components.LabeledPoint
}

// Len returns the number of points.
func (m *MorphTarget) Len() int {
	return len(m.Points)
}

// NormalizeConcept canonicalizes a concept string for table and cache
// keys: lowercased, trimmed, inner whitespace collapsed.
func NormalizeConcept(concept string) string {
	fields := strings.Fields(strings.ToLower(concept))
	return strings.Join(fields, " ")
}

// Resample returns a morph target with exactly n points. Points are
// duplicated or decimated per part so part proportions survive, and
// ordering stays grouped by part. When n is smaller than the part
// count, only the n largest parts survive with one point each.
func Resample(m *MorphTarget, n int) *MorphTarget {
	if n <= 0 || m.Len() == 0 {
		return &MorphTarget{Concept: m.Concept}
	}
	if m.Len() == n {
		return m
	}

	// Group indices by part, preserving first-seen part order.
	type group struct {
		id     int32
		name   string
		points []components.LabeledPoint
	}
	var groups []*group
	byID := make(map[int32]*group)
	for _, p := range m.Points {
		g, ok := byID[p.PartID]
		if !ok {
			g = &group{id: p.PartID, name: p.PartName}
			byID[p.PartID] = g
			groups = append(groups, g)
		}
		g.points = append(g.points, p)
	}

	// Fewer slots than parts: one point per part no longer fits, so
	// keep the n largest parts, earlier parts winning ties, and emit
	// one representative point each in source order.
	if n < len(groups) {
		order := make([]int, len(groups))
		for i := range order {
			order[i] = i
		}
		sort.SliceStable(order, func(a, b int) bool {
			return len(groups[order[a]].points) > len(groups[order[b]].points)
		})
		keep := make(map[int]bool, n)
		for _, i := range order[:n] {
			keep[i] = true
		}
		out := &MorphTarget{
			Concept: m.Concept,
			Points:  make([]components.LabeledPoint, 0, n),
		}
		for i, g := range groups {
			if keep[i] {
				out.Points = append(out.Points, g.points[0])
			}
		}
		return out
	}

	// Largest-remainder allocation of n across parts, proportional to
	// source point counts. Every part keeps at least one point.
	total := float64(m.Len())
	counts := make([]int, len(groups))
	remainders := make([]float64, len(groups))
	allocated := 0
	for i, g := range groups {
		exact := float64(n) * float64(len(g.points)) / total
		counts[i] = int(math.Floor(exact))
		if counts[i] < 1 {
			counts[i] = 1
		}
		remainders[i] = exact - float64(counts[i])
		allocated += counts[i]
	}
	for allocated < n {
		best := 0
		for i := 1; i < len(groups); i++ {
			if remainders[i] > remainders[best] {
				best = i
			}
		}
		counts[best]++
		remainders[best] = -1
		allocated++
	}
	for allocated > n {
		// Trim from the largest allocation; never below one point.
		largest := 0
		for i := 1; i < len(groups); i++ {
			if counts[i] > counts[largest] {
				largest = i
			}
		}
		if counts[largest] <= 1 {
			break
		}
		counts[largest]--
		allocated--
	}

	out := &MorphTarget{
		Concept: m.Concept,
		Points:  make([]components.LabeledPoint, 0, n),
	}
	for i, g := range groups {
		src := len(g.points)
		for j := 0; j < counts[i]; j++ {
			// Cyclic stride through the source points: decimates when
			// counts[i] < src, duplicates when counts[i] > src.
			out.Points = append(out.Points, g.points[(j*src)/counts[i]%src])
		}
	}
	return out
}

// IdleRing builds the default target: n points on a ring of the given
// radius in the XZ plane. It is the spring target when no concept has
// resolved, so breathing dominates the idle motion.
func IdleRing(n int, radius float32) *MorphTarget {
	m := &MorphTarget{
		Concept: "",
		Points:  make([]components.LabeledPoint, n),
	}
	for i := range m.Points {
		theta := 2 * math.Pi * float64(i) / float64(n)
		m.Points[i] = components.LabeledPoint{
			Position: components.Vec3{
				X: radius * float32(math.Cos(theta)),
				Y: 0,
				Z: radius * float32(math.Sin(theta)),
			},
			PartID:   0,
			PartName: "ring",
		}
	}
	return m
}
