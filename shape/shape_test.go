package shape

import (
	"math"
	"testing"

	"github.com/voxfield/voxfield/components"
)

func TestNormalizeConcept(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Horse", "horse"},
		{"  big   DOG  ", "big dog"},
		{"tree", "tree"},
		{"", ""},
		{"   ", ""},
	}
	for _, tt := range tests {
		if got := NormalizeConcept(tt.in); got != tt.want {
			t.Errorf("NormalizeConcept(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func partCounts(points []components.LabeledPoint) map[string]int {
	counts := map[string]int{}
	for _, p := range points {
		counts[p.PartName]++
	}
	return counts
}

func TestResampleLength(t *testing.T) {
	horse := Builtins()["horse"](512)
	for _, n := range []int{16, 100, 512, 4096} {
		got := Resample(horse, n)
		if len(got.Points) != n {
			t.Errorf("Resample to %d produced %d points", n, len(got.Points))
		}
	}
}

func TestResampleKeepsEveryPart(t *testing.T) {
	horse := Builtins()["horse"](512)
	src := partCounts(horse.Points)

	// Even a brutal downsample must keep at least one point per part.
	got := Resample(horse, len(src))
	counts := partCounts(got.Points)
	if len(counts) != len(src) {
		t.Fatalf("downsample dropped parts: got %d parts, want %d", len(counts), len(src))
	}
	for name, c := range counts {
		if c < 1 {
			t.Errorf("part %q lost all points", name)
		}
	}
}

func TestResampleProportions(t *testing.T) {
	horse := Builtins()["horse"](1024)
	src := partCounts(horse.Points)
	got := partCounts(Resample(horse, 4096).Points)

	for name, c := range src {
		srcFrac := float64(c) / 1024
		gotFrac := float64(got[name]) / 4096
		if math.Abs(srcFrac-gotFrac) > 0.02 {
			t.Errorf("part %q share drifted: %.3f -> %.3f", name, srcFrac, gotFrac)
		}
	}
}

func TestResampleFewerSlotsThanParts(t *testing.T) {
	horse := Builtins()["horse"](512)
	parts := len(partCounts(horse.Points))

	for n := 1; n < parts; n++ {
		got := Resample(horse, n)
		if len(got.Points) != n {
			t.Fatalf("Resample to %d produced %d points", n, len(got.Points))
		}
		counts := partCounts(got.Points)
		if len(counts) != n {
			t.Errorf("Resample to %d kept %d parts, want one point per part", n, len(counts))
		}
	}

	// The surviving parts are the largest ones, and the pick is stable.
	a := Resample(horse, 2)
	b := Resample(horse, 2)
	for i := range a.Points {
		if a.Points[i] != b.Points[i] {
			t.Fatalf("point %d differs between identical downsamples", i)
		}
	}
}

func TestResampleNoOp(t *testing.T) {
	sphere := Builtins()["sphere"](256)
	got := Resample(sphere, 256)
	if len(got.Points) != 256 {
		t.Fatalf("got %d points, want 256", len(got.Points))
	}
}

func TestIdleRing(t *testing.T) {
	ring := IdleRing(64, 2.5)
	if len(ring.Points) != 64 {
		t.Fatalf("got %d points, want 64", len(ring.Points))
	}
	for i, p := range ring.Points {
		if p.Position.Y != 0 {
			t.Errorf("point %d off the ring plane: y = %v", i, p.Position.Y)
		}
		r := math.Hypot(float64(p.Position.X), float64(p.Position.Z))
		if math.Abs(r-2.5) > 1e-5 {
			t.Errorf("point %d at radius %v, want 2.5", i, r)
		}
	}
}

func TestBuildersDeterministic(t *testing.T) {
	for _, concept := range []string{"horse", "tree", "sphere"} {
		a := Builtins()[concept](300)
		b := Builtins()[concept](300)
		if len(a.Points) != len(b.Points) {
			t.Fatalf("%s: lengths differ", concept)
		}
		for i := range a.Points {
			if a.Points[i] != b.Points[i] {
				t.Fatalf("%s: point %d differs between builds", concept, i)
			}
		}
	}
}

func TestBuildersPartCounts(t *testing.T) {
	// Every built-in used as a generation example must itself pass the
	// primary validity gate of four labeled parts.
	for _, concept := range []string{"horse", "bird"} {
		m := Builtins()[concept](400)
		if got := len(partCounts(m.Points)); got < 4 {
			t.Errorf("%s has %d parts, want >= 4", concept, got)
		}
	}
}
