// Package embed computes concept embeddings for near-match lookup in
// the shape table. The production engine calls the Gemini embedding
// API; tests substitute a deterministic fake.
package embed

import (
	"context"
	"math"

	"gonum.org/v1/gonum/floats"
)

// Embedder turns a concept word into a dense vector. Implementations
// must be safe for concurrent use.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// Cosine returns the cosine similarity of two vectors, 0 when either
// has zero magnitude or the dimensions differ.
func Cosine(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	af := make([]float64, len(a))
	bf := make([]float64, len(b))
	for i := range a {
		af[i] = float64(a[i])
		bf[i] = float64(b[i])
	}
	na := floats.Norm(af, 2)
	nb := floats.Norm(bf, 2)
	if na == 0 || nb == 0 {
		return 0
	}
	return floats.Dot(af, bf) / (na * nb)
}

// Norm returns the L2 norm of a vector.
func Norm(v []float32) float64 {
	var s float64
	for _, x := range v {
		s += float64(x) * float64(x)
	}
	return math.Sqrt(s)
}
