package shape

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/voxfield/voxfield/embed"
)

// Table is the local tier of shape resolution: a fixed set of
// pre-authored builders plus an optional alias manifest and an
// optional embedding index for near-match lookup. A miss here is not
// an error, it just sends the resolver on to the generation pipeline.
type Table struct {
	pointCount int
	threshold  float64
	builders   map[string]func(n int) *MorphTarget
	aliases    map[string]string
	embedder   embed.Embedder

	mu      sync.Mutex
	vectors map[string][]float32 // concept -> embedding, filled lazily
}

// manifest is the on-disk alias file. Keys are spoken variants, values
// are builder concepts.
type manifest struct {
	Aliases map[string]string `yaml:"aliases"`
}

// NewTable builds the table from the built-in shape set. manifestPath
// may be empty; embedder may be nil to disable near-match lookup.
func NewTable(pointCount int, threshold float64, manifestPath string, embedder embed.Embedder) (*Table, error) {
	t := &Table{
		pointCount: pointCount,
		threshold:  threshold,
		builders:   Builtins(),
		aliases:    map[string]string{},
		embedder:   embedder,
		vectors:    map[string][]float32{},
	}
	if manifestPath != "" {
		data, err := os.ReadFile(manifestPath)
		if err != nil {
			return nil, fmt.Errorf("read shape manifest: %w", err)
		}
		var m manifest
		if err := yaml.Unmarshal(data, &m); err != nil {
			return nil, fmt.Errorf("parse shape manifest: %w", err)
		}
		for alias, concept := range m.Aliases {
			norm := NormalizeConcept(concept)
			if _, ok := t.builders[norm]; !ok {
				return nil, fmt.Errorf("shape manifest: alias %q points at unknown concept %q", alias, concept)
			}
			t.aliases[NormalizeConcept(alias)] = norm
		}
	}
	return t, nil
}

// Lookup resolves a concept against the table. It returns (nil, false)
// on a miss; embedding failures degrade to a miss rather than an
// error, since the caller has a slower tier behind this one.
func (t *Table) Lookup(ctx context.Context, concept string) (*MorphTarget, bool) {
	norm := NormalizeConcept(concept)
	if norm == "" {
		return nil, false
	}
	if build, ok := t.builders[norm]; ok {
		return build(t.pointCount), true
	}
	if target, ok := t.aliases[norm]; ok {
		return t.builders[target](t.pointCount), true
	}
	if t.embedder == nil {
		return nil, false
	}
	match, err := t.nearMatch(ctx, norm)
	if err != nil {
		slog.Warn("shape table near-match failed", "concept", norm, "error", err)
		return nil, false
	}
	if match == "" {
		return nil, false
	}
	slog.Debug("shape table near-match", "concept", norm, "matched", match)
	return t.builders[match](t.pointCount), true
}

// Concepts lists the builder concepts in no particular order.
func (t *Table) Concepts() []string {
	out := make([]string, 0, len(t.builders))
	for c := range t.builders {
		out = append(out, c)
	}
	return out
}

// nearMatch embeds the query and compares it against every builder
// concept, returning the best concept at or above the similarity
// threshold, or "" when nothing clears it.
func (t *Table) nearMatch(ctx context.Context, norm string) (string, error) {
	query, err := t.embedder.Embed(ctx, norm)
	if err != nil {
		return "", err
	}
	if err := t.ensureVectors(ctx); err != nil {
		return "", err
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	best := ""
	bestSim := t.threshold
	for concept, vec := range t.vectors {
		if sim := embed.Cosine(query, vec); sim >= bestSim {
			best, bestSim = concept, sim
		}
	}
	return best, nil
}

// ensureVectors fills the embedding index on first use. A partial
// index from an earlier failed attempt is completed, not rebuilt.
func (t *Table) ensureVectors(ctx context.Context) error {
	t.mu.Lock()
	missing := make([]string, 0, len(t.builders))
	for concept := range t.builders {
		if _, ok := t.vectors[concept]; !ok {
			missing = append(missing, concept)
		}
	}
	t.mu.Unlock()

	for _, concept := range missing {
		vec, err := t.embedder.Embed(ctx, concept)
		if err != nil {
			return fmt.Errorf("index concept %q: %w", concept, err)
		}
		t.mu.Lock()
		t.vectors[concept] = vec
		t.mu.Unlock()
	}
	return nil
}
