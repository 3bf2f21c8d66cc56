// Package genpipe turns a concept string into a labeled point cloud by
// driving a two-stage generation chain: a primary part-aware generator
// gated on a minimum part count, then a fallback generator that
// segments a monolithic result using part-name hints. The chain is an
// explicit state machine so the transition logic is testable without
// any real generator behind it.
package genpipe

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/voxfield/voxfield/shape"
)

var (
	// ErrInsufficientParts marks a generation result that failed its
	// validity gate. It steers the state machine and is never returned
	// from Run.
	ErrInsufficientParts = errors.New("insufficient labeled parts")

	// ErrGenerationFailed is returned when both generation paths are
	// exhausted.
	ErrGenerationFailed = errors.New("generation failed on all paths")
)

// State names a node of the generation state machine.
type State int

const (
	StateStart State = iota
	StatePrimary
	StateValidate
	StateFallback
	StateValidateFallback
	StateAccept
	StateFail
)

func (s State) String() string {
	switch s {
	case StateStart:
		return "start"
	case StatePrimary:
		return "primary"
	case StateValidate:
		return "validate"
	case StateFallback:
		return "fallback"
	case StateValidateFallback:
		return "validate_fallback"
	case StateAccept:
		return "accept"
	case StateFail:
		return "fail"
	default:
		return "unknown"
	}
}

// Path records which generator produced an accepted result.
type Path int

const (
	PathNone Path = iota
	PathPrimary
	PathFallback
)

func (p Path) String() string {
	switch p {
	case PathPrimary:
		return "primary"
	case PathFallback:
		return "fallback"
	default:
		return "none"
	}
}

// Request is one generation attempt. Hints carries suggested part
// names for segmentation; generators that decompose on their own may
// ignore them. Emotion is optional styling context.
type Request struct {
	Concept string
	Emotion string
	Hints   []string
}

// Generator produces a labeled point cloud for a request.
type Generator interface {
	Generate(ctx context.Context, req Request) (*shape.MorphTarget, error)
}

// Hinter derives part-name hints from a concept for the fallback
// segmentation. A failed hinter degrades to no hints.
type Hinter interface {
	Hints(ctx context.Context, concept string) ([]string, error)
}

// Result is the outcome of one pipeline run. States holds the visited
// state sequence in order.
type Result struct {
	Target *shape.MorphTarget
	Path   Path
	States []State
}

// Pipeline is the generation chain. Fallback and Hinter may be nil;
// a nil fallback fails the run whenever the primary gate rejects.
type Pipeline struct {
	Primary    Generator
	Fallback   Generator
	Hinter     Hinter
	MinParts   int // primary validity gate, part count threshold
	PointCount int // every accepted cloud is resampled to this size
}

// Run drives the state machine for one concept. Each generator is
// attempted at most once; retries are the caller's decision.
func (p *Pipeline) Run(ctx context.Context, concept, emotion string) (Result, error) {
	res := Result{States: []State{StateStart}}
	norm := shape.NormalizeConcept(concept)
	if norm == "" {
		res.States = append(res.States, StateFail)
		return res, fmt.Errorf("%w: empty concept", ErrGenerationFailed)
	}

	res.States = append(res.States, StatePrimary)
	m, err := p.generate(ctx, p.Primary, Request{Concept: norm, Emotion: emotion})
	res.States = append(res.States, StateValidate)
	if err == nil {
		if parts := countParts(m); parts < p.MinParts {
			err = fmt.Errorf("%w: primary produced %d of %d", ErrInsufficientParts, parts, p.MinParts)
		}
	}
	if err == nil {
		res.States = append(res.States, StateAccept)
		res.Target = shape.Resample(m, p.PointCount)
		res.Path = PathPrimary
		return res, nil
	}
	slog.Info("primary generation rejected", "concept", norm, "reason", err)

	res.States = append(res.States, StateFallback)
	var hints []string
	if p.Hinter != nil {
		hints, err = p.Hinter.Hints(ctx, norm)
		if err != nil {
			slog.Warn("hint derivation failed", "concept", norm, "error", err)
			hints = nil
		}
	}
	m, err = p.generate(ctx, p.Fallback, Request{Concept: norm, Emotion: emotion, Hints: hints})
	res.States = append(res.States, StateValidateFallback)
	if err == nil && countParts(m) < 1 {
		err = fmt.Errorf("%w: fallback produced no parts", ErrInsufficientParts)
	}
	if err != nil {
		res.States = append(res.States, StateFail)
		return res, fmt.Errorf("%w: %v", ErrGenerationFailed, err)
	}

	res.States = append(res.States, StateAccept)
	res.Target = shape.Resample(m, p.PointCount)
	res.Path = PathFallback
	return res, nil
}

func (p *Pipeline) generate(ctx context.Context, g Generator, req Request) (*shape.MorphTarget, error) {
	if g == nil {
		return nil, errors.New("no generator configured")
	}
	m, err := g.Generate(ctx, req)
	if err != nil {
		return nil, err
	}
	if m == nil || m.Len() == 0 {
		return nil, errors.New("generator returned an empty cloud")
	}
	return m, nil
}

func countParts(m *shape.MorphTarget) int {
	if m == nil {
		return 0
	}
	seen := map[int32]struct{}{}
	for _, pt := range m.Points {
		seen[pt.PartID] = struct{}{}
	}
	return len(seen)
}
