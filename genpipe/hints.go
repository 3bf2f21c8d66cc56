package genpipe

import (
	"context"
	"fmt"
	"strings"

	"google.golang.org/genai"
)

// GenAIHinter derives part-name hints for fallback segmentation by
// asking a language model what a concept decomposes into.
type GenAIHinter struct {
	client   *genai.Client
	model    string
	maxHints int
}

// NewGenAIHinter builds a hinter for the given generation model.
func NewGenAIHinter(ctx context.Context, apiKey, model string, maxHints int) (*GenAIHinter, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("hint API key is required")
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{APIKey: apiKey})
	if err != nil {
		return nil, fmt.Errorf("create hint client: %w", err)
	}
	if maxHints <= 0 {
		maxHints = 8
	}
	return &GenAIHinter{client: client, model: model, maxHints: maxHints}, nil
}

func (h *GenAIHinter) Hints(ctx context.Context, concept string) ([]string, error) {
	prompt := fmt.Sprintf(
		"List the distinct visible parts of a %q as short lowercase nouns, one per line, no numbering, at most %d lines.",
		concept, h.maxHints)

	resp, err := h.client.Models.GenerateContent(ctx, h.model, genai.Text(prompt), nil)
	if err != nil {
		return nil, fmt.Errorf("hint generation for %q: %w", concept, err)
	}
	return ParseHints(resp.Text(), h.maxHints), nil
}

// ParseHints extracts at most max cleaned part names from model output,
// dropping blanks, list markers, and duplicates.
func ParseHints(text string, max int) []string {
	var hints []string
	seen := map[string]struct{}{}
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		line = strings.TrimLeft(line, "-*0123456789. ")
		line = strings.ToLower(strings.TrimSpace(line))
		if line == "" {
			continue
		}
		if _, dup := seen[line]; dup {
			continue
		}
		seen[line] = struct{}{}
		hints = append(hints, line)
		if len(hints) >= max {
			break
		}
	}
	return hints
}
