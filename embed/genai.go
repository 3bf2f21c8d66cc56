package embed

import (
	"context"
	"fmt"

	"google.golang.org/genai"
)

// GenAI embeds concepts through the Gemini embedding API.
type GenAI struct {
	client *genai.Client
	model  string
}

// NewGenAI builds an embedder against the given model name. An empty
// model falls back to gemini-embedding-001.
func NewGenAI(ctx context.Context, apiKey, model string) (*GenAI, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("embedding API key is required")
	}
	if model == "" {
		model = "gemini-embedding-001"
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{APIKey: apiKey})
	if err != nil {
		return nil, fmt.Errorf("create embedding client: %w", err)
	}
	return &GenAI{client: client, model: model}, nil
}

func (g *GenAI) Embed(ctx context.Context, text string) ([]float32, error) {
	contents := []*genai.Content{
		genai.NewContentFromText(text, genai.RoleUser),
	}
	result, err := g.client.Models.EmbedContent(ctx, g.model, contents,
		&genai.EmbedContentConfig{TaskType: "SEMANTIC_SIMILARITY"})
	if err != nil {
		return nil, fmt.Errorf("embed %q: %w", text, err)
	}
	if len(result.Embeddings) == 0 {
		return nil, fmt.Errorf("embed %q: no embeddings returned", text)
	}
	return result.Embeddings[0].Values, nil
}
