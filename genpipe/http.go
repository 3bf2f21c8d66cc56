package genpipe

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/voxfield/voxfield/shape"
)

// HTTPGenerator calls one route of the generation server. The request
// is JSON; the response body is the compact shape encoding.
type HTTPGenerator struct {
	client  *http.Client
	baseURL string
	route   string
}

// wireRequest is the generation server's request body.
type wireRequest struct {
	Concept        string   `json:"concept"`
	EmotionContext string   `json:"emotionContext,omitempty"`
	PartHints      []string `json:"partHints,omitempty"`
}

// NewPrimaryHTTP targets the part-aware text-to-parts route.
func NewPrimaryHTTP(baseURL string, timeout time.Duration) *HTTPGenerator {
	return newHTTP(baseURL, "/v1/generate/parts", timeout)
}

// NewFallbackHTTP targets the monolithic-mesh-plus-segmentation route.
func NewFallbackHTTP(baseURL string, timeout time.Duration) *HTTPGenerator {
	return newHTTP(baseURL, "/v1/generate/segmented", timeout)
}

func newHTTP(baseURL, route string, timeout time.Duration) *HTTPGenerator {
	return &HTTPGenerator{
		client:  &http.Client{Timeout: timeout},
		baseURL: baseURL,
		route:   route,
	}
}

func (g *HTTPGenerator) Generate(ctx context.Context, req Request) (*shape.MorphTarget, error) {
	body, err := json.Marshal(wireRequest{
		Concept:        req.Concept,
		EmotionContext: req.Emotion,
		PartHints:      req.Hints,
	})
	if err != nil {
		return nil, fmt.Errorf("marshal generation request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, g.baseURL+g.route, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build generation request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := g.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("generation request for %q: %w", req.Concept, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 256))
		return nil, fmt.Errorf("generation server returned %d for %q: %s",
			resp.StatusCode, req.Concept, snippet)
	}

	payload, err := io.ReadAll(io.LimitReader(resp.Body, 16<<20))
	if err != nil {
		return nil, fmt.Errorf("read generation response for %q: %w", req.Concept, err)
	}
	return shape.Decode(req.Concept, payload)
}
