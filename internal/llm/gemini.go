package llm

import (
	"context"
	"fmt"

	"google.golang.org/genai"
)

// Gemini is the Capability implementation backed by the Gen AI API.
// Vertex vs Gemini Dev is controlled via env vars:
//   - GOOGLE_GENAI_USE_VERTEXAI=True -> Vertex AI
//   - GOOGLE_CLOUD_PROJECT
//   - GOOGLE_CLOUD_LOCATION
type Gemini struct{}

// NewGemini creates a Gemini capability. The underlying client is created
// per call so credentials refresh naturally on long runs.
func NewGemini() *Gemini {
	return &Gemini{}
}

// Classify sends the prompt to the named model and returns the raw response
// text. Cancellation and timeouts belong to the caller's ctx.
func (g *Gemini) Classify(ctx context.Context, model, prompt string) (string, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		HTTPOptions: genai.HTTPOptions{APIVersion: "v1"},
	})
	if err != nil {
		return "", fmt.Errorf("gemini: create genai client: %w", err)
	}

	contents := []*genai.Content{
		{
			Role: "user",
			Parts: []*genai.Part{
				{Text: prompt},
			},
		},
	}

	resp, err := client.Models.GenerateContent(ctx, model, contents, nil)
	if err != nil {
		return "", fmt.Errorf("gemini: generate content: %w", err)
	}

	rawText := resp.Text()
	if rawText == "" {
		return "", fmt.Errorf("gemini: empty response from model %s", model)
	}
	return rawText, nil
}
