package llm

import (
	"context"
	"fmt"

	"google.golang.org/genai"
)

const defaultModel = "gemini-2.0-flash"

// ChatClient abstracts LLM chat capabilities needed by domain services.
type ChatClient interface {
	GenerateContent(ctx context.Context, prompt string) (string, error)
	Model() string
}

// GeminiChatClient adapts the genai client to the ChatClient interface.
type GeminiChatClient struct {
	client *genai.Client
	model  string
}

var _ ChatClient = (*GeminiChatClient)(nil)

// NewGeminiChatClient creates a ChatClient backed by Gemini. An empty
// model selects the default.
func NewGeminiChatClient(ctx context.Context, apiKey, model string) (*GeminiChatClient, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create genai client: %w", err)
	}
	if model == "" {
		model = defaultModel
	}
	return &GeminiChatClient{client: client, model: model}, nil
}

func (g *GeminiChatClient) GenerateContent(ctx context.Context, prompt string) (string, error) {
	resp, err := g.client.Models.GenerateContent(ctx, g.model, genai.Text(prompt), &genai.GenerateContentConfig{
		Temperature:     genai.Ptr[float32](0.7),
		MaxOutputTokens: 1024,
	})
	if err != nil {
		return "", fmt.Errorf("failed to generate content: %w", err)
	}
	return resp.Text(), nil
}

func (g *GeminiChatClient) Model() string {
	return g.model
}
