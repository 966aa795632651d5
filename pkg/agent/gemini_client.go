package agent

import (
	"context"
	"strings"
	"sync"

	"google.golang.org/genai"
)

// GeminiClient wraps the Google genai API. The underlying client is created
// lazily on first use because genai.NewClient needs a context.
type GeminiClient struct {
	apiKey string
	model  string

	mu     sync.Mutex
	client *genai.Client
}

// NewGeminiClient creates a Gemini-backed LLMClient.
func NewGeminiClient(apiKey, model string) LLMClient {
	return &GeminiClient{apiKey: apiKey, model: model}
}

func (c *GeminiClient) ensureClient(ctx context.Context) (*genai.Client, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.client != nil {
		return c.client, nil
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  c.apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, WrapError(err, "creating gemini client")
	}
	c.client = client
	return client, nil
}

// Complete implements LLMClient.
func (c *GeminiClient) Complete(ctx context.Context, in CompletionRequest) (CompletionResponse, error) {
	client, err := c.ensureClient(ctx)
	if err != nil {
		return CompletionResponse{}, err
	}

	var systemParts []string
	var contents []*genai.Content
	for i := range in.Messages {
		switch in.Messages[i].Role {
		case RoleSystem:
			systemParts = append(systemParts, in.Messages[i].Content)
		case RoleAssistant:
			contents = append(contents, &genai.Content{
				Role:  "model",
				Parts: []*genai.Part{{Text: in.Messages[i].Content}},
			})
		default:
			contents = append(contents, &genai.Content{
				Role:  "user",
				Parts: []*genai.Part{{Text: in.Messages[i].Content}},
			})
		}
	}
	if len(contents) == 0 {
		return CompletionResponse{}, NewError(ErrorTypeBadPrompt, "must have at least one non-system message")
	}

	temp := in.Temperature
	cfg := &genai.GenerateContentConfig{
		Temperature:     &temp,
		MaxOutputTokens: int32(in.MaxTokens),
	}
	if len(systemParts) > 0 {
		cfg.SystemInstruction = &genai.Content{
			Parts: []*genai.Part{{Text: strings.Join(systemParts, "\n\n")}},
		}
	}

	resp, err := client.Models.GenerateContent(ctx, c.model, contents, cfg)
	if err != nil {
		return CompletionResponse{}, WrapError(err, "gemini call failed")
	}
	text := resp.Text()
	if text == "" {
		return CompletionResponse{}, NewError(ErrorTypeEmptyResponse, "empty response from gemini")
	}
	return CompletionResponse{Content: text}, nil
}
