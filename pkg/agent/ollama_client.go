package agent

import (
	"context"
	"net/http"
	"net/url"
	"strings"

	"github.com/ollama/ollama/api"
)

// OllamaClient talks to a local or remote Ollama server.
type OllamaClient struct {
	client *api.Client
	model  string
}

// NewOllamaClient creates an Ollama-backed LLMClient for the given host URL.
func NewOllamaClient(host, model string) (LLMClient, error) {
	base, err := url.Parse(host)
	if err != nil {
		return nil, NewError(ErrorTypeBadPrompt, "invalid ollama host "+host)
	}
	return &OllamaClient{
		client: api.NewClient(base, http.DefaultClient),
		model:  model,
	}, nil
}

// Complete implements LLMClient.
func (c *OllamaClient) Complete(ctx context.Context, in CompletionRequest) (CompletionResponse, error) {
	msgs := make([]api.Message, 0, len(in.Messages))
	for i := range in.Messages {
		msgs = append(msgs, api.Message{
			Role:    string(in.Messages[i].Role),
			Content: in.Messages[i].Content,
		})
	}

	stream := false
	req := &api.ChatRequest{
		Model:    c.model,
		Messages: msgs,
		Stream:   &stream,
		Options: map[string]any{
			"temperature": float64(in.Temperature),
			"num_predict": in.MaxTokens,
		},
	}

	var sb strings.Builder
	err := c.client.Chat(ctx, req, func(resp api.ChatResponse) error {
		sb.WriteString(resp.Message.Content)
		return nil
	})
	if err != nil {
		return CompletionResponse{}, WrapError(err, "ollama call failed")
	}
	if sb.Len() == 0 {
		return CompletionResponse{}, NewError(ErrorTypeEmptyResponse, "empty response from ollama")
	}
	return CompletionResponse{Content: sb.String()}, nil
}
