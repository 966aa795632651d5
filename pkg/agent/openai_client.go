package agent

import (
	"context"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

// OpenAIClient wraps the OpenAI chat completions API.
type OpenAIClient struct {
	client openai.Client
	model  string
}

// NewOpenAIClient creates an OpenAI-backed LLMClient.
func NewOpenAIClient(apiKey, model string) LLMClient {
	return &OpenAIClient{
		client: openai.NewClient(option.WithAPIKey(apiKey)),
		model:  model,
	}
}

// Complete implements LLMClient.
func (c *OpenAIClient) Complete(ctx context.Context, in CompletionRequest) (CompletionResponse, error) {
	params := openai.ChatCompletionNewParams{
		Model:       c.model,
		MaxTokens:   openai.Int(int64(in.MaxTokens)),
		Temperature: openai.Float(float64(in.Temperature)),
	}
	for i := range in.Messages {
		switch in.Messages[i].Role {
		case RoleSystem:
			params.Messages = append(params.Messages, openai.SystemMessage(in.Messages[i].Content))
		case RoleAssistant:
			params.Messages = append(params.Messages, openai.AssistantMessage(in.Messages[i].Content))
		default:
			params.Messages = append(params.Messages, openai.UserMessage(in.Messages[i].Content))
		}
	}

	resp, err := c.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return CompletionResponse{}, WrapError(err, "openai call failed")
	}
	if len(resp.Choices) == 0 || resp.Choices[0].Message.Content == "" {
		return CompletionResponse{}, NewError(ErrorTypeEmptyResponse, "no choices in OpenAI response")
	}
	return CompletionResponse{Content: resp.Choices[0].Message.Content}, nil
}
