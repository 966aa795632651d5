package agent

import (
	"context"
	"fmt"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
)

// ClaudeClient wraps the Anthropic API client.
type ClaudeClient struct {
	client anthropic.Client
	model  anthropic.Model
}

// NewClaudeClient creates a Claude-backed LLMClient.
func NewClaudeClient(apiKey, model string) LLMClient {
	return &ClaudeClient{
		client: anthropic.NewClient(option.WithAPIKey(apiKey)),
		model:  anthropic.Model(model),
	}
}

// prepareMessages adapts a conversation to Anthropic requirements: system
// messages move to the top-level system parameter, consecutive same-role
// messages merge, and the sequence must start and end with a user message.
func prepareMessages(messages []CompletionMessage) (systemPrompt string, alternating []CompletionMessage, err error) {
	if len(messages) == 0 {
		return "", nil, fmt.Errorf("message list cannot be empty")
	}

	var systemParts []string
	var rest []CompletionMessage
	for i := range messages {
		if messages[i].Role == RoleSystem {
			systemParts = append(systemParts, messages[i].Content)
		} else {
			rest = append(rest, messages[i])
		}
	}
	systemPrompt = strings.Join(systemParts, "\n\n")

	if len(rest) == 0 {
		return "", nil, fmt.Errorf("must have at least one non-system message")
	}

	for i := range rest {
		if len(alternating) > 0 && alternating[len(alternating)-1].Role == rest[i].Role {
			alternating[len(alternating)-1].Content += "\n\n" + rest[i].Content
			continue
		}
		alternating = append(alternating, rest[i])
	}

	if alternating[0].Role != RoleUser {
		alternating = append([]CompletionMessage{{Role: RoleUser, Content: "(begin)"}}, alternating...)
	}
	if alternating[len(alternating)-1].Role != RoleUser {
		return "", nil, fmt.Errorf("conversation must end with a user message")
	}
	return systemPrompt, alternating, nil
}

// Complete implements LLMClient.
func (c *ClaudeClient) Complete(ctx context.Context, in CompletionRequest) (CompletionResponse, error) {
	systemPrompt, alternating, err := prepareMessages(in.Messages)
	if err != nil {
		return CompletionResponse{}, NewError(ErrorTypeBadPrompt, err.Error())
	}

	params := anthropic.MessageNewParams{
		Model:       c.model,
		MaxTokens:   int64(in.MaxTokens),
		Temperature: anthropic.Float(float64(in.Temperature)),
	}
	for i := range alternating {
		block := anthropic.NewTextBlock(alternating[i].Content)
		if alternating[i].Role == RoleAssistant {
			params.Messages = append(params.Messages, anthropic.NewAssistantMessage(block))
		} else {
			params.Messages = append(params.Messages, anthropic.NewUserMessage(block))
		}
	}
	if systemPrompt != "" {
		params.System = []anthropic.TextBlockParam{{Text: systemPrompt, Type: "text"}}
	}

	resp, err := c.client.Messages.New(ctx, params)
	if err != nil {
		return CompletionResponse{}, WrapError(err, "anthropic call failed")
	}

	var sb strings.Builder
	for i := range resp.Content {
		if resp.Content[i].Type == "text" {
			sb.WriteString(resp.Content[i].Text)
		}
	}
	if sb.Len() == 0 {
		return CompletionResponse{}, NewError(ErrorTypeEmptyResponse, "no text content in Claude response")
	}
	return CompletionResponse{Content: sb.String()}, nil
}
