package classifier

import (
	"context"
	"fmt"
	"log"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"kbwatch/internal/domain"
)

const defaultAnthropicModel = "claude-sonnet-4-5-20250929"

// AnthropicClient classifies via a single Anthropic messages call. Unlike
// the assistant flow there is no polling; the request blocks until the
// model answers.
type AnthropicClient struct {
	client anthropic.Client
	model  string
}

func NewAnthropicClient(apiKey, model string) *AnthropicClient {
	if model == "" {
		model = defaultAnthropicModel
	}
	return &AnthropicClient{
		client: anthropic.NewClient(option.WithAPIKey(apiKey)),
		model:  model,
	}
}

func (c *AnthropicClient) Classify(ctx context.Context, message string) (domain.Category, error) {
	resp, err := c.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     anthropic.Model(c.model),
		MaxTokens: 32,
		System: []anthropic.TextBlockParam{
			{Text: classifyInstruction},
		},
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock("Message: " + message)),
		},
	})
	if err != nil {
		log.Printf("classifier anthropic error: %v", err)
		return "", fmt.Errorf("anthropic API error: %w", err)
	}

	for _, block := range resp.Content {
		if block.Type == "text" {
			log.Printf("classifier anthropic model=%s response=%q", c.model, block.Text)
			return ParseLabel(block.Text)
		}
	}
	return "", fmt.Errorf("no text content in anthropic response: %w", domain.ErrClassifierFailure)
}
