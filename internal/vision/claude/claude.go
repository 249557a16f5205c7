package claude

import (
	"context"
	"fmt"
	"io"

	"github.com/liushuangls/go-anthropic/v2"

	"github.com/menupix/menupix/internal/vision"
)

type ClaudeAnalyzer struct {
	client *anthropic.Client
	model  string
}

func NewClaudeAnalyzer(apiKey, model string, opts ...anthropic.ClientOption) *ClaudeAnalyzer {
	return &ClaudeAnalyzer{
		client: anthropic.NewClient(apiKey, opts...),
		model:  model,
	}
}

// complete sends one prompt+image round trip through the Anthropic Messages
// API and returns the text of the first content block.
func (a *ClaudeAnalyzer) complete(ctx context.Context, r io.Reader, mimeType, prompt string, maxTokens int) (string, error) {
	imageData, err := io.ReadAll(r)
	if err != nil {
		return "", fmt.Errorf("failed to read image: %w", err)
	}

	resp, err := a.client.CreateMessages(ctx, anthropic.MessagesRequest{
		Model:     anthropic.Model(a.model),
		MaxTokens: maxTokens,
		Messages: []anthropic.Message{
			{
				Role: anthropic.RoleUser,
				Content: []anthropic.MessageContent{
					anthropic.NewImageMessageContent(anthropic.NewMessageContentSource(
						anthropic.MessagesContentSourceTypeBase64,
						normaliseMIME(mimeType),
						imageData,
					)),
					anthropic.NewTextMessageContent(prompt),
				},
			},
		},
	})
	if err != nil {
		return "", fmt.Errorf("failed to call claude: %w", err)
	}
	if len(resp.Content) == 0 {
		return "", fmt.Errorf("claude returned no content")
	}

	return resp.Content[0].GetText(), nil
}

func (a *ClaudeAnalyzer) ClassifyMenu(ctx context.Context, r io.Reader, mimeType string) (bool, error) {
	// A single word is expected; 16 tokens leaves room for chatty models.
	text, err := a.complete(ctx, r, mimeType, vision.ClassifyPrompt, 16)
	if err != nil {
		return false, err
	}
	return vision.ParseBool(text)
}

func (a *ClaudeAnalyzer) ExtractDishes(ctx context.Context, r io.Reader, mimeType string) ([]string, error) {
	// 10 dish names at a handful of tokens each; 256 is generous.
	text, err := a.complete(ctx, r, mimeType, vision.ExtractPrompt, 256)
	if err != nil {
		return nil, err
	}
	return vision.ParseDishes(text), nil
}

// normaliseMIME coerces unknown MIME types to jpeg. The Anthropic API accepts
// only jpeg, png, gif, and webp; callers validate MIME types before this layer.
func normaliseMIME(mimeType string) string {
	switch mimeType {
	case "image/png", "image/gif", "image/webp":
		return mimeType
	default:
		return "image/jpeg"
	}
}
