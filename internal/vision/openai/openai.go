package openai

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/menupix/menupix/internal/vision"
)

const defaultAPIURL = "https://api.openai.com/v1/chat/completions"

// request types mirror the OpenAI chat-completions API structure.
type request struct {
	Model     string    `json:"model"`
	MaxTokens int       `json:"max_tokens"`
	Messages  []message `json:"messages"`
}

type message struct {
	Role    string `json:"role"`
	Content []part `json:"content"`
}

type part struct {
	Type     string    `json:"type"`
	Text     string    `json:"text,omitempty"`
	ImageURL *imageURL `json:"image_url,omitempty"`
}

type imageURL struct {
	URL string `json:"url"`
}

type response struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

type OpenAIAnalyzer struct {
	apiKey  string
	model   string
	client  *http.Client
	baseURL string
}

func NewOpenAIAnalyzer(apiKey, model string) *OpenAIAnalyzer {
	return &OpenAIAnalyzer{
		apiKey:  apiKey,
		model:   model,
		client:  &http.Client{},
		baseURL: defaultAPIURL,
	}
}

// buildMessages constructs the chat payload: the prompt plus the image as a
// base64 data URL, the way the vision-capable chat models expect it.
func buildMessages(prompt string, imageData []byte, mimeType string) []message {
	dataURL := fmt.Sprintf("data:%s;base64,%s",
		normaliseMIME(mimeType), base64.StdEncoding.EncodeToString(imageData))
	return []message{{
		Role: "user",
		Content: []part{
			{Type: "text", Text: prompt},
			{Type: "image_url", ImageURL: &imageURL{URL: dataURL}},
		},
	}}
}

func (a *OpenAIAnalyzer) newHTTPRequest(ctx context.Context, payload []byte) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.baseURL, bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+a.apiKey)
	return req, nil
}

// complete sends one prompt+image round trip and returns the text of the
// first choice.
func (a *OpenAIAnalyzer) complete(ctx context.Context, r io.Reader, mimeType, prompt string, maxTokens int) (string, error) {
	imageData, err := io.ReadAll(r)
	if err != nil {
		return "", fmt.Errorf("failed to read image: %w", err)
	}

	body := request{
		Model:     a.model,
		MaxTokens: maxTokens,
		Messages:  buildMessages(prompt, imageData, mimeType),
	}

	payload, err := json.Marshal(body)
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := a.newHTTPRequest(ctx, payload)
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := a.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to call openai: %w", err)
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			slog.Error("failed to close openai response body", "error", err)
		}
	}()

	if resp.StatusCode != http.StatusOK {
		errBody, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("openai returned status %d: %s", resp.StatusCode, errBody)
	}

	var respBody response
	if err := json.NewDecoder(resp.Body).Decode(&respBody); err != nil {
		return "", fmt.Errorf("failed to decode response: %w", err)
	}
	if len(respBody.Choices) == 0 {
		return "", fmt.Errorf("openai returned no choices")
	}

	return respBody.Choices[0].Message.Content, nil
}

func (a *OpenAIAnalyzer) ClassifyMenu(ctx context.Context, r io.Reader, mimeType string) (bool, error) {
	// A single word is expected; 16 tokens leaves room for chatty models.
	text, err := a.complete(ctx, r, mimeType, vision.ClassifyPrompt, 16)
	if err != nil {
		return false, err
	}
	return vision.ParseBool(text)
}

func (a *OpenAIAnalyzer) ExtractDishes(ctx context.Context, r io.Reader, mimeType string) ([]string, error) {
	// 10 dish names at a handful of tokens each; 256 is generous.
	text, err := a.complete(ctx, r, mimeType, vision.ExtractPrompt, 256)
	if err != nil {
		return nil, err
	}
	return vision.ParseDishes(text), nil
}

// normaliseMIME coerces unknown MIME types to jpeg, the most universally
// supported fallback. Callers validate MIME types before reaching this layer.
func normaliseMIME(mimeType string) string {
	switch mimeType {
	case "image/png", "image/gif", "image/webp":
		return mimeType
	default:
		return "image/jpeg"
	}
}
