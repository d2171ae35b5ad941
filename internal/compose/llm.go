package compose

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/deskd-io/deskd/pkg/protocol"
)

const systemPrompt = `You are the reply writer for an IT helpdesk assistant.
You receive a JSON bundle of resolved facts: knowledge citations, ticket
details, troubleshooting prompts, and outcomes. Write a short, friendly
reply that conveys exactly those facts. Never invent ticket IDs, article
content, version numbers, or steps that are not in the bundle. Address
every result in the bundle, in order.`

// LLMComposer renders bundles through an OpenAI-compatible chat API.
// On any transport or API failure it falls back to template rendering,
// so a provider outage degrades tone, not availability.
type LLMComposer struct {
	client   *http.Client
	baseURL  string
	apiKey   string
	model    string
	fallback *TemplateComposer
	logger   *slog.Logger
}

// LLMOption configures an LLMComposer.
type LLMOption func(*LLMComposer)

// WithBaseURL sets a custom API base URL.
func WithBaseURL(url string) LLMOption {
	return func(c *LLMComposer) { c.baseURL = url }
}

// WithModel sets the model.
func WithModel(model string) LLMOption {
	return func(c *LLMComposer) { c.model = model }
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(hc *http.Client) LLMOption {
	return func(c *LLMComposer) { c.client = hc }
}

// NewLLM creates a composer backed by an OpenAI-compatible endpoint.
func NewLLM(apiKey string, logger *slog.Logger, opts ...LLMOption) *LLMComposer {
	if logger == nil {
		logger = slog.Default()
	}
	c := &LLMComposer{
		client:   &http.Client{Timeout: 60 * time.Second},
		baseURL:  "https://api.openai.com/v1",
		apiKey:   apiKey,
		model:    "gpt-4o-mini",
		fallback: NewTemplate(),
		logger:   logger,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *LLMComposer) Render(ctx context.Context, bundle *protocol.Bundle) (string, error) {
	text, err := c.complete(ctx, bundle)
	if err != nil {
		c.logger.Warn("llm compose failed, using template fallback", "error", err)
		return c.fallback.Render(ctx, bundle)
	}
	return text, nil
}

func (c *LLMComposer) complete(ctx context.Context, bundle *protocol.Bundle) (string, error) {
	facts, err := json.Marshal(bundle)
	if err != nil {
		return "", fmt.Errorf("compose: marshal bundle: %w", err)
	}

	body := chatRequest{
		Model: c.model,
		Messages: []chatMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: string(facts)},
		},
	}
	payload, err := json.Marshal(body)
	if err != nil {
		return "", fmt.Errorf("compose: marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/completions", bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("compose: create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.client.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("compose: http request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("compose: read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("compose: api error (status %d): %s", resp.StatusCode, string(respBody))
	}

	var parsed chatResponse
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return "", fmt.Errorf("compose: unmarshal response: %w", err)
	}
	if len(parsed.Choices) == 0 || parsed.Choices[0].Message.Content == "" {
		return "", fmt.Errorf("compose: empty completion")
	}
	return parsed.Choices[0].Message.Content, nil
}

// --- OpenAI wire format types ---

type chatRequest struct {
	Model    string        `json:"model"`
	Messages []chatMessage `json:"messages"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
}
