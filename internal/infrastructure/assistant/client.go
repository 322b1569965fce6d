// Package assistant is a thin proxy client for an OpenAI-compatible
// chat-completions endpoint. It forwards one user message under a fixed
// system prompt and relays the first choice's content.
package assistant

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

const systemPrompt = "You are a helpful banking assistant for Kodbank. Use a professional and friendly tone."

// Config holds assistant client configuration.
type Config struct {
	URL       string
	APIKey    string
	Model     string
	MaxTokens int
	Timeout   time.Duration
}

// Client implements usecase.AssistantClient over HTTP.
type Client struct {
	httpClient *http.Client
	url        string
	apiKey     string
	model      string
	maxTokens  int
}

// NewClient creates a new assistant client.
func NewClient(cfg Config) *Client {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}

	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		url:        cfg.URL,
		apiKey:     cfg.APIKey,
		model:      cfg.Model,
		maxTokens:  cfg.MaxTokens,
	}
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model     string        `json:"model"`
	Messages  []chatMessage `json:"messages"`
	MaxTokens int           `json:"max_tokens"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error"`
}

// Complete sends one message and returns the generated reply.
func (c *Client) Complete(ctx context.Context, message string) (string, error) {
	payload, err := json.Marshal(chatRequest{
		Model: c.model,
		Messages: []chatMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: message},
		},
		MaxTokens: c.maxTokens,
	})
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(payload))
	if err != nil {
		return "", err
	}

	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("assistant request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}

	var result chatResponse
	if err := json.Unmarshal(body, &result); err != nil {
		return "", fmt.Errorf("assistant returned malformed response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		if result.Error != nil && result.Error.Message != "" {
			return "", fmt.Errorf("assistant upstream error: %s", result.Error.Message)
		}
		return "", fmt.Errorf("assistant upstream error: status %d", resp.StatusCode)
	}

	if len(result.Choices) == 0 || result.Choices[0].Message.Content == "" {
		return "I'm sorry, I couldn't generate a response.", nil
	}

	return result.Choices[0].Message.Content, nil
}
