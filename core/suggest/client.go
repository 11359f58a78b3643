package suggest

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"musewave/core/retry"
	"musewave/logger"
)

var (
	// ErrNotConfigured means the provider endpoint is absent from config.
	ErrNotConfigured = errors.New("text-suggestion provider not configured")
	// errTransient tags rate-limit/model-loading responses for the retry policy.
	errTransient = errors.New("text-suggestion provider transient error")
)

// Config contains configuration for the suggestion client.
type Config struct {
	APIBaseURL  string
	APIKey      string
	Model       string
	MaxAttempts int
}

// Client calls an OpenAI-compatible chat endpoint for prompt refinement.
// Callers treat every error as a soft failure: the composer falls back to the
// heuristic prompt, so nothing here may take the pipeline down.
type Client struct {
	config     *Config
	httpClient *http.Client
	policy     retry.Policy
}

// NewClient creates a suggestion client.
func NewClient(config *Config) *Client {
	attempts := config.MaxAttempts
	if attempts <= 0 {
		attempts = 4
	}
	return &Client{
		config: config,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		policy: retry.Policy{
			MaxAttempts: attempts,
			Backoff:     retry.DoublingCappedBackoff(time.Second, 8*time.Second),
			Retryable: func(err error) bool {
				return errors.Is(err, errTransient)
			},
		},
	}
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	MaxTokens   int           `json:"max_tokens"`
	Temperature float64       `json:"temperature"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

const systemPrompt = "You are a Grammy-winning music producer. Rewrite the user's " +
	"request into one vivid, production-ready music generation prompt. Use concrete " +
	"instrumentation, groove, arrangement and mix notes. Return only the prompt text."

// Suggest asks the provider to refine the given instruction into a generation
// prompt. Transient provider errors (429/503) are retried with capped backoff;
// everything else fails fast and the caller degrades to the heuristic.
func (c *Client) Suggest(ctx context.Context, instruction string) (string, error) {
	if c.config.APIBaseURL == "" {
		return "", ErrNotConfigured
	}

	var suggestion string
	err := c.policy.Do(ctx, "suggest", func() error {
		text, err := c.callOnce(ctx, instruction)
		if err != nil {
			return err
		}
		suggestion = text
		return nil
	})
	if err != nil {
		return "", err
	}
	return suggestion, nil
}

func (c *Client) callOnce(ctx context.Context, instruction string) (string, error) {
	reqBody := chatRequest{
		Model: c.config.Model,
		Messages: []chatMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: instruction},
		},
		MaxTokens:   400,
		Temperature: 1.0,
	}

	jsonBody, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		strings.TrimRight(c.config.APIBaseURL, "/")+"/chat/completions", bytes.NewBuffer(jsonBody))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	if c.config.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.config.APIKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode == http.StatusServiceUnavailable {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return "", fmt.Errorf("API returned status %d: %s: %w", resp.StatusCode, string(body), errTransient)
	}

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return "", fmt.Errorf("API returned status %d: %s", resp.StatusCode, string(body))
	}

	var chatResp chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&chatResp); err != nil {
		return "", fmt.Errorf("failed to decode response: %w", err)
	}

	if len(chatResp.Choices) == 0 {
		return "", fmt.Errorf("no response choices returned")
	}

	text := strings.TrimSpace(chatResp.Choices[0].Message.Content)
	if text == "" {
		return "", fmt.Errorf("provider returned empty suggestion")
	}

	logger.Debug("Suggestion generated", logger.Int("length", len(text)))
	return text, nil
}
