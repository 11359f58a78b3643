package synth

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
	// ErrEmptyPrompt means the caller passed a blank prompt.
	ErrEmptyPrompt = errors.New("synthesis prompt is empty")
	// ErrProviderRejected means the provider refused the request outright
	// (a non-transient 4xx); retrying the same payload cannot help.
	ErrProviderRejected = errors.New("audio provider rejected the request")
	// ErrRetriesExhausted means every allowed attempt hit a transient failure.
	ErrRetriesExhausted = errors.New("audio synthesis retries exhausted")
	// ErrEmptyResponse means the provider answered 200 with no audio bytes.
	ErrEmptyResponse = errors.New("audio provider returned no audio data")

	// errTransient tags rate-limit/model-loading responses for the retry policy.
	errTransient = errors.New("audio provider transient error")
)

// Config contains configuration for the synthesis client.
type Config struct {
	APIURL      string
	APIKey      string
	MaxAttempts int
}

// Client requests audio from a hosted inference endpoint. Cold models answer
// 503 while loading and busy ones 429, so the client retries those with a
// linearly growing, capped backoff before giving up.
type Client struct {
	config     *Config
	httpClient *http.Client
	policy     retry.Policy
}

// NewClient creates a synthesis client.
func NewClient(config *Config) *Client {
	attempts := config.MaxAttempts
	if attempts <= 0 {
		attempts = 6
	}
	return &Client{
		config: config,
		httpClient: &http.Client{
			Timeout: 120 * time.Second,
		},
		policy: retry.Policy{
			MaxAttempts: attempts,
			Backoff:     retry.LinearCappedBackoff(2500*time.Millisecond, 12*time.Second),
			Retryable: func(err error) bool {
				return errors.Is(err, errTransient)
			},
		},
	}
}

type inferenceRequest struct {
	Inputs     string              `json:"inputs"`
	Parameters inferenceParameters `json:"parameters"`
}

type inferenceParameters struct {
	Duration int `json:"duration"`
}

// Synthesize generates audio for the prompt. The returned bytes are the
// provider's encoded audio stream, ready for normalization and publishing.
func (c *Client) Synthesize(ctx context.Context, prompt string, durationSeconds int) ([]byte, error) {
	if strings.TrimSpace(prompt) == "" {
		return nil, ErrEmptyPrompt
	}
	if c.config.APIURL == "" {
		return nil, fmt.Errorf("audio provider endpoint not configured")
	}

	var audio []byte
	err := c.policy.Do(ctx, "synthesize", func() error {
		data, err := c.callOnce(ctx, prompt, durationSeconds)
		if err != nil {
			return err
		}
		audio = data
		return nil
	})
	if err != nil {
		if errors.Is(err, errTransient) {
			return nil, fmt.Errorf("%w: %v", ErrRetriesExhausted, err)
		}
		return nil, err
	}

	logger.Info("Audio synthesized",
		logger.Int("bytes", len(audio)),
		logger.Int("duration_seconds", durationSeconds))
	return audio, nil
}

func (c *Client) callOnce(ctx context.Context, prompt string, durationSeconds int) ([]byte, error) {
	reqBody := inferenceRequest{
		Inputs:     prompt,
		Parameters: inferenceParameters{Duration: durationSeconds},
	}
	jsonBody, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.config.APIURL, bytes.NewBuffer(jsonBody))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "audio/mpeg")
	if c.config.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.config.APIKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w: %w", err, errTransient)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusOK:
		// fall through to the body read below
	case resp.StatusCode == http.StatusTooManyRequests,
		resp.StatusCode == http.StatusServiceUnavailable,
		resp.StatusCode >= 500:
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("API returned status %d: %s: %w", resp.StatusCode, string(body), errTransient)
	default:
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("%w: status %d: %s", ErrProviderRejected, resp.StatusCode, string(body))
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read audio response: %w: %w", err, errTransient)
	}
	if len(data) == 0 {
		return nil, ErrEmptyResponse
	}
	return data, nil
}
