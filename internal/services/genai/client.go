package genai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"infotec-chatbot/internal/common/config"
	commonerrors "infotec-chatbot/internal/common/errors"
	"infotec-chatbot/internal/common/logger"
)

// Generator produces free-form text from a prompt. The chatbot degrades to
// deterministic replies whenever a Generator call fails, so implementations
// must return an error rather than block past the context deadline.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// Client calls the GenAI HTTP API.
type Client struct {
	config *config.GeneratorConfig
	client *http.Client
	logger logger.Logger
}

func NewClient(cfg *config.GeneratorConfig, log logger.Logger) *Client {
	return &Client{
		config: cfg,
		client: &http.Client{
			// No client-level timeout; the per-request context bounds the call.
		},
		logger: log.With(map[string]interface{}{
			"service": "genai",
		}),
	}
}

func (c *Client) Generate(ctx context.Context, prompt string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, c.config.Timeout)
	defer cancel()

	requestBody := map[string]interface{}{
		"prompt":      prompt,
		"max_tokens":  c.config.MaxTokens,
		"temperature": c.config.Temperature,
	}

	body, _ := json.Marshal(requestBody)

	var resp *http.Response
	var lastErr error

	for attempt := 0; attempt <= c.config.MaxRetries; attempt++ {
		if attempt > 0 {
			backoff := time.Duration(100*(1<<(attempt-1))) * time.Millisecond
			select {
			case <-time.After(backoff):
			case <-ctx.Done():
				return "", commonerrors.ErrGeneratorTimeout
			}
		}

		req, err := http.NewRequestWithContext(ctx, "POST", c.config.BaseURL+"/api/ai/generate", bytes.NewBuffer(body))
		if err != nil {
			return "", fmt.Errorf("%w: %v", commonerrors.ErrGenerationFailed, err)
		}
		req.Header.Set("Content-Type", "application/json")

		resp, lastErr = c.client.Do(req)
		if lastErr == nil {
			if resp.StatusCode == http.StatusOK {
				break
			}
			resp.Body.Close()
			lastErr = fmt.Errorf("status %d", resp.StatusCode)
			resp = nil
		}

		if ctx.Err() != nil {
			return "", commonerrors.ErrGeneratorTimeout
		}
	}

	if lastErr != nil {
		if ctx.Err() == context.DeadlineExceeded {
			return "", commonerrors.ErrGeneratorTimeout
		}
		return "", fmt.Errorf("%w: %v", commonerrors.ErrGenerationFailed, lastErr)
	}

	if resp == nil {
		return "", fmt.Errorf("%w: no successful response after retries", commonerrors.ErrGenerationFailed)
	}
	defer resp.Body.Close()

	var apiResponse struct {
		Text string `json:"text"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&apiResponse); err != nil {
		return "", fmt.Errorf("%w: decode error: %v", commonerrors.ErrGenerationFailed, err)
	}

	text := strings.TrimSpace(apiResponse.Text)
	if text == "" {
		return "", fmt.Errorf("%w: empty completion", commonerrors.ErrGenerationFailed)
	}

	c.logger.Debug("generation completed", map[string]interface{}{
		"promptLength": len(prompt),
		"replyLength":  len(text),
	})

	return text, nil
}
