// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package generate

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
)

// DefaultAnthropicBaseURL is the Anthropic API root.
const DefaultAnthropicBaseURL = "https://api.anthropic.com/v1"

const (
	anthropicVersion          = "2023-06-01"
	defaultAnthropicMaxTokens = 4096
)

var errEmptyCompletion = errors.New("model returned no text")

// Anthropic calls the Messages API.
type Anthropic struct {
	BaseURL   string
	APIKey    string
	MaxTokens int
	Client    *http.Client
}

type messagesRequest struct {
	Model       string        `json:"model"`
	MaxTokens   int           `json:"max_tokens"`
	Temperature float64       `json:"temperature"`
	Messages    []chatMessage `json:"messages"`
}

type messagesResponse struct {
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
}

// Generate sends prompt as one user turn and joins the text blocks of the
// reply.
func (a *Anthropic) Generate(ctx context.Context, prompt, modelID string, temperature float64) (string, error) {
	if a.APIKey == "" {
		return "", genErr(KindAuthMissing, "Anthropic API key is not configured")
	}
	maxTokens := a.MaxTokens
	if maxTokens <= 0 {
		maxTokens = defaultAnthropicMaxTokens
	}

	body, err := json.Marshal(messagesRequest{
		Model:       modelID,
		MaxTokens:   maxTokens,
		Temperature: temperature,
		Messages:    []chatMessage{{Role: "user", Content: prompt}},
	})
	if err != nil {
		return "", genErr(KindServerError, "marshaling request: %w", err)
	}

	base := a.BaseURL
	if base == "" {
		base = DefaultAnthropicBaseURL
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, strings.TrimRight(base, "/")+"/messages", bytes.NewReader(body))
	if err != nil {
		return "", genErr(KindServerError, "creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-api-key", a.APIKey)
	req.Header.Set("anthropic-version", anthropicVersion)

	client := a.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return "", transportError(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", statusError(resp)
	}

	var mr messagesResponse
	if err := json.NewDecoder(resp.Body).Decode(&mr); err != nil {
		return "", &GenError{Kind: KindServerError, Status: resp.StatusCode, Err: err}
	}
	var parts []string
	for _, block := range mr.Content {
		if block.Type == "text" {
			parts = append(parts, block.Text)
		}
	}
	text := strings.Join(parts, "")
	if strings.TrimSpace(text) == "" {
		return "", &GenError{Kind: KindServerError, Status: resp.StatusCode, Err: errEmptyCompletion}
	}
	return text, nil
}

var _ Generator = (*Anthropic)(nil)
