// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package generate

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"strings"
)

// DefaultOpenAIBaseURL is Groq's OpenAI-compatible API root.
const DefaultOpenAIBaseURL = "https://api.groq.com/openai/v1"

// OpenAI speaks the chat completions protocol. It works against Groq,
// OpenAI and any compatible gateway.
type OpenAI struct {
	BaseURL   string
	APIKey    string
	MaxTokens int
	Client    *http.Client
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
	MaxTokens   int           `json:"max_tokens,omitempty"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResponse struct {
	Choices []struct {
		Message      chatMessage `json:"message"`
		FinishReason string      `json:"finish_reason"`
	} `json:"choices"`
}

// Generate sends prompt as a single user message and returns
// choices[0].message.content.
func (o *OpenAI) Generate(ctx context.Context, prompt, modelID string, temperature float64) (string, error) {
	if o.APIKey == "" {
		return "", genErr(KindAuthMissing, "generation API key is not configured")
	}

	body, err := json.Marshal(chatRequest{
		Model:       modelID,
		Messages:    []chatMessage{{Role: "user", Content: prompt}},
		Temperature: temperature,
		MaxTokens:   o.MaxTokens,
	})
	if err != nil {
		return "", genErr(KindServerError, "marshaling request: %w", err)
	}

	base := o.BaseURL
	if base == "" {
		base = DefaultOpenAIBaseURL
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, strings.TrimRight(base, "/")+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return "", genErr(KindServerError, "creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+o.APIKey)

	client := o.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return "", transportError(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", statusError(resp)
	}

	var cr chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&cr); err != nil {
		return "", &GenError{Kind: KindServerError, Status: resp.StatusCode, Err: err}
	}
	if len(cr.Choices) == 0 || strings.TrimSpace(cr.Choices[0].Message.Content) == "" {
		return "", &GenError{Kind: KindServerError, Status: resp.StatusCode, Err: errEmptyCompletion}
	}
	return cr.Choices[0].Message.Content, nil
}

var _ Generator = (*OpenAI)(nil)
