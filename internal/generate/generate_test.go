// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package generate

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/learning-engine/pkg/types"
)

const reportMarkdown = "# Graph Theory\n\n## Introduction\nGraphs are everywhere."

func TestOpenAI_Generate(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/openai/v1/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer gsk-test", r.Header.Get("Authorization"))

		var req chatRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "llama-3.3-70b-versatile", req.Model)
		assert.InDelta(t, 0.3, req.Temperature, 1e-9)
		require.Len(t, req.Messages, 1)
		assert.Equal(t, "user", req.Messages[0].Role)
		assert.Equal(t, "the prompt", req.Messages[0].Content)

		fmt.Fprintf(w, `{"choices":[{"message":{"role":"assistant","content":%q},"finish_reason":"stop"}]}`, reportMarkdown)
	}))
	defer srv.Close()

	g := &OpenAI{BaseURL: srv.URL + "/openai/v1/", APIKey: "gsk-test", Client: srv.Client()}
	got, err := g.Generate(context.Background(), "the prompt", "llama-3.3-70b-versatile", 0.3)
	require.NoError(t, err)
	assert.Equal(t, reportMarkdown, got)
}

func TestOpenAI_StatusClassification(t *testing.T) {
	tests := []struct {
		status    int
		kind      ErrorKind
		retryable bool
	}{
		{http.StatusUnauthorized, KindAuthMissing, false},
		{http.StatusForbidden, KindAuthMissing, false},
		{http.StatusTooManyRequests, KindRateLimited, true},
		{http.StatusInternalServerError, KindServerError, true},
		{http.StatusServiceUnavailable, KindServerError, true},
		{http.StatusBadRequest, KindServerError, false},
	}
	for _, tt := range tests {
		t.Run(http.StatusText(tt.status), func(t *testing.T) {
			var calls atomic.Int32
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				calls.Add(1)
				w.WriteHeader(tt.status)
				fmt.Fprint(w, `{"error":{"message":"nope"}}`)
			}))
			defer srv.Close()

			g := &OpenAI{BaseURL: srv.URL, APIKey: "k", Client: srv.Client()}
			_, err := g.Generate(context.Background(), "p", "m", 0)

			var ge *GenError
			require.ErrorAs(t, err, &ge)
			assert.Equal(t, tt.kind, ge.Kind)
			assert.Equal(t, tt.status, ge.Status)
			assert.Equal(t, tt.retryable, IsRetryable(err))
			assert.Contains(t, ge.Error(), "nope")
			assert.Equal(t, int32(1), calls.Load(), "client must not retry")
		})
	}
}

func TestOpenAI_MissingKeyMakesNoRequest(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
	}))
	defer srv.Close()

	_, err := (&OpenAI{BaseURL: srv.URL, Client: srv.Client()}).Generate(context.Background(), "p", "m", 0)
	var ge *GenError
	require.ErrorAs(t, err, &ge)
	assert.Equal(t, KindAuthMissing, ge.Kind)
	assert.Equal(t, int32(0), calls.Load())
}

func TestOpenAI_EmptyChoices(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"choices":[]}`)
	}))
	defer srv.Close()

	_, err := (&OpenAI{BaseURL: srv.URL, APIKey: "k", Client: srv.Client()}).Generate(context.Background(), "p", "m", 0)
	var ge *GenError
	require.ErrorAs(t, err, &ge)
	assert.Equal(t, KindServerError, ge.Kind)
	assert.ErrorIs(t, err, errEmptyCompletion)
}

func TestOpenAI_TimeoutIsNetwork(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(time.Second):
		}
	}))
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err := (&OpenAI{BaseURL: srv.URL, APIKey: "k", Client: srv.Client()}).Generate(ctx, "p", "m", 0)
	var ge *GenError
	require.ErrorAs(t, err, &ge)
	assert.Equal(t, KindNetwork, ge.Kind)
	assert.True(t, errors.Is(err, context.DeadlineExceeded))
	assert.True(t, ge.Retryable())
}

func TestAnthropic_Generate(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/messages", r.URL.Path)
		assert.Equal(t, "sk-ant", r.Header.Get("x-api-key"))
		assert.Equal(t, anthropicVersion, r.Header.Get("anthropic-version"))

		var req messagesRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, defaultAnthropicMaxTokens, req.MaxTokens)
		assert.Equal(t, "claude-sonnet-4-5", req.Model)

		fmt.Fprint(w, `{"content":[{"type":"text","text":"# Graphs\n"},{"type":"tool_use"},{"type":"text","text":"## Introduction"}]}`)
	}))
	defer srv.Close()

	g := &Anthropic{BaseURL: srv.URL + "/v1", APIKey: "sk-ant", Client: srv.Client()}
	got, err := g.Generate(context.Background(), "p", "claude-sonnet-4-5", 0.2)
	require.NoError(t, err)
	assert.Equal(t, "# Graphs\n## Introduction", got)
}

func TestAnthropic_RateLimited(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	_, err := (&Anthropic{BaseURL: srv.URL, APIKey: "k", Client: srv.Client()}).Generate(context.Background(), "p", "m", 0)
	var ge *GenError
	require.ErrorAs(t, err, &ge)
	assert.Equal(t, KindRateLimited, ge.Kind)
	assert.Contains(t, ge.Error(), "Too Many Requests")
}

func TestNew(t *testing.T) {
	cfg := types.DefaultPipelineConfig().Generation
	g, err := New(cfg, nil)
	require.NoError(t, err)
	assert.IsType(t, &OpenAI{}, g)

	cfg.Provider = types.GenerationAnthropic
	g, err = New(cfg, nil)
	require.NoError(t, err)
	assert.IsType(t, &Anthropic{}, g)

	cfg.Provider = "bard"
	_, err = New(cfg, nil)
	assert.Error(t, err)
}

func TestGenErrorFormatting(t *testing.T) {
	ge := &GenError{Kind: KindRateLimited, Status: 429, Err: errors.New("slow down")}
	assert.Equal(t, "generation rate_limited (HTTP 429): slow down", ge.Error())
	ge = &GenError{Kind: KindNetwork, Err: errors.New("reset")}
	assert.Equal(t, "generation network: reset", ge.Error())
	assert.False(t, IsRetryable(errors.New("plain")))
}
