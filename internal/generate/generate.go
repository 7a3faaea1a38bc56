// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package generate calls hosted language models to turn an assembled prompt
// into a markdown report. Clients make exactly one request per call; retry
// policy belongs to the caller.
package generate

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/pdiddy/learning-engine/pkg/types"
)

// Generator produces a completion for a prompt.
type Generator interface {
	Generate(ctx context.Context, prompt, modelID string, temperature float64) (string, error)
}

// ErrorKind classifies a generation failure.
type ErrorKind int

const (
	KindServerError ErrorKind = iota
	KindAuthMissing
	KindRateLimited
	KindNetwork
)

func (k ErrorKind) String() string {
	switch k {
	case KindAuthMissing:
		return "auth_missing"
	case KindRateLimited:
		return "rate_limited"
	case KindNetwork:
		return "network"
	default:
		return "server_error"
	}
}

// GenError is returned by every Generator in this package.
type GenError struct {
	Kind ErrorKind
	// Status is the HTTP status code, or 0 when no response was received.
	Status int
	Err    error
}

func (e *GenError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("generation %s (HTTP %d): %v", e.Kind, e.Status, e.Err)
	}
	return fmt.Sprintf("generation %s: %v", e.Kind, e.Err)
}

func (e *GenError) Unwrap() error { return e.Err }

// Retryable reports whether repeating the request might succeed. Missing
// or rejected credentials and client-side request errors never do.
func (e *GenError) Retryable() bool {
	switch e.Kind {
	case KindAuthMissing:
		return false
	case KindServerError:
		return e.Status < 400 || e.Status >= 500
	}
	return true
}

// IsRetryable reports whether err is a retryable GenError.
func IsRetryable(err error) bool {
	var ge *GenError
	return errors.As(err, &ge) && ge.Retryable()
}

func genErr(kind ErrorKind, format string, args ...any) *GenError {
	return &GenError{Kind: kind, Err: fmt.Errorf(format, args...)}
}

// statusError classifies a non-2xx response, keeping a short excerpt of
// the body for diagnosis.
func statusError(resp *http.Response) *GenError {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
	msg := strings.TrimSpace(string(body))
	if msg == "" {
		msg = http.StatusText(resp.StatusCode)
	}
	ge := &GenError{Status: resp.StatusCode, Err: errors.New(msg)}
	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		ge.Kind = KindAuthMissing
	case resp.StatusCode == http.StatusTooManyRequests:
		ge.Kind = KindRateLimited
	default:
		ge.Kind = KindServerError
	}
	return ge
}

// transportError wraps a failed round trip. Deadlines and cancellations
// count as network failures.
func transportError(err error) *GenError {
	return &GenError{Kind: KindNetwork, Err: err}
}

// New builds the Generator selected by cfg.Provider.
func New(cfg types.GenerationConfig, client *http.Client) (Generator, error) {
	if client == nil {
		client = &http.Client{Timeout: cfg.Timeout}
	}
	switch cfg.Provider {
	case types.GenerationOpenAI, "":
		return &OpenAI{BaseURL: cfg.BaseURL, APIKey: cfg.APIKey, MaxTokens: cfg.MaxTokens, Client: client}, nil
	case types.GenerationAnthropic:
		return &Anthropic{BaseURL: cfg.BaseURL, APIKey: cfg.APIKey, MaxTokens: cfg.MaxTokens, Client: client}, nil
	}
	return nil, fmt.Errorf("unknown generation provider %q", cfg.Provider)
}
