// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package sources fetches learning material from external content sources
// and normalises it into RawDocuments. Each source is a Connector; FetchAll
// runs a set of connectors concurrently and isolates their failures.
package sources

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/pdiddy/learning-engine/pkg/types"
)

// Connector fetches documents from one external source. A search with no
// hits returns an empty slice and a nil error. Failures are *FetchError.
type Connector interface {
	Name() types.SourceID
	Fetch(ctx context.Context, query string, limit int) ([]types.RawDocument, error)
}

// ErrorKind classifies a connector failure.
type ErrorKind int

const (
	// KindNetwork covers transport errors, timeouts and 5xx responses.
	KindNetwork ErrorKind = iota
	KindAuthMissing
	KindRateLimited
	// KindParse covers unexpected status codes and undecodable bodies.
	KindParse
)

func (k ErrorKind) String() string {
	switch k {
	case KindAuthMissing:
		return "auth_missing"
	case KindRateLimited:
		return "rate_limited"
	case KindParse:
		return "parse"
	default:
		return "network"
	}
}

// FetchError reports why a connector produced no documents.
type FetchError struct {
	Source types.SourceID
	Kind   ErrorKind
	Err    error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("%s: %s: %v", e.Source, e.Kind, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

func fetchErr(source types.SourceID, kind ErrorKind, format string, args ...any) *FetchError {
	return &FetchError{Source: source, Kind: kind, Err: fmt.Errorf(format, args...)}
}

// statusError maps a non-2xx HTTP status to a FetchError.
func statusError(source types.SourceID, status int) *FetchError {
	kind := KindParse
	switch {
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		kind = KindAuthMissing
	case status == http.StatusTooManyRequests:
		kind = KindRateLimited
	case status >= 500:
		kind = KindNetwork
	}
	return fetchErr(source, kind, "HTTP %d", status)
}

// AsFetchError returns err as a *FetchError, wrapping anything else as a
// network failure of source. The result always carries a source and a
// non-nil cause.
func AsFetchError(source types.SourceID, err error) *FetchError {
	if err == nil {
		return nil
	}
	var fe *FetchError
	if !errors.As(err, &fe) || fe == nil {
		return &FetchError{Source: source, Kind: KindNetwork, Err: err}
	}
	if fe.Source != "" && fe.Err != nil {
		return fe
	}
	out := *fe
	if out.Source == "" {
		out.Source = source
	}
	if out.Err == nil {
		out.Err = errors.New(out.Kind.String())
	}
	return &out
}
