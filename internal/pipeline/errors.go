// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package pipeline

import (
	"errors"
	"fmt"
)

// ErrorKind classifies a fatal pipeline failure.
type ErrorKind int

const (
	// KindNoContentFound means no connector produced usable text.
	KindNoContentFound ErrorKind = iota
	// KindIndexFailure means the vector store or embedder failed.
	KindIndexFailure
	// KindGenerationFailure means the model call failed after retries.
	KindGenerationFailure
)

func (k ErrorKind) String() string {
	switch k {
	case KindNoContentFound:
		return "no content found"
	case KindIndexFailure:
		return "index failure"
	case KindGenerationFailure:
		return "generation failure"
	}
	return fmt.Sprintf("ErrorKind(%d)", int(k))
}

// ErrNoContent is wrapped by the NoContentFound PipelineError.
var ErrNoContent = errors.New("no educational content could be loaded from any source")

// PipelineError aborts a run. No report is produced alongside it.
type PipelineError struct {
	Kind ErrorKind
	Err  error
}

func (e *PipelineError) Error() string {
	return fmt.Sprintf("%s: %v", e.Kind, e.Err)
}

func (e *PipelineError) Unwrap() error { return e.Err }

// IsKind reports whether err is a PipelineError of kind k.
func IsKind(err error, k ErrorKind) bool {
	var pe *PipelineError
	return errors.As(err, &pe) && pe.Kind == k
}
