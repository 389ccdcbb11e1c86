package engine

import (
	"errors"

	"github.com/jaa/ytbr/internal/provider"
)

// FailureKind classifies why a job failed.
type FailureKind string

const (
	FailureEmptyURL          FailureKind = "empty_url"
	FailureInvalidURL        FailureKind = "invalid_url_structure"
	FailureUnavailable       FailureKind = "resource_unavailable"
	FailureNoSuitableStream  FailureKind = "no_suitable_stream"
	FailureMergeToolNotFound FailureKind = "merge_tool_not_found"
	FailureMergeToolFailed   FailureKind = "merge_tool_failed"
	FailureUnexpected        FailureKind = "unexpected"
)

// JobError is the terminal error of a failed job: a classification plus the
// underlying cause.
type JobError struct {
	Kind FailureKind
	Err  error
}

func (e *JobError) Error() string {
	if e.Err == nil {
		return string(e.Kind)
	}
	return e.Err.Error()
}

func (e *JobError) Unwrap() error {
	return e.Err
}

func failure(kind FailureKind, err error) *JobError {
	return &JobError{Kind: kind, Err: err}
}

// FailureKindOf extracts the classification from err, falling back to
// FailureUnexpected for unclassified failures.
func FailureKindOf(err error) FailureKind {
	var jobErr *JobError
	if errors.As(err, &jobErr) {
		return jobErr.Kind
	}
	return FailureUnexpected
}

func classifyProviderError(err error) *JobError {
	switch {
	case errors.Is(err, provider.ErrInvalidURL):
		return failure(FailureInvalidURL, err)
	case errors.Is(err, provider.ErrUnavailable):
		return failure(FailureUnavailable, err)
	default:
		return failure(FailureUnexpected, err)
	}
}
