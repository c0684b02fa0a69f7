package models

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidInput = errors.New("invalid input")
	ErrNotFound     = errors.New("not found")
	ErrUpstream     = errors.New("upstream fetch failed")
	ErrRender       = errors.New("render failed")
	ErrSchema       = errors.New("schema validation failed")
)

// UpstreamError reports a non-success response from the page being extracted.
type UpstreamError struct {
	URL    string
	Status int
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("upstream %s returned status %d", e.URL, e.Status)
}

// Is makes every UpstreamError match ErrUpstream.
func (e *UpstreamError) Is(target error) bool {
	return target == ErrUpstream
}

// kindError is a kind with a caller-facing message and no cause.
type kindError struct {
	kind error
	msg  string
}

func (e *kindError) Error() string { return e.msg }
func (e *kindError) Unwrap() error { return e.kind }

// WrapKind tags err with a semantic kind and the failing operation. With a
// nil err the operation text alone is the message.
func WrapKind(kind error, operation string, err error) error {
	if err == nil {
		return &kindError{kind: kind, msg: operation}
	}
	return fmt.Errorf("%s: %w: %w", operation, kind, err)
}

// Message returns the caller-facing text of err: the operation given to
// WrapKind with a nil cause. Errors built around a cause carry internal
// detail and yield fallback instead.
func Message(err error, fallback string) string {
	var ke *kindError
	if errors.As(err, &ke) {
		return ke.msg
	}
	return fallback
}

// IsKind reports whether err carries kind.
func IsKind(err, kind error) bool {
	return errors.Is(err, kind)
}
