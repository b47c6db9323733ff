// Package apperror is the error taxonomy surfaced to API callers. Every kind
// carries a stable code and the HTTP status it maps to.
package apperror

import (
	"errors"
	"fmt"
	"net/http"
)

type Kind string

const (
	KindInvalidConfig     Kind = "INVALID_CONFIG"
	KindInsufficientData  Kind = "INSUFFICIENT_DATA"
	KindUnknownLabel      Kind = "UNKNOWN_LABEL"
	KindIndexUnavailable  Kind = "INDEX_UNAVAILABLE"
	KindDimensionMismatch Kind = "DIMENSION_MISMATCH"
	KindNotFound          Kind = "NOT_FOUND"
	KindBadRequest        Kind = "BAD_REQUEST"
	KindMirrorUnavailable Kind = "MIRROR_UNAVAILABLE"
	KindInternal          Kind = "INTERNAL"
)

type AppError struct {
	Kind    Kind
	Status  int
	Message string
	Err     error
}

var (
	ErrInvalidConfig     = &AppError{Kind: KindInvalidConfig, Status: http.StatusBadRequest, Message: "invalid embedding config"}
	ErrInsufficientData  = &AppError{Kind: KindInsufficientData, Status: http.StatusUnprocessableEntity, Message: "insufficient data in window"}
	ErrUnknownLabel      = &AppError{Kind: KindUnknownLabel, Status: http.StatusNotFound, Message: "label has no holders"}
	ErrIndexUnavailable  = &AppError{Kind: KindIndexUnavailable, Status: http.StatusServiceUnavailable, Message: "vector index unavailable"}
	ErrDimensionMismatch = &AppError{Kind: KindDimensionMismatch, Status: http.StatusInternalServerError, Message: "vector dimension mismatch"}
	ErrNotFound          = &AppError{Kind: KindNotFound, Status: http.StatusNotFound, Message: "not found"}
	ErrBadRequest        = &AppError{Kind: KindBadRequest, Status: http.StatusBadRequest, Message: "bad request"}
	ErrMirrorUnavailable = &AppError{Kind: KindMirrorUnavailable, Status: http.StatusServiceUnavailable, Message: "graph mirror queue unavailable"}
	ErrInternal          = &AppError{Kind: KindInternal, Status: http.StatusInternalServerError, Message: "internal error"}
)

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *AppError) Unwrap() error { return e.Err }

// Is matches any AppError of the same kind, so errors.Is(err, ErrNotFound)
// holds for every customized copy.
func (e *AppError) Is(target error) bool {
	var t *AppError
	if !errors.As(target, &t) {
		return false
	}
	return t.Kind == e.Kind
}

func (e *AppError) WithMessage(format string, args ...interface{}) *AppError {
	c := *e
	c.Message = fmt.Sprintf(format, args...)
	return &c
}

func (e *AppError) WithInternal(err error) *AppError {
	c := *e
	c.Err = err
	return &c
}

// Retryable reports whether the caller may retry the same request unchanged.
func (e *AppError) Retryable() bool {
	return e.Kind == KindIndexUnavailable || e.Kind == KindMirrorUnavailable
}

// From returns the AppError in err's chain, or wraps err as Internal.
func From(err error) *AppError {
	if err == nil {
		return nil
	}
	var ae *AppError
	if errors.As(err, &ae) {
		return ae
	}
	return ErrInternal.WithInternal(err)
}
