package deckpdf

import (
	"errors"
	"fmt"
)

// Sentinel errors returned by the library.
var (
	// ErrClosed is returned when attempting to use a closed [ChromeSurface]
	// or [PrintAssembler].
	ErrClosed = errors.New("deckpdf: browser is closed")

	// ErrMissingIdentity is returned when the presentation asks for an
	// email address and none was supplied. Retrying will not help.
	ErrMissingIdentity = errors.New("deckpdf: presentation requires an email address")

	// ErrNavigation is returned when the presentation could not be loaded.
	ErrNavigation = errors.New("deckpdf: navigation failed")

	// ErrEmptyCapture is returned when no slides were captured.
	ErrEmptyCapture = errors.New("deckpdf: no slides captured")

	// ErrSnapshot is returned when the surface refuses to produce a screenshot.
	ErrSnapshot = errors.New("deckpdf: screenshot failed")
)

// ErrorCode classifies fatal capture failures for callers that report them.
type ErrorCode string

const (
	CodeMissingIdentity ErrorCode = "MISSING_IDENTITY"
	CodeNavigation      ErrorCode = "NAVIGATION_FAILURE"
	CodeEmptyCapture    ErrorCode = "EMPTY_CAPTURE"
	CodeSnapshot        ErrorCode = "SNAPSHOT_FAILURE"
)

// CaptureError is a fatal failure of one session step. It unwraps to one of
// the sentinel errors above, so errors.Is works on the sentinel while
// errors.As exposes the code and step.
type CaptureError struct {
	Code ErrorCode
	Op   string
	Err  error
}

// Error implements the error interface.
func (e *CaptureError) Error() string {
	return fmt.Sprintf("%s (%s): %v", e.Op, e.Code, e.Err)
}

// Unwrap returns the underlying error.
func (e *CaptureError) Unwrap() error {
	return e.Err
}

func newCaptureError(code ErrorCode, op string, err error) *CaptureError {
	return &CaptureError{Code: code, Op: op, Err: err}
}
