package extractor

import (
	"errors"
	"fmt"
)

// Reason classifies why an extraction failed
type Reason int

const (
	ReasonInvalidInput Reason = iota + 1
	ReasonFetchError
	ReasonNotFound
)

func (r Reason) String() string {
	switch r {
	case ReasonInvalidInput:
		return "invalid_input"
	case ReasonFetchError:
		return "fetch_error"
	case ReasonNotFound:
		return "not_found"
	}
	return "unknown"
}

// Sentinels for errors.Is; every *Error matches exactly one of them.
var (
	ErrInvalidInput = errors.New("invalid or unsupported share URL")
	ErrFetch        = errors.New("failed to fetch share page")
	ErrNotFound     = errors.New("no direct video link found")
)

func (r Reason) sentinel() error {
	switch r {
	case ReasonInvalidInput:
		return ErrInvalidInput
	case ReasonFetchError:
		return ErrFetch
	case ReasonNotFound:
		return ErrNotFound
	}
	return nil
}

// Error is the failure side of an extraction. Err carries the underlying
// cause for logging and may be nil.
type Error struct {
	Reason Reason
	URL    string
	Err    error
}

func (e *Error) Error() string {
	msg := e.Reason.sentinel().Error()
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Err)
	}
	if e.URL != "" {
		msg = fmt.Sprintf("%s (%s)", msg, e.URL)
	}
	return msg
}

func (e *Error) Unwrap() error { return e.Err }

func (e *Error) Is(target error) bool {
	return target == e.Reason.sentinel()
}

// ReasonOf returns the failure reason carried by err. Errors that did not
// come from this package are reported as fetch errors.
func ReasonOf(err error) Reason {
	if err == nil {
		return 0
	}
	var e *Error
	if errors.As(err, &e) {
		return e.Reason
	}
	return ReasonFetchError
}

func invalidInput(rawURL string, format string, args ...any) *Error {
	return &Error{Reason: ReasonInvalidInput, URL: rawURL, Err: fmt.Errorf(format, args...)}
}

func fetchError(rawURL string, err error) *Error {
	return &Error{Reason: ReasonFetchError, URL: rawURL, Err: err}
}
