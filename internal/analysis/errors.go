package analysis

import (
	"errors"
	"fmt"
)

// Sentinel errors. The distinction between kinds is for logs; callers show
// the user a single generic message for all of them.
var (
	ErrEmptyTicker       = errors.New("ticker is empty")
	ErrMissingCredential = errors.New("no API key configured")
	ErrEmptyResponse     = errors.New("empty response from model")
	ErrParseFailure      = errors.New("model response is not valid market data")
	ErrUpstreamTransport = errors.New("upstream model call failed")
)

// ParseError carries the cleaned text that failed to decode.
// errors.Is(err, ErrParseFailure) reports true for it.
type ParseError struct {
	Raw string
	Err error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("%v: %v", ErrParseFailure, e.Err)
}

func (e *ParseError) Unwrap() []error {
	return []error{ErrParseFailure, e.Err}
}
