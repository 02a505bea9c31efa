package openai

import (
	"fmt"
)

// The errors below form the closed set a caller of Client can get back.
// Use errors.As to tell them apart.
//
// SerializationError, NetworkError, ResponseError and APIError are returned at the call boundary,
// before any stream is created and before history is touched.
// NetworkError and DecodeError may also end a Stream, reported by Stream.Err.

// SerializationError means the request could not be encoded; nothing was sent.
type SerializationError struct {
	Err error
}

func (e *SerializationError) Error() string {
	return fmt.Sprintf("encode request: %v", e.Err)
}

func (e *SerializationError) Unwrap() error {
	return e.Err
}

// NetworkError is a transport failure: DNS, TLS, reset, timeout, or a body that can't be read.
type NetworkError struct {
	Err error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("network: %v", e.Err)
}

func (e *NetworkError) Unwrap() error {
	return e.Err
}

// ResponseError is a non-200 response whose body is not the expected error envelope.
type ResponseError struct {
	StatusCode int
	Err        error
}

func (e *ResponseError) Error() string {
	return fmt.Sprintf("unexpected http status code %d: %v", e.StatusCode, e.Err)
}

func (e *ResponseError) Unwrap() error {
	return e.Err
}

// APIError is a non-200 response carrying the provider's own error message.
type APIError struct {
	StatusCode int
	Message    string
	Type       string
}

func (e *APIError) Error() string {
	if e.Type == "" {
		return fmt.Sprintf("api error %d: %s", e.StatusCode, e.Message)
	}
	return fmt.Sprintf("api error %d %s: %s", e.StatusCode, e.Type, e.Message)
}

// DecodeError ends a Stream in strict mode when a data line is not a valid event.
// In lenient mode such lines are dropped instead.
type DecodeError struct {
	Line string
	Err  error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("decode SSE data line %q: %v", e.Line, e.Err)
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}
