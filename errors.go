package terrastore

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// Status codes the server uses to tell apart the outcomes callers most often branch on.
const (
	StatusNotFound              = http.StatusNotFound       // key or bucket does not exist
	StatusConditionNotSatisfied = http.StatusConflict       // predicate evaluated to false
	StatusUpdateTimeout         = http.StatusRequestTimeout // update function exceeded its timeout
	StatusUnavailable           = http.StatusServiceUnavailable
)

// Error types for client operations.
// Every failure returned by an operation is one of:
//   - *ConfigError: the operation or client was built with invalid input; nothing was sent
//   - *RequestError: the server answered with a non-success status
//   - *TransportError: the exchange did not complete, no server outcome exists

// ConfigError reports invalid client construction or operation input.
// It is returned synchronously, before any network activity.
type ConfigError struct {
	Field   string
	Message string
}

func (e *ConfigError) Error() string {
	if e.Field == "" {
		return "terrastore: " + e.Message
	}
	return "terrastore: invalid " + e.Field + ": " + e.Message
}

func configError(field, format string, args ...any) *ConfigError {
	return &ConfigError{Field: field, Message: fmt.Sprintf(format, args...)}
}

// RequestError is returned when the server responds with a failure status.
// Status and Body are always set so callers can implement their own policy.
//
// Common statuses:
//   - 404: key or bucket not found
//   - 409: condition not satisfied
//   - 408: update function timed out, the update was aborted
type RequestError struct {
	Status  int
	Body    string
	Message string // message member of a JSON error body, if any
}

// NewRequestError builds a RequestError from a response status and body.
func NewRequestError(status int, body []byte) *RequestError {
	e := &RequestError{Status: status, Body: string(body)}

	var msg struct {
		Message string `json:"message"`
	}
	if err := json.Unmarshal(body, &msg); err == nil {
		e.Message = msg.Message
	}
	return e
}

func (e *RequestError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("terrastore: request failed with status %d: %s", e.Status, e.Message)
	}
	body := strings.TrimSpace(e.Body)
	if body == "" {
		return fmt.Sprintf("terrastore: request failed with status %d", e.Status)
	}
	return fmt.Sprintf("terrastore: request failed with status %d: %s", e.Status, body)
}

// TransportError wraps failures where no server outcome exists:
// connectivity, serialization, or an open circuit breaker.
type TransportError struct {
	Op  string // encode, decode, send, read, acquire, circuit
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("terrastore: transport error during %s: %v", e.Op, e.Err)
}

// Unwrap returns the underlying error for error chain inspection
func (e *TransportError) Unwrap() error {
	return e.Err
}

// StatusOf returns the status of a RequestError in err's chain, or 0.
func StatusOf(err error) int {
	var e *RequestError
	if errors.As(err, &e) {
		return e.Status
	}
	return 0
}

// IsNotFound reports whether err means the addressed key or bucket does not exist.
func IsNotFound(err error) bool {
	return StatusOf(err) == StatusNotFound
}

// IsConditionNotSatisfied reports whether a conditional operation was rejected
// because its predicate evaluated to false.
func IsConditionNotSatisfied(err error) bool {
	return StatusOf(err) == StatusConditionNotSatisfied
}

// IsTimeout reports whether an update was aborted by the server because it exceeded its timeout.
func IsTimeout(err error) bool {
	return StatusOf(err) == StatusUpdateTimeout
}

// IsTransport reports whether err is a transport failure.
func IsTransport(err error) bool {
	var e *TransportError
	return errors.As(err, &e)
}

// IsConfig reports whether err is a configuration error.
func IsConfig(err error) bool {
	var e *ConfigError
	return errors.As(err, &e)
}

// Retryable reports whether retrying the same operation may succeed.
//
// Returns true for:
//   - TransportError
//   - RequestError with status 408 or 503
//
// Configuration errors and every other request failure are final.
func Retryable(err error) bool {
	if err == nil {
		return false
	}
	if IsTransport(err) {
		return true
	}
	switch StatusOf(err) {
	case StatusUpdateTimeout, StatusUnavailable:
		return true
	}
	return false
}
