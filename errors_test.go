package terrastore

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRequestError(t *testing.T) {
	err := NewRequestError(404, []byte(`{"message":"Key not found: sergio","code":404}`))
	assert.Equal(t, 404, err.Status)
	assert.Equal(t, "Key not found: sergio", err.Message)
	assert.Equal(t, "terrastore: request failed with status 404: Key not found: sergio", err.Error())

	err = NewRequestError(500, []byte("oops\n"))
	assert.Empty(t, err.Message)
	assert.Equal(t, "oops\n", err.Body)
	assert.Equal(t, "terrastore: request failed with status 500: oops", err.Error())

	err = NewRequestError(503, nil)
	assert.Equal(t, "terrastore: request failed with status 503", err.Error())
}

func TestErrorClassification(t *testing.T) {
	tests := []struct {
		name      string
		err       error
		status    int
		notFound  bool
		condition bool
		timeout   bool
		transport bool
		config    bool
		retryable bool
	}{
		{name: "nil"},
		{name: "not found", err: &RequestError{Status: 404}, status: 404, notFound: true},
		{name: "condition", err: &RequestError{Status: 409}, status: 409, condition: true},
		{name: "timeout", err: &RequestError{Status: 408}, status: 408, timeout: true, retryable: true},
		{name: "unavailable", err: &RequestError{Status: 503}, status: 503, retryable: true},
		{name: "bad request", err: &RequestError{Status: 400}, status: 400},
		{name: "transport", err: &TransportError{Op: "send", Err: context.DeadlineExceeded}, transport: true, retryable: true},
		{name: "config", err: &ConfigError{Field: "key", Message: "must not be empty"}, config: true},
		{name: "wrapped", err: fmt.Errorf("loading user: %w", &RequestError{Status: 404}), status: 404, notFound: true},
		{name: "other", err: errors.New("other")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.status, StatusOf(tt.err))
			assert.Equal(t, tt.notFound, IsNotFound(tt.err))
			assert.Equal(t, tt.condition, IsConditionNotSatisfied(tt.err))
			assert.Equal(t, tt.timeout, IsTimeout(tt.err))
			assert.Equal(t, tt.transport, IsTransport(tt.err))
			assert.Equal(t, tt.config, IsConfig(tt.err))
			assert.Equal(t, tt.retryable, Retryable(tt.err))
		})
	}
}

func TestTransportError_Unwrap(t *testing.T) {
	err := &TransportError{Op: "send", Err: context.Canceled}
	require.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, "terrastore: transport error during send: context canceled", err.Error())
}

func TestConfigError(t *testing.T) {
	assert.Equal(t, "terrastore: invalid key: must not be empty", (&ConfigError{Field: "key", Message: "must not be empty"}).Error())
	assert.Equal(t, "terrastore: no", (&ConfigError{Message: "no"}).Error())
}
