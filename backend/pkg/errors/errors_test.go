package errors

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBaseError_Error(t *testing.T) {
	err := NewBaseError(ErrorTypeStore, "write failed", nil)
	assert.Equal(t, "[store] write failed", err.Error())

	wrapped := NewBaseError(ErrorTypeStore, "write failed", fmt.Errorf("disk full"))
	assert.Equal(t, "[store] write failed: disk full", wrapped.Error())
}

func TestIsErrorType(t *testing.T) {
	cause := fmt.Errorf("connection reset")
	readErr := NewStoreReadFailed("graph_data.nodes", cause)

	tests := []struct {
		name    string
		err     error
		errType ErrorType
		want    bool
	}{
		{"typed error", readErr, ErrorTypeStore, true},
		{"wrapped typed error", fmt.Errorf("load: %w", readErr), ErrorTypeStore, true},
		{"other type", readErr, ErrorTypeRemote, false},
		{"plain error", cause, ErrorTypeStore, false},
		{"nil", nil, ErrorTypeStore, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsErrorType(tt.err, tt.errType))
		})
	}
}

func TestUnwrapReachesCause(t *testing.T) {
	writeErr := NewStoreWriteFailed("graph_data.edges", context.DeadlineExceeded)
	assert.True(t, errors.Is(writeErr, context.DeadlineExceeded))

	var target *ErrStoreWriteFailed
	assert.True(t, errors.As(fmt.Errorf("save: %w", writeErr), &target))
	assert.Equal(t, "graph_data.edges", target.Collection)
}

func TestIsRetryable(t *testing.T) {
	assert.True(t, IsRetryable(NewStoreWriteFailed("", fmt.Errorf("tx aborted"))))
	assert.True(t, IsRetryable(NewRemoteCallFailed("m", 3, true, nil)))
	assert.False(t, IsRetryable(NewRemoteCallFailed("m", 3, false, nil)))
	assert.False(t, IsRetryable(NewContextCancelled("save", context.Canceled)))
	assert.False(t, IsRetryable(NewConfigMissingRequired("NEO4J_URI")))
	assert.False(t, IsRetryable(fmt.Errorf("plain")))
}

func TestStoreWriteFailed_Message(t *testing.T) {
	assert.Contains(t, NewStoreWriteFailed("", nil).Error(), "failed to write snapshot")
	assert.Contains(t, NewStoreWriteFailed("graph_data.nodes", nil).Error(), "graph_data.nodes")
}
