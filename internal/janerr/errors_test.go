package janerr

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBaseErrorWithContextChaining(t *testing.T) {
	err := NewValidationError("bad argument", nil).WithContext("field", "path")
	assert.Equal(t, "path", err.Context["field"])
	assert.Contains(t, err.Error(), "ValidationError")
}

func TestBaseErrorUnwrap(t *testing.T) {
	cause := errors.New("disk full")
	err := NewTransportError("write failed", cause)
	assert.ErrorIs(t, err, cause)
}

func TestBaseErrorIsMatchesByCode(t *testing.T) {
	a := NewServerError("too many pending", nil)
	b := NewServerError("different message, same code", nil)
	assert.True(t, errors.Is(a, b))

	c := NewSecurityError("different code", nil)
	assert.False(t, errors.Is(a, c))
}

func TestCodeOfFallsBackToInternalError(t *testing.T) {
	require.Equal(t, CodeInternalError, CodeOf(errors.New("plain error")))
	require.Equal(t, CodeTimeout, CodeOf(NewTimeoutError("timed out", nil)))
}

func TestUserFacingMessageKnownAndUnknown(t *testing.T) {
	assert.Equal(t, "request was cancelled before completion", CodeCancelled.UserFacingMessage())
	assert.Equal(t, "unrecognized error", Code(999999).UserFacingMessage())
}

func TestCodeString(t *testing.T) {
	assert.Equal(t, "MessageTooLarge", CodeMessageTooLarge.String())
	assert.Equal(t, "UnknownError", Code(1).String())
}
