// file: internal/logging/logger_test.go
package logging

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetLoggerReturnsNonNilLogger(t *testing.T) {
	require.NotNil(t, GetLogger("test"))
}

func TestInitLoggingEmitsStructuredJSON(t *testing.T) {
	var buf bytes.Buffer
	InitLogging(LevelDebug, &buf)

	GetLogger("transport").Info("bound socket", "path", "/tmp/x.sock", "attempts", 2)

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "bound socket", entry["msg"])
	assert.Equal(t, "transport", entry["component"])
	assert.Equal(t, "/tmp/x.sock", entry["path"])
	assert.Equal(t, float64(2), entry["attempts"])
}

func TestDebugRecordsSuppressedAboveDebugLevel(t *testing.T) {
	var buf bytes.Buffer
	InitLogging(LevelInfo, &buf)

	GetLogger("quiet").Debug("should not appear")
	assert.Zero(t, buf.Len())
}

func TestSetLevelControlsDebugGate(t *testing.T) {
	SetLevel(LevelInfo)
	assert.False(t, IsDebugEnabled())

	SetLevel(LevelDebug)
	assert.True(t, IsDebugEnabled())
}

func TestWithFieldAttachesToEveryRecord(t *testing.T) {
	var buf bytes.Buffer
	InitLogging(LevelInfo, &buf)

	logger := GetLogger("server").WithField("request_id", "abc-123")
	logger.Warn("slow handler")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "abc-123", entry["request_id"])
	assert.Equal(t, "server", entry["component"])
}
