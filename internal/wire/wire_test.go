package wire

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodeDecodeRequestRoundTrip(t *testing.T) {
	req := &Request{
		ID:        "abc-123",
		Channel:   "files",
		Command:   "read",
		Args:      map[string]json.RawMessage{"path": json.RawMessage(`"/tmp/x"`)},
		ReplyTo:   "/tmp/.reply-abc.sock",
		Timeout:   5.0,
		Timestamp: Now(),
	}

	b, err := Encode(req, 0)
	require.NoError(t, err)

	got, err := DecodeRequest(b, 0)
	require.NoError(t, err)
	assert.Equal(t, req.ID, got.ID)
	assert.Equal(t, req.Channel, got.Channel)
	assert.Equal(t, req.Command, got.Command)
	assert.Equal(t, req.ReplyTo, got.ReplyTo)
}

func TestDecodeRequestRejectsOversized(t *testing.T) {
	big := `{"id":"a","channel":"c","command":"x","args":{"blob":"` + strings.Repeat("a", 100) + `"}}`
	_, err := DecodeRequest([]byte(big), 10)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrMessageTooLarge)
}

func TestDecodeRequestRejectsMalformedJSON(t *testing.T) {
	_, err := DecodeRequest([]byte(`{not json`), 0)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrParse)
}

func TestDecodeRequestRejectsMissingFields(t *testing.T) {
	req, err := DecodeRequest([]byte(`{"id":"a","reply_to":"/tmp/.reply-x.sock"}`), 0)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidRequest)
	// The partial request still comes back so a server can route the error
	// to its reply_to path.
	require.NotNil(t, req)
	assert.Equal(t, "/tmp/.reply-x.sock", req.ReplyTo)
}

func TestDecodeResponseRoundTrip(t *testing.T) {
	resp := &Response{
		RequestID: "abc-123",
		Success:   true,
		Result:    json.RawMessage(`{"ok":true}`),
		Timestamp: Now(),
	}
	b, err := Encode(resp, 0)
	require.NoError(t, err)

	got, err := DecodeResponse(b, 0)
	require.NoError(t, err)
	assert.Equal(t, resp.RequestID, got.RequestID)
	assert.True(t, got.Success)
}

func TestClampMaxSize(t *testing.T) {
	assert.Equal(t, DefaultMaxMessageSize, clampMaxSize(0))
	assert.Equal(t, HardMaxMessageSize, clampMaxSize(HardMaxMessageSize*2))
	assert.Equal(t, 100, clampMaxSize(100))
}
