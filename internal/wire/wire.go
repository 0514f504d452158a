// Package wire implements the datagram wire codec: the JSON-RPC-flavored
// envelope exchanged between janus clients and servers, and the size/shape
// rules that govern encoding and decoding it.
// file: internal/wire/wire.go
package wire

import (
	"encoding/json"
	"time"

	"github.com/cockroachdb/errors"
)

// DefaultMaxMessageSize is the default datagram payload cap (5 MiB).
const DefaultMaxMessageSize = 5 * 1024 * 1024

// HardMaxMessageSize is the absolute ceiling no configuration may exceed (64 MiB).
const HardMaxMessageSize = 64 * 1024 * 1024

// Request is a single command invocation sent over a datagram socket.
type Request struct {
	ID        string                     `json:"id"`
	Channel   string                     `json:"channel"`
	Command   string                     `json:"command"`
	Args      map[string]json.RawMessage `json:"args,omitempty"`
	ReplyTo   string                     `json:"reply_to,omitempty"`
	Timeout   float64                    `json:"timeout,omitempty"`
	Timestamp float64                    `json:"timestamp"`
}

// Response is what a server sends back to a Request's reply_to socket.
type Response struct {
	RequestID string          `json:"request_id"`
	Success   bool            `json:"success"`
	Result    json.RawMessage `json:"result,omitempty"`
	Error     *JSONRPCError   `json:"error,omitempty"`
	Timestamp float64         `json:"timestamp"`
}

// JSONRPCError is the error shape carried in Response.Error.
type JSONRPCError struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data,omitempty"`
}

func (e *JSONRPCError) Error() string {
	return e.Message
}

// Now returns the current time as the fractional-seconds-since-epoch the wire
// format uses for Timestamp fields.
func Now() float64 {
	return float64(time.Now().UnixNano()) / float64(time.Second)
}

// Encode marshals v (a *Request or *Response) and enforces maxSize. A maxSize
// of 0 uses DefaultMaxMessageSize; values above HardMaxMessageSize are clamped.
func Encode(v any, maxSize int) ([]byte, error) {
	maxSize = clampMaxSize(maxSize)

	b, err := json.Marshal(v)
	if err != nil {
		return nil, errors.Wrap(err, "wire: encode")
	}
	if len(b) > maxSize {
		return nil, errors.WithDetailf(ErrMessageTooLarge, "encoded size %d exceeds max %d", len(b), maxSize)
	}
	return b, nil
}

// DecodeRequest parses b into a Request, rejecting payloads over maxSize and
// malformed JSON.
func DecodeRequest(b []byte, maxSize int) (*Request, error) {
	maxSize = clampMaxSize(maxSize)
	if len(b) > maxSize {
		return nil, errors.WithDetailf(ErrMessageTooLarge, "datagram size %d exceeds max %d", len(b), maxSize)
	}
	var req Request
	if err := json.Unmarshal(b, &req); err != nil {
		return nil, errors.Wrapf(ErrParse, "wire: decode request: %v", err)
	}
	if req.ID == "" || req.Channel == "" || req.Command == "" {
		// The envelope parsed, so the caller still gets the partial request —
		// a server needs reply_to to send the InvalidRequest error back.
		return &req, errors.WithDetail(ErrInvalidRequest, "request missing one of id/channel/command")
	}
	return &req, nil
}

// DecodeResponse parses b into a Response under the same size rule.
func DecodeResponse(b []byte, maxSize int) (*Response, error) {
	maxSize = clampMaxSize(maxSize)
	if len(b) > maxSize {
		return nil, errors.WithDetailf(ErrMessageTooLarge, "datagram size %d exceeds max %d", len(b), maxSize)
	}
	var resp Response
	if err := json.Unmarshal(b, &resp); err != nil {
		return nil, errors.Wrapf(ErrParse, "wire: decode response: %v", err)
	}
	if resp.RequestID == "" {
		return nil, errors.WithDetail(ErrParse, "response missing request_id")
	}
	return &resp, nil
}

func clampMaxSize(maxSize int) int {
	if maxSize <= 0 {
		return DefaultMaxMessageSize
	}
	if maxSize > HardMaxMessageSize {
		return HardMaxMessageSize
	}
	return maxSize
}

// Sentinel errors the codec wraps into its failures, so callers on either side
// of the codec boundary can identify them with errors.Is.
var (
	ErrParse           = errors.New("wire: parse error")
	ErrInvalidRequest  = errors.New("wire: invalid request")
	ErrMessageTooLarge = errors.New("wire: message too large")
)
