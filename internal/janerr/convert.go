// file: internal/janerr/convert.go
package janerr

import (
	"encoding/json"

	"github.com/jowharshamshiri/janus-go/internal/wire"
)

// ToWireError converts any error into the wire.JSONRPCError envelope sent
// back to a caller. Non-janerr errors are folded into CodeInternalError so
// internal detail never leaks onto the wire; the original message still
// appears server-side via logging.
func ToWireError(err error) *wire.JSONRPCError {
	if err == nil {
		return nil
	}
	code := CodeOf(err)
	message := code.UserFacingMessage()

	var data json.RawMessage
	var be *BaseError
	if asBaseError(err, &be) {
		if be.Message != "" {
			message = be.Message
		}
		if len(be.Context) > 0 {
			if b, mErr := json.Marshal(be.Context); mErr == nil {
				data = b
			}
		}
	}

	return &wire.JSONRPCError{
		Code:    int(code),
		Message: message,
		Data:    data,
	}
}

func asBaseError(err error, target **BaseError) bool {
	for err != nil {
		if be, ok := err.(*BaseError); ok {
			*target = be
			return true
		}
		u, ok := err.(interface{ Unwrap() error })
		if !ok {
			return false
		}
		err = u.Unwrap()
	}
	return false
}
