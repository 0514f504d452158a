// file: internal/client/reader.go
package client

import (
	"net"
	"time"

	"github.com/jowharshamshiri/janus-go/internal/wire"
)

// readLoop is the single background task that owns the reply socket: it
// decodes each arriving datagram into a Response and matches request_id
// against the registry. Unmatched responses are dropped with a debug log;
// they never raise.
func (c *Client) readLoop() {
	buf := make([]byte, wire.HardMaxMessageSize)
	for {
		select {
		case <-c.done:
			return
		default:
		}

		_ = c.sock.SetDeadline(time.Now().Add(250 * time.Millisecond))
		n, _, err := c.sock.Recv(buf)
		if err != nil {
			if isTimeout(err) {
				continue
			}
			select {
			case <-c.done:
				return
			default:
				c.logger.Debug("reply socket read error", "error", err)
				continue
			}
		}

		resp, err := wire.DecodeResponse(buf[:n], c.cfg.MaxMessageSize)
		if err != nil {
			c.logger.Debug("dropping malformed reply datagram", "error", err)
			continue
		}

		handle, ok := c.registry.get(resp.RequestID)
		if !ok {
			c.logger.Debug("dropping reply for unknown request id", "request_id", resp.RequestID)
			continue
		}
		handle.complete(&Outcome{Response: resp})
	}
}

func isTimeout(err error) bool {
	ne, ok := err.(interface{ Timeout() bool })
	if !ok {
		if opErr, ok := asNetOpError(err); ok {
			return opErr.Timeout()
		}
		return false
	}
	return ne.Timeout()
}

func asNetOpError(err error) (*net.OpError, bool) {
	for err != nil {
		if oe, ok := err.(*net.OpError); ok {
			return oe, true
		}
		u, ok := err.(interface{ Unwrap() error })
		if !ok {
			return nil, false
		}
		err = u.Unwrap()
	}
	return nil, false
}
