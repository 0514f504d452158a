// file: internal/client/client.go
package client

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/jowharshamshiri/janus-go/internal/config"
	"github.com/jowharshamshiri/janus-go/internal/janerr"
	"github.com/jowharshamshiri/janus-go/internal/logging"
	"github.com/jowharshamshiri/janus-go/internal/manifest"
	"github.com/jowharshamshiri/janus-go/internal/security"
	"github.com/jowharshamshiri/janus-go/internal/socket"
	"github.com/jowharshamshiri/janus-go/internal/validate"
	"github.com/jowharshamshiri/janus-go/internal/wire"
)

// Client is the facade applications use to talk to a janus server: it owns
// one ephemeral reply socket, a background reader correlating replies by
// request id, and (optionally) a cached Manifest for local validation.
type Client struct {
	cfg        config.ClientConfig
	serverPath string
	logger     logging.Logger

	sock     *socket.Socket
	registry *Registry

	manifestMu sync.RWMutex
	manifest   *manifest.Manifest
	validator  *validate.Validator

	closeOnce sync.Once
	done      chan struct{}
}

// New constructs a Client bound to serverPath. If enableValidation is true,
// it synchronously fetches the server's Manifest via the "spec" built-in
// before returning; a fetch failure is then fatal (TransportError).
// Zero-valued sec fields fall back to the standard caps.
func New(serverPath string, cfg config.ClientConfig, sec config.SecurityConfig, enableValidation bool, logger logging.Logger) (*Client, error) {
	if logger == nil {
		logger = logging.GetNoopLogger()
	}
	guard := security.NewSocketPathGuard(sec.AllowedSocketDirs)
	if err := guard.Validate(serverPath); err != nil {
		return nil, err
	}

	if cfg.ReplySocketDir == "" {
		cfg.ReplySocketDir = "/tmp"
	}
	replyPath := socket.GenerateReplySocketPath(cfg.ReplySocketDir)
	sock, err := socket.Bind(replyPath, true, security.NewSocketPathGuard([]string{cfg.ReplySocketDir}), logger)
	if err != nil {
		return nil, err
	}

	c := &Client{
		cfg:        cfg,
		serverPath: serverPath,
		logger:     logger.WithField("component", "client"),
		sock:       sock,
		registry:   newRegistry(cfg.MaxPendingReplies),
		validator: validate.New(&security.PayloadGuard{
			MaxPayloadSize: sec.MaxArgPayloadSize,
			MaxDepth:       sec.MaxArgDepth,
		}),
		done: make(chan struct{}),
	}
	go c.readLoop()

	if enableValidation {
		if err := c.fetchManifest(); err != nil {
			_ = c.Close()
			return nil, janerr.NewTransportError("fetch manifest during client construction", err)
		}
	}
	return c, nil
}

// ReplyPath returns this client's ephemeral reply-to socket path.
func (c *Client) ReplyPath() string { return c.sock.Path() }

// builtinChannel is a placeholder satisfying the wire's non-empty-channel
// requirement for requests that target a built-in command, which the
// dispatcher routes by command name alone regardless of channel value.
const builtinChannel = "_builtin"

func (c *Client) fetchManifest() error {
	resp, err := c.SendCommand(builtinChannel, "spec", nil, c.effectiveTimeout(0))
	if err != nil {
		return err
	}
	if !resp.Success {
		return janerr.NewTransportError("server rejected spec request", nil)
	}
	m, err := manifest.ParseJSON(resp.Result)
	if err != nil {
		return err
	}
	c.manifestMu.Lock()
	c.manifest = m
	c.manifestMu.Unlock()
	return nil
}

func (c *Client) effectiveTimeout(requested time.Duration) time.Duration {
	if requested > 0 {
		if c.cfg.DefaultTimeout > 0 && c.cfg.DefaultTimeout < requested {
			return c.cfg.DefaultTimeout
		}
		return requested
	}
	if c.cfg.DefaultTimeout > 0 {
		return c.cfg.DefaultTimeout
	}
	return 30 * time.Second
}

// localValidate checks args against the cached Manifest, if one has been
// fetched. Built-in commands always pass through (the dispatcher supplies
// their semantics); a command the Manifest doesn't declare fails fast with
// MethodNotFound instead of burning a round trip.
func (c *Client) localValidate(channel, command string, args map[string]json.RawMessage) error {
	c.manifestMu.RLock()
	m := c.manifest
	c.manifestMu.RUnlock()
	if m == nil || manifest.BuiltinCommands[command] {
		return nil
	}
	spec, err := m.Lookup(channel, command)
	if err != nil {
		return err
	}
	return c.validator.Validate(spec, args)
}

func encodeArgs(args map[string]any) (map[string]json.RawMessage, error) {
	if len(args) == 0 {
		return nil, nil
	}
	out := make(map[string]json.RawMessage, len(args))
	for k, v := range args {
		b, err := json.Marshal(v)
		if err != nil {
			return nil, janerr.NewInvalidRequest("argument is not JSON-serialisable", err).WithContext("argument", k)
		}
		out[k] = b
	}
	return out, nil
}

// SendCommand sends channel/command with args and blocks until a reply
// arrives, the timeout elapses, or the request is cancelled. timeout must
// be positive.
func (c *Client) SendCommand(channel, command string, args map[string]any, timeout time.Duration) (*wire.Response, error) {
	_, outcomes, err := c.SendCommandWithHandle(channel, command, args, timeout)
	if err != nil {
		return nil, err
	}
	outcome := <-outcomes
	if outcome.Err != nil {
		return nil, outcome.Err
	}
	return outcome.Response, nil
}

// SendCommandWithHandle sends the request and returns immediately with a
// tracking Handle and the channel its eventual Outcome will arrive on.
// timeout must be positive; the effective wait is capped at the configured
// default timeout.
func (c *Client) SendCommandWithHandle(channel, command string, args map[string]any, timeout time.Duration) (*Handle, <-chan *Outcome, error) {
	if timeout <= 0 {
		return nil, nil, janerr.NewInvalidRequest("timeout must be positive", nil)
	}
	encoded, err := encodeArgs(args)
	if err != nil {
		return nil, nil, err
	}
	if err := c.localValidate(channel, command, encoded); err != nil {
		return nil, nil, err
	}

	effective := c.effectiveTimeout(timeout)

	id := uuid.NewString()
	handle := newHandle(id, channel, command, c.logger)
	if err := c.registry.insert(handle); err != nil {
		return nil, nil, err
	}

	req := &wire.Request{
		ID:        id,
		Channel:   channel,
		Command:   command,
		Args:      encoded,
		ReplyTo:   c.sock.Path(),
		Timeout:   effective.Seconds(),
		Timestamp: wire.Now(),
	}

	payload, err := wire.Encode(req, c.cfg.MaxMessageSize)
	if err != nil {
		c.registry.remove(id)
		return nil, nil, err
	}
	if err := c.sock.Send(c.serverPath, payload, c.cfg.MaxMessageSize); err != nil {
		c.registry.remove(id)
		return nil, nil, err
	}

	timer := time.AfterFunc(effective, func() {
		if handle.cancel(janerr.NewTimeoutError("request timed out waiting for a reply", nil)) {
			c.registry.remove(id)
			c.logger.Debug("request timed out", "id", id)
		}
	})

	out := make(chan *Outcome, 1)
	go func() {
		o := <-handle.Reply()
		timer.Stop()
		c.registry.remove(id)
		out <- o
	}()

	return handle, out, nil
}

// SendCommandNoResponse sends a fire-and-forget datagram with no reply_to;
// it returns once the payload has been written to the kernel buffer.
func (c *Client) SendCommandNoResponse(channel, command string, args map[string]any) error {
	encoded, err := encodeArgs(args)
	if err != nil {
		return err
	}
	if err := c.localValidate(channel, command, encoded); err != nil {
		return err
	}

	req := &wire.Request{
		ID:        uuid.NewString(),
		Channel:   channel,
		Command:   command,
		Args:      encoded,
		Timestamp: wire.Now(),
	}
	payload, err := wire.Encode(req, c.cfg.MaxMessageSize)
	if err != nil {
		return err
	}
	return c.sock.Send(c.serverPath, payload, c.cfg.MaxMessageSize)
}

// CancelRequest transitions handle to Cancelled if it is still Pending.
func (c *Client) CancelRequest(handle *Handle) bool {
	ok := handle.cancel(janerr.NewCancelledError("request cancelled by caller", nil))
	if ok {
		c.registry.remove(handle.ID)
	}
	return ok
}

// CancelAllRequests cancels every currently Pending handle and returns the
// count actually cancelled.
func (c *Client) CancelAllRequests() int {
	count := 0
	for _, h := range c.registry.pending() {
		if c.CancelRequest(h) {
			count++
		}
	}
	return count
}

// GetPendingRequests returns a snapshot of handles still Pending.
func (c *Client) GetPendingRequests() []*Handle {
	return c.registry.pending()
}

// GetRequestStatus is a constant-time lookup of a handle's current status.
func (c *Client) GetRequestStatus(handle *Handle) Status {
	return handle.Status()
}

// Close releases the client's reply socket and stops its background reader.
func (c *Client) Close() error {
	var err error
	c.closeOnce.Do(func() {
		close(c.done)
		err = c.sock.Close()
	})
	return err
}
