// file: internal/server/dispatcher.go
package server

import (
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/cockroachdb/errors"

	"github.com/jowharshamshiri/janus-go/internal/config"
	"github.com/jowharshamshiri/janus-go/internal/janerr"
	"github.com/jowharshamshiri/janus-go/internal/logging"
	"github.com/jowharshamshiri/janus-go/internal/manifest"
	"github.com/jowharshamshiri/janus-go/internal/metrics"
	"github.com/jowharshamshiri/janus-go/internal/security"
	"github.com/jowharshamshiri/janus-go/internal/socket"
	"github.com/jowharshamshiri/janus-go/internal/validate"
	"github.com/jowharshamshiri/janus-go/internal/wire"
)

// Handler is a server-side command implementation. It returns either a
// successful JSON result or a JsonRpcError, never both.
type Handler func(req *wire.Request) (json.RawMessage, *wire.JSONRPCError)

type routeKey struct {
	channel string
	command string
}

// Dispatcher owns the listening socket, the handler table, and the
// concurrency semaphore bounding simultaneous handler invocations.
type Dispatcher struct {
	name    string
	version string

	cfg          config.ServerConfig
	sock         *socket.Socket
	manifest     *manifest.Manifest
	validate     *validate.Validator
	respValidate *manifest.ResponseValidator
	pathGuard    *security.SocketPathGuard
	logger       logging.Logger

	handlersMu sync.RWMutex
	handlers   map[routeKey]Handler

	sem chan struct{}

	peerLimiter *security.PeerLimiter
	metrics     *metrics.Collector

	startedAt time.Time
	wg        sync.WaitGroup
	done      chan struct{}
}

// New constructs a Dispatcher bound to cfg.SocketPath, serving m (may be
// nil — then only built-ins are available). Zero-valued sec fields fall
// back to the standard caps.
func New(name, version string, cfg config.ServerConfig, sec config.SecurityConfig, m *manifest.Manifest, logger logging.Logger) (*Dispatcher, error) {
	if logger == nil {
		logger = logging.GetNoopLogger()
	}
	guard := security.NewSocketPathGuard(sec.AllowedSocketDirs)
	sock, err := socket.Bind(cfg.SocketPath, cfg.CleanupSocketOnStart, guard, logger)
	if err != nil {
		return nil, err
	}

	if cfg.MaxConcurrentHandlers <= 0 {
		cfg.MaxConcurrentHandlers = 128
	}

	d := &Dispatcher{
		name:     name,
		version:  version,
		cfg:      cfg,
		sock:     sock,
		manifest: m,
		validate: validate.New(&security.PayloadGuard{
			MaxPayloadSize: sec.MaxArgPayloadSize,
			MaxDepth:       sec.MaxArgDepth,
		}),
		pathGuard:   guard,
		logger:      logger.WithField("component", "dispatcher"),
		handlers:    make(map[routeKey]Handler),
		sem:         make(chan struct{}, cfg.MaxConcurrentHandlers),
		peerLimiter: security.NewPeerLimiter(sec.MaxPendingPerPeer),
		metrics:     metrics.NewCollector(32),
		startedAt:   time.Now(),
		done:        make(chan struct{}),
	}
	if m != nil {
		d.respValidate = manifest.NewResponseValidator(m, logger)
	}
	d.registerBuiltins()
	return d, nil
}

// RegisterHandler registers h for channel/command. Built-in command names
// are reserved and cannot be overridden.
func (d *Dispatcher) RegisterHandler(channel, command string, h Handler) error {
	if manifest.BuiltinCommands[command] {
		return janerr.NewInvalidRequest("cannot override a built-in command", nil).WithContext("command", command)
	}
	d.handlersMu.Lock()
	defer d.handlersMu.Unlock()
	d.handlers[routeKey{channel, command}] = h
	return nil
}

// Serve runs the receive loop until Shutdown is called. It blocks the
// calling goroutine.
func (d *Dispatcher) Serve() error {
	buf := make([]byte, wire.HardMaxMessageSize)
	for {
		select {
		case <-d.done:
			d.wg.Wait()
			return nil
		default:
		}

		_ = d.sock.SetDeadline(time.Now().Add(250 * time.Millisecond))
		n, _, err := d.sock.Recv(buf)
		if err != nil {
			if isTimeoutErr(err) {
				continue
			}
			select {
			case <-d.done:
				d.wg.Wait()
				return nil
			default:
				d.logger.Warn("receive error", "error", err)
				continue
			}
		}

		payload := append([]byte(nil), buf[:n]...)
		d.wg.Add(1)
		go d.handleDatagram(payload)
	}
}

// Shutdown signals the receive loop to stop and closes the socket, then
// returns without waiting; Serve waits for in-flight handlers before it
// returns.
func (d *Dispatcher) Shutdown() error {
	close(d.done)
	return d.sock.Close()
}

func (d *Dispatcher) handleDatagram(payload []byte) {
	defer d.wg.Done()

	req, err := wire.DecodeRequest(payload, d.cfg.MaxMessageSize)
	if req != nil && req.ReplyTo != "" {
		if gErr := d.pathGuard.Validate(req.ReplyTo); gErr != nil {
			d.logger.Warn("dropping request with unsafe reply_to path", "reply_to", req.ReplyTo, "error", gErr)
			return
		}
	}
	if err != nil {
		// A request that parsed but is missing id/channel/command still gets
		// an InvalidRequest reply when it named a reply_to; anything less
		// decodable can only be dropped.
		if req != nil && errors.Is(err, wire.ErrInvalidRequest) && req.ReplyTo != "" {
			d.reply(req, nil, janerr.ToWireError(janerr.NewInvalidRequest("request is missing id, channel, or command", err)))
			return
		}
		d.logger.Debug("dropping undecodable datagram", "error", err)
		return
	}

	select {
	case d.sem <- struct{}{}:
		defer func() { <-d.sem }()
	default:
		d.reply(req, nil, janerr.ToWireError(janerr.NewServerError("overloaded", nil)))
		return
	}

	peer := req.ReplyTo
	if peer != "" {
		if err := d.peerLimiter.Acquire(peer); err != nil {
			d.reply(req, nil, janerr.ToWireError(err))
			return
		}
		defer d.peerLimiter.Release(peer)
		d.metrics.RecordPeer(peer, true)
		defer d.metrics.RecordPeer(peer, false)
	}

	start := time.Now()
	result, rpcErr := d.dispatch(req)
	d.metrics.RecordRequest(req.Command, time.Since(start), rpcErr == nil)
	if rpcErr != nil {
		d.metrics.RecordError(req.Command, rpcErr.Message)
	}
	d.reply(req, result, rpcErr)
}

func (d *Dispatcher) dispatch(req *wire.Request) (json.RawMessage, *wire.JSONRPCError) {
	if manifest.BuiltinCommands[req.Command] {
		return d.invoke(d.dispatchBuiltin, req)
	}

	if d.manifest == nil {
		return nil, janerr.ToWireError(janerr.NewMethodNotFound("no manifest loaded; only built-ins are available", nil))
	}
	spec, err := d.manifest.Lookup(req.Channel, req.Command)
	if err != nil {
		return nil, janerr.ToWireError(err)
	}
	if err := d.validate.Validate(spec, req.Args); err != nil {
		return nil, janerr.ToWireError(err)
	}

	d.handlersMu.RLock()
	h, ok := d.handlers[routeKey{req.Channel, req.Command}]
	d.handlersMu.RUnlock()
	if !ok {
		return nil, janerr.ToWireError(janerr.NewMethodNotFound("command has no registered handler", nil))
	}

	result, rpcErr := d.invoke(h, req)
	if rpcErr == nil && len(result) > 0 && d.respValidate != nil {
		// A result that breaks the command's declared response schema is a
		// server-side bug, not the caller's: surface it as InternalError.
		if vErr := d.respValidate.Check(req.Channel, req.Command, result); vErr != nil {
			d.logger.Warn("handler result violates declared response schema",
				"channel", req.Channel, "command", req.Command, "error", vErr)
			return nil, janerr.ToWireError(janerr.NewInternalError("handler produced a non-conforming result", vErr))
		}
	}
	return result, rpcErr
}

// invoke isolates a single handler call so a panic inside it becomes
// InternalError instead of taking down the dispatcher.
func (d *Dispatcher) invoke(h Handler, req *wire.Request) (result json.RawMessage, rpcErr *wire.JSONRPCError) {
	defer func() {
		if r := recover(); r != nil {
			err := janerr.NewInternalError("handler panicked", nil).WithContext("trace", fmt.Sprintf("%v", r))
			rpcErr = janerr.ToWireError(err)
			result = nil
		}
	}()
	return h(req)
}

func (d *Dispatcher) reply(req *wire.Request, result json.RawMessage, rpcErr *wire.JSONRPCError) {
	if req.ReplyTo == "" {
		if rpcErr != nil {
			d.logger.Warn("fire-and-forget handler error", "command", req.Command, "error", rpcErr.Message)
		}
		return
	}

	resp := &wire.Response{
		RequestID: req.ID,
		Success:   rpcErr == nil,
		Result:    result,
		Error:     rpcErr,
		Timestamp: wire.Now(),
	}
	payload, err := wire.Encode(resp, d.cfg.MaxMessageSize)
	if err != nil {
		d.logger.Warn("failed to encode reply", "error", err)
		return
	}
	if err := d.sock.Send(req.ReplyTo, payload, d.cfg.MaxMessageSize); err != nil {
		d.logger.Warn("failed to send reply", "error", err, "reply_to", req.ReplyTo)
	}
}

// Metrics returns a snapshot of the dispatcher's request/peer/memory counters.
func (d *Dispatcher) Metrics() metrics.ServerMetrics {
	return d.metrics.Snapshot()
}

func isTimeoutErr(err error) bool {
	type timeouter interface{ Timeout() bool }
	for err != nil {
		if t, ok := err.(timeouter); ok {
			return t.Timeout()
		}
		u, ok := err.(interface{ Unwrap() error })
		if !ok {
			return false
		}
		err = u.Unwrap()
	}
	return false
}
