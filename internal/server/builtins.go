// file: internal/server/builtins.go
package server

import (
	"encoding/json"
	"time"

	"github.com/cockroachdb/errors"

	"github.com/jowharshamshiri/janus-go/internal/janerr"
	"github.com/jowharshamshiri/janus-go/internal/validate"
	"github.com/jowharshamshiri/janus-go/internal/wire"
)

// MaxSlowProcessDuration is the ceiling on how long slow_process may sleep;
// Dispatcher.cfg.MaxSlowProcessDuration overrides it.
const MaxSlowProcessDuration = 10 * time.Second

func (d *Dispatcher) registerBuiltins() {
	// Built-ins bypass the RegisterHandler reservation check since they are
	// the reservation itself; dispatchBuiltin below routes directly to them.
}

func (d *Dispatcher) dispatchBuiltin(req *wire.Request) (json.RawMessage, *wire.JSONRPCError) {
	switch req.Command {
	case "ping":
		return d.builtinPing()
	case "echo":
		return d.builtinEcho(req)
	case "get_info":
		return d.builtinGetInfo()
	case "spec":
		return d.builtinSpec()
	case "validate":
		return d.builtinValidate(req)
	case "slow_process":
		return d.builtinSlowProcess(req)
	default:
		return nil, janerr.ToWireError(janerr.NewMethodNotFound("unknown built-in", nil))
	}
}

func (d *Dispatcher) builtinPing() (json.RawMessage, *wire.JSONRPCError) {
	b, _ := json.Marshal(map[string]any{"pong": true, "server_time": wire.Now()})
	return b, nil
}

func (d *Dispatcher) builtinEcho(req *wire.Request) (json.RawMessage, *wire.JSONRPCError) {
	if req.Args == nil {
		return json.RawMessage("{}"), nil
	}
	b, err := json.Marshal(req.Args)
	if err != nil {
		return nil, janerr.ToWireError(janerr.NewInternalError("echo marshal failed", err))
	}
	return b, nil
}

func (d *Dispatcher) builtinGetInfo() (json.RawMessage, *wire.JSONRPCError) {
	snap := d.metrics.Snapshot()
	b, _ := json.Marshal(map[string]any{
		"name":         d.name,
		"version":      d.version,
		"uptime_secs":  time.Since(d.startedAt).Seconds(),
		"client_count": snap.ActivePeers,
		"metrics":      snap,
	})
	return b, nil
}

func (d *Dispatcher) builtinSpec() (json.RawMessage, *wire.JSONRPCError) {
	if d.manifest == nil {
		return nil, janerr.ToWireError(janerr.NewInternalError("no manifest loaded", nil))
	}
	b, err := json.Marshal(d.manifest)
	if err != nil {
		return nil, janerr.ToWireError(janerr.NewInternalError("manifest marshal failed", err))
	}
	return b, nil
}

type validateArgs struct {
	Command   string                     `json:"command"`
	Arguments map[string]json.RawMessage `json:"arguments"`
}

func (d *Dispatcher) builtinValidate(req *wire.Request) (json.RawMessage, *wire.JSONRPCError) {
	var va validateArgs
	if cmdRaw, ok := req.Args["command"]; ok {
		_ = json.Unmarshal(cmdRaw, &va.Command)
	}
	if argsRaw, ok := req.Args["arguments"]; ok {
		_ = json.Unmarshal(argsRaw, &va.Arguments)
	}

	if d.manifest == nil {
		b, _ := json.Marshal(map[string]any{"valid": false, "errors": []string{"no manifest loaded"}})
		return b, nil
	}

	spec, err := d.manifest.Lookup(req.Channel, va.Command)
	if err != nil {
		b, _ := json.Marshal(map[string]any{"valid": false, "errors": []string{err.Error()}})
		return b, nil
	}

	if verr := d.validate.Validate(spec, va.Arguments); verr != nil {
		violations := []validate.Violation{}
		var be *janerr.BaseError
		if errors.As(verr, &be) {
			if vs, ok := be.Context["violations"].([]validate.Violation); ok {
				violations = vs
			}
		}
		b, _ := json.Marshal(map[string]any{"valid": false, "errors": violations})
		return b, nil
	}

	b, _ := json.Marshal(map[string]any{"valid": true, "errors": []any{}})
	return b, nil
}

func (d *Dispatcher) builtinSlowProcess(req *wire.Request) (json.RawMessage, *wire.JSONRPCError) {
	var durationMs float64
	if raw, ok := req.Args["duration_ms"]; ok {
		_ = json.Unmarshal(raw, &durationMs)
	}

	bound := MaxSlowProcessDuration
	if d.cfg.MaxSlowProcessDuration > 0 {
		bound = d.cfg.MaxSlowProcessDuration
	}
	sleep := time.Duration(durationMs) * time.Millisecond
	if sleep > bound {
		sleep = bound
	}
	time.Sleep(sleep)

	b, _ := json.Marshal(map[string]any{"slept_ms": sleep.Milliseconds()})
	return b, nil
}
