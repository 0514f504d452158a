// Package client implements the request registry (C6) and client facade
// (C7): sending commands over the datagram transport, correlating replies
// by request id, and the RequestHandle lifecycle (Pending/Completed/Cancelled).
// file: internal/client/handle.go
package client

import (
	"context"
	"sync"
	"time"

	"github.com/jowharshamshiri/janus-go/internal/fsm"
	"github.com/jowharshamshiri/janus-go/internal/janerr"
	"github.com/jowharshamshiri/janus-go/internal/logging"
	"github.com/jowharshamshiri/janus-go/internal/wire"
)

// Status is a RequestHandle's lifecycle state.
type Status string

const (
	StatusPending   Status = "pending"
	StatusCompleted Status = "completed"
	StatusCancelled Status = "cancelled"
)

const (
	eventComplete fsm.Event = "complete"
	eventCancel   fsm.Event = "cancel"
)

// Outcome is delivered exactly once through a Handle's reply channel.
type Outcome struct {
	Response *wire.Response
	Err      error
}

// Handle is the client-side token for a single in-flight request.
type Handle struct {
	ID        string
	Channel   string
	Command   string
	CreatedAt time.Time

	mu      sync.Mutex
	machine fsm.FSM
	replyCh chan *Outcome
	done    bool
}

func newHandle(id, channel, command string, logger logging.Logger) *Handle {
	m := fsm.NewFSM(fsm.State(StatusPending), logger)
	m.AddTransition(fsm.Transition{From: []fsm.State{fsm.State(StatusPending)}, To: fsm.State(StatusCompleted), Event: eventComplete})
	m.AddTransition(fsm.Transition{From: []fsm.State{fsm.State(StatusPending)}, To: fsm.State(StatusCancelled), Event: eventCancel})
	_ = m.Build()

	return &Handle{
		ID:        id,
		Channel:   channel,
		Command:   command,
		CreatedAt: time.Now(),
		machine:   m,
		replyCh:   make(chan *Outcome, 1),
	}
}

// Status returns the handle's current lifecycle state.
func (h *Handle) Status() Status {
	h.mu.Lock()
	defer h.mu.Unlock()
	return Status(h.machine.CurrentState())
}

// complete attempts the Pending->Completed transition, delivering outcome
// through the reply channel iff the transition succeeds (terminal states
// are sticky, so a late reply after cancellation is silently dropped).
func (h *Handle) complete(outcome *Outcome) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	if !h.machine.CanTransition(eventComplete) {
		return false
	}
	if err := h.machine.Transition(context.Background(), eventComplete); err != nil {
		return false
	}
	h.deliver(outcome)
	return true
}

// cancel attempts the Pending->Cancelled transition.
func (h *Handle) cancel(err error) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	if !h.machine.CanTransition(eventCancel) {
		return false
	}
	if tErr := h.machine.Transition(context.Background(), eventCancel); tErr != nil {
		return false
	}
	h.deliver(&Outcome{Err: err})
	return true
}

func (h *Handle) deliver(o *Outcome) {
	if h.done {
		return
	}
	h.done = true
	h.replyCh <- o
	close(h.replyCh)
}

// Reply exposes the one-shot channel the awaiter reads the Outcome from.
func (h *Handle) Reply() <-chan *Outcome {
	return h.replyCh
}

// Registry maps request id to Handle. No two live handles share an id, and
// insertions beyond the pending-request cap are refused.
type Registry struct {
	maxPending int

	mu      sync.Mutex
	handles map[string]*Handle
}

func newRegistry(maxPending int) *Registry {
	if maxPending <= 0 {
		maxPending = 1024
	}
	return &Registry{maxPending: maxPending, handles: make(map[string]*Handle)}
}

func (r *Registry) insert(h *Handle) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.handles) >= r.maxPending {
		return janerr.NewServerError("pending request cap exceeded", nil).
			WithContext("max_pending", r.maxPending)
	}
	r.handles[h.ID] = h
	return nil
}

func (r *Registry) get(id string) (*Handle, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	h, ok := r.handles[id]
	return h, ok
}

func (r *Registry) remove(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.handles, id)
}

// pending returns a snapshot of every handle still in Status Pending.
func (r *Registry) pending() []*Handle {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*Handle, 0, len(r.handles))
	for _, h := range r.handles {
		if h.Status() == StatusPending {
			out = append(out, h)
		}
	}
	return out
}

