// Package fsm wraps looplab/fsm behind a small typed surface: states,
// events, and a transition table validated at Build time. It carries exactly
// what a request handle's lifecycle needs — declare transitions, build once,
// then query and fire events.
// file: internal/fsm/fsm.go
package fsm

import (
	"context"
	"sync"

	"github.com/cockroachdb/errors"
	lfsm "github.com/looplab/fsm"

	"github.com/jowharshamshiri/janus-go/internal/logging"
)

// State represents a state in the FSM.
type State string

// Event represents an event that can trigger a state transition.
type Event string

// Transition defines one rule: Event moves the machine from any of the From
// states to To.
type Transition struct {
	From  []State
	To    State
	Event Event
}

// FSM is the wrapper's surface. Declare transitions with AddTransition, call
// Build once, then query and fire events.
type FSM interface {
	// AddTransition stores a transition definition. Call Build() after adding all transitions.
	AddTransition(transition Transition) FSM
	// Build finalizes the configuration and creates the underlying machine.
	Build() error
	// CurrentState returns the current state. Requires Build().
	CurrentState() State
	// CanTransition reports whether the event is defined for the current state. Requires Build().
	CanTransition(event Event) bool
	// Transition attempts to trigger a state transition. Requires Build().
	Transition(ctx context.Context, event Event) error
}

type loopFSM struct {
	initialState State
	logger       logging.Logger
	transitions  []Transition

	mu       sync.RWMutex
	fsm      *lfsm.FSM // nil until Build().
	buildErr error
}

// NewFSM creates an FSM builder with the given initial state. logger may be nil.
func NewFSM(initialState State, logger logging.Logger) FSM {
	if logger == nil {
		logger = logging.GetNoopLogger()
	}
	return &loopFSM{
		initialState: initialState,
		logger:       logger.WithField("component", "fsm"),
	}
}

func (l *loopFSM) AddTransition(t Transition) FSM {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.fsm != nil {
		if l.buildErr == nil {
			l.buildErr = errors.New("cannot AddTransition after Build")
		}
		return l
	}
	if len(t.From) == 0 {
		if l.buildErr == nil {
			l.buildErr = errors.Newf("transition for event %q has no 'From' states", t.Event)
		}
		return l
	}
	l.transitions = append(l.transitions, t)
	return l
}

func (l *loopFSM) Build() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.fsm != nil || l.buildErr != nil {
		return l.buildErr
	}

	// looplab/fsm takes one EventDesc per event name, so every transition
	// sharing an event merges into a single Src set. An EventDesc carries
	// exactly one Dst, which makes conflicting destinations a config error.
	descs := make(map[Event]*lfsm.EventDesc, len(l.transitions))
	order := make([]Event, 0, len(l.transitions))
	for _, t := range l.transitions {
		desc, ok := descs[t.Event]
		if !ok {
			desc = &lfsm.EventDesc{Name: string(t.Event), Dst: string(t.To)}
			descs[t.Event] = desc
			order = append(order, t.Event)
		} else if desc.Dst != string(t.To) {
			l.buildErr = errors.Newf("event %q has conflicting destinations %q and %q", t.Event, desc.Dst, t.To)
			return l.buildErr
		}
		for _, from := range t.From {
			if !containsString(desc.Src, string(from)) {
				desc.Src = append(desc.Src, string(from))
			}
		}
	}

	events := make([]lfsm.EventDesc, 0, len(order))
	for _, ev := range order {
		events = append(events, *descs[ev])
	}
	l.fsm = lfsm.NewFSM(string(l.initialState), events, nil)
	l.logger.Debug("built state machine", "initial_state", l.initialState, "event_count", len(events))
	return nil
}

func (l *loopFSM) CurrentState() State {
	l.mu.RLock()
	defer l.mu.RUnlock()
	if l.fsm == nil {
		return ""
	}
	return State(l.fsm.Current())
}

func (l *loopFSM) CanTransition(event Event) bool {
	l.mu.RLock()
	defer l.mu.RUnlock()
	if l.fsm == nil {
		return false
	}
	return l.fsm.Can(string(event))
}

func (l *loopFSM) Transition(ctx context.Context, event Event) error {
	l.mu.RLock()
	m := l.fsm
	buildErr := l.buildErr
	l.mu.RUnlock()

	if m == nil {
		if buildErr != nil {
			return buildErr
		}
		return errors.New("Transition called before Build")
	}
	if err := m.Event(ctx, string(event)); err != nil {
		return errors.Wrapf(err, "transition on event %q from state %q", event, m.Current())
	}
	return nil
}

func containsString(xs []string, s string) bool {
	for _, x := range xs {
		if x == s {
			return true
		}
	}
	return false
}
