package core

import "context"

// Handler reacts to a signal dispatched to a process. Handlers run to
// completion on the scheduler goroutine; an error return is logged at the
// dispatch boundary and never halts the scheduler.
type Handler func(ctx context.Context, sig Signal) error

// StateMachine is a process's private dispatch table, mapping
// (state, signal type) pairs to handlers with 4-tier priority wildcard
// resolution. It is populated through the fluent builder surface
// State(...).Event(...).Handler(...); builder misuse is reported by Done.
type StateMachine struct {
	alloc    *TypeAllocator
	handlers map[State]map[int]Handler

	// builder cursor
	curState State
	hasState bool
	curEvent int
	hasEvent bool
	err      error
}

// NewStateMachine creates an empty dispatch table resolving signal type ids
// through the given allocator.
func NewStateMachine(alloc *TypeAllocator) *StateMachine {
	return &StateMachine{
		alloc:    alloc,
		handlers: make(map[State]map[int]Handler),
	}
}

// State sets the state cursor for subsequent Event/Handler calls.
func (m *StateMachine) State(s State) *StateMachine {
	if m.err != nil {
		return m
	}
	if s.Name() == "" {
		m.err = &ValidationError{Field: "state", Reason: "state has no name"}
		return m
	}
	m.curState = s
	m.hasState = true
	m.hasEvent = false
	return m
}

// Event sets the event cursor from a signal type. The state cursor must be
// set first.
func (m *StateMachine) Event(t *SignalType) *StateMachine {
	if m.err != nil {
		return m
	}
	if t == nil {
		m.err = &ValidationError{Field: "event", Reason: "event type is nil"}
		return m
	}
	if !m.hasState {
		m.err = &ValidationError{Field: "event", Reason: "state must be set before event"}
		return m
	}
	m.curEvent = m.alloc.TypeID(t.Kind())
	m.hasEvent = true
	return m
}

// Handler binds a handler at the current (state, event) pair, overwriting
// any prior binding for that exact pair.
func (m *StateMachine) Handler(h Handler) *StateMachine {
	if m.err != nil {
		return m
	}
	if h == nil {
		m.err = &ValidationError{Field: "handler", Reason: "handler is nil"}
		return m
	}
	if !m.hasState || !m.hasEvent {
		m.err = &ValidationError{Field: "handler", Reason: "state and event must be set before handler"}
		return m
	}
	events, ok := m.handlers[m.curState]
	if !ok {
		events = make(map[int]Handler)
		m.handlers[m.curState] = events
	}
	events[m.curEvent] = h
	return m
}

// Done completes the definition, returning the first builder misuse
// encountered, if any.
func (m *StateMachine) Done() error {
	return m.err
}

// Err returns the first builder misuse encountered, if any.
func (m *StateMachine) Err() error {
	return m.err
}

// Find resolves a handler for (state, eventID) in strict priority order:
//
//  1. exact (state, event)
//  2. star state (*, event)
//  3. star signal (state, *)
//  4. double star (*, *)
//
// It returns nil only when none of the four tiers has a binding.
func (m *StateMachine) Find(state State, eventID int) Handler {
	if events, ok := m.handlers[state]; ok {
		if h, ok := events[eventID]; ok {
			return h
		}
	}

	starEvents := m.handlers[StateAny]
	if h, ok := starEvents[eventID]; ok {
		return h
	}

	anyID := m.alloc.TypeID(SignalAny.Kind())
	if events, ok := m.handlers[state]; ok {
		if h, ok := events[anyID]; ok {
			return h
		}
	}

	if h, ok := starEvents[anyID]; ok {
		return h
	}

	return nil
}
