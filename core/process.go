package core

import (
	"fmt"

	"github.com/shenning00/gosdl/logger"
)

// Behavior supplies a process's identity and state machine. One Behavior
// value backs one Process instance; its handler methods close over whatever
// state the process needs.
type Behavior interface {
	// Kind returns the process type name, shared by all instances.
	Kind() string

	// Setup populates the dispatch table for a freshly created process.
	// Implementations normally end with `return m.Done()`.
	Setup(p *Process, m *StateMachine) error
}

// Process is an addressable actor: an identity, a current state, a private
// dispatch table, and a buffer of saved signals.
type Process struct {
	system   *System
	behavior Behavior
	fsm      *StateMachine

	kind     string
	typeID   int
	instance int
	pid      string
	parent   string
	config   any

	state State
	saved []Signal
}

// BuildPID derives the address of a process from its kind, type id, and
// instance index.
func BuildPID(kind string, typeID, instance int) string {
	return fmt.Sprintf("%s(%d.%d)", kind, typeID, instance)
}

// Spawn creates a process, registers it with the system, and sends it a
// single self-addressed Start signal. The Start handler governs entry into
// the first real state.
func Spawn(sys *System, parent string, config any, b Behavior) (*Process, error) {
	if sys == nil {
		return nil, &ValidationError{Field: "system", Reason: "process creation requires a system"}
	}
	if b == nil {
		return nil, &ValidationError{Field: "behavior", Reason: "process creation requires a behavior"}
	}

	kind := b.Kind()
	if kind == "" {
		return nil, &ValidationError{Field: "behavior", Reason: "behavior has no kind name"}
	}

	typeID := sys.alloc.TypeID(kind)
	instance := sys.alloc.NextInstance(kind)

	p := newProcess(sys, b, kind, typeID, instance, parent, config)
	if err := p.register(); err != nil {
		return nil, err
	}
	return p, nil
}

// SpawnSingleton creates at most one instance of the behavior's kind per
// system. Subsequent calls return the existing instance unchanged. Singleton
// instances use index 0 and never advance the kind's instance counter.
func SpawnSingleton(sys *System, parent string, config any, b Behavior) (*Process, error) {
	if sys == nil {
		return nil, &ValidationError{Field: "system", Reason: "process creation requires a system"}
	}
	if b == nil {
		return nil, &ValidationError{Field: "behavior", Reason: "process creation requires a behavior"}
	}

	kind := b.Kind()
	if kind == "" {
		return nil, &ValidationError{Field: "behavior", Reason: "behavior has no kind name"}
	}

	if existing, ok := sys.singleton(kind); ok {
		return existing, nil
	}

	typeID := sys.alloc.TypeID(kind)
	p := newProcess(sys, b, kind, typeID, 0, parent, config)
	if err := p.register(); err != nil {
		return nil, err
	}
	sys.setSingleton(kind, p)
	return p, nil
}

func newProcess(sys *System, b Behavior, kind string, typeID, instance int, parent string, config any) *Process {
	return &Process{
		system:   sys,
		behavior: b,
		fsm:      NewStateMachine(sys.alloc),
		kind:     kind,
		typeID:   typeID,
		instance: instance,
		pid:      BuildPID(kind, typeID, instance),
		parent:   parent,
		config:   config,
		state:    StateStart,
	}
}

// register runs the creation protocol: build the dispatch table, register
// with the system, and send the one Start signal.
func (p *Process) register() error {
	if err := p.behavior.Setup(p, p.fsm); err != nil {
		return fmt.Errorf("setup of %s failed: %w", p.pid, err)
	}
	if err := p.fsm.Err(); err != nil {
		return fmt.Errorf("setup of %s failed: %w", p.pid, err)
	}
	if _, err := p.system.Register(p); err != nil {
		return err
	}
	logger.Create(p.pid, p.parent)
	logger.StateChange(p.pid, "none", p.state.Name())
	if _, err := p.Output(NewStart(), p.pid); err != nil {
		return err
	}
	return nil
}

// PID returns the process address.
func (p *Process) PID() string {
	return p.pid
}

// Kind returns the process type name.
func (p *Process) Kind() string {
	return p.kind
}

// TypeID returns the numeric id of the process type within its system.
func (p *Process) TypeID() int {
	return p.typeID
}

// Instance returns the instance index.
func (p *Process) Instance() int {
	return p.instance
}

// Parent returns the parent PID, or "" for a root process.
func (p *Process) Parent() string {
	return p.parent
}

// SetParent replaces the parent PID.
func (p *Process) SetParent(parent string) {
	p.parent = parent
}

// Config returns the configuration data supplied at creation.
func (p *Process) Config() any {
	return p.config
}

// System returns the owning system.
func (p *Process) System() *System {
	return p.system
}

// CurrentState returns the process's current state.
func (p *Process) CurrentState() State {
	return p.state
}

// NextState transitions to a new state. Transitioning to the current state
// is a complete no-op. Otherwise the transition is logged, the state is
// mutated, and the saved-signal buffer is flushed in insertion order, each
// signal forwarded to the destination recorded when it was saved. A
// forwarding failure is logged and does not stop the flush.
func (p *Process) NextState(state State) {
	if state == p.state {
		return
	}
	logger.StateChange(p.pid, p.state.Name(), state.Name())
	p.state = state

	if len(p.saved) == 0 {
		return
	}
	saved := p.saved
	p.saved = nil
	for _, sig := range saved {
		if _, err := p.Output(sig, sig.Dst()); err != nil {
			logger.Warn("failed to forward saved signal",
				"pid", p.pid, "signal", sig.Name(), "dst", sig.Dst(), "err", err)
		}
	}
}

// Output stamps the signal with this process as source and the given
// destination, then hands it to the system for delivery.
func (p *Process) Output(sig Signal, dst string) (bool, error) {
	if sig == nil {
		return false, &ValidationError{Field: "signal", Reason: "cannot output nil signal"}
	}
	if dst == "" {
		return false, &ValidationError{Field: "dst", Reason: "destination is empty"}
	}
	sig.SetSrc(p.pid)
	sig.SetDst(dst)
	return p.system.Output(sig)
}

// StartTimer arms a timer to expire the given number of milliseconds from
// now and registers it with the system, addressed to this process.
func (p *Process) StartTimer(t *Timer, ms int64) error {
	if t == nil {
		return &ValidationError{Field: "timer", Reason: "cannot start nil timer"}
	}
	if ms < 0 {
		return &TimerError{Timer: t.Name(), Reason: fmt.Sprintf("duration cannot be negative: %dms", ms)}
	}
	t.SetSrc(p.pid)
	t.SetDst(p.pid)
	t.Start(p.system.Now() + ms)
	return p.system.StartTimer(t)
}

// StartTimerAbs arms a timer with an absolute millisecond deadline.
func (p *Process) StartTimerAbs(t *Timer, deadline int64) error {
	if t == nil {
		return &ValidationError{Field: "timer", Reason: "cannot start nil timer"}
	}
	if deadline <= 0 {
		return &TimerError{Timer: t.Name(), Reason: fmt.Sprintf("absolute deadline must be positive: %d", deadline)}
	}
	t.SetSrc(p.pid)
	t.SetDst(p.pid)
	t.Start(deadline)
	return p.system.StartTimer(t)
}

// StopTimer cancels a timer equal to t by type and correlator. An inactive
// timer is logged, not an error.
func (p *Process) StopTimer(t *Timer) {
	if t == nil {
		return
	}
	t.SetSrc(p.pid)
	t.SetDst(p.pid)
	if !p.system.StopTimer(t) {
		logger.Timer("timer not active", t.Name(), t.Correlator(), p.pid)
	}
}

// Stop requests a cooperative stop by sending a Stopping signal to self.
// The process may ignore it.
func (p *Process) Stop() error {
	_, err := p.Output(NewStopping(), p.pid)
	return err
}

// StopProcess immediately and unconditionally deregisters the process.
// Signals already queued for it are dropped by the scheduler when they
// surface; they are not drained here.
func (p *Process) StopProcess() {
	logger.Lifecycle("stopped", p.pid, p.pid)
	if err := p.system.Unregister(p); err != nil {
		logger.Warn("unregister failed", "pid", p.pid, "err", err)
	}
}

// LookupTransition resolves a handler for the signal in the current state
// using 4-tier priority wildcard matching. A missing handler is logged and
// reported as nil, not an error.
func (p *Process) LookupTransition(sig Signal) (Handler, error) {
	if sig == nil {
		return nil, &ValidationError{Field: "signal", Reason: "cannot lookup transition for nil signal"}
	}
	h := p.fsm.Find(p.state, p.system.alloc.SignalID(sig))
	if h == nil {
		logger.Warn("no handler for signal",
			"pid", p.pid, "signal", sig.Name(), "state", p.state.Name())
	}
	return h, nil
}

// Input accepts a signal for this process by appending it to the system's
// shared queue.
func (p *Process) Input(sig Signal) error {
	if sig == nil {
		return &ValidationError{Field: "signal", Reason: "cannot input nil signal"}
	}
	return p.system.Enqueue(sig)
}

// SaveSignal buffers a signal for forwarding on the next state transition.
func (p *Process) SaveSignal(sig Signal) {
	if sig == nil {
		return
	}
	p.saved = append(p.saved, sig)
}

// SavedSignals returns the buffered signals in insertion order.
func (p *Process) SavedSignals() []Signal {
	out := make([]Signal, len(p.saved))
	copy(out, p.saved)
	return out
}
