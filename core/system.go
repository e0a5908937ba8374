package core

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/shenning00/gosdl/logger"
)

const (
	// DefaultQueueCapacity bounds the shared signal queue.
	DefaultQueueCapacity = 1024

	// DefaultPollInterval is the scheduler's bounded wait for the next
	// queued signal. Timers are swept once per interval even when the
	// queue is idle.
	DefaultPollInterval = 10 * time.Millisecond
)

// Options configures a System.
type Options struct {
	// QueueCapacity bounds the shared signal queue (default 1024).
	QueueCapacity int

	// PollInterval is the scheduler's bounded wait (default 10ms).
	PollInterval time.Duration

	// ReadyListLimit caps the diagnostic ready list; 0 keeps the default
	// of 1024 entries, negative disables trimming.
	ReadyListLimit int

	// Clock supplies the current time in milliseconds. Tests inject a
	// fake; the default is wall-clock time.
	Clock func() int64
}

// System is the runtime container: process registry, shared FIFO signal
// queue, timer registry, and the cooperative scheduler loop. All shared
// mutable state lives here.
type System struct {
	mu         sync.RWMutex
	procs      map[string]*Process
	timers     map[string][]*Timer
	ready      []*Process
	singletons map[string]*Process

	alloc *TypeAllocator
	queue chan Signal

	pollInterval time.Duration
	readyLimit   int
	now          func() int64

	stopped atomic.Bool
}

// NewSystem creates a system with default options.
func NewSystem() *System {
	return NewSystemWithOptions(Options{})
}

// NewSystemWithOptions creates a system with explicit options.
func NewSystemWithOptions(opts Options) *System {
	if opts.QueueCapacity <= 0 {
		opts.QueueCapacity = DefaultQueueCapacity
	}
	if opts.PollInterval <= 0 {
		opts.PollInterval = DefaultPollInterval
	}
	if opts.ReadyListLimit == 0 {
		opts.ReadyListLimit = DefaultQueueCapacity
	}
	if opts.Clock == nil {
		opts.Clock = func() int64 { return time.Now().UnixMilli() }
	}

	return &System{
		procs:        make(map[string]*Process),
		timers:       make(map[string][]*Timer),
		singletons:   make(map[string]*Process),
		alloc:        NewTypeAllocator(),
		queue:        make(chan Signal, opts.QueueCapacity),
		pollInterval: opts.PollInterval,
		readyLimit:   opts.ReadyListLimit,
		now:          opts.Clock,
	}
}

// Allocator returns the system's type id allocator.
func (s *System) Allocator() *TypeAllocator {
	return s.alloc
}

// Now returns the system's current time in milliseconds.
func (s *System) Now() int64 {
	return s.now()
}

// Register inserts a process into the registry. Registering an already
// present PID is a no-op returning false; the original mapping is kept.
func (s *System) Register(p *Process) (bool, error) {
	if p == nil {
		return false, &ValidationError{Field: "process", Reason: "cannot register nil process"}
	}
	pid := p.PID()
	if pid == "" {
		return false, &ValidationError{Field: "pid", Reason: "process has no pid"}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.procs[pid]; exists {
		logger.Warn("process already registered", "pid", pid)
		return false, nil
	}
	s.procs[pid] = p
	logger.Lifecycle("registered", pid, pid)
	return true, nil
}

// Unregister removes a process from the registry along with its timers and
// every occurrence on the ready list. Repeated or unknown unregisters are
// logged, not errors.
func (s *System) Unregister(p *Process) error {
	if p == nil {
		return &ValidationError{Field: "process", Reason: "cannot unregister nil process"}
	}
	pid := p.PID()
	if pid == "" {
		return &ValidationError{Field: "pid", Reason: "process has no pid"}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.procs[pid]; exists {
		delete(s.procs, pid)
		logger.Lifecycle("unregistered", pid, pid)
	} else {
		logger.Warn("process was not registered during unregister", "pid", pid)
	}

	if timers, exists := s.timers[pid]; exists {
		delete(s.timers, pid)
		logger.System("timers cleared", "pid", pid, "count", len(timers))
	}

	kept := s.ready[:0]
	removed := 0
	for _, rp := range s.ready {
		if rp == p {
			removed++
			continue
		}
		kept = append(kept, rp)
	}
	s.ready = kept
	if removed > 0 {
		logger.System("ready list cleared", "pid", pid, "entries", removed)
	}

	return nil
}

// Lookup finds a registered process by PID.
func (s *System) Lookup(pid string) (*Process, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.procs[pid]
	return p, ok
}

// Enqueue appends a signal to the shared FIFO queue.
func (s *System) Enqueue(sig Signal) error {
	if sig == nil {
		return &ValidationError{Field: "signal", Reason: "cannot enqueue nil signal"}
	}
	select {
	case s.queue <- sig:
		return nil
	default:
		logger.Warn("failed to enqueue signal", "signal", sig.Name())
		return &QueueError{Op: "enqueue"}
	}
}

// Output delivers a signal to its destination process. A missing
// destination is a negative outcome, not an error: it returns false and, if
// the source is live and known, enqueues a ProcessNotExist notification
// back to it.
func (s *System) Output(sig Signal) (bool, error) {
	if sig == nil {
		return false, &ValidationError{Field: "signal", Reason: "cannot output nil signal"}
	}
	dst := sig.Dst()
	if dst == "" {
		return false, &ValidationError{Field: "signal.dst", Reason: "signal has no destination"}
	}

	s.mu.Lock()
	p, ok := s.procs[dst]
	if ok {
		s.pushReady(p)
	}
	s.mu.Unlock()

	if ok {
		if err := p.Input(sig); err != nil {
			logger.Warn("failed to deliver signal", "signal", sig.Name(), "dst", dst, "err", err)
			return false, &DeliveryError{Destination: dst, Signal: sig.Type().Kind(), Err: err}
		}
		return true, nil
	}

	logger.Warn("signal to nonexistent process", "signal", sig.Name(), "dst", dst)

	src := sig.Src()
	if src == "" {
		return false, nil
	}

	s.mu.Lock()
	source, known := s.procs[src]
	if known {
		s.pushReady(source)
	}
	s.mu.Unlock()

	if !known {
		return false, nil
	}

	notice := newProcessNotExist(sig, dst, src)
	if err := source.Input(notice); err != nil {
		logger.Warn("failed to send ProcessNotExist to source", "src", src, "err", err)
	} else {
		logger.Signal("deliver", notice.Name(), s.alloc.SignalID(notice),
			source.CurrentState().Name(), notice.Dst(), notice.Src(), "")
	}
	return false, nil
}

// pushReady appends to the diagnostic ready list, trimming the oldest
// entries past the configured limit. Callers hold the lock.
func (s *System) pushReady(p *Process) {
	s.ready = append(s.ready, p)
	if s.readyLimit > 0 && len(s.ready) > s.readyLimit {
		s.ready = s.ready[len(s.ready)-s.readyLimit:]
	}
}

// ReadyList returns a snapshot of the diagnostic ready list. Entries are
// not deduplicated.
func (s *System) ReadyList() []*Process {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*Process, len(s.ready))
	copy(out, s.ready)
	return out
}

// ClearReadyList empties the diagnostic ready list.
func (s *System) ClearReadyList() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ready = nil
}

// StartTimer registers a timer under its owning process. An existing timer
// equal by type and correlator is removed first, so starting is idempotent.
func (s *System) StartTimer(t *Timer) error {
	if t == nil {
		return &ValidationError{Field: "timer", Reason: "cannot start nil timer"}
	}
	pid := t.Src()
	if pid == "" {
		return &TimerError{Timer: t.Name(), Reason: "timer has no source pid"}
	}

	s.StopTimer(t)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.timers[pid] = append(s.timers[pid], t)
	logger.Timer("timer started", t.Name(), t.Correlator(), pid)
	return nil
}

// StopTimer removes the first timer equal to t by (type id, correlator)
// from its owner's list, deleting the list once empty. It reports whether a
// removal occurred.
func (s *System) StopTimer(t *Timer) bool {
	if t == nil {
		return false
	}
	pid := t.Src()
	if pid == "" {
		logger.Warn("timer has no source pid", "timer", t.Name())
		return false
	}

	key := s.timerKeyFor(t)

	s.mu.Lock()
	defer s.mu.Unlock()

	list, ok := s.timers[pid]
	if !ok {
		return false
	}
	for i, candidate := range list {
		if s.timerKeyFor(candidate) == key {
			s.timers[pid] = append(list[:i], list[i+1:]...)
			if len(s.timers[pid]) == 0 {
				delete(s.timers, pid)
			}
			return true
		}
	}
	return false
}

// ActiveTimers returns the timers currently registered for a PID.
func (s *System) ActiveTimers(pid string) []*Timer {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*Timer, len(s.timers[pid]))
	copy(out, s.timers[pid])
	return out
}

// Expire sweeps every live timer, recording now as its observed time, and
// delivers each expired timer to its owner as an ordinary signal. Expired
// timers are removed whether or not delivery succeeded.
func (s *System) Expire(now int64) {
	s.mu.RLock()
	var due []*Timer
	for _, list := range s.timers {
		for _, t := range list {
			t.Expire(now)
			if t.Expired() {
				due = append(due, t)
			}
		}
	}
	s.mu.RUnlock()

	for _, t := range due {
		if _, err := s.Output(t); err != nil {
			logger.Warn("failed to deliver expired timer", "timer", t.Name(), "err", err)
		}
		if !s.StopTimer(t) {
			logger.Warn("expired timer was already stopped", "timer", t.Name())
		}
	}
}

// Run drives the scheduler until Stop is called or the context is
// cancelled. Each iteration waits a bounded interval for one signal,
// dispatches it if present, then sweeps the timer registry, so timers fire
// even when the queue is idle.
func (s *System) Run(ctx context.Context) error {
	logger.System("scheduler started")
	for {
		if s.stopped.Load() {
			logger.System("scheduler stopped")
			return nil
		}

		var sig Signal
		select {
		case sig = <-s.queue:
		case <-time.After(s.pollInterval):
		case <-ctx.Done():
			return ctx.Err()
		}

		if sig != nil {
			s.processSignal(ctx, sig)
		}

		s.Expire(s.now())
	}
}

// Stop requests the scheduler loop to exit. It takes effect on the next
// iteration.
func (s *System) Stop() {
	s.stopped.Store(true)
}

// Stopped reports whether a stop has been requested.
func (s *System) Stopped() bool {
	return s.stopped.Load()
}

// processSignal is the dispatch boundary. Unknown destinations and missing
// handlers drop the signal with a log line; handler errors and panics are
// caught here so a failing actor never halts the scheduler.
func (s *System) processSignal(ctx context.Context, sig Signal) {
	p, ok := s.Lookup(sig.Dst())
	if !ok {
		logger.Warn("signal destination process not found", "dst", sig.Dst())
		return
	}

	h, err := p.LookupTransition(sig)
	if err != nil {
		logger.Warn("transition lookup failed", "err", err)
		return
	}
	if h == nil {
		logger.Signal("drop", sig.Name(), s.alloc.SignalID(sig),
			p.CurrentState().Name(), sig.Dst(), sig.Src(), sig.DumpPayload())
		return
	}

	logger.Signal("deliver", sig.Name(), s.alloc.SignalID(sig),
		p.CurrentState().Name(), sig.Dst(), sig.Src(), sig.DumpPayload())
	s.invoke(ctx, p, h, sig)
}

func (s *System) invoke(ctx context.Context, p *Process, h Handler, sig Signal) {
	defer func() {
		if r := recover(); r != nil {
			logger.Error("handler panicked", "pid", p.PID(), "signal", sig.Name(), "panic", r)
		}
	}()
	if err := h(ctx, sig); err != nil {
		logger.Warn("handler failed", "pid", p.PID(), "signal", sig.Name(), "err", err)
	}
}

// singleton returns the live singleton for a kind, if one was created.
func (s *System) singleton(kind string) (*Process, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.singletons[kind]
	return p, ok
}

func (s *System) setSingleton(kind string, p *Process) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.singletons[kind] = p
}

// Stats is a point-in-time snapshot of the runtime.
type Stats struct {
	// Processes is the number of live registrations
	Processes int

	// ActiveTimers is the number of scheduled timers across all owners
	ActiveTimers int

	// QueuedSignals is the number of signals waiting in the shared queue
	QueuedSignals int

	// ReadyEntries is the length of the diagnostic ready list
	ReadyEntries int
}

// Snapshot returns current runtime statistics.
func (s *System) Snapshot() Stats {
	s.mu.RLock()
	defer s.mu.RUnlock()

	timers := 0
	for _, list := range s.timers {
		timers += len(list)
	}
	return Stats{
		Processes:     len(s.procs),
		ActiveTimers:  timers,
		QueuedSignals: len(s.queue),
		ReadyEntries:  len(s.ready),
	}
}
