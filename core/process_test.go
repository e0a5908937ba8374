package core

import (
	"context"
	"errors"
	"fmt"
	"testing"
)

func TestSpawnSendsOneStart(t *testing.T) {
	sys := NewSystem()
	p := mustSpawn(t, sys, "Worker")

	queued := drainQueue(sys)
	if len(queued) != 1 {
		t.Fatalf("Expected exactly one queued signal, got %d", len(queued))
	}
	start := queued[0]
	if start.Type() != SignalStart {
		t.Errorf("Expected Start signal, got %s", start.Name())
	}
	if start.Dst() != p.PID() || start.Src() != p.PID() {
		t.Errorf("Start must be self-addressed, src=%s dst=%s", start.Src(), start.Dst())
	}
}

func TestPIDFormat(t *testing.T) {
	sys := NewSystem()
	p := mustSpawn(t, sys, "Worker")

	want := fmt.Sprintf("Worker(%d.1)", p.TypeID())
	if p.PID() != want {
		t.Errorf("Expected pid %s, got %s", want, p.PID())
	}
	if BuildPID("Worker", 3, 2) != "Worker(3.2)" {
		t.Errorf("Unexpected pid format: %s", BuildPID("Worker", 3, 2))
	}
}

func TestSpawnIncrementsInstance(t *testing.T) {
	sys := NewSystem()
	a := mustSpawn(t, sys, "Worker")
	b := mustSpawn(t, sys, "Worker")

	if a.TypeID() != b.TypeID() {
		t.Errorf("Instances of one kind must share a type id, got %d and %d", a.TypeID(), b.TypeID())
	}
	if a.Instance() != 1 || b.Instance() != 2 {
		t.Errorf("Expected instances 1 and 2, got %d and %d", a.Instance(), b.Instance())
	}
	if a.PID() == b.PID() {
		t.Error("Instances must have distinct pids")
	}
}

func TestSpawnSetupFailure(t *testing.T) {
	sys := NewSystem()

	_, err := Spawn(sys, "", nil, &stubBehavior{kind: "Broken", setup: func(p *Process, m *StateMachine) error {
		m.Event(SignalStart)
		return m.Done()
	}})
	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Errorf("Expected ValidationError from broken setup, got %v", err)
	}
	if stats := sys.Snapshot(); stats.Processes != 0 {
		t.Error("Failed spawn must not leave a registration behind")
	}
}

func TestSpawnSingleton(t *testing.T) {
	sys := NewSystem()
	b := &stubBehavior{kind: "Manager"}

	first, err := SpawnSingleton(sys, "", nil, b)
	if err != nil {
		t.Fatalf("SpawnSingleton failed: %v", err)
	}
	second, err := SpawnSingleton(sys, "", nil, b)
	if err != nil {
		t.Fatalf("Second SpawnSingleton failed: %v", err)
	}

	if first != second {
		t.Error("Singleton spawn must return the existing instance")
	}
	if first.Instance() != 0 {
		t.Errorf("Singleton instance index must be 0, got %d", first.Instance())
	}

	// The singleton never advances the kind's instance counter.
	regular := mustSpawn(t, sys, "Manager")
	if regular.Instance() != 1 {
		t.Errorf("Expected first regular instance 1, got %d", regular.Instance())
	}
}

func TestNextStateNoOpOnSameState(t *testing.T) {
	sys := NewSystem()
	p := mustSpawn(t, sys, "Worker")

	saved := NewSignalType("Saved").New(nil)
	saved.SetDst(p.PID())
	p.SaveSignal(saved)

	p.NextState(p.CurrentState())
	if len(p.SavedSignals()) != 1 {
		t.Error("Self-transition must not flush the saved buffer")
	}
}

func TestNextStateFlushesSavedSignalsInOrder(t *testing.T) {
	sys := NewSystem()
	p := mustSpawn(t, sys, "Worker")
	peer := mustSpawn(t, sys, "Peer")
	drainQueue(sys)

	note := NewSignalType("Note")
	for i := 1; i <= 3; i++ {
		sig := note.New(i)
		sig.SetDst(peer.PID())
		p.SaveSignal(sig)
	}

	p.NextState(NewState("busy"))

	if p.CurrentState() != NewState("busy") {
		t.Errorf("Expected state busy, got %s", p.CurrentState())
	}
	if len(p.SavedSignals()) != 0 {
		t.Error("Flush must clear the saved buffer")
	}

	queued := drainQueue(sys)
	if len(queued) != 3 {
		t.Fatalf("Expected 3 forwarded signals, got %d", len(queued))
	}
	for i, sig := range queued {
		if sig.Payload() != i+1 {
			t.Errorf("Signal %d out of order, payload %v", i, sig.Payload())
		}
		if sig.Dst() != peer.PID() {
			t.Errorf("Forwarded signal must keep its recorded destination, got %s", sig.Dst())
		}
	}
}

func TestStartTimerNegativeDuration(t *testing.T) {
	sys := NewSystem()
	p := mustSpawn(t, sys, "Worker")

	err := p.StartTimer(NewTimer(NewSignalType("Retry"), 1, nil), -5)
	var terr *TimerError
	if !errors.As(err, &terr) {
		t.Errorf("Expected TimerError for negative duration, got %v", err)
	}
	if len(sys.ActiveTimers(p.PID())) != 0 {
		t.Error("Rejected timer must not be registered")
	}
}

func TestStartTimerDeadlineFromClock(t *testing.T) {
	now := int64(5000)
	sys := NewSystemWithOptions(Options{Clock: func() int64 { return now }})
	p := mustSpawn(t, sys, "Worker")

	retry := NewTimer(NewSignalType("Retry"), 1, nil)
	if err := p.StartTimer(retry, 250); err != nil {
		t.Fatalf("StartTimer failed: %v", err)
	}
	if retry.Deadline() != 5250 {
		t.Errorf("Expected deadline 5250, got %d", retry.Deadline())
	}
	if retry.Src() != p.PID() || retry.Dst() != p.PID() {
		t.Error("Timer must be addressed to its owner")
	}
}

func TestStartTimerAbs(t *testing.T) {
	sys := NewSystem()
	p := mustSpawn(t, sys, "Worker")

	retry := NewTimer(NewSignalType("Retry"), 1, nil)
	if err := p.StartTimerAbs(retry, 9000); err != nil {
		t.Fatalf("StartTimerAbs failed: %v", err)
	}
	if retry.Deadline() != 9000 {
		t.Errorf("Expected deadline 9000, got %d", retry.Deadline())
	}

	err := p.StartTimerAbs(NewTimer(NewSignalType("Retry"), 2, nil), 0)
	var terr *TimerError
	if !errors.As(err, &terr) {
		t.Errorf("Expected TimerError for non-positive deadline, got %v", err)
	}
}

func TestStopSendsStoppingToSelf(t *testing.T) {
	sys := NewSystem()
	p := mustSpawn(t, sys, "Worker")
	drainQueue(sys)

	if err := p.Stop(); err != nil {
		t.Fatalf("Stop failed: %v", err)
	}
	queued := drainQueue(sys)
	if len(queued) != 1 {
		t.Fatalf("Expected one Stopping signal, got %d", len(queued))
	}
	if queued[0].Type() != SignalStopping {
		t.Errorf("Expected Stopping, got %s", queued[0].Name())
	}
	if queued[0].Dst() != p.PID() {
		t.Errorf("Stopping must be self-addressed, got %s", queued[0].Dst())
	}
	if _, ok := sys.Lookup(p.PID()); !ok {
		t.Error("Stop is cooperative; the process must stay registered")
	}
}

func TestStopProcessUnregisters(t *testing.T) {
	sys := NewSystem()
	p := mustSpawn(t, sys, "Worker")

	p.StopProcess()
	if _, ok := sys.Lookup(p.PID()); ok {
		t.Error("StopProcess must unregister immediately")
	}
}

func TestLookupTransitionUsesCurrentState(t *testing.T) {
	sys := NewSystem()

	idle := NewState("idle")
	note := NewSignalType("Note")
	var fired string

	p, err := Spawn(sys, "", nil, &stubBehavior{kind: "Worker", setup: func(p *Process, m *StateMachine) error {
		m.State(StateStart).Event(note).Handler(markerHandler(&fired, "from-start")).
			State(idle).Event(note).Handler(markerHandler(&fired, "from-idle"))
		return m.Done()
	}})
	if err != nil {
		t.Fatalf("Spawn failed: %v", err)
	}

	sig := note.New(nil)
	h, err := p.LookupTransition(sig)
	if err != nil || h == nil {
		t.Fatalf("Lookup failed: %v", err)
	}
	h(context.Background(), sig)
	if fired != "from-start" {
		t.Errorf("Expected start-state handler, got %s", fired)
	}

	p.NextState(idle)
	h, _ = p.LookupTransition(sig)
	if h == nil {
		t.Fatal("No handler after transition")
	}
	h(context.Background(), sig)
	if fired != "from-idle" {
		t.Errorf("Expected idle-state handler, got %s", fired)
	}

	// Missing handler is a drop, not an error.
	h, err = p.LookupTransition(NewSignalType("Unknown").New(nil))
	if err != nil {
		t.Errorf("Missing handler must not be an error, got %v", err)
	}
	if h != nil {
		t.Error("Expected nil handler for unbound signal")
	}
}
