package core

import "testing"

func TestSignalTypeNew(t *testing.T) {
	ping := NewSignalType("Ping")
	sig := ping.New("payload")

	if sig.Type() != ping {
		t.Error("Signal does not report its type")
	}
	if sig.Name() != "Ping" {
		t.Errorf("Expected name Ping, got %s", sig.Name())
	}
	if sig.Payload() != "payload" {
		t.Errorf("Expected payload, got %v", sig.Payload())
	}
	if sig.Src() != "" || sig.Dst() != "" {
		t.Error("Addresses must be unset until a send stamps them")
	}
}

func TestSignalStamping(t *testing.T) {
	sig := NewSignalType("Note").New(nil)
	sig.SetSrc("A(1.1)")
	sig.SetDst("B(2.1)")

	if sig.Src() != "A(1.1)" || sig.Dst() != "B(2.1)" {
		t.Errorf("Stamping failed: src=%s dst=%s", sig.Src(), sig.Dst())
	}
}

func TestSignalInstanceName(t *testing.T) {
	sig := NewSignalType("Note").New(nil)
	sig.SetName("note-42")

	if sig.Name() != "note-42" {
		t.Errorf("Expected overridden name, got %s", sig.Name())
	}
}

func TestSameTypeSharesID(t *testing.T) {
	sys := NewSystem()
	note := NewSignalType("Note")

	first := sys.Allocator().SignalID(note.New(nil))
	second := sys.Allocator().SignalID(note.New(nil))

	if first != second {
		t.Errorf("Two instances of one type got ids %d and %d", first, second)
	}
}

func TestProcessNotExistPayload(t *testing.T) {
	original := NewSignalType("Query").New(nil)
	notice := newProcessNotExist(original, "Ghost(9.9)", "Caller(1.1)")

	info, ok := notice.Payload().(ProcessNotExistInfo)
	if !ok {
		t.Fatalf("Expected ProcessNotExistInfo payload, got %T", notice.Payload())
	}
	if info.OriginalSignal != "Query" {
		t.Errorf("Expected original signal Query, got %s", info.OriginalSignal)
	}
	if info.Destination != "Ghost(9.9)" {
		t.Errorf("Expected destination Ghost(9.9), got %s", info.Destination)
	}
	if info.Source != "Caller(1.1)" {
		t.Errorf("Expected source Caller(1.1), got %s", info.Source)
	}
	if notice.Dst() != "Caller(1.1)" {
		t.Errorf("Notice must be addressed back to the source, got %s", notice.Dst())
	}
}
