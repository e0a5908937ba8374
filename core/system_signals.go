package core

import "fmt"

// Well-known signal types generated or recognized by the runtime itself.
var (
	// SignalStart is delivered to every process exactly once, immediately
	// after registration.
	SignalStart = NewSignalType("Start")

	// SignalStopping is the cooperative stop request a process sends to
	// itself via Stop. A process may ignore it.
	SignalStopping = NewSignalType("Stopping")

	// SignalStop is reserved for immediate termination. The runtime never
	// emits it.
	SignalStop = NewSignalType("Stop")

	// SignalAny is the wildcard marker used in dispatch tables. It is
	// never actually delivered.
	SignalAny = NewSignalType("*")

	// SignalProcessNotExist is synthesized by the System when delivery to
	// an unregistered destination fails and the sender is known.
	SignalProcessNotExist = NewSignalType("ProcessNotExist")
)

// NewStart creates a Start signal instance.
func NewStart() *BaseSignal {
	return SignalStart.New(nil)
}

// NewStopping creates a Stopping signal instance.
func NewStopping() *BaseSignal {
	return SignalStopping.New(nil)
}

// ProcessNotExistInfo is the payload of a ProcessNotExist signal.
type ProcessNotExistInfo struct {
	// OriginalSignal is the kind name of the signal that failed to deliver
	OriginalSignal string

	// Destination is the PID that could not be found
	Destination string

	// Source is the PID that sent the original signal
	Source string
}

func (i ProcessNotExistInfo) String() string {
	return fmt.Sprintf("signal=%s dest=%s source=%s", i.OriginalSignal, i.Destination, i.Source)
}

// newProcessNotExist builds the notification sent back to a live sender.
func newProcessNotExist(original Signal, destination, source string) *BaseSignal {
	sig := SignalProcessNotExist.New(ProcessNotExistInfo{
		OriginalSignal: original.Type().Kind(),
		Destination:    destination,
		Source:         source,
	})
	sig.SetDst(source)
	sig.SetSrc(systemPID)
	return sig
}

// systemPID is the source stamped on signals the runtime synthesizes.
const systemPID = "System"
