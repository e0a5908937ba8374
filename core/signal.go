package core

import "fmt"

// SignalType is the descriptor for a concrete signal kind. Application code
// declares one SignalType value per signal kind and constructs instances
// through it; the runtime resolves a numeric id for the kind through the
// owning System's allocator when routing and dispatching.
type SignalType struct {
	kind string
}

// NewSignalType declares a signal kind with the given name.
func NewSignalType(kind string) *SignalType {
	return &SignalType{kind: kind}
}

// Kind returns the stable kind name of this signal type.
func (t *SignalType) Kind() string {
	return t.kind
}

func (t *SignalType) String() string {
	return t.kind
}

// New creates a signal instance of this type carrying an optional payload.
func (t *SignalType) New(payload any) *BaseSignal {
	return &BaseSignal{stype: t, payload: payload}
}

// Signal is a typed message between processes. Source and destination are
// unset until a send operation stamps them.
type Signal interface {
	// Type returns the signal's kind descriptor.
	Type() *SignalType

	// Name returns the signal's instance name (the kind name by default).
	Name() string

	// Src returns the source PID, or "" if not yet stamped.
	Src() string

	// SetSrc stamps the source PID.
	SetSrc(src string)

	// Dst returns the destination PID, or "" if not yet stamped.
	Dst() string

	// SetDst stamps the destination PID.
	SetDst(dst string)

	// Payload returns the opaque payload, or nil.
	Payload() any

	// SetPayload replaces the payload.
	SetPayload(payload any)

	// DumpPayload renders the payload for trace logging, or "" for none.
	DumpPayload() string
}

// BaseSignal is the concrete signal implementation. Timers embed it.
type BaseSignal struct {
	stype   *SignalType
	name    string
	src     string
	dst     string
	payload any
}

// Type returns the signal's kind descriptor.
func (s *BaseSignal) Type() *SignalType {
	return s.stype
}

// Name returns the instance name, defaulting to the kind name.
func (s *BaseSignal) Name() string {
	if s.name != "" {
		return s.name
	}
	return s.stype.Kind()
}

// SetName overrides the instance name.
func (s *BaseSignal) SetName(name string) {
	s.name = name
}

// Src returns the source PID.
func (s *BaseSignal) Src() string {
	return s.src
}

// SetSrc stamps the source PID.
func (s *BaseSignal) SetSrc(src string) {
	s.src = src
}

// Dst returns the destination PID.
func (s *BaseSignal) Dst() string {
	return s.dst
}

// SetDst stamps the destination PID.
func (s *BaseSignal) SetDst(dst string) {
	s.dst = dst
}

// Payload returns the opaque payload.
func (s *BaseSignal) Payload() any {
	return s.payload
}

// SetPayload replaces the payload.
func (s *BaseSignal) SetPayload(payload any) {
	s.payload = payload
}

// DumpPayload renders the payload for trace logging.
func (s *BaseSignal) DumpPayload() string {
	return ""
}

func (s *BaseSignal) String() string {
	return fmt.Sprintf("%s [src: %s] [dst: %s]", s.Name(), s.src, s.dst)
}
