package core

import "fmt"

// Timer is a signal that is delivered back to its owner once an absolute
// deadline has been observed by the scheduler's timer sweep. Two timers of
// the same type and correlator are interchangeable for lookup and
// cancellation, regardless of instance identity.
type Timer struct {
	BaseSignal

	correlator int
	deadline   int64
	observed   int64
}

// NewTimer creates a timer of the given type. The correlator distinguishes
// concurrent timers of the same type owned by one process.
func NewTimer(t *SignalType, correlator int, payload any) *Timer {
	return &Timer{
		BaseSignal: BaseSignal{stype: t, payload: payload},
		correlator: correlator,
	}
}

// Correlator returns the application correlator.
func (t *Timer) Correlator() int {
	return t.correlator
}

// SetCorrelator replaces the application correlator.
func (t *Timer) SetCorrelator(correlator int) {
	t.correlator = correlator
}

// Deadline returns the absolute expiry time in milliseconds.
func (t *Timer) Deadline() int64 {
	return t.deadline
}

// Start arms the timer with an absolute deadline and clears the observed
// time marker.
func (t *Timer) Start(deadline int64) {
	t.deadline = deadline
	t.observed = 0
}

// Expire records the current time. The scheduler calls this on every sweep
// for every live timer; calls before the deadline are inexpensive no-ops.
func (t *Timer) Expire(now int64) {
	t.observed = now
}

// Expired reports whether a time at or after the deadline has been observed.
func (t *Timer) Expired() bool {
	return t.observed >= t.deadline
}

// DumpPayload renders the correlator for trace logging.
func (t *Timer) DumpPayload() string {
	return fmt.Sprintf("correlator: %d", t.correlator)
}

func (t *Timer) String() string {
	return fmt.Sprintf("%s [correlator: %d]", t.BaseSignal.String(), t.correlator)
}

// timerKey is the composite cancellation key for a timer: the numeric type
// id plus the application correlator. Lookup never uses structural equality.
type timerKey struct {
	typeID     int
	correlator int
}

func (s *System) timerKeyFor(t *Timer) timerKey {
	return timerKey{typeID: s.alloc.TypeID(t.Type().Kind()), correlator: t.Correlator()}
}
