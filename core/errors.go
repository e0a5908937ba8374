package core

import "fmt"

// ValidationError reports a malformed or missing argument to a public
// operation. It is returned synchronously to the immediate caller and is
// fatal to that call only.
type ValidationError struct {
	// Field names the offending argument
	Field string

	// Reason describes what was wrong with it
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed for %s: %s", e.Field, e.Reason)
}

// DeliveryError reports that a destination process exists but accepting the
// signal failed internally.
type DeliveryError struct {
	// Destination is the PID the signal was addressed to
	Destination string

	// Signal is the kind name of the undeliverable signal
	Signal string

	// Err is the underlying cause
	Err error
}

func (e *DeliveryError) Error() string {
	return fmt.Sprintf("failed to deliver %s to %s: %v", e.Signal, e.Destination, e.Err)
}

func (e *DeliveryError) Unwrap() error {
	return e.Err
}

// TimerError reports an invalid timer duration or deadline.
type TimerError struct {
	// Timer is the kind name of the timer
	Timer string

	// Reason describes the invalid value
	Reason string
}

func (e *TimerError) Error() string {
	return fmt.Sprintf("timer %s: %s", e.Timer, e.Reason)
}

// QueueError reports a failure of the underlying signal queue mechanism.
type QueueError struct {
	// Op is the queue operation that failed
	Op string

	// Err is the underlying cause, if any
	Err error
}

func (e *QueueError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("queue %s failed: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("queue %s failed", e.Op)
}

func (e *QueueError) Unwrap() error {
	return e.Err
}
