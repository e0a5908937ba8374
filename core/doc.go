// Package core implements an in-process SDL-style actor runtime.
//
// Processes communicate exclusively through typed signals, react via
// per-process finite state machines, and may schedule delayed self-delivery
// through timers. A System owns the process registry, the shared signal
// queue, and the timer registry, and drives everything from a single
// cooperative scheduler loop.
package core
