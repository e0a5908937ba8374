package core

// State is a named location in a process's finite automaton. States compare
// by name, so two State values with the same name are the same state.
type State struct {
	name string
}

// NewState creates a state with the given name.
func NewState(name string) State {
	return State{name: name}
}

// Name returns the state name.
func (s State) Name() string {
	return s.name
}

func (s State) String() string {
	return s.name
}

// Reserved states.
var (
	// StateStart is the initial state of every process.
	StateStart = NewState("start")

	// StateWait is a conventional waiting state.
	StateWait = NewState("wait")

	// StateAny is the wildcard state. It participates only in dispatch
	// table resolution and is never a process's current state.
	StateAny = NewState("*")
)
