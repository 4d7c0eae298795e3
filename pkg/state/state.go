package state

import (
	"github.com/agileandy/bbcbasic/pkg/faults"
)

// ErrorState is the ON ERROR handler slot and the last trapped fault, read
// by programs through ERR, ERL and REPORT$.
type ErrorState struct {
	Handler    int
	HasHandler bool
	Code       int
	Line       int
	Message    string
}

// Record stores a fault for ERR, ERL and REPORT$.
func (es *ErrorState) Record(f *faults.Fault) {
	es.Code = f.Code
	es.Line = f.Line
	es.Message = f.Message
}

// Limits bounds the runtime state.
type Limits struct {
	MaxCallDepth    int
	MaxLoopDepth    int
	MaxStringLength int
}

// State is everything one program run mutates.
type State struct {
	Vars   *Variables
	Arrays *Arrays
	Defs   *Definitions
	Data   DataCursor
	Frames *Frames
	Errors ErrorState
}

// New creates an empty runtime state.
func New(limits Limits) *State {
	return &State{
		Vars:   NewVariables(limits.MaxStringLength),
		Arrays: NewArrays(limits.MaxStringLength),
		Defs:   NewDefinitions(),
		Frames: NewFrames(limits.MaxCallDepth, limits.MaxLoopDepth),
	}
}

// Clear forgets variables and arrays and empties every stack. Definitions,
// DATA and the error handler are reset by the caller when a run starts.
func (s *State) Clear() {
	s.Vars.Clear()
	s.Arrays.Clear()
	s.Frames.Reset()
}

// Reset prepares for a fresh RUN.
func (s *State) Reset() {
	s.Clear()
	s.Defs.Clear()
	s.Data.Restore()
	s.Errors = ErrorState{}
}
