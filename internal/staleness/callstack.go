package staleness

import "github.com/roach88/staleness/internal/sourcemap"

// CallStack tracks the current synchronous call stack as call-site ids.
//
// Only the owning Analysis mutates it, through matched Enter/Exit pairs.
// Everything else sees immutable snapshots.
type CallStack struct {
	frames []sourcemap.LocID // outermost first
}

// NewCallStack creates an empty call stack.
func NewCallStack() *CallStack {
	return &CallStack{
		frames: make([]sourcemap.LocID, 0, 32),
	}
}

// Enter pushes callSite.
func (s *CallStack) Enter(callSite sourcemap.LocID) {
	s.frames = append(s.frames, callSite)
}

// Exit pops the innermost frame. An exit on an empty stack means the trace
// is broken and returns an ErrCodeCallStackUnderflow invariant error.
func (s *CallStack) Exit() error {
	if len(s.frames) == 0 {
		return newUnderflowError()
	}
	s.frames = s.frames[:len(s.frames)-1]
	return nil
}

// Depth returns the number of active frames.
func (s *CallStack) Depth() int {
	return len(s.frames)
}

// Snapshot returns a copy of the stack, outermost first. The result is
// never nil and never aliases the live stack.
func (s *CallStack) Snapshot() []sourcemap.LocID {
	snap := make([]sourcemap.LocID, len(s.frames))
	copy(snap, s.frames)
	return snap
}
