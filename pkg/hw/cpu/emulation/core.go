package emulation

import (
	"go.uber.org/atomic"
)

// CoreState holds the emulated special registers of one logical core.
//
// The hardware SCOMPARE1 register is per core, so each core gets its own CoreState. The
// emulator refuses frames captured on a different core and detects trap handling re-entering
// the same state while a previous trap is still being emulated.
type CoreState struct {
	id        int
	scompare1 atomic.Uint32
	busy      atomic.Bool
}

// Creates the state of the given core with SCOMPARE1 reset to zero
func NewCoreState(id int) *CoreState {
	return &CoreState{
		id: id,
	}
}

// Core this state belongs to
func (s *CoreState) ID() int {
	return s.id
}

// Current value of the emulated SCOMPARE1 register
func (s *CoreState) SCompare1() uint32 {
	return s.scompare1.Load()
}

// Overwrites the emulated SCOMPARE1 register
func (s *CoreState) SetSCompare1(value uint32) {
	s.scompare1.Store(value)
}

// Returns true while a trap is being emulated on this state
func (s *CoreState) Busy() bool {
	return s.busy.Load()
}

func (s *CoreState) enter() bool {
	return s.busy.CAS(false, true)
}

func (s *CoreState) exit() {
	s.busy.Store(false)
}
