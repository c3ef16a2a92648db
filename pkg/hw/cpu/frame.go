package cpu

import (
	"fmt"
	"strings"
)

// Frame is the register state saved by the exception dispatcher when a core traps.
//
// Exception handlers receive a pointer to the frame for the duration of the call and
// may modify it. The dispatcher restores the (possibly modified) frame when resuming.
type Frame struct {
	// General purpose registers a0-a15
	A [TotalRegisters]uint32
	// Address of the instruction that raised the exception
	PC uint32
	// Processor state register
	PS uint32
	// Logical core the frame was captured on
	CoreID int
}

// Returns the value of a general purpose register
func (f *Frame) Get(r Register) uint32 {
	return f.A[r.Index()]
}

// Sets the value of a general purpose register
func (f *Frame) Set(r Register, value uint32) {
	f.A[r.Index()] = value
}

func (f *Frame) String() string {
	var builder strings.Builder

	builder.WriteString(fmt.Sprintf("core %d pc=0x%08x ps=0x%08x", f.CoreID, f.PC, f.PS))

	for _, r := range AllRegisters() {
		if r.Index()%4 == 0 {
			builder.WriteString("\n")
		} else {
			builder.WriteString(" ")
		}

		builder.WriteString(fmt.Sprintf("%4v=0x%08x", r, f.Get(r)))
	}

	return builder.String()
}
