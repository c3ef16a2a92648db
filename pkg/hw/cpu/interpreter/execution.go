package interpreter

import (
	"fmt"

	"github.com/Manu343726/atomicemu/pkg/hw/cpu/exception"
	"github.com/Manu343726/atomicemu/pkg/hw/cpu/mc/instructions"
)

// ExecutionEvent represents events that can occur during execution
type ExecutionEvent int

const (
	// EventStep is fired after each emulated instruction
	EventStep ExecutionEvent = iota
	// EventHalt is fired when a core halts on an unhandled exception
	EventHalt
	// EventError is fired when handling an exception faults
	EventError
	// EventTermination is fired when a core reaches a termination address
	EventTermination
)

// String returns the string representation of an ExecutionEvent
func (e ExecutionEvent) String() string {
	switch e {
	case EventStep:
		return "step"
	case EventHalt:
		return "halt"
	case EventError:
		return "error"
	case EventTermination:
		return "termination"
	default:
		return fmt.Sprintf("unknown(%d)", e)
	}
}

// StopReason indicates why execution stopped
type StopReason int

const (
	// StopNone indicates execution has not stopped
	StopNone StopReason = iota
	// StopStep indicates execution stopped after a single step
	StopStep
	// StopHalt indicates the core halted
	StopHalt
	// StopError indicates an exception handling fault
	StopError
	// StopTermination indicates the core reached a termination address
	StopTermination
	// StopMaxSteps indicates max steps limit was reached
	StopMaxSteps
)

// String returns the string representation of a StopReason
func (r StopReason) String() string {
	switch r {
	case StopNone:
		return "none"
	case StopStep:
		return "step"
	case StopHalt:
		return "halt"
	case StopError:
		return "error"
	case StopTermination:
		return "termination"
	case StopMaxSteps:
		return "max_steps"
	default:
		return fmt.Sprintf("unknown(%d)", r)
	}
}

// ExecutionResult contains the result of an execution operation
type ExecutionResult struct {
	// Core the result belongs to
	CoreID int
	// StopReason indicates why execution stopped
	StopReason StopReason
	// StepsExecuted is the number of instructions emulated
	StepsExecuted int
	// Error contains any error that occurred (nil if none)
	Error error
	// LastPC is the address of the last trapped instruction
	LastPC uint32
	// LastInstruction is the last decoded instruction (if available)
	LastInstruction instructions.Instruction
	// LastOutcome is the dispatcher outcome of the last trap
	LastOutcome exception.Outcome
}

// EventCallback is called when an execution event occurs.
// Return true to continue execution, false to stop.
// When several cores run at once the callback is called from all of them concurrently.
type EventCallback func(core *Core, event ExecutionEvent, result *ExecutionResult) bool
