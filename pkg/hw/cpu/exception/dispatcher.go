// Package exception dispatches processor exceptions to their handlers.
//
// Only illegal instruction exceptions are sent to the instruction emulator. When the emulator
// handles the trap the dispatcher moves the program counter past the emulated instruction;
// anything else goes through the configured unhandled policy.
package exception

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/Manu343726/atomicemu/pkg/hw/cpu"
	"github.com/Manu343726/atomicemu/pkg/hw/cpu/mc/instructions"
	"github.com/Manu343726/atomicemu/pkg/utils"
)

var (
	ErrUnhandledException = errors.New("unhandled exception")
	ErrNoFallback         = errors.New("forward policy requires a fallback handler")
)

// Emulates the instruction a frame trapped on
type InstructionEmulator interface {
	Handle(frame *cpu.Frame) (bool, error)
}

// Handles exceptions the emulator does not take care of
type Handler interface {
	HandleException(cause ExceptionCause, frame *cpu.Frame) (bool, error)
}

type HandlerFunc func(cause ExceptionCause, frame *cpu.Frame) (bool, error)

func (f HandlerFunc) HandleException(cause ExceptionCause, frame *cpu.Frame) (bool, error) {
	return f(cause, frame)
}

// What the dispatcher does with exceptions nobody handled
type UnhandledPolicy int

const (
	// Stop the core
	UnhandledPolicy_Halt UnhandledPolicy = iota
	// Give the exception to the fallback handler
	UnhandledPolicy_Forward
)

func (p UnhandledPolicy) String() string {
	switch p {
	case UnhandledPolicy_Halt:
		return "halt"
	case UnhandledPolicy_Forward:
		return "forward"
	default:
		return fmt.Sprintf("unknown(%d)", int(p))
	}
}

// Result of dispatching an exception
type Outcome int

const (
	// The exception was handled, execution resumes at frame.PC
	Outcome_Resumed Outcome = iota
	// Nobody handled the exception, the core must stop
	Outcome_Halted
	// Handling the exception failed, the core must stop
	Outcome_Faulted
)

func (o Outcome) String() string {
	switch o {
	case Outcome_Resumed:
		return "resumed"
	case Outcome_Halted:
		return "halted"
	case Outcome_Faulted:
		return "faulted"
	default:
		return fmt.Sprintf("unknown(%d)", int(o))
	}
}

type Options struct {
	Unhandled UnhandledPolicy
	// Required by UnhandledPolicy_Forward. A fallback that handles an exception is
	// responsible for updating frame.PC.
	Fallback Handler
	Logger   *slog.Logger
}

type Dispatcher struct {
	emulator  InstructionEmulator
	unhandled UnhandledPolicy
	fallback  Handler
	logger    *slog.Logger
}

func NewDispatcher(emulator InstructionEmulator, opts Options) (*Dispatcher, error) {
	if opts.Unhandled == UnhandledPolicy_Forward && opts.Fallback == nil {
		return nil, ErrNoFallback
	}

	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	return &Dispatcher{
		emulator:  emulator,
		unhandled: opts.Unhandled,
		fallback:  opts.Fallback,
		logger:    logger,
	}, nil
}

// Dispatches an exception raised with the given cause. frame is modified in place and
// holds the state to resume from when the outcome is Outcome_Resumed.
func (d *Dispatcher) Dispatch(cause ExceptionCause, frame *cpu.Frame) (Outcome, error) {
	if cause == IllegalInstruction {
		handled, err := d.emulator.Handle(frame)
		if err != nil {
			d.logger.Error("instruction emulation failed", "core", frame.CoreID, "pc", fmt.Sprintf("0x%08x", frame.PC), "error", err)
			return Outcome_Faulted, err
		}

		if handled {
			frame.PC += instructions.InstructionLength
			return Outcome_Resumed, nil
		}
	}

	return d.dispatchUnhandled(cause, frame)
}

func (d *Dispatcher) dispatchUnhandled(cause ExceptionCause, frame *cpu.Frame) (Outcome, error) {
	if d.unhandled == UnhandledPolicy_Forward {
		handled, err := d.fallback.HandleException(cause, frame)
		if err != nil {
			return Outcome_Faulted, err
		}

		if handled {
			return Outcome_Resumed, nil
		}
	}

	d.logger.Warn("unhandled exception", "core", frame.CoreID, "cause", cause.String(), "pc", fmt.Sprintf("0x%08x", frame.PC))
	return Outcome_Halted, utils.MakeError(ErrUnhandledException, "%v on core %v at pc 0x%08x", cause, frame.CoreID, frame.PC)
}
