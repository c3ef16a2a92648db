// Package emulation emulates the S32C1I compare-and-swap instruction, and the write of its
// SCOMPARE1 compare register, on cores that lack the conditional store option.
//
// The emulator is meant to be called from the illegal instruction exception path. It reads
// the trapped instruction, and if it is one it emulates, applies its effects on the saved
// frame and memory and reports the trap as handled. Advancing the program counter past the
// instruction is the dispatcher's job.
//
// The load, compare and store of S32C1I are not atomic by themselves. The caller must
// guarantee nothing else touches the memory word (another core, a nested trap) while Handle
// runs. Re-entering Handle on the same CoreState is detected and rejected.
package emulation

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/Manu343726/atomicemu/pkg/hw/cpu"
	"github.com/Manu343726/atomicemu/pkg/hw/cpu/mc/instructions"
	"github.com/Manu343726/atomicemu/pkg/utils"
)

var (
	ErrFetch                      = errors.New("instruction fetch failed")
	ErrMemoryAccess               = errors.New("memory access failed")
	ErrReentrantTrap              = errors.New("re-entrant trap")
	ErrForeignCoreState           = errors.New("frame belongs to another core")
	ErrUnwatchedAuxiliaryRegister = errors.New("write to unwatched special register")
)

type Options struct {
	// What to do with WSR instructions writing special registers other than SCOMPARE1
	UnwatchedWrites UnwatchedWritePolicy
	// Logger for emulation traces. Defaults to discarding everything.
	Logger *slog.Logger
}

// Emulator emulates trapped instructions for a single core
type Emulator struct {
	bus    cpu.MemoryBus
	state  *CoreState
	policy UnwatchedWritePolicy
	logger *slog.Logger
}

func NewEmulator(bus cpu.MemoryBus, state *CoreState, opts Options) *Emulator {
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	return &Emulator{
		bus:    bus,
		state:  state,
		policy: opts.UnwatchedWrites,
		logger: logger.With("core", state.ID()),
	}
}

// Emulated state of the core this emulator serves
func (e *Emulator) State() *CoreState {
	return e.state
}

// Emulates the instruction at frame.PC.
//
// Returns true if the instruction was emulated, in which case the frame and memory hold the
// results of the instruction. Returns false, with frame, memory and core state untouched, if
// the instruction is not one this emulator handles. Errors are faults: the caller must not
// resume the trapped code.
//
// frame.PC is never modified.
func (e *Emulator) Handle(frame *cpu.Frame) (bool, error) {
	if frame.CoreID != e.state.ID() {
		return false, utils.MakeError(ErrForeignCoreState, "frame captured on core %v, emulator state is core %v", frame.CoreID, e.state.ID())
	}

	if !e.state.enter() {
		return false, utils.MakeError(ErrReentrantTrap, "core %v trapped at pc 0x%08x while emulating a previous instruction", frame.CoreID, frame.PC)
	}
	defer e.state.exit()

	word, err := Fetch(e.bus, frame.PC)
	if err != nil {
		return false, err
	}

	switch instruction := instructions.Decode(word).(type) {
	case instructions.WriteAuxiliaryRegister:
		return e.writeAuxiliaryRegister(frame, instruction)
	case instructions.CompareAndSwapWord:
		return e.compareAndSwap(frame, instruction)
	default:
		e.logger.Debug("not an emulated instruction", "pc", hex(frame.PC), "instruction", instruction.String())
		return false, nil
	}
}

func (e *Emulator) writeAuxiliaryRegister(frame *cpu.Frame, instruction instructions.WriteAuxiliaryRegister) (bool, error) {
	if instruction.AuxID != instructions.SCOMPARE1 {
		e.logger.Debug("write to unwatched special register", "pc", hex(frame.PC), "instruction", instruction.String(), "policy", e.policy.String())

		switch e.policy {
		case UnwatchedWritePolicy_Ignore:
			return true, nil
		case UnwatchedWritePolicy_Fatal:
			return false, utils.MakeError(ErrUnwatchedAuxiliaryRegister, "'%v' at pc 0x%08x", instruction, frame.PC)
		default:
			return false, nil
		}
	}

	value := frame.Get(instruction.Target)
	e.state.SetSCompare1(value)

	e.logger.Debug("emulated", "pc", hex(frame.PC), "instruction", instruction.String(), "scompare1", hex(value))
	return true, nil
}

func (e *Emulator) compareAndSwap(frame *cpu.Frame, instruction instructions.CompareAndSwapWord) (bool, error) {
	newValue := frame.Get(instruction.Target)
	address := frame.Get(instruction.Base) + instruction.ByteOffset()

	oldValue, err := e.bus.Read32(address)
	if err != nil {
		return false, utils.MakeError(ErrMemoryAccess, "'%v' at pc 0x%08x: %w", instruction, frame.PC, err)
	}

	expected := e.state.SCompare1()
	swapped := oldValue == expected

	if swapped {
		if err := e.bus.Write32(address, newValue); err != nil {
			return false, utils.MakeError(ErrMemoryAccess, "'%v' at pc 0x%08x: %w", instruction, frame.PC, err)
		}
	}

	frame.Set(instruction.Target, oldValue)

	e.logger.Debug("emulated", "pc", hex(frame.PC), "instruction", instruction.String(),
		"address", hex(address), "expected", hex(expected), "old", hex(oldValue), "new", hex(newValue), "swapped", swapped)
	return true, nil
}

func hex(value uint32) string {
	return fmt.Sprintf("0x%08x", value)
}
