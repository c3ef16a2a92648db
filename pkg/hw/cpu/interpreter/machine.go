// Package interpreter simulates cores without the conditional store option running code
// that uses S32C1I.
//
// None of the simulated cores executes instructions natively: every instruction raises an
// illegal instruction exception that goes through the exception dispatcher and the
// instruction emulator, the same path the emulated instructions take on real hardware.
// Anything the emulator does not handle halts the core.
package interpreter

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/Manu343726/atomicemu/pkg/hw/cpu"
	"github.com/Manu343726/atomicemu/pkg/hw/cpu/emulation"
	"github.com/Manu343726/atomicemu/pkg/hw/cpu/exception"
	"github.com/Manu343726/atomicemu/pkg/hw/cpu/mc/instructions"
	"github.com/Manu343726/atomicemu/pkg/utils"
	"github.com/sourcegraph/conc"
)

var (
	ErrUnknownCore = errors.New("unknown core")
	ErrBadSettings = errors.New("bad machine settings")
)

// DefaultMemoryBase is the default address of the simulated RAM
const DefaultMemoryBase uint32 = 0x3FFE0000

// DefaultMemorySize is the default size of the simulated RAM (128KB)
const DefaultMemorySize uint32 = 0x20000

type Settings struct {
	MemoryBase uint32
	MemorySize uint32
	// Number of cores sharing the memory
	Cores           int
	UnwatchedWrites emulation.UnwatchedWritePolicy
	Unhandled       exception.UnhandledPolicy
	// Fallback handler for UnhandledPolicy_Forward
	Fallback exception.Handler
	Logger   *slog.Logger
}

// DefaultSettings returns a single core machine with the default memory layout
func DefaultSettings() Settings {
	return Settings{
		MemoryBase: DefaultMemoryBase,
		MemorySize: DefaultMemorySize,
		Cores:      1,
	}
}

// Core is one simulated core
type Core struct {
	// Saved register state. Frame.CoreID is the core id.
	Frame cpu.Frame
	// Halted is set when an exception stopped the core
	Halted bool

	state            *emulation.CoreState
	emulator         *emulation.Emulator
	dispatcher       *exception.Dispatcher
	terminationAddrs map[uint32]bool
}

// Core id
func (c *Core) ID() int {
	return c.Frame.CoreID
}

// Emulated special registers of the core
func (c *Core) State() *emulation.CoreState {
	return c.state
}

// Stops the core when its program counter reaches addr
func (c *Core) AddTerminationAddress(addr uint32) {
	c.terminationAddrs[addr] = true
}

func (c *Core) IsTerminationAddress(addr uint32) bool {
	return c.terminationAddrs[addr]
}

// Machine is a set of cores sharing one memory
type Machine struct {
	settings Settings
	memory   *cpu.Memory
	cores    []*Core
	logger   *slog.Logger

	// Held while a core handles an exception. Exception handling is therefore never
	// interleaved between cores, which is what makes the emulated S32C1I atomic.
	trapLock sync.Mutex

	eventCallback EventCallback
}

func NewMachine(settings Settings) (*Machine, error) {
	if settings.Cores <= 0 {
		return nil, utils.MakeError(ErrBadSettings, "a machine needs at least one core, got %v", settings.Cores)
	}

	if settings.MemorySize == 0 || settings.MemorySize%cpu.WordSize != 0 {
		return nil, utils.MakeError(ErrBadSettings, "memory size must be a non zero multiple of %v, got %v", cpu.WordSize, settings.MemorySize)
	}

	if settings.Logger == nil {
		settings.Logger = slog.New(slog.DiscardHandler)
	}

	m := &Machine{
		settings: settings,
		logger:   settings.Logger,
	}

	if err := m.Reset(); err != nil {
		return nil, err
	}

	return m, nil
}

// Recreates memory and cores, dropping all state
func (m *Machine) Reset() error {
	m.memory = cpu.MakeMemory(m.settings.MemoryBase, m.settings.MemorySize)
	m.cores = make([]*Core, m.settings.Cores)

	for id := range m.cores {
		core := &Core{
			Frame:            cpu.Frame{CoreID: id},
			state:            emulation.NewCoreState(id),
			terminationAddrs: make(map[uint32]bool),
		}

		core.emulator = emulation.NewEmulator(m.memory, core.state, emulation.Options{
			UnwatchedWrites: m.settings.UnwatchedWrites,
			Logger:          m.logger,
		})

		dispatcher, err := exception.NewDispatcher(core.emulator, exception.Options{
			Unhandled: m.settings.Unhandled,
			Fallback:  m.settings.Fallback,
			Logger:    m.logger,
		})
		if err != nil {
			return utils.MakeError(ErrBadSettings, "core %v: %w", id, err)
		}

		core.dispatcher = dispatcher
		m.cores[id] = core
	}

	return nil
}

// Shared memory of the machine
func (m *Machine) Memory() *cpu.Memory {
	return m.memory
}

// All cores, indexed by id
func (m *Machine) Cores() []*Core {
	return m.cores
}

// Returns the core with the given id
func (m *Machine) Core(id int) (*Core, error) {
	if id < 0 || id >= len(m.cores) {
		return nil, utils.MakeError(ErrUnknownCore, "core %v (machine has %v cores)", id, len(m.cores))
	}

	return m.cores[id], nil
}

// Sets the callback fired on execution events
func (m *Machine) SetEventCallback(callback EventCallback) {
	m.eventCallback = callback
}

func (m *Machine) fireEvent(core *Core, event ExecutionEvent, result *ExecutionResult) bool {
	if m.eventCallback != nil {
		return m.eventCallback(core, event, result)
	}

	return true
}

// Writes a program at address, points the core at it and stops the core once it runs
// past the last instruction
func (m *Machine) LoadProgram(coreID int, address uint32, program []instructions.Instruction) error {
	core, err := m.Core(coreID)
	if err != nil {
		return err
	}

	code := instructions.Assemble(program)
	if err := m.memory.LoadBytes(address, code); err != nil {
		return fmt.Errorf("loading program of core %v: %w", coreID, err)
	}

	core.Frame.PC = address
	core.Halted = false
	core.AddTerminationAddress(address + uint32(len(code)))
	return nil
}

// Traps on the instruction at the core's PC once
func (m *Machine) step(core *Core) (*ExecutionResult, ExecutionEvent) {
	result := &ExecutionResult{
		CoreID: core.ID(),
		LastPC: core.Frame.PC,
	}

	if core.IsTerminationAddress(core.Frame.PC) {
		result.StopReason = StopTermination
		return result, EventTermination
	}

	if core.Halted {
		result.StopReason = StopHalt
		return result, EventHalt
	}

	m.trapLock.Lock()
	defer m.trapLock.Unlock()

	if word, err := emulation.Fetch(m.memory, core.Frame.PC); err == nil {
		result.LastInstruction = instructions.Decode(word)
	}

	outcome, err := core.dispatcher.Dispatch(exception.IllegalInstruction, &core.Frame)
	result.LastOutcome = outcome
	result.Error = err

	switch outcome {
	case exception.Outcome_Resumed:
		result.StepsExecuted = 1
		result.StopReason = StopStep
		return result, EventStep
	case exception.Outcome_Halted:
		core.Halted = true
		result.StopReason = StopHalt
		return result, EventHalt
	default:
		core.Halted = true
		result.StopReason = StopError
		return result, EventError
	}
}

// Executes a single instruction on a core
func (m *Machine) Step(coreID int) *ExecutionResult {
	core, err := m.Core(coreID)
	if err != nil {
		return &ExecutionResult{CoreID: coreID, StopReason: StopError, Error: err}
	}

	result, event := m.step(core)
	m.fireEvent(core, event, result)
	return result
}

// Executes up to maxSteps instructions on a core (0 = unlimited)
func (m *Machine) Run(coreID int, maxSteps int) *ExecutionResult {
	core, err := m.Core(coreID)
	if err != nil {
		return &ExecutionResult{CoreID: coreID, StopReason: StopError, Error: err}
	}

	total := &ExecutionResult{
		CoreID: coreID,
		LastPC: core.Frame.PC,
	}

	for {
		if maxSteps > 0 && total.StepsExecuted >= maxSteps {
			total.StopReason = StopMaxSteps
			break
		}

		result, event := m.step(core)
		total.StepsExecuted += result.StepsExecuted
		total.LastPC = result.LastPC
		total.LastInstruction = result.LastInstruction
		total.LastOutcome = result.LastOutcome
		total.Error = result.Error

		keepGoing := m.fireEvent(core, event, total)

		if event != EventStep {
			total.StopReason = result.StopReason
			break
		}

		if !keepGoing {
			total.StopReason = StopStep
			break
		}
	}

	m.logger.Debug("core stopped", "core", coreID, "reason", total.StopReason.String(), "steps", total.StepsExecuted, "pc", fmt.Sprintf("0x%08x", core.Frame.PC))
	return total
}

// Runs all cores concurrently, each one up to maxSteps instructions (0 = unlimited).
// Returns the result of each core, indexed by core id.
func (m *Machine) RunCores(maxSteps int) []*ExecutionResult {
	results := make([]*ExecutionResult, len(m.cores))

	var wg conc.WaitGroup
	for id := range m.cores {
		wg.Go(func() {
			results[id] = m.Run(id, maxSteps)
		})
	}
	wg.Wait()

	return results
}
