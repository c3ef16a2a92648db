// Package loader loads machine scenarios from YAML files.
//
// A scenario describes the initial memory and cores of a machine, the programs each core
// runs, and the state expected once they finish:
//
//	memory:
//	  base: 0x1000
//	  size: 0x1000
//	cores:
//	  - pc: 0x1800
//	    registers: {a1: 0x1000, a3: 0x99}
//	    scompare1: 0x55
//	    program:
//	      - s32c1i a3, a1, 8
//	data:
//	  0x1008: 0x55
//	expect:
//	  cores:
//	    - registers: {a3: 0x55}
//	  memory:
//	    0x1008: 0x99
//
// Numbers may be written in decimal, hex (0x), octal (0o) or binary (0b).
package loader

import (
	"bytes"
	"errors"
	"fmt"
	"os"

	"github.com/Manu343726/atomicemu/pkg/hw/cpu"
	"github.com/Manu343726/atomicemu/pkg/hw/cpu/interpreter"
	"github.com/Manu343726/atomicemu/pkg/hw/cpu/mc/instructions"
	"github.com/Manu343726/atomicemu/pkg/utils"
	"go.uber.org/multierr"
	"gopkg.in/yaml.v3"
)

var (
	ErrInvalidScenario     = errors.New("invalid scenario")
	ErrExpectationMismatch = errors.New("expectation mismatch")
)

// 32 bit value accepting any integer notation supported by utils.ParseUint32
type Word uint32

func (w *Word) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.ScalarNode {
		return utils.MakeError(ErrInvalidScenario, "line %v: expected a 32 bit value", node.Line)
	}

	value, err := utils.ParseUint32(node.Value)
	if err != nil {
		return utils.MakeError(ErrInvalidScenario, "line %v: '%v' is not a 32 bit value: %w", node.Line, node.Value, err)
	}

	*w = Word(value)
	return nil
}

func (w Word) String() string {
	return utils.FormatUintHex(uint64(w), 8)
}

type Memory struct {
	Base Word `yaml:"base"`
	// Defaults to the size given to Build
	Size Word `yaml:"size"`
}

type Core struct {
	PC        Word            `yaml:"pc"`
	Registers map[string]Word `yaml:"registers"`
	SCompare1 Word            `yaml:"scompare1"`
	// Assembly lines, loaded at PC
	Program []string `yaml:"program"`
}

type CoreExpectation struct {
	Registers map[string]Word `yaml:"registers"`
	SCompare1 *Word           `yaml:"scompare1"`
	PC        *Word           `yaml:"pc"`
	Halted    *bool           `yaml:"halted"`
}

type Expectation struct {
	// Indexed by core id
	Cores  []CoreExpectation `yaml:"cores"`
	Memory map[Word]Word     `yaml:"memory"`
}

type Scenario struct {
	Name   string        `yaml:"name"`
	Memory Memory        `yaml:"memory"`
	Cores  []Core        `yaml:"cores"`
	Data   map[Word]Word `yaml:"data"`
	Expect Expectation   `yaml:"expect"`
}

// Parses a YAML scenario
func Parse(data []byte) (*Scenario, error) {
	var scenario Scenario

	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)

	if err := decoder.Decode(&scenario); err != nil {
		if errors.Is(err, ErrInvalidScenario) {
			return nil, err
		}

		return nil, utils.MakeError(ErrInvalidScenario, "%w", err)
	}

	if err := scenario.validate(); err != nil {
		return nil, err
	}

	return &scenario, nil
}

// Reads and parses a YAML scenario file
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	scenario, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%v: %w", path, err)
	}

	if scenario.Name == "" {
		scenario.Name = path
	}

	return scenario, nil
}

func parseRegisters(registers map[string]Word) (map[cpu.Register]uint32, error) {
	result := make(map[cpu.Register]uint32, len(registers))

	for name, value := range registers {
		r, err := cpu.ParseRegister(name)
		if err != nil {
			return nil, err
		}

		result[r] = uint32(value)
	}

	return result, nil
}

func (s *Scenario) validate() error {
	if len(s.Cores) == 0 {
		return utils.MakeError(ErrInvalidScenario, "no cores")
	}

	if len(s.Expect.Cores) > len(s.Cores) {
		return utils.MakeError(ErrInvalidScenario, "expectations given for %v cores, scenario has %v", len(s.Expect.Cores), len(s.Cores))
	}

	for id, core := range s.Cores {
		if _, err := parseRegisters(core.Registers); err != nil {
			return utils.MakeError(ErrInvalidScenario, "core %v: %w", id, err)
		}

		if _, err := instructions.ParseProgram(core.Program); err != nil {
			return utils.MakeError(ErrInvalidScenario, "core %v program: %w", id, err)
		}
	}

	for id, core := range s.Expect.Cores {
		if _, err := parseRegisters(core.Registers); err != nil {
			return utils.MakeError(ErrInvalidScenario, "core %v expectation: %w", id, err)
		}
	}

	return nil
}

// Creates a machine in the scenario initial state.
//
// Memory layout and core count come from the scenario, the rest of settings is used as is.
func (s *Scenario) Build(settings interpreter.Settings) (*interpreter.Machine, error) {
	settings.Cores = len(s.Cores)
	settings.MemoryBase = uint32(s.Memory.Base)
	if s.Memory.Size != 0 {
		settings.MemorySize = uint32(s.Memory.Size)
	}

	machine, err := interpreter.NewMachine(settings)
	if err != nil {
		return nil, err
	}

	for id, core := range s.Cores {
		program, err := instructions.ParseProgram(core.Program)
		if err != nil {
			return nil, utils.MakeError(ErrInvalidScenario, "core %v program: %w", id, err)
		}

		if err := machine.LoadProgram(id, uint32(core.PC), program); err != nil {
			return nil, utils.MakeError(ErrInvalidScenario, "%w", err)
		}

		registers, err := parseRegisters(core.Registers)
		if err != nil {
			return nil, utils.MakeError(ErrInvalidScenario, "core %v: %w", id, err)
		}

		target := machine.Cores()[id]
		for r, value := range registers {
			target.Frame.Set(r, value)
		}
		target.State().SetSCompare1(uint32(core.SCompare1))
	}

	for _, address := range utils.SortedKeys(s.Data) {
		if err := machine.Memory().Write32(uint32(address), uint32(s.Data[address])); err != nil {
			return nil, utils.MakeError(ErrInvalidScenario, "data word at %v: %w", address, err)
		}
	}

	return machine, nil
}

func mismatch(what string, expected, got uint32) error {
	return utils.MakeError(ErrExpectationMismatch, "%v: expected %v, got %v", what,
		utils.FormatUintHex(uint64(expected), 8),
		utils.FormatUintHex(uint64(got), 8))
}

// Compares the machine state against the scenario expectations.
// Returns every mismatch found combined in a single error, nil if all expectations hold.
func (s *Scenario) Check(machine *interpreter.Machine) error {
	var errs error

	for id, expected := range s.Expect.Cores {
		core, err := machine.Core(id)
		if err != nil {
			errs = multierr.Append(errs, err)
			continue
		}

		registers, err := parseRegisters(expected.Registers)
		if err != nil {
			errs = multierr.Append(errs, err)
			continue
		}

		for _, r := range utils.SortedKeys(registers) {
			if got := core.Frame.Get(r); got != registers[r] {
				errs = multierr.Append(errs, mismatch(fmt.Sprintf("core %v %v", id, r), registers[r], got))
			}
		}

		if expected.SCompare1 != nil {
			if got := core.State().SCompare1(); got != uint32(*expected.SCompare1) {
				errs = multierr.Append(errs, mismatch(fmt.Sprintf("core %v scompare1", id), uint32(*expected.SCompare1), got))
			}
		}

		if expected.PC != nil && core.Frame.PC != uint32(*expected.PC) {
			errs = multierr.Append(errs, mismatch(fmt.Sprintf("core %v pc", id), uint32(*expected.PC), core.Frame.PC))
		}

		if expected.Halted != nil && core.Halted != *expected.Halted {
			errs = multierr.Append(errs, utils.MakeError(ErrExpectationMismatch, "core %v halted: expected %v, got %v", id, *expected.Halted, core.Halted))
		}
	}

	for _, address := range utils.SortedKeys(s.Expect.Memory) {
		expected := uint32(s.Expect.Memory[address])

		got, err := machine.Memory().Read32(uint32(address))
		if err != nil {
			errs = multierr.Append(errs, utils.MakeError(ErrExpectationMismatch, "memory %v: %w", address, err))
			continue
		}

		if got != expected {
			errs = multierr.Append(errs, mismatch(fmt.Sprintf("memory %v", address), expected, got))
		}
	}

	return errs
}
