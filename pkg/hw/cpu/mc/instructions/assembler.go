package instructions

import (
	"fmt"
	"strings"

	"github.com/Manu343726/atomicemu/pkg/utils"
)

// Removes comments and surrounding whitespace from an assembly line
func stripComment(line string) string {
	for _, marker := range []string{"//", "#", ";"} {
		if index := strings.Index(line, marker); index >= 0 {
			line = line[:index]
		}
	}

	return strings.TrimSpace(line)
}

// Parses a single assembly instruction.
//
// Supported syntax:
//
//	wsr a0, scompare1
//	wsr.scompare1 a0
//	s32c1i a3, a1, 8
//
// The S32C1I offset is written in bytes and must be a multiple of 4.
func Parse(line string) (Instruction, error) {
	line = stripComment(line)
	if len(line) == 0 {
		return nil, utils.MakeError(ErrInvalidInstruction, "empty instruction")
	}

	mnemonic, rest := line, ""
	if index := strings.IndexAny(line, " \t"); index >= 0 {
		mnemonic, rest = line[:index], line[index:]
	}

	operands := splitOperands(rest)

	// wsr.<sr> at is an alias of wsr at, <sr>
	if base, sr, hasSuffix := strings.Cut(mnemonic, "."); hasSuffix {
		mnemonic = base
		operands = append(operands, sr)
	}

	d, err := Instructions.InstructionByMnemonic(mnemonic)
	if err != nil {
		return nil, err
	}

	if len(operands) != len(d.Operands) {
		return nil, utils.MakeError(ErrInvalidInstruction, "%v expects %v operands (%v), got %v", d.OpCode, len(d.Operands), utils.FormatSlice(d.Operands, ", "), len(operands))
	}

	fields := make([]uint32, len(operands))

	for i, op := range d.Operands {
		if fields[i], err = op.Parse(operands[i]); err != nil {
			return nil, err
		}
	}

	return fromFields(d, fields), nil
}

func splitOperands(str string) []string {
	str = strings.TrimSpace(str)
	if len(str) == 0 {
		return nil
	}

	return utils.Map(strings.Split(str, ","), strings.TrimSpace)
}

func MakeProgramError(line int, text string, err error) error {
	return fmt.Errorf("error at line %v (%v): %w", line+1, strings.TrimSpace(text), err)
}

// Parses a sequence of assembly lines, skipping blank and comment lines
func ParseProgram(lines []string) ([]Instruction, error) {
	program := make([]Instruction, 0, len(lines))

	for line, text := range lines {
		if len(stripComment(text)) == 0 {
			continue
		}

		instruction, err := Parse(text)
		if err != nil {
			return nil, MakeProgramError(line, text, err)
		}

		program = append(program, instruction)
	}

	return program, nil
}

// Returns the machine code of a program, instructions laid out back to back
func Assemble(program []Instruction) []byte {
	code := make([]byte, 0, len(program)*InstructionLength)

	for _, instruction := range program {
		code = append(code, Bytes(instruction)...)
	}

	return code
}
