package instructions

import (
	"errors"
	"strings"

	"github.com/Manu343726/atomicemu/pkg/utils"
)

// Encoded length in bits of the emulated instructions
const InstructionBits = 24

// Encoded length in bytes of the emulated instructions. The exception dispatcher advances the
// program counter by this amount after an emulated instruction.
const InstructionLength = InstructionBits / utils.BitsPerByte

var (
	ErrInstructionNotImplemented = errors.New("instruction not implemented")
	ErrUnknownMnemonic           = errors.New("unknown mnemonic")
)

// Contains information about all implemented instructions
type InstructionsDescriptor struct {
	instructions []*InstructionDescriptor
	byOpCode     map[OpCode]*InstructionDescriptor
	byMnemonic   map[string]*InstructionDescriptor
}

func NewInstructionsDescriptor(instructions []*InstructionDescriptor) InstructionsDescriptor {
	d := InstructionsDescriptor{
		instructions: instructions,
		byOpCode:     make(map[OpCode]*InstructionDescriptor, len(instructions)),
		byMnemonic:   make(map[string]*InstructionDescriptor, len(instructions)),
	}

	for _, instruction := range instructions {
		for i, op := range instruction.Operands {
			op.Index = i
		}

		d.byOpCode[instruction.OpCode] = instruction
		d.byMnemonic[instruction.OpCode.String()] = instruction
	}

	return d
}

// Returns all implemented instructions in decoding priority order
func (d *InstructionsDescriptor) AllInstructions() []*InstructionDescriptor {
	return d.instructions
}

// Returns the instruction corresponding to the given opcode
func (d *InstructionsDescriptor) Instruction(op OpCode) (*InstructionDescriptor, error) {
	if instruction, hasInstruction := d.byOpCode[op]; hasInstruction {
		return instruction, nil
	}

	return nil, utils.MakeError(ErrInstructionNotImplemented, "no instruction implemented for opcode '%v'", op)
}

// Returns the instruction corresponding to the given assembly mnemonic
func (d *InstructionsDescriptor) InstructionByMnemonic(mnemonic string) (*InstructionDescriptor, error) {
	if instruction, hasInstruction := d.byMnemonic[strings.ToLower(mnemonic)]; hasInstruction {
		return instruction, nil
	}

	return nil, utils.MakeError(ErrUnknownMnemonic, "'%v'", mnemonic)
}

// Returns the first instruction (in priority order) whose opcode bits match the word, or nil
func (d *InstructionsDescriptor) Match(word uint32) *InstructionDescriptor {
	for _, instruction := range d.instructions {
		if instruction.Matches(word) {
			return instruction
		}
	}

	return nil
}

// Returns the documentation of all instructions
func (d *InstructionsDescriptor) DocString() (string, error) {
	var builder strings.Builder

	builder.WriteString("Emulated instructions:\n\n")

	for _, instruction := range d.instructions {
		doc, err := instruction.Documentation(2)
		if err != nil {
			return "", err
		}

		builder.WriteString(doc)
		builder.WriteString("\n")
	}

	return builder.String(), nil
}

// Instructions are decoded in the order they appear here. WSR goes first.
var Instructions InstructionsDescriptor = NewInstructionsDescriptor([]*InstructionDescriptor{
	Wsr(),
	S32c1i(),
})

func Wsr() *InstructionDescriptor {
	return &InstructionDescriptor{
		OpCode:         OpCode_WSR,
		EncodingFormat: "RRR",
		Description:    "Writes the value of a general purpose register into a special register. Only writes to SCOMPARE1 are emulated.",
		OpcodeFields: []OpcodeField{
			{Name: "op0", Position: 0, Bits: 4, Value: 0b0000},
			{Name: "op1", Position: 16, Bits: 4, Value: 0b0011},
			{Name: "op2", Position: 20, Bits: 4, Value: 0b0001},
		},
		Operands: []*OperandDescriptor{
			{
				Name:             "t",
				Kind:             OperandKind_Register,
				EncodingPosition: 4,
				EncodingBits:     4,
				Description:      "source general purpose register",
			},
			{
				Name:             "sr",
				Kind:             OperandKind_SpecialRegister,
				EncodingPosition: 8,
				EncodingBits:     8,
				Description:      "destination special register number",
			},
		},
	}
}

func S32c1i() *InstructionDescriptor {
	return &InstructionDescriptor{
		OpCode:         OpCode_S32C1I,
		EncodingFormat: "RRI8",
		Description:    "Compares the word at as + imm8*4 with SCOMPARE1 and stores the value of at there if they are equal. at always receives the previous memory value.",
		OpcodeFields: []OpcodeField{
			{Name: "op0", Position: 0, Bits: 4, Value: 0b0010},
			{Name: "r", Position: 12, Bits: 4, Value: 0b1110},
		},
		Operands: []*OperandDescriptor{
			{
				Name:             "t",
				Kind:             OperandKind_Register,
				EncodingPosition: 4,
				EncodingBits:     4,
				Description:      "value to store, receives the previous memory value",
			},
			{
				Name:             "s",
				Kind:             OperandKind_Register,
				EncodingPosition: 8,
				EncodingBits:     4,
				Description:      "base address register",
			},
			{
				Name:             "imm8",
				Kind:             OperandKind_Immediate,
				EncodingPosition: 16,
				EncodingBits:     8,
				Scale:            4,
				Description:      "unsigned offset in words, written in bytes in assembly",
			},
		},
	}
}
