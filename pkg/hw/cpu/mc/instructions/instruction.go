package instructions

import (
	"errors"
	"fmt"

	"github.com/Manu343726/atomicemu/pkg/hw/cpu"
	"github.com/Manu343726/atomicemu/pkg/utils"
)

var (
	ErrInvalidInstruction = errors.New("invalid instruction")
	ErrInvalidOperand     = errors.New("invalid operand")
)

// Decoded instruction
type Instruction interface {
	// Descriptor of the instruction, nil if the instruction was not recognized
	Descriptor() *InstructionDescriptor
	// Encoded operand fields, in assembly order
	Fields() []uint32
	// Binary representation of the instruction
	Encode() uint32
	// Assembly text
	String() string
}

// WSR at, sr
type WriteAuxiliaryRegister struct {
	Target cpu.Register
	AuxID  uint8
}

func (i WriteAuxiliaryRegister) Descriptor() *InstructionDescriptor {
	return mustInstruction(OpCode_WSR)
}

func (i WriteAuxiliaryRegister) Fields() []uint32 {
	return []uint32{uint32(i.Target.Index()), uint32(i.AuxID)}
}

func (i WriteAuxiliaryRegister) Encode() uint32 {
	return mustEncode(i)
}

func (i WriteAuxiliaryRegister) String() string {
	return i.Descriptor().Format(i.Fields())
}

// S32C1I at, as, imm8*4
type CompareAndSwapWord struct {
	Target     cpu.Register
	Base       cpu.Register
	WordOffset uint8
}

// Returns the offset from the base register in bytes
func (i CompareAndSwapWord) ByteOffset() uint32 {
	return uint32(i.WordOffset) * cpu.WordSize
}

func (i CompareAndSwapWord) Descriptor() *InstructionDescriptor {
	return mustInstruction(OpCode_S32C1I)
}

func (i CompareAndSwapWord) Fields() []uint32 {
	return []uint32{uint32(i.Target.Index()), uint32(i.Base.Index()), uint32(i.WordOffset)}
}

func (i CompareAndSwapWord) Encode() uint32 {
	return mustEncode(i)
}

func (i CompareAndSwapWord) String() string {
	return i.Descriptor().Format(i.Fields())
}

// Instruction word that matches none of the emulated opcodes
type Unrecognized struct {
	Word uint32
}

func (i Unrecognized) Descriptor() *InstructionDescriptor {
	return nil
}

func (i Unrecognized) Fields() []uint32 {
	return nil
}

func (i Unrecognized) Encode() uint32 {
	return i.Word
}

func (i Unrecognized) String() string {
	return fmt.Sprintf(".unrecognized %v", utils.FormatUintHex(uint64(i.Word), 6))
}

func mustInstruction(op OpCode) *InstructionDescriptor {
	d, err := Instructions.Instruction(op)
	if err != nil {
		panic(err)
	}

	return d
}

func mustEncode(i Instruction) uint32 {
	word, err := i.Descriptor().Encode(i.Fields())
	if err != nil {
		panic(err)
	}

	return word
}

// Builds the instruction described by d from its encoded operand fields
func fromFields(d *InstructionDescriptor, fields []uint32) Instruction {
	switch d.OpCode {
	case OpCode_WSR:
		return WriteAuxiliaryRegister{
			Target: cpu.RegisterFromField(fields[0]),
			AuxID:  uint8(fields[1]),
		}
	case OpCode_S32C1I:
		return CompareAndSwapWord{
			Target:     cpu.RegisterFromField(fields[0]),
			Base:       cpu.RegisterFromField(fields[1]),
			WordOffset: uint8(fields[2]),
		}
	}

	panic("unreachable")
}

// Decodes a 24 bit instruction word. Bits above the instruction length are ignored.
func Decode(word uint32) Instruction {
	word &= utils.AllOnes[uint32](InstructionBits)

	d := Instructions.Match(word)
	if d == nil {
		return Unrecognized{Word: word}
	}

	return fromFields(d, d.DecodeOperands(word))
}

// Returns the little endian encoded bytes of the instruction, as laid out in program memory
func Bytes(i Instruction) []byte {
	word := i.Encode()
	return []byte{byte(word), byte(word >> 8), byte(word >> 16)}
}

// Generates an ASCII frame representation of the instruction, showing all opcode and operand bits
func PrettyPrint(i Instruction, leftpad int) (string, error) {
	d := i.Descriptor()
	if d == nil {
		return utils.AsciiFrame([]utils.AsciiFrameField{
			{
				Name:  utils.FormatUintBinary(uint64(i.Encode()), InstructionBits),
				Begin: 0,
				Width: InstructionBits,
			},
		}, InstructionBits, "bits", utils.AsciiFrameUnitLayout_RightToLeft, leftpad)
	}

	fields := i.Fields()
	names := make([]string, len(d.Operands))

	for j, op := range d.Operands {
		names[j] = fmt.Sprintf("%v=%v", op.Name, op.Format(fields[j]))
	}

	return utils.AsciiFrame(d.frameFields(names), InstructionBits, "bits", utils.AsciiFrameUnitLayout_RightToLeft, leftpad)
}
