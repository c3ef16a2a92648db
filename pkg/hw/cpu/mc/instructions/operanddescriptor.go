package instructions

import (
	"fmt"

	"github.com/Manu343726/atomicemu/pkg/hw/cpu"
	"github.com/Manu343726/atomicemu/pkg/utils"
)

// Contains information about an instruction operand
type OperandDescriptor struct {
	// Operand name as shown in the instruction format documentation
	Name string
	// Type of operand
	Kind OperandKind
	// First bit within the instruction used to encode this operand
	EncodingPosition int
	// Total bits used to encode the value into the instruction
	EncodingBits int
	// Factor applied to the encoded value to get the assembly value (e.g. word offsets written in bytes)
	Scale uint32
	// Operand description (for documentation and debugging)
	Description string
	// Position within the set of operands of the instruction, indexed from 0 to total operands - 1
	Index int
}

func (o *OperandDescriptor) String() string {
	return fmt.Sprintf("<%v:%v>", o.Name, o.Kind)
}

// Extracts the encoded operand field from an instruction word
func (o *OperandDescriptor) Extract(word uint32) uint32 {
	return utils.ReadBits(word, o.EncodingPosition, o.EncodingBits)
}

// Writes the operand field into an instruction word
func (o *OperandDescriptor) Insert(word *uint32, field uint32) {
	utils.CreateBitView(word).Write(field, o.EncodingPosition, o.EncodingBits)
}

func (o *OperandDescriptor) scale() uint32 {
	if o.Scale == 0 {
		return 1
	}

	return o.Scale
}

// Formats an encoded operand field the way it is written in assembly
func (o *OperandDescriptor) Format(field uint32) string {
	switch o.Kind {
	case OperandKind_Register:
		return cpu.RegisterFromField(field).String()
	case OperandKind_SpecialRegister:
		return SpecialRegisterName(uint8(field))
	default:
		return fmt.Sprint(field * o.scale())
	}
}

// Parses an assembly operand into its encoded field value
func (o *OperandDescriptor) Parse(str string) (uint32, error) {
	switch o.Kind {
	case OperandKind_Register:
		r, err := cpu.ParseRegister(str)
		if err != nil {
			return 0, utils.MakeError(ErrInvalidOperand, "operand %v: %w", o.Name, err)
		}

		return uint32(r.Index()), nil
	case OperandKind_SpecialRegister:
		sr, err := ParseSpecialRegister(str)
		if err != nil {
			return 0, utils.MakeError(ErrInvalidOperand, "operand %v: %w", o.Name, err)
		}

		return uint32(sr), nil
	default:
		value, err := utils.ParseUint32(str)
		if err != nil {
			return 0, utils.MakeError(ErrInvalidOperand, "operand %v: '%v' is not an unsigned integer", o.Name, str)
		}

		if value%o.scale() != 0 {
			return 0, utils.MakeError(ErrInvalidOperand, "operand %v: %v is not a multiple of %v", o.Name, value, o.scale())
		}

		field := value / o.scale()
		if field > utils.AllOnes[uint32](o.EncodingBits) {
			return 0, utils.MakeError(ErrInvalidOperand, "operand %v: %v does not fit in %v bits (max %v)", o.Name, value, o.EncodingBits, utils.AllOnes[uint32](o.EncodingBits)*o.scale())
		}

		return field, nil
	}
}
