package instructions

import (
	"fmt"
	"sort"
	"strings"

	"github.com/Manu343726/atomicemu/pkg/utils"
)

// Fixed bits of an instruction encoding that identify the opcode
type OpcodeField struct {
	// Field name in the ISA format (op0, op1, r, ...)
	Name string
	// First bit of the field
	Position int
	// Field width in bits
	Bits int
	// Value the field must hold
	Value uint32
}

func (f OpcodeField) mask() uint32 {
	return utils.AllOnes[uint32](f.Bits) << f.Position
}

// Contains information describing an instruction
type InstructionDescriptor struct {
	// Instruction opcode
	OpCode OpCode
	// Encoding format name (RRR, RRI8, ...)
	EncodingFormat string
	// Fixed opcode bits
	OpcodeFields []OpcodeField
	// Instruction operands, in assembly order
	Operands []*OperandDescriptor
	// Instruction description (for documentation and debugging)
	Description string
}

// Returns the bits fixed by the instruction opcode
func (d *InstructionDescriptor) Mask() uint32 {
	return utils.Reduce(d.OpcodeFields, func(f OpcodeField, mask uint32) uint32 {
		return mask | f.mask()
	})
}

// Returns the value the fixed opcode bits take
func (d *InstructionDescriptor) Pattern() uint32 {
	return utils.Reduce(d.OpcodeFields, func(f OpcodeField, pattern uint32) uint32 {
		return pattern | ((f.Value << f.Position) & f.mask())
	})
}

// Returns true if the given instruction word has this instruction opcode
func (d *InstructionDescriptor) Matches(word uint32) bool {
	return word&d.Mask() == d.Pattern()
}

// Extracts the encoded operand fields from an instruction word
func (d *InstructionDescriptor) DecodeOperands(word uint32) []uint32 {
	return utils.Map(d.Operands, func(op *OperandDescriptor) uint32 {
		return op.Extract(word)
	})
}

// Builds the instruction word from the encoded operand fields
func (d *InstructionDescriptor) Encode(fields []uint32) (uint32, error) {
	if len(fields) != len(d.Operands) {
		return 0, utils.MakeError(ErrInvalidInstruction, "%v expects %v operands, got %v", d.OpCode, len(d.Operands), len(fields))
	}

	word := d.Pattern()

	for i, op := range d.Operands {
		op.Insert(&word, fields[i])
	}

	return word, nil
}

// Returns the assembly text of the instruction given its encoded operand fields
func (d *InstructionDescriptor) Format(fields []uint32) string {
	operands := make([]string, len(d.Operands))

	for i, op := range d.Operands {
		operands[i] = op.Format(fields[i])
	}

	return fmt.Sprintf("%v %v", d.OpCode, strings.Join(operands, ", "))
}

// Returns a human readable string representation of the instruction format
func (d *InstructionDescriptor) String() string {
	return fmt.Sprintf("%v %v", d.OpCode, utils.FormatSlice(d.Operands, ", "))
}

// Returns the bit fields of the instruction sorted by position. operandNames
// are used as field labels when given.
func (d *InstructionDescriptor) frameFields(operandNames []string) []utils.AsciiFrameField {
	fields := utils.Map(d.OpcodeFields, func(f OpcodeField) utils.AsciiFrameField {
		return utils.AsciiFrameField{
			Name:  fmt.Sprintf("%v=%v", f.Name, utils.FormatUintBinary(uint64(f.Value), f.Bits)),
			Begin: f.Position,
			Width: f.Bits,
		}
	})

	for i, op := range d.Operands {
		name := op.Name
		if i < len(operandNames) {
			name = operandNames[i]
		}

		fields = append(fields, utils.AsciiFrameField{
			Name:  name,
			Begin: op.EncodingPosition,
			Width: op.EncodingBits,
		})
	}

	sort.Slice(fields, func(i, j int) bool { return fields[i].Begin < fields[j].Begin })
	return fields
}

// Returns full documentation for the instruction
func (d *InstructionDescriptor) Documentation(leftpad int) (string, error) {
	var builder strings.Builder
	leftpadStr := strings.Repeat(" ", leftpad)

	frame, err := utils.AsciiFrame(d.frameFields(nil), InstructionBits, "bits", utils.AsciiFrameUnitLayout_RightToLeft, leftpad+4)
	if err != nil {
		return "", utils.MakeError(ErrInvalidInstruction, "error generating documentation for instruction %v: %w", d.OpCode, err)
	}

	builder.WriteString(fmt.Sprintf("%v%v (%v format, mask %v, pattern %v)\n\n", leftpadStr, d, d.EncodingFormat, utils.FormatUintHex(uint64(d.Mask()), 6), utils.FormatUintHex(uint64(d.Pattern()), 6)))
	builder.WriteString(fmt.Sprintf("%v  Description:\n\n%v    %v\n\n", leftpadStr, leftpadStr, d.Description))
	builder.WriteString(fmt.Sprintf("%v  Encoding:\n\n", leftpadStr))
	builder.WriteString(frame)
	builder.WriteString(fmt.Sprintf("\n%v  Operands:\n\n", leftpadStr))

	for i, op := range d.Operands {
		builder.WriteString(fmt.Sprintf("%v   [%v] %v: %v\n", leftpadStr, i, op, op.Description))
	}

	return builder.String(), nil
}
