package instructions

// Represents an instruction opcode
type OpCode uint

const (
	// Write special register
	OpCode_WSR OpCode = iota
	// Store 32 bit compare conditional
	OpCode_S32C1I

	// Total opcodes implemented
	TOTAL_OPCODES
)

var mnemonics = map[OpCode]string{
	OpCode_WSR:    "wsr",
	OpCode_S32C1I: "s32c1i",
}

// Returns the mnemonic of the instruction opcode
func (op OpCode) String() string {
	if mnemonic, ok := mnemonics[op]; ok {
		return mnemonic
	}

	return "unknown"
}
