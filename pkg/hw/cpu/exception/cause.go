package exception

import "fmt"

// Exception cause, as reported by the EXCCAUSE special register
type ExceptionCause uint32

const (
	IllegalInstruction       ExceptionCause = 0
	Syscall                  ExceptionCause = 1
	InstructionFetchError    ExceptionCause = 2
	LoadStoreError           ExceptionCause = 3
	Level1Interrupt          ExceptionCause = 4
	Alloca                   ExceptionCause = 5
	IntegerDivideByZero      ExceptionCause = 6
	Privileged               ExceptionCause = 8
	LoadStoreAlignment       ExceptionCause = 9
	InstructionPIFDataError  ExceptionCause = 12
	LoadStorePIFDataError    ExceptionCause = 13
	InstructionPIFAddrError  ExceptionCause = 14
	LoadStorePIFAddrError    ExceptionCause = 15
	InstructionFetchProhibit ExceptionCause = 20
	LoadProhibited           ExceptionCause = 28
	StoreProhibited          ExceptionCause = 29
)

var causeNames = map[ExceptionCause]string{
	IllegalInstruction:       "IllegalInstruction",
	Syscall:                  "Syscall",
	InstructionFetchError:    "InstructionFetchError",
	LoadStoreError:           "LoadStoreError",
	Level1Interrupt:          "Level1Interrupt",
	Alloca:                   "Alloca",
	IntegerDivideByZero:      "IntegerDivideByZero",
	Privileged:               "Privileged",
	LoadStoreAlignment:       "LoadStoreAlignment",
	InstructionPIFDataError:  "InstructionPIFDataError",
	LoadStorePIFDataError:    "LoadStorePIFDataError",
	InstructionPIFAddrError:  "InstructionPIFAddrError",
	LoadStorePIFAddrError:    "LoadStorePIFAddrError",
	InstructionFetchProhibit: "InstructionFetchProhibited",
	LoadProhibited:           "LoadProhibited",
	StoreProhibited:          "StoreProhibited",
}

func (c ExceptionCause) String() string {
	if name, ok := causeNames[c]; ok {
		return name
	}

	return fmt.Sprintf("Cause(%d)", uint32(c))
}
