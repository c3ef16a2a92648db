package instructions

import (
	"errors"
	"fmt"
	"strings"

	"github.com/Manu343726/atomicemu/pkg/utils"
)

var ErrUnknownSpecialRegister = errors.New("unknown special register")

// Special register holding the expected value of S32C1I
const SCOMPARE1 uint8 = 12

var specialRegisterNames = map[uint8]string{
	0:         "lbeg",
	1:         "lend",
	2:         "lcount",
	3:         "sar",
	4:         "br",
	5:         "litbase",
	SCOMPARE1: "scompare1",
	16:        "acclo",
	17:        "acchi",
	72:        "windowbase",
	73:        "windowstart",
	97:        "memctl",
	99:        "atomctl",
	177:       "epc1",
	192:       "depc",
	209:       "excsave1",
	224:       "cpenable",
	226:       "interrupt",
	228:       "intenable",
	230:       "ps",
	231:       "vecbase",
	232:       "exccause",
	234:       "ccount",
	235:       "prid",
	238:       "excvaddr",
	240:       "ccompare0",
}

var specialRegisterIds = func() map[string]uint8 {
	ids := make(map[string]uint8, len(specialRegisterNames))

	for id, name := range specialRegisterNames {
		ids[name] = id
	}

	return ids
}()

// Returns the assembly name of a special register, or its number if it has no known name
func SpecialRegisterName(id uint8) string {
	if name, ok := specialRegisterNames[id]; ok {
		return name
	}

	return fmt.Sprint(id)
}

// Parses a special register given either its name or its number
func ParseSpecialRegister(str string) (uint8, error) {
	str = strings.ToLower(strings.TrimSpace(str))

	if id, ok := specialRegisterIds[str]; ok {
		return id, nil
	}

	value, err := utils.ParseUint32(str)
	if err != nil || value > 0xFF {
		return 0, utils.MakeError(ErrUnknownSpecialRegister, "'%v'", str)
	}

	return uint8(value), nil
}

// Returns a table of the special register names accepted by the assembler
func SpecialRegistersDocString() string {
	var builder strings.Builder

	builder.WriteString("Special registers:\n\n")

	for _, id := range utils.SortedKeys(specialRegisterNames) {
		marker := ""
		if id == SCOMPARE1 {
			marker = " (emulated)"
		}

		fmt.Fprintf(&builder, "  %3d  %v%v\n", id, specialRegisterNames[id], marker)
	}

	return builder.String()
}
