package cpu

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

var (
	ErrUnknownRegister = errors.New("unknown register")
)

// Total general purpose registers visible through the register window (a0-a15)
const TotalRegisters = 16

const registerMask = TotalRegisters - 1

// Index of a general purpose register.
//
// Registers always come from 4 bit instruction fields, so every accessor masks the value
// into the 0-15 range instead of validating it. There is no out of range register.
type Register uint8

const (
	A0 Register = iota
	A1
	A2
	A3
	A4
	A5
	A6
	A7
	A8
	A9
	A10
	A11
	A12
	A13
	A14
	A15
)

// Builds a register from a decoded instruction field. Only the 4 least significant bits are used.
func RegisterFromField(field uint32) Register {
	return Register(field & registerMask)
}

// Returns the register index in the [0, 16) range
func (r Register) Index() int {
	return int(r & registerMask)
}

func (r Register) String() string {
	return fmt.Sprintf("a%d", r.Index())
}

// Parses a register name (a0-a15, case insensitive)
func ParseRegister(name string) (Register, error) {
	name = strings.ToLower(strings.TrimSpace(name))

	if !strings.HasPrefix(name, "a") {
		return 0, makeError(ErrUnknownRegister, "'%v'", name)
	}

	index, err := strconv.Atoi(name[1:])
	if err != nil || index < 0 || index >= TotalRegisters {
		return 0, makeError(ErrUnknownRegister, "'%v'", name)
	}

	return Register(index), nil
}

// Returns all general purpose registers in index order
func AllRegisters() []Register {
	rs := make([]Register, TotalRegisters)

	for i := range rs {
		rs[i] = Register(i)
	}

	return rs
}
