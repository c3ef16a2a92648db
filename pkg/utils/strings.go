package utils

import (
	"fmt"
	"strconv"
	"strings"
)

// Formats an uint value into a fixed width binary string of n bits
func FormatUintBinary(value uint64, bits int) string {
	return padLeft(strconv.FormatUint(value, 2), bits, '0')
}

// Formats an uint value into an fixed width hex string of n characters
func FormatUintHex(value uint64, digits int) string {
	return "0x" + padLeft(strconv.FormatUint(value, 16), digits, '0')
}

func padLeft(str string, width int, filler byte) string {
	if len(str) >= width {
		return str
	}

	return strings.Repeat(string(filler), width-len(str)) + str
}

// Returns an string containing all formatted sequence items separated by a given separator
func FormatSlice[T any](input []T, separator string) string {
	var builder strings.Builder

	for i, value := range input {
		builder.WriteString(fmt.Sprint(value))

		if i < len(input)-1 {
			builder.WriteString(separator)
		}
	}

	return builder.String()
}

// Parses an unsigned 32 bit integer written in decimal, hex (0x), octal (0o) or binary (0b) notation.
// Underscores between digits are accepted.
func ParseUint32(str string) (uint32, error) {
	value, err := strconv.ParseUint(strings.TrimSpace(str), 0, 32)
	if err != nil {
		return 0, err
	}

	return uint32(value), nil
}
