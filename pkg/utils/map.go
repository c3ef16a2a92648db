package utils

import (
	"sort"

	"golang.org/x/exp/constraints"
)

// Generates a sequence constructed by applying a function to all elements of a given input sequence
func Map[T any, U any](input []T, mapFunction func(T) U) []U {
	output := make([]U, len(input))

	for i := range input {
		output[i] = mapFunction(input[i])
	}

	return output
}

// Returns an array with all the keys of a map
func Keys[Key comparable, Value any](input map[Key]Value) []Key {
	keys := make([]Key, 0, len(input))

	for key := range input {
		keys = append(keys, key)
	}

	return keys
}

// Returns the keys of a map in ascending order
func SortedKeys[Key constraints.Ordered, Value any](input map[Key]Value) []Key {
	keys := Keys(input)
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
	return keys
}
