package utils

import (
	"golang.org/x/exp/constraints"
)

// Reduces a sequence to a value given an accumulation function
func Reduce[T any, U any](input []T, foldFunc func(T, U) U) U {
	var result U

	for _, value := range input {
		result = foldFunc(value, result)
	}

	return result
}

// Returns the biggest item of a sequence
func Max[T constraints.Ordered](input []T) T {
	max := input[0]

	for _, item := range input {
		if item > max {
			max = item
		}
	}

	return max
}
