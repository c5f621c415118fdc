package intersect

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidLength is returned when the declared length does not fit the inputs.
	ErrInvalidLength = errors.New("intersect: invalid length")

	// ErrUnsorted is returned by the validated variant when an input decreases.
	ErrUnsorted = errors.New("intersect: input not sorted")
)

// LengthError describes a declared length that cannot be scanned.
type LengthError struct {
	N    int
	LenA int
	LenB int
}

func (e *LengthError) Error() string {
	return fmt.Sprintf("intersect: declared length %d does not fit inputs of length %d and %d", e.N, e.LenA, e.LenB)
}

func (e *LengthError) Unwrap() error { return ErrInvalidLength }

// OrderError reports the first position where a sequence decreases.
type OrderError struct {
	// Sequence is "a" or "b".
	Sequence string
	// Index is the position whose value is smaller than its predecessor.
	Index int
}

func (e *OrderError) Error() string {
	return fmt.Sprintf("intersect: sequence %s decreases at index %d", e.Sequence, e.Index)
}

func (e *OrderError) Unwrap() error { return ErrUnsorted }
