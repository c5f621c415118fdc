package fluogo

import (
	"errors"
	"fmt"
)

var (
	// ErrClosed is returned by operations on a closed Engine.
	ErrClosed = errors.New("fluogo: engine closed")

	// ErrNilStore is returned by New when no blob store is given.
	ErrNilStore = errors.New("fluogo: nil blob store")

	// ErrInvalidOption is returned by New for out-of-range options.
	ErrInvalidOption = errors.New("fluogo: invalid option")
)

// FileError reports a failure while processing one input blob.
//
// The original underlying error can be accessed via errors.Unwrap.
type FileError struct {
	Name  string
	Op    string
	cause error
}

func (e *FileError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.Name, e.cause)
}

func (e *FileError) Unwrap() error { return e.cause }

func fileError(op, name string, err error) error {
	if err == nil {
		return nil
	}
	var fe *FileError
	if errors.As(err, &fe) {
		return err
	}
	return &FileError{Name: name, Op: op, cause: err}
}
