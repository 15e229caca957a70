package fs

import (
	"errors"
	"fmt"
)

var (
	// ErrDestinationExists indicates that the destination path already exists
	ErrDestinationExists = errors.New("destination already exists")

	// ErrSourceNotFound indicates that the source file does not exist
	ErrSourceNotFound = errors.New("source file not found")

	// ErrCrossDevice indicates a rename across different devices without copy fallback
	ErrCrossDevice = errors.New("cross-device move operation")

	// ErrSourceNotRemoved indicates that a cross-device move copied src to
	// dst but could not remove all of src. dst is kept and holds the full copy.
	ErrSourceNotRemoved = errors.New("copied, but the source could not be fully removed")
)

// MoveError represents an error that occurred during a move operation
type MoveError struct {
	Op  string // Operation being performed
	Src string // Source path
	Dst string // Destination path
	Err error  // Underlying error
}

func (e *MoveError) Error() string {
	return fmt.Sprintf("move failed: %s %q to %q: %v", e.Op, e.Src, e.Dst, e.Err)
}

func (e *MoveError) Unwrap() error {
	return e.Err
}

// NewMoveError creates a new MoveError
func NewMoveError(op, src, dst string, err error) error {
	return &MoveError{
		Op:  op,
		Src: src,
		Dst: dst,
		Err: err,
	}
}
