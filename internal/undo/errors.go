package undo

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidRecord is returned when a trashed path no longer exists
	ErrInvalidRecord = errors.New("trashed file no longer exists")

	// ErrUnknownTransaction is returned when a transaction is not in history
	ErrUnknownTransaction = errors.New("transaction not found in history")

	// ErrUnsafePath is returned for paths such as "/", "." or ".."
	ErrUnsafePath = errors.New("refusing to remove unsafe path")

	// ErrNothingToUndo is returned by Undo on an empty history
	ErrNothingToUndo = errors.New("nothing to undo")
)

// PathError records why a single path could not be moved to the trash
type PathError struct {
	Path string
	Err  error
}

func (e *PathError) Error() string {
	return e.Path + ": " + e.Err.Error()
}

func (e *PathError) Unwrap() error {
	return e.Err
}

// RestoreError reports the record that stopped a restore
type RestoreError struct {
	TransactionID string
	Name          string
	Path          string
	Err           error
}

func (e *RestoreError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("restore %q: %v", e.Name, e.Err)
	}
	return fmt.Sprintf("restore %q: %s: %v", e.Name, e.Path, e.Err)
}

func (e *RestoreError) Unwrap() error {
	return e.Err
}
