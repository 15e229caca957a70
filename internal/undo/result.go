package undo

import (
	"errors"

	"github.com/babarot/sift/internal/history"
	"github.com/samber/lo"
)

// Result describes the outcome of DeleteFiles
type Result struct {
	// Transaction is nil when nothing was moved
	Transaction *history.Transaction

	// Failures lists every path that was not moved, and paths that were
	// copied to the trash with leftovers remaining in place
	Failures []PathError

	// Requested is the number of distinct top-level paths attempted
	Requested int
}

// OK reports whether at least one path was moved
func (r Result) OK() bool {
	return r.Transaction != nil
}

// Complete reports whether every requested path was moved
func (r Result) Complete() bool {
	return r.OK() && len(r.Failures) == 0
}

// Err joins the failures; it is nil when the delete was complete
func (r Result) Err() error {
	if len(r.Failures) == 0 {
		return nil
	}
	return errors.Join(lo.Map(r.Failures, func(f PathError, _ int) error {
		return &f
	})...)
}
