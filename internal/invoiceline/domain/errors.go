package domain

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidInvoice = errors.New("invalid_invoice")
	ErrInvalidLine    = errors.New("invalid_line")
)

// ReconcileError reports a pass where at least one operation failed after
// all retries. Operations that succeeded are not rolled back.
type ReconcileError struct {
	Failed int
	Total  int
	Err    error
}

func (e *ReconcileError) Error() string {
	return fmt.Sprintf("%d of %d line operations failed", e.Failed, e.Total)
}

func (e *ReconcileError) Unwrap() error {
	return e.Err
}
