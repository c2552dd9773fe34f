package domain

import (
	"context"
	"fmt"
)

type OperationKind string

const (
	OperationCreate OperationKind = "create"
	OperationUpdate OperationKind = "update"
	OperationDelete OperationKind = "delete"
)

// Field names a writable line attribute, using the remote API's wire names.
type Field string

const (
	FieldProduct     Field = "product"
	FieldDescription Field = "description"
	FieldQuantity    Field = "quantity"
	FieldUnitPrice   Field = "unit_price"
	FieldDiscount    Field = "discount"
)

// Operation is one remote mutation computed from a diff. It lives only for
// the duration of one synchronization pass. Index is the position of the
// source line in the desired list, or -1 for deletes.
type Operation struct {
	Kind    OperationKind
	Index   int
	LineID  int64
	Line    Line
	Changed []Field
}

func (o Operation) String() string {
	switch o.Kind {
	case OperationCreate:
		return fmt.Sprintf("create(%q)", o.Line.Description)
	case OperationUpdate:
		return fmt.Sprintf("update(%d, %v)", o.LineID, o.Changed)
	default:
		return fmt.Sprintf("%s(%d)", o.Kind, o.LineID)
	}
}

// OperationResult is the settled outcome of one operation.
type OperationResult struct {
	Operation Operation
	Attempts  int
	Created   *Line
	Err       error
}

// Report summarizes a synchronization pass.
type Report struct {
	Total     int
	Succeeded int
	Failed    int
	Results   []OperationResult
}

// LineStore is the remote collection of lines scoped to one invoice.
type LineStore interface {
	ListLines(ctx context.Context, invoiceID int64) ([]Line, error)
	CreateLine(ctx context.Context, invoiceID int64, line Line) (Line, error)
	UpdateLine(ctx context.Context, invoiceID, lineID int64, line Line, fields []Field) (Line, error)
	DeleteLine(ctx context.Context, invoiceID, lineID int64) error
}
