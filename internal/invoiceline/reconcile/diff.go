// Package reconcile computes the remote mutations that bring an invoice's
// server-side lines in line with a locally edited list.
package reconcile

import (
	"github.com/smallbiznis/fiberdesk/internal/invoiceline/domain"
)

// Diff returns creates (desired order), then updates (desired order), then
// deletes (snapshot order).
//
// This function is PURE:
// - No side effects
// - No remote access
// - Fully deterministic
func Diff(existing []domain.ExistingLine, desired []domain.Line) []domain.Operation {
	known := make(map[int64]domain.ExistingLine, len(existing))
	for _, e := range existing {
		known[e.ID] = e
	}

	var creates, updates []domain.Operation
	kept := make(map[int64]struct{}, len(desired))

	for i, line := range desired {
		if line.ID == nil {
			if line.IsEmpty() {
				continue
			}
			creates = append(creates, createOf(i, line))
			continue
		}

		id := *line.ID
		if _, seen := kept[id]; seen {
			// repeated identifier: the later copy is a new line
			creates = append(creates, createOf(i, line))
			continue
		}

		current, ok := known[id]
		if !ok {
			creates = append(creates, createOf(i, line))
			continue
		}

		kept[id] = struct{}{}
		if changed := ChangedFields(current, line); len(changed) > 0 {
			updates = append(updates, domain.Operation{
				Kind:    domain.OperationUpdate,
				Index:   i,
				LineID:  id,
				Line:    line,
				Changed: changed,
			})
		}
	}

	ops := make([]domain.Operation, 0, len(creates)+len(updates)+len(existing))
	ops = append(ops, creates...)
	ops = append(ops, updates...)
	for _, e := range existing {
		if _, ok := kept[e.ID]; ok {
			continue
		}
		ops = append(ops, domain.Operation{Kind: domain.OperationDelete, Index: -1, LineID: e.ID})
	}
	return ops
}

// ChangedFields compares the writable fields with exact equality.
func ChangedFields(current domain.ExistingLine, line domain.Line) []domain.Field {
	var changed []domain.Field
	if !sameProduct(current.Product, line.Product) {
		changed = append(changed, domain.FieldProduct)
	}
	if current.Description != line.Description {
		changed = append(changed, domain.FieldDescription)
	}
	if current.Quantity != line.Quantity {
		changed = append(changed, domain.FieldQuantity)
	}
	if !current.UnitPrice.Equal(line.UnitPrice) {
		changed = append(changed, domain.FieldUnitPrice)
	}
	if !current.DiscountPercent.Equal(line.DiscountPercent) {
		changed = append(changed, domain.FieldDiscount)
	}
	return changed
}

func createOf(index int, line domain.Line) domain.Operation {
	line.ID = nil
	line.Recompute()
	return domain.Operation{Kind: domain.OperationCreate, Index: index, Line: line}
}

func sameProduct(a, b *int64) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}
