// Package domain contains the invoice line models shared by the wizard,
// the reconciler and the remote line store.
package domain

import (
	"strings"

	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// Line is a locally edited invoice line. ID is nil until the remote store
// has created it.
type Line struct {
	ID              *int64          `json:"id,omitempty" yaml:"id,omitempty"`
	Product         *int64          `json:"product,omitempty" yaml:"product,omitempty"`
	Description     string          `json:"description" yaml:"description"`
	Quantity        int             `json:"quantity" yaml:"quantity" validate:"gte=0"`
	UnitPrice       decimal.Decimal `json:"unit_price" yaml:"unit_price"`
	DiscountPercent decimal.Decimal `json:"discount" yaml:"discount"`
	LineTotal       decimal.Decimal `json:"line_total" yaml:"-"`
}

// ExistingLine is the server-known state of a line at wizard-open time.
type ExistingLine struct {
	ID              int64           `json:"id"`
	Product         *int64          `json:"product,omitempty"`
	Description     string          `json:"description"`
	Quantity        int             `json:"quantity"`
	UnitPrice       decimal.Decimal `json:"unit_price"`
	DiscountPercent decimal.Decimal `json:"discount"`
	LineTotal       decimal.Decimal `json:"line_total"`
}

// NewLine returns a manual line with the default quantity.
func NewLine(description string, unitPrice decimal.Decimal) Line {
	l := Line{Description: description, Quantity: 1, UnitPrice: unitPrice}
	l.Recompute()
	return l
}

// LineTotal computes max(0, quantity * unitPrice * (1 - discount/100)).
func LineTotal(quantity int, unitPrice, discountPercent decimal.Decimal) decimal.Decimal {
	factor := decimal.NewFromInt(1).Sub(discountPercent.Div(hundred))
	total := decimal.NewFromInt(int64(quantity)).Mul(unitPrice).Mul(factor)
	if total.IsNegative() {
		return decimal.Zero
	}
	return total
}

// Recompute refreshes the derived total. Every mutation goes through it.
func (l *Line) Recompute() {
	l.LineTotal = LineTotal(l.Quantity, l.UnitPrice, l.DiscountPercent)
}

func (l *Line) SetQuantity(q int) {
	l.Quantity = q
	l.Recompute()
}

func (l *Line) SetUnitPrice(p decimal.Decimal) {
	l.UnitPrice = p
	l.Recompute()
}

func (l *Line) SetDiscount(d decimal.Decimal) {
	l.DiscountPercent = d
	l.Recompute()
}

// IsEmpty reports whether a new line carries nothing worth sending.
// Quantity only counts when it differs from the form default of 1.
func (l Line) IsEmpty() bool {
	return l.Product == nil &&
		strings.TrimSpace(l.Description) == "" &&
		l.UnitPrice.IsZero() &&
		l.DiscountPercent.IsZero() &&
		(l.Quantity == 0 || l.Quantity == 1)
}

// Line converts a snapshot entry into an editable line.
func (e ExistingLine) Line() Line {
	id := e.ID
	l := Line{
		ID:              &id,
		Product:         e.Product,
		Description:     e.Description,
		Quantity:        e.Quantity,
		UnitPrice:       e.UnitPrice,
		DiscountPercent: e.DiscountPercent,
	}
	l.Recompute()
	return l
}

// Existing converts server-returned lines into a snapshot. Lines without an
// ID are skipped.
func Existing(lines []Line) []ExistingLine {
	out := make([]ExistingLine, 0, len(lines))
	for _, l := range lines {
		if l.ID == nil {
			continue
		}
		out = append(out, ExistingLine{
			ID:              *l.ID,
			Product:         l.Product,
			Description:     l.Description,
			Quantity:        l.Quantity,
			UnitPrice:       l.UnitPrice,
			DiscountPercent: l.DiscountPercent,
			LineTotal:       LineTotal(l.Quantity, l.UnitPrice, l.DiscountPercent),
		})
	}
	return out
}

// Subtotal sums the derived totals of lines.
func Subtotal(lines []Line) decimal.Decimal {
	total := decimal.Zero
	for _, l := range lines {
		total = total.Add(LineTotal(l.Quantity, l.UnitPrice, l.DiscountPercent))
	}
	return total
}

// ValidateLines rejects negative quantities, prices and discounts.
func ValidateLines(lines []Line) error {
	for _, line := range lines {
		if line.Quantity < 0 || line.UnitPrice.IsNegative() || line.DiscountPercent.IsNegative() {
			return ErrInvalidLine
		}
	}
	return nil
}
