package layout

import (
	"github.com/samber/lo"
	"github.com/smallbiznis/fiberdesk/internal/document/domain"
	linedomain "github.com/smallbiznis/fiberdesk/internal/invoiceline/domain"
)

const (
	colOrdinal     = "ordinal"
	colDescription = "description"
	colQuantity    = "quantity"
	colUnitPrice   = "unit_price"
	colDiscount    = "discount"
	colAmount      = "amount"
)

// columnsFor returns the table columns of a variant. Spans add up to
// GridColumns.
func columnsFor(t domain.Type, lines []linedomain.Line) []Column {
	switch t {
	case domain.TypePurchaseOrder:
		return []Column{
			{Key: colOrdinal, Title: "N°", Span: 1, Align: AlignCenter},
			{Key: colDescription, Title: "Désignation", Span: 5, Align: AlignLeft},
			{Key: colQuantity, Title: "Qté", Span: 1, Align: AlignCenter},
			{Key: colUnitPrice, Title: "Prix unitaire", Span: 2, Align: AlignRight},
			{Key: colAmount, Title: "Montant", Span: 3, Align: AlignRight},
		}
	case domain.TypeInvoice, domain.TypeProformaInvoice:
		if hasDiscount(lines) {
			return []Column{
				{Key: colDescription, Title: "Désignation", Span: 5, Align: AlignLeft},
				{Key: colQuantity, Title: "Qté", Span: 1, Align: AlignCenter},
				{Key: colUnitPrice, Title: "Prix unitaire", Span: 2, Align: AlignRight},
				{Key: colDiscount, Title: "Remise", Span: 1, Align: AlignCenter},
				{Key: colAmount, Title: "Montant", Span: 3, Align: AlignRight},
			}
		}
		return []Column{
			{Key: colDescription, Title: "Désignation", Span: 6, Align: AlignLeft},
			{Key: colQuantity, Title: "Qté", Span: 1, Align: AlignCenter},
			{Key: colUnitPrice, Title: "Prix unitaire", Span: 2, Align: AlignRight},
			{Key: colAmount, Title: "Montant", Span: 3, Align: AlignRight},
		}
	case domain.TypeDeliveryNote:
		return []Column{
			{Key: colDescription, Title: "Désignation", Span: 9, Align: AlignLeft},
			{Key: colQuantity, Title: "Qté livrée", Span: 3, Align: AlignCenter},
		}
	default:
		return []Column{
			{Key: colDescription, Title: "Désignation", Span: 9, Align: AlignLeft},
			{Key: colQuantity, Title: "Qté", Span: 3, Align: AlignCenter},
		}
	}
}

func hasDiscount(lines []linedomain.Line) bool {
	return lo.SomeBy(lines, func(l linedomain.Line) bool {
		return l.DiscountPercent.IsPositive()
	})
}
