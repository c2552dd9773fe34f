// Package layout plans the pages of a business document. It decides every
// band, its height and its text, and leaves painting to a renderer. Planning
// is pure: the same request and measurer always give the same layout.
package layout

import (
	"time"

	"github.com/shopspring/decimal"
	"github.com/smallbiznis/fiberdesk/internal/document/domain"
)

// Page geometry in millimetres. A4 portrait.
const (
	PageWidth    = 210.0
	PageHeight   = 297.0
	MarginTop    = 10.0
	MarginSide   = 10.0
	MarginBottom = 20.0
	FooterHeight = 12.0

	// safety keeps a planned page strictly inside the painter's printable
	// area so the painter never breaks a page on its own.
	safety = 3.0

	ContentWidth  = PageWidth - 2*MarginSide
	ContentHeight = PageHeight - MarginTop - MarginBottom - FooterHeight - safety

	GridColumns = 12

	LineHeight    = 4.0
	RowPadding    = 2.0
	BaseRowHeight = 2*LineHeight + RowPadding

	HeaderHeight      = 32.0
	TitleHeight       = 12.0
	TableHeaderHeight = 8.0
	SignatureHeight   = 32.0
	NoticeHeight      = 10.0
	PairHeight        = 7.0

	// ValidityDays is how long a proforma invoice stays valid.
	ValidityDays = 30
)

type BandKind string

const (
	BandHeader      BandKind = "header"
	BandTitle       BandKind = "title"
	BandParties     BandKind = "parties"
	BandTableHeader BandKind = "table_header"
	BandRow         BandKind = "row"
	BandTotals      BandKind = "totals"
	BandWords       BandKind = "words"
	BandNotice      BandKind = "notice"
	BandDeposit     BandKind = "deposit"
	BandSummary     BandKind = "summary"
	BandSignature   BandKind = "signature"
	BandFooter      BandKind = "footer"
)

// TotalsMode tells which totals branch a layout took.
type TotalsMode string

const (
	// TotalsNone is used by variants without pricing.
	TotalsNone TotalsMode = "none"
	// TotalsSingle prints one total box; the tax rate is zero.
	TotalsSingle TotalsMode = "single"
	// TotalsBreakdown prints subtotal, tax and grand total.
	TotalsBreakdown TotalsMode = "breakdown"
)

type Align string

const (
	AlignLeft   Align = "left"
	AlignCenter Align = "center"
	AlignRight  Align = "right"
)

// Column is one table column. Span counts grid columns out of GridColumns.
type Column struct {
	Key   string
	Title string
	Span  int
	Align Align
}

// Width is the column width in millimetres.
func (c Column) Width() float64 {
	return ContentWidth * float64(c.Span) / GridColumns
}

// Pair is a label and its value.
type Pair struct {
	Label string
	Value string
	Bold  bool
}

// Cell holds the already wrapped lines of one table cell.
type Cell struct {
	Lines []string
	Span  int
	Align Align
}

// SignatureBox is one signing area.
type SignatureBox struct {
	Title    string
	WithDate bool
}

// Band is a horizontal strip of a page.
type Band struct {
	Kind   BandKind
	Height float64

	// Title is the heading of header, title, parties and deposit bands.
	Title string
	// Lines is free text, one entry per printed line.
	Lines []string
	// Image is a logo to draw on the left of a header band.
	Image string
	// Pairs are label/value lines: document metadata, totals, summaries.
	Pairs []Pair

	Columns []Column
	Cells   []Cell
	Shaded  bool

	Emphasized bool
	Signatures []SignatureBox
}

type Page struct {
	Number int
	Bands  []Band
}

// Layout is a fully planned document.
type Layout struct {
	Type   domain.Type
	Number string
	Date   time.Time

	Pages  []Page
	Footer Band

	Columns    []Column
	TotalsMode TotalsMode

	Subtotal   decimal.Decimal
	Tax        decimal.Decimal
	GrandTotal decimal.Decimal
	Words      string
}

// Bands returns every band of kind, across pages, in order.
func (l Layout) Bands(kind BandKind) []Band {
	var out []Band
	for _, p := range l.Pages {
		for _, b := range p.Bands {
			if b.Kind == kind {
				out = append(out, b)
			}
		}
	}
	return out
}

// Request is everything the planner needs for one document.
type Request struct {
	Type     domain.Type
	Number   string
	Date     time.Time
	Company  domain.Company
	Currency domain.Currency
	Invoice  domain.Invoice
	Client   domain.Client
	Project  domain.Project
}

// Measurer wraps text to a width in millimetres.
type Measurer interface {
	SplitLines(text string, width float64) ([]string, error)
}
