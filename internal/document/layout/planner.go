package layout

import (
	"math"
	"strconv"
	"strings"

	"github.com/samber/lo"
	"github.com/shopspring/decimal"
	"github.com/smallbiznis/fiberdesk/internal/document/domain"
	"github.com/smallbiznis/fiberdesk/internal/document/format"
	linedomain "github.com/smallbiznis/fiberdesk/internal/invoiceline/domain"
)

var hundred = decimal.NewFromInt(100)

// Plan lays out req over as many pages as its rows need.
func Plan(req Request, measurer Measurer) Layout {
	p := &planner{
		req:      req,
		measurer: measurer,
		out: Layout{
			Type:   req.Type,
			Number: req.Number,
			Date:   req.Date,
		},
	}
	return p.plan()
}

type planner struct {
	req      Request
	measurer Measurer
	out      Layout

	page      *Page
	remaining float64
}

func (p *planner) plan() Layout {
	req := p.req
	lines := req.Invoice.Lines

	p.out.Footer = p.footer()
	p.out.Columns = columnsFor(req.Type, lines)

	p.newPage()
	p.place(p.header())
	p.place(Band{Kind: BandTitle, Height: TitleHeight, Title: req.Type.Title()})
	p.place(p.parties())

	subtotal := decimal.Zero
	if len(lines) > 0 {
		tableHeader := Band{Kind: BandTableHeader, Height: TableHeaderHeight, Columns: p.out.Columns}
		p.place(tableHeader)
		for i, line := range lines {
			subtotal = subtotal.Add(linedomain.LineTotal(line.Quantity, line.UnitPrice, line.DiscountPercent))
			p.placeRow(p.row(i, line), tableHeader)
		}
	}

	tax := subtotal.Mul(req.Invoice.TaxRatePercent).Div(hundred)
	grand := subtotal.Add(tax)
	p.out.Subtotal = subtotal
	p.out.Tax = tax
	p.out.GrandTotal = grand

	switch req.Type {
	case domain.TypePurchaseOrder, domain.TypeInvoice, domain.TypeProformaInvoice:
		if len(lines) > 0 {
			p.placeTail(p.totals(subtotal, tax, grand))
		} else {
			p.out.TotalsMode = TotalsNone
		}
	default:
		p.out.TotalsMode = TotalsNone
	}

	if (req.Type == domain.TypeInvoice || req.Type == domain.TypeProformaInvoice) && len(lines) > 0 {
		p.out.Words = format.AmountInWords(grand, req.Currency.Unit, req.Currency.Subunit)
		p.placeTail(p.words(p.out.Words))
	}
	if req.Type == domain.TypeProformaInvoice {
		p.placeTail(Band{
			Kind:   BandNotice,
			Height: NoticeHeight,
			Lines: []string{
				"Cette facture proforma est valable " + strconv.Itoa(ValidityDays) +
					" jours à compter du " + format.Date(req.Date) + ".",
			},
		})
	}
	if req.Type == domain.TypeDepositReceipt {
		for _, band := range p.deposit(grand, len(lines) > 0) {
			p.placeTail(band)
		}
	}

	p.placeTail(signatureFor(req.Type))

	return p.out
}

func (p *planner) newPage() {
	p.out.Pages = append(p.out.Pages, Page{Number: len(p.out.Pages) + 1})
	p.page = &p.out.Pages[len(p.out.Pages)-1]
	p.remaining = ContentHeight
}

func (p *planner) place(b Band) {
	p.page.Bands = append(p.page.Bands, b)
	p.remaining -= b.Height
}

// placeRow puts a table row on the current page, opening continuation pages
// behind a repeated table header as needed. A row taller than a whole page
// has its description lines split across pages.
func (p *planner) placeRow(row, tableHeader Band) {
	maxHeight := ContentHeight - TableHeaderHeight
	for row.Height > p.remaining {
		if row.Height > maxHeight {
			head, rest, ok := p.splitRow(row, fittingLines(p.remaining))
			if ok {
				p.place(head)
				row = rest
			} else if p.onlyTableHeader() {
				break
			}
		}
		p.newPage()
		p.place(tableHeader)
	}
	p.place(row)
}

func (p *planner) onlyTableHeader() bool {
	return len(p.page.Bands) == 1 && p.page.Bands[0].Kind == BandTableHeader
}

// fittingLines is how many description lines a row can hold within height.
func fittingLines(height float64) int {
	if height < BaseRowHeight {
		return 0
	}
	return 2 + int((height-BaseRowHeight)/LineHeight)
}

// splitRow keeps the first n description lines with every other cell and
// moves the rest into a continuation row holding only the description.
func (p *planner) splitRow(row Band, n int) (Band, Band, bool) {
	desc := -1
	for i, col := range p.out.Columns {
		if col.Key == colDescription && i < len(row.Cells) {
			desc = i
		}
	}
	if n <= 0 || desc < 0 || len(row.Cells[desc].Lines) <= n {
		return Band{}, Band{}, false
	}

	lines := row.Cells[desc].Lines
	head := row
	head.Cells = append([]Cell(nil), row.Cells...)
	head.Cells[desc].Lines = lines[:n:n]
	head.Height = rowHeight(n)

	rest := Band{Kind: BandRow, Shaded: row.Shaded, Cells: make([]Cell, len(row.Cells))}
	for i, cell := range row.Cells {
		rest.Cells[i] = Cell{Span: cell.Span, Align: cell.Align}
	}
	rest.Cells[desc].Lines = lines[n:]
	rest.Height = rowHeight(len(lines) - n)
	return head, rest, true
}

// placeTail moves a closing band to a fresh page when it does not fit.
func (p *planner) placeTail(b Band) {
	if b.Height > p.remaining && len(p.page.Bands) > 0 {
		p.newPage()
	}
	p.place(b)
}

func (p *planner) header() Band {
	req := p.req
	if req.Type == domain.TypePurchaseOrder {
		// On a purchase order the client issues the document.
		c := req.Client
		return Band{
			Kind:   BandHeader,
			Height: HeaderHeight,
			Title:  c.Name,
			Lines: nonEmpty(
				c.Address,
				joinNonEmpty(" | ", labelled("Tél", c.Phone), labelled("Email", c.Email)),
				joinNonEmpty("  ", labelled("RC", c.RegistryNo), labelled("NIF", c.TaxID)),
				joinNonEmpty("  ", labelled("NIS", c.StatisticalID), labelled("AI", c.ArticleNo)),
				labelled("RIB", c.BankAccount),
			),
		}
	}

	c := req.Company
	return Band{
		Kind:   BandHeader,
		Height: HeaderHeight,
		Title:  c.Name,
		Image:  c.LogoPath,
		Lines: nonEmpty(
			c.Activity,
			c.Address,
			joinNonEmpty(" | ", labelled("Tél", c.Phone), labelled("Email", c.Email)),
			joinNonEmpty("  ", labelled("RC", c.RegistryNo), labelled("NIF", c.TaxID)),
			joinNonEmpty("  ", labelled("NIS", c.StatisticalID), labelled("AI", c.ArticleNo)),
		),
	}
}

// parties holds the recipient block on the left and the document metadata
// box on the right.
func (p *planner) parties() Band {
	req := p.req

	title := "Client"
	var lines []string
	switch req.Type {
	case domain.TypePurchaseOrder:
		title = "Fournisseur"
		c := req.Company
		lines = nonEmpty(
			c.Name,
			c.Address,
			labelled("Tél", c.Phone),
			labelled("Email", c.Email),
			labelled("RC", c.RegistryNo),
			labelled("NIF", c.TaxID),
			labelled("NIS", c.StatisticalID),
			labelled("AI", c.ArticleNo),
		)
	default:
		if req.Type == domain.TypeDeliveryNote {
			title = "Destinataire"
		}
		c := req.Client
		lines = nonEmpty(
			c.Name,
			c.Address,
			labelled("Tél", c.Phone),
			labelled("Email", c.Email),
			labelled("RC", c.RegistryNo),
			labelled("NIF", c.TaxID),
			labelled("NIS", c.StatisticalID),
			labelled("AI", c.ArticleNo),
			labelled("RIB", c.BankAccount),
		)
	}
	lines = append(lines, nonEmpty(
		labelled("Projet", req.Project.Name),
		labelled("Réf. projet", req.Project.Reference),
		labelled("Chantier", req.Project.Address),
	)...)

	meta := []Pair{
		{Label: "N°", Value: req.Number, Bold: true},
		{Label: "Date", Value: format.Date(req.Date)},
	}
	if req.Type == domain.TypeProformaInvoice {
		until := req.Date.AddDate(0, 0, ValidityDays)
		meta = append(meta, Pair{
			Label: "Validité",
			Value: strconv.Itoa(ValidityDays) + " jours (jusqu'au " + format.Date(until) + ")",
		})
	}

	left := LineHeight*float64(len(lines)+1) + RowPadding*2
	right := PairHeight*float64(len(meta)) + RowPadding*2
	return Band{
		Kind:   BandParties,
		Height: math.Max(left, right),
		Title:  title,
		Lines:  lines,
		Pairs:  meta,
	}
}

func (p *planner) row(i int, line linedomain.Line) Band {
	cols := p.out.Columns
	cells := make([]Cell, len(cols))
	height := BaseRowHeight

	for c, col := range cols {
		var value string
		switch col.Key {
		case colOrdinal:
			value = strconv.Itoa(i + 1)
		case colDescription:
			wrapped := p.wrap(line.Description, col.Width())
			cells[c] = Cell{Lines: wrapped, Span: col.Span, Align: col.Align}
			height = rowHeight(len(wrapped))
			continue
		case colQuantity:
			value = strconv.Itoa(line.Quantity)
		case colUnitPrice:
			value = format.Money(line.UnitPrice)
		case colDiscount:
			if line.DiscountPercent.IsPositive() {
				value = format.Percent(line.DiscountPercent)
			}
		case colAmount:
			value = format.Money(linedomain.LineTotal(line.Quantity, line.UnitPrice, line.DiscountPercent))
		}
		cells[c] = Cell{Lines: []string{value}, Span: col.Span, Align: col.Align}
	}

	return Band{
		Kind:   BandRow,
		Height: height,
		Cells:  cells,
		Shaded: i%2 == 1,
	}
}

// wrap never truncates. When measuring fails the text stays on one line.
func (p *planner) wrap(text string, width float64) []string {
	text = strings.TrimSpace(text)
	if text == "" || p.measurer == nil {
		return []string{text}
	}
	lines, err := p.measurer.SplitLines(text, width-2*RowPadding)
	if err != nil || len(lines) == 0 {
		return []string{text}
	}
	return lines
}

// rowHeight is the base height, grown one line at a time past two lines.
func rowHeight(lines int) float64 {
	if lines <= 2 {
		return BaseRowHeight
	}
	return BaseRowHeight + float64(lines-2)*LineHeight
}

func (p *planner) totals(subtotal, tax, grand decimal.Decimal) Band {
	code := p.req.Currency.Code
	rate := p.req.Invoice.TaxRatePercent

	if rate.IsZero() {
		p.out.TotalsMode = TotalsSingle
		return Band{
			Kind:   BandTotals,
			Height: PairHeight + RowPadding*2,
			Pairs: []Pair{
				{Label: "Total", Value: format.MoneyWithCurrency(grand, code), Bold: true},
			},
		}
	}

	p.out.TotalsMode = TotalsBreakdown
	return Band{
		Kind:   BandTotals,
		Height: 3*PairHeight + RowPadding*2,
		Pairs: []Pair{
			{Label: "Total HT", Value: format.MoneyWithCurrency(subtotal, code)},
			{Label: "TVA " + format.Percent(rate), Value: format.MoneyWithCurrency(tax, code)},
			{Label: "Total TTC", Value: format.MoneyWithCurrency(grand, code), Bold: true},
		},
	}
}

func (p *planner) words(amount string) Band {
	subject := "la présente facture"
	if p.req.Type == domain.TypeProformaInvoice {
		subject = "la présente facture proforma"
	}
	text := "Arrêtée " + subject + " à la somme de : " + amount + "."
	lines := p.wrap(text, ContentWidth)
	return Band{
		Kind:   BandWords,
		Height: LineHeight*float64(len(lines)) + RowPadding*2,
		Lines:  lines,
	}
}

// deposit builds the deposit box when a deposit amount is set and, when the
// grand total is known, the total / paid / remaining summary. Without lines
// the box is emphasized.
func (p *planner) deposit(computed decimal.Decimal, hasLines bool) []Band {
	inv := p.req.Invoice
	code := p.req.Currency.Code

	paidOn := ""
	if inv.DepositDate != nil {
		paidOn = format.Date(*inv.DepositDate)
	}

	var bands []Band
	if !inv.DepositAmount.IsZero() {
		box := Band{
			Kind:  BandDeposit,
			Title: "Montant versé",
			Pairs: lo.Filter([]Pair{
				{Label: "Montant versé", Value: format.MoneyWithCurrency(inv.DepositAmount, code), Bold: true},
				{Label: "Date de versement", Value: paidOn},
			}, func(pair Pair, _ int) bool { return pair.Value != "" }),
		}
		box.Height = PairHeight*float64(len(box.Pairs)) + RowPadding*2
		if !hasLines {
			box.Emphasized = true
			box.Height += 2 * PairHeight
		}
		bands = append(bands, box)
	}

	var total *decimal.Decimal
	switch {
	case inv.Total != nil:
		total = inv.Total
	case hasLines && computed.IsPositive():
		total = &computed
	}
	if total == nil {
		return bands
	}

	remaining := total.Sub(inv.DepositAmount)
	if remaining.IsNegative() {
		remaining = decimal.Zero
	}
	return append(bands, Band{
		Kind:   BandSummary,
		Height: 3*PairHeight + RowPadding*2,
		Pairs: []Pair{
			{Label: "Montant total", Value: format.MoneyWithCurrency(*total, code)},
			{Label: "Montant versé", Value: format.MoneyWithCurrency(inv.DepositAmount, code)},
			{Label: "Reste à payer", Value: format.MoneyWithCurrency(remaining, code), Bold: true},
		},
	})
}

func signatureFor(t domain.Type) Band {
	var boxes []SignatureBox
	switch t {
	case domain.TypePurchaseOrder:
		boxes = []SignatureBox{{Title: "Cachet et signature du fournisseur"}}
	case domain.TypeDeliveryNote:
		boxes = []SignatureBox{
			{Title: "Le livreur", WithDate: true},
			{Title: "Le réceptionnaire", WithDate: true},
		}
	case domain.TypeDepositReceipt:
		boxes = []SignatureBox{
			{Title: "Signature du client"},
			{Title: "Cachet de l'entreprise"},
		}
	default:
		boxes = []SignatureBox{{Title: "Cachet et signature"}}
	}
	return Band{Kind: BandSignature, Height: SignatureHeight, Signatures: boxes}
}

func (p *planner) footer() Band {
	c := p.req.Company
	return Band{
		Kind:   BandFooter,
		Height: FooterHeight,
		Lines: nonEmpty(
			c.Footer,
			joinNonEmpty(" | ", c.Address, labelled("Tél", c.Phone), c.Email, c.Website),
			joinNonEmpty(" | ", labelled("RC", c.RegistryNo), labelled("NIF", c.TaxID), labelled("RIB", c.BankAccount)),
		),
	}
}

func labelled(label, value string) string {
	value = strings.TrimSpace(value)
	if value == "" {
		return ""
	}
	return label + " : " + value
}

func nonEmpty(values ...string) []string {
	return lo.Filter(values, func(v string, _ int) bool {
		return strings.TrimSpace(v) != ""
	})
}

func joinNonEmpty(sep string, values ...string) string {
	return strings.Join(nonEmpty(values...), sep)
}
