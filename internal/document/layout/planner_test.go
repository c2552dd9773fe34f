package layout

import (
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/shopspring/decimal"
	"github.com/smallbiznis/fiberdesk/internal/document/domain"
	linedomain "github.com/smallbiznis/fiberdesk/internal/invoiceline/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// wordMeasurer wraps on words at a fixed number of characters per line.
type wordMeasurer struct {
	perLine int
}

func (m wordMeasurer) SplitLines(text string, _ float64) ([]string, error) {
	var lines []string
	current := ""
	for _, word := range strings.Fields(text) {
		candidate := strings.TrimSpace(current + " " + word)
		if current != "" && utf8.RuneCountInString(candidate) > m.perLine {
			lines = append(lines, current)
			current = word
			continue
		}
		current = candidate
	}
	if current != "" {
		lines = append(lines, current)
	}
	return lines, nil
}

type failingMeasurer struct{}

func (failingMeasurer) SplitLines(string, float64) ([]string, error) {
	return nil, errors.New("font not loaded")
}

var issued = time.Date(2026, 3, 5, 9, 0, 0, 0, time.UTC)

func line(desc string, qty int, price, discount int64) linedomain.Line {
	l := linedomain.Line{
		Description:     desc,
		Quantity:        qty,
		UnitPrice:       decimal.NewFromInt(price),
		DiscountPercent: decimal.NewFromInt(discount),
	}
	l.Recompute()
	return l
}

func baseRequest(t domain.Type, lines ...linedomain.Line) Request {
	return Request{
		Type:   t,
		Number: "FA-XXX-123456",
		Date:   issued,
		Company: domain.Company{
			Name:       "Fiberdesk SARL",
			Activity:   "Installation de fibre optique",
			Address:    "12 rue des Oliviers, Alger",
			Phone:      "021 00 00 00",
			RegistryNo: "16/00-1234567B20",
			Footer:     "Fiberdesk SARL - capital social 1 000 000 DA",
		},
		Currency: domain.Currency{Code: "DA", Unit: "dinars", Subunit: "centimes"},
		Invoice:  domain.Invoice{Lines: lines, Date: issued},
		Client:   domain.Client{Name: "Hydra Télécom", Address: "Oran"},
		Project:  domain.Project{Name: "Raccordement Lot 2"},
	}
}

func manyLines(n int) []linedomain.Line {
	lines := make([]linedomain.Line, n)
	for i := range lines {
		lines[i] = line(fmt.Sprintf("Article %d", i+1), 1, 100, 0)
	}
	return lines
}

func TestZeroTaxTakesSingleTotalBranch(t *testing.T) {
	req := baseRequest(domain.TypeInvoice, line("Câble", 3, 100, 10))

	l := Plan(req, wordMeasurer{perLine: 40})

	assert.Equal(t, TotalsSingle, l.TotalsMode)
	assert.True(t, l.GrandTotal.Equal(l.Subtotal))
	assert.Equal(t, "270", l.GrandTotal.String())

	totals := l.Bands(BandTotals)
	require.Len(t, totals, 1)
	require.Len(t, totals[0].Pairs, 1)
	assert.Equal(t, "Total", totals[0].Pairs[0].Label)
	assert.Equal(t, "270,00 DA", totals[0].Pairs[0].Value)
}

func TestTaxRateTakesBreakdownBranch(t *testing.T) {
	req := baseRequest(domain.TypeInvoice, line("Câble", 3, 100, 10))
	req.Invoice.TaxRatePercent = decimal.NewFromInt(19)

	l := Plan(req, wordMeasurer{perLine: 40})

	assert.Equal(t, TotalsBreakdown, l.TotalsMode)
	assert.Equal(t, "51.3", l.Tax.String())
	assert.Equal(t, "321.3", l.GrandTotal.String())

	pairs := l.Bands(BandTotals)[0].Pairs
	require.Len(t, pairs, 3)
	assert.Equal(t, "Total HT", pairs[0].Label)
	assert.Equal(t, "TVA 19 %", pairs[1].Label)
	assert.Equal(t, "321,30 DA", pairs[2].Value)
}

func TestPaginationRepeatsTableHeader(t *testing.T) {
	req := baseRequest(domain.TypeInvoice, manyLines(40)...)

	l := Plan(req, wordMeasurer{perLine: 40})

	require.GreaterOrEqual(t, len(l.Pages), 2)
	first := l.Pages[0].Bands
	second := l.Pages[1].Bands

	var header Band
	for _, b := range first {
		if b.Kind == BandTableHeader {
			header = b
		}
	}
	require.Equal(t, BandTableHeader, header.Kind)
	assert.Equal(t, header, second[0], "continuation page starts with the same table header")
	assert.Equal(t, BandRow, second[1].Kind)

	assert.Len(t, l.Bands(BandRow), 40)
	assert.Equal(t, "4000", l.Subtotal.String())

	for _, page := range l.Pages {
		used := 0.0
		for _, b := range page.Bands {
			used += b.Height
		}
		assert.LessOrEqual(t, used, ContentHeight, "page %d overflows", page.Number)
	}
}

func TestRowsThatFitExactlyStayOnOnePage(t *testing.T) {
	empty := Plan(baseRequest(domain.TypeDeliveryNote), nil)
	used := 0.0
	for _, b := range empty.Pages[0].Bands {
		if b.Kind != BandSignature {
			used += b.Height
		}
	}
	capacity := int((ContentHeight - used - TableHeaderHeight) / BaseRowHeight)

	l := Plan(baseRequest(domain.TypeDeliveryNote, manyLines(capacity)...), nil)
	rows := 0
	for _, b := range l.Pages[0].Bands {
		if b.Kind == BandRow {
			rows++
		}
	}
	assert.Equal(t, capacity, rows)

	l = Plan(baseRequest(domain.TypeDeliveryNote, manyLines(capacity+1)...), nil)
	require.GreaterOrEqual(t, len(l.Pages), 2)
	assert.Equal(t, BandTableHeader, l.Pages[1].Bands[0].Kind)
	assert.Equal(t, BandRow, l.Pages[1].Bands[1].Kind)
}

func TestPurchaseOrderSwapsIssuerAndRecipient(t *testing.T) {
	req := baseRequest(domain.TypePurchaseOrder, line("Boîtier", 2, 50, 0), line("Câble", 1, 10, 0))
	req.Client.TaxID = "000016001234567"

	l := Plan(req, nil)
	header := l.Bands(BandHeader)[0]
	parties := l.Bands(BandParties)[0]

	assert.Equal(t, "Hydra Télécom", header.Title)
	assert.Empty(t, header.Image)
	assert.Contains(t, header.Lines, "NIF : 000016001234567")
	assert.Equal(t, "Fournisseur", parties.Title)
	assert.Equal(t, "Fiberdesk SARL", parties.Lines[0])

	rows := l.Bands(BandRow)
	assert.Equal(t, []string{"1"}, rows[0].Cells[0].Lines)
	assert.Equal(t, []string{"2"}, rows[1].Cells[0].Lines)
	assert.Equal(t, "signature", string(l.Bands(BandSignature)[0].Kind))
	assert.Equal(t, "Cachet et signature du fournisseur", l.Bands(BandSignature)[0].Signatures[0].Title)
}

func TestInvoiceHeaderShowsCompany(t *testing.T) {
	req := baseRequest(domain.TypeInvoice, line("Câble", 1, 10, 0))
	req.Company.LogoPath = "assets/logo.png"

	header := Plan(req, nil).Bands(BandHeader)[0]
	assert.Equal(t, "Fiberdesk SARL", header.Title)
	assert.Equal(t, "assets/logo.png", header.Image)
}

func TestRecipientLinesSkipEmptyFields(t *testing.T) {
	req := baseRequest(domain.TypeInvoice, line("Câble", 1, 10, 0))
	req.Client = domain.Client{Name: "Hydra Télécom", TaxID: "0001", BankAccount: "  "}
	req.Project = domain.Project{}

	parties := Plan(req, nil).Bands(BandParties)[0]
	assert.Equal(t, []string{"Hydra Télécom", "NIF : 0001"}, parties.Lines)
	for _, l := range parties.Lines {
		assert.NotEmpty(t, strings.TrimSpace(l))
	}
}

func TestDiscountColumnIsConditional(t *testing.T) {
	without := Plan(baseRequest(domain.TypeInvoice, line("Câble", 1, 10, 0)), nil)
	with := Plan(baseRequest(domain.TypeProformaInvoice, line("Câble", 1, 10, 0), line("Soudure", 1, 10, 5)), nil)

	keys := func(cols []Column) []string {
		out := make([]string, len(cols))
		for i, c := range cols {
			out[i] = c.Key
		}
		return out
	}
	assert.NotContains(t, keys(without.Columns), colDiscount)
	assert.Contains(t, keys(with.Columns), colDiscount)

	for _, cols := range [][]Column{without.Columns, with.Columns, columnsFor(domain.TypePurchaseOrder, nil), columnsFor(domain.TypeDeliveryNote, nil)} {
		span := 0
		for _, c := range cols {
			span += c.Span
		}
		assert.Equal(t, GridColumns, span)
	}
}

func TestZeroLinesOmitsTable(t *testing.T) {
	for _, typ := range []domain.Type{domain.TypePurchaseOrder, domain.TypeInvoice, domain.TypeProformaInvoice, domain.TypeDeliveryNote} {
		l := Plan(baseRequest(typ), nil)
		assert.Empty(t, l.Bands(BandTableHeader), typ)
		assert.Empty(t, l.Bands(BandRow), typ)
		assert.Empty(t, l.Bands(BandTotals), typ)
		assert.Len(t, l.Bands(BandSignature), 1, typ)
	}
}

func TestStandaloneDepositReceipt(t *testing.T) {
	req := baseRequest(domain.TypeDepositReceipt)
	paid := time.Date(2026, 2, 20, 0, 0, 0, 0, time.UTC)
	total := decimal.NewFromInt(20000)
	req.Invoice.DepositAmount = decimal.NewFromInt(5000)
	req.Invoice.DepositDate = &paid
	req.Invoice.Total = &total

	l := Plan(req, nil)

	assert.Empty(t, l.Bands(BandTableHeader))
	deposit := l.Bands(BandDeposit)
	require.Len(t, deposit, 1)
	assert.True(t, deposit[0].Emphasized)
	assert.Equal(t, []Pair{
		{Label: "Montant versé", Value: "5 000,00 DA", Bold: true},
		{Label: "Date de versement", Value: "20/02/2026"},
	}, deposit[0].Pairs)

	summary := l.Bands(BandSummary)
	require.Len(t, summary, 1)
	assert.Equal(t, "20 000,00 DA", summary[0].Pairs[0].Value)
	assert.Equal(t, "5 000,00 DA", summary[0].Pairs[1].Value)
	assert.Equal(t, "15 000,00 DA", summary[0].Pairs[2].Value)

	sig := l.Bands(BandSignature)[0].Signatures
	assert.Equal(t, []SignatureBox{{Title: "Signature du client"}, {Title: "Cachet de l'entreprise"}}, sig)
	assert.Equal(t, TotalsNone, l.TotalsMode)
}

func TestDepositReceiptWithoutKnownTotalHasNoSummary(t *testing.T) {
	req := baseRequest(domain.TypeDepositReceipt)
	req.Invoice.DepositAmount = decimal.NewFromInt(5000)

	l := Plan(req, nil)
	assert.Len(t, l.Bands(BandDeposit), 1)
	assert.Empty(t, l.Bands(BandSummary))
}

func TestDepositReceiptWithoutDepositHasNoDepositBox(t *testing.T) {
	l := Plan(baseRequest(domain.TypeDepositReceipt), nil)
	assert.Empty(t, l.Bands(BandDeposit))
	assert.Empty(t, l.Bands(BandSummary))
	assert.Len(t, l.Bands(BandSignature), 1)

	req := baseRequest(domain.TypeDepositReceipt)
	total := decimal.NewFromInt(20000)
	req.Invoice.Total = &total

	l = Plan(req, nil)
	assert.Empty(t, l.Bands(BandDeposit))
	summary := l.Bands(BandSummary)
	require.Len(t, summary, 1)
	assert.Equal(t, "20 000,00 DA", summary[0].Pairs[2].Value)
}

func TestDepositReceiptWithLinesIsPricingFree(t *testing.T) {
	req := baseRequest(domain.TypeDepositReceipt, line("Câble", 2, 1000, 0))
	req.Invoice.DepositAmount = decimal.NewFromInt(500)

	l := Plan(req, nil)

	for _, c := range l.Columns {
		assert.NotContains(t, []string{colUnitPrice, colAmount, colDiscount}, c.Key)
	}
	deposit := l.Bands(BandDeposit)
	require.Len(t, deposit, 1)
	assert.False(t, deposit[0].Emphasized)

	summary := l.Bands(BandSummary)
	require.Len(t, summary, 1)
	assert.Equal(t, "1 500,00 DA", summary[0].Pairs[2].Value)
}

func TestProformaAddsValidityAndWords(t *testing.T) {
	req := baseRequest(domain.TypeProformaInvoice, line("Étude", 1, 1250, 0))
	req.Invoice.Lines[0].UnitPrice = decimal.RequireFromString("1250.50")
	req.Invoice.Lines[0].Recompute()

	l := Plan(req, wordMeasurer{perLine: 200})

	meta := l.Bands(BandParties)[0].Pairs
	require.Len(t, meta, 3)
	assert.Equal(t, "30 jours (jusqu'au 04/04/2026)", meta[2].Value)

	assert.Equal(t, "mille deux cent cinquante dinars et cinquante centimes", l.Words)
	words := l.Bands(BandWords)
	require.Len(t, words, 1)
	assert.Contains(t, words[0].Lines[0], l.Words)

	notice := l.Bands(BandNotice)
	require.Len(t, notice, 1)
	assert.Contains(t, notice[0].Lines[0], "valable 30 jours")
}

func TestDeliveryNoteShowsQuantitiesOnly(t *testing.T) {
	l := Plan(baseRequest(domain.TypeDeliveryNote, line("Câble", 12, 10, 0)), nil)

	assert.Equal(t, TotalsNone, l.TotalsMode)
	assert.Empty(t, l.Bands(BandWords))
	row := l.Bands(BandRow)[0]
	require.Len(t, row.Cells, 2)
	assert.Equal(t, []string{"12"}, row.Cells[1].Lines)

	sig := l.Bands(BandSignature)[0].Signatures
	assert.Equal(t, []SignatureBox{{Title: "Le livreur", WithDate: true}, {Title: "Le réceptionnaire", WithDate: true}}, sig)
}

func TestLongDescriptionsWrapAndGrowRow(t *testing.T) {
	desc := "Tirage de câble fibre optique monomode douze brins en conduite existante avec repérage"
	l := Plan(baseRequest(domain.TypeInvoice, line(desc, 1, 10, 0)), wordMeasurer{perLine: 20})

	row := l.Bands(BandRow)[0]
	wrapped := row.Cells[0].Lines
	require.Greater(t, len(wrapped), 2)
	assert.Equal(t, desc, strings.Join(wrapped, " "), "wrapping never drops text")
	assert.Equal(t, BaseRowHeight+float64(len(wrapped)-2)*LineHeight, row.Height)

	short := Plan(baseRequest(domain.TypeInvoice, line("Câble", 1, 10, 0)), wordMeasurer{perLine: 20})
	assert.Equal(t, BaseRowHeight, short.Bands(BandRow)[0].Height)
}

func TestDescriptionTallerThanAPageSplitsAcrossPages(t *testing.T) {
	desc := strings.TrimSpace(strings.Repeat("mot ", 150))
	l := Plan(baseRequest(domain.TypeInvoice, line(desc, 3, 10, 0)), wordMeasurer{perLine: 5})

	require.GreaterOrEqual(t, len(l.Pages), 3)
	for _, page := range l.Pages {
		used := 0.0
		for _, b := range page.Bands {
			used += b.Height
		}
		assert.LessOrEqual(t, used, ContentHeight, "page %d overflows", page.Number)
	}
	for _, page := range l.Pages[1:] {
		if len(page.Bands) > 0 && page.Bands[0].Kind == BandRow {
			t.Fatalf("page %d continues the table without its header", page.Number)
		}
	}

	rows := l.Bands(BandRow)
	require.Greater(t, len(rows), 1)
	var words []string
	for _, r := range rows {
		words = append(words, r.Cells[0].Lines...)
	}
	assert.Equal(t, desc, strings.Join(words, " "), "splitting never drops text")

	assert.Equal(t, []string{"3"}, rows[0].Cells[1].Lines)
	for _, r := range rows[1:] {
		assert.Empty(t, r.Cells[1].Lines, "continuation rows carry only the description")
		assert.Empty(t, r.Cells[3].Lines)
	}
	assert.Equal(t, "30", l.Subtotal.String())
}

func TestMeasurementFailureFallsBackToRawText(t *testing.T) {
	desc := strings.Repeat("très long ", 30)
	l := Plan(baseRequest(domain.TypeInvoice, line(desc, 1, 10, 0)), failingMeasurer{})

	row := l.Bands(BandRow)[0]
	assert.Equal(t, []string{strings.TrimSpace(desc)}, row.Cells[0].Lines)
	assert.Equal(t, BaseRowHeight, row.Height)
}

func TestRowsAlternateShading(t *testing.T) {
	l := Plan(baseRequest(domain.TypeInvoice, manyLines(4)...), nil)
	rows := l.Bands(BandRow)
	assert.Equal(t, []bool{false, true, false, true}, []bool{rows[0].Shaded, rows[1].Shaded, rows[2].Shaded, rows[3].Shaded})
}

func TestFooterIsConstant(t *testing.T) {
	l := Plan(baseRequest(domain.TypeInvoice, manyLines(60)...), nil)
	assert.Equal(t, BandFooter, l.Footer.Kind)
	assert.Equal(t, "Fiberdesk SARL - capital social 1 000 000 DA", l.Footer.Lines[0])
	assert.Empty(t, l.Bands(BandFooter), "the footer is not part of page bands")
}
