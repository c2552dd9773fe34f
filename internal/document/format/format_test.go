package format

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/smallbiznis/fiberdesk/internal/document/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMoney(t *testing.T) {
	cases := map[string]string{
		"1234567.5": "1 234 567,50",
		"0":         "0,00",
		"270":       "270,00",
		"999.999":   "1 000,00",
		"1000":      "1 000,00",
		"12.3":      "12,30",
		"-1500.25":  "-1 500,25",
	}
	for in, want := range cases {
		assert.Equal(t, want, Money(decimal.RequireFromString(in)), in)
	}
	assert.Equal(t, "1 500,00 DA", MoneyWithCurrency(decimal.NewFromInt(1500), "DA"))
	assert.Equal(t, "1 500,00", MoneyWithCurrency(decimal.NewFromInt(1500), " "))
}

func TestPercentAndDate(t *testing.T) {
	assert.Equal(t, "12,5 %", Percent(decimal.RequireFromString("12.5")))
	assert.Equal(t, "19 %", Percent(decimal.NewFromInt(19)))
	assert.Equal(t, "05/03/2026", Date(time.Date(2026, 3, 5, 0, 0, 0, 0, time.UTC)))
	assert.Empty(t, Date(time.Time{}))
}

func TestAmountInWords(t *testing.T) {
	cases := []struct {
		amount string
		want   string
	}{
		{"0", "zéro dinars"},
		{"1", "un dinar"},
		{"21", "vingt et un dinars"},
		{"71", "soixante et onze dinars"},
		{"77", "soixante-dix-sept dinars"},
		{"80", "quatre-vingts dinars"},
		{"81", "quatre-vingt-un dinars"},
		{"91", "quatre-vingt-onze dinars"},
		{"100", "cent dinars"},
		{"200", "deux cents dinars"},
		{"280", "deux cent quatre-vingts dinars"},
		{"1250.50", "mille deux cent cinquante dinars et cinquante centimes"},
		{"2000", "deux mille dinars"},
		{"80000", "quatre-vingt mille dinars"},
		{"200000", "deux cent mille dinars"},
		{"2000000", "deux millions de dinars"},
		{"1000000", "un million de dinars"},
		{"200000000", "deux cents millions de dinars"},
		{"3000000021", "trois milliards vingt et un dinars"},
		{"10.01", "dix dinars et un centime"},
	}
	for _, tc := range cases {
		got := AmountInWords(decimal.RequireFromString(tc.amount), "dinars", "centimes")
		assert.Equal(t, tc.want, got, tc.amount)
	}
}

func TestAmountInWordsRoundsToCents(t *testing.T) {
	got := AmountInWords(decimal.RequireFromString("99.999"), "dinars", "centimes")
	assert.Equal(t, "cent dinars", got)
}

func TestCardinal(t *testing.T) {
	assert.Equal(t, "soixante-dix", Cardinal(70))
	assert.Equal(t, "quatre-vingt-dix-neuf", Cardinal(99))
	assert.Equal(t, "cent un", Cardinal(101))
	assert.Equal(t, "mille un", Cardinal(1001))
	assert.Equal(t, "vingt et un mille", Cardinal(21000))
	assert.Equal(t, "un milliard deux cent trente-quatre millions cinq cent soixante-sept mille huit cent quatre-vingt-dix",
		Cardinal(1234567890))
}

func TestFormatDocumentNumber(t *testing.T) {
	issued := time.UnixMilli(1760000123456)

	got, err := FormatDocumentNumber(DefaultDocumentNumberTemplate, "FA", "Fibre Hydra / Lot 2", issued)
	require.NoError(t, err)
	assert.Equal(t, "FA-FIBRE-HYDRA-LOT-2-123456", got)

	got, err = FormatDocumentNumber("{PREFIX}-{PROJECT}-{TS6}", "BL", "", issued)
	require.NoError(t, err)
	assert.Equal(t, "BL-XXX-123456", got)

	_, err = FormatDocumentNumber("", "FA", "", issued)
	assert.Error(t, err)

	_, err = FormatDocumentNumber("{PREFIX}-{SEQ}", "FA", "", issued)
	assert.Error(t, err)
}

func TestDocumentNumberPrefersInvoiceNumber(t *testing.T) {
	now := time.UnixMilli(1760000654321)

	assert.Equal(t, "F-2026-0042", DocumentNumber(domain.TypeInvoice, domain.Invoice{Number: " F-2026-0042 "}, "p1", now))
	assert.Equal(t, "RV-P1-654321", DocumentNumber(domain.TypeDepositReceipt, domain.Invoice{}, "p1", now))
	assert.Equal(t, "BC-XXX-654321", DocumentNumber(domain.TypePurchaseOrder, domain.Invoice{}, "", now))
}

func TestFileName(t *testing.T) {
	assert.Equal(t, "invoice_FA-XXX-123456.pdf", FileName(domain.TypeInvoice, "FA-XXX-123456"))
	assert.Equal(t, "delivery_note_BL-2026-01.pdf", FileName(domain.TypeDeliveryNote, "BL/2026/01"))
}
