// Package format turns amounts, dates and identifiers into the strings
// printed on documents.
package format

import (
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/shopspring/decimal"
)

// moneyFormat renders two decimals, a space between thousands and a comma
// before the decimals.
const moneyFormat = "# ###,##"

// Money formats an amount as "1 234 567,50".
func Money(amount decimal.Decimal) string {
	return humanize.FormatFloat(moneyFormat, amount.Round(2).InexactFloat64())
}

// MoneyWithCurrency appends the currency code when one is set.
func MoneyWithCurrency(amount decimal.Decimal, code string) string {
	code = strings.TrimSpace(code)
	if code == "" {
		return Money(amount)
	}
	return Money(amount) + " " + code
}

// Percent formats a rate as "12,5 %".
func Percent(rate decimal.Decimal) string {
	return strings.Replace(rate.String(), ".", ",", 1) + " %"
}

// Date formats a date the way French documents print it.
func Date(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format("02/01/2006")
}
