package format

import (
	"strings"

	"github.com/shopspring/decimal"
)

var (
	unitWords = [...]string{
		"zéro", "un", "deux", "trois", "quatre", "cinq", "six", "sept", "huit", "neuf",
		"dix", "onze", "douze", "treize", "quatorze", "quinze", "seize",
		"dix-sept", "dix-huit", "dix-neuf",
	}
	tensWords = [...]string{
		"", "", "vingt", "trente", "quarante", "cinquante", "soixante",
	}
)

type scale struct {
	value    int64
	singular string
	plural   string
	noun     bool
}

// Largest first. "mille" is an adjective and never takes an s; million and
// milliard are nouns.
var scales = []scale{
	{value: 1_000_000_000, singular: "milliard", plural: "milliards", noun: true},
	{value: 1_000_000, singular: "million", plural: "millions", noun: true},
	{value: 1_000, singular: "mille", plural: "mille"},
}

// AmountInWords spells amount in French followed by the currency unit, and
// the sub-unit when there are cents:
//
//	1250.50 -> "mille deux cent cinquante dinars et cinquante centimes"
func AmountInWords(amount decimal.Decimal, unit, subunit string) string {
	var b strings.Builder

	if amount.IsNegative() {
		b.WriteString("moins ")
		amount = amount.Neg()
	}
	amount = amount.Round(2)

	whole := amount.Truncate(0)
	cents := amount.Sub(whole).Shift(2).IntPart()
	n := whole.IntPart()

	b.WriteString(Cardinal(n))
	if unit != "" {
		b.WriteString(" ")
		if n > 0 && n%1_000_000 == 0 {
			b.WriteString(elide("de", unit))
		} else {
			b.WriteString(inflect(unit, n))
		}
	}

	if cents > 0 {
		b.WriteString(" et ")
		b.WriteString(Cardinal(cents))
		if subunit != "" {
			b.WriteString(" ")
			b.WriteString(inflect(subunit, cents))
		}
	}

	return b.String()
}

// Cardinal spells a non-negative integer in French using the traditional
// hyphenation (hyphens only below one hundred).
func Cardinal(n int64) string {
	if n == 0 {
		return unitWords[0]
	}
	if n < 0 {
		return "moins " + Cardinal(-n)
	}

	var parts []string
	rest := n
	for _, s := range scales {
		count := rest / s.value
		rest %= s.value
		if count == 0 {
			continue
		}

		switch {
		case count == 1 && !s.noun:
			parts = append(parts, s.singular)
		case count == 1:
			parts = append(parts, "un "+s.singular)
		case s.noun:
			// "quatre-vingts millions": plural forms survive before a noun.
			parts = append(parts, belowThousand(count, true)+" "+s.plural)
		default:
			parts = append(parts, belowThousand(count, false)+" "+s.plural)
		}
	}
	if rest > 0 {
		parts = append(parts, belowThousand(rest, true))
	}

	return strings.Join(parts, " ")
}

// belowThousand spells 1..999. final reports whether nothing but a noun (or
// nothing at all) follows; only then can "cent" and "vingt" take an s.
func belowThousand(n int64, final bool) string {
	hundreds := n / 100
	rest := n % 100

	var parts []string
	switch {
	case hundreds == 1:
		parts = append(parts, "cent")
	case hundreds > 1:
		word := unitWords[hundreds] + " cent"
		if rest == 0 && final {
			word += "s"
		}
		parts = append(parts, word)
	}
	if rest > 0 {
		parts = append(parts, belowHundred(rest, final))
	}
	return strings.Join(parts, " ")
}

func belowHundred(n int64, final bool) string {
	if n < 20 {
		return unitWords[n]
	}

	tens := n / 10
	unit := n % 10

	switch tens {
	case 7:
		// soixante-dix .. soixante-dix-neuf
		if unit == 1 {
			return "soixante et onze"
		}
		return "soixante-" + unitWords[10+unit]
	case 8:
		if unit == 0 {
			if final {
				return "quatre-vingts"
			}
			return "quatre-vingt"
		}
		return "quatre-vingt-" + unitWords[unit]
	case 9:
		return "quatre-vingt-" + unitWords[10+unit]
	}

	switch unit {
	case 0:
		return tensWords[tens]
	case 1:
		return tensWords[tens] + " et un"
	default:
		return tensWords[tens] + "-" + unitWords[unit]
	}
}

// inflect drops the plural s of a unit name for exactly one.
func inflect(unit string, n int64) string {
	if n == 1 {
		return strings.TrimSuffix(unit, "s")
	}
	return unit
}

func elide(preposition, word string) string {
	if word == "" {
		return preposition
	}
	switch strings.ToLower(word[:1]) {
	case "a", "e", "i", "o", "u", "h", "y":
		return preposition[:len(preposition)-1] + "'" + word
	}
	return preposition + " " + word
}
