package money

import (
	"strings"

	"github.com/shopspring/decimal"
)

// Format renders amount, given in minor units of c, for display. Digits are
// grouped in threes with c.ThousandsSeparator, the fraction is joined with
// c.DecimalSeparator and the symbol is placed per c. A negative sign always
// leads: "-$1,234.50", "-1.234,50 €".
func Format(amount int64, c Currency) string {
	digits := c.DecimalDigits
	if digits < 0 {
		digits = 0
	}

	value := decimal.New(amount, int32(-digits)).Abs()
	fixed := value.StringFixed(int32(digits))

	whole, frac, _ := strings.Cut(fixed, ".")

	var b strings.Builder
	if amount < 0 {
		b.WriteByte('-')
	}

	number := group(whole, c.ThousandsSeparator)
	if digits > 0 {
		number += c.DecimalSeparator + frac
	}

	space := ""
	if c.SpaceBetweenAmountAndSymbol && c.Symbol != "" {
		space = " "
	}
	if c.SymbolOnLeft {
		b.WriteString(c.Symbol + space + number)
	} else {
		b.WriteString(number + space + c.Symbol)
	}
	return b.String()
}

// group inserts sep between every three digits of whole, counting from the right.
func group(whole, sep string) string {
	if sep == "" || len(whole) <= 3 {
		return whole
	}
	first := len(whole) % 3
	if first == 0 {
		first = 3
	}

	var b strings.Builder
	b.Grow(len(whole) + len(sep)*(len(whole)/3))
	b.WriteString(whole[:first])
	for i := first; i < len(whole); i += 3 {
		b.WriteString(sep)
		b.WriteString(whole[i : i+3])
	}
	return b.String()
}
