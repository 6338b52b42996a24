// Package money formats integer minor-unit amounts for display in a closed
// set of ISO-4217 style currencies.
package money

import (
	"sort"
	"strings"
)

// DefaultCode is used when a cart is created without a currency.
const DefaultCode = "USD"

// MaxDecimalDigits bounds caller supplied decimal digit overrides.
const MaxDecimalDigits = 8

// Currency holds the formatting rules for one currency.
type Currency struct {
	Code                        string `json:"code"`
	Symbol                      string `json:"symbol"`
	ThousandsSeparator          string `json:"thousands_separator"`
	DecimalSeparator            string `json:"decimal_separator"`
	DecimalDigits               int    `json:"decimal_digits"`
	SymbolOnLeft                bool   `json:"symbol_on_left"`
	SpaceBetweenAmountAndSymbol bool   `json:"space_between_amount_and_symbol"`
}

// Overrides replaces individual formatting fields of a Currency. Nil fields
// keep the base value.
type Overrides struct {
	Symbol             *string
	ThousandsSeparator *string
	DecimalSeparator   *string
	DecimalDigits      *int
}

// IsZero reports whether no field is overridden.
func (o Overrides) IsZero() bool {
	return o.Symbol == nil && o.ThousandsSeparator == nil && o.DecimalSeparator == nil && o.DecimalDigits == nil
}

// With returns a copy of c with the overrides applied.
func (c Currency) With(o Overrides) Currency {
	if o.Symbol != nil {
		c.Symbol = *o.Symbol
	}
	if o.ThousandsSeparator != nil {
		c.ThousandsSeparator = *o.ThousandsSeparator
	}
	if o.DecimalSeparator != nil {
		c.DecimalSeparator = *o.DecimalSeparator
	}
	if o.DecimalDigits != nil {
		c.DecimalDigits = *o.DecimalDigits
	}
	return c
}

// Lookup returns the currency registered under code. Codes are matched
// case-insensitively.
func Lookup(code string) (Currency, bool) {
	c, ok := byCode[strings.ToUpper(strings.TrimSpace(code))]
	return c, ok
}

// MustLookup is Lookup for codes known to exist. It panics otherwise.
func MustLookup(code string) Currency {
	c, ok := Lookup(code)
	if !ok {
		panic("money: unknown currency " + code)
	}
	return c
}

// IsSupported reports whether code is in the currency table.
func IsSupported(code string) bool {
	_, ok := Lookup(code)
	return ok
}

// Codes returns every supported code in alphabetical order.
func Codes() []string {
	codes := make([]string, 0, len(byCode))
	for code := range byCode {
		codes = append(codes, code)
	}
	sort.Strings(codes)
	return codes
}

var byCode = func() map[string]Currency {
	m := make(map[string]Currency, len(currencies))
	for _, c := range currencies {
		m[c.Code] = c
	}
	return m
}()

func left(code, symbol, thousands, decimal string, space bool, digits int) Currency {
	return Currency{code, symbol, thousands, decimal, digits, true, space}
}

func right(code, symbol, thousands, decimal string, space bool, digits int) Currency {
	return Currency{code, symbol, thousands, decimal, digits, false, space}
}
