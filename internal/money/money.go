package money

// Money is an amount in minor units paired with the currency used to format it.
type Money struct {
	Amount   int64
	Currency Currency
}

// New returns Money for amount in c.
func New(amount int64, c Currency) Money {
	return Money{Amount: amount, Currency: c}
}

// Formatted returns the display string for m.
func (m Money) Formatted() string {
	return Format(m.Amount, m.Currency)
}
