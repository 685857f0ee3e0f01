// README: Money value object in minor currency units (paise for INR).
package types

import (
	"fmt"
	"math"
)

const DefaultCurrency = "INR"

// Money keeps amounts as integer minor units so that sums are exact.
type Money struct {
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
}

func INR(minor int64) Money {
	return Money{Amount: minor, Currency: DefaultCurrency}
}

// FromMajor converts a major-unit value (e.g. 85.5 rupees) to Money,
// rounding to the nearest minor unit.
func FromMajor(v float64, currency string) Money {
	if currency == "" {
		currency = DefaultCurrency
	}
	return Money{Amount: int64(math.Round(v * 100)), Currency: currency}
}

// Add sums two amounts. An empty currency on either side adopts the other.
func (m Money) Add(o Money) Money {
	cur := m.Currency
	if cur == "" {
		cur = o.Currency
	}
	return Money{Amount: m.Amount + o.Amount, Currency: cur}
}

func (m Money) Major() float64 {
	return float64(m.Amount) / 100
}

func (m Money) IsZero() bool {
	return m.Amount == 0
}

func (m Money) String() string {
	cur := m.Currency
	if cur == "" {
		cur = DefaultCurrency
	}
	sign := ""
	amt := m.Amount
	if amt < 0 {
		sign = "-"
		amt = -amt
	}
	if amt%100 == 0 {
		return fmt.Sprintf("%s%s %d", sign, cur, amt/100)
	}
	return fmt.Sprintf("%s%s %d.%02d", sign, cur, amt/100, amt%100)
}
