package tally

import (
	"github.com/Rhymond/go-money"
	"github.com/shopspring/decimal"
)

// Money is a value with its currency ticker, for display.
type Money struct {
	value decimal.Decimal // as major unit value
	cur   string
}

// M returns a Money.
func M(value decimal.Decimal, ticker string) Money { return Money{value: value, cur: ticker} }

// Money returns a value of a currency of s, and the base currency for 0.
func (s *State) Money(value decimal.Decimal, currency ID) Money {
	if currency == 0 {
		currency = s.User().Currency
	}
	c, _ := s.currencies.Get(currency)
	return M(value, c.Ticker)
}

func (m Money) Value() decimal.Decimal { return m.value }
func (m Money) Currency() string       { return m.cur }

// String formats the value the way its currency is usually written, or as
// a plain number followed by the ticker when go-money does not know it.
func (m Money) String() string {
	cur := money.GetCurrency(m.cur)
	if cur == nil {
		if m.cur == "" {
			return m.value.StringFixed(2)
		}
		return m.value.StringFixed(2) + " " + m.cur
	}
	fraction := int32(cur.Fraction)
	return cur.Formatter().Format(m.value.Round(fraction).Shift(fraction).IntPart())
}

// SignedString returns the value with an explicit sign, and "-" for zero.
func (m Money) SignedString() string {
	if m.value.IsZero() {
		return "-"
	}
	if m.value.IsPositive() {
		return "+" + m.String()
	}
	return m.String()
}

// FormatValue formats an optional value, "?" when it is unknown.
func FormatValue(v decimal.NullDecimal, ticker string) string {
	if !v.Valid {
		return "?"
	}
	return M(v.Decimal, ticker).String()
}
