package tally

import (
	"slices"

	"github.com/etnz/tally/date"
	"github.com/shopspring/decimal"
)

// rateAsOf returns the rate in effect for the month of 'on': the latest point
// at or before that month, or the earliest point for older dates, or 1 when
// the currency has no rates.
func rateAsOf(rates []RatePoint, on date.Date) decimal.Decimal {
	if len(rates) == 0 {
		return decimal.NewFromInt(1)
	}
	month := on.StartOfMonth()
	i, found := slices.BinarySearchFunc(rates, month, func(p RatePoint, m date.Date) int {
		return date.MonthsBetween(m, p.Month)
	})
	if found {
		return rates[i].Rate
	}
	if i == 0 {
		return rates[0].Rate
	}
	return rates[i-1].Rate
}

// rate returns the rate of a currency, 1 for unknown currencies (including
// the unset base currency 0).
func (s *State) rate(currency ID, on date.Date) decimal.Decimal {
	c, ok := s.currencies.Get(currency)
	if !ok {
		return decimal.NewFromInt(1)
	}
	return rateAsOf(c.Rates, on)
}

// Localise converts value from 'currency' into the user's base currency using
// the rates in effect on 'on'.
func (s *State) Localise(value decimal.Decimal, currency ID, on date.Date) decimal.Decimal {
	base := s.User().Currency
	if currency == base {
		return value
	}
	return value.Div(s.rate(currency, on)).Mul(s.rate(base, on))
}

// Delocalise converts a value in the user's base currency into 'currency'.
// It is the inverse of Localise.
func (s *State) Delocalise(value decimal.Decimal, currency ID, on date.Date) decimal.Decimal {
	base := s.User().Currency
	if currency == base {
		return value
	}
	return value.Div(s.rate(base, on)).Mul(s.rate(currency, on))
}

// localised localises a nullable value, stubs stay stubs.
func (s *State) localised(value decimal.NullDecimal, currency ID, on date.Date) decimal.NullDecimal {
	if !value.Valid {
		return value
	}
	return decimal.NewNullDecimal(s.Localise(value.Decimal, currency, on))
}

// firstRateChange returns the earliest month whose effective rate differs
// between two rate tables. 'all' is true when every month is affected.
func firstRateChange(old, new []RatePoint) (month date.Date, all, changed bool) {
	if len(old) == 0 || len(new) == 0 {
		return date.Date{}, true, len(old) != len(new)
	}
	// Collect every month where either table has a point: the effective rate
	// can only change there.
	months := make([]date.Date, 0, len(old)+len(new))
	for _, p := range old {
		months = append(months, p.Month)
	}
	for _, p := range new {
		months = append(months, p.Month)
	}
	slices.SortFunc(months, func(a, b date.Date) int { return date.MonthsBetween(b, a) })
	for i, m := range months {
		if rateAsOf(old, m).Equal(rateAsOf(new, m)) {
			continue
		}
		// dates before the earliest point use that point too.
		return m, i == 0, true
	}
	return date.Date{}, false, false
}

func sortRates(rates []RatePoint) {
	slices.SortFunc(rates, func(a, b RatePoint) int { return date.MonthsBetween(b.Month, a.Month) })
}
