package tally

import (
	"testing"

	"github.com/etnz/tally/date"
	"github.com/shopspring/decimal"
)

// today is the date every test state is built on.
var today = date.MustParse("2025-06-18")

// dec is a helper for tests to create decimals from constants.
func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

// val is a helper for tests to create known values from constants.
func val(s string) decimal.NullDecimal { return decimal.NewNullDecimal(dec(s)) }

// apply applies commands and fails the test on error or inconsistency.
func apply(t *testing.T, s *State, cmds ...Command) *State {
	t.Helper()
	next, err := s.Apply(cmds...)
	if err != nil {
		t.Fatalf("Apply(%T...) error: %v", cmds[0], err)
	}
	if err := next.Verify(); err != nil {
		t.Fatalf("Verify() after %T: %v", cmds[0], err)
	}
	return next
}

// basic returns a state with a EUR base currency (1), a USD currency (2),
// an account (1), and categories Food (2) > Groceries (3).
func basic(t *testing.T) *State {
	t.Helper()
	return apply(t, Empty(today),
		AddCurrency{Ticker: "EUR"},
		AddCurrency{Ticker: "USD", Rates: []RatePoint{{Month: date.MustParse("2025-01-01"), Rate: dec("1.25")}}},
		AddAccount{Name: "Current"},
		AddCategory{Name: "Food"},
		AddCategory{Name: "Groceries", Parent: 2},
	)
}

// tx returns a manual transaction on account 1.
func tx(day string, value string, category, currency ID) Transaction {
	return Transaction{Date: date.MustParse(day), Value: val(value), Account: 1, Category: category, Currency: currency}
}

// last returns the ID of the last transaction created in s.
func last(s *State) ID { return s.Transactions().NextID() - 1 }
