package tally

import (
	"testing"

	"github.com/etnz/tally/date"
	"github.com/shopspring/decimal"
)

func TestTransactionHistory_Apply(t *testing.T) {
	current := date.MustParse("2025-06-01")
	var h TransactionHistory

	h.apply(newEntry(0, val("-10")), current)
	h.apply(newEntry(3, val("25")), current)
	h.apply(newEntry(1, decimal.NullDecimal{}), current)
	h.apply(newEntry(1, val("0")), current)

	if h.Len() != 4 || h.Start != date.MustParse("2025-03-01") {
		t.Fatalf("history = %+v, want 4 months from 2025-03", h)
	}
	if !h.Credit(3).Equal(dec("25")) || !h.Debit(0).Equal(dec("-10")) || h.Count(1) != 2 || !h.Net(1).IsZero() {
		t.Errorf("history = %+v", h)
	}

	// removing the oldest transaction moves Start forward.
	h.apply(newEntry(3, val("25")).neg(), current)
	if h.Len() != 2 || h.Start != date.MustParse("2025-05-01") {
		t.Errorf("after removal history = %+v, want 2 months from 2025-05", h)
	}
	h.apply(newEntry(1, decimal.NullDecimal{}).neg(), current)
	h.apply(newEntry(1, val("0")).neg(), current)
	h.apply(newEntry(0, val("-10")).neg(), current)
	if h.Len() != 0 || !h.Start.IsZero() {
		t.Errorf("emptied history = %+v, want the zero value", h)
	}
}

func TestTransactionHistory_Panics(t *testing.T) {
	current := date.MustParse("2025-06-01")
	testCases := []struct {
		name string
		e    entry
	}{
		{"future month", newEntry(-1, val("1"))},
		{"remove beyond start", newEntry(5, val("1")).neg()},
		{"negative count", entry{offset: 0, credit: decimal.Zero, debit: decimal.Zero, count: -2}},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			h := TransactionHistory{}
			h.apply(newEntry(0, val("2")), current)
			defer func() {
				if recover() == nil {
					t.Errorf("apply(%+v) did not panic", tc.e)
				}
			}()
			h.apply(tc.e, current)
		})
	}
}

func TestTransactionHistory_Shift(t *testing.T) {
	current := date.MustParse("2025-06-01")
	var h TransactionHistory
	h.apply(newEntry(0, val("-10")), current)
	h.shift(2)
	if h.Len() != 3 || !h.Debit(2).Equal(dec("-10")) || h.Count(0) != 0 || h.Start != current {
		t.Errorf("shifted history = %+v", h)
	}
}
