package tally

import (
	"github.com/etnz/tally/date"
	"github.com/shopspring/decimal"
)

// Summary is the overview of one month, in the base currency.
type Summary struct {
	Month    date.Date
	Income   decimal.Decimal // credits, transfers excluded
	Expenses decimal.Decimal // debits, negative, transfers excluded
	Count    int
	NetWorth decimal.Decimal // sum of the month-end balances of every account
}

// Net returns income plus expenses.
func (s Summary) Net() decimal.Decimal { return s.Income.Add(s.Expenses) }

// Summary returns the summary of the month at offset.
func (s *State) Summary(offset int) Summary {
	sum := Summary{Month: date.FromOffset(offset, s.current), Income: decimal.Zero, Expenses: decimal.Zero, NetWorth: decimal.Zero}
	for id, c := range s.categories.All() {
		if id == TransferCategory || len(c.Hierarchy) > 0 {
			continue
		}
		sum.Income = sum.Income.Add(c.Transactions.Credit(offset))
		sum.Expenses = sum.Expenses.Add(c.Transactions.Debit(offset))
		sum.Count += c.Transactions.Count(offset)
	}
	sum.NetWorth = s.NetWorth(offset)
	return sum
}

// NetWorth returns the sum of all account balances at the end of the month
// at offset, in the base currency.
func (s *State) NetWorth(offset int) decimal.Decimal {
	total := decimal.Zero
	for _, a := range s.accounts.All() {
		total = total.Add(a.Balance(offset))
	}
	return total
}

// Balance returns the account balance at the end of the month at offset, in
// the base currency.
func (a Account) Balance(offset int) decimal.Decimal {
	total := decimal.Zero
	for _, b := range a.Balances {
		_, local := b.At(offset)
		total = total.Add(local)
	}
	return total
}

// Trend returns the summaries of the n months ending at offset, oldest first.
func (s *State) Trend(offset, n int) []Summary {
	trend := make([]Summary, 0, max(n, 0))
	for i := n - 1; i >= 0; i-- {
		trend = append(trend, s.Summary(offset+i))
	}
	return trend
}
