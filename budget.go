package tally

import (
	"github.com/etnz/tally/date"
	"github.com/shopspring/decimal"
)

// BudgetLine compares a category budget with its actual transactions for one
// month.
type BudgetLine struct {
	Category  ID
	Month     date.Date
	Target    decimal.Decimal
	HasTarget bool
	Actual    decimal.Decimal // net of the category and its descendants
	Success   bool
}

// Budget returns the budget line of a category at a month offset. A
// category without budget, or a month without target, has no target and is
// never a success.
//
// Success compares signed values: an expense budget of -700 succeeds with
// -650 spent and fails with -750, an income budget of 1000 succeeds from
// 1000 on.
func (s *State) Budget(category ID, offset int) (BudgetLine, error) {
	c, ok := s.categories.Get(category)
	if !ok {
		return BudgetLine{}, missing("category", category)
	}
	line := BudgetLine{
		Category: category,
		Month:    date.FromOffset(offset, s.current),
		Actual:   c.Transactions.Net(offset),
	}
	line.Target, line.HasTarget = target(c, offset, s.current)
	line.Success = line.HasTarget && line.Actual.GreaterThanOrEqual(line.Target)
	return line, nil
}

// Budgets returns the budget lines of every category with a budget.
func (s *State) Budgets(offset int) []BudgetLine {
	var lines []BudgetLine
	for id, c := range s.categories.All() {
		if c.Budget.IsZero() {
			continue
		}
		line, _ := s.Budget(id, offset)
		lines = append(lines, line)
	}
	return lines
}

// target computes the budget target of c at offset.
func target(c Category, offset int, current date.Date) (decimal.Decimal, bool) {
	b := c.Budget
	if b.IsZero() || offset < 0 {
		return decimal.Zero, false
	}
	oldest := len(b.Values) - 1
	if !b.Start.IsZero() {
		oldest = min(oldest, date.Offset(b.Start, current))
	}
	if offset > oldest {
		return decimal.Zero, false
	}

	explicit := func(o int) (decimal.Decimal, bool) {
		if o < len(b.Values) && b.Values[o].Valid {
			return b.Values[o].Decimal, true
		}
		return decimal.Zero, false
	}
	if b.Strategy == Base {
		return explicit(offset)
	}

	// copy and rollover walk from the oldest month toward the offset.
	var last, carry decimal.Decimal
	known := false
	for o := oldest; o >= offset; o-- {
		if v, ok := explicit(o); ok {
			last, known = v, true
		}
		if !known {
			continue
		}
		t := last
		if b.Strategy == Rollover {
			t = t.Add(carry)
			carry = t.Sub(c.Transactions.Net(o))
		}
		if o == offset {
			return t, true
		}
	}
	return decimal.Zero, false
}
