package tally

import (
	"fmt"
	"slices"

	"github.com/etnz/tally/date"
	"github.com/shopspring/decimal"
)

// TransactionHistory holds monthly credits (values > 0), debits (values < 0)
// and transaction counts.
//
// Index 0 is the current month of the State, index i the month i months
// before it. Arrays reach back to Start, the month of the oldest counted
// transaction. The zero value is an empty history.
type TransactionHistory struct {
	Start   date.Date
	Credits []decimal.Decimal
	Debits  []decimal.Decimal
	Counts  []int
}

// Len returns the number of months in the history.
func (h TransactionHistory) Len() int { return len(h.Counts) }

// Credit returns the credits at a month offset, zero outside the history.
func (h TransactionHistory) Credit(offset int) decimal.Decimal { return at(h.Credits, offset) }

// Debit returns the debits at a month offset, zero outside the history.
func (h TransactionHistory) Debit(offset int) decimal.Decimal { return at(h.Debits, offset) }

// Net returns credits plus debits at a month offset.
func (h TransactionHistory) Net(offset int) decimal.Decimal {
	return h.Credit(offset).Add(h.Debit(offset))
}

// Count returns the number of transactions at a month offset.
func (h TransactionHistory) Count(offset int) int {
	if offset < 0 || offset >= len(h.Counts) {
		return 0
	}
	return h.Counts[offset]
}

func at(values []decimal.Decimal, offset int) decimal.Decimal {
	if offset < 0 || offset >= len(values) {
		return decimal.Zero
	}
	return values[offset]
}

func (h TransactionHistory) clone() TransactionHistory {
	return TransactionHistory{
		Start:   h.Start,
		Credits: slices.Clone(h.Credits),
		Debits:  slices.Clone(h.Debits),
		Counts:  slices.Clone(h.Counts),
	}
}

// entry is the contribution of one transaction to a history.
type entry struct {
	offset int
	credit decimal.Decimal
	debit  decimal.Decimal
	count  int
}

func (e entry) neg() entry {
	return entry{offset: e.offset, credit: e.credit.Neg(), debit: e.debit.Neg(), count: -e.count}
}

// newEntry splits a value into its credit or debit part.
// A stub contributes to the count only.
func newEntry(offset int, value decimal.NullDecimal) entry {
	e := entry{offset: offset, credit: decimal.Zero, debit: decimal.Zero, count: 1}
	switch {
	case !value.Valid:
	case value.Decimal.IsPositive():
		e.credit = value.Decimal
	case value.Decimal.IsNegative():
		e.debit = value.Decimal
	}
	return e
}

// apply adds e to h in place. h must not be shared with a published State.
//
// Adding before Start grows the arrays backward in time; removing the last
// transactions of the oldest months shrinks them so that Start is always the
// month of the oldest counted transaction.
func (h *TransactionHistory) apply(e entry, current date.Date) {
	if e.offset < 0 {
		panic(fmt.Sprintf("history: month offset %d after the current month", e.offset))
	}
	if e.offset >= len(h.Counts) {
		if e.count <= 0 {
			panic(fmt.Sprintf("history: removing from month offset %d beyond start %v", e.offset, h.Start))
		}
		h.grow(e.offset + 1)
		h.Start = date.FromOffset(e.offset, current)
	}
	h.Credits[e.offset] = h.Credits[e.offset].Add(e.credit)
	h.Debits[e.offset] = h.Debits[e.offset].Add(e.debit)
	h.Counts[e.offset] += e.count
	if h.Counts[e.offset] < 0 {
		panic(fmt.Sprintf("history: negative count at month offset %d", e.offset))
	}
	if e.count < 0 {
		h.trim(current)
	}
}

func (h *TransactionHistory) grow(n int) {
	for len(h.Counts) < n {
		h.Credits = append(h.Credits, decimal.Zero)
		h.Debits = append(h.Debits, decimal.Zero)
		h.Counts = append(h.Counts, 0)
	}
}

func (h *TransactionHistory) trim(current date.Date) {
	n := len(h.Counts)
	for n > 0 && h.Counts[n-1] == 0 {
		n--
	}
	if n == 0 {
		*h = TransactionHistory{}
		return
	}
	h.Credits, h.Debits, h.Counts = h.Credits[:n], h.Debits[:n], h.Counts[:n]
	h.Start = date.FromOffset(n-1, current)
}

// add adds every month of o into h in place, aligned on month offsets.
func (h *TransactionHistory) add(o TransactionHistory, current date.Date) {
	for i := o.Len() - 1; i >= 0; i-- {
		h.apply(entry{offset: i, credit: o.Credits[i], debit: o.Debits[i], count: o.Counts[i]}, current)
	}
}

// sub removes every month of o from h in place.
func (h *TransactionHistory) sub(o TransactionHistory, current date.Date) {
	for i := 0; i < o.Len(); i++ {
		h.apply(entry{offset: i, credit: o.Credits[i].Neg(), debit: o.Debits[i].Neg(), count: -o.Counts[i]}, current)
	}
}

// shift moves the history n months into the past, the new current months are empty.
func (h *TransactionHistory) shift(n int) {
	if h.Len() == 0 || n <= 0 {
		return
	}
	zeros := make([]decimal.Decimal, n)
	for i := range zeros {
		zeros[i] = decimal.Zero
	}
	h.Credits = slices.Concat(zeros, h.Credits)
	h.Debits = slices.Concat(zeros, h.Debits)
	h.Counts = slices.Concat(make([]int, n), h.Counts)
}

// LocalisedHistory is a TransactionHistory in both the native currency and
// the user's base currency.
type LocalisedHistory struct {
	Original  TransactionHistory
	Localised TransactionHistory
}

// BalanceHistory holds month-end balances of an account in one currency.
//
// Index 0 is the current month. Start is the month of the earliest recorded
// balance, before it there is no known balance.
type BalanceHistory struct {
	Start     date.Date
	Original  []decimal.Decimal
	Localised []decimal.Decimal
}

// Len returns the number of months in the history.
func (b BalanceHistory) Len() int { return len(b.Original) }

// At returns the native and localised balance at a month offset, zero outside the history.
func (b BalanceHistory) At(offset int) (original, localised decimal.Decimal) {
	return at(b.Original, offset), at(b.Localised, offset)
}

// shift moves the history n months into the past, the new current months
// carry the latest balance forward. Localised values must be recomputed.
func (b *BalanceHistory) shift(n int) {
	if b.Len() == 0 || n <= 0 {
		return
	}
	o := make([]decimal.Decimal, n)
	for i := range n {
		o[i] = b.Original[0]
	}
	b.Original = slices.Concat(o, b.Original)
	b.Localised = nil
}
