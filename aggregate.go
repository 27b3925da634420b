package tally

import (
	"fmt"

	"github.com/etnz/tally/date"
	"github.com/shopspring/decimal"
)

// Recompute returns a copy of s whose aggregates are all rebuilt from the
// transactions in a single pass.
//
// It is the reference the incremental maintenance is checked against, and
// the way caches are rebuilt after a whole-state import.
func Recompute(s *State) *State {
	m := newMutation(s)
	m.recomputeAll()
	return m.next
}

// entries returns the native and localised contributions of a transaction.
func (s *State) entries(t Transaction) (native, local entry) {
	offset := date.Offset(t.Date, s.current)
	return newEntry(offset, t.Value), newEntry(offset, s.localised(t.Value, t.Currency, t.Date))
}

// chain returns a category followed by all its ancestors.
func (s *State) chain(category ID) []ID {
	c, ok := s.categories.Get(category)
	if !ok {
		panic(fmt.Sprintf("aggregate: unknown category %d", category))
	}
	return append([]ID{category}, c.Hierarchy...)
}

// pair identifies the balance of an account in one currency.
type pair struct{ account, currency ID }

func (m *mutation) recomputeAll() {
	s := m.next
	m.stale = nil
	current := s.current

	histories := func() (map[ID]*TransactionHistory, func(ID) *TransactionHistory) {
		all := make(map[ID]*TransactionHistory)
		return all, func(id ID) *TransactionHistory {
			h, ok := all[id]
			if !ok {
				h = new(TransactionHistory)
				all[id] = h
			}
			return h
		}
	}
	accountHistories, account := histories()
	categoryHistories, category := histories()
	nativeHistories, native := histories()
	localHistories, local := histories()
	recorded := make(map[pair]*date.History[decimal.Decimal])

	for _, t := range s.transactions.All() {
		n, l := s.entries(t)
		account(t.Account).apply(l, current)
		for _, c := range s.chain(t.Category) {
			category(c).apply(l, current)
		}
		native(t.Currency).apply(n, current)
		local(t.Currency).apply(l, current)
		if t.RecordedBalance.Valid {
			p := pair{t.Account, t.Currency}
			if recorded[p] == nil {
				recorded[p] = new(date.History[decimal.Decimal])
			}
			recorded[p].Append(t.Date, t.RecordedBalance.Decimal)
		}
	}

	balances := make(map[ID]map[ID]BalanceHistory)
	for p, points := range recorded {
		if balances[p.account] == nil {
			balances[p.account] = make(map[ID]BalanceHistory)
		}
		balances[p.account][p.currency] = s.balanceHistory(points, p.currency)
	}

	accounts := m.accounts()
	for id, a := range accounts.All() {
		a.Transactions = deref(accountHistories[id])
		a.Balances = balances[id]
		accounts.set(id, a)
	}
	categories := m.categories()
	for id, c := range categories.All() {
		c.Transactions = deref(categoryHistories[id])
		categories.set(id, c)
	}
	currencies := m.currencies()
	for id, c := range currencies.All() {
		c.Transactions = LocalisedHistory{Original: deref(nativeHistories[id]), Localised: deref(localHistories[id])}
		currencies.set(id, c)
	}
}

func deref(h *TransactionHistory) TransactionHistory {
	if h == nil {
		return TransactionHistory{}
	}
	return *h
}

// balanceHistory builds month-end balances from recorded balance points.
func (s *State) balanceHistory(points *date.History[decimal.Decimal], currency ID) BalanceHistory {
	first, _, ok := points.First()
	if !ok {
		return BalanceHistory{}
	}
	n := date.Offset(first, s.current) + 1
	b := BalanceHistory{Start: first.StartOfMonth(), Original: make([]decimal.Decimal, n)}
	for i := range n {
		v, _ := points.ValueAsOf(date.FromOffset(i, s.current).EndOfMonth())
		b.Original[i] = v
	}
	return s.localiseBalance(b, currency)
}

// localiseBalance fills the localised balances from the native ones.
func (s *State) localiseBalance(b BalanceHistory, currency ID) BalanceHistory {
	b.Localised = make([]decimal.Decimal, len(b.Original))
	for i, v := range b.Original {
		b.Localised[i] = s.Localise(v, currency, date.FromOffset(i, s.current))
	}
	return b
}
