package tally

import (
	"fmt"
	"slices"

	"github.com/etnz/tally/date"
	"github.com/shopspring/decimal"
)

// This file keeps the aggregates up to date incrementally. Every function
// here is called with the entity writes already validated: an inconsistency
// is a programming error and panics.

// insertTransaction adds a new transaction and its contributions.
func (m *mutation) insertTransaction(t Transaction) {
	m.transactions().insert(t.ID, t)
	m.contribute(t, false)
	if t.RecordedBalance.Valid {
		m.staleBalance(pair{t.Account, t.Currency})
	}
}

// removeTransaction deletes a transaction and its contributions.
func (m *mutation) removeTransaction(id ID) {
	t, ok := m.next.transactions.Get(id)
	if !ok {
		panic(fmt.Sprintf("maintain: remove unknown transaction %d", id))
	}
	m.transactions().remove(id)
	m.contribute(t, true)
	if t.RecordedBalance.Valid {
		m.staleBalance(pair{t.Account, t.Currency})
	}
}

// replaceTransaction updates a transaction: its old contributions are
// removed before the new ones are added, even when the grouping keys are
// the same.
func (m *mutation) replaceTransaction(t Transaction) {
	old, ok := m.next.transactions.Get(t.ID)
	if !ok {
		panic(fmt.Sprintf("maintain: replace unknown transaction %d", t.ID))
	}
	m.transactions().set(t.ID, t)
	if !aggregated(old, t) {
		return
	}
	m.contribute(old, true)
	m.contribute(t, false)

	if old.RecordedBalance.Valid {
		m.staleBalance(pair{old.Account, old.Currency})
	}
	if t.RecordedBalance.Valid || old.RecordedBalance.Valid {
		m.staleBalance(pair{t.Account, t.Currency})
	}
}

// aggregated reports whether the change from a to b touches any aggregate.
func aggregated(a, b Transaction) bool {
	return a.Date != b.Date ||
		a.Account != b.Account ||
		a.Category != b.Category ||
		a.Currency != b.Currency ||
		!sameNull(a.Value, b.Value) ||
		!sameNull(a.RecordedBalance, b.RecordedBalance)
}

// contribute adds (or removes) a transaction to the account, category chain
// and currency histories.
func (m *mutation) contribute(t Transaction, remove bool) {
	native, local := m.next.entries(t)
	if remove {
		native, local = native.neg(), local.neg()
	}
	m.applyAccount(t.Account, local)
	for _, c := range m.next.chain(t.Category) {
		m.applyCategory(c, local)
	}
	m.applyCurrency(t.Currency, &native, local)
}

func (m *mutation) applyAccount(id ID, e entry) {
	accounts := m.accounts()
	a, ok := accounts.Get(id)
	if !ok {
		panic(fmt.Sprintf("maintain: unknown account %d", id))
	}
	a.Transactions = a.Transactions.clone()
	a.Transactions.apply(e, m.next.current)
	accounts.set(id, a)
}

func (m *mutation) applyCategory(id ID, e entry) {
	categories := m.categories()
	c, ok := categories.Get(id)
	if !ok {
		panic(fmt.Sprintf("maintain: unknown category %d", id))
	}
	c.Transactions = c.Transactions.clone()
	c.Transactions.apply(e, m.next.current)
	categories.set(id, c)
}

// applyCurrency applies the localised entry, and the native one unless nil.
func (m *mutation) applyCurrency(id ID, native *entry, local entry) {
	currencies := m.currencies()
	c, ok := currencies.Get(id)
	if !ok {
		panic(fmt.Sprintf("maintain: unknown currency %d", id))
	}
	if native != nil {
		c.Transactions.Original = c.Transactions.Original.clone()
		c.Transactions.Original.apply(*native, m.next.current)
	}
	c.Transactions.Localised = c.Transactions.Localised.clone()
	c.Transactions.Localised.apply(local, m.next.current)
	currencies.set(id, c)
}

// staleBalance marks the balance history of a pair for refreshBalances.
func (m *mutation) staleBalance(p pair) {
	if m.stale == nil {
		m.stale = make(map[pair]bool)
	}
	m.stale[p] = true
}

// refreshBalances rebuilds every stale balance history, in one pass over the
// transactions.
func (m *mutation) refreshBalances() {
	if len(m.stale) == 0 {
		return
	}
	points := make(map[pair]*date.History[decimal.Decimal], len(m.stale))
	for _, t := range m.next.transactions.All() {
		p := pair{t.Account, t.Currency}
		if !t.RecordedBalance.Valid || !m.stale[p] {
			continue
		}
		if points[p] == nil {
			points[p] = new(date.History[decimal.Decimal])
		}
		points[p].Append(t.Date, t.RecordedBalance.Decimal)
	}
	for p := range m.stale {
		m.refreshBalance(p, points[p])
	}
	m.stale = nil
}

// refreshBalance rebuilds the balance history of one account in one currency
// from that pair's recorded balances, nil when it has none.
func (m *mutation) refreshBalance(p pair, points *date.History[decimal.Decimal]) {
	accounts := m.accounts()
	a, ok := accounts.Get(p.account)
	if !ok {
		return // the account is being deleted.
	}
	balances := cloneBalances(a.Balances)
	if points == nil || points.Len() == 0 {
		delete(balances, p.currency)
	} else {
		balances[p.currency] = m.next.balanceHistory(points, p.currency)
	}
	if len(balances) == 0 {
		balances = nil
	}
	a.Balances = balances
	accounts.set(p.account, a)
}

// ratesChanged updates the localised aggregates after the rates of a
// currency changed from 'old' to the rates currently in the state.
func (m *mutation) ratesChanged(old Currency) {
	s := m.next
	id, base := old.ID, s.User().Currency
	if id == base {
		// every localised value depends on the base currency rates.
		m.recomputeAll()
		return
	}
	c, ok := s.currencies.Get(id)
	if !ok {
		panic(fmt.Sprintf("maintain: unknown currency %d", id))
	}
	from, all, changed := firstRateChange(old.Rates, c.Rates)
	if !changed {
		return
	}

	for _, t := range s.transactions.All() {
		if t.Currency != id || t.Stub() || t.Value.Decimal.IsZero() {
			continue
		}
		if !all && t.Date.Before(from) {
			continue
		}
		before := t.Value.Decimal.Div(rateAsOf(old.Rates, t.Date)).Mul(s.rate(base, t.Date))
		delta := s.Localise(t.Value.Decimal, id, t.Date).Sub(before)
		if delta.IsZero() {
			continue
		}
		e := entry{offset: date.Offset(t.Date, s.current), credit: decimal.Zero, debit: decimal.Zero}
		if t.Value.Decimal.IsPositive() {
			e.credit = delta
		} else {
			e.debit = delta
		}
		m.applyAccount(t.Account, e)
		for _, cat := range s.chain(t.Category) {
			m.applyCategory(cat, e)
		}
		m.applyCurrency(id, nil, e)
	}

	accounts := m.accounts()
	for aid, a := range accounts.All() {
		b, ok := a.Balances[id]
		if !ok {
			continue
		}
		balances := cloneBalances(a.Balances)
		balances[id] = s.localiseBalance(b, id)
		a.Balances = balances
		accounts.set(aid, a)
	}
}

// reparent moves a category, and its whole subtree, under 'parent' (0 for
// top-level). The category rolled-up history moves from the old ancestors to
// the new ones.
func (m *mutation) reparent(id, parent ID) {
	categories := m.categories()
	c, ok := categories.Get(id)
	if !ok {
		panic(fmt.Sprintf("maintain: reparent unknown category %d", id))
	}
	var chain []ID
	if parent != 0 {
		p, ok := categories.Get(parent)
		if !ok {
			panic(fmt.Sprintf("maintain: reparent under unknown category %d", parent))
		}
		chain = append([]ID{parent}, p.Hierarchy...)
	}
	if slices.Contains(chain, id) {
		panic(fmt.Sprintf("maintain: category %d under its own descendant %d", id, parent))
	}
	old := c.Hierarchy

	rolled := c.Transactions
	for _, a := range old {
		ancestor, _ := categories.Get(a)
		ancestor.Transactions = ancestor.Transactions.clone()
		ancestor.Transactions.sub(rolled, m.next.current)
		categories.set(a, ancestor)
	}
	for _, a := range chain {
		ancestor, _ := categories.Get(a)
		ancestor.Transactions = ancestor.Transactions.clone()
		ancestor.Transactions.add(rolled, m.next.current)
		categories.set(a, ancestor)
	}

	// Rewrite the hierarchy of the category and its descendants: everything
	// above 'id' is replaced by the new chain.
	for did, d := range categories.All() {
		k := slices.Index(d.Hierarchy, id)
		switch {
		case did == id:
			d.Hierarchy = slices.Clone(chain)
		case k >= 0:
			d.Hierarchy = slices.Concat(d.Hierarchy[:k+1], chain)
		default:
			continue
		}
		categories.set(did, d)
	}
}

// sameNull reports whether two nullable values are both unknown or equal.
func sameNull(a, b decimal.NullDecimal) bool {
	if a.Valid != b.Valid {
		return false
	}
	return !a.Valid || a.Decimal.Equal(b.Decimal)
}
