package tally

import (
	"maps"

	"github.com/etnz/tally/date"
	"github.com/shopspring/decimal"
)

// State is an immutable snapshot of the whole dataset and its aggregates.
//
// All histories are indexed by month offsets relative to Current.
type State struct {
	current date.Date // first day of the current month

	users        *Collection[User]
	currencies   *Collection[Currency]
	institutions *Collection[Institution]
	accounts     *Collection[Account]
	categories   *Collection[Category]
	rules        *Collection[Rule]
	statements   *Collection[Statement]
	transactions *Collection[Transaction]
}

// Current returns the first day of the month at index 0 of every history.
func (s *State) Current() date.Date { return s.current }

// User returns the user settings.
func (s *State) User() User {
	u, ok := s.users.Get(UserID)
	if !ok {
		panic("state: no user")
	}
	return u
}

func (s *State) Users() *Collection[User]               { return s.users }
func (s *State) Currencies() *Collection[Currency]       { return s.currencies }
func (s *State) Institutions() *Collection[Institution] { return s.institutions }
func (s *State) Accounts() *Collection[Account]         { return s.accounts }
func (s *State) Categories() *Collection[Category]       { return s.categories }
func (s *State) Rules() *Collection[Rule]               { return s.rules }
func (s *State) Statements() *Collection[Statement]     { return s.statements }
func (s *State) Transactions() *Collection[Transaction] { return s.transactions }

// Empty returns a state with only the user and the reserved entities.
func Empty(today date.Date) *State {
	s := &State{
		current:      today.StartOfMonth(),
		users:        newCollection[User](),
		currencies:   newCollection[Currency](),
		institutions: newCollection[Institution](),
		accounts:     newCollection[Account](),
		categories:   newCollection[Category](),
		rules:        newCollection[Rule](),
		statements:   newCollection[Statement](),
		transactions: newCollection[Transaction](),
	}
	s.users.insert(UserID, User{ID: UserID, Start: today})
	s.categories.insert(PlaceholderCategory, Category{ID: PlaceholderCategory, Name: "Uncategorised"})
	s.categories.insert(TransferCategory, Category{ID: TransferCategory, Name: "Transfer"})
	s.institutions.insert(PlaceholderInstitution, Institution{ID: PlaceholderInstitution, Name: "No Institution"})
	s.statements.insert(PlaceholderStatement, Statement{ID: PlaceholderStatement, Name: "Manual"})
	return s
}

// Roll moves the current month forward to today's month, shifting every
// history. It returns s unchanged when the month did not change.
func (s *State) Roll(today date.Date) *State {
	n := date.MonthsBetween(s.current, today)
	if n <= 0 {
		return s
	}
	m := newMutation(s)
	m.next.current = today.StartOfMonth()

	accounts := m.accounts()
	for id, a := range accounts.All() {
		a.Transactions = a.Transactions.clone()
		a.Transactions.shift(n)
		balances := make(map[ID]BalanceHistory, len(a.Balances))
		for cur, b := range a.Balances {
			b.shift(n)
			balances[cur] = m.next.localiseBalance(b, cur)
		}
		a.Balances = balances
		accounts.set(id, a)
	}
	categories := m.categories()
	for id, c := range categories.All() {
		c.Transactions = c.Transactions.clone()
		c.Transactions.shift(n)
		if !c.Budget.IsZero() {
			// new months have no explicit value.
			c.Budget.Values = append(make([]decimal.NullDecimal, n), c.Budget.Values...)
		}
		categories.set(id, c)
	}
	currencies := m.currencies()
	for id, c := range currencies.All() {
		c.Transactions.Original = c.Transactions.Original.clone()
		c.Transactions.Original.shift(n)
		c.Transactions.Localised = c.Transactions.Localised.clone()
		c.Transactions.Localised.shift(n)
		currencies.set(id, c)
	}
	return m.next
}

// mutation is a State under construction. Collections are cloned on first
// write so the original State is never modified.
type mutation struct {
	next  *State
	owned map[string]bool
	stale map[pair]bool // balance histories to rebuild before the state is returned
}

func newMutation(s *State) *mutation {
	next := *s
	return &mutation{next: &next, owned: make(map[string]bool)}
}

func own[T any](m *mutation, name string, c **Collection[T]) *Collection[T] {
	if !m.owned[name] {
		*c = (*c).clone()
		m.owned[name] = true
	}
	return *c
}

func (m *mutation) users() *Collection[User] { return own(m, "users", &m.next.users) }
func (m *mutation) currencies() *Collection[Currency] {
	return own(m, "currencies", &m.next.currencies)
}
func (m *mutation) institutions() *Collection[Institution] {
	return own(m, "institutions", &m.next.institutions)
}
func (m *mutation) accounts() *Collection[Account] { return own(m, "accounts", &m.next.accounts) }
func (m *mutation) categories() *Collection[Category] {
	return own(m, "categories", &m.next.categories)
}
func (m *mutation) rules() *Collection[Rule] { return own(m, "rules", &m.next.rules) }
func (m *mutation) statements() *Collection[Statement] {
	return own(m, "statements", &m.next.statements)
}
func (m *mutation) transactions() *Collection[Transaction] {
	return own(m, "transactions", &m.next.transactions)
}

// cloneBalances returns a copy of an account balance map, safe to modify.
func cloneBalances(b map[ID]BalanceHistory) map[ID]BalanceHistory {
	if b == nil {
		return make(map[ID]BalanceHistory)
	}
	return maps.Clone(b)
}
