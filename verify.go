package tally

import (
	"errors"
	"fmt"

	"github.com/etnz/tally/date"
	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/shopspring/decimal"
)

// caches gathers every aggregate of a State.
type caches struct {
	Accounts   map[ID]TransactionHistory
	Balances   map[ID]map[ID]BalanceHistory
	Categories map[ID]TransactionHistory
	Currencies map[ID]LocalisedHistory
}

func (s *State) caches() caches {
	c := caches{
		Accounts:   make(map[ID]TransactionHistory),
		Balances:   make(map[ID]map[ID]BalanceHistory),
		Categories: make(map[ID]TransactionHistory),
		Currencies: make(map[ID]LocalisedHistory),
	}
	for id, a := range s.accounts.All() {
		c.Accounts[id] = a.Transactions
		c.Balances[id] = a.Balances
	}
	for id, cat := range s.categories.All() {
		c.Categories[id] = cat.Transactions
	}
	for id, cur := range s.currencies.All() {
		c.Currencies[id] = cur.Transactions
	}
	return c
}

// cacheOptions compares aggregates to the cent.
var cacheOptions = cmp.Options{
	cmp.Comparer(func(a, b decimal.Decimal) bool { return a.Round(2).Equal(b.Round(2)) }),
	cmp.Comparer(func(a, b date.Date) bool { return a == b }),
	cmpopts.EquateEmpty(),
}

// Verify checks that s is consistent: collections are sound, exactly one
// user exists, categories form a tree, every reference resolves, and every
// aggregate equals its full recomputation.
func (s *State) Verify() error {
	var errs []error
	check := func(name string, err error) {
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", name, err))
		}
	}
	check("users", s.users.consistent())
	check("currencies", s.currencies.consistent())
	check("institutions", s.institutions.consistent())
	check("accounts", s.accounts.consistent())
	check("categories", s.categories.consistent())
	check("rules", s.rules.consistent())
	check("statements", s.statements.consistent())
	check("transactions", s.transactions.consistent())
	if ids := s.users.IDs(); len(ids) != 1 || ids[0] != UserID {
		errs = append(errs, fmt.Errorf("users: want the single user %d, got %v", UserID, ids))
	}
	if len(errs) > 0 {
		// the checks below rely on sound collections.
		return errors.Join(errs...)
	}

	for _, id := range []ID{PlaceholderCategory, TransferCategory} {
		check("categories", s.checkCategory(id))
	}
	check("institutions", s.checkInstitution(PlaceholderInstitution))
	check("statements", s.checkStatement(PlaceholderStatement))
	if u := s.User(); u.Currency != 0 {
		check("user", s.checkCurrency(u.Currency))
	}
	for id, c := range s.categories.All() {
		check(fmt.Sprintf("category %d", id), s.checkHierarchy(c))
	}
	for id, a := range s.accounts.All() {
		check(fmt.Sprintf("account %d", id), s.checkInstitution(a.Institution))
	}
	for id, st := range s.statements.All() {
		if id != PlaceholderStatement {
			check(fmt.Sprintf("statement %d", id), s.checkAccount(st.Account))
		}
	}
	for i, id := range s.rules.IDs() {
		r, _ := s.rules.Get(id)
		check(fmt.Sprintf("rule %d", id), s.checkRule(r))
		if r.Index != i {
			errs = append(errs, fmt.Errorf("rule %d: index %d at position %d", id, r.Index, i))
		}
	}
	for id, t := range s.transactions.All() {
		check(fmt.Sprintf("transaction %d", id), s.checkTransaction(t))
	}
	if len(errs) > 0 {
		return errors.Join(errs...)
	}

	if diff := cmp.Diff(Recompute(s).caches(), s.caches(), cacheOptions); diff != "" {
		return fmt.Errorf("aggregates differ from a full recompute (-want +got):\n%s", diff)
	}
	return nil
}
