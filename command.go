package tally

import (
	"fmt"

	"github.com/etnz/tally/date"
)

// Command is a mutation of a State, see State.Apply.
type Command interface {
	apply(m *mutation) error
}

// Apply returns a new State with the commands applied in order.
//
// Commands are all or nothing: when one fails, the error is returned with s
// itself, and nothing from the previous commands is kept. s is never
// modified.
func (s *State) Apply(cmds ...Command) (*State, error) {
	m := newMutation(s)
	for i, c := range cmds {
		if err := c.apply(m); err != nil {
			if len(cmds) > 1 {
				return s, fmt.Errorf("command %d (%T): %w", i, c, err)
			}
			return s, err
		}
	}
	m.refreshBalances()
	return m.next, nil
}

// --- validation helpers shared by commands ---

func (s *State) checkCurrency(id ID) error {
	if !s.currencies.Has(id) {
		return missing("currency", id)
	}
	return nil
}

func (s *State) checkInstitution(id ID) error {
	if !s.institutions.Has(id) {
		return missing("institution", id)
	}
	return nil
}

func (s *State) checkAccount(id ID) error {
	if !s.accounts.Has(id) {
		return missing("account", id)
	}
	return nil
}

func (s *State) checkCategory(id ID) error {
	if !s.categories.Has(id) {
		return missing("category", id)
	}
	return nil
}

func (s *State) checkStatement(id ID) error {
	if !s.statements.Has(id) {
		return missing("statement", id)
	}
	return nil
}

// checkDate rejects missing dates and dates after the current month: month
// offsets are relative to the current month.
func (s *State) checkDate(field string, d date.Date) error {
	if d.IsZero() {
		return invalid(field, "missing date")
	}
	if d.After(s.current.EndOfMonth()) {
		return &ValidationError{Field: field, Reason: fmt.Sprintf("%v is after %v", d, s.current.EndOfMonth()), Err: ErrFutureDate}
	}
	return nil
}

// checkTransaction validates every reference of a transaction.
func (s *State) checkTransaction(t Transaction) error {
	if err := s.checkDate("date", t.Date); err != nil {
		return err
	}
	if err := s.checkAccount(t.Account); err != nil {
		return err
	}
	if err := s.checkCategory(t.Category); err != nil {
		return err
	}
	if err := s.checkCurrency(t.Currency); err != nil {
		return err
	}
	return s.checkStatement(t.Statement)
}

// checkRates normalizes a rate table: months are moved to their first day,
// sorted, and must be unique with positive rates.
func checkRates(rates []RatePoint) ([]RatePoint, error) {
	h := make([]RatePoint, 0, len(rates))
	for i, p := range rates {
		if p.Month.IsZero() {
			return nil, invalid(fmt.Sprintf("rates[%d]", i), "missing month")
		}
		if !p.Rate.IsPositive() {
			return nil, invalid(fmt.Sprintf("rates[%d]", i), "rate %v is not positive", p.Rate)
		}
		h = append(h, RatePoint{Month: p.Month.StartOfMonth(), Rate: p.Rate})
	}
	sortRates(h)
	for i := 1; i < len(h); i++ {
		if h[i].Month == h[i-1].Month {
			return nil, invalid("rates", "two rates for %s", h[i].Month.Format(date.MonthFormat))
		}
	}
	return h, nil
}
