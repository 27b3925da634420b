package tally

import (
	"strings"

	"github.com/etnz/tally/date"
)

// UpdateUser patches the user settings. Changing the base currency
// relocalises every aggregate.
type UpdateUser struct {
	Name         Field[string]
	Currency     Field[ID] // 0 unsets the base currency
	Start        Field[date.Date]
	Demo         Field[bool]
	HideInactive Field[bool]
}

func (c UpdateUser) apply(m *mutation) error {
	u := m.next.User()
	base, changed := c.Currency.Get()
	if changed && base != 0 {
		if err := m.next.checkCurrency(base); err != nil {
			return err
		}
	}
	changed = changed && base != u.Currency

	u.Name = c.Name.Or(u.Name)
	u.Currency = c.Currency.Or(u.Currency)
	u.Start = c.Start.Or(u.Start)
	u.Demo = c.Demo.Or(u.Demo)
	u.HideInactive = c.HideInactive.Or(u.HideInactive)
	m.users().set(UserID, u)
	if changed {
		m.recomputeAll()
	}
	return nil
}

// AddCurrency creates a currency. The first currency becomes the base
// currency when none is set.
type AddCurrency struct {
	Ticker string
	Symbol string
	Colour string
	Rates  []RatePoint
}

func (c AddCurrency) apply(m *mutation) error {
	ticker := strings.TrimSpace(c.Ticker)
	if ticker == "" {
		return invalid("ticker", "empty ticker")
	}
	rates, err := checkRates(c.Rates)
	if err != nil {
		return err
	}
	currencies := m.currencies()
	id := currencies.allocate()
	currencies.insert(id, Currency{ID: id, Ticker: ticker, Symbol: c.Symbol, Colour: c.Colour, Rates: rates})

	if u := m.next.User(); u.Currency == 0 {
		u.Currency = id
		m.users().set(UserID, u)
		if m.next.transactions.Len() > 0 {
			m.recomputeAll()
		}
	}
	return nil
}

// UpdateCurrency patches a currency display fields.
type UpdateCurrency struct {
	ID     ID
	Ticker Field[string]
	Symbol Field[string]
	Colour Field[string]
}

func (c UpdateCurrency) apply(m *mutation) error {
	cur, ok := m.next.currencies.Get(c.ID)
	if !ok {
		return missing("currency", c.ID)
	}
	if t, ok := c.Ticker.Get(); ok && strings.TrimSpace(t) == "" {
		return invalid("ticker", "empty ticker")
	}
	cur.Ticker = strings.TrimSpace(c.Ticker.Or(cur.Ticker))
	cur.Symbol = c.Symbol.Or(cur.Symbol)
	cur.Colour = c.Colour.Or(cur.Colour)
	m.currencies().set(c.ID, cur)
	return nil
}

// SetRates replaces the rate table of a currency.
type SetRates struct {
	Currency ID
	Rates    []RatePoint
}

func (c SetRates) apply(m *mutation) error {
	old, ok := m.next.currencies.Get(c.Currency)
	if !ok {
		return missing("currency", c.Currency)
	}
	rates, err := checkRates(c.Rates)
	if err != nil {
		return err
	}
	cur := old
	cur.Rates = rates
	m.currencies().set(c.Currency, cur)
	m.ratesChanged(old)
	return nil
}

// DeleteCurrency deletes a currency. Transactions in that currency move to
// Replacement, which is then required. When the base currency is deleted,
// Replacement becomes the base currency (0 unsets it).
type DeleteCurrency struct {
	ID          ID
	Replacement ID
}

func (c DeleteCurrency) apply(m *mutation) error {
	s := m.next
	if err := s.checkCurrency(c.ID); err != nil {
		return err
	}
	if c.Replacement != 0 {
		if c.Replacement == c.ID {
			return invalid("replacement", "currency %d cannot replace itself", c.ID)
		}
		if err := s.checkCurrency(c.Replacement); err != nil {
			return err
		}
	}
	var used []Transaction
	for _, t := range s.transactions.All() {
		if t.Currency == c.ID {
			used = append(used, t)
		}
	}
	if len(used) > 0 && c.Replacement == 0 {
		return &ValidationError{Field: "replacement", Reason: "currency is used by transactions", Err: ErrInUse}
	}

	for _, t := range used {
		t.Currency = c.Replacement
		m.replaceTransaction(t)
	}
	m.currencies().remove(c.ID)
	if u := s.User(); u.Currency == c.ID {
		u.Currency = c.Replacement
		m.users().set(UserID, u)
		m.recomputeAll()
	}
	return nil
}
