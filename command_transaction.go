package tally

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/etnz/tally/date"
	"github.com/shopspring/decimal"
)

// Record is one parsed line of a statement.
type Record struct {
	Date            date.Date           `json:"date"`
	Reference       string              `json:"reference"`
	Value           decimal.NullDecimal `json:"value"`
	Currency        ID                  `json:"currency,omitempty"` // defaults to the base currency
	RecordedBalance decimal.NullDecimal `json:"balance,omitzero"`
	Summary         string              `json:"summary,omitempty"` // defaults to Reference
	Description     string              `json:"description,omitempty"`
}

// ImportStatement creates a statement and its transactions on an account,
// applies the rules to them, and moves the account last update forward.
//
// A single invalid record rejects the whole statement with a *RecordError.
type ImportStatement struct {
	Account  ID
	Name     string
	Contents string
	Date     date.Date // defaults to the latest record date
	Records  []Record
}

func (c ImportStatement) apply(m *mutation) error {
	s := m.next
	account, ok := s.accounts.Get(c.Account)
	if !ok {
		return missing("account", c.Account)
	}
	name := strings.TrimSpace(c.Name)
	if name == "" {
		return invalid("name", "empty name")
	}
	if len(c.Records) == 0 {
		return invalid("records", "empty statement")
	}

	var errs []error
	var latest date.Date
	txs := make([]Transaction, 0, len(c.Records))
	for i, r := range c.Records {
		t, err := s.recordTransaction(r, c.Account)
		if err != nil {
			errs = append(errs, &RecordError{Index: i, Err: err})
			continue
		}
		if t.Date.After(latest) {
			latest = t.Date
		}
		txs = append(txs, t)
	}
	if len(errs) > 0 {
		return errors.Join(errs...)
	}

	day := c.Date
	if day.IsZero() {
		day = latest
	}
	statements := m.statements()
	sid := statements.allocate()
	statements.insert(sid, Statement{ID: sid, Name: name, Contents: c.Contents, Account: c.Account, Date: day})

	book := s.Rulebook()
	ids := m.transactions()
	for _, t := range txs {
		t.ID = ids.allocate()
		t.Statement = sid
		m.insertTransaction(book.Apply(t))
	}

	if latest.After(account.LastUpdate) {
		account, _ = m.next.accounts.Get(c.Account)
		account.LastUpdate = latest
		m.accounts().set(c.Account, account)
	}
	return nil
}

// recordTransaction validates a record into a transaction of account.
func (s *State) recordTransaction(r Record, account ID) (Transaction, error) {
	if err := s.checkDate("date", r.Date); err != nil {
		return Transaction{}, err
	}
	currency := r.Currency
	if currency == 0 {
		currency = s.User().Currency
		if currency == 0 {
			return Transaction{}, invalid("currency", "no currency and no base currency")
		}
	}
	if err := s.checkCurrency(currency); err != nil {
		return Transaction{}, err
	}
	summary := r.Summary
	if summary == "" {
		summary = r.Reference
	}
	return Transaction{
		Date:            r.Date,
		Summary:         summary,
		Description:     r.Description,
		Reference:       r.Reference,
		Value:           r.Value,
		RecordedBalance: r.RecordedBalance,
		Account:         account,
		Category:        PlaceholderCategory,
		Currency:        currency,
		Statement:       PlaceholderStatement,
	}, nil
}

// DeleteStatement deletes a statement, its transactions are kept as manual
// transactions.
type DeleteStatement struct {
	ID ID
}

func (c DeleteStatement) apply(m *mutation) error {
	s := m.next
	if c.ID == PlaceholderStatement {
		return &ValidationError{Field: "id", Reason: "the manual statement cannot be deleted", Err: ErrReserved}
	}
	if err := s.checkStatement(c.ID); err != nil {
		return err
	}
	for _, t := range s.transactions.All() {
		if t.Statement == c.ID {
			t.Statement = PlaceholderStatement
			m.transactions().set(t.ID, t)
		}
	}
	m.statements().remove(c.ID)
	return nil
}

// AddTransaction creates a manual transaction. The ID of Transaction is
// ignored, a zero Currency means the base currency.
type AddTransaction struct {
	Transaction Transaction
	ApplyRules  bool
}

func (c AddTransaction) apply(m *mutation) error {
	s := m.next
	t := c.Transaction
	if t.Currency == 0 {
		t.Currency = s.User().Currency
	}
	if err := s.checkTransaction(t); err != nil {
		return err
	}
	if c.ApplyRules {
		t = s.Rulebook().Apply(t)
	}
	t.ID = m.transactions().allocate()
	m.insertTransaction(t)
	return nil
}

// TransactionPatch is a partial update of transactions. Absent fields are
// left untouched.
//
// Value and RecordedBalance carry two levels of presence: the field is set
// in the patch, and the value it is set to may be unknown.
type TransactionPatch struct {
	Date            Field[date.Date]
	Summary         Field[string]
	Description     Field[string]
	Reference       Field[string]
	Value           Field[decimal.NullDecimal]
	RecordedBalance Field[decimal.NullDecimal]
	Account         Field[ID]
	Category        Field[ID]
	Currency        Field[ID]
	Statement       Field[ID]
}

// IsZero reports whether the patch changes nothing.
func (p TransactionPatch) IsZero() bool { return p == TransactionPatch{} }

// Patch returns t with the patch applied.
func (p TransactionPatch) Patch(t Transaction) Transaction {
	t.Date = p.Date.Or(t.Date)
	t.Summary = p.Summary.Or(t.Summary)
	t.Description = p.Description.Or(t.Description)
	t.Reference = p.Reference.Or(t.Reference)
	t.Value = p.Value.Or(t.Value)
	t.RecordedBalance = p.RecordedBalance.Or(t.RecordedBalance)
	t.Account = p.Account.Or(t.Account)
	t.Category = p.Category.Or(t.Category)
	t.Currency = p.Currency.Or(t.Currency)
	t.Statement = p.Statement.Or(t.Statement)
	return t
}

// UpdateTransactions applies the same patch to several transactions.
type UpdateTransactions struct {
	IDs   []ID
	Patch TransactionPatch
}

func (c UpdateTransactions) apply(m *mutation) error {
	s := m.next
	if len(c.IDs) == 0 {
		return invalid("ids", "no transaction")
	}
	updated := make([]Transaction, 0, len(c.IDs))
	for _, id := range c.IDs {
		t, ok := s.transactions.Get(id)
		if !ok {
			return missing("transaction", id)
		}
		t = c.Patch.Patch(t)
		if err := s.checkTransaction(t); err != nil {
			return fmt.Errorf("transaction %d: %w", id, err)
		}
		updated = append(updated, t)
	}
	for _, t := range updated {
		m.replaceTransaction(t)
	}
	return nil
}

// DeleteTransactions deletes transactions.
type DeleteTransactions struct {
	IDs []ID
}

func (c DeleteTransactions) apply(m *mutation) error {
	ids := slices.Compact(slices.Sorted(slices.Values(c.IDs)))
	for _, id := range ids {
		if !m.next.transactions.Has(id) {
			return missing("transaction", id)
		}
	}
	for _, id := range ids {
		m.removeTransaction(id)
	}
	return nil
}

// Batch applies commands in order as a single command.
type Batch []Command

func (b Batch) apply(m *mutation) error {
	for i, c := range b {
		if err := c.apply(m); err != nil {
			return fmt.Errorf("batch command %d (%T): %w", i, c, err)
		}
	}
	return nil
}
