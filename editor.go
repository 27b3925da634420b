package tally

import (
	"errors"
	"fmt"
	"slices"

	"github.com/etnz/tally/date"
	"github.com/shopspring/decimal"
)

// Mode is the state of an Editor.
type Mode int

const (
	Viewing       Mode = iota // no edit buffer
	EditingSingle             // buffer holds one transaction
	EditingBulk               // buffer holds the common fields of several transactions
	Creating                  // buffer holds a transaction without ID
)

func (m Mode) String() string {
	switch m {
	case Viewing:
		return "viewing"
	case EditingSingle:
		return "editing"
	case EditingBulk:
		return "bulk editing"
	case Creating:
		return "creating"
	default:
		return fmt.Sprintf("Mode(%d)", int(m))
	}
}

// ErrNotEditing is returned when editing while the editor is Viewing.
var ErrNotEditing = errors.New("no transaction is being edited")

// Buffered is an edited field. Mixed means the selected transactions do not
// share the same value. Dirty means the field was set since the selection.
type Buffered[T comparable] struct {
	Value T
	Mixed bool
	Dirty bool
}

func (b *Buffered[T]) set(v T) { *b = Buffered[T]{Value: v, Dirty: true} }

// merge folds one more selected value in.
func (b *Buffered[T]) merge(v T, first bool) {
	if first {
		b.Value = v
	} else if b.Value != v {
		var zero T
		b.Value, b.Mixed = zero, true
	}
}

// patch returns the field as a patch field, set only when dirty.
func (b Buffered[T]) patch() Field[T] {
	if !b.Dirty {
		return Field[T]{}
	}
	return Set(b.Value)
}

// Buffer is the edit buffer of an Editor.
type Buffer struct {
	Date        Buffered[date.Date]
	Summary     Buffered[string]
	Description Buffered[string]
	Reference   Buffered[string]
	Value       Buffered[nullValue]
	Account     Buffered[ID]
	Category    Buffered[ID]
	Currency    Buffered[ID]
}

// nullValue is a comparable decimal.NullDecimal: decimals are compared by
// value, not by representation.
type nullValue struct {
	valid bool
	value string
}

func toNullValue(d decimal.NullDecimal) nullValue {
	if !d.Valid {
		return nullValue{}
	}
	return nullValue{valid: true, value: d.Decimal.String()}
}

func (n nullValue) decimal() decimal.NullDecimal {
	if !n.valid {
		return decimal.NullDecimal{}
	}
	return decimal.NewNullDecimal(decimal.RequireFromString(n.value))
}

// Editor drives the edition of transactions: rows are selected, the buffer
// edited, then saved into a new State or discarded.
type Editor struct {
	mode   Mode
	ids    []ID
	buffer Buffer
}

// Mode returns the editor mode.
func (e *Editor) Mode() Mode { return e.mode }

// IDs returns the transactions being edited.
func (e *Editor) IDs() []ID { return slices.Clone(e.ids) }

// Buffer returns the edit buffer.
func (e *Editor) Buffer() Buffer { return e.buffer }

// Value returns the value in the buffer, and false if it is mixed.
func (e *Editor) Value() (decimal.NullDecimal, bool) {
	return e.buffer.Value.Value.decimal(), !e.buffer.Value.Mixed
}

// Select edits the given transactions: none goes back to Viewing, one is
// EditingSingle, more is EditingBulk. Duplicate IDs count once, and unsaved
// edits are discarded.
func (e *Editor) Select(s *State, ids ...ID) error {
	ids = slices.Compact(slices.Sorted(slices.Values(ids)))
	txs := make([]Transaction, 0, len(ids))
	for _, id := range ids {
		t, ok := s.transactions.Get(id)
		if !ok {
			return missing("transaction", id)
		}
		txs = append(txs, t)
	}
	e.Discard()
	switch len(txs) {
	case 0:
		return nil
	case 1:
		e.mode = EditingSingle
	default:
		e.mode = EditingBulk
	}
	e.ids = ids
	for i, t := range txs {
		first := i == 0
		e.buffer.Date.merge(t.Date, first)
		e.buffer.Summary.merge(t.Summary, first)
		e.buffer.Description.merge(t.Description, first)
		e.buffer.Reference.merge(t.Reference, first)
		e.buffer.Value.merge(toNullValue(t.Value), first)
		e.buffer.Account.merge(t.Account, first)
		e.buffer.Category.merge(t.Category, first)
		e.buffer.Currency.merge(t.Currency, first)
	}
	return nil
}

// New starts Creating a transaction from a template. Every field of the
// template is saved.
func (e *Editor) New(template Transaction) {
	e.Discard()
	e.mode = Creating
	e.buffer.Date.set(template.Date)
	e.buffer.Summary.set(template.Summary)
	e.buffer.Description.set(template.Description)
	e.buffer.Reference.set(template.Reference)
	e.buffer.Value.set(toNullValue(template.Value))
	e.buffer.Account.set(template.Account)
	e.buffer.Category.set(template.Category)
	e.buffer.Currency.set(template.Currency)
}

func (e *Editor) editing() error {
	if e.mode == Viewing {
		return ErrNotEditing
	}
	return nil
}

func (e *Editor) SetDate(d date.Date) error {
	if err := e.editing(); err != nil {
		return err
	}
	e.buffer.Date.set(d)
	return nil
}

func (e *Editor) SetSummary(v string) error {
	if err := e.editing(); err != nil {
		return err
	}
	e.buffer.Summary.set(v)
	return nil
}

func (e *Editor) SetDescription(v string) error {
	if err := e.editing(); err != nil {
		return err
	}
	e.buffer.Description.set(v)
	return nil
}

func (e *Editor) SetReference(v string) error {
	if err := e.editing(); err != nil {
		return err
	}
	e.buffer.Reference.set(v)
	return nil
}

// SetValue sets the value, an invalid one makes a stub.
func (e *Editor) SetValue(v decimal.NullDecimal) error {
	if err := e.editing(); err != nil {
		return err
	}
	e.buffer.Value.set(toNullValue(v))
	return nil
}

func (e *Editor) SetAccount(id ID) error {
	if err := e.editing(); err != nil {
		return err
	}
	e.buffer.Account.set(id)
	return nil
}

func (e *Editor) SetCategory(id ID) error {
	if err := e.editing(); err != nil {
		return err
	}
	e.buffer.Category.set(id)
	return nil
}

func (e *Editor) SetCurrency(id ID) error {
	if err := e.editing(); err != nil {
		return err
	}
	e.buffer.Currency.set(id)
	return nil
}

// Command returns the command saving the buffer, nil when there is nothing
// to save.
func (e *Editor) Command() (Command, error) {
	b := e.buffer
	switch e.mode {
	case Viewing:
		return nil, ErrNotEditing
	case Creating:
		return AddTransaction{Transaction: Transaction{
			Date:        b.Date.Value,
			Summary:     b.Summary.Value,
			Description: b.Description.Value,
			Reference:   b.Reference.Value,
			Value:       b.Value.Value.decimal(),
			Account:     b.Account.Value,
			Category:    b.Category.Value,
			Currency:    b.Currency.Value,
		}}, nil
	}
	p := TransactionPatch{
		Date:        b.Date.patch(),
		Summary:     b.Summary.patch(),
		Description: b.Description.patch(),
		Reference:   b.Reference.patch(),
		Account:     b.Account.patch(),
		Category:    b.Category.patch(),
		Currency:    b.Currency.patch(),
	}
	if b.Value.Dirty {
		p.Value = Set(b.Value.Value.decimal())
	}
	if p.IsZero() {
		return nil, nil
	}
	return UpdateTransactions{IDs: slices.Clone(e.ids), Patch: p}, nil
}

// Save applies the buffer to s and returns to Viewing. On error the editor
// keeps its buffer and s is returned.
func (e *Editor) Save(s *State) (*State, error) {
	cmd, err := e.Command()
	if err != nil {
		return s, err
	}
	if cmd != nil {
		next, err := s.Apply(cmd)
		if err != nil {
			return s, err
		}
		s = next
	}
	e.Discard()
	return s, nil
}

// Discard drops the buffer and returns to Viewing.
func (e *Editor) Discard() {
	*e = Editor{}
}
