package tally

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"slices"
	"strings"

	"github.com/etnz/tally/date"
	"github.com/shopspring/decimal"
)

func init() {
	decimal.MarshalJSONWithoutQuotes = true
}

// documentVersion is the version of the document written by EncodeState.
const documentVersion = 1

// MarshalJSON writes transactions with a stable field order. An unknown
// value is written as null, never omitted.
func (t Transaction) MarshalJSON() ([]byte, error) {
	var w jsonObjectWriter
	w.Append("id", t.ID)
	w.Append("date", t.Date)
	w.Append("account", t.Account)
	w.Append("currency", t.Currency)
	w.Append("category", t.Category)
	w.Optional("statement", t.Statement)
	w.Append("value", t.Value)
	w.Optional("balance", t.RecordedBalance)
	w.Optional("reference", t.Reference)
	w.Optional("summary", t.Summary)
	w.Optional("description", t.Description)
	return w.MarshalJSON()
}

// UnmarshalJSON reads the object written by MarshalJSON.
func (t *Transaction) UnmarshalJSON(b []byte) error {
	var v struct {
		ID          ID                  `json:"id"`
		Date        date.Date           `json:"date"`
		Account     ID                  `json:"account"`
		Currency    ID                  `json:"currency"`
		Category    ID                  `json:"category"`
		Statement   ID                  `json:"statement"`
		Value       decimal.NullDecimal `json:"value"`
		Balance     decimal.NullDecimal `json:"balance"`
		Reference   string              `json:"reference"`
		Summary     string              `json:"summary"`
		Description string              `json:"description"`
	}
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}
	*t = Transaction{
		ID:              v.ID,
		Date:            v.Date,
		Summary:         v.Summary,
		Description:     v.Description,
		Reference:       v.Reference,
		Value:           v.Value,
		RecordedBalance: v.Balance,
		Account:         v.Account,
		Category:        v.Category,
		Currency:        v.Currency,
		Statement:       v.Statement,
	}
	return nil
}

// section is an entity collection in a document.
type section[T any] struct {
	Next  ID  `json:"next"`
	Items []T `json:"items"`
}

func sectionOf[T any](c *Collection[T]) section[T] {
	s := section[T]{Next: c.NextID(), Items: make([]T, 0, c.Len())}
	for _, v := range c.All() {
		s.Items = append(s.Items, v)
	}
	return s
}

// document is the exported form of a State. Aggregates are never exported.
type document struct {
	Version      int                  `json:"version"`
	Month        date.Date            `json:"month"` // current month, budgets values are relative to it
	User         User                 `json:"user"`
	Currencies   section[Currency]    `json:"currencies"`
	Institutions section[Institution] `json:"institutions"`
	Accounts     section[Account]     `json:"accounts"`
	Categories   section[Category]    `json:"categories"`
	Rules        section[Rule]        `json:"rules"`
	Statements   section[Statement]   `json:"statements"`
	Transactions section[Transaction] `json:"transactions"`
}

// EncodeState writes s as a single JSON document.
func EncodeState(w io.Writer, s *State) error {
	doc := document{
		Version:      documentVersion,
		Month:        s.current,
		User:         s.User(),
		Currencies:   sectionOf(s.currencies),
		Institutions: sectionOf(s.institutions),
		Accounts:     sectionOf(s.accounts),
		Categories:   sectionOf(s.categories),
		Rules:        sectionOf(s.rules),
		Statements:   sectionOf(s.statements),
		Transactions: sectionOf(s.transactions),
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(doc); err != nil {
		return fmt.Errorf("could not encode state: %w", err)
	}
	return nil
}

// DecodeState reads a document written by EncodeState into a new State whose
// current month is today's month.
//
// The document is untrusted: every reference is checked, and aggregates are
// recomputed. Any error rejects the whole document, it is a *DocumentError
// locating the culprit when the document could be parsed.
func DecodeState(r io.Reader, today date.Date) (*State, error) {
	var doc document
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("could not decode state: %w", err)
	}
	if doc.Version != documentVersion {
		return nil, &DocumentError{Path: "version", Err: fmt.Errorf("unsupported version %d", doc.Version)}
	}

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
	shift := 0
	if !doc.Month.IsZero() {
		shift = date.MonthsBetween(doc.Month, s.current)
	}

	var errs []error
	fail := func(path string, err error) { errs = append(errs, &DocumentError{Path: path, Err: err}) }

	if doc.User.ID != UserID {
		fail("user.id", fmt.Errorf("user id must be %d", UserID))
	}
	s.users.insert(UserID, User{
		ID:           UserID,
		Name:         doc.User.Name,
		Currency:     doc.User.Currency,
		Start:        doc.User.Start,
		Demo:         doc.User.Demo,
		HideInactive: doc.User.HideInactive,
	})

	fill(s.currencies, doc.Currencies, "currencies", fail, func(c Currency) Currency {
		rates, err := checkRates(c.Rates)
		if err != nil {
			fail(fmt.Sprintf("currencies[id=%d].rates", c.ID), err)
		}
		return Currency{ID: c.ID, Ticker: c.Ticker, Symbol: c.Symbol, Colour: c.Colour, Rates: rates}
	})
	fill(s.institutions, doc.Institutions, "institutions", fail, func(i Institution) Institution { return i })
	fill(s.accounts, doc.Accounts, "accounts", fail, func(a Account) Account {
		a.Transactions, a.Balances = TransactionHistory{}, nil
		return a
	})
	fill(s.categories, doc.Categories, "categories", fail, func(c Category) Category {
		c.Transactions = TransactionHistory{}
		c.Budget = rebase(c.Budget, shift)
		return c
	})
	fill(s.rules, doc.Rules, "rules", fail, func(r Rule) Rule { return r })
	fill(s.statements, doc.Statements, "statements", fail, func(st Statement) Statement { return st })
	fill(s.transactions, doc.Transactions, "transactions", fail, func(t Transaction) Transaction { return t })
	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}

	if err := s.checkDocument(); err != nil {
		return nil, err
	}
	return Recompute(s), nil
}

// fill inserts the items of a section into c, in order.
func fill[T any](c *Collection[T], sec section[T], name string, fail func(string, error), clean func(T) T) {
	for i, v := range sec.Items {
		id := entityID(v)
		if id < 0 {
			fail(fmt.Sprintf("%s[%d].id", name, i), errors.New("negative id"))
			continue
		}
		if c.Has(id) {
			fail(fmt.Sprintf("%s[%d].id", name, i), fmt.Errorf("duplicate id %d", id))
			continue
		}
		c.insert(id, clean(v))
	}
	c.next = max(c.next, sec.Next)
}

// entityID returns the ID of any entity.
func entityID(v any) ID {
	switch e := v.(type) {
	case Currency:
		return e.ID
	case Institution:
		return e.ID
	case Account:
		return e.ID
	case Category:
		return e.ID
	case Rule:
		return e.ID
	case Statement:
		return e.ID
	case Transaction:
		return e.ID
	default:
		panic(fmt.Sprintf("encode: %T is not an entity", v))
	}
}

// rebase moves budget values from a document month to the current month.
func rebase(b Budget, shift int) Budget {
	switch {
	case b.IsZero() || shift == 0:
	case shift > 0:
		b.Values = append(make([]decimal.NullDecimal, shift), b.Values...)
	default:
		b.Values = b.Values[min(-shift, len(b.Values)):]
	}
	return b
}

// checkDocument checks the references of a freshly decoded state, and
// restores the reserved entities a hand written document may lack.
func (s *State) checkDocument() error {
	var errs []error
	fail := func(path string, err error) { errs = append(errs, &DocumentError{Path: path, Err: err}) }

	reserve(s.categories, TransferCategory, Category{ID: TransferCategory, Name: "Transfer"})
	reserve(s.categories, PlaceholderCategory, Category{ID: PlaceholderCategory, Name: "Uncategorised"})
	reserve(s.institutions, PlaceholderInstitution, Institution{ID: PlaceholderInstitution, Name: "No Institution"})
	reserve(s.statements, PlaceholderStatement, Statement{ID: PlaceholderStatement, Name: "Manual"})

	if u := s.User(); u.Currency != 0 && !s.currencies.Has(u.Currency) {
		fail("user.currency", missing("currency", u.Currency))
	}
	for id, a := range s.accounts.All() {
		if err := s.checkInstitution(a.Institution); err != nil {
			fail(fmt.Sprintf("accounts[id=%d].institution", id), err)
		}
		if a.Kind.String() == "unknown" {
			fail(fmt.Sprintf("accounts[id=%d].kind", id), fmt.Errorf("unknown account kind %d", a.Kind))
		}
	}
	for id, c := range s.currencies.All() {
		if strings.TrimSpace(c.Ticker) == "" {
			fail(fmt.Sprintf("currencies[id=%d].ticker", id), errors.New("empty ticker"))
		}
	}
	for id, c := range s.categories.All() {
		if strings.TrimSpace(c.Name) == "" {
			fail(fmt.Sprintf("categories[id=%d].name", id), errors.New("empty name"))
		}
		if err := s.checkHierarchy(c); err != nil {
			fail(fmt.Sprintf("categories[id=%d].hierarchy", id), err)
		}
		if err := checkBudget(c); err != nil {
			fail(fmt.Sprintf("categories[id=%d].budget", id), err)
		}
	}
	for id, r := range s.rules.All() {
		if err := s.checkRule(r); err != nil {
			fail(fmt.Sprintf("rules[id=%d]", id), err)
		}
	}
	for id, st := range s.statements.All() {
		if id == PlaceholderStatement {
			continue
		}
		if err := s.checkAccount(st.Account); err != nil {
			fail(fmt.Sprintf("statements[id=%d].account", id), err)
		}
	}
	for id, t := range s.transactions.All() {
		if err := s.checkTransaction(t); err != nil {
			fail(fmt.Sprintf("transactions[id=%d]", id), err)
		}
	}
	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	// Rule priorities follow the document order.
	for i, id := range s.rules.IDs() {
		r, _ := s.rules.Get(id)
		r.Index = i
		s.rules.set(id, r)
	}
	return nil
}

func reserve[T any](c *Collection[T], id ID, v T) {
	if !c.Has(id) {
		c.insert(id, v)
		c.ids = append([]ID{id}, c.ids[:len(c.ids)-1]...)
	}
}

// checkHierarchy checks that a category ancestors exist and are consistent:
// the hierarchy is the parent followed by the parent hierarchy.
func (s *State) checkHierarchy(c Category) error {
	if slices.Contains(c.Hierarchy, c.ID) {
		return ErrCycle
	}
	if slices.Contains(c.Hierarchy, PlaceholderCategory) {
		return ErrReserved
	}
	p, ok := c.Parent()
	if !ok {
		return nil
	}
	if (c.ID == PlaceholderCategory || c.ID == TransferCategory) || p == TransferCategory {
		return ErrReserved
	}
	parent, ok := s.categories.Get(p)
	if !ok {
		return missing("category", p)
	}
	if !slices.Equal(c.Hierarchy[1:], parent.Hierarchy) {
		return fmt.Errorf("hierarchy %v does not extend the parent's %v", c.Hierarchy, parent.Hierarchy)
	}
	return nil
}

// checkBudget checks a category budget the way SetBudget would accept it.
func checkBudget(c Category) error {
	switch c.Budget.Strategy {
	case "":
		return nil
	case Base, Copy, Rollover:
	default:
		return fmt.Errorf("unknown budget strategy %q", c.Budget.Strategy)
	}
	if c.ID == TransferCategory {
		return fmt.Errorf("transfers have no budget: %w", ErrReserved)
	}
	return nil
}
