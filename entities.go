package tally

import (
	"fmt"

	"github.com/etnz/tally/date"
	"github.com/shopspring/decimal"
)

// User holds the settings of the single user of the dataset.
type User struct {
	ID           ID        `json:"id"`
	Name         string    `json:"name,omitempty"`
	Currency     ID        `json:"currency"` // base currency, 0 until one is chosen
	Start        date.Date `json:"start"`    // tracking start date
	Demo         bool      `json:"demo,omitempty"`
	HideInactive bool      `json:"hideInactive,omitempty"`
}

// RatePoint is the exchange rate of a currency from a month onward.
//
// Rate is the amount of the currency worth one unit of the common anchor.
type RatePoint struct {
	Month date.Date       `json:"month"` // always the first day of a month
	Rate  decimal.Decimal `json:"rate"`
}

// Currency is a currency with its historical exchange rates.
type Currency struct {
	ID     ID          `json:"id"`
	Ticker string      `json:"ticker"`
	Symbol string      `json:"symbol,omitempty"`
	Colour string      `json:"colour,omitempty"`
	Rates  []RatePoint `json:"rates,omitempty"` // sorted by month

	// Transactions is the monthly history of transactions in this currency,
	// in native and localised units.
	Transactions LocalisedHistory `json:"-"`
}

// Institution is a bank or any other provider of accounts.
type Institution struct {
	ID     ID     `json:"id"`
	Name   string `json:"name"`
	Colour string `json:"colour,omitempty"`
	Icon   string `json:"icon,omitempty"`
}

// AccountKind classifies accounts.
type AccountKind int

const (
	Transactional AccountKind = iota + 1
	Investment
	Asset
	Liability
)

func (k AccountKind) String() string {
	switch k {
	case Transactional:
		return "transactional"
	case Investment:
		return "investment"
	case Asset:
		return "asset"
	case Liability:
		return "liability"
	default:
		return "unknown"
	}
}

// ParseAccountKind parses a string into an AccountKind.
func ParseAccountKind(s string) (AccountKind, error) {
	switch s {
	case "transactional":
		return Transactional, nil
	case "investment":
		return Investment, nil
	case "asset":
		return Asset, nil
	case "liability":
		return Liability, nil
	default:
		return 0, fmt.Errorf("unknown account kind: %q", s)
	}
}

func (k AccountKind) MarshalText() ([]byte, error) { return []byte(k.String()), nil }

func (k *AccountKind) UnmarshalText(b []byte) error {
	v, err := ParseAccountKind(string(b))
	if err != nil {
		return err
	}
	*k = v
	return nil
}

// Account is an account held at an institution.
type Account struct {
	ID          ID          `json:"id"`
	Name        string      `json:"name"`
	Institution ID          `json:"institution"`
	Kind        AccountKind `json:"kind"`
	Inactive    bool        `json:"inactive,omitempty"`
	Opened      date.Date   `json:"opened"`
	LastUpdate  date.Date   `json:"lastUpdate"` // date of the latest imported statement

	// Transactions is the localised monthly history of the account transactions.
	Transactions TransactionHistory `json:"-"`
	// Balances holds the month-end balances for each currency held.
	Balances map[ID]BalanceHistory `json:"-"`
}

// BudgetStrategy tells how missing monthly budget values are derived.
type BudgetStrategy string

const (
	// Base uses the explicit values only, missing months have no target.
	Base BudgetStrategy = "base"
	// Copy repeats the previous month's target when a month has no value.
	Copy BudgetStrategy = "copy"
	// Rollover is Copy plus the previous month's unused (or overspent) target.
	Rollover BudgetStrategy = "rollover"
)

// Budget is a category's monthly target.
type Budget struct {
	Strategy BudgetStrategy        `json:"strategy"`
	Start    date.Date             `json:"start"`
	Values   []decimal.NullDecimal `json:"values"` // index 0 = current month
}

// IsZero reports whether there is no budget.
func (b Budget) IsZero() bool { return b.Strategy == "" }

// Category groups transactions, categories form a tree through Hierarchy.
type Category struct {
	ID        ID     `json:"id"`
	Name      string `json:"name"`
	Colour    string `json:"colour,omitempty"`
	Hierarchy []ID   `json:"hierarchy,omitempty"` // ancestors, nearest parent first
	Budget    Budget `json:"budget,omitzero"`

	// Transactions is the localised monthly history of the category and all
	// its descendants.
	Transactions TransactionHistory `json:"-"`
}

// Parent returns the category parent ID, or false for a top-level category.
func (c Category) Parent() (ID, bool) {
	if len(c.Hierarchy) == 0 {
		return 0, false
	}
	return c.Hierarchy[0], true
}

// Condition selects transactions for a rule. Empty parts match everything.
type Condition struct {
	Reference []string            `json:"reference,omitempty"` // any of them, case-insensitive
	Regex     bool                `json:"regex,omitempty"`     // Reference are regular expressions
	Accounts  []ID                `json:"accounts,omitempty"`
	Min       decimal.NullDecimal `json:"min,omitzero"`
	Max       decimal.NullDecimal `json:"max,omitzero"`
}

// Edit is what a rule writes into a matching transaction.
type Edit struct {
	Category    Field[ID]     `json:"category,omitzero"`
	Summary     Field[string] `json:"summary,omitzero"`
	Description Field[string] `json:"description,omitzero"`
}

// Rule edits new transactions matching its condition.
type Rule struct {
	ID        ID        `json:"id"`
	Index     int       `json:"index"` // priority, the position in the rules collection
	Name      string    `json:"name"`
	Inactive  bool      `json:"inactive,omitempty"`
	Condition Condition `json:"condition"`
	Edit      Edit      `json:"edit"`
}

// Statement is an imported file.
type Statement struct {
	ID       ID        `json:"id"`
	Name     string    `json:"name"`
	Contents string    `json:"contents,omitempty"`
	Account  ID        `json:"account"`
	Date     date.Date `json:"date"`
}

// Transaction is a single movement of money on an account.
//
// An invalid Value marks a stub: the transaction exists but its amount is
// unknown, it is counted but never summed.
type Transaction struct {
	ID              ID
	Date            date.Date
	Summary         string
	Description     string
	Reference       string
	Value           decimal.NullDecimal
	RecordedBalance decimal.NullDecimal
	Account         ID
	Category        ID
	Currency        ID
	Statement       ID
}

// Transfer reports whether the transaction is an internal movement.
func (t Transaction) Transfer() bool { return t.Category == TransferCategory }

// Stub reports whether the transaction value is unknown.
func (t Transaction) Stub() bool { return !t.Value.Valid }
