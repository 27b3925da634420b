package tally

import (
	"slices"
	"strings"

	"github.com/etnz/tally/date"
)

// AddInstitution creates an institution.
type AddInstitution struct {
	Name   string
	Colour string
	Icon   string
}

func (c AddInstitution) apply(m *mutation) error {
	name := strings.TrimSpace(c.Name)
	if name == "" {
		return invalid("name", "empty name")
	}
	institutions := m.institutions()
	id := institutions.allocate()
	institutions.insert(id, Institution{ID: id, Name: name, Colour: c.Colour, Icon: c.Icon})
	return nil
}

// UpdateInstitution patches an institution.
type UpdateInstitution struct {
	ID     ID
	Name   Field[string]
	Colour Field[string]
	Icon   Field[string]
}

func (c UpdateInstitution) apply(m *mutation) error {
	i, ok := m.next.institutions.Get(c.ID)
	if !ok {
		return missing("institution", c.ID)
	}
	i.Name = c.Name.Or(i.Name)
	i.Colour = c.Colour.Or(i.Colour)
	i.Icon = c.Icon.Or(i.Icon)
	m.institutions().set(c.ID, i)
	return nil
}

// DeleteInstitution deletes an institution and moves its accounts into
// another one, the placeholder institution by default.
type DeleteInstitution struct {
	ID   ID
	Into ID
}

func (c DeleteInstitution) apply(m *mutation) error {
	s := m.next
	if c.ID == PlaceholderInstitution {
		return &ValidationError{Field: "id", Reason: "the placeholder institution cannot be deleted", Err: ErrReserved}
	}
	if err := s.checkInstitution(c.ID); err != nil {
		return err
	}
	if c.Into == c.ID {
		return invalid("into", "institution %d cannot be merged into itself", c.ID)
	}
	if err := s.checkInstitution(c.Into); err != nil {
		return err
	}
	accounts := m.accounts()
	for _, id := range accounts.IDs() {
		if a, _ := accounts.Get(id); a.Institution == c.ID {
			a.Institution = c.Into
			accounts.set(id, a)
		}
	}
	m.institutions().remove(c.ID)
	return nil
}

// AddAccount creates an account.
type AddAccount struct {
	Name        string
	Institution ID
	Kind        AccountKind // defaults to Transactional
	Opened      date.Date   // defaults to the user start date
	Inactive    bool
}

func (c AddAccount) apply(m *mutation) error {
	s := m.next
	name := strings.TrimSpace(c.Name)
	if name == "" {
		return invalid("name", "empty name")
	}
	if err := s.checkInstitution(c.Institution); err != nil {
		return err
	}
	kind := c.Kind
	if kind == 0 {
		kind = Transactional
	}
	if kind.String() == "unknown" {
		return invalid("kind", "unknown account kind %d", kind)
	}
	opened := c.Opened
	if opened.IsZero() {
		opened = s.User().Start
	}
	accounts := m.accounts()
	id := accounts.allocate()
	accounts.insert(id, Account{
		ID:          id,
		Name:        name,
		Institution: c.Institution,
		Kind:        kind,
		Inactive:    c.Inactive,
		Opened:      opened,
	})
	return nil
}

// UpdateAccount patches an account.
type UpdateAccount struct {
	ID          ID
	Name        Field[string]
	Institution Field[ID]
	Kind        Field[AccountKind]
	Inactive    Field[bool]
	Opened      Field[date.Date]
	LastUpdate  Field[date.Date]
}

func (c UpdateAccount) apply(m *mutation) error {
	s := m.next
	a, ok := s.accounts.Get(c.ID)
	if !ok {
		return missing("account", c.ID)
	}
	if i, ok := c.Institution.Get(); ok {
		if err := s.checkInstitution(i); err != nil {
			return err
		}
	}
	if k, ok := c.Kind.Get(); ok && k.String() == "unknown" {
		return invalid("kind", "unknown account kind %d", k)
	}
	if n, ok := c.Name.Get(); ok && strings.TrimSpace(n) == "" {
		return invalid("name", "empty name")
	}
	a.Name = strings.TrimSpace(c.Name.Or(a.Name))
	a.Institution = c.Institution.Or(a.Institution)
	a.Kind = c.Kind.Or(a.Kind)
	a.Inactive = c.Inactive.Or(a.Inactive)
	a.Opened = c.Opened.Or(a.Opened)
	a.LastUpdate = c.LastUpdate.Or(a.LastUpdate)
	m.accounts().set(c.ID, a)
	return nil
}

// DeleteAccount deletes an account with its transactions and statements.
// Rules lose the account from their allow-list, a rule whose allow-list
// becomes empty is deactivated rather than widened to every account.
type DeleteAccount struct {
	ID ID
}

func (c DeleteAccount) apply(m *mutation) error {
	s := m.next
	if err := s.checkAccount(c.ID); err != nil {
		return err
	}
	var transactions, statements []ID
	for id, t := range s.transactions.All() {
		if t.Account == c.ID {
			transactions = append(transactions, id)
		}
	}
	for id, st := range s.statements.All() {
		if st.Account == c.ID {
			statements = append(statements, id)
		}
	}
	for _, id := range transactions {
		m.removeTransaction(id)
	}
	// transactions moved to another account since the import outlive their statement.
	for _, t := range s.transactions.All() {
		if t.Statement != PlaceholderStatement && slices.Contains(statements, t.Statement) {
			t.Statement = PlaceholderStatement
			m.transactions().set(t.ID, t)
		}
	}
	for _, id := range statements {
		m.statements().remove(id)
	}

	rules := m.rules()
	for _, id := range rules.IDs() {
		r, _ := rules.Get(id)
		if !slices.Contains(r.Condition.Accounts, c.ID) {
			continue
		}
		r.Condition.Accounts = slices.DeleteFunc(slices.Clone(r.Condition.Accounts), func(a ID) bool { return a == c.ID })
		if len(r.Condition.Accounts) == 0 {
			r.Condition.Accounts = nil
			r.Inactive = true
		}
		rules.set(id, r)
	}
	m.accounts().remove(c.ID)
	return nil
}
