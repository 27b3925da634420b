package tally

import (
	"strings"
)

// AddRule appends a rule, with the lowest priority.
type AddRule struct {
	Name      string
	Inactive  bool
	Condition Condition
	Edit      Edit
}

func (c AddRule) apply(m *mutation) error {
	r := Rule{Name: strings.TrimSpace(c.Name), Inactive: c.Inactive, Condition: c.Condition, Edit: c.Edit}
	if err := m.next.checkRule(r); err != nil {
		return err
	}
	rules := m.rules()
	r.ID = rules.allocate()
	rules.insert(r.ID, r)
	m.reindexRules()
	return nil
}

// UpdateRule patches a rule.
type UpdateRule struct {
	ID        ID
	Name      Field[string]
	Inactive  Field[bool]
	Condition Field[Condition]
	Edit      Field[Edit]
}

func (c UpdateRule) apply(m *mutation) error {
	r, ok := m.next.rules.Get(c.ID)
	if !ok {
		return missing("rule", c.ID)
	}
	r.Name = strings.TrimSpace(c.Name.Or(r.Name))
	r.Inactive = c.Inactive.Or(r.Inactive)
	r.Condition = c.Condition.Or(r.Condition)
	r.Edit = c.Edit.Or(r.Edit)
	if err := m.next.checkRule(r); err != nil {
		return err
	}
	m.rules().set(c.ID, r)
	return nil
}

// MoveRule changes a rule priority: the rule is moved to position To,
// 0 being the first rule applied. Out of range positions are clamped.
type MoveRule struct {
	ID ID
	To int
}

func (c MoveRule) apply(m *mutation) error {
	if !m.next.rules.Has(c.ID) {
		return missing("rule", c.ID)
	}
	m.rules().move(c.ID, c.To)
	m.reindexRules()
	return nil
}

// DeleteRule deletes a rule.
type DeleteRule struct {
	ID ID
}

func (c DeleteRule) apply(m *mutation) error {
	if !m.next.rules.Has(c.ID) {
		return missing("rule", c.ID)
	}
	m.rules().remove(c.ID)
	m.reindexRules()
	return nil
}

// ApplyRules runs the active rules on existing transactions, all of them
// when IDs is empty.
type ApplyRules struct {
	IDs []ID
}

func (c ApplyRules) apply(m *mutation) error {
	s := m.next
	ids := c.IDs
	if len(ids) == 0 {
		ids = s.transactions.IDs()
	}
	for _, id := range ids {
		if !s.transactions.Has(id) {
			return missing("transaction", id)
		}
	}
	book := s.Rulebook()
	for _, id := range ids {
		t, _ := s.transactions.Get(id)
		if edited := book.Apply(t); edited != t {
			m.replaceTransaction(edited)
		}
	}
	return nil
}

// reindexRules writes every rule position into its Index.
func (m *mutation) reindexRules() {
	rules := m.rules()
	for i, id := range rules.IDs() {
		if r, _ := rules.Get(id); r.Index != i {
			r.Index = i
			rules.set(id, r)
		}
	}
}

func (s *State) checkRule(r Rule) error {
	if r.Name == "" {
		return invalid("name", "empty name")
	}
	for _, a := range r.Condition.Accounts {
		if err := s.checkAccount(a); err != nil {
			return err
		}
	}
	if cat, ok := r.Edit.Category.Get(); ok {
		if err := s.checkCategory(cat); err != nil {
			return err
		}
	}
	if r.Condition.Min.Valid && r.Condition.Max.Valid && r.Condition.Min.Decimal.GreaterThan(r.Condition.Max.Decimal) {
		return invalid("condition", "min %v is greater than max %v", r.Condition.Min.Decimal, r.Condition.Max.Decimal)
	}
	_, err := compileRule(r)
	return err
}
