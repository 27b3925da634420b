package tally

import (
	"slices"
	"strings"

	"github.com/etnz/tally/date"
	"github.com/shopspring/decimal"
)

// AddCategory creates a category under Parent, 0 for a top-level category.
type AddCategory struct {
	Name   string
	Colour string
	Parent ID
}

func (c AddCategory) apply(m *mutation) error {
	name := strings.TrimSpace(c.Name)
	if name == "" {
		return invalid("name", "empty name")
	}
	var hierarchy []ID
	if c.Parent != 0 {
		p, ok := m.next.categories.Get(c.Parent)
		if !ok {
			return missing("category", c.Parent)
		}
		if c.Parent == TransferCategory {
			return &ValidationError{Field: "parent", Reason: "the transfer category cannot have children", Err: ErrReserved}
		}
		hierarchy = append([]ID{c.Parent}, p.Hierarchy...)
	}
	categories := m.categories()
	id := categories.allocate()
	categories.insert(id, Category{ID: id, Name: name, Colour: c.Colour, Hierarchy: hierarchy})
	return nil
}

// UpdateCategory patches a category. Setting Parent moves the category and
// its subtree, 0 makes it top-level.
type UpdateCategory struct {
	ID     ID
	Name   Field[string]
	Colour Field[string]
	Parent Field[ID]
}

func (c UpdateCategory) apply(m *mutation) error {
	s := m.next
	cat, ok := s.categories.Get(c.ID)
	if !ok {
		return missing("category", c.ID)
	}
	if n, ok := c.Name.Get(); ok && strings.TrimSpace(n) == "" {
		return invalid("name", "empty name")
	}
	parent, reparent := c.Parent.Get()
	if reparent {
		if err := s.checkParent(c.ID, parent); err != nil {
			return err
		}
		old, _ := cat.Parent()
		reparent = old != parent
	}

	cat.Name = strings.TrimSpace(c.Name.Or(cat.Name))
	cat.Colour = c.Colour.Or(cat.Colour)
	m.categories().set(c.ID, cat)
	if reparent {
		m.reparent(c.ID, parent)
	}
	return nil
}

// checkParent validates moving category id under parent.
func (s *State) checkParent(id, parent ID) error {
	if id == PlaceholderCategory || id == TransferCategory {
		return &ValidationError{Field: "parent", Reason: "reserved categories stay top-level", Err: ErrReserved}
	}
	if parent == 0 {
		return nil
	}
	p, ok := s.categories.Get(parent)
	if !ok {
		return missing("category", parent)
	}
	if parent == TransferCategory {
		return &ValidationError{Field: "parent", Reason: "the transfer category cannot have children", Err: ErrReserved}
	}
	if parent == id || slices.Contains(p.Hierarchy, id) {
		return &ValidationError{Field: "parent", Reason: "category would be its own ancestor", Err: ErrCycle}
	}
	return nil
}

// DeleteCategory deletes a category. Its children move up to its parent,
// its transactions and rules to its parent, or to the placeholder category
// for a top-level category.
type DeleteCategory struct {
	ID ID
}

func (c DeleteCategory) apply(m *mutation) error {
	s := m.next
	if c.ID == PlaceholderCategory || c.ID == TransferCategory {
		return &ValidationError{Field: "id", Reason: "reserved categories cannot be deleted", Err: ErrReserved}
	}
	cat, ok := s.categories.Get(c.ID)
	if !ok {
		return missing("category", c.ID)
	}
	parent, _ := cat.Parent()
	into := parent // PlaceholderCategory for top-level categories.

	for _, t := range s.transactions.All() {
		if t.Category == c.ID {
			t.Category = into
			m.replaceTransaction(t)
		}
	}
	var children []ID
	for id, d := range s.categories.All() {
		if p, ok := d.Parent(); ok && p == c.ID {
			children = append(children, id)
		}
	}
	for _, id := range children {
		m.reparent(id, parent)
	}

	rules := m.rules()
	for _, id := range rules.IDs() {
		r, _ := rules.Get(id)
		if v, ok := r.Edit.Category.Get(); ok && v == c.ID {
			r.Edit.Category = Set(into)
			rules.set(id, r)
		}
	}
	m.categories().remove(c.ID)
	return nil
}

// SetBudget sets (or with a zero Strategy, removes) a category budget.
//
// Values are indexed by month offset, Values[0] being the current month.
// Start defaults to the user start date.
type SetBudget struct {
	Category ID
	Strategy BudgetStrategy
	Start    date.Date
	Values   []decimal.NullDecimal
}

func (c SetBudget) apply(m *mutation) error {
	s := m.next
	cat, ok := s.categories.Get(c.Category)
	if !ok {
		return missing("category", c.Category)
	}
	if c.Category == TransferCategory {
		return &ValidationError{Field: "category", Reason: "transfers have no budget", Err: ErrReserved}
	}
	switch c.Strategy {
	case "":
		cat.Budget = Budget{}
	case Base, Copy, Rollover:
		start := c.Start
		if start.IsZero() {
			start = s.User().Start
		}
		cat.Budget = Budget{Strategy: c.Strategy, Start: start.StartOfMonth(), Values: slices.Clone(c.Values)}
	default:
		return invalid("strategy", "unknown budget strategy %q", c.Strategy)
	}
	m.categories().set(c.Category, cat)
	return nil
}
