package tally

import (
	"fmt"
	"regexp"
	"strings"

	"golang.org/x/text/cases"
)

// matcher is a compiled rule condition.
type matcher struct {
	rule     Rule
	patterns []*regexp.Regexp // nil for substring matching
	folded   []string         // case folded references for substring matching
	fold     cases.Caser
	accounts map[ID]bool
}

func compileRule(r Rule) (*matcher, error) {
	m := &matcher{rule: r}
	if r.Condition.Regex {
		for i, p := range r.Condition.Reference {
			re, err := regexp.Compile("(?i)" + p)
			if err != nil {
				return nil, &ValidationError{Field: fmt.Sprintf("condition.reference[%d]", i), Reason: err.Error()}
			}
			m.patterns = append(m.patterns, re)
		}
	} else {
		m.fold = cases.Fold()
		for _, sub := range r.Condition.Reference {
			m.folded = append(m.folded, m.fold.String(sub))
		}
	}
	if len(r.Condition.Accounts) > 0 {
		m.accounts = make(map[ID]bool, len(r.Condition.Accounts))
		for _, a := range r.Condition.Accounts {
			m.accounts[a] = true
		}
	}
	return m, nil
}

// Match reports whether the transaction satisfies every part of the condition.
func (m *matcher) Match(t Transaction) bool {
	c := m.rule.Condition
	if m.accounts != nil && !m.accounts[t.Account] {
		return false
	}
	if c.Min.Valid && (t.Stub() || t.Value.Decimal.LessThan(c.Min.Decimal)) {
		return false
	}
	if c.Max.Valid && (t.Stub() || t.Value.Decimal.GreaterThan(c.Max.Decimal)) {
		return false
	}
	if len(c.Reference) == 0 {
		return true
	}
	if m.patterns != nil {
		for _, re := range m.patterns {
			if re.MatchString(t.Reference) {
				return true
			}
		}
		return false
	}
	ref := m.fold.String(t.Reference)
	for _, sub := range m.folded {
		if strings.Contains(ref, sub) {
			return true
		}
	}
	return false
}

// edit writes the rule edits into t.
func (m *matcher) edit(t Transaction) Transaction {
	e := m.rule.Edit
	t.Category = e.Category.Or(t.Category)
	t.Summary = e.Summary.Or(t.Summary)
	t.Description = e.Description.Or(t.Description)
	return t
}

// Rulebook applies the active rules of a state, in priority order.
type Rulebook struct {
	matchers []*matcher
}

// Rulebook compiles the active rules. Rules are validated when they are
// written, so compilation cannot fail on a consistent state.
func (s *State) Rulebook() *Rulebook {
	b := new(Rulebook)
	for _, r := range s.rules.All() {
		if r.Inactive {
			continue
		}
		m, err := compileRule(r)
		if err != nil {
			panic(fmt.Sprintf("rules: stored rule %d does not compile: %v", r.ID, err))
		}
		b.matchers = append(b.matchers, m)
	}
	return b
}

// Apply returns t edited by every matching rule, in order: a later rule
// overwrites what an earlier one wrote.
func (b *Rulebook) Apply(t Transaction) Transaction {
	for _, m := range b.matchers {
		if m.Match(t) {
			t = m.edit(t)
		}
	}
	return t
}

// Matching returns the IDs of the rules matching t.
func (b *Rulebook) Matching(t Transaction) []ID {
	var ids []ID
	for _, m := range b.matchers {
		if m.Match(t) {
			ids = append(ids, m.rule.ID)
		}
	}
	return ids
}
