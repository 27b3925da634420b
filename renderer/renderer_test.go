package renderer

import (
	"strings"
	"testing"

	"github.com/etnz/tally"
	"github.com/etnz/tally/date"
)

var today = date.MustParse("2025-06-18")

func TestReports(t *testing.T) {
	demo := tally.Demo(today)
	hidden, err := demo.Apply(
		tally.UpdateAccount{ID: 4, Inactive: tally.Set(true)},
		tally.UpdateUser{HideInactive: tally.Set(true)},
	)
	if err != nil {
		t.Fatalf("Apply() error: %v", err)
	}

	testCases := []struct {
		name    string
		got     string
		want    []string
		notWant []string
	}{
		{
			name: "summary",
			got:  SummaryMarkdown(demo, 0, 3),
			want: []string{"# Summary for June 2025", "Income", "Net worth", "## Trend", "Apr 2025", "Jun 2025"},
		},
		{
			name: "summary without base currency",
			got:  SummaryMarkdown(tally.Empty(today), 0, 3),
			want: []string{"No base currency yet"},
		},
		{
			name: "budgets",
			got:  BudgetMarkdown(demo, 1),
			want: []string{"# Budgets for May 2025", "Groceries", "Leisure", "Income", "budgets met"},
		},
		{
			name: "no budgets",
			got:  BudgetMarkdown(tally.Empty(today), 0),
			want: []string{"No budget defined."},
		},
		{
			name:    "accounts",
			got:     AccountsMarkdown(demo, 0),
			want:    []string{"## Northwind Bank", "## Harbor Brokers", "Current Account", "Credit Card", "liability"},
			notWant: []string{"No Institution"},
		},
		{
			name:    "hidden inactive accounts",
			got:     AccountsMarkdown(hidden, 0),
			want:    []string{"Current Account"},
			notWant: []string{"Credit Card"},
		},
		{
			name: "transactions",
			got:  TransactionsMarkdown(demo, []tally.Transaction{last(demo)}),
			want: []string{"# Transactions", "| ID"},
		},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			for _, w := range tc.want {
				if !strings.Contains(tc.got, w) {
					t.Errorf("report does not contain %q:\n%s", w, tc.got)
				}
			}
			for _, w := range tc.notWant {
				if strings.Contains(tc.got, w) {
					t.Errorf("report contains %q:\n%s", w, tc.got)
				}
			}
		})
	}
}

func TestCategoryPath(t *testing.T) {
	demo := tally.Demo(today)
	if got, want := categoryPath(demo, 9), "Leisure / Restaurants"; got != want {
		t.Errorf("categoryPath(9) = %q, want %q", got, want)
	}
	if got, want := categoryPath(demo, 6), "Groceries"; got != want {
		t.Errorf("categoryPath(6) = %q, want %q", got, want)
	}
	if got, want := categoryPath(demo, 99), "?"; got != want {
		t.Errorf("categoryPath(99) = %q, want %q", got, want)
	}
}

func TestToHTML(t *testing.T) {
	html, err := ToHTML(SummaryMarkdown(tally.Demo(today), 0, 2))
	if err != nil {
		t.Fatalf("ToHTML() error: %v", err)
	}
	for _, w := range []string{"<h1>Summary for June 2025</h1>", "<table>", ">Income</td>"} {
		if !strings.Contains(html, w) {
			t.Errorf("ToHTML() does not contain %q:\n%s", w, html)
		}
	}
}

func last(s *tally.State) tally.Transaction {
	ids := s.Transactions().IDs()
	t, _ := s.Transactions().Get(ids[len(ids)-1])
	return t
}
