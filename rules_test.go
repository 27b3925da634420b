package tally

import (
	"testing"

	"github.com/shopspring/decimal"
)

func TestMatcher_Match(t *testing.T) {
	tests := []struct {
		name      string
		condition Condition
		tx        Transaction
		want      bool
	}{
		{
			name: "empty condition matches everything",
			tx:   Transaction{Reference: "ANYTHING"},
			want: true,
		},
		{
			name:      "substring is case-insensitive",
			condition: Condition{Reference: []string{"market"}},
			tx:        Transaction{Reference: "CARD SUPERMARKET 12"},
			want:      true,
		},
		{
			name:      "substring uses full case folding",
			condition: Condition{Reference: []string{"strasse"}},
			tx:        Transaction{Reference: "Bäckerei Hauptstraße"},
			want:      true,
		},
		{
			name:      "any reference matches",
			condition: Condition{Reference: []string{"rent", "salary"}},
			tx:        Transaction{Reference: "SALARY JUNE"},
			want:      true,
		},
		{
			name:      "no reference matches",
			condition: Condition{Reference: []string{"rent"}},
			tx:        Transaction{Reference: "SALARY JUNE"},
			want:      false,
		},
		{
			name:      "regex",
			condition: Condition{Reference: []string{`^card \d+`}, Regex: true},
			tx:        Transaction{Reference: "CARD 1234 SHOP"},
			want:      true,
		},
		{
			name:      "regex anchored",
			condition: Condition{Reference: []string{`^card`}, Regex: true},
			tx:        Transaction{Reference: "DEBIT CARD"},
			want:      false,
		},
		{
			name:      "account allow-list",
			condition: Condition{Accounts: []ID{2}},
			tx:        Transaction{Account: 1},
			want:      false,
		},
		{
			name:      "within bounds",
			condition: Condition{Min: val("-100"), Max: val("-10")},
			tx:        Transaction{Value: val("-50")},
			want:      true,
		},
		{
			name:      "below min",
			condition: Condition{Min: val("-100")},
			tx:        Transaction{Value: val("-150")},
			want:      false,
		},
		{
			name:      "stub never satisfies a bound",
			condition: Condition{Max: val("0")},
			tx:        Transaction{Value: decimal.NullDecimal{}},
			want:      false,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, err := compileRule(Rule{Name: "r", Condition: tt.condition})
			if err != nil {
				t.Fatalf("compileRule() error: %v", err)
			}
			if got := m.Match(tt.tx); got != tt.want {
				t.Errorf("Match() = %v, want %v", got, tt.want)
			}
		})
	}
}
