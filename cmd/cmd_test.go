package cmd

import (
	"context"
	"flag"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"

	"github.com/etnz/tally"
	"github.com/etnz/tally/date"
	"github.com/google/subcommands"
	"github.com/shopspring/decimal"
)

var testToday = date.MustParse("2025-06-18")

// setup points the global flags to a fresh data file.
func setup(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	dataPath = filepath.Join(dir, "tally.json")
	mirrorPath = ""
	keep = 20
	style = "raw"
	todayFlag = testToday.String()
	return dir
}

// run executes a subcommand with its command line arguments.
func run(t *testing.T, c subcommands.Command, args ...string) subcommands.ExitStatus {
	t.Helper()
	f := flag.NewFlagSet(c.Name(), flag.ContinueOnError)
	c.SetFlags(f)
	if err := f.Parse(args); err != nil {
		t.Fatalf("%s %v: %v", c.Name(), args, err)
	}
	return c.Execute(context.Background(), f)
}

// must executes a subcommand and fails the test unless it succeeds.
func must(t *testing.T, c subcommands.Command, args ...string) {
	t.Helper()
	if status := run(t, c, args...); status != subcommands.ExitSuccess {
		t.Fatalf("%s %v = %v, want success", c.Name(), args, status)
	}
}

func load(t *testing.T) *tally.State {
	t.Helper()
	s, err := loadState(context.Background())
	if err != nil {
		t.Fatalf("loadState() error: %v", err)
	}
	if err := s.Verify(); err != nil {
		t.Fatalf("Verify() error: %v", err)
	}
	return s
}

func tx(t *testing.T, s *tally.State, id tally.ID) tally.Transaction {
	t.Helper()
	v, ok := s.Transactions().Get(id)
	if !ok {
		t.Fatalf("transaction %d not found", id)
	}
	return v
}

const june = `{"date":"2025-06-02","reference":"CARD SUPERMARKET","value":-42.10,"balance":957.90}
{"date":"2025-06-03","reference":"SALARY","value":2500}
{"date":"2025-06-04","reference":"PENDING","value":null}
`

func TestWorkflow(t *testing.T) {
	dir := setup(t)
	statement := filepath.Join(dir, "june.jsonl")
	if err := os.WriteFile(statement, []byte(june), 0o644); err != nil {
		t.Fatal(err)
	}

	must(t, &initCmd{}, "-currency", "EUR", "-start", "2025-01-01")
	if status := run(t, &initCmd{}, "-currency", "USD"); status != subcommands.ExitFailure {
		t.Errorf("init on an existing file = %v, want failure", status)
	}
	must(t, &addCurrencyCmd{}, "USD")
	must(t, &setRateCmd{}, "-m", "2025-01-01", "USD", "1.1")
	must(t, &addInstitutionCmd{}, "Northwind", "Bank")
	must(t, &addAccountCmd{}, "-i", "northwind bank", "Current")
	must(t, &addCategoryCmd{}, "Food")
	must(t, &addCategoryCmd{}, "-parent", "Food", "Groceries")
	must(t, &addRuleCmd{}, "-ref", "market", "-category", "Groceries", "Markets")
	must(t, &importCmd{}, "-a", "Current", statement)
	must(t, &addTxCmd{}, "-a", "Current", "-v", "-10", "-currency", "USD", "-d", "2025-05-05", "-s", "Coffee")
	must(t, &editTxCmd{}, "-c", "Food", "2", "3")
	must(t, &editTxCmd{}, "-v", "12.5", "3")
	must(t, &setBudgetCmd{}, "-strategy", "copy", "Food", "-300")

	s := load(t)
	if got := s.Transactions().Len(); got != 4 {
		t.Fatalf("Transactions().Len() = %d, want 4", got)
	}
	if got := tx(t, s, 1).Category; got != 3 {
		t.Errorf("imported transaction category = %d, want 3 (set by the rule)", got)
	}
	if got := tx(t, s, 2).Category; got != 2 {
		t.Errorf("edited transaction category = %d, want 2", got)
	}
	if got := tx(t, s, 3).Value; !got.Valid || !got.Decimal.Equal(decimal.RequireFromString("12.5")) {
		t.Errorf("edited transaction value = %v, want 12.5", got)
	}
	if got := tx(t, s, 4).Currency; got != 2 {
		t.Errorf("manual transaction currency = %d, want 2", got)
	}
	account, _ := s.Accounts().Get(1)
	if want := date.MustParse("2025-06-04"); account.LastUpdate != want {
		t.Errorf("account LastUpdate = %v, want %v", account.LastUpdate, want)
	}
	food, _ := s.Categories().Get(2)
	if food.Budget.Strategy != tally.Copy {
		t.Errorf("Food budget strategy = %q, want copy", food.Budget.Strategy)
	}

	must(t, &deleteCmd{}, "category", "Groceries")
	must(t, &deleteCmd{}, "-into", "EUR", "currency", "USD")
	s = load(t)
	if got := tx(t, s, 1).Category; got != 2 {
		t.Errorf("after deleting Groceries, category = %d, want its parent 2", got)
	}
	if got := tx(t, s, 4).Currency; got != 1 {
		t.Errorf("after deleting USD, currency = %d, want 1", got)
	}

	for _, c := range []subcommands.Command{&summaryCmd{}, &budgetCmd{}, &accountsCmd{}, &txCmd{}, &rulesCmd{}, &verifyCmd{}} {
		must(t, c)
	}
}

func TestErrors(t *testing.T) {
	setup(t)
	must(t, &initCmd{}, "-currency", "EUR")
	must(t, &addAccountCmd{}, "Current")

	testCases := []struct {
		name string
		cmd  subcommands.Command
		args []string
		want subcommands.ExitStatus
	}{
		{"unknown institution", &addAccountCmd{}, []string{"-i", "Nowhere", "Savings"}, subcommands.ExitUsageError},
		{"unknown kind", &addAccountCmd{}, []string{"-kind", "shoebox", "Savings"}, subcommands.ExitUsageError},
		{"future date", &addTxCmd{}, []string{"-a", "Current", "-v", "1", "-d", "2025-07-20"}, subcommands.ExitFailure},
		{"bad value", &addTxCmd{}, []string{"-a", "Current", "-v", "ten"}, subcommands.ExitUsageError},
		{"missing account", &addTxCmd{}, []string{"-v", "1"}, subcommands.ExitUsageError},
		{"unknown transaction", &editTxCmd{}, []string{"-s", "x", "42"}, subcommands.ExitUsageError},
		{"reserved category", &deleteCmd{}, []string{"category", "Transfer"}, subcommands.ExitFailure},
		{"unknown kind to delete", &deleteCmd{}, []string{"thing", "1"}, subcommands.ExitUsageError},
		{"bad regex", &addRuleCmd{}, []string{"-regex", "-ref", "(", "Broken"}, subcommands.ExitFailure},
		{"head and tail", &txCmd{}, []string{"-head", "1", "-tail", "1"}, subcommands.ExitUsageError},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			if got := run(t, tc.cmd, tc.args...); got != tc.want {
				t.Errorf("%s %v = %v, want %v", tc.cmd.Name(), tc.args, got, tc.want)
			}
		})
	}
	if got := load(t).Transactions().Len(); got != 0 {
		t.Errorf("failed commands left %d transactions", got)
	}
}

func TestImportDuplicates(t *testing.T) {
	dir := setup(t)
	statement := filepath.Join(dir, "june.jsonl")
	if err := os.WriteFile(statement, []byte(june), 0o644); err != nil {
		t.Fatal(err)
	}
	must(t, &initCmd{}, "-currency", "EUR")
	must(t, &addAccountCmd{}, "Current")
	must(t, &importCmd{}, "-a", "Current", "-n", statement)
	if got := load(t).Transactions().Len(); got != 0 {
		t.Fatalf("dry run imported %d transactions", got)
	}
	must(t, &importCmd{}, "-a", "Current", statement)
	if status := run(t, &importCmd{}, "-a", "Current", "-skip-duplicates", statement); status != subcommands.ExitUsageError {
		t.Errorf("import of duplicates = %v, want usage error", status)
	}
	if got := load(t).Transactions().Len(); got != 3 {
		t.Errorf("Transactions().Len() = %d, want 3", got)
	}
}

func TestDecodeRecords(t *testing.T) {
	records, err := decodeRecords(strings.NewReader(june))
	if err != nil {
		t.Fatalf("decodeRecords() error: %v", err)
	}
	if len(records) != 3 {
		t.Fatalf("len(records) = %d, want 3", len(records))
	}
	if records[2].Value.Valid {
		t.Errorf("null value decoded as %v", records[2].Value)
	}
	if !records[0].RecordedBalance.Valid {
		t.Errorf("balance not decoded")
	}
	if _, err := decodeRecords(strings.NewReader(`{"date":"2025-06-02","amount":1}`)); err == nil {
		t.Errorf("decodeRecords(unknown field) succeeded, want an error")
	}
}

func TestFind(t *testing.T) {
	s, err := tally.Empty(testToday).Apply(
		tally.AddCurrency{Ticker: "EUR"},
		tally.AddAccount{Name: "Current"},
		tally.AddAccount{Name: "Joint"},
		tally.AddAccount{Name: "joint"},
	)
	if err != nil {
		t.Fatal(err)
	}
	testCases := []struct {
		key     string
		want    tally.ID
		wantErr string
	}{
		{key: "current", want: 1},
		{key: "2", want: 2},
		{key: "9", wantErr: "unknown account 9"},
		{key: "Savings", wantErr: `unknown account "Savings"`},
		{key: "JOINT", wantErr: "ambiguous"},
	}
	for _, tc := range testCases {
		t.Run(tc.key, func(t *testing.T) {
			got, err := findAccount(s, tc.key)
			if tc.wantErr != "" {
				if err == nil || !strings.Contains(err.Error(), tc.wantErr) {
					t.Errorf("findAccount(%q) error = %v, want %q", tc.key, err, tc.wantErr)
				}
				return
			}
			if err != nil || got != tc.want {
				t.Errorf("findAccount(%q) = %d, %v, want %d", tc.key, got, err, tc.want)
			}
		})
	}
}

func TestQuery(t *testing.T) {
	got, err := query(tally.Demo(testToday), "$.accounts.items[*].name")
	if err != nil {
		t.Fatalf("query() error: %v", err)
	}
	names, ok := got.([]any)
	if !ok || !slices.Contains(names, any("Savings")) {
		t.Errorf("query() = %v, want the account names", got)
	}
	if _, err := query(tally.Demo(testToday), "$.["); err == nil {
		t.Errorf("query(invalid) succeeded, want an error")
	}
}

func TestMirror(t *testing.T) {
	dir := setup(t)
	mirrorPath = filepath.Join(dir, "tally.db")

	must(t, &resetCmd{}, "-demo")
	must(t, &snapshotsCmd{})
	if err := os.Remove(dataPath); err != nil {
		t.Fatal(err)
	}
	must(t, &restoreCmd{}, "-snapshot")
	if got := load(t).Accounts().Len(); got != 4 {
		t.Errorf("restored %d accounts, want 4", got)
	}

	exported := filepath.Join(dir, "export.json")
	must(t, &exportCmd{}, "-o", exported)
	must(t, &resetCmd{})
	must(t, &restoreCmd{}, exported)
	if got := load(t).Accounts().Len(); got != 4 {
		t.Errorf("restored %d accounts from the export, want 4", got)
	}
}

func TestLoadConfig(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv("TALLY_CONFIG", "")
	t.Setenv("TALLY_STYLE", "dark")
	if err := os.MkdirAll(filepath.Join(home, ".config", "tally"), 0o755); err != nil {
		t.Fatal(err)
	}
	config := "data = \"finances.json\"\nkeep = 5\n"
	if err := os.WriteFile(filepath.Join(home, ".config", "tally", "config.toml"), []byte(config), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig() error: %v", err)
	}
	want := Config{Data: "finances.json", Keep: 5, Style: "dark"}
	if cfg != want {
		t.Errorf("LoadConfig() = %+v, want %+v", cfg, want)
	}

	t.Setenv("TALLY_CONFIG", filepath.Join(home, "missing.toml"))
	if _, err := LoadConfig(); err == nil {
		t.Errorf("LoadConfig(missing TALLY_CONFIG) succeeded, want an error")
	}
}

func TestCompletion(t *testing.T) {
	c := Completion()
	for _, name := range []string{"import", "summary", "topic", "help"} {
		if _, ok := c.Sub[name]; !ok {
			t.Errorf("Completion() has no %q subcommand", name)
		}
	}
	if _, ok := c.Sub["import"].Flags["skip-duplicates"]; !ok {
		t.Errorf("import completion has no -skip-duplicates flag")
	}
}
