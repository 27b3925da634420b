// Package cmd implements the tally command line.
package cmd

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io/fs"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/etnz/tally"
	"github.com/etnz/tally/date"
	"github.com/etnz/tally/persist"
	"github.com/google/subcommands"
	"github.com/shopspring/decimal"
)

// Register the subcommands and the global flags, defaulting to cfg.
// A main package will call Register() to allow subcommands, and Execute() on the user-selected one.
func Register(c *subcommands.Commander, cfg Config) {
	flag.StringVar(&dataPath, "data", cfg.Data, "Path to the JSON document holding the state.")
	flag.StringVar(&mirrorPath, "mirror", cfg.Mirror, "Path to a SQLite database mirroring every saved state. Disabled when empty.")
	flag.IntVar(&keep, "keep", cfg.Keep, "Number of snapshots kept in the mirror.")
	flag.StringVar(&style, "style", cfg.Style, "Report style: a glamour style (auto, dark, light, notty), raw markdown, or html.")
	flag.StringVar(&todayFlag, "today", cfg.Today, "Override today's date (YYYY-MM-DD).")

	for _, cmd := range Commands {
		c.Register(cmd.cmd, cmd.group)
	}
}

type command struct {
	cmd   subcommands.Command
	group string
}

// Commands lists every subcommand with its group.
var Commands = []command{
	{&initCmd{}, "state"},
	{&resetCmd{}, "state"},
	{&exportCmd{}, "state"},
	{&restoreCmd{}, "state"},
	{&verifyCmd{}, "state"},
	{&snapshotsCmd{}, "state"},

	{&addCurrencyCmd{}, "setup"},
	{&setRateCmd{}, "setup"},
	{&addInstitutionCmd{}, "setup"},
	{&addAccountCmd{}, "setup"},
	{&addCategoryCmd{}, "setup"},
	{&setBudgetCmd{}, "setup"},
	{&deleteCmd{}, "setup"},

	{&addRuleCmd{}, "rules"},
	{&moveRuleCmd{}, "rules"},
	{&applyRulesCmd{}, "rules"},
	{&rulesCmd{}, "rules"},

	{&importCmd{}, "transactions"},
	{&addTxCmd{}, "transactions"},
	{&editTxCmd{}, "transactions"},
	{&txCmd{}, "transactions"},

	{&summaryCmd{}, "reports"},
	{&budgetCmd{}, "reports"},
	{&accountsCmd{}, "reports"},
	{&queryCmd{}, "reports"},

	{&topicCmd{}, "help"},
}

// as a CLI application, it has a very short lived lifecycle, so it is ok to use global variables.
var (
	dataPath   string
	mirrorPath string
	keep       int
	style      string
	todayFlag  string
)

// mirrorTimeout bounds the wait for the mirror before exiting.
const mirrorTimeout = 10 * time.Second

// today returns the date commands run on.
func today() (date.Date, error) {
	if todayFlag == "" {
		return date.Today(), nil
	}
	d, err := date.Parse(todayFlag)
	if err != nil {
		return date.Date{}, fmt.Errorf("invalid -today: %w", err)
	}
	return d, nil
}

// loadState loads the state from the data file, or an empty state when
// there is no data file yet.
func loadState(ctx context.Context) (*tally.State, error) {
	on, err := today()
	if err != nil {
		return nil, err
	}
	s, err := persist.File{Path: dataPath}.Load(ctx, on)
	if errors.Is(err, fs.ErrNotExist) {
		log.Println("warning, data file does not exist, starting from an empty state")
		return tally.Empty(on), nil
	}
	return s, err
}

// saveState writes s to the data file and mirrors it when a mirror is
// configured. Mirror failures are logged, never returned.
func saveState(ctx context.Context, s *tally.State) error {
	if err := (persist.File{Path: dataPath}).Save(ctx, s); err != nil {
		return err
	}
	if mirrorPath == "" {
		return nil
	}
	db, err := persist.OpenSQLite(mirrorPath, keep)
	if err != nil {
		log.Printf("warning, could not open mirror: %v", err)
		return nil
	}
	defer db.Close()

	bg := persist.NewBackground(db)
	bg.Submit(s)
	ctx, cancel := context.WithTimeout(ctx, mirrorTimeout)
	defer cancel()
	if err := bg.Flush(ctx); err != nil {
		log.Printf("warning, state not mirrored: %v", err)
	}
	bg.Close()
	return nil
}

// mutate loads the state, builds commands against it, applies them and
// saves the result.
func mutate(ctx context.Context, build func(s *tally.State) ([]tally.Command, error)) (*tally.State, subcommands.ExitStatus) {
	s, err := loadState(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading state: %v\n", err)
		return nil, subcommands.ExitFailure
	}
	cmds, err := build(s)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return nil, subcommands.ExitUsageError
	}
	next, err := s.Apply(cmds...)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return nil, subcommands.ExitFailure
	}
	if err := saveState(ctx, next); err != nil {
		fmt.Fprintf(os.Stderr, "Error saving state: %v\n", err)
		return nil, subcommands.ExitFailure
	}
	return next, subcommands.ExitSuccess
}

// find resolves key, either an ID or a case-insensitive name, in c.
func find[T any](c *tally.Collection[T], kind, key string, name func(T) string) (tally.ID, error) {
	if id, err := strconv.Atoi(key); err == nil {
		if !c.Has(tally.ID(id)) {
			return 0, fmt.Errorf("unknown %s %d", kind, id)
		}
		return tally.ID(id), nil
	}
	var found []tally.ID
	for id, v := range c.All() {
		if strings.EqualFold(name(v), key) {
			found = append(found, id)
		}
	}
	switch len(found) {
	case 0:
		return 0, fmt.Errorf("unknown %s %q", kind, key)
	case 1:
		return found[0], nil
	default:
		return 0, fmt.Errorf("ambiguous %s %q matches IDs %v, use an ID", kind, key, found)
	}
}

func findCurrency(s *tally.State, key string) (tally.ID, error) {
	return find(s.Currencies(), "currency", key, func(c tally.Currency) string { return c.Ticker })
}

func findInstitution(s *tally.State, key string) (tally.ID, error) {
	return find(s.Institutions(), "institution", key, func(i tally.Institution) string { return i.Name })
}

func findAccount(s *tally.State, key string) (tally.ID, error) {
	return find(s.Accounts(), "account", key, func(a tally.Account) string { return a.Name })
}

func findCategory(s *tally.State, key string) (tally.ID, error) {
	return find(s.Categories(), "category", key, func(c tally.Category) string { return c.Name })
}

func findRule(s *tally.State, key string) (tally.ID, error) {
	return find(s.Rules(), "rule", key, func(r tally.Rule) string { return r.Name })
}

// parseValue parses a value, "?" being an unknown value.
func parseValue(str string) (decimal.NullDecimal, error) {
	if str == "?" {
		return decimal.NullDecimal{}, nil
	}
	v, err := decimal.NewFromString(str)
	if err != nil {
		return decimal.NullDecimal{}, fmt.Errorf("invalid value %q: %w", str, err)
	}
	return decimal.NewNullDecimal(v), nil
}

// parseIDs parses command line arguments as IDs.
func parseIDs(args []string) ([]tally.ID, error) {
	ids := make([]tally.ID, 0, len(args))
	for _, arg := range args {
		id, err := strconv.Atoi(arg)
		if err != nil {
			return nil, fmt.Errorf("invalid ID %q", arg)
		}
		ids = append(ids, tally.ID(id))
	}
	return ids, nil
}

// isSet reports whether the flag name was given on the command line.
func isSet(f *flag.FlagSet, name string) bool {
	set := false
	f.Visit(func(fl *flag.Flag) {
		if fl.Name == name {
			set = true
		}
	})
	return set
}
