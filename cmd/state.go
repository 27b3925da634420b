package cmd

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io/fs"
	"os"

	"github.com/etnz/tally"
	"github.com/etnz/tally/persist"
	"github.com/google/subcommands"
)

type initCmd struct {
	currency string
	name     string
	start    string
	force    bool
}

func (*initCmd) Name() string     { return "init" }
func (*initCmd) Synopsis() string { return "create a new empty state" }
func (*initCmd) Usage() string {
	return `tally init -currency <ticker> [-name <name>] [-start <date>] [-force]

  Creates a new state with a base currency. It refuses to overwrite an
  existing data file unless -force is given.
`
}

func (c *initCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.currency, "currency", "EUR", "Ticker of the base currency.")
	f.StringVar(&c.name, "name", "", "Name of the user.")
	f.StringVar(&c.start, "start", "", "Tracking start date. Defaults to today.")
	f.BoolVar(&c.force, "force", false, "Overwrite an existing data file.")
}

func (c *initCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if _, err := os.Stat(dataPath); err == nil && !c.force {
		fmt.Fprintf(os.Stderr, "Error: %q already exists, use -force to overwrite it.\n", dataPath)
		return subcommands.ExitFailure
	}
	on, err := today()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitUsageError
	}
	user := tally.UpdateUser{}
	if c.name != "" {
		user.Name = tally.Set(c.name)
	}
	if c.start != "" {
		start, err := parseDate(c.start)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			return subcommands.ExitUsageError
		}
		user.Start = tally.Set(start)
	}
	s, err := tally.Empty(on).Apply(tally.AddCurrency{Ticker: c.currency}, user)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}
	if err := saveState(ctx, s); err != nil {
		fmt.Fprintf(os.Stderr, "Error saving state: %v\n", err)
		return subcommands.ExitFailure
	}
	fmt.Printf("Initialised %s with base currency %s\n", dataPath, c.currency)
	return subcommands.ExitSuccess
}

type resetCmd struct {
	demo bool
}

func (*resetCmd) Name() string     { return "reset" }
func (*resetCmd) Synopsis() string { return "replace the state with an empty or a demo one" }
func (*resetCmd) Usage() string {
	return `tally reset [-demo]

  Replaces the whole state with an empty state, or with the demo dataset.
`
}

func (c *resetCmd) SetFlags(f *flag.FlagSet) {
	f.BoolVar(&c.demo, "demo", false, "Load the demo dataset.")
}

func (c *resetCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	on, err := today()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitUsageError
	}
	s := tally.Empty(on)
	if c.demo {
		s = tally.Demo(on)
	}
	if err := saveState(ctx, s); err != nil {
		fmt.Fprintf(os.Stderr, "Error saving state: %v\n", err)
		return subcommands.ExitFailure
	}
	fmt.Printf("Reset %s: %d accounts, %d transactions\n", dataPath, s.Accounts().Len(), s.Transactions().Len())
	return subcommands.ExitSuccess
}

type exportCmd struct {
	output string
}

func (*exportCmd) Name() string     { return "export" }
func (*exportCmd) Synopsis() string { return "write the state as a JSON document" }
func (*exportCmd) Usage() string {
	return `tally export [-o <file>]

  Writes the whole state as a single JSON document, to stdout by default.
`
}

func (c *exportCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.output, "o", "", "Output file. Defaults to stdout.")
}

func (c *exportCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	s, err := loadState(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading state: %v\n", err)
		return subcommands.ExitFailure
	}
	if c.output != "" {
		if err := (persist.File{Path: c.output}).Save(ctx, s); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			return subcommands.ExitFailure
		}
		return subcommands.ExitSuccess
	}
	if err := tally.EncodeState(os.Stdout, s); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}
	return subcommands.ExitSuccess
}

type restoreCmd struct {
	snapshot bool
}

func (*restoreCmd) Name() string     { return "restore" }
func (*restoreCmd) Synopsis() string { return "replace the state with a JSON document or the latest snapshot" }
func (*restoreCmd) Usage() string {
	return `tally restore <file>
tally restore -snapshot

  Replaces the whole state with the content of a document written by
  'tally export', or with the latest snapshot of the mirror. The document
  is fully validated first: on any error the state is left untouched.
`
}

func (c *restoreCmd) SetFlags(f *flag.FlagSet) {
	f.BoolVar(&c.snapshot, "snapshot", false, "Restore the latest snapshot of the mirror.")
}

func (c *restoreCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	on, err := today()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitUsageError
	}
	var src persist.Store
	switch {
	case c.snapshot && f.NArg() == 0:
		if mirrorPath == "" {
			fmt.Fprintln(os.Stderr, "Error: no mirror configured, use -mirror.")
			return subcommands.ExitUsageError
		}
		db, err := persist.OpenSQLite(mirrorPath, keep)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			return subcommands.ExitFailure
		}
		defer db.Close()
		src = db
	case !c.snapshot && f.NArg() == 1:
		src = persist.File{Path: f.Arg(0)}
	default:
		f.Usage()
		return subcommands.ExitUsageError
	}

	s, err := src.Load(ctx, on)
	if errors.Is(err, fs.ErrNotExist) {
		fmt.Fprintf(os.Stderr, "Error: nothing to restore: %v\n", err)
		return subcommands.ExitFailure
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}
	if err := saveState(ctx, s); err != nil {
		fmt.Fprintf(os.Stderr, "Error saving state: %v\n", err)
		return subcommands.ExitFailure
	}
	fmt.Printf("Restored %d accounts, %d transactions\n", s.Accounts().Len(), s.Transactions().Len())
	return subcommands.ExitSuccess
}

type verifyCmd struct{}

func (*verifyCmd) Name() string     { return "verify" }
func (*verifyCmd) Synopsis() string { return "check the state consistency" }
func (*verifyCmd) Usage() string {
	return `tally verify

  Checks every invariant of the state, and that cached aggregates match a
  full recompute.
`
}

func (*verifyCmd) SetFlags(f *flag.FlagSet) {}

func (*verifyCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	s, err := loadState(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading state: %v\n", err)
		return subcommands.ExitFailure
	}
	if err := s.Verify(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}
	fmt.Println("ok")
	return subcommands.ExitSuccess
}

type snapshotsCmd struct{}

func (*snapshotsCmd) Name() string     { return "snapshots" }
func (*snapshotsCmd) Synopsis() string { return "list the snapshots kept in the mirror" }
func (*snapshotsCmd) Usage() string {
	return `tally -mirror <db> snapshots

  Lists the snapshots of the SQLite mirror, latest first.
`
}

func (*snapshotsCmd) SetFlags(f *flag.FlagSet) {}

func (*snapshotsCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if mirrorPath == "" {
		fmt.Fprintln(os.Stderr, "Error: no mirror configured, use -mirror.")
		return subcommands.ExitUsageError
	}
	db, err := persist.OpenSQLite(mirrorPath, keep)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}
	defer db.Close()
	snapshots, err := db.Snapshots(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}
	for _, s := range snapshots {
		fmt.Printf("%d\t%s\t%d bytes\n", s.ID, s.SavedAt.Local().Format("2006-01-02 15:04:05"), s.Size)
	}
	return subcommands.ExitSuccess
}
