package cmd

import (
	"bytes"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"

	"github.com/PaesslerAG/jsonpath"
	"github.com/etnz/tally"
	"github.com/etnz/tally/renderer"
	"github.com/google/subcommands"
)

// summaryCmd holds the flags for the 'summary' subcommand.
type summaryCmd struct {
	month  int
	months int
}

func (*summaryCmd) Name() string     { return "summary" }
func (*summaryCmd) Synopsis() string { return "display the income, expenses and net worth of a month" }
func (*summaryCmd) Usage() string {
	return `tally summary [-m <months ago>] [-n <months>]

  Displays the summary of a month and the trend of the previous months.
`
}

func (c *summaryCmd) SetFlags(f *flag.FlagSet) {
	f.IntVar(&c.month, "m", 0, "Month, as a number of months before the current one.")
	f.IntVar(&c.months, "n", 6, "Number of months in the trend.")
}

func (c *summaryCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	s, err := loadState(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading state: %v\n", err)
		return subcommands.ExitFailure
	}
	printMarkdown(renderer.SummaryMarkdown(s, c.month, c.months))
	return subcommands.ExitSuccess
}

type budgetCmd struct {
	month int
}

func (*budgetCmd) Name() string     { return "budget" }
func (*budgetCmd) Synopsis() string { return "compare budgets with actual transactions" }
func (*budgetCmd) Usage() string {
	return `tally budget [-m <months ago>]
`
}

func (c *budgetCmd) SetFlags(f *flag.FlagSet) {
	f.IntVar(&c.month, "m", 0, "Month, as a number of months before the current one.")
}

func (c *budgetCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	s, err := loadState(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading state: %v\n", err)
		return subcommands.ExitFailure
	}
	printMarkdown(renderer.BudgetMarkdown(s, c.month))
	return subcommands.ExitSuccess
}

type accountsCmd struct {
	month int
}

func (*accountsCmd) Name() string     { return "accounts" }
func (*accountsCmd) Synopsis() string { return "display account balances by institution" }
func (*accountsCmd) Usage() string {
	return `tally accounts [-m <months ago>]
`
}

func (c *accountsCmd) SetFlags(f *flag.FlagSet) {
	f.IntVar(&c.month, "m", 0, "Month, as a number of months before the current one.")
}

func (c *accountsCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	s, err := loadState(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading state: %v\n", err)
		return subcommands.ExitFailure
	}
	printMarkdown(renderer.AccountsMarkdown(s, c.month))
	return subcommands.ExitSuccess
}

type queryCmd struct{}

func (*queryCmd) Name() string     { return "query" }
func (*queryCmd) Synopsis() string { return "evaluate a JSONPath expression on the exported document" }
func (*queryCmd) Usage() string {
	return `tally query <jsonpath>

  Evaluates a JSONPath expression on the document written by 'tally export'
  and prints the result as JSON. For instance:

    tally query '$.accounts.items[*].name'
`
}

func (*queryCmd) SetFlags(f *flag.FlagSet) {}

func (*queryCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if f.NArg() != 1 {
		f.Usage()
		return subcommands.ExitUsageError
	}
	s, err := loadState(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading state: %v\n", err)
		return subcommands.ExitFailure
	}
	result, err := query(s, f.Arg(0))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(result); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}
	return subcommands.ExitSuccess
}

// query evaluates path on the JSON document of s.
func query(s *tally.State, path string) (any, error) {
	var buf bytes.Buffer
	if err := tally.EncodeState(&buf, s); err != nil {
		return nil, err
	}
	var jobj any
	if err := json.Unmarshal(buf.Bytes(), &jobj); err != nil {
		return nil, err
	}
	jval, err := jsonpath.Get(path, jobj)
	if err != nil {
		return nil, fmt.Errorf("error evaluating %q: %w", path, err)
	}
	return jval, nil
}
