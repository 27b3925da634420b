package cmd

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"

	"github.com/etnz/tally"
	"github.com/etnz/tally/date"
	"github.com/etnz/tally/renderer"
	"github.com/google/subcommands"
)

// decodeRecords reads JSONL records, one JSON object per line.
func decodeRecords(r io.Reader) ([]tally.Record, error) {
	var records []tally.Record
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()
	for {
		var rec tally.Record
		err := dec.Decode(&rec)
		if errors.Is(err, io.EOF) {
			return records, nil
		}
		if err != nil {
			return nil, fmt.Errorf("record %d: %w", len(records), err)
		}
		records = append(records, rec)
	}
}

type importCmd struct {
	account        string
	name           string
	skipDuplicates bool
	dryRun         bool
}

func (*importCmd) Name() string     { return "import" }
func (*importCmd) Synopsis() string { return "import a statement of JSONL records" }
func (*importCmd) Usage() string {
	return `tally import -a <account> [-name <name>] [-skip-duplicates] [-n] <file.jsonl | ->

  Imports a statement on an account. Each line of the file is a record:

    {"date":"2025-06-02","reference":"CARD SUPERMARKET","value":-42.10,"balance":1234.56}

  "value" is null when unknown, "balance" is the optional balance recorded
  after the record, "currency" an optional currency ID. Rules are applied
  to the new transactions. An invalid record rejects the whole statement.

  Records looking like existing transactions (same value, close dates and
  references) are reported, and skipped with -skip-duplicates.
`
}

func (c *importCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.account, "a", "", "Account name or ID.")
	f.StringVar(&c.name, "name", "", "Statement name. Defaults to the file name.")
	f.BoolVar(&c.skipDuplicates, "skip-duplicates", false, "Skip records looking like existing transactions.")
	f.BoolVar(&c.dryRun, "n", false, "Check the statement without saving it.")
}

func (c *importCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if f.NArg() != 1 || c.account == "" {
		f.Usage()
		return subcommands.ExitUsageError
	}
	path := f.Arg(0)
	var content []byte
	var err error
	if path == "-" {
		content, err = io.ReadAll(os.Stdin)
	} else {
		content, err = os.ReadFile(path)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error reading %q: %v\n", path, err)
		return subcommands.ExitFailure
	}
	records, err := decodeRecords(bytes.NewReader(content))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error decoding %q: %v\n", path, err)
		return subcommands.ExitFailure
	}
	name := c.name
	if name == "" {
		name = filepath.Base(path)
	}

	build := func(s *tally.State) ([]tally.Command, error) {
		account, err := findAccount(s, c.account)
		if err != nil {
			return nil, err
		}
		var skip []int
		for _, d := range s.Duplicates(account, records) {
			fmt.Fprintf(os.Stderr, "Warning: record %d looks like transaction %d (similarity %.2f)\n", d.Record, d.Transaction, d.Similarity)
			skip = append(skip, d.Record)
		}
		kept := records
		if c.skipDuplicates && len(skip) > 0 {
			kept = nil
			for i, r := range records {
				if !slices.Contains(skip, i) {
					kept = append(kept, r)
				}
			}
			fmt.Fprintf(os.Stderr, "Skipping %d duplicate record(s)\n", len(skip))
			if len(kept) == 0 {
				return nil, errors.New("every record is a duplicate")
			}
		}
		return []tally.Command{tally.ImportStatement{Account: account, Name: name, Contents: string(content), Records: kept}}, nil
	}

	if c.dryRun {
		s, err := loadState(ctx)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error loading state: %v\n", err)
			return subcommands.ExitFailure
		}
		cmds, err := build(s)
		if err == nil {
			_, err = s.Apply(cmds...)
		}
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			return subcommands.ExitFailure
		}
		fmt.Printf("%d record(s) would be imported\n", len(cmds[0].(tally.ImportStatement).Records))
		return subcommands.ExitSuccess
	}

	s, status := mutate(ctx, build)
	if status != subcommands.ExitSuccess {
		return status
	}
	ids := s.Statements().IDs()
	fmt.Printf("Imported statement %d\n", ids[len(ids)-1])
	return subcommands.ExitSuccess
}

type addTxCmd struct {
	account     string
	date        string
	value       string
	currency    string
	category    string
	summary     string
	reference   string
	description string
	rules       bool
}

func (*addTxCmd) Name() string     { return "add-tx" }
func (*addTxCmd) Synopsis() string { return "add a manual transaction" }
func (*addTxCmd) Usage() string {
	return `tally add-tx -a <account> -v <value> [-d <date>] [-c <category>] [-s <summary>] [-currency <ticker>] [-rules]

  Adds a transaction by hand. A value of "?" is unknown.
`
}

func (c *addTxCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.account, "a", "", "Account name or ID.")
	f.StringVar(&c.date, "d", "", "Date. Defaults to today.")
	f.StringVar(&c.value, "v", "?", "Value, negative for expenses.")
	f.StringVar(&c.currency, "currency", "", "Currency ticker. Defaults to the base currency.")
	f.StringVar(&c.category, "c", "", "Category name or ID.")
	f.StringVar(&c.summary, "s", "", "Summary.")
	f.StringVar(&c.reference, "ref", "", "Reference.")
	f.StringVar(&c.description, "desc", "", "Description.")
	f.BoolVar(&c.rules, "rules", false, "Apply the rules to the transaction.")
}

func (c *addTxCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if c.account == "" {
		f.Usage()
		return subcommands.ExitUsageError
	}
	s, status := mutate(ctx, func(s *tally.State) ([]tally.Command, error) {
		t := tally.Transaction{Summary: c.summary, Reference: c.reference, Description: c.description}
		var err error
		if t.Account, err = findAccount(s, c.account); err != nil {
			return nil, err
		}
		if t.Value, err = parseValue(c.value); err != nil {
			return nil, err
		}
		if t.Date, err = today(); err != nil {
			return nil, err
		}
		if c.date != "" {
			if t.Date, err = parseDate(c.date); err != nil {
				return nil, err
			}
		}
		if c.currency != "" {
			if t.Currency, err = findCurrency(s, c.currency); err != nil {
				return nil, err
			}
		}
		if c.category != "" {
			if t.Category, err = findCategory(s, c.category); err != nil {
				return nil, err
			}
		}
		return []tally.Command{tally.AddTransaction{Transaction: t, ApplyRules: c.rules}}, nil
	})
	if status == subcommands.ExitSuccess {
		fmt.Printf("Added transaction %d\n", s.Transactions().NextID()-1)
	}
	return status
}

type editTxCmd struct {
	account     string
	date        string
	value       string
	currency    string
	category    string
	summary     string
	reference   string
	description string
}

func (*editTxCmd) Name() string     { return "edit-tx" }
func (*editTxCmd) Synopsis() string { return "edit one or several transactions" }
func (*editTxCmd) Usage() string {
	return `tally edit-tx [-a <account>] [-d <date>] [-v <value>] [-c <category>] [-s <summary>] ... <ID>...

  Sets the given fields on every selected transaction, other fields are
  left untouched.
`
}

func (c *editTxCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.account, "a", "", "Account name or ID.")
	f.StringVar(&c.date, "d", "", "Date.")
	f.StringVar(&c.value, "v", "", `Value, "?" when unknown.`)
	f.StringVar(&c.currency, "currency", "", "Currency ticker.")
	f.StringVar(&c.category, "c", "", "Category name or ID.")
	f.StringVar(&c.summary, "s", "", "Summary.")
	f.StringVar(&c.reference, "ref", "", "Reference.")
	f.StringVar(&c.description, "desc", "", "Description.")
}

func (c *editTxCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	ids, err := parseIDs(f.Args())
	if err != nil || len(ids) == 0 {
		f.Usage()
		return subcommands.ExitUsageError
	}
	_, status := mutate(ctx, func(s *tally.State) ([]tally.Command, error) {
		var e tally.Editor
		if err := e.Select(s, ids...); err != nil {
			return nil, err
		}
		if err := c.edit(s, f, &e); err != nil {
			return nil, err
		}
		cmd, err := e.Command()
		if err != nil || cmd == nil {
			return nil, err
		}
		return []tally.Command{cmd}, nil
	})
	return status
}

// edit writes every flag set on the command line into the editor buffer.
func (c *editTxCmd) edit(s *tally.State, f *flag.FlagSet, e *tally.Editor) error {
	var errs []error
	if isSet(f, "a") {
		id, err := findAccount(s, c.account)
		errs = append(errs, err, e.SetAccount(id))
	}
	if isSet(f, "d") {
		d, err := parseDate(c.date)
		errs = append(errs, err, e.SetDate(d))
	}
	if isSet(f, "v") {
		v, err := parseValue(c.value)
		errs = append(errs, err, e.SetValue(v))
	}
	if isSet(f, "currency") {
		id, err := findCurrency(s, c.currency)
		errs = append(errs, err, e.SetCurrency(id))
	}
	if isSet(f, "c") {
		id, err := findCategory(s, c.category)
		errs = append(errs, err, e.SetCategory(id))
	}
	if isSet(f, "s") {
		errs = append(errs, e.SetSummary(c.summary))
	}
	if isSet(f, "ref") {
		errs = append(errs, e.SetReference(c.reference))
	}
	if isSet(f, "desc") {
		errs = append(errs, e.SetDescription(c.description))
	}
	return errors.Join(errs...)
}

type txCmd struct {
	account  string
	category string
	month    int
	all      bool
	head     int
	tail     int
}

func (*txCmd) Name() string     { return "tx" }
func (*txCmd) Synopsis() string { return "list transactions" }
func (*txCmd) Usage() string {
	return `tally tx [-a <account>] [-c <category>] [-m <months ago> | -all] [-head <n>] [-tail <n>]

  Lists the transactions of a month, the current one by default, by date.
  A category includes its subcategories.
`
}

func (p *txCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&p.account, "a", "", "Only transactions of this account.")
	f.StringVar(&p.category, "c", "", "Only transactions of this category or its subcategories.")
	f.IntVar(&p.month, "m", 0, "Month, as a number of months before the current one.")
	f.BoolVar(&p.all, "all", false, "Every month.")
	f.IntVar(&p.head, "head", 0, "Show only the first N transactions.")
	f.IntVar(&p.tail, "tail", 0, "Show only the last N transactions.")
}

func (p *txCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if p.head > 0 && p.tail > 0 {
		fmt.Fprintln(os.Stderr, "Error: -head and -tail flags cannot be used together.")
		return subcommands.ExitUsageError
	}
	s, err := loadState(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading state: %v\n", err)
		return subcommands.ExitFailure
	}
	transactions, err := p.filter(s)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitUsageError
	}

	if p.head > 0 && len(transactions) > p.head {
		transactions = transactions[:p.head]
	}
	if p.tail > 0 && len(transactions) > p.tail {
		transactions = transactions[len(transactions)-p.tail:]
	}

	printMarkdown(renderer.TransactionsMarkdown(s, transactions))
	return subcommands.ExitSuccess
}

// filter returns the selected transactions sorted by date.
func (p *txCmd) filter(s *tally.State) ([]tally.Transaction, error) {
	account, category := tally.ID(-1), tally.ID(-1)
	var err error
	if p.account != "" {
		if account, err = findAccount(s, p.account); err != nil {
			return nil, err
		}
	}
	if p.category != "" {
		if category, err = findCategory(s, p.category); err != nil {
			return nil, err
		}
	}
	month := date.MonthRange(s.Current().AddMonths(-p.month))

	var transactions []tally.Transaction
	for _, t := range s.Transactions().All() {
		if account >= 0 && t.Account != account {
			continue
		}
		if category >= 0 && !inCategory(s, t.Category, category) {
			continue
		}
		if !p.all && !month.Contains(t.Date) {
			continue
		}
		transactions = append(transactions, t)
	}
	slices.SortStableFunc(transactions, func(a, b tally.Transaction) int {
		switch {
		case a.Date.Before(b.Date):
			return -1
		case a.Date.After(b.Date):
			return 1
		}
		return 0
	})
	return transactions, nil
}

// inCategory reports whether id is category or one of its descendants.
func inCategory(s *tally.State, id, category tally.ID) bool {
	if id == category {
		return true
	}
	c, _ := s.Categories().Get(id)
	return slices.Contains(c.Hierarchy, category)
}
