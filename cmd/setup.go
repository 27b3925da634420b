package cmd

import (
	"context"
	"flag"
	"fmt"
	"os"
	"slices"
	"strings"

	"github.com/etnz/tally"
	"github.com/etnz/tally/date"
	"github.com/google/subcommands"
	"github.com/shopspring/decimal"
)

// parseDate parses a command line date.
func parseDate(str string) (date.Date, error) {
	d, err := date.Parse(str)
	if err != nil {
		return date.Date{}, fmt.Errorf("invalid date %q: %w", str, err)
	}
	return d, nil
}

type addCurrencyCmd struct {
	symbol string
	colour string
}

func (*addCurrencyCmd) Name() string     { return "add-currency" }
func (*addCurrencyCmd) Synopsis() string { return "add a currency" }
func (*addCurrencyCmd) Usage() string {
	return `tally add-currency [-symbol <symbol>] [-colour <colour>] <ticker>

  Adds a currency. The first currency added becomes the base currency.
  Exchange rates are set with 'tally set-rate'.
`
}

func (c *addCurrencyCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.symbol, "symbol", "", "Display symbol.")
	f.StringVar(&c.colour, "colour", "", "Display colour.")
}

func (c *addCurrencyCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if f.NArg() != 1 {
		f.Usage()
		return subcommands.ExitUsageError
	}
	_, status := mutate(ctx, func(s *tally.State) ([]tally.Command, error) {
		return []tally.Command{tally.AddCurrency{Ticker: f.Arg(0), Symbol: c.symbol, Colour: c.colour}}, nil
	})
	return status
}

type setRateCmd struct {
	month string
}

func (*setRateCmd) Name() string     { return "set-rate" }
func (*setRateCmd) Synopsis() string { return "set a currency exchange rate for a month" }
func (*setRateCmd) Usage() string {
	return `tally set-rate [-m <month>] <ticker> <rate>

  Sets the rate of a currency from a month on: the number of units of the
  currency for one unit of the anchor. Rates of every currency share the
  same anchor, usually the base currency at rate 1.
`
}

func (c *setRateCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.month, "m", "", "Any day of the month the rate applies from. Defaults to the current month.")
}

func (c *setRateCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if f.NArg() != 2 {
		f.Usage()
		return subcommands.ExitUsageError
	}
	_, status := mutate(ctx, func(s *tally.State) ([]tally.Command, error) {
		id, err := findCurrency(s, f.Arg(0))
		if err != nil {
			return nil, err
		}
		rate, err := decimal.NewFromString(f.Arg(1))
		if err != nil {
			return nil, fmt.Errorf("invalid rate %q: %w", f.Arg(1), err)
		}
		month := s.Current()
		if c.month != "" {
			if month, err = parseDate(c.month); err != nil {
				return nil, err
			}
		}
		month = month.StartOfMonth()

		cur, _ := s.Currencies().Get(id)
		rates := slices.DeleteFunc(slices.Clone(cur.Rates), func(p tally.RatePoint) bool { return p.Month == month })
		rates = append(rates, tally.RatePoint{Month: month, Rate: rate})
		return []tally.Command{tally.SetRates{Currency: id, Rates: rates}}, nil
	})
	return status
}

type addInstitutionCmd struct {
	colour string
	icon   string
}

func (*addInstitutionCmd) Name() string     { return "add-institution" }
func (*addInstitutionCmd) Synopsis() string { return "add an institution" }
func (*addInstitutionCmd) Usage() string {
	return `tally add-institution [-colour <colour>] [-icon <url>] <name>
`
}

func (c *addInstitutionCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.colour, "colour", "", "Display colour.")
	f.StringVar(&c.icon, "icon", "", "Icon URL.")
}

func (c *addInstitutionCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if f.NArg() == 0 {
		f.Usage()
		return subcommands.ExitUsageError
	}
	_, status := mutate(ctx, func(s *tally.State) ([]tally.Command, error) {
		return []tally.Command{tally.AddInstitution{Name: strings.Join(f.Args(), " "), Colour: c.colour, Icon: c.icon}}, nil
	})
	return status
}

type addAccountCmd struct {
	institution string
	kind        string
	opened      string
}

func (*addAccountCmd) Name() string     { return "add-account" }
func (*addAccountCmd) Synopsis() string { return "add an account" }
func (*addAccountCmd) Usage() string {
	return `tally add-account [-i <institution>] [-kind <kind>] [-opened <date>] <name>

  Adds an account. Kinds are transactional, investment, asset and liability.
`
}

func (c *addAccountCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.institution, "i", "", "Institution name or ID. Defaults to no institution.")
	f.StringVar(&c.kind, "kind", "transactional", "Account kind.")
	f.StringVar(&c.opened, "opened", "", "Opening date. Defaults to the tracking start date.")
}

func (c *addAccountCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if f.NArg() == 0 {
		f.Usage()
		return subcommands.ExitUsageError
	}
	_, status := mutate(ctx, func(s *tally.State) ([]tally.Command, error) {
		add := tally.AddAccount{Name: strings.Join(f.Args(), " ")}
		var err error
		if c.institution != "" {
			if add.Institution, err = findInstitution(s, c.institution); err != nil {
				return nil, err
			}
		}
		if add.Kind, err = tally.ParseAccountKind(c.kind); err != nil {
			return nil, err
		}
		if c.opened != "" {
			if add.Opened, err = parseDate(c.opened); err != nil {
				return nil, err
			}
		}
		return []tally.Command{add}, nil
	})
	return status
}

type addCategoryCmd struct {
	parent string
	colour string
}

func (*addCategoryCmd) Name() string     { return "add-category" }
func (*addCategoryCmd) Synopsis() string { return "add a category" }
func (*addCategoryCmd) Usage() string {
	return `tally add-category [-parent <category>] [-colour <colour>] <name>
`
}

func (c *addCategoryCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.parent, "parent", "", "Parent category name or ID.")
	f.StringVar(&c.colour, "colour", "", "Display colour.")
}

func (c *addCategoryCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if f.NArg() == 0 {
		f.Usage()
		return subcommands.ExitUsageError
	}
	_, status := mutate(ctx, func(s *tally.State) ([]tally.Command, error) {
		add := tally.AddCategory{Name: strings.Join(f.Args(), " "), Colour: c.colour}
		if c.parent != "" {
			var err error
			if add.Parent, err = findCategory(s, c.parent); err != nil {
				return nil, err
			}
		}
		return []tally.Command{add}, nil
	})
	return status
}

type setBudgetCmd struct {
	strategy string
	start    string
	remove   bool
}

func (*setBudgetCmd) Name() string     { return "set-budget" }
func (*setBudgetCmd) Synopsis() string { return "set a category monthly budget" }
func (*setBudgetCmd) Usage() string {
	return `tally set-budget [-strategy base|copy|rollover] [-start <date>] <category> <value>...
tally set-budget -remove <category>

  Sets the monthly budget targets of a category. Values are given from the
  current month backward, "?" leaves a month without explicit target.
  Expenses are budgeted with negative values.
`
}

func (c *setBudgetCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.strategy, "strategy", string(tally.Copy), "How months without explicit value are derived.")
	f.StringVar(&c.start, "start", "", "First month of the budget.")
	f.BoolVar(&c.remove, "remove", false, "Remove the budget.")
}

func (c *setBudgetCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if f.NArg() < 1 || (!c.remove && f.NArg() < 2) {
		f.Usage()
		return subcommands.ExitUsageError
	}
	_, status := mutate(ctx, func(s *tally.State) ([]tally.Command, error) {
		id, err := findCategory(s, f.Arg(0))
		if err != nil {
			return nil, err
		}
		if c.remove {
			return []tally.Command{tally.SetBudget{Category: id}}, nil
		}
		set := tally.SetBudget{Category: id, Strategy: tally.BudgetStrategy(c.strategy)}
		if c.start != "" {
			if set.Start, err = parseDate(c.start); err != nil {
				return nil, err
			}
		}
		for _, arg := range f.Args()[1:] {
			v, err := parseValue(arg)
			if err != nil {
				return nil, err
			}
			set.Values = append(set.Values, v)
		}
		return []tally.Command{set}, nil
	})
	return status
}

type deleteCmd struct {
	into string
}

func (*deleteCmd) Name() string     { return "delete" }
func (*deleteCmd) Synopsis() string { return "delete an entity" }
func (*deleteCmd) Usage() string {
	return `tally delete [-into <name>] <kind> <name or ID>...

  Deletes entities of a kind: currency, institution, account, category,
  rule, statement or transaction. References are reassigned:

  - a currency in use needs -into, a replacement currency.
  - an institution merges its accounts -into another one, or into none.
  - an account deletes its transactions and statements.
  - a category moves its transactions and subcategories to its parent.
  - a statement keeps its transactions, as manual ones.
`
}

func (c *deleteCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.into, "into", "", "Replacement currency, or the institution receiving the accounts.")
}

func (c *deleteCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if f.NArg() < 2 {
		f.Usage()
		return subcommands.ExitUsageError
	}
	kind, keys := f.Arg(0), f.Args()[1:]
	_, status := mutate(ctx, func(s *tally.State) ([]tally.Command, error) {
		var cmds tally.Batch
		for _, key := range keys {
			cmd, err := c.command(s, kind, key)
			if err != nil {
				return nil, err
			}
			cmds = append(cmds, cmd)
		}
		return []tally.Command{cmds}, nil
	})
	if status == subcommands.ExitSuccess {
		fmt.Fprintf(os.Stderr, "Deleted %d %s(s)\n", len(keys), kind)
	}
	return status
}

func (c *deleteCmd) command(s *tally.State, kind, key string) (tally.Command, error) {
	switch kind {
	case "currency":
		id, err := findCurrency(s, key)
		if err != nil {
			return nil, err
		}
		cmd := tally.DeleteCurrency{ID: id}
		if c.into != "" {
			if cmd.Replacement, err = findCurrency(s, c.into); err != nil {
				return nil, err
			}
		}
		return cmd, nil
	case "institution":
		id, err := findInstitution(s, key)
		if err != nil {
			return nil, err
		}
		cmd := tally.DeleteInstitution{ID: id}
		if c.into != "" {
			if cmd.Into, err = findInstitution(s, c.into); err != nil {
				return nil, err
			}
		}
		return cmd, nil
	case "account":
		id, err := findAccount(s, key)
		return tally.DeleteAccount{ID: id}, err
	case "category":
		id, err := findCategory(s, key)
		return tally.DeleteCategory{ID: id}, err
	case "rule":
		id, err := findRule(s, key)
		return tally.DeleteRule{ID: id}, err
	case "statement":
		id, err := find(s.Statements(), "statement", key, func(st tally.Statement) string { return st.Name })
		return tally.DeleteStatement{ID: id}, err
	case "transaction":
		ids, err := parseIDs([]string{key})
		if err != nil {
			return nil, err
		}
		return tally.DeleteTransactions{IDs: ids}, nil
	default:
		return nil, fmt.Errorf("unknown kind %q", kind)
	}
}
