package cmd

import (
	"bytes"
	"context"
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/etnz/tally"
	"github.com/google/subcommands"
	md "github.com/nao1215/markdown"
)

type addRuleCmd struct {
	references string
	regex      bool
	accounts   string
	min, max   string
	category   string
	summary    string
	inactive   bool
}

func (*addRuleCmd) Name() string     { return "add-rule" }
func (*addRuleCmd) Synopsis() string { return "add a categorisation rule" }
func (*addRuleCmd) Usage() string {
	return `tally add-rule [-ref <a,b>] [-regex] [-accounts <a,b>] [-min <v>] [-max <v>] [-category <c>] [-summary <s>] <name>

  Adds a rule at the end of the rule list. Every active rule matching a new
  transaction edits it, in list order: later rules override earlier ones.
`
}

func (c *addRuleCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.references, "ref", "", "Comma separated reference substrings, any of them matches.")
	f.BoolVar(&c.regex, "regex", false, "References are regular expressions.")
	f.StringVar(&c.accounts, "accounts", "", "Comma separated accounts the rule is limited to.")
	f.StringVar(&c.min, "min", "", "Smallest matching value.")
	f.StringVar(&c.max, "max", "", "Largest matching value.")
	f.StringVar(&c.category, "category", "", "Category set on matching transactions.")
	f.StringVar(&c.summary, "summary", "", "Summary set on matching transactions.")
	f.BoolVar(&c.inactive, "inactive", false, "Add the rule inactive.")
}

func (c *addRuleCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if f.NArg() == 0 {
		f.Usage()
		return subcommands.ExitUsageError
	}
	_, status := mutate(ctx, func(s *tally.State) ([]tally.Command, error) {
		add := tally.AddRule{Name: strings.Join(f.Args(), " "), Inactive: c.inactive}
		add.Condition.Regex = c.regex
		if c.references != "" {
			add.Condition.Reference = strings.Split(c.references, ",")
		}
		if c.accounts != "" {
			for _, key := range strings.Split(c.accounts, ",") {
				id, err := findAccount(s, key)
				if err != nil {
					return nil, err
				}
				add.Condition.Accounts = append(add.Condition.Accounts, id)
			}
		}
		var err error
		if c.min != "" {
			if add.Condition.Min, err = parseValue(c.min); err != nil {
				return nil, err
			}
		}
		if c.max != "" {
			if add.Condition.Max, err = parseValue(c.max); err != nil {
				return nil, err
			}
		}
		if c.category != "" {
			id, err := findCategory(s, c.category)
			if err != nil {
				return nil, err
			}
			add.Edit.Category = tally.Set(id)
		}
		if c.summary != "" {
			add.Edit.Summary = tally.Set(c.summary)
		}
		return []tally.Command{add}, nil
	})
	return status
}

type moveRuleCmd struct{}

func (*moveRuleCmd) Name() string     { return "move-rule" }
func (*moveRuleCmd) Synopsis() string { return "change a rule priority" }
func (*moveRuleCmd) Usage() string {
	return `tally move-rule <rule> <position>

  Moves a rule to a position in the rule list, 0 being the first.
`
}

func (*moveRuleCmd) SetFlags(f *flag.FlagSet) {}

func (*moveRuleCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if f.NArg() != 2 {
		f.Usage()
		return subcommands.ExitUsageError
	}
	_, status := mutate(ctx, func(s *tally.State) ([]tally.Command, error) {
		id, err := findRule(s, f.Arg(0))
		if err != nil {
			return nil, err
		}
		to, err := strconv.Atoi(f.Arg(1))
		if err != nil {
			return nil, fmt.Errorf("invalid position %q", f.Arg(1))
		}
		return []tally.Command{tally.MoveRule{ID: id, To: to}}, nil
	})
	return status
}

type applyRulesCmd struct{}

func (*applyRulesCmd) Name() string     { return "apply-rules" }
func (*applyRulesCmd) Synopsis() string { return "run the rules on existing transactions" }
func (*applyRulesCmd) Usage() string {
	return `tally apply-rules [<transaction ID>...]

  Runs the active rules on the given transactions, on every transaction by
  default.
`
}

func (*applyRulesCmd) SetFlags(f *flag.FlagSet) {}

func (*applyRulesCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	_, status := mutate(ctx, func(s *tally.State) ([]tally.Command, error) {
		ids, err := parseIDs(f.Args())
		if err != nil {
			return nil, err
		}
		return []tally.Command{tally.ApplyRules{IDs: ids}}, nil
	})
	return status
}

type rulesCmd struct{}

func (*rulesCmd) Name() string     { return "rules" }
func (*rulesCmd) Synopsis() string { return "list the rules by priority" }
func (*rulesCmd) Usage() string {
	return `tally rules
`
}

func (*rulesCmd) SetFlags(f *flag.FlagSet) {}

func (*rulesCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	s, err := loadState(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading state: %v\n", err)
		return subcommands.ExitFailure
	}

	var buf bytes.Buffer
	doc := md.NewMarkdown(&buf)
	doc.H1("Rules")
	table := md.TableSet{
		Header: []string{"#", "Name", "References", "Category", "Active"},
	}
	for _, r := range s.Rules().All() {
		category := "-"
		if id, ok := r.Edit.Category.Get(); ok {
			c, _ := s.Categories().Get(id)
			category = c.Name
		}
		active := "yes"
		if r.Inactive {
			active = "no"
		}
		table.Rows = append(table.Rows, []string{
			fmt.Sprint(r.Index),
			r.Name,
			strings.Join(r.Condition.Reference, ", "),
			category,
			active,
		})
	}
	doc.Table(table)
	printMarkdown(doc.String())
	return subcommands.ExitSuccess
}
