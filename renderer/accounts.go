package renderer

import (
	"bytes"
	"fmt"
	"maps"
	"slices"
	"strings"

	"github.com/etnz/tally"
	md "github.com/nao1215/markdown"
)

// AccountsMarkdown renders month-end balances at offset, grouped by
// institution. Inactive accounts are skipped when the user hides them.
func AccountsMarkdown(s *tally.State, offset int) string {
	var buf bytes.Buffer
	doc := md.NewMarkdown(&buf)

	user := s.User()
	month := s.Current().AddMonths(-offset)
	doc.H1(fmt.Sprintf("Accounts at the end of %s", month.Format("January 2006")))

	for iid, institution := range s.Institutions().All() {
		table := md.TableSet{
			Alignment: []md.TableAlignment{md.AlignLeft, md.AlignLeft, md.AlignRight, md.AlignLeft},
			Header:    []string{"Account", "Kind", "Balance", "Last update"},
		}
		for _, a := range s.Accounts().All() {
			if a.Institution != iid || (a.Inactive && user.HideInactive) {
				continue
			}
			table.Rows = append(table.Rows, []string{
				a.Name,
				a.Kind.String(),
				balances(s, a, offset),
				lastUpdate(a),
			})
		}
		if len(table.Rows) == 0 {
			continue
		}
		doc.H2(institution.Name)
		doc.Table(table)
	}
	doc.PlainText(fmt.Sprintf("**Net worth**: %s", s.Money(s.NetWorth(offset), 0)))
	return doc.String()
}

// balances formats the native balances of an account, one per currency.
func balances(s *tally.State, a tally.Account, offset int) string {
	if len(a.Balances) == 0 {
		return "-"
	}
	var parts []string
	for _, id := range slices.Sorted(maps.Keys(a.Balances)) {
		native, _ := a.Balances[id].At(offset)
		parts = append(parts, s.Money(native, id).String())
	}
	return strings.Join(parts, ", ")
}

func lastUpdate(a tally.Account) string {
	if a.LastUpdate.IsZero() {
		return "never"
	}
	return a.LastUpdate.String()
}
