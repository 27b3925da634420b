package renderer

import (
	"bytes"
	"fmt"

	"github.com/etnz/tally"
	md "github.com/nao1215/markdown"
)

// SummaryMarkdown renders the month at offset and the trend of the last
// 'months' months.
func SummaryMarkdown(s *tally.State, offset, months int) string {
	var buf bytes.Buffer
	doc := md.NewMarkdown(&buf)

	sum := s.Summary(offset)
	doc.H1(fmt.Sprintf("Summary for %s", sum.Month.Format("January 2006")))
	if s.User().Currency == 0 {
		doc.PlainText("No base currency yet, add one with `tally add-currency`.")
		return doc.String()
	}

	doc.Table(md.TableSet{
		Alignment: []md.TableAlignment{md.AlignLeft, md.AlignRight},
		Header:    []string{"", "Value"},
		Rows: [][]string{
			{"Income", s.Money(sum.Income, 0).String()},
			{"Expenses", s.Money(sum.Expenses, 0).String()},
			{"Net", s.Money(sum.Net(), 0).SignedString()},
			{"Transactions", fmt.Sprint(sum.Count)},
			{"Net worth", s.Money(sum.NetWorth, 0).String()},
		},
	})

	if months > 1 {
		doc.H2("Trend")
		table := md.TableSet{
			Alignment: []md.TableAlignment{md.AlignLeft, md.AlignRight, md.AlignRight, md.AlignRight, md.AlignRight},
			Header:    []string{"Month", "Income", "Expenses", "Net", "Net worth"},
		}
		for _, m := range s.Trend(offset, months) {
			table.Rows = append(table.Rows, []string{
				m.Month.Format("Jan 2006"),
				s.Money(m.Income, 0).String(),
				s.Money(m.Expenses, 0).String(),
				s.Money(m.Net(), 0).SignedString(),
				s.Money(m.NetWorth, 0).String(),
			})
		}
		doc.Table(table)
	}
	return doc.String()
}
