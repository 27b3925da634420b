package renderer

import (
	"bytes"
	"fmt"

	"github.com/etnz/tally"
	md "github.com/nao1215/markdown"
)

// BudgetMarkdown renders every category budget of the month at offset.
func BudgetMarkdown(s *tally.State, offset int) string {
	var buf bytes.Buffer
	doc := md.NewMarkdown(&buf)

	lines := s.Budgets(offset)
	if len(lines) == 0 {
		doc.H1("Budgets")
		doc.PlainText("No budget defined.")
		return doc.String()
	}
	doc.H1(fmt.Sprintf("Budgets for %s", lines[0].Month.Format("January 2006")))

	table := md.TableSet{
		Alignment: []md.TableAlignment{md.AlignLeft, md.AlignRight, md.AlignRight, md.AlignCenter},
		Header:    []string{"Category", "Target", "Actual", "Status"},
	}
	met := 0
	for _, line := range lines {
		target, status := "-", "-"
		if line.HasTarget {
			target = s.Money(line.Target, 0).String()
			status = "❌"
			if line.Success {
				status = "✅"
				met++
			}
		}
		table.Rows = append(table.Rows, []string{
			categoryPath(s, line.Category),
			target,
			s.Money(line.Actual, 0).String(),
			status,
		})
	}
	doc.Table(table)
	doc.PlainText(fmt.Sprintf("%d of %d budgets met.", met, len(lines)))
	return doc.String()
}
