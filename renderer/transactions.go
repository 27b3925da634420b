package renderer

import (
	"bytes"
	"fmt"

	"github.com/etnz/tally"
	md "github.com/nao1215/markdown"
)

// TransactionsMarkdown renders a list of transactions with their native
// values.
func TransactionsMarkdown(s *tally.State, txs []tally.Transaction) string {
	var buf bytes.Buffer
	doc := md.NewMarkdown(&buf)

	doc.H1("Transactions")
	if len(txs) == 0 {
		doc.PlainText("No transactions.")
		return doc.String()
	}
	table := md.TableSet{
		Alignment: []md.TableAlignment{md.AlignRight, md.AlignLeft, md.AlignLeft, md.AlignLeft, md.AlignLeft, md.AlignRight},
		Header:    []string{"ID", "Date", "Account", "Summary", "Category", "Value"},
	}
	for _, t := range txs {
		account, _ := s.Accounts().Get(t.Account)
		currency, _ := s.Currencies().Get(t.Currency)
		table.Rows = append(table.Rows, []string{
			fmt.Sprint(t.ID),
			t.Date.String(),
			account.Name,
			t.Summary,
			categoryPath(s, t.Category),
			tally.FormatValue(t.Value, currency.Ticker),
		})
	}
	doc.Table(table)
	return doc.String()
}
