package tally

import (
	"strings"

	"github.com/agnivade/levenshtein"
	"github.com/etnz/tally/date"
)

// Duplicate is a record looking like an existing transaction.
type Duplicate struct {
	Record      int // index in the records
	Transaction ID
	Similarity  float64 // of the references, 1 for identical ones
}

// duplicateSimilarity is the smallest reference similarity of a duplicate.
const duplicateSimilarity = 0.6

// duplicateDays is the largest date gap between duplicates.
const duplicateDays = 7

// Duplicates returns, for each record, the most similar transaction of the
// account: same value, at most a week apart, and references close enough.
func (s *State) Duplicates(account ID, records []Record) []Duplicate {
	var dups []Duplicate
	for i, r := range records {
		best := Duplicate{Record: i, Similarity: -1}
		for id, t := range s.transactions.All() {
			if t.Account != account || !sameNull(t.Value, r.Value) || daysApart(t.Date, r.Date) > duplicateDays {
				continue
			}
			if sim := similarity(t.Reference, r.Reference); sim >= duplicateSimilarity && sim > best.Similarity {
				best.Transaction, best.Similarity = id, sim
			}
		}
		if best.Similarity >= 0 {
			dups = append(dups, best)
		}
	}
	return dups
}

func similarity(a, b string) float64 {
	a, b = strings.ToUpper(strings.TrimSpace(a)), strings.ToUpper(strings.TrimSpace(b))
	if a == b {
		return 1
	}
	n := max(len([]rune(a)), len([]rune(b)))
	return 1 - float64(levenshtein.ComputeDistance(a, b))/float64(n)
}

func daysApart(a, b date.Date) int {
	if a.After(b) {
		a, b = b, a
	}
	n := 0
	for a.Before(b) {
		a = a.Add(1)
		n++
		if n > duplicateDays {
			break
		}
	}
	return n
}
