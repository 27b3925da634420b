package date

import "time"

// StartOfMonth returns the first day of d's month.
func (d Date) StartOfMonth() Date { return New(d.y, d.m, 1) }

// EndOfMonth returns the last day of d's month.
func (d Date) EndOfMonth() Date { return New(d.y, d.m+1, 0) }

// AddMonths returns the first day of the month i months after d's month.
//
// The day is dropped on purpose: adding a month to January 31st is not
// meaningful for monthly aggregates.
func (d Date) AddMonths(i int) Date { return New(d.y, d.m+time.Month(i), 1) }

// SameMonth reports whether d and x fall in the same calendar month.
func (d Date) SameMonth(x Date) bool { return d.y == x.y && d.m == x.m }

// MonthsBetween returns the number of calendar months from 'from' to 'to'.
//
// It is positive when 'to' is in a later month, and ignores days:
// MonthsBetween(2025-01-31, 2025-02-01) is 1.
func MonthsBetween(from, to Date) int {
	return (to.y-from.y)*12 + int(to.m) - int(from.m)
}

// Offset returns the month-offset index of d relative to the month 'current':
// 0 for the current month, 1 for the month before and so on. Months after
// 'current' have a negative offset.
func Offset(d, current Date) int { return MonthsBetween(d, current) }

// FromOffset is the inverse of Offset, it returns the first day of the month
// 'offset' months before 'current'.
func FromOffset(offset int, current Date) Date { return current.AddMonths(-offset) }

// Range represents a range of dates, boundaries included.
type Range struct{ From, To Date }

// MonthRange returns the range covering d's month.
func MonthRange(d Date) Range { return Range{From: d.StartOfMonth(), To: d.EndOfMonth()} }

// Contains return true date is included in the range (boundaries included)
func (r Range) Contains(date Date) bool { return !date.Before(r.From) && !date.After(r.To) }

// Identifier returns "2006-01" for a monthly range and "from_to" otherwise.
func (r Range) Identifier() string {
	if r == MonthRange(r.From) {
		return r.From.Format(MonthFormat)
	}
	return r.From.String() + "_" + r.To.String()
}
