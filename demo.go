package tally

import (
	"fmt"
	"slices"

	"github.com/etnz/tally/date"
	"github.com/shopspring/decimal"
)

// demoMonths is the number of months of history in the demo state.
const demoMonths = 12

// Demo returns a synthetic dataset: two currencies, four accounts, a small
// category tree with budgets, rules, and a year of monthly statements.
//
// It is built with commands, like any user dataset.
func Demo(today date.Date) *State {
	s := Empty(today)
	first := today.StartOfMonth().AddMonths(-(demoMonths - 1))
	apply := func(cmds ...Command) {
		var err error
		if s, err = s.Apply(cmds...); err != nil {
			panic(fmt.Sprintf("demo: %v", err))
		}
	}
	d := decimal.RequireFromString
	rates := []RatePoint{
		{Month: first, Rate: d("1.09")},
		{Month: first.AddMonths(4), Rate: d("1.12")},
		{Month: first.AddMonths(8), Rate: d("1.07")},
	}

	const (
		eur, usd            ID = 1, 2
		bank, broker        ID = 1, 2
		current, savings    ID = 1, 2
		brokerage, card     ID = 3, 4
		income, salary      ID = 2, 3
		housing, rent       ID = 4, 5
		groceries, commute  ID = 6, 7
		leisure, restaurant ID = 8, 9
	)
	apply(
		AddCurrency{Ticker: "EUR", Symbol: "€", Colour: "#1f77b4"},
		AddCurrency{Ticker: "USD", Symbol: "$", Colour: "#2ca02c", Rates: rates},
		UpdateUser{Name: Set("Demo"), Demo: Set(true), Start: Set(first)},
		AddInstitution{Name: "Northwind Bank", Colour: "#d62728"},
		AddInstitution{Name: "Harbor Brokers", Colour: "#9467bd"},
		AddAccount{Name: "Current Account", Institution: bank, Kind: Transactional, Opened: first},
		AddAccount{Name: "Savings", Institution: bank, Kind: Asset, Opened: first},
		AddAccount{Name: "Brokerage", Institution: broker, Kind: Investment, Opened: first},
		AddAccount{Name: "Credit Card", Institution: bank, Kind: Liability, Opened: first},
		AddCategory{Name: "Income", Colour: "#2ca02c"},
		AddCategory{Name: "Salary", Parent: income},
		AddCategory{Name: "Housing", Colour: "#8c564b"},
		AddCategory{Name: "Rent", Parent: housing},
		AddCategory{Name: "Groceries", Colour: "#ff7f0e"},
		AddCategory{Name: "Commute", Colour: "#7f7f7f"},
		AddCategory{Name: "Leisure", Colour: "#e377c2"},
		AddCategory{Name: "Restaurants", Parent: leisure},
		AddRule{Name: "Salary", Condition: Condition{Reference: []string{"payroll"}, Min: decimal.NewNullDecimal(decimal.Zero)}, Edit: Edit{Category: Set(salary), Summary: Set("Salary")}},
		AddRule{Name: "Rent", Condition: Condition{Reference: []string{"rent"}}, Edit: Edit{Category: Set(rent)}},
		AddRule{Name: "Groceries", Condition: Condition{Reference: []string{`market|grocer`}, Regex: true}, Edit: Edit{Category: Set(groceries)}},
		AddRule{Name: "Commute", Condition: Condition{Reference: []string{"metro", "rail"}}, Edit: Edit{Category: Set(commute)}},
		AddRule{Name: "Dining", Condition: Condition{Reference: []string{"bistro", "pizza"}, Accounts: []ID{current, card}}, Edit: Edit{Category: Set(restaurant)}},
		AddRule{Name: "Savings", Condition: Condition{Reference: []string{"savings transfer"}}, Edit: Edit{Category: Set(TransferCategory), Summary: Set("To savings")}},
		SetBudget{Category: groceries, Strategy: Copy, Start: first, Values: budgetValues(d("-420"))},
		SetBudget{Category: leisure, Strategy: Rollover, Start: first, Values: budgetValues(d("-150"))},
		SetBudget{Category: income, Strategy: Base, Start: first, Values: slices.Repeat([]decimal.NullDecimal{null(d("3200"))}, demoMonths)},
	)

	balance, saved, held := d("1500"), d("5000"), d("2000")
	for i := range demoMonths {
		month := first.AddMonths(i)
		day := func(n int) date.Date {
			if month.SameMonth(today) {
				n = min(n, today.Day())
			}
			return date.New(month.Year(), month.Month(), n)
		}
		k := decimal.NewFromInt(int64(i % 5))
		lines := []Record{
			{Date: day(1), Reference: "PAYROLL ACME CORP", Value: null(d("3200"))},
			{Date: day(3), Reference: "Rent " + month.Format("Jan"), Value: null(d("-1150"))},
			{Date: day(6), Reference: "City Market", Value: null(d("-96.40").Sub(k.Mul(d("7.5"))))},
			{Date: day(9), Reference: "Metro pass", Value: null(d("-75"))},
			{Date: day(14), Reference: "Grocer & Co", Value: null(d("-88.15").Add(k.Mul(d("3.2"))))},
			{Date: day(17), Reference: "Bistro du coin", Value: null(d("-42").Sub(k.Mul(d("11"))))},
			{Date: day(20), Reference: "Savings transfer", Value: null(d("-300"))},
			{Date: day(22), Reference: "City Market", Value: null(d("-121.30").Add(k))},
			{Date: day(27), Reference: "Unknown card payment"}, // stub, value unknown
		}
		for _, r := range lines {
			if r.Value.Valid {
				balance = balance.Add(r.Value.Decimal)
			}
		}
		lines[len(lines)-2].RecordedBalance = null(balance)
		saved = saved.Add(d("300"))
		held = held.Add(decimal.NewFromInt(int64(40 * (i%3 - 1))))

		apply(
			ImportStatement{Account: current, Name: "current-" + month.Format(date.MonthFormat) + ".csv", Records: lines},
			ImportStatement{Account: savings, Name: "savings-" + month.Format(date.MonthFormat) + ".csv", Records: []Record{
				{Date: day(20), Reference: "Savings transfer", Value: null(d("300")), RecordedBalance: null(saved)},
			}},
			ImportStatement{Account: brokerage, Name: "brokerage-" + month.Format(date.MonthFormat) + ".csv", Records: []Record{
				{Date: day(28), Reference: "Dividend", Value: null(d("12.5")), Currency: usd, RecordedBalance: null(held)},
			}},
			ImportStatement{Account: card, Name: "card-" + month.Format(date.MonthFormat) + ".csv", Records: []Record{
				{Date: day(12), Reference: "Pizza Roma", Value: null(d("-31.9")), RecordedBalance: null(d("-31.9"))},
			}},
		)
	}
	return s
}

// budgetValues returns a budget with a single explicit value in its
// oldest month.
func budgetValues(v decimal.Decimal) []decimal.NullDecimal {
	values := make([]decimal.NullDecimal, demoMonths)
	values[demoMonths-1] = null(v)
	return values
}

func null(v decimal.Decimal) decimal.NullDecimal { return decimal.NewNullDecimal(v) }
