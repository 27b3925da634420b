package tally

import (
	"testing"

	"github.com/etnz/tally/date"
)

func TestRateAsOf(t *testing.T) {
	rates := []RatePoint{
		{Month: date.MustParse("2025-02-01"), Rate: dec("1.1")},
		{Month: date.MustParse("2025-05-01"), Rate: dec("1.3")},
	}
	testCases := []struct {
		name  string
		rates []RatePoint
		on    string
		want  string
	}{
		{"no rates", nil, "2025-03-10", "1"},
		{"before the first point", rates, "2024-12-31", "1.1"},
		{"first month", rates, "2025-02-20", "1.1"},
		{"between points", rates, "2025-04-30", "1.1"},
		{"latest point", rates, "2025-05-01", "1.3"},
		{"after the last point", rates, "2026-01-01", "1.3"},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			if got := rateAsOf(tc.rates, date.MustParse(tc.on)); !got.Equal(dec(tc.want)) {
				t.Errorf("rateAsOf(%s) = %v, want %s", tc.on, got, tc.want)
			}
		})
	}
}

func TestLocalise(t *testing.T) {
	s := basic(t)
	s = apply(t, s, AddCurrency{Ticker: "GBP", Rates: []RatePoint{{Month: date.MustParse("2025-01-01"), Rate: dec("0.8")}}})
	on := date.MustParse("2025-03-15")

	if got := s.Localise(dec("125"), 2, on); !got.Equal(dec("100")) {
		t.Errorf("Localise(125 USD) = %v, want 100", got)
	}
	if got := s.Localise(dec("42"), 1, on); !got.Equal(dec("42")) {
		t.Errorf("Localise(42 EUR) = %v, want 42", got)
	}

	for _, currency := range []ID{1, 2, 3} {
		for _, v := range []string{"0", "1", "-123.45", "0.07", "98765.4321"} {
			local := s.Localise(dec(v), currency, on)
			back := s.Delocalise(local, currency, on)
			if !back.Round(8).Equal(dec(v)) {
				t.Errorf("currency %d: Delocalise(Localise(%s)) = %v", currency, v, back)
			}
		}
	}

	// a base currency with rates is part of the conversion.
	s = apply(t, s, SetRates{Currency: 1, Rates: []RatePoint{{Month: date.MustParse("2025-01-01"), Rate: dec("0.5")}}})
	if got := s.Localise(dec("125"), 2, on); !got.Equal(dec("50")) {
		t.Errorf("Localise(125 USD) with base rate 0.5 = %v, want 50", got)
	}
}

func TestFirstRateChange(t *testing.T) {
	jan, apr := date.MustParse("2025-01-01"), date.MustParse("2025-04-01")
	testCases := []struct {
		name        string
		old, new    []RatePoint
		wantMonth   date.Date
		wantAll     bool
		wantChanged bool
	}{
		{"same", []RatePoint{{jan, dec("1")}}, []RatePoint{{jan, dec("1.0")}}, date.Date{}, false, false},
		{"new point", []RatePoint{{jan, dec("1")}}, []RatePoint{{jan, dec("1")}, {apr, dec("2")}}, apr, false, true},
		{"first point", []RatePoint{{jan, dec("1")}}, []RatePoint{{jan, dec("2")}}, jan, true, true},
		{"from none", nil, []RatePoint{{apr, dec("2")}}, date.Date{}, true, true},
		{"none", nil, nil, date.Date{}, true, false},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			month, all, changed := firstRateChange(tc.old, tc.new)
			if month != tc.wantMonth || all != tc.wantAll || changed != tc.wantChanged {
				t.Errorf("firstRateChange() = %v, %v, %v, want %v, %v, %v", month, all, changed, tc.wantMonth, tc.wantAll, tc.wantChanged)
			}
		})
	}
}

func TestCheckRates(t *testing.T) {
	if _, err := checkRates([]RatePoint{{Month: date.MustParse("2025-01-01"), Rate: dec("0")}}); err == nil {
		t.Errorf("checkRates() accepted a zero rate")
	}
	if _, err := checkRates([]RatePoint{
		{Month: date.MustParse("2025-01-01"), Rate: dec("1")},
		{Month: date.MustParse("2025-01-20"), Rate: dec("2")},
	}); err == nil {
		t.Errorf("checkRates() accepted two rates in the same month")
	}
	got, err := checkRates([]RatePoint{
		{Month: date.MustParse("2025-03-12"), Rate: dec("2")},
		{Month: date.MustParse("2025-01-20"), Rate: dec("1")},
	})
	if err != nil {
		t.Fatalf("checkRates() error = %v", err)
	}
	if got[0].Month != date.MustParse("2025-01-01") || got[1].Month != date.MustParse("2025-03-01") {
		t.Errorf("checkRates() = %v, want sorted first days of months", got)
	}
}
