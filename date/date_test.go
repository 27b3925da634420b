package date

import (
	"encoding/json"
	"testing"
	"time"
)

// TestTime assert that the time() is cannonical and gives comparable times.
func TestTime(t *testing.T) {
	d1 := New(2025, 7, 31)
	d2 := New(2025, 7, 31)

	if d1.time() != d2.time() {
		t.Errorf("invalid time() function same day gives two different time")
	}
}

func TestParse(t *testing.T) {
	testCases := []struct {
		in      string
		want    Date
		wantErr bool
	}{
		{"2025-07-01", New(2025, time.July, 1), false},
		{"2025-7-1", New(2025, time.July, 1), false},
		{"2025/07/01", Date{}, true},
		{"", Date{}, true},
	}
	for _, tc := range testCases {
		t.Run(tc.in, func(t *testing.T) {
			got, err := Parse(tc.in)
			if (err != nil) != tc.wantErr {
				t.Fatalf("Parse(%q) error = %v, wantErr %v", tc.in, err, tc.wantErr)
			}
			if got != tc.want {
				t.Errorf("Parse(%q) = %v, want %v", tc.in, got, tc.want)
			}
		})
	}
}

func TestJSON(t *testing.T) {
	type holder struct {
		On   Date `json:"on"`
		Zero Date `json:"zero"`
	}
	b, err := json.Marshal(holder{On: New(2024, time.February, 29)})
	if err != nil {
		t.Fatal(err)
	}
	if got, want := string(b), `{"on":"2024-02-29","zero":""}`; got != want {
		t.Errorf("Marshal() = %s, want %s", got, want)
	}
	var h holder
	if err := json.Unmarshal(b, &h); err != nil {
		t.Fatal(err)
	}
	if h.On != New(2024, time.February, 29) || !h.Zero.IsZero() {
		t.Errorf("Unmarshal() = %+v", h)
	}
}

func TestMonthsBetween(t *testing.T) {
	testCases := []struct {
		name     string
		from, to Date
		want     int
	}{
		{"same month", New(2025, 3, 1), New(2025, 3, 31), 0},
		{"next day next month", New(2025, 1, 31), New(2025, 2, 1), 1},
		{"across year", New(2024, 11, 15), New(2025, 2, 1), 3},
		{"backward", New(2025, 2, 1), New(2024, 11, 15), -3},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			if got := MonthsBetween(tc.from, tc.to); got != tc.want {
				t.Errorf("MonthsBetween(%v, %v) = %d, want %d", tc.from, tc.to, got, tc.want)
			}
		})
	}
}

func TestOffset(t *testing.T) {
	current := New(2025, time.March, 1)
	for offset := range 30 {
		on := FromOffset(offset, current)
		if got := Offset(on, current); got != offset {
			t.Errorf("Offset(FromOffset(%d)) = %d", offset, got)
		}
		if on.Day() != 1 {
			t.Errorf("FromOffset(%d) = %v, want a first day of month", offset, on)
		}
	}
}

func TestEndOfMonth(t *testing.T) {
	if got, want := New(2024, time.February, 10).EndOfMonth(), New(2024, time.February, 29); got != want {
		t.Errorf("EndOfMonth() = %v, want %v", got, want)
	}
	r := MonthRange(New(2025, time.May, 20))
	if !r.Contains(New(2025, time.May, 31)) || r.Contains(New(2025, time.June, 1)) {
		t.Errorf("MonthRange(May).Contains() is wrong: %v", r)
	}
	if got := r.Identifier(); got != "2025-05" {
		t.Errorf("Identifier() = %q, want %q", got, "2025-05")
	}
}
