package types

import (
	"testing"
	"time"
)

func TestParseDate(t *testing.T) {
	tests := []struct {
		input   string
		want    Date
		wantErr bool
	}{
		{"2024-10-01", Date{2024, 10, 1}, false},
		{"1999-01-31", Date{1999, 1, 31}, false},
		{"2024-13-01", Date{}, true},
		{"01-10-2024", Date{}, true},
		{"TODO_DEACTIVATE_DATE", Date{}, true},
		{"", Date{}, true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseDate(tt.input)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseDate(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("ParseDate(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestDateString(t *testing.T) {
	d := Date{Year: 2024, Month: 3, Day: 7}
	if d.String() != "2024-03-07" {
		t.Errorf("String() = %q, want %q", d.String(), "2024-03-07")
	}
	if MustParseDate(d.String()) != d {
		t.Error("String() should round-trip through ParseDate")
	}
}

func TestDateCompare(t *testing.T) {
	a := MustParseDate("2024-09-30")
	b := MustParseDate("2024-10-01")

	if !a.Before(b) || b.Before(a) {
		t.Error("2024-09-30 should be before 2024-10-01")
	}
	if !b.AfterOrEqual(a) || !b.AfterOrEqual(b) {
		t.Error("AfterOrEqual() should hold for later and equal dates")
	}
	if a.Compare(a) != 0 {
		t.Errorf("Compare(self) = %d, want 0", a.Compare(a))
	}
}

func TestFromTime(t *testing.T) {
	tm := time.Date(2024, time.November, 1, 23, 59, 0, 0, time.UTC)
	if got := FromTime(tm); got != (Date{2024, 11, 1}) {
		t.Errorf("FromTime() = %v", got)
	}
}

func TestRangeContains(t *testing.T) {
	from := MustParseDate("2024-10-01")
	until := MustParseDate("2024-11-01")

	tests := []struct {
		name string
		r    Range
		date string
		want bool
	}{
		{"closed inside", Range{From: &from, Until: &until}, "2024-10-15", true},
		{"closed at from", Range{From: &from, Until: &until}, "2024-10-01", true},
		{"closed at until", Range{From: &from, Until: &until}, "2024-11-01", false},
		{"closed before", Range{From: &from, Until: &until}, "2024-09-30", false},
		{"open start", Range{Until: &until}, "1222-01-01", true},
		{"open end", Range{From: &from}, "2999-01-01", true},
		{"unbounded", Range{}, "2024-01-01", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.r.Contains(MustParseDate(tt.date)); got != tt.want {
				t.Errorf("Contains(%s) = %v, want %v", tt.date, got, tt.want)
			}
		})
	}
}
