// Package types provides calendar primitives shared by the registry and the
// transcript loaders.
package types

import (
	"fmt"
	"time"
)

// DateLayout is the textual date format used in registry files and transcripts.
const DateLayout = "2006-01-02"

// Date represents a calendar date without time component. Dates are
// comparable with ==.
type Date struct {
	Year  int
	Month int // 1-12
	Day   int // 1-31
}

// ParseDate parses a YYYY-MM-DD string.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return Date{}, fmt.Errorf("invalid date %q: %w", s, err)
	}
	return FromTime(t), nil
}

// MustParseDate is like ParseDate but panics on malformed input.
func MustParseDate(s string) Date {
	d, err := ParseDate(s)
	if err != nil {
		panic(err)
	}
	return d
}

// FromTime creates a Date from a time.Time.
func FromTime(t time.Time) Date {
	return Date{
		Year:  t.Year(),
		Month: int(t.Month()),
		Day:   t.Day(),
	}
}

// Today returns the current date.
func Today() Date {
	return FromTime(time.Now())
}

// String formats the date as YYYY-MM-DD.
func (d Date) String() string {
	return fmt.Sprintf("%04d-%02d-%02d", d.Year, d.Month, d.Day)
}

// Compare returns -1, 0 or +1 depending on whether d is before, equal to or
// after other.
func (d Date) Compare(other Date) int {
	switch {
	case d.Year != other.Year:
		return sign(d.Year - other.Year)
	case d.Month != other.Month:
		return sign(d.Month - other.Month)
	default:
		return sign(d.Day - other.Day)
	}
}

// Before returns true if d is before other.
func (d Date) Before(other Date) bool {
	return d.Compare(other) < 0
}

// AfterOrEqual returns true if d is after or equal to other.
func (d Date) AfterOrEqual(other Date) bool {
	return !d.Before(other)
}

func sign(v int) int {
	switch {
	case v < 0:
		return -1
	case v > 0:
		return 1
	default:
		return 0
	}
}

// Range is a half-open interval [From, Until) of dates. A nil bound is open.
type Range struct {
	From  *Date
	Until *Date
}

// Contains checks if the range covers the given date.
func (r Range) Contains(date Date) bool {
	if r.From != nil && !date.AfterOrEqual(*r.From) {
		return false
	}
	if r.Until != nil && date.AfterOrEqual(*r.Until) {
		return false
	}
	return true
}
