// Package affiliation resolves transcript speaker labels to Sejm deputies and
// the parliamentary club they belonged to on a given date.
//
// Matching uses only first and last names, so two deputies sharing a name are
// not distinguished, and a deputy who changed surname appears as two persons.
package affiliation

import (
	"bytes"
	"encoding/json"
	"sort"
	"strings"

	"github.com/go-faster/errors"

	"github.com/coolbeans/sejmtrans/pkg/types"
)

// UnknownMarker prefixes placeholder dates that still need manual review,
// e.g. "TODO_CHANGE_OF_CLUB_DATE". Such values are preserved verbatim.
const UnknownMarker = "TODO"

// Sort keys for missing bounds when ordering memberships.
const (
	sortKeyOpenStart = "1000-01-01"
	sortKeyOpenEnd   = "3000-01-01"
)

// DateValue is either a calendar date or an unknown-date marker.
type DateValue struct {
	date   types.Date
	marker string
}

// KnownDate wraps a calendar date.
func KnownDate(d types.Date) *DateValue {
	return &DateValue{date: d}
}

// UnknownDate returns a placeholder date with the given marker suffix, e.g.
// UnknownDate("DEACTIVATE_DATE") yields "TODO_DEACTIVATE_DATE".
func UnknownDate(reason string) *DateValue {
	if reason == "" {
		return &DateValue{marker: UnknownMarker}
	}
	return &DateValue{marker: UnknownMarker + "_" + reason}
}

// ParseDateValue parses a YYYY-MM-DD date or keeps an unknown marker as-is.
func ParseDateValue(s string) (*DateValue, error) {
	if strings.HasPrefix(s, UnknownMarker) {
		return &DateValue{marker: s}, nil
	}
	d, err := types.ParseDate(s)
	if err != nil {
		return nil, err
	}
	return &DateValue{date: d}, nil
}

// IsUnknown reports whether the value is a placeholder marker.
func (v *DateValue) IsUnknown() bool {
	return v != nil && v.marker != ""
}

// Date returns the calendar date. ok is false for nil and unknown values.
func (v *DateValue) Date() (types.Date, bool) {
	if v == nil || v.marker != "" {
		return types.Date{}, false
	}
	return v.date, true
}

// String returns the marker or the YYYY-MM-DD date.
func (v *DateValue) String() string {
	if v == nil {
		return ""
	}
	if v.marker != "" {
		return v.marker
	}
	return v.date.String()
}

// MarshalJSON implements json.Marshaler.
func (v DateValue) MarshalJSON() ([]byte, error) {
	return json.Marshal(v.String())
}

// UnmarshalJSON implements json.Unmarshaler.
func (v *DateValue) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	parsed, err := ParseDateValue(s)
	if err != nil {
		return err
	}
	*v = *parsed
	return nil
}

// bound converts a value into a range bound; unknown markers are open.
func (v *DateValue) bound() *types.Date {
	d, ok := v.Date()
	if !ok {
		return nil
	}
	return &d
}

// sortKey mirrors the textual ordering used for membership sorting.
func (v *DateValue) sortKey(missing string) string {
	if v == nil {
		return missing
	}
	return v.String()
}

// Membership is a period of membership in a parliamentary club.
type Membership struct {
	// Club is the club name, e.g. "KO", "PiS", "niezależni".
	Club string `json:"club_name"`

	// From is the first day of membership. Nil means since the start of the term.
	From *DateValue `json:"from_date,omitempty"`

	// To is the first day after the membership ended. Nil means open-ended.
	To *DateValue `json:"to_date,omitempty"`
}

// Range returns the half-open membership interval. Unknown markers are
// treated as open bounds.
func (m Membership) Range() types.Range {
	return types.Range{From: m.From.bound(), Until: m.To.bound()}
}

// Person is a deputy with their club membership timeline.
type Person struct {
	FirstName string
	Surname   string

	// Active is false once the deputy stopped serving.
	Active bool

	// DeactivateReason explains why an inactive deputy stopped serving.
	DeactivateReason string

	// ActiveTo is the first day the deputy was no longer serving.
	ActiveTo *DateValue

	// Clubs are sorted ascending; the last entry is the current membership.
	Clubs []Membership
}

// CanonicalName builds the registry key for a first name and surname.
func CanonicalName(firstName, surname string) string {
	return firstName + " " + surname
}

// NewPerson creates a person and sorts its memberships.
func NewPerson(firstName, surname string, active bool, clubs ...Membership) *Person {
	p := &Person{
		FirstName: firstName,
		Surname:   surname,
		Active:    active,
		Clubs:     clubs,
	}
	p.SortClubs()
	return p
}

// Name returns the canonical name of the person.
func (p *Person) Name() string {
	return CanonicalName(p.FirstName, p.Surname)
}

// IsActiveAt reports whether the person was serving on the given date. An
// inactive person without a known end date is not serving at any date.
func (p *Person) IsActiveAt(when types.Date) bool {
	if p.Active {
		return true
	}
	activeTo, ok := p.ActiveTo.Date()
	if !ok {
		return false
	}
	return when.Before(activeTo)
}

// ClubAt returns the club the person belonged to on the given date.
// ok is false when the person was no longer serving or the date falls into a
// gap of the membership timeline.
func (p *Person) ClubAt(when types.Date) (string, bool) {
	if !p.IsActiveAt(when) {
		return "", false
	}
	for _, m := range p.Clubs {
		if m.Range().Contains(when) {
			return m.Club, true
		}
	}
	return "", false
}

// Club returns the club the person belongs to today.
func (p *Person) Club() (string, bool) {
	return p.ClubAt(types.Today())
}

// CurrentMembership returns the most recent membership, or nil if none.
func (p *Person) CurrentMembership() *Membership {
	if len(p.Clubs) == 0 {
		return nil
	}
	return &p.Clubs[len(p.Clubs)-1]
}

// SortClubs orders memberships ascending by (from, to), missing bounds sorting
// first and last respectively.
func (p *Person) SortClubs() {
	if len(p.Clubs) < 2 {
		return
	}
	sort.SliceStable(p.Clubs, func(i, j int) bool {
		a, b := p.Clubs[i], p.Clubs[j]
		af, bf := a.From.sortKey(sortKeyOpenStart), b.From.sortKey(sortKeyOpenStart)
		if af != bf {
			return af < bf
		}
		return a.To.sortKey(sortKeyOpenEnd) < b.To.sortKey(sortKeyOpenEnd)
	})
}

// personJSON is the on-disk layout of a registry entry.
type personJSON struct {
	FirstName        string       `json:"f_name"`
	Surname          string       `json:"s_name"`
	Clubs            []Membership `json:"clubs"`
	Active           bool         `json:"active"`
	ActiveTo         *DateValue   `json:"active_to,omitempty"`
	DeactivateReason *string      `json:"deactivate_reason,omitempty"`
}

// MarshalJSON implements json.Marshaler.
func (p *Person) MarshalJSON() ([]byte, error) {
	out := personJSON{
		FirstName: p.FirstName,
		Surname:   p.Surname,
		Clubs:     p.Clubs,
		Active:    p.Active,
	}
	if out.Clubs == nil {
		out.Clubs = []Membership{}
	}
	if !p.Active {
		out.ActiveTo = p.ActiveTo
		reason := p.DeactivateReason
		out.DeactivateReason = &reason
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(out); err != nil {
		return nil, err
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}

// UnmarshalJSON implements json.Unmarshaler.
func (p *Person) UnmarshalJSON(data []byte) error {
	var in personJSON
	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}
	if in.FirstName == "" || in.Surname == "" {
		return errors.Wrapf(ErrInvalidRegistry, "entry without f_name/s_name: %s", data)
	}

	*p = Person{
		FirstName: in.FirstName,
		Surname:   in.Surname,
		Active:    in.Active,
		Clubs:     in.Clubs,
	}
	if !in.Active {
		p.ActiveTo = in.ActiveTo
		if in.DeactivateReason != nil {
			p.DeactivateReason = *in.DeactivateReason
		}
	}
	p.SortClubs()
	return nil
}
