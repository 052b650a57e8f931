package affiliation

import (
	"io"
	"os"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/go-faster/errors"
	"go.uber.org/zap"
)

// Placeholder reasons written into dates that must be filled in by hand after
// an update.
const (
	ReasonNewPersonStartTerm = "NEW_PERSON_START_TERM"
	ReasonDeactivateDate     = "DEACTIVATE_DATE"
	ReasonChangeOfClubDate   = "CHANGE_OF_CLUB_DATE"
)

// ErrInconsistentUpdate is returned when a listing reports as serving a deputy
// the registry already marks as inactive.
var ErrInconsistentUpdate = errors.New("inconsistent registry update")

var clubNameReplacements = map[string]string{
	"niez.":         "niezależni",
	"PSL-TD":        "PSL",
	"Polska2050-TD": "PL2050",
}

// UnifyClubName maps club abbreviations used on sejm.gov.pl onto the names
// used in the registry.
func UnifyClubName(name string) string {
	if unified, ok := clubNameReplacements[name]; ok {
		return unified
	}
	return name
}

// ListedDeputy is one entry of a sejm.gov.pl deputy listing page.
type ListedDeputy struct {
	FirstName        string
	Surname          string
	Club             string
	Active           bool
	DeactivateReason string
}

// Name returns the canonical name of the listed deputy.
func (d ListedDeputy) Name() string {
	return CanonicalName(d.FirstName, d.Surname)
}

// splitListedName splits "Surname Firstnames" as printed on the listing.
func splitListedName(surnameAndNames string) (firstName, surname string, ok bool) {
	fields := strings.Fields(surnameAndNames)
	if len(fields) < 2 {
		return "", "", false
	}
	return strings.Join(fields[1:], " "), fields[0], true
}

// ParseDeputyList extracts deputies from a saved deputy listing page
// (poslowie.xsp?type=A for active, type=B for deactivated). For deactivated
// listings the text following the club is taken as the deactivation reason.
// Entries whose name cannot be split are skipped.
func ParseDeputyList(reader io.Reader, active bool) ([]ListedDeputy, error) {
	doc, err := goquery.NewDocumentFromReader(reader)
	if err != nil {
		return nil, errors.Wrap(err, "parse deputy listing")
	}

	var deputies []ListedDeputy
	doc.Find("div.deputyName").Each(func(_ int, sel *goquery.Selection) {
		firstName, surname, ok := splitListedName(sel.Text())
		if !ok {
			return
		}

		details := sel.Parent().NextFiltered("div.deputy-box-details")
		if details.Length() == 0 {
			details = sel.NextFiltered("div.deputy-box-details")
		}
		club := strings.TrimSpace(details.Find("strong").First().Text())
		if club == "" {
			return
		}

		deputy := ListedDeputy{
			FirstName: firstName,
			Surname:   surname,
			Club:      UnifyClubName(club),
			Active:    active,
		}
		if !active {
			rest := details.Clone()
			rest.Find("strong").Remove()
			deputy.DeactivateReason = strings.Join(strings.Fields(rest.Text()), " ")
		}
		deputies = append(deputies, deputy)
	})
	return deputies, nil
}

// ParseDeputyListFile reads a deputy listing from disk.
func ParseDeputyListFile(path string, active bool) ([]ListedDeputy, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "open deputy listing")
	}
	defer f.Close()

	deputies, err := ParseDeputyList(f, active)
	if err != nil {
		return nil, errors.Wrapf(err, "parse %s", path)
	}
	return deputies, nil
}

// UpdateReport summarises what Merge changed.
type UpdateReport struct {
	Added       []string `json:"added"`
	Deactivated []string `json:"deactivated"`
	ClubChanged []string `json:"club_changed"`

	// Missing are registry persons that no listing mentions.
	Missing []string `json:"missing"`
}

// mergedClub returns the club a listing is compared against. A latest
// membership with TODO bounds has not been dated yet and counts as current,
// so merging the same listing again changes nothing.
func mergedClub(p *Person) (string, bool) {
	if m := p.CurrentMembership(); m != nil && (m.From.IsUnknown() || m.To.IsUnknown()) {
		return m.Club, true
	}
	return p.Club()
}

// Merge applies fresh deputy listings to the registry. Dates that cannot be
// known from a listing are written as TODO markers for manual review:
//
//   - an unknown deputy is added with a single club starting at
//     TODO_NEW_PERSON_START_TERM (and TODO_DEACTIVATE_DATE if not serving);
//   - a serving deputy now listed as deactivated is marked inactive with
//     TODO_DEACTIVATE_DATE;
//   - a serving deputy listed with a different club has the current
//     membership closed and a new one opened, both at TODO_CHANGE_OF_CLUB_DATE.
//
// A deputy the registry marks inactive but a listing reports as serving is an
// error, and the registry may be partially updated.
func (r *Registry) Merge(listed []ListedDeputy) (*UpdateReport, error) {
	report := &UpdateReport{}
	seen := make(map[string]bool, len(listed))

	for _, d := range listed {
		seen[d.Name()] = true

		old := r.GetByFirstAndSurname(d.FirstName, d.Surname)
		if old == nil {
			p := NewPerson(d.FirstName, d.Surname, d.Active, Membership{
				Club: d.Club,
				From: UnknownDate(ReasonNewPersonStartTerm),
			})
			if !d.Active {
				p.ActiveTo = UnknownDate(ReasonDeactivateDate)
				p.DeactivateReason = d.DeactivateReason
			}
			r.Add(p)
			report.Added = append(report.Added, p.Name())
			continue
		}

		if old.Active != d.Active {
			if d.Active {
				return report, errors.Wrapf(ErrInconsistentUpdate, "%s is inactive in the registry but listed as serving", old.Name())
			}
			old.Active = false
			old.DeactivateReason = d.DeactivateReason
			old.ActiveTo = UnknownDate(ReasonDeactivateDate)
			report.Deactivated = append(report.Deactivated, old.Name())
			continue
		}

		if !d.Active {
			continue
		}
		if club, ok := mergedClub(old); ok && club == d.Club {
			continue
		}
		if current := old.CurrentMembership(); current != nil {
			current.To = UnknownDate(ReasonChangeOfClubDate)
		}
		old.Clubs = append(old.Clubs, Membership{
			Club: d.Club,
			From: UnknownDate(ReasonChangeOfClubDate),
		})
		report.ClubChanged = append(report.ClubChanged, old.Name())
	}

	for _, p := range r.persons {
		if !seen[p.Name()] {
			report.Missing = append(report.Missing, p.Name())
			r.logger.Warn("Registry person not found in deputy listings", zap.String("name", p.Name()))
		}
	}

	r.logger.Info("Merged deputy listings into registry",
		zap.Int("listed", len(listed)),
		zap.Int("added", len(report.Added)),
		zap.Int("deactivated", len(report.Deactivated)),
		zap.Int("club_changed", len(report.ClubChanged)),
		zap.Int("missing", len(report.Missing)),
	)
	return report, nil
}
