package affiliation

import (
	"sort"

	"go.uber.org/zap"

	"github.com/coolbeans/sejmtrans/pkg/logging"
	"github.com/coolbeans/sejmtrans/pkg/transcript"
	"github.com/coolbeans/sejmtrans/pkg/types"
)

// Entry is a contiguous block of speech by one deputy, attributed to the club
// the deputy belonged to on the session date.
type Entry struct {
	// SpeakerName is the raw speaker label from the transcript.
	SpeakerName string `json:"speaker_name"`

	// CanonName is the canonical registry name of the speaker.
	CanonName string `json:"canon_name"`

	// Affiliation is the club the speaker belonged to on Date.
	Affiliation string `json:"affiliation"`

	// UttsRaw is the speaker's own utterance text, whitespace-normalised.
	// Speeches resumed after a chairperson's turn are appended here.
	UttsRaw string `json:"utts_raw"`

	// Date is the session date as YYYY-MM-DD.
	Date string `json:"date"`
}

func (e *Entry) appendText(text string) {
	switch {
	case text == "":
	case e.UttsRaw == "":
		e.UttsRaw = text
	default:
		e.UttsRaw += " " + text
	}
}

// Assigner attributes speakers to clubs by combining the name resolver with the
// registry's membership timelines.
type Assigner struct {
	resolver *Resolver
	registry *Registry
	logger   *zap.Logger
}

// NewAssigner creates an assigner over the resolver's registry.
func NewAssigner(resolver *Resolver, logger *zap.Logger) *Assigner {
	return &Assigner{
		resolver: resolver,
		registry: resolver.Registry(),
		logger:   logging.OrNop(logger),
	}
}

// Resolver returns the underlying name resolver.
func (a *Assigner) Resolver() *Resolver {
	return a.resolver
}

// AssignAffiliation returns the club of the deputy named by speakerLabel on the
// given date. ok is false if the label cannot be resolved to a registry person
// or the person had no club on that date.
func (a *Assigner) AssignAffiliation(speakerLabel string, when types.Date) (string, bool) {
	name, ok := a.resolver.Normalize(speakerLabel)
	if !ok {
		return "", false
	}
	person := a.registry.GetByName(name)
	if person == nil {
		return "", false
	}
	return person.ClubAt(when)
}

// AffiliationToEntries groups the deputies' speeches by club. Chairperson
// turns are skipped without breaking a speaker's block, so a speech
// interrupted by the Marszałek and then resumed yields a single entry.
// When onlyParties is non-empty, speeches of other clubs are dropped.
// Clubs without entries are absent from the result.
func (a *Assigner) AffiliationToEntries(transcripts []*transcript.Transcript, onlyParties []string) (map[string][]*Entry, error) {
	var allowed map[string]bool
	if len(onlyParties) > 0 {
		allowed = make(map[string]bool, len(onlyParties))
		for _, p := range onlyParties {
			allowed[p] = true
		}
	}

	result := make(map[string][]*Entry)
	for _, t := range transcripts {
		when, err := t.SessionDate()
		if err != nil {
			return nil, err
		}

		var prevSpeaker string
		var last *Entry
		for _, speech := range t.Speeches {
			if transcript.IsChairperson(speech.Speaker) {
				continue
			}

			continuation := last != nil && speech.Speaker == prevSpeaker
			prevSpeaker = speech.Speaker

			party, ok := a.AssignAffiliation(speech.Speaker, when)
			if !ok || (allowed != nil && !allowed[party]) {
				last = nil
				continue
			}
			canon, ok := a.resolver.Normalize(speech.Speaker)
			if !ok {
				last = nil
				continue
			}

			text := speech.NormalizedText()
			if continuation {
				last.appendText(text)
				continue
			}

			last = &Entry{
				SpeakerName: speech.Speaker,
				CanonName:   canon,
				Affiliation: party,
				Date:        t.Date,
			}
			last.appendText(text)
			result[party] = append(result[party], last)
		}
	}

	a.logger.Debug("Assigned speeches to affiliations",
		zap.Int("transcripts", len(transcripts)),
		zap.Int("parties", len(result)),
	)
	return result, nil
}

// SpeakerRecord summarises how one raw speaker label resolves across all
// transcripts.
type SpeakerRecord struct {
	SpeakerName string `json:"speaker_name"`

	// CanonName is empty when the label could not be resolved.
	CanonName string `json:"canon_name,omitempty"`

	// Affiliations are the distinct clubs found on the sessions the label
	// appeared in, sorted.
	Affiliations []string `json:"affiliations"`
}

// SpeakerSummary counts speaker labels by resolution outcome.
type SpeakerSummary struct {
	Total              int `json:"total"`
	WithoutAffiliation int `json:"without_affiliation"`
	WithAffiliation    int `json:"with_affiliation"`
	WithMultiple       int `json:"with_multiple_affiliations"`
}

// SpeakerAffiliations resolves every speaker label found in the transcripts,
// both speech speakers and interrupting speakers. Records are sorted by
// canonical name (unresolved first), then by label.
func (a *Assigner) SpeakerAffiliations(transcripts []*transcript.Transcript) ([]*SpeakerRecord, error) {
	byLabel := make(map[string]*SpeakerRecord)
	clubs := make(map[string]map[string]bool)

	visit := func(label string, when types.Date) {
		if label == "" {
			return
		}
		rec, ok := byLabel[label]
		if !ok {
			rec = &SpeakerRecord{SpeakerName: label}
			rec.CanonName, _ = a.resolver.Normalize(label)
			byLabel[label] = rec
			clubs[label] = make(map[string]bool)
		}
		if party, ok := a.AssignAffiliation(label, when); ok {
			clubs[label][party] = true
		}
	}

	for _, t := range transcripts {
		when, err := t.SessionDate()
		if err != nil {
			return nil, err
		}
		for _, speech := range t.Speeches {
			visit(speech.Speaker, when)
			for _, u := range speech.Utterances {
				if in, ok := u.(transcript.Interruption); ok {
					visit(in.InterruptedBySpeaker, when)
				}
			}
		}
	}

	records := make([]*SpeakerRecord, 0, len(byLabel))
	for label, rec := range byLabel {
		rec.Affiliations = make([]string, 0, len(clubs[label]))
		for party := range clubs[label] {
			rec.Affiliations = append(rec.Affiliations, party)
		}
		sort.Strings(rec.Affiliations)
		records = append(records, rec)
	}
	sort.Slice(records, func(i, j int) bool {
		if records[i].CanonName != records[j].CanonName {
			return records[i].CanonName < records[j].CanonName
		}
		return records[i].SpeakerName < records[j].SpeakerName
	})
	return records, nil
}

// Summarize counts records by how many affiliations they resolved to.
func Summarize(records []*SpeakerRecord) SpeakerSummary {
	s := SpeakerSummary{Total: len(records)}
	for _, rec := range records {
		switch {
		case len(rec.Affiliations) == 0:
			s.WithoutAffiliation++
		case len(rec.Affiliations) > 1:
			s.WithAffiliation++
			s.WithMultiple++
		default:
			s.WithAffiliation++
		}
	}
	return s
}
