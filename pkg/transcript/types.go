// Package transcript models Sejm session transcripts: speeches made of plain
// utterances, audience reactions and interruptions by other speakers.
package transcript

import (
	"regexp"
	"strings"

	"github.com/go-faster/errors"

	"github.com/coolbeans/sejmtrans/pkg/types"
)

// ErrUnknownUtterance is returned when an utterance is not one of the known variants.
var ErrUnknownUtterance = errors.New("unknown utterance variant")

// ErrInvalidDate is returned when a transcript carries a malformed session date.
var ErrInvalidDate = errors.New("invalid transcript date")

// UtteranceKind classifies an utterance within a speech.
type UtteranceKind int

const (
	// KindPlainText is text spoken by the speech's own speaker.
	KindPlainText UtteranceKind = iota
	// KindReaction is an unattributed audience reaction (applause, laughter).
	KindReaction
	// KindInterruption is a remark made by another speaker during the speech.
	KindInterruption
)

// String returns a human-readable label for the utterance kind.
func (k UtteranceKind) String() string {
	switch k {
	case KindPlainText:
		return "utt"
	case KindReaction:
		return "reaction"
	case KindInterruption:
		return "interruption"
	default:
		return "unknown"
	}
}

// MarshalText implements encoding.TextMarshaler.
func (k UtteranceKind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// Utterance is one element of a speech. The set of implementations is closed:
// PlainText, Reaction and Interruption.
type Utterance interface {
	// Kind reports which variant this utterance is.
	Kind() UtteranceKind

	// RawText returns the text carried by the utterance, excluding any
	// attribution.
	RawText() string

	utterance()
}

// PlainText is an utterance of the speech's own speaker.
type PlainText struct {
	Text string `json:"text"`
}

// Kind implements Utterance.
func (PlainText) Kind() UtteranceKind { return KindPlainText }

// RawText implements Utterance.
func (u PlainText) RawText() string { return u.Text }

func (PlainText) utterance() {}

// Reaction is an audience reaction recorded in the transcript.
type Reaction struct {
	ReactionText string `json:"reaction_text"`
}

// Kind implements Utterance.
func (Reaction) Kind() UtteranceKind { return KindReaction }

// RawText implements Utterance.
func (u Reaction) RawText() string { return u.ReactionText }

func (Reaction) utterance() {}

// Interruption is a remark by another speaker made during a speech.
type Interruption struct {
	InterruptedBySpeaker string `json:"interrupted_by_speaker"`
	Text                 string `json:"text"`
}

// Kind implements Utterance.
func (Interruption) Kind() UtteranceKind { return KindInterruption }

// RawText implements Utterance.
func (u Interruption) RawText() string { return u.Text }

func (Interruption) utterance() {}

// SpeakerFor returns who uttered u within speech. Reactions are unattributed
// and report ok=false. Interruptions are attributed to the interrupting speaker.
func SpeakerFor(u Utterance, speech *Speech) (speaker string, ok bool, err error) {
	switch v := u.(type) {
	case PlainText:
		if speech == nil {
			return "", false, nil
		}
		return speech.Speaker, true, nil
	case Reaction:
		return "", false, nil
	case Interruption:
		return v.InterruptedBySpeaker, true, nil
	default:
		return "", false, errors.Wrapf(ErrUnknownUtterance, "%T", u)
	}
}

// Speech is a single turn of a speaker in the session.
type Speech struct {
	// Speaker is the raw speaker label as printed in the transcript,
	// e.g. "Poseł Jan Kowalski".
	Speaker string `json:"speaker"`

	// Utterances are the speech contents in document order.
	Utterances []Utterance `json:"-"`
}

// PlainTexts returns the speaker's own utterances, skipping reactions and
// interruptions.
func (s *Speech) PlainTexts() []string {
	var out []string
	for _, u := range s.Utterances {
		if p, ok := u.(PlainText); ok {
			out = append(out, p.Text)
		}
	}
	return out
}

// NormalizedText joins the speaker's own utterances with whitespace collapsed
// to single spaces.
func (s *Speech) NormalizedText() string {
	return NormalizeWhitespace(strings.Join(s.PlainTexts(), " "))
}

// Transcript is the record of one sitting of the Sejm.
type Transcript struct {
	// Date is the session date as YYYY-MM-DD.
	Date string `json:"date"`

	// Title is an optional descriptive title of the sitting.
	Title string `json:"title,omitempty"`

	// SourcePath is the file the transcript was loaded from, if any.
	SourcePath string `json:"source_path,omitempty"`

	// Speeches are the speeches in document order.
	Speeches []*Speech `json:"-"`
}

// SessionDate parses the transcript date.
func (t *Transcript) SessionDate() (types.Date, error) {
	d, err := types.ParseDate(t.Date)
	if err != nil {
		return types.Date{}, errors.Wrapf(ErrInvalidDate, "%s: %q", t.SourcePath, t.Date)
	}
	return d, nil
}

var chairpersonPattern = regexp.MustCompile(`(?i)marszałek`)

// IsChairperson reports whether the speaker label belongs to the presiding
// officer (Marszałek or one of the Wicemarszałek deputies).
func IsChairperson(speaker string) bool {
	return chairpersonPattern.MatchString(speaker)
}

// NormalizeWhitespace trims s and collapses internal whitespace runs to a single space.
func NormalizeWhitespace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
