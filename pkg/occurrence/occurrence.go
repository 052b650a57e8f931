// Package occurrence finds phrases in Sejm transcripts sentence by sentence
// and reports every hit with its speaker and surrounding context.
package occurrence

import (
	"fmt"
	"sort"

	"github.com/coolbeans/sejmtrans/pkg/transcript"
)

// Context is the sentence preceding a hit, as spoken by its speaker.
type Context struct {
	Sentence string `json:"sentence"`
	Speaker  string `json:"speaker"`
}

// Occurrence is a single phrase hit within a sentence.
type Occurrence struct {
	// Speaker is who uttered the sentence. Empty for reactions.
	Speaker string `json:"speaker,omitempty"`

	// Sentence is the full sentence containing the hit.
	Sentence string `json:"sentence"`

	// Match is the matched text as it appears in Sentence.
	Match string `json:"match"`

	// UtteranceIndex is the index of the utterance within its speech.
	UtteranceIndex int `json:"utterance_index"`

	// SentenceOffset is where Sentence starts in the utterance text.
	SentenceOffset int `json:"sentence_offset"`

	// MatchStart and MatchEnd delimit Match within Sentence. All offsets
	// are counted in runes.
	MatchStart int `json:"match_start"`
	MatchEnd   int `json:"match_end"`

	// Kind is the variant of the utterance the sentence belongs to.
	Kind transcript.UtteranceKind `json:"kind"`

	// Prev is the last plain-speech sentence before this one within the
	// scan, or nil at the start of a transcript. Reactions and
	// interruptions never become context.
	Prev *Context `json:"prev,omitempty"`

	// AfterInterruption is set for plain speech resumed right after an
	// interruption in the same speech.
	AfterInterruption bool `json:"after_interruption,omitempty"`

	// Date is the session date of the transcript.
	Date string `json:"date"`

	Utterance  transcript.Utterance   `json:"-"`
	Speech     *transcript.Speech     `json:"-"`
	Transcript *transcript.Transcript `json:"-"`
}

// HasSpeaker reports whether the sentence is attributed; reactions are not.
func (o *Occurrence) HasSpeaker() bool {
	return o.Kind != transcript.KindReaction
}

// SpeechSpeaker returns the speaker of the speech the hit occurred in.
func (o *Occurrence) SpeechSpeaker() string {
	if o.Speech == nil {
		return ""
	}
	return o.Speech.Speaker
}

// String renders the hit as "speaker: sentence". Interruptions also quote
// the sentence they interrupted.
func (o *Occurrence) String() string {
	speaker := o.Speaker
	if !o.HasSpeaker() {
		speaker = "[" + transcript.KindReaction.String() + "]"
	}
	text := fmt.Sprintf("%s: %s", speaker, o.Sentence)

	if o.Kind == transcript.KindInterruption {
		var prevSpeaker, prevSentence string
		if o.Prev != nil {
			prevSpeaker, prevSentence = o.Prev.Speaker, o.Prev.Sentence
		}
		text += fmt.Sprintf(" (przerywając wypowiedź <%s> o treści: %s)", prevSpeaker, prevSentence)
	}
	return text
}

// SpeakerCount is the number of hits attributed to one speaker label.
type SpeakerCount struct {
	Speaker string `json:"speaker"`
	Count   int    `json:"count"`
}

// CountBySpeaker tallies hits per speaker, most frequent first. Reactions
// are counted under an empty speaker.
func CountBySpeaker(occurrences []Occurrence) []SpeakerCount {
	counts := make(map[string]int)
	for _, o := range occurrences {
		counts[o.Speaker]++
	}

	out := make([]SpeakerCount, 0, len(counts))
	for speaker, n := range counts {
		out = append(out, SpeakerCount{Speaker: speaker, Count: n})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Speaker < out[j].Speaker
	})
	return out
}
