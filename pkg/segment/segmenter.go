// Package segment splits transcript utterances into sentences and recovers
// where each sentence starts in the utterance text.
package segment

import (
	"unicode"
	"unicode/utf8"

	"github.com/go-faster/errors"

	"github.com/coolbeans/sejmtrans/pkg/sentence"
	"github.com/coolbeans/sejmtrans/pkg/transcript"
)

// Sentence is a sentence of an utterance.
type Sentence struct {
	Text string `json:"text"`

	// Offset is the position of the first rune of Text within the
	// utterance text, counted in runes.
	Offset int `json:"offset"`
}

// Segmenter wraps a sentence splitter that reports no positions.
type Segmenter struct {
	splitter sentence.Splitter
}

// New creates a segmenter. A nil splitter defaults to the Polish splitter.
func New(splitter sentence.Splitter) *Segmenter {
	if splitter == nil {
		splitter = sentence.NewPolish()
	}
	return &Segmenter{splitter: splitter}
}

// Split segments the text of u: the text itself for plain utterances, the
// reaction text for reactions, and the remark (without its attribution) for
// interruptions.
func (s *Segmenter) Split(u transcript.Utterance) ([]Sentence, error) {
	text, err := utteranceText(u)
	if err != nil {
		return nil, err
	}
	return s.SplitText(text), nil
}

func utteranceText(u transcript.Utterance) (string, error) {
	switch v := u.(type) {
	case transcript.PlainText:
		return v.Text, nil
	case transcript.Reaction:
		return v.ReactionText, nil
	case transcript.Interruption:
		return v.Text, nil
	default:
		return "", errors.Wrapf(transcript.ErrUnknownUtterance, "%T", u)
	}
}

// SplitText segments text. Offsets are exact when text carries no doubled
// whitespace, which holds for whitespace-normalised transcript text.
func (s *Segmenter) SplitText(text string) []Sentence {
	if text == "" {
		return []Sentence{}
	}

	parts := s.splitter.Split(text)
	out := make([]Sentence, 0, len(parts))

	runes := []rune(text)
	cursor := skipSpace(runes, 0)
	for i, part := range parts {
		out = append(out, Sentence{Text: part, Offset: cursor})
		if i == len(parts)-1 {
			break
		}
		cursor += utf8.RuneCountInString(part)
		if cursor > len(runes) {
			cursor = len(runes)
		}
		cursor = skipSpace(runes, cursor)
	}
	return out
}

func skipSpace(runes []rune, from int) int {
	for from < len(runes) && unicode.IsSpace(runes[from]) {
		from++
	}
	return from
}
