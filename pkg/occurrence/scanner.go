package occurrence

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/go-faster/errors"
	"go.uber.org/zap"

	"github.com/coolbeans/sejmtrans/pkg/logging"
	"github.com/coolbeans/sejmtrans/pkg/segment"
	"github.com/coolbeans/sejmtrans/pkg/transcript"
)

// ErrNoPhrases is returned when a scanner is built without any phrase.
var ErrNoPhrases = errors.New("no phrases to search for")

// Scanner finds a fixed list of phrases in transcripts. Phrases are matched
// literally and case-insensitively between word boundaries; a multi-word
// phrase must appear as contiguous text. A boundary lies between a word rune
// (letter, digit, mark or underscore) and a non-word rune or the text edge,
// so a phrase ending in punctuation only matches where a word follows it.
//
// A Scanner keeps per-scan context and must not be used by several
// goroutines at once.
type Scanner struct {
	phrases   []string
	segmenter *segment.Segmenter
	logger    *zap.Logger

	// candidates finds the leftmost position where any phrase occurs;
	// anchored holds one pattern per phrase, tried in order at that position.
	candidates *regexp.Regexp
	anchored   []*regexp.Regexp

	state scanState
}

// scanState is the rolling context of one Run call.
type scanState struct {
	prev         *Context
	prevUtt      transcript.Utterance
	prevUttOwner *transcript.Speech
}

// ScannerOption configures a Scanner.
type ScannerOption func(*Scanner)

// WithLogger sets the logger for scan summaries.
func WithLogger(logger *zap.Logger) ScannerOption {
	return func(s *Scanner) {
		s.logger = logging.OrNop(logger)
	}
}

// WithSegmenter replaces the default Polish sentence segmenter.
func WithSegmenter(seg *segment.Segmenter) ScannerOption {
	return func(s *Scanner) {
		s.segmenter = seg
	}
}

// NewScanner compiles phrases into a matcher. Empty phrases are ignored; at
// least one non-empty phrase is required. When phrases overlap at the same
// position the one listed first wins.
func NewScanner(phrases []string, opts ...ScannerOption) (*Scanner, error) {
	s := &Scanner{logger: zap.NewNop()}
	for _, opt := range opts {
		opt(s)
	}
	if s.segmenter == nil {
		s.segmenter = segment.New(nil)
	}

	var alternatives []string
	for _, p := range phrases {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		quoted := regexp.QuoteMeta(p)
		re, err := regexp.Compile(`(?i)^(?:` + quoted + `)`)
		if err != nil {
			return nil, errors.Wrapf(err, "compile phrase %q", p)
		}
		s.phrases = append(s.phrases, p)
		s.anchored = append(s.anchored, re)
		alternatives = append(alternatives, quoted)
	}
	if len(alternatives) == 0 {
		return nil, ErrNoPhrases
	}

	var err error
	if s.candidates, err = regexp.Compile(`(?i)(?:` + strings.Join(alternatives, "|") + `)`); err != nil {
		return nil, errors.Wrap(err, "compile phrases")
	}
	return s, nil
}

// Phrases returns the phrases searched for.
func (s *Scanner) Phrases() []string {
	return append([]string(nil), s.phrases...)
}

// Run returns every hit in t in document order: speeches, then utterances,
// then sentences, then hits within a sentence. Hits may overlap as long as
// they start at different positions.
func (s *Scanner) Run(t *transcript.Transcript) ([]Occurrence, error) {
	s.state = scanState{}

	var result []Occurrence
	for _, speech := range t.Speeches {
		var err error
		result, err = s.scanSpeech(result, t, speech)
		if err != nil {
			return nil, errors.Wrapf(err, "speech of %s", speech.Speaker)
		}
	}

	s.logger.Debug("Scanned transcript",
		zap.String("date", t.Date),
		zap.Int("speeches", len(t.Speeches)),
		zap.Int("occurrences", len(result)),
	)
	return result, nil
}

// RunAll scans each transcript in turn. Context does not carry over between
// transcripts.
func (s *Scanner) RunAll(transcripts []*transcript.Transcript) ([]Occurrence, error) {
	var result []Occurrence
	for _, t := range transcripts {
		occurrences, err := s.Run(t)
		if err != nil {
			return nil, errors.Wrapf(err, "scan %s", t.Date)
		}
		result = append(result, occurrences...)
	}

	s.logger.Info("Scanned transcripts",
		zap.Int("transcripts", len(transcripts)),
		zap.Int("occurrences", len(result)),
	)
	return result, nil
}

func (s *Scanner) scanSpeech(result []Occurrence, t *transcript.Transcript, speech *transcript.Speech) ([]Occurrence, error) {
	for idx, utt := range speech.Utterances {
		speaker, _, err := transcript.SpeakerFor(utt, speech)
		if err != nil {
			return nil, err
		}
		sentences, err := s.segmenter.Split(utt)
		if err != nil {
			return nil, err
		}

		_, prevWasInterruption := s.state.prevUtt.(transcript.Interruption)
		resumed := utt.Kind() == transcript.KindPlainText &&
			prevWasInterruption && s.state.prevUttOwner == speech

		for _, sent := range sentences {
			for _, m := range s.matches(sent.Text) {
				result = append(result, Occurrence{
					Speaker:           speaker,
					Sentence:          sent.Text,
					Match:             string([]rune(sent.Text)[m[0]:m[1]]),
					UtteranceIndex:    idx,
					SentenceOffset:    sent.Offset,
					MatchStart:        m[0],
					MatchEnd:          m[1],
					Kind:              utt.Kind(),
					Prev:              s.state.prev,
					AfterInterruption: resumed,
					Date:              t.Date,
					Utterance:         utt,
					Speech:            speech,
					Transcript:        t,
				})
			}
			if utt.Kind() == transcript.KindPlainText {
				s.state.prev = &Context{Sentence: sent.Text, Speaker: speaker}
			}
		}

		s.state.prevUtt = utt
		s.state.prevUttOwner = speech
	}
	return result, nil
}

// matches returns the rune offsets [start, end) of every hit in text. The
// search resumes one rune after the start of the previous hit.
func (s *Scanner) matches(text string) [][2]int {
	var out [][2]int

	pos := 0
	for pos < len(text) {
		loc := s.candidates.FindStringIndex(text[pos:])
		if loc == nil {
			break
		}
		start := pos + loc[0]

		if end, ok := s.matchAt(text, start); ok {
			runeStart := utf8.RuneCountInString(text[:start])
			out = append(out, [2]int{runeStart, runeStart + utf8.RuneCountInString(text[start:end])})
		}

		_, size := utf8.DecodeRuneInString(text[start:])
		pos = start + size
	}
	return out
}

// matchAt returns the byte end of the first phrase, in list order, that
// occurs at start with a word boundary on both sides.
func (s *Scanner) matchAt(text string, start int) (int, bool) {
	wordBefore := false
	if start > 0 {
		r, _ := utf8.DecodeLastRuneInString(text[:start])
		wordBefore = isWordRune(r)
	}

	for _, re := range s.anchored {
		loc := re.FindStringIndex(text[start:])
		if loc == nil || loc[1] == 0 {
			continue
		}
		end := start + loc[1]

		first, _ := utf8.DecodeRuneInString(text[start:end])
		if isWordRune(first) == wordBefore {
			continue
		}
		last, _ := utf8.DecodeLastRuneInString(text[start:end])
		wordAfter := false
		if end < len(text) {
			r, _ := utf8.DecodeRuneInString(text[end:])
			wordAfter = isWordRune(r)
		}
		if isWordRune(last) == wordAfter {
			continue
		}
		return end, true
	}
	return 0, false
}

func isWordRune(r rune) bool {
	return r == '_' || unicode.IsLetter(r) || unicode.IsNumber(r) || unicode.IsMark(r)
}
