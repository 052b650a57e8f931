// Package sentence splits Polish text into sentences.
//
// The splitter is rule based: a sentence ends at a run of terminal punctuation
// followed by whitespace and a word starting with an upper-case letter, unless
// the period closes a known abbreviation or an initial.
package sentence

import (
	"strings"
	"unicode"
)

// Splitter splits text into sentences. Returned sentences are substrings of
// the input with surrounding whitespace removed, in input order, such that
// joining them with the whitespace that separated them reproduces the
// trimmed input.
type Splitter interface {
	Split(text string) []string
}

// SplitterFunc adapts a function to the Splitter interface.
type SplitterFunc func(text string) []string

// Split implements Splitter.
func (f SplitterFunc) Split(text string) []string {
	return f(text)
}

// nonBreakingPrefixes are lower-cased abbreviations after which a period does
// not end a sentence.
var nonBreakingPrefixes = []string{
	// titles and ranks
	"dr", "hab", "prof", "mgr", "inż", "lek", "med", "ks", "bp", "abp", "o",
	"gen", "płk", "ppłk", "mjr", "kpt", "por", "ppor", "sierż", "kmdr", "adm",
	"św", "red", "doc", "dyr", "prez", "wicemin", "min", "sen", "pos", "ob",
	// references to legal texts
	"art", "ust", "pkt", "lit", "par", "poz", "nr", "rozdz", "zał", "dz", "u",
	"str", "s", "t", "tab", "rys", "wyd", "ods", "zob", "vide",
	// units, time and money
	"godz", "sek", "tys", "mln", "mld", "bln", "zł", "gr", "proc",
	"km", "kg", "ok", "r", "w", "ur", "zm", "ul", "al", "pl", "os", "m",
	"stycz", "lut", "mar", "kwiec", "kwiet", "maj", "czerw", "lip", "sierp",
	"wrz", "paź", "październ", "listop", "grud",
	// common running-text abbreviations
	"np", "tj", "tzn", "tzw", "itd", "itp", "m.in", "ds", "ws", "im", "pt",
	"jw", "wg", "ww", "cdn", "dot", "gł", "kl", "mies", "ang", "łac",
	"niem", "franc", "ros", "woj", "pow", "gm", "sp", "spółka", "z.o.o",
	"pn", "pd", "wsch", "zach",
}

// Terminal punctuation and the characters that may close or open a sentence
// around it.
const (
	terminators = ".!?…"
	closers     = "\"'”»)]"
	openers     = "\"'„«([-–"
)

// Polish is a rule-based sentence splitter for Polish parliamentary text.
type Polish struct {
	nonBreaking map[string]struct{}
}

// NewPolish creates a Polish splitter. Additional non-breaking abbreviations
// may be passed lower-cased and without the trailing period.
func NewPolish(extraAbbreviations ...string) *Polish {
	p := &Polish{nonBreaking: make(map[string]struct{}, len(nonBreakingPrefixes)+len(extraAbbreviations))}
	for _, a := range nonBreakingPrefixes {
		p.nonBreaking[a] = struct{}{}
	}
	for _, a := range extraAbbreviations {
		p.nonBreaking[strings.ToLower(a)] = struct{}{}
	}
	return p
}

// Split implements Splitter.
func (p *Polish) Split(text string) []string {
	runes := []rune(text)
	var out []string

	start := 0
	for i := 0; i < len(runes); i++ {
		if !strings.ContainsRune(terminators, runes[i]) {
			continue
		}

		end := i + 1
		for end < len(runes) && strings.ContainsRune(terminators+closers, runes[end]) {
			end++
		}
		i = end - 1

		if end >= len(runes) || !unicode.IsSpace(runes[end]) {
			continue
		}
		if !startsSentence(runes, end) {
			continue
		}
		if p.isAbbreviation(runes, start, end) {
			continue
		}

		if s := strings.TrimSpace(string(runes[start:end])); s != "" {
			out = append(out, s)
		}
		start = end
	}

	if s := strings.TrimSpace(string(runes[start:])); s != "" {
		out = append(out, s)
	}
	return out
}

// startsSentence reports whether the text after the whitespace at idx begins
// with an upper-case letter, optionally preceded by opening punctuation.
func startsSentence(runes []rune, idx int) bool {
	for idx < len(runes) && unicode.IsSpace(runes[idx]) {
		idx++
	}
	for idx < len(runes) && strings.ContainsRune(openers, runes[idx]) {
		idx++
	}
	return idx < len(runes) && unicode.IsUpper(runes[idx])
}

// isAbbreviation reports whether the punctuation run ending at end is a single
// period closing a known abbreviation or an initial.
func (p *Polish) isAbbreviation(runes []rune, start, end int) bool {
	if end-1 < start || runes[end-1] != '.' {
		return false
	}
	if end-2 >= start && strings.ContainsRune(terminators+closers, runes[end-2]) {
		return false
	}

	tokenStart := end - 1
	for tokenStart > start && !unicode.IsSpace(runes[tokenStart-1]) && !strings.ContainsRune(openers, runes[tokenStart-1]) {
		tokenStart--
	}
	token := string(runes[tokenStart : end-1])
	if token == "" {
		return false
	}

	if _, ok := p.nonBreaking[strings.ToLower(token)]; ok {
		return true
	}

	// Single upper-case initials ("J. Kowalski") and dotted initialisms
	// ("m.in.", "S.A.").
	tr := []rune(token)
	if len(tr) == 1 && unicode.IsUpper(tr[0]) {
		return true
	}
	return strings.Contains(token, ".") && isInitialism(token)
}

func isInitialism(token string) bool {
	for _, part := range strings.Split(token, ".") {
		if len([]rune(part)) > 2 {
			return false
		}
		for _, r := range part {
			if !unicode.IsLetter(r) {
				return false
			}
		}
	}
	return true
}
