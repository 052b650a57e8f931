package affiliation

import (
	"regexp"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/lithammer/fuzzysearch/fuzzy"
	"golang.org/x/text/unicode/norm"
)

// nonWordClass matches a single rune that cannot be part of a word. RE2's \b
// only knows ASCII, which would put a boundary inside names like "Łukasz".
const nonWordClass = `[^\p{L}\p{N}\p{M}_]`

// Resolver maps free-text speaker labels ("Sekretarz Poseł Łukasz Kmita") onto
// canonical registry names. The index is built once from the registry passed
// to NewResolver; a registry that changes afterwards needs a new Resolver.
//
// Matching is heuristic: a label is resolved by the name it ends with, trying
// exact full names first (longest first), then names whose middle name the
// label omits, then two-part names with an extra middle name in the label.
type Resolver struct {
	registry *Registry

	// fullNames matches any canonical name at the end of a label.
	fullNames *regexp.Regexp

	// reducedNames matches "first last" forms of names with 3+ tokens.
	reducedNames *regexp.Regexp

	// extendedNames matches two-token names with one unknown token inserted.
	extendedNames *regexp.Regexp

	canonicalByKey map[string]string
	reducedByKey   map[string]string
	names          []string
}

// NewResolver builds the matching index over all persons in registry.
func NewResolver(registry *Registry) *Resolver {
	r := &Resolver{
		registry:       registry,
		canonicalByKey: make(map[string]string),
		reducedByKey:   make(map[string]string),
	}
	r.buildIndex()
	return r
}

// Registry returns the registry the index was built from.
func (r *Resolver) Registry() *Registry {
	return r.registry
}

func (r *Resolver) buildIndex() {
	names := r.registry.Names()
	sort.SliceStable(names, func(i, j int) bool {
		li, lj := utf8.RuneCountInString(names[i]), utf8.RuneCountInString(names[j])
		if li != lj {
			return li > lj
		}
		return names[i] < names[j]
	})
	r.names = names

	var full, reduced, extended []string
	for _, name := range names {
		tokens := strings.Fields(norm.NFC.String(name))
		if len(tokens) == 0 {
			continue
		}
		joined := strings.Join(tokens, " ")
		if _, seen := r.canonicalByKey[matchKey(joined)]; !seen {
			r.canonicalByKey[matchKey(joined)] = name
		}
		full = append(full, regexp.QuoteMeta(joined))

		first, last := tokens[0], tokens[len(tokens)-1]
		switch {
		case len(tokens) > 2:
			key := matchKey(first + " " + last)
			if _, seen := r.reducedByKey[key]; seen {
				continue
			}
			r.reducedByKey[key] = name
			reduced = append(reduced, regexp.QuoteMeta(first)+`\s+`+regexp.QuoteMeta(last))
		case len(tokens) == 2:
			extended = append(extended, regexp.QuoteMeta(first)+`\s+\S+\s+`+regexp.QuoteMeta(last))
		}
	}

	r.fullNames = compileSuffixAlternation(full)
	r.reducedNames = compileSuffixAlternation(reduced)
	r.extendedNames = compileSuffixAlternation(extended)
}

// compileSuffixAlternation anchors the alternatives to the end of the input on
// a word boundary. Returns nil for an empty list so that nothing matches.
func compileSuffixAlternation(alternatives []string) *regexp.Regexp {
	if len(alternatives) == 0 {
		return nil
	}
	return regexp.MustCompile(`(?i)(?:^|` + nonWordClass + `)(` + strings.Join(alternatives, "|") + `)$`)
}

func matchKey(s string) string {
	return strings.ToLower(strings.Join(strings.Fields(s), " "))
}

func cleanLabel(label string) string {
	return strings.Join(strings.Fields(norm.NFC.String(label)), " ")
}

func suffixMatch(re *regexp.Regexp, label string) (string, bool) {
	if re == nil {
		return "", false
	}
	m := re.FindStringSubmatch(label)
	if m == nil {
		return "", false
	}
	return m[1], true
}

// Normalize returns the canonical registry name a speaker label refers to.
// ok is false when no registry name can be recognised at the end of the label.
func (r *Resolver) Normalize(label string) (string, bool) {
	label = cleanLabel(label)
	if label == "" {
		return "", false
	}

	if matched, ok := suffixMatch(r.fullNames, label); ok {
		name, found := r.canonicalByKey[matchKey(matched)]
		return name, found
	}

	// The label may omit a middle name the registry has.
	if matched, ok := suffixMatch(r.reducedNames, label); ok {
		name, found := r.reducedByKey[matchKey(matched)]
		return name, found
	}

	// The label may carry a middle name the registry lacks.
	if matched, ok := suffixMatch(r.extendedNames, label); ok {
		tokens := strings.Fields(matched)
		name, found := r.canonicalByKey[matchKey(tokens[0]+" "+tokens[len(tokens)-1])]
		return name, found
	}

	return "", false
}

// Suggest returns up to limit registry names that fuzzily contain the last
// word of the label, closest first. Used to review labels Normalize rejects.
func (r *Resolver) Suggest(label string, limit int) []string {
	tokens := strings.Fields(cleanLabel(label))
	if len(tokens) == 0 || limit <= 0 {
		return nil
	}

	ranks := fuzzy.RankFindNormalizedFold(tokens[len(tokens)-1], r.names)
	sort.Stable(ranks)

	var out []string
	for _, rank := range ranks {
		if len(out) == limit {
			break
		}
		out = append(out, rank.Target)
	}
	return out
}
