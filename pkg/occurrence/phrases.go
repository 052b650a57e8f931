package occurrence

import (
	"io"
	"os"
	"sort"

	"github.com/go-faster/errors"
	"gopkg.in/yaml.v3"
)

// ErrUnknownList is returned when a named phrase list does not exist.
var ErrUnknownList = errors.New("unknown phrase list")

// PhraseLists maps a list name to its phrases.
type PhraseLists map[string][]string

// phraseListFile is the YAML layout of a phrase list file:
//
//	lists:
//	  hanba: [hańba, hańbą, hańby]
type phraseListFile struct {
	Lists PhraseLists `yaml:"lists"`
}

// ParsePhraseLists reads phrase lists from YAML.
func ParsePhraseLists(reader io.Reader) (PhraseLists, error) {
	var file phraseListFile
	if err := yaml.NewDecoder(reader).Decode(&file); err != nil && !errors.Is(err, io.EOF) {
		return nil, errors.Wrap(err, "decode phrase lists")
	}
	if file.Lists == nil {
		file.Lists = PhraseLists{}
	}
	return file.Lists, nil
}

// LoadPhraseLists reads phrase lists from a YAML file.
func LoadPhraseLists(path string) (PhraseLists, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "open phrase lists")
	}
	defer f.Close()

	lists, err := ParsePhraseLists(f)
	if err != nil {
		return nil, errors.Wrapf(err, "parse %s", path)
	}
	return lists, nil
}

// Names returns the list names, sorted.
func (l PhraseLists) Names() []string {
	names := make([]string, 0, len(l))
	for name := range l {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Merge adds the lists of other, replacing lists with the same name.
func (l PhraseLists) Merge(other PhraseLists) {
	for name, phrases := range other {
		l[name] = phrases
	}
}

// Resolve concatenates the named lists in the given order, dropping repeated
// phrases.
func (l PhraseLists) Resolve(names ...string) ([]string, error) {
	var out []string
	seen := make(map[string]bool)
	for _, name := range names {
		phrases, ok := l[name]
		if !ok {
			return nil, errors.Wrapf(ErrUnknownList, "%q", name)
		}
		for _, p := range phrases {
			if !seen[p] {
				seen[p] = true
				out = append(out, p)
			}
		}
	}
	return out, nil
}
