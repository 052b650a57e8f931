package transcript

import (
	"encoding/xml"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/go-faster/errors"
	"go.uber.org/zap"
)

// --- Transcript XML Structures ---
// <transcript date="..."> → <speech speaker="..."> → <utt>|<reaction>|<interruption speaker="...">

type xmlTranscript struct {
	XMLName  xml.Name    `xml:"transcript"`
	Date     string      `xml:"date,attr"`
	Title    string      `xml:"title,attr"`
	Speeches []xmlSpeech `xml:"speech"`
}

type xmlSpeech struct {
	Speaker string    `xml:"speaker,attr"`
	Items   []xmlItem `xml:",any"`
}

// xmlItem captures any child of <speech> so that document order across the
// three utterance element types is preserved.
type xmlItem struct {
	XMLName xml.Name
	Speaker string `xml:"speaker,attr"`
	Text    string `xml:",chardata"`
}

// ParseXML reads a transcript from its XML representation. Utterance text is
// whitespace-normalised on the way in.
func ParseXML(reader io.Reader) (*Transcript, error) {
	decoder := xml.NewDecoder(reader)

	var doc xmlTranscript
	if err := decoder.Decode(&doc); err != nil {
		return nil, errors.Wrap(err, "decode transcript XML")
	}

	t := &Transcript{
		Date:  strings.TrimSpace(doc.Date),
		Title: NormalizeWhitespace(doc.Title),
	}

	for i, xs := range doc.Speeches {
		speech := &Speech{Speaker: NormalizeWhitespace(xs.Speaker)}
		for _, item := range xs.Items {
			utt, err := item.toUtterance()
			if err != nil {
				return nil, errors.Wrapf(err, "speech %d (%s)", i, speech.Speaker)
			}
			speech.Utterances = append(speech.Utterances, utt)
		}
		t.Speeches = append(t.Speeches, speech)
	}

	return t, nil
}

func (item xmlItem) toUtterance() (Utterance, error) {
	text := NormalizeWhitespace(item.Text)
	switch item.XMLName.Local {
	case "utt":
		return PlainText{Text: text}, nil
	case "reaction":
		return Reaction{ReactionText: text}, nil
	case "interruption":
		return Interruption{
			InterruptedBySpeaker: NormalizeWhitespace(item.Speaker),
			Text:                 text,
		}, nil
	default:
		return nil, errors.Wrapf(ErrUnknownUtterance, "element <%s>", item.XMLName.Local)
	}
}

// LoadFile loads a single transcript XML file.
func LoadFile(path string) (*Transcript, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "open transcript")
	}
	defer f.Close()

	t, err := ParseXML(f)
	if err != nil {
		return nil, errors.Wrapf(err, "parse %s", path)
	}
	t.SourcePath = path
	return t, nil
}

// LoadDirectory loads every *.xml file in dir, ordered by file name.
func LoadDirectory(dir string, logger *zap.Logger) ([]*Transcript, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, errors.Wrap(err, "read transcript directory")
	}

	var names []string
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".xml") {
			continue
		}
		names = append(names, entry.Name())
	}
	sort.Strings(names)

	transcripts := make([]*Transcript, 0, len(names))
	for _, name := range names {
		t, err := LoadFile(filepath.Join(dir, name))
		if err != nil {
			return nil, err
		}
		transcripts = append(transcripts, t)
	}

	if logger != nil {
		logger.Info("Loaded transcripts",
			zap.String("dir", dir),
			zap.Int("count", len(transcripts)),
		)
	}
	return transcripts, nil
}
