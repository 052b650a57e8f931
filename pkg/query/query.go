// Package query dumps selected parts of transcripts (speaker labels,
// utterances, reactions, interruptions) for further text processing.
package query

import (
	"strings"

	"github.com/go-faster/errors"
)

// Field names a part of a transcript that can be dumped.
type Field string

const (
	// FieldSpeechSpeaker is the speaker label of every speech.
	FieldSpeechSpeaker Field = "speech_speaker"
	// FieldUttNorm is every plain utterance, whitespace-normalised.
	FieldUttNorm Field = "utt_norm"
	// FieldUttReaction is every audience reaction.
	FieldUttReaction Field = "utt_reaction"
	// FieldUttInterrupt is the text of every interruption.
	FieldUttInterrupt Field = "utt_interrupt"
	// FieldUttInterruptBy is the speaker label of every interruption.
	FieldUttInterruptBy Field = "utt_interrupt_by"
)

// Fields lists every dumpable field.
var Fields = []Field{
	FieldSpeechSpeaker,
	FieldUttNorm,
	FieldUttReaction,
	FieldUttInterrupt,
	FieldUttInterruptBy,
}

// ErrUnknownField is returned for a field name outside Fields.
var ErrUnknownField = errors.New("unknown query field")

// FieldNames returns the names of all fields joined for help texts.
func FieldNames() string {
	names := make([]string, len(Fields))
	for i, f := range Fields {
		names[i] = string(f)
	}
	return strings.Join(names, ", ")
}

// ParseFields validates field names. Repeated names are kept once.
func ParseFields(names []string) ([]Field, error) {
	if len(names) == 0 {
		return nil, errors.Wrap(ErrUnknownField, "no field given")
	}

	var out []Field
	seen := make(map[Field]bool)
	for _, name := range names {
		f := Field(strings.TrimSpace(name))
		if !f.valid() {
			return nil, errors.Wrapf(ErrUnknownField, "%q (available: %s)", name, FieldNames())
		}
		if !seen[f] {
			seen[f] = true
			out = append(out, f)
		}
	}
	return out, nil
}

func (f Field) valid() bool {
	for _, known := range Fields {
		if f == known {
			return true
		}
	}
	return false
}

// Row is one dumped value.
type Row struct {
	Date    string `json:"date"`
	Field   Field  `json:"field"`
	Speaker string `json:"speaker,omitempty"`
	Value   string `json:"value"`
}
