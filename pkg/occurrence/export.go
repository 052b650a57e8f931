package occurrence

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strconv"

	"github.com/go-faster/errors"
	"github.com/xuri/excelize/v2"
)

// Format is an output format for occurrence listings.
type Format string

const (
	FormatText Format = "text"
	FormatJSON Format = "json"
	FormatTSV  Format = "tsv"
	FormatXLSX Format = "xlsx"
)

// Formats lists the supported output formats.
var Formats = []Format{FormatText, FormatJSON, FormatTSV, FormatXLSX}

// ErrUnknownFormat is returned for an unsupported output format.
var ErrUnknownFormat = errors.New("unknown output format")

// ParseFormat validates a format name.
func ParseFormat(name string) (Format, error) {
	for _, f := range Formats {
		if string(f) == name {
			return f, nil
		}
	}
	return "", errors.Wrapf(ErrUnknownFormat, "%q", name)
}

// sheetName is the worksheet occurrences are written to.
const sheetName = "occurrences"

var tableHeader = []string{
	"date",
	"speech_speaker",
	"speaker",
	"kind",
	"utterance_index",
	"sentence_offset",
	"match_start",
	"match_end",
	"match",
	"sentence",
	"prev_sentence",
	"prev_sentence_speaker",
	"after_interruption",
}

func tableRow(o *Occurrence) []string {
	var prevSentence, prevSpeaker string
	if o.Prev != nil {
		prevSentence, prevSpeaker = o.Prev.Sentence, o.Prev.Speaker
	}
	return []string{
		o.Date,
		o.SpeechSpeaker(),
		o.Speaker,
		o.Kind.String(),
		strconv.Itoa(o.UtteranceIndex),
		strconv.Itoa(o.SentenceOffset),
		strconv.Itoa(o.MatchStart),
		strconv.Itoa(o.MatchEnd),
		o.Match,
		o.Sentence,
		prevSentence,
		prevSpeaker,
		strconv.FormatBool(o.AfterInterruption),
	}
}

// Write renders occurrences in the given format.
func Write(w io.Writer, format Format, occurrences []Occurrence) error {
	switch format {
	case FormatText:
		return WriteText(w, occurrences)
	case FormatJSON:
		return WriteJSON(w, occurrences)
	case FormatTSV:
		return WriteTSV(w, occurrences)
	case FormatXLSX:
		return WriteXLSX(w, occurrences)
	default:
		return errors.Wrapf(ErrUnknownFormat, "%q", format)
	}
}

// WriteText writes one human-readable line per occurrence.
func WriteText(w io.Writer, occurrences []Occurrence) error {
	for i := range occurrences {
		if _, err := fmt.Fprintf(w, "[%s] %s\n", occurrences[i].Date, occurrences[i].String()); err != nil {
			return err
		}
	}
	return nil
}

// WriteJSON writes occurrences as an indented JSON array.
func WriteJSON(w io.Writer, occurrences []Occurrence) error {
	if occurrences == nil {
		occurrences = []Occurrence{}
	}
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	return enc.Encode(occurrences)
}

// WriteTSV writes a tab-separated table with a header row.
func WriteTSV(w io.Writer, occurrences []Occurrence) error {
	cw := csv.NewWriter(w)
	cw.Comma = '\t'

	if err := cw.Write(tableHeader); err != nil {
		return err
	}
	for i := range occurrences {
		if err := cw.Write(tableRow(&occurrences[i])); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteXLSX writes occurrences to a single-sheet workbook.
func WriteXLSX(w io.Writer, occurrences []Occurrence) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", sheetName); err != nil {
		return errors.Wrap(err, "rename sheet")
	}

	if err := setRow(f, sheetName, 1, tableHeader); err != nil {
		return err
	}
	for i := range occurrences {
		if err := setRow(f, sheetName, i+2, tableRow(&occurrences[i])); err != nil {
			return err
		}
	}

	if err := f.Write(w); err != nil {
		return errors.Wrap(err, "write workbook")
	}
	return nil
}

func setRow(f *excelize.File, sheet string, row int, values []string) error {
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return err
	}
	cells := make([]interface{}, len(values))
	for i, v := range values {
		cells[i] = v
	}
	if err := f.SetSheetRow(sheet, cell, &cells); err != nil {
		return errors.Wrapf(err, "write row %d", row)
	}
	return nil
}
