package affiliation

import (
	"encoding/json"
	"io"
	"sort"

	"github.com/go-faster/errors"
	"github.com/xuri/excelize/v2"
)

var entryHeader = []interface{}{"date", "speaker_name", "canon_name", "affiliation", "utts_raw"}

// Parties returns the keys of an entries map, sorted.
func Parties(entries map[string][]*Entry) []string {
	parties := make([]string, 0, len(entries))
	for party := range entries {
		parties = append(parties, party)
	}
	sort.Strings(parties)
	return parties
}

// WriteEntriesJSON writes the party to entries map as indented JSON.
func WriteEntriesJSON(w io.Writer, entries map[string][]*Entry) error {
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	return enc.Encode(entries)
}

// WriteEntriesXLSX writes a workbook with one sheet per party, parties in
// name order.
func WriteEntriesXLSX(w io.Writer, entries map[string][]*Entry) error {
	f := excelize.NewFile()
	defer f.Close()

	parties := Parties(entries)
	for i, party := range parties {
		if i == 0 {
			if err := f.SetSheetName("Sheet1", party); err != nil {
				return errors.Wrapf(err, "sheet %q", party)
			}
		} else if _, err := f.NewSheet(party); err != nil {
			return errors.Wrapf(err, "sheet %q", party)
		}

		if err := f.SetSheetRow(party, "A1", &entryHeader); err != nil {
			return errors.Wrapf(err, "sheet %q", party)
		}
		for j, e := range entries[party] {
			cell, err := excelize.CoordinatesToCellName(1, j+2)
			if err != nil {
				return err
			}
			row := []interface{}{e.Date, e.SpeakerName, e.CanonName, e.Affiliation, e.UttsRaw}
			if err := f.SetSheetRow(party, cell, &row); err != nil {
				return errors.Wrapf(err, "sheet %q row %d", party, j+2)
			}
		}
	}

	if err := f.Write(w); err != nil {
		return errors.Wrap(err, "write workbook")
	}
	return nil
}
