package query

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/go-faster/errors"
	"go.uber.org/zap"

	"github.com/coolbeans/sejmtrans/pkg/affiliation"
	"github.com/coolbeans/sejmtrans/pkg/logging"
	"github.com/coolbeans/sejmtrans/pkg/transcript"
	"github.com/coolbeans/sejmtrans/pkg/types"
)

// Executor dumps fields from a fixed transcript collection.
type Executor struct {
	transcripts []*transcript.Transcript
	assigner    *affiliation.Assigner
	parties     map[string]bool
	logger      *zap.Logger
}

// ExecutorOption configures an executor.
type ExecutorOption func(*Executor)

// WithParties restricts dumps to speakers whose club on the session date is
// one of parties. Speech fields and reactions are filtered by the speech's
// speaker, interruption fields by the interrupting speaker.
func WithParties(assigner *affiliation.Assigner, parties []string) ExecutorOption {
	return func(e *Executor) {
		e.assigner = assigner
		if len(parties) == 0 {
			e.parties = nil
			return
		}
		e.parties = make(map[string]bool, len(parties))
		for _, p := range parties {
			e.parties[p] = true
		}
	}
}

// WithLogger sets the logger.
func WithLogger(logger *zap.Logger) ExecutorOption {
	return func(e *Executor) {
		e.logger = logging.OrNop(logger)
	}
}

// NewExecutor creates an executor over transcripts.
func NewExecutor(transcripts []*transcript.Transcript, opts ...ExecutorOption) *Executor {
	e := &Executor{
		transcripts: transcripts,
		logger:      zap.NewNop(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// CountTranscripts returns the number of transcripts queried.
func (e *Executor) CountTranscripts() int {
	return len(e.transcripts)
}

// Result is the outcome of a dump.
type Result struct {
	Fields []Field
	Rows   []Row
	Count  int
}

// Execute dumps the requested fields in document order.
func (e *Executor) Execute(fields []Field) (*Result, error) {
	if e.parties != nil && e.assigner == nil {
		return nil, errors.New("party filter requires an affiliation assigner")
	}
	want := make(map[Field]bool, len(fields))
	for _, f := range fields {
		if !f.valid() {
			return nil, errors.Wrapf(ErrUnknownField, "%q", f)
		}
		want[f] = true
	}

	result := &Result{Fields: fields}
	for _, t := range e.transcripts {
		when, err := t.SessionDate()
		if err != nil {
			return nil, err
		}
		for _, speech := range t.Speeches {
			rows, err := e.dumpSpeech(t.Date, when, speech, want)
			if err != nil {
				return nil, err
			}
			result.Rows = append(result.Rows, rows...)
		}
	}
	result.Count = len(result.Rows)

	e.logger.Debug("Executed transcript query",
		zap.Int("transcripts", len(e.transcripts)),
		zap.Int("rows", result.Count),
	)
	return result, nil
}

func (e *Executor) dumpSpeech(date string, when types.Date, speech *transcript.Speech, want map[Field]bool) ([]Row, error) {
	var rows []Row
	speakerAllowed := e.allowed(speech.Speaker, when)

	if want[FieldSpeechSpeaker] && speakerAllowed {
		rows = append(rows, Row{Date: date, Field: FieldSpeechSpeaker, Speaker: speech.Speaker, Value: speech.Speaker})
	}

	for _, u := range speech.Utterances {
		switch v := u.(type) {
		case transcript.PlainText:
			if want[FieldUttNorm] && speakerAllowed {
				rows = append(rows, Row{Date: date, Field: FieldUttNorm, Speaker: speech.Speaker, Value: transcript.NormalizeWhitespace(v.Text)})
			}
		case transcript.Reaction:
			if want[FieldUttReaction] && speakerAllowed {
				rows = append(rows, Row{Date: date, Field: FieldUttReaction, Speaker: speech.Speaker, Value: v.ReactionText})
			}
		case transcript.Interruption:
			if !want[FieldUttInterrupt] && !want[FieldUttInterruptBy] {
				continue
			}
			if !e.allowed(v.InterruptedBySpeaker, when) {
				continue
			}
			if want[FieldUttInterrupt] {
				rows = append(rows, Row{Date: date, Field: FieldUttInterrupt, Speaker: v.InterruptedBySpeaker, Value: v.Text})
			}
			if want[FieldUttInterruptBy] {
				rows = append(rows, Row{Date: date, Field: FieldUttInterruptBy, Speaker: v.InterruptedBySpeaker, Value: v.InterruptedBySpeaker})
			}
		default:
			return nil, errors.Wrapf(transcript.ErrUnknownUtterance, "%T in speech of %s", u, speech.Speaker)
		}
	}
	return rows, nil
}

func (e *Executor) allowed(speaker string, when types.Date) bool {
	if e.parties == nil {
		return true
	}
	party, ok := e.assigner.AssignAffiliation(speaker, when)
	return ok && e.parties[party]
}

// OutputFormat is a rendering of a Result.
type OutputFormat string

const (
	FormatText  OutputFormat = "text"
	FormatTable OutputFormat = "table"
	FormatJSON  OutputFormat = "json"
	FormatTSV   OutputFormat = "tsv"
)

// Format renders the result in the given format.
func (r *Result) Format(format OutputFormat) (string, error) {
	switch format {
	case FormatText:
		return r.FormatText(), nil
	case FormatTable:
		return r.FormatTable(), nil
	case FormatJSON:
		return r.FormatJSON()
	case FormatTSV:
		return r.FormatTSV()
	default:
		return "", fmt.Errorf("unsupported format: %s", format)
	}
}

// FormatText writes one value per line, suited for sort | uniq -c. With
// more than one field each line is prefixed by the field name and a tab.
func (r *Result) FormatText() string {
	var sb strings.Builder
	for _, row := range r.Rows {
		if len(r.Fields) > 1 {
			sb.WriteString(string(row.Field))
			sb.WriteString("\t")
		}
		sb.WriteString(row.Value)
		sb.WriteString("\n")
	}
	return sb.String()
}

var tableColumns = []string{"date", "field", "speaker", "value"}

func (row Row) columns() []string {
	return []string{row.Date, string(row.Field), row.Speaker, row.Value}
}

// FormatTable formats the result as an ASCII table.
func (r *Result) FormatTable() string {
	if len(r.Rows) == 0 {
		return fmt.Sprintf("No results (%d rows)\n", r.Count)
	}

	widths := make([]int, len(tableColumns))
	for i, c := range tableColumns {
		widths[i] = utf8.RuneCountInString(c)
	}
	for _, row := range r.Rows {
		for i, v := range row.columns() {
			if n := utf8.RuneCountInString(v); n > widths[i] {
				widths[i] = n
			}
		}
	}

	var sep strings.Builder
	sep.WriteString("+")
	for _, w := range widths {
		sep.WriteString(strings.Repeat("-", w+2))
		sep.WriteString("+")
	}
	sep.WriteString("\n")

	var sb strings.Builder
	writeRow := func(values []string) {
		sb.WriteString("|")
		for i, v := range values {
			sb.WriteString(" ")
			sb.WriteString(v)
			sb.WriteString(strings.Repeat(" ", widths[i]-utf8.RuneCountInString(v)))
			sb.WriteString(" |")
		}
		sb.WriteString("\n")
	}

	sb.WriteString(sep.String())
	writeRow(tableColumns)
	sb.WriteString(sep.String())
	for _, row := range r.Rows {
		writeRow(row.columns())
	}
	sb.WriteString(sep.String())

	sb.WriteString(fmt.Sprintf("%d rows\n", r.Count))
	return sb.String()
}

// FormatJSON formats the result as JSON.
func (r *Result) FormatJSON() (string, error) {
	type jsonResult struct {
		Fields []Field `json:"fields"`
		Rows   []Row   `json:"rows"`
		Count  int     `json:"count"`
	}

	rows := r.Rows
	if rows == nil {
		rows = []Row{}
	}

	var sb strings.Builder
	enc := json.NewEncoder(&sb)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(jsonResult{Fields: r.Fields, Rows: rows, Count: r.Count}); err != nil {
		return "", err
	}
	return sb.String(), nil
}

// FormatTSV formats the result as tab-separated values with a header row.
func (r *Result) FormatTSV() (string, error) {
	var sb strings.Builder
	writer := csv.NewWriter(&sb)
	writer.Comma = '\t'

	if err := writer.Write(tableColumns); err != nil {
		return "", err
	}
	for _, row := range r.Rows {
		if err := writer.Write(row.columns()); err != nil {
			return "", err
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return "", err
	}
	return sb.String(), nil
}
