package query

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/go-faster/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/coolbeans/sejmtrans/pkg/affiliation"
	"github.com/coolbeans/sejmtrans/pkg/transcript"
)

const (
	sampleTranscriptDir = "../transcript/testdata/sejm"
	sampleRegistryPath  = "../affiliation/testdata/sejm.json"
)

func loadTranscripts(t *testing.T) []*transcript.Transcript {
	t.Helper()
	ts, err := transcript.LoadDirectory(sampleTranscriptDir, nil)
	require.NoError(t, err)
	return ts
}

func newAssigner(t *testing.T) *affiliation.Assigner {
	t.Helper()
	registry, err := affiliation.LoadRegistry(sampleRegistryPath)
	require.NoError(t, err)
	return affiliation.NewAssigner(affiliation.NewResolver(registry), nil)
}

func execute(t *testing.T, e *Executor, fields ...Field) *Result {
	t.Helper()
	result, err := e.Execute(fields)
	require.NoError(t, err)
	return result
}

func values(result *Result) []string {
	var out []string
	for _, row := range result.Rows {
		out = append(out, row.Value)
	}
	return out
}

func TestParseFields(t *testing.T) {
	fields, err := ParseFields([]string{"utt_norm", "speech_speaker", "utt_norm"})
	require.NoError(t, err)
	assert.Equal(t, []Field{FieldUttNorm, FieldSpeechSpeaker}, fields)

	_, err = ParseFields([]string{"utt_applause"})
	assert.True(t, errors.Is(err, ErrUnknownField))

	_, err = ParseFields(nil)
	assert.True(t, errors.Is(err, ErrUnknownField))
}

func TestExecuteCounts(t *testing.T) {
	e := NewExecutor(loadTranscripts(t))
	assert.Equal(t, 2, e.CountTranscripts())

	tests := []struct {
		field Field
		want  int
	}{
		{FieldSpeechSpeaker, 9},
		{FieldUttNorm, 12},
		{FieldUttReaction, 2},
		{FieldUttInterrupt, 1},
		{FieldUttInterruptBy, 1},
	}

	for _, tt := range tests {
		t.Run(string(tt.field), func(t *testing.T) {
			result := execute(t, e, tt.field)
			if result.Count != tt.want {
				t.Errorf("Execute(%s).Count = %d, want %d", tt.field, result.Count, tt.want)
			}
		})
	}
}

func TestExecuteValues(t *testing.T) {
	e := NewExecutor(loadTranscripts(t))

	assert.Equal(t, []string{"Oklaski", "Śmiech na sali. Oklaski."}, values(execute(t, e, FieldUttReaction)))
	assert.Equal(t, []string{"Poseł Anna Nowak"}, values(execute(t, e, FieldUttInterruptBy)))
	assert.Equal(t, []string{"Hańba! Hańba! Hańba!"}, values(execute(t, e, FieldUttInterrupt)))

	norm := values(execute(t, e, FieldUttNorm))
	assert.Contains(t, norm, "Panie Marszałku! Wysoka Izbo! Polski rząd przygotował projekt ustawy.")
	assert.Contains(t, norm, "Książki dla szkół.")
}

func TestExecuteDocumentOrder(t *testing.T) {
	e := NewExecutor(loadTranscripts(t))
	result := execute(t, e, FieldUttInterruptBy, FieldSpeechSpeaker)

	require.GreaterOrEqual(t, len(result.Rows), 3)
	assert.Equal(t, Row{Date: "2024-10-01", Field: FieldSpeechSpeaker, Speaker: "Marszałek Szymon Hołownia", Value: "Marszałek Szymon Hołownia"}, result.Rows[0])
	assert.Equal(t, FieldSpeechSpeaker, result.Rows[1].Field)
	assert.Equal(t, FieldUttInterruptBy, result.Rows[2].Field, "interruption follows its speech")
}

func TestExecuteWithParties(t *testing.T) {
	assigner := newAssigner(t)

	e := NewExecutor(loadTranscripts(t), WithParties(assigner, []string{"X"}))
	assert.Equal(t,
		[]string{"Poseł Jan Kowalski", "Poseł Jan Kowalski", "Poseł Leopold Nowak", "Poseł Jan Marian Kowalski"},
		values(execute(t, e, FieldSpeechSpeaker)))
	assert.Equal(t, []string{"Oklaski", "Śmiech na sali. Oklaski."}, values(execute(t, e, FieldUttReaction)),
		"reactions follow the speech speaker")
	assert.Empty(t, execute(t, e, FieldUttInterruptBy).Rows, "interrupting speaker is from KO")

	ko := NewExecutor(loadTranscripts(t), WithParties(assigner, []string{"KO"}))
	assert.Equal(t, []string{"Poseł Anna Nowak"}, values(execute(t, ko, FieldUttInterruptBy)))
	assert.Empty(t, execute(t, ko, FieldSpeechSpeaker).Rows)

	all := NewExecutor(loadTranscripts(t), WithParties(assigner, nil))
	assert.Equal(t, 9, execute(t, all, FieldSpeechSpeaker).Count)
}

func TestExecuteErrors(t *testing.T) {
	e := NewExecutor(loadTranscripts(t), WithParties(nil, []string{"X"}))
	_, err := e.Execute([]Field{FieldSpeechSpeaker})
	assert.Error(t, err)

	_, err = NewExecutor(loadTranscripts(t)).Execute([]Field{"nope"})
	assert.True(t, errors.Is(err, ErrUnknownField))

	bad := []*transcript.Transcript{{Date: "2024-10-01", Speeches: []*transcript.Speech{{Speaker: "Poseł", Utterances: []transcript.Utterance{nil}}}}}
	_, err = NewExecutor(bad).Execute([]Field{FieldUttNorm})
	assert.True(t, errors.Is(err, transcript.ErrUnknownUtterance))
}

func TestFormat(t *testing.T) {
	e := NewExecutor(loadTranscripts(t))

	single := execute(t, e, FieldUttInterruptBy)
	text, err := single.Format(FormatText)
	require.NoError(t, err)
	assert.Equal(t, "Poseł Anna Nowak\n", text)

	multi := execute(t, e, FieldUttInterrupt, FieldUttInterruptBy)
	text, err = multi.Format(FormatText)
	require.NoError(t, err)
	assert.Equal(t, "utt_interrupt\tHańba! Hańba! Hańba!\nutt_interrupt_by\tPoseł Anna Nowak\n", text)

	tsv, err := multi.Format(FormatTSV)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(tsv), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "date\tfield\tspeaker\tvalue", lines[0])
	assert.Equal(t, "2024-10-01\tutt_interrupt_by\tPoseł Anna Nowak\tPoseł Anna Nowak", lines[2])

	js, err := multi.Format(FormatJSON)
	require.NoError(t, err)
	var decoded struct {
		Fields []string `json:"fields"`
		Rows   []Row    `json:"rows"`
		Count  int      `json:"count"`
	}
	require.NoError(t, json.Unmarshal([]byte(js), &decoded))
	assert.Equal(t, 2, decoded.Count)
	assert.Equal(t, []string{"utt_interrupt", "utt_interrupt_by"}, decoded.Fields)

	table, err := multi.Format(FormatTable)
	require.NoError(t, err)
	assert.Contains(t, table, "| 2024-10-01 | utt_interrupt    | Poseł Anna Nowak | Hańba! Hańba! Hańba! |")
	assert.True(t, strings.HasSuffix(table, "2 rows\n"))

	_, err = multi.Format("xml")
	assert.Error(t, err)
}

func TestFormatTableEmpty(t *testing.T) {
	assert.Equal(t, "No results (0 rows)\n", (&Result{}).FormatTable())
}
