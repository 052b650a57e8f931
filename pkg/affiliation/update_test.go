package affiliation

import (
	"bytes"
	"strings"
	"testing"

	"github.com/go-faster/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestUnifyClubName(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"niez.", "niezależni"},
		{"PSL-TD", "PSL"},
		{"Polska2050-TD", "PL2050"},
		{"KO", "KO"},
		{"", ""},
	}

	for _, tt := range tests {
		if got := UnifyClubName(tt.in); got != tt.want {
			t.Errorf("UnifyClubName(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestSplitListedName(t *testing.T) {
	first, sur, ok := splitListedName("  Nowak   Leopold Maria ")
	assert.True(t, ok)
	assert.Equal(t, "Leopold Maria", first)
	assert.Equal(t, "Nowak", sur)

	_, _, ok = splitListedName("Bezklubowy")
	assert.False(t, ok)
}

func TestParseDeputyListActive(t *testing.T) {
	deputies, err := ParseDeputyListFile("testdata/www/poslowie-active.html", true)
	require.NoError(t, err)
	require.Len(t, deputies, 5, "entry with a single-word name is skipped")

	assert.Equal(t, ListedDeputy{FirstName: "Jan", Surname: "Kowalski", Club: "KO", Active: true}, deputies[0])
	assert.Equal(t, "Leopold Maria Nowak", deputies[2].Name())
	assert.Equal(t, "niezależni", deputies[2].Club)
	assert.Equal(t, "Łukasz Kmita", deputies[3].Name())
	assert.Equal(t, "PL2050", deputies[4].Club)
}

func TestParseDeputyListDeactivated(t *testing.T) {
	deputies, err := ParseDeputyListFile("testdata/www/poslowie-deactivated.html", false)
	require.NoError(t, err)
	require.Len(t, deputies, 3)

	assert.Equal(t, ListedDeputy{
		FirstName:        "Jan",
		Surname:          "Smith",
		Club:             "Y",
		DeactivateReason: "wygaśnięcie mandatu",
	}, deputies[0])
	assert.Equal(t, "PSL", deputies[2].Club)
	assert.Equal(t, "wybór do Parlamentu Europejskiego", deputies[2].DeactivateReason)
}

func TestParseDeputyListEmptyPage(t *testing.T) {
	deputies, err := ParseDeputyList(strings.NewReader("<html><body><p>Brak danych</p></body></html>"), true)
	require.NoError(t, err)
	assert.Empty(t, deputies)
}

func TestMerge(t *testing.T) {
	core, logs := observer.New(zap.WarnLevel)
	r := loadSampleRegistry(t, WithLogger(zap.New(core)))

	active, err := ParseDeputyListFile("testdata/www/poslowie-active.html", true)
	require.NoError(t, err)
	deactivated, err := ParseDeputyListFile("testdata/www/poslowie-deactivated.html", false)
	require.NoError(t, err)

	report, err := r.Merge(append(active, deactivated...))
	require.NoError(t, err)

	assert.Equal(t, []string{"Ewa Wiśniewska", "Piotr Zieliński"}, report.Added)
	assert.Equal(t, []string{"Anna Nowak"}, report.Deactivated)
	assert.Equal(t, []string{"Jan Kowalski", "Leopold Maria Nowak"}, report.ClubChanged)
	assert.Equal(t, []string{"Jan Kropek"}, report.Missing)
	assert.Equal(t, 9, r.Count(false))

	missing := logs.FilterMessageSnippet("not found in deputy listings").All()
	require.Len(t, missing, 1)
	assert.Equal(t, "Jan Kropek", missing[0].ContextMap()["name"])

	kowalski := r.GetByName("Jan Kowalski")
	require.Len(t, kowalski.Clubs, 2)
	assert.Equal(t, "TODO_CHANGE_OF_CLUB_DATE", kowalski.Clubs[0].To.String())
	assert.Equal(t, "KO", kowalski.Clubs[1].Club)
	assert.Equal(t, "TODO_CHANGE_OF_CLUB_DATE", kowalski.Clubs[1].From.String())

	nowak := r.GetByName("Jan Nowak")
	assert.Len(t, nowak.Clubs, 3, "unchanged club is left alone")

	anna := r.GetByName("Anna Nowak")
	assert.False(t, anna.Active)
	assert.Equal(t, "zrzeczenie się mandatu", anna.DeactivateReason)
	assert.Equal(t, "TODO_DEACTIVATE_DATE", anna.ActiveTo.String())

	ewa := r.GetByName("Ewa Wiśniewska")
	require.NotNil(t, ewa)
	assert.True(t, ewa.Active)
	assert.Equal(t, "PL2050", ewa.Clubs[0].Club)
	assert.Equal(t, "TODO_NEW_PERSON_START_TERM", ewa.Clubs[0].From.String())

	piotr := r.GetByName("Piotr Zieliński")
	require.NotNil(t, piotr)
	assert.False(t, piotr.Active)
	assert.Equal(t, "TODO_DEACTIVATE_DATE", piotr.ActiveTo.String())
	assert.Equal(t, "wybór do Parlamentu Europejskiego", piotr.DeactivateReason)
}

func TestMergeReactivationIsAnError(t *testing.T) {
	r := loadSampleRegistry(t)

	_, err := r.Merge([]ListedDeputy{{FirstName: "Jan", Surname: "Smith", Club: "Y", Active: true}})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrInconsistentUpdate))
}

func TestMergeIsIdempotent(t *testing.T) {
	r := loadSampleRegistry(t)

	active, err := ParseDeputyListFile("testdata/www/poslowie-active.html", true)
	require.NoError(t, err)
	deactivated, err := ParseDeputyListFile("testdata/www/poslowie-deactivated.html", false)
	require.NoError(t, err)
	listed := append(active, deactivated...)

	_, err = r.Merge(listed)
	require.NoError(t, err)

	again, err := r.Merge(listed)
	require.NoError(t, err)
	assert.Empty(t, again.Added)
	assert.Empty(t, again.Deactivated)
	assert.Empty(t, again.ClubChanged)
	assert.Equal(t, []string{"Jan Kropek"}, again.Missing)
	assert.Len(t, r.GetByName("Jan Kowalski").Clubs, 2)
	assert.Len(t, r.GetByName("Leopold Maria Nowak").Clubs, 2)

	var buf bytes.Buffer
	require.NoError(t, r.WriteJSON(&buf))
	reloaded, err := ParseRegistry(&buf)
	require.NoError(t, err)

	afterReload, err := reloaded.Merge(listed)
	require.NoError(t, err)
	assert.Empty(t, afterReload.ClubChanged, "saved registry keeps the undated club change current")
	assert.Len(t, reloaded.GetByName("Jan Kowalski").Clubs, 2)
}
