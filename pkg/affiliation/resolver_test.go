package affiliation

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalize(t *testing.T) {
	resolver := NewResolver(loadSampleRegistry(t))

	tests := []struct {
		name  string
		label string
		want  string
	}{
		{"exact", "Jan Kowalski", "Jan Kowalski"},
		{"title prefix", "Poseł Jan Kowalski", "Jan Kowalski"},
		{"role prefix", "Marszałek Sejmu Jan Kowalski", "Jan Kowalski"},
		{"long prefix", "Przedstawiciel wnioskodawców inicjatywy ustawodawczej społecznego komitetu Odnowa Jan Kowalski", "Jan Kowalski"},
		{"lower case surname", "Jan kowalski", "Jan Kowalski"},
		{"lower case first name", "jan Kowalski", "Jan Kowalski"},
		{"all lower", "jan kowalski", "Jan Kowalski"},
		{"all upper", "JAN KOWALSKI", "Jan Kowalski"},
		{"middle name in registry", "Leopold Maria Nowak", "Leopold Maria Nowak"},
		{"middle name missing in label", "Poseł Leopold Nowak", "Leopold Maria Nowak"},
		{"middle name missing in registry", "Jan Marian Kowalski", "Jan Kowalski"},
		{"polish initial letter", "Sekretarz Poseł Łukasz Kmita", "Łukasz Kmita"},
		{"polish initial upper case", "SEKRETARZ POSEŁ ŁUKASZ KMITA", "Łukasz Kmita"},
		{"doubled whitespace", "Poseł  Jan   Nowak", "Jan Nowak"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := resolver.Normalize(tt.label)
			if !ok || got != tt.want {
				t.Errorf("Normalize(%q) = %q, %v, want %q", tt.label, got, ok, tt.want)
			}
		})
	}
}

func TestNormalizeUnresolved(t *testing.T) {
	resolver := NewResolver(loadSampleRegistry(t))

	for _, label := range []string{
		"",
		"JanKowalski",
		"Jan Kowalski poseł",
		"Jan Kowalski-",
		"Adam Nieznany",
		"Marszałek Szymon Hołownia",
		"XJan Kowalski",
	} {
		if got, ok := resolver.Normalize(label); ok {
			t.Errorf("Normalize(%q) = %q, want unresolved", label, got)
		}
	}
}

func TestNormalizeIsIdempotent(t *testing.T) {
	registry := loadSampleRegistry(t)
	resolver := NewResolver(registry)

	for _, name := range registry.Names() {
		got, ok := resolver.Normalize(name)
		assert.True(t, ok, name)
		assert.Equal(t, name, got)
	}
}

func TestNormalizePrefersLongestName(t *testing.T) {
	registry := NewRegistry()
	registry.Add(NewPerson("Jan", "Kowalski", true, Membership{Club: "A"}))
	registry.Add(NewPerson("Jan", "Kowalski Nowak", true, Membership{Club: "B"}))
	registry.Add(NewPerson("Kowalski", "Nowak", true, Membership{Club: "C"}))
	resolver := NewResolver(registry)

	got, ok := resolver.Normalize("Poseł Sprawozdawca Jan Kowalski Nowak")
	assert.True(t, ok)
	assert.Equal(t, "Jan Kowalski Nowak", got)

	got, ok = resolver.Normalize("Poseł Jan Kowalski")
	assert.True(t, ok)
	assert.Equal(t, "Jan Kowalski", got)
}

func TestNormalizeEmptyRegistry(t *testing.T) {
	resolver := NewResolver(NewRegistry())
	_, ok := resolver.Normalize("Poseł Jan Kowalski")
	assert.False(t, ok)
}

func TestNormalizeQuotesNames(t *testing.T) {
	registry := NewRegistry()
	registry.Add(NewPerson("Anna", "Maria-Wesołowska (Jr.)", true, Membership{Club: "A"}))
	resolver := NewResolver(registry)

	got, ok := resolver.Normalize("Posłanka Anna Maria-Wesołowska (Jr.)")
	assert.True(t, ok)
	assert.Equal(t, "Anna Maria-Wesołowska (Jr.)", got)

	_, ok = resolver.Normalize("Posłanka Anna Maria-Wesołowska xJrx")
	assert.False(t, ok, "metacharacters in names are literal")
}

func TestSuggest(t *testing.T) {
	resolver := NewResolver(loadSampleRegistry(t))

	assert.Equal(t, []string{"Jan Nowak", "Anna Nowak"}, resolver.Suggest("Poseł Nowak", 2))
	assert.Empty(t, resolver.Suggest("Poseł Zzyzx", 3))
	assert.Nil(t, resolver.Suggest("", 3))
	assert.Nil(t, resolver.Suggest("Poseł Nowak", 0))
}
