package config

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/go-faster/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// clearEnv unsets the SEJMTRANS_* variables for the duration of the test.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"SEJMTRANS_REGISTRY",
		"SEJMTRANS_TRANSCRIPTS",
		"SEJMTRANS_LOG_LEVEL",
		"SEJMTRANS_LOG_FILE",
		"SEJMTRANS_OUTPUT_FORMAT",
	} {
		t.Setenv(key, "")
		require.NoError(t, os.Unsetenv(key))
	}
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)
	chdir(t, t.TempDir())

	c, err := Load("", nil)
	require.NoError(t, err)
	assert.Equal(t, Default(), c)
	assert.Equal(t, filepath.Join("resources", "political-affiliation", "sejm.json"), c.Registry)
	assert.Equal(t, "info", c.Log.Level)
	assert.Equal(t, "text", c.Output.Format)
}

func TestLoadFile(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	path := writeFile(t, dir, "custom.yaml", `
registry: data/sejm.json
phrase_lists:
  hanba: [hańba, hańby]
log:
  level: debug
output:
  format: xlsx
`)

	c, err := Load(path, nil)
	require.NoError(t, err)
	assert.Equal(t, "data/sejm.json", c.Registry)
	assert.Equal(t, Default().Transcripts, c.Transcripts, "absent keys keep defaults")
	assert.Equal(t, []string{"hańba", "hańby"}, c.PhraseLists["hanba"])
	assert.Equal(t, "debug", c.Log.Level)
	assert.Equal(t, "xlsx", c.Output.Format)
}

func TestLoadDefaultFileFromWorkingDirectory(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	writeFile(t, dir, DefaultFile, "transcripts: sittings\n")
	chdir(t, dir)

	c, err := Load("", nil)
	require.NoError(t, err)
	assert.Equal(t, "sittings", c.Transcripts)
}

func TestLoadEnvironmentOverrides(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	path := writeFile(t, dir, "custom.yaml", "output:\n  format: tsv\n")
	envFile := writeFile(t, dir, ".env", "SEJMTRANS_LOG_LEVEL=warn\nSEJMTRANS_OUTPUT_FORMAT=text\n")
	t.Setenv("SEJMTRANS_OUTPUT_FORMAT", "json")

	c, err := Load(path, []string{envFile, filepath.Join(dir, ".env.local")})
	require.NoError(t, err)
	assert.Equal(t, "json", c.Output.Format, "process environment beats env files")
	assert.Equal(t, "warn", c.Log.Level, "env file beats config file")
}

func TestLoadEnvCountsExistingFiles(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	envFile := writeFile(t, dir, ".env", "SEJMTRANS_LOG_FILE=logs/sejmtrans.log\n")

	n, err := LoadEnv([]string{envFile, filepath.Join(dir, "missing.env")})
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Equal(t, "logs/sejmtrans.log", os.Getenv("SEJMTRANS_LOG_FILE"))

	n, err = LoadEnv(nil)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestLoadErrors(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()

	_, err := Load(filepath.Join(dir, "missing.yaml"), nil)
	assert.Error(t, err)

	_, err = Load(writeFile(t, dir, "unknown.yaml", "registri: typo.json\n"), nil)
	assert.Error(t, err, "unknown keys are rejected")

	_, err = Load(writeFile(t, dir, "format.yaml", "output:\n  format: pdf\n"), nil)
	assert.True(t, errors.Is(err, ErrInvalidConfig))

	t.Setenv("SEJMTRANS_LOG_LEVEL", "verbose")
	_, err = Load("", nil)
	assert.True(t, errors.Is(err, ErrInvalidConfig))
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*Config)
	}{
		{"empty registry", func(c *Config) { c.Registry = " " }},
		{"empty transcripts", func(c *Config) { c.Transcripts = "" }},
		{"bad level", func(c *Config) { c.Log.Level = "trace" }},
		{"bad format", func(c *Config) { c.Output.Format = "csv" }},
		{"empty phrase list", func(c *Config) { c.PhraseLists = map[string][]string{"x": nil} }},
	}

	require.NoError(t, Default().Validate())
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := Default()
			tt.modify(c)
			if err := c.Validate(); !errors.Is(err, ErrInvalidConfig) {
				t.Errorf("Validate() = %v, want ErrInvalidConfig", err)
			}
		})
	}
}

func TestEncodeRoundTrip(t *testing.T) {
	c := Default()
	c.PhraseLists = map[string][]string{"ksiazka": {"książka", "książki"}}

	var buf bytes.Buffer
	require.NoError(t, c.Encode(&buf))
	assert.Contains(t, buf.String(), "format: text")

	decoded := &Config{}
	require.NoError(t, decoded.Decode(&buf))
	assert.Equal(t, c, decoded)
}

// chdir changes the working directory for the duration of the test
// (equivalent of testing.T.Chdir, which requires Go 1.24).
func chdir(t *testing.T, dir string) {
	t.Helper()
	prev, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(prev) })
}
