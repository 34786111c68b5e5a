package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hijrical/internal/model"
)

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := NewRootCommand()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(append([]string{"--config", filepath.Join(t.TempDir(), "config.yaml")}, args...))
	err := cmd.Execute()
	return out.String(), err
}

func TestParseCommand(t *testing.T) {
	src := filepath.Join(t.TempDir(), "calendar.txt")
	text := "Muharram 1 1447 AH = June 26, 2025\nSafar 1 1447 AH = July 26, 2025\nRabi al-Awwal 1 1447 AH = August 24, 2025\n"
	require.NoError(t, os.WriteFile(src, []byte(text), 0o600))

	out, err := run(t, "--format", "json", "parse", src)
	require.NoError(t, err)

	var defs []model.MonthDefinition
	require.NoError(t, json.Unmarshal([]byte(out), &defs), out)
	require.Len(t, defs, 2)
	assert.Equal(t, model.MonthKey{Year: 1447, Month: 1}, defs[0].Key())
	assert.Equal(t, 30, defs[0].Length)
	assert.Equal(t, 29, defs[1].Length)
	assert.Equal(t, model.SourceCalculated, defs[1].Source)

	out, err = run(t, "parse", "--facts", src)
	require.NoError(t, err)
	assert.Contains(t, out, "Rabi al-Awwal 1447\t2025-08-24")
}

func TestParseCommandErrors(t *testing.T) {
	src := filepath.Join(t.TempDir(), "empty.txt")
	require.NoError(t, os.WriteFile(src, []byte("nothing here"), 0o600))

	_, err := run(t, "parse", src)
	assert.ErrorIs(t, err, model.ErrParsingFailed)

	_, err = run(t, "parse", "--parser", "runes", src)
	assert.ErrorContains(t, err, "unknown parser")

	_, err = run(t, "--format", "yaml", "parse", src)
	assert.ErrorContains(t, err, "invalid format")
}

func TestExtractorFor(t *testing.T) {
	tests := []struct {
		kind, src string
		want      string
	}{
		{"", "cal.PDF", "extract.Document"},
		{"", "cal.txt", "extract.Func"},
		{"", "https://example.org/calendar/", "extract.Markup"},
		{"pdf", "download", "extract.Document"},
	}
	for _, tt := range tests {
		got := extractorFor(tt.kind, tt.src)
		assert.Equal(t, tt.want, fmt.Sprintf("%T", got), tt.src)
	}
}

func TestParseDay(t *testing.T) {
	want := time.Date(2026, time.February, 18, 0, 0, 0, 0, time.UTC)
	for _, in := range []string{"2026-02-18", "February 18, 2026", "Feb 18th 2026", "18 February 2026"} {
		got, err := parseDay(in, time.UTC)
		require.NoError(t, err, in)
		assert.True(t, want.Equal(got), in)
	}

	_, err := parseDay("18/02/2026", time.UTC)
	assert.ErrorContains(t, err, "YYYY-MM-DD")

	iv, err := rangeOf("March 1, 2026", "2026-03-31", time.UTC)
	require.NoError(t, err)
	assert.Equal(t, time.March, iv.Start.Month())
	assert.Equal(t, 30, int(iv.End.Sub(iv.Start).Hours()/24))

	_, err = rangeOf("", "someday", time.UTC)
	assert.ErrorContains(t, err, "--to")
}
