package audit

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func sampleTrail() []Record {
	return []Record{
		{DocumentLabel: "alciato1531", QueriedTerm: "lat", MatchCount: 1, ResolvedURI: "http://id.loc.gov/vocabulary/iso639-2/lat", Domain: "language", Method: "code", RunID: "run-1"},
		{DocumentLabel: "alciato1531", QueriedTerm: "emblems", MatchCount: 1, ResolvedURI: "http://id.loc.gov/authorities/subjects/sh85042693", Domain: "subject", Method: "dictionary", RunID: "run-1"},
		{DocumentLabel: "alciato1531", QueriedTerm: "emblems--poland", MatchCount: 0, Domain: "subject", Method: "remote", RunID: "run-1"},
		{DocumentLabel: "whitney1586", QueriedTerm: "whitney, geffrey", MatchCount: 2, Domain: "name", Method: "remote", RunID: "run-1"},
		{DocumentLabel: "whitney1586", QueriedTerm: "creator", MatchCount: 1, ResolvedURI: "http://id.loc.gov/vocabulary/relators/cre", Domain: "role", Method: "dictionary", RunID: "run-1"},
	}
}

func TestCSVHeaderAndRows(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, sampleTrail()[2:4]))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "documentLabel,queriedTerm,matchCount,resolvedURI,domain,method,runID", lines[0])
	assert.Equal(t, "alciato1531,emblems--poland,0,,subject,remote,run-1", lines[1])
	assert.Equal(t, `whitney1586,"whitney, geffrey",2,,name,remote,run-1`, lines[2])
}

func TestReadCSVAcceptsCoreColumns(t *testing.T) {
	input := "documentLabel,queriedTerm,matchCount,resolvedURI\n" +
		"book1,poetry,1,http://id.loc.gov/authorities/genreForms/gf2014026481\n" +
		"book1,satire,0,\n"

	records, err := ReadCSV(strings.NewReader(input))
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.True(t, records[0].Resolved())
	assert.Equal(t, "satire", records[1].QueriedTerm)
	assert.Empty(t, records[1].Domain)
}

func TestReadCSVErrors(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{name: "missing column", input: "documentLabel,queriedTerm\nbook,x\n"},
		{name: "bad count", input: "documentLabel,queriedTerm,matchCount,resolvedURI\nbook,x,many,\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ReadCSV(strings.NewReader(tt.input))
			assert.Error(t, err)
		})
	}
}

func TestFileFormats(t *testing.T) {
	tests := []struct {
		name string
		file string
	}{
		{name: "csv", file: "audit.csv"},
		{name: "parquet", file: "audit.parquet"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), tt.file)
			require.NoError(t, WriteFile(path, sampleTrail()))

			info, err := os.Stat(path)
			require.NoError(t, err)
			assert.Positive(t, info.Size())

			records, err := ReadFile(path)
			require.NoError(t, err)
			assert.Equal(t, sampleTrail(), records)
		})
	}
}

func TestUnsupportedFormat(t *testing.T) {
	path := filepath.Join(t.TempDir(), "audit.txt")
	assert.Error(t, WriteFile(path, sampleTrail()))
	_, err := ReadFile(path)
	assert.Error(t, err)
}

func TestSummarize(t *testing.T) {
	s := Summarize(sampleTrail())

	assert.Equal(t, 2, s.Documents)
	assert.Equal(t, 5, s.Attempts)
	assert.Equal(t, 3, s.Resolved)
	assert.Equal(t, 1, s.Ambiguous)
	assert.Equal(t, 1, s.NoMatch)
	assert.Equal(t, 2, s.RemoteLookups)
	assert.InDelta(t, 0.6, s.ResolutionRate, 1e-9)
	assert.Equal(t, []string{"language", "name", "role", "subject"}, s.Domains())
	assert.Equal(t, 2, s.ByDomain["subject"].Attempts)
	assert.InDelta(t, 0.5, s.ByDomain["subject"].ResolutionRate, 1e-9)
	assert.Equal(t, 2, s.ByMethod["dictionary"])
}

func TestSummarizeEmpty(t *testing.T) {
	s := Summarize(nil)
	assert.Zero(t, s.Attempts)
	assert.Zero(t, s.ResolutionRate)
}

func TestRender(t *testing.T) {
	t.Run("text", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, Render(&buf, "text", sampleTrail()))
		out := buf.String()
		assert.Contains(t, out, "AUTHORITY RESOLUTION REPORT")
		assert.Contains(t, out, "Resolved:        3 (60.0%)")
		assert.Contains(t, out, `[name] whitney1586: "whitney, geffrey" (2 matches)`)
	})

	t.Run("json", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, Render(&buf, "json", sampleTrail()))
		var report Report
		require.NoError(t, json.Unmarshal(buf.Bytes(), &report))
		assert.Equal(t, 5, report.Summary.Attempts)
		assert.Len(t, report.Records, 5)
	})

	t.Run("yaml", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, Render(&buf, "yaml", sampleTrail()))
		var report Report
		require.NoError(t, yaml.Unmarshal(buf.Bytes(), &report))
		assert.Equal(t, 3, report.Summary.Resolved)
		assert.Equal(t, "emblems--poland", report.Records[2].QueriedTerm)
	})

	t.Run("csv", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, Render(&buf, "csv", sampleTrail()))
		assert.True(t, strings.HasPrefix(buf.String(), "documentLabel,"))
	})

	t.Run("unknown", func(t *testing.T) {
		assert.Error(t, Render(&bytes.Buffer{}, "xml", sampleTrail()))
	})
}

func TestRenderAllResolved(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Render(&buf, "text", sampleTrail()[:2]))
	assert.Contains(t, buf.String(), "All attempted terms were resolved.")
}
